// Package tszgorilla provides a small, stateful streaming codec for
// time-series measurements, built on a Gorilla-style delta/XOR scheme
// extended with a per-sample count field.
//
// A caller owns a byte buffer and a State; Encode writes one measurement
// at a time into the buffer, Decode reads them back in the same order.
// Nothing here performs I/O, framing, or persistence — the buffer is the
// caller's to allocate, size, and slice.
//
//	state := tszgorilla.NewState()
//	buf := make([]byte, 4096)
//	for _, m := range measurements {
//	    if err := tszgorilla.Encode(buf, state, m); err != nil {
//	        return err
//	    }
//	}
//	payload := buf[:state.ByteLen()]
package tszgorilla

import (
	"fmt"

	"github.com/coldbrew-labs/tszgorilla/internal/codec"
)

// Measurement is the unit record the codec compresses: an unsigned
// timestamp, an unsigned count, and an IEEE-754 double value.
type Measurement = codec.Measurement

// State is the mutable, single-owner metadata a caller carries across an
// encode or decode pass over one stream. Create one with NewState for
// each independent stream; do not share a State across goroutines.
type State = codec.State

// NewState returns a fresh State ready to encode or decode sample 0 of a
// new stream.
func NewState() *State {
	return codec.NewState()
}

// Encode writes m into buf at state's current position and advances
// state. Call it once per measurement, in order, against the same buffer
// and state.
func Encode(buf []byte, state *State, m Measurement) error {
	return codec.Encode(buf, state, m)
}

// Decode reads the next measurement out of buf at state's current
// position and advances state. Call it once per measurement expected,
// against the same buffer a matching sequence of Encode calls produced.
func Decode(buf []byte, state *State) (Measurement, error) {
	return codec.Decode(buf, state)
}

// EncodeMeasurements encodes an entire slice of measurements into a buffer
// drawn from the stream pool, returning a newly allocated copy of the
// trimmed payload. It is a convenience wrapper for the common whole-stream case;
// callers with tighter control over allocation should drive Encode
// directly against their own buffer.
func EncodeMeasurements(ms []Measurement) ([]byte, error) {
	bb := getBuffer(len(ms))
	defer putBuffer(bb)

	state := NewState()
	for _, m := range ms {
		if err := Encode(bb.Bytes(), state, m); err != nil {
			return nil, err
		}
	}

	out := make([]byte, state.ByteLen())
	copy(out, bb.Bytes()[:state.ByteLen()])
	return out, nil
}

// DecodeMeasurements decodes n measurements from buf using a fresh State.
func DecodeMeasurements(buf []byte, n int) ([]Measurement, error) {
	state := NewState()
	out := make([]Measurement, 0, n)
	for i := 0; i < n; i++ {
		m, err := Decode(buf, state)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// EncodeBatch encodes multiple independent streams in one call, sharing a
// single buffer drawn from the larger batch pool across every stream
// instead of allocating or pooling one small buffer per stream. Each stream
// gets its own fresh State; streams remain fully independent, and the
// returned payloads carry no framing between them.
func EncodeBatch(streams [][]Measurement) ([][]byte, error) {
	bb := getBatchBuffer(len(streams))
	defer putBatchBuffer(bb)

	out := make([][]byte, len(streams))
	for i, ms := range streams {
		need := len(ms)*bytesPerMeasurement + 16
		bb.SetLength(0)
		bb.ExtendOrGrow(need)

		state := NewState()
		for _, m := range ms {
			if err := Encode(bb.Bytes(), state, m); err != nil {
				return nil, fmt.Errorf("tszgorilla: stream %d: %w", i, err)
			}
		}

		payload := make([]byte, state.ByteLen())
		copy(payload, bb.Bytes()[:state.ByteLen()])
		out[i] = payload
	}

	return out, nil
}

// DecodeBatch decodes multiple independent payloads produced by EncodeBatch
// (or any matching sequence of Encode calls), one fresh State per stream.
// counts[i] must hold the number of measurements encoded into payloads[i].
func DecodeBatch(payloads [][]byte, counts []int) ([][]Measurement, error) {
	if len(payloads) != len(counts) {
		return nil, fmt.Errorf("tszgorilla: %d payloads but %d counts", len(payloads), len(counts))
	}

	out := make([][]Measurement, len(payloads))
	for i, buf := range payloads {
		ms, err := DecodeMeasurements(buf, counts[i])
		if err != nil {
			return nil, fmt.Errorf("tszgorilla: stream %d: %w", i, err)
		}
		out[i] = ms
	}

	return out, nil
}
