// Package codec implements the delta/XOR streaming compression algorithm
// for (timestamp, count, value) measurements, layered directly on the
// bitcopy and varint primitives. It carries no bit-buffer accumulator of
// its own; every field, however small, is written through bitcopy.Copy at
// the state's current bit offset.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/coldbrew-labs/tszgorilla/bitcopy"
	"github.com/coldbrew-labs/tszgorilla/errs"
	"github.com/coldbrew-labs/tszgorilla/varint"
)

// Measurement is the unit record carried by the stream: an unsigned
// timestamp, an unsigned count, and an IEEE-754 double value. Equality is
// bitwise on all three fields.
type Measurement struct {
	Timestamp uint64
	Count     uint64
	Value     float64
}

// State is the mutable, single-owner, per-stream metadata carried across
// samples. A zero-value State, or one produced by NewState, is ready to
// encode or decode sample 0.
type State struct {
	// Idx is the count of samples processed so far; 0 before the first.
	Idx uint64

	// BitOffset is the next bit position to read or write in the external
	// buffer. It only ever increases.
	BitOffset int

	// LastTimestampDelta is the signed delta between the two most recent
	// timestamps. Meaningless before the second sample.
	LastTimestampDelta int64

	// LastMeasurement holds the previously encoded or decoded measurement.
	// Absent before sample 0 completes.
	LastMeasurement *Measurement

	// LastXor holds the most recent XOR that was written or read with its
	// own new envelope. It is not refreshed by envelope-reuse samples.
	LastXor *uint64
}

// NewState returns a fresh State ready for sample 0.
func NewState() *State {
	return &State{}
}

// ByteLen returns the number of bytes needed to hold everything written or
// read so far, rounding the bit offset up to the next byte.
func (s *State) ByteLen() int {
	return (s.BitOffset + 7) / 8
}

// Encode writes m into buf at state's current position and advances state.
//
// Behavior depends on state.Idx: sample 0 writes a raw header, sample 1
// writes its timestamp delta with no control bit ahead of it, and sample 2+
// writes a control bit ahead of every field that can be cheaply reused.
func Encode(buf []byte, state *State, m Measurement) error {
	switch state.Idx {
	case 0:
		if err := encodeUvarintField(buf, state, m.Timestamp); err != nil {
			return err
		}
		if err := encodeUvarintField(buf, state, m.Count); err != nil {
			return err
		}
		if err := encodeRawValue(buf, state, m.Value); err != nil {
			return err
		}
		state.LastTimestampDelta = 0

	case 1:
		if state.LastMeasurement == nil {
			return fmt.Errorf("%w: idx=1 but no prior measurement", errs.ErrEncodeState)
		}
		td := int64(m.Timestamp) - int64(state.LastMeasurement.Timestamp)
		if err := encodeUvarintField(buf, state, varint.EncodeZigzag(td)); err != nil {
			return err
		}
		state.LastTimestampDelta = td

		if err := encodeCountField(buf, state, m); err != nil {
			return err
		}
		if err := encodeValueField(buf, state, m); err != nil {
			return err
		}

	default:
		if state.LastMeasurement == nil {
			return fmt.Errorf("%w: idx=%d but no prior measurement", errs.ErrEncodeState, state.Idx)
		}
		td := int64(m.Timestamp) - int64(state.LastMeasurement.Timestamp)
		if td == state.LastTimestampDelta {
			if err := encodeControlBit(buf, state, 0); err != nil {
				return err
			}
		} else {
			if err := encodeControlBit(buf, state, 1); err != nil {
				return err
			}
			if err := encodeUvarintField(buf, state, varint.EncodeZigzag(td)); err != nil {
				return err
			}
		}
		state.LastTimestampDelta = td

		if err := encodeCountField(buf, state, m); err != nil {
			return err
		}
		if err := encodeValueField(buf, state, m); err != nil {
			return err
		}
	}

	state.LastMeasurement = &m
	state.Idx++

	return nil
}

// Decode reads the next measurement from buf at state's current position
// and advances state. It mirrors Encode exactly, field for field.
func Decode(buf []byte, state *State) (Measurement, error) {
	var m Measurement

	switch state.Idx {
	case 0:
		ts, err := decodeUvarintField(buf, state)
		if err != nil {
			return m, err
		}
		count, err := decodeUvarintField(buf, state)
		if err != nil {
			return m, err
		}
		value, err := decodeRawValue(buf, state)
		if err != nil {
			return m, err
		}
		m = Measurement{Timestamp: ts, Count: count, Value: value}
		state.LastTimestampDelta = 0

	case 1:
		if state.LastMeasurement == nil {
			return m, fmt.Errorf("%w: idx=1 but no prior measurement", errs.ErrDecodeState)
		}
		zz, err := decodeUvarintField(buf, state)
		if err != nil {
			return m, err
		}
		td := varint.DecodeZigzag(zz)
		ts := uint64(int64(state.LastMeasurement.Timestamp) + td)
		state.LastTimestampDelta = td

		count, err := decodeCountField(buf, state)
		if err != nil {
			return m, err
		}
		value, err := decodeValueField(buf, state)
		if err != nil {
			return m, err
		}
		m = Measurement{Timestamp: ts, Count: count, Value: value}

	default:
		if state.LastMeasurement == nil {
			return m, fmt.Errorf("%w: idx=%d but no prior measurement", errs.ErrDecodeState, state.Idx)
		}
		bit, err := decodeControlBit(buf, state)
		if err != nil {
			return m, err
		}
		var td int64
		if bit == 0 {
			td = state.LastTimestampDelta
		} else {
			zz, err := decodeUvarintField(buf, state)
			if err != nil {
				return m, err
			}
			td = varint.DecodeZigzag(zz)
		}
		ts := uint64(int64(state.LastMeasurement.Timestamp) + td)
		state.LastTimestampDelta = td

		count, err := decodeCountField(buf, state)
		if err != nil {
			return m, err
		}
		value, err := decodeValueField(buf, state)
		if err != nil {
			return m, err
		}
		m = Measurement{Timestamp: ts, Count: count, Value: value}
	}

	state.LastMeasurement = &m
	state.Idx++

	return m, nil
}

func encodeCountField(buf []byte, state *State, m Measurement) error {
	cd := int64(m.Count) - int64(state.LastMeasurement.Count)
	if cd == 0 {
		return encodeControlBit(buf, state, 0)
	}

	if err := encodeControlBit(buf, state, 1); err != nil {
		return err
	}
	return encodeUvarintField(buf, state, varint.EncodeZigzag(cd))
}

func decodeCountField(buf []byte, state *State) (uint64, error) {
	bit, err := decodeControlBit(buf, state)
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return state.LastMeasurement.Count, nil
	}

	zz, err := decodeUvarintField(buf, state)
	if err != nil {
		return 0, err
	}
	cd := varint.DecodeZigzag(zz)
	return uint64(int64(state.LastMeasurement.Count) + cd), nil
}

// encodeValueField writes the value_record as described by the wire
// layout: a reuse bit, and on miss an envelope-reuse bit followed by
// either a reused-envelope payload or a fresh 6+6-bit envelope header.
func encodeValueField(buf []byte, state *State, m Measurement) error {
	prevBits := math.Float64bits(state.LastMeasurement.Value)
	curBits := math.Float64bits(m.Value)
	xor := prevBits ^ curBits

	if xor == 0 {
		return encodeControlBit(buf, state, 0)
	}
	if err := encodeControlBit(buf, state, 1); err != nil {
		return err
	}

	lz := bits.LeadingZeros64(xor)
	tz := bits.TrailingZeros64(xor)

	var xorBE [8]byte
	binary.BigEndian.PutUint64(xorBE[:], xor)

	if state.LastXor != nil {
		prevXor := *state.LastXor
		prevLz := bits.LeadingZeros64(prevXor)
		prevTz := bits.TrailingZeros64(prevXor)

		if lz >= prevLz && tz >= prevTz {
			if err := encodeControlBit(buf, state, 0); err != nil {
				return err
			}
			sig := 64 - (prevLz + prevTz)
			return copyBitsToBuf(buf, state, xorBE[:], sig, prevLz, errs.ErrEncodeOverflow)
		}
	}

	if err := encodeControlBit(buf, state, 1); err != nil {
		return err
	}

	// 64 - (lz + tz) wraps to 0 in the 6-bit field when lz and tz are both
	// zero; this is a documented limitation of the envelope encoding, not
	// handled here. Both encoder and decoder wrap identically.
	sig := byte((64 - (lz + tz)) & 0x3F)

	if err := encodeSixBitField(buf, state, byte(lz), errs.ErrEncodeOverflow); err != nil {
		return err
	}
	if err := encodeSixBitField(buf, state, sig, errs.ErrEncodeOverflow); err != nil {
		return err
	}
	if err := copyBitsToBuf(buf, state, xorBE[:], int(sig), lz, errs.ErrEncodeOverflow); err != nil {
		return err
	}

	state.LastXor = &xor
	return nil
}

func decodeValueField(buf []byte, state *State) (float64, error) {
	bit, err := decodeControlBit(buf, state)
	if err != nil {
		return 0, err
	}
	if bit == 0 {
		return state.LastMeasurement.Value, nil
	}

	envelopeBit, err := decodeControlBit(buf, state)
	if err != nil {
		return 0, err
	}

	prevBits := math.Float64bits(state.LastMeasurement.Value)

	if envelopeBit == 0 {
		if state.LastXor == nil {
			return 0, fmt.Errorf("%w: reuse-envelope sample with no prior envelope", errs.ErrDecodeState)
		}
		prevXor := *state.LastXor
		prevLz := bits.LeadingZeros64(prevXor)
		prevTz := bits.TrailingZeros64(prevXor)
		sig := 64 - (prevLz + prevTz)

		var scratch [8]byte
		if err := copyBitsFromBuf(buf, state, scratch[:], sig, prevLz, errs.ErrDecodeUnderflow); err != nil {
			return 0, err
		}
		xor := binary.BigEndian.Uint64(scratch[:])
		// LastXor is deliberately left untouched: reuse samples do not
		// refresh the envelope.
		return math.Float64frombits(prevBits ^ xor), nil
	}

	lzByte, err := decodeSixBitField(buf, state, errs.ErrDecodeUnderflow)
	if err != nil {
		return 0, err
	}
	sigByte, err := decodeSixBitField(buf, state, errs.ErrDecodeUnderflow)
	if err != nil {
		return 0, err
	}

	var scratch [8]byte
	if err := copyBitsFromBuf(buf, state, scratch[:], int(sigByte), int(lzByte), errs.ErrDecodeUnderflow); err != nil {
		return 0, err
	}
	xor := binary.BigEndian.Uint64(scratch[:])
	state.LastXor = &xor

	return math.Float64frombits(prevBits ^ xor), nil
}

func encodeRawValue(buf []byte, state *State, v float64) error {
	var scratch [8]byte
	binary.BigEndian.PutUint64(scratch[:], math.Float64bits(v))
	return copyBitsToBuf(buf, state, scratch[:], 64, 0, errs.ErrEncodeOverflow)
}

func decodeRawValue(buf []byte, state *State) (float64, error) {
	var scratch [8]byte
	if err := copyBitsFromBuf(buf, state, scratch[:], 64, 0, errs.ErrDecodeUnderflow); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(scratch[:])), nil
}

func encodeUvarintField(buf []byte, state *State, v uint64) error {
	var scratch [varint.MaxLen]byte
	n, err := varint.EncodeUvarint(scratch[:], v)
	if err != nil {
		return err
	}
	return copyBitsToBuf(buf, state, scratch[:n], n*8, 0, errs.ErrEncodeOverflow)
}

// decodeUvarintField reads a varint out of the bit stream by staging up to
// MaxLen bytes, one byte at a time, into a scratch buffer before handing
// it to the byte-oriented varint decoder.
func decodeUvarintField(buf []byte, state *State) (uint64, error) {
	var scratch [varint.MaxLen]byte

	for n := 0; n < varint.MaxLen; n++ {
		if err := copyBitsFromBuf(buf, state, scratch[n:n+1], 8, 0, errs.ErrDecodeUnderflow); err != nil {
			return 0, err
		}
		if scratch[n]&0x80 == 0 {
			v, _, err := varint.DecodeUvarint(scratch[:n+1])
			return v, err
		}
	}

	return 0, fmt.Errorf("%w: varint exceeded %d bytes", errs.ErrDecodeUnderflow, varint.MaxLen)
}

func encodeControlBit(buf []byte, state *State, v byte) error {
	if err := bitcopy.WriteBit(buf, state.BitOffset, v); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrEncodeOverflow, err)
	}
	state.BitOffset++
	return nil
}

func decodeControlBit(buf []byte, state *State) (byte, error) {
	v, err := bitcopy.ReadBit(buf, state.BitOffset)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errs.ErrDecodeUnderflow, err)
	}
	state.BitOffset++
	return v, nil
}

// encodeSixBitField writes the low 6 bits of v (the source offset of 2
// skips the unused high 2 bits of the byte).
func encodeSixBitField(buf []byte, state *State, v byte, wrapErr error) error {
	src := [1]byte{v}
	return copyBitsToBuf(buf, state, src[:], 6, 2, wrapErr)
}

func decodeSixBitField(buf []byte, state *State, wrapErr error) (byte, error) {
	var dst [1]byte
	if err := copyBitsFromBuf(buf, state, dst[:], 6, 2, wrapErr); err != nil {
		return 0, err
	}
	return dst[0], nil
}

func copyBitsToBuf(buf []byte, state *State, src []byte, nbits, srcOff int, wrapErr error) error {
	if err := bitcopy.Copy(buf, src, nbits, state.BitOffset, srcOff); err != nil {
		return fmt.Errorf("%w: %v", wrapErr, err)
	}
	state.BitOffset += nbits
	return nil
}

func copyBitsFromBuf(buf []byte, state *State, dst []byte, nbits, dstOff int, wrapErr error) error {
	if err := bitcopy.Copy(dst, buf, nbits, dstOff, state.BitOffset); err != nil {
		return fmt.Errorf("%w: %v", wrapErr, err)
	}
	state.BitOffset += nbits
	return nil
}
