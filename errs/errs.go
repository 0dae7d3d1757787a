// Package errs defines the sentinel errors returned across the codec
// packages. Callers use errors.Is against these values; wrapped errors
// carry additional context via fmt.Errorf("%w: ...", errs.ErrX, ...).
package errs

import "errors"

var (
	// ErrVarintOverflow is returned when encoding a varint would write past
	// the end of the destination buffer.
	ErrVarintOverflow = errors.New("varint: buffer too small to hold encoded value")

	// ErrVarintUnderflow is returned when decoding a varint runs off the end
	// of the source buffer before a terminating byte is found.
	ErrVarintUnderflow = errors.New("varint: buffer ended before terminating byte")

	// ErrBitCopyBounds is returned when a bit copy would read or write past
	// the end of its buffer.
	ErrBitCopyBounds = errors.New("bitcopy: operation out of buffer bounds")

	// ErrEncodeOverflow is returned when the output buffer is too small to
	// hold the encoded sample.
	ErrEncodeOverflow = errors.New("codec: output buffer too small")

	// ErrDecodeUnderflow is returned when the input buffer runs out mid-sample.
	ErrDecodeUnderflow = errors.New("codec: input buffer ended mid-sample")

	// ErrEncodeState is returned when encode is called with state invariants
	// violated, e.g. idx >= 1 without a previously encoded measurement.
	ErrEncodeState = errors.New("codec: encoder state invariant violated")

	// ErrDecodeState is returned when decode is called with state invariants
	// violated, e.g. idx >= 1 without a previously decoded measurement.
	ErrDecodeState = errors.New("codec: decoder state invariant violated")
)
