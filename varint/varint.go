// Package varint implements base-128 little-endian variable-length
// encoding for unsigned 64-bit integers, plus zigzag helpers for mapping
// signed values onto the unsigned encoding.
package varint

import (
	"fmt"

	"github.com/coldbrew-labs/tszgorilla/errs"
)

// MaxLen is the maximum number of bytes a 64-bit varint can occupy.
const MaxLen = 10

// EncodeUvarint writes v into buf as a base-128 little-endian varint,
// least-significant 7-bit group first. Every byte except the last has its
// high bit set. It returns the number of bytes written.
//
// If buf is too small to hold the encoded value, it fails with
// errs.ErrVarintOverflow and leaves buf unmodified beyond what was already
// written.
func EncodeUvarint(buf []byte, v uint64) (int, error) {
	n := 0
	for {
		if n >= len(buf) {
			return 0, fmt.Errorf("%w: need byte %d but buffer holds %d", errs.ErrVarintOverflow, n+1, len(buf))
		}

		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			buf[n] = b | 0x80
			n++
			continue
		}

		buf[n] = b
		n++
		return n, nil
	}
}

// DecodeUvarint reads a base-128 little-endian varint from buf, returning
// the decoded value and the number of bytes consumed.
//
// If buf ends before a terminating byte (high bit clear) is found, it
// fails with errs.ErrVarintUnderflow.
func DecodeUvarint(buf []byte) (uint64, int, error) {
	var v uint64
	var shift uint

	for n := 0; n < MaxLen; n++ {
		if n >= len(buf) {
			return 0, 0, fmt.Errorf("%w: ended after %d bytes", errs.ErrVarintUnderflow, n)
		}

		b := buf[n]
		v |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return v, n + 1, nil
		}
		shift += 7
	}

	return 0, 0, fmt.Errorf("%w: exceeded %d bytes without terminator", errs.ErrVarintUnderflow, MaxLen)
}

// EncodeZigzag maps a signed 64-bit integer onto the unsigned domain by
// interleaving the sign bit with the magnitude, so small-magnitude
// negative values stay small once varint-encoded.
func EncodeZigzag(x int64) uint64 {
	return uint64((x << 1) ^ (x >> 63))
}

// DecodeZigzag is the inverse of EncodeZigzag.
func DecodeZigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}
