// Package bitcopy implements the single bit-granular copy primitive that
// every other packing operation in this module is built from: copying an
// arbitrary run of bits between byte buffers at arbitrary bit offsets,
// without disturbing bits outside the destination run.
//
// Bit numbering convention: bit 0 is the most significant bit of byte 0,
// bit 7 is the least significant bit of byte 0, bit 8 is the most
// significant bit of byte 1, and so on.
package bitcopy

import (
	"fmt"

	"github.com/coldbrew-labs/tszgorilla/errs"
)

// Copy copies nbits bits starting at srcOffBits of src (counting from the
// MSB of byte 0) into dst at dstOffBits. Bits in dst outside the
// destination run are left untouched.
//
// Copy processes at most one source byte per iteration, so it handles any
// combination of source/destination misalignment without special-casing.
func Copy(dst, src []byte, nbits, dstOffBits, srcOffBits int) error {
	if nbits < 0 || dstOffBits < 0 || srcOffBits < 0 {
		return fmt.Errorf("%w: negative nbits or offset", errs.ErrBitCopyBounds)
	}

	for nbits > 0 {
		srcBitInByte := srcOffBits % 8
		srcAvail := 8 - srcBitInByte
		take := nbits
		if srcAvail < take {
			take = srcAvail
		}

		srcByteIdx := srcOffBits / 8
		if srcByteIdx >= len(src) {
			return fmt.Errorf("%w: src read at bit %d exceeds %d-byte buffer", errs.ErrBitCopyBounds, srcOffBits, len(src))
		}

		// Mask off the upper srcBitInByte bits (not part of the run), then
		// shift so the `take` bits sit in the low positions.
		payload := (src[srcByteIdx] & (0xFF >> srcBitInByte)) >> (srcAvail - take)

		dstBitInByte := dstOffBits % 8
		dstAvail := 8 - dstBitInByte
		dstByteIdx := dstOffBits / 8
		if dstByteIdx >= len(dst) {
			return fmt.Errorf("%w: dst write at bit %d exceeds %d-byte buffer", errs.ErrBitCopyBounds, dstOffBits, len(dst))
		}

		if take <= dstAvail {
			shifted := payload << (dstAvail - take)
			clearMask := byte(0xFF>>dstBitInByte) &^ byte(0xFF>>(dstBitInByte+take))
			dst[dstByteIdx] = (dst[dstByteIdx] &^ clearMask) | shifted
		} else {
			remaining := take - dstAvail

			high := payload >> remaining
			clearMask := byte(0xFF >> dstBitInByte)
			dst[dstByteIdx] = (dst[dstByteIdx] &^ clearMask) | high

			nextIdx := dstByteIdx + 1
			if nextIdx >= len(dst) {
				return fmt.Errorf("%w: dst write at bit %d exceeds %d-byte buffer", errs.ErrBitCopyBounds, dstOffBits+dstAvail, len(dst))
			}
			low := payload & (0xFF >> (8 - remaining))
			nextClearMask := byte(0xFF >> remaining)
			dst[nextIdx] = (dst[nextIdx] & nextClearMask) | (low << (8 - remaining))
		}

		srcOffBits += take
		dstOffBits += take
		nbits -= take
	}

	return nil
}

// WriteBit writes a single bit v (0 or 1) into buf at bit offset off.
//
// It is equivalent to copying 1 bit from a one-byte source whose LSB
// carries v (source offset 7) into buf at off.
func WriteBit(buf []byte, off int, v byte) error {
	src := [1]byte{v & 1}
	return Copy(buf, src[:], 1, off, 7)
}

// ReadBit reads a single bit from buf at bit offset off, returning it as
// the LSB of the result byte.
//
// It is equivalent to copying 1 bit into the LSB of a scratch byte
// (destination offset 7) and interpreting it.
func ReadBit(buf []byte, off int) (byte, error) {
	var scratch [1]byte
	if err := Copy(scratch[:], buf, 1, 7, off); err != nil {
		return 0, err
	}
	return scratch[0] & 1, nil
}
