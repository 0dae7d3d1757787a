package tszgorilla

import "github.com/coldbrew-labs/tszgorilla/internal/pool"

// bytesPerMeasurement is a conservative upper bound on the wire size of a
// single sample: sample 0's header (up to two 10-byte varints plus an
// 8-byte raw value) is at most 28 bytes; every later sample is a handful of
// control bits plus up to two varints (timestamp and count deltas) and one
// XOR envelope, at most 239 bits (30 bytes).
const bytesPerMeasurement = 32

func getBuffer(nMeasurements int) *pool.ByteBuffer {
	size := nMeasurements*bytesPerMeasurement + 16
	if size < pool.StreamBufferDefaultSize {
		size = pool.StreamBufferDefaultSize
	}

	bb := pool.GetStreamBuffer()
	bb.ExtendOrGrow(size)
	return bb
}

func putBuffer(bb *pool.ByteBuffer) {
	pool.PutStreamBuffer(bb)
}

// getBatchBuffer returns a scratch buffer from the larger batch pool, sized
// for encoding nStreams independent streams one at a time. EncodeBatch reuses
// this single buffer across every stream in the batch instead of round-
// tripping the small per-stream pool once per stream.
func getBatchBuffer(nStreams int) *pool.ByteBuffer {
	size := nStreams * bytesPerMeasurement
	if size < pool.BatchBufferDefaultSize {
		size = pool.BatchBufferDefaultSize
	}

	bb := pool.GetBatchBuffer()
	bb.ExtendOrGrow(size)
	return bb
}

func putBatchBuffer(bb *pool.ByteBuffer) {
	pool.PutBatchBuffer(bb)
}
