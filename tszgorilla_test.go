package tszgorilla_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coldbrew-labs/tszgorilla"
)

func seedMeasurements(n int, base uint64) []tszgorilla.Measurement {
	out := make([]tszgorilla.Measurement, n)
	for i := 0; i < n; i++ {
		out[i] = tszgorilla.Measurement{
			Timestamp: base + uint64(60*i),
			Count:     1000 + uint64(i%3),
			Value:     43.568 + 0.0023456*float64(i),
		}
	}
	return out
}

func TestEncodeDecodeMeasurementsRoundTrip(t *testing.T) {
	ms := seedMeasurements(50, 1567029708)

	payload, err := tszgorilla.EncodeMeasurements(ms)
	require.NoError(t, err)

	got, err := tszgorilla.DecodeMeasurements(payload, len(ms))
	require.NoError(t, err)
	require.Equal(t, ms, got)
}

func TestEncodeBatchDecodeBatchRoundTrip(t *testing.T) {
	streams := [][]tszgorilla.Measurement{
		seedMeasurements(10, 1567029708),
		seedMeasurements(30, 1600000000),
		seedMeasurements(1, 1),
	}

	payloads, err := tszgorilla.EncodeBatch(streams)
	require.NoError(t, err)
	require.Len(t, payloads, len(streams))

	counts := make([]int, len(streams))
	for i, s := range streams {
		counts[i] = len(s)
	}

	got, err := tszgorilla.DecodeBatch(payloads, counts)
	require.NoError(t, err)
	require.Equal(t, streams, got)
}

func TestEncodeBatchStreamsAreIndependent(t *testing.T) {
	streams := [][]tszgorilla.Measurement{
		seedMeasurements(5, 100),
		seedMeasurements(5, 100),
	}

	payloads, err := tszgorilla.EncodeBatch(streams)
	require.NoError(t, err)
	require.Equal(t, payloads[0], payloads[1])
}

func TestDecodeBatchMismatchedCounts(t *testing.T) {
	_, err := tszgorilla.DecodeBatch([][]byte{{0}}, nil)
	require.Error(t, err)
}
