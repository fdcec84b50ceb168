package wav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundTripPreservesChannelsAndSampleRate(t *testing.T) {
	left := []float64{0.0, 0.5, -0.5, 1.0, -1.0}
	right := []float64{0.0, -0.25, 0.25, -1.0, 1.0}

	encoded, err := Write([][]float64{left, right}, 44100)
	require.NoError(t, err)

	channels, header, err := Read(encoded)
	require.NoError(t, err)

	assert.Equal(t, 44100, header.SampleRate)
	assert.Equal(t, 2, header.NumChannels)
	require.Len(t, channels, 2)
	for i := range left {
		assert.InDelta(t, left[i], channels[0][i], 1e-4)
		assert.InDelta(t, right[i], channels[1][i], 1e-4)
	}
}

func TestReadMonoFileReturnsSingleChannel(t *testing.T) {
	samples := []float64{0.1, 0.2, 0.3}
	encoded, err := Write([][]float64{samples}, 16000)
	require.NoError(t, err)

	channels, header, err := Read(encoded)
	require.NoError(t, err)
	assert.Equal(t, 1, header.NumChannels)
	require.Len(t, channels, 1)
	for i := range samples {
		assert.InDelta(t, samples[i], channels[0][i], 1e-4)
	}
}

func TestWriteRejectsMismatchedChannelLengths(t *testing.T) {
	_, err := Write([][]float64{{0.1, 0.2}, {0.1}}, 44100)
	assert.Error(t, err)
}

func TestReadRejectsMissingRIFFHeader(t *testing.T) {
	_, _, err := Read([]byte("not a wav file"))
	assert.Error(t, err)
}
