package fftengine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHalfSize(t *testing.T) {
	require.Equal(t, 5, HalfSize(8))
	require.Equal(t, 3, HalfSize(4))
}

func TestForwardInverseRoundTrip(t *testing.T) {
	n := 64
	frame := make([]float64, n)
	for i := range frame {
		frame[i] = math.Sin(2 * math.Pi * 5 * float64(i) / float64(n))
	}

	half := Forward(frame)
	require.Len(t, half, HalfSize(n))

	back := Inverse(half, n)
	require.Len(t, back, n)

	for i := range frame {
		assert.InDelta(t, frame[i], back[i], 1e-6)
	}
}

func TestForwardDCBin(t *testing.T) {
	n := 16
	frame := make([]float64, n)
	for i := range frame {
		frame[i] = 1.0
	}
	half := Forward(frame)
	assert.InDelta(t, float64(n), real(half[0]), 1e-6)
	assert.InDelta(t, 0.0, imag(half[0]), 1e-6)
}
