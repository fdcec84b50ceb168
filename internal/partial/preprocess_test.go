package partial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicelab/spectralcore/internal/scale"
)

func TestProcessSmoothsAcrossFrames(t *testing.T) {
	p := NewPreprocess(8, 48000, nil)
	silent := make([]float64, 8)
	phase := make([]float64, 8)

	loud := make([]float64, 8)
	for i := range loud {
		loud[i] = 1.0
	}

	p.Process(silent, phase)
	frame := p.Process(loud, phase)

	// With SmoothCoeff=0.5, one frame of a step input should land
	// roughly halfway, not jump straight to the new value.
	assert.Less(t, frame.LinearMagns[4], 0.0, "smoothed dB magnitude should still be well below 0dB one frame after a step to full scale")
}

func TestAmpFromLogMagnInvertsProcess(t *testing.T) {
	p := NewPreprocess(8, 48000, nil)
	magn := make([]float64, 8)
	for i := range magn {
		magn[i] = 0.3
	}
	phase := make([]float64, 8)

	frame := p.Process(magn, phase)

	// AmpFromLogMagn should recover whatever Process's internal smoothed
	// magnitude was for this bin, not the raw pre-smoothing input.
	amp := p.AmpFromLogMagn(frame.LogMagns[3], 3)
	assert.InDelta(t, p.smoothed[3], amp, 1e-6)
}

func TestWarpAndDenormalizeEnvelopeRoundTrip(t *testing.T) {
	sc := scale.New(scale.Log, 20, 20000)
	n := 65
	p := NewPreprocess(n, 44100, sc)

	magn := make([]float64, n)
	for i := range magn {
		magn[i] = float64(i) / float64(n)
	}
	phase := make([]float64, n)

	frame := p.Process(magn, phase)
	require.Len(t, frame.WarpedMagn, n)

	back := p.DenormalizeEnvelope(frame.WarpedMagn, n, frame.BinHz)
	require.Len(t, back, n)

	// A monotonically increasing input should still be non-decreasing
	// after warp + denormalize, since both steps are monotonic
	// resamplings of a monotonic axis.
	assert.LessOrEqual(t, back[5], back[n-5])
}

func TestProcessWithNilScaleIsIdentityAxis(t *testing.T) {
	p := NewPreprocess(8, 48000, nil)
	magn := make([]float64, 8)
	phase := make([]float64, 8)
	for i := range magn {
		magn[i] = 0.1 * float64(i+1)
		phase[i] = float64(i) * 0.1
	}

	frame := p.Process(magn, phase)
	assert.False(t, math.IsNaN(frame.LogMagns[0]))
	assert.Len(t, frame.LogMagns, 8)
}
