package transient

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestApplyTransientnessClipsTransCeiling exercises the shaper's
// anti-clipping safeguard (original's "avoid clipping intelligently"):
// before converting to a dB gain, the transientness curve is always
// capped at computeMaxTransientness(), regardless of how large the
// raw per-sample transientness value is.
func TestApplyTransientnessClipsTransCeiling(t *testing.T) {
	for _, softHard := range []float64{-1, -0.5, -0.1, 0.1, 0.5, 1} {
		p := New(48000)
		p.SetSoftHard(softHard)
		p.transientness = []float64{10, 100, 1000, -5}
		ceiling := p.computeMaxTransientness()

		samples := []float64{1, 1, 1, 1}
		p.applyTransientness(samples)

		maxPossibleGainDB := math.Abs(maxGain * softHard * ceiling)
		for _, s := range samples {
			gainDB := 20 * math.Log10(math.Abs(s))
			assert.LessOrEqual(t, gainDB, maxPossibleGainDB+1e-9)
		}
	}
}

func TestBypassWhenSoftHardNearZero(t *testing.T) {
	p := New(48000)
	p.SetSoftHard(0)
	samples := []float64{0.2, -0.4, 0.6}
	original := append([]float64(nil), samples...)

	p.ProcessSamples(samples)

	assert.Equal(t, original, samples)
}

func TestComputeMaxTransientnessMatchesClosedForm(t *testing.T) {
	p := New(48000)
	p.SetSoftHard(0.5)
	got := p.computeMaxTransientness()

	maxTransDB := -maxGainClip / 0.5
	want := math.Pow(10, maxTransDB/20) * ampFactor
	assert.InDelta(t, want, got, 1e-9)
}

func TestCenteredMovingAverageSmoothsSpike(t *testing.T) {
	x := []float64{0, 0, 10, 0, 0}
	out := centeredMovingAverage(x, 1)
	assert.Less(t, out[2], x[2])
	assert.Greater(t, out[1], 0.0)
	assert.Greater(t, out[3], 0.0)
}
