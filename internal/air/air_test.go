package air

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicelab/spectralcore/internal/partial"
)

// TestMixParamToCoeffsMatchesPiecewiseLinearShape exercises spec.md
// §4.7 step 4's exact coefficient formula: for mix<=0,
// (c_h, c_n) = (1, 1+mix); for mix>=0, (c_h, c_n) = (1-mix, 1).
func TestMixParamToCoeffsMatchesPiecewiseLinearShape(t *testing.T) {
	cases := []struct {
		mix          float64
		harmonic, noise float64
	}{
		{-1, 1, 0},
		{-0.5, 1, 0.5},
		{0, 1, 1},
		{0.5, 0.5, 1},
		{1, 0, 1},
	}
	for _, c := range cases {
		h, n := mixParamToCoeffs(c.mix)
		assert.InDelta(t, c.harmonic, h, 1e-12)
		assert.InDelta(t, c.noise, n, 1e-12)
	}
}

func TestSetMixClampsToUnitRange(t *testing.T) {
	p := New(8, 4, 48000)
	p.SetMix(5)
	assert.Equal(t, 1.0, p.mix)
	p.SetMix(-5)
	assert.Equal(t, -1.0, p.mix)
}

// TestMaskForcesBinZero exercises SPEC_FULL.md §3's note that bin 0
// never carries harmonic content, even when the denormalized envelopes
// say otherwise.
func TestMaskForcesBinZero(t *testing.T) {
	noise := []float64{0, 1, 1, 1}
	harmonic := []float64{1, 0, 1, 2}
	mask := partial.Mask(noise, harmonic)
	assert.Equal(t, 0.0, mask[0])
	assert.InDelta(t, 0.5, mask[2], 1e-12)
}

// TestIdentityAirSplitAtFullHarmonicMix exercises spec.md §8's
// quantified invariant: with mix=-1 and soft-masking disabled, a bin
// fully inside the harmonic mask (m=1) passes through unchanged, since
// c_h=1 and the noise side (c_n=0) is multiplied by (1-m)=0.
func TestIdentityAirSplitAtFullHarmonicMix(t *testing.T) {
	p := New(4, 4, 48000)
	p.SetMix(-1)

	harmonicCoeff, noiseCoeff := mixParamToCoeffs(p.mix)
	assert.Equal(t, 1.0, harmonicCoeff)
	assert.Equal(t, 0.0, noiseCoeff)

	spectrum := []complex128{complex(0.3, 0.1), complex(1.0, -0.2), complex(0.05, 0), complex(0, 0)}
	mask := []float64{0, 1, 1, 1}
	out := make([]complex128, len(spectrum))
	for i, s := range spectrum {
		h := mask[i]
		n := 1 - h
		out[i] = s * complex(h*harmonicCoeff+n*noiseCoeff, 0)
	}
	for i := range spectrum {
		if mask[i] == 1 {
			assert.InDelta(t, real(spectrum[i]), real(out[i]), 1e-12)
			assert.InDelta(t, imag(spectrum[i]), imag(out[i]), 1e-12)
		} else {
			assert.Equal(t, complex(0, 0), out[i])
		}
	}
}
