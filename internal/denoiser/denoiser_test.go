package denoiser

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSoftElbowConservesEnergy exercises spec.md §8's quantified
// invariant: sig'[i] + noise'[i] == |S|[i] within 1e-6, for the
// soft-elbow subtraction split (before any residual-denoise history
// filtering, which is only applied once the 5-frame history fills).
func TestSoftElbowConservesEnergy(t *testing.T) {
	p := New(8)
	for i := range p.noiseProfile {
		p.noiseProfile[i] = 0.1 * float64(i+1)
	}
	p.SetThreshold(0.5)

	magn := []float64{0.01, 0.05, 0.2, 0.5, 1.0, 0.3, 0.02, 0.001}
	for i, m := range magn {
		sig := p.softElbowSignal(m, p.noiseProfile[i])
		noise := m - sig
		assert.InDelta(t, m, sig+noise, 1e-9)
	}
}

// TestZeroProfileZeroThresholdIsIdentity exercises spec.md §8's
// round-trip property: with a zero noise profile and threshold=0, the
// denoiser must pass audio through unchanged.
func TestZeroProfileZeroThresholdIsIdentity(t *testing.T) {
	p := New(4)
	p.SetThreshold(0)

	spectrum := []complex128{complex(1, 0), complex(0.5, 0.5), complex(-0.3, 0.1), complex(0, -0.2)}
	original := append([]complex128(nil), spectrum...)

	p.ProcessFFT(spectrum)

	for i := range spectrum {
		assert.InDelta(t, real(original[i]), real(spectrum[i]), 1e-6)
		assert.InDelta(t, imag(original[i]), imag(spectrum[i]), 1e-6)
	}
}

func TestNoiseOnlyOutputsComplement(t *testing.T) {
	p := New(4)
	p.noiseProfile = []float64{1, 1, 1, 1}
	p.SetThreshold(1.0)
	p.SetNoiseOnly(true)

	spectrum := []complex128{complex(0.01, 0), complex(0.01, 0), complex(0.01, 0), complex(0.01, 0)}
	want := 0.01 - p.softElbowSignal(0.01, 1)
	p.ProcessFFT(spectrum)

	for _, c := range spectrum {
		assert.InDelta(t, want, math.Hypot(real(c), imag(c)), 1e-9)
	}
}

func TestResampleProfileChangesHalfSize(t *testing.T) {
	p := New(8)
	for i := range p.noiseProfile {
		p.noiseProfile[i] = float64(i)
	}
	p.ResampleProfile(4)
	require.Len(t, p.NoiseProfile(), 4)
}

func TestSetNoiseProfileRejectsWrongLength(t *testing.T) {
	p := New(4)
	original := p.NoiseProfile()
	p.SetNoiseProfile([]float64{1, 2, 3})
	assert.Equal(t, original, p.NoiseProfile())
}
