package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundTripAllVariants(t *testing.T) {
	variants := []Variant{Linear, Normalized, DB, Log, Log10, LogFactor, Mel, MelFilter, LowZoom, LogNoNorm}
	for _, v := range variants {
		s := New(v, 20, 20000)
		for _, hz := range []float64{20, 100, 1000, 10000, 19999} {
			x := s.ToNormalized(hz)
			back := s.ToHz(x)
			assert.InDeltaf(t, hz, back, hz*1e-3+1e-5, "variant %v round-trip at %v Hz", v, hz)
		}
	}
}

func TestToNormalizedClampsToUnitRange(t *testing.T) {
	s := New(Linear, 100, 1000)
	assert.Equal(t, 0.0, s.ToNormalized(0))
	assert.Equal(t, 1.0, s.ToNormalized(5000))
}

func TestParseVariantResolvesKnownNamesCaseInsensitively(t *testing.T) {
	v, err := ParseVariant("MelFilter")
	assert.NoError(t, err)
	assert.Equal(t, MelFilter, v)

	v, err = ParseVariant("")
	assert.NoError(t, err)
	assert.Equal(t, Linear, v)
}

func TestParseVariantRejectsUnknownName(t *testing.T) {
	_, err := ParseVariant("bogus")
	assert.Error(t, err)
}

func TestFilterBankBandsAreNonNegative(t *testing.T) {
	fb := NewFilterBank(8, 256, 44100, 20, 20000)
	spectrum := make([]float64, 256)
	for i := range spectrum {
		spectrum[i] = 1.0
	}
	bands := fb.Apply(spectrum)
	assert.Len(t, bands, 8)
	for _, b := range bands {
		assert.GreaterOrEqual(t, b, 0.0)
	}
}
