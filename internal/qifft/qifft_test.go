package qifft

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefineSymmetricPeakHasZeroOffset(t *testing.T) {
	logMagn := []float64{0, 1, 2, 1, 0}
	phase := make([]float64, len(logMagn))
	r := Refine(logMagn, phase, 2)
	assert.InDelta(t, 0.0, r.BinOffset, 1e-9)
	assert.InDelta(t, 2.0, r.LogMagn, 1e-9)
}

func TestRefineAsymmetricPeakShiftsTowardLarger(t *testing.T) {
	logMagn := []float64{0, 1, 2, 1.8, 0}
	phase := make([]float64, len(logMagn))
	r := Refine(logMagn, phase, 2)
	assert.Greater(t, r.BinOffset, 0.0)
	assert.LessOrEqual(t, math.Abs(r.BinOffset), 0.5)
}

func TestRefineSkipsEdgeBins(t *testing.T) {
	logMagn := []float64{1, 2, 3, 2, 1}
	phase := make([]float64, len(logMagn))
	r := Refine(logMagn, phase, 0)
	assert.Equal(t, 0.0, r.BinOffset)
	assert.Equal(t, logMagn[0], r.LogMagn)
}
