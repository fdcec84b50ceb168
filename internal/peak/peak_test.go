package peak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectSinglePeak(t *testing.T) {
	data := []float64{0, 1, 3, 8, 3, 1, 0}
	d := NewDetector(10)
	d.SetThreshold(0.1)
	peaks := d.Detect(data, -1, -1)
	require.Len(t, peaks, 1)
	assert.Equal(t, 3, peaks[0].Index)
}

func TestDetectTwoPeaksSeparatedByValley(t *testing.T) {
	data := []float64{0, 5, 0, 0, 6, 0}
	d := NewDetector(10)
	d.SetThreshold(0.2)
	peaks := d.Detect(data, -1, -1)
	require.Len(t, peaks, 2)
	assert.Equal(t, 1, peaks[0].Index)
	assert.Equal(t, 4, peaks[1].Index)
}

func TestComputeProminenceBoundaryCase(t *testing.T) {
	data := []float64{5, 4, 3, 2, 1}
	p := Peak{Index: 0}
	ComputeProminence(data, &p, 0, len(data)-1)
	assert.Greater(t, p.Prominence, 0.0)
}

func TestSuppressSmallPeaksFrequencyKeepsAll(t *testing.T) {
	d := NewDetector(10)
	d.SetThreshold2(1.0) // disabled
	data := make([]float64, 0)
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			data = append(data, 1)
		} else {
			data = append(data, 0)
		}
	}
	peaks := d.Detect(data, -1, -1)
	// With threshold2 == 1.0, suppression must not run at all.
	assert.Len(t, peaks, 25)
}
