package softmask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyFormula(t *testing.T) {
	w := New(1025, 4, 8)
	// hop = (bufferSize-1)*2/overlap = 1024*2/4 = 512; revIndex = 7-4 = 3
	assert.Equal(t, 3*512, w.Latency())
}

// TestProcessingDisabledStillAdvancesHistory exercises spec.md §4.5/§8:
// with processing disabled, history still advances and the centered read
// still returns a non-nil sum, keeping latency constant.
func TestProcessingDisabledStillAdvancesHistory(t *testing.T) {
	w := New(4, 4, 4)
	w.SetProcessingEnabled(false)

	for i := 0; i < 10; i++ {
		sum := []complex128{complex(float64(i), 0), complex(float64(i), 0), 0, 0}
		mask := []float64{0.5, 0.5, 0.5, 0.5}
		centered, masked0, masked1 := w.ProcessCentered(sum, mask)
		require.NotNil(t, centered)
		assert.Nil(t, masked0)
		assert.Nil(t, masked1)
	}
}

// TestMaskedComponentsSumToCentered exercises the decomposition invariant:
// the signal and noise masked outputs must always reconstruct the centered
// (delayed) sum they were split from.
func TestMaskedComponentsSumToCentered(t *testing.T) {
	w := New(4, 4, 4)
	for i := 0; i < 8; i++ {
		sum := []complex128{complex(1.0, 0), complex(2.0, 0), complex(0.5, 0), complex(0, 0)}
		mask := []float64{1.0, 0.0, 0.5, 0.5}
		centered, masked0, masked1 := w.ProcessCentered(sum, mask)
		if masked0 == nil {
			continue
		}
		for j := range masked0 {
			assert.InDelta(t, real(centered[j]), real(masked0[j]+masked1[j]), 1e-9)
		}
	}
}

func TestFirstCallPrimesEntireHistory(t *testing.T) {
	w := New(2, 4, 4)
	sum := []complex128{complex(1, 0), complex(2, 0)}
	mask := []float64{1, 1}
	centered, masked0, _ := w.ProcessCentered(sum, mask)
	require.NotNil(t, centered)
	require.NotNil(t, masked0)
	assert.Equal(t, 4, w.history.Len())
}
