package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voicelab/spectralcore/internal/partial"
)

func TestAMFMAssociatesNearestTrajectoryMatch(t *testing.T) {
	f := NewAMFM()
	partials := []*partial.Partial{
		{ID: 0, Freq: 440, Amp: 0.5},
		{ID: 1, Freq: 880, Amp: 0.2},
	}
	candidates := []partial.Candidate{
		{Freq: 441, Amp: 0.51},
		{Freq: 881, Amp: 0.19},
	}

	assignment := f.Associate(partials, candidates)
	assert.Equal(t, []int{0, 1}, assignment)
}

func TestAMFMRejectsOutOfWindowCandidate(t *testing.T) {
	f := &AMFM{MaxFreqDeviation: 10}
	partials := []*partial.Partial{{ID: 0, Freq: 440, Amp: 0.5}}
	candidates := []partial.Candidate{{Freq: 900, Amp: 0.5}}

	assignment := f.Associate(partials, candidates)
	assert.Equal(t, []int{-1}, assignment)
}

func TestAMFMGreedyMatchingIsOneToOne(t *testing.T) {
	f := NewAMFM()
	partials := []*partial.Partial{
		{ID: 0, Freq: 440, Amp: 0.5},
		{ID: 1, Freq: 445, Amp: 0.5},
	}
	candidates := []partial.Candidate{{Freq: 442, Amp: 0.5}}

	assignment := f.Associate(partials, candidates)
	matched := 0
	for _, a := range assignment {
		if a == 0 {
			matched++
		}
	}
	assert.Equal(t, 1, matched, "a single candidate must not be assigned to two partials")
}

func TestMarchandPicksNearestInFrequencyOnly(t *testing.T) {
	f := NewMarchand()
	partials := []*partial.Partial{{ID: 0, Freq: 440, Amp: 0.9}}
	candidates := []partial.Candidate{
		{Freq: 445, Amp: 0.01},
		{Freq: 460, Amp: 0.9},
	}

	assignment := f.Associate(partials, candidates)
	assert.Equal(t, []int{0}, assignment, "Marchand ignores amplitude continuity, only frequency proximity")
}

func TestMarchandRejectsBeyondWindow(t *testing.T) {
	f := &Marchand{MaxFreqDeviation: 5}
	partials := []*partial.Partial{{ID: 0, Freq: 440, Amp: 0.5}}
	candidates := []partial.Candidate{{Freq: 500, Amp: 0.5}}

	assignment := f.Associate(partials, candidates)
	assert.Equal(t, []int{-1}, assignment)
}

func TestMarchandEachCandidateUsedAtMostOnce(t *testing.T) {
	f := NewMarchand()
	partials := []*partial.Partial{
		{ID: 0, Freq: 440, Amp: 0.5},
		{ID: 1, Freq: 441, Amp: 0.5},
	}
	candidates := []partial.Candidate{{Freq: 440.5, Amp: 0.5}}

	assignment := f.Associate(partials, candidates)
	used := 0
	for _, a := range assignment {
		if a == 0 {
			used++
		}
	}
	assert.Equal(t, 1, used)
}
