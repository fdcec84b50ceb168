package partial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubStrategy associates by array index, matching the i-th previous
// partial to the i-th candidate when both exist, for deterministic
// lifecycle tests independent of any particular association algorithm.
type stubStrategy struct{}

func (stubStrategy) Associate(partials []*Partial, candidates []Candidate) []int {
	assignment := make([]int, len(partials))
	for i := range assignment {
		if i < len(candidates) {
			assignment[i] = i
		} else {
			assignment[i] = -1
		}
	}
	return assignment
}

func TestUpdateSpawnsNewPartialsWithUniqueIDs(t *testing.T) {
	tr := NewTracker(stubStrategy{})
	tr.Update([]Candidate{{Freq: 440, Amp: 0.5}, {Freq: 880, Amp: 0.3}})
	alive := tr.AlivePartials()
	require.Len(t, alive, 2)
	assert.NotEqual(t, alive[0].ID, alive[1].ID)
}

func TestUpdateInheritsIDAcrossFrames(t *testing.T) {
	tr := NewTracker(stubStrategy{})
	tr.Update([]Candidate{{Freq: 440, Amp: 0.5}})
	first := tr.AlivePartials()[0].ID

	tr.Update([]Candidate{{Freq: 441, Amp: 0.51}})
	second := tr.AlivePartials()
	require.Len(t, second, 1)
	assert.Equal(t, first, second[0].ID)
}

func TestUnmatchedPartialBecomesZombieThenDies(t *testing.T) {
	tr := NewTracker(stubStrategy{})
	tr.Update([]Candidate{{Freq: 440, Amp: 0.5}})
	require.Len(t, tr.AlivePartials(), 1)

	for i := 0; i < maxZombieFrames+1; i++ {
		tr.Update(nil)
	}

	assert.Empty(t, tr.Partials())
}

func TestEmptyCandidateListDoesNotPanic(t *testing.T) {
	tr := NewTracker(stubStrategy{})
	assert.NotPanics(t, func() {
		tr.Update(nil)
	})
	assert.Empty(t, tr.AlivePartials())
}

// TestRepairCrossingsSwapsAgedPartials exercises spec.md §4.4.3 step
// 5: two partials old enough and close enough in frequency that invert
// order across one frame get swapped back to their pre-crossing track.
func TestRepairCrossingsSwapsAgedPartials(t *testing.T) {
	tr := NewTracker(stubStrategy{})
	tr.Update([]Candidate{{Freq: 400, Amp: 0.5}, {Freq: 500, Amp: 0.5}})

	for i := 0; i < minCrossingAge-1; i++ {
		tr.Update([]Candidate{{Freq: 400, Amp: 0.5}, {Freq: 500, Amp: 0.5}})
	}
	alive := tr.AlivePartials()
	require.Len(t, alive, 2)
	// One more matched frame brings Age to minCrossingAge exactly when
	// repairCrossings runs for that frame (Age++ happens before repair).
	require.Equal(t, minCrossingAge-1, alive[0].Age)

	// Cross the two tracks within the crossing-repair frequency window.
	tr.Update([]Candidate{{Freq: 505, Amp: 0.5}, {Freq: 495, Amp: 0.5}})

	alive = tr.AlivePartials()
	require.Len(t, alive, 2)
	assert.InDelta(t, 495, alive[0].Freq, 1e-9, "crossing should be repaired back onto the original track")
	assert.InDelta(t, 505, alive[1].Freq, 1e-9)
}

// TestRepairCrossingsIgnoresYoungPartials exercises the same inverted
// order on a brand-new pair of partials that haven't reached
// minCrossingAge yet — no established trajectory means no repair.
func TestRepairCrossingsIgnoresYoungPartials(t *testing.T) {
	tr := NewTracker(stubStrategy{})
	tr.Update([]Candidate{{Freq: 400, Amp: 0.5}, {Freq: 500, Amp: 0.5}})
	tr.Update([]Candidate{{Freq: 505, Amp: 0.5}, {Freq: 495, Amp: 0.5}})

	alive := tr.AlivePartials()
	require.Len(t, alive, 2)
	assert.InDelta(t, 505, alive[0].Freq, 1e-9, "young partials keep whatever the association assigned them")
	assert.InDelta(t, 495, alive[1].Freq, 1e-9)
}

func TestResetClearsAllState(t *testing.T) {
	tr := NewTracker(stubStrategy{})
	tr.Update([]Candidate{{Freq: 440, Amp: 0.5}})
	require.NotEmpty(t, tr.Partials())

	tr.Reset()
	assert.Empty(t, tr.Partials())

	tr.Update([]Candidate{{Freq: 220, Amp: 0.4}})
	assert.Equal(t, 0, tr.AlivePartials()[0].ID)
}
