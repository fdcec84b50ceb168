// Package partial implements sinusoidal partial tracking: refined
// spectral peaks are associated frame-to-frame into Partial tracks,
// smoothed with a scalar Kalman-style estimator, and carried through a
// short Alive/Zombie/Dead lifecycle so a partial survives a few missed
// frames before being dropped. Grounded on the original plugin's
// PartialTracker.cpp/.h; the actual peak-to-partial association
// algorithm is pluggable (see internal/partial/filter) per the
// original's separate PartialFilterAMFM/PartialFilterMarchand classes.
package partial

import "github.com/voicelab/spectralcore/internal/qifft"

// State is a partial's lifecycle stage.
type State int

const (
	Alive State = iota
	Zombie
	Dead
)

// Candidate is a QIFFT-refined spectral peak offered to the tracker for
// a single frame, in bin-index space plus refined frequency/amplitude.
type Candidate struct {
	BinIndex int
	Freq     float64 // Hz, refined via QIFFT bin offset
	Amp      float64 // linear amplitude, refined via QIFFT log-magnitude
	Phase    float64
	Refined  qifft.Refined
}

// Partial is one tracked sinusoidal component.
type Partial struct {
	ID    int
	Freq  float64
	Amp   float64
	Phase float64

	// Alpha0/Beta0 are the AM/FM derivatives from this partial's most
	// recent QIFFT-refined candidate, carried across frames so the
	// AM/FM association strategy can extrapolate a predicted trajectory
	// (p.Freq + p.Beta0) for the next frame's "big jump" rejection test.
	Alpha0 float64
	Beta0  float64

	State State
	Age   int // frames alive
	Miss  int // consecutive frames without an associated candidate

	kalmanFreq *kalman1D
	kalmanAmp  *kalman1D
}

// Strategy associates candidates from the current frame with existing
// partials. It returns, for each existing partial (by index into
// partials), the index into candidates it was matched with, or -1 if
// unmatched. Implementations live in internal/partial/filter.
type Strategy interface {
	Associate(partials []*Partial, candidates []Candidate) []int
}

const (
	maxZombieFrames = 3
	defaultProcessNoise     = 1e-4
	defaultMeasurementNoise = 1e-2
)

// kalman1D is a minimal scalar constant-value Kalman filter, used
// independently for a partial's frequency and amplitude estimate so
// frame-to-frame jitter in the QIFFT refinement is smoothed without
// adding perceptible lag, matching the tracker's "Kalman estimator
// state" data member.
type kalman1D struct {
	estimate float64
	variance float64
	q, r     float64
}

func newKalman1D(initial, q, r float64) *kalman1D {
	return &kalman1D{estimate: initial, variance: 1.0, q: q, r: r}
}

func (k *kalman1D) update(measurement float64) float64 {
	k.variance += k.q
	gain := k.variance / (k.variance + k.r)
	k.estimate += gain * (measurement - k.estimate)
	k.variance *= 1 - gain
	return k.estimate
}

// Tracker maintains the set of currently tracked partials across frames.
type Tracker struct {
	strategy Strategy
	partials []*Partial
	nextID   int

	// history retains the last 3 frames' candidate lists. Crossing
	// repair does not read it: it compares only each partial's
	// frequency in the previous frame.
	history [][]Candidate

	MaxPartials int
}

// NewTracker creates a Tracker using the given association strategy.
func NewTracker(strategy Strategy) *Tracker {
	return &Tracker{strategy: strategy, MaxPartials: 100}
}

// SetStrategy swaps the association strategy at runtime (e.g. switching
// between AMFM and Marchand).
func (t *Tracker) SetStrategy(s Strategy) { t.strategy = s }

// Partials returns the current set of partials, including zombies, in
// the order they were created.
func (t *Tracker) Partials() []*Partial { return t.partials }

// AlivePartials returns only partials in the Alive state.
func (t *Tracker) AlivePartials() []*Partial {
	out := make([]*Partial, 0, len(t.partials))
	for _, p := range t.partials {
		if p.State == Alive {
			out = append(out, p)
		}
	}
	return out
}

// Reset clears all tracked partials and history.
func (t *Tracker) Reset() {
	t.partials = nil
	t.history = nil
	t.nextID = 0
}

// Update associates candidates with existing partials, advances
// lifecycle state, spawns new partials for unmatched candidates, and
// repairs short track crossings by comparing each partial's frequency
// with its frequency in the previous frame.
func (t *Tracker) Update(candidates []Candidate) {
	assignment := t.strategy.Associate(t.partials, candidates)

	prevFreq := make(map[*Partial]float64, len(t.partials))
	for _, p := range t.partials {
		prevFreq[p] = p.Freq
	}

	matchedCandidate := make([]bool, len(candidates))
	var survivors []*Partial

	for i, p := range t.partials {
		ci := -1
		if i < len(assignment) {
			ci = assignment[i]
		}
		if ci >= 0 && ci < len(candidates) && !matchedCandidate[ci] {
			c := candidates[ci]
			matchedCandidate[ci] = true
			p.Freq = p.kalmanFreq.update(c.Freq)
			p.Amp = p.kalmanAmp.update(c.Amp)
			p.Phase = c.Phase
			p.Alpha0 = c.Refined.Alpha0
			p.Beta0 = c.Refined.Beta0
			p.Age++
			p.Miss = 0
			p.State = Alive
			survivors = append(survivors, p)
			continue
		}

		// No match this frame: degrade toward zombie, then drop.
		p.Miss++
		if p.Miss > maxZombieFrames {
			p.State = Dead
			continue
		}
		p.State = Zombie
		p.Age++
		survivors = append(survivors, p)
	}

	// Spawn new partials for unmatched candidates.
	for ci, c := range candidates {
		if matchedCandidate[ci] {
			continue
		}
		if len(survivors) >= t.MaxPartials {
			break
		}
		np := &Partial{
			ID:         t.nextID,
			Freq:       c.Freq,
			Amp:        c.Amp,
			Phase:      c.Phase,
			Alpha0:     c.Refined.Alpha0,
			Beta0:      c.Refined.Beta0,
			State:      Alive,
			kalmanFreq: newKalman1D(c.Freq, defaultProcessNoise, defaultMeasurementNoise),
			kalmanAmp:  newKalman1D(c.Amp, defaultProcessNoise, defaultMeasurementNoise),
		}
		t.nextID++
		survivors = append(survivors, np)
	}

	t.partials = survivors

	t.repairCrossings(prevFreq)

	t.history = append(t.history, candidates)
	if len(t.history) > 3 {
		t.history = t.history[len(t.history)-3:]
	}
}

// crossingGap is the frequency window (Hz) within which two adjacent
// partials that inverted order are considered the same crossing event
// rather than two unrelated tracks that happen to have re-sorted,
// matching spec.md §4.4.3 step 5's "within 100 Hz equivalent".
const crossingGap = 100.0

// minCrossingAge is the minimum age (frames) both partials in a
// crossing pair must have reached before repair applies, per spec.md
// §4.4.3 step 5's "restricted to partials at least 5 frames old" — two
// partials born on the same frame have no established trajectory to
// repair back onto.
const minCrossingAge = 5

// repairCrossings detects the "bowtie" pattern where two partials swap
// relative frequency order across a single frame and relabels them back
// to their pre-crossing identity, matching the original
// PartialFilterAMFM crossing-repair pass. prevFreq holds each
// surviving partial's frequency before this frame's update.
func (t *Tracker) repairCrossings(prevFreq map[*Partial]float64) {
	alive := t.AlivePartials()
	for i := 0; i < len(alive)-1; i++ {
		a, b := alive[i], alive[i+1]
		if a.Age < minCrossingAge || b.Age < minCrossingAge {
			continue
		}
		pa, okA := prevFreq[a]
		pb, okB := prevFreq[b]
		if !okA || !okB {
			continue
		}
		wasOrdered := pa < pb
		isOrdered := a.Freq < b.Freq
		if wasOrdered == isOrdered {
			continue
		}
		if b.Freq-a.Freq > crossingGap {
			continue
		}
		// Order inverted within a tight frequency window: swap back
		// the tracked state so each track continues its own trajectory
		// instead of jumping onto the other partial's.
		a.Freq, b.Freq = b.Freq, a.Freq
		a.Amp, b.Amp = b.Amp, a.Amp
		a.Phase, b.Phase = b.Phase, a.Phase
		a.Alpha0, b.Alpha0 = b.Alpha0, a.Alpha0
		a.Beta0, b.Beta0 = b.Beta0, a.Beta0
		a.kalmanFreq, b.kalmanFreq = b.kalmanFreq, a.kalmanFreq
		a.kalmanAmp, b.kalmanAmp = b.kalmanAmp, a.kalmanAmp
	}
}
