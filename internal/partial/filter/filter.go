// Package filter implements the interchangeable peak-to-partial
// association strategies named by the original plugin's
// PartialFilterAMFM.cpp and PartialFilterMarchand.cpp: AMFM scores
// candidates by how well they continue a partial's amplitude/frequency
// trajectory, using the QIFFT AM/FM derivatives to predict where each
// side's value should extrapolate to, while Marchand (the PARSHL-style
// strategy) scores purely by frequency proximity.
package filter

import (
	"math"
	"sort"

	"github.com/voicelab/spectralcore/internal/partial"
)

// AMFM associates candidates with partials using the original's
// multi-pass trajectory-likelihood scheme (PartialFilterAMFM.cpp):
// sort both sides by frequency, repeatedly link each unlinked partial
// to its nearest-frequency candidate when both an amplitude and a
// frequency likelihood clear 0.5, and resolve conflicts by keeping
// whichever link has the larger joint likelihood.
type AMFM struct {
	// MaxFreqDeviation is the "big jump" extrapolation-rejection
	// distance (Hz). It is a fixed value (100 Hz from NewAMFM) and does
	// not follow the spectrum's bin spacing.
	MaxFreqDeviation float64
}

// NewAMFM returns an AMFM strategy with the original's default search window.
func NewAMFM() *AMFM {
	return &AMFM{MaxFreqDeviation: 100.0}
}

func (f *AMFM) Associate(partials []*partial.Partial, candidates []partial.Candidate) []int {
	maxDev := f.MaxFreqDeviation
	if maxDev <= 0 {
		maxDev = 100.0
	}

	assignment := make([]int, len(partials))
	for i := range assignment {
		assignment[i] = -1
	}
	if len(partials) == 0 || len(candidates) == 0 {
		return assignment
	}

	pOrder := sortByPartialFreq(partials)
	cOrder := sortByCandidateFreq(candidates)

	assignedTo := make([]int, len(candidates)) // candidate index -> partial index, -1 if free
	for i := range assignedTo {
		assignedTo[i] = -1
	}

	for pass := 0; pass < 10; pass++ {
		changed := false
		for _, pi := range pOrder {
			if assignment[pi] != -1 {
				continue
			}
			p := partials[pi]
			ci := nearestCandidate(p.Freq, candidates, cOrder)
			if ci < 0 {
				continue
			}
			c := candidates[ci]

			if !withinBigJump(p, c, maxDev) {
				continue
			}

			lA := trajectoryLikelihood(p.Amp, p.Alpha0, c.Amp, c.Refined.Alpha0)
			lF := trajectoryLikelihood(p.Freq, p.Beta0, c.Freq, c.Refined.Beta0)
			if lA <= 0.5 || lF <= 0.5 {
				continue
			}
			joint := lA * lF

			if incumbent := assignedTo[ci]; incumbent >= 0 {
				ip := partials[incumbent]
				iJoint := trajectoryLikelihood(ip.Amp, ip.Alpha0, c.Amp, c.Refined.Alpha0) *
					trajectoryLikelihood(ip.Freq, ip.Beta0, c.Freq, c.Refined.Beta0)
				if iJoint >= joint {
					continue
				}
				assignment[incumbent] = -1
			}

			assignment[pi] = ci
			assignedTo[ci] = pi
			changed = true
		}
		if !changed {
			break
		}
	}

	return assignment
}

// withinBigJump implements the "big jump" rejection test: the pair is
// kept only if at least one of the two extrapolation directions (the
// partial's predicted next frequency, or the candidate's
// back-extrapolated previous frequency) lands within maxDev of the
// other side's observed frequency.
func withinBigJump(p *partial.Partial, c partial.Candidate, maxDev float64) bool {
	devForward := math.Abs((p.Freq + p.Beta0) - c.Freq)
	devBackward := math.Abs(p.Freq - (c.Freq - c.Refined.Beta0))
	return devForward <= maxDev || devBackward <= maxDev
}

// trajectoryLikelihood computes a trapezoidal-area-residual likelihood
// between a partial's predicted endpoint and a candidate's
// back-extrapolated endpoint, normalized by the geometric mean of the
// two observed values, per spec.md §4.4.3's L_A/L_F formula.
func trajectoryLikelihood(pVal, pDeriv, cVal, cDeriv float64) float64 {
	h1 := math.Abs(pVal - (cVal - cDeriv))
	h2 := math.Abs(cVal - (pVal + pDeriv))
	area := 0.5 * (h1 + h2)
	denom := math.Sqrt(math.Abs(cVal * pVal))
	if denom < 1e-12 {
		denom = 1e-12
	}
	return 1.0 / (1.0 + area/denom)
}

func sortByPartialFreq(partials []*partial.Partial) []int {
	order := make([]int, len(partials))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return partials[order[a]].Freq < partials[order[b]].Freq })
	return order
}

func sortByCandidateFreq(candidates []partial.Candidate) []int {
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return candidates[order[a]].Freq < candidates[order[b]].Freq })
	return order
}

// nearestCandidate finds the candidate index nearest freq by an
// indexed binary search into cOrder (candidate indices sorted by
// frequency) followed by a +/-4 local scan around the insertion point.
func nearestCandidate(freq float64, candidates []partial.Candidate, cOrder []int) int {
	lo, hi := 0, len(cOrder)
	for lo < hi {
		mid := (lo + hi) / 2
		if candidates[cOrder[mid]].Freq < freq {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	best, bestDist := -1, math.Inf(1)
	for d := -4; d <= 4; d++ {
		idx := lo + d
		if idx < 0 || idx >= len(cOrder) {
			continue
		}
		dist := math.Abs(candidates[cOrder[idx]].Freq - freq)
		if dist < bestDist {
			bestDist = dist
			best = cOrder[idx]
		}
	}
	return best
}

// Marchand associates purely by frequency proximity (nearest candidate
// within a fixed window), the PARSHL-style strategy named
// PartialFilterMarchand.cpp in the original.
type Marchand struct {
	MaxFreqDeviation float64
}

// NewMarchand returns a Marchand strategy with a default search window.
func NewMarchand() *Marchand {
	return &Marchand{MaxFreqDeviation: 50.0}
}

func (f *Marchand) Associate(partials []*partial.Partial, candidates []partial.Candidate) []int {
	maxDev := f.MaxFreqDeviation
	if maxDev <= 0 {
		maxDev = 50.0
	}

	assignment := make([]int, len(partials))
	for i := range assignment {
		assignment[i] = -1
	}
	used := make([]bool, len(candidates))

	for pi, p := range partials {
		bestCi := -1
		bestDist := math.Inf(1)
		for ci, c := range candidates {
			if used[ci] {
				continue
			}
			d := math.Abs(c.Freq - p.Freq)
			if d > maxDev {
				continue
			}
			if d < bestDist {
				bestDist = d
				bestCi = ci
			}
		}
		if bestCi >= 0 {
			assignment[pi] = bestCi
			used[bestCi] = true
		}
	}

	return assignment
}
