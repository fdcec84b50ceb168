// Package peak implements the Billauer delta-threshold peak detector,
// ported from the original plugin's PeakDetectorBillauer.cpp: maxima
// are found by tracking local min/max excursions past a delta
// threshold, then the raw Billauer bounds are narrowed with a
// prominence-based symmetric width adjustment and thinned by a
// frequency-domain suppression pass when there are many low-salience
// peaks.
package peak

import (
	"math"
	"sort"
)

// Peak describes one detected spectral maximum in bin-index space.
type Peak struct {
	Index      int
	LeftIndex  int
	RightIndex int
	Prominence float64
}

const suppressMinNumPeaks = 20.0

// Detector implements Billauer delta-threshold peak picking over a
// 1-D signal (typically a magnitude or log-magnitude spectrum).
type Detector struct {
	maxDelta   float64
	delta      float64
	threshold2 float64

	// ProminenceMode records which prominence formula a caller prefers.
	// Detect does not read it: the width adjustment step always uses
	// the simple prominence.
	ProminenceMode ProminenceMode
}

// ProminenceMode selects between the original's two prominence
// formulas (spec.md Open Question: expose both, default canonical).
type ProminenceMode int

const (
	// ProminenceCanonical implements the scipy/MATLAB horizontal-line
	// method: extend a line from the peak until it crosses a higher
	// sample or a signal boundary, and use the higher of the two
	// interval minima as the reference level.
	ProminenceCanonical ProminenceMode = iota
	// ProminenceSimple uses max(leftBound, rightBound) as the
	// reference level — cheaper, and what the width-adjustment pass
	// always uses regardless of ProminenceMode.
	ProminenceSimple
)

// NewDetector creates a Detector. maxDelta is the full dynamic range of
// the signal the detector will be run against (e.g. the dB range of a
// log-magnitude spectrum); the delta threshold is a fraction of it.
func NewDetector(maxDelta float64) *Detector {
	return &Detector{
		maxDelta:       maxDelta,
		delta:          0.01 * maxDelta,
		threshold2:     1.0,
		ProminenceMode: ProminenceCanonical,
	}
}

// SetThreshold sets the delta threshold as a fraction [0,1] of maxDelta.
func (d *Detector) SetThreshold(threshold float64) {
	d.delta = threshold * d.maxDelta
}

// SetThreshold2 sets the fraction of peaks kept by frequency-based
// suppression; 1.0 disables suppression.
func (d *Detector) SetThreshold2(threshold2 float64) {
	d.threshold2 = threshold2
}

// Detect finds peaks in data[minIndex:maxIndex+1]. minIndex/maxIndex
// of -1 default to the full range.
func (d *Detector) Detect(data []float64, minIndex, maxIndex int) []Peak {
	if minIndex < 0 {
		minIndex = 0
	}
	if maxIndex < 0 {
		maxIndex = len(data) - 1
	}
	if maxIndex < minIndex {
		return nil
	}

	var maxtab, mintab []int
	mn, mx := math.Inf(1), math.Inf(-1)
	mnpos, mxpos := -1, -1
	lookformax := true
	startedByPeak := false

	if maxIndex-minIndex >= 2 {
		v0, v1 := data[minIndex], data[minIndex+1]
		if v0 > v1 {
			maxtab = append(maxtab, minIndex)
			mx, mxpos = v0, minIndex
			lookformax = false
			startedByPeak = true
		}
	}

	for i := minIndex; i <= maxIndex; i++ {
		t := data[i]
		if t > mx {
			mx, mxpos = t, i
		}
		if t < mn {
			mn, mnpos = t, i
		}

		if lookformax {
			if t < mx-d.delta {
				maxtab = append(maxtab, mxpos)
				mn, mnpos = t, i
				lookformax = false
			}
		} else {
			if t > mn+d.delta {
				mintab = append(mintab, mnpos)
				mx, mxpos = t, i
				lookformax = true
			}
		}
	}

	keepFirstPeak := true
	if startedByPeak && len(maxtab) > 0 && len(mintab) > 0 {
		if !(data[maxtab[0]] >= data[mintab[0]]+d.delta) {
			keepFirstPeak = false
		}
	}

	var peaks []Peak
	for i := range maxtab {
		if i == 0 && !keepFirstPeak {
			continue
		}
		p := Peak{Index: maxtab[i]}
		if i-1 >= 0 && i-1 < len(mintab) {
			p.LeftIndex = mintab[i-1]
		} else {
			p.LeftIndex = minIndex
		}
		if i < len(mintab) {
			p.RightIndex = mintab[i]
		} else {
			p.RightIndex = maxIndex
		}
		peaks = append(peaks, p)
	}

	d.adjustPeaksWidthSimple(data, peaks, minIndex, maxIndex)
	peaks = d.suppressSmallPeaksFrequency(data, peaks)

	return peaks
}

const peaksWidthRatio2 = 0.75

func (d *Detector) adjustPeaksWidthSimple(data []float64, peaks []Peak, minIndex, maxIndex int) {
	for i := range peaks {
		p := &peaks[i]
		peakAmp := data[p.Index]

		p.Prominence = computeProminenceSimple(data, *p)
		thrs := peakAmp - math.Abs(p.Prominence*peaksWidthRatio2)

		originLeft, originRight := p.LeftIndex, p.RightIndex

		for j := p.Index - 1; j >= minIndex; j-- {
			if j <= originLeft {
				break
			}
			if data[j] < thrs {
				p.LeftIndex = j
				break
			}
		}
		for j := p.Index + 1; j <= maxIndex; j++ {
			if j >= originRight {
				break
			}
			if data[j] < thrs {
				p.RightIndex = j
				break
			}
		}

		leftWidth := p.Index - p.LeftIndex
		rightWidth := p.RightIndex - p.Index
		if leftWidth > rightWidth {
			p.LeftIndex = p.Index - rightWidth
		} else if rightWidth > leftWidth {
			p.RightIndex = p.Index + leftWidth
		}
	}
}

func (d *Detector) suppressSmallPeaksFrequency(data []float64, peaks []Peak) []Peak {
	if d.threshold2 >= 1.0 {
		return peaks
	}
	if float64(len(peaks)) <= suppressMinNumPeaks {
		return peaks
	}

	sort.Slice(peaks, func(i, j int) bool { return peaks[i].Index < peaks[j].Index })

	numToTake := int(math.Ceil(float64(len(peaks)) * d.threshold2))
	if float64(numToTake) < suppressMinNumPeaks && float64(len(peaks)) > suppressMinNumPeaks {
		numToTake = int(suppressMinNumPeaks)
	}
	if numToTake > len(peaks) {
		numToTake = len(peaks)
	}
	return peaks[:numToTake]
}

// computeProminenceSimple is the cheap "base = max of bounds" prominence.
func computeProminenceSimple(data []float64, p Peak) float64 {
	lm, rm := data[p.LeftIndex], data[p.RightIndex]
	base := lm
	if rm > lm {
		base = rm
	}
	return data[p.Index] - base
}

// ComputeProminence computes the canonical (scipy-style) horizontal-line
// prominence of a single peak, extending outward until a higher sample
// or a signal boundary is reached.
func ComputeProminence(data []float64, p *Peak, minIndex, maxIndex int) {
	peakVal := data[p.Index]

	leftIndex, rightIndex := p.Index, p.Index
	for j := p.Index; j >= minIndex; j-- {
		if data[j] > peakVal {
			break
		}
		leftIndex = j
	}
	for j := p.Index; j <= maxIndex; j++ {
		if data[j] > peakVal {
			break
		}
		rightIndex = j
	}

	leftMin, rightMin := peakVal, peakVal
	for j := p.Index; j >= leftIndex; j-- {
		if data[j] < leftMin {
			leftMin = data[j]
		}
	}
	for j := p.Index; j <= rightIndex; j++ {
		if data[j] < rightMin {
			rightMin = data[j]
		}
	}

	prominence := peakVal - rightMin
	if leftMin > rightMin {
		prominence = peakVal - leftMin
	}
	leftEdge, rightEdge := leftIndex == minIndex, rightIndex == maxIndex
	switch {
	case leftEdge && rightEdge:
		prominence = peakVal - math.Min(leftMin, rightMin)
	case leftEdge:
		prominence = peakVal - rightMin
	case rightEdge:
		prominence = peakVal - leftMin
	}
	p.Prominence = prominence
}

// ComputeProminences fills in canonical prominence for every peak, used
// when ProminenceMode is ProminenceCanonical and a caller wants the
// more expensive, more accurate figure (e.g. for partial salience
// ranking) rather than the cheap one already set by Detect.
func ComputeProminences(data []float64, peaks []Peak, minIndex, maxIndex int) {
	for i := range peaks {
		ComputeProminence(data, &peaks[i], minIndex, maxIndex)
	}
}
