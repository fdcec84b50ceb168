// Package transient implements per-sample transient shaping, ported
// from the original plugin's TransientShaperProcessor.cpp and
// TransientLib.cpp: each FFT bin's dB-above-floor (frequency weight)
// and phase-derivative-over-time (amplitude weight) are scattered into
// sample space, smoothed independently with a centered moving average,
// combined into a transientness curve, and applied as a gain-bounded
// dB correction to the resynthesized samples.
package transient

import (
	"math"

	"github.com/voicelab/spectralcore/internal/dsputil"
)

const (
	dbThresholdTr     = -64.0
	coeffFreqTr       = 3.0
	coeffAmpTr        = 1.0
	coeffGlobalTr     = 0.5
	maxGain           = 50.0
	maxGainClip       = 6.0
	ampFactor         = 0.999
	transientnessCoeff = 5.0
	cmaRadius          = 2 // centered moving-average half-width
)

// Processor implements the transient shaper.
type Processor struct {
	sampleRate float64
	precision  float64 // 0..1, smoothing amount (1-precision controls CMA time constant)
	softHard   float64 // -1..+1, compress (negative) vs enhance (positive) transients
	freqAmpRatio float64 // 0..1, blend between amplitude-track and frequency-track weight

	prevPhase    []float64
	transientness []float64
}

// New constructs a transient Processor.
func New(sampleRate float64) *Processor {
	return &Processor{
		sampleRate:   sampleRate,
		freqAmpRatio: 0.5,
	}
}

// SetPrecision sets the detection precision (0..1).
func (p *Processor) SetPrecision(precision float64) { p.precision = precision }

// SetSoftHard sets how hard the transient correction is applied,
// -1 (soften transients) .. 0 (bypass) .. +1 (enhance transients).
func (p *Processor) SetSoftHard(softHard float64) { p.softHard = softHard }

// SoftHard returns the current transient shaping amount.
func (p *Processor) SoftHard() float64 { return p.softHard }

// SetFreqAmpRatio blends between the frequency-weight and
// amplitude-weight transientness tracks, 0 (frequency weight only) .. 1
// (amplitude weight in excess of the frequency weight, max(a-f, 0)).
func (p *Processor) SetFreqAmpRatio(ratio float64) { p.freqAmpRatio = ratio }

// GetTransientness returns a copy of the last computed per-sample
// transientness curve, for visualization.
func (p *Processor) GetTransientness() []float64 {
	return append([]float64(nil), p.transientness...)
}

// ProcessFFT implements overlapadd.Processor: computes the
// transientness curve for the current frame from its magnitude/phase.
func (p *Processor) ProcessFFT(spectrum []complex128) {
	if math.Abs(p.softHard) < dsputil.Eps {
		return
	}

	magn, phase := dsputil.ComplexToMagnPhase(spectrum)

	n := len(spectrum) - 1
	if n < 1 {
		n = len(spectrum)
	}

	trans := p.computeTransientness(magn, phase, n)
	dsputil.MultValue(trans, transientnessCoeff)
	p.transientness = trans
	p.prevPhase = phase
}

// ProcessSamples implements overlapadd.Processor: applies the
// transientness-derived gain curve to the resynthesized frame.
func (p *Processor) ProcessSamples(samples []float64) {
	if math.Abs(p.softHard) < dsputil.Eps {
		return
	}
	p.applyTransientness(samples)
}

// computeTransientness builds the frequency-weight and amplitude-weight
// accumulators per bin, scatters them into nSamples sample-space slots
// (high bins map to early samples, mirroring the original's
// FftIdsToSamplesIds reversal), smooths each independently with a
// centered moving average, and combines them.
func (p *Processor) computeTransientness(magn, phase []float64, nSamples int) []float64 {
	freqWeight := make([]float64, nSamples)
	ampWeight := make([]float64, nSamples)

	havePrev := len(p.prevPhase) == len(phase)

	for bin := 0; bin < len(magn) && bin < nSamples; bin++ {
		sampleIdx := nSamples - 1 - bin // reversed bin->sample scatter

		db := dsputil.AmpToDB(magn[bin])
		if db > dbThresholdTr {
			freqWeight[sampleIdx] = (db - dbThresholdTr) / (0 - dbThresholdTr)
		}

		if havePrev {
			dPhase := dsputil.WrapPhase(phase[bin] - p.prevPhase[bin])
			ampWeight[sampleIdx] = math.Abs(dPhase) / math.Pi
		}
	}

	smoothedFreq := centeredMovingAverage(freqWeight, cmaSmoothRadius(p.precision))
	smoothedAmp := centeredMovingAverage(ampWeight, cmaSmoothRadius(p.precision))

	ratio := p.freqAmpRatio
	out := make([]float64, nSamples)
	for i := range out {
		f := smoothedFreq[i] * coeffFreqTr
		a := smoothedAmp[i] * coeffAmpTr
		combined := ratio*math.Max(a-f, 0) + (1-ratio)*0.5*f
		out[i] = combined * coeffGlobalTr
	}
	return out
}

func cmaSmoothRadius(precision float64) int {
	r := int((1 - precision) * float64(cmaRadius*4))
	if r < 1 {
		r = 1
	}
	return r
}

func centeredMovingAverage(x []float64, radius int) []float64 {
	n := len(x)
	out := make([]float64, n)
	for i := range x {
		sum, count := 0.0, 0
		for d := -radius; d <= radius; d++ {
			j := i + d
			if j < 0 || j >= n {
				continue
			}
			sum += x[j]
			count++
		}
		if count > 0 {
			out[i] = sum / float64(count)
		}
	}
	return out
}

// computeMaxTransientness returns the ceiling applied to the
// transientness curve for the current softHard setting
// (DBToAmp(-maxGainClip/softHard)*ampFactor); applyTransientness clips
// the curve to it before scaling by maxGain*softHard into a dB gain.
func (p *Processor) computeMaxTransientness() float64 {
	if math.Abs(p.softHard) < dsputil.Eps {
		return 1.0 * ampFactor
	}
	maxTransDB := -maxGainClip / p.softHard
	return dsputil.DBToAmp(maxTransDB) * ampFactor
}

func (p *Processor) applyTransientness(samples []float64) {
	if len(p.transientness) != len(samples) {
		return
	}

	trans := append([]float64(nil), p.transientness...)
	dsputil.ClipMax(trans, p.computeMaxTransientness())
	dsputil.ClipMin(trans, 0)

	gainDB := maxGain * p.softHard
	gains := append([]float64(nil), trans...)
	dsputil.MultValue(gains, gainDB)
	dsputil.DBToAmpBuf(gains)

	dsputil.MultBuffers(samples, gains)
}
