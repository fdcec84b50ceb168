// Package air implements the harmonic/noise split processor, ported
// from the original plugin's AirProcessor.cpp: the partial tracker's
// envelopes separate the spectrum into a harmonic (tonal) component and
// a noise (residual) component, and a mix parameter in [-1, 1] blends
// them back together — negative values emphasize the harmonic content
// (fading the noise), positive values emphasize the noise floor ("air",
// fading the harmonic content).
package air

import (
	"github.com/voicelab/spectralcore/internal/dsputil"
	"github.com/voicelab/spectralcore/internal/metrics"
	"github.com/voicelab/spectralcore/internal/partial"
	"github.com/voicelab/spectralcore/internal/partial/filter"
	"github.com/voicelab/spectralcore/internal/peak"
	"github.com/voicelab/spectralcore/internal/qifft"
	"github.com/voicelab/spectralcore/internal/scale"
	"github.com/voicelab/spectralcore/internal/softmask"
)

const softMaskingHistoSize = 8

// peakDetectorMaxDelta is the Billauer detector's dynamic-range scale,
// expressed in nats (natural-log magnitude units) rather than dB since
// Preprocess.Process's LogMagns is natural-log scaled: 120dB of range
// is 120/8.6858896 nats (dB = 8.6858896 * ln(ratio)).
const peakDetectorMaxDelta = 120.0 / 8.6858896

// Processor implements the Air harmonic/noise split and remix.
type Processor struct {
	tracker    *partial.Tracker
	preprocess *partial.Preprocess
	envelope   *partial.Envelope

	mix      float64 // -1..+1
	softMode bool

	softMask *softmask.WienerSoftMasking

	halfSize   int
	sampleRate float64

	detector *peak.Detector
}

// New constructs an air Processor for the given half-spectrum size and
// sample rate, using the AM/FM association strategy and a linear
// (unwarped) frequency axis by default.
func New(halfSize int, overlap int, sampleRate float64) *Processor {
	return &Processor{
		tracker:    partial.NewTracker(filter.NewAMFM()),
		preprocess: partial.NewPreprocess(halfSize, sampleRate, nil),
		envelope:   partial.NewEnvelope(halfSize),
		softMask:   softmask.New(halfSize, overlap, softMaskingHistoSize),
		halfSize:   halfSize,
		sampleRate: sampleRate,
		detector:   peak.NewDetector(peakDetectorMaxDelta),
	}
}

// SetFreqAxis reconfigures the PartialTracker's frequency-axis remap
// (spec.md §4.4.1 step 4), resetting the preprocessing smoother state
// since its bin layout changes along with the axis.
func (p *Processor) SetFreqAxis(variant scale.Variant) {
	var sc *scale.Scale
	if variant != scale.Linear {
		sc = scale.New(variant, 1.0, p.sampleRate/2.0)
	}
	p.preprocess = partial.NewPreprocess(p.halfSize, p.sampleRate, sc)
	p.envelope.Reset()
}

// SetMix sets the harmonic/noise blend in [-1, 1].
func (p *Processor) SetMix(mix float64) {
	if mix < -1 {
		mix = -1
	}
	if mix > 1 {
		mix = 1
	}
	p.mix = mix
}

// Mix returns the current harmonic/noise blend.
func (p *Processor) Mix() float64 { return p.mix }

// SetSoftMasking toggles between the hard partial mask and the
// Wiener soft-masking path.
func (p *Processor) SetSoftMasking(soft bool) { p.softMode = soft }

// UseMarchandAssociation switches the tracker's association strategy to
// the Marchand/PARSHL frequency-proximity method instead of AM/FM.
func (p *Processor) UseMarchandAssociation() {
	p.tracker.SetStrategy(filter.NewMarchand())
}

// UseAMFMAssociation restores the default AM/FM association strategy.
func (p *Processor) UseAMFMAssociation() {
	p.tracker.SetStrategy(filter.NewAMFM())
}

// mixParamToCoeffs maps a -1..+1 mix value to (harmonic, noise) gain
// coefficients. At 0, both are 1 (pass-through mix); moving toward -1
// fades the noise to 0 while harmonic stays at 1; moving toward +1
// fades the harmonic to 0 while noise stays at 1, matching
// Utils::mixParamToCoeffs's piecewise-linear shape: for mix<=0,
// (c_h, c_n) = (1, 1+mix); for mix>=0, (c_h, c_n) = (1-mix, 1).
func mixParamToCoeffs(mix float64) (harmonic, noise float64) {
	if mix <= 0 {
		return 1.0, 1.0 + mix
	}
	return 1.0 - mix, 1.0
}

// ProcessFFT implements overlapadd.Processor.
func (p *Processor) ProcessFFT(spectrum []complex128) {
	magn, phase := dsputil.ComplexToMagnPhase(spectrum)

	// setData -> detectPartials: spec.md §4.7 step 2.
	frame := p.preprocess.Process(magn, phase)

	peaks := p.detector.Detect(frame.LogMagns, -1, -1)

	candidates := make([]partial.Candidate, 0, len(peaks))
	for _, pk := range peaks {
		refined := qifft.Refine(frame.LogMagns, frame.Phase, pk.Index)
		freq := (float64(pk.Index) + refined.BinOffset) * frame.BinHz
		amp := p.preprocess.AmpFromLogMagn(refined.LogMagn, pk.Index)
		candidates = append(candidates, partial.Candidate{
			BinIndex: pk.Index,
			Freq:     freq,
			Amp:      amp,
			Phase:    frame.Phase[pk.Index],
			Refined:  refined,
		})
	}

	// filterPartials: spec.md §4.7 step 2.
	p.tracker.Update(candidates)
	metrics.PartialsAlive.Set(float64(len(p.tracker.AlivePartials())))

	// extractNoiseEnvelope + denormalize: spec.md §4.7 steps 2-3.
	warpedNoise, warpedHarmonic := p.envelope.Extract(frame.WarpedMagn, p.tracker.AlivePartials(), frame.BinHz)
	noise := p.preprocess.DenormalizeEnvelope(warpedNoise, len(magn), frame.BinHz)
	harmonic := p.preprocess.DenormalizeEnvelope(warpedHarmonic, len(magn), frame.BinHz)

	harmonicMask := partial.Mask(noise, harmonic)

	harmonicCoeff, noiseCoeff := mixParamToCoeffs(p.mix)

	if p.softMode {
		_, masked0, masked1 := p.softMask.ProcessCentered(spectrum, harmonicMask)
		if masked0 == nil {
			return
		}
		for i := range spectrum {
			spectrum[i] = masked0[i]*complex(harmonicCoeff, 0) + masked1[i]*complex(noiseCoeff, 0)
		}
		return
	}

	for i := range spectrum {
		h := harmonicMask[i]
		n := 1 - h
		spectrum[i] = spectrum[i] * complex(h*harmonicCoeff+n*noiseCoeff, 0)
	}
}

func (p *Processor) ProcessSamples(samples []float64) {}
