package partial

import (
	"math"

	"github.com/voicelab/spectralcore/internal/dsputil"
	"github.com/voicelab/spectralcore/internal/scale"
)

// natsPerDB converts a decibel delta to the equivalent delta in natural
// log of amplitude: ln(amp) = dB * ln(10)/20.
const natsPerDB = math.Ln10 / 20.0

// Frame is the output of Preprocess.Process: the arrays PeakDetector
// and QIFFT operate on, per spec.md §4.4.1.
type Frame struct {
	LinearMagns []float64 // smoothed linear magnitude, dB scale (display/UI use)
	LogMagns    []float64 // natural-log scale, A-weighted and axis-remapped
	Phase       []float64 // unwrapped, axis-remapped alongside LogMagns
	WarpedMagn  []float64 // smoothed linear magnitude, axis-remapped but not A-weighted; the domain envelope extraction operates in
	BinHz       float64   // linear FFT bin spacing of the *input* spectrum
}

// Preprocess implements spec.md §4.4.1's preprocessing chain ahead of
// peak detection: exponential magnitude smoothing, linear-dB and
// natural-log copies, additive A-weighting in dB, and an optional
// frequency-axis remap (linear/log/Mel/low-zoom) through a Scale. The
// remap is a resample of the uniform linear-bin arrays onto
// scale.ToHz(i/(n-1)) positions, so PeakDetector and QIFFT downstream
// operate in whatever axis the Scale describes; DenormalizeEnvelope
// (spec.md §4.4.5) undoes it afterward.
type Preprocess struct {
	SmoothCoeff float64
	Scale       *scale.Scale // nil means no remap (identity axis)

	sampleRate float64
	smoothed   []float64
	aweightDB  []float64
}

// NewPreprocess constructs a Preprocess for a half-spectrum of binCount
// bins sampled at sampleRate. sc may be nil for an unwarped (linear)
// frequency axis.
func NewPreprocess(binCount int, sampleRate float64, sc *scale.Scale) *Preprocess {
	p := &Preprocess{
		SmoothCoeff: 0.5,
		Scale:       sc,
		sampleRate:  sampleRate,
		smoothed:    make([]float64, binCount),
		aweightDB:   make([]float64, binCount),
	}
	dsputil.AWeightBuf(p.aweightDB, sampleRate/2.0)
	return p
}

// Process runs one frame's magnitude/phase through the preprocessing
// chain and returns the arrays detection/refinement consume.
func (p *Preprocess) Process(magn, phase []float64) Frame {
	n := len(magn)
	binHz := (p.sampleRate / 2.0) / float64(n-1)

	for i := 0; i < n; i++ {
		p.smoothed[i] = p.SmoothCoeff*p.smoothed[i] + (1-p.SmoothCoeff)*magn[i]
	}

	linearMagns := make([]float64, n)
	copy(linearMagns, p.smoothed)
	dsputil.AmpToDBBuf(linearMagns)

	unwrapped := dsputil.UnwrapPhase(phase)

	logMagns := make([]float64, n)
	for i, m := range p.smoothed {
		logMagns[i] = math.Log(m+dsputil.Eps) + p.aweightDB[i]*natsPerDB
	}

	warpedMagn := make([]float64, n)
	copy(warpedMagn, p.smoothed)

	if p.Scale != nil {
		logMagns = p.warp(logMagns, binHz)
		unwrapped = p.warp(unwrapped, binHz)
		warpedMagn = p.warp(warpedMagn, binHz)
	}

	return Frame{
		LinearMagns: linearMagns,
		LogMagns:    logMagns,
		Phase:       unwrapped,
		WarpedMagn:  warpedMagn,
		BinHz:       binHz,
	}
}

// AmpFromLogMagn inverts the natural-log + A-weighting conversion
// Process applies when building LogMagns, recovering a linear
// amplitude from a (possibly QIFFT-refined) LogMagns-domain value at
// the given bin of the pre-warp spectrum.
func (p *Preprocess) AmpFromLogMagn(logMagn float64, binIndex int) float64 {
	if binIndex < 0 {
		binIndex = 0
	}
	if binIndex >= len(p.aweightDB) {
		binIndex = len(p.aweightDB) - 1
	}
	amp := math.Exp(logMagn-p.aweightDB[binIndex]*natsPerDB) - dsputil.Eps
	if amp < 0 {
		amp = 0
	}
	return amp
}

// warp resamples a uniformly-spaced linear-bin array onto the
// configured Scale's axis: output position i corresponds to frequency
// Scale.ToHz(i/(n-1)), located in the source array via linear bin
// position (that frequency divided by binHz) and interpolated.
func (p *Preprocess) warp(src []float64, binHz float64) []float64 {
	n := len(src)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		hz := p.Scale.ToHz(float64(i) / float64(n-1))
		out[i] = interpAt(src, hz/binHz)
	}
	return out
}

// DenormalizeEnvelope reverses the preprocessing axis remap, per
// spec.md §4.4.5 (bin index -> inverse frequency-axis scale ->
// normalized frequency -> * sample rate/2 -> Hz): it maps a per-bin
// envelope computed over the (possibly axis-remapped) preprocessing
// grid back onto the real linear FFT bin grid of outLen bins, so
// AirProcessor can build a mask that aligns with the actual spectrum
// it multiplies.
func (p *Preprocess) DenormalizeEnvelope(warped []float64, outLen int, binHz float64) []float64 {
	out := make([]float64, outLen)
	n := len(warped)
	for j := 0; j < outLen; j++ {
		x := float64(j) / float64(outLen-1)
		if p.Scale != nil {
			hz := float64(j) * binHz
			x = p.Scale.ToNormalized(hz)
		}
		out[j] = interpAt(warped, x*float64(n-1))
	}
	return out
}

// interpAt linearly interpolates buf at a fractional index, clamping
// at the ends.
func interpAt(buf []float64, pos float64) float64 {
	n := len(buf)
	if n == 0 {
		return 0
	}
	if pos <= 0 {
		return buf[0]
	}
	if pos >= float64(n-1) {
		return buf[n-1]
	}
	i0 := int(pos)
	frac := pos - float64(i0)
	return buf[i0]*(1-frac) + buf[i0+1]*frac
}
