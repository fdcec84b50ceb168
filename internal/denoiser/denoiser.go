// Package denoiser implements the spectral noise-reduction core,
// ported from the original plugin's DenoiserProcessor.cpp: a
// heavily-smoothed per-bin noise profile, soft-elbow spectral
// subtraction, and an optional 2-D image-domain residual-noise filter
// that suppresses musical noise by averaging a short log-magnitude
// history through a 5x5 Hann kernel.
package denoiser

import (
	"math"

	"github.com/voicelab/spectralcore/internal/dsputil"
	"github.com/voicelab/spectralcore/internal/ring"
	"github.com/voicelab/spectralcore/internal/softmask"
	"github.com/voicelab/spectralcore/internal/window"
)

const (
	thresholdCoeff      = 1000.0
	resNoiseHistorySize = 5
	resNoiseLineNum     = 2
	dbFloor             = -200.0
	dbCeil              = 0.0
)

// Processor applies learned-noise-profile spectral subtraction with
// optional residual musical-noise suppression to a half spectrum.
type Processor struct {
	halfSize int

	noiseProfile []float64 // smoothed per-bin noise magnitude
	learning     bool
	smoothCoeff  float64

	threshold float64 // 0..1, spectral subtraction aggressiveness
	noiseOnly bool

	residualEnabled bool
	residualAmount  float64 // 0..1
	history         *ring.Buffer[[]float64] // log(1+magn) history, depth resNoiseHistorySize
	kernel          [][]float64

	autoResidual bool
	softMaskSig  *softmask.WienerSoftMasking
	softMaskNoise *softmask.WienerSoftMasking
}

// New constructs a Processor for a given half-spectrum size.
func New(halfSize int) *Processor {
	p := &Processor{
		halfSize:       halfSize,
		noiseProfile:   make([]float64, halfSize),
		smoothCoeff:    0.995,
		threshold:      0.5,
		residualAmount: 0.0,
		history:        ring.NewBuffer[[]float64](resNoiseHistorySize),
		kernel:         window.Hann2D(5),
	}
	return p
}

// SetLearning enables or disables noise-profile accumulation.
func (p *Processor) SetLearning(on bool) { p.learning = on }

// SetThreshold sets the spectral subtraction aggressiveness, 0..1.
func (p *Processor) SetThreshold(t float64) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	p.threshold = t
}

// Threshold returns the current spectral subtraction aggressiveness.
func (p *Processor) Threshold() float64 { return p.threshold }

// SetNoiseOnly toggles monitoring the extracted noise instead of the
// denoised signal, for auditioning the noise profile.
func (p *Processor) SetNoiseOnly(on bool) { p.noiseOnly = on }

// SetResidualDenoise enables the 2-D image-domain musical-noise filter
// and sets its strength (0..1).
func (p *Processor) SetResidualDenoise(enabled bool, amount float64) {
	p.residualEnabled = enabled
	p.residualAmount = amount
}

// SetAutoResidual toggles the auto-residual mode, which derives the
// hard mask from the noise profile itself and runs it through two
// WienerSoftMasking instances (signal path, noise path) instead of the
// image-domain filter.
func (p *Processor) SetAutoResidual(on bool) {
	p.autoResidual = on
	if on && p.softMaskSig == nil {
		p.softMaskSig = softmask.New(p.halfSize, 4, 8)
		p.softMaskNoise = softmask.New(p.halfSize, 4, 8)
	}
}

// NoiseProfile returns a copy of the learned per-bin noise magnitude,
// for UI visualization.
func (p *Processor) NoiseProfile() []float64 {
	return append([]float64(nil), p.noiseProfile...)
}

// SetNoiseProfile restores a previously learned noise profile (e.g.
// from persisted state).
func (p *Processor) SetNoiseProfile(profile []float64) {
	if len(profile) != p.halfSize {
		return
	}
	copy(p.noiseProfile, profile)
}

// ResampleProfile re-derives the noise profile for a new half-spectrum
// size by linear interpolation, matching ResampleNoisePattern's
// behavior when the sample rate changes mid-session.
func (p *Processor) ResampleProfile(newHalfSize int) {
	if newHalfSize == p.halfSize {
		return
	}
	resampled := make([]float64, newHalfSize)
	for i := range resampled {
		srcPos := float64(i) * float64(p.halfSize-1) / float64(max(newHalfSize-1, 1))
		lo := int(math.Floor(srcPos))
		hi := lo + 1
		if hi >= p.halfSize {
			hi = p.halfSize - 1
		}
		frac := srcPos - float64(lo)
		resampled[i] = p.noiseProfile[lo]*(1-frac) + p.noiseProfile[hi]*frac
	}
	p.noiseProfile = resampled
	p.halfSize = newHalfSize
	p.history = ring.NewBuffer[[]float64](resNoiseHistorySize)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ProcessFFT implements overlapadd.Processor: spectral-subtraction
// denoising applied in place to the half spectrum.
func (p *Processor) ProcessFFT(spectrum []complex128) {
	magn, phase := dsputil.ComplexToMagnPhase(spectrum)

	if p.learning {
		p.updateNoiseProfile(magn)
	}

	if p.autoResidual {
		p.processAutoResidual(spectrum, magn, phase)
		return
	}

	cleanMagn := make([]float64, len(magn))
	noiseMagn := make([]float64, len(magn))
	for i, m := range magn {
		sig := p.softElbowSignal(m, p.noiseProfile[i])
		cleanMagn[i] = sig
		noiseMagn[i] = m - sig
	}

	if p.residualEnabled {
		cleanMagn, noiseMagn = p.residualDenoise(cleanMagn, noiseMagn)
	}

	out := cleanMagn
	if p.noiseOnly {
		out = noiseMagn
	}

	for i := range spectrum {
		spectrum[i] = complex(out[i]*math.Cos(phase[i]), out[i]*math.Sin(phase[i]))
	}
}

func (p *Processor) ProcessSamples(samples []float64) {}

func (p *Processor) updateNoiseProfile(magn []float64) {
	for i, m := range magn {
		p.noiseProfile[i] = p.smoothCoeff*p.noiseProfile[i] + (1-p.smoothCoeff)*m
	}
}

// softElbowSignal implements the soft-elbow subtraction curve:
// sig' = clip((magn+1)/(noise*applyThreshold+1) - 1, 0, magn). The +1
// offset keeps the curve well-behaved near magn=0 without a log, and
// the result is the clean-signal magnitude itself (not a gain to be
// reapplied to magn), so threshold=0 (adjustedNoise=0) reduces exactly
// to sig'=magn, the identity case.
func (p *Processor) softElbowSignal(magn, noise float64) float64 {
	adjustedNoise := p.applyThresholdToNoise(noise)
	sig := (magn+1)/(adjustedNoise+1) - 1
	if sig < 0 {
		sig = 0
	}
	if sig > magn {
		sig = magn
	}
	return sig
}

// applyThresholdToNoise scales the noise curve by the threshold
// parameter through an exponential-feeling curve (thresholdCoeff
// controls how quickly the curve approaches full subtraction) so
// threshold=0 passes audio through unchanged and threshold=1 subtracts
// close to the full learned noise magnitude.
func (p *Processor) applyThresholdToNoise(noise float64) float64 {
	factor := 1 - math.Exp(-p.threshold*thresholdCoeff/100.0)
	return noise * factor
}

// residualDenoise runs the 5x5 Hann-kernel image filter over a 5-frame
// log(1+magn) history, processing only the center line (the frame two
// steps back) so the filter has symmetric context, and folds any
// energy it removes back into the noise estimate to keep the
// signal+noise split energy-conserving.
func (p *Processor) residualDenoise(cleanMagn, noiseMagn []float64) (filteredClean, adjustedNoise []float64) {
	img := make([]float64, len(cleanMagn))
	for i, m := range cleanMagn {
		img[i] = math.Log1p(m)
	}
	p.history.Push(img)

	if !p.history.Full() {
		return cleanMagn, noiseMagn
	}

	centerIdx := p.history.Len() / 2
	center := p.history.At(centerIdx)
	filtered := make([]float64, len(center))

	kSize := len(p.kernel)
	kHalf := kSize / 2

	for bin := range center {
		acc := 0.0
		for dj := -resNoiseLineNum; dj <= resNoiseLineNum; dj++ {
			lineIdx := centerIdx + dj
			if lineIdx < 0 || lineIdx >= p.history.Len() {
				continue
			}
			line := p.history.At(lineIdx)
			ki := dj + resNoiseLineNum
			if ki < 0 || ki >= kSize {
				continue
			}
			for db := -kHalf; db <= kHalf; db++ {
				bi := bin + db
				if bi < 0 || bi >= len(line) {
					continue
				}
				kj := db + kHalf
				acc += p.kernel[ki][kj] * line[bi]
			}
		}
		filtered[bin] = acc
	}

	out := make([]float64, len(center))
	extraNoise := make([]float64, len(center))
	for i := range center {
		db := dbFloor + p.residualAmount*(dbCeil-dbFloor)
		avgDB := dsputil.AmpToDB(math.Expm1(filtered[i]))
		if avgDB < db {
			prevAmp := math.Expm1(center[i])
			out[i] = 0
			extraNoise[i] = prevAmp
		} else {
			out[i] = math.Expm1(center[i])
		}
	}

	adjustedNoise = append([]float64(nil), noiseMagn...)
	for i := range adjustedNoise {
		if i < len(extraNoise) {
			adjustedNoise[i] += extraNoise[i]
		}
	}

	return out, adjustedNoise
}

// processAutoResidual derives a hard mask from the learned noise
// profile (magn above the noise floor => signal) and runs the centered
// Wiener soft-masking on both the signal-labeled and noise-labeled
// complex spectra, matching the original's AutoResidualDenoise which
// feeds two WienerSoftMasking instances from a single hard split.
func (p *Processor) processAutoResidual(spectrum []complex128, magn, phase []float64) {
	hardMask := make([]float64, len(magn))
	for i, m := range magn {
		if m > p.noiseProfile[i]*(1+p.threshold) {
			hardMask[i] = 1
		}
	}

	_, masked0, _ := p.softMaskSig.ProcessCentered(spectrum, hardMask)
	inv := make([]float64, len(hardMask))
	for i, v := range hardMask {
		inv[i] = 1 - v
	}
	_, masked1, _ := p.softMaskNoise.ProcessCentered(spectrum, inv)

	if masked0 == nil {
		return
	}
	if p.noiseOnly && masked1 != nil {
		copy(spectrum, masked1)
		return
	}
	copy(spectrum, masked0)
}

// Latency returns the processing latency contributed by the denoiser's
// own internal history, in samples: either the soft-masking latency (in
// auto-residual mode) or the residual-filter line lag, matching the
// original's branching GetLatency (the two are never summed, since
// auto-residual mode bypasses the image-domain filter entirely).
func (p *Processor) Latency(hop int) int {
	if p.autoResidual && p.softMaskSig != nil {
		return p.softMaskSig.Latency()
	}
	if p.residualEnabled {
		return resNoiseLineNum * hop
	}
	return 0
}
