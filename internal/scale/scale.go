// Package scale implements frequency-axis remapping and Mel
// filterbank construction. Grounded on the original plugin's
// Scale.cpp/FreqAxis.cpp (the tagged Linear/Log/Mel/... axis variants)
// and, for the triangular filterbank itself, on the Kaldi-style
// ComputeFbank mel-filter construction found in the retrieval pack's
// voiceprint/fbank reference code.
package scale

import (
	"fmt"
	"math"
	"strings"
)

// Variant selects a frequency-axis remapping.
type Variant int

const (
	Linear Variant = iota
	Normalized
	DB
	Log
	Log10
	LogFactor
	Mel
	MelFilter
	LowZoom
	LogNoNorm
)

// variantNames maps the config-file spelling of each Variant to its
// tagged constant, per spec.md §REDESIGN "applyScale(tag, ...)".
var variantNames = map[string]Variant{
	"linear":     Linear,
	"normalized": Normalized,
	"db":         DB,
	"log":        Log,
	"log10":      Log10,
	"logfactor":  LogFactor,
	"mel":        Mel,
	"melfilter":  MelFilter,
	"lowzoom":    LowZoom,
	"lognonorm":  LogNoNorm,
}

// ParseVariant resolves a config-file axis name to its Variant,
// case-insensitively. An empty name resolves to Linear.
func ParseVariant(name string) (Variant, error) {
	if name == "" {
		return Linear, nil
	}
	v, ok := variantNames[strings.ToLower(name)]
	if !ok {
		return Linear, fmt.Errorf("scale: unknown frequency axis %q", name)
	}
	return v, nil
}

// Scale converts between a normalized axis position x in [0,1] and a
// frequency in Hz, for one of the tagged variants.
type Scale struct {
	variant Variant
	minHz   float64
	maxHz   float64
	factor  float64 // used by LogFactor/LowZoom
}

// New constructs a Scale over [minHz, maxHz] for the given variant.
func New(variant Variant, minHz, maxHz float64) *Scale {
	if maxHz <= minHz {
		maxHz = minHz + 1
	}
	return &Scale{variant: variant, minHz: minHz, maxHz: maxHz, factor: 10.0}
}

// SetFactor sets the curvature factor used by LogFactor and LowZoom.
func (s *Scale) SetFactor(f float64) { s.factor = f }

// ToNormalized maps a frequency in Hz to a normalized axis position in [0,1].
func (s *Scale) ToNormalized(hz float64) float64 {
	switch s.variant {
	case Linear, Normalized:
		return clamp01((hz - s.minHz) / (s.maxHz - s.minHz))
	case DB:
		return clamp01(hzToDB(hz, s.minHz, s.maxHz))
	case Log, LogNoNorm:
		return clamp01(hzToLog(hz, s.minHz, s.maxHz))
	case Log10:
		return clamp01(hzToLog10(hz, s.minHz, s.maxHz))
	case LogFactor, LowZoom:
		return clamp01(hzToLogFactor(hz, s.minHz, s.maxHz, s.factor))
	case Mel, MelFilter:
		return clamp01(hzToMelNorm(hz, s.minHz, s.maxHz))
	default:
		return clamp01((hz - s.minHz) / (s.maxHz - s.minHz))
	}
}

// ToHz is the inverse of ToNormalized.
func (s *Scale) ToHz(x float64) float64 {
	x = clamp01(x)
	switch s.variant {
	case Linear, Normalized:
		return s.minHz + x*(s.maxHz-s.minHz)
	case DB:
		return dbToHz(x, s.minHz, s.maxHz)
	case Log, LogNoNorm:
		return logToHz(x, s.minHz, s.maxHz)
	case Log10:
		return log10ToHz(x, s.minHz, s.maxHz)
	case LogFactor, LowZoom:
		return logFactorToHz(x, s.minHz, s.maxHz, s.factor)
	case Mel, MelFilter:
		return melNormToHz(x, s.minHz, s.maxHz)
	default:
		return s.minHz + x*(s.maxHz-s.minHz)
	}
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func hzToDB(hz, minHz, maxHz float64) float64 {
	minDB := ampToDBAxis(minHz)
	maxDB := ampToDBAxis(maxHz)
	return (ampToDBAxis(hz) - minDB) / (maxDB - minDB)
}

func dbToHz(x, minHz, maxHz float64) float64 {
	minDB := ampToDBAxis(minHz)
	maxDB := ampToDBAxis(maxHz)
	db := minDB + x*(maxDB-minDB)
	return math.Pow(10, db/20)
}

func ampToDBAxis(hz float64) float64 {
	if hz < 1e-6 {
		hz = 1e-6
	}
	return 20 * math.Log10(hz)
}

func hzToLog(hz, minHz, maxHz float64) float64 {
	lo, hi := safeLog(minHz), safeLog(maxHz)
	return (safeLog(hz) - lo) / (hi - lo)
}

func logToHz(x, minHz, maxHz float64) float64 {
	lo, hi := safeLog(minHz), safeLog(maxHz)
	return math.Exp(lo + x*(hi-lo))
}

func safeLog(hz float64) float64 {
	if hz < 1e-6 {
		hz = 1e-6
	}
	return math.Log(hz)
}

func hzToLog10(hz, minHz, maxHz float64) float64 {
	lo, hi := safeLog10(minHz), safeLog10(maxHz)
	return (safeLog10(hz) - lo) / (hi - lo)
}

func log10ToHz(x, minHz, maxHz float64) float64 {
	lo, hi := safeLog10(minHz), safeLog10(maxHz)
	return math.Pow(10, lo+x*(hi-lo))
}

func safeLog10(hz float64) float64 {
	if hz < 1e-6 {
		hz = 1e-6
	}
	return math.Log10(hz)
}

// hzToLogFactor applies a curvature factor to the log mapping, used by
// LowZoom to give extra resolution near the low end of the axis.
func hzToLogFactor(hz, minHz, maxHz, factor float64) float64 {
	lin := (hz - minHz) / (maxHz - minHz)
	if factor < 1e-6 {
		factor = 1e-6
	}
	return math.Log1p(lin*factor) / math.Log1p(factor)
}

func logFactorToHz(x, minHz, maxHz, factor float64) float64 {
	if factor < 1e-6 {
		factor = 1e-6
	}
	lin := (math.Exp(x*math.Log1p(factor)) - 1) / factor
	return minHz + lin*(maxHz-minHz)
}

// Mel conversions, standard HTK formula (matches the fbank reference's
// mel-filter construction style).
func hzToMel(hz float64) float64 {
	return 2595.0 * math.Log10(1+hz/700.0)
}

func melToHz(mel float64) float64 {
	return 700.0 * (math.Pow(10, mel/2595.0) - 1)
}

func hzToMelNorm(hz, minHz, maxHz float64) float64 {
	lo, hi := hzToMel(minHz), hzToMel(maxHz)
	return (hzToMel(hz) - lo) / (hi - lo)
}

func melNormToHz(x, minHz, maxHz float64) float64 {
	lo, hi := hzToMel(minHz), hzToMel(maxHz)
	return melToHz(lo + x*(hi-lo))
}

// FilterBank is a set of triangular Mel filters over a linear FFT bin
// axis, built lazily and cached by (numFilters, numBins, sampleRate).
type FilterBank struct {
	numFilters int
	numBins    int
	sampleRate float64
	minHz      float64
	maxHz      float64

	weights [][]float64 // [filter][bin]
}

// NewFilterBank constructs (lazily, on first Apply) a Mel-spaced
// triangular filterbank over numBins linear FFT bins spanning
// [minHz, maxHz] of a spectrum sampled at sampleRate.
func NewFilterBank(numFilters, numBins int, sampleRate, minHz, maxHz float64) *FilterBank {
	return &FilterBank{
		numFilters: numFilters,
		numBins:    numBins,
		sampleRate: sampleRate,
		minHz:      minHz,
		maxHz:      maxHz,
	}
}

func (fb *FilterBank) ensureBuilt() {
	if fb.weights != nil {
		return
	}
	fb.weights = make([][]float64, fb.numFilters)

	melLo, melHi := hzToMel(fb.minHz), hzToMel(fb.maxHz)
	points := make([]float64, fb.numFilters+2)
	for i := range points {
		mel := melLo + float64(i)*(melHi-melLo)/float64(fb.numFilters+1)
		points[i] = melToHz(mel)
	}

	binHz := fb.sampleRate / 2.0 / float64(fb.numBins-1)
	binIdx := make([]int, len(points))
	for i, hz := range points {
		binIdx[i] = int(hz / binHz)
	}

	for m := 0; m < fb.numFilters; m++ {
		w := make([]float64, fb.numBins)
		left, center, right := binIdx[m], binIdx[m+1], binIdx[m+2]
		for b := left; b < center && b < fb.numBins; b++ {
			if center > left {
				w[clampBin(b, fb.numBins)] = float64(b-left) / float64(center-left)
			}
		}
		for b := center; b < right && b < fb.numBins; b++ {
			if right > center {
				w[clampBin(b, fb.numBins)] = float64(right-b) / float64(right-center)
			}
		}
		fb.weights[m] = w
	}
}

func clampBin(b, n int) int {
	if b < 0 {
		return 0
	}
	if b >= n {
		return n - 1
	}
	return b
}

// Apply projects a linear-bin magnitude spectrum onto the filterbank,
// returning numFilters band energies.
func (fb *FilterBank) Apply(spectrum []float64) []float64 {
	fb.ensureBuilt()
	out := make([]float64, fb.numFilters)
	for m, w := range fb.weights {
		sum := 0.0
		for b, v := range w {
			if b < len(spectrum) {
				sum += v * spectrum[b]
			}
		}
		out[m] = sum
	}
	return out
}

// NumFilters returns the number of Mel bands.
func (fb *FilterBank) NumFilters() int { return fb.numFilters }
