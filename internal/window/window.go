// Package window provides analysis/synthesis windows and the one-pole
// sample-rate-independent parameter smoother shared by every
// processor. The Hann window is carried over verbatim from the
// teacher's window.go; Hann2D and ParamSmoother are new, grounded on
// the original plugin's Window::MakeHanningKernel2 and ParamSmoother.h.
package window

import "math"

// Hann returns a Hann (raised-cosine) window of length n.
//
//	w[i] = 0.5 * (1 - cos(2*pi*i / (n-1)))
func Hann(n int) []float64 {
	if n <= 1 {
		return []float64{1.0}
	}
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}

// Hann2D builds a separable n x n Hann kernel (outer product of two
// 1-D Hann windows), normalized to sum to 1. Used by the denoiser's
// residual-noise image filter.
func Hann2D(n int) [][]float64 {
	w := Hann(n)
	kernel := make([][]float64, n)
	sum := 0.0
	for i := range kernel {
		kernel[i] = make([]float64, n)
		for j := range kernel[i] {
			kernel[i][j] = w[i] * w[j]
			sum += kernel[i][j]
		}
	}
	if sum > 1e-15 {
		for i := range kernel {
			for j := range kernel[i] {
				kernel[i][j] /= sum
			}
		}
	}
	return kernel
}

// DefaultSmoothingTimeMs is the original plugin's default parameter
// smoothing time.
const DefaultSmoothingTimeMs = 140.0

// ParamSmoother is a one-pole low-pass applied to a control parameter
// so UI/automation changes don't introduce zipper noise. The smoothing
// factor is derived so its -3dB time constant is independent of the
// sample rate, per ComputeSmoothFactor in the original ParamSmoother.h.
type ParamSmoother struct {
	a, b    float64
	value   float64
	target  float64
	timeMs  float64
	sampleRate float64
}

// NewParamSmoother creates a smoother initialized to initialValue.
func NewParamSmoother(sampleRate, timeMs, initialValue float64) *ParamSmoother {
	s := &ParamSmoother{
		value:      initialValue,
		target:     initialValue,
		timeMs:     timeMs,
		sampleRate: sampleRate,
	}
	s.a, s.b = ComputeSmoothFactor(sampleRate, timeMs)
	return s
}

// ComputeSmoothFactor returns the one-pole coefficients (a, b=1-a) for
// a given sample rate and smoothing time in milliseconds.
func ComputeSmoothFactor(sampleRate, timeMs float64) (a, b float64) {
	if sampleRate < 1e-15 || timeMs < 1e-15 {
		return 0, 1
	}
	a = math.Exp(-2.0 * math.Pi / (timeMs * 0.001 * sampleRate))
	b = 1.0 - a
	return a, b
}

// Reset resets the sample rate and recomputes coefficients; the current
// value and target are left unchanged.
func (s *ParamSmoother) Reset(sampleRate float64) {
	s.sampleRate = sampleRate
	s.a, s.b = ComputeSmoothFactor(sampleRate, s.timeMs)
}

// SetTargetValue sets the value the smoother will converge toward.
func (s *ParamSmoother) SetTargetValue(v float64) {
	s.target = v
}

// SetValueImmediate snaps both value and target to v, bypassing smoothing.
func (s *ParamSmoother) SetValueImmediate(v float64) {
	s.value = v
	s.target = v
}

// Tick advances the smoother by one control-rate step and returns the
// new smoothed value.
func (s *ParamSmoother) Tick() float64 {
	s.value = s.a*s.value + s.b*s.target
	return s.value
}

// Value returns the current smoothed value without advancing state.
func (s *ParamSmoother) Value() float64 {
	return s.value
}

// IsStable reports whether the smoother has converged to its target
// within a small tolerance, matching the original's isStable check.
func (s *ParamSmoother) IsStable() bool {
	return math.Abs(s.value-s.target) < 1e-6
}
