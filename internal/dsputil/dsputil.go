// Package dsputil collects the small numeric helpers shared by every
// processing stage: dB/amplitude conversions, phase unwrapping, buffer
// arithmetic and the A-weighting curve. It mirrors the Utils.cpp /
// AWeighting.cpp helpers of the original plugin code, expressed with
// gonum's floats package for the straight-line buffer arithmetic.
package dsputil

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// Eps guards divisions where the original code tests against its
	// own epsilon constants (NL_EPS / BL_EPS) before dividing.
	Eps = 1e-15

	// DBInf is the floor returned by AmpToDB for a silent signal,
	// matching the original library's -70dB "infinity" convention.
	DBInf = -70.0
)

// AmpToDB converts a linear amplitude to decibels, floored at DBInf.
func AmpToDB(amp float64) float64 {
	if amp < Eps {
		return DBInf
	}
	db := 20.0 * math.Log10(amp)
	if db < DBInf {
		return DBInf
	}
	return db
}

// AmpToDBBuf converts every element of buf from linear amplitude to dB, in place.
func AmpToDBBuf(buf []float64) {
	for i, v := range buf {
		buf[i] = AmpToDB(v)
	}
}

// DBToAmp converts decibels back to linear amplitude.
func DBToAmp(db float64) float64 {
	return math.Pow(10.0, db/20.0)
}

// DBToAmpBuf converts every element of buf from dB to linear amplitude, in place.
func DBToAmpBuf(buf []float64) {
	for i, v := range buf {
		buf[i] = DBToAmp(v)
	}
}

// ClipMax clamps every element of buf to at most max.
func ClipMax(buf []float64, max float64) {
	for i, v := range buf {
		if v > max {
			buf[i] = max
		}
	}
}

// ClipMin clamps every element of buf to at least min.
func ClipMin(buf []float64, min float64) {
	for i, v := range buf {
		if v < min {
			buf[i] = min
		}
	}
}

// AddBuffers adds b into a element-wise, panicking on length mismatch
// just as gonum's floats.Add does; this is the direct replacement for
// the original's Utils::addBuffers.
func AddBuffers(a, b []float64) {
	floats.Add(a, b)
}

// SubtractBuffers subtracts b from a element-wise (a -= b).
func SubtractBuffers(a, b []float64) {
	floats.Sub(a, b)
}

// MultBuffers multiplies a by b element-wise.
func MultBuffers(a, b []float64) {
	floats.Mul(a, b)
}

// MultValue scales every element of a by v.
func MultValue(a []float64, v float64) {
	floats.Scale(v, a)
}

// Sum returns the sum of a buffer's elements.
func Sum(a []float64) float64 {
	return floats.Sum(a)
}

// FillZero zeroes a buffer in place.
func FillZero(a []float64) {
	for i := range a {
		a[i] = 0
	}
}

// UnwrapPhase removes 2*pi discontinuities from a sequence of phases
// taken in frequency-bin order, returning a new continuous sequence.
func UnwrapPhase(phases []float64) []float64 {
	out := make([]float64, len(phases))
	if len(phases) == 0 {
		return out
	}
	out[0] = phases[0]
	for i := 1; i < len(phases); i++ {
		d := phases[i] - phases[i-1]
		for d > math.Pi {
			d -= 2 * math.Pi
		}
		for d < -math.Pi {
			d += 2 * math.Pi
		}
		out[i] = out[i-1] + d
	}
	return out
}

// WrapPhase reduces a phase to (-pi, pi].
func WrapPhase(phase float64) float64 {
	for phase > math.Pi {
		phase -= 2 * math.Pi
	}
	for phase <= -math.Pi {
		phase += 2 * math.Pi
	}
	return phase
}

// A-weighting constants from IEC 61672 / the original AWeighting.cpp.
const (
	aW1 = 12194.0
	aW2 = 20.6
	aW3 = 107.7
	aW4 = 737.9
)

// computeR evaluates the A-weighting transfer function magnitude at
// frequency f (Hz), before conversion to dB.
func computeR(f float64) float64 {
	f2 := f * f
	num := aW1 * aW1 * f2 * f2
	den := (f2 + aW2*aW2) *
		math.Sqrt((f2+aW3*aW3)*(f2+aW4*aW4)) *
		(f2 + aW1*aW1)
	if den < Eps {
		return 0
	}
	return num / den
}

// computeA returns the A-weighting gain in dB at frequency f, relative
// to the curve's reference gain at 1kHz.
func computeA(f float64) float64 {
	r := computeR(f)
	r1000 := computeR(1000.0)
	if r < Eps || r1000 < Eps {
		return DBInf
	}
	return 20.0*math.Log10(r) - 20.0*math.Log10(r1000)
}

// AWeight returns the A-weighting correction (in dB) to add to a
// magnitude measured at frequency f (Hz). Used by the peak detector to
// bias peak salience toward the audible range before thresholding.
func AWeight(f float64) float64 {
	return computeA(f)
}

// AWeightBuf fills corrections for a linearly-spaced frequency axis
// covering [0, nyquist] over len(dst) bins.
func AWeightBuf(dst []float64, nyquist float64) {
	n := len(dst)
	if n < 2 {
		return
	}
	for i := range dst {
		f := nyquist * float64(i) / float64(n-1)
		dst[i] = AWeight(f)
	}
}

// ComplexToMagnPhase splits a complex spectrum into magnitude and phase buffers.
func ComplexToMagnPhase(spectrum []complex128) (magn, phase []float64) {
	magn = make([]float64, len(spectrum))
	phase = make([]float64, len(spectrum))
	for i, c := range spectrum {
		magn[i] = math.Hypot(real(c), imag(c))
		phase[i] = math.Atan2(imag(c), real(c))
	}
	return magn, phase
}

// MagnPhaseToComplex recombines magnitude and phase buffers into a complex spectrum.
func MagnPhaseToComplex(magn, phase []float64) []complex128 {
	out := make([]complex128, len(magn))
	for i := range magn {
		out[i] = complex(magn[i]*math.Cos(phase[i]), magn[i]*math.Sin(phase[i]))
	}
	return out
}
