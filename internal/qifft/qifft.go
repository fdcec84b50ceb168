// Package qifft implements quadratic-interpolation-on-FFT peak
// refinement, ported from the original plugin's QIFFT.cpp: a
// maximum-constrained parabola fit on log-magnitude gives the
// fractional bin offset and refined amplitude, a general parabola fit
// on unwrapped phase gives the frequency and amplitude derivatives
// (alpha0/beta0) used by the partial tracker's AM/FM model.
package qifft

import "math"

const (
	derivEps          = 1e-5
	alpha0ScaleFactor = 1.422865
	beta0ScaleFactor  = 0.0030370
)

// Refined holds the sub-bin-accurate estimate for one spectral peak.
type Refined struct {
	BinOffset float64 // fractional offset from the integer peak bin, in [-0.5, 0.5]
	LogMagn   float64 // interpolated log-magnitude at the refined bin
	Alpha0    float64 // AM derivative (amplitude slope) at the peak
	Beta0     float64 // FM derivative (frequency slope) at the peak
}

// parabola holds y = a*x^2 + b*x + c coefficients.
type parabola struct{ a, b, c float64 }

// fitMaxConstrained fits a parabola through (-1,alpha), (0,beta), (1,gamma)
// using the closed form that guarantees the vertex is the constrained
// maximum, equivalent to QIFFT::getParabolaCoeffs. The result's a/b/c
// fields do not hold generic polynomial coefficients: b is the
// interpolated value at the vertex and c is the vertex's fractional
// bin offset, matching the original's (curvature, peakValue, offset)
// triple.
func fitMaxConstrained(alpha, beta, gamma float64) parabola {
	denom := alpha - 2*beta + gamma
	if math.Abs(denom) < 1e-20 {
		return parabola{a: 0, b: beta, c: 0}
	}
	p := 0.5 * (alpha - gamma) / denom
	peakValue := beta - 0.25*(alpha-gamma)*p
	return parabola{a: denom / 2, b: peakValue, c: p}
}

// fitGeneral fits a parabola through (-1,alpha), (0,beta), (1,gamma)
// without the max constraint, used for the phase fit (QIFFT::getParabolaCoeffsGen).
func fitGeneral(alpha, beta, gamma float64) parabola {
	a := 0.5 * (alpha + gamma - 2*beta)
	b := gamma - 0.5*(alpha+gamma-2*beta) - beta
	c := beta
	return parabola{a: a, b: b, c: c}
}

func (p parabola) at(x float64) float64 {
	return p.a*x*x + p.b*x + p.c
}

// atVertex evaluates a fitMaxConstrained result in its actual vertex
// form y(x) = a*(x-c)^2 + b — the shared at() method above assumes
// generic a*x^2+b*x+c coefficients, which fitMaxConstrained's a/b/c
// triple does not hold (see its doc comment).
func (p parabola) atVertex(x float64) float64 {
	d := x - p.c
	return p.a*d*d + p.b
}

// Refine performs QIFFT refinement of the peak at binIndex in logMagn
// (log-magnitude spectrum) and unwrappedPhase (unwrapped phase
// spectrum, same length). binIndex <= 1 is skipped (returns the
// unrefined bin) since the parabola fit needs a neighbor on each side
// and bin 0/1 phase derivatives are unreliable near DC.
func Refine(logMagn, unwrappedPhase []float64, binIndex int) Refined {
	n := len(logMagn)
	if binIndex <= 1 || binIndex >= n-1 {
		return Refined{LogMagn: logMagn[clampIndex(binIndex, n)]}
	}

	alpha, beta, gamma := logMagn[binIndex-1], logMagn[binIndex], logMagn[binIndex+1]
	magParab := fitMaxConstrained(alpha, beta, gamma)

	binOffset := magParab.c
	if binOffset > 0.5 {
		binOffset = 0.5
	}
	if binOffset < -0.5 {
		binOffset = -0.5
	}
	refinedLogMagn := magParab.b

	pAlpha, pBeta, pGamma := unwrappedPhase[binIndex-1], unwrappedPhase[binIndex], unwrappedPhase[binIndex+1]
	phaseParab := fitGeneral(pAlpha, pBeta, pGamma)

	// Differentiate both fitted parabolas at x=c (the unclamped vertex
	// offset) to get the second derivative of log-magnitude (u'') and
	// the first/second derivatives of phase (v', v''), per spec.md §4.3.
	// u' itself never feeds into p/alpha0/beta0 below.
	c := magParab.c
	u2 := (magParab.atVertex(c+derivEps) - 2*magParab.atVertex(c) + magParab.atVertex(c-derivEps)) / (derivEps * derivEps)
	v1 := (phaseParab.at(c+derivEps) - phaseParab.at(c-derivEps)) / (2 * derivEps)
	v2 := (phaseParab.at(c+derivEps) - 2*phaseParab.at(c) + phaseParab.at(c-derivEps)) / (derivEps * derivEps)

	denom := 2 * (u2*u2 + v2*v2)
	var p, alpha0, beta0 float64
	if math.Abs(denom) > 1e-20 {
		p = -u2 / denom
	}
	alpha0 = -2 * p * (v1 - math.Pi)
	if math.Abs(u2) > 1e-20 {
		beta0 = p * v2 / u2
	}
	alpha0 *= alpha0ScaleFactor
	beta0 *= beta0ScaleFactor

	return Refined{
		BinOffset: binOffset,
		LogMagn:   refinedLogMagn,
		Alpha0:    alpha0,
		Beta0:     beta0,
	}
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
