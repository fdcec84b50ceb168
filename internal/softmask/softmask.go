// Package softmask implements Wiener soft-masking with a centered
// rolling history, ported from the original plugin's
// WienerSoftMasking.cpp: a history of hard-masked "signal"/"noise"
// complex spectra is kept, their Hann-weighted variance (sigma^2) is
// estimated, and a soft mask s0/(s0+s1) is applied to the centered
// (delayed) history entry rather than the newest one, trading latency
// for a less jittery mask.
package softmask

import (
	"math"

	"github.com/voicelab/spectralcore/internal/ring"
	"github.com/voicelab/spectralcore/internal/window"
)

const eps = 1e-15

type historyLine struct {
	sum            []complex128
	masked0Square  []complex128
	masked1Square  []complex128
}

// WienerSoftMasking applies centered Wiener soft masking over a
// rolling history of spectra.
type WienerSoftMasking struct {
	bufferSize int
	overlap    int
	historySize int

	history *ring.Queue[historyLine]
	hann    []float64

	enabled bool
}

// New constructs a WienerSoftMasking with the given half-spectrum
// length (fftSize/2+1, from which Latency derives the hop), overlap
// factor, and history depth (in frames).
func New(bufferSize, overlap, historySize int) *WienerSoftMasking {
	return &WienerSoftMasking{
		bufferSize:  bufferSize,
		overlap:     overlap,
		historySize: historySize,
		history:     ring.NewQueue[historyLine](historySize),
		hann:        window.Hann(historySize),
		enabled:     true,
	}
}

// Reset clears the rolling history.
func (w *WienerSoftMasking) Reset() {
	w.history = ring.NewQueue[historyLine](w.historySize)
}

// SetHistorySize changes the history depth, resetting state.
func (w *WienerSoftMasking) SetHistorySize(size int) {
	w.historySize = size
	w.hann = window.Hann(size)
	w.Reset()
}

// SetProcessingEnabled toggles mask computation; when disabled, the
// history still advances (filled with zeros for the variance terms) so
// the centered read keeps working and latency stays constant.
func (w *WienerSoftMasking) SetProcessingEnabled(enabled bool) {
	w.enabled = enabled
}

// Latency returns the constant latency (in samples) introduced by
// reading from the centered history index instead of the newest frame:
// revIndex*hop, where revIndex = (historySize-1) - historySize/2.
func (w *WienerSoftMasking) Latency() int {
	hop := (w.bufferSize - 1) * 2 / w.overlap
	revIndex := (w.historySize - 1) - w.historySize/2
	return revIndex * hop
}

// ProcessCentered pushes sum (the current frame's full complex
// spectrum) and mask (a hard 0..1 mask splitting it into "signal" and
// "noise" components) into the rolling history, and returns:
//   - centered: the delayed sum at the centered history index,
//   - masked0: centered*softMask (signal path),
//   - masked1: centered - masked0 (noise path).
func (w *WienerSoftMasking) ProcessCentered(sum []complex128, mask []float64) (centered, masked0, masked1 []complex128) {
	n := len(sum)
	line := historyLine{
		sum:           append([]complex128(nil), sum...),
		masked0Square: make([]complex128, n),
		masked1Square: make([]complex128, n),
	}

	if w.enabled {
		for i := 0; i < n; i++ {
			m0 := sum[i] * complex(mask[i], 0)
			m1 := sum[i] - m0
			line.masked0Square[i] = squareConjugate(m0)
			line.masked1Square[i] = squareConjugate(m1)
		}
	}

	if w.history.Empty() {
		w.history.Clear(line)
	} else {
		w.history.PushPop(line)
	}

	if w.history.Empty() {
		return append([]complex128(nil), sum...), nil, nil
	}

	centerLine := w.history.Middle()
	centered = append([]complex128(nil), centerLine.sum...)

	if !w.enabled {
		return centered, nil, nil
	}

	sigma0, sigma1 := w.computeSigma2(n)

	softMask0 := make([]complex128, n)
	for i := 0; i < n; i++ {
		s0, s1 := sigma0[i], sigma1[i]
		csum := s0 + s1
		var maskVal complex128
		if math.Abs(real(csum)) > eps || math.Abs(imag(csum)) > eps {
			maskVal = s0 / csum
		}
		magn := cAbs(maskVal)
		if magn > 1.0 {
			maskVal *= complex(1.0/magn, 0)
		}
		softMask0[i] = maskVal
	}

	masked0 = make([]complex128, n)
	masked1 = make([]complex128, n)
	for i := 0; i < n; i++ {
		masked0[i] = centerLine.sum[i] * softMask0[i]
		masked1[i] = centerLine.sum[i] - masked0[i]
	}

	return centered, masked0, masked1
}

// computeSigma2 returns the Hann-weighted expectation of
// masked0Square/masked1Square across the whole history: the variance
// estimate the soft mask is built from.
func (w *WienerSoftMasking) computeSigma2(n int) (sigma0, sigma1 []complex128) {
	sigma0 = make([]complex128, n)
	sigma1 = make([]complex128, n)

	sumProba := 0.0
	for _, p := range w.hann {
		sumProba += p
	}
	sumProbaInv := 0.0
	if sumProba > eps {
		sumProbaInv = 1.0 / sumProba
	}

	depth := w.history.Len()
	for j := 0; j < depth; j++ {
		line := w.history.At(j)
		p := complex(0.0, 0.0)
		if j < len(w.hann) {
			p = complex(w.hann[j], 0)
		}
		for i := 0; i < n; i++ {
			sigma0[i] += p * line.masked0Square[i]
			sigma1[i] += p * line.masked1Square[i]
		}
	}

	if sumProba > eps {
		scale := complex(sumProbaInv, 0)
		for i := range sigma0 {
			sigma0[i] *= scale
			sigma1[i] *= scale
		}
	}
	return sigma0, sigma1
}

func squareConjugate(c complex128) complex128 {
	return c * complex(real(c), -imag(c))
}

func cAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}
