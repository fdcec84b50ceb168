// Package fftengine adapts github.com/mjibson/go-dsp/fft — the FFT
// library spec.md leaves as an external dependency — to the
// half-spectrum (N/2+1 complex bins) representation every processing
// stage in this module operates on. The teacher's own fft.go
// implemented a bare radix-2 Cooley-Tukey transform; that hand-rolled
// algorithm is replaced here by the pack's dedicated FFT library so the
// transform itself is no longer code this module owns.
package fftengine

import (
	"github.com/mjibson/go-dsp/fft"
)

// HalfSize returns the number of bins in a half spectrum for a
// transform of size n (n assumed even, as required by COLA-windowed
// overlap-add).
func HalfSize(n int) int {
	return n/2 + 1
}

// Forward runs a real-input FFT of frame (length n) and returns the
// first n/2+1 complex bins — the non-redundant half of the spectrum of
// a real signal.
func Forward(frame []float64) []complex128 {
	full := fft.FFTReal(frame)
	return full[:HalfSize(len(frame))]
}

// Inverse reconstructs the full N-point spectrum from a half spectrum
// via conjugate symmetry and runs the inverse FFT, returning the real
// part of the N-point time-domain result.
func Inverse(half []complex128, n int) []float64 {
	full := make([]complex128, n)
	copy(full, half)
	for k := len(half); k < n; k++ {
		full[k] = cmplxConj(full[n-k])
	}
	td := fft.IFFT(full)
	out := make([]float64, n)
	for i, c := range td {
		out[i] = real(c)
	}
	return out
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
