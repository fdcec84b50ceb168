// Package overlapadd implements the streaming overlap-add analysis /
// resynthesis engine every spectral processor in this module is built
// on top of. It is grounded on the original plugin's OverlapAdd.cpp:
// COLA-normalized analysis/synthesis windows, a circular input history,
// a shift-style output accumulator, and an ordered list of FFT-domain
// and sample-domain processor callbacks run once per hop.
package overlapadd

import (
	"fmt"

	"github.com/voicelab/spectralcore/internal/fftengine"
	"github.com/voicelab/spectralcore/internal/ring"
	"github.com/voicelab/spectralcore/internal/window"
)

// Processor is implemented by every FFT-domain or sample-domain stage
// that plugs into an OverlapAdd engine. Stages that don't use one of
// the two hooks embed NopProcessor.
type Processor interface {
	// ProcessFFT mutates the half spectrum (length fftSize/2+1) of the
	// current analysis frame in place.
	ProcessFFT(spectrum []complex128)
	// ProcessSamples mutates the resynthesized time-domain frame
	// (length fftSize) in place, after ProcessFFT and inverse FFT but
	// before overlap-add summation.
	ProcessSamples(samples []float64)
}

// NopProcessor can be embedded by processors that only implement one
// of ProcessFFT/ProcessSamples.
type NopProcessor struct{}

func (NopProcessor) ProcessFFT(spectrum []complex128) {}
func (NopProcessor) ProcessSamples(samples []float64) {}

// Engine runs the streaming overlap-add loop.
type Engine struct {
	fftSize int
	overlap int
	hop     int

	anaWindow []float64
	synWindow []float64
	anaCoeff  float64
	synCoeff  float64

	history  *ring.Buffer[float64]
	pending  []float64 // input samples not yet consumed into a hop
	outAcc   []float64 // resynthesis accumulator, length fftSize
	outQueue []float64 // reconstructed output not yet drained

	processors []Processor

	frame    []float64 // scratch: windowed analysis frame
	resynth  []float64 // scratch: resynthesized time-domain frame
	warmedUp bool
}

// New constructs an Engine for the given FFT size and overlap factor
// (overlap must evenly divide fftSize). hop = fftSize/overlap.
func New(fftSize, overlap int) (*Engine, error) {
	if fftSize <= 0 || overlap <= 0 || fftSize%overlap != 0 {
		return nil, fmt.Errorf("overlapadd: fftSize=%d must be a positive multiple of overlap=%d", fftSize, overlap)
	}
	e := &Engine{
		fftSize: fftSize,
		overlap: overlap,
		hop:     fftSize / overlap,
		history: ring.NewBuffer[float64](fftSize),
		outAcc:  make([]float64, fftSize),
		frame:   make([]float64, fftSize),
		resynth: make([]float64, fftSize),
	}
	e.makeWindows()
	e.resetOutputQueue()
	return e, nil
}

// resetOutputQueue (re)seeds the output queue with hop-1 samples of
// leading silence. Every completed hop appends exactly `hop` samples to
// this queue (see Feed), but a ProcessBlock call can be asked to drain
// an arbitrary, non-hop-aligned count; the preload guarantees the queue
// never runs dry when draining exactly as many samples as were fed,
// regardless of how input is chunked across calls — for any cumulative
// sample count T, floor(T/hop)*hop + (hop-1) >= T always holds. The
// cost is up to hop-1 extra samples of latency, matching spec.md §6's
// `blockSize < hop ? hop - blockSize : 0` term at its worst case.
func (e *Engine) resetOutputQueue() {
	e.outQueue = make([]float64, e.hop-1)
}

// makeWindows builds the COLA-normalized analysis/synthesis windows:
// a raw Hann window divided by the max of the sum of `overlap` copies
// of itself shifted by hop, exactly as OverlapAdd::makeWindows does.
func (e *Engine) makeWindows() {
	raw := window.Hann(e.fftSize)

	combined := make([]float64, e.fftSize)
	for k := 0; k < e.overlap; k++ {
		shift := k * e.hop
		for i, v := range raw {
			combined[(i+shift)%e.fftSize] += v
		}
	}
	maxV := 0.0
	for _, v := range combined {
		if v > maxV {
			maxV = v
		}
	}
	if maxV < 1e-15 {
		maxV = 1.0
	}

	e.anaWindow = make([]float64, e.fftSize)
	e.synWindow = make([]float64, e.fftSize)
	for i, v := range raw {
		e.anaWindow[i] = v / maxV
		e.synWindow[i] = v / maxV
	}

	e.anaCoeff = 2.0 * float64(e.overlap) / float64(e.fftSize)
	e.synCoeff = 1.0 / (e.anaCoeff * e.colaGain())
}

// colaGain returns the constant-overlap-add sum of analysis*synthesis
// window products across all `overlap` hop-shifted copies — the residual
// gain left over after both windows have been COLA-normalized on their
// own. Deriving the resynthesis coefficient from this sum (rather than
// an empirical fudge factor) guarantees unit round-trip gain for any
// fftSize/overlap pair whose window genuinely satisfies COLA, matching
// spec.md §4.1's "this is the COLA-normalization step and must not be
// skipped" and the §8 no-op-processor identity property.
func (e *Engine) colaGain() float64 {
	sum := make([]float64, e.fftSize)
	for k := 0; k < e.overlap; k++ {
		shift := k * e.hop
		for i := range e.anaWindow {
			sum[(i+shift)%e.fftSize] += e.anaWindow[i] * e.synWindow[i]
		}
	}
	gain := 0.0
	for _, v := range sum {
		if v > gain {
			gain = v
		}
	}
	if gain < 1e-15 {
		gain = 1.0
	}
	return gain
}

// AddProcessor appends a processor to the pipeline, run in the order added.
func (e *Engine) AddProcessor(p Processor) {
	e.processors = append(e.processors, p)
}

// FFTSize returns the configured transform size.
func (e *Engine) FFTSize() int { return e.fftSize }

// Hop returns the configured hop size (fftSize/overlap).
func (e *Engine) Hop() int { return e.hop }

// Latency returns the engine's own fixed structural output delay in
// samples: one full analysis window must fill before the first output
// hop is valid, plus the hop-1 samples of slack resetOutputQueue
// reserves so ProcessBlock can always drain exactly as many samples as
// it was fed (spec.md §6: `N - N/O + (blockSize < hop ? hop -
// blockSize : 0)`, evaluated at its worst case of a 1-sample block).
func (e *Engine) Latency() int {
	return e.fftSize - 1
}

// Reset clears all internal buffers and history, forcing a cold start.
func (e *Engine) Reset() {
	e.history.Reset()
	e.pending = e.pending[:0]
	for i := range e.outAcc {
		e.outAcc[i] = 0
	}
	e.warmedUp = false
	e.resetOutputQueue()
}

// Feed enqueues input samples and triggers zero or more internal hops,
// appending each hop's reconstructed output (silence while still
// warming up) to the output queue. Matches spec.md §4.1's `feed` half
// of the feed/drainOutput contract.
func (e *Engine) Feed(input []float64) {
	e.pending = append(e.pending, input...)

	for len(e.pending) >= e.hop {
		hopSamples := e.pending[:e.hop]
		e.pending = e.pending[e.hop:]

		for _, s := range hopSamples {
			e.history.Push(s)
		}

		if !e.history.Full() {
			// Still warming up: emit silence for this hop so callers
			// can track a constant sample-accurate latency.
			e.outQueue = append(e.outQueue, make([]float64, e.hop)...)
			continue
		}

		e.processOneFrame()

		emitted := make([]float64, e.hop)
		copy(emitted, e.outAcc[:e.hop])
		e.outQueue = append(e.outQueue, emitted...)

		copy(e.outAcc, e.outAcc[e.hop:])
		for i := e.fftSize - e.hop; i < e.fftSize; i++ {
			e.outAcc[i] = 0
		}
	}
}

// DrainOutput returns up to maxSamples of reconstructed output from the
// front of the queue, per spec.md §4.1's `drainOutput` contract — the
// caller decides how many samples to flush, and gets back fewer than
// maxSamples if the engine hasn't produced that much yet.
func (e *Engine) DrainOutput(maxSamples int) []float64 {
	n := maxSamples
	if n > len(e.outQueue) {
		n = len(e.outQueue)
	}
	out := append([]float64(nil), e.outQueue[:n]...)
	e.outQueue = e.outQueue[n:]
	return out
}

// ProcessBlock feeds an arbitrary-length block of input samples through
// the engine and returns exactly len(input) samples of reconstructed
// output, composing Feed and DrainOutput. Because resetOutputQueue
// preloads hop-1 samples of slack, this exact-length guarantee holds
// for any sequence of call sizes, including ones that never land on a
// hop boundary — satisfying spec.md §8's "the pipeline emits exactly B
// samples" invariant and spec.md §3's consumed-equals-produced count.
func (e *Engine) ProcessBlock(input []float64) []float64 {
	e.Feed(input)
	return e.DrainOutput(len(input))
}

func (e *Engine) processOneFrame() {
	for i := 0; i < e.fftSize; i++ {
		e.frame[i] = e.history.At(i) * e.anaWindow[i] * e.anaCoeff
	}

	spectrum := fftengine.Forward(e.frame)

	for _, p := range e.processors {
		p.ProcessFFT(spectrum)
	}

	td := fftengine.Inverse(spectrum, e.fftSize)
	for i := range td {
		e.resynth[i] = td[i] * e.synCoeff
	}

	for _, p := range e.processors {
		p.ProcessSamples(e.resynth)
	}

	for i := 0; i < e.fftSize; i++ {
		e.outAcc[i] += e.resynth[i] * e.synWindow[i]
	}
}
