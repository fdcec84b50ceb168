// Package pipeline wires the overlap-add engine together with the
// denoiser, air, and transient-shaper processors into a single
// per-channel audio path, and fans that path out across channels with
// golang.org/x/sync/errgroup — mirroring spec.md's concurrency model
// where each channel's processBlock is independent within a block but
// never parallelized across blocks.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/voicelab/spectralcore/internal/air"
	"github.com/voicelab/spectralcore/internal/denoiser"
	"github.com/voicelab/spectralcore/internal/metrics"
	"github.com/voicelab/spectralcore/internal/overlapadd"
	"github.com/voicelab/spectralcore/internal/scale"
	"github.com/voicelab/spectralcore/internal/transient"
)

// noiseBandCount is the number of Mel bands the noise profile is
// projected onto for the noise_band_energy gauge.
const noiseBandCount = 16

// Logger is the package-level structured logger, grounded on the
// pack's charmbracelet/log usage. Session/pipeline-level events log
// here; nothing on the per-frame hot path does.
var Logger = charmlog.New(os.Stderr)

// Channel wraps one mono audio path: an overlap-add engine with the
// denoiser, air, and transient processors attached.
type Channel struct {
	engine     *overlapadd.Engine
	denoiser   *denoiser.Processor
	air        *air.Processor
	transient  *transient.Processor
	filterBank *scale.FilterBank

	mu sync.Mutex // guards UI-facing reads (noise profile, partial count)
}

// Pipeline manages one Channel per audio channel (mono = 1, stereo = 2).
type Pipeline struct {
	SampleRate float64
	FFTSize    int
	Overlap    int

	channels []*Channel
}

// New constructs a Pipeline for numChannels channels.
func New(sampleRate float64, fftSize, overlap, numChannels int) (*Pipeline, error) {
	if numChannels < 1 {
		return nil, fmt.Errorf("pipeline: numChannels must be >= 1, got %d", numChannels)
	}

	p := &Pipeline{SampleRate: sampleRate, FFTSize: fftSize, Overlap: overlap}
	for i := 0; i < numChannels; i++ {
		ch, err := newChannel(sampleRate, fftSize, overlap)
		if err != nil {
			return nil, fmt.Errorf("pipeline: channel %d: %w", i, err)
		}
		p.channels = append(p.channels, ch)
	}
	return p, nil
}

func newChannel(sampleRate float64, fftSize, overlap int) (*Channel, error) {
	engine, err := overlapadd.New(fftSize, overlap)
	if err != nil {
		return nil, err
	}

	halfSize := fftSize/2 + 1
	d := denoiser.New(halfSize)
	a := air.New(halfSize, overlap, sampleRate)
	t := transient.New(sampleRate)
	fb := scale.NewFilterBank(noiseBandCount, halfSize, sampleRate, 20.0, sampleRate/2.0)

	engine.AddProcessor(d)
	engine.AddProcessor(a)
	engine.AddProcessor(t)

	return &Channel{engine: engine, denoiser: d, air: a, transient: t, filterBank: fb}, nil
}

// NumChannels returns the number of channels this pipeline was built for.
func (p *Pipeline) NumChannels() int { return len(p.channels) }

// Latency returns the pipeline's total reported latency in samples:
// the overlap-add engine's structural latency plus the denoiser's own
// history latency (channel 0). The air processor's soft-masking history
// is not added.
func (p *Pipeline) Latency() int {
	if len(p.channels) == 0 {
		return 0
	}
	ch := p.channels[0]
	extra := ch.denoiser.Latency(ch.engine.Hop())
	return ch.engine.Latency() + extra
}

// ProcessMono runs a single-channel block through channel 0.
func (p *Pipeline) ProcessMono(input []float64) []float64 {
	return p.channels[0].process(input)
}

// ProcessChannels runs one block per channel concurrently via
// errgroup, returning one output slice per channel in input order.
func (p *Pipeline) ProcessChannels(ctx context.Context, inputs [][]float64) ([][]float64, error) {
	if len(inputs) != len(p.channels) {
		return nil, fmt.Errorf("pipeline: expected %d channels, got %d", len(p.channels), len(inputs))
	}

	outputs := make([][]float64, len(inputs))
	g, _ := errgroup.WithContext(ctx)
	for i := range inputs {
		i := i
		g.Go(func() error {
			outputs[i] = p.channels[i].process(inputs[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

func (c *Channel) process(input []float64) []float64 {
	start := time.Now()
	out := c.engine.ProcessBlock(input)
	metrics.ProcessingSeconds.WithLabelValues("channel").Observe(time.Since(start).Seconds())
	metrics.FramesProcessed.WithLabelValues("channel").Add(float64(len(input)) / float64(c.engine.Hop()))
	return out
}

// SetLearningNoise toggles noise-profile accumulation on every
// channel, guarded by each channel's mutex since the noise profile is
// also read by the metrics/visualization path.
func (p *Pipeline) SetLearningNoise(on bool) {
	for _, ch := range p.channels {
		ch.mu.Lock()
		ch.denoiser.SetLearning(on)
		ch.mu.Unlock()
	}
	if on {
		metrics.NoiseProfileUpdates.Inc()
	}
}

// NoiseProfile returns a snapshot of the learned noise profile for
// channel 0, safe to call concurrently with processing.
func (p *Pipeline) NoiseProfile() []float64 {
	ch := p.channels[0]
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.denoiser.NoiseProfile()
}

// NoiseBandEnergies projects channel 0's learned noise profile onto
// its Mel filterbank, returning one energy value per band.
func (p *Pipeline) NoiseBandEnergies() []float64 {
	ch := p.channels[0]
	ch.mu.Lock()
	profile := ch.denoiser.NoiseProfile()
	fb := ch.filterBank
	ch.mu.Unlock()
	return fb.Apply(profile)
}

// PublishNoiseBands pushes NoiseBandEnergies into the
// metrics.NoiseBandEnergy gauge, for a caller to invoke after a
// processing pass ahead of a Prometheus scrape.
func (p *Pipeline) PublishNoiseBands() {
	for i, e := range p.NoiseBandEnergies() {
		metrics.NoiseBandEnergy.WithLabelValues(strconv.Itoa(i)).Set(e)
	}
}

// SetDenoiseThreshold sets channel 0's (and, for symmetry, every
// channel's) spectral subtraction threshold.
func (p *Pipeline) SetDenoiseThreshold(t float64) {
	for _, ch := range p.channels {
		ch.denoiser.SetThreshold(t)
	}
}

// SetAirMix sets every channel's harmonic/noise mix.
func (p *Pipeline) SetAirMix(mix float64) {
	for _, ch := range p.channels {
		ch.air.SetMix(mix)
	}
}

// SetTransientSoftHard sets every channel's transient shaping amount.
func (p *Pipeline) SetTransientSoftHard(v float64) {
	for _, ch := range p.channels {
		ch.transient.SetSoftHard(v)
	}
}

// SetFreqAxis reconfigures every channel's AirProcessor frequency-axis
// remap (spec.md §4.4.1 step 4 / §"Polymorphism over scale types").
func (p *Pipeline) SetFreqAxis(variant scale.Variant) {
	for _, ch := range p.channels {
		ch.air.SetFreqAxis(variant)
	}
}

// Reset clears every channel's internal state for a cold restart.
func (p *Pipeline) Reset() {
	for _, ch := range p.channels {
		ch.engine.Reset()
	}
}
