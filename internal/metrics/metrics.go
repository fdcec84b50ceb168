// Package metrics exposes Prometheus instrumentation for the
// processing core, grounded on madpsy-ka9q_ubersdr's use of
// github.com/prometheus/client_golang for its collector daemon. This
// replaces the original plugin's GUI-polling visualization path
// (noise-profile curve, partial count) with a headless scrape target
// an operator can graph instead of a plugin editor drawing it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// FramesProcessed counts FFT frames processed per channel/stage.
	FramesProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spectralcore",
		Name:      "frames_processed_total",
		Help:      "Number of analysis frames processed.",
	}, []string{"stage"})

	// ProcessingSeconds observes the wall-clock time spent inside one
	// processBlock call.
	ProcessingSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "spectralcore",
		Name:      "processing_seconds",
		Help:      "Wall-clock time spent processing one block.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage"})

	// PartialsAlive tracks the number of alive partials the tracker is
	// currently following.
	PartialsAlive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "spectralcore",
		Name:      "partials_alive",
		Help:      "Number of partials currently in the Alive state.",
	})

	// NoiseProfileUpdates counts how many times noise-profile learning
	// has been switched on; it does not count learned frames.
	NoiseProfileUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "spectralcore",
		Name:      "noise_profile_updated_total",
		Help:      "Number of times noise-profile learning was switched on.",
	})

	// NoiseBandEnergy is the learned noise profile projected onto a
	// Mel filterbank, one gauge per band — the headless stand-in for
	// the original's noise-profile curve drawn in the plugin editor.
	NoiseBandEnergy = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "spectralcore",
		Name:      "noise_band_energy",
		Help:      "Learned noise profile energy per Mel band.",
	}, []string{"band"})
)

// Register registers all collectors with reg. Call once at startup.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		FramesProcessed, ProcessingSeconds, PartialsAlive, NoiseProfileUpdates, NoiseBandEnergy,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
