// Command spectralserver runs the HTTP front door for the denoiser/air
// pipeline, adapted from the teacher's main.go/server.go: the same
// multipart-upload-in, WAV-out shape, now backed by the full spectral
// pipeline instead of a single Denoise() call, configured via pflag
// flags and an optional YAML config file, with Prometheus metrics on a
// side port.
package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/voicelab/spectralcore/internal/config"
	"github.com/voicelab/spectralcore/internal/metrics"
	"github.com/voicelab/spectralcore/internal/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (optional)")
	port := flag.Int("port", 0, "server port (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			pipeline.Logger.Fatal("failed to load config", "err", err)
		}
		cfg = loaded
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	reg := prometheus.NewRegistry()
	if err := metrics.Register(reg); err != nil {
		pipeline.Logger.Fatal("failed to register metrics", "err", err)
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		pipeline.Logger.Info("metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			pipeline.Logger.Error("metrics server stopped", "err", err)
		}
	}()

	srv := newServer(cfg)

	mux := http.NewServeMux()
	mux.HandleFunc("/denoise", srv.handleDenoise)
	mux.HandleFunc("/healthz", srv.handleHealthz)

	handler := corsMiddleware(mux)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	pipeline.Logger.Info("spectralcore server listening", "addr", addr)
	pipeline.Logger.Fatal("server stopped", "err", http.ListenAndServe(addr, handler))
}
