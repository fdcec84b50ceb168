package main

import (
	"io"
	"net/http"

	"github.com/voicelab/spectralcore/internal/config"
	"github.com/voicelab/spectralcore/internal/pipeline"
	"github.com/voicelab/spectralcore/internal/scale"
	"github.com/voicelab/spectralcore/internal/wav"
)

// leadingSegment returns the first n samples of each channel, capped
// per-channel in case any channel is shorter than n.
func leadingSegment(channels [][]float64, n int) [][]float64 {
	out := make([][]float64, len(channels))
	for i, ch := range channels {
		end := n
		if end > len(ch) {
			end = len(ch)
		}
		out[i] = ch[:end]
	}
	return out
}

type server struct {
	cfg config.Config
}

func newServer(cfg config.Config) *server {
	return &server{cfg: cfg}
}

// corsMiddleware adds CORS headers so a browser-based front end on a
// different origin can call this backend, carried over from the
// teacher's server.go unchanged.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleDenoise handles POST /denoise: a multipart form with a "file"
// field containing a WAV file, run fully through the pipeline
// (noise-profile learning on the first NoiseLearnFrames, then
// denoise+air+transient processing), returned as a WAV response.
func (s *server) handleDenoise(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	maxUpload := int64(s.cfg.Server.MaxUploadMB) << 20
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		pipeline.Logger.Error("failed to parse form", "err", err)
		http.Error(w, "failed to parse upload", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		pipeline.Logger.Error("no file in request", "err", err)
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		pipeline.Logger.Error("failed to read file", "err", err)
		http.Error(w, "failed to read file", http.StatusInternalServerError)
		return
	}

	channels, header, err := wav.Read(data)
	if err != nil {
		pipeline.Logger.Error("invalid WAV", "err", err)
		http.Error(w, "invalid WAV file: "+err.Error(), http.StatusBadRequest)
		return
	}
	sampleRate := header.SampleRate

	pipeline.Logger.Info("received upload",
		"channels", header.NumChannels, "samples", len(channels[0]), "sampleRate", sampleRate,
		"seconds", float64(len(channels[0]))/float64(sampleRate))

	pc := s.cfg.Pipeline
	p, err := pipeline.New(float64(sampleRate), pc.FFTSize, pc.Overlap, header.NumChannels)
	if err != nil {
		pipeline.Logger.Error("failed to build pipeline", "err", err)
		http.Error(w, "failed to configure pipeline", http.StatusInternalServerError)
		return
	}
	p.SetDenoiseThreshold(pc.DenoiseThreshold)
	p.SetAirMix(pc.AirMix)
	p.SetTransientSoftHard(pc.TransientSoftHard)

	if axis, err := scale.ParseVariant(pc.FreqAxis); err != nil {
		pipeline.Logger.Warn("invalid freqAxis, using linear", "value", pc.FreqAxis, "err", err)
	} else {
		p.SetFreqAxis(axis)
	}

	hop := p.FFTSize / p.Overlap
	learnSamples := pc.NoiseLearnFrames * hop

	ctx := r.Context()

	p.SetLearningNoise(true)
	if _, err := p.ProcessChannels(ctx, leadingSegment(channels, learnSamples)); err != nil {
		pipeline.Logger.Error("noise-profile learning pass failed", "err", err)
		http.Error(w, "failed to process audio", http.StatusInternalServerError)
		return
	}
	p.SetLearningNoise(false)

	cleaned, err := p.ProcessChannels(ctx, channels)
	if err != nil {
		pipeline.Logger.Error("denoise pass failed", "err", err)
		http.Error(w, "failed to process audio", http.StatusInternalServerError)
		return
	}
	p.PublishNoiseBands()

	result, err := wav.Write(cleaned, sampleRate)
	if err != nil {
		pipeline.Logger.Error("failed to encode result", "err", err)
		http.Error(w, "failed to encode result", http.StatusInternalServerError)
		return
	}

	pipeline.Logger.Info("returning cleaned audio", "bytes", len(result))

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", "attachment; filename=\"cleaned.wav\"")
	w.Write(result)
}
