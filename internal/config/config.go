// Package config defines the module's recognized configuration, loaded
// from a YAML file via gopkg.in/yaml.v3, grounded on the pack's
// collector-style configs (madpsy-ka9q_ubersdr, doismellburning-samoyed).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level recognized configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// ServerConfig configures the HTTP front door.
type ServerConfig struct {
	Port         int    `yaml:"port"`
	MaxUploadMB  int    `yaml:"maxUploadMB"`
	MetricsPort  int    `yaml:"metricsPort"`
}

// PipelineConfig configures the DSP pipeline's default parameters.
type PipelineConfig struct {
	FFTSize          int     `yaml:"fftSize"`
	Overlap          int     `yaml:"overlap"`
	NoiseLearnFrames int     `yaml:"noiseLearnFrames"`
	DenoiseThreshold float64 `yaml:"denoiseThreshold"`
	ResidualDenoise  bool    `yaml:"residualDenoise"`
	ResidualAmount   float64 `yaml:"residualAmount"`
	AirMix           float64 `yaml:"airMix"`
	AirSoftMasking   bool    `yaml:"airSoftMasking"`
	TransientSoftHard float64 `yaml:"transientSoftHard"`

	// FreqAxis selects the PartialTracker's frequency-axis remap: one
	// of "linear", "normalized", "db", "log", "log10", "logfactor",
	// "mel", "melfilter", "lowzoom", "lognonorm". Empty means linear.
	FreqAxis string `yaml:"freqAxis"`
}

// Default returns the module's documented defaults. FFTSize follows
// the original's nearestPowerOfTwo(sampleRate/23) rule of thumb for
// 44.1kHz audio.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:        8080,
			MaxUploadMB: 50,
			MetricsPort: 9090,
		},
		Pipeline: PipelineConfig{
			FFTSize:          2048,
			Overlap:          4,
			NoiseLearnFrames: 10,
			DenoiseThreshold: 0.5,
			ResidualDenoise:  false,
			ResidualAmount:   0.5,
			AirMix:           0.0,
			AirSoftMasking:   true,
			TransientSoftHard: 0.0,
			FreqAxis:         "linear",
		},
	}
}

// Load reads and parses a YAML configuration file, filling in defaults
// for any field the file doesn't set.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
