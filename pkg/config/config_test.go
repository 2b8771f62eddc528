package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ardnew/usbsai/audio"
	"github.com/ardnew/usbsai/pkg"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}

	ac, err := cfg.AudioConfig()
	if err != nil {
		t.Fatalf("AudioConfig() error = %v", err)
	}
	if ac.Capacity != audio.DefaultCapacity || ac.ChunkSize != audio.DefaultChunkSize {
		t.Errorf("AudioConfig() = %+v", ac)
	}
	if ac.Feedback != nil {
		t.Errorf("default feedback = %T, want nil (fixed)", ac.Feedback)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
stream:
  capacity: 8192
  chunk_size: 1024
  transmit_retries: 2
  feedback:
    mode: adaptive
    gain: 8
output:
  kind: wav
  path: /tmp/out.wav
  paced: false
source:
  path: in.wav
  skew_ppm: -250
  interval: 2ms
logging:
  level: debug
  json: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Stream.Capacity != 8192 || cfg.Stream.ChunkSize != 1024 {
		t.Errorf("stream = %+v", cfg.Stream)
	}
	if cfg.Output.Kind != OutputWAV || cfg.Output.Path != "/tmp/out.wav" || cfg.Output.Paced {
		t.Errorf("output = %+v", cfg.Output)
	}
	// Unset fields keep their defaults.
	if cfg.Output.Depth != 2 {
		t.Errorf("output depth = %d, want default 2", cfg.Output.Depth)
	}
	if cfg.Source.SkewPPM != -250 || cfg.Source.Interval != 2*time.Millisecond {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	ac, err := cfg.AudioConfig()
	if err != nil {
		t.Fatalf("AudioConfig() error = %v", err)
	}
	fb, ok := ac.Feedback.(audio.AdaptiveFeedback)
	if !ok {
		t.Fatalf("feedback = %T, want AdaptiveFeedback", ac.Feedback)
	}
	if fb.Gain != 8 || fb.Nominal != audio.DefaultFeedback {
		t.Errorf("feedback = %+v", fb)
	}
	if ac.TransmitRetries != 2 {
		t.Errorf("TransmitRetries = %d, want 2", ac.TransmitRetries)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}

	path := writeConfig(t, "stream: [unterminated")
	if _, err := Load(path); err == nil {
		t.Error("Load(malformed) should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"chunk not aligned", func(c *Config) { c.Stream.ChunkSize = 511 }},
		{"chunk exceeds capacity", func(c *Config) { c.Stream.ChunkSize = c.Stream.Capacity * 2 }},
		{"unknown feedback mode", func(c *Config) { c.Stream.Feedback.Mode = "pid" }},
		{"negative gain", func(c *Config) { c.Stream.Feedback.Gain = -1 }},
		{"unknown output", func(c *Config) { c.Output.Kind = "i2s" }},
		{"wav without path", func(c *Config) { c.Output.Kind = OutputWAV }},
		{"zero depth", func(c *Config) { c.Output.Depth = 0 }},
		{"excessive skew", func(c *Config) { c.Source.SkewPPM = 1_000_000 }},
		{"negative interval", func(c *Config) { c.Source.Interval = -time.Millisecond }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, pkg.ErrInvalidParameter) {
				t.Errorf("Validate() error = %v, want ErrInvalidParameter", err)
			}
		})
	}
}
