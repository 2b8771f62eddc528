// Package config loads the YAML configuration of the usb-audio bridge.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ardnew/usbsai/audio"
	"github.com/ardnew/usbsai/pkg"
	"github.com/ardnew/usbsai/source"
)

// Output kinds.
const (
	OutputDiscard = "discard"
	OutputWAV     = "wav"
	OutputFIFO    = "fifo"
	OutputOto     = "oto"
)

// Feedback modes.
const (
	FeedbackFixed    = "fixed"
	FeedbackAdaptive = "adaptive"
)

var (
	outputKinds   = []string{OutputDiscard, OutputWAV, OutputFIFO, OutputOto}
	feedbackModes = []string{FeedbackFixed, FeedbackAdaptive}
)

type Config struct {
	Stream  StreamConfig  `yaml:"stream"`
	Output  OutputConfig  `yaml:"output"`
	Source  SourceConfig  `yaml:"source"`
	Logging LoggingConfig `yaml:"logging"`
}

type StreamConfig struct {
	Capacity        int            `yaml:"capacity"`
	ChunkSize       int            `yaml:"chunk_size"`
	TransmitRetries int            `yaml:"transmit_retries"`
	Feedback        FeedbackConfig `yaml:"feedback"`
}

type FeedbackConfig struct {
	Mode         string  `yaml:"mode"`
	Target       int     `yaml:"target"`
	Gain         float64 `yaml:"gain"`
	MaxDeviation int     `yaml:"max_deviation"`
}

type OutputConfig struct {
	Kind  string `yaml:"kind"`
	Path  string `yaml:"path"`
	Depth int    `yaml:"depth"`
	Paced bool   `yaml:"paced"`
}

type SourceConfig struct {
	Path     string        `yaml:"path"`
	SkewPPM  int           `yaml:"skew_ppm"`
	Interval time.Duration `yaml:"interval"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() *Config {
	stream := audio.DefaultConfig()
	return &Config{
		Stream: StreamConfig{
			Capacity:        stream.Capacity,
			ChunkSize:       stream.ChunkSize,
			TransmitRetries: stream.TransmitRetries,
			Feedback:        FeedbackConfig{Mode: FeedbackFixed},
		},
		Output: OutputConfig{
			Kind:  OutputDiscard,
			Depth: 2,
			Paced: true,
		},
		Source: SourceConfig{
			Interval: source.DefaultInterval,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads the YAML file at path over the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pkg.LogDebug(pkg.ComponentConfig, "loaded config",
		"path", path,
		"output", cfg.Output.Kind)
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if _, err := c.AudioConfig(); err != nil {
		return err
	}

	if !slices.Contains(outputKinds, c.Output.Kind) {
		return fmt.Errorf("%w: output kind %q", pkg.ErrInvalidParameter, c.Output.Kind)
	}
	if c.Output.Kind == OutputWAV && c.Output.Path == "" {
		return fmt.Errorf("%w: wav output requires a path", pkg.ErrInvalidParameter)
	}
	if c.Output.Depth <= 0 {
		return fmt.Errorf("%w: output depth %d", pkg.ErrInvalidParameter, c.Output.Depth)
	}

	if c.Source.SkewPPM < -source.MaxSkewPPM || c.Source.SkewPPM > source.MaxSkewPPM {
		return fmt.Errorf("%w: skew %d ppm", pkg.ErrInvalidParameter, c.Source.SkewPPM)
	}
	if c.Source.Interval < 0 {
		return fmt.Errorf("%w: negative frame interval", pkg.ErrInvalidParameter)
	}

	if _, err := pkg.ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// AudioConfig returns the stream configuration.
func (c *Config) AudioConfig() (audio.Config, error) {
	fb := c.Stream.Feedback
	if !slices.Contains(feedbackModes, fb.Mode) {
		return audio.Config{}, fmt.Errorf("%w: feedback mode %q", pkg.ErrInvalidParameter, fb.Mode)
	}
	if fb.Target < 0 || fb.Gain < 0 || fb.MaxDeviation < 0 {
		return audio.Config{}, fmt.Errorf("%w: negative feedback parameter", pkg.ErrInvalidParameter)
	}

	cfg := audio.Config{
		Capacity:        c.Stream.Capacity,
		ChunkSize:       c.Stream.ChunkSize,
		TransmitRetries: c.Stream.TransmitRetries,
	}
	if fb.Mode == FeedbackAdaptive {
		cfg.Feedback = audio.AdaptiveFeedback{
			Nominal:      audio.DefaultFeedback,
			Target:       fb.Target,
			Gain:         fb.Gain,
			MaxDeviation: audio.Feedback(fb.MaxDeviation),
		}
	}

	if err := cfg.Validate(); err != nil {
		return audio.Config{}, err
	}
	return cfg, nil
}
