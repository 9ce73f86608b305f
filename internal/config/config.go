// Package config handles animsolve configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/crunchyroll/pkg/formats"
	"github.com/Faultbox/crunchyroll/pkg/solver"
)

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Validation errors.
var (
	ErrInvalidFormat  = errors.New("invalid output format")
	ErrMissingAsset   = errors.New("track has no asset path")
	ErrNegativeWeight = errors.New("track weight is negative")
	ErrInvalidFade    = errors.New("track fade times must lie in [0, 1]")
)

// Config holds all animsolve settings.
type Config struct {
	Rig     string               `yaml:"rig"`
	Root    formats.TransformDoc `yaml:"root"`
	Tracks  []TrackConfig        `yaml:"tracks"`
	Output  OutputConfig         `yaml:"output"`
	Logging LoggingConfig        `yaml:"logging"`
}

// TrackConfig is one playing track for the solve command.
type TrackConfig struct {
	Asset     string  `yaml:"asset"`
	Alpha     float32 `yaml:"alpha"`
	Priority  int     `yaml:"priority"`
	Weight    float32 `yaml:"weight"`
	StartFade float32 `yaml:"start_fade"`
	StopFade  float32 `yaml:"stop_fade"`
}

// DefaultTrack returns a full-weight track with fading disabled.
func DefaultTrack() TrackConfig {
	return TrackConfig{
		Weight:   1,
		StopFade: 1,
	}
}

// UnmarshalYAML fills fields missing from the document with DefaultTrack.
func (t *TrackConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain TrackConfig
	p := plain(DefaultTrack())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*t = TrackConfig(p)
	return nil
}

// Track returns the solver playback state for the track.
func (t TrackConfig) Track() solver.Track {
	return solver.Track{
		Alpha:         t.Alpha,
		Priority:      t.Priority,
		StartFadeTime: t.StartFade,
		StopFadeTime:  t.StopFade,
		Weight:        t.Weight,
	}
}

// OutputConfig controls how results are printed.
type OutputConfig struct {
	Format string `yaml:"format"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Rig: "rig.yaml",
		Output: OutputConfig{
			Format: FormatText,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings that cannot be fixed up with defaults.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}
	if _, err := c.Root.Transform(); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	for i, t := range c.Tracks {
		switch {
		case t.Asset == "":
			return fmt.Errorf("track %d: %w", i, ErrMissingAsset)
		case t.Weight < 0:
			return fmt.Errorf("track %d (%s): %w: %v", i, t.Asset, ErrNegativeWeight, t.Weight)
		case t.StartFade < 0 || t.StartFade > 1 || t.StopFade < 0 || t.StopFade > 1:
			return fmt.Errorf("track %d (%s): %w", i, t.Asset, ErrInvalidFade)
		}
	}
	return nil
}
