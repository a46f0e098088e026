// Package config loads the overlay configuration file.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"glassnote/internal/state"
)

// Config is the overlay configuration.
type Config struct {
	Style   StyleConfig   `toml:"style"`
	Stroke  StrokeConfig  `toml:"stroke"`
	Control ControlConfig `toml:"control"`
	Overlay OverlayConfig `toml:"overlay"`
}

// StyleConfig holds the palette and stroke widths.
type StyleConfig struct {
	// Colors are the five palette slots as RRGGBB or RRGGBBAA hex.
	Colors   []string `toml:"colors"`
	Width    float64  `toml:"width"`
	MinWidth float64  `toml:"min_width"`
	MaxWidth float64  `toml:"max_width"`

	BackgroundActive   string `toml:"background_active"`
	BackgroundInactive string `toml:"background_inactive"`

	// InactiveAlpha scales stroke opacity while the overlay is hidden.
	InactiveAlpha float64 `toml:"inactive_alpha"`
}

// StrokeConfig selects and tunes the simplification algorithm.
type StrokeConfig struct {
	// Algorithm is "distance" or "angle".
	Algorithm string  `toml:"algorithm"`
	Threshold float64 `toml:"threshold"`
	// AngleThreshold is in degrees.
	AngleThreshold  float64 `toml:"angle_threshold"`
	MaxPoints       int     `toml:"max_points"`
	InitialCapacity int     `toml:"initial_capacity"`
}

// ControlConfig tunes the control plane.
type ControlConfig struct {
	RequestTimeout Duration `toml:"request_timeout"`
}

// OverlayConfig tunes the layer surface.
type OverlayConfig struct {
	Namespace   string `toml:"namespace"`
	StartActive bool   `toml:"start_active"`
}

// Duration is a time.Duration written as a Go duration string ("2s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

const (
	AlgorithmDistance = "distance"
	AlgorithmAngle    = "angle"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Style: StyleConfig{
			Colors:             []string{"d20f39", "fe640b", "df8e1d", "40a02b", "179299"},
			Width:              3,
			MinWidth:           1,
			MaxWidth:           20,
			BackgroundActive:   "00000044",
			BackgroundInactive: "00000000",
			InactiveAlpha:      0.3,
		},
		Stroke: StrokeConfig{
			Algorithm:       AlgorithmDistance,
			Threshold:       state.DefaultThreshold,
			AngleThreshold:  10,
			MaxPoints:       state.DefaultMaxPoints,
			InitialCapacity: state.DefaultInitialCapacity,
		},
		Control: ControlConfig{
			RequestTimeout: Duration{2 * time.Second},
		},
		Overlay: OverlayConfig{
			Namespace:   "glassnote",
			StartActive: true,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/glassnote/config.toml, falling back
// to ~/.config.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "glassnote", "config.toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first inconsistent value.
func (c *Config) Validate() error {
	s := c.Style
	if len(s.Colors) != 5 {
		return fmt.Errorf("style.colors: want 5 colors, got %d", len(s.Colors))
	}
	for i, hex := range s.Colors {
		if _, err := ParseColor(hex); err != nil {
			return fmt.Errorf("style.colors[%d]: %w", i, err)
		}
	}
	for name, hex := range map[string]string{
		"style.background_active":   s.BackgroundActive,
		"style.background_inactive": s.BackgroundInactive,
	} {
		if _, err := ParseColor(hex); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if s.MinWidth <= 0 || s.MaxWidth < s.MinWidth {
		return fmt.Errorf("style: invalid width range [%g, %g]", s.MinWidth, s.MaxWidth)
	}
	if s.Width < s.MinWidth || s.Width > s.MaxWidth {
		return fmt.Errorf("style.width: %g outside [%g, %g]", s.Width, s.MinWidth, s.MaxWidth)
	}
	if s.InactiveAlpha < 0 || s.InactiveAlpha > 1 {
		return fmt.Errorf("style.inactive_alpha: %g outside [0, 1]", s.InactiveAlpha)
	}

	k := c.Stroke
	switch k.Algorithm {
	case AlgorithmDistance, AlgorithmAngle:
	default:
		return fmt.Errorf("stroke.algorithm: unknown %q", k.Algorithm)
	}
	if k.MaxPoints < 2 {
		return fmt.Errorf("stroke.max_points: %d is below 2", k.MaxPoints)
	}
	if k.InitialCapacity < 1 || k.InitialCapacity > k.MaxPoints {
		return fmt.Errorf("stroke.initial_capacity: %d outside [1, %d]", k.InitialCapacity, k.MaxPoints)
	}

	if c.Control.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("control.request_timeout: must be positive")
	}
	if c.Overlay.Namespace == "" {
		return fmt.Errorf("overlay.namespace: empty")
	}
	return nil
}

// StrokeOptions builds the options new strokes are created with.
func (c *Config) StrokeOptions() state.StrokeOptions {
	var simp state.Simplifier = state.DistanceSimplifier{Threshold: c.Stroke.Threshold}
	if c.Stroke.Algorithm == AlgorithmAngle {
		simp = state.AngleSimplifier{Threshold: c.Stroke.AngleThreshold * math.Pi / 180}
	}
	return state.StrokeOptions{
		InitialCapacity: c.Stroke.InitialCapacity,
		MaxPoints:       c.Stroke.MaxPoints,
		Simplifier:      simp,
	}
}

// Palette returns the parsed palette. Call after Validate.
func (c *Config) Palette() []uint32 {
	out := make([]uint32, len(c.Style.Colors))
	for i, hex := range c.Style.Colors {
		out[i], _ = ParseColor(hex)
	}
	return out
}

// ParseColor parses RRGGBB or RRGGBBAA hex, with an optional leading '#',
// into 0xRRGGBBAA. RRGGBB is opaque.
func ParseColor(s string) (uint32, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return 0, fmt.Errorf("color %q: want RRGGBB or RRGGBBAA", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return uint32(v), nil
}
