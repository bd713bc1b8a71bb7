package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"blockscape.ai/internal/gen/region"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	LeafFraction   float64 `yaml:"leaf_fraction"`
	PaletteSize    int     `yaml:"palette_size"`
	MaxDepth       int     `yaml:"max_depth"`
	MiddleExtent   float64 `yaml:"middle_extent"`
	MaxAscentSteps int     `yaml:"max_ascent_steps"`

	FrameRateHz int     `yaml:"frame_rate_hz"`
	PanPeriodMs int     `yaml:"pan_period_ms"`
	CanvasWidth float64 `yaml:"canvas_width"`

	// ColorSchemes are palettes of CSS colors; every scheme needs at least
	// PaletteSize entries.
	ColorSchemes [][]string `yaml:"color_schemes"`

	RateLimits RateLimits `yaml:"rate_limits"`
}

type RateLimits struct {
	ViewportPerSec float64 `yaml:"viewport_per_sec"`
	ViewportBurst  int     `yaml:"viewport_burst"`
}

func Defaults() Tuning {
	eng := region.DefaultConfig()
	return Tuning{
		ProtocolVersion: "1.0",
		LeafFraction:    eng.LeafFraction,
		PaletteSize:     eng.PaletteSize,
		MaxDepth:        eng.MaxDepth,
		MiddleExtent:    eng.MiddleExtent,
		MaxAscentSteps:  eng.MaxAscentSteps,
		FrameRateHz:     30,
		PanPeriodMs:     20000,
		CanvasWidth:     800,
		ColorSchemes: [][]string{
			{"#f4f1de", "#e07a5f", "#3d405b", "#81b29a", "#f2cc8f"},
			{"#264653", "#2a9d8f", "#e9c46a", "#f4a261", "#e76f51"},
			{"#011627", "#fdfffc", "#2ec4b6", "#e71d36", "#ff9f1c"},
			{"#0b132b", "#1c2541", "#3a506b", "#5bc0be", "#6fffe9"},
		},
		RateLimits: RateLimits{
			ViewportPerSec: 60,
			ViewportBurst:  10,
		},
	}
}

// Load reads a tuning file. Keys missing from the file keep their defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) EngineConfig() region.Config {
	cfg := region.DefaultConfig()
	cfg.LeafFraction = t.LeafFraction
	cfg.PaletteSize = t.PaletteSize
	cfg.MaxDepth = t.MaxDepth
	cfg.MiddleExtent = t.MiddleExtent
	cfg.MaxAscentSteps = t.MaxAscentSteps
	return cfg
}

func (t Tuning) FrameInterval() time.Duration {
	if t.FrameRateHz <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(t.FrameRateHz)
}

func (t Tuning) PanPeriod() time.Duration {
	return time.Duration(t.PanPeriodMs) * time.Millisecond
}

func (t Tuning) Validate() error {
	if err := t.EngineConfig().Validate(); err != nil {
		return err
	}
	if t.FrameRateHz <= 0 || t.FrameRateHz > 240 {
		return fmt.Errorf("frame_rate_hz %d out of range (1..240)", t.FrameRateHz)
	}
	if t.PanPeriodMs <= 0 {
		return fmt.Errorf("pan_period_ms must be positive")
	}
	if t.CanvasWidth <= 0 {
		return fmt.Errorf("canvas_width must be positive")
	}
	if len(t.ColorSchemes) == 0 {
		return errors.New("color_schemes is empty")
	}
	for i, s := range t.ColorSchemes {
		if len(s) < t.PaletteSize {
			return fmt.Errorf("color_schemes[%d] has %d colors, palette_size is %d", i, len(s), t.PaletteSize)
		}
	}
	if t.RateLimits.ViewportPerSec <= 0 || t.RateLimits.ViewportBurst <= 0 {
		return errors.New("rate_limits.viewport_* must be positive")
	}
	return nil
}
