// Package config loads the JSON run configuration and merges CLI flag
// overrides on top of it.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"avatar-fitter/internal/region"
	"avatar-fitter/internal/shrinkwrap"
)

// Fitting holds the shrinkwrap parameters exposed to configuration. Zero
// values mean "use the built-in default".
type Fitting struct {
	Iterations           int     `json:"iterations"`
	StepSize             float64 `json:"step_size"`
	TargetOffset         float64 `json:"target_offset"`
	SampleRate           float64 `json:"sample_rate"`
	SmoothingStrength    float64 `json:"smoothing_strength"`
	FeatureAngleDeg      float64 `json:"feature_angle_deg"`
	PreserveOpenings     *bool   `json:"preserve_openings"`
	PushInteriorVertices *bool   `json:"push_interior_vertices"`
}

// Regions holds the tunable body-region detection thresholds. Zero values
// mean "use the built-in default".
type Regions struct {
	HunchedDelta    float64 `json:"hunched_delta"`
	ChestBias       float64 `json:"chest_bias"`
	TorsoBottomFrac float64 `json:"torso_bottom_frac"`
	FallbackTopFrac float64 `json:"fallback_top_frac"`
	TorsoWidthFrac  float64 `json:"torso_width_frac"`
	TorsoDepthFrac  float64 `json:"torso_depth_frac"`
}

// Config holds all configurable paths and run settings.
type Config struct {
	// Paths
	OutputDir string `json:"output_dir"`
	LogFile   string `json:"log_file"`

	// Pipeline settings
	Workers     int `json:"workers"`
	PreviewSize int `json:"preview_size"`
	Supersample int `json:"supersample"`

	Fitting Fitting `json:"fitting"`
	Regions Regions `json:"regions"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir  string
	LogFile    string
	Workers    int
	Iterations int
}

// Resolve merges flags over file values and fills remaining empty fields
// with defaults. CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.LogFile != "" {
		c.LogFile = flags.LogFile
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Iterations > 0 {
		c.Fitting.Iterations = flags.Iterations
	}

	if c.OutputDir == "" {
		c.OutputDir = "out"
	}
	if !filepath.IsAbs(c.OutputDir) {
		if cwd, err := os.Getwd(); err == nil {
			c.OutputDir = filepath.Join(cwd, c.OutputDir)
		}
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
}

// ShrinkwrapConfig overlays the configured fitting values on the built-in
// defaults.
func (c *Config) ShrinkwrapConfig() shrinkwrap.Config {
	out := shrinkwrap.DefaultConfig()
	f := c.Fitting
	if f.Iterations > 0 {
		out.Iterations = f.Iterations
	}
	if f.StepSize > 0 {
		out.StepSize = f.StepSize
	}
	if f.TargetOffset > 0 {
		out.TargetOffset = f.TargetOffset
	}
	if f.SampleRate > 0 {
		out.SampleRate = f.SampleRate
	}
	if f.SmoothingStrength > 0 {
		out.SmoothingStrength = f.SmoothingStrength
	}
	if f.FeatureAngleDeg > 0 {
		out.PreserveFeatures = true
		out.FeatureAngleThreshold = f.FeatureAngleDeg
	}
	if f.PreserveOpenings != nil {
		out.PreserveOpenings = *f.PreserveOpenings
	}
	if f.PushInteriorVertices != nil {
		out.PushInteriorVertices = *f.PushInteriorVertices
	}
	return out
}

// RegionHeuristics overlays the configured detection thresholds on the
// built-in defaults.
func (c *Config) RegionHeuristics() region.Heuristics {
	out := region.DefaultHeuristics()
	r := c.Regions
	if r.HunchedDelta > 0 {
		out.HunchedDelta = r.HunchedDelta
	}
	if r.ChestBias > 0 {
		out.ChestBias = r.ChestBias
	}
	if r.TorsoBottomFrac > 0 {
		out.TorsoBottomFrac = r.TorsoBottomFrac
	}
	if r.FallbackTopFrac > 0 {
		out.FallbackTopFrac = r.FallbackTopFrac
	}
	if r.TorsoWidthFrac > 0 {
		out.TorsoWidthFrac = r.TorsoWidthFrac
	}
	if r.TorsoDepthFrac > 0 {
		out.TorsoDepthFrac = r.TorsoDepthFrac
	}
	return out
}
