// Package config provides configuration loading and access for the estimator.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all estimator configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Aero      AeroConfig      `yaml:"aero"`
	Wind      WindConfig      `yaml:"wind"`
	Scene     SceneConfig     `yaml:"scene"`
	Cloth     ClothConfig     `yaml:"cloth"`
	Polar     PolarConfig     `yaml:"polar"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// AeroConfig holds the slice-sweep tuning constants.
type AeroConfig struct {
	TexSize         int     `yaml:"tex_size"`         // Grid resolution per axis, multiple of 4
	SliceCount      int     `yaml:"slice_count"`      // Slices per sweep
	CapacityDivisor int     `yaml:"capacity_divisor"` // maxGeoPixels = tex_size^2 / this
	MaxGeoPerAir    int     `yaml:"max_geo_per_air"`  // AirGeoMap entry width
	LiftC           float64 `yaml:"lift_c"`
	DragC           float64 `yaml:"drag_c"`
	TurbulenceDist  float64 `yaml:"turbulence_dist"`  // Backforce band below, turbulence band above
	MaxSearchDist   float64 `yaml:"max_search_dist"`  // Air/geo association radius
	WindShadDist    float64 `yaml:"wind_shad_dist"`   // Distance a wind shadow persists downstream
	BackforceC      float64 `yaml:"backforce_c"`      // Repulsion strength, fraction of wind speed
	Flowback        float64 `yaml:"flowback"`         // Lateral velocity decay per unit distance
	InitVelC        float64 `yaml:"init_vel_c"`       // Spawn velocity, fraction of wind speed
	TurbulenceDecay float64 `yaml:"turbulence_decay"` // Turbulence loss per unit distance
	AirDensity      float64 `yaml:"air_density"`
}

// WindConfig holds the windframe and free-stream parameters.
type WindConfig struct {
	FrameWidth float64 `yaml:"frame_width"`
	FrameDepth float64 `yaml:"frame_depth"`
	Speed      float64 `yaml:"speed"`

	Direction [3]float64 `yaml:"direction"` // World-space free stream
	Up        [3]float64 `yaml:"up"`        // World-space lift reference
}

// SceneConfig describes the demo object placed in the windframe.
type SceneConfig struct {
	Shape          string  `yaml:"shape"` // plate, sphere, cylinder, wing, cloth
	Span           float64 `yaml:"span"`
	Chord          float64 `yaml:"chord"`
	Thickness      float64 `yaml:"thickness"`
	Radius         float64 `yaml:"radius"`
	AngleOfAttack  float64 `yaml:"angle_of_attack"` // Degrees, nose up positive
	Yaw            float64 `yaml:"yaw"`             // Degrees
	FlapChord      float64 `yaml:"flap_chord"`      // 0 = no control surface
	FlapDeflection float64 `yaml:"flap_deflection"` // Degrees, trailing edge down positive
	FlapRate       float64 `yaml:"flap_rate"`       // Degrees per sweep when animating
}

// ClothConfig holds the deformable sheet parameters.
type ClothConfig struct {
	Cols       int     `yaml:"cols"`
	Rows       int     `yaml:"rows"`
	Width      float64 `yaml:"width"`
	Height     float64 `yaml:"height"`
	Iterations int     `yaml:"iterations"` // Constraint relaxation passes per step
	Gravity    float64 `yaml:"gravity"`
	Damping    float64 `yaml:"damping"`
	Mass       float64 `yaml:"mass"` // Per vertex
	DT         float64 `yaml:"dt"`
}

// PolarConfig holds the angle-of-attack sweep range for polar runs.
type PolarConfig struct {
	MinAngle  float64 `yaml:"min_angle"`
	MaxAngle  float64 `yaml:"max_angle"`
	StepAngle float64 `yaml:"step_angle"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow   int `yaml:"perf_window"`   // Slices averaged by the perf collector
	SweepHistory int `yaml:"sweep_history"` // Sweeps retained for statistics
	LogEvery     int `yaml:"log_every"`     // Log sweep stats every N sweeps (headless)
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PixelSize    float32 // Wind.FrameWidth / Aero.TexSize
	SliceSize    float32 // Wind.FrameDepth / Aero.SliceCount
	DT           float32 // SliceSize / Wind.Speed
	MaxGeoPixels int     // TexSize^2 / CapacityDivisor
	MaxAirPixels int     // Same bound as MaxGeoPixels
	QuarterSize  int     // Diffusion grid resolution
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}

// ComputeDerived recalculates values derived from the loaded config.
// Call it again after mutating fields in place.
func (c *Config) ComputeDerived() {
	if c.Aero.CapacityDivisor < 1 {
		c.Aero.CapacityDivisor = 1
	}
	if c.Aero.MaxGeoPerAir < 1 {
		c.Aero.MaxGeoPerAir = 1
	}

	d := &c.Derived
	d.PixelSize = 0
	if c.Aero.TexSize > 0 {
		d.PixelSize = float32(c.Wind.FrameWidth / float64(c.Aero.TexSize))
	}
	d.SliceSize = 0
	if c.Aero.SliceCount > 0 {
		d.SliceSize = float32(c.Wind.FrameDepth / float64(c.Aero.SliceCount))
	}
	d.DT = 0
	if c.Wind.Speed > 0 {
		d.DT = d.SliceSize / float32(c.Wind.Speed)
	}
	d.MaxGeoPixels = c.Aero.TexSize * c.Aero.TexSize / c.Aero.CapacityDivisor
	d.MaxAirPixels = d.MaxGeoPixels
	d.QuarterSize = c.Aero.TexSize / 4
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
