// Package tunnel runs repeated sweeps of one object and feeds their results
// to telemetry, with or without a window.
package tunnel

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/cloth"
	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/geometry"
	"github.com/pthm-cable/aerosweep/polar"
	"github.com/pthm-cable/aerosweep/scene"
	"github.com/pthm-cable/aerosweep/telemetry"
)

// Options configures a session.
type Options struct {
	OutputDir string // CSV, config and snapshot output (empty = disabled)
	LogStats  bool   // Log windowed sweep stats and bookmarks via slog
	Cloth     bool   // Start with the cloth sheet instead of the scene shape
	Animate   bool   // Move hinges between sweeps
	Workers   int    // Simulator pool size (0 = config/GOMAXPROCS)
}

// Session owns a simulator, the object it sweeps and the telemetry sinks.
type Session struct {
	cfg *config.Config

	sim   *aero.Simulator
	scene *scene.Scene
	cloth *cloth.Cloth
	mesh  *geometry.MeshSampler

	wind      aero.Wind
	model     mgl32.Mat4
	normal    mgl32.Mat3
	refArea   float64
	fallback  bool
	clothMode bool
	animate   bool

	// Telemetry
	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	detector  *telemetry.BookmarkDetector
	output    *telemetry.OutputManager
	logStats  bool

	// State
	sweep      int
	sweepStart time.Time
	last       telemetry.SweepRecord
	summary    telemetry.SweepStats
	cl, cd     float64
}

// New creates a session for cfg. A scene shape of "cloth" starts in cloth mode.
func New(cfg *config.Config, opts Options) (*Session, error) {
	p := aero.ParamsFromConfig(cfg)
	if opts.Workers > 0 {
		p.Workers = opts.Workers
	}
	sim, err := aero.New(p)
	if err != nil {
		return nil, fmt.Errorf("creating simulator: %w", err)
	}

	s := &Session{
		cfg:       cfg,
		sim:       sim,
		wind:      aero.WindFromConfig(cfg),
		animate:   opts.Animate,
		logStats:  opts.LogStats,
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector: telemetry.NewCollector(cfg.Telemetry.SweepHistory, cfg.Telemetry.LogEvery),
		detector:  telemetry.NewBookmarkDetector(cfg.Telemetry.SweepHistory),
	}
	sim.SetObserver(s.perf)

	clothOnly := cfg.Scene.Shape == "cloth"
	if clothOnly {
		s.scene = scene.New()
		s.scene.AngleOfAttack = float32(cfg.Scene.AngleOfAttack)
		s.scene.Yaw = float32(cfg.Scene.Yaw)
	} else if s.scene, err = scene.FromConfig(cfg.Scene); err != nil {
		sim.Close()
		return nil, err
	}

	if err := s.resetCloth(); err != nil {
		sim.Close()
		return nil, err
	}
	if err := s.SetCloth(opts.Cloth || clothOnly); err != nil {
		sim.Close()
		return nil, err
	}

	s.output, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		sim.Close()
		return nil, err
	}
	if err := s.output.WriteConfig(cfg); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close stops the simulator's workers and flushes output files.
func (s *Session) Close() error {
	s.sim.Close()
	return s.output.Close()
}

func (s *Session) resetCloth() error {
	c, err := cloth.New(s.cfg.Cloth)
	if err != nil {
		return err
	}
	s.cloth = c
	s.mesh = geometry.NewMeshSampler(c.Mesh())
	return nil
}

// SetCloth switches between the scene shape and the cloth sheet. The change
// takes effect at the next sweep.
func (s *Session) SetCloth(on bool) error {
	if !on && s.scene.Parts() == 0 {
		return fmt.Errorf("scene %q has no rigid parts", s.cfg.Scene.Shape)
	}
	s.clothMode = on
	s.updateRefArea()
	return nil
}

func (s *Session) updateRefArea() {
	cfg := *s.cfg
	if s.clothMode {
		cfg.Scene.Shape = "cloth"
	}
	s.refArea = polar.ReferenceArea(&cfg)
}

// SetAnimate turns hinge animation on or off.
func (s *Session) SetAnimate(on bool) { s.animate = on }

// SetAttitude sets the angle of attack and yaw in degrees for the next sweep.
func (s *Session) SetAttitude(aoa, yaw float32) {
	s.scene.AngleOfAttack = aoa
	s.scene.Yaw = yaw
}

// SetWindSpeed sets the free-stream speed for the next sweep.
func (s *Session) SetWindSpeed(v float32) { s.wind.Speed = v }

// SetFlap sets every hinge to the given deflection in degrees.
func (s *Session) SetFlap(deg float32) {
	s.scene.SetDeflection(float64(mgl32.DegToRad(deg)))
}

// Reset abandons the current sweep and rebuilds the cloth.
func (s *Session) Reset() error {
	s.sim.Reset()
	return s.resetCloth()
}

// begin binds the current object for a new sweep.
func (s *Session) begin() error {
	s.sweepStart = time.Now()
	var fallback bool
	world, _ := s.scene.Transform()
	s.model, s.normal, fallback = s.wind.Frame(world)
	if fallback && !s.fallback {
		slog.Warn("degenerate wind basis, using fallback up axis", "direction", s.wind.Direction, "up", s.wind.Up)
	}
	s.fallback = fallback

	var sampler aero.Sampler
	if s.clothMode {
		s.mesh.Mesh = s.cloth.Mesh()
		sampler = s.mesh
		s.sim.SetVertexSink(s.cloth)
	} else {
		ss, err := s.scene.Sampler()
		if err != nil {
			return err
		}
		sampler = ss
		s.sim.SetVertexSink(nil)
	}
	return s.sim.BeginSweep(sampler, s.model, s.normal, s.wind)
}

// Step processes one slice, starting a new sweep when needed. It reports
// whether the slice completed a sweep.
func (s *Session) Step() (bool, error) {
	if s.sim.Slice() == 0 {
		if err := s.begin(); err != nil {
			return false, err
		}
	}
	if !s.sim.Step() {
		return false, nil
	}
	s.finish()
	return true, nil
}

// Sweep completes the current sweep, or runs a full one when none is in
// progress. Full sweeps skip the visualization images.
func (s *Session) Sweep() error {
	if s.sim.Slice() == 0 {
		if err := s.begin(); err != nil {
			return err
		}
		s.sim.Sweep()
		s.finish()
		return nil
	}
	for {
		done, err := s.Step()
		if err != nil || done {
			return err
		}
	}
}

// finish records a completed sweep and advances the object for the next one.
func (s *Session) finish() {
	res := s.sim.Result()
	ms := float64(time.Since(s.sweepStart).Microseconds()) / 1000
	s.last = telemetry.NewSweepRecord(s.sweep, float64(s.scene.AngleOfAttack), float64(s.wind.Speed), res, s.sim.Stats(), ms)
	s.cl, s.cd = res.Coefficients(s.cfg.Aero.AirDensity, float64(s.wind.Speed), s.refArea)

	s.recordTelemetry()

	if s.clothMode {
		s.cloth.Step()
	}
	if s.animate {
		s.scene.Animate()
	}
	s.sweep++
}

// Simulator returns the underlying simulator.
func (s *Session) Simulator() *aero.Simulator { return s.sim }

// Scene returns the rigid scene.
func (s *Session) Scene() *scene.Scene { return s.scene }

// Cloth returns the cloth sheet.
func (s *Session) Cloth() *cloth.Cloth { return s.cloth }

// ClothMode reports whether the cloth is being swept.
func (s *Session) ClothMode() bool { return s.clothMode }

// Shape returns the name of the object being swept.
func (s *Session) Shape() string {
	if s.clothMode {
		return "cloth"
	}
	return s.cfg.Scene.Shape
}

// Mesh returns the swept mesh in cloth mode, nil otherwise.
func (s *Session) Mesh() *geometry.Mesh {
	if !s.clothMode {
		return nil
	}
	return s.cloth.Mesh()
}

// Model returns the object-to-windframe matrix of the current sweep.
func (s *Session) Model() mgl32.Mat4 { return s.model }

// BasisFallback reports whether the current sweep uses the fallback wind
// basis because the wind direction is parallel to up.
func (s *Session) BasisFallback() bool { return s.fallback }

// Wind returns the wind used for the next sweep.
func (s *Session) Wind() aero.Wind { return s.wind }

// Sweeps returns the number of completed sweeps.
func (s *Session) Sweeps() int { return s.sweep }

// Last returns the record of the most recent sweep.
func (s *Session) Last() telemetry.SweepRecord { return s.last }

// Coefficients returns the lift and drag coefficients of the most recent sweep.
func (s *Session) Coefficients() (cl, cd float64) { return s.cl, s.cd }

// Summary returns the most recently flushed sweep statistics.
func (s *Session) Summary() telemetry.SweepStats { return s.summary }

// Perf returns the pass timing collector.
func (s *Session) Perf() *telemetry.PerfCollector { return s.perf }
