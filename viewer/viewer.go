// Package viewer is the interactive raylib front end of a tunnel session.
package viewer

import (
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aerosweep/camera"
	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/renderer"
	"github.com/pthm-cable/aerosweep/tunnel"
	"github.com/pthm-cable/aerosweep/ui"
)

const (
	controlsWidth = 240
	hudWidth      = 260
)

// Viewer draws a session and lets the user drive it.
type Viewer struct {
	session *tunnel.Session

	camera   *camera.Camera
	vis      *renderer.VisRenderer
	plot     renderer.ForcePlot
	tunnel   renderer.TunnelView
	controls *ui.ControlsPanel
	hud      *ui.HUD
	perf     *ui.PerfPanel
	overlays *ui.OverlayRegistry

	state ui.ControlState

	// Slices processed per frame while running
	stepsPerFrame int

	screenWidth, screenHeight float32
	lastErr                   error
}

// New creates a viewer. Must be called after the raylib window is created.
func New(cfg *config.Config, session *tunnel.Session) *Viewer {
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())

	v := &Viewer{
		session:       session,
		camera:        camera.New(w, h, float32(cfg.Wind.FrameWidth)),
		vis:           renderer.NewVisRenderer(),
		controls:      ui.NewControlsPanel(10, 10, controlsWidth),
		hud:           ui.NewHUD(hudWidth),
		perf:          ui.NewPerfPanel(0, 0),
		overlays:      ui.NewOverlayRegistry(),
		stepsPerFrame: max(cfg.Aero.SliceCount/20, 1),
		screenWidth:   w,
		screenHeight:  h,
		state: ui.ControlState{
			AngleOfAttack: float32(cfg.Scene.AngleOfAttack),
			Yaw:           float32(cfg.Scene.Yaw),
			WindSpeed:     float32(cfg.Wind.Speed),
			Flap:          float32(cfg.Scene.FlapDeflection),
			Animate:       cfg.Scene.FlapRate != 0,
			Cloth:         session.ClothMode(),
			Running:       true,
		},
	}
	v.apply()
	return v
}

// apply pushes the control state into the session.
func (v *Viewer) apply() {
	s := v.session
	s.SetAttitude(v.state.AngleOfAttack, v.state.Yaw)
	s.SetWindSpeed(v.state.WindSpeed)
	s.SetAnimate(v.state.Animate)
	if !v.state.Animate {
		s.SetFlap(v.state.Flap)
	}
	if v.state.Cloth != s.ClothMode() {
		if err := s.SetCloth(v.state.Cloth); err != nil {
			slog.Warn("cannot switch object", "error", err)
			v.state.Cloth = s.ClothMode()
		}
	}
}

// Update advances the session by one frame's worth of slices.
func (v *Viewer) Update() {
	v.session.Perf().RecordFrame()
	v.handleInput()

	if !v.state.Running {
		return
	}
	for i := 0; i < v.stepsPerFrame; i++ {
		if _, err := v.session.Step(); err != nil {
			v.fail(err)
			return
		}
	}
}

// step advances a single slice.
func (v *Viewer) step() {
	if _, err := v.session.Step(); err != nil {
		v.fail(err)
	}
}

// sweep finishes the current sweep.
func (v *Viewer) sweep() {
	if err := v.session.Sweep(); err != nil {
		v.fail(err)
	}
}

func (v *Viewer) fail(err error) {
	if v.lastErr == nil || v.lastErr.Error() != err.Error() {
		slog.Error("sweep failed", "error", err)
	}
	v.lastErr = err
	v.state.Running = false
}

// Unload frees GPU resources.
func (v *Viewer) Unload() {
	v.vis.Unload()
}
