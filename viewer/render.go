package viewer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aerosweep/renderer"
	"github.com/pthm-cable/aerosweep/ui"
)

// Draw renders one frame.
func (v *Viewer) Draw() {
	sim := v.session.Simulator()
	v.vis.Update(sim)

	rl.BeginDrawing()
	defer rl.EndDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

	if v.overlays.IsEnabled(ui.OverlayTunnel) {
		v.tunnel.ShowNormals = v.overlays.IsEnabled(ui.OverlayNormals)
		v.tunnel.ShowAir = v.overlays.IsEnabled(ui.OverlayAir)
		v.tunnel.Draw(v.camera, sim, v.session.Mesh(), v.session.Model())
	}

	v.drawFields()

	if v.overlays.IsEnabled(ui.OverlayForcePlot) {
		left := float32(controlsWidth + 20)
		width := v.screenWidth - left - hudWidth - 30
		dst := rl.Rectangle{X: left, Y: v.screenHeight - 170, Width: width, Height: 130}
		v.plot.Draw(sim.Results(), sim.Slice(), dst)
	}

	v.drawHUD()

	act := v.controls.Draw(&v.state, v.overlays, v.hasHinge())
	if act.Changed {
		v.apply()
	}
	if act.Step {
		v.step()
	}
	if act.Sweep {
		v.sweep()
	}
	if act.Reset {
		v.reset()
	}

	v.hud.DrawControls(int32(v.screenWidth), int32(v.screenHeight),
		"[SPACE] Run  [→] Step  [ENTER] Sweep  [R] Reset  [TAB] Controls  [< >] Slices/frame  [RMB] Orbit  [HOME] Camera")
}

// hasHinge reports whether the scene has a control surface to deflect.
func (v *Viewer) hasHinge() bool {
	return v.session.Scene().Parts() > 1
}

// drawFields lays the enabled 2D layers out in a column left of the HUD.
func (v *Viewer) drawFields() {
	size := float32(180)
	x := v.screenWidth - hudWidth - 20 - size
	y := float32(30)

	draw := func(layer renderer.Layer, w float32) {
		v.vis.Draw(layer, rl.Rectangle{X: x - (w - size), Y: y, Width: w, Height: size})
		y += size + 24
	}

	if v.overlays.IsEnabled(ui.OverlayFront) {
		draw(renderer.LayerFront, size)
	}
	if v.overlays.IsEnabled(ui.OverlaySide) {
		draw(renderer.LayerSide, size*1.5)
	}
	switch {
	case v.overlays.IsEnabled(ui.OverlayTurbulence):
		draw(renderer.LayerTurbulence, size)
	case v.overlays.IsEnabled(ui.OverlayShadow):
		draw(renderer.LayerShadow, size)
	}
}

func (v *Viewer) drawHUD() {
	s := v.session
	last := s.Last()
	cl, cd := s.Coefficients()
	sim := s.Simulator()

	bottom := v.hud.Draw(ui.HUDData{
		Shape:      s.Shape(),
		Sweep:      s.Sweeps(),
		Slice:      sim.Slice(),
		SliceCount: sim.SliceCount(),
		Lift:       last.Lift,
		Drag:       last.Drag,
		Side:       last.Side,
		TorqueX:    last.TorqueX,
		CL:         cl,
		CD:         cd,
		Stats:      sim.Stats(),
		Summary:    s.Summary(),
		FPS:        rl.GetFPS(),
		Running:    v.state.Running,
	})

	if v.overlays.IsEnabled(ui.OverlayPerf) {
		v.perf.SetPosition(int32(v.screenWidth)-hudWidth, bottom+12)
		v.perf.Draw(s.Perf().Stats())
	}

	if v.lastErr != nil {
		rl.DrawText(fmt.Sprintf("error: %v", v.lastErr), controlsWidth+20, 10, 14, rl.Red)
	}
}
