package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState is the user-adjustable scene and wind state.
type ControlState struct {
	AngleOfAttack float32 // Degrees
	Yaw           float32 // Degrees
	WindSpeed     float32
	Flap          float32 // Degrees
	Animate       bool    // Hinges move between sweeps
	Cloth         bool    // Swap the scene for the cloth sheet
	Running       bool    // Sweep continuously
}

// ControlActions are the one-shot button presses of a frame.
type ControlActions struct {
	Step    bool // Advance one slice
	Sweep   bool // Finish the current sweep
	Reset   bool // Restart the sweep and the cloth
	Changed bool // Any slider or checkbox moved
}

// ControlsPanel renders the left-side controls panel with sliders and overlay toggles.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Width returns the panel width.
func (c *ControlsPanel) Width() int32 {
	return c.width
}

// Draw renders the panel, applies slider edits to state and returns the
// button presses. flapEnabled hides the flap slider for scenes without hinges.
func (c *ControlsPanel) Draw(state *ControlState, overlays *OverlayRegistry, flapEnabled bool) ControlActions {
	var act ControlActions
	if !c.visible {
		return act
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	// Panel spans the window height
	r.DrawPanel(c.x, c.y, c.width, int32(rl.GetScreenHeight())-c.y*2)

	x := float32(c.x + padding)
	y := float32(c.y + padding)
	inner := float32(c.width - padding*2)

	rl.DrawText("Wind Tunnel", int32(x), int32(y), 16, rl.White)
	y += float32(lineHeight) + 8

	slider := func(label, unit string, value *float32, lo, hi float32) {
		rl.DrawText(fmt.Sprintf("%s: %.1f%s", label, *value, unit), int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		y += float32(lineHeight)
		v := gui.SliderBar(rl.Rectangle{X: x, Y: y, Width: inner, Height: 16}, "", "", *value, lo, hi)
		if v != *value {
			*value = v
			act.Changed = true
		}
		y += 24
	}

	slider("Angle of attack", "°", &state.AngleOfAttack, -30, 30)
	slider("Yaw", "°", &state.Yaw, -45, 45)
	slider("Wind speed", " m/s", &state.WindSpeed, 1, 60)
	if flapEnabled {
		slider("Flap", "°", &state.Flap, -30, 30)
	}

	checkbox := func(label string, value *bool) {
		v := gui.CheckBox(rl.Rectangle{X: x, Y: y, Width: 14, Height: 14}, label, *value)
		if v != *value {
			*value = v
			act.Changed = true
		}
		y += 20
	}
	checkbox("Run", &state.Running)
	checkbox("Animate hinges", &state.Animate)
	checkbox("Cloth", &state.Cloth)
	y += 6

	half := (inner - 8) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Step") {
		act.Step = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 8, Y: y, Width: half, Height: 24}, "Sweep") {
		act.Sweep = true
	}
	y += 30
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: inner, Height: 24}, "Reset") {
		act.Reset = true
	}
	y += 40

	c.drawOverlays(int32(x), int32(y), overlays)
	return act
}

// drawOverlays lists the overlay toggles by category.
func (c *ControlsPanel) drawOverlays(x, y int32, overlays *OverlayRegistry) {
	r := c.renderer
	width := c.width - r.Theme.Padding*2
	for _, category := range overlays.Categories() {
		y = r.DrawSectionHeader(x, y, categoryLabel(category))
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(x, y, desc, overlays.IsEnabled(desc.ID), width)
			y += r.Theme.LineHeight
		}
		y += 4
	}
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "fields":
		return "Fields"
	case "tunnel":
		return "Tunnel"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
