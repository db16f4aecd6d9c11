package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/telemetry"
)

// HUDData holds all the data needed to render the results panel.
type HUDData struct {
	Shape      string
	Sweep      int
	Slice      int
	SliceCount int
	Lift       float64
	Drag       float64
	Side       float64
	TorqueX    float64
	CL, CD     float64
	Stats      aero.Stats
	Summary    telemetry.SweepStats
	FPS        int32
	Running    bool
}

// HUD renders the results panel on the right side of the screen.
type HUD struct {
	renderer *Renderer
	width    int32
}

// NewHUD creates a new HUD renderer.
func NewHUD(width int32) *HUD {
	return &HUD{
		renderer: NewRenderer(),
		width:    width,
	}
}

// Draw renders the HUD and returns the Y below it.
func (h *HUD) Draw(data HUDData) int32 {
	r := h.renderer
	padding := r.Theme.Padding
	x := int32(rl.GetScreenWidth()) - h.width - padding
	top := padding
	height := r.Theme.LineHeight*17 + padding*2

	r.DrawPanel(x, top, h.width, height)
	x += padding
	y := top + padding
	inner := h.width - padding*2

	status := "PAUSED"
	if data.Running {
		status = "Running"
	}
	rl.DrawText(fmt.Sprintf("%s | %s", data.Shape, status), x, y, 16, rl.White)
	y += r.Theme.LineHeight + 4

	y = r.DrawLabelValue(x, y, "Sweep", fmt.Sprintf("%d", data.Sweep))
	y = r.DrawBar(x, y, "Slice", progress(data.Slice, data.SliceCount), inner)
	y = r.DrawLabelValue(x, y, "FPS", fmt.Sprintf("%d", data.FPS))
	y += 4

	y = r.DrawSectionHeader(x, y, "Forces")
	y = r.DrawLabelValue(x, y, "Lift", fmt.Sprintf("%+.4f N", data.Lift))
	y = r.DrawLabelValue(x, y, "Drag", fmt.Sprintf("%+.4f N", data.Drag))
	y = r.DrawLabelValue(x, y, "Side", fmt.Sprintf("%+.4f N", data.Side))
	y = r.DrawLabelValue(x, y, "Pitch mom.", fmt.Sprintf("%+.4f Nm", data.TorqueX))
	y = r.DrawCenteredBar(x, y, "CL", float32(data.CL), 2, inner)
	y = r.DrawCenteredBar(x, y, "CD", float32(data.CD), 2, inner)
	y += 4

	y = r.DrawSectionHeader(x, y, "Capacity")
	y = r.DrawLabelValue(x, y, "Peak geo", fmt.Sprintf("%d", data.Stats.PeakGeo))
	y = r.DrawLabelValue(x, y, "Peak air", fmt.Sprintf("%d", data.Stats.PeakAir))
	dropped := data.Stats.SweepGeoDropped + data.Stats.SweepAirDropped
	dropColor := r.Theme.ValueColor
	if dropped > 0 {
		dropColor = r.Theme.WarnColor
	}
	y = r.DrawLabelValueColor(x, y, "Dropped", fmt.Sprintf("%d", dropped), dropColor)
	if data.Summary.Count > 1 {
		y = r.DrawLabelValue(x, y, "Drag σ", fmt.Sprintf("%.4f", data.Summary.DragStd))
	}

	return top + height
}

// DrawControls renders the key legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

func progress(i, n int) float32 {
	if n <= 0 {
		return 0
	}
	return float32(i) / float32(n)
}

// PerfPanel renders per-pass timing.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Slice Performance", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg: %s (%.0f slices/s)", stats.AvgSliceDuration.Round(time.Microsecond), stats.SlicesPerSecond), x, y, 14, rl.Yellow)
	y += 16

	for _, name := range aero.Passes {
		pct := stats.PassPct[name]

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", name, stats.PassAvg[name].Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
