package renderer

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aerosweep/aero"
)

var (
	liftColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	dragColor = rl.Color{R: 220, G: 120, B: 90, A: 255}
	axisColor = rl.Color{R: 80, G: 80, B: 80, A: 255}
)

// ForcePlot draws lift and drag per slice along the sweep.
type ForcePlot struct {
	lift, drag []float64
	points     []rl.Vector2
}

// Draw plots results into dst. current marks the next slice to process.
func (p *ForcePlot) Draw(results []aero.Result, current int, dst rl.Rectangle) {
	rl.DrawRectangleRec(dst, rl.Color{R: 20, G: 25, B: 30, A: 240})
	rl.DrawRectangleLinesEx(dst, 1, rl.DarkGray)
	if len(results) == 0 {
		return
	}

	p.lift = p.lift[:0]
	p.drag = p.drag[:0]
	for _, r := range results {
		f := r.Force()
		p.lift = append(p.lift, f[1])
		p.drag = append(p.drag, f[2])
	}
	scale := max(absMax(p.lift), absMax(p.drag))
	if scale == 0 {
		scale = 1
	}

	midY := dst.Y + dst.Height/2
	rl.DrawLine(int32(dst.X), int32(midY), int32(dst.X+dst.Width), int32(midY), axisColor)

	p.drawSeries(p.lift, scale, dst, liftColor)
	p.drawSeries(p.drag, scale, dst, dragColor)

	if current >= 0 && current < len(results) {
		x := dst.X + (float32(current)+0.5)/float32(len(results))*dst.Width
		rl.DrawLine(int32(x), int32(dst.Y), int32(x), int32(dst.Y+dst.Height), rl.Yellow)
	}

	x := int32(dst.X) + 4
	y := int32(dst.Y) + 4
	rl.DrawText("lift", x, y, 12, liftColor)
	rl.DrawText("drag", x+34, y, 12, dragColor)
	rl.DrawText(fmt.Sprintf("±%.3g N/slice", scale), x, int32(dst.Y+dst.Height)-16, 12, rl.Gray)
}

func (p *ForcePlot) drawSeries(values []float64, scale float64, dst rl.Rectangle, col rl.Color) {
	p.points = PlotPoints(values, scale, dst.X, dst.Y, dst.Width, dst.Height, p.points)
	for i := 1; i < len(p.points); i++ {
		rl.DrawLineV(p.points[i-1], p.points[i], col)
	}
}

// PlotPoints maps values in [-scale, scale] onto a rectangle, one point per
// value centered in its column, positive values above the midline.
func PlotPoints(values []float64, scale float64, x, y, w, h float32, dst []rl.Vector2) []rl.Vector2 {
	dst = dst[:0]
	if len(values) == 0 || scale <= 0 {
		return dst
	}
	n := float32(len(values))
	mid := y + h/2
	for i, v := range values {
		t := float32(v / scale)
		dst = append(dst, rl.Vector2{
			X: x + (float32(i)+0.5)/n*w,
			Y: mid - clampUnit(t)*h/2,
		})
	}
	return dst
}

func absMax(values []float64) float64 {
	m := 0.0
	for _, v := range values {
		m = max(m, math.Abs(v))
	}
	return m
}

func clampUnit(x float32) float32 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}
