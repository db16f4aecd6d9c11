// Package renderer draws estimator state with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// Ramp maps a normalized value in [0,1] to a color.
type Ramp func(v float32) color.RGBA

// FieldTexture is a scalar grid uploaded to a GPU texture through a color ramp.
type FieldTexture struct {
	tex    rl.Texture2D
	w, h   int
	pixels []color.RGBA
	ramp   Ramp

	// Value range mapped onto the ramp; Max <= Min autoscales per upload
	Min, Max float32

	initialized bool
}

// NewFieldTexture creates a field texture. Init is deferred to the first upload
// because it needs a raylib window.
func NewFieldTexture(ramp Ramp, min, max float32) *FieldTexture {
	return &FieldTexture{ramp: ramp, Min: min, Max: max}
}

// Init creates the GPU texture (must be called after raylib window is created).
func (f *FieldTexture) Init(w, h int) {
	if f.initialized && w == f.w && h == f.h {
		return
	}
	if f.initialized {
		rl.UnloadTexture(f.tex)
	}
	f.w, f.h = w, h
	f.pixels = make([]color.RGBA, w*h)

	img := rl.GenImageColor(w, h, rl.Black)
	f.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(f.tex, rl.FilterPoint)
	rl.UnloadImage(img)

	f.initialized = true
}

// Update uploads row-major data of size w*h. Row 0 is drawn at the bottom so
// wind-space +Y points up on screen.
func (f *FieldTexture) Update(data []float32, w, h int) {
	if len(data) != w*h {
		return
	}
	f.Init(w, h)

	lo, hi := f.Min, f.Max
	if hi <= lo {
		lo, hi = valueRange(data)
	}
	scale := float32(1)
	if hi > lo {
		scale = 1 / (hi - lo)
	}

	for y := 0; y < h; y++ {
		src := data[y*w : (y+1)*w]
		dst := f.pixels[(h-1-y)*w : (h-y)*w]
		for x, v := range src {
			dst[x] = f.ramp(clamp01((v - lo) * scale))
		}
	}
	rl.UpdateTexture(f.tex, f.pixels)
}

// Draw renders the texture into dst with a border.
func (f *FieldTexture) Draw(dst rl.Rectangle) {
	if !f.initialized {
		return
	}
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(f.w), Height: float32(f.h)}
	rl.DrawTexturePro(f.tex, src, dst, rl.Vector2{}, 0, rl.White)
	rl.DrawRectangleLinesEx(dst, 1, rl.DarkGray)
}

// Unload frees GPU resources.
func (f *FieldTexture) Unload() {
	if !f.initialized {
		return
	}
	rl.UnloadTexture(f.tex)
	f.initialized = false
}

func valueRange(data []float32) (lo, hi float32) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// HeatRamp goes dark blue, cyan, yellow, white.
func HeatRamp(v float32) color.RGBA {
	var r, g, b float32
	switch {
	case v < 0.25:
		t := v / 0.25
		r, g, b = 10+t*30, 20+t*60, 60+t*100
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r, g, b = 40+t*20, 80+t*120, 160+t*40
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r, g, b = 60+t*140, 200-t*40, 200-t*150
	default:
		t := (v - 0.75) / 0.25
		r, g, b = 200+t*55, 160+t*95, 50+t*205
	}
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

// GrayRamp maps 0 to black and 1 to white.
func GrayRamp(v float32) color.RGBA {
	c := uint8(v * 255)
	return color.RGBA{R: c, G: c, B: c, A: 255}
}

// ShadowRamp fades from the free-stream sky blue to slate.
func ShadowRamp(v float32) color.RGBA {
	return color.RGBA{
		R: uint8(120 - v*90),
		G: uint8(170 - v*130),
		B: uint8(220 - v*150),
		A: 255,
	}
}
