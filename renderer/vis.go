package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aerosweep/aero"
)

// Layer identifies one of the 2D estimator views.
type Layer int

const (
	LayerFront Layer = iota // Max projection of occupancy along the wind
	LayerSide               // Per-slice row occupancy
	LayerTurbulence
	LayerShadow
	layerCount
)

// LayerNames are the display titles of each layer.
var LayerNames = [layerCount]string{"Front", "Side", "Turbulence", "Wind shadow"}

// VisRenderer draws the simulator's 2D state as textures.
type VisRenderer struct {
	layers [layerCount]*FieldTexture

	side []float32 // Transposed side image
	turb []float32 // Turbulence magnitude
}

// NewVisRenderer creates the layer textures.
func NewVisRenderer() *VisRenderer {
	return &VisRenderer{
		layers: [layerCount]*FieldTexture{
			LayerFront:      NewFieldTexture(GrayRamp, 0, 1),
			LayerSide:       NewFieldTexture(HeatRamp, 0, 0),
			LayerTurbulence: NewFieldTexture(HeatRamp, 0, 0),
			LayerShadow:     NewFieldTexture(ShadowRamp, 0, 1),
		},
	}
}

// Update uploads the simulator's visualization buffers and fields.
func (v *VisRenderer) Update(sim *aero.Simulator) {
	vis := sim.Vis()
	v.layers[LayerFront].Update(vis.Front, vis.Size, vis.Size)

	v.side = SideImage(vis, v.side)
	v.layers[LayerSide].Update(v.side, vis.Slices, vis.Size)

	f := sim.Fields()
	v.turb = TurbulenceMagnitude(f, v.turb)
	v.layers[LayerTurbulence].Update(v.turb, f.N, f.N)
	v.layers[LayerShadow].Update(f.ShadCurr, f.N, f.N)
}

// Draw renders one layer with its title above it.
func (v *VisRenderer) Draw(layer Layer, dst rl.Rectangle) {
	if layer < 0 || layer >= layerCount {
		return
	}
	rl.DrawText(LayerNames[layer], int32(dst.X), int32(dst.Y)-16, 14, rl.LightGray)
	v.layers[layer].Draw(dst)
}

// Unload frees GPU resources.
func (v *VisRenderer) Unload() {
	for _, l := range v.layers {
		l.Unload()
	}
}

// SideImage lays the side buffer out row-major with slices along X, so the
// wind runs left to right. dst is reused when large enough.
func SideImage(vis *aero.Vis, dst []float32) []float32 {
	n := vis.Size * vis.Slices
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for s := 0; s < vis.Slices; s++ {
		for cy := 0; cy < vis.Size; cy++ {
			dst[cy*vis.Slices+s] = vis.Side[s*vis.Size+cy]
		}
	}
	return dst
}

// TurbulenceMagnitude returns the length of each turbulence vector about to
// be read by the next slice.
func TurbulenceMagnitude(f *aero.Fields, dst []float32) []float32 {
	n := len(f.TurbCurr)
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i, t := range f.TurbCurr {
		dst[i] = t.Len()
	}
	return dst
}
