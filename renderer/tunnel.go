package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/camera"
	"github.com/pthm-cable/aerosweep/geometry"
)

var (
	frameColor  = rl.Color{R: 60, G: 70, B: 80, A: 255}
	sliceColor  = rl.Color{R: 200, G: 180, B: 100, A: 60}
	geoColor    = rl.Color{R: 100, G: 150, B: 200, A: 255}
	edgeColor   = rl.Color{R: 230, G: 230, B: 230, A: 255}
	airColor    = rl.Color{R: 120, G: 200, B: 220, A: 160}
	normalColor = rl.Color{R: 200, G: 100, B: 100, A: 200}
	meshColor   = rl.Color{R: 150, G: 120, B: 200, A: 200}
)

// TunnelView draws the windframe, the slice being processed and its pixels in 3D.
type TunnelView struct {
	ShowNormals bool
	ShowAir     bool
}

// Camera3D converts an orbit camera into a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(c.Position()),
		Target:     vec3(c.Target),
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}

// Draw renders the tunnel. mesh, if set, is drawn through model.
func (t *TunnelView) Draw(c *camera.Camera, sim *aero.Simulator, mesh *geometry.Mesh, model mgl32.Mat4) {
	wind := sim.Wind()
	rl.BeginMode3D(Camera3D(c))
	defer rl.EndMode3D()

	rl.DrawCubeWiresV(rl.Vector3{}, rl.Vector3{X: wind.FrameWidth, Y: wind.FrameWidth, Z: wind.FrameDepth}, frameColor)

	// Slice most recently processed
	if i := sim.Slice() - 1; i >= 0 && sim.SliceCount() > 0 {
		size := wind.FrameDepth / float32(sim.SliceCount())
		z := -wind.FrameDepth/2 + (float32(i)+0.5)*size
		rl.DrawCubeV(rl.Vector3{Z: z}, rl.Vector3{X: wind.FrameWidth, Y: wind.FrameWidth, Z: size}, sliceColor)
	}

	geo := sim.GeoPixels()
	for i := range geo {
		g := &geo[i]
		p := vec3(g.Pos3())
		col := geoColor
		if g.IsEdge {
			col = edgeColor
		}
		rl.DrawPoint3D(p, col)
		if t.ShowNormals {
			n := g.Pos3().Add(g.Normal.Mul(0.05))
			rl.DrawLine3D(p, vec3(n), normalColor)
		}
	}

	if t.ShowAir && len(geo) > 0 {
		z := geo[0].Depth
		for _, a := range sim.AirPixels() {
			rl.DrawPoint3D(rl.Vector3{X: a.WindPos[0], Y: a.WindPos[1], Z: z}, airColor)
		}
	}

	if mesh != nil {
		drawMesh(mesh, model)
	}
}

func drawMesh(m *geometry.Mesh, model mgl32.Mat4) {
	for _, tri := range m.Triangles {
		a := vec3(mgl32.TransformCoordinate(m.Vertices[tri[0]], model))
		b := vec3(mgl32.TransformCoordinate(m.Vertices[tri[1]], model))
		c := vec3(mgl32.TransformCoordinate(m.Vertices[tri[2]], model))
		rl.DrawLine3D(a, b, meshColor)
		rl.DrawLine3D(b, c, meshColor)
		rl.DrawLine3D(c, a, meshColor)
	}
}

func vec3(v mgl32.Vec3) rl.Vector3 {
	return rl.Vector3{X: v[0], Y: v[1], Z: v[2]}
}
