// Package cloth implements a pinned Verlet sheet driven by per-vertex
// aerodynamic forces.
package cloth

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/geometry"
)

// Compile-time interface check.
var _ aero.VertexSink = (*Cloth)(nil)

// link is a distance constraint between two vertices.
type link struct {
	a, b int32
	rest float32
}

// Cloth is a rectangular sheet hanging in the X/Y plane from its top row.
// Vertex i = row*Cols + col, row 0 at the top.
type Cloth struct {
	cols, rows int
	iterations int
	gravity    float32
	damping    float32
	invMass    float32
	dt         float32

	pos    []mgl32.Vec3
	prev   []mgl32.Vec3
	force  []mgl32.Vec3
	pinned []bool
	links  []link

	mesh *geometry.Mesh
}

// New builds a flat sheet from the cloth config. The sheet is centred on the
// origin with its broad face toward -Z.
func New(cfg config.ClothConfig) (*Cloth, error) {
	if cfg.Cols < 2 || cfg.Rows < 2 {
		return nil, fmt.Errorf("cloth: need at least 2x2 vertices, got %dx%d", cfg.Cols, cfg.Rows)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Mass <= 0 || cfg.DT <= 0 {
		return nil, fmt.Errorf("cloth: width, height, mass and dt must be positive")
	}

	c := &Cloth{
		cols:       cfg.Cols,
		rows:       cfg.Rows,
		iterations: max(cfg.Iterations, 1),
		gravity:    float32(cfg.Gravity),
		damping:    float32(cfg.Damping),
		invMass:    float32(1 / cfg.Mass),
		dt:         float32(cfg.DT),
	}

	n := cfg.Cols * cfg.Rows
	c.pos = make([]mgl32.Vec3, n)
	c.prev = make([]mgl32.Vec3, n)
	c.force = make([]mgl32.Vec3, n)
	c.pinned = make([]bool, n)

	dx := float32(cfg.Width) / float32(cfg.Cols-1)
	dy := float32(cfg.Height) / float32(cfg.Rows-1)
	for r := 0; r < cfg.Rows; r++ {
		for col := 0; col < cfg.Cols; col++ {
			i := r*cfg.Cols + col
			p := mgl32.Vec3{
				-float32(cfg.Width)/2 + float32(col)*dx,
				float32(cfg.Height)/2 - float32(r)*dy,
				0,
			}
			c.pos[i] = p
			c.prev[i] = p
		}
	}
	for col := 0; col < cfg.Cols; col++ {
		c.pinned[col] = true
	}

	// Structural links plus shear diagonals
	for r := 0; r < cfg.Rows; r++ {
		for col := 0; col < cfg.Cols; col++ {
			i := r*cfg.Cols + col
			if col+1 < cfg.Cols {
				c.addLink(i, i+1)
			}
			if r+1 < cfg.Rows {
				c.addLink(i, i+cfg.Cols)
				if col+1 < cfg.Cols {
					c.addLink(i, i+cfg.Cols+1)
					c.addLink(i+1, i+cfg.Cols)
				}
			}
		}
	}

	tris := make([][3]int32, 0, 2*(cfg.Cols-1)*(cfg.Rows-1))
	for r := 0; r+1 < cfg.Rows; r++ {
		for col := 0; col+1 < cfg.Cols; col++ {
			i := int32(r*cfg.Cols + col)
			right, down := i+1, i+int32(cfg.Cols)
			tris = append(tris, [3]int32{i, right, down + 1}, [3]int32{i, down + 1, down})
		}
	}
	c.mesh = &geometry.Mesh{Vertices: c.pos, Triangles: tris, TwoSided: true}
	return c, nil
}

func (c *Cloth) addLink(a, b int) {
	c.links = append(c.links, link{a: int32(a), b: int32(b), rest: c.pos[a].Sub(c.pos[b]).Len()})
}

// OnVertexForce accumulates an object-space force on vertex i until the next Step.
func (c *Cloth) OnVertexForce(i int, f mgl32.Vec3) {
	if i < 0 || i >= len(c.force) {
		return
	}
	c.force[i] = c.force[i].Add(f)
}

// Step advances the sheet by one time step using the accumulated forces,
// then clears them.
func (c *Cloth) Step() {
	dt2 := c.dt * c.dt
	keep := 1 - c.damping
	g := mgl32.Vec3{0, -c.gravity, 0}

	for i := range c.pos {
		if c.pinned[i] {
			c.force[i] = mgl32.Vec3{}
			continue
		}
		acc := g.Add(c.force[i].Mul(c.invMass))
		p := c.pos[i]
		vel := p.Sub(c.prev[i]).Mul(keep)
		c.prev[i] = p
		c.pos[i] = p.Add(vel).Add(acc.Mul(dt2))
		c.force[i] = mgl32.Vec3{}
	}

	for it := 0; it < c.iterations; it++ {
		for _, l := range c.links {
			c.relax(l)
		}
	}
}

// relax moves both ends of a link toward its rest length. Pinned ends stay.
func (c *Cloth) relax(l link) {
	pa, pb := c.pos[l.a], c.pos[l.b]
	d := pb.Sub(pa)
	dist := d.Len()
	if dist < 1e-9 {
		return
	}
	fa, fb := !c.pinned[l.a], !c.pinned[l.b]
	var wa, wb float32
	switch {
	case fa && fb:
		wa, wb = 0.5, 0.5
	case fa:
		wa = 1
	case fb:
		wb = 1
	default:
		return
	}
	corr := d.Mul((dist - l.rest) / dist)
	c.pos[l.a] = pa.Add(corr.Mul(wa))
	c.pos[l.b] = pb.Sub(corr.Mul(wb))
}

// Mesh returns the sheet as a two-sided mesh sharing the vertex positions.
func (c *Cloth) Mesh() *geometry.Mesh { return c.mesh }

// Size returns the vertex grid dimensions.
func (c *Cloth) Size() (cols, rows int) { return c.cols, c.rows }

// Vertex returns the current position of vertex i.
func (c *Cloth) Vertex(i int) mgl32.Vec3 { return c.pos[i] }

// Pending returns the force accumulated on vertex i since the last Step.
func (c *Cloth) Pending(i int) mgl32.Vec3 { return c.force[i] }

// Pin fixes or frees vertex i.
func (c *Cloth) Pin(i int, pinned bool) { c.pinned[i] = pinned }

// MaxStretch returns the largest relative link extension, a measure of how
// well the constraints are satisfied.
func (c *Cloth) MaxStretch() float32 {
	var worst float32
	for _, l := range c.links {
		d := c.pos[l.a].Sub(c.pos[l.b]).Len()
		if s := (d - l.rest) / l.rest; s > worst {
			worst = s
		}
	}
	return worst
}
