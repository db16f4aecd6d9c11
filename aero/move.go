package aero

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// move integrates the impact of every current parcel on the geometry it is
// associated with, then advances the parcels into the next buffer.
// Partial sums are kept per chunk and combined in chunk order.
func (s *Simulator) move() Result {
	cur := s.air[s.current]
	next := s.air[1-s.current]
	next.Reset()

	for i := range s.scratch {
		s.scratch[i].partial = Result{}
		s.scratch[i].feedback = s.scratch[i].feedback[:0]
	}

	s.pool.Run(cur.Len(), func(chunk, i0, i1 int) {
		ws := &s.scratch[chunk]
		for i := i0; i < i1; i++ {
			s.moveAir(i, cur.At(i), next, ws)
		}
	})

	var res Result
	for i := range s.scratch {
		res = res.Add(s.scratch[i].partial)
	}
	return res
}

func (s *Simulator) moveAir(i int, src *AirPixel, next *BoundedList[AirPixel], ws *workerScratch) {
	m := s.airMapOf(i)
	if m[0] < 0 {
		return
	}

	a := *src
	p := s.params
	speed := s.wind.Speed
	fi := s.fieldIndexAt(a.WindPos)
	shadow := s.fields.ShadPrev[fi]

	lateral := a.Velocity.Add(a.Turbulence)
	v := mgl32.Vec3{lateral[0], lateral[1], speed}
	dir := v.Normalize()

	// Contact weights over freshly exposed surface
	var sumW float32
	for _, gi := range m {
		if gi < 0 {
			break
		}
		g := s.geo.At(int(gi))
		if !g.Exposed {
			continue
		}
		if w := s.contactWeight(a.WindPos, g); w > 0 {
			sumW += w
		}
	}

	if sumW > 0 {
		norm := max(1, sumW)
		atten := (1 - shadow) / (1 + a.Turbulence.Len()/speed)
		scale := s.q * atten / norm

		for _, gi := range m {
			if gi < 0 {
				break
			}
			g := s.geo.At(int(gi))
			if !g.Exposed {
				continue
			}
			w := s.contactWeight(a.WindPos, g)
			if w <= 0 {
				continue
			}
			impact := -dir.Dot(g.Normal)
			if impact <= 0 {
				continue
			}

			f := g.Normal.Mul(-scale * w * impact)
			lift := mgl64.Vec3{0, float64(p.LiftC * f[1]), 0}
			side := mgl64.Vec3{float64(p.LiftC * f[0]), 0, 0}
			drag := mgl64.Vec3{0, 0, float64(p.DragC * f[2])}
			total := lift.Add(side).Add(drag)
			arm := toVec64(g.Pos3().Sub(s.origin))

			ws.partial.Lift = ws.partial.Lift.Add(lift)
			ws.partial.Drag = ws.partial.Drag.Add(drag)
			ws.partial.Side = ws.partial.Side.Add(side)
			ws.partial.Torque = ws.partial.Torque.Add(arm.Cross(total))

			if s.sink != nil && g.Vertex >= 0 {
				ws.feedback = append(ws.feedback, vertexForce{
					vertex: g.Vertex,
					force:  mgl32.Vec3{float32(total[0]), float32(total[1]), float32(total[2])},
				})
			}

			// Deflect the parcel along the surface
			if vn := v.Dot(g.Normal); vn < 0 {
				v = v.Sub(g.Normal.Mul(vn * w / norm))
			}
		}
	}

	vel := mgl32.Vec2{v[0], v[1]}.Sub(a.Turbulence)

	// Push parcels hugging the surface back out
	a.Backforce = s.backforce(a.WindPos, s.geo.At(int(m[0])))
	vel = vel.Add(a.Backforce)

	vel = vel.Mul(s.flowKeep)
	a.Turbulence = a.Turbulence.Add(s.fields.TurbPrev[fi].Sub(a.Turbulence).Mul(s.turbBlend))
	a.Velocity = vel
	a.WindPos = a.WindPos.Add(vel.Add(a.Turbulence).Mul(s.dt))

	h := s.wind.FrameWidth / 2
	if a.WindPos[0] <= -h || a.WindPos[0] >= h || a.WindPos[1] <= -h || a.WindPos[1] >= h {
		return
	}
	next.Append(a)
}

// contactWeight falls off linearly to zero one pixel away from the sample.
func (s *Simulator) contactWeight(pos mgl32.Vec2, g *GeoPixel) float32 {
	d := g.WindPos.Sub(pos).Len()
	return 1 - d/s.pixelSize
}

// backforce returns the repulsion from the nearest geometry pixel, zero
// beyond TurbulenceDist.
func (s *Simulator) backforce(pos mgl32.Vec2, g *GeoPixel) mgl32.Vec2 {
	td := s.params.TurbulenceDist
	if td <= 0 {
		return mgl32.Vec2{}
	}
	off := pos.Sub(g.WindPos)
	d := off.Len()
	if d >= td {
		return mgl32.Vec2{}
	}

	var away mgl32.Vec2
	if d > 1e-6 {
		away = off.Mul(1 / d)
	} else {
		nxy := mgl32.Vec2{g.Normal[0], g.Normal[1]}
		l := nxy.Len()
		if l < 1e-6 {
			return mgl32.Vec2{}
		}
		away = nxy.Mul(1 / l)
	}

	falloff := 1 - d/td
	return away.Mul(s.params.BackforceC * s.wind.Speed * falloff * falloff)
}

// fieldIndexAt returns the field cell under a wind-space position, clamped to the grid.
func (s *Simulator) fieldIndexAt(pos mgl32.Vec2) int {
	n := s.params.TexSize
	cx := min(max(cellOf(s.wind.FrameWidth, s.pixelSize, pos[0]), 0), n-1)
	cy := min(max(cellOf(s.wind.FrameWidth, s.pixelSize, pos[1]), 0), n-1)
	return s.fields.Index(cx, cy)
}

// flushFeedback delivers recorded vertex forces in chunk order.
func (s *Simulator) flushFeedback() {
	if s.sink == nil {
		return
	}
	for i := range s.scratch {
		for _, f := range s.scratch[i].feedback {
			s.sink.OnVertexForce(int(f.vertex), s.toObject.Mul3x1(f.force))
		}
	}
}

func toVec64(v mgl32.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{float64(v[0]), float64(v[1]), float64(v[2])}
}
