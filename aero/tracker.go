package aero

import (
	"math"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// neighbor is a candidate geometry pixel found by the ring search.
type neighbor struct {
	geo   int32
	dist2 float32
	cell  int32
}

func (n neighbor) less(o neighbor) bool {
	if n.dist2 != o.dist2 {
		return n.dist2 < o.dist2
	}
	return n.cell < o.cell
}

// insertNeighbor keeps best sorted nearest first, holding at most len(best)
// entries. It returns the new count.
func insertNeighbor(best []neighbor, count int, nb neighbor) int {
	k := len(best)
	if k == 0 {
		return 0
	}
	var i int
	if count == k {
		if !nb.less(best[k-1]) {
			return count
		}
		i = k - 1
	} else {
		i = count
		count++
	}
	for i > 0 && nb.less(best[i-1]) {
		best[i] = best[i-1]
		i--
	}
	best[i] = nb
	return count
}

// nearestGeo fills best with the geometry pixels within MaxSearchDist of pos,
// nearest first, ties broken by grid cell. With edgeOnly set, interior pixels
// are skipped. Rings are searched outward until no closer pixel can remain.
func (s *Simulator) nearestGeo(pos mgl32.Vec2, edgeOnly bool, best []neighbor) int {
	n := s.params.TexSize
	w := s.wind.FrameWidth
	p := s.pixelSize
	cx := cellOf(w, p, pos[0])
	cy := cellOf(w, p, pos[1])
	maxD2 := s.params.MaxSearchDist * s.params.MaxSearchDist
	k := len(best)

	count := 0
	for r := 0; r <= s.searchR; r++ {
		for dy := -r; dy <= r; dy++ {
			y := cy + dy
			if y < 0 || y >= n {
				continue
			}
			// Interior rows of the ring only touch its two side columns
			step := 1
			if r > 0 && dy != -r && dy != r {
				step = 2 * r
			}
			for dx := -r; dx <= r; dx += step {
				x := cx + dx
				if x < 0 || x >= n {
					continue
				}
				c := y*n + x
				gi := s.geoIndex[c]
				if gi < 0 {
					continue
				}
				g := s.geo.At(int(gi))
				if edgeOnly && !g.IsEdge {
					continue
				}
				d := g.WindPos.Sub(pos)
				d2 := d.Dot(d)
				if d2 > maxD2 {
					continue
				}
				count = insertNeighbor(best, count, neighbor{geo: gi, dist2: d2, cell: int32(c)})
			}
		}
		if count == k {
			reach := (float32(r) + 0.5) * p
			if best[k-1].dist2 < reach*reach {
				break
			}
		}
	}
	return count
}

// writeMap stores the AirGeoMap entry of current air pixel i.
func (s *Simulator) writeMap(i int, near []neighbor) {
	k := s.params.MaxGeoPerAir
	m := s.airMap[i*k : (i+1)*k]
	for j := range m {
		if j < len(near) {
			m[j] = near[j].geo
		} else {
			m[j] = -1
		}
	}
}

// airMapOf returns the AirGeoMap entry of current air pixel i.
func (s *Simulator) airMapOf(i int) []int32 {
	k := s.params.MaxGeoPerAir
	return s.airMap[i*k : (i+1)*k]
}

// draw claims grid cells for the parcels carried into this slice and
// rebuilds their geometry associations.
func (s *Simulator) draw() {
	for i := range s.airIndex {
		s.airIndex[i] = -1
	}

	cur := s.air[s.current]
	n := s.params.TexSize
	w := s.wind.FrameWidth
	p := s.pixelSize

	s.pool.Run(cur.Len(), func(chunk, i0, i1 int) {
		best := s.scratch[chunk].near
		for i := i0; i < i1; i++ {
			a := cur.At(i)
			cx := cellOf(w, p, a.WindPos[0])
			cy := cellOf(w, p, a.WindPos[1])
			if cx >= 0 && cx < n && cy >= 0 && cy < n {
				// Any claimant will do; only the claim itself is read
				atomic.StoreInt32(&s.airIndex[cy*n+cx], int32(i))
			}
			cnt := s.nearestGeo(a.WindPos, false, best)
			s.writeMap(i, best[:cnt])
		}
	})
}

// outline walks every unclaimed cell, spawns parcels next to unsheltered
// geometry, deposits turbulence around it and records shadow coverage.
// Work is split by field rows so each field cell has a single writer.
// It returns the number of spawns dropped for capacity.
func (s *Simulator) outline() int {
	cur := s.air[s.current]
	before := cur.Dropped()
	qn := s.fields.N

	s.pool.Run(qn, func(chunk, q0, q1 int) {
		ws := &s.scratch[chunk]
		for qy := q0; qy < q1; qy++ {
			clear(ws.cover)
			for cy := qy * fieldScale; cy < (qy+1)*fieldScale; cy++ {
				s.outlineRow(cy, ws)
			}
			for qx, c := range ws.cover {
				if c > 0 {
					s.fields.Cover(qy*qn+qx, float32(c)/(fieldScale*fieldScale))
				}
			}
		}
	})

	return cur.Dropped() - before
}

func (s *Simulator) outlineRow(cy int, ws *workerScratch) {
	n := s.params.TexSize
	cur := s.air[s.current]
	best := ws.near

	for cx := 0; cx < n; cx++ {
		c := cy*n + cx
		if s.occ.Occupied[c] {
			ws.cover[cx/fieldScale]++
		}
		if s.airIndex[c] >= 0 {
			continue
		}

		gi := s.geoIndex[c]
		var pos mgl32.Vec2
		if gi >= 0 {
			pos = s.geo.At(int(gi)).WindPos
		} else {
			pos = cellCenter(s.wind.FrameWidth, s.pixelSize, cx, cy)
		}

		cnt := s.nearestGeo(pos, gi < 0, best)
		if cnt == 0 {
			continue
		}
		near := s.geo.At(int(best[0].geo))
		fi := s.fields.Index(cx, cy)

		if gi < 0 {
			d := float32(math.Sqrt(float64(best[0].dist2)))
			if d >= s.params.TurbulenceDist && d > 0 {
				away := pos.Sub(near.WindPos).Mul(s.turbDeposit / d)
				s.fields.Deposit(fi, away)
			}
			if s.fields.ShadPrev[fi] >= 0.5 {
				continue
			}
		} else {
			g := s.geo.At(int(gi))
			if !g.Exposed || s.fields.ShadPrev[fi] >= 1 {
				continue
			}
		}

		idx, ok := cur.Reserve()
		if !ok {
			continue
		}
		spawn := s.params.InitVelC * s.wind.Speed
		*cur.At(idx) = AirPixel{
			WindPos:    pos,
			Velocity:   mgl32.Vec2{near.Normal[0] * spawn, near.Normal[1] * spawn},
			Turbulence: s.fields.TurbPrev[fi],
		}
		s.writeMap(idx, best[:cnt])
	}
}
