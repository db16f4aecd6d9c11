package aero

import "github.com/go-gl/mathgl/mgl32"

// prospect compacts the occupied cells of the slice into the geometry list,
// fills the geo owner grid and rolls the occupancy into prevOccupied.
// List order depends on worker scheduling.
func (s *Simulator) prospect() {
	s.geo.Reset()
	n := s.params.TexSize

	s.pool.Run(n, func(_, y0, y1 int) {
		for cy := y0; cy < y1; cy++ {
			for cx := 0; cx < n; cx++ {
				i := cy*n + cx
				occupied := s.occ.Occupied[i]
				exposed := !s.prevOccupied[i]
				s.prevOccupied[i] = occupied

				s.geoIndex[i] = -1
				if !occupied {
					continue
				}
				idx, ok := s.geo.Reserve()
				if !ok {
					continue
				}

				pos := s.occ.Pos[i]
				*s.geo.At(idx) = GeoPixel{
					WindPos:   mgl32.Vec2{pos[0], pos[1]},
					GridCoord: [2]int32{int32(cx), int32(cy)},
					Normal:    s.occ.Normal[i],
					Depth:     pos[2],
					IsEdge:    s.isEdge(cx, cy),
					Exposed:   exposed,
					Vertex:    s.occ.Vertex[i],
				}
				s.geoIndex[i] = int32(idx)
			}
		}
	})
}

// isEdge reports whether a 4-neighbour of the cell is empty or off grid.
func (s *Simulator) isEdge(cx, cy int) bool {
	n := s.params.TexSize
	if cx == 0 || cy == 0 || cx == n-1 || cy == n-1 {
		return true
	}
	occ := s.occ.Occupied
	i := cy*n + cx
	return !occ[i-1] || !occ[i+1] || !occ[i-n] || !occ[i+n]
}
