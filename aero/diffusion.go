package aero

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/parallel"
)

// fieldScale is the number of grid cells per diffusion cell along each axis.
const fieldScale = 4

// Fields holds the quarter-resolution turbulence and wind shadow grids.
// Prev is what the current slice reads; Curr is what it writes for the next.
type Fields struct {
	N int // Cells per axis

	// Disturbance velocity carried downstream
	TurbPrev []mgl32.Vec2
	TurbCurr []mgl32.Vec2

	// Wind shadow [0,1]: how much the oncoming air is blocked by upstream geometry
	ShadPrev []float32
	ShadCurr []float32

	// Per-slice factors, set by Configure
	turbKeep  float32 // exp(-turbulenceDecay * sliceSize)
	shadDecay float32 // sliceSize / windShadDist
}

// NewFields allocates cleared fields with n cells per axis.
func NewFields(n int) *Fields {
	return &Fields{
		N:        n,
		TurbPrev: make([]mgl32.Vec2, n*n),
		TurbCurr: make([]mgl32.Vec2, n*n),
		ShadPrev: make([]float32, n*n),
		ShadCurr: make([]float32, n*n),
	}
}

// Configure sets the per-slice decay factors.
func (f *Fields) Configure(sliceSize, turbulenceDecay, windShadDist float32) {
	f.turbKeep = float32(math.Exp(-float64(turbulenceDecay * sliceSize)))
	f.shadDecay = sliceSize / windShadDist
}

// Clear zeroes both buffers of both fields.
func (f *Fields) Clear() {
	clear(f.TurbPrev)
	clear(f.TurbCurr)
	clear(f.ShadPrev)
	clear(f.ShadCurr)
}

// Index returns the field cell holding grid cell (cx, cy).
func (f *Fields) Index(cx, cy int) int {
	return (cy/fieldScale)*f.N + cx/fieldScale
}

// Advance swaps buffers and seeds Curr from Prev: turbulence is blurred and
// decayed, the shadow fades linearly. Deposits for the slice are added on top.
func (f *Fields) Advance(pool *parallel.Pool) {
	f.TurbPrev, f.TurbCurr = f.TurbCurr, f.TurbPrev
	f.ShadPrev, f.ShadCurr = f.ShadCurr, f.ShadPrev

	pool.Run(f.N, func(_, y0, y1 int) {
		f.advanceRows(y0, y1)
	})
}

func (f *Fields) advanceRows(y0, y1 int) {
	n := f.N
	for y := y0; y < y1; y++ {
		for x := 0; x < n; x++ {
			// 3x3 box blur, zero outside the grid
			var sum mgl32.Vec2
			for dy := -1; dy <= 1; dy++ {
				yy := y + dy
				if yy < 0 || yy >= n {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					xx := x + dx
					if xx < 0 || xx >= n {
						continue
					}
					sum = sum.Add(f.TurbPrev[yy*n+xx])
				}
			}

			i := y*n + x
			f.TurbCurr[i] = sum.Mul(f.turbKeep / 9)
			f.ShadCurr[i] = max(0, f.ShadPrev[i]-f.shadDecay)
		}
	}
}

// Deposit adds a disturbance to field cell i of the current buffer.
// Callers must own the cell for the duration of the pass.
func (f *Fields) Deposit(i int, v mgl32.Vec2) {
	f.TurbCurr[i] = f.TurbCurr[i].Add(v)
}

// Cover raises the current shadow of field cell i to at least coverage.
func (f *Fields) Cover(i int, coverage float32) {
	f.ShadCurr[i] = max(f.ShadCurr[i], min(coverage, 1))
}
