package aero

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/aerosweep/parallel"
)

// Simulator runs the slice sweep for one object at a time.
// Step and Sweep block until the slice or sweep is done. A Simulator must not
// be stepped from more than one goroutine.
type Simulator struct {
	params Params
	pool   *parallel.Pool

	// Bound by BeginSweep
	sampler         Sampler
	transform       mgl32.Mat4
	normalTransform mgl32.Mat3
	toObject        mgl32.Mat3 // Wind-space vectors back to object space
	origin          mgl32.Vec3 // Object origin in wind space, torque reference
	wind            Wind

	// Per-sweep constants
	pixelSize   float32
	sliceSize   float32
	dt          float32
	q           float32 // Dynamic pressure over one cell
	searchR     int     // Ring search radius in cells
	flowKeep    float32 // Lateral velocity kept per slice
	turbBlend   float32 // Fraction of the way parcel turbulence moves toward the field
	turbDeposit float32 // Disturbance added per outlined cell

	// Grids and lists
	occ          *Occupancy
	prevOccupied []bool
	geo          *BoundedList[GeoPixel]
	geoIndex     []int32
	airIndex     []int32
	air          [2]*BoundedList[AirPixel]
	airMap       []int32 // MaxGeoPerAir entries per current air pixel, -1 padded
	current      int
	fields       *Fields
	scratch      []workerScratch

	// Sweep state
	slice       int
	results     []Result
	sweepResult Result
	stats       Stats
	warned      bool

	vis     *Vis
	drawVis bool

	sink     VertexSink
	observer PassObserver
}

// workerScratch holds per-chunk buffers. Chunk indices are below the pool's
// worker count, so each running chunk owns one entry.
type workerScratch struct {
	near     []neighbor
	cover    []int
	partial  Result
	feedback []vertexForce
}

type vertexForce struct {
	vertex int32
	force  mgl32.Vec3
}

// Vis holds the images accumulated while stepping slice by slice.
type Vis struct {
	Size   int
	Slices int
	Front  []float32 // Size*Size, 1 where any slice was occupied
	Side   []float32 // Slices*Size, fraction of each row occupied per slice
}

func newVis(size, slices int) *Vis {
	return &Vis{
		Size:   size,
		Slices: slices,
		Front:  make([]float32, size*size),
		Side:   make([]float32, slices*size),
	}
}

func (v *Vis) clear() {
	clear(v.Front)
	clear(v.Side)
}

// New validates the parameters, allocates all grids and starts the worker pool.
func New(p Params) (*Simulator, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("creating simulator: %w", err)
	}
	s := &Simulator{
		params:  p,
		pool:    parallel.NewPool(p.Workers),
		drawVis: true,
	}
	s.allocate()
	return s, nil
}

// Configure replaces the tuning constants between sweeps. Grids are
// reallocated when sizes change. The slice counter is reset.
func (s *Simulator) Configure(p Params) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("configuring simulator: %w", err)
	}
	old := s.params
	p.Workers = old.Workers
	s.params = p
	if p.TexSize != old.TexSize || p.SliceCount != old.SliceCount ||
		p.Capacity() != old.Capacity() || p.MaxGeoPerAir != old.MaxGeoPerAir {
		s.allocate()
	}
	if s.sampler != nil {
		s.updateConstants()
	}
	s.slice = 0
	return nil
}

func (s *Simulator) allocate() {
	p := s.params
	n := p.TexSize
	capacity := p.Capacity()

	s.occ = NewOccupancy(n)
	s.prevOccupied = make([]bool, n*n)
	s.geoIndex = make([]int32, n*n)
	s.airIndex = make([]int32, n*n)
	s.geo = NewBoundedList[GeoPixel](capacity)
	s.air = [2]*BoundedList[AirPixel]{
		NewBoundedList[AirPixel](capacity),
		NewBoundedList[AirPixel](capacity),
	}
	s.airMap = make([]int32, capacity*p.MaxGeoPerAir)
	s.fields = NewFields(n / fieldScale)
	s.results = make([]Result, p.SliceCount)
	s.vis = newVis(n, p.SliceCount)

	s.scratch = make([]workerScratch, s.pool.Workers())
	for i := range s.scratch {
		s.scratch[i].near = make([]neighbor, p.MaxGeoPerAir)
		s.scratch[i].cover = make([]int, n/fieldScale)
	}
	s.current = 0
}

// BeginSweep binds the object and the wind for the following steps.
// transform maps object space to wind space; normalTransform maps object
// normals. Nothing is executed until Step.
func (s *Simulator) BeginSweep(sampler Sampler, transform mgl32.Mat4, normalTransform mgl32.Mat3, wind Wind) error {
	if sampler == nil {
		return fmt.Errorf("beginning sweep: %w", ErrNoSampler)
	}
	if err := wind.Validate(); err != nil {
		return fmt.Errorf("beginning sweep: %w", err)
	}
	s.sampler = sampler
	s.transform = transform
	s.normalTransform = normalTransform
	s.toObject = transform.Mat3().Inv()
	s.origin = transform.Col(3).Vec3()
	s.wind = wind
	s.updateConstants()
	return nil
}

func (s *Simulator) updateConstants() {
	p := s.params
	w := s.wind

	s.pixelSize = w.FrameWidth / float32(p.TexSize)
	s.sliceSize = w.FrameDepth / float32(p.SliceCount)
	s.dt = s.sliceSize / w.Speed
	s.q = 0.5 * p.AirDensity * w.Speed * w.Speed * s.pixelSize * s.pixelSize
	s.searchR = int(math.Ceil(float64(p.MaxSearchDist / s.pixelSize)))
	s.flowKeep = float32(math.Exp(-float64(p.Flowback * s.sliceSize)))
	s.fields.Configure(s.sliceSize, p.TurbulenceDecay, p.WindShadDist)
	s.turbBlend = 1 - float32(math.Exp(-float64(p.TurbulenceDecay*s.sliceSize)))
	s.turbDeposit = p.InitVelC * w.Speed / (fieldScale * fieldScale)
}

// SetVertexSink routes per-vertex forces to a deformable surface. nil disables.
func (s *Simulator) SetVertexSink(sink VertexSink) {
	s.sink = sink
}

// SetObserver installs a pass timing observer. nil disables.
func (s *Simulator) SetObserver(o PassObserver) {
	s.observer = o
}

// sliceAt returns the geometry of slice i.
func (s *Simulator) sliceAt(i int) Slice {
	return Slice{
		Index:  i,
		ZFront: -s.wind.FrameDepth/2 + float32(i)*s.sliceSize,
		Size:   s.sliceSize,
	}
}

// Step processes exactly one slice and reports whether it completed a sweep.
// On the first slice of a sweep all accumulated state is cleared. Step does
// nothing and returns false until BeginSweep has succeeded.
func (s *Simulator) Step() bool {
	if s.sampler == nil {
		return false
	}
	if s.slice == 0 {
		s.resetSweep()
	}
	if s.observer != nil {
		s.observer.StartSlice()
	}

	sl := s.sliceAt(s.slice)

	s.startPass(PassSample)
	s.occ.Clear()
	s.sampler.Sample(s.occ, SampleRequest{
		Slice:           sl,
		Transform:       s.transform,
		NormalTransform: s.normalTransform,
		ZNear:           sl.ZFront,
		ZFar:            sl.ZBack(),
		FrameWidth:      s.wind.FrameWidth,
		PixelSize:       s.pixelSize,
		Pool:            s.pool,
	})

	s.startPass(PassProspect)
	s.prospect()

	s.startPass(PassDiffuse)
	s.fields.Advance(s.pool)

	s.startPass(PassDraw)
	s.draw()

	s.startPass(PassOutline)
	spawnDropped := s.outline()

	s.startPass(PassMove)
	res := s.move()

	s.startPass(PassFeedback)
	s.flushFeedback()

	// The buffer move wrote becomes current for the next slice
	s.current = 1 - s.current
	s.results[s.slice] = res
	if s.drawVis {
		s.accumulateVis(s.slice)
	}
	s.updateStats(spawnDropped)

	if s.observer != nil {
		s.observer.EndSlice()
	}

	s.slice++
	if s.slice < s.params.SliceCount {
		return false
	}
	s.finishSweep()
	return true
}

// Sweep runs every remaining slice of the current sweep without
// accumulating visualization images.
func (s *Simulator) Sweep() {
	if s.sampler == nil {
		return
	}
	s.drawVis = false
	defer func() { s.drawVis = true }()
	for !s.Step() {
	}
}

// Reset returns to the first slice. Accumulated results are discarded by the
// next Step.
func (s *Simulator) Reset() {
	s.slice = 0
}

func (s *Simulator) resetSweep() {
	clear(s.results)
	clear(s.prevOccupied)
	s.fields.Clear()
	s.air[0].Reset()
	s.air[1].Reset()
	s.current = 0
	s.stats = Stats{}
	s.warned = false
	s.vis.clear()
}

func (s *Simulator) finishSweep() {
	var total Result
	for _, r := range s.results {
		total = total.Add(r)
	}
	s.sweepResult = total
	s.slice = 0

	slog.Debug("sweep complete",
		"slices", s.params.SliceCount,
		"lift", total.Lift.Y(),
		"drag", total.Drag.Z(),
		"peak_geo", s.stats.PeakGeo,
		"peak_air", s.stats.PeakAir,
	)
}

func (s *Simulator) updateStats(spawnDropped int) {
	st := &s.stats
	st.GeoCount = s.geo.Len()
	st.GeoDropped = s.geo.Dropped()
	st.AirCount = s.air[s.current].Len()
	st.AirDropped = spawnDropped + s.air[s.current].Dropped()

	st.PeakGeo = max(st.PeakGeo, st.GeoCount)
	st.PeakAir = max(st.PeakAir, st.AirCount)
	st.SweepGeoDropped += st.GeoDropped
	st.SweepAirDropped += st.AirDropped

	if !s.warned && (st.GeoDropped > 0 || st.AirDropped > 0) {
		s.warned = true
		slog.Warn("slice capacity reached",
			"slice", s.slice,
			"capacity", s.geo.Cap(),
			"geo_dropped", st.GeoDropped,
			"air_dropped", st.AirDropped,
		)
	}
}

func (s *Simulator) accumulateVis(slice int) {
	n := s.params.TexSize
	inv := 1 / float32(n)
	for cy := 0; cy < n; cy++ {
		row := s.occ.Occupied[cy*n : (cy+1)*n]
		for cx, occupied := range row {
			if occupied {
				s.vis.Front[cy*n+cx] = 1
				s.vis.Side[slice*n+cy] += inv
			}
		}
	}
}

func (s *Simulator) startPass(name string) {
	if s.observer != nil {
		s.observer.StartPass(name)
	}
}

// Slice returns the index of the next slice to process.
func (s *Simulator) Slice() int { return s.slice }

// SliceCount returns the number of slices per sweep.
func (s *Simulator) SliceCount() int { return s.params.SliceCount }

// Params returns the active parameters.
func (s *Simulator) Params() Params { return s.params }

// Wind returns the bound wind.
func (s *Simulator) Wind() Wind { return s.wind }

// Result returns the sum of the last completed sweep.
func (s *Simulator) Result() Result { return s.sweepResult }

// Results returns a copy of the per-slice results of the running or last sweep.
func (s *Simulator) Results() []Result {
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Stats returns list usage for the last slice and the running sweep.
func (s *Simulator) Stats() Stats { return s.stats }

// Occupancy returns the cross section sampled for the last slice.
func (s *Simulator) Occupancy() *Occupancy { return s.occ }

// Fields returns the diffusion fields.
func (s *Simulator) Fields() *Fields { return s.fields }

// GeoPixels returns the geometry list of the last slice.
func (s *Simulator) GeoPixels() []GeoPixel { return s.geo.Items() }

// AirPixels returns the parcels carried into the next slice.
func (s *Simulator) AirPixels() []AirPixel { return s.air[s.current].Items() }

// Vis returns the front and side images of the running or last stepped sweep.
func (s *Simulator) Vis() *Vis { return s.vis }

// Close stops the worker pool.
func (s *Simulator) Close() {
	s.pool.Close()
}
