package telemetry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/pthm-cable/aerosweep/aero"
	"github.com/pthm-cable/aerosweep/config"
)

func init() {
	config.MustInit("")
}

func testConfig() *config.Config { return config.Cfg() }

func identity() mgl32.Mat4  { return mgl32.Ident4() }
func identity3() mgl32.Mat3 { return mgl32.Ident3() }

type emptySampler struct{}

func (emptySampler) Sample(*aero.Occupancy, aero.SampleRequest) {}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	records := []SweepRecord{
		{Sweep: 1, Lift: 1, Drag: 2, DurationMS: 10},
		{Sweep: 2, Lift: 3, Drag: 4, DurationMS: 20},
		{Sweep: 3, Lift: 5, Drag: 6, DurationMS: 30, AirDropped: 7},
	}
	s := Summarize(records)

	if s.Count != 3 || s.LastSweep != 3 {
		t.Errorf("unexpected count/last sweep %d/%d", s.Count, s.LastSweep)
	}
	if math.Abs(s.LiftMean-3) > 1e-12 || math.Abs(s.DragMean-4) > 1e-12 {
		t.Errorf("unexpected means lift=%f drag=%f", s.LiftMean, s.DragMean)
	}
	// Population std of {2,4,6}
	if want := math.Sqrt(8.0 / 3); math.Abs(s.DragStd-want) > 1e-9 {
		t.Errorf("drag std = %f, want %f", s.DragStd, want)
	}
	if s.DragP50 != 4 {
		t.Errorf("drag p50 = %f, want 4", s.DragP50)
	}
	if s.MeanMS != 20 {
		t.Errorf("mean ms = %f, want 20", s.MeanMS)
	}
	if s.Overflows != 1 {
		t.Errorf("expected 1 overflow, got %d", s.Overflows)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s.Count != 0 || s.DragMean != 0 {
		t.Errorf("expected zero stats, got %+v", s)
	}
}

func TestNewSweepRecord(t *testing.T) {
	r := aero.Result{
		Lift:   mgl64.Vec3{0, 2, 0},
		Drag:   mgl64.Vec3{0, 0, 3},
		Side:   mgl64.Vec3{0.5, 0, 0},
		Torque: mgl64.Vec3{0.1, 0, 0},
	}
	rec := NewSweepRecord(4, 5, 10, r, aero.Stats{PeakGeo: 100, SweepGeoDropped: 2}, 12.5)

	if rec.Lift != 2 || rec.Drag != 3 || rec.Side != 0.5 {
		t.Errorf("unexpected force components %+v", rec)
	}
	if rec.TorqueX != 0.1 || rec.PeakGeo != 100 {
		t.Errorf("unexpected torque/peak %+v", rec)
	}
	if !rec.Overflowed() {
		t.Error("expected overflow from dropped geo pixels")
	}
}

func TestSliceRecords(t *testing.T) {
	results := []aero.Result{{Drag: mgl64.Vec3{0, 0, 1}}, {Drag: mgl64.Vec3{0, 0, 2}, Side: mgl64.Vec3{-0.25, 0, 0}}}
	recs := SliceRecords(7, results, 0.5, 2)

	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[1].ZFront != -0.5 || recs[1].DragZ != 2 || recs[1].Sweep != 7 || recs[1].Side != -0.25 {
		t.Errorf("unexpected record %+v", recs[1])
	}
}
