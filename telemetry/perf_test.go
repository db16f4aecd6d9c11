package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/aerosweep/aero"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartSlice()
		pc.StartPass(aero.PassSample)
		time.Sleep(100 * time.Microsecond)
		pc.StartPass(aero.PassMove)
		time.Sleep(200 * time.Microsecond)
		pc.EndSlice()
	}

	stats := pc.Stats()
	if stats.AvgSliceDuration <= 0 {
		t.Error("expected positive average slice duration")
	}
	if _, ok := stats.PassAvg[aero.PassSample]; !ok {
		t.Error("expected sample pass to be tracked")
	}
	if _, ok := stats.PassAvg[aero.PassMove]; !ok {
		t.Error("expected move pass to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartSlice()
		pc.StartPass(aero.PassDraw)
		time.Sleep(10 * time.Microsecond)
		pc.EndSlice()
	}

	stats := pc.Stats()
	if stats.AvgSliceDuration <= 0 {
		t.Error("expected positive average slice duration after window filled")
	}
	if stats.SlicesPerSecond <= 0 {
		t.Error("expected positive slices per second")
	}
}

func TestPerfCollector_PassPercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartSlice()
		pc.StartPass("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPass("slow")
		time.Sleep(500 * time.Microsecond)
		pc.EndSlice()
	}

	stats := pc.Stats()
	if stats.PassPct["slow"] <= stats.PassPct["fast"] {
		t.Errorf("expected slow pass (%v%%) > fast pass (%v%%)", stats.PassPct["slow"], stats.PassPct["fast"])
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgSliceDuration != 0 {
		t.Error("expected zero avg slice duration for empty collector")
	}
	if stats.PassAvg == nil || stats.PassPct == nil {
		t.Error("expected non-nil pass maps")
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frames, got %v", stats.FPS)
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgSliceDuration: 2 * time.Millisecond,
		PassPct:          map[string]float64{aero.PassMove: 40, aero.PassDraw: 25},
	}
	row := s.ToCSV(3)
	if row.Sweep != 3 || row.AvgSliceUS != 2000 {
		t.Errorf("unexpected header fields %+v", row)
	}
	if row.MovePct != 40 || row.DrawPct != 25 || row.SamplePct != 0 {
		t.Errorf("unexpected pass columns %+v", row)
	}
}

func TestPerfCollector_ObservesSimulator(t *testing.T) {
	p := aero.ParamsFromConfig(testConfig())
	p.TexSize = 32
	p.SliceCount = 4
	sim, err := aero.New(p)
	if err != nil {
		t.Fatalf("aero.New: %v", err)
	}
	defer sim.Close()

	pc := NewPerfCollector(16)
	sim.SetObserver(pc)
	if err := sim.BeginSweep(emptySampler{}, identity(), identity3(), aero.Wind{FrameWidth: 2, FrameDepth: 2, Speed: 10}); err != nil {
		t.Fatalf("BeginSweep: %v", err)
	}
	sim.Sweep()

	stats := pc.Stats()
	for _, pass := range aero.Passes {
		if _, ok := stats.PassAvg[pass]; !ok {
			t.Errorf("expected pass %s timed", pass)
		}
	}
}
