package telemetry

import (
	"log/slog"
	"time"

	"github.com/pthm-cable/aerosweep/aero"
)

// Compile-time interface check.
var _ aero.PassObserver = (*PerfCollector)(nil)

// PerfSample holds timing data for a single slice.
type PerfSample struct {
	SliceDuration time.Duration
	Passes        map[string]time.Duration
}

// PerfCollector tracks per-pass timing over a rolling window of slices.
// Install it on a simulator with SetObserver.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPasses map[string]time.Duration
	sliceStart    time.Time
	passStart     time.Time
	lastPass      string

	// Frame timing (viewer mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of slices to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 100
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPasses: make(map[string]time.Duration),
	}
}

// StartSlice begins timing a slice step.
func (p *PerfCollector) StartSlice() {
	p.sliceStart = time.Now()
	p.currentPasses = make(map[string]time.Duration, len(aero.Passes))
	p.lastPass = ""
}

// StartPass ends the previous pass, if any, and begins timing the named one.
func (p *PerfCollector) StartPass(name string) {
	now := time.Now()
	if p.lastPass != "" {
		p.currentPasses[p.lastPass] += now.Sub(p.passStart)
	}
	p.passStart = now
	p.lastPass = name
}

// EndSlice finishes timing the current slice and records the sample.
func (p *PerfCollector) EndSlice() {
	now := time.Now()
	if p.lastPass != "" {
		p.currentPasses[p.lastPass] += now.Sub(p.passStart)
	}

	p.samples[p.writeIndex] = PerfSample{
		SliceDuration: now.Sub(p.sliceStart),
		Passes:        p.currentPasses,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPass = ""
}

// RecordFrame records frame timing for viewer mode.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgSliceDuration time.Duration
	MinSliceDuration time.Duration
	MaxSliceDuration time.Duration

	// Pass breakdown (average durations)
	PassAvg map[string]time.Duration

	// Pass percentages of total slice time
	PassPct map[string]float64

	SlicesPerSecond float64

	// Viewer only
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PassAvg:       make(map[string]time.Duration),
			PassPct:       make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	var total, minDur, maxDur time.Duration
	passSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.SliceDuration
		if i == 0 || s.SliceDuration < minDur {
			minDur = s.SliceDuration
		}
		if s.SliceDuration > maxDur {
			maxDur = s.SliceDuration
		}
		for pass, dur := range s.Passes {
			passSum[pass] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)
	passAvg := make(map[string]time.Duration, len(passSum))
	passPct := make(map[string]float64, len(passSum))
	for pass, sum := range passSum {
		passAvg[pass] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			passPct[pass] = float64(passAvg[pass]) / float64(avg) * 100
		}
	}

	var perSec float64
	if avg > 0 {
		perSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgSliceDuration: avg,
		MinSliceDuration: minDur,
		MaxSliceDuration: maxDur,
		PassAvg:          passAvg,
		PassPct:          passPct,
		SlicesPerSecond:  perSec,
		FrameDuration:    p.frameDuration,
		FPS:              fps,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_slice_us", s.AvgSliceDuration.Microseconds()),
		slog.Int64("min_slice_us", s.MinSliceDuration.Microseconds()),
		slog.Int64("max_slice_us", s.MaxSliceDuration.Microseconds()),
		slog.Float64("slices_per_sec", s.SlicesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	// Fixed pass order keeps log lines comparable
	for _, pass := range aero.Passes {
		if pct, ok := s.PassPct[pass]; ok && pct > 0.1 {
			attrs = append(attrs, slog.Float64(pass+"_pct", float64(int(pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	Sweep        int     `csv:"sweep"`
	AvgSliceUS   int64   `csv:"avg_slice_us"`
	MinSliceUS   int64   `csv:"min_slice_us"`
	MaxSliceUS   int64   `csv:"max_slice_us"`
	SlicesPerSec float64 `csv:"slices_per_sec"`
	FPS          float64 `csv:"fps"`
	SamplePct    float64 `csv:"sample_pct"`
	ProspectPct  float64 `csv:"prospect_pct"`
	DiffusePct   float64 `csv:"diffuse_pct"`
	DrawPct      float64 `csv:"draw_pct"`
	OutlinePct   float64 `csv:"outline_pct"`
	MovePct      float64 `csv:"move_pct"`
	FeedbackPct  float64 `csv:"feedback_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(sweep int) PerfStatsCSV {
	return PerfStatsCSV{
		Sweep:        sweep,
		AvgSliceUS:   s.AvgSliceDuration.Microseconds(),
		MinSliceUS:   s.MinSliceDuration.Microseconds(),
		MaxSliceUS:   s.MaxSliceDuration.Microseconds(),
		SlicesPerSec: s.SlicesPerSecond,
		FPS:          s.FPS,
		SamplePct:    s.PassPct[aero.PassSample],
		ProspectPct:  s.PassPct[aero.PassProspect],
		DiffusePct:   s.PassPct[aero.PassDiffuse],
		DrawPct:      s.PassPct[aero.PassDraw],
		OutlinePct:   s.PassPct[aero.PassOutline],
		MovePct:      s.PassPct[aero.PassMove],
		FeedbackPct:  s.PassPct[aero.PassFeedback],
	}
}
