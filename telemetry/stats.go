package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/aerosweep/aero"
)

// SliceRecord is one slice's contribution within a sweep.
type SliceRecord struct {
	Sweep  int     `csv:"sweep"`
	Slice  int     `csv:"slice"`
	ZFront float32 `csv:"z_front"`
	LiftX  float64 `csv:"lift_x"`
	LiftY  float64 `csv:"lift_y"`
	LiftZ  float64 `csv:"lift_z"`
	DragX  float64 `csv:"drag_x"`
	DragY  float64 `csv:"drag_y"`
	DragZ  float64 `csv:"drag_z"`
	Side   float64 `csv:"side"`
	TorqX  float64 `csv:"torque_x"`
	TorqY  float64 `csv:"torque_y"`
	TorqZ  float64 `csv:"torque_z"`
}

// SliceRecords flattens per-slice results of a sweep for CSV output.
func SliceRecords(sweep int, results []aero.Result, sliceSize, frameDepth float32) []SliceRecord {
	out := make([]SliceRecord, len(results))
	for i, r := range results {
		out[i] = SliceRecord{
			Sweep:  sweep,
			Slice:  i,
			ZFront: -frameDepth/2 + float32(i)*sliceSize,
			LiftX:  r.Lift[0],
			LiftY:  r.Lift[1],
			LiftZ:  r.Lift[2],
			DragX:  r.Drag[0],
			DragY:  r.Drag[1],
			DragZ:  r.Drag[2],
			Side:   r.Side[0],
			TorqX:  r.Torque[0],
			TorqY:  r.Torque[1],
			TorqZ:  r.Torque[2],
		}
	}
	return out
}

// SweepRecord summarizes one completed sweep.
type SweepRecord struct {
	Sweep      int     `csv:"sweep"`
	Angle      float64 `csv:"angle"` // Angle of attack, degrees
	Speed      float64 `csv:"speed"`
	Lift       float64 `csv:"lift"` // Up component
	Drag       float64 `csv:"drag"` // Downstream component
	Side       float64 `csv:"side"`
	TorqueX    float64 `csv:"torque_x"`
	TorqueY    float64 `csv:"torque_y"`
	TorqueZ    float64 `csv:"torque_z"`
	PeakGeo    int     `csv:"peak_geo"`
	PeakAir    int     `csv:"peak_air"`
	GeoDropped int     `csv:"geo_dropped"`
	AirDropped int     `csv:"air_dropped"`
	DurationMS float64 `csv:"duration_ms"`
}

// NewSweepRecord builds a record from a sweep result and the simulator stats.
func NewSweepRecord(sweep int, angle, speed float64, r aero.Result, st aero.Stats, durationMS float64) SweepRecord {
	f := r.Force()
	return SweepRecord{
		Sweep:      sweep,
		Angle:      angle,
		Speed:      speed,
		Lift:       f[1],
		Drag:       f[2],
		Side:       r.Side[0],
		TorqueX:    r.Torque[0],
		TorqueY:    r.Torque[1],
		TorqueZ:    r.Torque[2],
		PeakGeo:    st.PeakGeo,
		PeakAir:    st.PeakAir,
		GeoDropped: st.SweepGeoDropped,
		AirDropped: st.SweepAirDropped,
		DurationMS: durationMS,
	}
}

// Overflowed reports whether any pixels were dropped during the sweep.
func (r SweepRecord) Overflowed() bool {
	return r.GeoDropped > 0 || r.AirDropped > 0
}

// LogValue implements slog.LogValuer for structured logging.
func (r SweepRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("sweep", r.Sweep),
		slog.Float64("angle", r.Angle),
		slog.Float64("lift", r.Lift),
		slog.Float64("drag", r.Drag),
		slog.Float64("torque_x", r.TorqueX),
		slog.Int("peak_geo", r.PeakGeo),
		slog.Int("peak_air", r.PeakAir),
		slog.Int("dropped", r.GeoDropped+r.AirDropped),
		slog.Float64("duration_ms", r.DurationMS),
	)
}

// SweepStats holds aggregated statistics over a window of sweeps.
type SweepStats struct {
	Count     int     `csv:"count"`
	LastSweep int     `csv:"last_sweep"`
	LiftMean  float64 `csv:"lift_mean"`
	LiftStd   float64 `csv:"lift_std"`
	DragMean  float64 `csv:"drag_mean"`
	DragStd   float64 `csv:"drag_std"`
	DragP10   float64 `csv:"drag_p10"`
	DragP50   float64 `csv:"drag_p50"`
	DragP90   float64 `csv:"drag_p90"`
	MeanMS    float64 `csv:"mean_ms"`
	Overflows int     `csv:"overflows"`
}

// Summarize computes statistics over the given sweeps.
func Summarize(records []SweepRecord) SweepStats {
	n := len(records)
	if n == 0 {
		return SweepStats{}
	}

	lift := make([]float64, n)
	drag := make([]float64, n)
	ms := make([]float64, n)
	s := SweepStats{Count: n, LastSweep: records[n-1].Sweep}
	for i, r := range records {
		lift[i] = r.Lift
		drag[i] = r.Drag
		ms[i] = r.DurationMS
		if r.Overflowed() {
			s.Overflows++
		}
	}

	s.LiftMean, s.LiftStd = stat.PopMeanStdDev(lift, nil)
	s.DragMean, s.DragStd = stat.PopMeanStdDev(drag, nil)
	s.MeanMS = stat.Mean(ms, nil)

	sort.Float64s(drag)
	s.DragP10 = Percentile(drag, 0.10)
	s.DragP50 = Percentile(drag, 0.50)
	s.DragP90 = Percentile(drag, 0.90)
	return s
}

// Percentile calculates the p-th percentile of a sorted slice with linear
// interpolation. p should be in [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// LogValue implements slog.LogValuer for structured logging.
func (s SweepStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Int("last_sweep", s.LastSweep),
		slog.Float64("lift_mean", s.LiftMean),
		slog.Float64("lift_std", s.LiftStd),
		slog.Float64("drag_mean", s.DragMean),
		slog.Float64("drag_std", s.DragStd),
		slog.Float64("drag_p50", s.DragP50),
		slog.Float64("mean_ms", s.MeanMS),
		slog.Int("overflows", s.Overflows),
	)
}
