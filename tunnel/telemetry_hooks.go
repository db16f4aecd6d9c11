package tunnel

import (
	"log/slog"

	"github.com/pthm-cable/aerosweep/telemetry"
)

// recordTelemetry writes the finished sweep, flushes windowed stats and
// handles bookmarks.
func (s *Session) recordTelemetry() {
	rec := s.last
	s.collector.Record(rec)

	if err := s.output.WriteSweep(rec); err != nil {
		slog.Error("failed to write sweep", "error", err)
	}
	slices := telemetry.SliceRecords(rec.Sweep, s.sim.Results(), s.cfg.Derived.SliceSize, s.wind.FrameDepth)
	if err := s.output.WriteSlices(slices); err != nil {
		slog.Error("failed to write slices", "error", err)
	}

	if s.collector.ShouldFlush() {
		s.summary = s.collector.Flush()
		perfStats := s.perf.Stats()
		if s.logStats {
			slog.Info("sweeps", "stats", s.summary, "last", rec, "perf", perfStats)
		}
		if err := s.output.WritePerf(perfStats, rec.Sweep); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range s.detector.Check(rec) {
		if s.logStats {
			bm.LogBookmark()
		}
		if err := s.output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
		s.saveSnapshot(&bm)
	}
}

// saveSnapshot dumps the simulator state next to the CSV output.
func (s *Session) saveSnapshot(bookmark *telemetry.Bookmark) {
	if s.output == nil {
		return
	}
	snapshot := telemetry.CaptureSnapshot(s.sim, s.last.Sweep)
	snapshot.Bookmark = bookmark

	path, err := s.output.WriteSnapshot(snapshot)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "sweep", s.last.Sweep)
}
