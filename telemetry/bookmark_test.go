package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, b := range bookmarks {
		if b.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Overflow(t *testing.T) {
	bd := NewBookmarkDetector(8)

	if got := bd.Check(SweepRecord{Sweep: 1, Drag: 1, GeoDropped: 3}); !hasBookmark(got, BookmarkOverflow) {
		t.Error("expected overflow bookmark")
	}
	// Repeated overflow is reported once
	if got := bd.Check(SweepRecord{Sweep: 2, Drag: 1, AirDropped: 1}); hasBookmark(got, BookmarkOverflow) {
		t.Error("expected repeated overflow to be suppressed")
	}
	bd.Check(SweepRecord{Sweep: 3, Drag: 1})
	if got := bd.Check(SweepRecord{Sweep: 4, Drag: 1, AirDropped: 1}); !hasBookmark(got, BookmarkOverflow) {
		t.Error("expected overflow after a clean sweep to be reported again")
	}
}

func TestBookmarkDetector_ForceJump(t *testing.T) {
	bd := NewBookmarkDetector(8)
	for i := 0; i < 5; i++ {
		bd.Check(SweepRecord{Sweep: i, Drag: 1})
	}
	if got := bd.Check(SweepRecord{Sweep: 5, Drag: 3.5}); !hasBookmark(got, BookmarkForceJump) {
		t.Error("expected force_jump bookmark")
	}
}

func TestBookmarkDetector_NoJumpOnNoise(t *testing.T) {
	bd := NewBookmarkDetector(8)
	for i := 0; i < 5; i++ {
		bd.Check(SweepRecord{Sweep: i, Drag: 1})
	}
	if got := bd.Check(SweepRecord{Sweep: 5, Drag: 1.5}); hasBookmark(got, BookmarkForceJump) {
		t.Error("unexpected force_jump for a 50% change")
	}
}

func TestBookmarkDetector_ConvergedOnce(t *testing.T) {
	bd := NewBookmarkDetector(8)
	fired := 0
	for i := 0; i < 12; i++ {
		if hasBookmark(bd.Check(SweepRecord{Sweep: i, Drag: 2}), BookmarkConverged) {
			fired++
		}
	}
	if fired != 1 {
		t.Errorf("expected converged exactly once, got %d", fired)
	}
}

func TestBookmarkDetector_Stall(t *testing.T) {
	bd := NewBookmarkDetector(8)
	lifts := []float64{0.2, 0.5, 0.9, 1.0, 0.7, 0.6}
	var stalls int
	for i, l := range lifts {
		if hasBookmark(bd.Check(SweepRecord{Sweep: i, Angle: float64(i * 4), Lift: l, Drag: 1}), BookmarkStall) {
			stalls++
			if i != 4 {
				t.Errorf("expected stall at sweep 4, got %d", i)
			}
		}
	}
	if stalls != 1 {
		t.Errorf("expected one stall bookmark, got %d", stalls)
	}
}
