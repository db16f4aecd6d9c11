package telemetry

import (
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkOverflow  BookmarkType = "overflow"
	BookmarkForceJump BookmarkType = "force_jump"
	BookmarkConverged BookmarkType = "converged"
	BookmarkStall     BookmarkType = "stall"
)

// Bookmark marks a sweep worth looking at.
type Bookmark struct {
	Type        BookmarkType `csv:"type" msgpack:"type"`
	Sweep       int          `csv:"sweep" msgpack:"sweep"`
	Description string       `csv:"description" msgpack:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"sweep", b.Sweep,
		"description", b.Description,
	)
}

// BookmarkDetector watches completed sweeps for notable changes.
type BookmarkDetector struct {
	history     []SweepRecord
	historySize int
	historyIdx  int
	historyFull bool

	overflowing    bool // Suppresses repeats until a clean sweep
	convergedCount int  // Consecutive sweeps with low drag variation
	peakLift       float64
	peakAngle      float64
	stalled        bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 4 {
		historySize = 4 // minimum for convergence detection
	}
	return &BookmarkDetector{
		history:     make([]SweepRecord, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest sweep and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(r SweepRecord) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkOverflow(r); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkForceJump(r); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkConverged(r); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}
	if b := bd.checkStall(r); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(r)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(r SweepRecord) {
	bd.history[bd.historyIdx] = r
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []SweepRecord {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkOverflow(r SweepRecord) *Bookmark {
	if !r.Overflowed() {
		bd.overflowing = false
		return nil
	}
	if bd.overflowing {
		return nil
	}
	bd.overflowing = true
	return &Bookmark{
		Type:        BookmarkOverflow,
		Sweep:       r.Sweep,
		Description: fmt.Sprintf("Dropped %d geo and %d air pixels", r.GeoDropped, r.AirDropped),
	}
}

// checkForceJump fires when drag moves more than 2x the rolling average
// magnitude away from it.
func (bd *BookmarkDetector) checkForceJump(r SweepRecord) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	var sum float64
	for _, h := range history {
		sum += h.Drag
	}
	avg := sum / float64(len(history))
	if avg == 0 {
		return nil
	}
	if math.Abs(r.Drag-avg) > 2*math.Abs(avg) {
		return &Bookmark{
			Type:        BookmarkForceJump,
			Sweep:       r.Sweep,
			Description: fmt.Sprintf("Drag %.4g is %.1fx rolling average (%.4g)", r.Drag, r.Drag/avg, avg),
		}
	}
	return nil
}

// checkConverged fires once after the last 4 sweeps stay within 1% of
// their mean drag for 4 consecutive checks.
func (bd *BookmarkDetector) checkConverged(r SweepRecord) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	recent := append([]SweepRecord{r}, bd.latest(3)...)
	var mean float64
	for _, h := range recent {
		mean += h.Drag
	}
	mean /= float64(len(recent))

	stable := mean != 0
	for _, h := range recent {
		if math.Abs(h.Drag-mean) > 0.01*math.Abs(mean) {
			stable = false
		}
	}
	if !stable {
		bd.convergedCount = 0
		return nil
	}
	bd.convergedCount++
	if bd.convergedCount == 4 {
		return &Bookmark{
			Type:        BookmarkConverged,
			Sweep:       r.Sweep,
			Description: fmt.Sprintf("Drag settled at %.4g", mean),
		}
	}
	return nil
}

// checkStall fires when lift falls by more than 20% from its peak while the
// angle of attack keeps rising. Used by polar runs.
func (bd *BookmarkDetector) checkStall(r SweepRecord) *Bookmark {
	if r.Lift > bd.peakLift {
		bd.peakLift = r.Lift
		bd.peakAngle = r.Angle
		bd.stalled = false
		return nil
	}
	if bd.stalled || bd.peakLift <= 0 || r.Angle <= bd.peakAngle {
		return nil
	}
	if r.Lift < 0.8*bd.peakLift {
		bd.stalled = true
		return &Bookmark{
			Type:        BookmarkStall,
			Sweep:       r.Sweep,
			Description: fmt.Sprintf("Lift fell to %.4g from peak %.4g at %.1f deg", r.Lift, bd.peakLift, bd.peakAngle),
		}
	}
	return nil
}

// latest returns up to n most recent history entries, newest first.
func (bd *BookmarkDetector) latest(n int) []SweepRecord {
	history := bd.getHistory()
	n = min(n, len(history))
	out := make([]SweepRecord, 0, n)
	idx := bd.historyIdx
	for i := 0; i < n; i++ {
		idx = (idx - 1 + bd.historySize) % bd.historySize
		out = append(out, bd.history[idx])
	}
	return out
}
