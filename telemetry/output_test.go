package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager without error, got %v %v", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteSweep(SweepRecord{}); err != nil {
		t.Errorf("WriteSweep on nil manager: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManagerWritesHeadersOnce(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteSweep(SweepRecord{Sweep: i, Drag: float64(i)}); err != nil {
			t.Fatalf("WriteSweep: %v", err)
		}
	}
	if err := om.WriteSlices([]SliceRecord{{Sweep: 1, Slice: 0}, {Sweep: 1, Slice: 1}}); err != nil {
		t.Fatalf("WriteSlices: %v", err)
	}
	if err := om.WritePerf(PerfStats{}, 1); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkStall, Sweep: 2, Description: "x"}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WriteConfig(testConfig()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := readLines(t, filepath.Join(dir, "sweeps.csv"))
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "sweep,angle,speed,lift,drag") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if n := len(readLines(t, filepath.Join(dir, "slices.csv"))); n != 3 {
		t.Errorf("expected header plus 2 slice rows, got %d lines", n)
	}
	if lines := readLines(t, filepath.Join(dir, "bookmarks.csv")); len(lines) != 2 || !strings.HasPrefix(lines[1], "stall,2,") {
		t.Errorf("unexpected bookmarks %q", lines)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("expected config snapshot: %v", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}
