package store

import (
	"path/filepath"
	"testing"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "polar.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRunAndPoints(t *testing.T) {
	db := openTemp(t)

	id, err := db.CreateRun(RunRow{Shape: "wing", Speed: 10, TexSize: 128, SliceCount: 100, LiftC: 1, DragC: 1, RefArea: 0.6})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	for _, angle := range []float64{5, -5, 0} {
		if err := db.AddPoint(PointRow{RunID: id, Angle: angle, Lift: angle * 0.1, Drag: 1, CL: angle * 0.01, CD: 0.1}); err != nil {
			t.Fatalf("AddPoint(%v): %v", angle, err)
		}
	}

	run, err := db.GetRun(id)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v %v", run, err)
	}
	if run.Shape != "wing" || run.TexSize != 128 || run.RefArea != 0.6 {
		t.Errorf("unexpected run %+v", run)
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	points, err := db.Points(id)
	if err != nil {
		t.Fatalf("Points: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	for i, want := range []float64{-5, 0, 5} {
		if points[i].Angle != want {
			t.Errorf("points[%d].Angle = %v, want %v", i, points[i].Angle, want)
		}
	}
}

func TestAddPointReplacesAngle(t *testing.T) {
	db := openTemp(t)
	id, err := db.CreateRun(RunRow{Shape: "plate"})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := db.AddPoint(PointRow{RunID: id, Angle: 2, Drag: 1}); err != nil {
		t.Fatal(err)
	}
	if err := db.AddPoint(PointRow{RunID: id, Angle: 2, Drag: 3}); err != nil {
		t.Fatal(err)
	}
	points, err := db.Points(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 1 || points[0].Drag != 3 {
		t.Errorf("expected a single replaced point, got %+v", points)
	}
}

func TestLatestRunAndDelete(t *testing.T) {
	db := openTemp(t)

	if run, err := db.LatestRun("sphere"); err != nil || run != nil {
		t.Fatalf("expected no run, got %v %v", run, err)
	}
	first, _ := db.CreateRun(RunRow{Shape: "sphere", Speed: 5})
	second, _ := db.CreateRun(RunRow{Shape: "sphere", Speed: 10})
	if err := db.AddPoint(PointRow{RunID: second, Angle: 0}); err != nil {
		t.Fatal(err)
	}

	run, err := db.LatestRun("sphere")
	if err != nil || run == nil || run.ID != second {
		t.Fatalf("expected latest run %d, got %+v %v", second, run, err)
	}

	if err := db.DeleteRun(second); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}
	if points, _ := db.Points(second); len(points) != 0 {
		t.Errorf("expected points removed with the run, got %d", len(points))
	}
	if run, _ := db.LatestRun("sphere"); run == nil || run.ID != first {
		t.Errorf("expected run %d to remain latest", first)
	}
}

func TestAddPointRequiresRun(t *testing.T) {
	db := openTemp(t)
	if err := db.AddPoint(PointRow{RunID: 42, Angle: 0}); err == nil {
		t.Error("expected foreign key violation")
	}
}
