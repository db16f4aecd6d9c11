// Package main runs a headless angle-of-attack sweep and records the polar.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/polar"
	"github.com/pthm-cable/aerosweep/store"
	"github.com/pthm-cable/aerosweep/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Directory for polar.csv and run logs")
	dbPath := flag.String("db", "", "SQLite database to record the run in (empty = disabled)")
	repeat := flag.Int("repeat", 1, "Sweeps averaged per angle")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = use config)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if err := run(cfg, *outputDir, *dbPath, *repeat, *workers); err != nil {
		slog.Error("polar run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, outputDir, dbPath string, repeat, workers int) error {
	runner, err := polar.NewRunner(cfg, workers)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.Repeat = repeat

	om, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config", "error", err)
	}

	var db *store.DB
	var runID int64
	if dbPath != "" {
		db, err = store.Open(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		runID, err = db.CreateRun(store.RunRow{
			Shape:      cfg.Scene.Shape,
			Speed:      cfg.Wind.Speed,
			TexSize:    cfg.Aero.TexSize,
			SliceCount: cfg.Aero.SliceCount,
			LiftC:      cfg.Aero.LiftC,
			DragC:      cfg.Aero.DragC,
			RefArea:    polar.ReferenceArea(cfg),
		})
		if err != nil {
			return err
		}
	}

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	runner.Simulator().SetObserver(perf)
	detector := telemetry.NewBookmarkDetector(cfg.Telemetry.SweepHistory)

	angles := polar.Angles(cfg.Polar)
	slog.Info("starting polar run",
		"shape", cfg.Scene.Shape,
		"angles", len(angles),
		"repeat", repeat,
		"speed", cfg.Wind.Speed,
	)

	start := time.Now()
	sweep := 0
	points, err := runner.Run(angles, func(p polar.Point) {
		sim := runner.Simulator()
		rec := telemetry.NewSweepRecord(sweep, p.Angle, cfg.Wind.Speed, sim.Result(), sim.Stats(), p.DurationMS)
		slog.Info("point", "angle", p.Angle, "cl", p.CL, "cd", p.CD, "dropped", p.Dropped)

		if err := om.WriteSweep(rec); err != nil {
			slog.Warn("failed to write sweep", "error", err)
		}
		if err := om.WritePerf(perf.Stats(), sweep); err != nil {
			slog.Warn("failed to write perf", "error", err)
		}
		for _, b := range detector.Check(rec) {
			b.LogBookmark()
			if err := om.WriteBookmark(b); err != nil {
				slog.Warn("failed to write bookmark", "error", err)
			}
		}
		if db != nil {
			err := db.AddPoint(store.PointRow{
				RunID:   runID,
				Angle:   p.Angle,
				Lift:    p.Lift,
				Drag:    p.Drag,
				TorqueX: p.TorqueX,
				CL:      p.CL,
				CD:      p.CD,
				Dropped: p.Dropped,
			})
			if err != nil {
				slog.Warn("failed to store point", "error", err)
			}
		}
		sweep++
	})
	if err != nil {
		return err
	}

	if om != nil {
		if err := writePolar(filepath.Join(om.Dir(), "polar.csv"), points); err != nil {
			return err
		}
	}

	slog.Info("polar run complete",
		"points", len(points),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"run_id", runID,
		"perf", perf.Stats(),
	)
	return nil
}

func writePolar(path string, points []polar.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&points, f)
}
