package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/tunnel"
	"github.com/pthm-cable/aerosweep/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output sweep stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and snapshots")
	maxSweeps := flag.Int("max-sweeps", 0, "Stop after N sweeps (0 = unlimited)")
	clothMode := flag.Bool("cloth", false, "Sweep the cloth sheet instead of the scene shape")
	animate := flag.Bool("animate", false, "Move control surfaces between sweeps")
	workers := flag.Int("workers", 0, "Worker goroutines (0 = GOMAXPROCS)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	opts := tunnel.Options{
		OutputDir: *outputDir,
		LogStats:  *logStats || *headless,
		Cloth:     *clothMode,
		Animate:   *animate,
		Workers:   *workers,
	}

	if *headless {
		session, err := tunnel.New(cfg, opts)
		if err != nil {
			slog.Error("failed to start session", "error", err)
			os.Exit(1)
		}
		defer session.Close()

		slog.Info("starting headless sweeps",
			"shape", session.Shape(),
			"tex_size", cfg.Aero.TexSize,
			"slices", cfg.Aero.SliceCount,
			"max_sweeps", *maxSweeps,
		)

		for *maxSweeps == 0 || session.Sweeps() < *maxSweeps {
			if err := session.Sweep(); err != nil {
				slog.Error("sweep failed", "error", err, "sweep", session.Sweeps())
				return
			}
		}
		cl, cd := session.Coefficients()
		slog.Info("max sweeps reached", "sweeps", session.Sweeps(), "last", session.Last(), "cl", cl, "cd", cd)
		return
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Aerosweep")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	session, err := tunnel.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start session", "error", err)
		return
	}
	defer session.Close()

	v := viewer.New(cfg, session)
	defer v.Unload()

	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if *maxSweeps > 0 && session.Sweeps() >= *maxSweeps {
			break
		}
	}
}
