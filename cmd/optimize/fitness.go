package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/aerosweep/config"
	"github.com/pthm-cable/aerosweep/polar"
)

// TargetPoint is a reference coefficient pair at one angle of attack.
type TargetPoint struct {
	Angle float64 `csv:"angle"`
	CL    float64 `csv:"cl"`
	CD    float64 `csv:"cd"`
}

// LoadTargets reads target points from a CSV with angle, cl, cd columns.
func LoadTargets(path string) ([]TargetPoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening targets: %w", err)
	}
	defer f.Close()

	var targets []TargetPoint
	if err := gocsv.UnmarshalFile(f, &targets); err != nil {
		return nil, fmt.Errorf("parsing targets: %w", err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("no target points in %s", path)
	}
	return targets, nil
}

// FitnessEvaluator runs headless polar sweeps and scores them against targets.
type FitnessEvaluator struct {
	params     *ParamVector
	targets    []TargetPoint
	baseConfig *config.Config
	workers    int // Pool size per angle

	mu          sync.Mutex
	bestFitness float64
	bestPoints  []polar.Point
	lastPoints  []polar.Point
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, targets []TargetPoint, baseCfg *config.Config, workers int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		targets:     targets,
		baseConfig:  baseCfg,
		workers:     max(workers, 1),
		bestFitness: math.Inf(1),
	}
}

// BestPoints returns the estimator output from the best evaluation.
func (fe *FitnessEvaluator) BestPoints() []polar.Point {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestPoints
}

// LastPoints returns the estimator output from the most recent evaluation.
func (fe *FitnessEvaluator) LastPoints() []polar.Point {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastPoints
}

// Evaluate computes fitness for a raw parameter vector (lower = better):
// the mean squared coefficient error over all target angles.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)
	cfg.ComputeDerived()

	// Angles run in parallel, one simulator each
	points := make([]polar.Point, len(fe.targets))
	errs := make([]error, len(fe.targets))
	var wg sync.WaitGroup
	for i, target := range fe.targets {
		wg.Add(1)
		go func(idx int, angle float64) {
			defer wg.Done()
			runner, err := polar.NewRunner(cfg, fe.workers)
			if err != nil {
				errs[idx] = err
				return
			}
			defer runner.Close()
			points[idx], errs[idx] = runner.At(angle)
		}(i, target.Angle)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			slog.Error("evaluation failed", "error", err)
			return math.Inf(1)
		}
	}

	fitness := Score(fe.targets, points)

	fe.mu.Lock()
	fe.lastPoints = points
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestPoints = points
	}
	fe.mu.Unlock()

	return fitness
}

// Score returns the mean squared error of CL and CD against the targets.
// Points with dropped pixels are penalized.
func Score(targets []TargetPoint, points []polar.Point) float64 {
	if len(targets) == 0 || len(points) != len(targets) {
		return math.Inf(1)
	}
	var sum float64
	for i, t := range targets {
		p := points[i]
		dl := p.CL - t.CL
		dd := p.CD - t.CD
		sum += dl*dl + dd*dd
		if p.Dropped > 0 {
			sum += overflowPenalty
		}
	}
	return sum / float64(len(targets))
}

// overflowPenalty is added per target point whose sweep dropped pixels.
const overflowPenalty = 0.1
