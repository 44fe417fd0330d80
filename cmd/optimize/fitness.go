package main

import (
	"io"
	"log/slog"
	"time"

	"github.com/pthm-cable/sigil/animation"
	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/patterns"
	"github.com/pthm-cable/sigil/renderer"
	"github.com/pthm-cable/sigil/systems"
)

// overBudgetPenalty scales the cost of each fraction of the frame budget
// exceeded. One complexity point is worth 1.
const overBudgetPenalty = 200.0

// failedFitness scores runs that stalled or could not start.
const failedFitness = 1e6

// evalResult holds the measurements of one headless run.
type evalResult struct {
	complexity int
	meanFrame  time.Duration
	stalled    bool
}

// FitnessEvaluator renders headless runs and scores them. Runs are
// sequential so frame timings are not skewed by each other.
type FitnessEvaluator struct {
	params     *ParamVector
	variant    patterns.Variant
	frames     int
	width      int
	height     int
	budget     time.Duration
	baseConfig *config.Config
	pool       *systems.RowPool

	last evalResult
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(pv *ParamVector, v patterns.Variant, frames, width, height int, baseCfg *config.Config, pool *systems.RowPool) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     pv,
		variant:    v,
		frames:     frames,
		width:      width,
		height:     height,
		budget:     time.Second / time.Duration(max(baseCfg.Screen.TargetFPS, 1)),
		baseConfig: baseCfg,
		pool:       pool,
	}
}

// Last returns the measurements from the most recent evaluation.
func (fe *FitnessEvaluator) Last() evalResult {
	return fe.last
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative complexity plus a penalty for exceeding the budget.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	res, err := fe.run(fe.params.Clamp(x))
	if err != nil {
		slog.Warn("evaluation failed", "error", err)
		fe.last = evalResult{stalled: true}
		return failedFitness
	}
	fe.last = res
	return fe.computeFitness(res)
}

func (fe *FitnessEvaluator) computeFitness(res evalResult) float64 {
	if res.stalled {
		return failedFitness
	}
	fitness := -float64(res.complexity)
	if over := float64(res.meanFrame)/float64(fe.budget) - 1; over > 0 {
		fitness += overBudgetPenalty * over
	}
	return fitness
}

// run renders fe.frames frames with the given values on a synthetic clock.
func (fe *FitnessEvaluator) run(values []float64) (evalResult, error) {
	cfg := *fe.baseConfig
	cfg.Pattern.Active = fe.variant.String()
	if err := fe.params.ApplyToConfig(&cfg, values); err != nil {
		return evalResult{}, err
	}

	host, err := renderer.NewCanvas(fe.width, fe.height)
	if err != nil {
		return evalResult{}, err
	}
	defer host.Close()

	sched := animation.NewManualScheduler()
	d, err := animation.New(animation.Options{
		Config:    &cfg,
		Scheduler: sched,
		Surface:   host,
		Pool:      fe.pool,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return evalResult{}, err
	}
	if err := d.Start(); err != nil {
		return evalResult{}, err
	}
	defer d.Stop()

	now := time.Now()
	for i := 0; i < fe.frames && sched.Pending(); i++ {
		now = now.Add(fe.budget)
		sched.Step(now)
	}

	return evalResult{
		complexity: d.Describe().Complexity,
		meanFrame:  d.Perf().Stats().AvgFrameDuration,
		stalled:    d.State() == animation.Stalled,
	}, nil
}
