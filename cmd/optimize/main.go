// Package main runs a CMA-ES search over a pattern's parameters for the
// richest settings that still render within the frame budget.
//
// Usage: go run ./cmd/optimize -pattern shell_ridge -output out/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/sigil/config"
	"github.com/pthm-cable/sigil/patterns"
	"github.com/pthm-cable/sigil/systems"
)

type options struct {
	configPath string
	pattern    patterns.Variant
	frames     int
	width      int
	height     int
	maxEvals   int
	population int
	parallel   bool
	outputDir  string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	patternName := flag.String("pattern", "", "Pattern id to tune (required)")
	flag.IntVar(&o.frames, "frames", 90, "Frames rendered per evaluation")
	flag.IntVar(&o.width, "width", 0, "Render width (0 = use config)")
	flag.IntVar(&o.height, "height", 0, "Render height (0 = use config)")
	flag.IntVar(&o.maxEvals, "max-evals", 60, "Maximum number of evaluations")
	flag.IntVar(&o.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.BoolVar(&o.parallel, "parallel", true, "Split per-pixel patterns across row workers")
	flag.StringVar(&o.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	if o.outputDir == "" {
		log.Fatal("--output is required")
	}
	v, err := patterns.ParseVariant(*patternName)
	if err != nil {
		log.Fatalf("--pattern: %v", err)
	}
	o.pattern = v
	return o
}

func main() {
	opts := parseFlags()

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}
	if err := config.Init(opts.configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()
	if opts.width <= 0 {
		opts.width = baseCfg.Screen.Width
	}
	if opts.height <= 0 {
		opts.height = baseCfg.Screen.Height
	}

	pv, err := NewParamVector(opts.pattern, baseCfg)
	if err != nil {
		log.Fatal(err)
	}

	var pool *systems.RowPool
	if opts.parallel {
		pool = systems.NewRowPool()
		defer pool.Stop()
	}
	evaluator := NewFitnessEvaluator(pv, opts.pattern, opts.frames, opts.width, opts.height, baseCfg, pool)

	runLog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer runLog.Close()

	best, evals := search(opts, pv, evaluator, runLog)
	if best == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nBest parameters after %d evaluations:\n", evals)
	for i, spec := range pv.Specs {
		fmt.Printf("  %s: %.4f\n", spec.Name, best[i])
	}

	if err := writeBestConfig(opts, pv, best); err != nil {
		log.Printf("failed to write best config: %v", err)
	}
}

// search minimizes the evaluator's fitness and returns the best clamped
// parameters seen by any evaluation.
func search(opts options, pv *ParamVector, evaluator *FitnessEvaluator, runLog *evalLog) ([]float64, int) {
	dim := pv.Dim()
	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	var (
		evalCount   int
		bestFitness = 1e9
		bestParams  []float64
		startTime   = time.Now()
	)

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := pv.Clamp(pv.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			evalCount++
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			last := evaluator.Last()
			if err := runLog.Write(evalCount, fitness, last, pv, raw); err != nil {
				log.Printf("failed to log evaluation: %v", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(opts.maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			fmt.Printf("Eval %d/%d: complexity=%d frame=%s (best=%.1f) | elapsed: %s, ETA: %s\n",
				evalCount, opts.maxEvals, last.complexity, last.meanFrame.Round(10*time.Microsecond), bestFitness,
				formatDuration(elapsed), formatDuration(remaining))
			return fitness
		},
	}

	fmt.Printf("Tuning %s: %d parameters, population=%d, max_evals=%d, surface %dx%d, budget %s\n",
		opts.pattern, dim, popSize, opts.maxEvals, opts.width, opts.height, evaluator.budget)

	result, err := optimize.Minimize(problem, pv.Normalize(pv.DefaultVector()),
		&optimize.Settings{FuncEvaluations: opts.maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: popSize},
	)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}
	if bestParams == nil && result != nil {
		bestParams = pv.Clamp(pv.Denormalize(result.X))
	}
	return bestParams, evalCount
}

// writeBestConfig reloads the base config, applies values and saves it as
// best_config.yaml with the tuned pattern active.
func writeBestConfig(opts options, pv *ParamVector, values []float64) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	cfg.Pattern.Active = opts.pattern.String()
	if err := pv.ApplyToConfig(cfg, values); err != nil {
		return err
	}
	path := filepath.Join(opts.outputDir, "best_config.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}
	fmt.Printf("\nBest config saved to: %s\n", path)
	return nil
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
