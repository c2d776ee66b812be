// Command optimize searches for simulation parameters that keep a diverse,
// stable population alive, using CMA-ES.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/telemetry"
)

type options struct {
	configPath string
	maxTicks   int
	seeds      int
	maxEvals   int
	population int
	outputDir  string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&opts.maxTicks, "max-ticks", 20000, "Maximum simulation duration in lifecycle ticks (cap)")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(opts); err != nil {
		slog.Error("optimization failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return fmt.Errorf("--output is required")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	params := NewParamVector()
	evaluator := NewFitnessEvaluator(params, int32(opts.maxTicks), evalSeeds(opts.seeds), baseCfg)

	elog, err := newEvalLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params, opts.maxEvals)
	if err != nil {
		return err
	}
	defer elog.Close()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			elog.Record(raw, fitness, evaluator.LastQuality())
			return fitness
		},
	}

	dim := params.Dim()
	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + int(3.0*math.Log(float64(dim)))
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{FuncEvaluations: opts.maxEvals}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"max_ticks", opts.maxTicks,
	)

	initX := params.Normalize(params.Clamp(params.ExtractFromConfig(baseCfg)))
	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	best := elog.Best()
	if best == nil && result != nil {
		best = params.Clamp(params.Denormalize(result.X))
	}
	if best == nil {
		return fmt.Errorf("no evaluations completed")
	}

	slog.Info("optimization complete",
		"evals", elog.Count(),
		"elapsed", time.Since(elog.start).Round(time.Second),
		"best_fitness", elog.BestFitness(),
	)
	for i, spec := range params.Specs {
		slog.Info("best parameter", "name", spec.Name, "path", spec.Path, "value", best[i])
	}

	return writeResults(opts.outputDir, baseCfg, params, best, evaluator.BestSnapshot())
}

// evalSeeds returns the fixed seeds every candidate is evaluated on.
func evalSeeds(n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	return seeds
}

func writeResults(dir string, baseCfg *config.Config, params *ParamVector, best []float64, snap *telemetry.Snapshot) error {
	bestCfg := *baseCfg
	params.ApplyToConfig(&bestCfg, best)

	configPath := filepath.Join(dir, "best_config.yaml")
	if err := bestCfg.WriteYAML(configPath); err != nil {
		return err
	}
	slog.Info("best config saved", "path", configPath)

	if snap != nil {
		path, err := telemetry.SaveSnapshot(snap, dir)
		if err != nil {
			return err
		}
		slog.Info("best snapshot saved", "path", path)
	}
	return nil
}

// evalLog appends one CSV row per evaluation and tracks the best candidate.
// gonum calls Func sequentially unless Settings.Concurrent is set.
type evalLog struct {
	f        *os.File
	w        *csv.Writer
	maxEvals int
	start    time.Time

	count       int
	bestFitness float64
	best        []float64
}

func newEvalLog(path string, params *ParamVector, maxEvals int) (*evalLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	l := &evalLog{
		f:           f,
		w:           csv.NewWriter(f),
		maxEvals:    maxEvals,
		start:       time.Now(),
		bestFitness: math.Inf(1),
	}

	header := []string{"eval", "fitness", "quality"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, err
	}
	return l, nil
}

// Record logs the clamped parameter values actually simulated.
func (l *evalLog) Record(raw []float64, fitness, quality float64) {
	l.count++
	if fitness < l.bestFitness {
		l.bestFitness = fitness
		l.best = append(l.best[:0], raw...)
	}

	row := []string{
		strconv.Itoa(l.count),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(quality, 'f', 4, 64),
	}
	for _, v := range raw {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		slog.Error("failed to write eval log", "error", err)
	}
	l.w.Flush()

	elapsed := time.Since(l.start)
	eta := time.Duration(l.maxEvals-l.count) * (elapsed / time.Duration(l.count))
	slog.Info("eval",
		"n", l.count,
		"of", l.maxEvals,
		"survived_ticks", math.Round(-fitness/(1.0+0.2*quality)),
		"quality", quality,
		"best", l.bestFitness,
		"elapsed", elapsed.Round(time.Second),
		"eta", eta.Round(time.Second),
	)
}

// Best returns the best parameters seen, or nil before the first evaluation.
func (l *evalLog) Best() []float64 { return l.best }

func (l *evalLog) BestFitness() float64 { return l.bestFitness }

func (l *evalLog) Count() int { return l.count }

func (l *evalLog) Close() error {
	l.w.Flush()
	return l.f.Close()
}
