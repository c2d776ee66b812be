package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-9 {
			t.Errorf("%s: got %v, want %v", pv.Specs[i].Name, back[i], def[i])
		}
	}
}

func TestApplyToConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	x := pv.DefaultVector()
	x[0] = 10000 // starting_energy, clamped to 400
	x[1] = 50    // max_creatures, clamped to 64
	pv.ApplyToConfig(cfg, x)

	if cfg.Creature.StartingEnergy != 400 {
		t.Errorf("StartingEnergy = %v, want 400", cfg.Creature.StartingEnergy)
	}
	if cfg.Creature.MaxCreatures != 64 {
		t.Errorf("MaxCreatures = %v, want 64", cfg.Creature.MaxCreatures)
	}
	if cfg.Creature.Initial > cfg.Creature.MaxCreatures {
		t.Errorf("Initial %d exceeds MaxCreatures %d", cfg.Creature.Initial, cfg.Creature.MaxCreatures)
	}
	if cfg.Derived.HalfEnergy != 200 {
		t.Errorf("HalfEnergy = %v, want 200", cfg.Derived.HalfEnergy)
	}

	got := pv.ExtractFromConfig(cfg)
	want := pv.Clamp(x)
	for i := range want {
		if got[i] != want[i] && pv.Specs[i].Name != "max_creatures" && pv.Specs[i].Name != "max_food" {
			t.Errorf("%s: extracted %v, want %v", pv.Specs[i].Name, got[i], want[i])
		}
	}
}

func TestComputeQuality(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	fe := NewFitnessEvaluator(NewParamVector(), 100, []int64{1}, cfg)

	tests := []struct {
		name    string
		windows []telemetry.WindowStats
		wantMin float64
		wantMax float64
	}{
		{"too few windows", make([]telemetry.WindowStats, 3), 0, 0},
		{"all below min population", make([]telemetry.WindowStats, 6), 0, 0},
		{"healthy", healthyWindows(8), 0.8, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := fe.computeQuality(tt.windows)
			if q < tt.wantMin || q > tt.wantMax {
				t.Errorf("quality = %v, want in [%v, %v]", q, tt.wantMin, tt.wantMax)
			}
		})
	}
}

func TestComputeFitnessPrefersSurvival(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	fe := NewFitnessEvaluator(NewParamVector(), 100, []int64{1}, cfg)

	short := fe.computeFitness(&runResult{survivalTicks: 10})
	long := fe.computeFitness(&runResult{survivalTicks: 100})
	if long >= short {
		t.Errorf("fitness(100 ticks) = %v, want below fitness(10 ticks) = %v", long, short)
	}
}

func TestCV(t *testing.T) {
	if got := cv([]float64{5, 5, 5}); got != 0 {
		t.Errorf("cv(constant) = %v, want 0", got)
	}
	if got := cv([]float64{2, 4}); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("cv = %v, want 1/3", got)
	}
	if got := cv(nil); got != 0 {
		t.Errorf("cv(nil) = %v, want 0", got)
	}
}

func healthyWindows(n int) []telemetry.WindowStats {
	windows := make([]telemetry.WindowStats, n)
	for i := range windows {
		windows[i] = telemetry.WindowStats{
			Population: 100,
			Species:    6,
			EnergyP50:  50,
			FoodEaten:  500,
		}
	}
	return windows
}

type failingCloser struct{}

func (failingCloser) Close(context.Context) error { return errors.New("disk full") }

func TestCloseRunLogsError(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	closeRun(failingCloser{}, 7)

	out := buf.String()
	for _, want := range []string{"failed to close evaluation run", "seed=7", "disk full"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}
