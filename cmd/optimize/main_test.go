package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestEvalLogTracksBest(t *testing.T) {
	params := NewParamVector()
	path := filepath.Join(t.TempDir(), "log.csv")

	l, err := newEvalLog(path, params, 3)
	if err != nil {
		t.Fatal(err)
	}
	if l.Best() != nil {
		t.Fatal("Best before any evaluation should be nil")
	}

	a := params.DefaultVector()
	b := params.DefaultVector()
	b[0] = 250

	l.Record(a, -100, 0.5)
	l.Record(b, -300, 0.2)
	l.Record(a, -200, 0.9)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	if l.Count() != 3 {
		t.Errorf("Count = %d, want 3", l.Count())
	}
	if l.BestFitness() != -300 {
		t.Errorf("BestFitness = %v, want -300", l.BestFitness())
	}
	if l.Best()[0] != 250 {
		t.Errorf("Best()[0] = %v, want 250", l.Best()[0])
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if len(rows[0]) != 3+params.Dim() {
		t.Errorf("header has %d columns, want %d", len(rows[0]), 3+params.Dim())
	}
}

func TestEvalSeedsDeterministic(t *testing.T) {
	got := evalSeeds(3)
	want := []int64{42, 1042, 2042}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("seed %d = %d, want %d", i, got[i], want[i])
		}
	}
}
