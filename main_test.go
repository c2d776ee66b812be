package main

import (
	"context"
	"errors"
	"testing"

	"github.com/pthm-cable/critters/census"
	"github.com/pthm-cable/critters/config"
)

func TestOpenCensusRejectsLiveFeedWithoutRun(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Census.Enabled = false
	cfg.Redis.Enabled = true

	sinks, err := openCensus(context.Background(), cfg, t.TempDir())
	if !errors.Is(err, errLiveFeedNeedsRun) {
		t.Fatalf("err = %v, want errLiveFeedNeedsRun", err)
	}
	if sinks != nil {
		t.Error("sinks returned alongside error")
	}
}

func TestOpenCensusDisabled(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Census.Enabled = false
	cfg.Census.CSV = false
	cfg.Redis.Enabled = false

	sinks, err := openCensus(context.Background(), cfg, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := sinks.store.(census.NopStore); !ok {
		t.Errorf("store = %T, want census.NopStore", sinks.store)
	}
	if sinks.runID != 0 || sinks.rdb != nil || sinks.mysql != nil {
		t.Errorf("unexpected sinks: %+v", sinks)
	}
}

func TestOpenCensusCSVOnly(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Census.Enabled = false
	cfg.Census.CSV = true
	cfg.Redis.Enabled = false

	sinks, err := openCensus(context.Background(), cfg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer sinks.store.Close(context.Background())
	if _, ok := sinks.store.(*census.CSVStore); !ok {
		t.Errorf("store = %T, want *census.CSVStore", sinks.store)
	}
}
