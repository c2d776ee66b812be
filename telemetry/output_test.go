package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}
	if om != nil {
		t.Fatal("empty dir should disable output")
	}

	// Methods are safe on a nil manager
	if err := om.WriteTelemetry(WindowStats{}); err != nil {
		t.Errorf("WriteTelemetry on nil manager: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{}); err != nil {
		t.Errorf("WriteBookmark on nil manager: %v", err)
	}
	if om.Dir() != "" {
		t.Error("nil manager should report an empty dir")
	}
	if err := om.Close(); err != nil {
		t.Errorf("Close on nil manager: %v", err)
	}
}

func TestOutputManager_WritesHeaderOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := om.WriteTelemetry(WindowStats{WindowEndTick: int32(i * 10), Population: i}); err != nil {
			t.Fatalf("WriteTelemetry failed: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{AvgTickDuration: time.Millisecond}, 30); err != nil {
		t.Fatalf("WritePerf failed: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkExtinct, Tick: 30, Description: "gone"}); err != nil {
		t.Fatalf("WriteBookmark failed: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "telemetry.csv"))
	if err != nil {
		t.Fatalf("reading telemetry.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("telemetry.csv has %d lines, want header + 3 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,sim_time,calendar,population") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if strings.Count(string(data), "window_end") != 1 {
		t.Error("header should be written exactly once")
	}

	data, err = os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatalf("reading bookmarks.csv: %v", err)
	}
	if !strings.Contains(string(data), "extinct,30,gone") {
		t.Errorf("bookmarks.csv = %q", data)
	}
}

func TestOutputManager_WriteSpecies(t *testing.T) {
	dir := t.TempDir()
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager failed: %v", err)
	}
	defer om.Close()

	rows := []SpeciesRow{{ID: 1, Name: "Swift Forager", Members: 3}}
	if err := om.WriteSpecies(rows); err != nil {
		t.Fatalf("WriteSpecies failed: %v", err)
	}
	// Rewriting replaces the previous summary
	rows = append(rows, SpeciesRow{ID: 2, Name: "Idle Hoarder"})
	if err := om.WriteSpecies(rows); err != nil {
		t.Fatalf("WriteSpecies failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "species.csv"))
	if err != nil {
		t.Fatalf("reading species.csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Errorf("species.csv has %d lines, want 3", len(lines))
	}
}
