package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSaveLoad(t *testing.T) {
	// Create a temporary directory
	tmpDir := t.TempDir()

	// Create a test snapshot
	snapshot := &Snapshot{
		Version:     SnapshotVersion,
		RNGSeed:     42,
		WorldWidth:  64,
		WorldHeight: 16,
		WorldDepth:  64,
		Tick:        1000,
		Calendar:    "0001/02/03 12:00:00.00",
		Creatures: []CreatureState{
			{
				ID:          1,
				SpeciesID:   2,
				X:           10,
				Y:           0.25,
				Z:           -4,
				Energy:      75,
				MaxEnergy:   300,
				Hunger:      1.5,
				Age:         30,
				HeldFood:    2,
				HoldingFood: true,
				Genes:       []float64{0.1, 0.01, 0.2, 3, 1.5, 0.5, 0.5, 0.5, 1, 8, 0.3, 0.7, 0.2},
				Lifetime: &LifetimeStatsJSON{
					BirthTick:  100,
					Generation: 3,
					Children:   2,
					FoodEaten:  5,
					Distance:   42.5,
					PeakEnergy: 95,
				},
			},
		},
		Food: []FoodState{
			{X: 1, Z: 2, Fillingness: 4, SpawnTick: 900},
		},
		Species: []SpeciesState{
			{ID: 2, Name: "Plodding Grazer", RepresentativeID: 1, Members: 1, PastMembers: 3, CreatedTick: 10},
		},
		Bookmark: &Bookmark{
			Type:        BookmarkPopulationBoom,
			Tick:        1000,
			Description: "Test bookmark",
		},
	}

	// Save the snapshot
	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	// Load the snapshot
	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	// Verify loaded data matches original
	if loaded.RNGSeed != snapshot.RNGSeed {
		t.Errorf("RNGSeed mismatch: got %d, want %d", loaded.RNGSeed, snapshot.RNGSeed)
	}
	if loaded.Tick != snapshot.Tick || loaded.Calendar != snapshot.Calendar {
		t.Errorf("Tick/Calendar mismatch: got %d %q", loaded.Tick, loaded.Calendar)
	}
	if len(loaded.Creatures) != 1 || len(loaded.Food) != 1 || len(loaded.Species) != 1 {
		t.Fatalf("counts mismatch: %d creatures, %d food, %d species", len(loaded.Creatures), len(loaded.Food), len(loaded.Species))
	}

	c := loaded.Creatures[0]
	if len(c.Genes) != len(snapshot.Creatures[0].Genes) || c.Genes[3] != 3 {
		t.Errorf("genes mismatch: %v", c.Genes)
	}
	if !c.HoldingFood || c.HeldFood != 2 {
		t.Errorf("held food mismatch: %v %v", c.HoldingFood, c.HeldFood)
	}
	if c.Lifetime == nil || c.Lifetime.Generation != 3 || c.Lifetime.Distance != 42.5 {
		t.Errorf("lifetime mismatch: %+v", c.Lifetime)
	}
	if loaded.Species[0].Name != "Plodding Grazer" {
		t.Errorf("species name mismatch: %q", loaded.Species[0].Name)
	}
	if loaded.Bookmark == nil {
		t.Error("Bookmark not loaded")
	} else if loaded.Bookmark.Type != snapshot.Bookmark.Type {
		t.Errorf("Bookmark type mismatch: got %s, want %s", loaded.Bookmark.Type, snapshot.Bookmark.Type)
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	// Test with bookmark
	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Tick:    5000,
		Bookmark: &Bookmark{
			Type: BookmarkPopulationCrash,
			Tick: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_population_crash.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	// Test without bookmark
	snapshotNoBookmark := &Snapshot{
		Version: SnapshotVersion,
		Tick:    3000,
	}

	path, err = SaveSnapshot(snapshotNoBookmark, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshotVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	data, err := json.Marshal(Snapshot{Version: SnapshotVersion + 1})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if _, err := LoadSnapshot(path); err == nil {
		t.Error("expected an error for a mismatched snapshot version")
	}
}

func TestLifetimeStatsJSONRoundTrip(t *testing.T) {
	var nilStats *LifetimeStats
	if nilStats.ToJSON() != nil {
		t.Error("nil stats should convert to nil")
	}

	ls := &LifetimeStats{BirthTick: 3, Generation: 2, Children: 4, ReservesEaten: 1, PeakEnergy: 12}
	back := ls.ToJSON().FromJSON()
	if back.BirthTick != 3 || back.Generation != 2 || back.Children != 4 || back.ReservesEaten != 1 || back.PeakEnergy != 12 {
		t.Errorf("round trip mismatch: %+v", back)
	}
}
