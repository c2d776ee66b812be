package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for inspection and restarts.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	WorldWidth  float64 `json:"world_width"`
	WorldHeight float64 `json:"world_height"`
	WorldDepth  float64 `json:"world_depth"`

	Tick     int32  `json:"tick"`
	Calendar string `json:"calendar"`

	Creatures []CreatureState `json:"creatures"`
	Food      []FoodState     `json:"food"`
	Species   []SpeciesState  `json:"species"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// CreatureState holds one creature's complete state.
type CreatureState struct {
	ID        uint32 `json:"id"`
	SpeciesID int    `json:"species_id"`
	ParentID  uint32 `json:"parent_id"`

	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	Energy      float64 `json:"energy"`
	MaxEnergy   float64 `json:"max_energy"`
	Hunger      float64 `json:"hunger"`
	Age         int32   `json:"age"`
	HeldFood    float64 `json:"held_food"`
	HoldingFood bool    `json:"holding_food"`

	Genes []float64 `json:"genes"`

	Lifetime *LifetimeStatsJSON `json:"lifetime,omitempty"`
}

// FoodState holds one piece of food.
type FoodState struct {
	X           float64 `json:"x"`
	Z           float64 `json:"z"`
	Fillingness float64 `json:"fillingness"`
	SpawnTick   int32   `json:"spawn_tick"`
}

// SpeciesState holds one species' bookkeeping.
type SpeciesState struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	RepresentativeID uint32 `json:"representative_id"`
	Members          int    `json:"members"`
	PastMembers      int    `json:"past_members"`
	CreatedTick      int32  `json:"created_tick"`
	ExtinctTick      int32  `json:"extinct_tick"`
}

// LifetimeStatsJSON is the JSON-serializable form of LifetimeStats.
type LifetimeStatsJSON struct {
	BirthTick     int32   `json:"birth_tick"`
	Generation    int     `json:"generation"`
	Children      int     `json:"children"`
	FoodEaten     int     `json:"food_eaten"`
	FoodPickedUp  int     `json:"food_picked_up"`
	ReservesEaten int     `json:"reserves_eaten"`
	Distance      float64 `json:"distance"`
	PeakEnergy    float64 `json:"peak_energy"`
}

// ToJSON converts LifetimeStats to its JSON form.
func (ls *LifetimeStats) ToJSON() *LifetimeStatsJSON {
	if ls == nil {
		return nil
	}
	return &LifetimeStatsJSON{
		BirthTick:     ls.BirthTick,
		Generation:    ls.Generation,
		Children:      ls.Children,
		FoodEaten:     ls.FoodEaten,
		FoodPickedUp:  ls.FoodPickedUp,
		ReservesEaten: ls.ReservesEaten,
		Distance:      ls.Distance,
		PeakEnergy:    ls.PeakEnergy,
	}
}

// FromJSON converts the JSON form back to LifetimeStats.
func (lsj *LifetimeStatsJSON) FromJSON() *LifetimeStats {
	if lsj == nil {
		return nil
	}
	return &LifetimeStats{
		BirthTick:     lsj.BirthTick,
		Generation:    lsj.Generation,
		Children:      lsj.Children,
		FoodEaten:     lsj.FoodEaten,
		FoodPickedUp:  lsj.FoodPickedUp,
		ReservesEaten: lsj.ReservesEaten,
		Distance:      lsj.Distance,
		PeakEnergy:    lsj.PeakEnergy,
	}
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
