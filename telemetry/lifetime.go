package telemetry

// LifetimeStats tracks per-creature statistics over its lifetime.
type LifetimeStats struct {
	BirthTick  int32
	SpeciesID  int
	ParentID   uint32
	Generation int

	Children int

	// Feeding
	FoodEaten     int
	FoodPickedUp  int
	ReservesEaten int

	Distance   float64
	PeakEnergy float64
}

// LifetimeTracker manages per-creature lifetime statistics.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new creature. Its generation is one
// more than its parent's, or zero for founders.
func (lt *LifetimeTracker) Register(creatureID uint32, birthTick int32, speciesID int, parentID uint32) {
	generation := 0
	if p := lt.stats[parentID]; parentID != 0 && p != nil {
		generation = p.Generation + 1
	}
	lt.stats[creatureID] = &LifetimeStats{
		BirthTick:  birthTick,
		SpeciesID:  speciesID,
		ParentID:   parentID,
		Generation: generation,
	}
}

// Get returns the lifetime stats for a creature, or nil if not found.
func (lt *LifetimeTracker) Get(creatureID uint32) *LifetimeStats {
	return lt.stats[creatureID]
}

// Remove removes a creature's stats and returns them (for snapshot/logging).
func (lt *LifetimeTracker) Remove(creatureID uint32) *LifetimeStats {
	stats := lt.stats[creatureID]
	delete(lt.stats, creatureID)
	return stats
}

// RecordChild increments children count.
func (lt *LifetimeTracker) RecordChild(parentID uint32) {
	if s := lt.stats[parentID]; s != nil {
		s.Children++
	}
}

// RecordFoodEaten increments food eaten off the ground.
func (lt *LifetimeTracker) RecordFoodEaten(creatureID uint32) {
	if s := lt.stats[creatureID]; s != nil {
		s.FoodEaten++
	}
}

// RecordFoodPickedUp increments food carried away.
func (lt *LifetimeTracker) RecordFoodPickedUp(creatureID uint32) {
	if s := lt.stats[creatureID]; s != nil {
		s.FoodPickedUp++
	}
}

// RecordReserveEaten increments reserves eaten.
func (lt *LifetimeTracker) RecordReserveEaten(creatureID uint32) {
	if s := lt.stats[creatureID]; s != nil {
		s.ReservesEaten++
	}
}

// RecordDistance adds walked distance.
func (lt *LifetimeTracker) RecordDistance(creatureID uint32, d float64) {
	if s := lt.stats[creatureID]; s != nil {
		s.Distance += d
	}
}

// UpdateEnergy tracks peak energy.
func (lt *LifetimeTracker) UpdateEnergy(creatureID uint32, energy float64) {
	if s := lt.stats[creatureID]; s != nil && energy > s.PeakEnergy {
		s.PeakEnergy = energy
	}
}

// All returns all tracked stats (for snapshots).
func (lt *LifetimeTracker) All() map[uint32]*LifetimeStats {
	return lt.stats
}

// Count returns the number of tracked creatures.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}

// MaxGeneration returns the highest generation among tracked creatures.
func (lt *LifetimeTracker) MaxGeneration() int {
	max := 0
	for _, s := range lt.stats {
		if s.Generation > max {
			max = s.Generation
		}
	}
	return max
}
