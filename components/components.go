// Package components defines ECS components for the simulation.
package components

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/genetics"
	"github.com/pthm-cable/critters/world"
)

// Position represents an entity's world position.
type Position struct {
	world.Vec3
}

// Motion holds a creature's navigation state.
type Motion struct {
	Destination    world.Vec3
	HasDestination bool
	Target         ecs.Entity // food being approached
	HasTarget      bool
}

// ClearGoal drops both target and destination; the creature rests.
func (m *Motion) ClearGoal() {
	m.HasTarget = false
	m.Target = ecs.Entity{}
	m.HasDestination = false
}

// Vitals tracks a creature's metabolic state.
type Vitals struct {
	Energy    float64
	MaxEnergy float64 // starting energy scaled by size
	Hunger    float64
	Age       int32 // lifecycle ticks survived
	Dead      bool
}

// Genome holds a creature's chromosome.
type Genome struct {
	Chromosome *genetics.Chromosome
}

// Organism bundles identity, lineage and carried food.
type Organism struct {
	ID        uint32
	SpeciesID int
	ParentID  uint32 // 0 for founders
	BirthTick int32
	Children  int

	HeldFood    float64 // fillingness of carried food
	HoldingFood bool
}

// Food is a consumable item on the ground.
type Food struct {
	Fillingness float64
	SpawnTick   int32
	Eaten       bool // consumed, removed after the update
	PickedUp    bool // carried away, removed after the update
}

// Gone reports whether the food can no longer be targeted.
func (f *Food) Gone() bool {
	return f.Eaten || f.PickedUp
}
