package telemetry

import (
	"github.com/pthm-cable/critters/genetics"
)

// Collector accumulates events within windows of lifecycle ticks and
// produces WindowStats.
type Collector struct {
	windowTicks  int32
	tickInterval float64 // simulation seconds per lifecycle tick

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	births        int
	deaths        int
	starvations   int
	mutations     int
	foodEaten     int
	foodPickedUp  int
	reservesEaten int
	newSpecies    int
	extinctions   int
	distance      float64
}

// NewCollector creates a new stats collector.
// windowTicks: lifecycle ticks per window
// tickInterval: simulation seconds per lifecycle tick
func NewCollector(windowTicks int, tickInterval float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowTicks:  int32(windowTicks),
		tickInterval: tickInterval,
	}
}

// RecordBirth records a birth and the number of genes that mutated.
func (c *Collector) RecordBirth(mutations int) {
	c.births++
	c.mutations += mutations
}

// RecordDeath records a death.
func (c *Collector) RecordDeath(starved bool) {
	c.deaths++
	if starved {
		c.starvations++
	}
}

// RecordFoodEaten records food eaten off the ground.
func (c *Collector) RecordFoodEaten() {
	c.foodEaten++
}

// RecordFoodPickedUp records food carried away as a reserve.
func (c *Collector) RecordFoodPickedUp() {
	c.foodPickedUp++
}

// RecordReserveEaten records a creature eating its carried food.
func (c *Collector) RecordReserveEaten() {
	c.reservesEaten++
}

// RecordSpeciesEvents records species founded and species gone extinct.
func (c *Collector) RecordSpeciesEvents(created, extinct int) {
	c.newSpecies += created
	c.extinctions += extinct
}

// RecordDistance adds ground distance walked.
func (c *Collector) RecordDistance(d float64) {
	c.distance += d
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// PopulationSample is the world state sampled at the end of a window.
type PopulationSample struct {
	Calendar    string
	Food        int
	Species     int
	Energies    []float64
	Ages        []float64
	Chromosomes []*genetics.Chromosome
	Bounds      *genetics.Bounds
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, sample PopulationSample) WindowStats {
	energy := ComputeDistribution(sample.Energies)
	age := ComputeDistribution(sample.Ages)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.tickInterval,
		Calendar:        sample.Calendar,

		Population: len(sample.Chromosomes),
		Food:       sample.Food,
		Species:    sample.Species,

		Births:        c.births,
		Deaths:        c.deaths,
		Starvations:   c.starvations,
		Mutations:     c.mutations,
		FoodEaten:     c.foodEaten,
		FoodPickedUp:  c.foodPickedUp,
		ReservesEaten: c.reservesEaten,
		NewSpecies:    c.newSpecies,
		Extinctions:   c.extinctions,
		Distance:      c.distance,

		EnergyMean: energy.Mean,
		EnergyStd:  energy.Std,
		EnergyP10:  energy.P10,
		EnergyP50:  energy.P50,
		EnergyP90:  energy.P90,

		AgeMean: age.Mean,
		AgeMax:  age.Max,
	}

	if genes := genetics.Summarize(sample.Chromosomes); genes != nil {
		stats.SpeedMean = genes[genetics.Speed].Mean
		stats.SizeMean = genes[genetics.Size].Mean
		stats.SensoryRangeMean = genes[genetics.SensoryRange].Mean
		stats.MetabolismMean = genes[genetics.MetabolicEfficiency].Mean
		stats.GreedinessMean = genes[genetics.Greediness].Mean
		stats.ThriftinessMean = genes[genetics.Thriftiness].Mean
		stats.ReplicationMean = genes[genetics.ReplicationChance].Mean
		stats.DeathChanceMean = genes[genetics.DeathChance].Mean
		if sample.Bounds != nil {
			stats.GeneDiversity = genetics.Diversity(genes, sample.Bounds)
		}
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.births = 0
	c.deaths = 0
	c.starvations = 0
	c.mutations = 0
	c.foodEaten = 0
	c.foodPickedUp = 0
	c.reservesEaten = 0
	c.newSpecies = 0
	c.extinctions = 0
	c.distance = 0

	return stats
}

// WindowTicks returns the number of lifecycle ticks per window.
func (c *Collector) WindowTicks() int32 {
	return c.windowTicks
}
