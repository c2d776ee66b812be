package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/critters/genetics"
)

func TestCollector_ShouldFlush(t *testing.T) {
	c := NewCollector(10, 1.0)

	if c.ShouldFlush(9) {
		t.Error("should not flush before the window is full")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush once the window is full")
	}

	c.Flush(10, PopulationSample{})
	if c.ShouldFlush(15) {
		t.Error("window should restart from the flush tick")
	}
	if !c.ShouldFlush(20) {
		t.Error("should flush at the end of the second window")
	}
}

func TestCollector_Flush(t *testing.T) {
	c := NewCollector(5, 0.5)

	c.RecordBirth(2)
	c.RecordBirth(0)
	c.RecordDeath(true)
	c.RecordDeath(false)
	c.RecordDeath(false)
	c.RecordFoodEaten()
	c.RecordFoodPickedUp()
	c.RecordReserveEaten()
	c.RecordSpeciesEvents(3, 1)
	c.RecordDistance(1.5)
	c.RecordDistance(2.5)

	bounds := genetics.DefaultBounds()
	slow := make([]float64, genetics.NumGenes)
	fast := make([]float64, genetics.NumGenes)
	slow[genetics.Speed] = 1
	fast[genetics.Speed] = 3

	stats := c.Flush(10, PopulationSample{
		Calendar: "0000/01/01 06:00:00.00",
		Food:     7,
		Species:  2,
		Energies: []float64{10, 30},
		Ages:     []float64{2, 4},
		Chromosomes: []*genetics.Chromosome{
			genetics.FromValues(slow, &bounds),
			genetics.FromValues(fast, &bounds),
		},
		Bounds: &bounds,
	})

	if stats.WindowEndTick != 10 || stats.SimTimeSec != 5 {
		t.Errorf("window end/sim time = %d/%v, want 10/5", stats.WindowEndTick, stats.SimTimeSec)
	}
	if stats.Population != 2 || stats.Food != 7 || stats.Species != 2 {
		t.Errorf("counts = %d/%d/%d, want 2/7/2", stats.Population, stats.Food, stats.Species)
	}
	if stats.Births != 2 || stats.Mutations != 2 {
		t.Errorf("births/mutations = %d/%d, want 2/2", stats.Births, stats.Mutations)
	}
	if stats.Deaths != 3 || stats.Starvations != 1 {
		t.Errorf("deaths/starvations = %d/%d, want 3/1", stats.Deaths, stats.Starvations)
	}
	if stats.FoodEaten != 1 || stats.FoodPickedUp != 1 || stats.ReservesEaten != 1 {
		t.Errorf("feeding = %d/%d/%d, want 1/1/1", stats.FoodEaten, stats.FoodPickedUp, stats.ReservesEaten)
	}
	if stats.NewSpecies != 3 || stats.Extinctions != 1 {
		t.Errorf("species events = %d/%d, want 3/1", stats.NewSpecies, stats.Extinctions)
	}
	if stats.Distance != 4 {
		t.Errorf("distance = %v, want 4", stats.Distance)
	}
	if stats.EnergyMean != 20 || stats.AgeMax != 4 {
		t.Errorf("energy mean/age max = %v/%v, want 20/4", stats.EnergyMean, stats.AgeMax)
	}
	if math.Abs(stats.SpeedMean-2) > 1e-9 {
		t.Errorf("speed mean = %v, want 2", stats.SpeedMean)
	}
	if stats.GeneDiversity <= 0 {
		t.Errorf("gene diversity = %v, want > 0", stats.GeneDiversity)
	}

	next := c.Flush(15, PopulationSample{})
	if next.Births != 0 || next.Deaths != 0 || next.Distance != 0 || next.NewSpecies != 0 {
		t.Errorf("counters should reset after flush, got %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("WindowStartTick = %d, want 10", next.WindowStartTick)
	}
	if next.Population != 0 || next.SpeedMean != 0 {
		t.Error("empty sample should give zero population stats")
	}
}
