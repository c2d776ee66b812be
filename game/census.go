package game

import (
	"github.com/pthm-cable/critters/census"
	"github.com/pthm-cable/critters/telemetry"
)

func (g *Game) takeCensusOnInterval() {
	if g.tick%int32(g.cfg.Census.IntervalTicks) != 0 {
		return
	}
	g.perfCollector.StartPhase(telemetry.PhaseCensus)
	g.TakeCensus()
}

// TakeCensus records every living creature and hands the census to the
// census store. Census IDs start at 1 for each run.
func (g *Game) TakeCensus() census.Census {
	c := census.Census{
		ID:           g.nextCensusID,
		Tick:         g.tick,
		Calendar:     g.clock.Timestamp(),
		Participants: make([]census.Participant, 0, g.population),
	}
	g.nextCensusID++

	query := g.creatureFilter.Query()
	for query.Next() {
		_, _, vit, genome, org := query.Get()
		if vit.Dead {
			continue
		}
		c.Participants = append(c.Participants, census.Participant{
			CreatureID: org.ID,
			SpeciesID:  org.SpeciesID,
			Age:        vit.Age,
			Chromosome: genome.Chromosome,
		})
	}

	g.censusStore.AddCensus(c)
	return c
}
