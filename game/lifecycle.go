package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/census"
	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/genetics"
	"github.com/pthm-cable/critters/systems"
	"github.com/pthm-cable/critters/telemetry"
	"github.com/pthm-cable/critters/world"
)

// spawnInitialPopulation creates the founding creatures with random genes.
func (g *Game) spawnInitialPopulation() {
	n := g.cfg.Creature.Initial
	if n > g.cfg.Creature.MaxCreatures {
		n = g.cfg.Creature.MaxCreatures
	}
	for i := 0; i < n; i++ {
		chrom := genetics.NewChromosome(g.rng, &g.genes)
		pos := systems.SpawnPosition(g.bounds.SampleGround(g.rng), chrom)
		vit := components.Vitals{
			Energy:    g.params.StartingEnergy,
			MaxEnergy: systems.MaxEnergy(chrom, g.params),
		}
		g.spawnCreature(chrom, pos, vit, components.Organism{})
	}
}

// spawnCreature creates a creature, assigns it to a species and reports it
// to the census store. Lineage and carried food are taken from org.
func (g *Game) spawnCreature(chrom *genetics.Chromosome, p world.Vec3, vit components.Vitals, org components.Organism) ecs.Entity {
	id := g.nextID
	g.nextID++

	sp, created := g.registry.Assign(id, chrom, g.tick)
	if created {
		g.censusStore.AddSpecies(census.Species{ID: sp.ID, Name: sp.Name})
	}
	g.censusStore.AddCreature(census.Creature{
		ID:         id,
		SpeciesID:  sp.ID,
		Age:        vit.Age,
		Chromosome: chrom,
	})

	pos := components.Position{Vec3: g.bounds.Clip(p)}
	mot := components.Motion{}
	genome := components.Genome{Chromosome: chrom}
	org.ID = id
	org.SpeciesID = sp.ID
	org.BirthTick = g.tick

	entity := g.creatureMapper.NewEntity(&pos, &mot, &vit, &genome, &org)
	g.population++

	g.lifetimeTracker.Register(id, g.tick, sp.ID, org.ParentID)
	g.lifetimeTracker.UpdateEnergy(id, vit.Energy)

	return entity
}

// tickCreatures runs the lifecycle tick for every creature.
func (g *Game) tickCreatures() {
	g.perfCollector.StartPhase(telemetry.PhaseLifecycle)

	query := g.creatureFilter.Query()
	for query.Next() {
		_, _, vit, genome, org := query.Get()

		wasDead := vit.Dead
		res := systems.TickVitals(g.rng, vit, org, genome.Chromosome, g.params)

		if res.Died && !wasDead {
			g.collector.RecordDeath(res.Starved)
		}
		if res.AteReserve {
			g.collector.RecordReserveEaten()
			g.lifetimeTracker.RecordReserveEaten(org.ID)
		}
		if !res.Died {
			g.lifetimeTracker.UpdateEnergy(org.ID, vit.Energy)
		}
	}
}

// cleanupDead removes dead creatures. Their species keeps them as past
// members.
func (g *Game) cleanupDead() {
	// First pass: collect dead entities (must complete before modifying)
	type deadInfo struct {
		entity    ecs.Entity
		id        uint32
		speciesID int
	}
	var toRemove []deadInfo

	query := g.creatureFilter.Query()
	for query.Next() {
		_, _, vit, _, org := query.Get()
		if vit.Dead {
			toRemove = append(toRemove, deadInfo{entity: query.Entity(), id: org.ID, speciesID: org.SpeciesID})
		}
	}

	// Second pass: remove entities (query iteration complete)
	for _, dead := range toRemove {
		g.registry.Remove(dead.speciesID, dead.id, g.tick)
		g.lifetimeTracker.Remove(dead.id)
		g.world.RemoveEntity(dead.entity)
		g.population--
		g.stepDeaths++
	}
}

// updateReproduction lets every creature with surplus energy replicate,
// up to the population cap.
func (g *Game) updateReproduction() {
	type birthInfo struct {
		parentID  uint32
		speciesID int
		birth     systems.Birth
	}
	var births []birthInfo

	maxCreatures := g.cfg.Creature.MaxCreatures

	query := g.creatureFilter.Query()
	for query.Next() {
		pos, _, vit, genome, org := query.Get()

		if !systems.ShouldReplicate(g.rng, vit, genome.Chromosome, g.params) {
			continue
		}
		if g.population+len(births)+1 > maxCreatures {
			continue
		}

		b := systems.Replicate(g.rng, pos.Vec3, vit, org, genome.Chromosome, g.params, g.cfg.Mutation.Sigma)
		births = append(births, birthInfo{parentID: org.ID, speciesID: org.SpeciesID, birth: b})
	}

	for _, bi := range births {
		b := bi.birth
		g.spawnCreature(b.Chromosome, b.Position, b.Vitals, components.Organism{
			ParentID:    bi.parentID,
			HeldFood:    b.HeldFood,
			HoldingFood: b.HoldingFood,
		})

		g.registry.RecordOffspring(bi.speciesID)
		g.collector.RecordBirth(b.Mutations)
		g.lifetimeTracker.RecordChild(bi.parentID)
		g.stepBirths++
	}
}
