package game

import (
	"log/slog"

	"github.com/pthm-cable/critters/genetics"
	"github.com/pthm-cable/critters/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.samplePopulation())
	perfStats := g.perfCollector.Stats()

	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
		if err := g.writeSpeciesSummary(); err != nil {
			slog.Error("failed to write species", "error", err)
		}
	}

	bookmarks := g.bookmarkDetector.Check(stats)
	for _, bm := range bookmarks {
		if g.logStats {
			bm.LogBookmark()
		}

		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}

		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// samplePopulation collects the living population for a stats window.
func (g *Game) samplePopulation() telemetry.PopulationSample {
	sample := telemetry.PopulationSample{
		Calendar:    g.clock.Timestamp(),
		Food:        g.foodCount,
		Species:     g.registry.Stats().Count,
		Energies:    make([]float64, 0, g.population),
		Ages:        make([]float64, 0, g.population),
		Chromosomes: make([]*genetics.Chromosome, 0, g.population),
		Bounds:      &g.genes,
	}

	query := g.creatureFilter.Query()
	for query.Next() {
		_, _, vit, genome, _ := query.Get()
		if vit.Dead {
			continue
		}
		sample.Energies = append(sample.Energies, vit.Energy)
		sample.Ages = append(sample.Ages, float64(vit.Age))
		sample.Chromosomes = append(sample.Chromosomes, genome.Chromosome)
	}
	return sample
}

// writeSpeciesSummary rewrites species.csv with every species seen so far.
func (g *Game) writeSpeciesSummary() error {
	if g.outputManager == nil {
		return nil
	}
	all := g.registry.All()
	rows := make([]telemetry.SpeciesRow, 0, len(all))
	for _, sp := range all {
		rows = append(rows, telemetry.SpeciesRow{
			ID:          sp.ID,
			Name:        sp.Name,
			Members:     sp.NumMembers(),
			PastMembers: sp.NumPastMembers(),
			Offspring:   sp.Offspring(),
			CreatedTick: sp.CreatedTick,
			ExtinctTick: sp.ExtinctTick,
		})
	}
	return g.outputManager.WriteSpecies(rows)
}

// saveSnapshot writes the current state, tagged with the bookmark if any.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := g.CreateSnapshot()
	snapshot.Bookmark = bookmark

	path, err := telemetry.SaveSnapshot(snapshot, g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}
	slog.Info("snapshot saved", "path", path, "tick", g.tick)
}

// CreateSnapshot captures creatures, food and species.
func (g *Game) CreateSnapshot() *telemetry.Snapshot {
	snapshot := &telemetry.Snapshot{
		Version:     telemetry.SnapshotVersion,
		RNGSeed:     g.seed,
		WorldWidth:  g.cfg.World.Width,
		WorldHeight: g.cfg.World.Height,
		WorldDepth:  g.cfg.World.Depth,
		Tick:        g.tick,
		Calendar:    g.clock.Timestamp(),
	}

	query := g.creatureFilter.Query()
	for query.Next() {
		pos, _, vit, genome, org := query.Get()
		snapshot.Creatures = append(snapshot.Creatures, telemetry.CreatureState{
			ID:          org.ID,
			SpeciesID:   org.SpeciesID,
			ParentID:    org.ParentID,
			X:           pos.X,
			Y:           pos.Y,
			Z:           pos.Z,
			Energy:      vit.Energy,
			MaxEnergy:   vit.MaxEnergy,
			Hunger:      vit.Hunger,
			Age:         vit.Age,
			HeldFood:    org.HeldFood,
			HoldingFood: org.HoldingFood,
			Genes:       genome.Chromosome.Values(),
			Lifetime:    g.lifetimeTracker.Get(org.ID).ToJSON(),
		})
	}

	foodQuery := g.foodFilter.Query()
	for foodQuery.Next() {
		pos, food := foodQuery.Get()
		if food.Gone() {
			continue
		}
		snapshot.Food = append(snapshot.Food, telemetry.FoodState{
			X:           pos.X,
			Z:           pos.Z,
			Fillingness: food.Fillingness,
			SpawnTick:   food.SpawnTick,
		})
	}

	for _, sp := range g.registry.All() {
		snapshot.Species = append(snapshot.Species, telemetry.SpeciesState{
			ID:               sp.ID,
			Name:             sp.Name,
			RepresentativeID: sp.RepresentativeID,
			Members:          sp.NumMembers(),
			PastMembers:      sp.NumPastMembers(),
			CreatedTick:      sp.CreatedTick,
			ExtinctTick:      sp.ExtinctTick,
		})
	}

	return snapshot
}
