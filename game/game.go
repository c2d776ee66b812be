// Package game runs the creature simulation: creatures foraging for food,
// metabolising, replicating and dying in a bounded world.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/census"
	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/engine"
	"github.com/pthm-cable/critters/genetics"
	"github.com/pthm-cable/critters/namegen"
	"github.com/pthm-cable/critters/species"
	"github.com/pthm-cable/critters/systems"
	"github.com/pthm-cable/critters/telemetry"
	"github.com/pthm-cable/critters/world"
)

// Options configures a new game.
type Options struct {
	Seed           int64
	LogStats       bool
	StatsWindow    int // lifecycle ticks per stats window, 0 = use config
	SnapshotDir    string
	OutputDir      string
	StepsPerUpdate int
	MaxTicks       int32 // 0 = unlimited

	// Census receives species, creatures and censuses. Nil discards them.
	Census census.Store

	// Config overrides the global config when set.
	Config *config.Config

	// StatsCallback is called with every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	world *ecs.World
	rng   *rand.Rand
	cfg   *config.Config
	seed  int64

	creatureMapper *ecs.Map5[
		components.Position,
		components.Motion,
		components.Vitals,
		components.Genome,
		components.Organism,
	]
	creatureFilter *ecs.Filter5[
		components.Position,
		components.Motion,
		components.Vitals,
		components.Genome,
		components.Organism,
	]
	foodMapper *ecs.Map2[components.Position, components.Food]
	foodFilter *ecs.Filter2[components.Position, components.Food]

	posMap  *ecs.Map1[components.Position]
	foodMap *ecs.Map1[components.Food]

	foods     *foodIndex
	fertility *world.FertilityField

	bounds world.Bounds3D
	genes  genetics.Bounds
	params systems.Params
	ticker *engine.Ticker
	clock  *engine.Clock

	registry *species.Registry
	names    *namegen.Generator

	censusStore  census.Store
	nextCensusID int

	// State
	tick           int32
	nextID         uint32
	population     int
	foodCount      int
	stepsPerUpdate int
	maxTicks       int32

	// Births and deaths since the population logger last ran
	stepBirths int
	stepDeaths int

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	lifetimeTracker  *telemetry.LifetimeTracker
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	populationLogger *telemetry.PopulationLogger
	logStats         bool
	snapshotDir      string
	statsCallback    func(telemetry.WindowStats)
}

// NewGame creates a game with default options.
func NewGame() *Game {
	g, err := NewGameWithOptions(Options{StepsPerUpdate: 1})
	if err != nil {
		panic(fmt.Sprintf("game: %v", err))
	}
	return g
}

// NewGameWithOptions creates a game, spawning the initial creatures and food.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	statsWindow := opts.StatsWindow
	if statsWindow <= 0 {
		statsWindow = cfg.Telemetry.StatsWindow
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}
	store := opts.Census
	if store == nil {
		store = census.NopStore{}
	}

	w := ecs.NewWorld()
	g := &Game{
		world: w,
		rng:   rng,
		cfg:   cfg,
		seed:  seed,
		creatureMapper: ecs.NewMap5[
			components.Position,
			components.Motion,
			components.Vitals,
			components.Genome,
			components.Organism,
		](w),
		creatureFilter: ecs.NewFilter5[
			components.Position,
			components.Motion,
			components.Vitals,
			components.Genome,
			components.Organism,
		](w),
		foodMapper: ecs.NewMap2[components.Position, components.Food](w),
		foodFilter: ecs.NewFilter2[components.Position, components.Food](w),
		posMap:     ecs.NewMap1[components.Position](w),
		foodMap:    ecs.NewMap1[components.Food](w),

		bounds:    world.NewWorldBounds(cfg.World.Width, cfg.World.Height, cfg.World.Depth),
		genes:     genetics.BoundsFromConfig(cfg.Genes),
		fertility: world.NewFertilityField(seed, cfg.Fertility),
		ticker:    engine.NewTicker(cfg.Simulation.TickInterval),
		clock:     engine.NewClock(cfg.Clock.DayLength, cfg.Clock.StartHour),
		names:     namegen.New(rng),

		censusStore:    store,
		nextID:         1,
		nextCensusID:   1,
		stepsPerUpdate: steps,
		maxTicks:       opts.MaxTicks,

		collector:        telemetry.NewCollector(statsWindow, cfg.Simulation.TickInterval),
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		lifetimeTracker:  telemetry.NewLifetimeTracker(),
		bookmarkDetector: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistorySize, cfg.Bookmarks),
		populationLogger: telemetry.NewPopulationLogger(cfg.Simulation.TickInterval, cfg.Telemetry.EMAAlpha),
		logStats:         opts.LogStats,
		snapshotDir:      opts.SnapshotDir,
		statsCallback:    opts.StatsCallback,
	}
	g.params = systems.ParamsFromConfig(cfg, &g.genes)
	g.registry = species.NewRegistry(&g.genes, cfg.Species.SimilarityThreshold, g.names.UniqueRandom)
	g.foods = newFoodIndex(g.bounds, cfg.Food.GridCellSize, w, g.posMap, g.foodMap)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	// Order matters: the tick counter advances before anything reads it.
	g.ticker.Subscribe(engine.SubscriberFunc(g.advanceTick))
	g.ticker.Subscribe(engine.SubscriberFunc(g.tickCreatures))
	g.ticker.Subscribe(engine.SubscriberFunc(g.spawnFood))
	g.ticker.Subscribe(engine.SubscriberFunc(g.takeCensusOnInterval))
	g.ticker.Subscribe(engine.SubscriberFunc(g.flushTelemetry))

	g.spawnInitialFood()
	g.spawnInitialPopulation()

	return g, nil
}

// Step advances the simulation by dt seconds. It reports whether the
// simulation should keep running.
func (g *Game) Step(dt float64) bool {
	g.simulationStep(dt)
	return g.maxTicks <= 0 || g.tick < g.maxTicks
}

// UpdateHeadless runs StepsPerUpdate fixed steps without waiting.
func (g *Game) UpdateHeadless() bool {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if !g.Step(g.cfg.Simulation.DT) {
			return false
		}
	}
	return true
}

// simulationStep runs one fixed update.
func (g *Game) simulationStep(dt float64) {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseFoodGrid)
	g.foods.rebuild(g.foodFilter)

	g.perfCollector.StartPhase(telemetry.PhaseBehavior)
	g.updateBehavior(dt)

	g.perfCollector.StartPhase(telemetry.PhaseCollision)
	g.updateCollisions()

	// Lifecycle subscribers time their own phases
	g.ticker.Update(dt)

	g.perfCollector.StartPhase(telemetry.PhaseFood)
	g.removeGoneFood()

	g.perfCollector.StartPhase(telemetry.PhaseReproduction)
	g.cleanupDead()
	g.updateReproduction()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordSpeciesEvents(g.registry.DrainEvents())
	if stats, ok := g.populationLogger.Update(dt, g.population, g.stepBirths, g.stepDeaths); ok && g.logStats {
		slog.Info("population", "stats", stats)
	}
	g.stepBirths, g.stepDeaths = 0, 0
	g.clock.Update(dt)

	g.perfCollector.EndTick()
}

func (g *Game) advanceTick() {
	g.tick++
}

// Close flushes output files and the census store.
func (g *Game) Close(ctx context.Context) error {
	var errs []error
	if err := g.writeSpeciesSummary(); err != nil {
		errs = append(errs, err)
	}
	if err := g.outputManager.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := g.censusStore.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Tick returns the number of lifecycle ticks so far.
func (g *Game) Tick() int32 {
	return g.tick
}

// Seed returns the RNG seed the game was created with.
func (g *Game) Seed() int64 {
	return g.seed
}

// Population returns the number of living creatures.
func (g *Game) Population() int {
	return g.population
}

// FoodCount returns the number of food items on the ground.
func (g *Game) FoodCount() int {
	return g.foodCount
}

// Species returns the species registry.
func (g *Game) Species() *species.Registry {
	return g.registry
}

// Clock returns the calendar clock.
func (g *Game) Clock() *engine.Clock {
	return g.clock
}

// Bounds returns the world bounds.
func (g *Game) Bounds() world.Bounds3D {
	return g.bounds
}
