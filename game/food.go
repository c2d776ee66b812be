package game

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/systems"
	"github.com/pthm-cable/critters/telemetry"
	"github.com/pthm-cable/critters/world"
)

// foodIndex serves food lookups to creature systems from a spatial grid
// rebuilt once per step.
type foodIndex struct {
	grid    *systems.SpatialGrid
	world   *ecs.World
	posMap  *ecs.Map1[components.Position]
	foodMap *ecs.Map1[components.Food]
	buf     []systems.Neighbor
}

func newFoodIndex(bounds world.Bounds3D, cellSize float64, w *ecs.World, posMap *ecs.Map1[components.Position], foodMap *ecs.Map1[components.Food]) *foodIndex {
	return &foodIndex{
		grid:    systems.NewSpatialGrid(bounds, cellSize),
		world:   w,
		posMap:  posMap,
		foodMap: foodMap,
		buf:     make([]systems.Neighbor, 0, 32),
	}
}

// rebuild re-indexes all food that can still be targeted.
func (f *foodIndex) rebuild(filter *ecs.Filter2[components.Position, components.Food]) {
	f.grid.Clear()
	query := filter.Query()
	for query.Next() {
		pos, food := query.Get()
		if food.Gone() {
			continue
		}
		f.grid.Insert(query.Entity(), pos.X, pos.Z)
	}
}

// Near returns food within radius of (x, z). The slice is reused by the
// next call.
func (f *foodIndex) Near(x, z, radius float64) []systems.Neighbor {
	f.buf = f.grid.QueryRadiusInto(f.buf[:0], x, z, radius, f.posMap)
	return f.buf
}

func (f *foodIndex) Position(e ecs.Entity) (world.Vec3, bool) {
	if !f.world.Alive(e) {
		return world.Vec3{}, false
	}
	pos := f.posMap.Get(e)
	if pos == nil {
		return world.Vec3{}, false
	}
	return pos.Vec3, true
}

func (f *foodIndex) Gone(e ecs.Entity) bool {
	if !f.world.Alive(e) {
		return true
	}
	food := f.foodMap.Get(e)
	return food == nil || food.Gone()
}

// spawnInitialFood fills the world up to the food limit.
func (g *Game) spawnInitialFood() {
	for i := 0; i < g.cfg.Food.MaxFood; i++ {
		g.spawnFoodAt(g.fertility.SamplePoint(g.rng, g.bounds, g.cfg.Food.SpawnAttempts))
	}
}

// spawnFood adds one piece of food per tick while below the limit.
func (g *Game) spawnFood() {
	g.perfCollector.StartPhase(telemetry.PhaseFood)
	if g.foodCount >= g.cfg.Food.MaxFood {
		return
	}
	g.spawnFoodAt(g.fertility.SamplePoint(g.rng, g.bounds, g.cfg.Food.SpawnAttempts))
}

func (g *Game) spawnFoodAt(p world.Vec3) ecs.Entity {
	pos := components.Position{Vec3: p}
	food := components.Food{
		Fillingness: g.cfg.Food.Fillingness,
		SpawnTick:   g.tick,
	}
	g.foodCount++
	return g.foodMapper.NewEntity(&pos, &food)
}

// removeGoneFood deletes food that was eaten or picked up this step.
func (g *Game) removeGoneFood() {
	var gone []ecs.Entity
	query := g.foodFilter.Query()
	for query.Next() {
		_, food := query.Get()
		if food.Gone() {
			gone = append(gone, query.Entity())
		}
	}

	for _, e := range gone {
		g.world.RemoveEntity(e)
	}
	g.foodCount -= len(gone)
}
