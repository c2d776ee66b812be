package game

import (
	"github.com/pthm-cable/critters/systems"
)

// updateBehavior runs every living creature's decision and movement step and
// keeps it inside the world.
func (g *Game) updateBehavior(dt float64) {
	query := g.creatureFilter.Query()
	for query.Next() {
		pos, mot, vit, genome, org := query.Get()
		if vit.Dead {
			continue
		}

		dist := systems.UpdateBehavior(g.rng, pos, mot, vit, org, genome.Chromosome, g.foods, g.params, dt)
		pos.Vec3 = g.bounds.Clip(pos.Vec3)

		if dist > 0 {
			g.collector.RecordDistance(dist)
			g.lifetimeTracker.RecordDistance(org.ID, dist)
		}
	}
}

// updateCollisions resolves creatures touching food. Food claimed by one
// creature is gone for everyone after it in the same step.
func (g *Game) updateCollisions() {
	query := g.creatureFilter.Query()
	for query.Next() {
		pos, _, vit, genome, org := query.Get()
		if vit.Dead {
			continue
		}

		for _, e := range systems.TouchingFood(pos.Vec3, genome.Chromosome, g.foods, g.params) {
			food := g.foodMap.Get(e)
			switch systems.CollideFood(g.rng, vit, org, genome.Chromosome, food, g.params) {
			case systems.FoodEaten:
				g.collector.RecordFoodEaten()
				g.lifetimeTracker.RecordFoodEaten(org.ID)
			case systems.FoodPickedUp:
				g.collector.RecordFoodPickedUp()
				g.lifetimeTracker.RecordFoodPickedUp(org.ID)
			}
		}
		g.lifetimeTracker.UpdateEnergy(org.ID, vit.Energy)
	}
}
