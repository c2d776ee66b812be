package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/genetics"
	"github.com/pthm-cable/critters/world"
)

// foodBoxScale is the food box edge relative to the collision size.
const foodBoxScale = 0.5

// Params holds the constants creature systems read every step.
type Params struct {
	StartingEnergy float64
	ArriveEpsilon  float64
	CollisionSize  float64
	World          world.Bounds3D
	Genes          *genetics.Bounds
}

// ParamsFromConfig builds creature parameters from config.
func ParamsFromConfig(cfg *config.Config, genes *genetics.Bounds) Params {
	return Params{
		StartingEnergy: cfg.Creature.StartingEnergy,
		ArriveEpsilon:  cfg.Creature.ArriveEpsilon,
		CollisionSize:  cfg.Creature.CollisionSize,
		World:          world.NewWorldBounds(cfg.World.Width, cfg.World.Height, cfg.World.Depth),
		Genes:          genes,
	}
}

// FoodIndex gives creature systems read access to food on the ground.
type FoodIndex interface {
	// Near returns food within radius of (x, z) on the ground plane.
	Near(x, z, radius float64) []Neighbor
	// Position returns where a food entity lies, or false if it no longer exists.
	Position(e ecs.Entity) (world.Vec3, bool)
	// Gone reports whether a food entity was eaten, picked up or removed.
	Gone(e ecs.Entity) bool
}

// SpawnPosition lifts a ground point so a creature of the chromosome's size
// rests on the ground.
func SpawnPosition(ground world.Vec3, chrom *genetics.Chromosome) world.Vec3 {
	ground.Y = 0.5 * (chrom.Get(genetics.Size) - 1)
	return ground
}

// ShouldRest reports whether a creature has enough energy and a food reserve
// and is not greedy.
func ShouldRest(vit *components.Vitals, org *components.Organism, chrom *genetics.Chromosome, p Params) bool {
	return vit.Energy > p.StartingEnergy && org.HoldingFood && !chrom.IsGreedy(p.Genes)
}

// UpdateBehavior runs one creature's decision and movement step.
// It returns the distance moved.
func UpdateBehavior(
	rng *rand.Rand,
	pos *components.Position,
	mot *components.Motion,
	vit *components.Vitals,
	org *components.Organism,
	chrom *genetics.Chromosome,
	foods FoodIndex,
	p Params,
	delta float64,
) float64 {
	// Target eaten or picked up by another creature.
	if mot.HasTarget && foods.Gone(mot.Target) {
		mot.ClearGoal()
	}

	if ShouldRest(vit, org, chrom, p) {
		mot.ClearGoal()
	} else if !mot.HasTarget {
		LookForFood(rng, pos, mot, chrom, foods)
		if !mot.HasTarget && !mot.HasDestination {
			mot.Destination = Scout(rng, pos.Vec3, chrom, p)
			mot.HasDestination = true
		}
	}

	if !mot.HasDestination {
		return 0
	}
	return MoveTowardsDestination(pos, mot, vit, chrom, p, delta)
}

// LookForFood targets a random food within sensory range. If none is in
// range the target is cleared and any destination is kept.
func LookForFood(rng *rand.Rand, pos *components.Position, mot *components.Motion, chrom *genetics.Chromosome, foods FoodIndex) {
	candidates := foods.Near(pos.X, pos.Z, chrom.Get(genetics.SensoryRange))

	// Drop anything already claimed this step
	live := candidates[:0]
	for _, c := range candidates {
		if !foods.Gone(c.E) {
			live = append(live, c)
		}
	}

	if len(live) == 0 {
		mot.HasTarget = false
		mot.Target = ecs.Entity{}
		return
	}

	pick := live[rng.Intn(len(live))]
	fp, ok := foods.Position(pick.E)
	if !ok {
		mot.HasTarget = false
		return
	}
	mot.Target = pick.E
	mot.HasTarget = true
	mot.Destination = world.Vec3{X: fp.X, Y: pos.Y, Z: fp.Z}
	mot.HasDestination = true
}

// Scout picks a point one sensory range away on each ground axis, in a random
// direction per axis, clipped to the world.
func Scout(rng *rand.Rand, pos world.Vec3, chrom *genetics.Chromosome, p Params) world.Vec3 {
	r := chrom.Get(genetics.SensoryRange)
	dest := world.Vec3{
		X: pos.X + randomSign(rng)*r - 1,
		Y: pos.Y,
		Z: pos.Z + randomSign(rng)*r - 1,
	}
	return p.World.Clip(dest)
}

func randomSign(rng *rand.Rand) float64 {
	if rng.Float64() < 0.5 {
		return -1
	}
	return 1
}

// MoveTowardsDestination steps along the ground towards the destination by at
// most speed*delta, paying delta * step² * size² energy. Arrival clears the goal.
func MoveTowardsDestination(pos *components.Position, mot *components.Motion, vit *components.Vitals, chrom *genetics.Chromosome, p Params, delta float64) float64 {
	step := mot.Destination.Sub(pos.Vec3)
	step.Y = 0
	step = step.ClampLen(chrom.Get(genetics.Speed) * delta)

	pos.Vec3 = pos.Add(step)

	dist := step.Len()
	size := chrom.Get(genetics.Size)
	vit.Energy -= delta * dist * dist * size * size

	if groundDist(pos.Vec3, mot.Destination) < p.ArriveEpsilon {
		mot.ClearGoal()
	}
	return dist
}

func groundDist(a, b world.Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

// CreatureBox returns the collision box of a creature.
func CreatureBox(pos world.Vec3, chrom *genetics.Chromosome, p Params) world.AABB {
	return world.NewCube(pos, chrom.Get(genetics.Size)*p.CollisionSize)
}

// FoodBox returns the collision box of a piece of food.
func FoodBox(pos world.Vec3, p Params) world.AABB {
	return world.NewCube(pos, foodBoxScale*p.CollisionSize)
}

// TouchingFood returns live food whose box intersects the creature's box.
func TouchingFood(pos world.Vec3, chrom *genetics.Chromosome, foods FoodIndex, p Params) []ecs.Entity {
	box := CreatureBox(pos, chrom, p)
	edge := box.Size.X
	// Boxes extend from their minimum corner, so search around the centre.
	cx, cz := pos.X+0.5*edge, pos.Z+0.5*edge
	radius := edge + foodBoxScale*p.CollisionSize

	var out []ecs.Entity
	for _, n := range foods.Near(cx, cz, radius) {
		if foods.Gone(n.E) {
			continue
		}
		fp, ok := foods.Position(n.E)
		if !ok {
			continue
		}
		if box.Intersects(FoodBox(fp, p)) {
			out = append(out, n.E)
		}
	}
	return out
}
