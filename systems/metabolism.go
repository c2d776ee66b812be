package systems

import (
	"math"
	"math/rand"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/genetics"
	"github.com/pthm-cable/critters/world"
)

// MaxEnergy returns the energy cap for a creature: starting energy scaled by size.
func MaxEnergy(chrom *genetics.Chromosome, p Params) float64 {
	return p.StartingEnergy + chrom.Get(genetics.Size)*p.StartingEnergy
}

// Eat consumes food worth fill. Hunger drops by fill and energy rises by
// fill * metabolic efficiency, capped at the vitals' max energy.
func Eat(vit *components.Vitals, chrom *genetics.Chromosome, fill float64) {
	vit.Hunger = math.Max(0, vit.Hunger-fill)
	vit.Energy = math.Min(vit.Energy+fill*chrom.Get(genetics.MetabolicEfficiency), vit.MaxEnergy)
}

// TickResult reports what happened to a creature on a lifecycle tick.
type TickResult struct {
	Died       bool
	Starved    bool // died with no energy left
	AteReserve bool // ate the food it was carrying
}

// TickVitals advances a creature by one lifecycle tick: it ages, may die,
// eats its reserve when low on energy and pays its metabolic cost.
func TickVitals(rng *rand.Rand, vit *components.Vitals, org *components.Organism, chrom *genetics.Chromosome, p Params) TickResult {
	var res TickResult
	if vit.Dead {
		res.Died = true
		return res
	}

	vit.Age++

	if vit.Energy <= 0 {
		vit.Dead = true
		res.Died, res.Starved = true, true
		return res
	}
	if rng.Float64() < chrom.Get(genetics.DeathChance) {
		vit.Dead = true
		res.Died = true
		return res
	}

	if org.HoldingFood && vit.Energy < 0.5*p.StartingEnergy {
		Eat(vit, chrom, org.HeldFood)
		org.HoldingFood = false
		org.HeldFood = 0
		res.AteReserve = true
	}

	vit.Hunger += chrom.Get(genetics.MetabolicEfficiency)
	vit.Energy -= math.Log10(1 + vit.Hunger)
	return res
}

// FoodOutcome is the result of a creature touching food.
type FoodOutcome uint8

const (
	FoodIgnored FoodOutcome = iota
	FoodEaten
	FoodPickedUp
)

func (o FoodOutcome) String() string {
	switch o {
	case FoodEaten:
		return "eaten"
	case FoodPickedUp:
		return "picked_up"
	default:
		return "ignored"
	}
}

// CollideFood resolves a creature touching food. Hungry or spendthrift
// creatures eat it; the rest carry it as a reserve, replacing any reserve
// they already hold.
func CollideFood(rng *rand.Rand, vit *components.Vitals, org *components.Organism, chrom *genetics.Chromosome, food *components.Food, p Params) FoodOutcome {
	if food.Gone() {
		return FoodIgnored
	}

	if vit.Energy < p.StartingEnergy || rng.Float64() < 1-chrom.Get(genetics.Thriftiness) {
		Eat(vit, chrom, food.Fillingness)
		food.Eaten = true
		return FoodEaten
	}

	org.HeldFood = food.Fillingness
	org.HoldingFood = true
	food.PickedUp = true
	return FoodPickedUp
}

// ShouldReplicate reports whether a creature reproduces this tick.
func ShouldReplicate(rng *rand.Rand, vit *components.Vitals, chrom *genetics.Chromosome, p Params) bool {
	if vit.Dead || vit.Energy <= p.StartingEnergy {
		return false
	}
	return rng.Float64() < chrom.Get(genetics.ReplicationChance)
}

// Birth describes a child produced by Replicate.
type Birth struct {
	Chromosome  *genetics.Chromosome
	Position    world.Vec3
	Vitals      components.Vitals
	HeldFood    float64
	HoldingFood bool
	Mutations   int
}

// Replicate charges the parent half the starting energy and returns a mutated
// child at the parent's position with the other half. A non-greedy parent
// hands its food reserve to the child.
func Replicate(rng *rand.Rand, pos world.Vec3, vit *components.Vitals, org *components.Organism, chrom *genetics.Chromosome, p Params, sigma float64) Birth {
	childChrom := chrom.Copy()
	mutations := childChrom.Mutate(rng, p.Genes, sigma)

	half := 0.5 * p.StartingEnergy
	vit.Energy -= half
	org.Children++

	b := Birth{
		Chromosome: childChrom,
		Position:   SpawnPosition(pos, childChrom),
		Vitals: components.Vitals{
			Energy:    half,
			MaxEnergy: MaxEnergy(childChrom, p),
		},
		Mutations: mutations,
	}

	if org.HoldingFood && !chrom.IsGreedy(p.Genes) {
		b.HeldFood, b.HoldingFood = org.HeldFood, true
		org.HeldFood, org.HoldingFood = 0, false
	}
	return b
}
