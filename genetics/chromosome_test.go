package genetics

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/critters/config"
)

func TestNewChromosomeWithinBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	bounds := DefaultBounds()

	for i := 0; i < 200; i++ {
		c := NewChromosome(rng, &bounds)
		if !c.Within(&bounds) {
			t.Fatalf("sample %d out of bounds: %v", i, c.Values())
		}
	}
}

func TestMutateKeepsBounds(t *testing.T) {
	bounds := DefaultBounds()

	for _, sigma := range []float64{0, 0.1, 5} {
		rng := rand.New(rand.NewSource(7))
		c := NewChromosome(rng, &bounds)
		c.Set(MutationChance, 1, &bounds)
		for i := 0; i < 100; i++ {
			c.Mutate(rng, &bounds, sigma)
			if !c.Within(&bounds) {
				t.Fatalf("sigma=%v iteration %d out of bounds: %v", sigma, i, c.Values())
			}
		}
	}
}

func TestMutateZeroChanceIsNoop(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bounds := DefaultBounds()
	c := NewChromosome(rng, &bounds)
	c.Set(MutationChance, 0, &bounds)
	before := c.Values()

	if n := c.Mutate(rng, &bounds, 0); n != 0 {
		t.Errorf("mutated %d genes with zero chance", n)
	}
	after := c.Values()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("gene %s changed: %v -> %v", Gene(i), before[i], after[i])
		}
	}
}

func TestMutateUsesCurrentMutationChance(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bounds := DefaultBounds()
	bounds[MutationChance] = Range{Min: 0, Max: 0}
	c := NewChromosome(rng, &bounds)
	c.genes[MutationChance] = 1
	before := c.Values()

	// Genes up to and including the mutation chance mutate at rate 1; the
	// resampled chance is 0, so no later gene changes.
	if n := c.Mutate(rng, &bounds, 0); n != int(MutationChance)+1 {
		t.Errorf("mutated %d genes, want %d", n, int(MutationChance)+1)
	}
	after := c.Values()
	for i := int(MutationChance) + 1; i < int(NumGenes); i++ {
		if before[i] != after[i] {
			t.Errorf("gene %s changed after mutation chance dropped to 0: %v -> %v", Gene(i), before[i], after[i])
		}
	}
}

func TestMutateFullChanceAverage(t *testing.T) {
	bounds := DefaultBounds()
	const runs = 2000
	total := 0
	for seed := int64(0); seed < runs; seed++ {
		rng := rand.New(rand.NewSource(seed))
		c := NewChromosome(rng, &bounds)
		c.Set(MutationChance, 1, &bounds)
		total += c.Mutate(rng, &bounds, 0)
	}

	// Three genes always mutate, the remaining ten at a uniform [0,1] rate.
	want := float64(MutationChance) + 1 + float64(int(NumGenes)-int(MutationChance)-1)*0.5
	if avg := float64(total) / runs; math.Abs(avg-want) > 0.5 {
		t.Errorf("average mutations = %.2f, want about %.1f", avg, want)
	}
}

func TestCopyIsIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	bounds := DefaultBounds()
	c := NewChromosome(rng, &bounds)
	cp := c.Copy()

	cp.Set(Speed, bounds[Speed].Max, &bounds)
	c.Set(Speed, bounds[Speed].Min, &bounds)
	if cp.Get(Speed) == c.Get(Speed) {
		t.Error("copy shares storage with original")
	}
}

func TestSimilarity(t *testing.T) {
	bounds := DefaultBounds()
	mins := make([]float64, NumGenes)
	maxs := make([]float64, NumGenes)
	for i, r := range bounds {
		mins[i] = r.Min
		maxs[i] = r.Max
	}
	low := FromValues(mins, &bounds)
	high := FromValues(maxs, &bounds)

	tests := []struct {
		name string
		a, b *Chromosome
		want float64
	}{
		{"identical", low, low.Copy(), 1},
		{"opposite", low, high, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.Similarity(tt.b, &bounds)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity = %v, want %v", got, tt.want)
			}
			if rev := tt.b.Similarity(tt.a, &bounds); math.Abs(rev-got) > 1e-12 {
				t.Errorf("similarity not symmetric: %v vs %v", got, rev)
			}
		})
	}

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		s := NewChromosome(rng, &bounds).Similarity(NewChromosome(rng, &bounds), &bounds)
		if s < 0 || s > 1 {
			t.Fatalf("similarity %v outside [0,1]", s)
		}
	}
}

func TestFromValuesClips(t *testing.T) {
	bounds := DefaultBounds()
	values := make([]float64, NumGenes)
	values[Speed] = 100
	values[DeathChance] = -1

	c := FromValues(values, &bounds)
	if c.Get(Speed) != bounds[Speed].Max {
		t.Errorf("speed = %v, want %v", c.Get(Speed), bounds[Speed].Max)
	}
	if c.Get(DeathChance) != bounds[DeathChance].Min {
		t.Errorf("death_chance = %v, want %v", c.Get(DeathChance), bounds[DeathChance].Min)
	}
}

func TestIsGreedy(t *testing.T) {
	bounds := DefaultBounds()
	c := FromValues(make([]float64, NumGenes), &bounds)

	c.Set(Greediness, 0.5, &bounds)
	if c.IsGreedy(&bounds) {
		t.Error("0.5 should not be greedy")
	}
	c.Set(Greediness, 0.51, &bounds)
	if !c.IsGreedy(&bounds) {
		t.Error("0.51 should be greedy")
	}
}

func TestBoundsFromConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	got := BoundsFromConfig(cfg.Genes)
	want := DefaultBounds()
	if got != want {
		t.Errorf("config bounds %v differ from defaults %v", got, want)
	}
}

func TestGeneString(t *testing.T) {
	if Speed.String() != "speed" {
		t.Errorf("Speed.String() = %q", Speed.String())
	}
	if Gene(99).String() != "unknown" {
		t.Errorf("out of range gene = %q", Gene(99).String())
	}
}
