package genetics

import (
	"math"
	"math/rand"
)

// Chromosome is a fixed set of gene values, each kept within its bounds.
type Chromosome struct {
	genes [NumGenes]float64
}

// NewChromosome samples every gene uniformly within its bounds.
func NewChromosome(rng *rand.Rand, bounds *Bounds) *Chromosome {
	c := &Chromosome{}
	for i := range c.genes {
		c.genes[i] = sample(rng, bounds[i])
	}
	return c
}

// FromValues builds a chromosome from raw values, clipping each into bounds.
func FromValues(values []float64, bounds *Bounds) *Chromosome {
	c := &Chromosome{}
	for i := range c.genes {
		if i < len(values) {
			c.genes[i] = bounds[i].Clip(values[i])
		} else {
			c.genes[i] = bounds[i].Min
		}
	}
	return c
}

// Copy returns an independent copy.
func (c *Chromosome) Copy() *Chromosome {
	cp := *c
	return &cp
}

// Get returns the value of gene g.
func (c *Chromosome) Get(g Gene) float64 {
	return c.genes[g]
}

// Set assigns gene g, clipped into bounds.
func (c *Chromosome) Set(g Gene, v float64, bounds *Bounds) {
	c.genes[g] = bounds[g].Clip(v)
}

// Values returns the genes in index order.
func (c *Chromosome) Values() []float64 {
	out := make([]float64, NumGenes)
	copy(out, c.genes[:])
	return out
}

// Mutate resamples each gene with probability equal to the chromosome's
// current mutation chance. The chance is read per gene, so once the
// mutation chance gene itself mutates, later genes use the new value.
// With sigma > 0 a mutated gene is perturbed by Gaussian noise of sigma times
// its range instead of being resampled.
func (c *Chromosome) Mutate(rng *rand.Rand, bounds *Bounds, sigma float64) int {
	mutated := 0
	for i := range c.genes {
		if rng.Float64() >= c.genes[MutationChance] {
			continue
		}
		r := bounds[i]
		if sigma > 0 {
			c.genes[i] = r.Clip(c.genes[i] + rng.NormFloat64()*sigma*r.Span())
		} else {
			c.genes[i] = sample(rng, r)
		}
		mutated++
	}
	return mutated
}

// Similarity returns 1 minus the mean range-normalised absolute gene difference.
// Identical chromosomes score 1, opposite extremes on every gene score 0.
func (c *Chromosome) Similarity(other *Chromosome, bounds *Bounds) float64 {
	var diff float64
	n := 0
	for i := range c.genes {
		span := bounds[i].Span()
		if span <= 0 {
			continue
		}
		diff += math.Abs(c.genes[i]-other.genes[i]) / span
		n++
	}
	if n == 0 {
		return 1
	}
	return 1 - diff/float64(n)
}

// Within reports whether every gene lies within bounds.
func (c *Chromosome) Within(bounds *Bounds) bool {
	for i, v := range c.genes {
		if !bounds[i].Contains(v) {
			return false
		}
	}
	return true
}

// IsGreedy reports whether greediness exceeds half its maximum.
func (c *Chromosome) IsGreedy(bounds *Bounds) bool {
	return c.genes[Greediness] > 0.5*bounds[Greediness].Max
}

// Colour returns the RGB colour genes.
func (c *Chromosome) Colour() (r, g, b float64) {
	return c.genes[ColourRed], c.genes[ColourGreen], c.genes[ColourBlue]
}

func sample(rng *rand.Rand, r Range) float64 {
	if r.Span() <= 0 {
		return r.Min
	}
	return r.Min + rng.Float64()*r.Span()
}
