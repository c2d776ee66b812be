// Package genetics provides the creature chromosome: bounded genes, sampling,
// mutation and similarity.
package genetics

import "github.com/pthm-cable/critters/config"

// Gene indexes a chromosome.
type Gene int

const (
	ReplicationChance Gene = iota
	DeathChance
	MutationChance
	Speed
	Size
	ColourRed
	ColourGreen
	ColourBlue
	MetabolicEfficiency
	SensoryRange
	Greediness
	Thriftiness
	Shininess

	NumGenes
)

var geneNames = [NumGenes]string{
	"replication_chance",
	"death_chance",
	"mutation_chance",
	"speed",
	"size",
	"colour_red",
	"colour_green",
	"colour_blue",
	"metabolic_efficiency",
	"sensory_range",
	"greediness",
	"thriftiness",
	"shininess",
}

// String returns the snake_case gene name.
func (g Gene) String() string {
	if g < 0 || g >= NumGenes {
		return "unknown"
	}
	return geneNames[g]
}

// AllGenes returns every gene in index order.
func AllGenes() []Gene {
	genes := make([]Gene, NumGenes)
	for i := range genes {
		genes[i] = Gene(i)
	}
	return genes
}

// Range is the closed interval a single gene may take.
type Range struct {
	Min, Max float64
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// Clip clamps v into the range.
func (r Range) Clip(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Contains reports whether v lies within the closed range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Bounds holds the range of every gene.
type Bounds [NumGenes]Range

// DefaultBounds returns the stock gene ranges.
func DefaultBounds() Bounds {
	return Bounds{
		ReplicationChance:   {0, 1},
		DeathChance:         {0.001, 1},
		MutationChance:      {0, 1},
		Speed:               {0.5, 8},
		Size:                {0.5, 2},
		ColourRed:           {0, 1},
		ColourGreen:         {0, 1},
		ColourBlue:          {0, 1},
		MetabolicEfficiency: {0.1, 2},
		SensoryRange:        {0, 32},
		Greediness:          {0, 1},
		Thriftiness:         {0, 1},
		Shininess:           {0, 1},
	}
}

// BoundsFromConfig builds gene bounds from the genes config section.
func BoundsFromConfig(cfg config.GenesConfig) Bounds {
	var b Bounds
	for i, r := range cfg.Ranges() {
		b[i] = Range{Min: r.Min, Max: r.Max}
	}
	return b
}
