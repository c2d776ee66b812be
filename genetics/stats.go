package genetics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GeneSummary describes one gene across a population.
type GeneSummary struct {
	Gene string  `json:"gene"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Summarize computes per-gene statistics over a population, in gene order.
// It returns nil for an empty population.
func Summarize(chroms []*Chromosome) []GeneSummary {
	if len(chroms) == 0 {
		return nil
	}

	column := make([]float64, len(chroms))
	out := make([]GeneSummary, NumGenes)
	for g := Gene(0); g < NumGenes; g++ {
		for i, c := range chroms {
			column[i] = c.genes[g]
		}
		mean, std := stat.PopMeanStdDev(column, nil)
		out[g] = GeneSummary{
			Gene: g.String(),
			Mean: mean,
			Std:  std,
			Min:  floats.Min(column),
			Max:  floats.Max(column),
		}
	}
	return out
}

// Diversity returns the mean range-normalised standard deviation across
// genes: 0 for a clonal population, larger for a varied one.
func Diversity(summaries []GeneSummary, bounds *Bounds) float64 {
	if len(summaries) == 0 {
		return 0
	}
	normalised := make([]float64, 0, len(summaries))
	for g, s := range summaries {
		span := bounds[g].Span()
		if span <= 0 {
			continue
		}
		normalised = append(normalised, s.Std/span)
	}
	if len(normalised) == 0 {
		return 0
	}
	return stat.Mean(normalised, nil)
}
