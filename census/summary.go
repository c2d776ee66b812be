package census

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/critters/genetics"
)

// SpeciesCount is the number of living members of a species.
type SpeciesCount struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// GeneMean is the population mean and std of one gene.
type GeneMean struct {
	Gene string  `json:"gene"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Summary condenses a census for the live feed.
type Summary struct {
	RunID      int64          `json:"run_id"`
	CensusID   int            `json:"census_id"`
	Tick       int32          `json:"tick"`
	Calendar   string         `json:"calendar"`
	Population int            `json:"population"`
	MeanAge    float64        `json:"mean_age"`
	Species    []SpeciesCount `json:"species"`
	Genes      []GeneMean     `json:"genes"`
}

// Summarize counts species members (largest first) and averages genes.
func Summarize(runID int64, c Census, names map[int]string) Summary {
	s := Summary{
		RunID:      runID,
		CensusID:   c.ID,
		Tick:       c.Tick,
		Calendar:   c.Calendar,
		Population: len(c.Participants),
	}
	if len(c.Participants) == 0 {
		return s
	}

	counts := make(map[int]int)
	ages := make([]float64, 0, len(c.Participants))
	genes := make([][]float64, genetics.NumGenes)
	for _, p := range c.Participants {
		counts[p.SpeciesID]++
		ages = append(ages, float64(p.Age))
		if p.Chromosome == nil {
			continue
		}
		for g := range genes {
			genes[g] = append(genes[g], p.Chromosome.Get(genetics.Gene(g)))
		}
	}
	s.MeanAge = stat.Mean(ages, nil)

	for id, n := range counts {
		s.Species = append(s.Species, SpeciesCount{ID: id, Name: names[id], Count: n})
	}
	sort.Slice(s.Species, func(i, j int) bool {
		if s.Species[i].Count != s.Species[j].Count {
			return s.Species[i].Count > s.Species[j].Count
		}
		return s.Species[i].ID < s.Species[j].ID
	})

	if len(genes[0]) > 0 {
		for g, values := range genes {
			mean, std := stat.PopMeanStdDev(values, nil)
			s.Genes = append(s.Genes, GeneMean{Gene: genetics.Gene(g).String(), Mean: mean, Std: std})
		}
	}
	return s
}
