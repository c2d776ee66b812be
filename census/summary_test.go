package census

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/critters/genetics"
)

func TestSummarize(t *testing.T) {
	chrom := testChromosome()
	c := Census{ID: 3, Tick: 30, Calendar: "cal", Participants: []Participant{
		{CreatureID: 1, SpeciesID: 2, Age: 2, Chromosome: chrom},
		{CreatureID: 2, SpeciesID: 1, Age: 4, Chromosome: chrom},
		{CreatureID: 3, SpeciesID: 1, Age: 6, Chromosome: chrom},
	}}

	s := Summarize(9, c, map[int]string{1: "Lazy Lurker", 2: "Bold Browser"})

	assert.Equal(t, int64(9), s.RunID)
	assert.Equal(t, 3, s.Population)
	assert.InDelta(t, 4.0, s.MeanAge, 1e-9)

	require.Len(t, s.Species, 2)
	assert.Equal(t, SpeciesCount{ID: 1, Name: "Lazy Lurker", Count: 2}, s.Species[0])
	assert.Equal(t, SpeciesCount{ID: 2, Name: "Bold Browser", Count: 1}, s.Species[1])

	require.Len(t, s.Genes, int(genetics.NumGenes))
	assert.Equal(t, "speed", s.Genes[genetics.Speed].Gene)
	assert.InDelta(t, chrom.Get(genetics.Speed), s.Genes[genetics.Speed].Mean, 1e-9)
	assert.Zero(t, s.Genes[genetics.Speed].Std)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(1, Census{ID: 1}, nil)
	assert.Zero(t, s.Population)
	assert.Empty(t, s.Species)
	assert.Empty(t, s.Genes)
}
