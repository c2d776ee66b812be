package census

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
	"github.com/rotisserie/eris"

	"github.com/pthm-cable/critters/genetics"
)

// Row is one census participant in census.csv.
type Row struct {
	CensusID   int    `csv:"census_id"`
	Tick       int32  `csv:"tick"`
	Calendar   string `csv:"calendar"`
	CreatureID uint32 `csv:"creature_id"`
	SpeciesID  int    `csv:"species_id"`
	Species    string `csv:"species"`
	Age        int32  `csv:"age"`

	ReplicationChance   float64 `csv:"replication_chance"`
	DeathChance         float64 `csv:"death_chance"`
	MutationChance      float64 `csv:"mutation_chance"`
	Speed               float64 `csv:"speed"`
	Size                float64 `csv:"size"`
	ColourRed           float64 `csv:"colour_red"`
	ColourGreen         float64 `csv:"colour_green"`
	ColourBlue          float64 `csv:"colour_blue"`
	MetabolicEfficiency float64 `csv:"metabolic_efficiency"`
	SensoryRange        float64 `csv:"sensory_range"`
	Greediness          float64 `csv:"greediness"`
	Thriftiness         float64 `csv:"thriftiness"`
	Shininess           float64 `csv:"shininess"`
}

// NewRow flattens a participant.
func NewRow(c Census, p Participant, speciesName string) Row {
	r := Row{
		CensusID:   c.ID,
		Tick:       c.Tick,
		Calendar:   c.Calendar,
		CreatureID: p.CreatureID,
		SpeciesID:  p.SpeciesID,
		Species:    speciesName,
		Age:        p.Age,
	}
	if ch := p.Chromosome; ch != nil {
		r.ReplicationChance = ch.Get(genetics.ReplicationChance)
		r.DeathChance = ch.Get(genetics.DeathChance)
		r.MutationChance = ch.Get(genetics.MutationChance)
		r.Speed = ch.Get(genetics.Speed)
		r.Size = ch.Get(genetics.Size)
		r.ColourRed = ch.Get(genetics.ColourRed)
		r.ColourGreen = ch.Get(genetics.ColourGreen)
		r.ColourBlue = ch.Get(genetics.ColourBlue)
		r.MetabolicEfficiency = ch.Get(genetics.MetabolicEfficiency)
		r.SensoryRange = ch.Get(genetics.SensoryRange)
		r.Greediness = ch.Get(genetics.Greediness)
		r.Thriftiness = ch.Get(genetics.Thriftiness)
		r.Shininess = ch.Get(genetics.Shininess)
	}
	return r
}

// CSVStore appends census rows to census.csv.
type CSVStore struct {
	mu            sync.Mutex
	f             *os.File
	names         map[int]string
	headerWritten bool
}

// NewCSVStore creates census.csv in dir.
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, eris.Wrap(err, "failed to create census dir")
	}
	f, err := os.Create(filepath.Join(dir, "census.csv"))
	if err != nil {
		return nil, eris.Wrap(err, "failed to create census.csv")
	}
	return &CSVStore{f: f, names: make(map[int]string)}, nil
}

func (s *CSVStore) AddSpecies(sp Species) {
	s.mu.Lock()
	s.names[sp.ID] = sp.Name
	s.mu.Unlock()
}

func (s *CSVStore) AddCreature(Creature) {}

func (s *CSVStore) AddCensus(c Census) {
	if err := s.write(c); err != nil {
		slog.Error("failed to write census csv", "census_id", c.ID, "error", err)
	}
}

func (s *CSVStore) write(c Census) error {
	if len(c.Participants) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]Row, len(c.Participants))
	for i, p := range c.Participants {
		rows[i] = NewRow(c, p, s.names[p.SpeciesID])
	}

	if !s.headerWritten {
		if err := gocsv.Marshal(rows, s.f); err != nil {
			return fmt.Errorf("marshal census rows: %w", err)
		}
		s.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(rows, s.f); err != nil {
		return fmt.Errorf("marshal census rows: %w", err)
	}
	return nil
}

func (s *CSVStore) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return eris.Wrap(s.f.Close(), "failed to close census.csv")
}
