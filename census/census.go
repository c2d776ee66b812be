// Package census persists population data: species, creatures and periodic
// censuses of the living population.
package census

import (
	"context"
	"errors"

	"github.com/pthm-cable/critters/genetics"
)

// Species is a species row.
type Species struct {
	ID   int
	Name string
}

// Creature is a creature row, recorded once at birth.
type Creature struct {
	ID         uint32
	SpeciesID  int
	Age        int32
	Chromosome *genetics.Chromosome
}

// Participant is a living creature counted by a census.
type Participant struct {
	CreatureID uint32
	SpeciesID  int
	Age        int32
	Chromosome *genetics.Chromosome
}

// Census is a snapshot of the living population.
type Census struct {
	ID           int // per run, increasing from 1
	Tick         int32
	Calendar     string
	Participants []Participant
}

// Store receives population records from the simulation.
// Add methods must not block the simulation.
type Store interface {
	AddSpecies(Species)
	AddCreature(Creature)
	AddCensus(Census)
	Close(ctx context.Context) error
}

// NopStore discards everything.
type NopStore struct{}

func (NopStore) AddSpecies(Species)          {}
func (NopStore) AddCreature(Creature)        {}
func (NopStore) AddCensus(Census)            {}
func (NopStore) Close(context.Context) error { return nil }

// Multi fans records out to several stores.
type Multi []Store

func (m Multi) AddSpecies(s Species) {
	for _, st := range m {
		st.AddSpecies(s)
	}
}

func (m Multi) AddCreature(c Creature) {
	for _, st := range m {
		st.AddCreature(c)
	}
}

func (m Multi) AddCensus(c Census) {
	for _, st := range m {
		st.AddCensus(c)
	}
}

// Close closes every store and joins their errors.
func (m Multi) Close(ctx context.Context) error {
	var errs []error
	for _, st := range m {
		if err := st.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
