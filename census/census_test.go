package census

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingStore struct {
	species   []Species
	creatures []Creature
	censuses  []Census
	closeErr  error
}

func (r *recordingStore) AddSpecies(s Species)   { r.species = append(r.species, s) }
func (r *recordingStore) AddCreature(c Creature) { r.creatures = append(r.creatures, c) }
func (r *recordingStore) AddCensus(c Census)     { r.censuses = append(r.censuses, c) }
func (r *recordingStore) Close(context.Context) error {
	return r.closeErr
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recordingStore{}, &recordingStore{}
	m := Multi{a, NopStore{}, b}

	m.AddSpecies(Species{ID: 1})
	m.AddCreature(Creature{ID: 2})
	m.AddCensus(Census{ID: 3})

	for _, r := range []*recordingStore{a, b} {
		assert.Len(t, r.species, 1)
		assert.Len(t, r.creatures, 1)
		assert.Len(t, r.censuses, 1)
	}
	assert.NoError(t, m.Close(context.Background()))
}

func TestMultiCloseJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	m := Multi{&recordingStore{closeErr: errA}, &recordingStore{closeErr: errB}}

	err := m.Close(context.Background())
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}
