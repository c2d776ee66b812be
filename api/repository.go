// Package api serves recorded runs, species, creatures and censuses as JSON
// for the dashboard.
package api

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("not found")

// Run is a simulation run.
type Run struct {
	ID         int64     `json:"id"`
	CreateTime time.Time `json:"create_time"`
}

// RunDetail is a run with row counts.
type RunDetail struct {
	Run
	Species   int `json:"species"`
	Creatures int `json:"creatures"`
	Censuses  int `json:"censuses"`
}

// Species is a species of a run with the number of creatures ever in it.
type Species struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Creatures int    `json:"creatures"`
}

// Creature is a recorded creature with its genes by name.
type Creature struct {
	ID        uint32             `json:"id"`
	SpeciesID int                `json:"species_id"`
	Age       int32              `json:"age"`
	Genes     map[string]float64 `json:"genes"`
}

// SpeciesCount is the number of census participants in a species.
type SpeciesCount struct {
	SpeciesID int `json:"species_id"`
	Count     int `json:"count"`
}

// CensusSummary is a census with per-species counts.
type CensusSummary struct {
	ID         int            `json:"id"`
	Tick       int32          `json:"tick"`
	Calendar   string         `json:"calendar"`
	Population int            `json:"population"`
	Species    []SpeciesCount `json:"species"`
}

// Repository reads recorded runs.
type Repository interface {
	Runs(ctx context.Context) ([]Run, error)
	Run(ctx context.Context, id int64) (*RunDetail, error)
	Species(ctx context.Context, runID int64) ([]Species, error)
	Creatures(ctx context.Context, runID int64, limit, offset int) ([]Creature, error)
	Censuses(ctx context.Context, runID int64) ([]CensusSummary, error)
}
