package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pthm-cable/critters/genetics"
)

// SQLRepository reads the census schema written by census.MySQLStore.
type SQLRepository struct {
	db     *sql.DB
	schema string
}

// NewSQLRepository reads tables in schema, genetic_algorithms if empty.
func NewSQLRepository(db *sql.DB, schema string) *SQLRepository {
	if schema == "" {
		schema = "genetic_algorithms"
	}
	return &SQLRepository{db: db, schema: schema}
}

func (r *SQLRepository) table(name string) string {
	return fmt.Sprintf("`%s`.`%s`", r.schema, name)
}

func (r *SQLRepository) Runs(ctx context.Context) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf("SELECT id, create_time FROM %s ORDER BY id DESC", r.table("runs")))
	if err != nil {
		return nil, eris.Wrap(err, "failed to query runs")
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.CreateTime); err != nil {
			return nil, eris.Wrap(err, "failed to scan run")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "failed to read runs")
}

func (r *SQLRepository) Run(ctx context.Context, id int64) (*RunDetail, error) {
	q := fmt.Sprintf(`SELECT r.id, r.create_time,
	(SELECT COUNT(*) FROM %[2]s WHERE run_id = r.id),
	(SELECT COUNT(*) FROM %[3]s WHERE run_id = r.id),
	(SELECT COUNT(*) FROM %[4]s WHERE run_id = r.id)
FROM %[1]s r WHERE r.id = ?`, r.table("runs"), r.table("species"), r.table("creatures"), r.table("censuses"))

	var d RunDetail
	err := r.db.QueryRowContext(ctx, q, id).Scan(&d.ID, &d.CreateTime, &d.Species, &d.Creatures, &d.Censuses)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "failed to query run %d", id)
	}
	return &d, nil
}

func (r *SQLRepository) Species(ctx context.Context, runID int64) ([]Species, error) {
	q := fmt.Sprintf(`SELECT s.id, s.name, COUNT(c.id)
FROM %[1]s s LEFT JOIN %[2]s c ON c.species_id = s.id AND c.run_id = s.run_id
WHERE s.run_id = ?
GROUP BY s.id, s.name
ORDER BY s.id`, r.table("species"), r.table("creatures"))

	rows, err := r.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query species")
	}
	defer rows.Close()

	species := []Species{}
	for rows.Next() {
		var sp Species
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Creatures); err != nil {
			return nil, eris.Wrap(err, "failed to scan species")
		}
		species = append(species, sp)
	}
	return species, eris.Wrap(rows.Err(), "failed to read species")
}

func geneColumns() string {
	names := make([]string, genetics.NumGenes)
	for i, g := range genetics.AllGenes() {
		names[i] = g.String()
	}
	return strings.Join(names, ", ")
}

func (r *SQLRepository) Creatures(ctx context.Context, runID int64, limit, offset int) ([]Creature, error) {
	q := fmt.Sprintf(`SELECT id, species_id, age, %s FROM %s WHERE run_id = ? ORDER BY id LIMIT ? OFFSET ?`,
		geneColumns(), r.table("creatures"))

	rows, err := r.db.QueryContext(ctx, q, runID, limit, offset)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query creatures")
	}
	defer rows.Close()

	creatures := []Creature{}
	values := make([]float64, genetics.NumGenes)
	dest := make([]any, 3+genetics.NumGenes)
	for i := range values {
		dest[3+i] = &values[i]
	}
	for rows.Next() {
		var c Creature
		dest[0], dest[1], dest[2] = &c.ID, &c.SpeciesID, &c.Age
		if err := rows.Scan(dest...); err != nil {
			return nil, eris.Wrap(err, "failed to scan creature")
		}
		c.Genes = make(map[string]float64, genetics.NumGenes)
		for i, g := range genetics.AllGenes() {
			c.Genes[g.String()] = values[i]
		}
		creatures = append(creatures, c)
	}
	return creatures, eris.Wrap(rows.Err(), "failed to read creatures")
}

func (r *SQLRepository) Censuses(ctx context.Context, runID int64) ([]CensusSummary, error) {
	q := fmt.Sprintf(`SELECT ce.id, ce.tick, ce.calendar, cr.species_id, COUNT(cr.id)
FROM %[1]s ce
LEFT JOIN %[2]s cp ON cp.census_id = ce.id AND cp.run_id = ce.run_id
LEFT JOIN %[3]s cr ON cr.id = cp.creature_id AND cr.run_id = cp.run_id
WHERE ce.run_id = ?
GROUP BY ce.id, ce.tick, ce.calendar, cr.species_id
ORDER BY ce.id, cr.species_id`, r.table("censuses"), r.table("census_participants"), r.table("creatures"))

	rows, err := r.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, eris.Wrap(err, "failed to query censuses")
	}
	defer rows.Close()

	censuses := []CensusSummary{}
	for rows.Next() {
		var (
			id        int
			tick      int32
			calendar  string
			speciesID sql.NullInt64
			count     int
		)
		if err := rows.Scan(&id, &tick, &calendar, &speciesID, &count); err != nil {
			return nil, eris.Wrap(err, "failed to scan census")
		}

		if n := len(censuses); n == 0 || censuses[n-1].ID != id {
			censuses = append(censuses, CensusSummary{ID: id, Tick: tick, Calendar: calendar, Species: []SpeciesCount{}})
		}
		if !speciesID.Valid {
			continue
		}
		c := &censuses[len(censuses)-1]
		c.Population += count
		c.Species = append(c.Species, SpeciesCount{SpeciesID: int(speciesID.Int64), Count: count})
	}
	return censuses, eris.Wrap(rows.Err(), "failed to read censuses")
}
