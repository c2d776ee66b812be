package api

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var q = regexp.QuoteMeta

func newMockRepo(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLRepository(db, ""), mock
}

func TestSQLRuns(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(q("SELECT id, create_time FROM `genetic_algorithms`.`runs` ORDER BY id DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "create_time"}).
			AddRow(2, created).
			AddRow(1, created))

	runs, err := repo.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(2), runs[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRunNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("FROM `genetic_algorithms`.`runs` r WHERE r.id = ?")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "create_time", "species", "creatures", "censuses"}))

	_, err := repo.Run(context.Background(), 9)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLRun(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(q("FROM `genetic_algorithms`.`runs` r WHERE r.id = ?")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "create_time", "species", "creatures", "censuses"}).
			AddRow(3, created, 4, 120, 7))

	d, err := repo.Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.ID)
	assert.Equal(t, 4, d.Species)
	assert.Equal(t, 120, d.Creatures)
	assert.Equal(t, 7, d.Censuses)
}

func TestSQLCreatures(t *testing.T) {
	repo, mock := newMockRepo(t)

	cols := []string{"id", "species_id", "age",
		"replication_chance", "death_chance", "mutation_chance", "speed", "size",
		"colour_red", "colour_green", "colour_blue", "metabolic_efficiency",
		"sensory_range", "greediness", "thriftiness", "shininess"}
	mock.ExpectQuery(q("SELECT id, species_id, age, replication_chance, death_chance")).
		WithArgs(int64(1), 10, 20).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(21, 2, 5, 0.1, 0.01, 0.2, 3.0, 1.5, 0.5, 0.6, 0.7, 1.1, 12.0, 0.3, 0.4, 0.9))

	creatures, err := repo.Creatures(context.Background(), 1, 10, 20)
	require.NoError(t, err)
	require.Len(t, creatures, 1)

	c := creatures[0]
	assert.Equal(t, uint32(21), c.ID)
	assert.Equal(t, 2, c.SpeciesID)
	assert.Equal(t, int32(5), c.Age)
	assert.Len(t, c.Genes, 13)
	assert.Equal(t, 3.0, c.Genes["speed"])
	assert.Equal(t, 0.6, c.Genes["colour_green"])
	assert.Equal(t, 0.9, c.Genes["shininess"])
}

func TestSQLCensusesGroupsSpecies(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("FROM `genetic_algorithms`.`censuses` ce")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tick", "calendar", "species_id", "count"}).
			AddRow(1, 10, "0001/01/01 06:00:10", 1, 6).
			AddRow(1, 10, "0001/01/01 06:00:10", 2, 4).
			AddRow(2, 20, "0001/01/01 06:00:20", nil, 0).
			AddRow(3, 30, "0001/01/01 06:00:30", 2, 5))

	censuses, err := repo.Censuses(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, censuses, 3)

	assert.Equal(t, 10, censuses[0].Population)
	assert.Equal(t, []SpeciesCount{{SpeciesID: 1, Count: 6}, {SpeciesID: 2, Count: 4}}, censuses[0].Species)
	assert.Equal(t, 0, censuses[1].Population)
	assert.Empty(t, censuses[1].Species)
	assert.Equal(t, 5, censuses[2].Population)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLSpecies(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(q("FROM `genetic_algorithms`.`species` s LEFT JOIN")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "creatures"}).
			AddRow(1, "Angry Ant", 30).
			AddRow(2, "Brave Bear", 0))

	species, err := repo.Species(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []Species{{ID: 1, Name: "Angry Ant", Creatures: 30}, {ID: 2, Name: "Brave Bear"}}, species)
}
