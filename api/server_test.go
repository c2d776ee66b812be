package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/critters/census"
	"github.com/pthm-cable/critters/config"
)

type fakeRepo struct {
	runs      []Run
	detail    map[int64]*RunDetail
	creatures []Creature
	err       error

	gotLimit, gotOffset int
}

func (f *fakeRepo) Runs(context.Context) ([]Run, error) { return f.runs, f.err }

func (f *fakeRepo) Run(_ context.Context, id int64) (*RunDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.detail[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "run %d", id)
	}
	return d, nil
}

func (f *fakeRepo) Species(context.Context, int64) ([]Species, error) {
	return []Species{{ID: 1, Name: "Busy Beaver", Creatures: 3}}, f.err
}

func (f *fakeRepo) Creatures(_ context.Context, _ int64, limit, offset int) ([]Creature, error) {
	f.gotLimit, f.gotOffset = limit, offset
	return f.creatures, f.err
}

func (f *fakeRepo) Censuses(context.Context, int64) ([]CensusSummary, error) {
	return []CensusSummary{{ID: 1, Tick: 10, Population: 3, Species: []SpeciesCount{{SpeciesID: 1, Count: 3}}}}, f.err
}

func testAPIConfig() config.APIConfig {
	return config.APIConfig{DefaultLimit: 10, MaxLimit: 50}
}

func do(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRuns(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{runs: []Run{{ID: 2, CreateTime: created}, {ID: 1, CreateTime: created}}}
	h := NewServer(repo, nil, testAPIConfig()).Router()

	rec := do(t, h, "/api/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var runs []Run
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&runs))
	require.Len(t, runs, 2)
	assert.Equal(t, int64(2), runs[0].ID)
	assert.True(t, runs[0].CreateTime.Equal(created))
}

func TestRun(t *testing.T) {
	repo := &fakeRepo{detail: map[int64]*RunDetail{
		3: {Run: Run{ID: 3}, Species: 2, Creatures: 40, Censuses: 5},
	}}
	h := NewServer(repo, nil, testAPIConfig()).Router()

	tests := []struct {
		name string
		path string
		code int
	}{
		{"found", "/api/runs/3", http.StatusOK},
		{"unknown", "/api/runs/4", http.StatusNotFound},
		{"not a number", "/api/runs/abc", http.StatusBadRequest},
		{"zero", "/api/runs/0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.path)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := do(t, h, "/api/runs/3")
	var d RunDetail
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&d))
	assert.Equal(t, RunDetail{Run: Run{ID: 3}, Species: 2, Creatures: 40, Censuses: 5}, d)
}

func TestRepositoryErrorIs500(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection refused")}
	h := NewServer(repo, nil, testAPIConfig()).Router()

	for _, path := range []string{"/api/runs", "/api/runs/1", "/api/runs/1/species", "/api/runs/1/creatures", "/api/runs/1/censuses"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, h, path)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)

			var body errorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
			assert.NotContains(t, body.Error, "connection refused")
		})
	}
}

func TestCreaturesPaging(t *testing.T) {
	repo := &fakeRepo{creatures: []Creature{{ID: 1, SpeciesID: 1, Genes: map[string]float64{"speed": 2}}}}
	h := NewServer(repo, nil, testAPIConfig()).Router()

	tests := []struct {
		name       string
		query      string
		code       int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", http.StatusOK, 10, 0},
		{"explicit", "?limit=5&offset=20", http.StatusOK, 5, 20},
		{"capped", "?limit=500", http.StatusOK, 50, 0},
		{"bad limit", "?limit=x", http.StatusBadRequest, 0, 0},
		{"zero limit", "?limit=0", http.StatusBadRequest, 0, 0},
		{"negative offset", "?offset=-1", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo.gotLimit, repo.gotOffset = 0, 0
			rec := do(t, h, "/api/runs/1/creatures"+tt.query)
			require.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.wantLimit, repo.gotLimit)
			assert.Equal(t, tt.wantOffset, repo.gotOffset)
		})
	}
}

func TestSpeciesAndCensuses(t *testing.T) {
	h := NewServer(&fakeRepo{}, nil, testAPIConfig()).Router()

	rec := do(t, h, "/api/runs/1/species")
	require.Equal(t, http.StatusOK, rec.Code)
	var species []Species
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&species))
	assert.Equal(t, "Busy Beaver", species[0].Name)

	rec = do(t, h, "/api/runs/1/censuses")
	require.Equal(t, http.StatusOK, rec.Code)
	var censuses []CensusSummary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&censuses))
	require.Len(t, censuses, 1)
	assert.Equal(t, 3, censuses[0].Population)
}

func TestHealth(t *testing.T) {
	h := NewServer(&fakeRepo{}, nil, testAPIConfig()).Router()
	rec := do(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestLive(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	h := NewServer(&fakeRepo{}, rdb, testAPIConfig()).Router()

	rec := do(t, h, "/api/runs/5/live")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	feed := census.NewLiveFeed(rdb, 5, "")
	require.NoError(t, feed.Publish(context.Background(), census.Summary{RunID: 5, CensusID: 2, Population: 12}))

	rec = do(t, h, "/api/runs/5/live")
	require.Equal(t, http.StatusOK, rec.Code)
	var s census.Summary
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	assert.Equal(t, 2, s.CensusID)
	assert.Equal(t, 12, s.Population)
}

func TestLiveDisabled(t *testing.T) {
	h := NewServer(&fakeRepo{}, nil, testAPIConfig()).Router()
	rec := do(t, h, "/api/runs/5/live")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
