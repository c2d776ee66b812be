package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/pthm-cable/critters/census"
	"github.com/pthm-cable/critters/config"
)

// Server handles dashboard API requests.
type Server struct {
	repo         Repository
	rdb          redis.UniversalClient // nil disables the live endpoint
	defaultLimit int
	maxLimit     int
}

// NewServer creates a server over repo. rdb may be nil.
func NewServer(repo Repository, rdb redis.UniversalClient, cfg config.APIConfig) *Server {
	s := &Server{
		repo:         repo,
		rdb:          rdb,
		defaultLimit: cfg.DefaultLimit,
		maxLimit:     cfg.MaxLimit,
	}
	if s.defaultLimit <= 0 {
		s.defaultLimit = 100
	}
	if s.maxLimit < s.defaultLimit {
		s.maxLimit = s.defaultLimit
	}
	return s
}

// Router returns the API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", s.handleRuns).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}", s.handleRun).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/species", s.handleSpecies).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/creatures", s.handleCreatures).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/censuses", s.handleCensuses).Methods(http.MethodGet)
	api.HandleFunc("/runs/{id}/live", s.handleLive).Methods(http.MethodGet)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeResult(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.repo.Runs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}
	writeResult(w, http.StatusOK, runs)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	run, err := s.repo.Run(r.Context(), id)
	if eris.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get run", err)
		return
	}
	writeResult(w, http.StatusOK, run)
}

func (s *Server) handleSpecies(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	species, err := s.repo.Species(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list species", err)
		return
	}
	writeResult(w, http.StatusOK, species)
}

func (s *Server) handleCreatures(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", s.defaultLimit)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "invalid limit", nil)
		return
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset", nil)
		return
	}

	creatures, err := s.repo.Creatures(r.Context(), id, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list creatures", err)
		return
	}
	writeResult(w, http.StatusOK, creatures)
}

func (s *Server) handleCensuses(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	censuses, err := s.repo.Censuses(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list censuses", err)
		return
	}
	writeResult(w, http.StatusOK, censuses)
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	id, ok := runID(w, r)
	if !ok {
		return
	}
	if s.rdb == nil {
		writeError(w, http.StatusNotFound, "live feed disabled", nil)
		return
	}
	summary, err := census.Latest(r.Context(), s.rdb, id)
	if eris.Is(err, census.ErrNoSummary) {
		writeError(w, http.StatusNotFound, "no census published for run", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read live census", err)
		return
	}
	writeResult(w, http.StatusOK, summary)
}

func runID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid run id", nil)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError logs server errors; the cause is not sent to clients.
func writeError(w http.ResponseWriter, status int, msg string, err error) {
	if err != nil {
		slog.Error(msg, "error", err)
	}
	writeResult(w, status, errorResponse{Error: msg})
}

func writeResult(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
