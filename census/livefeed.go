package census

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// DefaultChannel is where census summaries are published.
const DefaultChannel = "critters:census"

// ErrNoSummary is returned when a run has not published a census yet.
var ErrNoSummary = eris.New("no census summary published")

// LatestKey is the Redis key holding a run's latest census summary.
func LatestKey(runID int64) string {
	return fmt.Sprintf("critters:run:%d:latest", runID)
}

// LiveFeed publishes a summary of every census to Redis.
type LiveFeed struct {
	rdb     redis.UniversalClient
	runID   int64
	channel string
	timeout time.Duration

	mu    sync.Mutex
	names map[int]string
}

// NewLiveFeed creates a feed for a run. The client is owned by the caller.
func NewLiveFeed(rdb redis.UniversalClient, runID int64, channel string) *LiveFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	return &LiveFeed{
		rdb:     rdb,
		runID:   runID,
		channel: channel,
		timeout: 2 * time.Second,
		names:   make(map[int]string),
	}
}

func (f *LiveFeed) AddSpecies(sp Species) {
	f.mu.Lock()
	f.names[sp.ID] = sp.Name
	f.mu.Unlock()
}

func (f *LiveFeed) AddCreature(Creature) {}

func (f *LiveFeed) AddCensus(c Census) {
	f.mu.Lock()
	s := Summarize(f.runID, c, f.names)
	f.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()
	if err := f.Publish(ctx, s); err != nil {
		slog.Warn("live feed publish failed", "census_id", c.ID, "error", err)
	}
}

// Publish stores the summary as the run's latest and announces it.
func (f *LiveFeed) Publish(ctx context.Context, s Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "failed to marshal census summary")
	}

	pipe := f.rdb.Pipeline()
	pipe.Set(ctx, LatestKey(f.runID), data, 0)
	pipe.Publish(ctx, f.channel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "failed to publish census summary")
	}
	return nil
}

func (f *LiveFeed) Close(context.Context) error { return nil }

// Latest reads a run's latest census summary.
func Latest(ctx context.Context, rdb redis.UniversalClient, runID int64) (*Summary, error) {
	data, err := rdb.Get(ctx, LatestKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSummary
	}
	if err != nil {
		return nil, eris.Wrap(err, "failed to read census summary")
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "failed to decode census summary")
	}
	return &s, nil
}
