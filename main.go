package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/critters/census"
	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/engine"
	"github.com/pthm-cable/critters/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Step as fast as possible instead of in real time")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in ticks (0 = use config)")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	noCensus := flag.Bool("no-census", false, "Disable census persistence and the live feed regardless of config")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *noCensus {
		cfg.Census.Enabled = false
		cfg.Redis.Enabled = false
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		StatsWindow:    *statsWindow,
		SnapshotDir:    *snapshotDir,
		OutputDir:      *outputDir,
		StepsPerUpdate: 1,
		MaxTicks:       int32(*maxTicks),
	}

	if err := run(ctx, cfg, opts, *headless); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts game.Options, headless bool) error {
	sinks, err := openCensus(ctx, cfg, opts.OutputDir)
	if err != nil {
		return err
	}
	opts.Census = sinks.store

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		sinks.store.Close(context.Background())
		return err
	}

	slog.Info("starting simulation",
		"seed", opts.Seed,
		"headless", headless,
		"max_ticks", opts.MaxTicks,
		"run_id", sinks.runID,
		"census", cfg.Census.Enabled,
	)

	flushCtx, stopFlusher := context.WithCancel(ctx)
	defer stopFlusher()

	eg, egCtx := errgroup.WithContext(ctx)
	if sinks.mysql != nil {
		eg.Go(func() error {
			return sinks.mysql.Run(flushCtx)
		})
	}
	eg.Go(func() error {
		loop := engine.NewLoop(cfg.Derived.FrameTime, headless)
		loop.MaxFrameTime = time.Duration(cfg.Simulation.MaxFrameTime * float64(time.Second))

		err := loop.Run(egCtx, g)
		stopFlusher()
		if errors.Is(err, context.Canceled) {
			err = nil
		}

		slog.Info("simulation stopped",
			"tick", g.Tick(),
			"calendar", g.Clock().Timestamp(),
			"population", g.Population(),
			"species", g.Species().Stats().Count,
			"steps", loop.Steps(),
		)

		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return errors.Join(err, g.Close(closeCtx))
	})

	err = eg.Wait()
	if sinks.rdb != nil {
		sinks.rdb.Close()
	}
	return err
}

// errLiveFeedNeedsRun is returned when the Redis live feed is enabled without
// MySQL persistence. Live summaries are keyed by the MySQL run ID.
var errLiveFeedNeedsRun = errors.New("redis live feed requires census.enabled: summaries are keyed by the database run id")

// censusSinks are the census stores enabled by config.
type censusSinks struct {
	store census.Store
	mysql *census.MySQLStore
	rdb   *redis.Client
	runID int64
}

func openCensus(ctx context.Context, cfg *config.Config, outputDir string) (*censusSinks, error) {
	if cfg.Redis.Enabled && !cfg.Census.Enabled {
		return nil, errLiveFeedNeedsRun
	}

	sinks := &censusSinks{}
	var stores census.Multi

	if cfg.Census.Enabled {
		openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		store, err := census.Open(openCtx, cfg.Database, cfg.Census)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(openCtx); err != nil {
			store.Close(context.Background())
			return nil, err
		}
		sinks.mysql = store
		sinks.runID = store.RunID()
		stores = append(stores, store)
	}

	if cfg.Census.CSV && outputDir != "" {
		csvStore, err := census.NewCSVStore(outputDir)
		if err != nil {
			stores.Close(context.Background())
			return nil, err
		}
		stores = append(stores, csvStore)
	}

	if cfg.Redis.Enabled {
		sinks.rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Address})
		stores = append(stores, census.NewLiveFeed(sinks.rdb, sinks.runID, cfg.Redis.Channel))
	}

	switch len(stores) {
	case 0:
		sinks.store = census.NopStore{}
	case 1:
		sinks.store = stores[0]
	default:
		sinks.store = stores
	}
	return sinks, nil
}
