package census

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/rotisserie/eris"

	"github.com/pthm-cable/critters/config"
	"github.com/pthm-cable/critters/genetics"
)

// ErrConnect is returned when the database cannot be reached.
var ErrConnect = eris.New("could not connect to the census database; check that the server is running and DB_URL, DB_USER and DB_PASSWORD are set")

// MySQLStore buffers records in memory and writes them to MySQL in batches
// from a background flusher.
type MySQLStore struct {
	db            *sql.DB
	schema        string
	runID         int64
	flushInterval time.Duration
	retryDelay    time.Duration

	mu        sync.Mutex
	species   []Species
	creatures []Creature
	censuses  []Census
	cancel    context.CancelFunc
	done      chan struct{}

	flushMu sync.Mutex
}

// DSN builds a go-sql-driver DSN. No database is selected since the schema
// may not exist yet.
func DSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.URL
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Open connects to MySQL and returns an unmigrated store.
func Open(ctx context.Context, db config.DatabaseConfig, cfg config.CensusConfig) (*MySQLStore, error) {
	conn, err := sql.Open("mysql", DSN(db))
	if err != nil {
		return nil, eris.Wrap(err, "failed to open census database")
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, eris.Wrapf(ErrConnect, "ping %s: %v", db.URL, err)
	}
	return NewMySQLStore(conn, db.Name, cfg), nil
}

// NewMySQLStore wraps an open connection.
func NewMySQLStore(db *sql.DB, schema string, cfg config.CensusConfig) *MySQLStore {
	if schema == "" {
		schema = "genetic_algorithms"
	}
	flush := cfg.FlushInterval
	if flush <= 0 {
		flush = time.Second
	}
	retry := cfg.RetryDelay
	if retry <= 0 {
		retry = flush
	}
	return &MySQLStore{
		db:            db,
		schema:        schema,
		flushInterval: flush,
		retryDelay:    retry,
		done:          make(chan struct{}),
	}
}

func (s *MySQLStore) table(name string) string {
	return fmt.Sprintf("`%s`.`%s`", s.schema, name)
}

func (s *MySQLStore) schemaStatements() []string {
	return []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS `%s` DEFAULT CHARACTER SET utf8mb4", s.schema),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id          INT UNSIGNED NOT NULL AUTO_INCREMENT,
	create_time DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (id)
) ENGINE = InnoDB`, s.table("runs")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id     INT UNSIGNED NOT NULL,
	run_id INT UNSIGNED NOT NULL,
	name   VARCHAR(45)  NOT NULL,
	PRIMARY KEY (id, run_id),
	INDEX fk_species_runs_idx (run_id),
	CONSTRAINT fk_species_runs FOREIGN KEY (run_id) REFERENCES %[2]s (id)
) ENGINE = InnoDB`, s.table("species"), s.table("runs")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id                   INT UNSIGNED NOT NULL,
	run_id               INT UNSIGNED NOT NULL,
	species_id           INT UNSIGNED NOT NULL,
	age                  INT UNSIGNED NOT NULL,
	replication_chance   DOUBLE       NOT NULL,
	death_chance         DOUBLE       NOT NULL,
	mutation_chance      DOUBLE       NOT NULL,
	speed                DOUBLE       NOT NULL,
	size                 DOUBLE       NOT NULL,
	colour_red           DOUBLE       NOT NULL,
	colour_green         DOUBLE       NOT NULL,
	colour_blue          DOUBLE       NOT NULL,
	metabolic_efficiency DOUBLE       NOT NULL,
	sensory_range        DOUBLE       NOT NULL,
	greediness           DOUBLE       NOT NULL,
	thriftiness          DOUBLE       NOT NULL,
	shininess            DOUBLE       NOT NULL,
	PRIMARY KEY (id, run_id),
	INDEX fk_creatures_runs_idx (run_id),
	INDEX fk_creatures_species_idx (species_id, run_id),
	CONSTRAINT fk_creatures_runs FOREIGN KEY (run_id) REFERENCES %[2]s (id),
	CONSTRAINT fk_creatures_species FOREIGN KEY (species_id, run_id) REFERENCES %[3]s (id, run_id)
) ENGINE = InnoDB`, s.table("creatures"), s.table("runs"), s.table("species")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	id           INT UNSIGNED NOT NULL,
	run_id       INT UNSIGNED NOT NULL,
	tick         INT UNSIGNED NOT NULL DEFAULT 0,
	calendar     VARCHAR(32)  NOT NULL DEFAULT '',
	date_created DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (id, run_id),
	INDEX fk_censuses_runs_idx (run_id),
	CONSTRAINT fk_censuses_runs FOREIGN KEY (run_id) REFERENCES %[2]s (id)
) ENGINE = InnoDB`, s.table("censuses"), s.table("runs")),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %[1]s (
	run_id      INT UNSIGNED NOT NULL,
	census_id   INT UNSIGNED NOT NULL,
	creature_id INT UNSIGNED NOT NULL,
	PRIMARY KEY (run_id, census_id, creature_id),
	INDEX fk_census_participants_creatures_idx (creature_id, run_id),
	CONSTRAINT fk_census_participants_runs FOREIGN KEY (run_id) REFERENCES %[2]s (id),
	CONSTRAINT fk_census_participants_censuses FOREIGN KEY (census_id, run_id) REFERENCES %[3]s (id, run_id),
	CONSTRAINT fk_census_participants_creatures FOREIGN KEY (creature_id, run_id) REFERENCES %[4]s (id, run_id)
) ENGINE = InnoDB`, s.table("census_participants"), s.table("runs"), s.table("censuses"), s.table("creatures")),
	}
}

// Migrate creates the schema and tables if needed and registers a new run.
func (s *MySQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range s.schemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrap(err, "failed to migrate census schema")
		}
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s () VALUES ()", s.table("runs")))
	if err != nil {
		return eris.Wrap(err, "failed to create run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "failed to read run id")
	}
	s.runID = id
	return nil
}

// RunID returns the id of this run, valid after Migrate.
func (s *MySQLStore) RunID() int64 {
	return s.runID
}

func (s *MySQLStore) AddSpecies(sp Species) {
	s.mu.Lock()
	s.species = append(s.species, sp)
	s.mu.Unlock()
}

func (s *MySQLStore) AddCreature(c Creature) {
	s.mu.Lock()
	s.creatures = append(s.creatures, c)
	s.mu.Unlock()
}

func (s *MySQLStore) AddCensus(c Census) {
	s.mu.Lock()
	s.censuses = append(s.censuses, c)
	s.mu.Unlock()
}

// Pending returns the number of buffered species, creatures and censuses.
func (s *MySQLStore) Pending() (species, creatures, censuses int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.species), len(s.creatures), len(s.censuses)
}

// Run flushes buffers every flush interval until ctx is done or Close is
// called. A failed batch is re-queued and retried after the retry delay.
func (s *MySQLStore) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer close(s.done)
	defer cancel()

	timer := time.NewTimer(s.flushInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		start := time.Now()
		wait := s.flushInterval
		if err := s.Flush(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("census flush failed", "error", err, "retry_in", s.retryDelay)
			wait = s.retryDelay
		} else {
			wait -= time.Since(start)
		}
		if wait < time.Millisecond {
			wait = time.Millisecond
		}
		timer.Reset(wait)
	}
}

// Flush writes all buffered records. Species go first, then creatures, then
// censuses, so foreign keys always resolve. Whatever was not written is put
// back at the front of the buffers.
func (s *MySQLStore) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	species, creatures, censuses := s.species, s.creatures, s.censuses
	s.species, s.creatures, s.censuses = nil, nil, nil
	s.mu.Unlock()

	if err := s.insertSpecies(ctx, species); err != nil {
		s.requeue(species, creatures, censuses)
		return err
	}
	if err := s.insertCreatures(ctx, creatures); err != nil {
		s.requeue(nil, creatures, censuses)
		return err
	}
	if err := s.insertCensuses(ctx, censuses); err != nil {
		s.requeue(nil, nil, censuses)
		return err
	}

	if n := len(species) + len(creatures) + len(censuses); n > 0 {
		slog.Debug("census flushed",
			"run_id", s.runID,
			"species", len(species),
			"creatures", len(creatures),
			"censuses", len(censuses),
		)
	}
	return nil
}

func (s *MySQLStore) requeue(species []Species, creatures []Creature, censuses []Census) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.species = append(species, s.species...)
	s.creatures = append(creatures, s.creatures...)
	s.censuses = append(censuses, s.censuses...)
}

// batch runs fn inside a transaction.
func (s *MySQLStore) batch(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			slog.Warn("census rollback failed", "error", rbErr)
		}
		return err
	}
	return eris.Wrap(tx.Commit(), "failed to commit")
}

func (s *MySQLStore) insertSpecies(ctx context.Context, species []Species) error {
	if len(species) == 0 {
		return nil
	}
	return s.batch(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (id, run_id, name) VALUES (?, ?, ?)", s.table("species")))
		if err != nil {
			return eris.Wrap(err, "failed to prepare species insert")
		}
		defer stmt.Close()

		for _, sp := range species {
			if _, err := stmt.ExecContext(ctx, sp.ID, s.runID, sp.Name); err != nil {
				return eris.Wrapf(err, "failed to insert species %d", sp.ID)
			}
		}
		return nil
	})
}

var creatureColumns = []genetics.Gene{
	genetics.ReplicationChance,
	genetics.DeathChance,
	genetics.MutationChance,
	genetics.Speed,
	genetics.Size,
	genetics.ColourRed,
	genetics.ColourGreen,
	genetics.ColourBlue,
	genetics.MetabolicEfficiency,
	genetics.SensoryRange,
	genetics.Greediness,
	genetics.Thriftiness,
	genetics.Shininess,
}

func (s *MySQLStore) insertCreatures(ctx context.Context, creatures []Creature) error {
	if len(creatures) == 0 {
		return nil
	}
	return s.batch(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (id, run_id, species_id, age,
	replication_chance, death_chance, mutation_chance, speed, size,
	colour_red, colour_green, colour_blue, metabolic_efficiency,
	sensory_range, greediness, thriftiness, shininess)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table("creatures")))
		if err != nil {
			return eris.Wrap(err, "failed to prepare creature insert")
		}
		defer stmt.Close()

		args := make([]any, 0, 4+len(creatureColumns))
		for _, c := range creatures {
			args = append(args[:0], c.ID, s.runID, c.SpeciesID, c.Age)
			for _, g := range creatureColumns {
				args = append(args, c.Chromosome.Get(g))
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return eris.Wrapf(err, "failed to insert creature %d", c.ID)
			}
		}
		return nil
	})
}

func (s *MySQLStore) insertCensuses(ctx context.Context, censuses []Census) error {
	if len(censuses) == 0 {
		return nil
	}
	return s.batch(ctx, func(tx *sql.Tx) error {
		insertCensus, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (id, run_id, tick, calendar) VALUES (?, ?, ?, ?)", s.table("censuses")))
		if err != nil {
			return eris.Wrap(err, "failed to prepare census insert")
		}
		defer insertCensus.Close()

		updateAge, err := tx.PrepareContext(ctx, fmt.Sprintf("UPDATE %s SET age = ? WHERE id = ? AND run_id = ?", s.table("creatures")))
		if err != nil {
			return eris.Wrap(err, "failed to prepare age update")
		}
		defer updateAge.Close()

		insertParticipant, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (census_id, creature_id, run_id) VALUES (?, ?, ?)", s.table("census_participants")))
		if err != nil {
			return eris.Wrap(err, "failed to prepare participant insert")
		}
		defer insertParticipant.Close()

		for _, c := range censuses {
			if _, err := insertCensus.ExecContext(ctx, c.ID, s.runID, c.Tick, c.Calendar); err != nil {
				return eris.Wrapf(err, "failed to insert census %d", c.ID)
			}
			for _, p := range c.Participants {
				if _, err := updateAge.ExecContext(ctx, p.Age, p.CreatureID, s.runID); err != nil {
					return eris.Wrapf(err, "failed to update age of creature %d", p.CreatureID)
				}
				if _, err := insertParticipant.ExecContext(ctx, c.ID, p.CreatureID, s.runID); err != nil {
					return eris.Wrapf(err, "failed to insert participant %d of census %d", p.CreatureID, c.ID)
				}
			}
		}
		return nil
	})
}

// Close stops the flusher, writes what is left and closes the database.
func (s *MySQLStore) Close(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		<-s.done
	}

	flushErr := s.Flush(ctx)
	if flushErr != nil {
		sp, cr, ce := s.Pending()
		slog.Error("census records lost on close", "species", sp, "creatures", cr, "censuses", ce)
	}
	closeErr := s.db.Close()
	if flushErr != nil {
		return flushErr
	}
	return eris.Wrap(closeErr, "failed to close census database")
}
