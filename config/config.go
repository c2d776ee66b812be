// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	jlconfig "github.com/JeremyLoy/config"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	World      WorldConfig      `yaml:"world"`
	Creature   CreatureConfig   `yaml:"creature"`
	Genes      GenesConfig      `yaml:"genes"`
	Mutation   MutationConfig   `yaml:"mutation"`
	Species    SpeciesConfig    `yaml:"species"`
	Food       FoodConfig       `yaml:"food"`
	Fertility  FertilityConfig  `yaml:"fertility"`
	Clock      ClockConfig      `yaml:"clock"`
	Census     CensusConfig     `yaml:"census"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Bookmarks  BookmarksConfig  `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds loop timing parameters.
type SimulationConfig struct {
	DT           float64 `yaml:"dt"`             // Fixed timestep in seconds
	TickInterval float64 `yaml:"tick_interval"`  // Seconds between lifecycle ticks
	MaxFrameTime float64 `yaml:"max_frame_time"` // Cap on accumulated time per frame
}

// WorldConfig holds the world box dimensions.
// X and Z are centred on the origin, Y starts at 0.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Depth  float64 `yaml:"depth"`
}

// CreatureConfig holds creature economy and population parameters.
type CreatureConfig struct {
	Initial        int     `yaml:"initial"`
	MaxCreatures   int     `yaml:"max_creatures"`
	StartingEnergy float64 `yaml:"starting_energy"`
	ArriveEpsilon  float64 `yaml:"arrive_epsilon"` // Distance at which a destination counts as reached
	CollisionSize  float64 `yaml:"collision_size"` // Edge length of creature and food boxes
}

// GeneRange is the closed interval a gene may take.
type GeneRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// GenesConfig holds per-gene bounds.
type GenesConfig struct {
	ReplicationChance   GeneRange `yaml:"replication_chance"`
	DeathChance         GeneRange `yaml:"death_chance"`
	MutationChance      GeneRange `yaml:"mutation_chance"`
	Speed               GeneRange `yaml:"speed"`
	Size                GeneRange `yaml:"size"`
	ColourRed           GeneRange `yaml:"colour_red"`
	ColourGreen         GeneRange `yaml:"colour_green"`
	ColourBlue          GeneRange `yaml:"colour_blue"`
	MetabolicEfficiency GeneRange `yaml:"metabolic_efficiency"`
	SensoryRange        GeneRange `yaml:"sensory_range"`
	Greediness          GeneRange `yaml:"greediness"`
	Thriftiness         GeneRange `yaml:"thriftiness"`
	Shininess           GeneRange `yaml:"shininess"`
}

// Ranges returns the gene ranges in gene index order.
func (g GenesConfig) Ranges() []GeneRange {
	return []GeneRange{
		g.ReplicationChance,
		g.DeathChance,
		g.MutationChance,
		g.Speed,
		g.Size,
		g.ColourRed,
		g.ColourGreen,
		g.ColourBlue,
		g.MetabolicEfficiency,
		g.SensoryRange,
		g.Greediness,
		g.Thriftiness,
		g.Shininess,
	}
}

// MutationConfig holds mutation parameters.
type MutationConfig struct {
	// Sigma > 0 perturbs genes with Gaussian noise scaled to the gene range
	// instead of resampling them uniformly.
	Sigma float64 `yaml:"sigma"`
}

// SpeciesConfig holds speciation parameters.
type SpeciesConfig struct {
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// FoodConfig holds food spawning parameters.
type FoodConfig struct {
	MaxFood       int     `yaml:"max_food"`
	Fillingness   float64 `yaml:"fillingness"`
	GridCellSize  float64 `yaml:"grid_cell_size"`
	SpawnAttempts int     `yaml:"spawn_attempts"` // Rejection-sampling tries against the fertility field
}

// FertilityConfig holds noise parameters for the food fertility field.
type FertilityConfig struct {
	Scale    float64 `yaml:"scale"`    // Base noise frequency
	Contrast float64 `yaml:"contrast"` // Exponent applied to the normalized noise
	Floor    float64 `yaml:"floor"`    // Minimum fertility anywhere in the world
}

// ClockConfig holds calendar parameters.
type ClockConfig struct {
	DayLength float64 `yaml:"day_length"` // Seconds of simulation per calendar day
	StartHour float64 `yaml:"start_hour"`
}

// CensusConfig holds census and persistence parameters.
type CensusConfig struct {
	Enabled       bool          `yaml:"enabled"`
	IntervalTicks int           `yaml:"interval_ticks"` // Lifecycle ticks between censuses
	FlushInterval time.Duration `yaml:"flush_interval"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	CSV           bool          `yaml:"csv"` // Write census rows to the output dir
}

// DatabaseConfig holds MySQL connection settings.
// Values can be overridden from the environment.
type DatabaseConfig struct {
	URL      string `yaml:"url" config:"DB_URL"`
	User     string `yaml:"user" config:"DB_USER"`
	Password string `yaml:"password" config:"DB_PASSWORD"`
	Name     string `yaml:"name" config:"DB_NAME"`
}

// RedisConfig holds live feed settings.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled" config:"REDIS_ENABLED"`
	Address string `yaml:"address" config:"REDIS_ADDRESS"`
	Channel string `yaml:"channel"`
}

// APIConfig holds dashboard API settings.
type APIConfig struct {
	Addr         string        `yaml:"addr" config:"API_ADDR"`
	DefaultLimit int           `yaml:"default_limit"`
	MaxLimit     int           `yaml:"max_limit"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int     `yaml:"stats_window"` // Lifecycle ticks per stats window
	BookmarkHistorySize int     `yaml:"bookmark_history_size"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
	EMAAlpha            float64 `yaml:"ema_alpha"`
}

// BookmarksConfig holds bookmark detection thresholds.
type BookmarksConfig struct {
	PopulationCrash  PopulationCrashConfig  `yaml:"population_crash"`
	PopulationBoom   PopulationBoomConfig   `yaml:"population_boom"`
	MassExtinction   MassExtinctionConfig   `yaml:"mass_extinction"`
	SpeciationBurst  SpeciationBurstConfig  `yaml:"speciation_burst"`
	StablePopulation StablePopulationConfig `yaml:"stable_population"`
}

// PopulationCrashConfig holds population crash detection parameters.
type PopulationCrashConfig struct {
	DropPercent float64 `yaml:"drop_percent"`
	MinDrop     int     `yaml:"min_drop"`
}

// PopulationBoomConfig holds population boom detection parameters.
type PopulationBoomConfig struct {
	Multiplier    float64 `yaml:"multiplier"`
	MinPopulation int     `yaml:"min_population"`
}

// MassExtinctionConfig holds mass extinction detection parameters.
type MassExtinctionConfig struct {
	MinExtinctions int `yaml:"min_extinctions"`
}

// SpeciationBurstConfig holds speciation burst detection parameters.
type SpeciationBurstConfig struct {
	Multiplier float64 `yaml:"multiplier"`
	MinNew     int     `yaml:"min_new"`
}

// StablePopulationConfig holds stable population detection parameters.
type StablePopulationConfig struct {
	MinPopulation int     `yaml:"min_population"`
	CVThreshold   float64 `yaml:"cv_threshold"`
	StableWindows int     `yaml:"stable_windows"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	TicksPerSecond float64 // 1 / Simulation.DT
	FrameTime      time.Duration
	MaxEnergy      float64 // Starting energy scaled by the largest size gene
	HalfEnergy     float64 // Energy a parent pays and a child starts with
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. Connection settings are
// then overridden from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.ComputeDerived()

	return cfg, nil
}

// applyEnv overrides connection settings from environment variables.
func (c *Config) applyEnv() error {
	if err := jlconfig.FromEnv().To(&c.Database); err != nil {
		return fmt.Errorf("reading database env: %w", err)
	}
	if err := jlconfig.FromEnv().To(&c.Redis); err != nil {
		return fmt.Errorf("reading redis env: %w", err)
	}
	if err := jlconfig.FromEnv().To(&c.API); err != nil {
		return fmt.Errorf("reading api env: %w", err)
	}
	return nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	if c.Simulation.DT <= 0 {
		return fmt.Errorf("simulation.dt must be positive, got %v", c.Simulation.DT)
	}
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("simulation.tick_interval must be positive, got %v", c.Simulation.TickInterval)
	}
	if c.World.Width < 2 || c.World.Height < 2 || c.World.Depth < 2 {
		return fmt.Errorf("world dimensions must be at least 2, got %vx%vx%v", c.World.Width, c.World.Height, c.World.Depth)
	}
	if c.Creature.MaxCreatures < 1 {
		return fmt.Errorf("creature.max_creatures must be at least 1")
	}
	for i, r := range c.Genes.Ranges() {
		if r.Max < r.Min {
			return fmt.Errorf("gene %d: max %v below min %v", i, r.Max, r.Min)
		}
	}
	if c.Census.IntervalTicks < 1 {
		return fmt.Errorf("census.interval_ticks must be at least 1")
	}
	return nil
}

// ComputeDerived recalculates values derived from the loaded config.
// Call it after changing fields programmatically.
func (c *Config) ComputeDerived() {
	c.Derived.TicksPerSecond = 1.0 / c.Simulation.DT
	c.Derived.FrameTime = time.Duration(c.Simulation.DT * float64(time.Second))
	c.Derived.MaxEnergy = c.Creature.StartingEnergy + c.Genes.Size.Max*c.Creature.StartingEnergy
	c.Derived.HalfEnergy = c.Creature.StartingEnergy * 0.5
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
