package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of lifecycle ticks.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`
	Calendar        string  `csv:"calendar"`

	// Counts at window end
	Population int `csv:"population"`
	Food       int `csv:"food"`
	Species    int `csv:"species"`

	// Events during window
	Births        int `csv:"births"`
	Deaths        int `csv:"deaths"`
	Starvations   int `csv:"starvations"`
	Mutations     int `csv:"mutations"`
	FoodEaten     int `csv:"food_eaten"`
	FoodPickedUp  int `csv:"food_picked_up"`
	ReservesEaten int `csv:"reserves_eaten"`
	NewSpecies    int `csv:"new_species"`
	Extinctions   int `csv:"extinctions"`

	Distance float64 `csv:"distance"` // total ground distance walked

	// Energy distribution (sampled at window end)
	EnergyMean float64 `csv:"energy_mean"`
	EnergyStd  float64 `csv:"energy_std"`
	EnergyP10  float64 `csv:"energy_p10"`
	EnergyP50  float64 `csv:"energy_p50"`
	EnergyP90  float64 `csv:"energy_p90"`

	AgeMean float64 `csv:"age_mean"`
	AgeMax  float64 `csv:"age_max"`

	// Gene means
	SpeedMean        float64 `csv:"speed_mean"`
	SizeMean         float64 `csv:"size_mean"`
	SensoryRangeMean float64 `csv:"sensory_range_mean"`
	MetabolismMean   float64 `csv:"metabolism_mean"`
	GreedinessMean   float64 `csv:"greediness_mean"`
	ThriftinessMean  float64 `csv:"thriftiness_mean"`
	ReplicationMean  float64 `csv:"replication_mean"`
	DeathChanceMean  float64 `csv:"death_chance_mean"`

	GeneDiversity float64 `csv:"gene_diversity"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarises a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// ComputeDistribution calculates mean, population std and percentiles.
func ComputeDistribution(values []float64) Distribution {
	n := len(values)
	if n == 0 {
		return Distribution{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.PopMeanStdDev(sorted, nil)
	return Distribution{
		Mean: mean,
		Std:  std,
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Max:  sorted[n-1],
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.String("calendar", s.Calendar),
		slog.Int("population", s.Population),
		slog.Int("food", s.Food),
		slog.Int("species", s.Species),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("starvations", s.Starvations),
		slog.Int("mutations", s.Mutations),
		slog.Int("food_eaten", s.FoodEaten),
		slog.Int("food_picked_up", s.FoodPickedUp),
		slog.Int("reserves_eaten", s.ReservesEaten),
		slog.Int("new_species", s.NewSpecies),
		slog.Int("extinctions", s.Extinctions),
		slog.Float64("distance", s.Distance),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Float64("energy_p10", s.EnergyP10),
		slog.Float64("energy_p50", s.EnergyP50),
		slog.Float64("energy_p90", s.EnergyP90),
		slog.Float64("age_mean", s.AgeMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("size_mean", s.SizeMean),
		slog.Float64("sensory_range_mean", s.SensoryRangeMean),
		slog.Float64("gene_diversity", s.GeneDiversity),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
