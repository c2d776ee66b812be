package telemetry

import "log/slog"

// PopulationStats is a report from PopulationLogger.
type PopulationStats struct {
	Population    int
	AvgPopulation float64
	Growth        int // births minus deaths since the last report
	AvgGrowth     float64
	GrowthRate    float64
	AvgGrowthRate float64
	Births        int
	Deaths        int
	TotalBirths   int
	TotalDeaths   int
}

// LogValue implements slog.LogValuer for structured logging.
func (s PopulationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("population", s.Population),
		slog.Float64("avg_population", s.AvgPopulation),
		slog.Int("growth", s.Growth),
		slog.Float64("avg_growth", s.AvgGrowth),
		slog.Float64("growth_rate", s.GrowthRate),
		slog.Float64("avg_growth_rate", s.AvgGrowthRate),
		slog.Int("births", s.Births),
		slog.Int("deaths", s.Deaths),
		slog.Int("total_births", s.TotalBirths),
		slog.Int("total_deaths", s.TotalDeaths),
	)
}

// PopulationLogger smooths population, growth and growth rate with an
// exponential moving average and reports them at a fixed interval.
type PopulationLogger struct {
	alpha    float64
	interval float64 // seconds between reports
	sinceLog float64

	births      int
	deaths      int
	totalBirths int
	totalDeaths int
	growth      int
	growthRate  float64

	avgPopulation float64
	avgGrowth     float64
	avgGrowthRate float64
}

// NewPopulationLogger creates a logger reporting every interval seconds.
// alpha must lie in (0, 1); values outside fall back to 0.99.
func NewPopulationLogger(interval, alpha float64) *PopulationLogger {
	if alpha <= 0 || alpha >= 1 {
		alpha = 0.99
	}
	if interval <= 0 {
		interval = 1
	}
	return &PopulationLogger{alpha: alpha, interval: interval}
}

// Update folds in one step's births and deaths. When the report interval has
// passed it returns a report and resets the since-last-report counters.
func (l *PopulationLogger) Update(delta float64, population, births, deaths int) (PopulationStats, bool) {
	l.sinceLog += delta

	l.births += births
	l.deaths += deaths
	l.totalBirths += births
	l.totalDeaths += deaths
	l.growth += births - deaths
	if population > 0 {
		l.growthRate = float64(l.growth) / float64(population)
	} else {
		l.growthRate = 0
	}

	a := l.alpha
	l.avgPopulation = a*l.avgPopulation + (1-a)*float64(population)
	l.avgGrowth = a*l.avgGrowth + (1-a)*float64(l.growth)
	l.avgGrowthRate = a*l.avgGrowthRate + (1-a)*l.growthRate

	if l.sinceLog < l.interval {
		return PopulationStats{}, false
	}
	l.sinceLog = 0

	stats := PopulationStats{
		Population:    population,
		AvgPopulation: l.avgPopulation,
		Growth:        l.growth,
		AvgGrowth:     l.avgGrowth,
		GrowthRate:    l.growthRate,
		AvgGrowthRate: l.avgGrowthRate,
		Births:        l.births,
		Deaths:        l.deaths,
		TotalBirths:   l.totalBirths,
		TotalDeaths:   l.totalDeaths,
	}

	l.births = 0
	l.deaths = 0
	l.growth = 0

	return stats, true
}
