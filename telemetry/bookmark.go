package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/critters/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkPopulationCrash  BookmarkType = "population_crash"
	BookmarkPopulationBoom   BookmarkType = "population_boom"
	BookmarkMassExtinction   BookmarkType = "mass_extinction"
	BookmarkSpeciationBurst  BookmarkType = "speciation_burst"
	BookmarkStablePopulation BookmarkType = "stable_population"
	BookmarkExtinct          BookmarkType = "extinct"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in the simulation.
type BookmarkDetector struct {
	cfg config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentPeak         int // peak population since the last crash
	stableWindowsCount int // consecutive windows with a stable population
	extinct            bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int, cfg config.BookmarksConfig) *BookmarkDetector {
	minHistory := cfg.StablePopulation.StableWindows
	if minHistory < 5 {
		minHistory = 5
	}
	if historySize < minHistory {
		historySize = minHistory
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkExtinct(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		if b := bd.checkPopulationCrash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkPopulationBoom(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
		if b := bd.checkSpeciationBurst(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	if b := bd.checkMassExtinction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if b := bd.checkStablePopulation(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if stats.Population > bd.recentPeak {
		bd.recentPeak = stats.Population
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// recent returns up to n of the most recent windows, oldest first.
func (bd *BookmarkDetector) recent(n int) []WindowStats {
	count := bd.historyIdx
	if bd.historyFull {
		count = bd.historySize
	}
	if n > count {
		n = count
	}
	out := make([]WindowStats, n)
	for i := 0; i < n; i++ {
		idx := (bd.historyIdx - n + i + bd.historySize) % bd.historySize
		out[i] = bd.history[idx]
	}
	return out
}

func (bd *BookmarkDetector) getHistory() []WindowStats {
	return bd.recent(bd.historySize)
}

func (bd *BookmarkDetector) checkExtinct(stats WindowStats) *Bookmark {
	if stats.Population > 0 {
		bd.extinct = false
		return nil
	}
	if bd.extinct || bd.recentPeak == 0 {
		return nil
	}
	bd.extinct = true
	return &Bookmark{
		Type:        BookmarkExtinct,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Population died out after peaking at %d", bd.recentPeak),
	}
}

func (bd *BookmarkDetector) checkPopulationCrash(stats WindowStats) *Bookmark {
	if bd.recentPeak == 0 {
		return nil
	}
	c := bd.cfg.PopulationCrash

	drop := bd.recentPeak - stats.Population
	dropPercent := float64(drop) / float64(bd.recentPeak)
	if dropPercent >= c.DropPercent && drop >= c.MinDrop {
		// Reset peak after crash
		oldPeak := bd.recentPeak
		bd.recentPeak = stats.Population

		return &Bookmark{
			Type:        BookmarkPopulationCrash,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", dropPercent*100, oldPeak, stats.Population),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkPopulationBoom(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	c := bd.cfg.PopulationBoom

	var sum float64
	for _, h := range history {
		sum += float64(h.Population)
	}
	avg := sum / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(stats.Population) >= avg*c.Multiplier && stats.Population >= c.MinPopulation {
		return &Bookmark{
			Type:        BookmarkPopulationBoom,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population %d is %.1fx average (%.1f)", stats.Population, float64(stats.Population)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkMassExtinction(stats WindowStats) *Bookmark {
	threshold := bd.cfg.MassExtinction.MinExtinctions
	if threshold <= 0 || stats.Extinctions < threshold {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkMassExtinction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d species went extinct in one window", stats.Extinctions),
	}
}

func (bd *BookmarkDetector) checkSpeciationBurst(stats WindowStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}
	c := bd.cfg.SpeciationBurst
	if stats.NewSpecies < c.MinNew {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.NewSpecies
	}
	avg := float64(total) / float64(len(history))
	// A burst after a quiet history always counts
	if avg > 0 && float64(stats.NewSpecies) < avg*c.Multiplier {
		return nil
	}

	return &Bookmark{
		Type:        BookmarkSpeciationBurst,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("%d new species against an average of %.1f", stats.NewSpecies, avg),
	}
}

func (bd *BookmarkDetector) checkStablePopulation(stats WindowStats) *Bookmark {
	c := bd.cfg.StablePopulation
	if c.StableWindows < 2 {
		return nil
	}
	if stats.Population < c.MinPopulation {
		bd.stableWindowsCount = 0
		return nil
	}

	window := bd.recent(c.StableWindows)
	if len(window) < c.StableWindows {
		return nil
	}

	var sum float64
	for _, h := range window {
		sum += float64(h.Population)
	}
	mean := sum / float64(len(window))

	var variance float64
	for _, h := range window {
		d := float64(h.Population) - mean
		variance += d * d
	}
	variance /= float64(len(window))

	cv := 0.0
	if mean > 0 {
		cv = math.Sqrt(variance) / mean
	}

	if cv < c.CVThreshold {
		bd.stableWindowsCount++
	} else {
		bd.stableWindowsCount = 0
	}

	// Trigger once per stable stretch
	if bd.stableWindowsCount == 1 {
		return &Bookmark{
			Type:        BookmarkStablePopulation,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Population stable around %.0f over %d windows (cv %.3f)", mean, len(window), cv),
		}
	}
	return nil
}
