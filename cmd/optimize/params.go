// Package main provides CMA-ES optimization for critters simulation parameters.
package main

import (
	"github.com/pthm-cable/critters/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Creature economy
			{Name: "starting_energy", Path: "creature.starting_energy", Min: 20, Max: 400, Default: 100},
			{Name: "max_creatures", Path: "creature.max_creatures", Min: 64, Max: 1024, Default: 512},
			// Food
			{Name: "max_food", Path: "food.max_food", Min: 5, Max: 200, Default: 10},
			{Name: "fillingness", Path: "food.fillingness", Min: 0.2, Max: 5.0, Default: 1.0},
			// Mutation and speciation
			{Name: "mutation_sigma", Path: "mutation.sigma", Min: 0, Max: 0.5, Default: 0},
			{Name: "similarity_threshold", Path: "species.similarity_threshold", Min: 0.6, Max: 0.98, Default: 0.85},
			// Gene ceilings (floors locked)
			{Name: "replication_chance_max", Path: "genes.replication_chance.max", Min: 0.05, Max: 1.0, Default: 1.0},
			{Name: "death_chance_max", Path: "genes.death_chance.max", Min: 0.01, Max: 1.0, Default: 1.0},
			{Name: "speed_max", Path: "genes.speed.max", Min: 1.0, Max: 16.0, Default: 8.0},
			{Name: "sensory_range_max", Path: "genes.sensory_range.max", Min: 4.0, Max: 64.0, Default: 32.0},
			// Fertility field
			{Name: "fertility_contrast", Path: "fertility.contrast", Min: 0.5, Max: 4.0, Default: 1.5},
			{Name: "fertility_floor", Path: "fertility.floor", Min: 0.0, Max: 0.8, Default: 0.1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	i := 0

	cfg.Creature.StartingEnergy = clamped[i]
	i++
	cfg.Creature.MaxCreatures = int(clamped[i])
	i++

	cfg.Food.MaxFood = int(clamped[i])
	i++
	cfg.Food.Fillingness = clamped[i]
	i++

	cfg.Mutation.Sigma = clamped[i]
	i++
	cfg.Species.SimilarityThreshold = clamped[i]
	i++

	cfg.Genes.ReplicationChance.Max = max(clamped[i], cfg.Genes.ReplicationChance.Min)
	i++
	cfg.Genes.DeathChance.Max = max(clamped[i], cfg.Genes.DeathChance.Min)
	i++
	cfg.Genes.Speed.Max = max(clamped[i], cfg.Genes.Speed.Min)
	i++
	cfg.Genes.SensoryRange.Max = max(clamped[i], cfg.Genes.SensoryRange.Min)
	i++

	cfg.Fertility.Contrast = clamped[i]
	i++
	cfg.Fertility.Floor = clamped[i]

	if cfg.Creature.Initial > cfg.Creature.MaxCreatures {
		cfg.Creature.Initial = cfg.Creature.MaxCreatures
	}
	cfg.ComputeDerived()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Creature.StartingEnergy,
		float64(cfg.Creature.MaxCreatures),
		float64(cfg.Food.MaxFood),
		cfg.Food.Fillingness,
		cfg.Mutation.Sigma,
		cfg.Species.SimilarityThreshold,
		cfg.Genes.ReplicationChance.Max,
		cfg.Genes.DeathChance.Max,
		cfg.Genes.Speed.Max,
		cfg.Genes.SensoryRange.Max,
		cfg.Fertility.Contrast,
		cfg.Fertility.Floor,
	}
}
