// Package species clusters creatures by chromosome similarity.
package species

import (
	"math"
	"sort"

	"github.com/pthm-cable/critters/genetics"
)

// Color is an RGB display colour for a species.
type Color struct {
	R, G, B uint8
}

// Species is a group of genetically similar creatures.
type Species struct {
	ID               int
	Name             string
	Representative   *genetics.Chromosome // compared against prospective members
	RepresentativeID uint32
	Color            Color
	CreatedTick      int32
	ExtinctTick      int32 // -1 while extant

	members        map[uint32]struct{}
	numPastMembers int
	offspring      int
}

// NumMembers returns the number of living members.
func (s *Species) NumMembers() int {
	return len(s.members)
}

// NumPastMembers returns the number of members that have died.
func (s *Species) NumPastMembers() int {
	return s.numPastMembers
}

// TotalMembers returns living plus past members.
func (s *Species) TotalMembers() int {
	return len(s.members) + s.numPastMembers
}

// IsExtinct reports whether the species once had members and has none left.
func (s *Species) IsExtinct() bool {
	return len(s.members) == 0 && s.numPastMembers > 0
}

// HasMember reports whether creatureID is a living member.
func (s *Species) HasMember(creatureID uint32) bool {
	_, ok := s.members[creatureID]
	return ok
}

// Offspring returns the number of members born to existing members.
func (s *Species) Offspring() int {
	return s.offspring
}

// NameFunc returns the name for a new species.
type NameFunc func() string

// Registry assigns creatures to species.
// It is not safe for concurrent use.
type Registry struct {
	species   []*Species
	byID      map[int]*Species
	bounds    *genetics.Bounds
	threshold float64
	nextID    int
	names     NameFunc
	colors    []Color

	// Events since last DrainEvents
	newSpecies  int
	extinctions int
}

// NewRegistry creates a registry. Chromosomes with similarity at or above
// threshold to a species representative join that species.
func NewRegistry(bounds *genetics.Bounds, threshold float64, names NameFunc) *Registry {
	return &Registry{
		byID:      make(map[int]*Species),
		bounds:    bounds,
		threshold: threshold,
		nextID:    1,
		names:     names,
		colors:    generateDistinctColors(64),
	}
}

// generateDistinctColors creates visually distinct colors using golden angle.
func generateDistinctColors(count int) []Color {
	colors := make([]Color, count)
	goldenAngle := 137.508

	for i := 0; i < count; i++ {
		hue := math.Mod(float64(i)*goldenAngle, 360.0)
		r, g, b := hsvToRGB(hue, 0.7, 0.9)
		colors[i] = Color{R: r, G: g, B: b}
	}
	return colors
}

func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	h = math.Mod(h, 360)
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}

// Assign adds a creature to the first extant species whose representative is
// similar enough, or founds a new species with the creature as representative.
// The bool result is true when a new species was created.
func (r *Registry) Assign(creatureID uint32, chrom *genetics.Chromosome, tick int32) (*Species, bool) {
	for _, sp := range r.species {
		if sp.IsExtinct() || sp.Representative == nil {
			continue
		}
		if sp.Representative.Similarity(chrom, r.bounds) >= r.threshold {
			sp.members[creatureID] = struct{}{}
			return sp, false
		}
	}

	sp := &Species{
		ID:               r.nextID,
		Representative:   chrom.Copy(),
		RepresentativeID: creatureID,
		Color:            r.colors[r.nextID%len(r.colors)],
		CreatedTick:      tick,
		ExtinctTick:      -1,
		members:          map[uint32]struct{}{creatureID: {}},
	}
	if r.names != nil {
		sp.Name = r.names()
	}
	r.nextID++
	r.species = append(r.species, sp)
	r.byID[sp.ID] = sp
	r.newSpecies++
	return sp, true
}

// Remove moves a creature from the living members to the past members.
// It reports whether the creature was a member.
func (r *Registry) Remove(speciesID int, creatureID uint32, tick int32) bool {
	sp := r.byID[speciesID]
	if sp == nil {
		return false
	}
	if _, ok := sp.members[creatureID]; !ok {
		return false
	}
	delete(sp.members, creatureID)
	sp.numPastMembers++
	if sp.IsExtinct() {
		sp.ExtinctTick = tick
		r.extinctions++
	}
	return true
}

// RecordOffspring counts a birth within a species.
func (r *Registry) RecordOffspring(speciesID int) {
	if sp := r.byID[speciesID]; sp != nil {
		sp.offspring++
	}
}

// Get returns a species by ID, or nil.
func (r *Registry) Get(id int) *Species {
	return r.byID[id]
}

// All returns every species ever created, in creation order.
func (r *Registry) All() []*Species {
	return r.species
}

// Extant returns species with at least one living member.
func (r *Registry) Extant() []*Species {
	out := make([]*Species, 0, len(r.species))
	for _, sp := range r.species {
		if sp.NumMembers() > 0 {
			out = append(out, sp)
		}
	}
	return out
}

// Color returns the colour for a species ID, or grey if unknown.
func (r *Registry) Color(id int) Color {
	if sp := r.byID[id]; sp != nil {
		return sp.Color
	}
	return Color{R: 128, G: 128, B: 128}
}

// DrainEvents returns species created and extinctions since the last call.
func (r *Registry) DrainEvents() (created, extinct int) {
	created, extinct = r.newSpecies, r.extinctions
	r.newSpecies, r.extinctions = 0, 0
	return created, extinct
}

// Stats contains summary statistics about all species.
type Stats struct {
	Count         int // extant species
	Extinct       int
	Total         int
	LivingMembers int
	LargestSize   int
	SmallestSize  int
}

// Info contains display information about a single species.
type Info struct {
	ID          int
	Name        string
	Size        int
	PastMembers int
	Offspring   int
	Color       Color
}

// Stats returns summary statistics about species distribution.
func (r *Registry) Stats() Stats {
	stats := Stats{Total: len(r.species)}
	for _, sp := range r.species {
		size := sp.NumMembers()
		if size == 0 {
			if sp.IsExtinct() {
				stats.Extinct++
			}
			continue
		}
		stats.Count++
		stats.LivingMembers += size
		if size > stats.LargestSize {
			stats.LargestSize = size
		}
		if stats.SmallestSize == 0 || size < stats.SmallestSize {
			stats.SmallestSize = size
		}
	}
	return stats
}

// Top returns info about the n largest extant species.
func (r *Registry) Top(n int) []Info {
	if n <= 0 {
		return nil
	}
	extant := r.Extant()
	if len(extant) == 0 {
		return nil
	}

	sort.SliceStable(extant, func(i, j int) bool {
		return extant[i].NumMembers() > extant[j].NumMembers()
	})

	if n > len(extant) {
		n = len(extant)
	}

	result := make([]Info, n)
	for i := 0; i < n; i++ {
		sp := extant[i]
		result[i] = Info{
			ID:          sp.ID,
			Name:        sp.Name,
			Size:        sp.NumMembers(),
			PastMembers: sp.NumPastMembers(),
			Offspring:   sp.Offspring(),
			Color:       sp.Color,
		}
	}
	return result
}
