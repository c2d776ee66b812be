// Package systems provides ECS systems for the simulation.
package systems

import (
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/critters/components"
	"github.com/pthm-cable/critters/world"
)

// Neighbor holds a nearby entity with its precomputed ground-plane distance.
type Neighbor struct {
	E      ecs.Entity
	DistSq float64
}

// SpatialGrid buckets entities by their X/Z position for radius queries.
type SpatialGrid struct {
	cellSize float64
	minX     float64
	minZ     float64
	cols     int
	rows     int
	cells    [][]ecs.Entity
}

// NewSpatialGrid creates a grid covering the ground plane of bounds.
func NewSpatialGrid(bounds world.Bounds3D, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 8
	}
	size := bounds.Size()
	cols := int(size.X/cellSize) + 1
	rows := int(size.Z/cellSize) + 1

	cells := make([][]ecs.Entity, cols*rows)
	for i := range cells {
		cells[i] = make([]ecs.Entity, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		minX:     bounds.Min.X,
		minZ:     bounds.Min.Z,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, z float64) {
	idx := g.cellIndex(x, z)
	g.cells[idx] = append(g.cells[idx], e)
}

// QueryRadiusInto appends entities within radius of (x, z) on the ground
// plane to dst. Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, z, radius float64, posMap *ecs.Map1[components.Position]) []Neighbor {
	if radius < 0 {
		return dst
	}
	radiusSq := radius * radius

	c0, r0 := g.cellCoords(x-radius, z-radius)
	c1, r1 := g.cellCoords(x+radius, z+radius)

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			for _, e := range g.cells[row*g.cols+col] {
				pos := posMap.Get(e)
				if pos == nil {
					continue
				}
				dx := pos.X - x
				dz := pos.Z - z
				distSq := dx*dx + dz*dz
				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: e, DistSq: distSq})
				}
			}
		}
	}

	return dst
}

// Len returns the number of entities in the grid.
func (g *SpatialGrid) Len() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

func (g *SpatialGrid) cellCoords(x, z float64) (col, row int) {
	col = int(math.Floor((x - g.minX) / g.cellSize))
	row = int(math.Floor((z - g.minZ) / g.cellSize))

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *SpatialGrid) cellIndex(x, z float64) int {
	col, row := g.cellCoords(x, z)
	return row*g.cols + col
}
