package world

import "math/rand"

// Bounds1D is an interval on one axis.
type Bounds1D struct {
	Min, Max float64
}

// Contains reports whether v lies strictly inside the interval.
func (b Bounds1D) Contains(v float64) bool {
	return v > b.Min && v < b.Max
}

// Clip clamps v into [Min, Max].
func (b Bounds1D) Clip(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Sample returns a uniform value in [Min, Max).
func (b Bounds1D) Sample(rng *rand.Rand) float64 {
	return b.Min + rng.Float64()*(b.Max-b.Min)
}

// Bounds3D is an axis-aligned region of space.
type Bounds3D struct {
	Min, Max Vec3
}

// NewWorldBounds builds the world region for the given dimensions.
// X and Z are centred on the origin and Y starts at the ground. The upper
// corner is one unit short so a unit box clipped to it stays inside.
func NewWorldBounds(width, height, depth float64) Bounds3D {
	return Bounds3D{
		Min: Vec3{X: -0.5 * width, Y: 0, Z: -0.5 * depth},
		Max: Vec3{X: 0.5*width - 1, Y: height - 1, Z: 0.5*depth - 1},
	}
}

func (b Bounds3D) X() Bounds1D { return Bounds1D{b.Min.X, b.Max.X} }
func (b Bounds3D) Y() Bounds1D { return Bounds1D{b.Min.Y, b.Max.Y} }
func (b Bounds3D) Z() Bounds1D { return Bounds1D{b.Min.Z, b.Max.Z} }

// Contains reports whether p lies strictly inside the region on every axis.
func (b Bounds3D) Contains(p Vec3) bool {
	return b.X().Contains(p.X) && b.Y().Contains(p.Y) && b.Z().Contains(p.Z)
}

// Clip clamps p into the region.
func (b Bounds3D) Clip(p Vec3) Vec3 {
	return Vec3{b.X().Clip(p.X), b.Y().Clip(p.Y), b.Z().Clip(p.Z)}
}

// Sample returns a uniform point in the region.
func (b Bounds3D) Sample(rng *rand.Rand) Vec3 {
	return Vec3{b.X().Sample(rng), b.Y().Sample(rng), b.Z().Sample(rng)}
}

// SampleGround returns a uniform point on the ground plane (Y = Min.Y).
func (b Bounds3D) SampleGround(rng *rand.Rand) Vec3 {
	return Vec3{b.X().Sample(rng), b.Min.Y, b.Z().Sample(rng)}
}

// Size returns the extent along each axis.
func (b Bounds3D) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// AABB is an axis-aligned box given by its minimum corner and size.
type AABB struct {
	Pos  Vec3
	Size Vec3
}

// NewCube returns a box of edge length size at pos. A non-positive size
// defaults to 1.
func NewCube(pos Vec3, size float64) AABB {
	if size <= 0 {
		size = 1
	}
	return AABB{Pos: pos, Size: Vec3{size, size, size}}
}

// Max returns the far corner.
func (a AABB) Max() Vec3 {
	return a.Pos.Add(a.Size)
}

// Contains reports whether p lies inside the box, edges included.
func (a AABB) Contains(p Vec3) bool {
	m := a.Max()
	return p.X >= a.Pos.X && p.X <= m.X &&
		p.Y >= a.Pos.Y && p.Y <= m.Y &&
		p.Z >= a.Pos.Z && p.Z <= m.Z
}

// Intersects reports whether two boxes overlap, touching edges included.
func (a AABB) Intersects(o AABB) bool {
	am, om := a.Max(), o.Max()
	return a.Pos.X <= om.X && am.X >= o.Pos.X &&
		a.Pos.Y <= om.Y && am.Y >= o.Pos.Y &&
		a.Pos.Z <= om.Z && am.Z >= o.Pos.Z
}
