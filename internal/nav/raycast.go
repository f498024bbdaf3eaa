package nav

import (
	"math"

	"hunt-and-hide/sim/internal/geom"
)

// Hit describes the closest obstacle intersection along a ray.
type Hit struct {
	Point    geom.Vec3
	Distance float64
	Tag      string
}

// Raycast traces from origin along direction (projected onto the XZ plane)
// up to maxDistance and returns the nearest obstacle hit. A zero direction
// or non-positive distance never hits.
func (p *Planner) Raycast(origin, direction geom.Vec3, maxDistance float64) (Hit, bool) {
	if p == nil || maxDistance <= 0 {
		return Hit{}, false
	}
	dir := direction.Flat().Normalize()
	if dir.IsZero() {
		return Hit{}, false
	}

	best := Hit{Distance: math.MaxFloat64}
	found := false
	for _, obs := range p.obstacles {
		t, ok := raySlabAABB(origin.X, origin.Z, dir.X, dir.Z, obs)
		if !ok || t > maxDistance {
			continue
		}
		if t < best.Distance {
			best = Hit{
				Point:    origin.Add(dir.Scale(t)),
				Distance: t,
				Tag:      obs.Tag,
			}
			found = true
		}
	}
	if !found {
		return Hit{}, false
	}
	return best, true
}

// LineOfSight reports whether the straight segment from a to b is free of
// obstacles.
func (p *Planner) LineOfSight(a, b geom.Vec3) bool {
	if p == nil {
		return false
	}
	dist := a.FlatDistance(b)
	if dist <= geom.Epsilon {
		return true
	}
	dir := b.Sub(a)
	if _, blocked := p.Raycast(a, dir, dist-1e-6); blocked {
		return false
	}
	return true
}

// raySlabAABB intersects a 2D ray with an obstacle footprint using the slab
// method and returns the entry distance.
func raySlabAABB(ox, oz, dx, dz float64, obs Obstacle) (float64, bool) {
	tMin := 0.0
	tMax := math.MaxFloat64

	for _, axis := range [2]struct {
		origin, dir, lo, hi float64
	}{
		{ox, dx, obs.MinX, obs.MinX + obs.Width},
		{oz, dz, obs.MinZ, obs.MinZ + obs.Depth},
	} {
		if math.Abs(axis.dir) < geom.Epsilon {
			if axis.origin < axis.lo || axis.origin > axis.hi {
				return 0, false
			}
			continue
		}
		t1 := (axis.lo - axis.origin) / axis.dir
		t2 := (axis.hi - axis.origin) / axis.dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	return tMin, true
}
