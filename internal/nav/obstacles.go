package nav

import (
	"fmt"
	"math/rand"

	"hunt-and-hide/sim/internal/geom"
)

// Obstacle is an axis-aligned block on the XZ plane. MinX/MinZ anchor the
// corner closest to the origin.
type Obstacle struct {
	ID    string  `json:"id"`
	Tag   string  `json:"tag"`
	MinX  float64 `json:"minX"`
	MinZ  float64 `json:"minZ"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

// Contains reports whether the point lies inside the obstacle footprint.
func (o Obstacle) Contains(p geom.Vec3) bool {
	return p.X >= o.MinX && p.X <= o.MinX+o.Width &&
		p.Z >= o.MinZ && p.Z <= o.MinZ+o.Depth
}

// CircleOverlap reports whether a circle of the given radius centered at
// (cx, cz) intersects the obstacle footprint.
func (o Obstacle) CircleOverlap(cx, cz, radius float64) bool {
	closestX := geom.Clamp(cx, o.MinX, o.MinX+o.Width)
	closestZ := geom.Clamp(cz, o.MinZ, o.MinZ+o.Depth)
	dx := cx - closestX
	dz := cz - closestZ
	return dx*dx+dz*dz < radius*radius
}

// Overlaps checks for AABB overlap with optional padding.
func (o Obstacle) Overlaps(other Obstacle, padding float64) bool {
	return o.MinX-padding < other.MinX+other.Width+padding &&
		o.MinX+o.Width+padding > other.MinX-padding &&
		o.MinZ-padding < other.MinZ+other.Depth+padding &&
		o.MinZ+o.Depth+padding > other.MinZ-padding
}

const (
	obstaclePlacementAttempts = 40
	obstacleSpacing           = 4.0
)

// GenerateObstacles scatters non-overlapping blocks inside the bounds using
// the provided RNG. Placement failures are skipped, so the result may hold
// fewer obstacles than requested.
func GenerateObstacles(rng *rand.Rand, count int, width, depth float64) []Obstacle {
	if rng == nil || count <= 0 || width <= 0 || depth <= 0 {
		return nil
	}
	obstacles := make([]Obstacle, 0, count)
	for i := 0; i < count; i++ {
		var placed bool
		for attempt := 0; attempt < obstaclePlacementAttempts; attempt++ {
			w := 4 + rng.Float64()*10
			d := 4 + rng.Float64()*10
			candidate := Obstacle{
				Tag:   "wall",
				MinX:  rng.Float64() * (width - w),
				MinZ:  rng.Float64() * (depth - d),
				Width: w,
				Depth: d,
			}
			overlap := false
			for _, existing := range obstacles {
				if candidate.Overlaps(existing, obstacleSpacing) {
					overlap = true
					break
				}
			}
			if !overlap {
				obstacles = append(obstacles, candidate)
				placed = true
				break
			}
		}
		if !placed {
			continue
		}
	}
	for i := range obstacles {
		obstacles[i].ID = fmt.Sprintf("obstacle-%d", i)
	}
	return obstacles
}
