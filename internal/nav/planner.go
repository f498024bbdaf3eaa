package nav

import (
	"math"

	"hunt-and-hide/sim/internal/geom"
)

// Planner answers walkability, path, and visibility queries against a fixed
// obstacle layout. It holds no per-agent state; Service layers movers on top.
type Planner struct {
	grid      *walkGrid
	obstacles []Obstacle
	width     float64
	depth     float64
}

// NewPlanner rasterizes the obstacle layout into a walkable grid.
func NewPlanner(obstacles []Obstacle, width, depth float64) *Planner {
	return &Planner{
		grid:      newWalkGrid(obstacles, width, depth),
		obstacles: obstacles,
		width:     width,
		depth:     depth,
	}
}

// Obstacles returns the layout the planner was built from.
func (p *Planner) Obstacles() []Obstacle {
	if p == nil {
		return nil
	}
	return p.obstacles
}

// Bounds returns the world extent on the XZ plane.
func (p *Planner) Bounds() (width, depth float64) {
	if p == nil {
		return 0, 0
	}
	return p.width, p.depth
}

// FindPath computes waypoints from start to target, or false when the target
// is unreachable.
func (p *Planner) FindPath(start, target geom.Vec3) ([]geom.Vec3, bool) {
	if p == nil {
		return nil, false
	}
	return p.grid.findPath(start, target)
}

// IsWalkable reports whether the point lies on a walkable cell.
func (p *Planner) IsWalkable(point geom.Vec3) bool {
	if p == nil {
		return false
	}
	col, row, ok := p.grid.locate(point)
	if !ok {
		return false
	}
	return p.grid.isWalkable(col, row)
}

// SamplePoint returns a walkable position within maxRadius of near. The
// point itself is preferred; otherwise the nearest walkable cell center
// inside the radius is used. A non-positive radius never satisfies.
func (p *Planner) SamplePoint(near geom.Vec3, maxRadius float64) (geom.Vec3, bool) {
	if p == nil || maxRadius <= 0 {
		return geom.Vec3{}, false
	}
	col, row, ok := p.grid.locate(near)
	if !ok {
		return geom.Vec3{}, false
	}
	if p.grid.isWalkable(col, row) {
		return geom.Vec3{X: near.X, Z: near.Z}, true
	}
	rings := int(math.Ceil(maxRadius / p.grid.cellSize))
	wc, wr, ok := p.grid.closestWalkable(col, row, rings)
	if !ok {
		return geom.Vec3{}, false
	}
	candidate := p.grid.worldPos(wc, wr)
	if candidate.FlatDistance(near) > maxRadius {
		return geom.Vec3{}, false
	}
	return candidate, true
}
