package nav

import (
	"math"

	"hunt-and-hide/sim/internal/geom"
)

const (
	// CellSize is the edge length of one walkable-grid cell in world units.
	CellSize = 2.0
	// AgentRadius pads walkability checks so agents keep clearance from
	// obstacle edges.
	AgentRadius = 0.5
)

type gridNeighbor struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

var gridNeighborOffsets = [...]gridNeighbor{
	{col: 0, row: -1, cost: 1, diagonal: false},
	{col: 1, row: 0, cost: 1, diagonal: false},
	{col: 0, row: 1, cost: 1, diagonal: false},
	{col: -1, row: 0, cost: 1, diagonal: false},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

// walkGrid rasterizes the world bounds and obstacle set into walkable cells.
// Columns run along X, rows along Z.
type walkGrid struct {
	cols, rows int
	cellSize   float64
	walkable   []bool
	width      float64
	depth      float64
}

func newWalkGrid(obstacles []Obstacle, width, depth float64) *walkGrid {
	cols := int(math.Ceil(width / CellSize))
	rows := int(math.Ceil(depth / CellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	grid := &walkGrid{
		cols:     cols,
		rows:     rows,
		cellSize: CellSize,
		walkable: make([]bool, cols*rows),
		width:    width,
		depth:    depth,
	}

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cx := (float64(col) + 0.5) * grid.cellSize
			cz := (float64(row) + 0.5) * grid.cellSize
			if cx < AgentRadius || cx > width-AgentRadius || cz < AgentRadius || cz > depth-AgentRadius {
				continue
			}
			blocked := false
			for _, obs := range obstacles {
				if obs.CircleOverlap(cx, cz, AgentRadius) {
					blocked = true
					break
				}
			}
			if !blocked {
				grid.walkable[row*cols+col] = true
			}
		}
	}

	return grid
}

func (g *walkGrid) inBounds(col, row int) bool {
	return g != nil && col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *walkGrid) index(col, row int) int {
	return row*g.cols + col
}

func (g *walkGrid) isWalkable(col, row int) bool {
	if !g.inBounds(col, row) {
		return false
	}
	return g.walkable[g.index(col, row)]
}

func (g *walkGrid) worldPos(col, row int) geom.Vec3 {
	return geom.Vec3{
		X: (float64(col) + 0.5) * g.cellSize,
		Z: (float64(row) + 0.5) * g.cellSize,
	}
}

func (g *walkGrid) locate(p geom.Vec3) (int, int, bool) {
	if g == nil || g.cols == 0 || g.rows == 0 {
		return 0, 0, false
	}
	maxX := g.width - 1e-6
	if maxX < 0 {
		maxX = 0
	}
	maxZ := g.depth - 1e-6
	if maxZ < 0 {
		maxZ = 0
	}
	x := geom.Clamp(p.X, 0, maxX)
	z := geom.Clamp(p.Z, 0, maxZ)
	col := int(x / g.cellSize)
	row := int(z / g.cellSize)
	if !g.inBounds(col, row) {
		return 0, 0, false
	}
	return col, row, true
}

// canTraverseDiagonal blocks diagonal steps that would clip an unwalkable
// corner cell.
func (g *walkGrid) canTraverseDiagonal(col, row int, delta gridNeighbor) bool {
	if g == nil || !delta.diagonal {
		return true
	}
	if !g.isWalkable(col+delta.col, row) || !g.isWalkable(col, row+delta.row) {
		return false
	}
	return true
}

// closestWalkable runs a breadth-first ring search from the given cell and
// returns the nearest walkable one, optionally capped at maxRings steps.
// maxRings <= 0 searches the whole grid.
func (g *walkGrid) closestWalkable(col, row, maxRings int) (int, int, bool) {
	if !g.inBounds(col, row) {
		return 0, 0, false
	}
	type node struct {
		col  int
		row  int
		dist int
	}
	visited := make(map[int]struct{})
	queue := []node{{col: col, row: row}}
	visited[g.index(col, row)] = struct{}{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if maxRings > 0 && current.dist > maxRings {
			continue
		}
		if g.walkable[g.index(current.col, current.row)] {
			return current.col, current.row, true
		}
		for _, delta := range gridNeighborOffsets {
			nc := current.col + delta.col
			nr := current.row + delta.row
			if !g.inBounds(nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if _, seen := visited[idx]; seen {
				continue
			}
			visited[idx] = struct{}{}
			queue = append(queue, node{col: nc, row: nr, dist: current.dist + 1})
		}
	}
	return 0, 0, false
}
