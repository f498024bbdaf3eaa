package nav

import (
	"container/heap"
	"math"

	"hunt-and-hide/sim/internal/geom"
)

type gridPoint struct {
	col int
	row int
}

// octile distance; admissible for 8-connected grids with sqrt(2) diagonals.
func (g *walkGrid) heuristic(a, b gridPoint) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dz := math.Abs(float64(a.row - b.row))
	if dx > dz {
		return dx + (math.Sqrt2-1)*dz
	}
	return dz + (math.Sqrt2-1)*dx
}

type searchNode struct {
	point  gridPoint
	g      float64
	f      float64
	index  int
	parent *searchNode
}

type searchQueue []*searchNode

func (pq searchQueue) Len() int { return len(pq) }

func (pq searchQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq searchQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *searchQueue) Push(x any) {
	n := len(*pq)
	item := x.(*searchNode)
	item.index = n
	*pq = append(*pq, item)
}

func (pq *searchQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func (g *walkGrid) astar(start, goal gridPoint) ([]gridPoint, bool) {
	open := &searchQueue{}
	heap.Init(open)
	heap.Push(open, &searchNode{point: start, g: 0, f: g.heuristic(start, goal)})
	gScore := map[int]float64{g.index(start.col, start.row): 0}
	closed := make(map[int]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		currIdx := g.index(current.point.col, current.point.row)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstructPath(current), true
		}

		for _, delta := range gridNeighborOffsets {
			if delta.diagonal && !g.canTraverseDiagonal(current.point.col, current.point.row, delta) {
				continue
			}
			nc := current.point.col + delta.col
			nr := current.point.row + delta.row
			if !g.isWalkable(nc, nr) {
				continue
			}
			idx := g.index(nc, nr)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentativeG := current.g + delta.cost
			if prev, ok := gScore[idx]; ok && tentativeG >= prev {
				continue
			}
			gScore[idx] = tentativeG
			next := gridPoint{col: nc, row: nr}
			heap.Push(open, &searchNode{
				point:  next,
				g:      tentativeG,
				f:      tentativeG + g.heuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstructPath(end *searchNode) []gridPoint {
	if end == nil {
		return nil
	}
	path := make([]gridPoint, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// findPath resolves start and goal to grid cells and runs A*. The returned
// waypoints exclude the start cell and end exactly on the requested target.
func (g *walkGrid) findPath(start, target geom.Vec3) ([]geom.Vec3, bool) {
	if g == nil {
		return nil, false
	}
	startCol, startRow, ok := g.locate(start)
	if !ok {
		return nil, false
	}
	goalCol, goalRow, ok := g.locate(target)
	if !ok {
		return nil, false
	}
	if !g.isWalkable(startCol, startRow) {
		sc, sr, ok := g.closestWalkable(startCol, startRow, 0)
		if !ok {
			return nil, false
		}
		startCol, startRow = sc, sr
	}
	if !g.isWalkable(goalCol, goalRow) {
		return nil, false
	}
	nodes, ok := g.astar(gridPoint{col: startCol, row: startRow}, gridPoint{col: goalCol, row: goalRow})
	if !ok || len(nodes) == 0 {
		return nil, false
	}
	if len(nodes) == 1 {
		return []geom.Vec3{target}, true
	}
	path := make([]geom.Vec3, 0, len(nodes))
	for i := 1; i < len(nodes); i++ {
		path = append(path, g.worldPos(nodes[i].col, nodes[i].row))
	}
	last := path[len(path)-1]
	if last.FlatDistance(target) > 1 {
		path = append(path, target)
	} else {
		path[len(path)-1] = target
	}
	return path, true
}
