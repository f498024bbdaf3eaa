package nav

import (
	"math/rand"
	"testing"

	"hunt-and-hide/sim/internal/geom"
)

func wallObstacle(id string, minX, minZ, width, depth float64) Obstacle {
	return Obstacle{ID: id, Tag: "wall", MinX: minX, MinZ: minZ, Width: width, Depth: depth}
}

func TestFindPathOpenField(t *testing.T) {
	planner := NewPlanner(nil, 40, 40)
	start := geom.Vec3{X: 4, Z: 4}
	target := geom.Vec3{X: 34, Z: 34}
	path, ok := planner.FindPath(start, target)
	if !ok {
		t.Fatalf("expected a path across an empty field")
	}
	if len(path) == 0 {
		t.Fatalf("expected waypoints, got none")
	}
	last := path[len(path)-1]
	if !last.Eq(target) {
		t.Fatalf("path should end on the target, got %v", last)
	}
}

func TestFindPathRoutesAroundWall(t *testing.T) {
	// A wall across the middle with a gap on the right side.
	wall := wallObstacle("wall-1", 0, 18, 30, 4)
	planner := NewPlanner([]Obstacle{wall}, 40, 40)

	start := geom.Vec3{X: 10, Z: 4}
	target := geom.Vec3{X: 10, Z: 36}
	path, ok := planner.FindPath(start, target)
	if !ok {
		t.Fatalf("expected a path through the gap")
	}
	maxX := 0.0
	for _, node := range path {
		if node.X > maxX {
			maxX = node.X
		}
	}
	if maxX < 30 {
		t.Fatalf("path should detour through the gap at x>30, max x was %.2f", maxX)
	}
}

func TestFindPathUnreachableTarget(t *testing.T) {
	// Target sealed inside a box.
	walls := []Obstacle{
		wallObstacle("n", 10, 10, 12, 2),
		wallObstacle("s", 10, 20, 12, 2),
		wallObstacle("w", 10, 10, 2, 12),
		wallObstacle("e", 20, 10, 2, 12),
	}
	planner := NewPlanner(walls, 40, 40)
	if _, ok := planner.FindPath(geom.Vec3{X: 4, Z: 4}, geom.Vec3{X: 16, Z: 16}); ok {
		t.Fatalf("expected no path into a sealed box")
	}
}

func TestFindPathFromBlockedStartSnaps(t *testing.T) {
	wall := wallObstacle("wall-1", 10, 10, 6, 6)
	planner := NewPlanner([]Obstacle{wall}, 40, 40)
	// Start inside the wall footprint; the planner should snap to the
	// nearest walkable cell rather than fail.
	path, ok := planner.FindPath(geom.Vec3{X: 13, Z: 13}, geom.Vec3{X: 30, Z: 30})
	if !ok {
		t.Fatalf("expected path after snapping a blocked start")
	}
	if len(path) == 0 {
		t.Fatalf("expected waypoints after snapping")
	}
}

func TestLineOfSightBlockedByWall(t *testing.T) {
	wall := wallObstacle("wall-1", 18, 0, 4, 40)
	planner := NewPlanner([]Obstacle{wall}, 40, 40)

	a := geom.Vec3{X: 5, Z: 20}
	b := geom.Vec3{X: 35, Z: 20}
	if planner.LineOfSight(a, b) {
		t.Fatalf("wall should block line of sight")
	}
	c := geom.Vec3{X: 5, Z: 5}
	d := geom.Vec3{X: 10, Z: 35}
	if !planner.LineOfSight(c, d) {
		t.Fatalf("clear segment should have line of sight")
	}
}

func TestLineOfSightIgnoresHeight(t *testing.T) {
	planner := NewPlanner(nil, 40, 40)
	a := geom.Vec3{X: 5, Y: 1.6, Z: 5}
	b := geom.Vec3{X: 30, Y: 0, Z: 30}
	if !planner.LineOfSight(a, b) {
		t.Fatalf("height difference alone should not block sight")
	}
}

func TestRaycastReportsNearestHit(t *testing.T) {
	near := wallObstacle("near", 10, 18, 4, 4)
	far := wallObstacle("far", 24, 18, 4, 4)
	planner := NewPlanner([]Obstacle{near, far}, 40, 40)

	hit, ok := planner.Raycast(geom.Vec3{X: 2, Z: 20}, geom.Vec3{X: 1}, 40)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if hit.Tag != "wall" {
		t.Fatalf("expected wall tag, got %q", hit.Tag)
	}
	if hit.Distance < 7.9 || hit.Distance > 8.1 {
		t.Fatalf("expected hit at ~8 units, got %.3f", hit.Distance)
	}
}

func TestRaycastMissesOutOfRange(t *testing.T) {
	wall := wallObstacle("wall-1", 30, 18, 4, 4)
	planner := NewPlanner([]Obstacle{wall}, 40, 40)
	if _, ok := planner.Raycast(geom.Vec3{X: 2, Z: 20}, geom.Vec3{X: 1}, 10); ok {
		t.Fatalf("hit beyond maxDistance should be ignored")
	}
}

func TestSamplePointPrefersRequestedPoint(t *testing.T) {
	planner := NewPlanner(nil, 40, 40)
	near := geom.Vec3{X: 15, Z: 15}
	got, ok := planner.SamplePoint(near, 5)
	if !ok {
		t.Fatalf("expected a sample on open ground")
	}
	if got.FlatDistance(near) > geom.Epsilon {
		t.Fatalf("open ground should return the requested point, got %v", got)
	}
}

func TestSamplePointEscapesObstacle(t *testing.T) {
	wall := wallObstacle("wall-1", 14, 14, 6, 6)
	planner := NewPlanner([]Obstacle{wall}, 40, 40)
	near := geom.Vec3{X: 17, Z: 17}
	got, ok := planner.SamplePoint(near, 8)
	if !ok {
		t.Fatalf("expected a nearby walkable sample")
	}
	if !planner.IsWalkable(got) {
		t.Fatalf("sample %v should be walkable", got)
	}
	if got.FlatDistance(near) > 8 {
		t.Fatalf("sample %v exceeds the 8 unit radius", got)
	}
}

func TestSamplePointRejectsNonPositiveRadius(t *testing.T) {
	planner := NewPlanner(nil, 40, 40)
	if _, ok := planner.SamplePoint(geom.Vec3{X: 10, Z: 10}, 0); ok {
		t.Fatalf("zero radius should never produce a sample")
	}
}

func TestGenerateObstaclesKeepSpacing(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	obstacles := GenerateObstacles(rng, 8, 100, 100)
	if len(obstacles) == 0 {
		t.Fatalf("expected at least one obstacle")
	}
	for i, a := range obstacles {
		for _, b := range obstacles[i+1:] {
			if a.Overlaps(b, 0) {
				t.Fatalf("obstacles %s and %s overlap", a.ID, b.ID)
			}
		}
	}
}

func TestGenerateObstaclesDeterministic(t *testing.T) {
	first := GenerateObstacles(rand.New(rand.NewSource(7)), 6, 80, 80)
	second := GenerateObstacles(rand.New(rand.NewSource(7)), 6, 80, 80)
	if len(first) != len(second) {
		t.Fatalf("same seed produced %d vs %d obstacles", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("obstacle %d differs between identical seeds", i)
		}
	}
}
