package sense

import (
	"math"
	"testing"

	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/internal/nav"
)

type stubTarget struct {
	pos geom.Vec3
}

func (t *stubTarget) Position() geom.Vec3 { return t.pos }

func openWorld() *nav.Planner {
	return nav.NewPlanner(nil, 100, 100)
}

func defaultConfig() Config {
	return Config{
		VisionRange:            20,
		VisionAngleDeg:         90,
		HearingRange:           15,
		DetectionIntervalTicks: 3,
		EyeHeight:              1.6,
	}
}

func TestVisionDetectsTargetAhead(t *testing.T) {
	target := &stubTarget{pos: geom.Vec3{X: 50, Z: 60}}
	s := NewSensor(defaultConfig(), openWorld(), target, nil, "npc-1")

	ev, ok := s.Poll(1, geom.Vec3{X: 50, Z: 50}, geom.Vec3{Z: 1})
	if !ok || ev.Kind != TargetDetected {
		t.Fatalf("expected TargetDetected, got %+v ok=%v", ev, ok)
	}
	if !ev.Position.Eq(target.pos) {
		t.Fatalf("event position %v, want %v", ev.Position, target.pos)
	}
	if cached, has := s.LastKnown(); !has || !cached.Eq(target.pos) {
		t.Fatalf("cache %v has=%v", cached, has)
	}
}

func TestVisionRangeBoundaryInclusive(t *testing.T) {
	cfg := defaultConfig()
	self := geom.Vec3{X: 50, Z: 50}

	atRange := &stubTarget{pos: geom.Vec3{X: 50, Z: 50 + cfg.VisionRange}}
	s := NewSensor(cfg, openWorld(), atRange, nil, "npc-1")
	if !s.CanSeeTarget(self, geom.Vec3{Z: 1}) {
		t.Fatalf("target at exactly visionRange should be visible")
	}

	beyond := &stubTarget{pos: geom.Vec3{X: 50, Z: 50 + cfg.VisionRange + 0.01}}
	s = NewSensor(cfg, openWorld(), beyond, nil, "npc-1")
	if s.CanSeeTarget(self, geom.Vec3{Z: 1}) {
		t.Fatalf("target beyond visionRange should not be visible")
	}
}

func TestVisionConeBoundaryInclusive(t *testing.T) {
	cfg := defaultConfig()
	self := geom.Vec3{X: 50, Z: 50}
	half := cfg.VisionAngleDeg / 2 * math.Pi / 180

	// Exactly on the cone edge.
	edge := geom.Vec3{X: 50 + 10*math.Sin(half), Z: 50 + 10*math.Cos(half)}
	s := NewSensor(cfg, openWorld(), &stubTarget{pos: edge}, nil, "npc-1")
	if !s.CanSeeTarget(self, geom.Vec3{Z: 1}) {
		t.Fatalf("target on the cone boundary should be visible")
	}

	// A degree past the edge.
	past := half + math.Pi/180
	outside := geom.Vec3{X: 50 + 10*math.Sin(past), Z: 50 + 10*math.Cos(past)}
	s = NewSensor(cfg, openWorld(), &stubTarget{pos: outside}, nil, "npc-1")
	if s.CanSeeTarget(self, geom.Vec3{Z: 1}) {
		t.Fatalf("target past the cone boundary should not be visible")
	}
}

func TestVisionBlockedByObstacle(t *testing.T) {
	wall := nav.Obstacle{ID: "wall", Tag: "wall", MinX: 48, MinZ: 54, Width: 4, Depth: 2}
	planner := nav.NewPlanner([]nav.Obstacle{wall}, 100, 100)
	target := &stubTarget{pos: geom.Vec3{X: 50, Z: 60}}
	s := NewSensor(defaultConfig(), planner, target, nil, "npc-1")
	if s.CanSeeTarget(geom.Vec3{X: 50, Z: 50}, geom.Vec3{Z: 1}) {
		t.Fatalf("wall between sensor and target should block vision")
	}
}

func TestPollThrottleAndLossEdge(t *testing.T) {
	target := &stubTarget{pos: geom.Vec3{X: 50, Z: 58}}
	s := NewSensor(defaultConfig(), openWorld(), target, nil, "npc-1")
	self := geom.Vec3{X: 50, Z: 50}
	forward := geom.Vec3{Z: 1}

	if _, ok := s.Poll(10, self, forward); !ok {
		t.Fatalf("first poll should detect")
	}
	// Inside the interval: gated.
	if _, ok := s.Poll(11, self, forward); ok {
		t.Fatalf("poll inside the detection interval should be gated")
	}
	// Target walks out of range; next eligible poll reports the loss once.
	target.pos = geom.Vec3{X: 50, Z: 90}
	ev, ok := s.Poll(13, self, forward)
	if !ok || ev.Kind != TargetLost {
		t.Fatalf("expected TargetLost, got %+v ok=%v", ev, ok)
	}
	if _, ok := s.Poll(16, self, forward); ok {
		t.Fatalf("loss should only be reported on the edge")
	}
}

func TestMissingTargetFailsSilently(t *testing.T) {
	s := NewSensor(defaultConfig(), openWorld(), nil, nil, "npc-1")
	if s.CanSeeTarget(geom.Vec3{X: 50, Z: 50}, geom.Vec3{Z: 1}) {
		t.Fatalf("nil target must never be visible")
	}
	if _, ok := s.Poll(1, geom.Vec3{X: 50, Z: 50}, geom.Vec3{Z: 1}); ok {
		t.Fatalf("nil target must not produce events")
	}
}

func TestHearSoundRespectsBothRadii(t *testing.T) {
	s := NewSensor(defaultConfig(), openWorld(), nil, nil, "npc-1")
	self := geom.Vec3{X: 50, Z: 50}

	// Within hearing range and event radius.
	ev, ok := s.HearSound(self, geom.Vec3{X: 50, Z: 60}, 12, "gunshot")
	if !ok || ev.Kind != SoundHeard {
		t.Fatalf("expected SoundHeard, got %+v ok=%v", ev, ok)
	}
	if cached, has := s.LastKnown(); !has || !cached.Eq(geom.Vec3{X: 50, Z: 60}) {
		t.Fatalf("hearing should refresh the cache, got %v has=%v", cached, has)
	}

	// Within hearing range but outside the event radius.
	if _, ok := s.HearSound(self, geom.Vec3{X: 50, Z: 60}, 8, "gunshot"); ok {
		t.Fatalf("sound radius smaller than the distance should not be heard")
	}
	// Within the event radius but outside hearing range.
	if _, ok := s.HearSound(self, geom.Vec3{X: 50, Z: 70}, 50, "gunshot"); ok {
		t.Fatalf("sound beyond hearingRange should not be heard")
	}
}

func TestHearSoundZeroRadiusNeverSatisfies(t *testing.T) {
	s := NewSensor(defaultConfig(), openWorld(), nil, nil, "npc-1")
	if _, ok := s.HearSound(geom.Vec3{}, geom.Vec3{}, 0, "voice"); ok {
		t.Fatalf("zero radius should never satisfy")
	}
	cfg := defaultConfig()
	cfg.HearingRange = 0
	deaf := NewSensor(cfg, openWorld(), nil, nil, "npc-1")
	if _, ok := deaf.HearSound(geom.Vec3{}, geom.Vec3{}, 10, "voice"); ok {
		t.Fatalf("zero hearing range should never satisfy")
	}
}
