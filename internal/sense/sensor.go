// Package sense implements per-agent perception: a throttled vision poll
// over a range-limited cone with line-of-sight, plus hearing fed by the
// sound bus. Sensors raise events as return values; the owning agent
// consumes them synchronously.
package sense

import (
	"context"

	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/internal/nav"
	"hunt-and-hide/sim/logging"
)

// EventKind tags what a sensor perceived.
type EventKind int

const (
	// TargetDetected fires while the target passes the full vision check.
	TargetDetected EventKind = iota
	// TargetLost fires once when a previously visible target drops out.
	TargetLost
	// SoundHeard fires when a broadcast lands within hearing range.
	SoundHeard
)

func (k EventKind) String() string {
	switch k {
	case TargetDetected:
		return "target-detected"
	case TargetLost:
		return "target-lost"
	case SoundHeard:
		return "sound-heard"
	default:
		return "unknown"
	}
}

// Event is one perception result. Position is the perceived location: the
// target's position for vision events, the broadcast origin for sounds.
type Event struct {
	Kind     EventKind
	Position geom.Vec3
	Category string
}

// Target is the perceivable handle the world exposes for the player probe.
type Target interface {
	Position() geom.Vec3
}

// ObstacleQuery answers ray queries for line-of-sight checks. *nav.Planner
// satisfies it.
type ObstacleQuery interface {
	Raycast(origin, direction geom.Vec3, maxDistance float64) (nav.Hit, bool)
}

// Config holds perception tunables. Ranges at or below zero never satisfy
// their check.
type Config struct {
	VisionRange            float64
	VisionAngleDeg         float64
	HearingRange           float64
	DetectionIntervalTicks uint64
	EyeHeight              float64
}

// Sensor is owned by exactly one agent and lives as long as it does.
type Sensor struct {
	cfg       Config
	obstacles ObstacleQuery
	target    Target

	lastPollTick uint64
	polled       bool
	visible      bool

	lastKnown    geom.Vec3
	hasLastKnown bool
}

// NewSensor builds a sensor. A nil target is tolerated; every vision check
// fails until Retarget supplies one, and the absence is logged once here
// rather than every tick.
func NewSensor(cfg Config, obstacles ObstacleQuery, target Target, publisher logging.Publisher, ownerID string) *Sensor {
	if target == nil && publisher != nil {
		publisher.Publish(context.Background(), logging.Event{
			Type:     "sense.no_target",
			Actor:    logging.AgentRef(ownerID),
			Severity: logging.SeverityWarn,
			Category: logging.CategorySystem,
		})
	}
	return &Sensor{cfg: cfg, obstacles: obstacles, target: target}
}

// Retarget swaps the perceived target. Passing nil blinds the sensor.
func (s *Sensor) Retarget(target Target) {
	if s == nil {
		return
	}
	s.target = target
	if target == nil {
		s.visible = false
	}
}

// TargetPosition returns the target's live position when a target exists.
func (s *Sensor) TargetPosition() (geom.Vec3, bool) {
	if s == nil || s.target == nil {
		return geom.Vec3{}, false
	}
	return s.target.Position(), true
}

// LastKnown returns the sensor's cached target position.
func (s *Sensor) LastKnown() (geom.Vec3, bool) {
	if s == nil {
		return geom.Vec3{}, false
	}
	return s.lastKnown, s.hasLastKnown
}

// Poll runs the throttled vision check. Calls inside the detection interval
// return no event. A visible target refreshes the cache and yields
// TargetDetected; losing a previously visible target yields TargetLost.
func (s *Sensor) Poll(tick uint64, selfPos, selfForward geom.Vec3) (Event, bool) {
	if s == nil {
		return Event{}, false
	}
	if s.polled && tick-s.lastPollTick < s.cfg.DetectionIntervalTicks {
		return Event{}, false
	}
	s.polled = true
	s.lastPollTick = tick

	visible := s.CanSeeTarget(selfPos, selfForward)
	wasVisible := s.visible
	s.visible = visible

	if visible {
		s.lastKnown = s.target.Position()
		s.hasLastKnown = true
		return Event{Kind: TargetDetected, Position: s.lastKnown}, true
	}
	if wasVisible {
		return Event{Kind: TargetLost, Position: s.lastKnown}, true
	}
	return Event{}, false
}

// CanSeeTarget re-evaluates the vision conditions without touching the
// interval gate or the cache. Agents use it for per-tick re-checks while
// chasing.
func (s *Sensor) CanSeeTarget(selfPos, selfForward geom.Vec3) bool {
	if s == nil || s.target == nil || s.cfg.VisionRange <= 0 {
		return false
	}
	targetPos := s.target.Position()
	dist := selfPos.FlatDistance(targetPos)
	if dist > s.cfg.VisionRange {
		return false
	}
	toTarget := targetPos.Sub(selfPos)
	// Boundary inclusive; the tolerance absorbs acos rounding at the edge.
	if selfForward.AngleDeg(toTarget) > s.cfg.VisionAngleDeg/2+1e-6 {
		return false
	}
	if s.obstacles != nil && dist > geom.Epsilon {
		eye := geom.Vec3{X: selfPos.X, Y: s.cfg.EyeHeight, Z: selfPos.Z}
		if _, blocked := s.obstacles.Raycast(eye, toTarget, dist-1e-6); blocked {
			return false
		}
	}
	return true
}

// HearSound applies the hearing rule to one broadcast: accepted when the
// source is within both the sensor's hearing range and the event radius.
// Acceptance refreshes the cache.
func (s *Sensor) HearSound(selfPos, pos geom.Vec3, radius float64, category string) (Event, bool) {
	if s == nil || s.cfg.HearingRange <= 0 || radius <= 0 {
		return Event{}, false
	}
	limit := s.cfg.HearingRange
	if radius < limit {
		limit = radius
	}
	if selfPos.FlatDistance(pos) > limit {
		return Event{}, false
	}
	s.lastKnown = pos
	s.hasLastKnown = true
	return Event{Kind: SoundHeard, Position: pos, Category: category}, true
}
