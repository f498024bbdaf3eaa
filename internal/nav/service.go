package nav

import (
	"fmt"
	"sort"

	"hunt-and-hide/sim/internal/geom"
)

// Service is the movement facade the rest of the simulation talks to. It
// owns one Mover per registered agent and advances them all once per tick.
// Path computation failures surface as errors; callers decide whether to
// retry, resample, or give up.
type Service struct {
	planner *Planner
	movers  map[string]*Mover
}

// NewService wraps a planner with per-agent movement state.
func NewService(planner *Planner) *Service {
	return &Service{
		planner: planner,
		movers:  make(map[string]*Mover),
	}
}

// Planner exposes the underlying planner for visibility queries.
func (s *Service) Planner() *Planner {
	if s == nil {
		return nil
	}
	return s.planner
}

// Register creates a mover for the agent at the given position. Registering
// an existing ID resets its movement state.
func (s *Service) Register(id string, pos geom.Vec3, baseSpeed float64) *Mover {
	if s == nil {
		return nil
	}
	m := &Mover{
		id:           id,
		pos:          geom.Vec3{X: pos.X, Z: pos.Z},
		baseSpeed:    baseSpeed,
		multiplier:   1,
		arriveRadius: DefaultArriveRadius,
	}
	s.movers[id] = m
	return m
}

// Remove drops the agent's movement state.
func (s *Service) Remove(id string) {
	if s == nil {
		return
	}
	delete(s.movers, id)
}

// Mover returns the agent's mover, or nil when unregistered.
func (s *Service) Mover(id string) *Mover {
	if s == nil {
		return nil
	}
	return s.movers[id]
}

// SetGoal computes and installs a path toward target. The previous goal is
// replaced even when the new one is unreachable; an unreachable target
// leaves the mover idle and returns an error.
func (s *Service) SetGoal(id string, target geom.Vec3, tick uint64) error {
	m := s.Mover(id)
	if m == nil {
		return fmt.Errorf("nav: set goal: unknown agent %q", id)
	}
	m.hasGoal = true
	m.arrived = false
	m.target = geom.Vec3{X: target.X, Z: target.Z}
	path, ok := s.planner.FindPath(m.pos, m.target)
	if !ok {
		m.hasGoal = false
		m.clearPath()
		m.recalcAfter = tick + recalcCooldownTicks
		return fmt.Errorf("nav: set goal: no path from %s to %s", m.pos, m.target)
	}
	if len(path) == 0 {
		m.clearPath()
		m.arrived = true
		return nil
	}
	m.installPath(path, tick)
	return nil
}

// Stop halts the mover in place. The installed path survives so Resume can
// continue it.
func (s *Service) Stop(id string) {
	if m := s.Mover(id); m != nil {
		m.stopped = true
		m.velocity = geom.Vec3{}
	}
}

// Resume lifts a Stop.
func (s *Service) Resume(id string) {
	if m := s.Mover(id); m != nil {
		m.stopped = false
	}
}

// SetSpeedMultiplier scales the agent's base speed. Non-positive values
// reset to 1.
func (s *Service) SetSpeedMultiplier(id string, mult float64) {
	if m := s.Mover(id); m != nil {
		if mult <= 0 {
			mult = 1
		}
		m.multiplier = mult
	}
}

// Teleport places the mover directly, clearing any installed path.
func (s *Service) Teleport(id string, pos geom.Vec3) {
	if m := s.Mover(id); m != nil {
		m.pos = geom.Vec3{X: pos.X, Z: pos.Z}
		m.hasGoal = false
		m.arrived = false
		m.clearPath()
	}
}

// HasArrived reports whether the agent reached its last goal.
func (s *Service) HasArrived(id string) bool {
	return s.Mover(id).HasArrived()
}

// RemainingDistance reports the path length still ahead of the agent.
func (s *Service) RemainingDistance(id string) float64 {
	return s.Mover(id).RemainingDistance()
}

// Velocity reports the agent's current velocity in units per second.
func (s *Service) Velocity(id string) geom.Vec3 {
	return s.Mover(id).Velocity()
}

// Position reports the agent's current position.
func (s *Service) Position(id string) geom.Vec3 {
	return s.Mover(id).Position()
}

// Facing reports the agent's last movement direction.
func (s *Service) Facing(id string) geom.Vec3 {
	return s.Mover(id).Facing()
}

// SamplePoint proxies the planner's walkable-point query.
func (s *Service) SamplePoint(near geom.Vec3, maxRadius float64) (geom.Vec3, bool) {
	if s == nil {
		return geom.Vec3{}, false
	}
	return s.planner.SamplePoint(near, maxRadius)
}

// Advance steps every mover by dt seconds. Iteration is ordered by agent ID
// so a given seed always produces the same trajectories.
func (s *Service) Advance(tick uint64, dt float64) {
	if s == nil {
		return
	}
	ids := make([]string, 0, len(s.movers))
	for id := range s.movers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		s.movers[id].advance(tick, dt, s.planner)
	}
}
