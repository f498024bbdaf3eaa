package nav

import (
	"hunt-and-hide/sim/internal/geom"
)

const (
	// DefaultArriveRadius is the final-node acceptance distance.
	DefaultArriveRadius = 0.75
	// nodeReachedEpsilon accepts intermediate path nodes slightly early so
	// movers cut corners instead of oscillating on cell centers.
	nodeReachedEpsilon = AgentRadius * 1.5
	// stallThresholdTicks triggers a path recalculation when a mover stops
	// making progress toward its current node.
	stallThresholdTicks = 6
	// recalcCooldownTicks spaces out repeated recalculation attempts after
	// a failed path computation.
	recalcCooldownTicks = 8
)

// Mover carries one agent's kinematic state: position, speed, and the
// currently installed path. All mutation happens through Service.
type Mover struct {
	id           string
	pos          geom.Vec3
	facing       geom.Vec3
	velocity     geom.Vec3
	baseSpeed    float64
	multiplier   float64
	stopped      bool
	hasGoal      bool
	arrived      bool
	target       geom.Vec3
	path         []geom.Vec3
	pathIndex    int
	arriveRadius float64
	lastDistance float64
	stallTicks   int
	recalcAfter  uint64
}

// Position returns the mover's current world position.
func (m *Mover) Position() geom.Vec3 {
	if m == nil {
		return geom.Vec3{}
	}
	return m.pos
}

// Facing returns the direction of the last non-zero movement, defaulting
// to +Z for movers that have never moved.
func (m *Mover) Facing() geom.Vec3 {
	if m == nil || m.facing.IsZero() {
		return geom.Vec3{Z: 1}
	}
	return m.facing
}

// Velocity returns the current velocity in world units per second.
func (m *Mover) Velocity() geom.Vec3 {
	if m == nil {
		return geom.Vec3{}
	}
	return m.velocity
}

// HasArrived reports whether the last requested goal has been reached.
func (m *Mover) HasArrived() bool {
	return m != nil && m.arrived
}

// RemainingDistance sums the path length still ahead of the mover. A mover
// with no installed path reports zero.
func (m *Mover) RemainingDistance() float64 {
	if m == nil || len(m.path) == 0 || m.pathIndex >= len(m.path) {
		return 0
	}
	total := m.pos.FlatDistance(m.path[m.pathIndex])
	for i := m.pathIndex; i < len(m.path)-1; i++ {
		total += m.path[i].FlatDistance(m.path[i+1])
	}
	return total
}

func (m *Mover) speed() float64 {
	mult := m.multiplier
	if mult <= 0 {
		mult = 1
	}
	return m.baseSpeed * mult
}

func (m *Mover) clearPath() {
	m.path = nil
	m.pathIndex = 0
	m.lastDistance = 0
	m.stallTicks = 0
	m.velocity = geom.Vec3{}
}

func (m *Mover) installPath(path []geom.Vec3, tick uint64) {
	m.path = path
	m.pathIndex = 0
	m.lastDistance = 0
	m.stallTicks = 0
	m.recalcAfter = tick + 1
}

// advance walks the installed path for one tick. Stall detection mirrors
// waypoint progress tracking: a node distance that stops shrinking for
// stallThresholdTicks forces a recalculation.
func (m *Mover) advance(tick uint64, dt float64, planner *Planner) {
	if m == nil || dt <= 0 {
		return
	}
	if m.stopped {
		m.velocity = geom.Vec3{}
		return
	}
	if len(m.path) == 0 {
		m.velocity = geom.Vec3{}
		if m.hasGoal && !m.arrived && tick >= m.recalcAfter {
			m.recalculate(tick, planner)
		}
		return
	}

	remaining := m.speed() * dt
	for remaining > 0 && m.pathIndex < len(m.path) {
		node := m.path[m.pathIndex]
		toNode := node.Sub(m.pos).Flat()
		dist := toNode.Len()

		limit := nodeReachedEpsilon
		if m.pathIndex == len(m.path)-1 {
			limit = m.arriveRadius
			if limit <= 0 {
				limit = DefaultArriveRadius
			}
		}
		if dist <= limit {
			m.pathIndex++
			m.lastDistance = 0
			m.stallTicks = 0
			continue
		}

		if m.lastDistance == 0 || dist+0.05 < m.lastDistance {
			m.lastDistance = dist
			m.stallTicks = 0
		} else {
			m.stallTicks++
			if m.stallTicks >= stallThresholdTicks {
				if tick >= m.recalcAfter {
					m.recalculate(tick, planner)
				}
				return
			}
		}

		dir := toNode.Normalize()
		step := remaining
		if step > dist {
			step = dist
		}
		m.pos = m.pos.Add(dir.Scale(step))
		m.facing = dir
		m.velocity = dir.Scale(m.speed())
		remaining -= step
	}

	if m.pathIndex >= len(m.path) {
		m.clearPath()
		m.arrived = true
	}
}

func (m *Mover) recalculate(tick uint64, planner *Planner) {
	if planner == nil || !m.hasGoal {
		return
	}
	path, ok := planner.FindPath(m.pos, m.target)
	if !ok {
		m.clearPath()
		m.recalcAfter = tick + recalcCooldownTicks
		return
	}
	m.installPath(path, tick)
}
