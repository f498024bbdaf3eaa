// Package agent implements the per-NPC finite-state machine. Agents consume
// sensor events, pick movement goals, and hand actual locomotion to the
// navigation service. All timing is expressed in ticks.
package agent

import (
	"context"
	"math"
	"math/rand"

	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/internal/nav"
	"hunt-and-hide/sim/internal/sense"
	"hunt-and-hide/sim/internal/sound"
	"hunt-and-hide/sim/logging"
	"hunt-and-hide/sim/logging/behavior"
)

// Config holds the per-agent behavior tunables, already converted to ticks.
type Config struct {
	BaseSpeed            float64
	ChaseSpeedMultiplier float64
	FleeSpeedMultiplier  float64

	IdleTicks          uint64
	PatrolWaitMinTicks uint64
	PatrolWaitMaxTicks uint64

	ChaseLostTimeoutTicks uint64

	SearchPointCount    int
	SearchRadius        float64
	SearchDurationTicks uint64
	SampleAttempts      int

	FleeDistance float64
}

// DefaultConfig mirrors the tunables of the demo scenario at 15 ticks/s.
func DefaultConfig() Config {
	return Config{
		BaseSpeed:             3.5,
		ChaseSpeedMultiplier:  1.6,
		FleeSpeedMultiplier:   1.8,
		IdleTicks:             30,
		PatrolWaitMinTicks:    15,
		PatrolWaitMaxTicks:    45,
		ChaseLostTimeoutTicks: 75,
		SearchPointCount:      4,
		SearchRadius:          8,
		SearchDurationTicks:   225,
		SampleAttempts:        5,
		FleeDistance:          12,
	}
}

// Agent owns one NPC's behavior state. It is created at spawn, mutated in
// place by transitions, and removed at despawn.
type Agent struct {
	id   string
	weak bool
	cfg  Config

	nav       *nav.Service
	sensor    *sense.Sensor
	rng       *rand.Rand
	publisher logging.Publisher

	state            State
	stateEnteredTick uint64

	patrolRoute   []geom.Vec3
	waypointIndex int
	waiting       bool
	waitUntilTick uint64

	lastKnownTarget geom.Vec3
	hasLastKnown    bool
	lastSightTick   uint64

	searchPoints []geom.Vec3
	searchIndex  int

	groupID  string
	isLeader bool

	inbox []sense.Event
}

// New builds an agent in Idle at the given spawn tick. The caller registers
// the mover with the navigation service beforehand; patrolRoute may be empty
// (the spawn layer auto-generates waypoints in that case).
func New(id string, weak bool, cfg Config, navSvc *nav.Service, sensor *sense.Sensor, rng *rand.Rand, publisher logging.Publisher, patrolRoute []geom.Vec3, tick uint64) *Agent {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	a := &Agent{
		id:               id,
		weak:             weak,
		cfg:              cfg,
		nav:              navSvc,
		sensor:           sensor,
		rng:              rng,
		publisher:        publisher,
		state:            StateIdle,
		stateEnteredTick: tick,
		patrolRoute:      patrolRoute,
	}
	a.enterState(StateIdle, tick)
	return a
}

func (a *Agent) ID() string { return a.id }

func (a *Agent) IsWeak() bool { return a.weak }

func (a *Agent) State() State { return a.state }

func (a *Agent) IsLeader() bool { return a.isLeader }

func (a *Agent) GroupID() string { return a.groupID }

func (a *Agent) PatrolRoute() []geom.Vec3 { return a.patrolRoute }

func (a *Agent) WaypointIndex() int { return a.waypointIndex }

// SetGroup records group membership. An empty id clears it.
func (a *Agent) SetGroup(id string, leader bool) {
	a.groupID = id
	a.isLeader = leader && id != ""
}

// Position reports the agent's world position via its mover.
func (a *Agent) Position() geom.Vec3 {
	return a.nav.Position(a.id)
}

// Velocity reports the agent's current velocity via its mover.
func (a *Agent) Velocity() geom.Vec3 {
	return a.nav.Velocity(a.id)
}

// Facing reports the agent's forward direction via its mover.
func (a *Agent) Facing() geom.Vec3 {
	return a.nav.Facing(a.id)
}

// Sensor exposes the agent's sensor for retargeting by the world.
func (a *Agent) Sensor() *sense.Sensor {
	return a.sensor
}

// LastKnownTarget reports the agent's copy of the last perceived target
// position.
func (a *Agent) LastKnownTarget() (geom.Vec3, bool) {
	return a.lastKnownTarget, a.hasLastKnown
}

// HearSound satisfies sound.Listener. Accepted sounds are queued in the
// inbox and consumed at the start of the agent's next Step.
func (a *Agent) HearSound(pos geom.Vec3, radius float64, category sound.Category) {
	if a == nil {
		return
	}
	ev, ok := a.sensor.HearSound(a.Position(), pos, radius, string(category))
	if !ok {
		return
	}
	a.inbox = append(a.inbox, ev)
}

// InvestigatePosition forces the agent to search around pos, from any state.
// Group coordinators use it to dispatch a whole group toward a location.
func (a *Agent) InvestigatePosition(pos geom.Vec3, tick uint64) {
	if a == nil {
		return
	}
	a.lastKnownTarget = pos
	a.hasLastKnown = true
	behavior.Investigate(context.Background(), a.publisher, tick, logging.AgentRef(a.id),
		behavior.DetectionPayload{X: pos.X, Z: pos.Z}, nil)
	a.transition(StateSearch, tick, "investigate")
}

// Step advances the FSM by one tick: drain queued sound events, run the
// throttled sensor poll, then apply the active state's per-tick behavior.
func (a *Agent) Step(tick uint64) {
	if a == nil {
		return
	}
	if len(a.inbox) > 0 {
		pending := a.inbox
		a.inbox = a.inbox[:0]
		for _, ev := range pending {
			a.handleEvent(ev, tick)
		}
	}
	if ev, ok := a.sensor.Poll(tick, a.Position(), a.Facing()); ok {
		a.handleEvent(ev, tick)
	}

	switch a.state {
	case StateIdle:
		a.tickIdle(tick)
	case StatePatrol:
		a.tickPatrol(tick)
	case StateChase:
		a.tickChase(tick)
	case StateSearch:
		a.tickSearch(tick)
	case StateFlee:
		a.tickFlee(tick)
	}
}

func (a *Agent) handleEvent(ev sense.Event, tick uint64) {
	switch ev.Kind {
	case sense.TargetDetected:
		a.lastKnownTarget = ev.Position
		a.hasLastKnown = true
		a.lastSightTick = tick
		behavior.TargetDetected(context.Background(), a.publisher, tick, logging.AgentRef(a.id),
			behavior.DetectionPayload{X: ev.Position.X, Z: ev.Position.Z}, nil)
	case sense.TargetLost:
		behavior.TargetLost(context.Background(), a.publisher, tick, logging.AgentRef(a.id),
			behavior.DetectionPayload{X: ev.Position.X, Z: ev.Position.Z}, nil)
	case sense.SoundHeard:
		if a.state == StateIdle || a.state == StatePatrol {
			a.lastKnownTarget = ev.Position
			a.hasLastKnown = true
		}
		behavior.SoundHeard(context.Background(), a.publisher, tick, logging.AgentRef(a.id),
			behavior.SoundHeardPayload{X: ev.Position.X, Z: ev.Position.Z, Category: ev.Category}, nil)
	}
	if next, ok := NextState(a.state, ev.Kind, a.weak); ok {
		a.transition(next, tick, ev.Kind.String())
	}
}

// transition runs the fixed sequence: exit old state, mutate, stamp the
// entry tick, enter new state. Nothing bypasses it.
func (a *Agent) transition(next State, tick uint64, reason string) {
	prev := a.state
	a.exitState(prev)
	a.state = next
	a.stateEnteredTick = tick
	a.enterState(next, tick)
	behavior.StateChanged(context.Background(), a.publisher, tick, logging.AgentRef(a.id),
		behavior.StateChangedPayload{From: prev.String(), To: next.String(), Reason: reason}, nil)
}

func (a *Agent) exitState(state State) {
	switch state {
	case StatePatrol:
		a.waiting = false
	case StateSearch:
		a.searchPoints = nil
		a.searchIndex = 0
	}
}

func (a *Agent) enterState(state State, tick uint64) {
	switch state {
	case StateIdle:
		a.nav.SetSpeedMultiplier(a.id, 1)
		a.nav.Stop(a.id)
	case StatePatrol:
		a.nav.SetSpeedMultiplier(a.id, 1)
		a.nav.Resume(a.id)
		if len(a.patrolRoute) > 0 {
			_ = a.nav.SetGoal(a.id, a.patrolRoute[a.waypointIndex], tick)
		}
	case StateChase:
		a.nav.SetSpeedMultiplier(a.id, a.cfg.ChaseSpeedMultiplier)
		a.nav.Resume(a.id)
		if pos, ok := a.sensor.TargetPosition(); ok {
			a.lastSightTick = tick
			_ = a.nav.SetGoal(a.id, pos, tick)
		}
	case StateSearch:
		a.nav.SetSpeedMultiplier(a.id, 1)
		a.nav.Resume(a.id)
		a.generateSearchPoints()
		if len(a.searchPoints) > 0 {
			_ = a.nav.SetGoal(a.id, a.searchPoints[0], tick)
		}
	case StateFlee:
		a.nav.SetSpeedMultiplier(a.id, a.cfg.FleeSpeedMultiplier)
		a.nav.Resume(a.id)
	}
}

func (a *Agent) tickIdle(tick uint64) {
	if tick-a.stateEnteredTick >= a.cfg.IdleTicks {
		a.transition(StatePatrol, tick, "idle-timeout")
	}
}

func (a *Agent) tickPatrol(tick uint64) {
	if len(a.patrolRoute) == 0 {
		return
	}
	if !a.nav.HasArrived(a.id) {
		return
	}
	if !a.waiting {
		a.waiting = true
		a.waitUntilTick = tick + a.patrolWaitTicks()
		return
	}
	if tick >= a.waitUntilTick {
		a.waiting = false
		a.waypointIndex = (a.waypointIndex + 1) % len(a.patrolRoute)
		_ = a.nav.SetGoal(a.id, a.patrolRoute[a.waypointIndex], tick)
	}
}

func (a *Agent) patrolWaitTicks() uint64 {
	min := a.cfg.PatrolWaitMinTicks
	max := a.cfg.PatrolWaitMaxTicks
	if max <= min || a.rng == nil {
		return min
	}
	return min + uint64(a.rng.Int63n(int64(max-min+1)))
}

func (a *Agent) tickChase(tick uint64) {
	if a.sensor.CanSeeTarget(a.Position(), a.Facing()) {
		if pos, ok := a.sensor.TargetPosition(); ok {
			a.lastKnownTarget = pos
			a.hasLastKnown = true
			a.lastSightTick = tick
			_ = a.nav.SetGoal(a.id, pos, tick)
		}
		return
	}
	if tick-a.lastSightTick >= a.cfg.ChaseLostTimeoutTicks {
		a.transition(StateSearch, tick, "chase-lost")
	}
}

func (a *Agent) tickSearch(tick uint64) {
	if a.sensor.CanSeeTarget(a.Position(), a.Facing()) {
		next, _ := NextState(a.state, sense.TargetDetected, a.weak)
		if pos, ok := a.sensor.TargetPosition(); ok {
			a.lastKnownTarget = pos
			a.hasLastKnown = true
			a.lastSightTick = tick
		}
		a.transition(next, tick, "re-detected")
		return
	}
	if tick-a.stateEnteredTick >= a.cfg.SearchDurationTicks {
		a.transition(StatePatrol, tick, "search-timeout")
		return
	}
	if len(a.searchPoints) == 0 {
		a.transition(StatePatrol, tick, "search-exhausted")
		return
	}
	if !a.nav.HasArrived(a.id) {
		return
	}
	a.searchIndex++
	if a.searchIndex >= len(a.searchPoints) {
		a.transition(StatePatrol, tick, "search-exhausted")
		return
	}
	_ = a.nav.SetGoal(a.id, a.searchPoints[a.searchIndex], tick)
}

func (a *Agent) tickFlee(tick uint64) {
	if !a.sensor.CanSeeTarget(a.Position(), a.Facing()) {
		a.transition(StatePatrol, tick, "flee-escaped")
		return
	}
	targetPos, ok := a.sensor.TargetPosition()
	if !ok {
		return
	}
	self := a.Position()
	away := self.Sub(targetPos).Flat().Normalize()
	if away.IsZero() {
		return
	}
	goal := self.Add(away.Scale(a.cfg.FleeDistance))
	if sampled, ok := a.nav.SamplePoint(goal, a.cfg.SearchRadius); ok {
		goal = sampled
	}
	a.lastKnownTarget = targetPos
	a.hasLastKnown = true
	_ = a.nav.SetGoal(a.id, goal, tick)
}

// generateSearchPoints builds the sweep around the last known target
// position: the position itself first, then up to SearchPointCount-1 random
// points inside SearchRadius. Samples that land outside the walkable area
// are retried a bounded number of times, then skipped, so the list may be
// shorter than requested.
func (a *Agent) generateSearchPoints() {
	a.searchPoints = nil
	a.searchIndex = 0
	if !a.hasLastKnown {
		return
	}
	a.searchPoints = append(a.searchPoints, a.lastKnownTarget)
	attempts := a.cfg.SampleAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 1; i < a.cfg.SearchPointCount; i++ {
		for try := 0; try < attempts; try++ {
			candidate := a.randomPointNear(a.lastKnownTarget, a.cfg.SearchRadius)
			if sampled, ok := a.nav.SamplePoint(candidate, nav.CellSize); ok {
				a.searchPoints = append(a.searchPoints, sampled)
				break
			}
		}
	}
}

func (a *Agent) randomPointNear(center geom.Vec3, radius float64) geom.Vec3 {
	if a.rng == nil {
		return center
	}
	angle := a.rng.Float64() * 2 * math.Pi
	dist := a.rng.Float64() * radius
	return geom.Vec3{
		X: center.X + math.Sin(angle)*dist,
		Z: center.Z + math.Cos(angle)*dist,
	}
}
