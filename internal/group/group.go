// Package group implements multi-agent steering: boids flocking or
// leader-relative formations. A group never owns its agents; it keeps member
// IDs and resolves them through the simulation registry each pass, so
// removals elsewhere cannot leave it pointing at dead objects.
package group

import (
	"context"
	"fmt"
	"sort"

	"hunt-and-hide/sim/internal/agent"
	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/internal/nav"
	"hunt-and-hide/sim/logging"
	"hunt-and-hide/sim/logging/groups"
)

// Mode selects the per-tick steering strategy.
type Mode int

const (
	BoidsOnly Mode = iota
	LeaderFollower
)

func (m Mode) String() string {
	switch m {
	case BoidsOnly:
		return "boids"
	case LeaderFollower:
		return "leader-follower"
	default:
		return "unknown"
	}
}

// Lookup resolves a member ID against the simulation registry.
type Lookup func(id string) (*agent.Agent, bool)

// Config holds the steering tunables for one group.
type Config struct {
	SeparationWeight   float64
	AlignmentWeight    float64
	CohesionWeight     float64
	SeparationDistance float64
	NeighborDistance   float64

	Formation FormationKind
	Spacing   float64
	Looseness float64

	ObstacleCheckDistance float64
	SteerThreshold        float64
}

// DefaultConfig returns steering tunables that hold a formation together
// without jitter at the demo scale.
func DefaultConfig() Config {
	return Config{
		SeparationWeight:      1.5,
		AlignmentWeight:       1.0,
		CohesionWeight:        1.0,
		SeparationDistance:    2.5,
		NeighborDistance:      10,
		Formation:             VFormation,
		Spacing:               3,
		Looseness:             0.2,
		ObstacleCheckDistance: 6,
		SteerThreshold:        0.05,
	}
}

// Group coordinates a set of member agents.
type Group struct {
	id   string
	mode Mode
	cfg  Config

	members  map[string]struct{}
	leaderID string
	offsets  map[string]geom.Vec3
	loose    bool

	lookup    Lookup
	nav       *nav.Service
	publisher logging.Publisher
}

// New builds an empty group.
func New(id string, mode Mode, cfg Config, lookup Lookup, navSvc *nav.Service, publisher logging.Publisher) *Group {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Group{
		id:        id,
		mode:      mode,
		cfg:       cfg,
		members:   make(map[string]struct{}),
		offsets:   make(map[string]geom.Vec3),
		lookup:    lookup,
		nav:       navSvc,
		publisher: publisher,
	}
}

func (g *Group) ID() string { return g.id }

func (g *Group) Mode() Mode { return g.mode }

func (g *Group) Leader() string { return g.leaderID }

// IsLoose reports the looseness flag computed by the last steering pass.
func (g *Group) IsLoose() bool { return g.loose }

// Members returns the member IDs in sorted order.
func (g *Group) Members() []string {
	ids := make([]string, 0, len(g.members))
	for id := range g.members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Offset returns the precomputed formation offset for a follower.
func (g *Group) Offset(id string) (geom.Vec3, bool) {
	off, ok := g.offsets[id]
	return off, ok
}

// AddMember enrolls an agent. An agent already belonging to another group is
// rejected; the first member of a leaderless group becomes its leader.
func (g *Group) AddMember(a *agent.Agent, tick uint64) error {
	if g == nil || a == nil {
		return fmt.Errorf("group: add member: nil agent")
	}
	if a.GroupID() != "" && a.GroupID() != g.id {
		return fmt.Errorf("group: agent %q already belongs to group %q", a.ID(), a.GroupID())
	}
	if _, exists := g.members[a.ID()]; exists {
		return nil
	}
	g.members[a.ID()] = struct{}{}
	a.SetGroup(g.id, false)
	if g.leaderID == "" {
		g.promote(a.ID(), tick)
	}
	g.recomputeOffsets()
	groups.MemberAdded(context.Background(), g.publisher, tick, logging.GroupRef(g.id),
		groups.MembershipPayload{AgentID: a.ID(), Members: len(g.members)}, nil)
	return nil
}

// RemoveMember drops an agent from the group. Removing the leader promotes
// the lowest remaining member ID so replays stay deterministic.
func (g *Group) RemoveMember(id string, tick uint64) {
	if g == nil {
		return
	}
	if _, exists := g.members[id]; !exists {
		return
	}
	delete(g.members, id)
	delete(g.offsets, id)
	if a, ok := g.lookup(id); ok && a.GroupID() == g.id {
		a.SetGroup("", false)
	}
	if g.leaderID == id {
		g.leaderID = ""
		if ids := g.Members(); len(ids) > 0 {
			g.promote(ids[0], tick)
		}
	}
	g.recomputeOffsets()
	groups.MemberRemoved(context.Background(), g.publisher, tick, logging.GroupRef(g.id),
		groups.MembershipPayload{AgentID: id, Members: len(g.members)}, nil)
}

// SetLeader hands leadership to an existing member.
func (g *Group) SetLeader(id string, tick uint64) error {
	if g == nil {
		return fmt.Errorf("group: nil group")
	}
	if _, exists := g.members[id]; !exists {
		return fmt.Errorf("group: set leader: %q is not a member of %q", id, g.id)
	}
	if g.leaderID == id {
		return nil
	}
	g.promote(id, tick)
	g.recomputeOffsets()
	return nil
}

// SetFormation switches the follower layout and recomputes offsets.
func (g *Group) SetFormation(kind FormationKind, tick uint64) {
	if g == nil || g.cfg.Formation == kind {
		return
	}
	g.cfg.Formation = kind
	g.recomputeOffsets()
	groups.FormationChanged(context.Background(), g.publisher, tick, logging.GroupRef(g.id),
		groups.FormationChangedPayload{Kind: kind.String()}, nil)
}

// IssueGroupMovement sends the whole group toward pos by ordering the leader
// to investigate it; followers trail along through formation steering.
func (g *Group) IssueGroupMovement(pos geom.Vec3, tick uint64) {
	if g == nil || g.leaderID == "" {
		return
	}
	if leader, ok := g.lookup(g.leaderID); ok {
		leader.InvestigatePosition(pos, tick)
	}
}

func (g *Group) promote(id string, tick uint64) {
	previous := g.leaderID
	if previous != "" {
		if old, ok := g.lookup(previous); ok {
			old.SetGroup(g.id, false)
		}
	}
	g.leaderID = id
	if a, ok := g.lookup(id); ok {
		a.SetGroup(g.id, true)
	}
	groups.LeaderChanged(context.Background(), g.publisher, tick, logging.GroupRef(g.id),
		groups.LeaderChangedPayload{Previous: previous, Leader: id}, nil)
}

// recomputeOffsets rebuilds the follower offset table. Follower indices come
// from the sorted member order with the leader excluded, so the same roster
// always yields the same layout.
func (g *Group) recomputeOffsets() {
	g.offsets = make(map[string]geom.Vec3, len(g.members))
	index := 0
	for _, id := range g.Members() {
		if id == g.leaderID {
			continue
		}
		g.offsets[id] = FormationOffset(g.cfg.Formation, index, g.cfg.Spacing)
		index++
	}
}

// Step runs one steering pass. It must run after every member's FSM step in
// the same tick so positions are consistent.
func (g *Group) Step(tick uint64) {
	if g == nil {
		return
	}
	switch g.mode {
	case BoidsOnly:
		g.stepBoids(tick)
	case LeaderFollower:
		g.stepFormation(tick)
	}
}

// steerable reports whether group steering may override the agent's goal.
// Chase, Search, and Flee always win over the group.
func steerable(a *agent.Agent) bool {
	return a.State() == agent.StateIdle || a.State() == agent.StatePatrol
}

func (g *Group) stepBoids(tick uint64) {
	ids := g.Members()
	mates := g.snapshot(ids)
	for _, id := range ids {
		a, ok := g.lookup(id)
		if !ok || !steerable(a) {
			continue
		}
		self := a.Position()
		others := othersOf(mates, id)
		sep := separationVector(self, others, g.cfg.SeparationDistance)
		ali := alignmentVector(self, a.Velocity(), others, g.cfg.NeighborDistance)
		coh := cohesionVector(self, others, g.cfg.NeighborDistance)

		steer := sep.Scale(g.cfg.SeparationWeight).
			Add(ali.Scale(g.cfg.AlignmentWeight)).
			Add(coh.Scale(g.cfg.CohesionWeight))
		if steer.FlatLen() <= g.cfg.SteerThreshold {
			continue
		}
		ahead := self.Add(steer.Flat().Normalize().Scale(2))
		goal, ok := g.nav.SamplePoint(ahead, nav.CellSize*2)
		if !ok {
			continue
		}
		g.nav.Resume(id)
		_ = g.nav.SetGoal(id, goal, tick)
	}
}

func (g *Group) stepFormation(tick uint64) {
	if g.leaderID == "" {
		return
	}
	leader, ok := g.lookup(g.leaderID)
	if !ok {
		return
	}
	leaderPos := leader.Position()
	forward := leader.Velocity().Flat()
	if forward.FlatLen() <= 0.1 {
		forward = leader.Facing()
	}
	g.loose = g.obstacleAhead(leaderPos, forward)

	ids := g.Members()
	mates := g.snapshot(ids)
	for _, id := range ids {
		if id == g.leaderID {
			continue
		}
		follower, ok := g.lookup(id)
		if !ok || !steerable(follower) {
			continue
		}
		offset, ok := g.offsets[id]
		if !ok {
			continue
		}
		target := leaderPos.Add(geom.LocalToWorld(offset, forward))

		effective := g.cfg.Looseness
		if g.loose {
			effective = 1
		}
		if effective > 0 {
			target = follower.Position().Lerp(target, 1-effective)
		}
		goal, ok := g.nav.SamplePoint(target, nav.CellSize*2)
		if !ok {
			continue
		}
		sep := separationVector(follower.Position(), othersOf(mates, id), g.cfg.SeparationDistance)
		if sep.FlatLen() > g.cfg.SteerThreshold {
			if nudged, ok := g.nav.SamplePoint(goal.Add(sep), nav.CellSize*2); ok {
				goal = nudged
			}
		}
		g.nav.Resume(id)
		_ = g.nav.SetGoal(id, goal, tick)
	}
}

func (g *Group) obstacleAhead(pos, dir geom.Vec3) bool {
	if g.cfg.ObstacleCheckDistance <= 0 || g.nav == nil {
		return false
	}
	planner := g.nav.Planner()
	if planner == nil {
		return false
	}
	_, hit := planner.Raycast(pos, dir, g.cfg.ObstacleCheckDistance)
	return hit
}

func (g *Group) snapshot(ids []string) map[string]flockmate {
	mates := make(map[string]flockmate, len(ids))
	for _, id := range ids {
		if a, ok := g.lookup(id); ok {
			mates[id] = flockmate{pos: a.Position(), vel: a.Velocity()}
		}
	}
	return mates
}

func othersOf(mates map[string]flockmate, selfID string) []flockmate {
	others := make([]flockmate, 0, len(mates))
	ids := make([]string, 0, len(mates))
	for id := range mates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if id == selfID {
			continue
		}
		others = append(others, mates[id])
	}
	return others
}
