package group

import (
	"math/rand"
	"testing"

	"hunt-and-hide/sim/internal/agent"
	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/internal/nav"
	"hunt-and-hide/sim/internal/sense"
)

const tickDt = 1.0 / 15.0

type world struct {
	planner *nav.Planner
	svc     *nav.Service
	agents  map[string]*agent.Agent
	tick    uint64
}

func newWorld(obstacles []nav.Obstacle) *world {
	planner := nav.NewPlanner(obstacles, 100, 100)
	return &world{
		planner: planner,
		svc:     nav.NewService(planner),
		agents:  make(map[string]*agent.Agent),
	}
}

func (w *world) spawn(id string, pos geom.Vec3) *agent.Agent {
	w.svc.Register(id, pos, 4)
	sensor := sense.NewSensor(sense.Config{
		VisionRange:            15,
		VisionAngleDeg:         360,
		HearingRange:           20,
		DetectionIntervalTicks: 1,
	}, w.planner, nil, nil, id)
	cfg := agent.DefaultConfig()
	cfg.BaseSpeed = 4
	// Long idle so tests control state explicitly.
	cfg.IdleTicks = 1 << 30
	a := agent.New(id, false, cfg, w.svc, sensor, rand.New(rand.NewSource(1)), nil, nil, 0)
	w.agents[id] = a
	return a
}

func (w *world) lookup(id string) (*agent.Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

func (w *world) run(g *Group, ticks int) {
	for i := 0; i < ticks; i++ {
		w.tick++
		g.Step(w.tick)
		w.svc.Advance(w.tick, tickDt)
	}
}

func tightConfig() Config {
	cfg := DefaultConfig()
	cfg.Looseness = 0
	return cfg
}

func TestMembershipInvariant(t *testing.T) {
	w := newWorld(nil)
	g := New("squad-1", LeaderFollower, tightConfig(), w.lookup, w.svc, nil)

	for i, id := range []string{"npc-a", "npc-b", "npc-c", "npc-d"} {
		a := w.spawn(id, geom.Vec3{X: 40 + float64(i)*4, Z: 40})
		if err := g.AddMember(a, 0); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	check := func() {
		t.Helper()
		for _, id := range g.Members() {
			if id == g.Leader() {
				if _, ok := g.Offset(id); ok {
					t.Fatalf("leader %s must not carry an offset", id)
				}
				continue
			}
			if _, ok := g.Offset(id); !ok {
				t.Fatalf("follower %s has no formation offset", id)
			}
		}
	}

	if g.Leader() != "npc-a" {
		t.Fatalf("first member should lead, got %q", g.Leader())
	}
	check()

	if err := g.SetLeader("npc-c", 1); err != nil {
		t.Fatalf("set leader: %v", err)
	}
	check()
	if !w.agents["npc-c"].IsLeader() || w.agents["npc-a"].IsLeader() {
		t.Fatalf("leader flags not swapped")
	}

	g.RemoveMember("npc-c", 2)
	if g.Leader() != "npc-a" {
		t.Fatalf("leader removal should promote the lowest member ID, got %q", g.Leader())
	}
	if w.agents["npc-c"].GroupID() != "" {
		t.Fatalf("removed member still references the group")
	}
	check()

	g.RemoveMember("npc-a", 3)
	g.RemoveMember("npc-b", 3)
	g.RemoveMember("npc-d", 3)
	if g.Leader() != "" || len(g.Members()) != 0 {
		t.Fatalf("emptied group should have no leader, got %q", g.Leader())
	}
}

func TestSingleGroupInvariant(t *testing.T) {
	w := newWorld(nil)
	first := New("squad-1", BoidsOnly, tightConfig(), w.lookup, w.svc, nil)
	second := New("squad-2", BoidsOnly, tightConfig(), w.lookup, w.svc, nil)

	a := w.spawn("npc-a", geom.Vec3{X: 50, Z: 50})
	if err := first.AddMember(a, 0); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := second.AddMember(a, 0); err == nil {
		t.Fatalf("agent must not join a second group")
	}
	first.RemoveMember("npc-a", 1)
	if err := second.AddMember(a, 1); err != nil {
		t.Fatalf("add after removal: %v", err)
	}
}

func TestBoidsSeparationPushesApart(t *testing.T) {
	w := newWorld(nil)
	g := New("flock-1", BoidsOnly, tightConfig(), w.lookup, w.svc, nil)
	a := w.spawn("npc-a", geom.Vec3{X: 50, Z: 50})
	b := w.spawn("npc-b", geom.Vec3{X: 51, Z: 50})
	if err := g.AddMember(a, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddMember(b, 0); err != nil {
		t.Fatalf("add: %v", err)
	}

	before := a.Position().FlatDistance(b.Position())
	w.run(g, 30)
	after := a.Position().FlatDistance(b.Position())
	if after <= before {
		t.Fatalf("separation should push members apart, %.2f -> %.2f", before, after)
	}
}

func TestBoidsSingleMemberUnaffected(t *testing.T) {
	w := newWorld(nil)
	g := New("flock-1", BoidsOnly, tightConfig(), w.lookup, w.svc, nil)
	a := w.spawn("npc-a", geom.Vec3{X: 50, Z: 50})
	if err := g.AddMember(a, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	start := a.Position()
	w.run(g, 20)
	if !a.Position().Eq(start) {
		t.Fatalf("lone member must not be steered, moved %v -> %v", start, a.Position())
	}
}

func TestBoidsNeverOverrideChase(t *testing.T) {
	w := newWorld(nil)
	g := New("flock-1", BoidsOnly, tightConfig(), w.lookup, w.svc, nil)
	a := w.spawn("npc-a", geom.Vec3{X: 50, Z: 50})
	b := w.spawn("npc-b", geom.Vec3{X: 51, Z: 50})
	if err := g.AddMember(a, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddMember(b, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Force npc-a into a non-steerable state.
	a.InvestigatePosition(geom.Vec3{X: 80, Z: 80}, 0)
	if a.State() != agent.StateSearch {
		t.Fatalf("setup: state %v", a.State())
	}
	goalBefore := w.svc.RemainingDistance("npc-a")
	g.Step(1)
	if w.svc.RemainingDistance("npc-a") != goalBefore {
		t.Fatalf("steering must not touch a searching member")
	}
}

func TestFormationFollowersTakeSlots(t *testing.T) {
	w := newWorld(nil)
	cfg := tightConfig()
	cfg.Formation = VFormation
	cfg.Spacing = 3
	g := New("squad-1", LeaderFollower, cfg, w.lookup, w.svc, nil)

	leader := w.spawn("a-leader", geom.Vec3{X: 50, Z: 50})
	f1 := w.spawn("npc-b", geom.Vec3{X: 42, Z: 42})
	f2 := w.spawn("npc-c", geom.Vec3{X: 58, Z: 42})
	for _, a := range []*agent.Agent{leader, f1, f2} {
		if err := g.AddMember(a, 0); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if g.Leader() != "a-leader" {
		t.Fatalf("leader %q", g.Leader())
	}

	// Stationary leader faces +Z, so slots sit at the raw offsets.
	slotB := geom.Vec3{X: 53, Z: 47}
	slotC := geom.Vec3{X: 47, Z: 47}
	w.run(g, 400)

	if d := f1.Position().FlatDistance(slotB); d > 1.5 {
		t.Fatalf("npc-b is %.2f units from its slot %v, at %v", d, slotB, f1.Position())
	}
	if d := f2.Position().FlatDistance(slotC); d > 1.5 {
		t.Fatalf("npc-c is %.2f units from its slot %v, at %v", d, slotC, f2.Position())
	}
}

func TestFormationLoosensNearObstacle(t *testing.T) {
	wall := nav.Obstacle{ID: "wall", Tag: "wall", MinX: 48, MinZ: 53, Width: 4, Depth: 2}
	w := newWorld([]nav.Obstacle{wall})
	g := New("squad-1", LeaderFollower, tightConfig(), w.lookup, w.svc, nil)

	leader := w.spawn("a-leader", geom.Vec3{X: 50, Z: 50})
	follower := w.spawn("npc-b", geom.Vec3{X: 45, Z: 45})
	if err := g.AddMember(leader, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := g.AddMember(follower, 0); err != nil {
		t.Fatalf("add: %v", err)
	}

	// Leader is stationary facing +Z with the wall 3 units ahead.
	g.Step(1)
	if !g.IsLoose() {
		t.Fatalf("wall ahead of the leader should loosen the formation")
	}
}

func TestIssueGroupMovementDelegatesToLeader(t *testing.T) {
	w := newWorld(nil)
	g := New("squad-1", LeaderFollower, tightConfig(), w.lookup, w.svc, nil)
	leader := w.spawn("a-leader", geom.Vec3{X: 50, Z: 50})
	if err := g.AddMember(leader, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	rally := geom.Vec3{X: 70, Z: 70}
	g.IssueGroupMovement(rally, 1)
	if leader.State() != agent.StateSearch {
		t.Fatalf("leader should investigate the rally point, state %v", leader.State())
	}
	if cached, ok := leader.LastKnownTarget(); !ok || !cached.Eq(rally) {
		t.Fatalf("leader last known %v ok=%v", cached, ok)
	}
}

func TestOffsetsRecomputedOnFormationChange(t *testing.T) {
	w := newWorld(nil)
	cfg := tightConfig()
	cfg.Formation = Line
	cfg.Spacing = 2
	g := New("squad-1", LeaderFollower, cfg, w.lookup, w.svc, nil)
	for i, id := range []string{"a-leader", "npc-b", "npc-c"} {
		if err := g.AddMember(w.spawn(id, geom.Vec3{X: 40 + float64(i)*5, Z: 40}), 0); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if off, _ := g.Offset("npc-b"); !off.Eq(geom.Vec3{Z: -2}) {
		t.Fatalf("line offset %v", off)
	}
	g.SetFormation(VFormation, 1)
	if off, _ := g.Offset("npc-b"); !off.Eq(geom.Vec3{X: 2, Z: -2}) {
		t.Fatalf("v-formation offset %v", off)
	}
}
