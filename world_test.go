package main

import (
	"context"
	"testing"

	"hunt-and-hide/sim/internal/agent"
	"hunt-and-hide/sim/internal/config"
	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/logging"
	"hunt-and-hide/sim/logging/behavior"
	"hunt-and-hide/sim/logging/sinks"
)

const stepDt = 1.0 / float64(tickRate)

// recordingPublisher writes events straight into a memory sink so tests can
// assert on them without the async router.
func recordingPublisher(sink *sinks.MemorySink) logging.Publisher {
	return logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		sink.Write(event)
	})
}

func stepWorld(w *World, ticks int) {
	for i := 0; i < ticks; i++ {
		w.Step(stepDt)
	}
}

func TestTwoWorldsStayIdentical(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 5

	a := NewWorld(cfg, nil)
	b := NewWorld(cfg, nil)
	stepWorld(a, 300)
	stepWorld(b, 300)

	snapA := a.AgentSnapshots()
	snapB := b.AgentSnapshots()
	if len(snapA) != len(snapB) {
		t.Fatalf("agent counts diverged: %d vs %d", len(snapA), len(snapB))
	}
	for i := range snapA {
		if snapA[i] != snapB[i] {
			t.Fatalf("agent %d diverged:\n%+v\n%+v", i, snapA[i], snapB[i])
		}
	}

	groupsA := a.GroupSnapshots()
	groupsB := b.GroupSnapshots()
	if len(groupsA) != len(groupsB) {
		t.Fatalf("group counts diverged: %d vs %d", len(groupsA), len(groupsB))
	}
	for i := range groupsA {
		if groupsA[i].Leader != groupsB[i].Leader || groupsA[i].Loose != groupsB[i].Loose {
			t.Fatalf("group %d diverged:\n%+v\n%+v", i, groupsA[i], groupsB[i])
		}
	}
}

func TestDifferentSeedsProduceDifferentLayouts(t *testing.T) {
	cfg := config.Default()
	other := cfg
	other.Seed = "something-else"

	a := NewWorld(cfg, nil)
	b := NewWorld(other, nil)

	obsA := a.ObstacleSnapshots()
	obsB := b.ObstacleSnapshots()
	if len(obsA) == 0 || len(obsB) == 0 {
		t.Fatalf("expected obstacles in both worlds")
	}
	same := len(obsA) == len(obsB)
	if same {
		for i := range obsA {
			if obsA[i] != obsB[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Fatalf("different seeds produced identical obstacle layouts")
	}
}

func TestEmitSoundSendsIdleAgentSearching(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 0
	cfg.World.ObstacleCount = 0
	w := NewWorld(cfg, nil)

	a, err := w.SpawnAgent("npc-1", false, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	w.Step(stepDt)
	if a.State() != agent.StateIdle {
		t.Fatalf("expected Idle after spawn, got %v", a.State())
	}

	origin := a.Position().Add(geom.Vec3{X: 3})
	w.EmitSound(origin, 10, "gunshot")
	w.Step(stepDt)

	if a.State() != agent.StateSearch {
		t.Fatalf("expected Search after hearing a gunshot, got %v", a.State())
	}
	if known, ok := a.LastKnownTarget(); !ok || known.FlatDistance(origin) > 1e-9 {
		t.Fatalf("last known position should be the sound origin, got %v (ok=%v)", known, ok)
	}
}

func TestEmitSoundOutOfRangeIgnored(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 0
	cfg.World.ObstacleCount = 0
	w := NewWorld(cfg, nil)

	a, err := w.SpawnAgent("npc-1", false, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	w.Step(stepDt)

	w.EmitSound(a.Position().Add(geom.Vec3{X: 500}), 4, "gunshot")
	w.Step(stepDt)

	if a.State() != agent.StateIdle {
		t.Fatalf("distant sound should not wake the agent, got %v", a.State())
	}
}

func TestStateTransitionsAreLogged(t *testing.T) {
	sink := sinks.NewMemorySink()
	cfg := config.Default()
	cfg.World.AgentCount = 1
	cfg.World.WeakRatio = 0
	w := NewWorld(cfg, recordingPublisher(sink))

	idleTicks := int(cfg.AgentBehavior(tickRate).IdleTicks)
	stepWorld(w, idleTicks+5)

	var sawIdleToPatrol bool
	for _, event := range sink.Events() {
		if event.Type != behavior.EventStateChanged {
			continue
		}
		payload, ok := event.Payload.(behavior.StateChangedPayload)
		if !ok {
			t.Fatalf("unexpected payload type %T", event.Payload)
		}
		if payload.From == "idle" && payload.To == "patrol" {
			sawIdleToPatrol = true
		}
	}
	if !sawIdleToPatrol {
		t.Fatalf("expected an idle->patrol transition event")
	}
}

func TestSpawnGeneratesPatrolRoute(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 0
	w := NewWorld(cfg, nil)

	a, err := w.SpawnAgent("npc-1", false, nil)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	route := a.PatrolRoute()
	if len(route) == 0 {
		t.Fatalf("expected an auto-generated patrol route")
	}
	for i, wp := range route {
		if !w.planner.IsWalkable(wp) {
			t.Fatalf("waypoint %d at %v is not walkable", i, wp)
		}
	}
}

func TestSpawnRejectsDuplicateID(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 0
	w := NewWorld(cfg, nil)

	if _, err := w.SpawnAgent("npc-1", false, nil); err != nil {
		t.Fatalf("first spawn: %v", err)
	}
	if _, err := w.SpawnAgent("npc-1", false, nil); err == nil {
		t.Fatalf("expected duplicate ID rejection")
	}
}

func TestRemoveAgentDropsAllRegistrations(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 3
	cfg.World.WeakRatio = 0
	w := NewWorld(cfg, nil)

	ids := w.sortedAgentIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 agents, got %d", len(ids))
	}
	victim := ids[0]
	groupID := w.Agent(victim).GroupID()
	if groupID == "" {
		t.Fatalf("expected the agent to belong to the squad")
	}

	w.RemoveAgent(victim, "test")

	if w.Agent(victim) != nil {
		t.Fatalf("agent still registered")
	}
	for _, member := range w.Group(groupID).Members() {
		if member == victim {
			t.Fatalf("agent still in group after removal")
		}
	}
	stepWorld(w, 10)
}

func TestTargetProbeMovesWithinBounds(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 0
	cfg.World.ObstacleCount = 0
	w := NewWorld(cfg, nil)

	w.SetTarget("observer-1", geom.Vec3{X: 60, Z: 60})
	_, start, _ := w.Target()
	w.SetTargetIntent(1, 0)
	stepWorld(w, tickRate)

	_, pos, ok := w.Target()
	if !ok {
		t.Fatalf("target should stay attached")
	}
	moved := pos.X - start.X
	if moved < targetMoveSpeed*0.9 || moved > targetMoveSpeed*1.1 {
		t.Fatalf("expected roughly %v units of travel in one second, got %v", targetMoveSpeed, moved)
	}

	w.SetTargetIntent(0, 1)
	stepWorld(w, tickRate*60)
	_, pos, _ = w.Target()
	if pos.Z > cfg.World.Depth {
		t.Fatalf("probe escaped the world bounds: %v", pos)
	}
}

func TestMovingProbeEmitsFootsteps(t *testing.T) {
	sink := sinks.NewMemorySink()
	cfg := config.Default()
	cfg.World.AgentCount = 0
	cfg.World.ObstacleCount = 0
	w := NewWorld(cfg, recordingPublisher(sink))

	w.SetTarget("observer-1", geom.Vec3{X: 60, Z: 60})
	w.SetTargetIntent(1, 0)
	stepWorld(w, footstepIntervalTicks*3)

	var footsteps int
	for _, event := range sink.Events() {
		if event.Type == "sound.broadcast" {
			footsteps++
		}
	}
	if footsteps < 2 {
		t.Fatalf("expected repeated footstep broadcasts, got %d", footsteps)
	}
}

func TestClearTargetDegradesQuietly(t *testing.T) {
	cfg := config.Default()
	cfg.World.AgentCount = 2
	cfg.World.WeakRatio = 0
	w := NewWorld(cfg, nil)

	w.SetTarget("observer-1", geom.Vec3{X: 60, Z: 60})
	stepWorld(w, 30)
	w.ClearTarget()
	lostTicks := int(cfg.AgentBehavior(tickRate).ChaseLostTimeoutTicks)
	stepWorld(w, lostTicks+30)

	if _, _, ok := w.Target(); ok {
		t.Fatalf("target should be detached")
	}
	for _, snap := range w.AgentSnapshots() {
		if snap.State == "chase" || snap.State == "flee" {
			t.Fatalf("agent %s still reacting to a detached target", snap.ID)
		}
	}
}
