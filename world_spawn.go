package main

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"hunt-and-hide/sim/internal/agent"
	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/internal/group"
	"hunt-and-hide/sim/internal/sense"
	"hunt-and-hide/sim/logging"
	"hunt-and-hide/sim/logging/lifecycle"
)

// SpawnAgent creates and registers an agent. An empty id gets a generated
// one; a nil route gets an auto-generated patrol loop around the spawn
// point. The spawn position is sampled from the walkable grid.
func (w *World) SpawnAgent(id string, weak bool, route []geom.Vec3) (*agent.Agent, error) {
	if id == "" {
		id = "agent-" + uuid.NewString()
	}
	if _, exists := w.agents[id]; exists {
		return nil, fmt.Errorf("agent %s already registered", id)
	}

	width, depth := w.planner.Bounds()
	seed := geom.Vec3{X: w.randomDistance(0, width), Z: w.randomDistance(0, depth)}
	pos, ok := w.planner.SamplePoint(seed, math.Max(width, depth))
	if !ok {
		return nil, fmt.Errorf("no walkable spawn position for %s", id)
	}
	if len(route) == 0 {
		route = w.autoWaypoints(pos)
	}

	var target sense.Target
	if w.target != nil {
		target = w.target
	}
	sensor := sense.NewSensor(w.sensorCfg, w.planner, target, w.publisher, id)
	w.nav.Register(id, pos, w.agentCfg.BaseSpeed)
	a := agent.New(id, weak, w.agentCfg, w.nav, sensor, w.rng, w.publisher, route, w.currentTick)
	w.bus.Attach(id, a)
	w.agents[id] = a

	lifecycle.AgentSpawned(context.Background(), w.publisher, w.currentTick,
		logging.AgentRef(id), lifecycle.AgentSpawnedPayload{
			SpawnX:    pos.X,
			SpawnZ:    pos.Z,
			Weak:      weak,
			Waypoints: len(route),
		}, nil)
	return a, nil
}

// RemoveAgent unregisters an agent from the bus, its group, and the
// navigation service. Safe to call mid-tick; later passes skip the ID.
func (w *World) RemoveAgent(id, reason string) {
	a, ok := w.agents[id]
	if !ok {
		return
	}
	w.bus.Detach(id)
	if gid := a.GroupID(); gid != "" {
		if g, ok := w.groups[gid]; ok {
			g.RemoveMember(id, w.currentTick)
		}
	}
	w.nav.Remove(id)
	delete(w.agents, id)

	lifecycle.AgentDespawned(context.Background(), w.publisher, w.currentTick,
		logging.AgentRef(id), lifecycle.AgentDespawnedPayload{Reason: reason}, nil)
}

// SpawnGroup creates and registers an empty group. An empty id gets a
// generated one.
func (w *World) SpawnGroup(id string, mode group.Mode) *group.Group {
	if id == "" {
		id = "group-" + uuid.NewString()
	}
	if g, exists := w.groups[id]; exists {
		return g
	}
	g := group.New(id, mode, w.groupCfg, w.lookupAgent, w.nav, w.publisher)
	w.groups[id] = g
	return g
}

// RemoveGroup disbands a group, clearing membership on every agent first.
func (w *World) RemoveGroup(id string) {
	g, ok := w.groups[id]
	if !ok {
		return
	}
	for _, member := range g.Members() {
		g.RemoveMember(member, w.currentTick)
	}
	delete(w.groups, id)
}

// autoWaypoints builds a patrol loop of walkable points around a center.
// Unreachable samples are retried a bounded number of times; a route can
// come back shorter than autoWaypointCount near dense obstacles.
func (w *World) autoWaypoints(center geom.Vec3) []geom.Vec3 {
	route := make([]geom.Vec3, 0, autoWaypointCount)
	for i := 0; i < autoWaypointCount; i++ {
		for attempt := 0; attempt < autoWaypointRetries; attempt++ {
			angle := w.randomAngle()
			dist := w.randomDistance(autoWaypointRadius/2, autoWaypointRadius)
			candidate := geom.Vec3{
				X: center.X + math.Cos(angle)*dist,
				Z: center.Z + math.Sin(angle)*dist,
			}
			if point, ok := w.planner.SamplePoint(candidate, autoWaypointRadius/2); ok {
				route = append(route, point)
				break
			}
		}
	}
	if len(route) == 0 {
		route = append(route, center)
	}
	return route
}
