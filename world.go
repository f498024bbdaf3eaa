package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"hunt-and-hide/sim/internal/agent"
	"hunt-and-hide/sim/internal/config"
	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/internal/group"
	"hunt-and-hide/sim/internal/nav"
	"hunt-and-hide/sim/internal/sense"
	"hunt-and-hide/sim/internal/sound"
	"hunt-and-hide/sim/logging"
	"hunt-and-hide/sim/logging/lifecycle"
)

// targetProbe is the hub-controlled entity every agent sensor watches. It
// moves by intent on the XZ plane and satisfies sense.Target.
type targetProbe struct {
	id        string
	pos       geom.Vec3
	intentX   float64
	intentZ   float64
	lastStep  uint64
	stepMoved bool
}

func (t *targetProbe) Position() geom.Vec3 {
	if t == nil {
		return geom.Vec3{}
	}
	return t.pos
}

// World owns the live simulation: the registries of agents and groups, the
// navigation service, the sound bus, and the current tick. All methods
// assume the caller holds the hub mutex; World itself does no locking.
type World struct {
	cfg       config.SimulationConfig
	rng       *rand.Rand
	publisher logging.Publisher

	planner *nav.Planner
	nav     *nav.Service
	bus     *sound.Bus

	agents map[string]*agent.Agent
	groups map[string]*group.Group

	agentCfg  agent.Config
	sensorCfg sense.Config
	groupCfg  group.Config

	target *targetProbe

	currentTick uint64
}

// NewWorld builds a world from the given configuration: seeded RNG, obstacle
// layout, navigation service, sound bus, and the configured set of agents
// grouped into one patrol squad.
func NewWorld(cfg config.SimulationConfig, publisher logging.Publisher) *World {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	rng := worldRNG(cfg.Seed)
	obstacles := nav.GenerateObstacles(rng, cfg.World.ObstacleCount, cfg.World.Width, cfg.World.Depth)
	planner := nav.NewPlanner(obstacles, cfg.World.Width, cfg.World.Depth)

	w := &World{
		cfg:       cfg,
		rng:       rng,
		publisher: publisher,
		planner:   planner,
		nav:       nav.NewService(planner),
		agents:    make(map[string]*agent.Agent),
		groups:    make(map[string]*group.Group),
		agentCfg:  cfg.AgentBehavior(tickRate),
		sensorCfg: cfg.SensorSettings(tickRate),
		groupCfg:  cfg.GroupSettings(),
	}
	w.bus = sound.NewBus(publisher, w.CurrentTick)
	w.populate()
	return w
}

// populate spawns the configured agents and folds the sturdy ones into a
// single leader-follower squad. Weak agents patrol solo so the flee branch
// stays visible in the demo.
func (w *World) populate() {
	count := w.cfg.World.AgentCount
	if count <= 0 {
		return
	}
	weakCount := int(math.Round(w.cfg.World.WeakRatio * float64(count)))

	// Sequential IDs keep two worlds built from the same seed identical;
	// generated UUIDs would reorder every sorted pass.
	var squad *group.Group
	for i := 0; i < count; i++ {
		weak := i < weakCount
		a, err := w.SpawnAgent(fmt.Sprintf("npc-%02d", i+1), weak, nil)
		if err != nil {
			continue
		}
		if weak {
			continue
		}
		if squad == nil {
			squad = w.SpawnGroup("squad-1", group.LeaderFollower)
		}
		// Best effort; a full squad never rejects fresh members.
		_ = squad.AddMember(a, w.currentTick)
	}
}

// CurrentTick returns the tick of the step in progress, or the last
// completed step between ticks.
func (w *World) CurrentTick() uint64 {
	if w == nil {
		return 0
	}
	return w.currentTick
}

// Bus exposes the sound bus for external broadcasts.
func (w *World) Bus() *sound.Bus { return w.bus }

// Nav exposes the navigation service.
func (w *World) Nav() *nav.Service { return w.nav }

// Agent returns the registered agent, or nil.
func (w *World) Agent(id string) *agent.Agent { return w.agents[id] }

// Group returns the registered group, or nil.
func (w *World) Group(id string) *group.Group { return w.groups[id] }

// lookupAgent satisfies group.Lookup.
func (w *World) lookupAgent(id string) (*agent.Agent, bool) {
	a, ok := w.agents[id]
	return a, ok
}

// SetTarget attaches the observer-controlled probe at the given position and
// retargets every sensor at it.
func (w *World) SetTarget(id string, pos geom.Vec3) {
	if snapped, ok := w.planner.SamplePoint(pos, nav.CellSize*4); ok {
		pos = snapped
	}
	w.target = &targetProbe{id: id, pos: pos}
	for _, agentID := range w.sortedAgentIDs() {
		w.agents[agentID].Sensor().Retarget(w.target)
	}
	lifecycle.TargetJoined(context.Background(), w.publisher, w.currentTick,
		logging.EntityRef{ID: id, Kind: logging.EntityKindTarget}, nil)
}

// ClearTarget detaches the probe. Sensors fall back to their degraded
// no-target behavior until a new probe joins.
func (w *World) ClearTarget() {
	if w.target == nil {
		return
	}
	id := w.target.id
	w.target = nil
	for _, agentID := range w.sortedAgentIDs() {
		w.agents[agentID].Sensor().Retarget(nil)
	}
	lifecycle.TargetLeft(context.Background(), w.publisher, w.currentTick,
		logging.EntityRef{ID: id, Kind: logging.EntityKindTarget}, nil)
}

// Target returns the current probe ID and position, if one is attached.
func (w *World) Target() (string, geom.Vec3, bool) {
	if w.target == nil {
		return "", geom.Vec3{}, false
	}
	return w.target.id, w.target.pos, true
}

// SetTargetIntent records the observer's movement intent as a direction on
// the XZ plane. The vector is normalized during the step.
func (w *World) SetTargetIntent(dx, dz float64) {
	if w.target == nil {
		return
	}
	w.target.intentX = dx
	w.target.intentZ = dz
}

// EmitSound broadcasts a sound event at the given position. Unknown
// categories fall back to voice.
func (w *World) EmitSound(pos geom.Vec3, radius float64, category string) {
	cat := sound.Category(category)
	switch cat {
	case sound.CategoryFootstep, sound.CategoryGunshot, sound.CategoryVoice:
	default:
		cat = sound.CategoryVoice
	}
	w.bus.Broadcast(pos, radius, cat)
}

// Step advances the simulation one tick: target movement, agent FSM steps in
// sorted ID order, group steering in sorted ID order, then mover
// advancement. dt is the frame delta in seconds.
func (w *World) Step(dt float64) {
	w.currentTick++
	tick := w.currentTick

	w.stepTarget(tick, dt)

	for _, id := range w.sortedAgentIDs() {
		a, ok := w.agents[id]
		if !ok {
			continue
		}
		a.Step(tick)
	}
	for _, id := range w.sortedGroupIDs() {
		g, ok := w.groups[id]
		if !ok {
			continue
		}
		g.Step(tick)
	}
	w.nav.Advance(tick, dt)
}

// stepTarget moves the probe by its intent, clamped to world bounds and
// blocked by obstacles. A moving probe emits a footstep broadcast on a fixed
// cadence so nearby agents can hear it.
func (w *World) stepTarget(tick uint64, dt float64) {
	t := w.target
	if t == nil {
		return
	}
	dir := geom.Vec3{X: t.intentX, Z: t.intentZ}
	if dir.IsZero() {
		t.stepMoved = false
		return
	}
	dir = dir.Normalize()
	next := t.pos.Add(dir.Scale(targetMoveSpeed * dt))
	width, depth := w.planner.Bounds()
	next.X = geom.Clamp(next.X, 0, width)
	next.Z = geom.Clamp(next.Z, 0, depth)
	if w.planner.IsWalkable(next) {
		t.pos = next
		t.stepMoved = true
	} else {
		t.stepMoved = false
	}
	if t.stepMoved && tick-t.lastStep >= footstepIntervalTicks {
		t.lastStep = tick
		w.bus.Broadcast(t.pos, footstepRadius, sound.CategoryFootstep)
	}
}

func (w *World) sortedAgentIDs() []string {
	ids := make([]string, 0, len(w.agents))
	for id := range w.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (w *World) sortedGroupIDs() []string {
	ids := make([]string, 0, len(w.groups))
	for id := range w.groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AgentSnapshots returns the broadcast view of every agent, sorted by ID.
func (w *World) AgentSnapshots() []AgentSnapshot {
	out := make([]AgentSnapshot, 0, len(w.agents))
	for _, id := range w.sortedAgentIDs() {
		a := w.agents[id]
		pos := a.Position()
		out = append(out, AgentSnapshot{
			ID:       id,
			X:        pos.X,
			Z:        pos.Z,
			State:    a.State().String(),
			Weak:     a.IsWeak(),
			GroupID:  a.GroupID(),
			IsLeader: a.IsLeader(),
		})
	}
	return out
}

// GroupSnapshots returns the broadcast view of every group, sorted by ID.
func (w *World) GroupSnapshots() []GroupSnapshot {
	out := make([]GroupSnapshot, 0, len(w.groups))
	for _, id := range w.sortedGroupIDs() {
		g := w.groups[id]
		out = append(out, GroupSnapshot{
			ID:      id,
			Mode:    g.Mode().String(),
			Leader:  g.Leader(),
			Members: g.Members(),
			Loose:   g.IsLoose(),
		})
	}
	return out
}

// TargetSnapshotValue returns the probe snapshot, or nil when detached.
func (w *World) TargetSnapshotValue() *TargetSnapshot {
	id, pos, ok := w.Target()
	if !ok {
		return nil
	}
	return &TargetSnapshot{ID: id, X: pos.X, Z: pos.Z}
}

// ObstacleSnapshots returns the static obstacle layout.
func (w *World) ObstacleSnapshots() []ObstacleSnapshot {
	obstacles := w.planner.Obstacles()
	out := make([]ObstacleSnapshot, 0, len(obstacles))
	for _, o := range obstacles {
		out = append(out, ObstacleSnapshot{
			ID:    o.ID,
			X:     o.MinX,
			Z:     o.MinZ,
			Width: o.Width,
			Depth: o.Depth,
		})
	}
	return out
}
