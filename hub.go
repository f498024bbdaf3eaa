package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"hunt-and-hide/sim/internal/geom"
)

// Hub owns the world and all live observers. Every observer receives the
// state stream; exactly one at a time controls the target probe.
type Hub struct {
	mu          sync.Mutex
	world       *World
	observers   map[string]*observerState
	subscribers map[string]*subscriber
	nextID      atomic.Uint64
}

type observerState struct {
	id             string
	controlsTarget bool
	lastHeartbeat  time.Time
	lastRTT        time.Duration
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// newHub wraps an already-built world.
func newHub(world *World) *Hub {
	return &Hub{
		world:       world,
		observers:   make(map[string]*observerState),
		subscribers: make(map[string]*subscriber),
	}
}

// Join registers a new observer and returns the latest snapshot. The first
// observer without a controlling peer takes over the target probe.
func (h *Hub) Join() joinResponse {
	id := h.nextID.Add(1)
	observerID := fmt.Sprintf("observer-%d", id)

	h.mu.Lock()
	controls := !h.targetControlledLocked()
	h.observers[observerID] = &observerState{
		id:             observerID,
		controlsTarget: controls,
		lastHeartbeat:  time.Now(),
	}
	if controls {
		width, depth := h.world.planner.Bounds()
		h.world.SetTarget(observerID, geom.Vec3{X: width / 2, Z: depth / 2})
	}
	resp := joinResponse{
		ID:        observerID,
		Controls:  controls,
		Agents:    h.world.AgentSnapshots(),
		Groups:    h.world.GroupSnapshots(),
		Obstacles: h.world.ObstacleSnapshots(),
	}
	resp.Width, resp.Depth = h.world.planner.Bounds()
	h.mu.Unlock()

	go h.broadcastState(nil)

	return resp
}

func (h *Hub) targetControlledLocked() bool {
	for _, obs := range h.observers {
		if obs.controlsTarget {
			return true
		}
	}
	return false
}

// Subscribe associates a WebSocket connection with an existing observer.
func (h *Hub) Subscribe(observerID string, conn *websocket.Conn) (*subscriber, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.observers[observerID]
	if !ok {
		return nil, false
	}

	state.lastHeartbeat = time.Now()

	if existing, ok := h.subscribers[observerID]; ok {
		existing.conn.Close()
	}

	sub := &subscriber{conn: conn}
	h.subscribers[observerID] = sub
	return sub, true
}

// Disconnect removes an observer and closes any active subscriber
// connection. When the controlling observer leaves, control passes to the
// longest-lived remaining observer, or the probe detaches.
func (h *Hub) Disconnect(observerID string) bool {
	h.mu.Lock()
	sub, subOK := h.subscribers[observerID]
	if subOK {
		delete(h.subscribers, observerID)
	}

	state, obsOK := h.observers[observerID]
	if obsOK {
		delete(h.observers, observerID)
		if state.controlsTarget {
			h.passTargetControlLocked()
		}
	}
	h.mu.Unlock()

	if subOK {
		sub.conn.Close()
	}
	return obsOK
}

// passTargetControlLocked hands the probe to the lowest-numbered remaining
// observer, keeping its current position, or clears it when nobody is left.
func (h *Hub) passTargetControlLocked() {
	var next *observerState
	for _, obs := range h.observers {
		if next == nil || obs.id < next.id {
			next = obs
		}
	}
	if next == nil {
		h.world.ClearTarget()
		return
	}
	next.controlsTarget = true
	if _, pos, ok := h.world.Target(); ok {
		h.world.SetTarget(next.id, pos)
	}
}

// UpdateIntent stores the latest target movement vector. Only the
// controlling observer may steer the probe.
func (h *Hub) UpdateIntent(observerID string, dx, dz float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.observers[observerID]
	if !ok || !state.controlsTarget {
		return false
	}

	length := math.Hypot(dx, dz)
	if length > 1 {
		dx /= length
		dz /= length
	}
	h.world.SetTargetIntent(dx, dz)
	return true
}

// EmitSound broadcasts a sound event on behalf of an observer. Any observer
// may emit; the position is the requested one, not the probe's.
func (h *Hub) EmitSound(observerID string, x, z, radius float64, category string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.observers[observerID]; !ok {
		return false
	}
	h.world.EmitSound(geom.Vec3{X: x, Z: z}, radius, category)
	return true
}

// UpdateHeartbeat records the most recent heartbeat time and RTT for an
// observer.
func (h *Hub) UpdateHeartbeat(observerID string, receivedAt time.Time, clientSent int64) (time.Duration, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	state, ok := h.observers[observerID]
	if !ok {
		return 0, false
	}

	state.lastHeartbeat = receivedAt

	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			state.lastRTT = rtt
		}
	}

	return state.lastRTT, true
}

// advance runs a single simulation step and returns the broadcast message
// plus stale subscribers.
func (h *Hub) advance(now time.Time, dt float64) (stateMessage, []*subscriber) {
	h.mu.Lock()

	toClose := make([]*subscriber, 0)
	for id, state := range h.observers {
		if now.Sub(state.lastHeartbeat) <= disconnectAfter {
			continue
		}
		if sub, ok := h.subscribers[id]; ok {
			toClose = append(toClose, sub)
			delete(h.subscribers, id)
		}
		delete(h.observers, id)
		if state.controlsTarget {
			h.passTargetControlLocked()
		}
		log.Printf("disconnecting %s due to heartbeat timeout", id)
	}

	h.world.Step(dt)
	msg := h.stateMessageLocked(now)
	h.mu.Unlock()

	return msg, toClose
}

// RunSimulation drives the fixed-rate tick loop until the stop channel
// closes.
func (h *Hub) RunSimulation(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second / tickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			if dt <= 0 {
				dt = 1.0 / float64(tickRate)
			}
			last = now

			msg, toClose := h.advance(now, dt)
			for _, sub := range toClose {
				sub.conn.Close()
			}
			h.broadcastState(&msg)
		}
	}
}

// DiagnosticsSnapshot exposes heartbeat data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsObserver {
	h.mu.Lock()
	defer h.mu.Unlock()

	observers := make([]diagnosticsObserver, 0, len(h.observers))
	for _, state := range h.observers {
		observers = append(observers, diagnosticsObserver{
			ID:             state.id,
			ControlsTarget: state.controlsTarget,
			LastHeartbeat:  state.lastHeartbeat.UnixMilli(),
			RTTMillis:      state.lastRTT.Milliseconds(),
		})
	}
	return observers
}

// stateMessageLocked assembles a broadcast snapshot while holding the mutex.
func (h *Hub) stateMessageLocked(now time.Time) stateMessage {
	return stateMessage{
		Type:       "state",
		Tick:       h.world.CurrentTick(),
		Agents:     h.world.AgentSnapshots(),
		Groups:     h.world.GroupSnapshots(),
		Target:     h.world.TargetSnapshotValue(),
		ServerTime: now.UnixMilli(),
	}
}

// broadcastState sends the latest world snapshot to every subscriber. A nil
// msg builds a fresh snapshot first.
func (h *Hub) broadcastState(msg *stateMessage) {
	if msg == nil {
		h.mu.Lock()
		snapshot := h.stateMessageLocked(time.Now())
		h.mu.Unlock()
		msg = &snapshot
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal state message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		sub.mu.Lock()
		sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
		err := sub.conn.WriteMessage(websocket.TextMessage, data)
		sub.mu.Unlock()
		if err != nil {
			log.Printf("failed to send update to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}
