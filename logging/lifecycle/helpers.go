package lifecycle

import (
	"context"

	"hunt-and-hide/sim/logging"
)

const (
	// EventAgentSpawned is emitted when an agent enters the world.
	EventAgentSpawned logging.EventType = "lifecycle.agent_spawned"
	// EventAgentDespawned is emitted when an agent is removed.
	EventAgentDespawned logging.EventType = "lifecycle.agent_despawned"
	// EventTargetJoined is emitted when an observer takes the target probe.
	EventTargetJoined logging.EventType = "lifecycle.target_joined"
	// EventTargetLeft is emitted when the target probe is released.
	EventTargetLeft logging.EventType = "lifecycle.target_left"
)

// AgentSpawnedPayload captures spawn metadata for a new agent.
type AgentSpawnedPayload struct {
	SpawnX    float64 `json:"spawnX"`
	SpawnZ    float64 `json:"spawnZ"`
	Weak      bool    `json:"weak"`
	Waypoints int     `json:"waypoints"`
}

// AgentDespawnedPayload captures the reason an agent was removed.
type AgentDespawnedPayload struct {
	Reason string `json:"reason"`
}

// AgentSpawned publishes an agent spawn event.
func AgentSpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentSpawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventAgentSpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// AgentDespawned publishes an agent removal event.
func AgentDespawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload AgentDespawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventAgentDespawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TargetJoined publishes a target probe attach event.
func TargetJoined(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTargetJoined,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TargetLeft publishes a target probe release event.
func TargetLeft(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTargetLeft,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
