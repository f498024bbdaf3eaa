package groups

import (
	"context"

	"hunt-and-hide/sim/logging"
)

const (
	// EventMemberAdded is emitted when an agent joins a group.
	EventMemberAdded logging.EventType = "group.member_added"
	// EventMemberRemoved is emitted when an agent leaves a group.
	EventMemberRemoved logging.EventType = "group.member_removed"
	// EventLeaderChanged is emitted on leader assignment or promotion.
	EventLeaderChanged logging.EventType = "group.leader_changed"
	// EventFormationChanged is emitted when the formation kind changes.
	EventFormationChanged logging.EventType = "group.formation_changed"
)

// MembershipPayload records the agent affected by a membership change.
type MembershipPayload struct {
	AgentID string `json:"agentId"`
	Members int    `json:"members"`
}

// LeaderChangedPayload records a leader handover.
type LeaderChangedPayload struct {
	Previous string `json:"previous,omitempty"`
	Leader   string `json:"leader"`
}

// FormationChangedPayload records the new formation kind.
type FormationChangedPayload struct {
	Kind string `json:"kind"`
}

// MemberAdded publishes a membership addition event.
func MemberAdded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MembershipPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventMemberAdded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// MemberRemoved publishes a membership removal event.
func MemberRemoved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload MembershipPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventMemberRemoved,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// LeaderChanged publishes a leader handover event.
func LeaderChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload LeaderChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventLeaderChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// FormationChanged publishes a formation kind change event.
func FormationChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload FormationChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventFormationChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
