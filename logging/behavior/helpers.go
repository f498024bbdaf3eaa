package behavior

import (
	"context"

	"hunt-and-hide/sim/logging"
)

const (
	// EventStateChanged is emitted on every FSM transition.
	EventStateChanged logging.EventType = "behavior.state_changed"
	// EventTargetDetected is emitted when a sensor spots the target.
	EventTargetDetected logging.EventType = "behavior.target_detected"
	// EventTargetLost is emitted when a chasing agent loses sight.
	EventTargetLost logging.EventType = "behavior.target_lost"
	// EventSoundHeard is emitted when a sensor accepts a sound broadcast.
	EventSoundHeard logging.EventType = "behavior.sound_heard"
	// EventInvestigate is emitted when an agent is ordered to a position.
	EventInvestigate logging.EventType = "behavior.investigate"
)

// StateChangedPayload records one FSM transition.
type StateChangedPayload struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// DetectionPayload records where the target was perceived.
type DetectionPayload struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// SoundHeardPayload records an accepted sound broadcast.
type SoundHeardPayload struct {
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Category string  `json:"category"`
}

// StateChanged publishes an FSM transition event.
func StateChanged(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload StateChangedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventStateChanged,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TargetDetected publishes a detection event.
func TargetDetected(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DetectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTargetDetected,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// TargetLost publishes a loss-of-sight event.
func TargetLost(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DetectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventTargetLost,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// SoundHeard publishes an accepted-sound event.
func SoundHeard(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload SoundHeardPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSoundHeard,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}

// Investigate publishes an investigate order event.
func Investigate(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload DetectionPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventInvestigate,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryBehavior,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
