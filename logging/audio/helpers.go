package audio

import (
	"context"

	"hunt-and-hide/sim/logging"
)

// EventSoundBroadcast is emitted once per sound bus broadcast.
const EventSoundBroadcast logging.EventType = "sound.broadcast"

// BroadcastPayload records the origin and reach of a broadcast.
type BroadcastPayload struct {
	X         float64 `json:"x"`
	Z         float64 `json:"z"`
	Radius    float64 `json:"radius"`
	Category  string  `json:"category"`
	Listeners int     `json:"listeners"`
}

// Broadcast publishes a sound broadcast event.
func Broadcast(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BroadcastPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventSoundBroadcast,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySound,
		Payload:  payload,
		Extra:    extra,
	}
	pub.Publish(ctx, event)
}
