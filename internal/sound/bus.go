// Package sound implements the simulation-wide sound event bus. The bus is
// constructed explicitly and injected into whatever emits or hears sounds;
// there is no package-level instance.
package sound

import (
	"context"
	"sort"

	"hunt-and-hide/sim/internal/geom"
	"hunt-and-hide/sim/logging"
	"hunt-and-hide/sim/logging/audio"
)

// Category labels the kind of noise a broadcast represents.
type Category string

const (
	CategoryFootstep Category = "footstep"
	CategoryGunshot  Category = "gunshot"
	CategoryVoice    Category = "voice"
)

// Listener receives every broadcast while attached. Implementations decide
// whether the sound is in range.
type Listener interface {
	HearSound(pos geom.Vec3, radius float64, category Category)
}

// Bus fans broadcasts out synchronously to all attached listeners. Events
// are ephemeral; nothing is queued or persisted.
type Bus struct {
	listeners map[string]Listener
	publisher logging.Publisher
	tick      func() uint64
}

// NewBus builds an empty bus. tick supplies the current simulation tick for
// log events and may be nil.
func NewBus(publisher logging.Publisher, tick func() uint64) *Bus {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &Bus{
		listeners: make(map[string]Listener),
		publisher: publisher,
		tick:      tick,
	}
}

// Attach registers a listener under the given ID, replacing any previous
// registration for that ID.
func (b *Bus) Attach(id string, l Listener) {
	if b == nil || l == nil {
		return
	}
	b.listeners[id] = l
}

// Detach removes the listener registered under the given ID.
func (b *Bus) Detach(id string) {
	if b == nil {
		return
	}
	delete(b.listeners, id)
}

// Broadcast delivers the sound to every attached listener before returning.
// Delivery order is sorted by listener ID so runs replay identically.
func (b *Bus) Broadcast(pos geom.Vec3, radius float64, category Category) {
	if b == nil {
		return
	}
	ids := make([]string, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b.listeners[id].HearSound(pos, radius, category)
	}

	var tick uint64
	if b.tick != nil {
		tick = b.tick()
	}
	audio.Broadcast(context.Background(), b.publisher, tick,
		logging.EntityRef{Kind: logging.EntityKindWorld},
		audio.BroadcastPayload{
			X:         pos.X,
			Z:         pos.Z,
			Radius:    radius,
			Category:  string(category),
			Listeners: len(ids),
		}, nil)
}
