// Package events provides an in-process bus for pipeline stage transitions.
// Events are diagnostic: control flow never depends on delivery, so publish
// is non-blocking and slow subscribers lose events rather than stall a run.
package events

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wayfare-group/trip-planner-cli/internal/model"
)

// DefaultBuffer is the per-subscriber channel depth.
const DefaultBuffer = 32

// Bus fans stage events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan model.StageEvent
	nextID int
	buffer int
	closed bool
}

// NewBus creates a Bus. A non-positive buffer falls back to the default.
func NewBus(buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Bus{
		subs:   make(map[int]chan model.StageEvent),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. The channel is closed on unsubscribe or bus close.
func (b *Bus) Subscribe() (<-chan model.StageEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan model.StageEvent)
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	ch := make(chan model.StageEvent, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
	return ch, unsubscribe
}

// Publish delivers the event to every subscriber without blocking. A full
// subscriber buffer drops the event for that subscriber only.
func (b *Bus) Publish(ev model.StageEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			zap.L().Debug("events: dropping event for slow subscriber",
				zap.Int("subscriber", id),
				zap.String("stage", string(ev.Stage)),
			)
		}
	}
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
