package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/riskibarqy/matchday-tipster/internal/domain/delivery"
)

const defaultDeliveryCapacity = 500

// DeliveryRepository keeps the most recent send attempts in a fixed-size
// ring. Older entries are overwritten.
type DeliveryRepository struct {
	mu     sync.RWMutex
	events []delivery.Event
	next   int
	full   bool
}

var _ delivery.Repository = (*DeliveryRepository)(nil)

func NewDeliveryRepository(capacity int) *DeliveryRepository {
	if capacity <= 0 {
		capacity = defaultDeliveryCapacity
	}
	return &DeliveryRepository{events: make([]delivery.Event, capacity)}
}

func (r *DeliveryRepository) Record(_ context.Context, event delivery.Event) error {
	event.Payload = maps.Clone(event.Payload)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = event
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// ListRecent returns up to limit events, newest first.
func (r *DeliveryRepository) ListRecent(_ context.Context, limit int) ([]delivery.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	size := r.next
	if r.full {
		size = len(r.events)
	}
	if limit > size {
		limit = size
	}
	if limit <= 0 {
		return []delivery.Event{}, nil
	}

	out := make([]delivery.Event, 0, limit)
	idx := r.next
	for len(out) < limit {
		idx = (idx - 1 + len(r.events)) % len(r.events)
		event := r.events[idx]
		event.Payload = maps.Clone(event.Payload)
		out = append(out, event)
	}
	return out, nil
}
