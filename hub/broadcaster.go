// Package hub pushes workflow status events to connected observers. The
// Broadcaster implements workflow.Publisher with best-effort fan-out to
// subscriber channels; the Server exposes the event stream over SSE together
// with order submission, history and stats endpoints.
package hub

import (
	"context"
	"sync"

	"github.com/hupe1980/kitchenmesh/logging"
	"github.com/hupe1980/kitchenmesh/workflow"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind starts losing events; delivery is best-effort.
const subscriberBuffer = 64

// Broadcaster fans each published event out to all current subscribers.
//
// Publish never blocks on a slow subscriber: a full subscriber buffer drops
// the event for that subscriber with a logged warning. Subscribe and
// unsubscribe are safe concurrently with publishes from multiple in-flight
// workflow runs.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[int]chan workflow.StatusEvent
	nextID      int
	logger      logging.Logger
}

// BroadcasterOptions configures optional Broadcaster behavior.
type BroadcasterOptions struct {
	Logger logging.Logger
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster(optFns ...func(o *BroadcasterOptions)) *Broadcaster {
	opts := BroadcasterOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Broadcaster{
		subscribers: make(map[int]chan workflow.StatusEvent),
		logger:      opts.Logger,
	}
}

// Subscribe joins the broadcast group. The returned cancel function leaves
// the group and closes the channel; it is safe to call more than once.
func (b *Broadcaster) Subscribe() (<-chan workflow.StatusEvent, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan workflow.StatusEvent, subscriberBuffer)
	b.subscribers[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish implements workflow.Publisher.
func (b *Broadcaster) Publish(_ context.Context, evt *workflow.StatusEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- *evt:
		default:
			b.logger.Warn("broadcast dropped for slow subscriber",
				"subscriber", id, "workflow_id", evt.WorkflowID, "event_type", evt.EventType.String())
		}
	}
}

// SubscriberCount returns the current number of subscribers.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
