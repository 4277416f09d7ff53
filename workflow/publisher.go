package workflow

import "context"

// Publisher fans one event out to all current subscribers. Publish is
// fire-and-forget from the engine's perspective: implementations must catch
// and log transport failures internally so a broadcast problem can never
// abort a workflow run.
type Publisher interface {
	Publish(ctx context.Context, evt *StatusEvent)
}

// NoOpPublisher discards all events.
type NoOpPublisher struct{}

// Publish implements Publisher.
func (NoOpPublisher) Publish(_ context.Context, _ *StatusEvent) {}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, evt *StatusEvent)

// Publish implements Publisher.
func (f PublisherFunc) Publish(ctx context.Context, evt *StatusEvent) { f(ctx, evt) }

// CombinePublishers fans each event out to every given publisher in order.
// Used to pair a live broadcaster with an event store.
func CombinePublishers(pubs ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, evt *StatusEvent) {
		for _, p := range pubs {
			p.Publish(ctx, evt)
		}
	})
}
