// Package outbox defines the event ports between committed units of work and
// their after-commit side effects.
package outbox

import "context"

// Event is anything published after commit; EventName is the routing key.
type Event interface {
	EventName() string
}

// Handler reacts to one event. Its error is logged and counted by the bus,
// never returned to the publisher.
type Handler func(ctx context.Context, e Event) error

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

type Subscriber interface {
	Subscribe(eventName string, h Handler)
}

// Broker is both ends of an event channel.
type Broker interface {
	Publisher
	Subscriber
}
