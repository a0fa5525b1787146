package pubsub

import "context"

const (
	// CreatedEvent a new item was appended (chat message, uploaded document)
	CreatedEvent EventType = "created"
	// UpdatedEvent an existing item or state snapshot changed
	UpdatedEvent EventType = "updated"
	// DeletedEvent an item was removed
	DeletedEvent EventType = "deleted"
	// FinishedEvent an in-flight request completed, successfully or not
	FinishedEvent EventType = "finished"
)

// Subscriber hands out event channels that close when the context ends.
type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies what happened to the payload.
	EventType string

	// Event is a single lifecycle notification.
	Event[T any] struct {
		Type    EventType
		Payload T
	}

	// Publisher fans an event out to every subscriber.
	Publisher[T any] interface {
		Publish(EventType, T)
	}
)
