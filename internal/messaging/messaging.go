package messaging

import "context"

// Publisher defines an interface for publishing domain events.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	return nil
}
