package broker

import "context"

// Publisher emits order events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
