package messaging

import "context"

// Broker is a fire-and-forget pub/sub transport. Delivery is best effort;
// callers must not depend on it for correctness.
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
