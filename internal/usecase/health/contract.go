package health

import "context"

// ListenerPinger checks that the breaker accept loop is running.
type ListenerPinger interface {
	Ping(ctx context.Context) error
}
