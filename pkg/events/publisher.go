package events

import "context"

// Publisher emits domain events for downstream consumers (notifications,
// analytics). Publishing is best-effort: callers log failures and move on,
// the primary write is never rolled back because an event did not go out.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// Close is a no-op.
func (NopPublisher) Close() error { return nil }
