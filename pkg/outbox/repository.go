package outbox

import "context"

// Repository defines outbox persistence
type Repository interface {
	// SaveAll stores events; callers run it inside the aggregate's transaction
	SaveAll(ctx context.Context, events []*Event) error

	// FindUnpublished returns retryable events, oldest first
	FindUnpublished(ctx context.Context, limit int) ([]*Event, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry bumps the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	FindByAggregateID(ctx context.Context, aggregateID string) ([]*Event, error)
}
