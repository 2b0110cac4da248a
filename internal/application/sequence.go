package application

import (
	"context"
	"fmt"

	"github.com/wms-platform/task-control-service/internal/domain"
)

// SequenceAllocator hands out task codes from the shared counter
type SequenceAllocator struct {
	counter domain.SequenceCounter
}

// NewSequenceAllocator creates a SequenceAllocator
func NewSequenceAllocator(counter domain.SequenceCounter) *SequenceAllocator {
	return &SequenceAllocator{counter: counter}
}

// Next consumes one counter value and formats it as a task code. Call it at
// most once per task.
func (a *SequenceAllocator) Next(ctx context.Context) (string, error) {
	n, err := a.counter.Increment(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to increment task counter: %w", err)
	}
	return domain.FormatTaskCode(n)
}
