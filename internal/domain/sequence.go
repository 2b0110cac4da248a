package domain

import (
	"context"
	"fmt"
	"strconv"
)

// TaskCodeWidth is the fixed width of a task code
const TaskCodeWidth = 6

// MaxTaskSequence is the largest value that fits a task code
const MaxTaskSequence = 999999

// SequenceCounter is the shared counter task codes are drawn from
type SequenceCounter interface {
	// Increment atomically bumps the counter and returns its prior value
	Increment(ctx context.Context) (int64, error)
}

// FormatTaskCode renders a sequence value as a task code. Values that do not
// fit are rejected rather than truncated.
func FormatTaskCode(n int64) (string, error) {
	if n < 1 {
		return "", fmt.Errorf("%w: sequence value %d", ErrInvalidTaskCode, n)
	}
	if n > MaxTaskSequence {
		return "", fmt.Errorf("%w: sequence value %d", ErrSequenceExhausted, n)
	}
	return fmt.Sprintf("%0*d", TaskCodeWidth, n), nil
}

// IsTaskCode reports whether s is a well formed task code
func IsTaskCode(s string) bool {
	if len(s) != TaskCodeWidth {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return err == nil && n >= 1
}
