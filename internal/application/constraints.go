package application

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/errors"
)

const defaultConstraintConcurrency = 4

// ConstraintEvaluator runs the remote checks of every product line. Lines are
// checked concurrently; the lowest index failure is reported.
type ConstraintEvaluator struct {
	checker     domain.ConstraintChecker
	metrics     Metrics
	concurrency int
}

// NewConstraintEvaluator creates a ConstraintEvaluator
func NewConstraintEvaluator(checker domain.ConstraintChecker, metrics Metrics, concurrency int) *ConstraintEvaluator {
	if concurrency <= 0 {
		concurrency = defaultConstraintConcurrency
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &ConstraintEvaluator{
		checker:     checker,
		metrics:     metrics,
		concurrency: concurrency,
	}
}

// Evaluate returns the first violation by line index, or nil when every
// line passes.
func (e *ConstraintEvaluator) Evaluate(ctx context.Context, caller domain.Caller, lines []domain.ProductLine) *domain.LineViolation {
	results := make([]*domain.LineViolation, len(lines))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, line := range lines {
		g.Go(func() error {
			results[i] = e.checkLine(ctx, caller, i, line)
			return nil
		})
	}
	_ = g.Wait()

	for _, v := range results {
		if v != nil {
			return v
		}
	}
	return nil
}

// checkLine runs the product check, then source and destination shelves,
// stopping at the first failure.
func (e *ConstraintEvaluator) checkLine(ctx context.Context, caller domain.Caller, index int, line domain.ProductLine) *domain.LineViolation {
	outcome, err := e.checker.CheckProduct(ctx, caller, line.CodProduct)
	e.metrics.RecordConstraintCheck("product", outcome.String())
	if err != nil || outcome != domain.OutcomeOK {
		return &domain.LineViolation{Index: index, CodProduct: line.CodProduct, Outcome: outcome, Err: err}
	}

	for _, check := range line.ShelfChecks() {
		outcome, err := e.checker.CheckShelf(ctx, caller, check.ShelfID, line.CodProduct, line.Quantity, check.Direction)
		e.metrics.RecordConstraintCheck("shelf_"+string(check.Direction), outcome.String())
		if err != nil || outcome != domain.OutcomeOK {
			return &domain.LineViolation{
				Index:      index,
				CodProduct: line.CodProduct,
				ShelfID:    check.ShelfID,
				Outcome:    outcome,
				Err:        err,
			}
		}
	}

	return nil
}

// violationError maps a line violation onto its rejection
func violationError(v *domain.LineViolation) *errors.AppError {
	if v.Err != nil {
		return errors.ErrConstraintUnavailable("constraint service").Wrap(v.Err)
	}

	switch v.Outcome {
	case domain.OutcomeProductNotFound:
		return errors.ErrProductNotDefined(v.CodProduct)
	case domain.OutcomeShelfNotFound:
		return errors.ErrShelfNotFound(v.ShelfID)
	case domain.OutcomeProductNotOnShelf:
		return errors.ErrProductNotDefinedInShelf(v.CodProduct, v.ShelfID)
	case domain.OutcomeInsufficientStock:
		return errors.ErrQuantityExceedsStock(v.CodProduct, v.ShelfID)
	default:
		return errors.ErrConstraintUnavailable("constraint service")
	}
}
