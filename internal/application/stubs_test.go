package application

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/wms-platform/task-control-service/internal/domain"
)

type stubTaskRepo struct {
	InsertFn         func(ctx context.Context, task *domain.Task) error
	FindByCodeFn     func(ctx context.Context, codTask string) (*domain.Task, error)
	FindByOperatorFn func(ctx context.Context, codOperator string) ([]*domain.Task, error)
	FindAllFn        func(ctx context.Context) ([]*domain.Task, error)
	UpdateFn         func(ctx context.Context, task *domain.Task, fields []string) (*domain.Task, error)
}

func (s *stubTaskRepo) Insert(ctx context.Context, task *domain.Task) error {
	if s.InsertFn != nil {
		return s.InsertFn(ctx, task)
	}
	return nil
}

func (s *stubTaskRepo) FindByCode(ctx context.Context, codTask string) (*domain.Task, error) {
	if s.FindByCodeFn != nil {
		return s.FindByCodeFn(ctx, codTask)
	}
	return nil, nil
}

func (s *stubTaskRepo) FindByOperator(ctx context.Context, codOperator string) ([]*domain.Task, error) {
	if s.FindByOperatorFn != nil {
		return s.FindByOperatorFn(ctx, codOperator)
	}
	return nil, nil
}

func (s *stubTaskRepo) FindAll(ctx context.Context) ([]*domain.Task, error) {
	if s.FindAllFn != nil {
		return s.FindAllFn(ctx)
	}
	return nil, nil
}

func (s *stubTaskRepo) Update(ctx context.Context, task *domain.Task, fields []string) (*domain.Task, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, task, fields)
	}
	return task, nil
}

// atomicCounter mimics the single document counter
type atomicCounter struct {
	next  atomic.Int64
	err   error
	calls atomic.Int32
}

func newAtomicCounter(start int64) *atomicCounter {
	c := &atomicCounter{}
	c.next.Store(start)
	return c
}

func (c *atomicCounter) Increment(context.Context) (int64, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return c.next.Add(1) - 1, nil
}

type stubChecker struct {
	CheckProductFn func(ctx context.Context, caller domain.Caller, codProduct string) (domain.ConstraintOutcome, error)
	CheckShelfFn   func(ctx context.Context, caller domain.Caller, shelfID, codProduct string, quantity int, direction domain.ShelfDirection) (domain.ConstraintOutcome, error)

	mu         sync.Mutex
	shelfCalls []string
}

func (s *stubChecker) CheckProduct(ctx context.Context, caller domain.Caller, codProduct string) (domain.ConstraintOutcome, error) {
	if s.CheckProductFn != nil {
		return s.CheckProductFn(ctx, caller, codProduct)
	}
	return domain.OutcomeOK, nil
}

func (s *stubChecker) CheckShelf(ctx context.Context, caller domain.Caller, shelfID, codProduct string, quantity int, direction domain.ShelfDirection) (domain.ConstraintOutcome, error) {
	s.mu.Lock()
	s.shelfCalls = append(s.shelfCalls, string(direction)+":"+shelfID)
	s.mu.Unlock()
	if s.CheckShelfFn != nil {
		return s.CheckShelfFn(ctx, caller, shelfID, codProduct, quantity, direction)
	}
	return domain.OutcomeOK, nil
}

func (s *stubChecker) ShelfCalls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shelfCalls...)
}

type stubGateway struct {
	RequestTransferFn func(ctx context.Context, caller domain.Caller, lines []domain.ProductLine) error

	mu    sync.Mutex
	calls [][]domain.ProductLine
}

func (s *stubGateway) RequestTransfer(ctx context.Context, caller domain.Caller, lines []domain.ProductLine) error {
	s.mu.Lock()
	s.calls = append(s.calls, lines)
	s.mu.Unlock()
	if s.RequestTransferFn != nil {
		return s.RequestTransferFn(ctx, caller, lines)
	}
	return nil
}

func (s *stubGateway) Calls() [][]domain.ProductLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.ProductLine(nil), s.calls...)
}

type recordingMetrics struct {
	NopMetrics
	mu         sync.Mutex
	rejections []string
}

func (m *recordingMetrics) RecordTaskRejected(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, code)
}
