package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/task-control-service/internal/domain"
	sharedErrors "github.com/wms-platform/task-control-service/pkg/errors"
	"github.com/wms-platform/task-control-service/pkg/logging"
)

var (
	operator = domain.Principal{CodUser: "OP-1", Role: domain.RoleOperator, BearerToken: "op-token"}
	admin    = domain.Principal{CodUser: "AD-1", Role: domain.RoleAdmin, BearerToken: "admin-token"}
)

type testDeps struct {
	repo     *stubTaskRepo
	counter  *atomicCounter
	checker  *stubChecker
	gateway  *stubGateway
	notifier *CompletionNotifier
	metrics  *recordingMetrics
}

func newTestService(t *testing.T) (*TaskApplicationService, *testDeps) {
	t.Helper()
	logger := logging.NewNop()
	deps := &testDeps{
		repo:    &stubTaskRepo{},
		counter: newAtomicCounter(1),
		checker: &stubChecker{},
		gateway: &stubGateway{},
		metrics: &recordingMetrics{},
	}
	deps.notifier = NewCompletionNotifier(deps.gateway, time.Second, deps.metrics, logger)
	service := NewTaskApplicationService(
		deps.repo,
		NewSequenceAllocator(deps.counter),
		NewConstraintEvaluator(deps.checker, deps.metrics, 4),
		deps.notifier,
		deps.metrics,
		logger,
	)
	return service, deps
}

func payload(t *testing.T, body string) domain.Payload {
	t.Helper()
	p, err := domain.DecodePayload([]byte(body))
	require.NoError(t, err)
	return p
}

func requireCode(t *testing.T, err error, code string, status int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := sharedErrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, status, appErr.HTTPStatus)
}

const validCreateBody = `{
	"codOperator": "OP-1",
	"date": "2024-05-01",
	"type": "loading",
	"status": "Pending",
	"productList": [{"codProduct": "000003", "from": null, "to": "000123", "quantity": 20}]
}`

func storedTask(codTask, codOperator string) *domain.Task {
	return &domain.Task{
		CodTask:     codTask,
		CodOperator: codOperator,
		Date:        "2024-05-01",
		Type:        "loading",
		Status:      "Pending",
		ProductList: []domain.ProductLine{
			{CodProduct: "A", From: "SH-1", To: "SH-2", Quantity: 2},
			{CodProduct: "B", From: domain.OutsideLocation, To: "SH-3", Quantity: 5},
		},
	}
}

func TestTaskApplicationService_AssignTask(t *testing.T) {
	service, deps := newTestService(t)
	var inserted *domain.Task
	deps.repo.InsertFn = func(_ context.Context, task *domain.Task) error {
		inserted = task
		return nil
	}

	dto, err := service.AssignTask(context.Background(), AssignTaskCommand{
		Payload: payload(t, validCreateBody),
		Caller:  admin,
	})

	require.NoError(t, err)
	require.NotNil(t, inserted)
	assert.Equal(t, "000001", dto.CodTask)
	assert.Equal(t, "OP-1", dto.CodOperator)
	assert.Equal(t, []ProductLineDTO{{CodProduct: "000003", To: "000123", Quantity: 20}}, dto.ProductList)
	assert.Equal(t, []string{"to:000123"}, deps.checker.ShelfCalls())
	assert.Len(t, inserted.GetDomainEvents(), 1)
}

func TestTaskApplicationService_AssignTask_FieldRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{
			name: "missing field",
			body: `{"codOperator":"OP-1","date":"d","type":"loading","productList":[]}`,
			code: sharedErrors.CodeInvalidRequestShape,
		},
		{
			name: "client supplied code",
			body: `{"codTask":"000009","codOperator":"OP-1","date":"d","type":"loading","status":"Pending","productList":[]}`,
			code: sharedErrors.CodeInvalidRequestShape,
		},
		{
			name: "quantity of the wrong type",
			body: `{"codOperator":"OP-1","date":"d","type":"loading","status":"Pending","productList":[{"codProduct":"P","to":"S","quantity":"5"}]}`,
			code: sharedErrors.CodeInvalidRequestShape,
		},
		{
			name: "empty status",
			body: `{"codOperator":"OP-1","date":"d","type":"loading","status":"","productList":[{"codProduct":"P","to":"S","quantity":5}]}`,
			code: sharedErrors.CodeInvalidTaskData,
		},
		{
			name: "empty product list",
			body: `{"codOperator":"OP-1","date":"d","type":"loading","status":"Pending","productList":[]}`,
			code: sharedErrors.CodeInvalidTaskData,
		},
		{
			name: "line with neither from nor to",
			body: `{"codOperator":"OP-1","date":"d","type":"loading","status":"Pending","productList":[{"codProduct":"P","from":null,"to":null,"quantity":5}]}`,
			code: sharedErrors.CodeInvalidProductData,
		},
		{
			name: "line with zero quantity",
			body: `{"codOperator":"OP-1","date":"d","type":"loading","status":"Pending","productList":[{"codProduct":"P","to":"S","quantity":0}]}`,
			code: sharedErrors.CodeInvalidProductData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, deps := newTestService(t)
			deps.repo.InsertFn = func(context.Context, *domain.Task) error {
				t.Fatal("task must not be persisted")
				return nil
			}

			dto, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: payload(t, tt.body), Caller: admin})

			assert.Nil(t, dto)
			requireCode(t, err, tt.code, http.StatusBadRequest)
			assert.Zero(t, deps.counter.calls.Load())
			assert.Equal(t, []string{tt.code}, deps.metrics.rejections)
		})
	}
}

func TestTaskApplicationService_AssignTask_ConstraintRejections(t *testing.T) {
	body := `{"codOperator":"OP-1","date":"d","type":"loading","status":"Pending","productList":[{"codProduct":"P1","from":"SH-1","to":"SH-2","quantity":5}]}`

	tests := []struct {
		name    string
		product domain.ConstraintOutcome
		from    domain.ConstraintOutcome
		to      domain.ConstraintOutcome
		err     error
		code    string
		status  int
	}{
		{"unknown product", domain.OutcomeProductNotFound, domain.OutcomeOK, domain.OutcomeOK, nil, sharedErrors.CodeProductNotDefined, http.StatusUnprocessableEntity},
		{"unknown source shelf", domain.OutcomeOK, domain.OutcomeShelfNotFound, domain.OutcomeOK, nil, sharedErrors.CodeShelfNotFound, http.StatusUnprocessableEntity},
		{"product not on shelf", domain.OutcomeOK, domain.OutcomeProductNotOnShelf, domain.OutcomeOK, nil, sharedErrors.CodeProductNotDefinedInShelf, http.StatusUnprocessableEntity},
		{"insufficient stock", domain.OutcomeOK, domain.OutcomeInsufficientStock, domain.OutcomeOK, nil, sharedErrors.CodeQuantityExceedsStock, http.StatusUnprocessableEntity},
		{"unknown destination shelf", domain.OutcomeOK, domain.OutcomeOK, domain.OutcomeShelfNotFound, nil, sharedErrors.CodeShelfNotFound, http.StatusUnprocessableEntity},
		{"transport failure fails closed", domain.OutcomeTransportError, domain.OutcomeOK, domain.OutcomeOK, errors.New("connection refused"), sharedErrors.CodeConstraintUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, deps := newTestService(t)
			deps.checker.CheckProductFn = func(context.Context, domain.Caller, string) (domain.ConstraintOutcome, error) {
				return tt.product, tt.err
			}
			deps.checker.CheckShelfFn = func(_ context.Context, _ domain.Caller, _, _ string, _ int, dir domain.ShelfDirection) (domain.ConstraintOutcome, error) {
				if dir == domain.DirectionFrom {
					return tt.from, nil
				}
				return tt.to, nil
			}
			inserted := false
			deps.repo.InsertFn = func(context.Context, *domain.Task) error {
				inserted = true
				return nil
			}

			_, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: payload(t, body), Caller: admin})

			requireCode(t, err, tt.code, tt.status)
			assert.False(t, inserted)
			assert.Zero(t, deps.counter.calls.Load(), "no code may be consumed")
		})
	}
}

func TestTaskApplicationService_AssignTask_FirstFailingLineWins(t *testing.T) {
	body := `{"codOperator":"OP-1","date":"d","type":"loading","status":"Pending","productList":[
		{"codProduct":"P1","from":"SH-1","quantity":50},
		{"codProduct":"P2","to":"SH-2","quantity":1}
	]}`

	service, deps := newTestService(t)
	deps.checker.CheckProductFn = func(_ context.Context, _ domain.Caller, codProduct string) (domain.ConstraintOutcome, error) {
		if codProduct == "P2" {
			return domain.OutcomeProductNotFound, nil
		}
		// the first line fails later than the second
		time.Sleep(20 * time.Millisecond)
		return domain.OutcomeOK, nil
	}
	deps.checker.CheckShelfFn = func(context.Context, domain.Caller, string, string, int, domain.ShelfDirection) (domain.ConstraintOutcome, error) {
		return domain.OutcomeInsufficientStock, nil
	}

	_, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: payload(t, body), Caller: admin})

	requireCode(t, err, sharedErrors.CodeQuantityExceedsStock, http.StatusUnprocessableEntity)
}

func TestTaskApplicationService_AssignTask_OutsideSourceIsNotChecked(t *testing.T) {
	body := `{"codOperator":"OP-1","date":"d","type":"unloading","status":"Pending","productList":[{"codProduct":"P1","from":"Outside","to":"SH-9","quantity":3}]}`
	service, deps := newTestService(t)

	_, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: payload(t, body), Caller: admin})

	require.NoError(t, err)
	assert.Equal(t, []string{"to:SH-9"}, deps.checker.ShelfCalls())
}

func TestTaskApplicationService_AssignTask_PersistenceFailure(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.InsertFn = func(context.Context, *domain.Task) error {
		return errors.New("write conflict")
	}

	_, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: payload(t, validCreateBody), Caller: admin})

	requireCode(t, err, sharedErrors.CodeInvalidTaskData, http.StatusBadRequest)
	assert.ErrorContains(t, err, "write conflict")
}

func TestTaskApplicationService_AssignTask_SequenceFailure(t *testing.T) {
	service, deps := newTestService(t)
	deps.counter.err = errors.New("counter unavailable")
	deps.repo.InsertFn = func(context.Context, *domain.Task) error {
		t.Fatal("task must not be persisted")
		return nil
	}

	_, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: payload(t, validCreateBody), Caller: admin})

	requireCode(t, err, sharedErrors.CodeInternalError, http.StatusInternalServerError)
}

func TestTaskApplicationService_AssignTask_SequenceExhausted(t *testing.T) {
	service, deps := newTestService(t)
	deps.counter.next.Store(domain.MaxTaskSequence + 1)

	_, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: payload(t, validCreateBody), Caller: admin})

	requireCode(t, err, sharedErrors.CodeInternalError, http.StatusInternalServerError)
	assert.ErrorIs(t, err, domain.ErrSequenceExhausted)
}

func TestTaskApplicationService_AssignTask_ConcurrentCodesAreUnique(t *testing.T) {
	service, _ := newTestService(t)
	const n = 50
	body := payload(t, validCreateBody)

	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dto, err := service.AssignTask(context.Background(), AssignTaskCommand{Payload: body, Caller: admin})
			if err == nil {
				codes[i] = dto.CodTask
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, code := range codes {
		require.Len(t, code, 6)
		require.False(t, seen[code], "duplicate code %s", code)
		seen[code] = true
	}
}

func TestTaskApplicationService_UpdateTask_Completion(t *testing.T) {
	service, deps := newTestService(t)
	task := storedTask("000010", "OP-1")
	deps.repo.FindByOperatorFn = func(_ context.Context, codOperator string) ([]*domain.Task, error) {
		assert.Equal(t, "OP-1", codOperator)
		return []*domain.Task{task}, nil
	}
	var fields []string
	deps.repo.UpdateFn = func(_ context.Context, updated *domain.Task, f []string) (*domain.Task, error) {
		fields = f
		return updated, nil
	}
	release := make(chan struct{})
	deps.gateway.RequestTransferFn = func(ctx context.Context, caller domain.Caller, _ []domain.ProductLine) error {
		<-release
		assert.Equal(t, "op-token", caller.Credential())
		return nil
	}

	dto, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"status":"Completed"}`),
		Caller:  operator,
	})

	// the response does not wait for the notification
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, dto.Status)
	assert.Equal(t, []string{"status"}, fields)

	close(release)
	deps.notifier.Wait()

	calls := deps.gateway.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, task.ProductList, calls[0])
}

func TestTaskApplicationService_UpdateTask_NotificationFailureIsSwallowed(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByOperatorFn = func(context.Context, string) ([]*domain.Task, error) {
		return []*domain.Task{storedTask("000010", "OP-1")}, nil
	}
	deps.gateway.RequestTransferFn = func(context.Context, domain.Caller, []domain.ProductLine) error {
		return errors.New("logistics down")
	}

	dto, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"status":"Completed"}`),
		Caller:  operator,
	})
	deps.notifier.Wait()

	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, dto.Status)
	assert.Len(t, deps.gateway.Calls(), 1)
}

func TestTaskApplicationService_UpdateTask_NoNotificationWithoutCompletion(t *testing.T) {
	service, deps := newTestService(t)
	completed := storedTask("000010", "OP-1")
	completed.Status = domain.TaskStatusCompleted
	deps.repo.FindByOperatorFn = func(context.Context, string) ([]*domain.Task, error) {
		return []*domain.Task{completed}, nil
	}

	_, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"date":"2024-06-01"}`),
		Caller:  operator,
	})
	require.NoError(t, err)

	_, err = service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"status":"Started"}`),
		Caller:  operator,
	})
	require.NoError(t, err)

	deps.notifier.Wait()
	assert.Empty(t, deps.gateway.Calls())
}

func TestTaskApplicationService_UpdateTask_MergesProductList(t *testing.T) {
	service, deps := newTestService(t)
	task := storedTask("000010", "OP-1")
	untouched := task.ProductList[0]
	deps.repo.FindByOperatorFn = func(context.Context, string) ([]*domain.Task, error) {
		return []*domain.Task{task}, nil
	}

	dto, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"productList":[{"codProduct":"B","quantity":7}]}`),
		Caller:  operator,
	})

	require.NoError(t, err)
	require.Len(t, dto.ProductList, 2)
	assert.Equal(t, ToProductLineDTO(untouched), dto.ProductList[0])
	assert.Equal(t, ProductLineDTO{CodProduct: "B", From: domain.OutsideLocation, To: "SH-3", Quantity: 7}, dto.ProductList[1])
	assert.Equal(t, []string{"to:SH-3"}, deps.checker.ShelfCalls(), "patch is checked against the stored sides")
}

func TestTaskApplicationService_UpdateTask_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		caller  domain.Principal
		codTask string
		body    string
		code    string
		status  int
	}{
		{"code is immutable", operator, "000010", `{"codTask":"000099"}`, sharedErrors.CodeInvalidRequestShape, http.StatusBadRequest},
		{"empty payload", operator, "000010", `{}`, sharedErrors.CodeInvalidRequestShape, http.StatusBadRequest},
		{"empty status", operator, "000010", `{"status":""}`, sharedErrors.CodeInvalidTaskData, http.StatusBadRequest},
		{"patch line with zero quantity", operator, "000010", `{"productList":[{"codProduct":"A","quantity":0}]}`, sharedErrors.CodeInvalidProductData, http.StatusBadRequest},
		{"patch clears both sides", operator, "000010", `{"productList":[{"codProduct":"A","from":"","to":"","quantity":1}]}`, sharedErrors.CodeInvalidProductData, http.StatusBadRequest},
		{"task owned by someone else", operator, "000020", `{"status":"Started"}`, sharedErrors.CodeTaskNotAssignedToOperator, http.StatusForbidden},
		{"admin and task absent", admin, "000404", `{"status":"Started"}`, sharedErrors.CodeTaskNotFound, http.StatusNotFound},
		{"product not in task", operator, "000010", `{"productList":[{"codProduct":"Z","quantity":1}]}`, sharedErrors.CodeProductNotInTaskList, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, deps := newTestService(t)
			deps.repo.FindByOperatorFn = func(_ context.Context, codOperator string) ([]*domain.Task, error) {
				if codOperator == "OP-1" {
					return []*domain.Task{storedTask("000010", "OP-1")}, nil
				}
				return nil, nil
			}
			deps.repo.FindByCodeFn = func(_ context.Context, codTask string) (*domain.Task, error) {
				if codTask == "000020" {
					return storedTask("000020", "OP-2"), nil
				}
				return nil, nil
			}
			deps.repo.UpdateFn = func(context.Context, *domain.Task, []string) (*domain.Task, error) {
				t.Fatal("task must not be persisted")
				return nil, nil
			}

			_, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
				CodTask: tt.codTask,
				Payload: payload(t, tt.body),
				Caller:  tt.caller,
			})

			requireCode(t, err, tt.code, tt.status)
		})
	}
}

func TestTaskApplicationService_UpdateTask_AdminActsOnAnyTask(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByCodeFn = func(_ context.Context, codTask string) (*domain.Task, error) {
		return storedTask(codTask, "OP-2"), nil
	}

	dto, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000020",
		Payload: payload(t, `{"codOperator":"OP-3"}`),
		Caller:  admin,
	})

	require.NoError(t, err)
	assert.Equal(t, "OP-3", dto.CodOperator)
}

func TestTaskApplicationService_UpdateTask_ConstraintsRunOnPatch(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByOperatorFn = func(context.Context, string) ([]*domain.Task, error) {
		return []*domain.Task{storedTask("000010", "OP-1")}, nil
	}
	deps.checker.CheckShelfFn = func(_ context.Context, _ domain.Caller, shelfID, _ string, _ int, _ domain.ShelfDirection) (domain.ConstraintOutcome, error) {
		if shelfID == "SH-X" {
			return domain.OutcomeShelfNotFound, nil
		}
		return domain.OutcomeOK, nil
	}

	_, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"productList":[{"codProduct":"A","to":"SH-X","quantity":1}]}`),
		Caller:  operator,
	})

	requireCode(t, err, sharedErrors.CodeShelfNotFound, http.StatusUnprocessableEntity)
	assert.Equal(t, []string{"from:SH-1", "to:SH-X"}, deps.checker.ShelfCalls())
}

// insufficientAbove reports stock shortage on shelf for quantities above limit
func insufficientAbove(shelf string, limit int) func(context.Context, domain.Caller, string, string, int, domain.ShelfDirection) (domain.ConstraintOutcome, error) {
	return func(_ context.Context, _ domain.Caller, shelfID, _ string, quantity int, direction domain.ShelfDirection) (domain.ConstraintOutcome, error) {
		if shelfID == shelf && direction == domain.DirectionFrom && quantity > limit {
			return domain.OutcomeInsufficientStock, nil
		}
		return domain.OutcomeOK, nil
	}
}

func TestTaskApplicationService_UpdateTask_QuantityCheckedAgainstStoredSource(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByOperatorFn = func(context.Context, string) ([]*domain.Task, error) {
		return []*domain.Task{storedTask("000010", "OP-1")}, nil
	}
	deps.repo.UpdateFn = func(context.Context, *domain.Task, []string) (*domain.Task, error) {
		t.Fatal("task must not be persisted")
		return nil, nil
	}
	deps.checker.CheckShelfFn = insufficientAbove("SH-1", 5)

	_, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"productList":[{"codProduct":"A","quantity":100}]}`),
		Caller:  operator,
	})

	requireCode(t, err, sharedErrors.CodeQuantityExceedsStock, http.StatusUnprocessableEntity)
	assert.Equal(t, []string{"from:SH-1"}, deps.checker.ShelfCalls())
}

func TestTaskApplicationService_UpdateTask_AdminQuantityCheckedAgainstStoredSource(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByCodeFn = func(_ context.Context, codTask string) (*domain.Task, error) {
		return storedTask(codTask, "OP-2"), nil
	}
	deps.checker.CheckShelfFn = insufficientAbove("SH-1", 5)

	_, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000020",
		Payload: payload(t, `{"productList":[{"codProduct":"A","quantity":6}]}`),
		Caller:  admin,
	})
	requireCode(t, err, sharedErrors.CodeQuantityExceedsStock, http.StatusUnprocessableEntity)

	dto, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000020",
		Payload: payload(t, `{"productList":[{"codProduct":"A","quantity":5}]}`),
		Caller:  admin,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, dto.ProductList[0].Quantity)
}

func TestTaskApplicationService_UpdateTask_ConstraintRejectionPrecedesAuthorization(t *testing.T) {
	service, deps := newTestService(t)
	deps.checker.CheckProductFn = func(context.Context, domain.Caller, string) (domain.ConstraintOutcome, error) {
		return domain.OutcomeProductNotFound, nil
	}

	_, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000020",
		Payload: payload(t, `{"productList":[{"codProduct":"A","quantity":1}]}`),
		Caller:  operator,
	})

	requireCode(t, err, sharedErrors.CodeProductNotDefined, http.StatusUnprocessableEntity)
}

func TestTaskApplicationService_UpdateTask_RepositoryFailure(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByOperatorFn = func(context.Context, string) ([]*domain.Task, error) {
		return nil, errors.New("db down")
	}

	_, err := service.UpdateTask(context.Background(), UpdateTaskCommand{
		CodTask: "000010",
		Payload: payload(t, `{"status":"Started"}`),
		Caller:  operator,
	})

	requireCode(t, err, sharedErrors.CodeInternalError, http.StatusInternalServerError)
}

func TestTaskApplicationService_ListTasks(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindAllFn = func(context.Context) ([]*domain.Task, error) {
		return []*domain.Task{storedTask("000001", "OP-1"), storedTask("000002", "OP-2")}, nil
	}
	deps.repo.FindByOperatorFn = func(_ context.Context, codOperator string) ([]*domain.Task, error) {
		if codOperator == "OP-1" {
			return []*domain.Task{storedTask("000001", "OP-1")}, nil
		}
		return nil, nil
	}

	all, err := service.ListTasks(context.Background(), ListTasksQuery{Caller: admin})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := service.ListTasks(context.Background(), ListTasksQuery{Caller: operator})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "000001", own[0].CodTask)

	none, err := service.ListTasks(context.Background(), ListTasksQuery{Caller: domain.Principal{CodUser: "OP-9", Role: domain.RoleOperator}})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTaskApplicationService_GetTask(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByCodeFn = func(_ context.Context, codTask string) (*domain.Task, error) {
		if codTask == "000001" {
			return storedTask("000001", "OP-2"), nil
		}
		return nil, nil
	}

	dto, err := service.GetTask(context.Background(), GetTaskQuery{CodTask: "000001", Caller: admin})
	require.NoError(t, err)
	assert.Equal(t, "OP-2", dto.CodOperator)

	_, err = service.GetTask(context.Background(), GetTaskQuery{CodTask: "000404", Caller: admin})
	requireCode(t, err, sharedErrors.CodeTaskNotFound, http.StatusNotFound)

	_, err = service.GetTask(context.Background(), GetTaskQuery{CodTask: "abc", Caller: admin})
	requireCode(t, err, sharedErrors.CodeInvalidRequestShape, http.StatusBadRequest)

	_, err = service.GetTask(context.Background(), GetTaskQuery{CodTask: "000001", Caller: operator})
	requireCode(t, err, sharedErrors.CodeTaskNotAssignedToOperator, http.StatusForbidden)
}

func TestTaskApplicationService_GetTask_RepositoryError(t *testing.T) {
	service, deps := newTestService(t)
	deps.repo.FindByCodeFn = func(context.Context, string) (*domain.Task, error) {
		return nil, fmt.Errorf("boom")
	}

	_, err := service.GetTask(context.Background(), GetTaskQuery{CodTask: "000001", Caller: admin})
	require.Error(t, err)
	assert.False(t, sharedErrors.IsAppError(err))
}
