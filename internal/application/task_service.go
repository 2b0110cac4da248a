package application

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/errors"
	"github.com/wms-platform/task-control-service/pkg/logging"
)

// Metrics is the subset of service metrics the workflows record
type Metrics interface {
	RecordTaskAssigned()
	RecordTaskUpdated(status string)
	RecordTaskRejected(code string)
	RecordConstraintCheck(check, outcome string)
	RecordNotification(success bool)
}

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) RecordTaskAssigned()                  {}
func (NopMetrics) RecordTaskUpdated(string)             {}
func (NopMetrics) RecordTaskRejected(string)            {}
func (NopMetrics) RecordConstraintCheck(string, string) {}
func (NopMetrics) RecordNotification(bool)              {}

// TaskApplicationService handles task assignment and update use cases
type TaskApplicationService struct {
	repo        domain.TaskRepository
	sequence    *SequenceAllocator
	constraints *ConstraintEvaluator
	notifier    *CompletionNotifier
	validator   *payloadValidator
	metrics     Metrics
	logger      *logging.Logger
}

// NewTaskApplicationService creates a new TaskApplicationService
func NewTaskApplicationService(
	repo domain.TaskRepository,
	sequence *SequenceAllocator,
	constraints *ConstraintEvaluator,
	notifier *CompletionNotifier,
	metrics Metrics,
	logger *logging.Logger,
) *TaskApplicationService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &TaskApplicationService{
		repo:        repo,
		sequence:    sequence,
		constraints: constraints,
		notifier:    notifier,
		validator:   newPayloadValidator(),
		metrics:     metrics,
		logger:      logger,
	}
}

// AssignTask validates a creation payload, checks every product line against
// the catalog and shelves, allocates a code and stores the task.
func (s *TaskApplicationService) AssignTask(ctx context.Context, cmd AssignTaskCommand) (*TaskDTO, error) {
	if !domain.ValidatePayload(cmd.Payload, domain.ModeCreate, domain.TaskSchema, domain.ProductLineSchema) {
		return nil, s.reject(errors.ErrInvalidRequestShape())
	}

	var in taskInput
	if err := decode(cmd.Payload, &in); err != nil {
		return nil, s.reject(errors.ErrInvalidRequestShape().Wrap(err))
	}
	if err := s.validator.checkTask(in); err != nil {
		return nil, s.reject(presenceError(err))
	}

	lines := toProductLines(in.ProductList)
	if v := s.constraints.Evaluate(ctx, cmd.Caller, lines); v != nil {
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"codProduct": v.CodProduct,
			"shelf":      v.ShelfID,
			"outcome":    v.Outcome.String(),
			"line":       v.Index,
		}).Info("Task rejected by constraint check")
		return nil, s.reject(violationError(v))
	}

	codTask, err := s.sequence.Next(ctx)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to allocate task code")
		return nil, s.reject(errors.ErrInternal("failed to allocate task code").Wrap(err))
	}

	task, err := domain.NewTask(codTask, in.CodOperator, in.Date, in.Type, in.Status, lines)
	if err != nil {
		return nil, s.reject(presenceError(err))
	}

	if err := s.repo.Insert(ctx, task); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to save task", "codTask", codTask)
		return nil, s.reject(errors.ErrInvalidTaskData().Wrap(fmt.Errorf("failed to save task: %w", err)))
	}

	s.metrics.RecordTaskAssigned()
	s.logger.Audit(ctx, "assign", "task", codTask, operatorCode(cmd.Caller), map[string]any{
		"codOperator": task.CodOperator,
		"lines":       len(task.ProductList),
	})
	return ToTaskDTO(task), nil
}

// UpdateTask applies a partial update to a task the caller may act on. When
// the update sets the status to Completed the logistics service is notified
// in the background.
func (s *TaskApplicationService) UpdateTask(ctx context.Context, cmd UpdateTaskCommand) (*TaskDTO, error) {
	owned, err := s.repo.FindByOperator(ctx, operatorCode(cmd.Caller))
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to list operator tasks", "codOperator", operatorCode(cmd.Caller))
		return nil, s.reject(errors.ErrInternal("failed to load operator tasks").Wrap(err))
	}

	if !domain.ValidatePayload(cmd.Payload, domain.ModeUpdate, domain.TaskSchema, domain.ProductLineSchema) {
		return nil, s.reject(errors.ErrInvalidRequestShape())
	}

	var in taskPatchInput
	if err := decode(cmd.Payload, &in); err != nil {
		return nil, s.reject(errors.ErrInvalidRequestShape().Wrap(err))
	}
	if err := s.validator.checkPatch(in); err != nil {
		return nil, s.reject(presenceError(err))
	}

	// The merge base is looked up first so patched lines are checked as they
	// will be stored. Authorization failures still rank after constraints.
	task, appErr := s.resolveTask(ctx, cmd.Caller, cmd.CodTask, owned)

	if len(in.ProductList) > 0 {
		var stored []domain.ProductLine
		if task != nil {
			stored = task.ProductList
		}
		if v := s.constraints.Evaluate(ctx, cmd.Caller, patchLinesForChecks(in.ProductList, stored)); v != nil {
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"codTask":    cmd.CodTask,
				"codProduct": v.CodProduct,
				"shelf":      v.ShelfID,
				"outcome":    v.Outcome.String(),
			}).Info("Task update rejected by constraint check")
			return nil, s.reject(violationError(v))
		}
	}

	if appErr != nil {
		return nil, s.reject(appErr)
	}

	changes := toTaskChanges(in)
	if err := task.Apply(changes); err != nil {
		var missing *domain.MissingProductError
		if stderrors.As(err, &missing) {
			return nil, s.reject(errors.ErrProductNotInTaskList(missing.CodProduct))
		}
		return nil, s.reject(errors.ErrInvalidProductData().Wrap(err))
	}
	for _, line := range task.ProductList {
		if err := line.Validate(); err != nil {
			return nil, s.reject(errors.ErrInvalidProductData().WithDetail("codProduct", line.CodProduct))
		}
	}

	updated, err := s.repo.Update(ctx, task, changes.Fields())
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to update task", "codTask", cmd.CodTask)
		return nil, s.reject(errors.ErrInternal("failed to update task").Wrap(err))
	}
	if updated == nil {
		return nil, s.reject(errors.ErrTaskNotFound(cmd.CodTask))
	}

	if changes.Status != nil && updated.IsCompleted() {
		s.notifier.Notify(ctx, cmd.Caller, updated.CodTask, updated.ProductList)
	}

	s.metrics.RecordTaskUpdated(updated.Status)
	s.logger.Audit(ctx, "update", "task", updated.CodTask, operatorCode(cmd.Caller), map[string]any{
		"fields": changes.Fields(),
		"status": updated.Status,
	})
	return ToTaskDTO(updated), nil
}

// resolveTask picks the merge base: a task the caller owns, or for elevated
// callers any stored task.
func (s *TaskApplicationService) resolveTask(ctx context.Context, caller domain.Caller, codTask string, owned []*domain.Task) (*domain.Task, *errors.AppError) {
	for _, task := range owned {
		if task.CodTask == codTask {
			return task, nil
		}
	}

	if caller == nil || !caller.CanActOnAnyTask() {
		return nil, errors.ErrTaskNotAssignedToOperator(codTask)
	}

	task, err := s.repo.FindByCode(ctx, codTask)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to get task", "codTask", codTask)
		return nil, errors.ErrInternal("failed to get task").Wrap(err)
	}
	if task == nil {
		return nil, errors.ErrTaskNotFound(codTask)
	}
	return task, nil
}

// ListTasks returns every task for elevated callers and the caller's own
// tasks otherwise.
func (s *TaskApplicationService) ListTasks(ctx context.Context, query ListTasksQuery) ([]TaskDTO, error) {
	var (
		tasks []*domain.Task
		err   error
	)
	if query.Caller != nil && query.Caller.CanActOnAnyTask() {
		tasks, err = s.repo.FindAll(ctx)
	} else {
		tasks, err = s.repo.FindByOperator(ctx, operatorCode(query.Caller))
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to list tasks")
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return ToTaskDTOs(tasks), nil
}

// GetTask retrieves a task by code. Callers without elevated rights only see
// their own tasks; the HTTP route is admin-only, so this guards other callers
// of the service.
func (s *TaskApplicationService) GetTask(ctx context.Context, query GetTaskQuery) (*TaskDTO, error) {
	if !domain.IsTaskCode(query.CodTask) {
		return nil, errors.ErrInvalidRequestShape().WithDetail("codTask", query.CodTask)
	}

	task, err := s.repo.FindByCode(ctx, query.CodTask)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to get task", "codTask", query.CodTask)
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, errors.ErrTaskNotFound(query.CodTask)
	}

	if query.Caller != nil && !query.Caller.CanActOnAnyTask() && task.CodOperator != query.Caller.OperatorCode() {
		return nil, errors.ErrTaskNotAssignedToOperator(query.CodTask)
	}

	return ToTaskDTO(task), nil
}

func (s *TaskApplicationService) reject(appErr *errors.AppError) error {
	s.metrics.RecordTaskRejected(appErr.Code)
	return appErr
}

// presenceError maps field value failures onto task or product rejections
func presenceError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, domain.ErrInvalidProductData):
		return errors.ErrInvalidProductData().Wrap(err)
	case stderrors.Is(err, domain.ErrInvalidTaskCode):
		return errors.ErrInternal("allocated task code is invalid").Wrap(err)
	default:
		return errors.ErrInvalidTaskData().Wrap(err)
	}
}

func operatorCode(caller domain.Caller) string {
	if caller == nil {
		return ""
	}
	return caller.OperatorCode()
}
