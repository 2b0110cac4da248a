package application

import "github.com/wms-platform/task-control-service/internal/domain"

// AssignTaskCommand creates a task from a raw payload
type AssignTaskCommand struct {
	Payload domain.Payload
	Caller  domain.Caller
}

// UpdateTaskCommand applies a partial update to a task
type UpdateTaskCommand struct {
	CodTask string
	Payload domain.Payload
	Caller  domain.Caller
}

// ListTasksQuery lists the tasks visible to the caller
type ListTasksQuery struct {
	Caller domain.Caller
}

// GetTaskQuery retrieves a task by code
type GetTaskQuery struct {
	CodTask string
	Caller  domain.Caller
}
