package domain

import "time"

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// TaskAssignedEvent is published when a task is created for an operator
type TaskAssignedEvent struct {
	CodTask     string        `json:"codTask"`
	CodOperator string        `json:"codOperator"`
	TaskType    string        `json:"taskType"`
	Status      string        `json:"status"`
	ProductList []ProductLine `json:"productList"`
	AssignedAt  time.Time     `json:"assignedAt"`
}

func (e *TaskAssignedEvent) EventType() string { return "wms.task.assigned" }
func (e *TaskAssignedEvent) OccurredAt() time.Time { return e.AssignedAt }

// TaskUpdatedEvent is published for every accepted task update
type TaskUpdatedEvent struct {
	CodTask       string    `json:"codTask"`
	CodOperator   string    `json:"codOperator"`
	Status        string    `json:"status"`
	ChangedFields []string  `json:"changedFields"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (e *TaskUpdatedEvent) EventType() string { return "wms.task.updated" }
func (e *TaskUpdatedEvent) OccurredAt() time.Time { return e.UpdatedAt }

// TaskCompletedEvent is published when an update sets the task to Completed
type TaskCompletedEvent struct {
	CodTask     string        `json:"codTask"`
	CodOperator string        `json:"codOperator"`
	ProductList []ProductLine `json:"productList"`
	CompletedAt time.Time     `json:"completedAt"`
}

func (e *TaskCompletedEvent) EventType() string { return "wms.task.completed" }
func (e *TaskCompletedEvent) OccurredAt() time.Time { return e.CompletedAt }
