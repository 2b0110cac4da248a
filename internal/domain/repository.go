package domain

import "context"

// TaskRepository defines the interface for task persistence
type TaskRepository interface {
	Insert(ctx context.Context, task *Task) error
	// FindByCode returns nil, nil when no task has the code
	FindByCode(ctx context.Context, codTask string) (*Task, error)
	FindByOperator(ctx context.Context, codOperator string) ([]*Task, error)
	FindAll(ctx context.Context) ([]*Task, error)
	// Update writes the given fields of task, returning nil, nil when the
	// task no longer exists
	Update(ctx context.Context, task *Task, fields []string) (*Task, error)
}

// User is an account tokens are issued for
type User struct {
	ID      string `bson:"_id"`
	CodUser string `bson:"codUser"`
	Name    string `bson:"name"`
	Type    string `bson:"type"`
}

// UserRepository resolves token subjects to users
type UserRepository interface {
	// FindByID returns nil, nil when the user does not exist
	FindByID(ctx context.Context, id string) (*User, error)
}
