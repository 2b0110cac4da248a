package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OutsideLocation marks a product line side that is outside the warehouse.
// Shelf checks are skipped for it.
const OutsideLocation = "Outside"

// TaskStatusCompleted is the only status the service attaches behaviour to.
const TaskStatusCompleted = "Completed"

// Task is the aggregate root for the task control bounded context
type Task struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CodTask      string             `bson:"codTask" json:"codTask"`
	CodOperator  string             `bson:"codOperator" json:"codOperator"`
	Date         string             `bson:"date" json:"date"`
	Type         string             `bson:"type" json:"type"`
	Status       string             `bson:"status" json:"status"`
	ProductList  []ProductLine      `bson:"productList" json:"productList"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
	DomainEvents []DomainEvent      `bson:"-" json:"-"`
}

// ProductLine is one product movement inside a task. An empty From or To
// means the side was not given.
type ProductLine struct {
	CodProduct string `bson:"codProduct" json:"codProduct"`
	From       string `bson:"from,omitempty" json:"from,omitempty"`
	To         string `bson:"to,omitempty" json:"to,omitempty"`
	Quantity   int    `bson:"quantity" json:"quantity"`
}

// ShelfCheck is a shelf lookup a product line requires
type ShelfCheck struct {
	ShelfID   string
	Direction ShelfDirection
}

// ShelfChecks lists the shelves the line touches, source first.
// Outside sides and absent sides are left out.
func (l ProductLine) ShelfChecks() []ShelfCheck {
	checks := make([]ShelfCheck, 0, 2)
	if l.From != "" && l.From != OutsideLocation {
		checks = append(checks, ShelfCheck{ShelfID: l.From, Direction: DirectionFrom})
	}
	if l.To != "" && l.To != OutsideLocation {
		checks = append(checks, ShelfCheck{ShelfID: l.To, Direction: DirectionTo})
	}
	return checks
}

// Validate enforces the product line invariant
func (l ProductLine) Validate() error {
	if l.CodProduct == "" || l.Quantity <= 0 {
		return ErrInvalidProductData
	}
	if l.From == "" && l.To == "" {
		return ErrInvalidProductData
	}
	return nil
}

// NewTask creates a Task with a freshly allocated code
func NewTask(codTask, codOperator, date, taskType, status string, lines []ProductLine) (*Task, error) {
	if !IsTaskCode(codTask) {
		return nil, ErrInvalidTaskCode
	}
	if codOperator == "" || date == "" || taskType == "" || status == "" || len(lines) == 0 {
		return nil, ErrInvalidTaskData
	}
	for _, line := range lines {
		if err := line.Validate(); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	task := &Task{
		CodTask:      codTask,
		CodOperator:  codOperator,
		Date:         date,
		Type:         taskType,
		Status:       status,
		ProductList:  append([]ProductLine(nil), lines...),
		CreatedAt:    now,
		UpdatedAt:    now,
		DomainEvents: make([]DomainEvent, 0),
	}

	task.AddDomainEvent(&TaskAssignedEvent{
		CodTask:     codTask,
		CodOperator: codOperator,
		TaskType:    taskType,
		Status:      status,
		ProductList: task.ProductList,
		AssignedAt:  now,
	})

	return task, nil
}

// TaskChanges is a partial update. Nil fields are left untouched.
type TaskChanges struct {
	CodOperator *string
	Date        *string
	Type        *string
	Status      *string
	ProductList []ProductLinePatch
}

// IsEmpty reports whether no field is being changed
func (c TaskChanges) IsEmpty() bool {
	return c.CodOperator == nil && c.Date == nil && c.Type == nil && c.Status == nil && c.ProductList == nil
}

// Fields returns the stored field names the changes touch
func (c TaskChanges) Fields() []string {
	fields := make([]string, 0, 5)
	if c.CodOperator != nil {
		fields = append(fields, "codOperator")
	}
	if c.Date != nil {
		fields = append(fields, "date")
	}
	if c.Type != nil {
		fields = append(fields, "type")
	}
	if c.Status != nil {
		fields = append(fields, "status")
	}
	if c.ProductList != nil {
		fields = append(fields, "productList")
	}
	return fields
}

// Apply merges the changes into the task. Nothing is modified on error.
func (t *Task) Apply(changes TaskChanges) error {
	productList := t.ProductList
	if changes.ProductList != nil {
		merged, err := MergeProductList(t.ProductList, changes.ProductList)
		if err != nil {
			return err
		}
		productList = merged
	}

	if changes.CodOperator != nil {
		t.CodOperator = *changes.CodOperator
	}
	if changes.Date != nil {
		t.Date = *changes.Date
	}
	if changes.Type != nil {
		t.Type = *changes.Type
	}
	if changes.Status != nil {
		t.Status = *changes.Status
	}
	t.ProductList = productList

	now := time.Now().UTC()
	t.UpdatedAt = now

	t.AddDomainEvent(&TaskUpdatedEvent{
		CodTask:       t.CodTask,
		CodOperator:   t.CodOperator,
		Status:        t.Status,
		ChangedFields: changes.Fields(),
		UpdatedAt:     now,
	})
	if changes.Status != nil && t.IsCompleted() {
		t.AddDomainEvent(&TaskCompletedEvent{
			CodTask:     t.CodTask,
			CodOperator: t.CodOperator,
			ProductList: t.ProductList,
			CompletedAt: now,
		})
	}

	return nil
}

// IsCompleted reports whether the task is in the terminal status
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// AddDomainEvent adds a domain event
func (t *Task) AddDomainEvent(event DomainEvent) {
	t.DomainEvents = append(t.DomainEvents, event)
}

// ClearDomainEvents clears all domain events
func (t *Task) ClearDomainEvents() {
	t.DomainEvents = make([]DomainEvent, 0)
}

// GetDomainEvents returns all domain events
func (t *Task) GetDomainEvents() []DomainEvent {
	return t.DomainEvents
}
