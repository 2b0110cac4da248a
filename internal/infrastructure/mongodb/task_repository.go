package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wms-platform/task-control-service/internal/domain"
	"github.com/wms-platform/task-control-service/pkg/cloudevents"
	"github.com/wms-platform/task-control-service/pkg/kafka"
	mongoutil "github.com/wms-platform/task-control-service/pkg/mongodb"
	"github.com/wms-platform/task-control-service/pkg/outbox"
	outboxMongo "github.com/wms-platform/task-control-service/pkg/outbox/mongodb"
)

const taskAggregateType = "Task"

// TaskRepository stores tasks and writes their domain events to the outbox
// in the same transaction.
type TaskRepository struct {
	collection   *mongo.Collection
	db           *mongo.Database
	outboxRepo   *outboxMongo.OutboxRepository
	eventFactory *cloudevents.EventFactory
}

func NewTaskRepository(db *mongo.Database, collectionName string, eventFactory *cloudevents.EventFactory) *TaskRepository {
	repo := &TaskRepository{
		collection:   db.Collection(collectionName),
		db:           db,
		outboxRepo:   outboxMongo.NewOutboxRepository(db),
		eventFactory: eventFactory,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	repo.ensureIndexes(ctx)
	_ = repo.outboxRepo.EnsureIndexes(ctx)

	return repo
}

func (r *TaskRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "codTask", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "codOperator", Value: 1}}},
	}
	_, _ = r.collection.Indexes().CreateMany(ctx, indexes)
}

// OutboxRepository exposes the outbox the relay reads from
func (r *TaskRepository) OutboxRepository() *outboxMongo.OutboxRepository {
	return r.outboxRepo
}

func (r *TaskRepository) Insert(ctx context.Context, task *domain.Task) error {
	_, err := mongoutil.WithTransaction(ctx, r.db.Client(), func(sessCtx mongo.SessionContext) (interface{}, error) {
		result, err := r.collection.InsertOne(sessCtx, task)
		if err != nil {
			return nil, fmt.Errorf("failed to insert task: %w", err)
		}
		if id, ok := result.InsertedID.(primitive.ObjectID); ok {
			task.ID = id
		}

		if err := r.saveEvents(sessCtx, task); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	task.ClearDomainEvents()
	return nil
}

// Update sets only the named fields so concurrent writers of other fields
// are not overwritten.
func (r *TaskRepository) Update(ctx context.Context, task *domain.Task, fields []string) (*domain.Task, error) {
	doc, err := mongoutil.ToDocument(task)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task: %w", err)
	}
	update := mongoutil.SetFields(doc, fields)

	result, err := mongoutil.WithTransaction(ctx, r.db.Client(), func(sessCtx mongo.SessionContext) (interface{}, error) {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

		var updated domain.Task
		err := r.collection.FindOneAndUpdate(sessCtx, bson.M{"codTask": task.CodTask}, update, opts).Decode(&updated)
		if mongoutil.IsNotFound(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}

		if err := r.saveEvents(sessCtx, task); err != nil {
			return nil, err
		}
		return &updated, nil
	})
	if err != nil {
		return nil, fmt.Errorf("transaction failed: %w", err)
	}

	task.ClearDomainEvents()
	updated, _ := result.(*domain.Task)
	return updated, nil
}

// saveEvents converts pending domain events to CloudEvents in the outbox
func (r *TaskRepository) saveEvents(ctx context.Context, task *domain.Task) error {
	domainEvents := task.GetDomainEvents()
	if len(domainEvents) == 0 {
		return nil
	}

	events := make([]*outbox.Event, 0, len(domainEvents))
	for _, e := range domainEvents {
		ce := r.eventFactory.CreateTaskEvent(ctx, e.EventType(), task.CodTask, e)

		event, err := outbox.NewEvent(task.CodTask, taskAggregateType, kafka.Topics.TaskEvents, ce)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		events = append(events, event)
	}

	if err := r.outboxRepo.SaveAll(ctx, events); err != nil {
		return fmt.Errorf("failed to save outbox events: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByCode(ctx context.Context, codTask string) (*domain.Task, error) {
	var task domain.Task
	err := r.collection.FindOne(ctx, bson.M{"codTask": codTask}).Decode(&task)
	if mongoutil.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) FindByOperator(ctx context.Context, codOperator string) ([]*domain.Task, error) {
	return r.find(ctx, bson.M{"codOperator": codOperator})
}

func (r *TaskRepository) FindAll(ctx context.Context) ([]*domain.Task, error) {
	return r.find(ctx, bson.M{})
}

func (r *TaskRepository) find(ctx context.Context, filter bson.M) ([]*domain.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "codTask", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer cursor.Close(ctx)

	tasks := make([]*domain.Task, 0)
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %w", err)
	}
	return tasks, nil
}
