package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoutil "github.com/wms-platform/task-control-service/pkg/mongodb"
)

// TaskCodeCounterID identifies the task code sequence document
const TaskCodeCounterID = "taskCode"

type counterDocument struct {
	ID    string `bson:"_id"`
	Count int64  `bson:"count"`
}

// CounterRepository is a durable sequence backed by a single document that
// holds the next value to hand out.
type CounterRepository struct {
	collection *mongo.Collection
	counterID  string
}

func NewCounterRepository(db *mongo.Database, collectionName string) *CounterRepository {
	return &CounterRepository{
		collection: db.Collection(collectionName),
		counterID:  TaskCodeCounterID,
	}
}

// EnsureSeeded creates the counter at 1 if it does not exist
func (r *CounterRepository) EnsureSeeded(ctx context.Context) error {
	opts := options.Update().SetUpsert(true)
	update := bson.M{"$setOnInsert": bson.M{"count": int64(1)}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": r.counterID}, update, opts)
	if err != nil && !mongoutil.IsDuplicateKey(err) {
		return fmt.Errorf("failed to seed counter: %w", err)
	}
	return nil
}

// Increment atomically bumps the counter and returns the value it held.
// Concurrent callers never observe the same value.
func (r *CounterRepository) Increment(ctx context.Context) (int64, error) {
	value, err := r.increment(ctx)
	if err == nil || !mongoutil.IsNotFound(err) {
		return value, err
	}

	if err := r.EnsureSeeded(ctx); err != nil {
		return 0, err
	}
	return r.increment(ctx)
}

func (r *CounterRepository) increment(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	update := bson.M{"$inc": bson.M{"count": int64(1)}}

	var doc counterDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": r.counterID}, update, opts).Decode(&doc)
	if err != nil {
		if mongoutil.IsNotFound(err) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to increment counter: %w", err)
	}
	return doc.Count, nil
}
