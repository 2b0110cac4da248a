package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/task-control-service/internal/domain"
	mongoutil "github.com/wms-platform/task-control-service/pkg/mongodb"
)

// UserRepository reads the accounts tokens are issued for
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database, collectionName string) *UserRepository {
	return &UserRepository{collection: db.Collection(collectionName)}
}

// FindByID accepts either an ObjectID hex or a plain string id
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	filter := bson.M{"_id": id}
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"_id": bson.M{"$in": bson.A{oid, id}}}
	}

	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if mongoutil.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}
