package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Now returns the current time in UTC truncated to what BSON stores
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// SetFields builds a $set update for the named fields of doc, stamping
// updatedAt. Names missing from doc are ignored.
func SetFields(doc bson.M, fields []string) bson.M {
	set := bson.M{"updatedAt": Now()}
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			set[f] = v
		}
	}
	return bson.M{"$set": set}
}

// ToDocument marshals v through its bson tags
func ToDocument(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// IsDuplicateKey reports a unique index violation
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsNotFound reports an empty single result
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// WithTransaction runs fn in a session transaction. fn must use the session
// context for every operation it wants included.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(sessCtx mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return session.WithTransaction(ctx, fn)
}
