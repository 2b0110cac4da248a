package testing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

// StartMongo starts a container and returns a database named after the
// test. Everything is torn down with the test.
func StartMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := NewMongoDBContainer(ctx)
	require.NoError(t, err)

	client, err := container.GetClient(ctx)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := client.Disconnect(ctx); err != nil {
			t.Logf("Failed to disconnect MongoDB client: %v", err)
		}
		if err := container.Close(ctx); err != nil {
			t.Logf("Failed to close MongoDB container: %v", err)
		}
	})

	return client.Database(databaseName(t))
}

// databaseName derives a valid database name from the test name
func databaseName(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_", ".", "_").Replace(t.Name())
	if len(name) > 60 {
		name = name[:60]
	}
	return "test_" + strings.ToLower(name)
}

// Seed inserts raw documents into a collection
func Seed(t *testing.T, db *mongo.Database, collection string, docs ...interface{}) {
	t.Helper()
	if len(docs) == 0 {
		return
	}
	_, err := db.Collection(collection).InsertMany(context.Background(), docs)
	require.NoError(t, err)
}
