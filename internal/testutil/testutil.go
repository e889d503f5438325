package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// testMongoURI returns the MongoDB URI used for integration tests.
// Override with ENROLLHUB_TEST_MONGO_URI to point at a different instance.
func testMongoURI() string {
	if uri := os.Getenv("ENROLLHUB_TEST_MONGO_URI"); uri != "" {
		return uri
	}
	return "mongodb://localhost:27017"
}

// SetupTestDB connects to the test MongoDB instance and returns a database
// unique to this test. The test is skipped when no instance is reachable,
// and the database is dropped during cleanup.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(testMongoURI()))
	if err != nil {
		t.Skipf("mongo not available: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("mongo not reachable: %v", err)
	}

	db := client.Database(fmt.Sprintf("enrollhub_test_%d", time.Now().UnixNano()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a timeout suitable for test DB calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
