package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/resellhub/listing-service/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	connectOnce sync.Once
	client      *mongo.Client
	connectErr  error
)

// Connect acquires the process-wide MongoDB client. It is safe to call
// repeatedly: the connection is established at most once and the same handle
// is reused across all requests.
func Connect(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	connectOnce.Do(func() {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		c, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			connectErr = fmt.Errorf("failed to connect to mongo: %w", err)
			return
		}

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		if err := c.Ping(pingCtx, readpref.Primary()); err != nil {
			connectErr = fmt.Errorf("failed to ping mongo: %w", err)
			return
		}
		client = c
	})
	return client, connectErr
}
