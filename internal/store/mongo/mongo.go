package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

// Connect dials MongoDB with command tracing enabled and verifies the
// connection with a primary ping.
func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := []*options.ClientOptions{
		options.Client().
			ApplyURI(uri).
			SetMonitor(otelmongo.NewMonitor()).
			SetServerSelectionTimeout(10 * time.Second),
	}
	opts = append(opts, extra...)

	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
