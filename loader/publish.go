package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semenums/enum"
)

// catalogHistory is the number of catalog revisions kept per key.
const catalogHistory = 5

type kvPutter interface {
	Put(ctx context.Context, key string, value []byte) (uint64, error)
}

// OpenBucket returns the named KV bucket, creating it when it does not exist.
func OpenBucket(ctx context.Context, nc *nats.Conn, bucket string) (jetstream.KeyValue, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection is required")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}
	kv, err := js.KeyValue(ctx, bucket)
	if err == nil {
		return kv, nil
	}
	kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "Semenums enum catalogs",
		History:     catalogHistory,
	})
	if err != nil {
		return nil, fmt.Errorf("create kv bucket %s: %w", bucket, err)
	}
	return kv, nil
}

// Publish stores catalog as JSON under key and returns the new revision.
// KV loaders watching the key pick it up as their next catalog.
func Publish(ctx context.Context, kv jetstream.KeyValue, key string, catalog enum.Catalog) (uint64, error) {
	if kv == nil {
		return 0, fmt.Errorf("kv bucket is required")
	}
	return publish(ctx, kv, key, catalog)
}

func publish(ctx context.Context, kv kvPutter, key string, catalog enum.Catalog) (uint64, error) {
	if key == "" {
		return 0, fmt.Errorf("kv key is required")
	}
	if catalog == nil {
		catalog = enum.Catalog{}
	}
	data, err := json.Marshal(catalog)
	if err != nil {
		return 0, fmt.Errorf("marshal catalog: %w", err)
	}
	rev, err := kv.Put(ctx, key, data)
	if err != nil {
		return 0, fmt.Errorf("store catalog key %q: %w", key, err)
	}
	return rev, nil
}
