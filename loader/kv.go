package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/semenums/config"
	"github.com/c360studio/semenums/enum"
)

// kvBucket is the part of jetstream.KeyValue the KV loader uses.
type kvBucket interface {
	Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error)
	Watch(ctx context.Context, keys string, opts ...jetstream.WatchOpt) (jetstream.KeyWatcher, error)
}

// KVLoader reads the catalog JSON stored under one key of a JetStream KV
// bucket.
type KVLoader struct {
	bucket     kvBucket
	bucketName string
	key        string
	target     Target
	logger     *slog.Logger
	metrics    *Metrics
}

// OpenKVLoader binds to the configured bucket over nc.
func OpenKVLoader(ctx context.Context, nc *nats.Conn, cfg config.NATSConfig, target Target, opts ...Option) (*KVLoader, error) {
	if nc == nil {
		return nil, fmt.Errorf("nats connection is required")
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}
	kv, err := js.KeyValue(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("get kv bucket %s: %w", cfg.Bucket, err)
	}
	return NewKVLoader(kv, cfg, target, opts...)
}

// NewKVLoader creates a loader reading cfg.Key from kv.
func NewKVLoader(kv jetstream.KeyValue, cfg config.NATSConfig, target Target, opts ...Option) (*KVLoader, error) {
	if kv == nil {
		return nil, fmt.Errorf("kv bucket is required")
	}
	return newKVLoader(kv, cfg, target, opts...)
}

func newKVLoader(bucket kvBucket, cfg config.NATSConfig, target Target, opts ...Option) (*KVLoader, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("kv key is required")
	}
	if target == nil {
		return nil, fmt.Errorf("target is required")
	}
	o := buildOptions(opts)
	return &KVLoader{
		bucket:     bucket,
		bucketName: cfg.Bucket,
		key:        cfg.Key,
		target:     target,
		logger:     o.logger,
		metrics:    o.metrics,
	}, nil
}

// Load reads the current value of the catalog key and installs it.
func (l *KVLoader) Load(ctx context.Context) error {
	start := time.Now()
	catalog, err := l.get(ctx)
	l.metrics.observe(SourceKV, time.Since(start), catalog, err)
	if err != nil {
		l.logger.Warn("Failed to load enums from KV", "bucket", l.bucketName, "key", l.key, "error", err)
		return err
	}

	l.target.SetCatalog(catalog)
	l.logger.Debug("Loaded enums from KV", "bucket", l.bucketName, "key", l.key, "enums", len(catalog))
	return nil
}

func (l *KVLoader) get(ctx context.Context) (enum.Catalog, error) {
	entry, err := l.bucket.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, fmt.Errorf("catalog key %q not found in bucket %s: %w", l.key, l.bucketName, err)
		}
		return nil, fmt.Errorf("get catalog key %q: %w", l.key, err)
	}
	return parseEntry(entry)
}

func parseEntry(entry jetstream.KeyValueEntry) (enum.Catalog, error) {
	catalog, err := enum.ParseCatalog(entry.Value())
	if err != nil {
		return nil, fmt.Errorf("decode catalog key %q revision %d: %w", entry.Key(), entry.Revision(), err)
	}
	return catalog, nil
}

// Watch installs every new revision of the catalog key, starting with the
// current one. Deletes and purges are logged and ignored so the last catalog
// stays installed; so are revisions that fail to decode. Watch returns nil
// once ctx is cancelled.
func (l *KVLoader) Watch(ctx context.Context) error {
	watcher, err := l.bucket.Watch(ctx, l.key)
	if err != nil {
		return fmt.Errorf("watch catalog key %q: %w", l.key, err)
	}
	defer watcher.Stop()

	l.logger.Debug("Watching enums in KV", "bucket", l.bucketName, "key", l.key)

	for {
		select {
		case <-ctx.Done():
			return nil
		case entry, ok := <-watcher.Updates():
			if !ok {
				// the watcher closes its updates when ctx is cancelled
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watch catalog key %q: updates closed", l.key)
			}
			// nil marks the end of the initial values
			if entry == nil {
				continue
			}
			l.handleEntry(entry)
		}
	}
}

func (l *KVLoader) handleEntry(entry jetstream.KeyValueEntry) {
	switch entry.Operation() {
	case jetstream.KeyValueDelete, jetstream.KeyValuePurge:
		l.logger.Warn("Catalog key removed, keeping last catalog",
			"bucket", l.bucketName, "key", entry.Key(), "op", entry.Operation().String())
		return
	}

	start := time.Now()
	catalog, err := parseEntry(entry)
	l.metrics.observe(SourceKV, time.Since(start), catalog, err)
	if err != nil {
		l.logger.Warn("Ignoring catalog revision", "revision", entry.Revision(), "error", err)
		return
	}

	l.target.SetCatalog(catalog)
	l.logger.Debug("Installed catalog revision", "key", entry.Key(), "revision", entry.Revision(), "enums", len(catalog))
}
