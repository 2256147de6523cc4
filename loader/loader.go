// Package loader fetches enum catalogs from their sources and installs them
// into a catalog store.
//
// Every loader follows the same contract: on success the target receives the
// new catalog through exactly one SetCatalog call, on failure the target is
// left untouched and the error is returned. Retrying is up to the caller, see
// Refresher.
package loader

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/c360studio/semenums/enum"
)

// Source labels used in logs and metrics.
const (
	SourceHTTP = "http"
	SourceFile = "file"
	SourceKV   = "kv"
)

// Loader loads a catalog into its target.
type Loader interface {
	Load(ctx context.Context) error
}

// Watcher follows a source and reinstalls the catalog whenever it changes.
// Watch blocks until ctx is cancelled or the source fails.
type Watcher interface {
	Watch(ctx context.Context) error
}

// Target receives loaded catalogs. *store.Store implements it.
type Target interface {
	SetCatalog(catalog enum.Catalog)
}

type options struct {
	logger     *slog.Logger
	metrics    *Metrics
	httpClient *http.Client
}

// Option configures a loader.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics records load outcomes. A nil Metrics records nothing.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithHTTPClient replaces the client HTTPLoader builds from its config.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
