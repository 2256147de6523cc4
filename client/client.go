// Package client is the configuration step of semenums: it binds one catalog
// store to one loader according to a Config.
//
// There is no package-level instance. Each Configure call yields an
// independent Client; a nil or zero Client reports ErrNotInitialized.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/semenums/binding"
	"github.com/c360studio/semenums/config"
	"github.com/c360studio/semenums/enum"
	"github.com/c360studio/semenums/loader"
	"github.com/c360studio/semenums/store"
)

// ErrNotInitialized is returned when a Client is used before Configure.
var ErrNotInitialized = errors.New("enum service is not initialized")

type options struct {
	logger     *slog.Logger
	httpClient *http.Client
	nc         *nats.Conn
	registerer prometheus.Registerer
	retry      *loader.RetryConfig
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient sets the client used by the http source.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithNATS sets the connection used by the kv source. Required for it.
func WithNATS(nc *nats.Conn) Option {
	return func(o *options) { o.nc = nc }
}

// WithMetrics registers loader metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithRetry sets the backoff used between failed periodic refreshes.
func WithRetry(retry loader.RetryConfig) Option {
	return func(o *options) { o.retry = &retry }
}

// Client owns a catalog store and the loader that fills it.
type Client struct {
	cfg    config.Config
	store  *store.Store
	loader loader.Loader
	retry  loader.RetryConfig
	logger *slog.Logger
}

// Configure validates cfg and creates the store and loader for its source.
// The store starts out empty; call Load to fill it.
func Configure(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	retry := loader.DefaultRetryConfig()
	if o.retry != nil {
		retry = *o.retry
	}

	loaderOpts := []loader.Option{loader.WithLogger(o.logger)}
	if o.registerer != nil {
		m, err := loader.NewMetrics(o.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		loaderOpts = append(loaderOpts, loader.WithMetrics(m))
	}
	if o.httpClient != nil {
		loaderOpts = append(loaderOpts, loader.WithHTTPClient(o.httpClient))
	}

	s := store.New()
	var (
		l   loader.Loader
		err error
	)
	switch cfg.Source {
	case config.SourceHTTP:
		l, err = loader.NewHTTPLoader(cfg.Enums, s, loaderOpts...)
	case config.SourceFile:
		l, err = loader.NewFileLoader(cfg.Files, s, loaderOpts...)
	case config.SourceKV:
		if o.nc == nil {
			return nil, fmt.Errorf("kv source requires a NATS connection")
		}
		l, err = loader.OpenKVLoader(ctx, o.nc, cfg.NATS, s, loaderOpts...)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s loader: %w", cfg.Source, err)
	}

	o.logger.Debug("Configured enum service", "source", cfg.Source)

	return &Client{
		cfg:    cfg,
		store:  s,
		loader: l,
		retry:  retry,
		logger: o.logger,
	}, nil
}

func (c *Client) initialized() error {
	if c == nil || c.store == nil || c.loader == nil {
		return ErrNotInitialized
	}
	return nil
}

// Config returns the configuration the client was created with.
func (c *Client) Config() (config.Config, error) {
	if err := c.initialized(); err != nil {
		return config.Config{}, err
	}
	return c.cfg, nil
}

// Store returns the client's catalog store.
func (c *Client) Store() (*store.Store, error) {
	if err := c.initialized(); err != nil {
		return nil, err
	}
	return c.store, nil
}

// Enums returns a snapshot of the current catalog.
func (c *Client) Enums() (enum.Catalog, error) {
	if err := c.initialized(); err != nil {
		return nil, err
	}
	return c.store.State().Enums, nil
}

// Load fetches the catalog once and installs it. On failure the store keeps
// its previous catalog.
func (c *Client) Load(ctx context.Context) error {
	if err := c.initialized(); err != nil {
		return err
	}
	return c.loader.Load(ctx)
}

// Watch keeps the catalog current until ctx is cancelled. The file source
// follows file changes when files.watch is set, the kv source follows the
// catalog key, and the http source reloads every enums.refresh_interval.
// With nothing to follow Watch just waits for ctx.
func (c *Client) Watch(ctx context.Context) error {
	if err := c.initialized(); err != nil {
		return err
	}

	switch c.cfg.Source {
	case config.SourceFile:
		if c.cfg.Files.Watch {
			if w, ok := c.loader.(loader.Watcher); ok {
				return w.Watch(ctx)
			}
		}
	case config.SourceKV:
		if w, ok := c.loader.(loader.Watcher); ok {
			return w.Watch(ctx)
		}
	case config.SourceHTTP:
		if c.cfg.Enums.RefreshInterval > 0 {
			r, err := loader.NewRefresher(c.loader, c.cfg.Enums.RefreshInterval, c.retry, c.logger)
			if err != nil {
				return err
			}
			return r.Run(ctx)
		}
	}

	<-ctx.Done()
	return nil
}

// Bind returns a live view of the client's store. Close it when done.
func (c *Client) Bind() (*binding.Binding, error) {
	if err := c.initialized(); err != nil {
		return nil, err
	}
	return binding.Bind(c.store), nil
}
