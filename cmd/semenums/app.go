package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360studio/semenums/binding"
	"github.com/c360studio/semenums/client"
	"github.com/c360studio/semenums/config"
	"github.com/c360studio/semenums/enum"
	"github.com/c360studio/semenums/enumapi"
	"github.com/c360studio/semenums/loader"
	"github.com/c360studio/semenums/store"
)

// App wires the NATS connection, the enum client and the HTTP API together.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	// NATS, only for the kv source
	natsConn *nats.Conn

	client   *client.Client
	registry *prometheus.Registry

	// HTTP
	binding *binding.Binding
	server  *http.Server
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:      cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
	}
}

// Start connects to NATS when needed, configures the client and performs the
// initial load.
func (a *App) Start(ctx context.Context) error {
	opts := []client.Option{client.WithLogger(a.logger)}

	if a.cfg.Source == config.SourceKV {
		if err := a.connectNATS(); err != nil {
			return err
		}
		opts = append(opts, client.WithNATS(a.natsConn))
	}

	if a.cfg.API.Metrics {
		a.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, client.WithMetrics(a.registry))
	}

	c, err := client.Configure(ctx, *a.cfg, opts...)
	if err != nil {
		return fmt.Errorf("configure enums: %w", err)
	}
	a.client = c

	if err := c.Load(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	enums, _ := c.Enums()
	a.logger.Info("Catalog loaded", "source", a.cfg.Source, "enums", len(enums))
	return nil
}

func (a *App) connectNATS() error {
	url := a.cfg.NATS.URL
	a.logger.Info("Connecting to NATS", "url", url)

	conn, err := nats.Connect(url,
		nats.Name(appName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				a.logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			a.logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return wrapNATSError(err, url)
	}
	a.natsConn = conn

	a.logger.Info("Connected to NATS", "url", url)
	return nil
}

// Publish reads the configured catalog files and stores the catalog under
// the configured KV key.
func (a *App) Publish(ctx context.Context) (uint64, enum.Catalog, error) {
	st := store.New()
	files, err := loader.NewFileLoader(a.cfg.Files, st, loader.WithLogger(a.logger))
	if err != nil {
		return 0, nil, fmt.Errorf("configure files: %w", err)
	}
	if err := files.Load(ctx); err != nil {
		return 0, nil, fmt.Errorf("read catalog files: %w", err)
	}
	catalog := st.State().Enums

	if a.natsConn == nil {
		if err := a.connectNATS(); err != nil {
			return 0, nil, err
		}
	}
	kv, err := loader.OpenBucket(ctx, a.natsConn, a.cfg.NATS.Bucket)
	if err != nil {
		return 0, nil, err
	}
	rev, err := loader.Publish(ctx, kv, a.cfg.NATS.Key, catalog)
	if err != nil {
		return 0, nil, err
	}
	a.logger.Info("Published catalog", "bucket", a.cfg.NATS.Bucket, "key", a.cfg.NATS.Key,
		"revision", rev, "enums", len(catalog))
	return rev, catalog, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	// Check for common connection errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set nats.url in semenums.yaml to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// Handler returns the HTTP API: the catalog under api.prefix, /healthz, and
// /metrics when enabled.
func (a *App) Handler() (http.Handler, error) {
	if a.binding == nil {
		b, err := a.client.Bind()
		if err != nil {
			return nil, err
		}
		a.binding = b
	}

	mux := http.NewServeMux()
	enumapi.NewHandler(a.binding, a.logger).RegisterHTTPHandlers(a.cfg.API.Prefix, mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	if a.cfg.API.Metrics {
		mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	}
	return mux, nil
}

// Serve keeps the catalog current and serves the HTTP API until ctx is
// cancelled. An empty api.addr disables the API.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	fail := func(err error) {
		errOnce.Do(func() { runErr = err })
		cancel()
	}

	var ln net.Listener
	if a.cfg.API.Addr != "" {
		handler, err := a.Handler()
		if err != nil {
			return err
		}
		ln, err = net.Listen("tcp", a.cfg.API.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", a.cfg.API.Addr, err)
		}
		a.server = &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.client.Watch(ctx); err != nil {
			fail(fmt.Errorf("watch catalog: %w", err))
		}
	}()

	if a.server != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.logger.Info("HTTP API listening", "addr", ln.Addr().String(), "prefix", a.cfg.API.Prefix)
			if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fail(fmt.Errorf("serve http: %w", err))
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			if err := a.server.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("HTTP shutdown failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	a.logger.Info("Received shutdown signal")
	wg.Wait()
	return runErr
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown(timeout time.Duration) {
	if a.binding != nil {
		a.binding.Close()
	}

	// Close NATS connection
	if a.natsConn != nil {
		done := make(chan struct{})
		a.natsConn.SetClosedHandler(func(*nats.Conn) { close(done) })
		if err := a.natsConn.Drain(); err != nil {
			a.natsConn.Close()
		} else {
			select {
			case <-done:
			case <-time.After(timeout):
				a.natsConn.Close()
			}
		}
	}

	a.logger.Debug("Semenums shutdown complete")
}
