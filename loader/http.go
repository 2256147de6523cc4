package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/c360studio/semenums/config"
	"github.com/c360studio/semenums/enum"
)

// maxCatalogBytes caps the catalog response body.
const maxCatalogBytes = 16 << 20

// HTTPLoader fetches the catalog from a JSON endpoint.
type HTTPLoader struct {
	url       string
	token     string
	needsAuth bool
	client    *http.Client
	target    Target
	logger    *slog.Logger
	metrics   *Metrics
}

// NewHTTPLoader creates a loader for cfg.URL. When cfg.NeedsAuthentication is
// set the built-in client keeps cookies between requests and sends cfg.Token
// as a bearer token.
func NewHTTPLoader(cfg config.EnumsConfig, target Target, opts ...Option) (*HTTPLoader, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("enums url is required")
	}
	if target == nil {
		return nil, fmt.Errorf("target is required")
	}
	o := buildOptions(opts)

	client := o.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
		if cfg.NeedsAuthentication {
			jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
			if err != nil {
				return nil, fmt.Errorf("create cookie jar: %w", err)
			}
			client.Jar = jar
		}
	}

	return &HTTPLoader{
		url:       cfg.URL,
		token:     cfg.Token,
		needsAuth: cfg.NeedsAuthentication,
		client:    client,
		target:    target,
		logger:    o.logger,
		metrics:   o.metrics,
	}, nil
}

// URL returns the endpoint the loader fetches from.
func (l *HTTPLoader) URL() string {
	return l.url
}

// Load fetches the catalog and installs it into the target.
func (l *HTTPLoader) Load(ctx context.Context) error {
	start := time.Now()
	catalog, err := l.fetch(ctx)
	l.metrics.observe(SourceHTTP, time.Since(start), catalog, err)
	if err != nil {
		l.logger.Warn("Failed to load enums", "url", l.url, "error", err)
		return err
	}

	l.target.SetCatalog(catalog)
	l.logger.Debug("Loaded enums", "url", l.url, "enums", len(catalog))
	return nil
}

func (l *HTTPLoader) fetch(ctx context.Context) (enum.Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if l.needsAuth && l.token != "" {
		req.Header.Set("Authorization", "Bearer "+l.token)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch enums from %s: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: l.url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read enums response: %w", err)
	}
	if len(body) > maxCatalogBytes {
		return nil, fmt.Errorf("enums response exceeds %d bytes", maxCatalogBytes)
	}

	catalog, err := enum.ParseCatalog(body)
	if err != nil {
		return nil, fmt.Errorf("decode enums from %s: %w", l.url, err)
	}
	return catalog, nil
}
