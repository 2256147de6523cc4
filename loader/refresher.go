package loader

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// RetryConfig controls how a Refresher backs off after failed loads.
type RetryConfig struct {
	// BackoffBase is the delay after the first failure.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to the delay on each further failure.
	BackoffMultiplier float64

	// MaxBackoff caps the delay.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns sensible backoff defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		BackoffBase:       2 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        5 * time.Minute,
	}
}

// backoff returns the delay after the given number of consecutive failures.
func (c RetryConfig) backoff(failures int) time.Duration {
	if failures <= 0 || c.BackoffBase <= 0 {
		return 0
	}
	mult := c.BackoffMultiplier
	if mult < 1 {
		mult = 1
	}
	d := float64(c.BackoffBase) * math.Pow(mult, float64(failures-1))
	if c.MaxBackoff > 0 && d > float64(c.MaxBackoff) {
		return c.MaxBackoff
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Refresher reloads a catalog on a fixed interval. After a failed load it
// retries with exponential backoff, never waiting longer than the interval;
// the previously installed catalog stays in place meanwhile.
type Refresher struct {
	loader   Loader
	interval time.Duration
	retry    RetryConfig
	logger   *slog.Logger
}

// NewRefresher creates a refresher for l.
func NewRefresher(l Loader, interval time.Duration, retry RetryConfig, logger *slog.Logger) (*Refresher, error) {
	if l == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %v", interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{loader: l, interval: interval, retry: retry, logger: logger}, nil
}

// Run waits one interval, loads, and repeats until ctx is cancelled. The
// initial load is the caller's job. Run returns nil once ctx is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	timer := time.NewTimer(r.interval)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		next := r.interval
		if err := r.loader.Load(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			failures++
			if d := r.retry.backoff(failures); d > 0 && d < next {
				next = d
			}
			r.logger.Warn("Catalog refresh failed", "failures", failures, "retry_in", next, "error", err)
		} else {
			if failures > 0 {
				r.logger.Info("Catalog refresh recovered", "failures", failures)
			}
			failures = 0
		}
		timer.Reset(next)
	}
}
