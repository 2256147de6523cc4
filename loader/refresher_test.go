package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedLoader struct {
	mu      sync.Mutex
	results []error
	calls   []time.Time
}

func (l *scriptedLoader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, time.Now())
	if len(l.results) == 0 {
		return nil
	}
	err := l.results[0]
	l.results = l.results[1:]
	return err
}

func (l *scriptedLoader) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := RetryConfig{
		BackoffBase:       100 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxBackoff:        time.Second,
	}

	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{60, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.backoff(tt.failures), "failures=%d", tt.failures)
	}

	assert.Equal(t, time.Duration(0), RetryConfig{}.backoff(3))
	assert.Equal(t, 100*time.Millisecond, RetryConfig{BackoffBase: 100 * time.Millisecond}.backoff(5),
		"multiplier below 1 keeps the base delay")
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()
	assert.Equal(t, 2*time.Second, cfg.BackoffBase)
	assert.Equal(t, 2.0, cfg.BackoffMultiplier)
	assert.Equal(t, 5*time.Minute, cfg.MaxBackoff)
}

func TestNewRefresher_Validation(t *testing.T) {
	_, err := NewRefresher(nil, time.Second, DefaultRetryConfig(), nil)
	assert.Error(t, err)

	_, err = NewRefresher(&scriptedLoader{}, 0, DefaultRetryConfig(), nil)
	assert.Error(t, err)
}

func TestRefresher_Run(t *testing.T) {
	boom := errors.New("boom")
	l := &scriptedLoader{results: []error{boom, boom, nil}}

	// A long interval means only backoff retries can happen quickly.
	r, err := NewRefresher(l, 50*time.Millisecond, RetryConfig{
		BackoffBase:       10 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxBackoff:        time.Second,
	}, discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return l.callCount() >= 4 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// First failure retries after 10ms, second after 20ms; the success
	// waits the full interval again.
	assert.Less(t, l.calls[1].Sub(l.calls[0]), 50*time.Millisecond)
	assert.GreaterOrEqual(t, l.calls[3].Sub(l.calls[2]), 50*time.Millisecond)
}

func TestRefresher_StopsOnCancel(t *testing.T) {
	l := &scriptedLoader{}
	r, err := NewRefresher(l, time.Hour, DefaultRetryConfig(), discardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, r.Run(ctx))
	assert.Equal(t, 0, l.callCount())
}
