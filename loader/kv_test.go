package loader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semenums/config"
	"github.com/c360studio/semenums/store"
)

// fakeEntry overrides the KeyValueEntry methods the loader reads.
type fakeEntry struct {
	jetstream.KeyValueEntry
	key      string
	value    []byte
	revision uint64
	op       jetstream.KeyValueOp
}

func (e *fakeEntry) Key() string                     { return e.key }
func (e *fakeEntry) Value() []byte                   { return e.value }
func (e *fakeEntry) Revision() uint64                { return e.revision }
func (e *fakeEntry) Operation() jetstream.KeyValueOp { return e.op }

type fakeWatcher struct {
	jetstream.KeyWatcher
	updates chan jetstream.KeyValueEntry
	stopped chan struct{}
	once    sync.Once
}

func (w *fakeWatcher) Updates() <-chan jetstream.KeyValueEntry { return w.updates }

func (w *fakeWatcher) Stop() error {
	w.once.Do(func() { close(w.stopped) })
	return nil
}

type fakeBucket struct {
	entry   jetstream.KeyValueEntry
	getErr  error
	watcher *fakeWatcher
	watched string
}

func (b *fakeBucket) Get(ctx context.Context, key string) (jetstream.KeyValueEntry, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	return b.entry, nil
}

func (b *fakeBucket) Watch(ctx context.Context, keys string, opts ...jetstream.WatchOpt) (jetstream.KeyWatcher, error) {
	b.watched = keys
	return b.watcher, nil
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		updates: make(chan jetstream.KeyValueEntry),
		stopped: make(chan struct{}),
	}
}

func natsConfig() config.NATSConfig {
	return config.DefaultConfig().NATS
}

func put(revision uint64, value string) *fakeEntry {
	return &fakeEntry{key: "catalog", value: []byte(value), revision: revision, op: jetstream.KeyValuePut}
}

func TestKVLoader_Load(t *testing.T) {
	bucket := &fakeBucket{entry: put(7, catalogJSON)}
	s := store.New()
	l, err := newKVLoader(bucket, natsConfig(), s, WithLogger(discardLogger()))
	require.NoError(t, err)

	require.NoError(t, l.Load(context.Background()))
	assert.Equal(t, []string{"Country", "Gender"}, s.State().Enums.Names())
}

func TestKVLoader_LoadErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		s := store.New()
		l, err := newKVLoader(&fakeBucket{getErr: jetstream.ErrKeyNotFound}, natsConfig(), s, WithLogger(discardLogger()))
		require.NoError(t, err)

		err = l.Load(context.Background())
		assert.ErrorIs(t, err, jetstream.ErrKeyNotFound)
		assert.Contains(t, err.Error(), "catalog")
		assert.Equal(t, uint64(0), s.State().Revision)
	})

	t.Run("transport failure", func(t *testing.T) {
		boom := errors.New("boom")
		l, err := newKVLoader(&fakeBucket{getErr: boom}, natsConfig(), store.New(), WithLogger(discardLogger()))
		require.NoError(t, err)
		assert.ErrorIs(t, l.Load(context.Background()), boom)
	})

	t.Run("bad json", func(t *testing.T) {
		s := store.New()
		l, err := newKVLoader(&fakeBucket{entry: put(1, `[]`)}, natsConfig(), s, WithLogger(discardLogger()))
		require.NoError(t, err)
		assert.Error(t, l.Load(context.Background()))
		assert.Equal(t, uint64(0), s.State().Revision)
	})
}

func TestKVLoader_Watch(t *testing.T) {
	watcher := newFakeWatcher()
	bucket := &fakeBucket{watcher: watcher}
	s := store.New()
	l, err := newKVLoader(bucket, natsConfig(), s, WithLogger(discardLogger()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Watch(ctx) }()

	// Initial value, then the end-of-initial-values marker.
	watcher.updates <- put(1, `{"Gender": ["MALE"]}`)
	watcher.updates <- nil
	watcher.updates <- put(2, `{"Gender": ["MALE", "FEMALE"]}`)
	// Deletes, purges and undecodable revisions are ignored.
	watcher.updates <- &fakeEntry{key: "catalog", revision: 3, op: jetstream.KeyValueDelete}
	watcher.updates <- &fakeEntry{key: "catalog", revision: 4, op: jetstream.KeyValuePurge}
	watcher.updates <- put(5, `not json`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	assert.Equal(t, "catalog", bucket.watched)
	state := s.State()
	assert.Equal(t, uint64(2), state.Revision)
	assert.Equal(t, []string{"MALE", "FEMALE"}, state.Enums["Gender"].Codes())

	select {
	case <-watcher.stopped:
	default:
		t.Error("watcher was not stopped")
	}
}

func TestKVLoader_WatchUpdatesClosed(t *testing.T) {
	watcher := newFakeWatcher()
	l, err := newKVLoader(&fakeBucket{watcher: watcher}, natsConfig(), store.New(), WithLogger(discardLogger()))
	require.NoError(t, err)

	close(watcher.updates)
	assert.Error(t, l.Watch(context.Background()))
}

func TestKVLoader_WatchUpdatesClosedOnCancel(t *testing.T) {
	for i := 0; i < 50; i++ {
		watcher := newFakeWatcher()
		l, err := newKVLoader(&fakeBucket{watcher: watcher}, natsConfig(), store.New(), WithLogger(discardLogger()))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		close(watcher.updates)
		require.NoError(t, l.Watch(ctx))
	}
}

func TestNewKVLoader_Validation(t *testing.T) {
	_, err := NewKVLoader(nil, natsConfig(), store.New())
	assert.Error(t, err)

	cfg := natsConfig()
	cfg.Key = ""
	_, err = newKVLoader(&fakeBucket{}, cfg, store.New())
	assert.Error(t, err)

	_, err = newKVLoader(&fakeBucket{}, natsConfig(), nil)
	assert.Error(t, err)

	_, err = OpenKVLoader(context.Background(), nil, natsConfig(), store.New())
	assert.Error(t, err)
}
