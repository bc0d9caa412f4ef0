package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ctx := context.Background()

	if _, err := fs.Get(ctx, KeySnapshot); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := fs.Put(ctx, KeySnapshot, []byte(`{"boards":{}}`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, err := fs.Get(ctx, KeySnapshot)
	if err != nil || string(data) != `{"boards":{}}` {
		t.Fatalf("get: %s, %v", data, err)
	}
	if err := fs.Delete(ctx, KeySnapshot); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := fs.Delete(ctx, KeySnapshot); err != nil {
		t.Fatalf("double delete must be a no-op: %v", err)
	}
	if _, err := fs.Get(ctx, KeySnapshot); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rs := NewRedisStore(client)
	ctx := context.Background()

	if _, err := rs.Get(ctx, KeyToken); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := rs.Put(ctx, KeyToken, []byte("v1")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if !mr.Exists("adaboards:" + KeyToken) {
		t.Fatal("expected namespaced key in redis")
	}
	data, err := rs.Get(ctx, KeyToken)
	if err != nil || string(data) != "v1" {
		t.Fatalf("get: %s, %v", data, err)
	}
	if err := rs.Delete(ctx, KeyToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := rs.Get(ctx, KeyToken); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

type flakyStore struct {
	mu     sync.Mutex
	values map[string][]byte
	puts   int
	failed bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{values: map[string][]byte{}}
}

func (f *flakyStore) Put(_ context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.failed {
		return errors.New("quota exceeded")
	}
	f.values[key] = append([]byte(nil), value...)
	return nil
}

func (f *flakyStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (f *flakyStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.values, key)
	return nil
}

func TestBridgePersistsOnNotify(t *testing.T) {
	store := newFlakyStore()
	bridge := NewBridge(store, func() ([]byte, error) { return []byte(`{"v":1}`), nil }, nil)

	bridge.Notify()
	bridge.Flush(context.Background())

	data, err := bridge.Load(context.Background())
	if err != nil || string(data) != `{"v":1}` {
		t.Fatalf("load: %s, %v", data, err)
	}
}

type gatedStore struct {
	*flakyStore
	gate  chan struct{}
	first sync.Once
}

func (g *gatedStore) Put(ctx context.Context, key string, value []byte) error {
	g.first.Do(func() { <-g.gate })
	return g.flakyStore.Put(ctx, key, value)
}

func TestBridgeCoalescesBursts(t *testing.T) {
	store := &gatedStore{flakyStore: newFlakyStore(), gate: make(chan struct{})}
	bridge := NewBridge(store, func() ([]byte, error) { return []byte("x"), nil }, nil)

	// The first save blocks on the gate while further notifications
	// arrive; they must collapse into a single follow-up write.
	for i := 0; i < 100; i++ {
		bridge.Notify()
	}
	close(store.gate)
	bridge.Flush(context.Background())

	store.mu.Lock()
	puts := store.puts
	store.mu.Unlock()
	if puts > 3 {
		t.Fatalf("expected coalesced writes, got %d", puts)
	}
}

func TestBridgeSwallowsWriteFailures(t *testing.T) {
	store := newFlakyStore()
	store.failed = true
	logger, hook := test.NewNullLogger()
	bridge := NewBridge(store, func() ([]byte, error) { return []byte("x"), nil }, logger)

	bridge.Notify()
	bridge.Flush(context.Background())

	if len(hook.Entries) == 0 {
		t.Fatal("expected write failure to be logged")
	}
}

func TestTokenStoreLifecycle(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ts := NewTokenStore(fs, nil)

	if _, ok := ts.Token(); ok {
		t.Fatal("fresh store must have no token")
	}
	if err := ts.SetToken("tok-1", time.Hour); err != nil {
		t.Fatalf("set token: %v", err)
	}
	tok, ok := ts.Token()
	if !ok || tok != "tok-1" {
		t.Fatalf("unexpected token: %q, %v", tok, ok)
	}
	ts.ClearToken()
	if _, ok := ts.Token(); ok {
		t.Fatal("token must be gone after ClearToken")
	}
}

func TestTokenStoreExpiryClearsStorage(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ts := NewTokenStore(fs, nil)

	if err := ts.SetToken("tok-1", -time.Millisecond); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if _, ok := ts.Token(); ok {
		t.Fatal("expired token must read as absent")
	}
	// The expired entry must be cleared from the underlying store, not
	// merely filtered on read.
	if _, err := fs.Get(context.Background(), KeyToken); err != ErrNotFound {
		t.Fatalf("expected storage cleared, got %v", err)
	}
}

func TestTokenStoreLazyExpiry(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	ts := NewTokenStore(fs, nil)
	now := time.Now()
	ts.now = func() time.Time { return now }

	if err := ts.SetToken("tok-1", time.Minute); err != nil {
		t.Fatalf("set token: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, ok := ts.Token(); ok {
		t.Fatal("token past its ttl must be absent")
	}
}
