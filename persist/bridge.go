package persist

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Bridge mirrors cache state to durable storage. Cache watchers call
// Notify after every mutation; a background save coalesces bursts into
// as few writes as possible. Saves never fail the caller; a snapshot is
// an optimization, not a correctness requirement.
type Bridge struct {
	store  Store
	encode func() ([]byte, error)
	log    *log.Logger

	mu     sync.Mutex
	dirty  bool
	saving bool
	wg     sync.WaitGroup
}

// NewBridge creates a bridge that persists the document produced by
// encode under KeySnapshot.
func NewBridge(store Store, encode func() ([]byte, error), logger *log.Logger) *Bridge {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Bridge{store: store, encode: encode, log: logger}
}

// Notify marks the snapshot dirty and kicks off an asynchronous save if
// one is not already running.
func (b *Bridge) Notify() {
	b.mu.Lock()
	b.dirty = true
	if b.saving {
		b.mu.Unlock()
		return
	}
	b.saving = true
	b.wg.Add(1)
	b.mu.Unlock()
	go b.run()
}

func (b *Bridge) run() {
	defer b.wg.Done()
	for {
		b.mu.Lock()
		if !b.dirty {
			b.saving = false
			b.mu.Unlock()
			return
		}
		b.dirty = false
		b.mu.Unlock()
		b.save(context.Background())
	}
}

// Flush waits for in-flight saves and writes the current state once
// more, synchronously. Used on shutdown.
func (b *Bridge) Flush(ctx context.Context) {
	b.wg.Wait()
	b.mu.Lock()
	b.dirty = false
	b.mu.Unlock()
	b.save(ctx)
}

// Load returns the persisted snapshot document, or ErrNotFound when no
// previous session left one behind.
func (b *Bridge) Load(ctx context.Context) ([]byte, error) {
	return b.store.Get(ctx, KeySnapshot)
}

// Clear drops the persisted snapshot, e.g. on logout.
func (b *Bridge) Clear(ctx context.Context) {
	if err := b.store.Delete(ctx, KeySnapshot); err != nil {
		b.log.WithError(err).Warn("persist.snapshot.clear_failed")
	}
}

func (b *Bridge) save(ctx context.Context) {
	data, err := b.encode()
	if err != nil {
		b.log.WithError(err).Warn("persist.snapshot.encode_failed")
		return
	}
	if err := b.store.Put(ctx, KeySnapshot, data); err != nil {
		// Quota or IO trouble must not surface to the UI path.
		b.log.WithError(err).Warn("persist.snapshot.write_failed")
	}
}
