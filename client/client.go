// Package client is the mutation coordinator of the Adaboards data
// synchronization layer. It translates user intents into gateway calls
// plus cache reconciliation — confirm-after for creates and updates,
// optimistic-apply-with-rollback for deletes and status moves — and
// owns the persistence bridge that lets a new session render from the
// previous one's data.
package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"adaboards/cache"
	"adaboards/domain"
	"adaboards/gateway"
	"adaboards/persist"
)

const defaultTokenTTL = time.Hour

// Options configures a Client. BaseURL is the only required field.
type Options struct {
	// BaseURL of the Adaboards API, e.g. "http://localhost:3000/api".
	BaseURL string
	// Store is the durable backend for snapshots and the token. Nil
	// means in-memory only.
	Store persist.Store
	// HTTPClient overrides the transport used by the gateway.
	HTTPClient *http.Client
	// Logger defaults to the logrus standard logger.
	Logger *log.Logger
	// TokenTTL is the client-side lifetime recorded for received
	// tokens. Defaults to one hour, matching the server's.
	TokenTTL time.Duration
}

// Client coordinates the entity caches, the remote gateway and the
// persistence bridge. Construct with New, release with Close. It is a
// plain value to inject, not a package singleton.
type Client struct {
	gw      *gateway.Client
	boards  *cache.Store[domain.Board]
	tasks   *cache.Store[domain.Task]
	members *cache.Store[domain.Member]
	users   *cache.Store[domain.User]

	store    persist.Store
	tokens   *persist.TokenStore
	bridge   *persist.Bridge
	log      *log.Logger
	tokenTTL time.Duration

	backoffBase time.Duration
	backoffCap  time.Duration
	sleep       func(context.Context, time.Duration) error

	mu           sync.Mutex
	user         *domain.User
	searchGen    uint64
	searchCancel context.CancelFunc
	stopRefresh  context.CancelFunc
	refreshDone  chan struct{}
}

// snapshotDoc is the single durable document mirroring the caches. The
// users-search cache is ephemeral and deliberately not persisted.
type snapshotDoc struct {
	User    *domain.User               `json:"user,omitempty"`
	Boards  map[string][]domain.Board  `json:"boards"`
	Tasks   map[string][]domain.Task   `json:"tasks"`
	Members map[string][]domain.Member `json:"members"`
}

// New builds a client and seeds its caches from the persisted snapshot
// so callers can render before their first fetch resolves.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	store := opts.Store
	if store == nil {
		store = persist.NewMemoryStore()
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	c := &Client{
		boards:      cache.NewStore[domain.Board](),
		tasks:       cache.NewStore[domain.Task](),
		members:     cache.NewStore[domain.Member](),
		users:       cache.NewStore[domain.User](),
		store:       store,
		tokens:      persist.NewTokenStore(store, logger),
		log:         logger,
		tokenTTL:    ttl,
		backoffBase: time.Second,
		backoffCap:  30 * time.Second,
		sleep:       sleepCtx,
	}

	gwOpts := []gateway.Option{
		gateway.WithTokenSource(c.tokens),
		gateway.WithLogger(logger),
	}
	if opts.HTTPClient != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(opts.HTTPClient))
	}
	c.gw = gateway.New(opts.BaseURL, gwOpts...)

	c.bridge = persist.NewBridge(store, c.encodeSnapshot, logger)
	c.seed()
	c.boards.Watch(c.bridge.Notify)
	c.tasks.Watch(c.bridge.Notify)
	c.members.Watch(c.bridge.Notify)
	return c
}

// Close stops background refresh and flushes the persistence bridge.
func (c *Client) Close() {
	c.StopAutoRefresh()
	c.bridge.Flush(context.Background())
}

// CurrentUser returns the signed-in user restored from storage or set
// by the last login/register, if any.
func (c *Client) CurrentUser() (domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return domain.User{}, false
	}
	return *c.user, true
}

// CachedBoards returns the boards collection without touching the
// network. Empty until the first fetch or snapshot seed.
func (c *Client) CachedBoards() []domain.Board {
	return c.boards.Get(scopeBoards)
}

// CachedTasks returns the cached task collection for one board.
func (c *Client) CachedTasks(boardID string) []domain.Task {
	return c.tasks.Get(taskScope(boardID))
}

// CachedMembers returns the cached member collection for one board.
func (c *Client) CachedMembers(boardID string) []domain.Member {
	return c.members.Get(memberScope(boardID))
}

func (c *Client) encodeSnapshot() ([]byte, error) {
	c.mu.Lock()
	user := c.user
	c.mu.Unlock()
	doc := snapshotDoc{
		User:    user,
		Boards:  c.boards.Snapshot(),
		Tasks:   c.tasks.Snapshot(),
		Members: c.members.Snapshot(),
	}
	return sonic.ConfigStd.Marshal(doc)
}

// seed restores cache state from the previous session's snapshot.
// Restored scopes read instantly but count as stale, so the next
// refresh replaces them with server truth.
func (c *Client) seed() {
	data, err := c.bridge.Load(context.Background())
	if err != nil {
		if err != persist.ErrNotFound {
			c.log.WithError(err).Warn("client.seed.load_failed")
		}
		return
	}
	var doc snapshotDoc
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		c.log.WithError(err).Warn("client.seed.corrupt_snapshot")
		c.bridge.Clear(context.Background())
		return
	}
	c.boards.Restore(doc.Boards)
	c.tasks.Restore(doc.Tasks)
	c.members.Restore(doc.Members)
	c.mu.Lock()
	c.user = doc.User
	c.mu.Unlock()
}

// clearLocal wipes every trace of the session: token, user, caches and
// the durable snapshot.
func (c *Client) clearLocal() {
	c.tokens.ClearToken()
	if err := c.store.Delete(context.Background(), persist.KeyUser); err != nil {
		c.log.WithError(err).Warn("client.clear.user_failed")
	}
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	for _, scope := range c.boards.Scopes() {
		c.boards.Drop(scope)
	}
	for _, scope := range c.tasks.Scopes() {
		c.tasks.Drop(scope)
	}
	for _, scope := range c.members.Scopes() {
		c.members.Drop(scope)
	}
	for _, scope := range c.users.Scopes() {
		c.users.Drop(scope)
	}
	c.bridge.Clear(context.Background())
}

const scopeBoards = "boards"

func taskScope(boardID string) string { return "tasks:" + boardID }

func memberScope(boardID string) string { return "members:" + boardID }

func searchScope(query string) string { return "search:" + query }
