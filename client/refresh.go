package client

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Staleness windows. Collections stay fresh for five minutes; search
// results go stale after thirty seconds and are simply evicted, since
// nobody re-reads an old search.
const (
	collectionStaleAfter = 5 * time.Minute
	searchStaleAfter     = 30 * time.Second
)

// RefreshStale refetches every loaded scope whose data has outlived its
// staleness window. A refresh resolving while an optimistic mutation is
// in flight may overwrite the optimistic state; the next confirmation
// or refresh converges on server truth.
func (c *Client) RefreshStale(ctx context.Context) error {
	var errs []error

	if c.boards.Loaded(scopeBoards) && c.boards.Stale(scopeBoards, collectionStaleAfter) {
		if _, err := c.Boards(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, scope := range c.tasks.Scopes() {
		if !c.tasks.Stale(scope, collectionStaleAfter) {
			continue
		}
		boardID := strings.TrimPrefix(scope, "tasks:")
		if _, err := c.Tasks(ctx, boardID); err != nil {
			errs = append(errs, err)
		}
	}
	for _, scope := range c.members.Scopes() {
		if !c.members.Stale(scope, collectionStaleAfter) {
			continue
		}
		boardID := strings.TrimPrefix(scope, "members:")
		if _, err := c.Members(ctx, boardID); err != nil {
			errs = append(errs, err)
		}
	}
	for _, scope := range c.users.Scopes() {
		if c.users.Stale(scope, searchStaleAfter) {
			c.users.Drop(scope)
		}
	}

	return errors.Join(errs...)
}

// StartAutoRefresh refreshes stale scopes on the given interval until
// StopAutoRefresh or Close. Errors are logged; the ticker keeps going.
func (c *Client) StartAutoRefresh(interval time.Duration) {
	c.mu.Lock()
	if c.stopRefresh != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.stopRefresh = cancel
	c.refreshDone = done
	c.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.RefreshStale(ctx); err != nil && ctx.Err() == nil {
					c.log.WithError(err).Debug("client.refresh.failed")
				}
			}
		}
	}()
}

// StopAutoRefresh stops the background refresh loop, if running.
func (c *Client) StopAutoRefresh() {
	c.mu.Lock()
	cancel := c.stopRefresh
	done := c.refreshDone
	c.stopRefresh = nil
	c.refreshDone = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}
