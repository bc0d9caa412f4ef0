package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"adaboards/domain"
	"adaboards/gateway"
)

// Boards fetches the full board list and replaces the cache with it.
func (c *Client) Boards(ctx context.Context) ([]domain.Board, error) {
	var boards []domain.Board
	if err := c.withRetry(ctx, readRetries, func() error {
		boards = boards[:0]
		return c.gw.Do(ctx, http.MethodGet, "/boards", nil, &boards)
	}); err != nil {
		return nil, c.authFailed(err)
	}
	c.boards.Set(scopeBoards, boards)
	return boards, nil
}

// Board fetches a single board and upserts it into the cache.
func (c *Client) Board(ctx context.Context, id string) (domain.Board, error) {
	var board domain.Board
	if err := c.withRetry(ctx, readRetries, func() error {
		return c.gw.Do(ctx, http.MethodGet, "/boards/"+id, nil, &board)
	}); err != nil {
		return domain.Board{}, c.authFailed(err)
	}
	c.boards.Upsert(scopeBoards, board)
	return board, nil
}

// CreateBoard creates a board. Confirm-after: the cache changes only
// once the server echoes the created board.
func (c *Client) CreateBoard(ctx context.Context, name string) (domain.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Board{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	var board domain.Board
	if err := c.gw.Do(ctx, http.MethodPost, "/boards", map[string]string{"name": name}, &board); err != nil {
		return domain.Board{}, c.authFailed(err)
	}
	c.boards.Upsert(scopeBoards, board)
	return board, nil
}

// RenameBoard updates the board's name. Confirm-after.
func (c *Client) RenameBoard(ctx context.Context, id, name string) (domain.Board, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Board{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	var board domain.Board
	if err := c.gw.Do(ctx, http.MethodPut, "/boards/"+id, map[string]string{"name": name}, &board); err != nil {
		return domain.Board{}, c.authFailed(err)
	}
	c.boards.Upsert(scopeBoards, board)
	return board, nil
}

// DeleteBoard removes the board optimistically and rolls the list back
// if the server refuses. On success the board's task and member scopes
// are evicted too, so no stale per-board data survives.
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	key := uuid.NewString()
	err := runOptimistic(ctx, optimisticOp[domain.Board]{
		store: c.boards,
		scope: scopeBoards,
		apply: func() { c.boards.Remove(scopeBoards, id) },
		call: func(ctx context.Context) error {
			return c.withRetry(ctx, writeRetries, func() error {
				return c.gw.Do(ctx, http.MethodDelete, "/boards/"+id, nil, nil,
					gateway.WithIdempotencyKey(key))
			})
		},
		reconcile: func() {
			c.tasks.Drop(taskScope(id))
			c.members.Drop(memberScope(id))
		},
	})
	if err != nil {
		return c.authFailed(err)
	}
	return nil
}
