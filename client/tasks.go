package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"adaboards/domain"
	"adaboards/gateway"
)

// Tasks fetches a board's tasks and replaces that scope's cache.
func (c *Client) Tasks(ctx context.Context, boardID string) ([]domain.Task, error) {
	var tasks []domain.Task
	if err := c.withRetry(ctx, readRetries, func() error {
		tasks = tasks[:0]
		return c.gw.Do(ctx, http.MethodGet, "/boards/"+boardID+"/tasks", nil, &tasks)
	}); err != nil {
		return nil, c.authFailed(err)
	}
	c.tasks.Set(taskScope(boardID), tasks)
	return tasks, nil
}

// CreateTask adds a task to a board column. Confirm-after.
func (c *Client) CreateTask(ctx context.Context, boardID, title string, status domain.TaskStatus, description string) (domain.Task, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if !status.Valid() {
		return domain.Task{}, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	body := map[string]any{"title": title, "status": status}
	if description != "" {
		body["description"] = description
	}
	var task domain.Task
	if err := c.gw.Do(ctx, http.MethodPost, "/boards/"+boardID+"/tasks", body, &task); err != nil {
		return domain.Task{}, c.authFailed(err)
	}
	c.tasks.Upsert(taskScope(boardID), task)
	return task, nil
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Status      *domain.TaskStatus `json:"status,omitempty"`
	AssignedTo  *string            `json:"assignedTo,omitempty"`
}

// UpdateTask applies a partial update. Confirm-after.
func (c *Client) UpdateTask(ctx context.Context, boardID, taskID string, patch TaskPatch) (domain.Task, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.Task{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return domain.Task{}, &ValidationError{Field: "status", Reason: "unknown status"}
	}
	var task domain.Task
	if err := c.gw.Do(ctx, http.MethodPatch, "/boards/"+boardID+"/tasks/"+taskID, patch, &task); err != nil {
		return domain.Task{}, c.authFailed(err)
	}
	c.tasks.Upsert(taskScope(boardID), task)
	return task, nil
}

// DeleteTask removes a task optimistically, restoring the column on
// failure.
func (c *Client) DeleteTask(ctx context.Context, boardID, taskID string) error {
	key := uuid.NewString()
	err := runOptimistic(ctx, optimisticOp[domain.Task]{
		store: c.tasks,
		scope: taskScope(boardID),
		apply: func() { c.tasks.Remove(taskScope(boardID), taskID) },
		call: func(ctx context.Context) error {
			return c.withRetry(ctx, writeRetries, func() error {
				return c.gw.Do(ctx, http.MethodDelete, "/boards/"+boardID+"/tasks/"+taskID, nil, nil,
					gateway.WithIdempotencyKey(key))
			})
		},
	})
	if err != nil {
		return c.authFailed(err)
	}
	return nil
}

// MoveTask steps a task one column left or right. Stepping past either
// end is a no-op and never touches the network. The move is applied
// optimistically so the card changes column without visible lag, then
// reconciled with the server's returned task.
func (c *Client) MoveTask(ctx context.Context, boardID, taskID string, dir domain.MoveDirection) error {
	scope := taskScope(boardID)
	task, ok := c.findTask(scope, taskID)
	if !ok {
		// Cold cache: load the board's tasks, then look again.
		if _, err := c.Tasks(ctx, boardID); err != nil {
			return err
		}
		if task, ok = c.findTask(scope, taskID); !ok {
			return ErrUnknownTask
		}
	}

	next := task.Status.Step(dir)
	if next == task.Status {
		return nil
	}

	var updated domain.Task
	err := runOptimistic(ctx, optimisticOp[domain.Task]{
		store: c.tasks,
		scope: scope,
		apply: func() {
			moved := task
			moved.Status = next
			c.tasks.Upsert(scope, moved)
		},
		call: func(ctx context.Context) error {
			return c.gw.Do(ctx, http.MethodPatch, "/boards/"+boardID+"/tasks/"+taskID,
				map[string]domain.TaskStatus{"status": next}, &updated)
		},
		reconcile: func() { c.tasks.Upsert(scope, updated) },
	})
	if err != nil {
		return c.authFailed(err)
	}
	return nil
}

func (c *Client) findTask(scope, taskID string) (domain.Task, bool) {
	for _, t := range c.tasks.Get(scope) {
		if t.ID == taskID {
			return t, true
		}
	}
	return domain.Task{}, false
}
