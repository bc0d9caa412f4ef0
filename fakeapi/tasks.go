package fakeapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"adaboards/domain"
)

// boardAccess resolves the board and checks membership. Caller must
// hold s.mu. A nil error return means access is granted.
func (s *Server) boardAccess(c echo.Context, boardID, userID string) error {
	if _, ok := s.boards[boardID]; !ok {
		return fail(c, http.StatusNotFound, "board not found")
	}
	if s.memberOf(boardID, userID) == nil {
		return fail(c, http.StatusForbidden, "not a board member")
	}
	return nil
}

func (s *Server) listTasks(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	out := make([]domain.Task, 0, len(s.tasks[boardID]))
	for _, t := range s.tasks[boardID] {
		out = append(out, *t)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createTask(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")
	var req struct {
		Title       string            `json:"title"`
		Status      domain.TaskStatus `json:"status"`
		Description string            `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fail(c, http.StatusBadRequest, "task title is required")
	}
	if !req.Status.Valid() {
		return fail(c, http.StatusBadRequest, "invalid task status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	now := s.now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		BoardID:     boardID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[boardID] = append(s.tasks[boardID], task)
	s.boards[boardID].UpdatedAt = now
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) patchTask(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")
	taskID := c.Param("tid")
	var req struct {
		Title       *string            `json:"title"`
		Description *string            `json:"description"`
		Status      *domain.TaskStatus `json:"status"`
		AssignedTo  *string            `json:"assignedTo"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if req.Status != nil && !req.Status.Valid() {
		return fail(c, http.StatusBadRequest, "invalid task status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	for _, task := range s.tasks[boardID] {
		if task.ID != taskID {
			continue
		}
		if req.Title != nil {
			if strings.TrimSpace(*req.Title) == "" {
				return fail(c, http.StatusBadRequest, "task title is required")
			}
			task.Title = strings.TrimSpace(*req.Title)
		}
		if req.Description != nil {
			task.Description = *req.Description
		}
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.AssignedTo != nil {
			task.AssignedTo = *req.AssignedTo
		}
		task.UpdatedAt = s.now()
		s.boards[boardID].UpdatedAt = task.UpdatedAt
		return c.JSON(http.StatusOK, task)
	}
	return fail(c, http.StatusNotFound, "task not found")
}

func (s *Server) deleteTask(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")
	taskID := c.Param("tid")

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	for i, task := range s.tasks[boardID] {
		if task.ID == taskID {
			s.tasks[boardID] = append(s.tasks[boardID][:i], s.tasks[boardID][i+1:]...)
			s.boards[boardID].UpdatedAt = s.now()
			return c.NoContent(http.StatusNoContent)
		}
	}
	return fail(c, http.StatusNotFound, "task not found")
}
