package fakeapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"adaboards/domain"
)

// memberOf returns the caller's membership on the board, if any. Caller
// must hold s.mu.
func (s *Server) memberOf(boardID, userID string) *domain.Member {
	for _, m := range s.members[boardID] {
		if m.UserID == userID {
			return m
		}
	}
	return nil
}

func (s *Server) listBoards(c echo.Context) error {
	userID := c.Get("userID").(string)

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Board, 0, len(s.boardOrder))
	for _, id := range s.boardOrder {
		if s.memberOf(id, userID) != nil {
			out = append(out, *s.boards[id])
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createBoard(c echo.Context) error {
	userID := c.Get("userID").(string)
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "board name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	board := &domain.Board{ID: uuid.NewString(), Name: req.Name, UpdatedAt: s.now()}
	s.boards[board.ID] = board
	s.boardOrder = append(s.boardOrder, board.ID)
	// The creator is the board's one OWNER, assigned here and never
	// reassignable through the API.
	s.members[board.ID] = []*domain.Member{{
		ID:       uuid.NewString(),
		UserID:   userID,
		BoardID:  board.ID,
		Role:     domain.RoleOwner,
		JoinedAt: s.now(),
		User:     s.users[userID].user,
	}}
	return c.JSON(http.StatusCreated, board)
}

func (s *Server) getBoard(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.boards[boardID]
	if !ok {
		return fail(c, http.StatusNotFound, "board not found")
	}
	if s.memberOf(boardID, userID) == nil {
		return fail(c, http.StatusForbidden, "not a board member")
	}
	return c.JSON(http.StatusOK, board)
}

func (s *Server) updateBoard(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return fail(c, http.StatusBadRequest, "board name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.boards[boardID]
	if !ok {
		return fail(c, http.StatusNotFound, "board not found")
	}
	if s.memberOf(boardID, userID) == nil {
		return fail(c, http.StatusForbidden, "not a board member")
	}
	board.Name = req.Name
	board.UpdatedAt = s.now()
	return c.JSON(http.StatusOK, board)
}

func (s *Server) deleteBoard(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[boardID]; !ok {
		return fail(c, http.StatusNotFound, "board not found")
	}
	m := s.memberOf(boardID, userID)
	if m == nil {
		return fail(c, http.StatusForbidden, "not a board member")
	}
	if m.Role != domain.RoleOwner {
		return fail(c, http.StatusForbidden, "only the owner may delete a board")
	}
	delete(s.boards, boardID)
	delete(s.tasks, boardID)
	delete(s.members, boardID)
	for i, id := range s.boardOrder {
		if id == boardID {
			s.boardOrder = append(s.boardOrder[:i], s.boardOrder[i+1:]...)
			break
		}
	}
	return c.NoContent(http.StatusNoContent)
}
