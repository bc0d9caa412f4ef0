package fakeapi

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"adaboards/domain"
)

func (s *Server) listMembers(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	out := make([]domain.Member, 0, len(s.members[boardID]))
	for _, m := range s.members[boardID] {
		out = append(out, *m)
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) addMember(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")
	var req struct {
		UserID string      `json:"userId"`
		Role   domain.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if !req.Role.Valid() {
		return fail(c, http.StatusBadRequest, "invalid role")
	}
	if req.Role == domain.RoleOwner {
		return fail(c, http.StatusBadRequest, "a board has exactly one owner")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	if !s.memberOf(boardID, userID).Role.CanManageMembers() {
		return fail(c, http.StatusForbidden, "insufficient role")
	}
	rec, ok := s.users[req.UserID]
	if !ok {
		return fail(c, http.StatusNotFound, "user not found")
	}
	if s.memberOf(boardID, req.UserID) != nil {
		return fail(c, http.StatusConflict, "already a member")
	}
	member := &domain.Member{
		ID:       uuid.NewString(),
		UserID:   req.UserID,
		BoardID:  boardID,
		Role:     req.Role,
		JoinedAt: s.now(),
		User:     rec.user,
	}
	s.members[boardID] = append(s.members[boardID], member)
	return c.JSON(http.StatusCreated, member)
}

func (s *Server) patchMember(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")
	targetID := c.Param("uid")
	var req struct {
		Role domain.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	if !req.Role.Valid() {
		return fail(c, http.StatusBadRequest, "invalid role")
	}
	if req.Role == domain.RoleOwner {
		return fail(c, http.StatusBadRequest, "ownership is not transferable")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	if !s.memberOf(boardID, userID).Role.CanManageMembers() {
		return fail(c, http.StatusForbidden, "insufficient role")
	}
	target := s.memberOf(boardID, targetID)
	if target == nil {
		return fail(c, http.StatusNotFound, "member not found")
	}
	if target.Role == domain.RoleOwner {
		return fail(c, http.StatusBadRequest, "the owner role cannot be changed")
	}
	target.Role = req.Role
	return c.JSON(http.StatusOK, target)
}

func (s *Server) removeMember(c echo.Context) error {
	userID := c.Get("userID").(string)
	boardID := c.Param("id")
	targetID := c.Param("uid")

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.boardAccess(c, boardID, userID); err != nil {
		return err
	}
	// Members may leave on their own; removing someone else needs a
	// managing role.
	if targetID != userID && !s.memberOf(boardID, userID).Role.CanManageMembers() {
		return fail(c, http.StatusForbidden, "insufficient role")
	}
	for i, m := range s.members[boardID] {
		if m.UserID != targetID {
			continue
		}
		if m.Role == domain.RoleOwner {
			return fail(c, http.StatusBadRequest, "the owner cannot be removed")
		}
		s.members[boardID] = append(s.members[boardID][:i], s.members[boardID][i+1:]...)
		return c.NoContent(http.StatusNoContent)
	}
	return fail(c, http.StatusNotFound, "member not found")
}

func (s *Server) searchUsers(c echo.Context) error {
	query := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.User, 0, 8)
	if query == "" {
		return c.JSON(http.StatusOK, out)
	}
	for _, rec := range s.users {
		if strings.Contains(strings.ToLower(rec.user.Name), query) ||
			strings.Contains(strings.ToLower(rec.user.Email), query) {
			out = append(out, rec.user)
		}
	}
	return c.JSON(http.StatusOK, out)
}
