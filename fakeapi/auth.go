package fakeapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"adaboards/domain"
)

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
	errUnknownUser          = errors.New("unknown user")
)

type authResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

func (s *Server) register(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" || strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "email, password and name are required")
	}

	s.mu.Lock()
	if _, taken := s.usersByEmail[req.Email]; taken {
		s.mu.Unlock()
		return fail(c, http.StatusConflict, "email already registered")
	}
	user := domain.User{
		ID:        uuid.NewString(),
		Email:     req.Email,
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: s.now(),
	}
	s.users[user.ID] = &userRecord{user: user, password: req.Password}
	s.usersByEmail[user.Email] = user.ID
	s.mu.Unlock()

	token, err := s.issueToken(user.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "token issuance failed")
	}
	s.log.WithField("email", user.Email).Debug("fakeapi.register")
	return c.JSON(http.StatusCreated, authResponse{User: user, Token: token})
}

func (s *Server) login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	s.mu.Lock()
	id, ok := s.usersByEmail[req.Email]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.Unlock()

	if rec == nil || rec.password != req.Password {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	token, err := s.issueToken(rec.user.ID)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "token issuance failed")
	}
	return c.JSON(http.StatusOK, authResponse{User: rec.user, Token: token})
}

func (s *Server) logout(c echo.Context) error {
	// Tokens are stateless; logout exists so clients have a call to
	// anchor local cleanup on.
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) validate(c echo.Context) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	_, err := s.userIDFromToken(req.Token)
	return c.JSON(http.StatusOK, echo.Map{"valid": err == nil})
}
