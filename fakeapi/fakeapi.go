// Package fakeapi is an in-memory implementation of the Adaboards REST
// API. It backs the client test suite and the local dev server, so the
// client can be exercised end to end without a real deployment.
package fakeapi

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"adaboards/domain"
)

const defaultTokenTTL = time.Hour

// Server holds the in-memory state behind the API.
type Server struct {
	echo     *echo.Echo
	secret   []byte
	tokenTTL time.Duration
	log      *log.Logger
	now      func() time.Time

	failStatus atomic.Int64

	mu           sync.Mutex
	users        map[string]*userRecord
	usersByEmail map[string]string
	boards       map[string]*domain.Board
	boardOrder   []string
	tasks        map[string][]*domain.Task   // board id -> tasks in creation order
	members      map[string][]*domain.Member // board id -> members in join order
}

type userRecord struct {
	user     domain.User
	password string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) { s.log = logger }
}

// WithSecret sets the HS256 signing secret for issued tokens.
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// New creates an empty server with all routes registered under /api.
func New(opts ...Option) *Server {
	s := &Server{
		secret:       []byte("fakeapi-dev-secret"),
		tokenTTL:     defaultTokenTTL,
		log:          log.StandardLogger(),
		now:          time.Now,
		users:        make(map[string]*userRecord),
		usersByEmail: make(map[string]string),
		boards:       make(map[string]*domain.Board),
		tasks:        make(map[string][]*domain.Task),
		members:      make(map[string][]*domain.Member),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(s.failureMiddleware)

	g := e.Group("/api")
	g.POST("/auth/register", s.register)
	g.POST("/auth/login", s.login)
	g.POST("/auth/logout", s.logout)
	g.POST("/auth/validate", s.validate)

	g.GET("/boards", s.listBoards, s.requireAuth)
	g.POST("/boards", s.createBoard, s.requireAuth)
	g.GET("/boards/:id", s.getBoard, s.requireAuth)
	g.PUT("/boards/:id", s.updateBoard, s.requireAuth)
	g.DELETE("/boards/:id", s.deleteBoard, s.requireAuth)

	g.GET("/boards/:id/tasks", s.listTasks, s.requireAuth)
	g.POST("/boards/:id/tasks", s.createTask, s.requireAuth)
	g.PATCH("/boards/:id/tasks/:tid", s.patchTask, s.requireAuth)
	g.DELETE("/boards/:id/tasks/:tid", s.deleteTask, s.requireAuth)

	g.GET("/boards/:id/members", s.listMembers, s.requireAuth)
	g.POST("/boards/:id/members", s.addMember, s.requireAuth)
	g.PATCH("/boards/:id/members/:uid", s.patchMember, s.requireAuth)
	g.DELETE("/boards/:id/members/:uid", s.removeMember, s.requireAuth)

	g.GET("/users/search", s.searchUsers, s.requireAuth)

	s.echo = e
	return s
}

// Handler exposes the server as an http.Handler for httptest.
func (s *Server) Handler() http.Handler { return s.echo }

// Echo exposes the underlying echo instance for the dev server binary.
func (s *Server) Echo() *echo.Echo { return s.echo }

// FailNextWith makes the next request short-circuit with the given
// status and an {"error": …} body. Used by tests to exercise rollback.
func (s *Server) FailNextWith(status int) {
	s.failStatus.Store(int64(status))
}

func (s *Server) failureMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if status := s.failStatus.Swap(0); status != 0 {
			return fail(c, int(status), "injected failure")
		}
		return next(c)
	}
}

// requireAuth validates the bearer token and stashes the user id in the
// context.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := s.userIDFromHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return fail(c, http.StatusUnauthorized, err.Error())
		}
		c.Set("userID", userID)
		return next(c)
	}
}

func (s *Server) userIDFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if header == "" {
		return "", errMissingAuthorization
	}
	if !strings.HasPrefix(header, prefix) {
		return "", errBadAuthorization
	}
	return s.userIDFromToken(header[len(prefix):])
}

func (s *Server) userIDFromToken(raw string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}))
	token, err := parser.Parse(raw, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", errBadAuthorization
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errBadAuthorization
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errBadAuthorization
	}

	s.mu.Lock()
	_, known := s.users[sub]
	s.mu.Unlock()
	if !known {
		return "", errUnknownUser
	}
	return sub, nil
}

func (s *Server) issueToken(userID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}
