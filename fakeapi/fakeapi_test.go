package fakeapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"

	"adaboards/domain"
)

type session struct {
	t     *testing.T
	srv   *httptest.Server
	token string
}

func newSession(t *testing.T) *session {
	t.Helper()
	srv := httptest.NewServer(New().Handler())
	t.Cleanup(srv.Close)
	return &session{t: t, srv: srv}
}

func (s *session) do(method, path string, body any, out any) int {
	s.t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.ConfigStd.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
	}
	req, err := http.NewRequest(method, s.srv.URL+"/api"+path, bytes.NewReader(payload))
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		s.t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := sonic.ConfigStd.NewDecoder(resp.Body).Decode(out); err != nil {
			s.t.Fatalf("decode response: %v", err)
		}
	}
	return resp.StatusCode
}

func (s *session) register(email, name string) domain.User {
	s.t.Helper()
	var resp struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}
	body := map[string]string{"email": email, "password": "hunter22345", "name": name}
	if code := s.do(http.MethodPost, "/auth/register", body, &resp); code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d", email, code)
	}
	s.token = resp.Token
	return resp.User
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	s := newSession(t)
	s.register("ada@example.com", "Ada")

	body := map[string]string{"email": "ada@example.com", "password": "hunter22345", "name": "Imposter"}
	if code := s.do(http.MethodPost, "/auth/register", body, nil); code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newSession(t)
	if code := s.do(http.MethodGet, "/boards", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestBoardCreatorIsSoleOwner(t *testing.T) {
	s := newSession(t)
	ada := s.register("ada@example.com", "Ada")
	grace := s.register("grace@example.com", "Grace")
	s.token = "" // re-auth as ada
	var login struct {
		Token string `json:"token"`
	}
	s.do(http.MethodPost, "/auth/login", map[string]string{"email": "ada@example.com", "password": "hunter22345"}, &login)
	s.token = login.Token

	var board domain.Board
	if code := s.do(http.MethodPost, "/boards", map[string]string{"name": "b"}, &board); code != http.StatusCreated {
		t.Fatalf("create board: %d", code)
	}

	var members []domain.Member
	s.do(http.MethodGet, "/boards/"+board.ID+"/members", nil, &members)
	if len(members) != 1 || members[0].Role != domain.RoleOwner || members[0].UserID != ada.ID {
		t.Fatalf("creator must be sole owner: %#v", members)
	}

	// No path may create a second OWNER or demote the existing one.
	addOwner := map[string]any{"userId": grace.ID, "role": domain.RoleOwner}
	if code := s.do(http.MethodPost, "/boards/"+board.ID+"/members", addOwner, nil); code != http.StatusBadRequest {
		t.Fatalf("second owner must be rejected, got %d", code)
	}
	s.do(http.MethodPost, "/boards/"+board.ID+"/members", map[string]any{"userId": grace.ID, "role": domain.RoleMember}, nil)
	if code := s.do(http.MethodPatch, "/boards/"+board.ID+"/members/"+grace.ID, map[string]any{"role": domain.RoleOwner}, nil); code != http.StatusBadRequest {
		t.Fatalf("owner transfer must be rejected, got %d", code)
	}
	if code := s.do(http.MethodPatch, "/boards/"+board.ID+"/members/"+ada.ID, map[string]any{"role": domain.RoleMember}, nil); code != http.StatusBadRequest {
		t.Fatalf("owner demotion must be rejected, got %d", code)
	}
	if code := s.do(http.MethodDelete, "/boards/"+board.ID+"/members/"+ada.ID, nil, nil); code != http.StatusBadRequest {
		t.Fatalf("owner removal must be rejected, got %d", code)
	}
}

func TestPlainMemberCannotManage(t *testing.T) {
	s := newSession(t)
	s.register("ada@example.com", "Ada")
	adaToken := s.token
	grace := s.register("grace@example.com", "Grace")
	graceToken := s.token
	eve := s.register("eve@example.com", "Eve")

	s.token = adaToken
	var board domain.Board
	s.do(http.MethodPost, "/boards", map[string]string{"name": "b"}, &board)
	s.do(http.MethodPost, "/boards/"+board.ID+"/members", map[string]any{"userId": grace.ID, "role": domain.RoleMember}, nil)

	s.token = graceToken
	add := map[string]any{"userId": eve.ID, "role": domain.RoleMember}
	if code := s.do(http.MethodPost, "/boards/"+board.ID+"/members", add, nil); code != http.StatusForbidden {
		t.Fatalf("MEMBER must not manage members, got %d", code)
	}
	// Leaving the board on your own is allowed.
	if code := s.do(http.MethodDelete, "/boards/"+board.ID+"/members/"+grace.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("self-removal must be allowed, got %d", code)
	}
}

func TestTaskStatusValidated(t *testing.T) {
	s := newSession(t)
	s.register("ada@example.com", "Ada")
	var board domain.Board
	s.do(http.MethodPost, "/boards", map[string]string{"name": "b"}, &board)

	bad := map[string]any{"title": "t", "status": "ARCHIVED"}
	if code := s.do(http.MethodPost, "/boards/"+board.ID+"/tasks", bad, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid status must be rejected, got %d", code)
	}

	var task domain.Task
	good := map[string]any{"title": "t", "status": domain.StatusTodo}
	if code := s.do(http.MethodPost, "/boards/"+board.ID+"/tasks", good, &task); code != http.StatusCreated {
		t.Fatalf("create task: %d", code)
	}
	if task.BoardID != board.ID {
		t.Fatalf("task must carry its board id: %+v", task)
	}

	patch := map[string]any{"status": "NOPE"}
	if code := s.do(http.MethodPatch, "/boards/"+board.ID+"/tasks/"+task.ID, patch, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid patch status must be rejected, got %d", code)
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newSession(t)
	s.register("ada@example.com", "Ada")

	var resp struct {
		Valid bool `json:"valid"`
	}
	s.do(http.MethodPost, "/auth/validate", map[string]string{"token": s.token}, &resp)
	if !resp.Valid {
		t.Fatal("fresh token must validate")
	}
	s.do(http.MethodPost, "/auth/validate", map[string]string{"token": "garbage"}, &resp)
	if resp.Valid {
		t.Fatal("garbage token must not validate")
	}
}

func TestBoardIsolationBetweenUsers(t *testing.T) {
	s := newSession(t)
	s.register("ada@example.com", "Ada")
	var board domain.Board
	s.do(http.MethodPost, "/boards", map[string]string{"name": "private"}, &board)

	s.register("grace@example.com", "Grace")
	var boards []domain.Board
	s.do(http.MethodGet, "/boards", nil, &boards)
	if len(boards) != 0 {
		t.Fatalf("grace must not see ada's boards: %#v", boards)
	}
	if code := s.do(http.MethodGet, "/boards/"+board.ID, nil, nil); code != http.StatusForbidden {
		t.Fatalf("non-member access must be forbidden, got %d", code)
	}
}
