package client

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"

	"adaboards/domain"
	"adaboards/persist"
)

// emailShape is deliberately loose; the server owns real validation.
// The client only catches obvious typos before spending a round trip.
var emailShape = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 8

type authResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

// Register creates an account and signs the new user in.
func (c *Client) Register(ctx context.Context, email, password, confirm, name string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailShape.MatchString(email) {
		return domain.User{}, &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	if len(password) < minPasswordLength {
		return domain.User{}, &ValidationError{Field: "password", Reason: "must be at least 8 characters"}
	}
	if password != confirm {
		return domain.User{}, &ValidationError{Field: "confirmPassword", Reason: "passwords do not match"}
	}
	if strings.TrimSpace(name) == "" {
		return domain.User{}, &ValidationError{Field: "name", Reason: "must not be empty"}
	}

	body := map[string]string{"email": email, "password": password, "name": strings.TrimSpace(name)}
	var resp authResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return domain.User{}, err
	}
	c.startSession(resp)
	return resp.User, nil
}

// Login authenticates and stores the session token.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailShape.MatchString(email) {
		return domain.User{}, &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	if password == "" {
		return domain.User{}, &ValidationError{Field: "password", Reason: "must not be empty"}
	}

	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.gw.Do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return domain.User{}, err
	}
	c.startSession(resp)
	return resp.User, nil
}

// Logout tells the server best-effort and wipes all local session
// state either way.
func (c *Client) Logout(ctx context.Context) {
	if err := c.gw.Do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		c.log.WithError(err).Debug("client.logout.remote_failed")
	}
	c.clearLocal()
}

// ValidateSession checks the stored token against the server. It
// returns ErrStaleToken when there is no live session; the token is
// cleared on the way out.
func (c *Client) ValidateSession(ctx context.Context) error {
	tok, ok := c.tokens.Token()
	if !ok {
		return ErrStaleToken
	}
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := c.withRetry(ctx, readRetries, func() error {
		return c.gw.Do(ctx, http.MethodPost, "/auth/validate", map[string]string{"token": tok}, &resp)
	}); err != nil {
		return c.authFailed(err)
	}
	if !resp.Valid {
		c.tokens.ClearToken()
		return ErrStaleToken
	}
	return nil
}

func (c *Client) startSession(resp authResponse) {
	if err := c.tokens.SetToken(resp.Token, c.tokenTTL); err != nil {
		c.log.WithError(err).Warn("client.session.token_store_failed")
	}
	if data, err := sonic.ConfigStd.Marshal(resp.User); err == nil {
		if err := c.store.Put(context.Background(), persist.KeyUser, data); err != nil {
			c.log.WithError(err).Warn("client.session.user_store_failed")
		}
	}
	c.mu.Lock()
	user := resp.User
	c.user = &user
	c.mu.Unlock()
}
