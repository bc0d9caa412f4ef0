package persist

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// TokenStore owns the persisted authentication token. A token moves
// ABSENT -> VALID on SetToken and VALID -> ABSENT when its recorded
// expiry passes (detected lazily on the next read) or on ClearToken.
// An expired token never becomes valid again without a new SetToken.
type TokenStore struct {
	store Store
	log   *log.Logger
	now   func() time.Time
}

type tokenDoc struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NewTokenStore creates a token store over the given durable store.
func NewTokenStore(store Store, logger *log.Logger) *TokenStore {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &TokenStore{store: store, log: logger, now: time.Now}
}

// SetToken records the token with the given time-to-live.
func (t *TokenStore) SetToken(token string, ttl time.Duration) error {
	doc := tokenDoc{Token: token, ExpiresAt: t.now().Add(ttl)}
	data, err := sonic.ConfigStd.Marshal(doc)
	if err != nil {
		return err
	}
	return t.store.Put(context.Background(), KeyToken, data)
}

// Token returns the stored token if it has not passed its expiry. An
// expired token is cleared from storage and reported absent.
func (t *TokenStore) Token() (string, bool) {
	data, err := t.store.Get(context.Background(), KeyToken)
	if err != nil {
		if err != ErrNotFound {
			t.log.WithError(err).Warn("token.read_failed")
		}
		return "", false
	}
	var doc tokenDoc
	if err := sonic.ConfigStd.Unmarshal(data, &doc); err != nil {
		t.log.WithError(err).Warn("token.corrupt")
		t.ClearToken()
		return "", false
	}
	if !t.now().Before(doc.ExpiresAt) {
		t.ClearToken()
		return "", false
	}
	return doc.Token, true
}

// ClearToken removes any stored token.
func (t *TokenStore) ClearToken() {
	if err := t.store.Delete(context.Background(), KeyToken); err != nil {
		t.log.WithError(err).Warn("token.clear_failed")
	}
}
