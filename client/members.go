package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"adaboards/domain"
	"adaboards/gateway"
)

// minSearchLength gates user search: shorter queries never reach the
// network and resolve to an empty result.
const minSearchLength = 2

// Members fetches a board's member list and replaces that scope.
func (c *Client) Members(ctx context.Context, boardID string) ([]domain.Member, error) {
	var members []domain.Member
	if err := c.withRetry(ctx, readRetries, func() error {
		members = members[:0]
		return c.gw.Do(ctx, http.MethodGet, "/boards/"+boardID+"/members", nil, &members)
	}); err != nil {
		return nil, c.authFailed(err)
	}
	c.members.Set(memberScope(boardID), members)
	return members, nil
}

// AddMember invites a user onto a board. Confirm-after. The OWNER role
// is assigned at board creation only and rejected here before any call.
func (c *Client) AddMember(ctx context.Context, boardID, userID string, role domain.Role) (domain.Member, error) {
	if !role.Valid() {
		return domain.Member{}, &ValidationError{Field: "role", Reason: "unknown role"}
	}
	if role == domain.RoleOwner {
		return domain.Member{}, &ValidationError{Field: "role", Reason: "a board has exactly one owner"}
	}
	body := map[string]any{"userId": userID, "role": role}
	var member domain.Member
	if err := c.gw.Do(ctx, http.MethodPost, "/boards/"+boardID+"/members", body, &member); err != nil {
		return domain.Member{}, c.authFailed(err)
	}
	c.members.Upsert(memberScope(boardID), member)
	return member, nil
}

// UpdateMemberRole changes a member's role between MAINTAINER and
// MEMBER. Confirm-after; the role patch is idempotent, so it gets a
// retry.
func (c *Client) UpdateMemberRole(ctx context.Context, boardID, userID string, role domain.Role) (domain.Member, error) {
	if !role.Valid() {
		return domain.Member{}, &ValidationError{Field: "role", Reason: "unknown role"}
	}
	if role == domain.RoleOwner {
		return domain.Member{}, &ValidationError{Field: "role", Reason: "ownership is not transferable"}
	}
	var member domain.Member
	if err := c.withRetry(ctx, writeRetries, func() error {
		return c.gw.Do(ctx, http.MethodPatch, "/boards/"+boardID+"/members/"+userID,
			map[string]domain.Role{"role": role}, &member)
	}); err != nil {
		return domain.Member{}, c.authFailed(err)
	}
	c.members.Upsert(memberScope(boardID), member)
	return member, nil
}

// RemoveMember takes a user off a board optimistically, restoring the
// member list on failure.
func (c *Client) RemoveMember(ctx context.Context, boardID, userID string) error {
	key := uuid.NewString()
	err := runOptimistic(ctx, optimisticOp[domain.Member]{
		store: c.members,
		scope: memberScope(boardID),
		apply: func() { c.members.Remove(memberScope(boardID), userID) },
		call: func(ctx context.Context) error {
			return c.withRetry(ctx, writeRetries, func() error {
				return c.gw.Do(ctx, http.MethodDelete, "/boards/"+boardID+"/members/"+userID, nil, nil,
					gateway.WithIdempotencyKey(key))
			})
		},
	})
	if err != nil {
		return c.authFailed(err)
	}
	return nil
}

// SearchUsers looks up users by free text. Queries under two runes
// resolve empty without a network call. A newer search supersedes any
// in-flight one: the older call is cancelled, and if its response still
// arrives it is not applied to the cache.
func (c *Client) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minSearchLength {
		return []domain.User{}, nil
	}

	ctx, gen := c.supersedeSearch(ctx)

	var users []domain.User
	err := c.gw.Do(ctx, http.MethodGet, "/users/search?q="+url.QueryEscape(query), nil, &users)
	if err != nil {
		return nil, c.authFailed(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	if c.currentSearch(gen) {
		c.users.Set(searchScope(query), users)
	}
	return users, nil
}

// supersedeSearch cancels the previous in-flight search and registers
// this one as current.
func (c *Client) supersedeSearch(ctx context.Context) (context.Context, uint64) {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if c.searchCancel != nil {
		c.searchCancel()
	}
	c.searchCancel = cancel
	c.searchGen++
	gen := c.searchGen
	c.mu.Unlock()
	return ctx, gen
}

func (c *Client) currentSearch(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen == c.searchGen
}
