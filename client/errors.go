package client

import (
	"errors"
	"fmt"

	"adaboards/gateway"
)

// ErrStaleToken reports that the session token expired or was rejected.
// The token has already been cleared; callers should send the user back
// to login rather than display a raw error.
var ErrStaleToken = errors.New("client: session expired")

// ErrUnknownTask reports a move on a task the client has never seen.
var ErrUnknownTask = errors.New("client: unknown task")

// ValidationError is malformed user input, detected before any network
// call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// authFailed maps a 401 into ErrStaleToken after clearing the stored
// token; every other error passes through untouched.
func (c *Client) authFailed(err error) error {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Status == 401 {
		c.tokens.ClearToken()
		return ErrStaleToken
	}
	return err
}
