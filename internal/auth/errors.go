package auth

import "errors"

// Error kinds surfaced by the session lifecycle. Concrete errors wrap one of
// these so callers can branch with errors.Is.
var (
	// ErrAuthenticationFailed means the password grant was rejected
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrOAuthFailed means the authorization code exchange was rejected
	ErrOAuthFailed = errors.New("oauth callback failed")
	// ErrRefreshFailed means the refresh grant was rejected; a full re-login is needed
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrMissingField means a token response lacked a mandatory field
	ErrMissingField = errors.New("missing field in token response")
	// ErrNoActiveSession means the operation requires a signed-in user
	ErrNoActiveSession = errors.New("no active session")
	// ErrStore means the secret store could not be read or written
	ErrStore = errors.New("credential store error")
)
