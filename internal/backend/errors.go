package backend

import (
	"fmt"

	"github.com/jamu/jamu-auth/internal/auth"
)

// APIError is a non-success reply from a grant call. Body carries the
// backend's raw error text so it can be shown to the user.
type APIError struct {
	Kind       error
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d): %s", e.Kind, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// MissingFieldError means a token response lacked a mandatory field
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing %s in token response", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == auth.ErrMissingField
}

func grantErrorKind(grantType string) error {
	switch grantType {
	case GrantAuthorizationCode:
		return auth.ErrOAuthFailed
	case GrantRefreshToken:
		return auth.ErrRefreshFailed
	default:
		return auth.ErrAuthenticationFailed
	}
}
