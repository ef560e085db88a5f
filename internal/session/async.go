package session

import (
	"context"
	"errors"

	"github.com/jamu/jamu-auth/internal/auth"
	"github.com/jamu/jamu-auth/internal/backend"
)

// Result is the outcome of an asynchronously submitted operation
type Result struct {
	Session *auth.Session
	Err     error
}

// SubmitLogin runs Login on its own goroutine so a UI event loop is never
// blocked. The returned channel yields exactly one Result and is then closed.
// Disabling the submit control until the result arrives is the caller's job.
func (m *Manager) SubmitLogin(ctx context.Context, email, password string) <-chan Result {
	return submit(func() (*auth.Session, error) {
		return m.Login(ctx, email, password)
	})
}

// SubmitOAuth runs CompleteOAuth on its own goroutine, like SubmitLogin
func (m *Manager) SubmitOAuth(ctx context.Context, code string) <-chan Result {
	return submit(func() (*auth.Session, error) {
		return m.CompleteOAuth(ctx, code)
	})
}

// SubmitRefresh runs Refresh on its own goroutine, like SubmitLogin
func (m *Manager) SubmitRefresh(ctx context.Context) <-chan Result {
	return submit(func() (*auth.Session, error) {
		return m.Refresh(ctx)
	})
}

func submit(op func() (*auth.Session, error)) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		s, err := op()
		ch <- Result{Session: s, Err: err}
	}()
	return ch
}

// ErrorMessage renders an error from the lifecycle API as the one-line text
// a login form shows inline.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *backend.APIError
	switch {
	case errors.Is(err, auth.ErrNoActiveSession):
		return "You are not signed in"
	case errors.Is(err, auth.ErrRefreshFailed):
		return "Your session has expired, please sign in again"
	case errors.Is(err, auth.ErrMissingField):
		return "Login failed: the server returned an unexpected response"
	case errors.Is(err, auth.ErrStore):
		return "Login failed: credentials could not be saved to the system keychain"
	case errors.As(err, &apiErr):
		return "Login failed: " + apiErr.Error()
	case errors.Is(err, context.Canceled):
		return "Login cancelled"
	default:
		return "Login failed: " + err.Error()
	}
}
