package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// RawAuthResponse is the token endpoint reply reduced to the fields the
// session lifecycle needs.
type RawAuthResponse struct {
	AccessToken  string
	RefreshToken string // empty when a refresh response omitted it
	ExpiresAt    *int64 // nil when the backend sent none
}

// ExpiresAtOr returns the backend expiry, or fallback when it was absent
func (r *RawAuthResponse) ExpiresAtOr(fallback int64) int64 {
	if r.ExpiresAt == nil {
		return fallback
	}
	return *r.ExpiresAt
}

type tokenEnvelope struct {
	AccessToken  *string         `json:"access_token"`
	RefreshToken *string         `json:"refresh_token"`
	ExpiresAt    json.RawMessage `json:"expires_at"`
}

func parseAuthResponse(body []byte, requireRefresh bool) (*RawAuthResponse, error) {
	var env tokenEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if env.AccessToken == nil || *env.AccessToken == "" {
		return nil, &MissingFieldError{Field: "access_token"}
	}
	if requireRefresh && env.RefreshToken == nil {
		return nil, &MissingFieldError{Field: "refresh_token"}
	}

	out := &RawAuthResponse{AccessToken: *env.AccessToken}
	if env.RefreshToken != nil {
		out.RefreshToken = *env.RefreshToken
	}
	if n, ok := parseInt(env.ExpiresAt); ok {
		out.ExpiresAt = &n
	}
	return out, nil
}

// parseInt accepts only a JSON integer; anything else counts as absent
func parseInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
