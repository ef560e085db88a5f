package auth

import (
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultTier is the plan assumed when the backend has no profile row
	DefaultTier = "free"
	// DefaultTokenQuota applies to both tokens_remaining and daily_limit when unknown
	DefaultTokenQuota int64 = 10000
)

// UserProfile is a denormalized snapshot of account and entitlement state
type UserProfile struct {
	ID              string `json:"id" yaml:"id"`
	Email           string `json:"email" yaml:"email"`
	Tier            string `json:"tier" yaml:"tier"`
	TokensRemaining int64  `json:"tokens_remaining" yaml:"tokens_remaining"`
	DailyLimit      int64  `json:"daily_limit" yaml:"daily_limit"`
}

// DefaultProfile returns the degraded profile used whenever the backend
// profile lookup fails or yields nothing.
func DefaultProfile() UserProfile {
	return UserProfile{
		Tier:            DefaultTier,
		TokensRemaining: DefaultTokenQuota,
		DailyLimit:      DefaultTokenQuota,
	}
}

// HasQuota reports whether the account can still spend tokens
func (p UserProfile) HasQuota() bool {
	return p.TokensRemaining > 0
}

// Session holds the credentials of the signed-in user
type Session struct {
	AccessToken  string      `json:"access_token" yaml:"-"`
	RefreshToken string      `json:"refresh_token" yaml:"-"`
	ExpiresAt    int64       `json:"expires_at" yaml:"expires_at"`
	User         UserProfile `json:"user" yaml:"user"`
}

// IsExpiredAt reports whether the access token is stale at now.
// An ExpiresAt of 0 means "already expired" whatever the clock says.
func (s *Session) IsExpiredAt(now time.Time) bool {
	return s.ExpiresAt == 0 || s.ExpiresAt < now.Unix()
}

// Clone returns an independent copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Token projects the session onto an oauth2.Token so it can back an
// oauth2.TokenSource or an oauth2-aware http.Client.
func (s *Session) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: s.RefreshToken,
	}
	if s.ExpiresAt > 0 {
		tok.Expiry = time.Unix(s.ExpiresAt, 0)
	} else {
		// zero Expiry means "never expires" to oauth2, so pin it in the past
		tok.Expiry = time.Unix(0, 1)
	}
	return tok
}
