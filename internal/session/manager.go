package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jamu/jamu-auth/internal/auth"
	"github.com/jamu/jamu-auth/internal/backend"
	"github.com/jamu/jamu-auth/internal/credstore"
)

// Backend is the subset of *backend.Client the manager drives
type Backend interface {
	LoginWithPassword(ctx context.Context, email, password string) (*backend.RawAuthResponse, error)
	ExchangeOAuthCode(ctx context.Context, code string) (*backend.RawAuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*backend.RawAuthResponse, error)
	BuildOAuthURL(provider, redirectURI string) string
	FetchProfile(ctx context.Context, accessToken string) auth.UserProfile
}

var _ Backend = (*backend.Client)(nil)

// Manager owns the process's single session and drives its lifecycle.
//
// Mutating operations (login, OAuth completion, refresh, profile refresh,
// restore, logout) are serialised by a single-writer lock held across their
// network calls, so at most one is in flight and the persisted record is
// never clobbered. Read accessors only take the state lock and never wait on
// the network.
type Manager struct {
	client Backend
	store  credstore.Store
	logger zerolog.Logger
	now    func() time.Time

	opMu sync.Mutex

	mu      sync.RWMutex
	current *auth.Session
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the lifecycle logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source used for expiry checks and fallbacks
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates an unauthenticated manager
func NewManager(client Backend, store credstore.Store, opts ...Option) *Manager {
	m := &Manager{
		client: client,
		store:  store,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login signs in with email and password. On any failure the current
// session is left untouched and the error is returned as-is.
func (m *Manager) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	resp, err := m.client.LoginWithPassword(ctx, email, password)
	if err != nil {
		m.logger.Info().Err(err).Msg("password login failed")
		return nil, err
	}
	s, err := m.establish(ctx, resp, m.loginExpiry(), "")
	if err != nil {
		return nil, err
	}
	m.logger.Info().Str("user_id", s.User.ID).Str("tier", s.User.Tier).Msg("signed in")
	return s, nil
}

// StartOAuth returns the URL the user should open to sign in with provider
func (m *Manager) StartOAuth(provider, redirectURI string) string {
	return m.client.BuildOAuthURL(provider, redirectURI)
}

// CompleteOAuth finishes an OAuth sign-in with the code from the redirect
func (m *Manager) CompleteOAuth(ctx context.Context, code string) (*auth.Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	resp, err := m.client.ExchangeOAuthCode(ctx, code)
	if err != nil {
		m.logger.Info().Err(err).Msg("oauth code exchange failed")
		return nil, err
	}
	s, err := m.establish(ctx, resp, m.loginExpiry(), "")
	if err != nil {
		return nil, err
	}
	m.logger.Info().Str("user_id", s.User.ID).Str("tier", s.User.Tier).Msg("signed in via oauth")
	return s, nil
}

// Refresh renews the access token. It fails with auth.ErrNoActiveSession
// when nobody is signed in; an auth.ErrRefreshFailed error means the user
// has to sign in again.
func (m *Manager) Refresh(ctx context.Context) (*auth.Session, error) {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	return m.refreshLocked(ctx)
}

// EnsureFresh returns the current session, refreshing it first when it has
// expired. Concurrent callers that queue behind a refresh reuse its result.
func (m *Manager) EnsureFresh(ctx context.Context) (*auth.Session, error) {
	if s := m.Current(); s != nil && !s.IsExpiredAt(m.now()) {
		return s, nil
	}

	m.opMu.Lock()
	defer m.opMu.Unlock()

	// re-check: another caller may have refreshed while we waited
	if s := m.Current(); s != nil && !s.IsExpiredAt(m.now()) {
		return s, nil
	}
	return m.refreshLocked(ctx)
}

// caller must hold opMu
func (m *Manager) refreshLocked(ctx context.Context) (*auth.Session, error) {
	cur := m.Current()
	if cur == nil {
		return nil, auth.ErrNoActiveSession
	}

	resp, err := m.client.Refresh(ctx, cur.RefreshToken)
	if err != nil {
		m.logger.Info().Err(err).Msg("token refresh failed")
		return nil, err
	}

	// TODO: a refresh reply without expires_at yields an already-expired
	// session (0) while the other grants assume one hour; confirm the intended
	// backend contract before changing it.
	s, err := m.establish(ctx, resp, 0, cur.RefreshToken)
	if err != nil {
		return nil, err
	}
	if s.IsExpiredAt(m.now()) {
		m.logger.Warn().Int64("expires_at", s.ExpiresAt).Msg("refreshed session is already expired, the next EnsureFresh will refresh again")
	} else {
		m.logger.Debug().Int64("expires_at", s.ExpiresAt).Msg("session refreshed")
	}
	return s, nil
}

// RefreshProfile re-reads entitlement data for the signed-in user without
// renewing tokens. It is a no-op when unauthenticated and never fails.
func (m *Manager) RefreshProfile(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	cur := m.Current()
	if cur == nil {
		return
	}

	cur.User = m.client.FetchProfile(ctx, cur.AccessToken)
	if err := credstore.SaveSession(m.store, cur); err != nil {
		m.logger.Warn().Err(err).Msg("failed to persist refreshed profile")
	}
	m.set(cur)
}

// RestoreFromStore rebuilds the session from the secret store without any
// network access and installs it as current. It returns nil when a slot is
// missing or the stored data is malformed; the restored tokens are not
// validated and may be expired.
func (m *Manager) RestoreFromStore() *auth.Session {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	s, err := credstore.LoadSession(m.store)
	if err != nil {
		m.logger.Debug().Err(err).Msg("no stored session")
		return nil
	}
	if s.AccessToken == "" {
		m.logger.Debug().Msg("stored session has empty access token")
		return nil
	}
	m.set(s)
	return s.Clone()
}

// Logout forgets the session and deletes every persisted slot. Delete
// failures are logged and ignored; the manager always ends unauthenticated.
func (m *Manager) Logout() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if err := credstore.ClearSession(m.store); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear stored credentials")
	}
	m.set(nil)
	m.logger.Info().Msg("signed out")
}

// IsAuthenticated reports whether a session is held
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// IsExpired is true when there is no session or its access token is stale
func (m *Manager) IsExpired() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return true
	}
	return m.current.IsExpiredAt(m.now())
}

// CurrentUser returns a copy of the signed-in user's profile, or nil
func (m *Manager) CurrentUser() *auth.UserProfile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	u := m.current.User
	return &u
}

// CurrentAccessToken returns the access token, if any
func (m *Manager) CurrentAccessToken() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", false
	}
	return m.current.AccessToken, true
}

// Current returns a copy of the session, or nil when unauthenticated
func (m *Manager) Current() *auth.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Clone()
}

// establish turns a grant response into a persisted, installed session.
// Only a successful write to the store replaces the current session.
func (m *Manager) establish(ctx context.Context, resp *backend.RawAuthResponse, expiryFallback int64, previousRefresh string) (*auth.Session, error) {
	refreshToken := resp.RefreshToken
	if refreshToken == "" {
		refreshToken = previousRefresh
	}

	s := &auth.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    resp.ExpiresAtOr(expiryFallback),
		User:         m.client.FetchProfile(ctx, resp.AccessToken),
	}

	if err := credstore.SaveSession(m.store, s); err != nil {
		m.logger.Error().Err(err).Msg("failed to persist session")
		m.rollbackStore()
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}
	m.set(s)
	return s.Clone(), nil
}

// rollbackStore puts the persisted record back in line with the in-memory
// session after a partial write, so a restart never restores a token pair
// that was never issued together. Caller must hold opMu.
func (m *Manager) rollbackStore() {
	if prev := m.Current(); prev != nil {
		if err := credstore.SaveSession(m.store, prev); err != nil {
			m.logger.Warn().Err(err).Msg("failed to restore previous stored session")
		}
		return
	}
	if err := credstore.ClearSession(m.store); err != nil {
		m.logger.Warn().Err(err).Msg("failed to clear partially stored session")
	}
}

func (m *Manager) loginExpiry() int64 {
	return m.now().Add(backend.DefaultSessionLifetime).Unix()
}

func (m *Manager) set(s *auth.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = s
}
