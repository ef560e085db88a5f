package session

import (
	"context"

	"golang.org/x/oauth2"
)

type tokenSource struct {
	ctx context.Context
	m   *Manager
}

// TokenSource exposes the session as an oauth2.TokenSource, refreshing it
// when expired. Wrap it with oauth2.NewClient to call APIs as the signed-in
// user. Token fails with auth.ErrNoActiveSession when nobody is signed in.
//
// A refresh reply without expires_at leaves the session expired, so every
// Token call then performs another refresh grant; the manager logs a warning
// each time that happens.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return tokenSource{ctx: ctx, m: m}
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	s, err := ts.m.EnsureFresh(ts.ctx)
	if err != nil {
		return nil, err
	}
	return s.Token(), nil
}
