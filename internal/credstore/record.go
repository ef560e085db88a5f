package credstore

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jamu/jamu-auth/internal/auth"
)

// tokenData is the JSON blob kept in the token-data slot
type tokenData struct {
	ExpiresAt int64            `json:"expires_at"`
	User      auth.UserProfile `json:"user"`
}

// SaveSession writes the three-slot projection of a session
func SaveSession(store Store, s *auth.Session) error {
	data, err := json.Marshal(tokenData{ExpiresAt: s.ExpiresAt, User: s.User})
	if err != nil {
		return &StoreError{Op: "set", Slot: SlotTokenData, Err: fmt.Errorf("failed to marshal token data: %w", err)}
	}

	if err := store.Set(SlotAccessToken, s.AccessToken); err != nil {
		return err
	}
	if err := store.Set(SlotRefreshToken, s.RefreshToken); err != nil {
		return err
	}
	return store.Set(SlotTokenData, string(data))
}

// storedProfile mirrors auth.UserProfile with every field required
type storedProfile struct {
	ID              *string `json:"id"`
	Email           *string `json:"email"`
	Tier            *string `json:"tier"`
	TokensRemaining *int64  `json:"tokens_remaining"`
	DailyLimit      *int64  `json:"daily_limit"`
}

func (p *storedProfile) profile() (auth.UserProfile, error) {
	missing := func(field string) (auth.UserProfile, error) {
		return auth.UserProfile{}, fmt.Errorf("token data user is missing %q", field)
	}
	switch {
	case p.ID == nil:
		return missing("id")
	case p.Email == nil:
		return missing("email")
	case p.Tier == nil:
		return missing("tier")
	case p.TokensRemaining == nil:
		return missing("tokens_remaining")
	case p.DailyLimit == nil:
		return missing("daily_limit")
	}
	return auth.UserProfile{
		ID:              *p.ID,
		Email:           *p.Email,
		Tier:            *p.Tier,
		TokensRemaining: *p.TokensRemaining,
		DailyLimit:      *p.DailyLimit,
	}, nil
}

// LoadSession rebuilds a session from the store without any network access.
// Any absent slot yields an error matching ErrNotFound; a malformed
// token-data blob, including a user with missing fields, yields a *StoreError.
func LoadSession(store Store) (*auth.Session, error) {
	accessToken, err := store.Get(SlotAccessToken)
	if err != nil {
		return nil, err
	}
	refreshToken, err := store.Get(SlotRefreshToken)
	if err != nil {
		return nil, err
	}
	raw, err := store.Get(SlotTokenData)
	if err != nil {
		return nil, err
	}

	var data struct {
		ExpiresAt *int64            `json:"expires_at"`
		User      *storedProfile `json:"user"`
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, &StoreError{Op: "get", Slot: SlotTokenData, Err: fmt.Errorf("failed to parse token data: %w", err)}
	}
	if data.User == nil {
		return nil, &StoreError{Op: "get", Slot: SlotTokenData, Err: errors.New("token data is missing user")}
	}

	user, err := data.User.profile()
	if err != nil {
		return nil, &StoreError{Op: "get", Slot: SlotTokenData, Err: err}
	}

	s := &auth.Session{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}
	if data.ExpiresAt != nil {
		s.ExpiresAt = *data.ExpiresAt
	}
	return s, nil
}

// ClearSession deletes every slot. Missing slots are not failures; the
// returned error joins whatever else went wrong and callers doing logout may
// ignore it.
func ClearSession(store Store) error {
	var errs []error
	for _, slot := range Slots {
		if err := store.Delete(slot); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
