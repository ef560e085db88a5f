package credstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/jamu/jamu-auth/internal/auth"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(SlotAccessToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(SlotAccessToken, "secret"))
	v, err := store.Get(SlotAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "secret", v)

	require.NoError(t, store.Delete(SlotAccessToken))
	assert.ErrorIs(t, store.Delete(SlotAccessToken), ErrNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	store := NewKeyringStore("")
	assert.Equal(t, DefaultService, store.Service())

	_, err := store.Get(SlotRefreshToken)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(SlotRefreshToken, "refresh"))
	v, err := store.Get(SlotRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh", v)

	require.NoError(t, store.Delete(SlotRefreshToken))
	assert.ErrorIs(t, store.Delete(SlotRefreshToken), ErrNotFound)
}

func TestKeyringStore_BackendFailure(t *testing.T) {
	keyring.MockInitWithError(errors.New("keychain locked"))
	t.Cleanup(keyring.MockInit)

	store := NewKeyringStore("jamu-test")
	err := store.Set(SlotAccessToken, "secret")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrStore)
	assert.NotErrorIs(t, err, ErrNotFound)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "set", storeErr.Op)
	assert.Equal(t, SlotAccessToken, storeErr.Slot)
	assert.Contains(t, err.Error(), "keychain locked")
}

func TestSessionRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	want := &auth.Session{
		AccessToken:  "access-123",
		RefreshToken: "refresh-456",
		ExpiresAt:    1_900_000_000,
		User: auth.UserProfile{
			ID:              "7f1c",
			Email:           "dev@jamu.test",
			Tier:            "pro",
			TokensRemaining: 499_000,
			DailyLimit:      500_000,
		},
	}

	require.NoError(t, SaveSession(store, want))
	assert.Equal(t, 3, store.Len())

	got, err := LoadSession(store)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadSession_Failures(t *testing.T) {
	tests := []struct {
		name      string
		slots     map[string]string
		notFound  bool
		storeFail bool
	}{
		{
			name:     "Empty store",
			slots:    map[string]string{},
			notFound: true,
		},
		{
			name:     "Missing refresh token",
			slots:    map[string]string{SlotAccessToken: "a", SlotTokenData: `{"expires_at":1,"user":{"id":"u","email":"e","tier":"free","tokens_remaining":1,"daily_limit":2}}`},
			notFound: true,
		},
		{
			name:     "Missing token data",
			slots:    map[string]string{SlotAccessToken: "a", SlotRefreshToken: "r"},
			notFound: true,
		},
		{
			name:      "Malformed token data",
			slots:     map[string]string{SlotAccessToken: "a", SlotRefreshToken: "r", SlotTokenData: "{not json"},
			storeFail: true,
		},
		{
			name:      "User without fields",
			slots:     map[string]string{SlotAccessToken: "a", SlotRefreshToken: "r", SlotTokenData: `{"expires_at":5,"user":{}}`},
			storeFail: true,
		},
		{
			name: "User missing quota",
			slots: map[string]string{SlotAccessToken: "a", SlotRefreshToken: "r",
				SlotTokenData: `{"expires_at":5,"user":{"id":"u","email":"e","tier":"pro","tokens_remaining":3}}`},
			storeFail: true,
		},
		{
			name:      "Token data without user",
			slots:     map[string]string{SlotAccessToken: "a", SlotRefreshToken: "r", SlotTokenData: `{"expires_at":5}`},
			storeFail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryStore()
			for k, v := range tt.slots {
				require.NoError(t, store.Set(k, v))
			}

			s, err := LoadSession(store)
			assert.Nil(t, s)
			require.Error(t, err)
			if tt.notFound {
				assert.ErrorIs(t, err, ErrNotFound)
			}
			if tt.storeFail {
				assert.ErrorIs(t, err, auth.ErrStore)
			}
		})
	}
}

func TestLoadSession_MissingExpiryIsZero(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(SlotAccessToken, "a"))
	require.NoError(t, store.Set(SlotRefreshToken, "r"))
	require.NoError(t, store.Set(SlotTokenData, `{"user":{"id":"u","email":"e","tier":"free","tokens_remaining":0,"daily_limit":0}}`))

	s, err := LoadSession(store)
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.ExpiresAt)
	assert.Equal(t, "free", s.User.Tier)
	assert.False(t, s.User.HasQuota())
}

func TestClearSession(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, SaveSession(store, &auth.Session{AccessToken: "a", RefreshToken: "r"}))

	assert.NoError(t, ClearSession(store))
	assert.Equal(t, 0, store.Len())

	// already empty
	assert.NoError(t, ClearSession(store))
}

type failingStore struct {
	*MemoryStore
	failDelete string
}

func (f *failingStore) Delete(name string) error {
	if name == f.failDelete {
		return &StoreError{Op: "delete", Slot: name, Err: errors.New("denied")}
	}
	return f.MemoryStore.Delete(name)
}

func TestClearSession_ContinuesPastFailures(t *testing.T) {
	store := &failingStore{MemoryStore: NewMemoryStore(), failDelete: SlotAccessToken}
	require.NoError(t, SaveSession(store, &auth.Session{AccessToken: "a", RefreshToken: "r"}))

	err := ClearSession(store)
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrStore)
	// the other two slots were still removed
	assert.Equal(t, 1, store.Len())
}
