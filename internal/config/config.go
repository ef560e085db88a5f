package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
)

// Placeholder backend settings. A manager built on these is constructible
// but every backend call is expected to fail cleanly.
const (
	PlaceholderBaseURL = "https://placeholder.supabase.co"
	PlaceholderAnonKey = "placeholder-anon-key"
	DefaultRedirectURI = "jamu://auth/callback"
)

// Config holds the settings the outer application injects into the core.
// Values come from the environment once, at startup.
type Config struct {
	// BaseURL of the auth backend. ENV: SUPABASE_URL
	BaseURL string `env:"SUPABASE_URL,default=https://placeholder.supabase.co"`
	// AnonKey is the public API key sent as the apikey header. ENV: SUPABASE_ANON_KEY
	AnonKey string `env:"SUPABASE_ANON_KEY,default=placeholder-anon-key"`
	// KeyringService namespaces the secret store entries. ENV: JAMU_KEYRING_SERVICE
	KeyringService string `env:"JAMU_KEYRING_SERVICE,default=jamu"`
	// RedirectURI for OAuth provider flows. ENV: JAMU_OAUTH_REDIRECT
	RedirectURI string `env:"JAMU_OAUTH_REDIRECT,default=jamu://auth/callback"`
	// Store selects the secret store backend. ENV: JAMU_CREDENTIAL_STORE
	Store string `env:"JAMU_CREDENTIAL_STORE,default=keyring"`
	// HTTPTimeout bounds each backend call. ENV: JAMU_HTTP_TIMEOUT
	HTTPTimeout time.Duration `env:"JAMU_HTTP_TIMEOUT,default=30s"`
	// LogLevel for zerolog. ENV: JAMU_LOG_LEVEL
	LogLevel string `env:"JAMU_LOG_LEVEL,default=warn"`
}

// Default returns the placeholder configuration without reading the environment
func Default() Config {
	return Config{
		BaseURL:        PlaceholderBaseURL,
		AnonKey:        PlaceholderAnonKey,
		KeyringService: "jamu",
		RedirectURI:    DefaultRedirectURI,
		Store:          string(StoreKeyring),
		HTTPTimeout:    30 * time.Second,
		LogLevel:       "warn",
	}
}

// Load reads the configuration from the environment, falling back to the
// placeholder defaults for anything unset.
func Load() (Config, error) {
	cfg := Default()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("failed to read configuration from environment: %w", err)
	}
	if _, err := ValidateStore(cfg.Store); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsPlaceholder reports whether the backend settings were never configured
func (c Config) IsPlaceholder() bool {
	return c.BaseURL == PlaceholderBaseURL || c.AnonKey == PlaceholderAnonKey
}
