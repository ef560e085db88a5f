package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	tokenPath     = "/auth/v1/token"
	authorizePath = "/auth/v1/authorize"
	profilesPath  = "/rest/v1/profiles"

	// DefaultSessionLifetime is added to the current time when a password or
	// OAuth grant response carries no expires_at.
	DefaultSessionLifetime = time.Hour
)

// Grant types accepted by the token endpoint
const (
	GrantPassword          = "password"
	GrantAuthorizationCode = "authorization_code"
	GrantRefreshToken      = "refresh_token"
)

// Client talks to the authentication backend. It holds no session state.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	logger     zerolog.Logger
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient injects the transport; its timeout and cancellation apply to every call
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock overrides the time source used for expiry fallbacks
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a backend client for the given base URL and public API key
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
		logger:     zerolog.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Now returns the client's notion of the current time
func (c *Client) Now() time.Time {
	return c.now()
}

// LoginWithPassword exchanges an email and password for tokens
func (c *Client) LoginWithPassword(ctx context.Context, email, password string) (*RawAuthResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	return c.grant(ctx, GrantPassword, body, true)
}

// ExchangeOAuthCode exchanges an authorization code from the OAuth redirect for tokens
func (c *Client) ExchangeOAuthCode(ctx context.Context, code string) (*RawAuthResponse, error) {
	body := map[string]string{
		"grant_type": GrantAuthorizationCode,
		"code":       code,
	}
	return c.grant(ctx, GrantAuthorizationCode, body, true)
}

// Refresh mints a new access token from a refresh token. The response may
// omit refresh_token, in which case the caller keeps its current one.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*RawAuthResponse, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
	}
	return c.grant(ctx, GrantRefreshToken, body, false)
}

// BuildOAuthURL returns the browser redirect target for an OAuth provider.
// Inputs are passed through verbatim; validating them is up to the caller.
func (c *Client) BuildOAuthURL(provider, redirectURI string) string {
	return fmt.Sprintf("%s%s?provider=%s&redirect_to=%s", c.BaseURL, authorizePath, provider, redirectURI)
}

func (c *Client) grant(ctx context.Context, grantType string, body interface{}, requireRefresh bool) (*RawAuthResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := fmt.Sprintf("%s%s?grant_type=%s", c.BaseURL, tokenPath, grantType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	requestID := c.addHeaders(req)

	log := c.logger.With().Str("grant_type", grantType).Str("request_id", requestID).Logger()
	log.Debug().Msg("requesting token")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Debug().Err(err).Msg("token request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Debug().Int("status", resp.StatusCode).Msg("token response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Kind:       grantErrorKind(grantType),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	return parseAuthResponse(respBody, requireRefresh)
}

// addHeaders sets the headers shared by every backend call and returns the request id
func (c *Client) addHeaders(req *http.Request) string {
	requestID := uuid.NewString()
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)
	return requestID
}
