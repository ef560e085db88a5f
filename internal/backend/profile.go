package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jamu/jamu-auth/internal/auth"
)

// FetchProfile loads the first profile row visible to the access token.
// It never fails: transport errors, non-success statuses, bad JSON and
// empty results all produce auth.DefaultProfile(), and each missing field
// falls back to its default individually.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) auth.UserProfile {
	rows, err := c.fetchProfileRows(ctx, accessToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("profile fetch failed, using default profile")
		return auth.DefaultProfile()
	}
	if len(rows) == 0 {
		c.logger.Debug().Msg("no profile row, using default profile")
		return auth.DefaultProfile()
	}
	return profileFromRow(rows[0])
}

func (c *Client) fetchProfileRows(ctx context.Context, accessToken string) ([]map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+profilesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	requestID := c.addHeaders(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().Str("request_id", requestID).Int("status", resp.StatusCode).Msg("profile response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("profile API error (%d)", resp.StatusCode)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rows []map[string]interface{}
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}
	return rows, nil
}

func profileFromRow(row map[string]interface{}) auth.UserProfile {
	p := auth.DefaultProfile()
	if v, ok := row["id"].(string); ok {
		p.ID = v
	}
	if v, ok := row["email"].(string); ok {
		p.Email = v
	}
	if v, ok := row["tier"].(string); ok {
		p.Tier = v
	}
	if v, ok := intField(row, "tokens_remaining"); ok {
		p.TokensRemaining = v
	}
	if v, ok := intField(row, "daily_token_limit"); ok {
		p.DailyLimit = v
	}
	return p
}

func intField(row map[string]interface{}, key string) (int64, bool) {
	n, ok := row[key].(json.Number)
	if !ok {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}
