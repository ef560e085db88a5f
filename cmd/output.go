package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jamu/jamu-auth/internal/auth"
	"github.com/jamu/jamu-auth/internal/config"
	"github.com/jamu/jamu-auth/internal/session"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// statusView is what status-like commands render. Tokens are never included.
type statusView struct {
	Authenticated bool              `json:"authenticated" yaml:"authenticated"`
	Expired       bool              `json:"expired" yaml:"expired"`
	ExpiresAt     string            `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	User          *auth.UserProfile `json:"user,omitempty" yaml:"user,omitempty"`
	Backend       string            `json:"backend" yaml:"backend"`
	Store         string            `json:"store" yaml:"store"`
}

func newStatusView(m *session.Manager) statusView {
	v := statusView{
		Authenticated: m.IsAuthenticated(),
		Expired:       m.IsExpired(),
		User:          m.CurrentUser(),
		Backend:       cfg.BaseURL,
		Store:         cfg.Store,
	}
	if s := m.Current(); s != nil {
		v.ExpiresAt = formatExpiry(s.ExpiresAt)
	}
	return v
}

func statusFromSession(s *auth.Session, now time.Time) statusView {
	u := s.User
	return statusView{
		Authenticated: true,
		Expired:       s.IsExpiredAt(now),
		ExpiresAt:     formatExpiry(s.ExpiresAt),
		User:          &u,
		Backend:       cfg.BaseURL,
		Store:         cfg.Store,
	}
}

func formatExpiry(expiresAt int64) string {
	if expiresAt == 0 {
		return "expired"
	}
	return time.Unix(expiresAt, 0).UTC().Format(time.RFC3339)
}

// render prints v in the selected output format
func render(cmd *cobra.Command, v statusView) error {
	w := cmd.OutOrStdout()
	switch output {
	case config.OutputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case config.OutputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		return encoder.Close()
	default:
		renderText(w, v)
		return nil
	}
}

func renderText(w io.Writer, v statusView) {
	if !v.Authenticated {
		fmt.Fprintln(w, errStyle.Render("Not authenticated"))
		fmt.Fprintln(w, "Run 'jamu-auth auth login' to sign in.")
		return
	}

	state := okStyle.Render("Authenticated")
	if v.Expired {
		state = warnStyle.Render("Authenticated (token expired, run 'jamu-auth auth refresh')")
	}
	fmt.Fprintln(w, state)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Email:"), v.User.Email)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Plan:"), v.User.Tier)

	quota := fmt.Sprintf("%d / %d tokens", v.User.TokensRemaining, v.User.DailyLimit)
	if !v.User.HasQuota() {
		quota = errStyle.Render(quota + " (exhausted)")
	}
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Quota:"), quota)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Expires:"), v.ExpiresAt)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Store:"), v.Store)
}
