package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jamu/jamu-auth/internal/auth"
	"github.com/jamu/jamu-auth/internal/config"
	"github.com/jamu/jamu-auth/internal/session"
)

var (
	loginEmail    string
	loginPassword string
	oauthRedirect string
	oauthCode     string
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage your Jamu session",
	Long: `Sign in, refresh and sign out of your Jamu account.

Examples:
  # Interactive login
  jamu-auth auth login

  # Non-interactive login
  jamu-auth auth login --email you@example.com --password "$JAMU_PASSWORD"

  # Sign in with Google
  jamu-auth auth oauth url google
  jamu-auth auth oauth complete --code CODE

  # Check auth status
  jamu-auth auth status

  # Remove stored credentials
  jamu-auth auth logout`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd)
	},
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in with email and password. Prompts for missing values when run in a terminal.

Non-interactive flags:
  --email EMAIL        Account email
  --password PASSWORD  Account password`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLogin(cmd)
	},
}

var authOAuthCmd = &cobra.Command{
	Use:   "oauth",
	Short: "Sign in through an OAuth provider",
}

var authOAuthURLCmd = &cobra.Command{
	Use:   "url <provider>",
	Short: "Print the sign-in URL for a provider (google, github, ...)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]
		if err := config.ValidateProvider(provider); err != nil {
			return err
		}
		redirect := cfg.RedirectURI
		if cmd.Flags().Changed("redirect") {
			redirect = oauthRedirect
		}

		url := newManager().StartOAuth(provider, redirect)
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

var authOAuthCompleteCmd = &cobra.Command{
	Use:   "complete",
	Short: "Finish an OAuth sign-in with the code from the redirect",
	RunE: func(cmd *cobra.Command, args []string) error {
		if oauthCode == "" {
			return fmt.Errorf("--code is required")
		}
		m := newManager()
		r := <-m.SubmitOAuth(cmd.Context(), oauthCode)
		if r.Err != nil {
			return errors.New(session.ErrorMessage(r.Err))
		}
		return printSignedIn(cmd, r.Session)
	},
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Renew the access token using the stored refresh token",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		m.RestoreFromStore()
		s, err := m.Refresh(cmd.Context())
		if err != nil {
			return errors.New(session.ErrorMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Session refreshed, expires %s\n", formatExpiry(s.ExpiresAt))
		return nil
	},
}

var authProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Reload plan and quota information without renewing tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		if m.RestoreFromStore() == nil {
			return errors.New(session.ErrorMessage(auth.ErrNoActiveSession))
		}
		m.RefreshProfile(cmd.Context())
		return render(cmd, newStatusView(m))
	},
}

var authTokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a valid access token, refreshing it if it has expired",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		m.RestoreFromStore()
		s, err := m.EnsureFresh(cmd.Context())
		if err != nil {
			return errors.New(session.ErrorMessage(err))
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.AccessToken)
		return nil
	},
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current authentication state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd)
	},
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newManager()
		m.RestoreFromStore()
		m.Logout()
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out, credentials removed")
		return nil
	},
}

func runLogin(cmd *cobra.Command) error {
	email, password := strings.TrimSpace(loginEmail), loginPassword

	if email == "" || password == "" {
		if !isInteractive() {
			return fmt.Errorf("--email and --password are required in non-interactive mode")
		}
		var err error
		email, password, err = promptCredentials(email)
		if err != nil {
			return err
		}
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	m := newManager()
	fmt.Fprintln(cmd.ErrOrStderr(), "Signing in...")
	r := <-m.SubmitLogin(cmd.Context(), email, password)
	if r.Err != nil {
		return errors.New(session.ErrorMessage(r.Err))
	}
	return printSignedIn(cmd, r.Session)
}

func promptCredentials(email string) (string, string, error) {
	reader := bufio.NewReader(os.Stdin)

	if email == "" {
		fmt.Print("Email: ")
		line, _ := reader.ReadString('\n')
		email = strings.TrimSpace(line)
		if email == "" {
			return "", "", fmt.Errorf("email cannot be empty")
		}
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(pw) == 0 {
		return "", "", fmt.Errorf("password cannot be empty")
	}
	return email, string(pw), nil
}

func printSignedIn(cmd *cobra.Command, s *auth.Session) error {
	if output != config.OutputText {
		return render(cmd, statusFromSession(s, time.Now()))
	}
	who := s.User.Email
	if who == "" {
		who = "your account"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s plan)\n", who, s.User.Tier)
	return nil
}

func runStatus(cmd *cobra.Command) error {
	m := newManager()
	m.RestoreFromStore()
	return render(cmd, newStatusView(m))
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func init() {
	authLoginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	authLoginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")

	authOAuthURLCmd.Flags().StringVar(&oauthRedirect, "redirect", "", "Redirect URI (overrides JAMU_OAUTH_REDIRECT)")
	authOAuthCompleteCmd.Flags().StringVar(&oauthCode, "code", "", "Authorization code from the redirect")
	authOAuthCmd.AddCommand(authOAuthURLCmd, authOAuthCompleteCmd)

	authCmd.AddCommand(authLoginCmd, authOAuthCmd, authRefreshCmd, authProfileCmd, authTokenCmd, authStatusCmd, authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}
