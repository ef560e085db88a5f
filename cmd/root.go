package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jamu/jamu-auth/internal/backend"
	"github.com/jamu/jamu-auth/internal/config"
	"github.com/jamu/jamu-auth/internal/credstore"
	"github.com/jamu/jamu-auth/internal/logging"
	"github.com/jamu/jamu-auth/internal/session"
)

var (
	// Resolved once per invocation from the environment, then flags
	cfg    config.Config
	output config.OutputFormat
	logger zerolog.Logger

	// Command line flags
	baseURL      string
	apiKey       string
	storeKind    string
	logLevel     string
	outputFormat string
	version      = "1.0.0" // This will be set during build
)

// memoryStore outlives individual commands so an in-process sequence of
// commands (and the tests) share one ephemeral store.
var memoryStore = credstore.NewMemoryStore()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jamu-auth",
	Short: "Jamu account sign-in and session management",
	Long: `jamu-auth signs you in to your Jamu account, keeps the session fresh and
stores credentials in the system keychain.

Backend settings come from SUPABASE_URL and SUPABASE_ANON_KEY unless
overridden with --base-url and --api-key.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStatus(cmd)
	},
}

func loadConfig(cmd *cobra.Command) error {
	c, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		c.BaseURL = baseURL
	}
	if flags.Changed("api-key") {
		c.AnonKey = apiKey
	}
	if flags.Changed("store") {
		c.Store = storeKind
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	if _, err := config.ValidateStore(c.Store); err != nil {
		return err
	}

	format, err := config.ValidateOutput(outputFormat)
	if err != nil {
		return err
	}

	cfg = c
	output = format
	logger = logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	if cfg.IsPlaceholder() {
		logger.Warn().Str("base_url", cfg.BaseURL).Msg("backend is not configured, set SUPABASE_URL and SUPABASE_ANON_KEY")
	}
	return nil
}

// newManager wires the session manager from the resolved configuration
func newManager() *session.Manager {
	client := backend.NewClient(cfg.BaseURL, cfg.AnonKey,
		backend.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		backend.WithLogger(logger.With().Str("component", "backend").Logger()),
	)
	return session.NewManager(client, newStore(),
		session.WithLogger(logger.With().Str("component", "session").Logger()),
	)
}

func newStore() credstore.Store {
	kind, _ := config.ValidateStore(cfg.Store)
	if kind == config.StoreMemory {
		return memoryStore
	}
	return credstore.NewKeyringStore(cfg.KeyringService)
}

func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the CLI with a context that cancels in-flight backend calls
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	defaults := config.Default()

	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", defaults.BaseURL, "Auth backend base URL (overrides SUPABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Public API key (overrides SUPABASE_ANON_KEY)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", defaults.Store, "Credential storage: keyring, memory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")

	// Add version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of jamu-auth",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jamu-auth v%s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)
}
