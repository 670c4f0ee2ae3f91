// Package cli provides the command-line interface for cognee-viewer.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/cognee-viewer/internal/client"
	"github.com/raphaelgruber/cognee-viewer/internal/config"
	"github.com/raphaelgruber/cognee-viewer/internal/session"
	"github.com/raphaelgruber/cognee-viewer/internal/settings"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config and persisted viewer configuration
	cfg          config.Config
	logger       *slog.Logger
	store        *settings.Store
	closeStorage func() error
	closeLog     func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cognee-viewer",
	Short: "Chat with a graph-based knowledge backend",
	Long: `cognee-viewer is a terminal viewer and chat client for a graph-based
knowledge retrieval backend.

Pick a dataset, ask questions answered from its knowledge graph, and browse
the documents ingested into it. The configuration (server URL, dataset,
system prompt) is persisted between runs.

Running without a subcommand starts the interactive chat.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog = config.SetupFileLogger(cfg.LogFile, level)

		storage, closeFn, err := settings.Open(cfg.StoreKind, cfg.StoreDir)
		if err != nil {
			return fmt.Errorf("open configuration storage: %w", err)
		}
		closeStorage = closeFn
		store = settings.NewStore(storage, logger)

		logger.Debug("cli started", "command", cmd.Name(), "store", cfg.StoreKind, "store_dir", cfg.StoreDir)
		return nil
	},
	RunE: runChat,
}

// resolveServerURL returns the --server override or the configured URL.
func resolveServerURL(c settings.Configuration) string {
	if serverURL != "" {
		return serverURL
	}
	return c.ServerURL
}

func clientOptions() []client.Option {
	return []client.Option{
		client.WithTimeout(cfg.ClientTimeout),
		client.WithLogger(logger),
	}
}

// newSession creates a session over the persisted configuration, talking to
// the server URL of the session's current configuration.
func newSession() (*session.Session, *backend) {
	var sess *session.Session
	be := newBackend(func() string { return resolveServerURL(sess.Config()) }, clientOptions()...)
	sess = session.New(store, be, be, logger)
	return sess, be
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Storage and the log file are released whether or not the command failed.
func Execute() error {
	defer cleanup()
	return rootCmd.Execute()
}

// cleanup closes the storage and log file opened by PersistentPreRunE.
func cleanup() {
	if closeStorage != nil {
		if err := closeStorage(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close storage: %v\n", err)
		}
		closeStorage = nil
	}
	if closeLog != nil {
		_ = closeLog()
		closeLog = nil
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging to the log file)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "backend or proxy URL for this run (overrides the saved server URL)")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(useCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(configCmd)
}
