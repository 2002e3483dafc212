package client

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/rzbill/folio/internal/config"
	"github.com/rzbill/folio/internal/runtime"
	"github.com/rzbill/folio/pkg/folio"
	logpkg "github.com/rzbill/folio/pkg/log"
)

// BaseURLFunc provides the base HTTP API URL (e.g., from env or flag).
type BaseURLFunc func() string

// NewRoot constructs the root Cobra command with the local book commands
// and the HTTP watch command. Callers add `serve`.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "folio book CLI",
		Long:          "folio stores typed values in books on disk. These commands inspect and edit books directly.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	AddGlobalFlags(root)
	root.AddCommand(
		newPutCommand(),
		newGetCommand(),
		newRmCommand(),
		newKeysCommand(),
		newExistsCommand(),
		newPathCommand(),
		newDestroyCommand(),
		newBooksCommand(),
		newWatchCommand(baseURL),
	)
	return root
}

// AddGlobalFlags registers --config, --data-dir, --engine and --book as
// persistent flags on cmd.
func AddGlobalFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("config", os.Getenv("FOLIO_CONFIG"), "Config file (.json, .yaml)")
	f.String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	f.String("engine", "", "Storage engine: diskv|pebble|bolt|sqlite|memory")
	f.String("book", "", "Book name (default from config)")
}

// LoadConfig resolves defaults, the --config file, FOLIO_* env, then flags.
func LoadConfig(cmd *cobra.Command) (cfgpkg.Config, error) {
	cfg := cfgpkg.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := cfgpkg.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	cfgpkg.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("engine"); v != "" {
		cfg.Engine = v
	}
	if v, _ := cmd.Flags().GetString("book"); v != "" {
		cfg.DefaultBook = v
	}
	return cfg, cfg.Validate()
}

// withBook opens a runtime for one command and hands fn the selected book.
// CLI commands log only warnings unless FOLIO_LOG_LEVEL says otherwise.
func withBook(cmd *cobra.Command, fn func(ctx context.Context, b *folio.Book) error) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	if os.Getenv("FOLIO_LOG_LEVEL") == "" {
		cfg.Log.Level = "warn"
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	rt, err := runtime.Open(runtime.Options{Config: cfg, Logger: logger.With(logpkg.Component("cli"))})
	if err != nil {
		return err
	}
	defer rt.Close()
	b, err := rt.DefaultBook()
	if err != nil {
		return err
	}
	return fn(cmd.Context(), b)
}
