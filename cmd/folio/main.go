package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/folio/internal/cmd/client"
	serverrun "github.com/rzbill/folio/internal/cmd/server"
)

func main() {
	rootCmd := clientcmd.NewRoot(apiURL)

	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve books over HTTP with SSE change streams",
		Aliases: []string{"server"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := clientcmd.LoadConfig(cmd)
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("http"); v != "" {
				cfg.HTTPAddr = v
			}
			if v, _ := cmd.Flags().GetString("fsync"); v != "" {
				cfg.Fsync = v
			}
			if v, _ := cmd.Flags().GetString("log-level"); v != "" {
				cfg.Log.Level = v
			}
			if v, _ := cmd.Flags().GetString("log-format"); v != "" {
				cfg.Log.Format = v
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := serverrun.Run(cmd.Context(), serverrun.Options{Config: cfg}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serveCmd.Flags().String("http", "", "HTTP listen address (default :7080)")
	serveCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never")
	serveCmd.Flags().String("log-level", "", "Log level: debug|info|warn|error")
	serveCmd.Flags().String("log-format", "", "Log format: text|json (default text)")
	rootCmd.AddCommand(serveCmd)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "folio:", err)
		cancel()
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("FOLIO_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:7080"
}
