// Package serverrun exposes the Run entrypoint behind `folio serve`: it opens
// the runtime from a config, serves the HTTP gateway, and closes everything
// on cancellation or SIGINT/SIGTERM.
//
// Example:
//
//	cfg := config.Default()
//	cfg.HTTPAddr = "127.0.0.1:7080"
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//	_ = serverrun.Run(ctx, serverrun.Options{Config: cfg})
package serverrun
