package serverrun

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	cfgpkg "github.com/rzbill/folio/internal/config"
	"github.com/rzbill/folio/internal/runtime"
	httpserver "github.com/rzbill/folio/internal/server/http"
	logpkg "github.com/rzbill/folio/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// Logger defaults to the one described by Config.Log.
	Logger logpkg.Logger
	// Ready, when set, receives the bound HTTP address before serving starts.
	Ready func(addr string)
}

// Run opens the runtime and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := opts.Logger
	if logger == nil {
		l, err := opts.Config.Logger()
		if err != nil {
			return err
		}
		logger = l
		// Redirect stdlib logs (e.g., Pebble) to our logger
		logpkg.RedirectStdLog(logger)
	}

	rt, err := runtime.Open(runtime.Options{Config: opts.Config, Logger: logger})
	if err != nil {
		return err
	}
	defer rt.Close()

	lis, err := net.Listen("tcp", opts.Config.HTTPAddr)
	if err != nil {
		return err
	}
	logger.Info("Starting folio server",
		logpkg.Str("http", lis.Addr().String()),
		logpkg.Str("data_dir", opts.Config.ResolvedDataDir()),
		logpkg.Str("engine", opts.Config.Engine),
		logpkg.Str("fsync", opts.Config.Fsync),
		logpkg.Str("overflow", opts.Config.Overflow),
		logpkg.Int("sub_buf", opts.Config.SubscriberBuffer),
	)
	if opts.Ready != nil {
		opts.Ready(lis.Addr().String())
	}

	hsrv := httpserver.New(rt, logger)
	g, gctx := errgroup.WithContext(sctx)
	g.Go(func() error { return hsrv.Serve(gctx, lis) })
	err = g.Wait()
	hsrv.Close()
	return err
}
