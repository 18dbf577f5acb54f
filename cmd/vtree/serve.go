package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/inspector"
	"github.com/vango-dev/vtree/pkg/middleware"
	"github.com/vango-dev/vtree/pkg/snapshot"
	"github.com/vango-dev/vtree/pkg/vtree"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(a *app) *cobra.Command {
	var (
		lf        layoutFlags
		addr      string
		snapshots bool
	)

	cmd := &cobra.Command{
		Use:   "serve [FILE]",
		Short: "Start the live inspector",
		Long: `Start an HTTP inspector around a headless hierarchy.

Trees are posted to /reconcile as YAML; FILE, when given, is applied
at startup. Pass events stream over the /events websocket and
Prometheus metrics are served on /metrics.

Examples:
  vtree serve
  vtree serve tree.yaml --addr=:8080 --snapshots`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Inspector.Address
			}
			size, opts, err := a.layout(&lf)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return verrors.New("V040").Wrap(err)
			}
			return a.serve(ctx, ln, size, opts, snapshots, args)
		},
	}

	lf.register(cmd)
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from vtree.json)")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "Enable the /snapshots routes using the configured store")

	return cmd
}

// serve runs the inspector on ln until ctx is done.
func (a *app) serve(ctx context.Context, ln net.Listener, size vtree.Size, opts vtree.LayoutOptions, snapshots bool, args []string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mw := []vtree.Middleware{
		middleware.OpenTelemetry(middleware.WithTracerName(a.cfg.Tracing.TracerName)),
		middleware.Logger(a.logger),
	}
	if !a.cfg.Metrics.Disabled {
		mw = append(mw, middleware.Prometheus(
			middleware.WithNamespace(a.cfg.Metrics.Namespace),
			middleware.WithRegistry(reg),
		))
	}

	host := inspector.NewHost(size, opts,
		inspector.WithHostLogger(a.logger),
		inspector.WithHostMiddleware(mw...),
	)
	hostCtx, cancelHost := context.WithCancel(context.Background())
	hostDone := make(chan struct{})
	go func() {
		defer close(hostDone)
		host.Run(hostCtx)
	}()
	defer func() {
		cancelHost()
		<-hostDone
	}()

	serverOpts := []inspector.ServerOption{
		inspector.WithGatherer(reg),
		inspector.WithServerLogger(a.logger),
	}
	if snapshots {
		store, err := snapshot.Open(a.cfg)
		if err != nil {
			return verrors.New("V031").Wrap(err)
		}
		defer store.Close()
		serverOpts = append(serverOpts, inspector.WithStore(store))
	}

	if len(args) == 1 {
		spec, err := loadSpec(args[0])
		if err != nil {
			return err
		}
		if _, err := host.Apply(ctx, spec); err != nil {
			return verrors.Classify(err, "V019")
		}
	}

	srv := &http.Server{
		Handler:           inspector.NewServer(host, serverOpts...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("inspector listening", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return verrors.New("V040").Wrap(err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown error", "error", err)
			return err
		}
		return nil
	}
}
