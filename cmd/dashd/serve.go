// File: cmd/dashd/serve.go
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/patternforge/live-ws/internal/netutil"
	"github.com/patternforge/live-ws/server"
)

func serveCmd() *cobra.Command {
	var (
		addr  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard and its event socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, debug)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8090", "listen address")
	cmd.Flags().BoolVar(&debug, "debug", false, "verbose logging")

	return cmd
}

func runServe(addr string, debug bool) error {
	log, err := newLogger(debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reg := prometheus.NewRegistry()
	eng := server.New(nil,
		server.WithLogger(log),
		server.WithMetrics(reg),
		server.WithHandler(server.HandlerFuncs{
			Connection: func(c *server.Conn) {
				log.Info("client connected", zap.String("conn", c.ID()))
			},
			Message: func(c *server.Conn, payload []byte) {
				log.Info("client message",
					zap.String("conn", c.ID()),
					zap.ByteString("payload", payload))
			},
			Close: func(c *server.Conn) {
				log.Info("client gone", zap.String("conn", c.ID()))
			},
			Error: func(c *server.Conn, err error) {
				log.Warn("socket error", zap.Error(err))
			},
		}))

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Get("/", serveDashboard)
	r.Handle("/ws", eng)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := netutil.Listen(ctx, addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	go publishDemoEvents(ctx, eng)

	srv := &http.Server{Handler: r}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	log.Info("dashboard up", zap.String("addr", ln.Addr().String()))

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info("shutting down")
	_ = eng.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
