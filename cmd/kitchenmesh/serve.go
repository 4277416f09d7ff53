package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/kitchenmesh/hub"
	"github.com/hupe1980/kitchenmesh/orders"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the kitchen hub (HTTP API, SSE stream, optional simulator)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				a.close(shutdownCtx)
			}()

			server := hub.NewServer(a.cfg.HTTPAddr, a.broadcaster, a.store, a.registry, a.submit,
				func(o *hub.ServerOptions) { o.Logger = a.logger })

			if a.cfg.SimulatorEnabled {
				sim := orders.NewSimulator(
					orders.NewStaticGenerator(time.Now().UnixNano()),
					a.submit,
					func(o *orders.SimulatorOptions) {
						o.Schedule = a.cfg.SimulatorSchedule
						o.Logger = a.logger
					},
				)
				if err := sim.Start(); err != nil {
					return err
				}
				defer func() { <-sim.Stop().Done() }()
			}

			errCh := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
					return
				}
				errCh <- nil
			}()

			select {
			case <-ctx.Done():
				a.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				return err
			}
		},
	}
}
