package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leofalp/sitesummarizer/core/scheduler"
	"github.com/leofalp/sitesummarizer/core/server"
	"github.com/leofalp/sitesummarizer/providers/observability"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default $SUMMARIZER_LISTEN_ADDR)")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.observer.Warn(ctx, "Failed to close settings store", observability.Error(err))
		}
	}()

	ctx = observability.ContextWithObserver(ctx, a.observer)

	sched := scheduler.New(ctx, a.sessions, a.observer,
		scheduler.WithSpec(a.cfg.EvictionSpec),
		scheduler.WithTTL(a.cfg.SessionTTL),
	)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if addr == "" {
		addr = a.cfg.ListenAddr
	}
	srv := server.New(a.summarizer, a.sessions, a.hub, a.settings, a.observer)
	return srv.ListenAndServe(ctx, addr)
}
