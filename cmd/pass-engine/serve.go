package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/nikicat/pass-engine/internal/service"
	"github.com/nikicat/pass-engine/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		replace bool
		noWatch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine as a D-Bus service on the session bus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if replace {
				a.cfg.Replace = true
			}
			return a.serve(cmd.Context(), !noWatch)
		},
	}

	cmd.Flags().BoolVarP(&replace, "replace", "r", false, "Replace a running pass-engine service")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not re-index when the store changes")
	return cmd
}

func (a *app) serve(ctx context.Context, watch bool) error {
	a.logger.Infof("Starting pass-engine version %s", Version)
	a.logger.Infof("Using store %s (%s backend)", a.cfg.StorePath, a.cfg.Backend)

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	eng, release, err := a.newEngine(ctx)
	if err != nil {
		conn.Close()
		return err
	}
	defer release()

	svc := service.New(conn, eng, a.cfg, a.logger)
	if err := svc.Start(); err != nil {
		eng.Close()
		conn.Close()
		return err
	}
	a.logger.Infof("Service started with %d entries", len(eng.Entries()))

	published := make(chan struct{})
	go func() {
		svc.Run()
		close(published)
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watchDone := make(chan struct{})
	if watch {
		go func() {
			defer close(watchDone)
			err := store.Watch(ctx, a.cfg.StorePath, func() {
				if err := svc.Reindex(); err != nil {
					a.logger.Warnf("Re-index failed: %v", err)
					return
				}
				a.logger.Debugf("Re-indexed %d entries", len(svc.Entries()))
			}, a.logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Errorf("Store watch stopped: %v", err)
			}
		}()
	} else {
		close(watchDone)
	}

	<-ctx.Done()
	a.logger.Info("Shutting down...")

	<-watchDone
	eng.Close()
	<-published

	if err := svc.Stop(); err != nil {
		a.logger.Errorf("Error during shutdown: %v", err)
	}
	a.logger.Info("Service stopped")
	return nil
}

