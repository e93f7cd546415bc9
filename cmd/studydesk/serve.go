package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studydesk/internal/httpapi"
	"studydesk/internal/logging"
	"studydesk/internal/storage"
)

func serveCmd() *cobra.Command {
	var flagAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task API and the description service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig()
			if err != nil {
				return err
			}
			if err := initLogging(cfg, path, "task-api", false); err != nil {
				return err
			}
			if flagAddr != "" {
				cfg.Server.Addr = flagAddr
			}
			log := logging.Logger

			db, err := storage.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			if cfg.Server.JWTSecret == "" {
				log.WithField("user", cfg.User).Warn("no jwt_secret set, serving every request as the configured user")
			}
			api := httpapi.NewServer(db, httpapi.Options{
				JWTSecret:     cfg.Server.JWTSecret,
				AnonymousUser: cfg.User,
				CORSOrigin:    cfg.Server.CORSOrigin,
				Logger:        log,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           api,
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", srv.Addr).Info("task api listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "listening on %s\n", srv.Addr)

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			log.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("http shutdown")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
