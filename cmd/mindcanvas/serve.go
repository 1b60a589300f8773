package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindcanvas/infrastructure/di"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with autosave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ServerAddress = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, cleanup, err := di.InitializeContainer(ctx, cfg)
			if err != nil {
				return err
			}
			defer cleanup()
			c.Start(ctx)

			srv := &http.Server{
				Addr:              cfg.ServerAddress,
				Handler:           c.Handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			serverErr := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			brand.Printf("mindcanvas %s ", version)
			subtle.Printf("listening on %s, storage %s\n", cfg.ServerAddress, cfg.Storage.Backend)

			select {
			case <-ctx.Done():
			case err = <-serverErr:
				c.Logger.Error("Server failed", zap.Error(err))
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				c.Logger.Error("Server shutdown error", zap.Error(serr))
			}
			if serr := c.Shutdown(shutdownCtx); serr != nil && err == nil {
				err = serr
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from SERVER_ADDRESS)")
	return cmd
}
