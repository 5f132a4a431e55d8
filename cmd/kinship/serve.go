package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/kinship/internal/application/api"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  "Starts the HTTP API for people and graph algorithms on the configured address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")

	return cmd
}

func runServe(cmd *cobra.Command, addr string) error {
	return withDeps(cmd.Context(), func(d *Deps) error {
		if addr == "" {
			addr = d.Config.Server.Addr
		}
		gin.SetMode(d.Config.Server.Mode)

		srv := api.NewServer(d.People, d.Algorithms, d.Import, d.Registry, d.Logger.Named("http"))
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Router(),
			ReadHeaderTimeout: readHeaderTimeout,
		}

		g, ctx := errgroup.WithContext(cmd.Context())

		g.Go(func() error {
			d.Logger.Info("listening", zap.String("addr", addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serving http: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			d.Logger.Info("shutting down")
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down http: %w", err)
			}
			return nil
		})

		return g.Wait()
	})
}
