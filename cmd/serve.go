package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qforge/qforge/internal/config"
	"github.com/qforge/qforge/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the render API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		quiet, _ := cmd.Flags().GetBool("quiet")

		svc, done, err := newService(true)
		if err != nil {
			return err
		}
		defer done()

		srv := httpapi.NewServer(httpapi.Options{
			Address:        cfg.HTTPAddr,
			DisableReqLogs: quiet,
			Service:        svc,
			Log:            logger,
			KeepRevisions:  cfg.RevisionKeep,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() { errc <- srv.Start() }()
		logger.Info("listening", "addr", cfg.HTTPAddr, "db_driver", cfg.DBDriver, "artifacts", cfg.Artifact.Enabled())

		select {
		case err := <-errc:
			if err != nil {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errc
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().Bool("quiet", false, "Disable per-request logs")
	mustBindFlag(serveCmd, config.KeyHTTPAddr, "addr")
}
