package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nimeshabuddhika/garmentix-payments/pkg"
	"github.com/nimeshabuddhika/garmentix-payments/services/api/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// @title       Garmentix Payments API
// @version     1.0
// @description Checkout, payment reconciliation and order management for the Garmentix storefront.
// @BasePath    /
// @securityDefinitions.apikey BearerAuth
// @in          header
// @name        Authorization
func main() {
	// Initialize logger
	pkg.InitLogger()
	logger := pkg.Logger

	rootCmd := &cobra.Command{
		Use:          "garmentix-api",
		Short:        "Garmentix payments API",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(serveCmd(logger))
	rootCmd.AddCommand(migrateCmd(logger))
	rootCmd.AddCommand(seedCmd(logger))

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			// SIGINT/SIGTERM cancel ctx, which stops the dispatcher and triggers server shutdown
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, cleanup, err := app.NewApp(ctx, logger)
			if err != nil {
				return fmt.Errorf("failed to start app: %w", err)
			}
			defer cleanup()

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				logger.Info("payments_api_started", zap.String("addr", application.Server.Addr))
				if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				return application.Dispatcher.Run(gctx)
			})
			g.Go(func() error {
				<-gctx.Done()
				logger.Info("shutting_down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), application.ShutdownTimeout)
				defer cancel()
				return application.Server.Shutdown(shutdownCtx)
			})

			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func migrateCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Migrate(logger)
		},
	}
}
