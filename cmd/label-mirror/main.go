package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vipul43/label-mirror/internal/app"
	"github.com/vipul43/label-mirror/internal/config"
	"github.com/vipul43/label-mirror/internal/database"
	"github.com/vipul43/label-mirror/internal/models"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Fatal("Application error")
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "label-mirror",
		Short:         "Mirror one Gmail label into a local database",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
	}

	rootCmd.PersistentFlags().String("database-url", "", "Database connection URL")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	_ = v.BindPFlag("DATABASE_URL", rootCmd.PersistentFlags().Lookup("database-url"))
	_ = v.BindPFlag("LOG_LEVEL", rootCmd.PersistentFlags().Lookup("log-level"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(v)
		},
	}
	serveCmd.Flags().Int("port", 0, "HTTP port")
	_ = v.BindPFlag("HTTP_PORT", serveCmd.Flags().Lookup("port"))

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass with the stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return syncOnce(cmd.Context(), v)
		},
	}
	syncCmd.Flags().String("label", "", "Label id to sync (defaults to SYNC_LABEL_ID)")
	_ = v.BindPFlag("SYNC_LABEL_ID", syncCmd.Flags().Lookup("label"))

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(v)
		},
	}

	rootCmd.AddCommand(serveCmd, syncCmd, migrateCmd)
	return rootCmd
}

func setup(v *viper.Viper) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadWith(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.NewLogger(cfg.LogLevel), nil
}

func migrate(v *viper.Viper) error {
	cfg, log, err := setup(v)
	if err != nil {
		return err
	}

	log.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}
	log.Info("Migrations completed successfully")
	return nil
}

func syncOnce(ctx context.Context, v *viper.Viper) error {
	// An interrupted pass stays in processing until the next serve recovers it
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, log, err := setup(v)
	if err != nil {
		return err
	}

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Runner.Run(ctx, cfg.SyncLabelID, models.TriggerCLI)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"run_id":  result.RunID,
		"label":   result.LabelID,
		"new":     result.NewCount,
		"deleted": result.DeletedCount,
		"fetched": result.FetchedCount,
	}).Info("Sync completed")
	return nil
}

func serve(v *viper.Viper) error {
	cfg, log, err := setup(v)
	if err != nil {
		return err
	}

	// Run migrations
	log.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}
	log.Info("Migrations completed successfully")

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Runner.RecoverStale(context.Background()); err != nil {
		return err
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- a.Server.Start()
	}()
	log.Infof("Server running on http://localhost:%d", cfg.HTTPPort)

	// Wait for shutdown signal or error
	select {
	case <-sigChan:
		log.Info("Shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Shutdown timeout exceeded")
		}
		if err := <-errChan; err != nil {
			log.WithError(err).Error("Server error")
		}

		log.Info("Application stopped")
		return nil

	case err := <-errChan:
		return err
	}
}
