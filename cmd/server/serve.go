package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"speechcoach/internal/app"
	"speechcoach/internal/config"
	"speechcoach/internal/repository"
	"speechcoach/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Server.Port = port
		}

		logger := app.NewLogger(cfg.Log)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Run(ctx); err != nil {
			logger.WithError(err).Error("Server stopped with error")
			return err
		}
		logger.Info("Server shutdown complete")
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger := app.NewLogger(cfg.Log)

		db, err := app.OpenDatabase(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		logger.Info("Migrations completed successfully")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the exercise catalog if no exercise exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if path, _ := cmd.Flags().GetString("catalog"); path != "" {
			cfg.Catalog.Path = path
		}
		logger := app.NewLogger(cfg.Log)

		db, err := app.OpenDatabase(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		catalog, err := service.LoadCatalogFile(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		exercises := service.NewExerciseService(repository.NewExerciseRepository(db), logger)
		n, err := exercises.SeedIfEmpty(cmd.Context(), catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d exercises\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)

	serveCmd.Flags().String("port", "", "override server.port")
	seedCmd.Flags().String("catalog", "", "YAML catalog to seed from (default: built-in catalog)")
}
