package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"text-analysis-api/config"
	"text-analysis-api/logger"
	"text-analysis-api/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the result tables and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		log, err := logger.NewLogger(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		db, err := store.Open(cmd.Context(), cfg.Database, log)
		if err != nil {
			return err
		}
		st := store.New(db)
		defer st.Close()

		if err := store.AutoMigrate(db); err != nil {
			log.Error("Failed to run migrations", zap.Error(err))
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations completed", zap.String("dialect", cfg.Database.Dialect))
		return nil
	},
}
