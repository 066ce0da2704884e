package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"text-analysis-api/config"
	"text-analysis-api/handlers"
	"text-analysis-api/inference"
	"text-analysis-api/logger"
	"text-analysis-api/router"
	"text-analysis-api/services"
	"text-analysis-api/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Error("Failed to connect to database", zap.Error(err))
		return err
	}
	st := store.New(db, store.WithLogger(log))
	defer st.Close()
	log.Info("Connected to database", zap.String("dialect", cfg.Database.Dialect))

	if cfg.Database.AutoMigrate {
		if err := store.AutoMigrate(db); err != nil {
			log.Error("Failed to run migrations", zap.Error(err))
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("Database migrations completed")
	}

	// Redis is optional: without it the live feed is disabled.
	broker, err := services.NewEventBroker(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("Failed to connect to Redis, continuing without live feed", zap.Error(err))
	} else if broker.Available() {
		log.Info("Connected to Redis")
	}
	defer broker.Close()

	consistencyModel := inference.NewClient(cfg.Inference.ConsistencyURL, cfg.Inference.APIToken, cfg.Inference.Timeout())
	gibberishModel := inference.NewClient(cfg.Inference.GibberishURL, cfg.Inference.APIToken, cfg.Inference.Timeout())

	svc := services.NewPredictionService(
		st,
		inference.NewConsistencyScorer(consistencyModel),
		inference.NewGibberishClassifier(gibberishModel),
		cfg.Pipeline,
		log,
		services.WithPublisher(broker),
	)

	r := router.Setup(router.Deps{
		Service: svc,
		Events:  broker,
		Checks: []handlers.HealthCheck{
			{Name: "database", Check: st.Ping},
			{Name: "consistency_model", Check: consistencyModel.Health},
			{Name: "gibberish_model", Check: gibberishModel.Health},
			{Name: "redis", Check: broker.Ping, Optional: true},
		},
		CORS: cfg.CORS,
		Log:  log,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Inference.Timeout() + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return err
	}
	log.Info("Server exited")
	return nil
}
