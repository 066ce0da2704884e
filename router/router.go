package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"text-analysis-api/config"
	"text-analysis-api/handlers"
	"text-analysis-api/middleware"
)

type Deps struct {
	Service handlers.PredictionService
	Events  handlers.EventSource
	Checks  []handlers.HealthCheck
	CORS    config.CORSConfig
	Log     *zap.Logger
}

// Setup creates and configures the Gin router
func Setup(d Deps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.Recovery(d.Log))
	router.Use(middleware.Metrics())
	router.Use(middleware.SetupCORS(d.CORS))

	healthHandler := handlers.NewHealthHandler(d.Checks...)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	predictionHandler := handlers.NewPredictionHandler(d.Service)

	api := router.Group("/api")
	{
		predict := api.Group("/predict")
		{
			predict.POST("/vectara", predictionHandler.PredictConsistency)
			predict.POST("/gibberish", predictionHandler.PredictGibberish)
		}

		results := api.Group("/results")
		{
			results.GET("/vectara", predictionHandler.ListConsistency)
			results.GET("/gibberish", predictionHandler.ListGibberish)
			results.GET("/:kind/stats", predictionHandler.Stats)
		}

		api.GET("/ws/predictions", handlers.LiveWebSocket(d.Events, d.Log))
	}

	return router
}
