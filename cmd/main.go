package main

import (
	"blueprint"
	"blueprint/internal/api/handler/endpoints"
	"blueprint/internal/api/handler/middleware"
	"blueprint/internal/api/models"
	"blueprint/internal/api/service"
	"blueprint/internal/metrics"
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	blueprint.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if blueprint.GetConfig().Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	}
	if err := blueprint.DB.AutoMigrate(&models.Run{}); err != nil {
		blueprint.Logger.Fatal().Err(err).Msg("Failed to migrate database")
	}
	blueprint.Logger.Info().Msg("Database migrated successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.New(gin.New(), graceful.WithAddr(blueprint.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()
	defer closeConnections()

	m := metrics.New()
	router.Use(gin.Recovery(), middleware.LoggerMiddleware(blueprint.Logger), m.Middleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Idempotency-Key"},
		ExposeHeaders: []string{"Content-Length", endpoints.ReplayedHeader},
		MaxAge:        12 * time.Hour,
	}))

	initAPI(router, service.NewRunService(m), m)

	blueprint.Logger.Debug().Msgf("Starting blueprint API on port %s", blueprint.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		blueprint.Logger.Fatal().Msg(err.Error())
	}
}

func initAPI(router gin.IRouter, runService *service.RunService, m *metrics.Metrics) {
	endpoints.BlueprintHandler(router, runService)
	endpoints.RunHandler(router, runService)
	endpoints.SystemHandler(router, m)
}

func closeConnections() {
	if blueprint.Nats != nil {
		if err := blueprint.Nats.Drain(); err != nil {
			blueprint.Logger.Warn().Err(err).Msg("NATS drain failed")
		}
	}
	if blueprint.Redis != nil {
		if err := blueprint.Redis.Close(); err != nil {
			blueprint.Logger.Warn().Err(err).Msg("Redis close failed")
		}
	}
}
