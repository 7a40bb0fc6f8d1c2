package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/open-depot/archive-api/api/swagger"
	"github.com/open-depot/archive-api/internal/handler"
	"github.com/open-depot/archive-api/internal/middleware"
	"github.com/open-depot/archive-api/internal/models"
	"github.com/open-depot/archive-api/internal/packager"
	"github.com/open-depot/archive-api/internal/repository"
	"github.com/open-depot/archive-api/internal/selection"
	"github.com/open-depot/archive-api/internal/service"
	"github.com/open-depot/archive-api/pkg/cache"
	"github.com/open-depot/archive-api/pkg/config"
	"github.com/open-depot/archive-api/pkg/database"
	"github.com/open-depot/archive-api/pkg/jobs"
	"github.com/open-depot/archive-api/pkg/logger"
	corsmiddleware "github.com/open-depot/archive-api/pkg/middleware/cors"
	reqidmiddleware "github.com/open-depot/archive-api/pkg/middleware/requestid"
	"github.com/open-depot/archive-api/pkg/objectstore"
)

// @title Open Depot Archive API
// @version 1.0.0
// @description Dataset browsing, bulk selection and content delivery
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	minioClient, err := objectstore.NewClient(cfg.ObjectStore)
	if err != nil {
		logr.Sugar().Fatalw("failed to init object store", "error", err)
	}
	contentStore := objectstore.NewContentStore(minioClient, cfg.ObjectStore.Bucket)

	itemRepo := repository.NewItemRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	datasetSvc := service.NewDatasetService(datasetRepo, cacheRepo, metricsSvc, cfg.Datasets.CacheTTL, logr)
	auditSvc := service.NewAuditService(auditRepo, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	}, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	packagerFactory := packager.NewFactory(contentStore, selection.PackageLimits{
		MaxFiles:     cfg.Download.MaxFiles,
		MaxTotalSize: cfg.Download.MaxTotalSize,
	}, cfg.Download.ScratchDir, logr)

	explorerSvc := service.NewExplorerService(itemRepo, datasetSvc, packagerFactory, auditSvc, metricsSvc, cfg.Explorer.SessionTTL, logr)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	auditSvc.Start(ctx)
	defer auditSvc.Stop()
	explorerSvc.StartCleanup(ctx, cfg.Explorer.CleanupInterval)

	explorerHandler := handler.NewExplorerHandler(explorerSvc)
	datasetHandler := handler.NewDatasetHandler(datasetSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		readyCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(readyCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.OptionalJWT(tokenSvc))
	{
		api.GET("/datasets/:id", datasetHandler.Get)
		api.POST("/datasets/:id/explorer", explorerHandler.Open)

		explorer := api.Group("/explorer/:sid")
		{
			explorer.DELETE("", explorerHandler.Close)
			explorer.GET("/folders/:fid", explorerHandler.ListFolder)
			explorer.GET("/selection", explorerHandler.GetSelection)
			explorer.POST("/selection", explorerHandler.UpdateSelection)
			explorer.POST("/download", explorerHandler.Download)
			explorer.POST("/download/confirm", explorerHandler.ConfirmDownload)

			curated := explorer.Group("")
			curated.Use(middleware.JWT(tokenSvc))
			{
				curated.PUT("/rights", middleware.RequireRoles(models.RoleArchivist), explorerHandler.ApplyRights)
				curated.DELETE("/items", middleware.RequireRoles(models.RoleArchivist, models.RoleDepositor), explorerHandler.DeleteSelection)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
