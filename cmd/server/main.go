package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"splat-service/internal/config"
	"splat-service/internal/handler"
	"splat-service/internal/metrics"
	"splat-service/internal/middleware"
	"splat-service/internal/runtime"
	"splat-service/internal/storage"
	"splat-service/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	initLogger(cfg)

	// Outbound adapters
	rt := runtime.NewClient(cfg.Model.RuntimeURL, cfg.Model.RuntimeTimeout)
	fetcher := runtime.NewHTTPCheckpointFetcher()

	store, err := storage.NewS3Store(context.Background(), &cfg.Storage)
	if err != nil {
		log.Fatalf("create s3 store: %v", err)
	}

	// Serving core
	cache := usecase.NewModelCache(rt, fetcher, &cfg.Model)
	pre := usecase.NewPreprocessor(cfg.Model.InputSize, cfg.Model.FocalEstimateFactor)
	engine := usecase.NewInferenceEngine(rt, cfg.Model.InputSize)
	publisher := usecase.NewPublisher(store, cfg.Storage.KeyPrefix, cfg.Storage.PresignExpiry)
	splatUC := usecase.NewSplatUseCase(cache, pre, engine, publisher, cfg.Model.InferenceTimeout)

	h := handler.New(splatUC, rt, awsConfigured(cfg))

	// Router
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logging(), gin.Recovery())
	router.Use(middleware.ConcurrencyLimit(cfg.Server.MaxConcurrent))

	h.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Infof("starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown: the platform reclaims idle units with SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced shutdown: %v", err)
	}

	log.Info("server stopped")
}

func awsConfigured(cfg *config.Config) bool {
	return os.Getenv("AWS_ACCESS_KEY_ID") != "" &&
		os.Getenv("AWS_SECRET_ACCESS_KEY") != "" &&
		cfg.Storage.Bucket != ""
}

func initLogger(cfg *config.Config) {
	level, err := log.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Logger.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
