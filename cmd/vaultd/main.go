package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/imranali-mngmt/secureiduploader/internal/blobstore"
	"github.com/imranali-mngmt/secureiduploader/internal/config"
	"github.com/imranali-mngmt/secureiduploader/internal/db"
	"github.com/imranali-mngmt/secureiduploader/internal/di"
	"github.com/imranali-mngmt/secureiduploader/internal/logging"
	"github.com/imranali-mngmt/secureiduploader/internal/redisclient"
	"github.com/imranali-mngmt/secureiduploader/internal/router"
	"github.com/imranali-mngmt/secureiduploader/internal/sharecache"
)

func main() {
	configDir := flag.String("config-dir", "", "directory holding config.yaml (defaults to ./config)")
	flag.Parse()

	config.InitConfig(*configDir)
	cfg := config.Get()

	level := zapcore.InfoLevel
	logger := logging.New(logging.Config{Level: level, JSON: cfg.Server.Mode == "release"})
	logging.SetDefault(logger)
	defer logger.Sync()

	db.InitDB()

	if err := os.MkdirAll(cfg.Storage.Path, 0o755); err != nil {
		log.Fatalf("could not create blob storage directory %q: %v", cfg.Storage.Path, err)
	}
	blobs := blobstore.New(cfg.Storage.Path)

	redisClient := redisclient.New(cfg.Redis, logger)
	shareCache := sharecache.New(redisClient, cfg.Redis.Prefix)

	app, err := di.InitializeApplication(
		db.DB, blobs, shareCache,
		cfg.JWT.Secret, cfg.JWT.ExpiresIn,
		cfg.Server.FrontendURL+"/api/files/shared",
		cfg.Server.FrontendURL, "Vault",
		logger,
	)
	if err != nil {
		logger.Fatal("application wiring failed", zap.Error(err))
	}

	c := cron.New()
	if _, err := c.AddFunc("@hourly", app.Files.Service.Run); err != nil {
		logger.Fatal("could not schedule orphan blob sweep", zap.Error(err))
	}
	c.Start()
	defer c.Stop()

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	router.New(r, &router.Modules{Auth: app.Auth, Files: app.Files})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Sugar().Infof("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("forced shutdown: %v", err)
	}
	logger.Info("shutdown complete")
}
