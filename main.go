package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"heritage-api/config"
	"heritage-api/logger"
	"heritage-api/services"
	"heritage-api/storage"
)

func main() {
	cfg := config.MustLoad()

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.OpenDB(cfg)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer closeDB(db)

	store, err := newBlobStore(cfg)
	if err != nil {
		log.Fatal("blob store", zap.Error(err))
	}

	// `heritage-api sync-admin` reconciles the Super Admin and exits.
	if len(os.Args) > 1 && os.Args[1] == "sync-admin" {
		if err := syncAdmin(cfg, db, store); err != nil {
			log.Fatal("admin sync failed", zap.Error(err))
		}
		return
	}
	if err := syncAdmin(cfg, db, store); err != nil {
		log.Error("admin sync failed", zap.Error(err))
	}

	withSentry := false
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.AppEnv,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
		}); err != nil {
			log.Error("sentry init failed", zap.Error(err))
		} else {
			withSentry = true
			defer sentry.Flush(2 * time.Second)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, db, store, withSentry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}
}

func syncAdmin(cfg *config.Config, db *gorm.DB, store storage.BlobStore) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	identity := services.NewIdentityService(db, store, cfg.UploadFolder)
	res, err := identity.SyncSuperAdmin(ctx, services.AdminSeed{
		Name:     cfg.AdminName,
		Phone:    cfg.AdminPhone,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
	})
	if err != nil {
		return err
	}
	logger.L().Info("admin sync", zap.String("result", string(res)))
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.L().Error("database close error", zap.Error(err))
		}
	}
}
