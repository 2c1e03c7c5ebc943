package main

import (
	"fmt"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"heritage-api/config"
	"heritage-api/handlers"
	"heritage-api/middleware"
	"heritage-api/routes"
	"heritage-api/services"
	"heritage-api/storage"
)

// newBlobStore picks the storage backend named by STORAGE_DRIVER.
func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.StorageDriver {
	case "cloudinary":
		return storage.NewCloudinaryStore(cfg.CloudinaryURL)
	case "local":
		return storage.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// newRouter wires services, middleware and routes into a gin engine.
func newRouter(cfg *config.Config, db *gorm.DB, store storage.BlobStore, withSentry bool) *gin.Engine {
	identity := services.NewIdentityService(db, store, cfg.UploadFolder)
	submissions := services.NewSubmissionService(db, store, cfg.UploadFolder)
	reports := services.NewReportService(db, submissions)
	issuer := middleware.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	h := handlers.New(identity, submissions, reports, issuer, db, cfg.MaxUploadBytes())

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())
	if withSentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(middleware.CORS(cfg.AllowedOrigins()))

	if cfg.StorageDriver == "local" {
		r.Static("/uploads", cfg.UploadDir)
	}

	routes.SetupRoutes(r, h,
		middleware.AuthRequired(issuer, identity),
		middleware.RateLimit(cfg.AuthRateLimit, cfg.AuthRateBurst),
	)
	return r
}
