package server

import (
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/anuncia/anuncia/internal/config"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(otelecho.Middleware(s.cfg.OTel.ServiceName, otelecho.WithSkipper(skipper)))
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		TargetHeader: config.HEADER_KEY_X_REQUEST_ID,
	}))
	e.Use(NewEchoLogger(s.logger))
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"https://*", "http://*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Accept", "Authorization", "Content-Type", config.HEADER_KEY_X_CLIENT_ID},
		MaxAge:       300,
	}))

	e.GET("/api/health", s.healthHandler)

	// Stored URLs are relative to the base directory and start with the
	// asset root, so the root is served under its own name.
	e.Static("/"+s.cfg.Storage.AssetRoot, filepath.Join(s.cfg.Storage.BaseDir, s.cfg.Storage.AssetRoot))

	upload := s.uploadMiddlewares()

	var assetGroup = e.Group("/api/v1/assets")
	assetGroup.GET("", s.ListAssets)
	assetGroup.POST("/audit", s.RequestStorageAudit)
	assetGroup.GET("/:id", s.GetAssetByID)
	assetGroup.DELETE("/:id", s.DeleteAsset)
	assetGroup.POST("/:kind/:owner_id", s.UploadAssets, upload...)
	assetGroup.PUT("/:kind/:owner_id/image", s.ReplaceOwnerImage, upload...)

	var ownerGroup = e.Group("/api/v1/owners")
	ownerGroup.DELETE("/:kind/:id", s.DeleteOwner)

	var jobGroup = e.Group("/api/v1/jobs")
	jobGroup.GET("/:id", s.GetJobByID)

	return e
}
