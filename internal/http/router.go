// Package http wires A7's Gin router: a small ordered middleware chain
// (CORS, request id/logging, centralized error mapping) in front of
// the five per-domain endpoints and a health check. Grounded on the
// teacher's router.go, trimmed to this system's surface.
package http

import (
	"log/slog"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/rubentalstra/trial-submission-studio/internal/catalog"
	"github.com/rubentalstra/trial-submission-studio/internal/config"
	"github.com/rubentalstra/trial-submission-studio/internal/http/handlers"
	"github.com/rubentalstra/trial-submission-studio/internal/http/middleware"
	"github.com/rubentalstra/trial-submission-studio/internal/pipeline"
	"github.com/rubentalstra/trial-submission-studio/internal/workpool"
)

// SetupRouter builds the HTTP surface for cfg, loading the standards
// catalog (C1) once at startup.
func SetupRouter(cfg *config.Config) (*gin.Engine, error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}

	router := gin.Default()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		slog.Error("failed to set trusted proxies", "error", err)
	}

	router.Use(middleware.CORS(cfg))
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.HealthHandler)

	pool := workpool.New(runtime.GOMAXPROCS(0))
	pipelineOptions := func() pipeline.Options {
		opts := pipeline.DefaultOptions()
		if cfg.CTMatching == "strict" {
			opts.CTMatching = catalog.Strict
		}
		opts.PreserveOnError = cfg.PreserveOnError
		return opts
	}
	h := handlers.NewDomainHandler(cat, pipelineOptions, pool, cfg)

	domains := router.Group("/api/domains/:name")
	{
		domains.POST("/score", h.Score)
		domains.POST("/mapping/:action", h.Mapping)
		domains.POST("/build", h.Build)
		domains.POST("/validate", h.Validate)
		domains.POST("/supp", h.Supp)
	}

	return router, nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.StandardsDir != "" {
		return catalog.LoadFromDir(cfg.StandardsDir)
	}
	return catalog.Load()
}
