package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docdash-backend/internal/documents"
	"docdash-backend/internal/services/health"
	"docdash-backend/internal/shared/config"
	"docdash-backend/internal/shared/metrics"
	"docdash-backend/internal/shared/server/middleware"
	"docdash-backend/internal/shared/server/respond"
	"docdash-backend/internal/shared/storage/object"
)

// RouterDeps carries the handlers and clients the router mounts.
type RouterDeps struct {
	Config          config.Config
	Verifier        middleware.TokenVerifier
	DocumentHandler *documents.Handler
	Health          *health.Service
	// BlobStore is served under /storage when the local store is in use.
	BlobStore   object.ObjectStore
	RateLimiter *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	healthSvc := deps.Health
	if healthSvc == nil {
		healthSvc = health.NewService()
	}
	r.GET("/api/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, healthSvc.Status())
	})
	r.GET("/api/ready", func(c *gin.Context) {
		ok, checks := healthSvc.Ready(c.Request.Context())
		status := http.StatusOK
		if !ok {
			status = http.StatusServiceUnavailable
		}
		respond.JSON(c, status, gin.H{"ok": ok, "checks": checks})
	})
	r.GET("/metrics", metrics.Handler())
	if deps.BlobStore != nil {
		r.GET("/storage/*key", serveBlob(deps.BlobStore))
	}

	api := r.Group("/api")
	api.Use(
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:    rateLimitRules(deps.Config),
			GroupFor: middleware.UploadGroup,
			Limiter:  deps.RateLimiter,
		}),
	)
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}

	return r
}

func rateLimitRules(cfg config.Config) map[string]middleware.RateLimitRule {
	rules := map[string]middleware.RateLimitRule{}
	if cfg.UploadsPerMinute > 0 {
		rules["UPLOAD"] = middleware.RateLimitRule{
			Rate:  float64(cfg.UploadsPerMinute) / 60.0,
			Burst: cfg.UploadsPerMinute,
		}
	}
	return rules
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
