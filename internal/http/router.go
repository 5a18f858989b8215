// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/ltavares/tempo-backend/internal/ai"
	"github.com/ltavares/tempo-backend/internal/config"
	"github.com/ltavares/tempo-backend/internal/http/handlers"
	"github.com/ltavares/tempo-backend/internal/http/middleware"
	"github.com/ltavares/tempo-backend/internal/repo"
	"github.com/ltavares/tempo-backend/internal/services"
)

// Services bundles the wired application services so the caller can also
// start the background drain loop.
type Services struct {
	Pipeline    *services.PipelineService
	Activities  *services.ActivityService
	Chats       *services.ChatService
	Queue       *services.QueueService
	Maintenance *services.MaintenanceService
	Rollup      *services.RollupService
}

// BuildServices performs dependency injection: AI client → strategy →
// activity/chat/queue/rollup services, all sharing the same DB handle.
func BuildServices(db *gorm.DB, cfg config.Config) *Services {
	client := ai.New(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model)

	strategy := &services.StrategyService{
		DB:              db,
		Threshold:       cfg.SimilarityThreshold,
		OnboardingCount: cfg.OnboardingCount,
		ReengageAfter:   cfg.ReengageAfter,
	}
	acts := services.NewActivityService(db, client, strategy, cfg.AI.ProcessTimeout)
	chats := &services.ChatService{DB: db, AI: client}
	intent := &services.IntentService{AI: client}
	queue := &services.QueueService{
		DB:             db,
		Intent:         intent,
		Activities:     acts,
		Chats:          chats,
		Log:            log.With().Str("component", "queue").Logger(),
		TickInterval:   cfg.Queue.TickInterval,
		Cooldown:       cfg.Queue.Cooldown,
		FollowUpDelay:  cfg.Queue.FollowUpDelay,
		IntentTimeout:  cfg.AI.IntentTimeout,
		ProcessTimeout: cfg.AI.ProcessTimeout,
	}
	pipeline := &services.PipelineService{
		DB:            db,
		Intent:        intent,
		Activities:    acts,
		Chats:         chats,
		Queue:         queue,
		IntentTimeout: cfg.AI.IntentTimeout,
	}
	maint := &services.MaintenanceService{
		DB:  db,
		TTL: time.Duration(cfg.CacheTTLDays) * 24 * time.Hour,
	}
	rollup := &services.RollupService{DB: db, AI: client, Timeout: cfg.AI.ProcessTimeout}

	return &Services{
		Pipeline:    pipeline,
		Activities:  acts,
		Chats:       chats,
		Queue:       queue,
		Maintenance: maint,
		Rollup:      rollup,
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with header masking
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, svcs *Services, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with header masking
	r.Use(middleware.Logger(middleware.LogOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, uid, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, uid, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	h := handlers.New(db, svcs.Pipeline, svcs.Activities, svcs.Queue, svcs.Maintenance, svcs.Rollup, cfg.IdempotencyTTL)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Inputs
		api.POST("/inputs", h.SubmitInput)

		// Activities
		api.GET("/activities", h.ListActivities)
		api.GET("/activities/today", h.TodayActivities)

		// Pending queue
		api.GET("/queue", h.QueueStatus)
		api.PUT("/queue/drain", h.DrainQueue)

		// Response cache
		api.GET("/cache/stats", h.CacheStats)
		api.POST("/cache/cleanup", h.CleanupCache)

		// Daily feedbacks
		api.GET("/feedbacks", h.ListFeedbacks)
		api.POST("/feedbacks/rollup", h.RunRollup)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on downstream reads.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
