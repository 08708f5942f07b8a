// Package httpapi wires the operator console's HTTP transport (Gin) to the
// application root, middleware and route handlers. It centralizes
// cross-cutting concerns such as tracing, correlation IDs, logging and
// redaction, panic recovery, metrics, session resolution, CORS, security
// headers, idempotency and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/go-warehouse-approvals/docs"
	"github.com/tbourn/go-warehouse-approvals/internal/app"
	"github.com/tbourn/go-warehouse-approvals/internal/domain"
	"github.com/tbourn/go-warehouse-approvals/internal/http/handlers"
	"github.com/tbourn/go-warehouse-approvals/internal/http/middleware"
	"github.com/tbourn/go-warehouse-approvals/internal/repo"
	"github.com/tbourn/go-warehouse-approvals/internal/services"
	"github.com/tbourn/go-warehouse-approvals/internal/utils"
)

// sessionShim adapts the application root to handlers.SessionService so
// login and logout also update the app's authenticated state.
type sessionShim struct{ a *app.App }

// Login proxies app.App.Login.
func (s sessionShim) Login(ctx context.Context, username, password string) (domain.User, error) {
	return s.a.Login(ctx, username, password)
}

// Logout proxies app.App.Logout.
func (s sessionShim) Logout(ctx context.Context) error { return s.a.Logout(ctx) }

// Status proxies services.AuthService.Status.
func (s sessionShim) Status(ctx context.Context) (services.SessionStatus, error) {
	return s.a.Auth.Status(ctx)
}

// RefreshProfile proxies services.AuthService.RefreshProfile.
func (s sessionShim) RefreshProfile(ctx context.Context) (domain.User, error) {
	return s.a.Auth.RefreshProfile(ctx)
}

// ChangePassword proxies services.AuthService.ChangePassword.
func (s sessionShim) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	return s.a.Auth.ChangePassword(ctx, oldPassword, newPassword)
}

// historyShim adapts the approval log queries to handlers.HistoryService.
type historyShim struct{ db *gorm.DB }

// ListPage proxies repo.ListApprovalsPage, converting page numbers to offsets.
func (h historyShim) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.ApprovalRecord, int64, error) {
	pg := utils.Page{Number: page, Size: pageSize}
	return repo.ListApprovalsPage(ctx, h.db, userID, pg.Offset(), pg.Size)
}

// Stats proxies repo.ApprovalStats.
func (h historyShim) Stats(ctx context.Context, userID string) (int64, *time.Time, error) {
	return repo.ApprovalStats(ctx, h.db, userID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), session
// resolution, idempotency and rate limiting, CORS and security headers,
// health and metrics endpoints, and then mounts the console API under
// cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. AccessLog: structured logs with token and contact scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Session: resolve the operator before anything keyed by user
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, a *app.App) {
	cfg := a.Config
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access log with redaction
	r.Use(middleware.AccessLog(middleware.AccessLogOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
		SkipPaths:   []string{"/metrics"},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics("/metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Operator identity from the credential store
	r.Use(middleware.Session(a.Store))

	// 8) Idempotency validation (before rate limiting)
	var lookup middleware.IdempotencyLookup
	if a.DB != nil {
		db := a.DB
		lookup = func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetApprovalByKey(ctx, db, userID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return rec.Succeeded(), nil
		}
	}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, lookup))

	// 9) Token-bucket rate limiter per operator/IP
	rl := middleware.NewRateLimiter(middleware.RateLimitOptions{
		RPS:    cfg.RateRPS,
		Burst:  cfg.RateBurst,
		Exempt: []string{"/health", "/metrics"},
	}, middleware.KeyByOperatorOrIP())
	r.Use(rl.Handler())

	// 10) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag", "Idempotency-Replayed", "X-Degraded"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
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
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "If-None-Match", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag", "Idempotency-Replayed", "X-Degraded"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
		NoStorePrefixes: []string{
			joinPath(cfg.APIBasePath, "/session"),
			joinPath(cfg.APIBasePath, "/me"),
		},
		EnablePolicy: true,
	}))

	// JSON compression; the workbook is already zipped.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		"/metrics",
		joinPath(cfg.APIBasePath, "/documents/pending/export"),
	})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "authenticated": a.Authenticated()})
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: handlers ← application root
	var history handlers.HistoryService
	if a.DB != nil {
		history = historyShim{db: a.DB}
	}
	h := handlers.New(sessionShim{a: a}, a.Documents, a.Approvals, a.Reports, history)

	api := groupWithPrefix(r, cfg.APIBasePath) // e.g. "/api/v1"
	{
		// Session
		api.GET("/session", h.SessionStatus)
		api.POST("/session/login", h.Login)
		api.POST("/session/logout", h.Logout)
	}

	authed := api.Group("", middleware.RequireSession())
	{
		authed.POST("/session/password", h.ChangePassword)
		authed.GET("/me", h.Me)

		// Documents
		authed.GET("/documents/pending", h.ListPending)
		authed.GET("/documents/pending/export", h.ExportPending)
		authed.POST("/documents/:type/:id/approve", h.Approve)

		// Approval log
		authed.GET("/approvals", h.ListApprovals)

		// Reports
		authed.GET("/reports/:name", h.GetReport)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
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

func joinPath(prefix, p string) string {
	if prefix == "" || prefix == "/" {
		return p
	}
	return prefix + p
}
