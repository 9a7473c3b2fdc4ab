// Package router sets up all HTTP routes for the API.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Ashford-Glazing/survey-tools-api/internal/config"
	"github.com/Ashford-Glazing/survey-tools-api/internal/database"
	"github.com/Ashford-Glazing/survey-tools-api/internal/handlers"
	"github.com/Ashford-Glazing/survey-tools-api/internal/middleware"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/annotate"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/storage"
	webhookservice "github.com/Ashford-Glazing/survey-tools-api/internal/services/webhook"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/worker"
)

// Setup creates and configures the Gin router with all routes.
func Setup(db *database.DB, wp *worker.Pool, store *storage.Store, ann *annotate.Service, ws *webhookservice.Service, cfg *config.Config) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	h := handlers.NewHandler(db, wp, store, ann, ws, cfg.JWTSecret, cfg.AdminAPIKey, cfg.OwnerAPIKeyID, cfg.OwnerAPIKeyPrefix, cfg.DefaultRateLimit)
	rateLimiter := middleware.NewRateLimiter()

	// --- Public Routes (no auth required) ---
	r.GET("/", h.ServeUploadForm) // SVT-15: built-in upload page
	r.GET("/api/v1/health", h.HealthCheck)
	r.POST("/api/v1/keys", h.CreateAPIKey)

	// API Documentation (SVT-14)
	r.GET("/api/docs", h.ServeSwaggerUI)
	r.GET("/api/docs/openapi.yaml", h.ServeOpenAPISpec)

	// --- Auth Routes (SVT-12) — public ---
	r.POST("/api/v1/auth/register", h.Register)
	r.POST("/api/v1/auth/login", h.Login)

	// --- JWT-protected routes (SVT-12, SVT-13) ---
	jwtProtected := r.Group("/api/v1")
	jwtProtected.Use(middleware.JWTAuth(db, cfg.JWTSecret))
	{
		jwtProtected.GET("/auth/me", h.GetMe)
		jwtProtected.POST("/auth/refresh", h.RefreshToken)
		jwtProtected.POST("/keys/:id/link", h.LinkAPIKey)
		jwtProtected.GET("/workspace", h.GetWorkspace)
		jwtProtected.POST("/workspace", h.SaveToWorkspace)
		jwtProtected.DELETE("/workspace/:type/:id", h.RemoveFromWorkspace)
	}

	// --- Protected Routes (API key OR JWT — the site tablets use keys) ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.DualAuth(db, cfg.JWTSecret))
	protected.Use(rateLimiter.RateLimit())
	{
		// Sheet endpoints (SVT-3)
		protected.POST("/sheets", h.UploadSheet)
		protected.GET("/sheets", h.ListSheets)
		protected.GET("/sheets/:id", h.GetSheet)
		protected.PATCH("/sheets/:id", h.UpdateSheet)
		protected.DELETE("/sheets/:id", h.DeleteSheet)
		protected.GET("/sheets/:id/file", h.DownloadOriginal)
		protected.GET("/sheets/:id/annotated", h.DownloadAnnotated)

		// Measurement entry (SVT-6)
		protected.PUT("/sheets/:id/measurements", h.UpdateMeasurements)
		protected.PATCH("/sheets/:id/openings/:position", h.UpdateOpening)

		// Annotation (SVT-7)
		protected.POST("/sheets/:id/annotate", h.AnnotateSheet)

		// Exports (SVT-8)
		protected.GET("/sheets/:id/export", h.ExportSheet)
		protected.POST("/exports/workbook", h.ExportWorkbook)
		protected.POST("/exports/bundle", h.ExportBundle)

		// Batch processing (SVT-4)
		protected.POST("/batches", h.CreateBatch)
		protected.GET("/batches/:id", h.GetBatch)

		// API key management
		protected.GET("/keys", h.ListAPIKeys)
		protected.DELETE("/keys/:id", h.RevokeAPIKey)

		// Webhook management (SVT-11)
		// Go Pattern: register the static /webhooks/deliveries route before
		// the parameterized /webhooks/:id routes. Gin matches static segments
		// first, but keeping them in this order makes the intent obvious.
		protected.POST("/webhooks", h.CreateWebhook)
		protected.GET("/webhooks", h.ListWebhooks)
		protected.GET("/webhooks/deliveries", h.ListWebhookDeliveries)
		protected.GET("/webhooks/:id/deliveries", h.GetWebhookDeliveries)
		protected.PATCH("/webhooks/:id", h.UpdateWebhook)
		protected.DELETE("/webhooks/:id", h.DeleteWebhook)
	}

	return r
}
