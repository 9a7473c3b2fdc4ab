// Package main is the entry point for the Survey Tools API server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ashford-Glazing/survey-tools-api/internal/config"
	"github.com/Ashford-Glazing/survey-tools-api/internal/database"
	"github.com/Ashford-Glazing/survey-tools-api/internal/router"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/annotate"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/storage"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/webhook"
	"github.com/Ashford-Glazing/survey-tools-api/internal/services/worker"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("🚀 Survey Tools API %s starting...", Version)

	// Step 1: Load Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	log.Printf("📋 Config loaded: port=%s, workers=%d, gin_mode=%s", cfg.Port, cfg.WorkerCount, cfg.GinMode)
	log.Printf("📁 Sheet storage: %s", cfg.StorageDir)

	os.Setenv("GIN_MODE", cfg.GinMode)

	// Step 2: Connect to Database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("✅ Database connected")

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}

	// Step 3: Create Services
	store, err := storage.New(cfg.StorageDir)
	if err != nil {
		log.Fatalf("❌ Failed to prepare storage directory: %v", err)
	}

	// Annotation layout profile (SVT-16)
	layout, err := annotate.LoadLayout(cfg.AnnotationProfile)
	if err != nil {
		log.Fatalf("❌ Failed to load annotation profile: %v", err)
	}
	if cfg.AnnotationProfile != "" {
		log.Printf("✅ Annotation profile loaded from %s (anchor=%q, tolerance=%dmm)", cfg.AnnotationProfile, layout.AnchorText, layout.ToleranceMM)
	} else {
		log.Printf("✅ Annotation defaults in use (anchor=%q, tolerance=%dmm)", layout.AnchorText, layout.ToleranceMM)
	}
	annotator := annotate.NewService(layout)

	// Webhook notification service (SVT-11)
	webhookService := webhook.New(db)
	log.Println("✅ Webhook notification service initialized")

	// Step 4: Create and Start Worker Pool
	wp := worker.NewPool(cfg.WorkerCount, cfg.JobQueueSize, db, store)
	wp.SetWebhookService(webhookService) // SVT-11: wire webhooks into worker for batch notifications
	wp.Start()

	// Log admin API key status
	if cfg.AdminAPIKey != "" {
		log.Println("✅ Admin API key configured (API key creation protected)")
	} else {
		log.Println("⚠️  No admin API key set (API key creation is open — set ADMIN_API_KEY in production)")
	}

	// Step 5: Setup HTTP Router
	r := router.Setup(db, wp, store, annotator, webhookService, cfg)

	// Step 6: Start the HTTP Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on http://localhost:%s", cfg.Port)
		log.Printf("📖 Upload form: http://localhost:%s/", cfg.Port)
		log.Printf("📖 Health check: http://localhost:%s/api/v1/health", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	// Step 7: Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Printf("🛑 Received signal %v, shutting down gracefully...", sig)

	// Drain HTTP first: in-flight uploads may still submit blocking jobs,
	// so the worker pool must outlive the server.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️  Server forced to shutdown: %v", err)
	}

	// Signal webhook retry loops to stop, then let the pool finish queued jobs
	webhookService.Shutdown()
	log.Println("⏳ Webhook deliveries signaled to stop")

	wp.Stop()

	log.Println("👋 Server stopped. Goodbye!")
}
