//	@title			Stashbox API
//	@version		1.0
//	@description	Object-storage access façade: upload, fetch, presign and delete objects in a single S3-compatible bucket.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/stashbox/service/internal/auth"
	"github.com/stashbox/service/internal/config"
	"github.com/stashbox/service/internal/db"
	"github.com/stashbox/service/internal/media"
	appMiddleware "github.com/stashbox/service/internal/middleware"
	"github.com/stashbox/service/internal/notify"
	"github.com/stashbox/service/internal/storage"

	_ "github.com/stashbox/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		log.Fatalf("object storage init failed (driver=%q): %v", cfg.StorageDriver, err)
	}

	var recorder notify.Recorder = notify.LogRecorder{}
	if cfg.NotifyRedisURL != "" {
		redisRec, err := notify.NewRedisRecorder(context.Background(), cfg.NotifyRedisURL)
		if err != nil {
			log.Fatalf("notify redis init failed: %v", err)
		}
		defer redisRec.Close()
		recorder = redisRec
	}

	// Wire dependencies: repository → service → handler
	mediaRepo := media.NewRepository(pool)
	mediaSvc := media.NewService(store, mediaRepo, recorder, cfg.PresignDefaultExpiry)
	mediaHandler := media.NewHandler(mediaSvc)

	authSvc := auth.NewService(cfg)
	authHandler := auth.NewHandler(authSvc)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI — available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoint
		r.Post("/auth/token", authHandler.IssueToken)

		// Protected object endpoints
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAuth(cfg.JWTSecret))
			r.Post("/objects", mediaHandler.Upload)
			r.Get("/objects", mediaHandler.List)
			r.Delete("/objects/*", mediaHandler.Delete)
			r.Get("/download/*", mediaHandler.Download)
			r.Get("/encoded/*", mediaHandler.Encoded)
			r.Get("/presign/*", mediaHandler.Presign)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		log.Printf("swagger UI at http://localhost:%s/swagger/", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
