package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/photobooth/photobooth-api/internal/config"
	"github.com/photobooth/photobooth-api/internal/domain/feed"
	"github.com/photobooth/photobooth-api/internal/domain/photo"
	"github.com/photobooth/photobooth-api/internal/middleware"
	"github.com/photobooth/photobooth-api/internal/pkg/database"
	"github.com/photobooth/photobooth-api/internal/pkg/logger"
	pkgresponse "github.com/photobooth/photobooth-api/internal/pkg/response"
	"github.com/photobooth/photobooth-api/internal/pkg/storage"
)

const version = "1.0.0"

// fileStore is what the API needs from a storage backend
type fileStore interface {
	storage.Storage
	storage.Lister
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("storage", cfg.StorageDriver).
		Msg("Starting Photobooth API")

	ctx := context.Background()

	store, err := newStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage")
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	var photoRepo photo.Repository
	if db != nil {
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare database schema")
		}
		photoRepo = photo.NewPostgresRepository(db)
	} else {
		photoRepo = photo.NewMemoryRepository()
	}

	redis, err := database.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	// ---------- Live feed ----------
	feedHub := feed.NewHub(redis)
	go feedHub.Run()
	defer feedHub.Stop()

	// ---------- Services ----------
	photoService := photo.NewService(photoRepo, store, feedHub, cfg.BaseURL)

	sweeper := photo.NewSweeper(photoRepo, store, store, cfg.OrphanGrace)
	if cfg.OrphanSweepSchedule != "" {
		if err := sweeper.Start(ctx, cfg.OrphanSweepSchedule); err != nil {
			log.Fatal().Err(err).Msg("Failed to start orphan sweeper")
		}
		defer sweeper.Stop()
	}

	// ---------- Handlers ----------
	photoHandler := photo.NewHandler(photoService, cfg.MaxUploadSize)
	feedHandler := feed.NewHandler(feedHub, cfg.AllowedOrigins)

	r := newRouter(cfg, photoHandler, feedHandler, store)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

func newStorage(ctx context.Context, cfg *config.Config) (fileStore, error) {
	if cfg.UsesS3() {
		return storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return storage.NewLocalStorage(cfg.UploadDir, cfg.UploadURLPrefix)
}

func newRouter(cfg *config.Config, photoHandler *photo.Handler, feedHandler *feed.Handler, store fileStore) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})

	photoRoutes := photoHandler.Routes()
	photoRoutes.Get("/feed", feedHandler.WebSocket)
	r.Mount("/api/photos", photoRoutes)

	r.Get("/api/share/{token}", photoHandler.GetShared)
	r.Get("/api/filters", photoHandler.Filters)
	r.Mount("/share", photoHandler.ShareRoutes())

	// Locally stored files are served by the API itself
	if local, ok := store.(*storage.LocalStorage); ok && strings.HasPrefix(cfg.UploadURLPrefix, "/") {
		prefix := strings.TrimRight(cfg.UploadURLPrefix, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(local.BasePath()))))
	}

	return r
}
