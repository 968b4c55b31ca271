package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/branchplay/branchplay/internal/chat"
	"github.com/branchplay/branchplay/internal/database"
	"github.com/branchplay/branchplay/internal/playback"
	"github.com/branchplay/branchplay/internal/scene"
	"github.com/branchplay/branchplay/internal/server"
	"github.com/branchplay/branchplay/internal/storage"
)

func main() {
	slog.SetDefault(newLogger(os.Stdout, os.Getenv("LOG_FORMAT")))

	port := getEnv("PORT", "8080")
	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	catalog, err := loadCatalog(os.Getenv("SCENES_FILE"))
	if err != nil {
		log.Fatalf("scene catalog failed: %v", err)
	}

	cfg := server.Config{
		Catalog:           catalog,
		SessionSecret:     sessionSecret,
		AdminUser:         getEnv("ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		BaseURL:           baseURL,
		S3PublicEndpoint:  os.Getenv("S3_PUBLIC_ENDPOINT"),
		FrameAncestors:    os.Getenv("ALLOWED_FRAME_ANCESTORS"),
		DefaultScene:      getEnv("DEFAULT_SCENE", scene.DefaultSceneID),
		EnableDocs:        getEnv("API_DOCS_ENABLED", "false") == "true",
	}
	if cfg.AdminPasswordHash == "" {
		slog.Warn("main: ADMIN_PASSWORD_HASH not set, admin API disabled")
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		db, err := database.Connect(ctx, databaseURL)
		if err != nil {
			log.Fatalf("database connection failed: %v", err)
		}
		defer db.Close()

		if err := db.Migrate(databaseURL); err != nil {
			log.Fatalf("database migration failed: %v", err)
		}
		slog.Info("main: database migrations applied")

		store := scene.NewStore(db.Pool)
		loaded, err := store.LoadInto(ctx, catalog)
		if err != nil {
			log.Fatalf("loading stored scenes failed: %v", err)
		}
		slog.Info("main: stored scenes loaded", "count", loaded)
		cfg.SceneStore = store
		cfg.Pinger = db
	} else {
		slog.Info("main: DATABASE_URL not set, scene edits are kept in memory")
	}

	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		store, err := storage.New(ctx, storage.Config{
			Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:3900"),
			PublicEndpoint: os.Getenv("S3_PUBLIC_ENDPOINT"),
			Bucket:         bucket,
			AccessKey:      os.Getenv("S3_ACCESS_KEY"),
			SecretKey:      os.Getenv("S3_SECRET_KEY"),
			Region:         getEnv("S3_REGION", "eu-central-1"),
			MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 500*1024*1024),
		})
		if err != nil {
			log.Fatalf("storage initialization failed: %v", err)
		}
		if err := store.EnsureBucket(ctx); err != nil {
			log.Fatalf("storage bucket check failed: %v", err)
		}
		if err := store.SetCORS(ctx, []string{baseURL}); err != nil {
			slog.Warn("main: failed to set bucket CORS", "error", err)
		}
		slog.Info("main: storage bucket ready", "bucket", bucket)
		cfg.Videos = store
	}

	if getEnv("AI_ENABLED", "false") == "true" {
		model := getEnv("AI_MODEL", chat.DefaultModel)
		cfg.Chat = chat.NewClient(os.Getenv("AI_BASE_URL"), os.Getenv("AI_API_KEY"), model)
		slog.Info("main: chat enabled", "model", model)
	}

	if dir := os.Getenv("WEB_DIR"); dir != "" {
		cfg.WebFS = os.DirFS(dir)
		slog.Info("main: serving frontend", "dir", dir)
	}

	manager := playback.NewManager(catalog, int(getEnvInt64("MAX_SESSIONS", playback.DefaultMaxSessions)))
	cfg.Manager = manager

	srv := server.New(cfg)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	idle := time.Duration(getEnvFloat("SESSION_IDLE_MINUTES", 30) * float64(time.Minute))
	playback.StartIdleSweeper(workerCtx, manager, time.Minute, idle)
	srv.StartSweepers(workerCtx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("main: branchplay listening", "port", port, "scenes", catalog.Len())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-shutdownCh
	slog.Info("main: shutting down")
	workerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}
	slog.Info("main: shutdown complete", "sessions_open", manager.Len())
}

// loadCatalog seeds the built-in scene and overlays the scenes file, if any.
func loadCatalog(path string) (*scene.Catalog, error) {
	catalog, err := scene.NewCatalog(scene.Builtin())
	if err != nil {
		return nil, fmt.Errorf("built-in scene: %w", err)
	}
	if path == "" {
		return catalog, nil
	}
	scenes, err := scene.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, sc := range scenes {
		if err := catalog.Put(sc); err != nil {
			return nil, fmt.Errorf("scene %q: %w", sc.ID, err)
		}
	}
	slog.Info("main: scenes file loaded", "path", path, "count", len(scenes))
	return catalog, nil
}

func newLogger(w io.Writer, format string) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, nil))
	}
	return slog.New(slog.NewTextHandler(w, nil))
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
