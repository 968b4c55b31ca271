package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/branchplay/branchplay/internal/auth"
	"github.com/branchplay/branchplay/internal/chat"
	"github.com/branchplay/branchplay/internal/docs"
	"github.com/branchplay/branchplay/internal/httputil"
	"github.com/branchplay/branchplay/internal/playback"
	"github.com/branchplay/branchplay/internal/ratelimit"
	"github.com/branchplay/branchplay/internal/scene"
	"github.com/branchplay/branchplay/internal/validate"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// VideoStorage is the object storage behind scene videos: uploads for
// admins, signed playback URLs for viewers.
type VideoStorage interface {
	scene.VideoStore
	playback.URLSigner
}

type Config struct {
	Pinger            Pinger
	Catalog           *scene.Catalog
	SceneStore        *scene.Store
	Videos            VideoStorage
	Manager           *playback.Manager
	Chat              chat.Asker
	WebFS             fs.FS
	SessionSecret     string
	AdminUser         string
	AdminPasswordHash string
	BaseURL           string
	S3PublicEndpoint  string
	FrameAncestors    string
	DefaultScene      string
	EnableDocs        bool
}

type Server struct {
	router          chi.Router
	pinger          Pinger
	authHandler     *auth.Handler
	sceneHandler    *scene.Handler
	playbackHandler *playback.Handler
	chatHandler     *chat.Handler
	limiters        []*ratelimit.Limiter
	docsHandler     *docs.Handler
	webFS           fs.FS
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:               cfg.BaseURL,
		StorageEndpoint:       cfg.S3PublicEndpoint,
		AllowedFrameAncestors: cfg.FrameAncestors,
	}))

	s := &Server{router: r, pinger: cfg.Pinger, webFS: cfg.WebFS}

	s.authHandler = auth.NewHandler(cfg.SessionSecret, cfg.AdminUser, cfg.AdminPasswordHash)
	s.sceneHandler = scene.NewHandler(cfg.Catalog, cfg.SceneStore)
	playbackCfg := playback.Config{
		Manager:      cfg.Manager,
		Catalog:      cfg.Catalog,
		Secret:       cfg.SessionSecret,
		DefaultScene: cfg.DefaultScene,
		ChatEnabled:  cfg.Chat != nil,
	}
	if cfg.Videos != nil {
		s.sceneHandler.SetVideoStore(cfg.Videos)
		playbackCfg.Videos = cfg.Videos
	}
	s.playbackHandler = playback.NewHandler(playbackCfg)
	s.chatHandler = chat.NewHandler(cfg.Chat)

	if cfg.EnableDocs {
		h, err := docs.NewHandler(cfg.BaseURL)
		if err != nil {
			slog.Error("server: API docs disabled", "error", err)
		} else {
			s.docsHandler = h
		}
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// StartSweepers evicts idle rate limiter entries until ctx is done.
func (s *Server) StartSweepers(ctx context.Context) {
	for _, l := range s.limiters {
		l.StartSweeper(ctx)
	}
}

func (s *Server) limiter(requestsPerSecond float64, burst int, key ratelimit.KeyFunc) *ratelimit.Limiter {
	l := ratelimit.NewLimiter(requestsPerSecond, burst, key)
	s.limiters = append(s.limiters, l)
	return l
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", s.handleLimits)
	s.router.Get("/api/scenes/{id}", s.sceneHandler.Public)

	if s.docsHandler != nil {
		s.router.Get("/api/docs", s.docsHandler.Page)
		s.router.Get("/api/docs/openapi.yaml", s.docsHandler.Spec)
	}

	createLimiter := s.limiter(1, 10, ratelimit.ClientIP)
	s.router.With(createLimiter.Middleware).Post("/api/sessions", s.playbackHandler.Create)

	// Progress reports arrive several times a second during playback.
	sessionLimiter := s.limiter(20, 60, ratelimit.PlaybackSession)
	s.router.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Use(s.authHandler.Middleware)
		r.Use(sessionLimiter.Middleware)
		r.Get("/", s.playbackHandler.Get)
		r.Delete("/", s.playbackHandler.Delete)
		r.Post("/progress", s.playbackHandler.Progress)
		r.Post("/seek", s.playbackHandler.Seek)
		r.Post("/select", s.playbackHandler.Select)
		r.Get("/ws", s.playbackHandler.Live)
	})

	chatLimiter := s.limiter(0.2, 5, ratelimit.ClientIP)
	s.router.With(chatLimiter.Middleware).Post("/api/chat", s.chatHandler.Ask)

	adminLimiter := s.limiter(2, 20, ratelimit.ClientIP)
	s.router.Route("/api/admin/scenes", func(r chi.Router) {
		r.Use(adminLimiter.Middleware)
		r.Use(s.authHandler.AdminMiddleware)
		r.Get("/", s.sceneHandler.List)
		r.Get("/{id}", s.sceneHandler.Get)
		r.Put("/{id}", s.sceneHandler.Put)
		r.Delete("/{id}", s.sceneHandler.Delete)
		r.Post("/{id}/video", s.sceneHandler.UploadVideo)
		r.Post("/{id}/video/attach", s.sceneHandler.AttachVideo)
	})

	s.router.Get("/watch", s.playbackHandler.WatchPage)

	if s.webFS != nil {
		spa := newSPAFileServer(s.webFS)
		s.router.NotFound(spa.ServeHTTP)
		return
	}
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		target := "/watch"
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusFound)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}
