package playback

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/branchplay/branchplay/internal/auth"
	"github.com/branchplay/branchplay/internal/branching"
	"github.com/branchplay/branchplay/internal/httputil"
	"github.com/branchplay/branchplay/internal/scene"
	"github.com/branchplay/branchplay/internal/validate"
)

// URLSigner turns a stored video key into a URL the browser can stream.
type URLSigner interface {
	GenerateDownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}

type Config struct {
	Manager      *Manager
	Catalog      *scene.Catalog
	Secret       string
	DefaultScene string
	Videos       URLSigner
	ChatEnabled  bool
}

type Handler struct {
	manager      *Manager
	catalog      *scene.Catalog
	secret       string
	defaultScene string
	videos       URLSigner
	chatEnabled  bool
}

func NewHandler(cfg Config) *Handler {
	if cfg.DefaultScene == "" {
		cfg.DefaultScene = scene.DefaultSceneID
	}
	return &Handler{
		manager:      cfg.Manager,
		catalog:      cfg.Catalog,
		secret:       cfg.Secret,
		defaultScene: cfg.DefaultScene,
		videos:       cfg.Videos,
		chatEnabled:  cfg.ChatEnabled,
	}
}

type createRequest struct {
	Scene    string  `json:"scene"`
	Duration float64 `json:"duration"`
}

type createResponse struct {
	SessionID string             `json:"sessionId"`
	Token     string             `json:"token"`
	Scene     string             `json:"scene"`
	Title     string             `json:"title"`
	Questions []branching.Prompt `json:"questions"`
}

type timeRequest struct {
	Time *float64 `json:"time"`
}

type selectRequest struct {
	QuestionID string `json:"questionId"`
	Option     *int   `json:"option"`
}

type sessionResponse struct {
	SessionID string                `json:"sessionId"`
	Scene     string                `json:"scene"`
	Pending   []branching.Prompt    `json:"pending"`
	State     []branching.StateView `json:"state"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Scene == "" {
		req.Scene = h.defaultScene
	}
	if msg := validate.SceneID(req.Scene); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if math.IsNaN(req.Duration) || math.IsInf(req.Duration, 0) || req.Duration < 0 {
		httputil.WriteError(w, http.StatusBadRequest, "duration must be a non-negative number")
		return
	}

	s, err := h.manager.Create(req.Scene, req.Duration)
	if err != nil {
		if errors.Is(err, ErrTooManySessions) {
			httputil.WriteError(w, http.StatusServiceUnavailable, "too many active sessions")
			return
		}
		writeSessionError(w, err)
		return
	}

	token, err := auth.GeneratePlaybackToken(h.secret, s.ID, s.SceneID)
	if err != nil {
		h.manager.End(s.ID)
		slog.Error("playback: failed to sign session token", "session_id", s.ID, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	questions := s.Prompts()

	slog.Info("playback: session created", "session_id", s.ID, "scene_id", s.SceneID, "questions", len(questions))
	httputil.WriteJSON(w, http.StatusCreated, createResponse{
		SessionID: s.ID,
		Token:     token,
		Scene:     s.SceneID,
		Title:     s.Title,
		Questions: questions,
	})
}

// session loads the session named in the URL and checks that the request's
// token was issued for it.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := chi.URLParam(r, "id")
	if auth.SessionIDFromContext(r.Context()) != id {
		httputil.WriteError(w, http.StatusForbidden, "token not valid for this session")
		return nil, false
	}
	s, ok := h.manager.Get(id)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	pending := s.Pending()
	if pending == nil {
		pending = []branching.Prompt{}
	}
	httputil.WriteJSON(w, http.StatusOK, sessionResponse{
		SessionID: s.ID,
		Scene:     s.SceneID,
		Pending:   pending,
		State:     s.State(),
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.manager.End(s.ID)
	slog.Info("playback: session ended", "session_id", s.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	t, ok := decodeTime(w, r)
	if !ok {
		return
	}
	res, err := s.Progress(t)
	writeResult(w, res, err)
}

func (h *Handler) Seek(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	t, ok := decodeTime(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s.Seek(t))
}

func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" || req.Option == nil {
		httputil.WriteError(w, http.StatusBadRequest, "questionId and option are required")
		return
	}

	res, err := s.Select(req.QuestionID, *req.Option)
	if err == nil || errors.Is(err, branching.ErrPlaybackCommand) {
		slog.Info("playback: question answered", "session_id", s.ID, "question_id", req.QuestionID, "option", *req.Option)
	}
	writeResult(w, res, err)
}

func decodeTime(w http.ResponseWriter, r *http.Request) (float64, bool) {
	var req timeRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return 0, false
	}
	if req.Time == nil {
		httputil.WriteError(w, http.StatusBadRequest, "time is required")
		return 0, false
	}
	return *req.Time, true
}

type sessionError struct {
	status  int
	code    string
	message string
}

func classify(err error) sessionError {
	var cfgErr *scene.ConfigurationError
	var frameErr badFrameError
	switch {
	case errors.As(err, &frameErr):
		return sessionError{http.StatusBadRequest, "bad_request", frameErr.Error()}
	case errors.Is(err, branching.ErrUnknownQuestion):
		return sessionError{http.StatusNotFound, "unknown_question", "unknown question"}
	case errors.Is(err, branching.ErrInvalidState):
		return sessionError{http.StatusConflict, "invalid_state", "question is not awaiting an answer"}
	case errors.Is(err, branching.ErrInvalidOption):
		return sessionError{http.StatusBadRequest, "invalid_option", "option does not belong to question"}
	case errors.As(err, &cfgErr):
		return sessionError{http.StatusUnprocessableEntity, "configuration", cfgErr.Error()}
	case errors.Is(err, branching.ErrPlaybackCommand):
		return sessionError{http.StatusBadGateway, "playback", err.Error()}
	default:
		return sessionError{http.StatusInternalServerError, "internal", "internal error"}
	}
}

// failedResult carries the outcome of a signal whose player command could
// not be delivered. The state change stands, so the caller still needs it.
type failedResult struct {
	Result
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeResult(w http.ResponseWriter, res Result, err error) {
	switch {
	case err == nil:
		httputil.WriteJSON(w, http.StatusOK, res)
	case errors.Is(err, branching.ErrPlaybackCommand):
		se := classify(err)
		slog.Warn("playback: command not delivered", "error", err)
		httputil.WriteJSON(w, se.status, failedResult{Result: res, Error: se.message, Code: se.code})
	default:
		writeSessionError(w, err)
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	se := classify(err)
	if se.status == http.StatusInternalServerError {
		slog.Error("playback: unexpected error", "error", err)
	}
	httputil.WriteErrorCode(w, se.status, se.code, se.message)
}
