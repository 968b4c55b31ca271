package scene

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/branchplay/branchplay/internal/httputil"
	"github.com/branchplay/branchplay/internal/storage"
)

const videoUploadExpiry = 30 * time.Minute

// VideoStore is the object storage scene videos are uploaded to.
type VideoStore interface {
	GenerateUploadURL(ctx context.Context, key string, contentType string, contentLength int64, expiry time.Duration) (string, error)
	HeadObject(ctx context.Context, key string) (storage.ObjectInfo, error)
	DeleteObject(ctx context.Context, key string) error
}

// Handler serves the public scene lookup and the admin catalog endpoints.
// Store is optional; without it edits live only in memory.
type Handler struct {
	catalog *Catalog
	store   *Store
	videos  VideoStore
}

func NewHandler(c *Catalog, store *Store) *Handler {
	return &Handler{catalog: c, store: store}
}

// SetVideoStore enables video uploads for scenes.
func (h *Handler) SetVideoStore(v VideoStore) {
	h.videos = v
}

type publicQuestion struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	AppearTime  float64  `json:"appearTime"`
	AppearLabel string   `json:"appearLabel"`
	PauseOnShow bool     `json:"pauseOnShow"`
	Options     []string `json:"options"`
}

type publicScene struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Questions []publicQuestion `json:"questions"`
}

type configurationErrorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems"`
}

// Public returns the resolved scene without jump targets. Unknown ids yield
// an empty question list.
func (h *Handler) Public(w http.ResponseWriter, r *http.Request) {
	sc := h.catalog.Resolve(chi.URLParam(r, "id"))
	resp := publicScene{ID: sc.ID, Title: sc.Title, Questions: make([]publicQuestion, 0, len(sc.Questions))}
	for _, q := range sc.Questions {
		labels := make([]string, len(q.Options))
		for i, opt := range q.Options {
			labels[i] = opt.Label
		}
		resp.Questions = append(resp.Questions, publicQuestion{
			ID:          q.ID,
			Text:        q.Text,
			AppearTime:  q.AppearTime,
			AppearLabel: FormatTime(q.AppearTime),
			PauseOnShow: q.PauseOnShow,
			Options:     labels,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.catalog.List())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sc, ok := h.catalog.Lookup(chi.URLParam(r, "id"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "scene not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var sc Scene
	if err := httputil.DecodeJSON(w, r, &sc); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sc.ID = chi.URLParam(r, "id")
	if sc.Questions == nil {
		sc.Questions = []Question{}
	}

	if err := Validate(sc); err != nil {
		writeConfigurationError(w, err)
		return
	}

	if !h.save(w, r, sc) {
		return
	}
	slog.Info("scene admin: scene saved", "scene_id", sc.ID, "questions", len(sc.Questions))
	httputil.WriteJSON(w, http.StatusOK, sc)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request, sc Scene) bool {
	if h.store != nil {
		if err := h.store.Upsert(r.Context(), sc); err != nil {
			slog.Error("scene admin: failed to save scene", "scene_id", sc.ID, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to save scene")
			return false
		}
	}
	if err := h.catalog.Put(sc); err != nil {
		writeConfigurationError(w, err)
		return false
	}
	return true
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	existing, hadScene := h.catalog.Lookup(id)

	deleted := false
	if h.store != nil {
		ok, err := h.store.Delete(r.Context(), id)
		if err != nil {
			slog.Error("scene admin: failed to delete scene", "scene_id", id, "error", err)
			httputil.WriteError(w, http.StatusInternalServerError, "failed to delete scene")
			return
		}
		deleted = ok
	}
	if h.catalog.Delete(id) {
		deleted = true
	}
	if !deleted {
		httputil.WriteError(w, http.StatusNotFound, "scene not found")
		return
	}

	if hadScene && existing.VideoKey != "" && h.videos != nil {
		if err := h.videos.DeleteObject(r.Context(), existing.VideoKey); err != nil {
			slog.Warn("scene admin: failed to delete scene video", "scene_id", id, "key", existing.VideoKey, "error", err)
		}
	}

	slog.Info("scene admin: scene deleted", "scene_id", id)
	w.WriteHeader(http.StatusNoContent)
}

type uploadVideoRequest struct {
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
}

type uploadVideoResponse struct {
	UploadURL string `json:"uploadUrl"`
	VideoKey  string `json:"videoKey"`
}

// UploadVideo hands out a presigned PUT URL for the scene's video. The scene
// keeps its current video until AttachVideo confirms the upload.
func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "video storage is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	if _, ok := h.catalog.Lookup(id); !ok {
		httputil.WriteError(w, http.StatusNotFound, "scene not found")
		return
	}

	var req uploadVideoRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	key, err := storage.VideoKey(id, req.ContentType)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	url, err := h.videos.GenerateUploadURL(r.Context(), key, req.ContentType, req.ContentLength, videoUploadExpiry)
	if err != nil {
		slog.Error("scene admin: failed to presign upload", "scene_id", id, "error", err)
		httputil.WriteError(w, http.StatusBadRequest, "could not create upload URL")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, uploadVideoResponse{UploadURL: url, VideoKey: key})
}

type attachVideoRequest struct {
	VideoKey string `json:"videoKey"`
}

// AttachVideo points the scene at an uploaded object after checking it exists.
func (h *Handler) AttachVideo(w http.ResponseWriter, r *http.Request) {
	if h.videos == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "video storage is not configured")
		return
	}
	id := chi.URLParam(r, "id")
	sc, ok := h.catalog.Lookup(id)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "scene not found")
		return
	}

	var req attachVideoRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil || req.VideoKey == "" {
		httputil.WriteError(w, http.StatusBadRequest, "videoKey is required")
		return
	}

	info, err := h.videos.HeadObject(r.Context(), req.VideoKey)
	if err != nil {
		slog.Warn("scene admin: uploaded video not found", "scene_id", id, "key", req.VideoKey, "error", err)
		httputil.WriteError(w, http.StatusConflict, "video has not been uploaded")
		return
	}

	sc.VideoKey = req.VideoKey
	if !h.save(w, r, sc) {
		return
	}
	slog.Info("scene admin: video attached", "scene_id", id, "key", req.VideoKey, "bytes", info.Size, "content_type", info.ContentType)
	httputil.WriteJSON(w, http.StatusOK, sc)
}

func writeConfigurationError(w http.ResponseWriter, err error) {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, configurationErrorBody{
			Error:    "invalid scene",
			Problems: cfgErr.Problems,
		})
		return
	}
	httputil.WriteError(w, http.StatusBadRequest, err.Error())
}
