package scene

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/branchplay/branchplay/internal/storage"
)

type fakeVideoStore struct {
	uploadKey   string
	headErr     error
	deletedKeys []string
}

func (f *fakeVideoStore) GenerateUploadURL(_ context.Context, key string, contentType string, _ int64, _ time.Duration) (string, error) {
	f.uploadKey = key
	return "https://media.example.com/" + key + "?sig=1", nil
}

func (f *fakeVideoStore) HeadObject(_ context.Context, key string) (storage.ObjectInfo, error) {
	if f.headErr != nil {
		return storage.ObjectInfo{}, f.headErr
	}
	return storage.ObjectInfo{Size: 2048, ContentType: "video/mp4"}, nil
}

func (f *fakeVideoStore) DeleteObject(_ context.Context, key string) error {
	f.deletedKeys = append(f.deletedKeys, key)
	return nil
}

func newTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/scenes/{id}", h.Public)
	r.Get("/api/admin/scenes", h.List)
	r.Get("/api/admin/scenes/{id}", h.Get)
	r.Put("/api/admin/scenes/{id}", h.Put)
	r.Delete("/api/admin/scenes/{id}", h.Delete)
	r.Post("/api/admin/scenes/{id}/video", h.UploadVideo)
	r.Post("/api/admin/scenes/{id}/video/attach", h.AttachVideo)
	return r
}

func TestPublic_HidesJumpTargets(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	r := newTestRouter(NewHandler(c, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scenes/clinic", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "jumpTo") {
		t.Errorf("expected jump targets to be omitted, got %s", rec.Body.String())
	}

	var resp publicScene
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Questions) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(resp.Questions))
	}
	first := resp.Questions[0]
	if first.ID != "reg" || first.AppearLabel != "00:05" || first.Options[0] != "挂号/分诊" {
		t.Errorf("unexpected first question: %+v", first)
	}
}

func TestPublic_UnknownSceneIsEmpty(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	r := newTestRouter(NewHandler(c, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scenes/nonexistent", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp publicScene
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.ID != "nonexistent" || len(resp.Questions) != 0 {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestAdminGet_NotFound(t *testing.T) {
	c, _ := NewCatalog()
	r := newTestRouter(NewHandler(c, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/scenes/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestAdminPut_StoresAndUpdatesCatalog(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO scenes`).
		WithArgs("demo", "Demo", "", "", 0.0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c, _ := NewCatalog()
	r := newTestRouter(NewHandler(c, NewStore(mock)))

	body, _ := json.Marshal(validScene())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/scenes/demo", strings.NewReader(string(body))))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := c.Lookup("demo"); !ok {
		t.Error("expected scene in catalog")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet pgxmock expectations: %v", err)
	}
}

func TestAdminPut_URLIDWins(t *testing.T) {
	c, _ := NewCatalog()
	r := newTestRouter(NewHandler(c, nil))

	sc := validScene()
	sc.ID = "ignored"
	body, _ := json.Marshal(sc)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/scenes/chosen", strings.NewReader(string(body))))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if _, ok := c.Lookup("chosen"); !ok {
		t.Error("expected scene stored under the URL id")
	}
	if _, ok := c.Lookup("ignored"); ok {
		t.Error("expected body id to be ignored")
	}
}

func TestAdminPut_InvalidSceneReturns422(t *testing.T) {
	c, _ := NewCatalog()
	r := newTestRouter(NewHandler(c, nil))

	sc := validScene()
	sc.Questions[0].Options = nil
	body, _ := json.Marshal(sc)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/scenes/demo", strings.NewReader(string(body))))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	var resp configurationErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Problems) == 0 {
		t.Error("expected problems in response")
	}
	if c.Len() != 0 {
		t.Error("expected catalog to stay empty")
	}
}

func TestAdminPut_InvalidBody(t *testing.T) {
	c, _ := NewCatalog()
	r := newTestRouter(NewHandler(c, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/scenes/demo", strings.NewReader("{")))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestAdminPut_StoreFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	defer mock.Close()

	mock.ExpectExec(`INSERT INTO scenes`).
		WithArgs("demo", "Demo", "", "", 0.0, pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	c, _ := NewCatalog()
	r := newTestRouter(NewHandler(c, NewStore(mock)))

	body, _ := json.Marshal(validScene())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin/scenes/demo", strings.NewReader(string(body))))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	if c.Len() != 0 {
		t.Error("expected catalog untouched after store failure")
	}
}

func TestAdminDelete(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	r := newTestRouter(NewHandler(c, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/scenes/clinic", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/scenes/clinic", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404 on second delete, got %d", rec.Code)
	}
}

func TestAdminDelete_RemovesVideo(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	videos := &fakeVideoStore{}
	h := NewHandler(c, nil)
	h.SetVideoStore(videos)
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/admin/scenes/clinic", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if len(videos.deletedKeys) != 1 || videos.deletedKeys[0] != "scenes/clinic.mp4" {
		t.Errorf("expected clinic video deleted, got %v", videos.deletedKeys)
	}
}

func TestUploadVideo(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	videos := &fakeVideoStore{}
	h := NewHandler(c, nil)
	h.SetVideoStore(videos)
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	body := `{"contentType":"video/webm","contentLength":1024}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/scenes/clinic/video", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp uploadVideoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.VideoKey != "scenes/clinic.webm" || !strings.Contains(resp.UploadURL, "scenes/clinic.webm") {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestUploadVideo_Errors(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	tests := []struct {
		name       string
		videos     VideoStore
		path       string
		body       string
		wantStatus int
	}{
		{"storage disabled", nil, "/api/admin/scenes/clinic/video", `{"contentType":"video/mp4"}`, http.StatusServiceUnavailable},
		{"unknown scene", &fakeVideoStore{}, "/api/admin/scenes/missing/video", `{"contentType":"video/mp4"}`, http.StatusNotFound},
		{"unsupported type", &fakeVideoStore{}, "/api/admin/scenes/clinic/video", `{"contentType":"image/gif"}`, http.StatusBadRequest},
		{"bad body", &fakeVideoStore{}, "/api/admin/scenes/clinic/video", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(c, nil)
			if tt.videos != nil {
				h.SetVideoStore(tt.videos)
			}
			rec := httptest.NewRecorder()
			newTestRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}

func TestAttachVideo(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	h := NewHandler(c, nil)
	h.SetVideoStore(&fakeVideoStore{})
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	body := `{"videoKey":"scenes/clinic.webm"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/scenes/clinic/video/attach", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	sc, _ := c.Lookup("clinic")
	if sc.VideoKey != "scenes/clinic.webm" {
		t.Errorf("expected video key updated, got %q", sc.VideoKey)
	}
}

func TestAttachVideo_NotUploaded(t *testing.T) {
	c, _ := NewCatalog(Builtin())
	h := NewHandler(c, nil)
	h.SetVideoStore(&fakeVideoStore{headErr: errors.New("not found")})
	r := newTestRouter(h)

	rec := httptest.NewRecorder()
	body := `{"videoKey":"scenes/clinic.webm"}`
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/scenes/clinic/video/attach", strings.NewReader(body)))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	sc, _ := c.Lookup("clinic")
	if sc.VideoKey != "scenes/clinic.mp4" {
		t.Errorf("expected video key unchanged, got %q", sc.VideoKey)
	}
}
