package storage_test

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/branchplay/branchplay/internal/storage"
)

func newTestStorage(t *testing.T, maxBytes int64) *storage.Storage {
	t.Helper()
	s, err := storage.New(context.Background(), storage.Config{
		Endpoint:       "http://localhost:9000",
		PublicEndpoint: "https://media.example.com",
		Bucket:         "scenes",
		AccessKey:      "test",
		SecretKey:      "test",
		MaxUploadBytes: maxBytes,
	})
	if err != nil {
		t.Fatalf("expected no error creating storage client, got: %v", err)
	}
	return s
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := storage.New(context.Background(), storage.Config{Endpoint: "http://localhost:9000"})
	if err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestGenerateDownloadURL_UsesPublicEndpoint(t *testing.T) {
	s := newTestStorage(t, 0)

	raw, err := s.GenerateDownloadURL(context.Background(), "scenes/clinic.mp4", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Host != "media.example.com" {
		t.Errorf("expected public host, got %q", u.Host)
	}
	if u.Path != "/scenes/scenes/clinic.mp4" {
		t.Errorf("expected path-style key, got %q", u.Path)
	}
	if u.Query().Get("X-Amz-Signature") == "" {
		t.Error("expected presigned signature")
	}
}

func TestGenerateUploadURL_RejectsOversizedFile(t *testing.T) {
	s := newTestStorage(t, 1024)

	_, err := s.GenerateUploadURL(context.Background(), "scenes/clinic.mp4", "video/mp4", 2048, time.Hour)
	if err == nil || !strings.Contains(err.Error(), "file too large") {
		t.Fatalf("expected size error, got %v", err)
	}

	raw, err := s.GenerateUploadURL(context.Background(), "scenes/clinic.mp4", "video/mp4", 512, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(raw, "X-Amz-Signature") {
		t.Errorf("expected presigned url, got %q", raw)
	}
}

func TestNilStorage(t *testing.T) {
	var s *storage.Storage
	if _, err := s.GenerateDownloadURL(context.Background(), "k", time.Hour); err == nil {
		t.Error("expected error from nil storage")
	}
	if _, err := s.GenerateUploadURL(context.Background(), "k", "video/mp4", 1, time.Hour); err == nil {
		t.Error("expected error from nil storage")
	}
}

func TestVideoKey(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
		wantErr     bool
	}{
		{"video/mp4", "scenes/clinic.mp4", false},
		{"VIDEO/WEBM", "scenes/clinic.webm", false},
		{"image/png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			got, err := storage.VideoKey("clinic", tt.contentType)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
