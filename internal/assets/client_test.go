package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HarshalRajendraPatil/Toon-Dig-Project/internal/platform/apperr"
)

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/assets" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://cdn.example/x.png","asset_id":"as-1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	a, err := c.Upload(context.Background(), Upload{FileName: "x.png", ContentType: "image/png", Data: []byte("png")})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if a.AssetID != "as-1" || a.URL == "" {
		t.Fatalf("unexpected asset: %+v", a)
	}
}

func TestClient_Upload_HostError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Upload(context.Background(), Upload{FileName: "x.png"})
	var upErr *apperr.UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UploadError, got %v", err)
	}
}

func TestClient_Delete_NotFoundIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, "").Delete(context.Background(), "gone"); err != nil {
		t.Fatalf("delete of missing asset must be a no-op success, got %v", err)
	}
}

func TestInMemoryStore_UploadDelete(t *testing.T) {
	s := NewInMemoryStore()
	a, err := s.Upload(context.Background(), Upload{FileName: "cover.jpg"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !s.Stored(a.AssetID) {
		t.Fatal("expected asset to be stored")
	}
	if err := s.Delete(context.Background(), a.AssetID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Stored(a.AssetID) {
		t.Fatal("expected asset to be gone")
	}
}

func TestInMemoryStore_FailUploads(t *testing.T) {
	s := NewInMemoryStore()
	s.FailUploads = true
	_, err := s.Upload(context.Background(), Upload{FileName: "cover.jpg"})
	var upErr *apperr.UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UploadError, got %v", err)
	}
}

func TestStoreInterface(t *testing.T) {
	var _ Store = (*Client)(nil)
	var _ Store = (*InMemoryStore)(nil)
}
