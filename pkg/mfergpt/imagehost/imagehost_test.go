package imagehost

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUpload(t *testing.T) {
	t.Parallel()

	image := []byte("fake-png-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		if got := r.FormValue("key"); got != "host-key" {
			t.Errorf("key = %q", got)
		}
		if got := r.FormValue("action"); got != "upload" {
			t.Errorf("action = %q", got)
		}
		decoded, err := base64.StdEncoding.DecodeString(r.FormValue("source"))
		if err != nil || string(decoded) != string(image) {
			t.Errorf("source did not round-trip: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status_code": 200,
			"image":       map[string]any{"url": "https://iili.io/abc.png"},
		})
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, "host-key", nil)
	url, err := client.Upload(context.Background(), image)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "https://iili.io/abc.png" {
		t.Errorf("Upload() = %q", url)
	}
}

func TestUploadRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status_code": 400,
			"error":       map[string]any{"message": "invalid api key"},
		})
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, "bad-key", nil)
	if _, err := client.Upload(context.Background(), []byte("x")); err == nil {
		t.Fatal("Upload() should fail when the host rejects the image")
	}
}
