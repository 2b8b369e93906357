package mfers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, nil)
}

func TestDescription(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/descriptions/1337.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"description": "a plain mfer with headphones and a cigarette",
		})
	})

	desc, err := client.Description(context.Background(), 1337)
	if err != nil {
		t.Fatalf("Description() error = %v", err)
	}
	if !strings.Contains(desc, "headphones") {
		t.Errorf("Description() = %q", desc)
	}
}

func TestDescriptionOutOfRange(t *testing.T) {
	t.Parallel()

	client := New("http://unused.invalid", nil)
	if _, err := client.Description(context.Background(), MaxID+1); err == nil {
		t.Error("Description() should reject id above MaxID")
	}
	if _, err := client.Description(context.Background(), -1); err == nil {
		t.Error("Description() should reject negative id")
	}
}

func TestExpandTags(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/descriptions/1.json":
			json.NewEncoder(w).Encode(map[string]string{"description": "a zombie mfer"})
		default:
			http.NotFound(w, r)
		}
	})

	got := client.ExpandTags(context.Background(), "draw #mfer1 surfing")
	if want := "draw a zombie mfer surfing"; got != want {
		t.Errorf("ExpandTags() = %q, want %q", got, want)
	}

	// Failed lookup degrades to the literal token.
	got = client.ExpandTags(context.Background(), "draw #mfer9999 surfing")
	if want := "draw mfer 9999 surfing"; got != want {
		t.Errorf("ExpandTags() fallback = %q, want %q", got, want)
	}

	// Prompt without tags passes through.
	if got := client.ExpandTags(context.Background(), "just a sunset"); got != "just a sunset" {
		t.Errorf("ExpandTags(no tags) = %q", got)
	}
}
