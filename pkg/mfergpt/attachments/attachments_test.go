package attachments

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeVision struct {
	description string
	called      bool
	prompt      string
}

func (f *fakeVision) DescribeImage(_ context.Context, _, prompt, _ string) (string, error) {
	f.called = true
	f.prompt = prompt
	return f.description, nil
}

func TestInterpretURLImage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
	}))
	t.Cleanup(srv.Close)

	vision := &fakeVision{description: "an mfer smoking on a beach"}
	interp := New(vision, "gpt-4o", nil)

	got := interp.InterpretURL(context.Background(), srv.URL+"/pic.png", "what is this mfer doing?")
	if !vision.called {
		t.Fatal("image URL should route to vision")
	}
	if !strings.Contains(got, "an mfer smoking on a beach") {
		t.Errorf("InterpretURL() = %q", got)
	}
	if vision.prompt != "what is this mfer doing?" {
		t.Errorf("vision prompt = %q, want the caller's prompt forwarded", vision.prompt)
	}
}

func TestInterpretURLWebPage(t *testing.T) {
	t.Parallel()

	page := `<html><head>
		<script>alert("junk")</script>
		<style>body{color:red}</style>
	</head><body>
		<nav>Home | About</nav>
		<h1>mfers update</h1>
		<p>season 2 drops   tomorrow</p>
		<footer>copyright</footer>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodGet {
			w.Write([]byte(page))
		}
	}))
	t.Cleanup(srv.Close)

	interp := New(nil, "", nil)
	got := interp.InterpretURL(context.Background(), srv.URL, "")
	if !strings.Contains(got, "mfers update") || !strings.Contains(got, "season 2 drops tomorrow") {
		t.Errorf("InterpretURL() = %q, want page text", got)
	}
	for _, junk := range []string{"alert", "color:red", "Home | About", "copyright"} {
		if strings.Contains(got, junk) {
			t.Errorf("InterpretURL() leaked stripped content %q: %q", junk, got)
		}
	}
}

func TestInterpretURLMedia(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Header().Set("Content-Length", "1024")
	}))
	t.Cleanup(srv.Close)

	interp := New(nil, "", nil)
	got := interp.InterpretURL(context.Background(), srv.URL+"/clip.mp4", "")
	if !strings.Contains(got, "video/mp4") {
		t.Errorf("InterpretURL() = %q, want media metadata", got)
	}
}

func TestInterpretURLUnreachable(t *testing.T) {
	t.Parallel()

	interp := New(nil, "", nil)
	got := interp.InterpretURL(context.Background(), "http://127.0.0.1:1/nope", "")
	if got == "" {
		t.Error("InterpretURL() should degrade to a note, not empty")
	}
}
