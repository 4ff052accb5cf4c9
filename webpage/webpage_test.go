package webpage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExtract_VisibleText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Title</title>` +
			`<script>hidden()</script><style>.x{}</style></head>` +
			`<body><h1>Welcome</h1><p>First line</p><p>Second line</p></body></html>`))
	}))
	defer srv.Close()

	ext := New(Config{})
	text, err := ext.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	for _, want := range []string{"Title", "Welcome", "First line", "Second line"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
	if strings.Contains(text, "hidden()") {
		t.Errorf("script content leaked into %q", text)
	}
	if strings.Contains(text, ".x{}") {
		t.Errorf("style content leaked into %q", text)
	}

	// Text nodes are newline-separated.
	if !strings.Contains(text, "First line\nSecond line") {
		t.Errorf("expected newline-joined nodes, got %q", text)
	}
}

func TestExtract_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	ext := New(Config{})
	_, err := ext.Extract(context.Background(), srv.URL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("got %v, want *FetchError", err)
	}
	if fetchErr.Status != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", fetchErr.Status)
	}
}

func TestExtract_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	ext := New(Config{})
	_, err := ext.Extract(context.Background(), url)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("got %v, want *NetworkError", err)
	}
}

func TestExtract_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ext := New(Config{})
	_, err := ext.Extract(ctx, srv.URL)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("got %v, want *NetworkError", err)
	}
}

func TestExtract_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>" + strings.Repeat("a", 100) + "</p></body></html>"))
	}))
	defer srv.Close()

	// Cap well below the body size: the read must still succeed, truncated.
	ext := New(Config{MaxBytes: 40})
	text, err := ext.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(text) > 40 {
		t.Errorf("body cap not applied: %d chars", len(text))
	}
}
