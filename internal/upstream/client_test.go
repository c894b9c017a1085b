package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsURLNormalized(t *testing.T) {
	for _, base := range []string{"http://gw:9091", "http://gw:9091/", "http://gw:9091//"} {
		c, err := NewClient(base, time.Second)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", base, err)
		}
		if c.MetricsURL() != "http://gw:9091/metrics" {
			t.Fatalf("%s: unexpected url %q", base, c.MetricsURL())
		}
	}
	if _, err := NewClient("  ", time.Second); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestFetchSuccess(t *testing.T) {
	var gotPath string
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("foo_metric 1\n"))
	}))
	defer be.Close()

	c, _ := NewClient(be.URL+"/", time.Second)
	body, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/metrics" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if string(body) != "foo_metric 1\n" {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestFetchEmptyBody(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer be.Close()

	c, _ := NewClient(be.URL, time.Second)
	body, err := c.Fetch(context.Background())
	if err != nil || len(body) != 0 {
		t.Fatalf("expected empty success, got body=%q err=%v", body, err)
	}
}

func TestFetchStatusError(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer be.Close()

	c, _ := NewClient(be.URL, time.Second)
	_, err := c.Fetch(context.Background())
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected StatusError 503, got %v", err)
	}
	if err.Error() != "HTTP 503" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	be := httptest.NewServer(http.NotFoundHandler())
	addr := be.URL
	be.Close()

	c, _ := NewClient(addr, time.Second)
	_, err := c.Fetch(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Connection failed: ") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer be.Close()
	defer close(release)

	c, _ := NewClient(be.URL, 50*time.Millisecond)
	_, err := c.Fetch(context.Background())
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError on timeout, got %v", err)
	}
}

func TestFetchBodyReadError(t *testing.T) {
	be := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// promise more bytes than are sent, then drop the connection
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("foo_metric"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		hj, ok := w.(http.Hijacker)
		if !ok {
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			_ = conn.Close()
		}
	}))
	defer be.Close()

	c, _ := NewClient(be.URL, time.Second)
	_, err := c.Fetch(context.Background())
	var be2 *BodyReadError
	if !errors.As(err, &be2) {
		t.Fatalf("expected BodyReadError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to read response: ") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
