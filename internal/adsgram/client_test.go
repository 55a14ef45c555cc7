package adsgram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestShow_Done(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/api/blocks/3946/show" {
			t.Fatalf("path = %s, want /api/blocks/3946/show", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(ShowResult{Done: true}); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done, err := client.Show(ctx, "3946")
	if err != nil {
		t.Fatalf("Show error: %v", err)
	}
	if !done {
		t.Fatalf("done = false, want true")
	}
}

func TestShow_NotWatched(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ShowResult{Done: false})
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done, err := client.Show(ctx, "3946")
	if err != nil {
		t.Fatalf("Show error: %v", err)
	}
	if done {
		t.Fatalf("done = true, want false")
	}
}

func TestShow_UnexpectedStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	client := NewClient(ts.URL)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done, err := client.Show(ctx, "missing")
	if err == nil {
		t.Fatalf("expected error for status 404")
	}
	if done {
		t.Fatalf("done must be false on error")
	}
}

func TestShow_NotConfigured(t *testing.T) {
	client := NewClient("")

	done, err := client.Show(context.Background(), "3946")
	if err == nil {
		t.Fatalf("expected error for unconfigured client")
	}
	if done {
		t.Fatalf("done must be false on error")
	}
}
