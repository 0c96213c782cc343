package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewClientRequiresKey(t *testing.T) {
	t.Parallel()

	if NewClient(Config{}) != nil {
		t.Fatal("expected nil client without api key")
	}
	if err := CheckModels(context.Background(), nil, "m"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestCheckModels(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.Header.Get("X-Title"); got != "inventory-sms" {
			t.Errorf("unexpected X-Title: %q", got)
		}
		name := strings.TrimPrefix(r.URL.Path, "/models/")
		if name == "missing-model" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"not found"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + name + `","object":"model","created":0,"owned_by":"test"}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, APIKey: "k", SiteName: "inventory-sms"})
	if err := CheckModels(context.Background(), client, "good-model", "good-model", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one lookup for duplicate models, got %d", hits.Load())
	}
	if err := CheckModels(context.Background(), client, "missing-model"); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestNewRequiresKey(t *testing.T) {
	t.Parallel()

	cfg := &Config{Model: "m"}
	if _, err := cfg.New(context.Background()); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
