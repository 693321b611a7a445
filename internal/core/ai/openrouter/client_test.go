package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dining-ranker/internal/core/ai/provider"
)

func TestCompleteReadsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret-key" {
			t.Errorf("unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req.Model != "test-model" || len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected request: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"Sage: 100%"}}],"usage":{"total_tokens":12}}`))
	}))
	defer server.Close()

	c := NewClient(provider.Config{APIKey: "secret-key", Model: "test-model", BaseURL: server.URL, Timeout: 5 * time.Second})
	text, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Sage: 100%" {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestCompleteAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"rate_limit"}}`))
	}))
	defer server.Close()

	c := NewClient(provider.Config{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second})
	_, err := c.Complete(context.Background(), "hello")

	var se *provider.ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.Message != "rate limited" || !se.Retryable() {
		t.Errorf("unexpected service error: %+v", se)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"gen-2","choices":[]}`))
	}))
	defer server.Close()

	c := NewClient(provider.Config{APIKey: "k", BaseURL: server.URL, Timeout: 5 * time.Second})
	if _, err := c.Complete(context.Background(), "hello"); !errors.Is(err, provider.ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}
