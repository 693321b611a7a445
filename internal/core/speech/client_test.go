package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dining-ranker/internal/infrastructure/config"
)

func TestSynthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "secret" {
			t.Errorf("expected api key header, got %q", r.Header.Get("xi-api-key"))
		}

		var body request
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body.Text != "Hello there" || body.ModelID != defaultModelID {
			t.Errorf("unexpected body: %+v", body)
		}
		if body.VoiceSettings.Stability != 0.5 || body.VoiceSettings.SimilarityBoost != 0.5 {
			t.Errorf("unexpected voice settings: %+v", body.VoiceSettings)
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	c := NewClient(&config.SpeechConfig{BaseURL: server.URL, APIKey: "secret", VoiceID: "voice-1", Timeout: 5 * time.Second})
	audio, err := c.Synthesize(context.Background(), "  Hello there ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != "ID3-audio" {
		t.Errorf("unexpected audio: %q", audio)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer server.Close()

	c := NewClient(&config.SpeechConfig{BaseURL: server.URL, Timeout: 5 * time.Second})

	if _, err := c.Synthesize(context.Background(), "   "); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if _, err := c.Synthesize(context.Background(), "hi"); !errors.Is(err, ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}
