package speech

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"dining-ranker/internal/infrastructure/config"
	"dining-ranker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultVoiceID = "EXAVITQu4vr4xnSDxMaL"
	defaultModelID = "eleven_multilingual_v2"
	maxTextLength  = 2500
)

var (
	// ErrEmptyText 沒有可朗讀的文字
	ErrEmptyText = errors.New("no text provided")
	// ErrUpstream 語音服務回應失敗
	ErrUpstream = errors.New("text-to-speech service failed")
)

// Client ElevenLabs 文字轉語音客戶端
type Client struct {
	client  *resty.Client
	baseURL string
	voiceID string
	modelID string
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type request struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// NewClient 創建語音客戶端
func NewClient(cfg *config.SpeechConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	voice := cfg.VoiceID
	if voice == "" {
		voice = defaultVoiceID
	}
	model := cfg.ModelID
	if model == "" {
		model = defaultModelID
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "audio/mpeg").
		SetHeader("xi-api-key", cfg.APIKey)

	return &Client{
		client:  client,
		baseURL: baseURL,
		voiceID: voice,
		modelID: model,
	}
}

// Synthesize 將文字轉為 mp3 音訊
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len(text) > maxTextLength {
		text = text[:maxTextLength]
	}

	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(request{
			Text:          text,
			ModelID:       c.modelID,
			VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.5},
		}).
		Post(c.baseURL + "/v1/text-to-speech/" + url.PathEscape(c.voiceID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if !resp.IsSuccess() {
		common.LogWarn("語音服務回應錯誤",
			zap.Int("status", resp.StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode())
	}

	audio := resp.Body()
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio", ErrUpstream)
	}

	common.LogDebug("語音合成完成",
		zap.Int("text_length", len(text)),
		zap.Int("bytes", len(audio)),
		zap.Duration("duration", time.Since(start)),
	)
	return audio, nil
}
