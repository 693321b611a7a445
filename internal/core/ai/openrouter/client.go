package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"dining-ranker/internal/core/ai/provider"
	"dining-ranker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	providerName   = "openrouter"
	defaultBaseURL = "https://openrouter.ai/api/v1"
)

// Client OpenRouter API 客戶端
type Client struct {
	client *resty.Client
	cfg    provider.Config
}

// Message 消息結構
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示 API 請求
type Request struct {
	Model     string    `json:"model,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

// Response OpenRouter 響應結構
type Response struct {
	ID      string    `json:"id"`
	Choices []Choice  `json:"choices"`
	Usage   UsageInfo `json:"usage"`
}

// Choice 選擇結構
type Choice struct {
	Message Message `json:"message"`
}

// UsageInfo 使用量信息
type UsageInfo struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// APIError 表示 API 錯誤
type APIError struct {
	Error struct {
		Message string      `json:"message"`
		Type    string      `json:"type"`
		Code    interface{} `json:"code"`
	} `json:"error"`
}

// NewClient 創建 OpenRouter 客戶端
func NewClient(cfg provider.Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://dining-ranker.local").
		SetHeader("X-Title", "Dining Ranker")

	return &Client{
		client: client,
		cfg:    cfg,
	}
}

// Name 提供者名稱
func (c *Client) Name() string {
	return providerName
}

// Complete 以單一 user 訊息呼叫 chat completions
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := Request{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.cfg.MaxTokens,
	}

	common.LogDebug("發送 OpenRouter 請求",
		zap.String("model", c.cfg.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := strings.TrimSpace(resp.String())
		var apiErr APIError
		if common.ParseJSONBytes(resp.Body(), &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", &provider.ServiceError{Provider: providerName, Status: resp.StatusCode(), Message: msg}
	}

	var result Response
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}

	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", provider.ErrEmptyResponse
	}

	common.LogDebug("OpenRouter 回應",
		zap.String("id", result.ID),
		zap.Int("total_tokens", result.Usage.TotalTokens),
	)

	return result.Choices[0].Message.Content, nil
}
