package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"dining-ranker/internal/core/ai/provider"
	"dining-ranker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

const providerName = "gateway"

// Client 排名閘道客戶端：POST {"prompt"}，回應 {"text"} 或 {"error"}
type Client struct {
	client   *resty.Client
	endpoint string
}

type request struct {
	Prompt string `json:"prompt"`
}

type response struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// NewClient 創建閘道客戶端
func NewClient(cfg provider.Config) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		client:   client,
		endpoint: cfg.BaseURL,
	}
}

// Name 提供者名稱
func (c *Client) Name() string {
	return providerName
}

// Complete 送出 prompt 並取回文字
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(request{Prompt: prompt}).
		Post(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to send request to ranking gateway: %w", err)
	}

	var body response
	parseErr := common.ParseJSONBytes(resp.Body(), &body)

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		msg := strings.TrimSpace(resp.String())
		if parseErr == nil && body.Error != "" {
			msg = body.Error
		}
		return "", &provider.ServiceError{Provider: providerName, Status: resp.StatusCode(), Message: msg}
	}

	if parseErr != nil {
		return "", fmt.Errorf("failed to parse ranking gateway response: %w", parseErr)
	}
	if body.Error != "" {
		return "", &provider.ServiceError{Provider: providerName, Message: body.Error}
	}
	if strings.TrimSpace(body.Text) == "" {
		return "", provider.ErrEmptyResponse
	}

	return body.Text, nil
}
