package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/infrastructure/config"
	"dining-ranker/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrUnavailable 斷路器開啟中，暫停對該餐廳發送請求
var ErrUnavailable = errors.New("menu provider temporarily unavailable")

// StatusError 供應商回應非 2xx
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("menu provider returned %d", e.Status)
	}
	return fmt.Sprintf("menu provider returned %d: %s", e.Status, e.Body)
}

// Client 菜單供應商客戶端
type Client struct {
	client      *resty.Client
	urlTemplate string
	apiKey      string
	apiHeader   string

	breakerCfg config.BreakerConfig
	mu         sync.Mutex
	breakers   map[string]*gobreaker.CircuitBreaker[menu.RawMenuPayload]
}

// NewClient 創建菜單供應商客戶端
func NewClient(cfg *config.MenuConfig) *Client {
	header := cfg.APIKeyHeader
	if header == "" {
		header = "x-api-key"
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		client:      client,
		urlTemplate: cfg.URLTemplate,
		apiKey:      cfg.APIKey,
		apiHeader:   header,
		breakerCfg:  cfg.Breaker,
		breakers:    make(map[string]*gobreaker.CircuitBreaker[menu.RawMenuPayload]),
	}
}

// BuildURL 以餐廳 ID 與日期填入網址樣板
func (c *Client) BuildURL(hallID, date string) string {
	r := strings.NewReplacer(
		"{hall}", url.PathEscape(hallID),
		"{date}", url.PathEscape(date),
	)
	return r.Replace(c.urlTemplate)
}

// Fetch 取得指定餐廳指定日期的菜單；非 2xx 或無效 JSON 皆為錯誤
func (c *Client) Fetch(ctx context.Context, hallID, date string) (menu.RawMenuPayload, error) {
	cb := c.breaker(hallID)
	if cb == nil {
		return c.fetch(ctx, hallID, date)
	}

	payload, err := cb.Execute(func() (menu.RawMenuPayload, error) {
		return c.fetch(ctx, hallID, date)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return menu.RawMenuPayload{}, fmt.Errorf("%w: %s", ErrUnavailable, hallID)
	}
	return payload, err
}

func (c *Client) fetch(ctx context.Context, hallID, date string) (menu.RawMenuPayload, error) {
	req := c.client.R().SetContext(ctx)
	if c.apiKey != "" {
		req.SetHeader(c.apiHeader, c.apiKey)
	}

	resp, err := req.Get(c.BuildURL(hallID, date))
	if err != nil {
		return menu.RawMenuPayload{}, fmt.Errorf("failed to fetch menu: %w", err)
	}

	if !resp.IsSuccess() {
		body := strings.TrimSpace(resp.String())
		if len(body) > 200 {
			body = body[:200]
		}
		return menu.RawMenuPayload{}, &StatusError{Status: resp.StatusCode(), Body: body}
	}

	payload, err := menu.DecodePayload(resp.Body())
	if err != nil {
		return menu.RawMenuPayload{}, err
	}
	return payload, nil
}

// breaker 每間餐廳各自一個斷路器，停用時回傳 nil
func (c *Client) breaker(hallID string) *gobreaker.CircuitBreaker[menu.RawMenuPayload] {
	if !c.breakerCfg.Enabled {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[hallID]; ok {
		return cb
	}

	threshold := c.breakerCfg.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}
	settings := gobreaker.Settings{
		Name:        "menu:" + hallID,
		MaxRequests: c.breakerCfg.MaxRequests,
		Interval:    c.breakerCfg.Interval,
		Timeout:     c.breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			common.LogWarn("菜單供應商斷路器狀態變更",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	cb := gobreaker.NewCircuitBreaker[menu.RawMenuPayload](settings)
	c.breakers[hallID] = cb
	return cb
}

// BreakerStates 回傳各餐廳斷路器狀態
func (c *Client) BreakerStates() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	states := make(map[string]string, len(c.breakers))
	for id, cb := range c.breakers {
		states[id] = cb.State().String()
	}
	return states
}
