package service

import (
	"context"
	"fmt"
	"time"

	"dining-ranker/internal/core/ai/cache"
	"dining-ranker/internal/core/ai/gateway"
	"dining-ranker/internal/core/ai/openrouter"
	"dining-ranker/internal/core/ai/provider"
	"dining-ranker/internal/infrastructure/config"
	"dining-ranker/internal/pkg/common"

	"go.uber.org/zap"
)

// Service AI 排名服務：回應快取 + 重試
type Service struct {
	provider     provider.Provider
	cacheManager *cache.CacheManager
	retries      int
	backoff      time.Duration
}

// NewService 創建 AI 服務
func NewService(p provider.Provider, cacheManager *cache.CacheManager, retries int) *Service {
	if retries < 0 {
		retries = 0
	}
	return &Service{
		provider:     p,
		cacheManager: cacheManager,
		retries:      retries,
		backoff:      500 * time.Millisecond,
	}
}

// NewFromConfig 依設定選擇提供者
func NewFromConfig(cfg *config.AIConfig, cacheManager *cache.CacheManager) (*Service, error) {
	pc := provider.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		BaseURL:   cfg.Endpoint,
		MaxTokens: cfg.MaxTokens,
		Timeout:   cfg.Timeout,
	}

	var p provider.Provider
	switch cfg.Provider {
	case "gateway":
		if pc.BaseURL == "" {
			return nil, fmt.Errorf("ranking gateway endpoint is required")
		}
		p = gateway.NewClient(pc)
	case "openrouter":
		if pc.APIKey == "" {
			return nil, fmt.Errorf("openrouter api key is required")
		}
		p = openrouter.NewClient(pc)
	default:
		return nil, fmt.Errorf("unknown ranking provider %q", cfg.Provider)
	}

	return NewService(p, cacheManager, cfg.RetryCount), nil
}

// Name 提供者名稱
func (s *Service) Name() string {
	return s.provider.Name()
}

// Complete 統一對外方法；成功的回應寫入快取
func (s *Service) Complete(ctx context.Context, prompt string) (string, error) {
	return s.CompleteValidated(ctx, prompt, nil)
}

// CompleteValidated 同 Complete，但只有通過 validate 的回應才寫入快取；
// 驗證失敗時回傳其錯誤，下一次相同 prompt 會重新詢問提供者
func (s *Service) CompleteValidated(ctx context.Context, prompt string, validate func(string) error) (string, error) {
	if val, ok := s.cacheManager.Get(prompt); ok {
		return val, nil
	}

	var (
		text string
		err  error
	)
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			common.LogWarn("重試 AI 請求",
				zap.String("provider", s.provider.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.backoff * time.Duration(attempt)):
			}
		}

		start := time.Now()
		text, err = s.provider.Complete(ctx, prompt)
		common.LogAICall(s.provider.Name(), time.Since(start), err)
		if err == nil {
			if validate != nil {
				if verr := validate(text); verr != nil {
					return "", verr
				}
			}
			s.cacheManager.Set(prompt, text)
			return text, nil
		}
		if !provider.IsRetryable(err) {
			break
		}
	}
	return "", err
}
