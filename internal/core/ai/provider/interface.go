package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrEmptyResponse 排名服務回傳空白內容
var ErrEmptyResponse = errors.New("ranking service returned empty text")

// Provider 定義 AI 排名服務介面
type Provider interface {
	// Name 提供者名稱，用於日誌
	Name() string

	// Complete 送出單一 prompt 並回傳自由文字
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config 定義 AI 提供者配置
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// ServiceError 服務端回傳的錯誤（非 2xx 或 error 欄位）
type ServiceError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s returned %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s returned error: %s", e.Provider, e.Message)
}

// Retryable 只有 5xx 與 429 值得重試
func (e *ServiceError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusTooManyRequests
}

// IsRetryable 判斷錯誤是否值得重試；context 取消與用戶端錯誤不重試
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	// 網路錯誤
	return true
}
