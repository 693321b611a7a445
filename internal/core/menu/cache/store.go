package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// DateLayout 快取日期鍵格式
const DateLayout = "2006-01-02"

// ErrStoreClosed 儲存已關閉
var ErrStoreClosed = errors.New("menu cache store is closed")

// Entry 單一餐廳單日的快取內容
type Entry struct {
	// Payload 標準化後的緊湊菜單 JSON
	Payload json.RawMessage `json:"payload"`
	SavedAt time.Time       `json:"savedAt"`
}

// Snapshot 日期 -> 餐廳 ID -> 快取內容
type Snapshot map[string]map[string]Entry

// Get 讀取指定日期與餐廳的快取
func (s Snapshot) Get(date, hallID string) (Entry, bool) {
	halls, ok := s[date]
	if !ok {
		return Entry{}, false
	}
	e, ok := halls[hallID]
	return e, ok
}

// Count 快取條目總數
func (s Snapshot) Count() int {
	n := 0
	for _, halls := range s {
		n += len(halls)
	}
	return n
}

// Store 菜單快取持久化介面
type Store interface {
	// Load 讀取整份快取；損壞的條目略過
	Load(ctx context.Context) (Snapshot, error)
	// Get 讀取單一條目
	Get(ctx context.Context, date, hallID string) (Entry, bool, error)
	// Save 以 (date, hallID) 為鍵覆寫單一條目，不影響其他鍵
	Save(ctx context.Context, date, hallID string, entry Entry) error
	Close() error
}
