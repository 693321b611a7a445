package cache

import (
	"context"
	"time"

	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/pkg/common"

	"go.uber.org/zap"
)

// Cache 以當日日期為鍵的菜單快取，任何錯誤都只視為未命中
type Cache struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// Option 快取選項
type Option func(*Cache)

// WithClock 指定時間來源
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New 創建快取；store 為 nil 時所有查詢皆未命中
func New(store Store, loc *time.Location, opts ...Option) *Cache {
	if loc == nil {
		loc = time.Local
	}
	c := &Cache{
		store: store,
		loc:   loc,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Today 目前時區下的日期鍵
func (c *Cache) Today() string {
	return c.now().In(c.loc).Format(DateLayout)
}

// Enabled 是否有可用的儲存
func (c *Cache) Enabled() bool {
	return c != nil && c.store != nil
}

// LookupDate 讀取指定日期與餐廳的菜單
func (c *Cache) LookupDate(ctx context.Context, date, hallID string) (menu.RawMenuPayload, bool) {
	if !c.Enabled() {
		return menu.RawMenuPayload{}, false
	}

	entry, ok, err := c.store.Get(ctx, date, hallID)
	if err != nil {
		common.LogWarn("讀取菜單快取失敗", zap.String("hall", hallID), zap.Error(err))
		return menu.RawMenuPayload{}, false
	}
	if !ok {
		common.LogCacheMiss("menu", date+"/"+hallID)
		return menu.RawMenuPayload{}, false
	}

	payload, err := menu.DecodePayload(entry.Payload)
	if err != nil {
		common.LogDebug("菜單快取內容損壞，視為未命中", zap.String("hall", hallID), zap.Error(err))
		return menu.RawMenuPayload{}, false
	}

	common.LogCacheHit("menu", date+"/"+hallID)
	return payload, true
}

// PutDate 將菜單標準化後寫入指定日期
func (c *Cache) PutDate(ctx context.Context, date, hallID string, payload menu.RawMenuPayload) {
	if !c.Enabled() {
		return
	}

	data, err := menu.Sanitize(payload)
	if err != nil {
		common.LogWarn("菜單序列化失敗，略過快取", zap.String("hall", hallID), zap.Error(err))
		return
	}

	entry := Entry{Payload: data, SavedAt: c.now()}
	if err := c.store.Save(ctx, date, hallID, entry); err != nil {
		common.LogWarn("寫入菜單快取失敗", zap.String("hall", hallID), zap.Error(err))
		return
	}
	common.LogDebug("菜單快取已儲存", zap.String("date", date), zap.String("hall", hallID))
}

// ReadAll 讀取整份快取，失敗時回傳空的快照
func (c *Cache) ReadAll(ctx context.Context) Snapshot {
	if !c.Enabled() {
		return Snapshot{}
	}

	snap, err := c.store.Load(ctx)
	if err != nil {
		common.LogWarn("讀取菜單快取失敗", zap.Error(err))
		return Snapshot{}
	}
	return snap
}

// Stats 回傳儲存統計
func (c *Cache) Stats() map[string]interface{} {
	if !c.Enabled() {
		return map[string]interface{}{"backend": "disabled"}
	}
	if s, ok := c.store.(interface{ GetStats() map[string]interface{} }); ok {
		return s.GetStats()
	}
	return map[string]interface{}{}
}

// Close 關閉底層儲存
func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.store.Close()
}
