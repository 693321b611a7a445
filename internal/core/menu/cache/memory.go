package cache

import (
	"context"
	"sync"

	"dining-ranker/internal/pkg/common"

	"go.uber.org/zap"
)

// MemoryStore 行程內菜單快取；寫入新日期時清除較舊的日期
type MemoryStore struct {
	mu     sync.RWMutex
	store  map[string]map[string]Entry
	stats  storeStats
	closed bool
}

type storeStats struct {
	hits      int64
	misses    int64
	writes    int64
	evictions int64
}

// NewMemoryStore 創建記憶體快取
func NewMemoryStore() *MemoryStore {
	common.LogInfo("記憶體菜單快取已初始化")
	return &MemoryStore{
		store: make(map[string]map[string]Entry),
	}
}

// Load 回傳快取副本
func (m *MemoryStore) Load(ctx context.Context) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	snap := make(Snapshot, len(m.store))
	for date, halls := range m.store {
		copied := make(map[string]Entry, len(halls))
		for id, e := range halls {
			copied[id] = e
		}
		snap[date] = copied
	}
	return snap, nil
}

// Get 讀取單一條目
func (m *MemoryStore) Get(ctx context.Context, date, hallID string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Entry{}, false, ErrStoreClosed
	}

	if e, ok := m.store[date][hallID]; ok {
		m.stats.hits++
		return e, true, nil
	}
	m.stats.misses++
	return Entry{}, false, nil
}

// Save 寫入單一條目
func (m *MemoryStore) Save(ctx context.Context, date, hallID string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	// 日期鍵可直接以字串比較先後
	for d, halls := range m.store {
		if d < date {
			m.stats.evictions += int64(len(halls))
			delete(m.store, d)
		}
	}

	halls, ok := m.store[date]
	if !ok {
		halls = make(map[string]Entry)
		m.store[date] = halls
	}
	halls[hallID] = entry
	m.stats.writes++
	return nil
}

// GetStats 獲取快取統計信息
func (m *MemoryStore) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	size := 0
	for _, halls := range m.store {
		size += len(halls)
	}

	ratio := 0.0
	if total := m.stats.hits + m.stats.misses; total > 0 {
		ratio = float64(m.stats.hits) / float64(total)
	}

	return map[string]interface{}{
		"backend":   "memory",
		"size":      size,
		"dates":     len(m.store),
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"writes":    m.stats.writes,
		"evictions": m.stats.evictions,
		"hit_ratio": ratio,
	}
}

// Close 關閉快取
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store = make(map[string]map[string]Entry)
	m.closed = true
	common.LogInfo("記憶體菜單快取已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)
	return nil
}
