package ranking

import (
	"sync"
	"time"

	"dining-ranker/internal/core/menu"
)

// FeedStatus 菜單載入狀態
type FeedStatus string

const (
	StatusLoading FeedStatus = "loading"
	StatusLoaded  FeedStatus = "loaded"
	StatusError   FeedStatus = "error"
)

// 菜單來源
const (
	SourceCache    = "cache"
	SourceProvider = "provider"
)

// FeedState 單間餐廳的菜單載入狀態
type FeedState struct {
	HallID     string              `json:"hallId"`
	Status     FeedStatus          `json:"status"`
	Payload    menu.RawMenuPayload `json:"-"`
	Error      string              `json:"error,omitempty"`
	Source     string              `json:"source,omitempty"`
	Date       string              `json:"date"`
	Generation uint64              `json:"generation"`
	StartedAt  time.Time           `json:"startedAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// FeedBoard 所有餐廳的菜單狀態。
// 每次載入週期給予新的 generation；只有同一 generation 且仍為 loading 的狀態可以轉換。
type FeedBoard struct {
	mu         sync.RWMutex
	order      []string
	states     map[string]*FeedState
	generation uint64
	date       string
	now        func() time.Time
}

// NewFeedBoard 創建狀態表
func NewFeedBoard(hallIDs []string) *FeedBoard {
	order := make([]string, len(hallIDs))
	copy(order, hallIDs)
	return &FeedBoard{
		order:  order,
		states: make(map[string]*FeedState, len(hallIDs)),
		now:    time.Now,
	}
}

// Begin 開始一個載入週期，回傳本次需要載入的餐廳。
// 日期改變或 force 時所有餐廳重新載入；否則只重試尚未載入或失敗的餐廳，進行中的不重複發送。
func (b *FeedBoard) Begin(date string, force bool) (uint64, []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generation++
	gen := b.generation
	rollover := b.date != date
	b.date = date
	now := b.now()

	pending := make([]string, 0, len(b.order))
	for _, id := range b.order {
		st, ok := b.states[id]
		if ok && !rollover && !force {
			if st.Status == StatusLoaded || st.Status == StatusLoading {
				continue
			}
		}
		b.states[id] = &FeedState{
			HallID:     id,
			Status:     StatusLoading,
			Date:       date,
			Generation: gen,
			StartedAt:  now,
			UpdatedAt:  now,
		}
		pending = append(pending, id)
	}
	return gen, pending
}

// Complete 標記載入成功；過期的結果會被丟棄並回傳 false
func (b *FeedBoard) Complete(hallID string, gen uint64, payload menu.RawMenuPayload, source string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.current(hallID, gen)
	if !ok {
		return false
	}
	st.Status = StatusLoaded
	st.Payload = payload
	st.Source = source
	st.Error = ""
	st.UpdatedAt = b.now()
	return true
}

// Fail 標記載入失敗；過期的結果會被丟棄並回傳 false
func (b *FeedBoard) Fail(hallID string, gen uint64, err error) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.current(hallID, gen)
	if !ok {
		return false
	}
	st.Status = StatusError
	st.Error = err.Error()
	st.UpdatedAt = b.now()
	return true
}

func (b *FeedBoard) current(hallID string, gen uint64) (*FeedState, bool) {
	st, ok := b.states[hallID]
	if !ok || st.Generation != gen || st.Status != StatusLoading {
		return nil, false
	}
	return st, true
}

// Get 讀取單間餐廳狀態
func (b *FeedBoard) Get(hallID string) (FeedState, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	st, ok := b.states[hallID]
	if !ok {
		return FeedState{}, false
	}
	return *st, true
}

// Snapshot 依餐廳順序回傳所有狀態；尚未開始載入的餐廳不包含在內
func (b *FeedBoard) Snapshot() []FeedState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]FeedState, 0, len(b.order))
	for _, id := range b.order {
		if st, ok := b.states[id]; ok {
			out = append(out, *st)
		}
	}
	return out
}

// Date 目前載入週期的日期
func (b *FeedBoard) Date() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.date
}

// Summary 各狀態的餐廳 ID
type Summary struct {
	Loaded  []string `json:"loaded"`
	Loading []string `json:"loading"`
	Errored []string `json:"errored"`
	Idle    []string `json:"idle"`
}

// Summarize 依狀態分組
func (b *FeedBoard) Summarize() Summary {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.summarizeLocked()
}

// Capture 在同一把鎖下取得分組與各餐廳狀態，兩者必定一致
func (b *FeedBoard) Capture() (Summary, map[string]FeedState) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]FeedState, len(b.states))
	for id, st := range b.states {
		states[id] = *st
	}
	return b.summarizeLocked(), states
}

func (b *FeedBoard) summarizeLocked() Summary {
	s := Summary{
		Loaded:  []string{},
		Loading: []string{},
		Errored: []string{},
		Idle:    []string{},
	}
	for _, id := range b.order {
		st, ok := b.states[id]
		switch {
		case !ok:
			s.Idle = append(s.Idle, id)
		case st.Status == StatusLoaded:
			s.Loaded = append(s.Loaded, id)
		case st.Status == StatusError:
			s.Errored = append(s.Errored, id)
		default:
			s.Loading = append(s.Loading, id)
		}
	}
	return s
}

// AllLoaded 所有餐廳皆已載入
func (s Summary) AllLoaded() bool {
	return len(s.Loading) == 0 && len(s.Errored) == 0 && len(s.Idle) == 0 && len(s.Loaded) > 0
}

// Settled 沒有餐廳仍在載入且至少一間成功
func (s Summary) Settled() bool {
	return len(s.Loading) == 0 && len(s.Idle) == 0 && len(s.Loaded) > 0
}
