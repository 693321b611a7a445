package ranking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/core/menu/cache"
	"dining-ranker/internal/pkg/common"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

var (
	// ErrNotReady 仍有餐廳的菜單未載入完成
	ErrNotReady = errors.New("menus are not ready for personalization")
	// ErrUnknownStrategy 未註冊的排名方式
	ErrUnknownStrategy = errors.New("unknown ranking strategy")
	// ErrUnknownHall 目錄中沒有此餐廳
	ErrUnknownHall = errors.New("unknown dining hall")
	// ErrRankingFailed 排名服務失敗，前一次結果保持不變
	ErrRankingFailed = errors.New("ranking failed")
)

const (
	defaultFetchTimeout   = 12 * time.Second
	defaultMaxConcurrency = 8
)

// MenuFetcher 菜單來源
type MenuFetcher interface {
	Fetch(ctx context.Context, hallID, date string) (menu.RawMenuPayload, error)
}

// HallError 載入失敗的餐廳
type HallError struct {
	HallID string `json:"hallId"`
	Name   string `json:"name"`
	Error  string `json:"error"`
}

// HallDishCount 單間餐廳過濾後的菜色數
type HallDishCount struct {
	HallID string `json:"hallId"`
	Name   string `json:"name"`
	Dishes int    `json:"dishes"`
}

// MergedMenus 已載入餐廳的菜色統計，失敗的餐廳另外列出
type MergedMenus struct {
	Halls       []HallDishCount `json:"halls"`
	TotalDishes int             `json:"totalDishes"`
	Errors      []HallError     `json:"errors"`
}

// Status 個人化前置條件與各餐廳狀態
type Status struct {
	Ready        bool        `json:"ready"`
	AllowPartial bool        `json:"allowPartial"`
	Date         string      `json:"date"`
	Summary      Summary     `json:"summary"`
	Halls        []FeedState `json:"halls"`
	LastError    string      `json:"lastError,omitempty"`
	LatestID     string      `json:"latestId,omitempty"`
}

// Options 協調器設定
type Options struct {
	Strategies      []Strategy
	DefaultStrategy string
	AllowPartial    bool
	TopPicks        int
	FilterOptions   []menu.FilterOption
	FetchTimeout    time.Duration
	MaxConcurrency  int
}

// Coordinator 負責所有餐廳的菜單載入與個人化排名
type Coordinator struct {
	catalog *dining.Catalog
	fetcher MenuFetcher
	cache   *cache.Cache
	board   *FeedBoard

	strategies      map[string]Strategy
	defaultStrategy string
	allowPartial    bool
	topPicks        int
	filterOpts      []menu.FilterOption
	fetchTimeout    time.Duration
	maxConcurrency  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     conc.WaitGroup

	mu      sync.RWMutex
	latest  *Result
	lastErr string
}

// NewCoordinator 創建協調器；未提供排名方式時使用本地評分
func NewCoordinator(catalog *dining.Catalog, fetcher MenuFetcher, menuCache *cache.Cache, opts Options) *Coordinator {
	if menuCache == nil {
		menuCache = cache.New(nil, time.Local)
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = defaultMaxConcurrency
	}
	if opts.TopPicks <= 0 {
		opts.TopPicks = DefaultTopPicks
	}

	strategies := make(map[string]Strategy)
	for _, s := range opts.Strategies {
		if s != nil {
			strategies[s.Name()] = s
		}
	}
	if _, ok := strategies[StrategyLocal]; !ok {
		strategies[StrategyLocal] = NewLocalStrategy(nil)
	}
	def := opts.DefaultStrategy
	if _, ok := strategies[def]; !ok {
		def = StrategyLocal
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		catalog:         catalog,
		fetcher:         fetcher,
		cache:           menuCache,
		board:           NewFeedBoard(catalog.IDs()),
		strategies:      strategies,
		defaultStrategy: def,
		allowPartial:    opts.AllowPartial,
		topPicks:        opts.TopPicks,
		filterOpts:      opts.FilterOptions,
		fetchTimeout:    opts.FetchTimeout,
		maxConcurrency:  opts.MaxConcurrency,
		ctx:             ctx,
		cancel:          cancel,
	}
}

// Refresh 在背景開始一個載入週期
func (c *Coordinator) Refresh(force bool) {
	if c.ctx.Err() != nil {
		return
	}
	c.wg.Go(func() {
		c.refresh(c.ctx, force)
	})
}

// RefreshAndWait 開始載入週期並等待完成；ctx 只限制等待時間，不會中斷載入
func (c *Coordinator) RefreshAndWait(ctx context.Context, force bool) error {
	if c.ctx.Err() != nil {
		return c.ctx.Err()
	}

	done := make(chan struct{})
	c.wg.Go(func() {
		defer close(done)
		c.refresh(c.ctx, force)
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) refresh(ctx context.Context, force bool) {
	date := c.cache.Today()
	gen, pending := c.board.Begin(date, force)
	if len(pending) == 0 {
		return
	}

	common.LogInfo("開始載入菜單",
		zap.String("date", date),
		zap.Uint64("generation", gen),
		zap.Strings("halls", pending),
		zap.Bool("force", force),
	)

	toFetch := pending
	if !force {
		toFetch = c.completeFromCache(ctx, date, gen, pending)
	}

	p := pool.New().WithContext(ctx).WithMaxGoroutines(c.maxConcurrency)
	for _, hallID := range toFetch {
		hallID := hallID
		p.Go(func(ctx context.Context) error {
			c.fetchOne(ctx, date, gen, hallID)
			return nil
		})
	}
	_ = p.Wait()

	s := c.board.Summarize()
	common.LogInfo("菜單載入週期結束",
		zap.String("date", date),
		zap.Int("loaded", len(s.Loaded)),
		zap.Int("errored", len(s.Errored)),
	)
}

// completeFromCache 以週期開始時讀取的快取完成命中的餐廳，回傳仍需抓取的餐廳
func (c *Coordinator) completeFromCache(ctx context.Context, date string, gen uint64, pending []string) []string {
	snap := c.cache.ReadAll(ctx)
	misses := make([]string, 0, len(pending))
	for _, hallID := range pending {
		entry, ok := snap.Get(date, hallID)
		if !ok {
			misses = append(misses, hallID)
			continue
		}
		payload, err := menu.DecodePayload(entry.Payload)
		if err != nil {
			common.LogDebug("菜單快取內容損壞，重新抓取", zap.String("hall", hallID), zap.Error(err))
			misses = append(misses, hallID)
			continue
		}
		common.LogCacheHit("menu", date+"/"+hallID)
		c.board.Complete(hallID, gen, payload, SourceCache)
	}
	return misses
}

func (c *Coordinator) fetchOne(ctx context.Context, date string, gen uint64, hallID string) {
	fctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	start := time.Now()
	payload, err := c.fetcher.Fetch(fctx, hallID, date)

	// 協調器關閉後的結果一律丟棄
	if ctx.Err() != nil {
		common.LogDebug("協調器已關閉，丟棄菜單結果", zap.String("hall", hallID))
		return
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("menu request timed out after %s", c.fetchTimeout)
		}
		if c.board.Fail(hallID, gen, err) {
			common.LogWarn("菜單載入失敗",
				zap.String("hall", hallID),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err),
			)
		}
		return
	}

	c.cache.PutDate(ctx, date, hallID, payload)
	if c.board.Complete(hallID, gen, payload, SourceProvider) {
		common.LogDebug("菜單載入完成",
			zap.String("hall", hallID),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

// Ready 是否可以個人化：全部載入，或允許部分載入時沒有仍在載入的餐廳且至少一間成功
func (c *Coordinator) Ready() bool {
	return c.ready(c.board.Summarize())
}

func (c *Coordinator) ready(s Summary) bool {
	if c.allowPartial {
		return s.Settled()
	}
	return s.AllLoaded()
}

// Status 回傳前置條件與各餐廳狀態
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	lastErr := c.lastErr
	latestID := ""
	if c.latest != nil {
		latestID = c.latest.ID
	}
	c.mu.RUnlock()

	return Status{
		Ready:        c.Ready(),
		AllowPartial: c.allowPartial,
		Date:         c.board.Date(),
		Summary:      c.board.Summarize(),
		Halls:        c.board.Snapshot(),
		LastError:    lastErr,
		LatestID:     latestID,
	}
}

// Feeds 各餐廳的載入狀態
func (c *Coordinator) Feeds() []FeedState {
	return c.board.Snapshot()
}

// FilterConfig 依設定與使用者偏好建立過濾條件；profile 為 nil 時只套用類別與熱量規則
func (c *Coordinator) FilterConfig(profile *dining.UserProfile, extra ...menu.FilterOption) menu.FilterConfig {
	opts := make([]menu.FilterOption, 0, len(c.filterOpts)+len(extra))
	opts = append(opts, c.filterOpts...)
	opts = append(opts, extra...)
	return menu.ForProfile(profile, opts...)
}

// Items 回傳餐廳已載入菜單的標準化菜色與其狀態；尚未載入時菜色為空
func (c *Coordinator) Items(hallID string) ([]menu.Item, FeedState, error) {
	if _, ok := c.catalog.Get(hallID); !ok {
		return nil, FeedState{}, fmt.Errorf("%w: %s", ErrUnknownHall, hallID)
	}
	st, ok := c.board.Get(hallID)
	if !ok || st.Status != StatusLoaded {
		return []menu.Item{}, st, nil
	}
	return menu.Normalize(st.Payload), st, nil
}

// MergedMenus 統計已載入餐廳過濾後的菜色數，失敗的餐廳列入錯誤清單
func (c *Coordinator) MergedMenus(profile *dining.UserProfile) MergedMenus {
	halls, errs := c.loadedMenus(profile)

	out := MergedMenus{
		Halls:  make([]HallDishCount, 0, len(halls)),
		Errors: errs,
	}
	for _, hm := range halls {
		out.Halls = append(out.Halls, HallDishCount{HallID: hm.Hall.ID, Name: hm.Hall.Name, Dishes: len(hm.Items)})
		out.TotalDishes += len(hm.Items)
	}
	return out
}

func (c *Coordinator) loadedMenus(profile *dining.UserProfile) ([]HallMenu, []HallError) {
	_, states := c.board.Capture()
	return c.menusFrom(states, profile)
}

func (c *Coordinator) menusFrom(states map[string]FeedState, profile *dining.UserProfile) ([]HallMenu, []HallError) {
	cfg := c.FilterConfig(profile)

	halls := make([]HallMenu, 0, c.catalog.Len())
	errs := make([]HallError, 0)
	for _, hall := range c.catalog.Halls() {
		st, ok := states[hall.ID]
		if !ok {
			continue
		}
		switch st.Status {
		case StatusLoaded:
			items := menu.Apply(menu.Normalize(st.Payload), cfg)
			halls = append(halls, HallMenu{Hall: hall, Items: items})
		case StatusError:
			errs = append(errs, HallError{HallID: hall.ID, Name: hall.Name, Error: st.Error})
		}
	}
	return halls, errs
}

// Strategies 已註冊的排名方式
func (c *Coordinator) Strategies() []string {
	names := make([]string, 0, len(c.strategies))
	for _, s := range []string{StrategyLocal, StrategyAI} {
		if _, ok := c.strategies[s]; ok {
			names = append(names, s)
		}
	}
	for name := range c.strategies {
		if name != StrategyLocal && name != StrategyAI {
			names = append(names, name)
		}
	}
	return names
}

// Personalize 以指定排名方式產生新的排名；失敗時保留前一次結果
func (c *Coordinator) Personalize(ctx context.Context, profile dining.UserProfile, strategyName string) (*Result, error) {
	if strategyName == "" {
		strategyName = c.defaultStrategy
	}
	strategy, ok := c.strategies[strategyName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStrategy, strategyName)
	}
	// 前置條件與菜單取自同一份狀態，避免中途開始的重新載入讓排名沒有餐廳
	summary, states := c.board.Capture()
	if !c.ready(summary) {
		return nil, ErrNotReady
	}

	profile = profile.Normalize()
	halls, errs := c.menusFrom(states, &profile)
	if len(halls) == 0 {
		return nil, ErrNotReady
	}

	start := time.Now()
	result, err := strategy.Rank(ctx, Request{Profile: profile, Halls: halls, TopPicks: c.topPicks})
	if err != nil {
		c.mu.Lock()
		c.lastErr = err.Error()
		c.mu.Unlock()

		common.LogWarn("個人化排名失敗",
			zap.String("strategy", strategyName),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrRankingFailed, err)
	}

	if len(errs) > 0 {
		result.Excluded = errs
	}

	c.mu.Lock()
	c.latest = result
	c.lastErr = ""
	c.mu.Unlock()

	common.LogInfo("個人化排名完成",
		zap.String("strategy", strategyName),
		zap.String("result_id", result.ID),
		zap.String("standout", result.StandoutHallID),
		zap.Int("halls", len(result.Halls)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// Latest 最近一次成功的排名，尚未排名時為 nil
func (c *Coordinator) Latest() *Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// ClearLatest 清除排名結果（使用者登出或清除偏好時）
func (c *Coordinator) ClearLatest() {
	c.mu.Lock()
	c.latest = nil
	c.lastErr = ""
	c.mu.Unlock()
}

// Catalog 餐廳目錄
func (c *Coordinator) Catalog() *dining.Catalog {
	return c.catalog
}

// Close 取消進行中的載入並等待背景工作結束
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}
