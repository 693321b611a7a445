package ranking

import (
	"context"
	"sort"
	"time"

	"dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/core/score"
	"dining-ranker/internal/pkg/common"
)

// 排名方式名稱
const (
	StrategyLocal = "local"
	StrategyAI    = "ai"
)

// DefaultTopPicks 每間餐廳推薦的菜色數
const DefaultTopPicks = 3

// HallMenu 一間已載入餐廳的過濾後菜單
type HallMenu struct {
	Hall  dining.DiningHall
	Items []menu.Item
}

// Request 排名輸入
type Request struct {
	Profile  dining.UserProfile
	Halls    []HallMenu
	TopPicks int
}

// HallRanking 單間餐廳的排名結果
type HallRanking struct {
	HallID string `json:"hallId"`
	Name   string `json:"name"`
	Rank   int    `json:"rank"`
	// Score 僅本地評分提供
	Score *int `json:"score,omitempty"`
	// MatchPercent 為 nil 表示尚未計算
	MatchPercent *int     `json:"matchPercent"`
	TopPicks     []string `json:"topPicks"`
}

// Calculated 是否已有配對百分比
func (h HallRanking) Calculated() bool {
	return h.MatchPercent != nil
}

// Result 一次個人化排名的結果，產生後不再修改
type Result struct {
	ID             string             `json:"id"`
	Strategy       string             `json:"strategy"`
	FormatVersion  string             `json:"formatVersion,omitempty"`
	GeneratedAt    time.Time          `json:"generatedAt"`
	Profile        dining.UserProfile `json:"profile"`
	Halls          []HallRanking      `json:"halls"`
	StandoutHallID string             `json:"standoutHallId,omitempty"`
	Excluded       []HallError        `json:"excluded,omitempty"`
}

// Find 依餐廳 ID 取得排名
func (r *Result) Find(hallID string) (HallRanking, bool) {
	if r == nil {
		return HallRanking{}, false
	}
	for _, h := range r.Halls {
		if h.HallID == hallID {
			return h, true
		}
	}
	return HallRanking{}, false
}

// Strategy 排名方式
type Strategy interface {
	Name() string
	Rank(ctx context.Context, req Request) (*Result, error)
}

// LocalStrategy 以本地評分引擎排名，不需網路
type LocalStrategy struct {
	engine *score.Engine
	now    func() time.Time
}

// NewLocalStrategy 創建本地排名
func NewLocalStrategy(engine *score.Engine) *LocalStrategy {
	if engine == nil {
		engine = score.NewEngine(score.DefaultCeiling)
	}
	return &LocalStrategy{engine: engine, now: time.Now}
}

// Name 排名方式名稱
func (s *LocalStrategy) Name() string {
	return StrategyLocal
}

// Rank 依分數由高到低排序（同分維持原順序），推薦菜色取過濾後菜單的前幾項
func (s *LocalStrategy) Rank(ctx context.Context, req Request) (*Result, error) {
	halls := make([]dining.DiningHall, len(req.Halls))
	for i, hm := range req.Halls {
		halls[i] = hm.Hall
	}
	scored := s.engine.ScoreAll(halls, req.Profile)

	rankings := make([]HallRanking, len(scored))
	for i, hs := range scored {
		sc, pct := hs.Score, hs.Percent
		rankings[i] = HallRanking{
			HallID:       hs.Hall.ID,
			Name:         hs.Hall.Name,
			Score:        &sc,
			MatchPercent: &pct,
			TopPicks:     topPicks(req.Halls[i].Items, req.TopPicks),
		}
	}

	sort.SliceStable(rankings, func(i, j int) bool {
		return *rankings[i].Score > *rankings[j].Score
	})

	res := newResult(StrategyLocal, "", req.Profile, rankings, s.now())
	if top, ok := s.engine.TopHall(halls, req.Profile); ok {
		res.StandoutHallID = top.ID
	}
	return res, nil
}

func newResult(strategy, version string, profile dining.UserProfile, rankings []HallRanking, at time.Time) *Result {
	for i := range rankings {
		rankings[i].Rank = i + 1
	}
	r := &Result{
		ID:            common.GenerateUUID(),
		Strategy:      strategy,
		FormatVersion: version,
		GeneratedAt:   at,
		Profile:       profile,
		Halls:         rankings,
	}
	if len(rankings) > 0 && rankings[0].Calculated() {
		r.StandoutHallID = rankings[0].HallID
	}
	return r
}

func topPicks(items []menu.Item, n int) []string {
	if n <= 0 {
		n = DefaultTopPicks
	}
	picks := make([]string, 0, n)
	for _, it := range items {
		if len(picks) == n {
			break
		}
		picks = append(picks, it.Name)
	}
	return picks
}
