package score

import (
	"math"

	"dining-ranker/internal/core/dining"
)

// DefaultCeiling 單間餐廳的分數上限
const DefaultCeiling = 6

// 計分權重
const (
	goalMatchPoints    = 3
	omnivorePoints     = 1
	dietMatchPoints    = 3
	veganSupportPoints = 2
	gainBonusPoints    = 1
)

// Engine 本地配對評分
type Engine struct {
	ceiling int
}

// NewEngine 創建評分引擎，ceiling <= 0 時使用預設值
func NewEngine(ceiling int) *Engine {
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	return &Engine{ceiling: ceiling}
}

// Ceiling 分數上限
func (e *Engine) Ceiling() int {
	return e.ceiling
}

// Score 計算單間餐廳對使用者的配對分數，範圍 [0, ceiling]
func (e *Engine) Score(hall dining.DiningHall, profile dining.UserProfile) int {
	p := profile.Normalize()
	score := 0

	if hall.SupportsGoal(p.Goal) {
		score += goalMatchPoints
	}

	if p.Diet == dining.DietOmnivore {
		score += omnivorePoints
	} else if hall.SupportsDiet(p.Diet) {
		score += dietMatchPoints
	}

	if p.Diet == dining.DietVegan && hall.SupportsDiet(dining.DietVegan) {
		score += veganSupportPoints
	}

	if p.Goal == dining.GoalGain && hall.SupportsGoal(dining.GoalGain) {
		score += gainBonusPoints
	}

	if score > e.ceiling {
		score = e.ceiling
	}
	return score
}

// HallScore 單間餐廳的分數與百分比
type HallScore struct {
	Hall    dining.DiningHall
	Score   int
	Percent int
}

// ScoreAll 依原始順序計算所有餐廳的分數與百分比
func (e *Engine) ScoreAll(halls []dining.DiningHall, profile dining.UserProfile) []HallScore {
	scores := make([]int, len(halls))
	for i, hall := range halls {
		scores[i] = e.Score(hall, profile)
	}
	percents := Percentages(scores)

	out := make([]HallScore, len(halls))
	for i, hall := range halls {
		out[i] = HallScore{Hall: hall, Score: scores[i], Percent: percents[i]}
	}
	return out
}

// Percentages 將分數轉為加總為 100 的百分比；總分為 0 時全部為 0。
// 四捨五入的餘數加到最高分（同分取第一個）的項目。
func Percentages(scores []int) []int {
	out := make([]int, len(scores))
	total := 0
	for _, s := range scores {
		total += s
	}
	if total <= 0 {
		return out
	}

	sum := 0
	for i, s := range scores {
		out[i] = int(math.Round(100 * float64(s) / float64(total)))
		sum += out[i]
	}

	if top := TopIndex(scores); top >= 0 {
		out[top] += 100 - sum
	}
	return out
}

// TopIndex 最高分的索引，同分取第一個；空輸入回傳 -1
func TopIndex(scores []int) int {
	top := -1
	for i, s := range scores {
		if top == -1 || s > scores[top] {
			top = i
		}
	}
	return top
}

// TopHall 最高分的餐廳，同分取原始順序第一個
func (e *Engine) TopHall(halls []dining.DiningHall, profile dining.UserProfile) (dining.DiningHall, bool) {
	scores := make([]int, len(halls))
	for i, hall := range halls {
		scores[i] = e.Score(hall, profile)
	}
	i := TopIndex(scores)
	if i < 0 {
		return dining.DiningHall{}, false
	}
	return halls[i], true
}
