package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/pkg/common"

	"go.uber.org/zap"
)

// maxPromptItems 每間餐廳送進 prompt 的菜色上限
const maxPromptItems = 40

// Completer 外部自然語言排名服務
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ValidatingCompleter 可在寫入快取前驗證回應的排名服務
type ValidatingCompleter interface {
	Completer
	CompleteValidated(ctx context.Context, prompt string, validate func(string) error) (string, error)
}

// AIStrategy 將排名交給外部服務，解析其自由文字回應
type AIStrategy struct {
	client Completer
	now    func() time.Time
}

// NewAIStrategy 創建 AI 排名
func NewAIStrategy(client Completer) *AIStrategy {
	return &AIStrategy{client: client, now: time.Now}
}

// Name 排名方式名稱
func (s *AIStrategy) Name() string {
	return StrategyAI
}

// Rank 送出 prompt 並解析回應；找不到的餐廳保持未計算
func (s *AIStrategy) Rank(ctx context.Context, req Request) (*Result, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build ranking prompt: %w", err)
	}

	// 無法解析的回應不能進快取，否則重試會一直拿到同一份回應
	var text string
	if vc, ok := s.client.(ValidatingCompleter); ok {
		text, err = vc.CompleteValidated(ctx, prompt, func(t string) error {
			_, err := matchRankings(t, req.Halls)
			return err
		})
	} else {
		text, err = s.client.Complete(ctx, prompt)
	}
	if err != nil {
		if errors.Is(err, ErrUnparseableResponse) {
			common.LogWarn("排名回應格式無法解析", zap.String("provider", s.client.Name()))
		}
		return nil, err
	}

	rankings, err := matchRankings(text, req.Halls)
	if err != nil {
		common.LogWarn("排名回應格式無法解析",
			zap.String("provider", s.client.Name()),
			zap.Int("response_length", len(text)),
		)
		return nil, err
	}

	// 已計算的依百分比排序，未計算的維持原順序排在最後
	sort.SliceStable(rankings, func(i, j int) bool {
		a, b := rankings[i], rankings[j]
		if a.Calculated() != b.Calculated() {
			return a.Calculated()
		}
		if !a.Calculated() {
			return false
		}
		return *a.MatchPercent > *b.MatchPercent
	})

	return newResult(StrategyAI, ResponseFormatVersion, req.Profile, rankings, s.now()), nil
}

// matchRankings 解析回應並對應到餐廳；沒有任何餐廳對應時回傳 ErrUnparseableResponse
func matchRankings(text string, halls []HallMenu) ([]HallRanking, error) {
	blocks, err := ParseResponse(text, func(label string) bool {
		return resolveHall(label, halls) >= 0
	})
	if err != nil {
		return nil, err
	}

	rankings := make([]HallRanking, len(halls))
	for i, hm := range halls {
		rankings[i] = HallRanking{HallID: hm.Hall.ID, Name: hm.Hall.Name, TopPicks: []string{}}
	}

	matched := 0
	for _, b := range blocks {
		i := resolveHall(b.Label, halls)
		if i < 0 || rankings[i].Calculated() {
			continue
		}
		pct := b.Percent
		rankings[i].MatchPercent = &pct
		if b.TopPicks != nil {
			rankings[i].TopPicks = b.TopPicks
		}
		matched++
	}
	if matched == 0 {
		return nil, ErrUnparseableResponse
	}
	return rankings, nil
}

// resolveHall 依 ID、名稱或包含關係找出餐廳
func resolveHall(label string, halls []HallMenu) int {
	l := strings.ToLower(strings.TrimSpace(label))

	for i, hm := range halls {
		if l == strings.ToLower(hm.Hall.ID) || l == strings.ToLower(hm.Hall.Name) {
			return i
		}
	}
	for i, hm := range halls {
		name := strings.ToLower(hm.Hall.Name)
		if strings.Contains(l, name) || strings.Contains(name, l) {
			return i
		}
	}
	for i, hm := range halls {
		if strings.Contains(l, strings.ToLower(hm.Hall.ID)) {
			return i
		}
	}
	return -1
}

type promptItem struct {
	Name      string        `json:"name"`
	Station   string        `json:"station"`
	Calories  menu.Calories `json:"calories"`
	Tags      []string      `json:"tags,omitempty"`
	Allergens string        `json:"allergens,omitempty"`
}

type promptHall struct {
	Hall  string       `json:"hall"`
	Items []promptItem `json:"items"`
}

// BuildPrompt 組合使用者偏好與各餐廳菜單的 prompt
func BuildPrompt(req Request) (string, error) {
	p := req.Profile.Normalize()

	halls := make([]promptHall, 0, len(req.Halls))
	for _, hm := range req.Halls {
		items := make([]promptItem, 0, len(hm.Items))
		for i, it := range hm.Items {
			if i == maxPromptItems {
				break
			}
			items = append(items, promptItem{
				Name:      it.Name,
				Station:   it.Station,
				Calories:  it.Calories,
				Tags:      it.Tags,
				Allergens: it.Allergens,
			})
		}
		halls = append(halls, promptHall{Hall: hm.Hall.Name, Items: items})
	}

	menus, err := json.Marshal(halls)
	if err != nil {
		return "", err
	}

	allergies := "none"
	if len(p.Allergies) > 0 {
		allergies = strings.Join(p.Allergies, ", ")
	}

	var b strings.Builder
	b.WriteString("You are ranking campus dining halls for one student.\n")
	fmt.Fprintf(&b, "Goal: %s\n", p.Goal.Label())
	fmt.Fprintf(&b, "Diet: %s\n", dietPromptLabel(p.Diet))
	fmt.Fprintf(&b, "Allergies: %s\n\n", allergies)
	b.WriteString("Today's filtered menus as compact JSON:\n")
	b.Write(menus)
	b.WriteString("\n\nFor every dining hall, answer with exactly these two lines and nothing else about it:\n")
	b.WriteString("<dining hall name>: <match percentage>%\n")
	b.WriteString("Top3: <dish>, <dish>, <dish>\n")
	b.WriteString("Use the dining hall names exactly as given. Percentages across all halls should add up to 100.")
	return b.String(), nil
}

func dietPromptLabel(d dining.Diet) string {
	if d == dining.DietOmnivore {
		return "Omnivore (no restrictions)"
	}
	return d.Label()
}
