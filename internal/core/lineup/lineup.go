package lineup

import (
	"fmt"
	"strings"

	"dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/core/ranking"
)

// Mode 顯示模式
type Mode string

const (
	// ModeSpotlight 一次顯示一間餐廳與完整菜單
	ModeSpotlight Mode = "spotlight"
	// ModeGrid 顯示所有餐廳，菜單截斷
	ModeGrid Mode = "grid"
)

// MaxMenuRows 格狀模式下每間餐廳顯示的菜色數
const MaxMenuRows = 6

const (
	labelSeparator   = " · "
	campusFavorite   = "Campus favorite"
	notCalculated    = "Not yet calculated"
	fallbackNote     = "Good fallback option when your go-to is busy"
	emptyPlaceholder = "—"
	noAllergens      = "None listed"
)

// 菜單區塊提示
const (
	NoteIdle    = "Menu loads when you open this view."
	NoteLoading = "Pulling today's feed..."
	NoteError   = "Unable to load menu file."
	NoteEmpty   = "No menu items listed in the JSON yet."
)

// ParseMode 解析顯示模式，空字串為格狀
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeGrid:
		return ModeGrid, true
	case ModeSpotlight, "carousel":
		return ModeSpotlight, true
	default:
		return "", false
	}
}

// HallMenuState 單間餐廳的菜單狀態與過濾後菜色
type HallMenuState struct {
	Status ranking.FeedStatus
	Error  string
	Items  []menu.Item
}

// Input 組合畫面所需的資料
type Input struct {
	Halls   []dining.DiningHall
	Profile *dining.UserProfile
	Result  *ranking.Result
	Menus   map[string]HallMenuState
	Mode    Mode
	Index   int
	MaxRows int
}

// Row 菜單表格的一列
type Row struct {
	ID        string `json:"id"`
	Meal      string `json:"meal"`
	Station   string `json:"station"`
	Name      string `json:"name"`
	Calories  string `json:"calories"`
	Tags      string `json:"tags"`
	Allergens string `json:"allergens"`
}

// MenuBlock 卡片中的菜單區塊
type MenuBlock struct {
	Status    ranking.FeedStatus `json:"status,omitempty"`
	Rows      []Row              `json:"rows"`
	Total     int                `json:"total"`
	Truncated bool               `json:"truncated"`
	Note      string             `json:"note"`
	Error     string             `json:"error,omitempty"`
}

// Card 一間餐廳的卡片
type Card struct {
	HallID       string    `json:"hallId"`
	Name         string    `json:"name"`
	Area         string    `json:"area"`
	Description  string    `json:"description"`
	BestFor      string    `json:"bestFor"`
	DietReady    string    `json:"dietReady"`
	Highlights   []string  `json:"highlights"`
	Signature    string    `json:"signature"`
	Rank         int       `json:"rank,omitempty"`
	MatchPercent *int      `json:"matchPercent,omitempty"`
	MatchLabel   string    `json:"matchLabel"`
	Standout     bool      `json:"standout"`
	TopPicks     []string  `json:"topPicks,omitempty"`
	PersonalNote string    `json:"personalNote,omitempty"`
	MatchesGoal  bool      `json:"matchesGoal"`
	MatchesDiet  bool      `json:"matchesDiet"`
	Menu         MenuBlock `json:"menu"`
}

// View 整個畫面的資料
type View struct {
	Mode         Mode   `json:"mode"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Personalized bool   `json:"personalized"`
	SignedIn     bool   `json:"signedIn"`
	Index        int    `json:"index"`
	Count        int    `json:"count"`
	Prev         int    `json:"prev"`
	Next         int    `json:"next"`
	Cards        []Card `json:"cards"`
}

// Build 組合畫面：已個人化時依排名排序，否則維持目錄順序
func Build(in Input) View {
	mode := in.Mode
	if mode == "" {
		mode = ModeGrid
	}
	maxRows := in.MaxRows
	if maxRows <= 0 {
		maxRows = MaxMenuRows
	}

	signedIn := in.Profile != nil
	personalized := signedIn && in.Result != nil
	var profile dining.UserProfile
	if signedIn {
		profile = in.Profile.Normalize()
	}

	ordered := orderHalls(in.Halls, in.Result, personalized)
	count := len(ordered)

	v := View{
		Mode:         mode,
		Personalized: personalized,
		SignedIn:     signedIn,
		Count:        count,
		Cards:        make([]Card, 0, count),
	}
	v.Title, v.Subtitle = header(profile, signedIn, personalized)

	if count == 0 {
		return v
	}

	v.Index = wrap(in.Index, count)
	v.Prev = wrap(v.Index-1, count)
	v.Next = wrap(v.Index+1, count)

	render := ordered
	if mode == ModeSpotlight {
		render = ordered[v.Index : v.Index+1]
	}

	for _, hall := range render {
		card := newCard(hall)
		if personalized {
			personalize(&card, hall, profile, in.Result)
		} else {
			card.MatchLabel = campusFavorite
		}
		card.Menu = menuBlock(in.Menus[hall.ID], mode == ModeSpotlight, maxRows)
		v.Cards = append(v.Cards, card)
	}
	return v
}

func orderHalls(halls []dining.DiningHall, result *ranking.Result, personalized bool) []dining.DiningHall {
	if !personalized {
		out := make([]dining.DiningHall, len(halls))
		copy(out, halls)
		return out
	}

	byID := make(map[string]dining.DiningHall, len(halls))
	for _, h := range halls {
		byID[h.ID] = h
	}

	out := make([]dining.DiningHall, 0, len(halls))
	placed := make(map[string]bool, len(halls))
	for _, r := range result.Halls {
		if h, ok := byID[r.HallID]; ok && !placed[h.ID] {
			out = append(out, h)
			placed[h.ID] = true
		}
	}
	for _, h := range halls {
		if !placed[h.ID] {
			out = append(out, h)
		}
	}
	return out
}

func header(p dining.UserProfile, signedIn, personalized bool) (string, string) {
	switch {
	case personalized:
		diet := strings.ReplaceAll(strings.ToLower(p.Diet.Label()), "no preference", "omnivore preference")
		return fmt.Sprintf("%s's personalized lineup", p.FirstName()),
			fmt.Sprintf("Ranked using your %s goal and %s.", strings.ToLower(p.Goal.Label()), diet)
	case signedIn:
		return "Neutral campus lineup — signed in",
			"You are signed in. Personalize your rankings to generate your tailored order."
	default:
		return "Neutral campus lineup",
			"Sign up or log in to sort these halls by your goals and dietary choices."
	}
}

func newCard(h dining.DiningHall) Card {
	diets := make([]string, len(h.DietOptions))
	for i, d := range h.DietOptions {
		diets[i] = d.Label()
	}
	highlights := make([]string, len(h.Highlights))
	copy(highlights, h.Highlights)

	return Card{
		HallID:      h.ID,
		Name:        h.Name,
		Area:        h.Area,
		Description: h.Description,
		BestFor:     h.GoalFocusLabel(),
		DietReady:   strings.Join(diets, labelSeparator),
		Highlights:  highlights,
		Signature:   h.Signature,
	}
}

func personalize(card *Card, hall dining.DiningHall, p dining.UserProfile, result *ranking.Result) {
	card.MatchesGoal = hall.SupportsGoal(p.Goal)
	card.MatchesDiet = hall.SupportsDiet(p.Diet)
	card.Standout = result.StandoutHallID == hall.ID
	card.MatchLabel = notCalculated

	if r, ok := result.Find(hall.ID); ok {
		card.Rank = r.Rank
		card.TopPicks = r.TopPicks
		if r.Calculated() {
			pct := *r.MatchPercent
			card.MatchPercent = &pct
			card.MatchLabel = fmt.Sprintf("%d%% match", pct)
		}
	}

	card.PersonalNote = PersonalNote(hall, p)
}

// PersonalNote 依目標與飲食是否符合組合提示
func PersonalNote(hall dining.DiningHall, p dining.UserProfile) string {
	parts := make([]string, 0, 2)
	if hall.SupportsGoal(p.Goal) {
		parts = append(parts, p.Goal.Label()+" dishes on rotation")
	}
	if hall.SupportsDiet(p.Diet) {
		parts = append(parts, p.Diet.Label()+" stations ready")
	} else {
		parts = append(parts, fallbackNote)
	}
	return strings.Join(parts, labelSeparator)
}

func menuBlock(st HallMenuState, full bool, maxRows int) MenuBlock {
	b := MenuBlock{Status: st.Status, Rows: []Row{}}

	switch st.Status {
	case "":
		b.Note = NoteIdle
		return b
	case ranking.StatusLoading:
		b.Note = NoteLoading
		return b
	case ranking.StatusError:
		b.Note = NoteError
		b.Error = st.Error
		return b
	}

	b.Total = len(st.Items)
	if b.Total == 0 {
		b.Note = NoteEmpty
		return b
	}

	items := st.Items
	if !full && len(items) > maxRows {
		items = items[:maxRows]
		b.Truncated = true
	}
	for _, it := range items {
		b.Rows = append(b.Rows, row(it))
	}

	if full {
		b.Note = fmt.Sprintf("Showing all %d dishes.", b.Total)
	} else {
		b.Note = fmt.Sprintf("Showing %d of %d dishes.", len(b.Rows), b.Total)
	}
	return b
}

func row(it menu.Item) Row {
	tags := emptyPlaceholder
	if len(it.Tags) > 0 {
		tags = strings.Join(it.Tags, labelSeparator)
	}
	allergens := it.Allergens
	if allergens == "" {
		allergens = noAllergens
	}
	return Row{
		ID:        it.ID,
		Meal:      it.Meal,
		Station:   it.Station,
		Name:      it.Name,
		Calories:  it.Calories.String(),
		Tags:      tags,
		Allergens: allergens,
	}
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
