package dining

import (
	"strings"
)

// Goal 使用者目標
type Goal string

// Diet 飲食型態
type Diet string

const (
	GoalLose     Goal = "lose"
	GoalMaintain Goal = "maintain"
	GoalGain     Goal = "gain"

	DietOmnivore   Diet = "omnivore"
	DietVegetarian Diet = "vegetarian"
	DietVegan      Diet = "vegan"
)

// DefaultProfileName 未填名稱時使用的顯示名稱
const DefaultProfileName = "ByteBiter"

var goalLabels = map[Goal]string{
	GoalLose:     "Lose Weight",
	GoalMaintain: "Maintain",
	GoalGain:     "Gain Muscle",
}

var dietLabels = map[Diet]string{
	DietOmnivore:   "No Preference",
	DietVegetarian: "Vegetarian",
	DietVegan:      "Vegan",
}

// Valid 檢查目標是否為已知值
func (g Goal) Valid() bool {
	_, ok := goalLabels[g]
	return ok
}

// Label 目標顯示名稱，未知值回傳 Maintain
func (g Goal) Label() string {
	if label, ok := goalLabels[g]; ok {
		return label
	}
	return goalLabels[GoalMaintain]
}

// Valid 檢查飲食型態是否為已知值
func (d Diet) Valid() bool {
	_, ok := dietLabels[d]
	return ok
}

// Label 飲食型態顯示名稱，未知值視為雜食
func (d Diet) Label() string {
	if label, ok := dietLabels[d]; ok {
		return label
	}
	return dietLabels[DietOmnivore]
}

// ParseGoal 解析目標字串，空字串回傳預設值
func ParseGoal(s string) (Goal, bool) {
	g := Goal(strings.ToLower(strings.TrimSpace(s)))
	if g == "" {
		return GoalMaintain, true
	}
	return g, g.Valid()
}

// ParseDiet 解析飲食型態字串，空字串回傳預設值
func ParseDiet(s string) (Diet, bool) {
	d := Diet(strings.ToLower(strings.TrimSpace(s)))
	if d == "" {
		return DietOmnivore, true
	}
	return d, d.Valid()
}

// DiningHall 餐廳靜態資料
type DiningHall struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Area        string   `json:"area" yaml:"area"`
	Description string   `json:"description" yaml:"description"`
	GoalFocus   []Goal   `json:"goalFocus" yaml:"goalFocus"`
	DietOptions []Diet   `json:"dietOptions" yaml:"dietOptions"`
	Highlights  []string `json:"highlights" yaml:"highlights"`
	Signature   string   `json:"signature" yaml:"signature"`
}

// SupportsGoal 餐廳是否以該目標為主
func (h DiningHall) SupportsGoal(g Goal) bool {
	for _, focus := range h.GoalFocus {
		if focus == g {
			return true
		}
	}
	return false
}

// SupportsDiet 餐廳是否提供該飲食型態
func (h DiningHall) SupportsDiet(d Diet) bool {
	for _, option := range h.DietOptions {
		if option == d {
			return true
		}
	}
	return false
}

// GoalFocusLabel 以 " · " 串接目標顯示名稱
func (h DiningHall) GoalFocusLabel() string {
	labels := make([]string, 0, len(h.GoalFocus))
	for _, g := range h.GoalFocus {
		labels = append(labels, g.Label())
	}
	return strings.Join(labels, " · ")
}

// UserProfile 使用者偏好設定
type UserProfile struct {
	Name               string   `json:"name"`
	Goal               Goal     `json:"goal"`
	Diet               Diet     `json:"diet"`
	Allergies          []string `json:"allergies"`
	VisuallyImpaired   bool     `json:"visuallyImpaired,omitempty"`
	ColorblindFriendly bool     `json:"colorblindFriendly,omitempty"`
}

// Normalize 回傳補齊預設值的副本：未知目標視為 maintain，未知飲食視為 omnivore
func (p UserProfile) Normalize() UserProfile {
	out := p
	out.Name = strings.TrimSpace(p.Name)
	if out.Name == "" {
		out.Name = DefaultProfileName
	}
	if !out.Goal.Valid() {
		out.Goal = GoalMaintain
	}
	if !out.Diet.Valid() {
		out.Diet = DietOmnivore
	}

	seen := make(map[string]struct{}, len(p.Allergies))
	out.Allergies = make([]string, 0, len(p.Allergies))
	for _, allergen := range p.Allergies {
		allergen = strings.TrimSpace(allergen)
		key := strings.ToLower(allergen)
		if allergen == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Allergies = append(out.Allergies, allergen)
	}
	return out
}

// FirstName 名稱的第一個字
func (p UserProfile) FirstName() string {
	fields := strings.Fields(p.Name)
	if len(fields) == 0 {
		return DefaultProfileName
	}
	return fields[0]
}
