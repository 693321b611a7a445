package menu

import (
	"strconv"
	"strings"

	"dining-ranker/internal/core/dining"
)

// DefaultMinCalories 預設熱量下限
const DefaultMinCalories = 100

// DefaultExcludedKeywords 預設排除的供餐站關鍵字
func DefaultExcludedKeywords() []string {
	return []string{"bakery", "bliss", "dessert", "beverages"}
}

// FilterConfig 過濾條件
type FilterConfig struct {
	ExcludedKeywords    []string
	MinCalories         int
	EnforceCalorieFloor bool
	BlockedAllergens    []string
	Diet                dining.Diet
}

// FilterOption 過濾條件選項
type FilterOption func(*FilterConfig)

// WithExcludedKeywords 覆寫排除關鍵字
func WithExcludedKeywords(keywords []string) FilterOption {
	return func(c *FilterConfig) {
		c.ExcludedKeywords = keywords
	}
}

// WithCalorieFloor 啟用熱量下限
func WithCalorieFloor(min int) FilterOption {
	return func(c *FilterConfig) {
		c.MinCalories = min
		c.EnforceCalorieFloor = true
	}
}

// WithoutCalorieFloor 停用熱量下限
func WithoutCalorieFloor() FilterOption {
	return func(c *FilterConfig) {
		c.EnforceCalorieFloor = false
	}
}

// ForProfile 依使用者偏好建立過濾條件；profile 為 nil 時不套用過敏原與飲食規則
func ForProfile(profile *dining.UserProfile, opts ...FilterOption) FilterConfig {
	cfg := FilterConfig{
		ExcludedKeywords:    DefaultExcludedKeywords(),
		MinCalories:         DefaultMinCalories,
		EnforceCalorieFloor: true,
		Diet:                dining.DietOmnivore,
	}
	if profile != nil {
		p := profile.Normalize()
		cfg.BlockedAllergens = p.Allergies
		cfg.Diet = p.Diet
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Apply 依序套用類別、熱量、過敏原、飲食規則，保留原始順序
func Apply(items []Item, cfg FilterConfig) []Item {
	keywords := lowerAll(cfg.ExcludedKeywords)
	blocked := lowerAll(cfg.BlockedAllergens)

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if excludedByCategory(it, keywords) {
			continue
		}
		if cfg.EnforceCalorieFloor && ParseCalories(it.Calories.String()) < cfg.MinCalories {
			continue
		}
		if blockedByAllergen(it, blocked) {
			continue
		}
		if !matchesDiet(it, cfg.Diet) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// ParseCalories 去除非數字與負號後轉為整數，無法解析時回傳 0
func ParseCalories(s string) int {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

func excludedByCategory(it Item, keywords []string) bool {
	station := strings.ToLower(it.Station)
	name := strings.ToLower(it.Name)
	for _, kw := range keywords {
		if strings.Contains(station, kw) || strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

func blockedByAllergen(it Item, blocked []string) bool {
	if len(blocked) == 0 {
		return false
	}
	allergens := strings.ToLower(it.Allergens)
	for _, token := range blocked {
		if strings.Contains(allergens, token) {
			return true
		}
	}
	return false
}

func matchesDiet(it Item, diet dining.Diet) bool {
	switch diet {
	case dining.DietVegetarian:
		return it.HasTag(TagVegetarian) || it.HasTag(TagVegan)
	case dining.DietVegan:
		return it.HasTag(TagVegan)
	default:
		return true
	}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
