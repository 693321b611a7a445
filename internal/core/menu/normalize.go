package menu

import (
	"strconv"
	"strings"
)

const (
	defaultMealName    = "Meal"
	defaultStationName = "Station"
	defaultItemName    = "Menu item"
)

// 飲食標籤
const (
	TagVegan      = "Vegan"
	TagVegetarian = "Vegetarian"
	TagPlantBased = "Plant-based"
	TagMindful    = "Mindful"
)

// Item 攤平後的菜色
type Item struct {
	ID        string   `json:"id"`
	Meal      string   `json:"meal"`
	Station   string   `json:"station"`
	Name      string   `json:"name"`
	Calories  Calories `json:"calories"`
	Tags      []string `json:"tags"`
	Allergens string   `json:"allergens"`
}

// HasTag 是否帶有指定飲食標籤
func (it Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Normalize 將原始菜單攤平成菜色列表，不會失敗
func Normalize(p RawMenuPayload) []Item {
	items := make([]Item, 0)
	seen := make(map[string]int)

	for _, meal := range p.Meals {
		mealName := orDefault(meal.Name, defaultMealName)
		for _, group := range meal.Groups {
			station := orDefault(group.Name, defaultStationName)
			for idx, raw := range group.Items {
				key := raw.MenuItemID
				if key == "" {
					key = strconv.Itoa(idx)
				}
				base := mealName + "-" + station + "-" + key
				id := base
				// 加上的後綴也可能與提供者原本的 ID 相同
				for n := 1; seen[id] > 0; {
					n++
					id = base + "#" + strconv.Itoa(n)
				}
				seen[id]++

				items = append(items, Item{
					ID:        id,
					Meal:      mealName,
					Station:   station,
					Name:      displayName(raw),
					Calories:  displayCalories(raw.Calories),
					Tags:      dietTags(raw),
					Allergens: allergenString(raw.Allergens),
				})
			}
		}
	}
	return items
}

// NormalizeBytes 解析後攤平；無效 JSON 視為空菜單
func NormalizeBytes(data []byte) []Item {
	p, err := DecodePayload(data)
	if err != nil {
		return []Item{}
	}
	return Normalize(p)
}

func displayName(raw RawItem) string {
	if raw.FormalName != "" {
		return raw.FormalName
	}
	if raw.Description != "" {
		return raw.Description
	}
	return defaultItemName
}

func displayCalories(c *Calories) Calories {
	if c == nil || c.empty() {
		return TextCalories(CaloriesPlaceholder)
	}
	return *c
}

// dietTags 純素標籤優先於素食標籤
func dietTags(raw RawItem) []string {
	tags := make([]string, 0, 3)
	if raw.IsVegan {
		tags = append(tags, TagVegan)
	} else if raw.IsVegetarian {
		tags = append(tags, TagVegetarian)
	}
	if raw.IsPlantBased {
		tags = append(tags, TagPlantBased)
	}
	if raw.IsMindful {
		tags = append(tags, TagMindful)
	}
	return tags
}

func allergenString(allergens []RawAllergen) string {
	names := make([]string, 0, len(allergens))
	for _, a := range allergens {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
