package menu

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"dining-ranker/internal/pkg/common"
)

// Shape 原始菜單 JSON 的頂層型態
type Shape int

const (
	// ShapeEmpty null、非陣列非物件，或無法辨識
	ShapeEmpty Shape = iota
	// ShapeArray 頂層為餐次陣列
	ShapeArray
	// ShapeObject 頂層為含 meals 欄位的物件
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "empty"
	}
}

// RawMenuPayload 供應商菜單的統一表示
type RawMenuPayload struct {
	Shape Shape
	Meals []RawMeal
}

// RawMeal 餐次
type RawMeal struct {
	Name   string     `json:"name,omitempty"`
	Groups []RawGroup `json:"groups,omitempty"`
}

// RawGroup 供餐站
type RawGroup struct {
	Name  string    `json:"name,omitempty"`
	Items []RawItem `json:"items,omitempty"`
}

// RawItem 菜色
type RawItem struct {
	MenuItemID   string        `json:"menuItemId,omitempty"`
	FormalName   string        `json:"formalName,omitempty"`
	Description  string        `json:"description,omitempty"`
	Calories     *Calories     `json:"calories,omitempty"`
	IsVegan      bool          `json:"isVegan,omitempty"`
	IsVegetarian bool          `json:"isVegetarian,omitempty"`
	IsPlantBased bool          `json:"isPlantBased,omitempty"`
	IsMindful    bool          `json:"isMindful,omitempty"`
	Allergens    []RawAllergen `json:"allergens,omitempty"`
}

// RawAllergen 過敏原
type RawAllergen struct {
	Name string `json:"name,omitempty"`
}

// Calories 熱量顯示值，保留供應商給的字串或數字型態
type Calories struct {
	value   string
	numeric bool
}

// CaloriesPlaceholder 缺少熱量時的顯示值
const CaloriesPlaceholder = "—"

// TextCalories 以字串形式建立熱量值
func TextCalories(s string) Calories {
	return Calories{value: s}
}

// NumericCalories 以數字形式建立熱量值
func NumericCalories(n json.Number) Calories {
	return Calories{value: n.String(), numeric: true}
}

func (c Calories) String() string {
	return c.value
}

// IsNumeric 原始值是否為數字
func (c Calories) IsNumeric() bool {
	return c.numeric
}

// empty 缺值判斷：空字串或數字 0
func (c Calories) empty() bool {
	if c.value == "" {
		return true
	}
	if c.numeric {
		f, err := strconv.ParseFloat(c.value, 64)
		return err == nil && f == 0
	}
	return false
}

// MarshalJSON 數字原樣輸出，其餘輸出字串
func (c Calories) MarshalJSON() ([]byte, error) {
	if c.numeric {
		return []byte(c.value), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON 接受字串、數字或 null
func (c *Calories) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Calories{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextCalories(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("calories must be string or number: %w", err)
		}
		*c = NumericCalories(n)
		return nil
	}
}

// DecodePayload 解析供應商回應，只有 JSON 語法錯誤會回傳錯誤
func DecodePayload(data []byte) (RawMenuPayload, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return RawMenuPayload{}, nil
	}

	var v interface{}
	if err := common.ParseJSONBytes(data, &v); err != nil {
		return RawMenuPayload{}, fmt.Errorf("invalid menu JSON: %w", err)
	}
	return FromValue(v), nil
}

// UnmarshalJSON 以寬鬆規則解析任一頂層型態
func (p *RawMenuPayload) UnmarshalJSON(data []byte) error {
	decoded, err := DecodePayload(data)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// MarshalJSON 一律輸出 {"meals":[...]} 形式
func (p RawMenuPayload) MarshalJSON() ([]byte, error) {
	meals := p.Meals
	if meals == nil {
		meals = []RawMeal{}
	}
	return json.Marshal(struct {
		Meals []RawMeal `json:"meals"`
	}{Meals: meals})
}

// Sanitize 轉為緊湊的標準化 JSON，只保留已知欄位
func Sanitize(p RawMenuPayload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return common.CompactJSON(data)
}

// FromValue 將任意已解碼的 JSON 值轉為 RawMenuPayload，未知型態一律視為空
func FromValue(v interface{}) RawMenuPayload {
	switch t := v.(type) {
	case []interface{}:
		return RawMenuPayload{Shape: ShapeArray, Meals: toMeals(t)}
	case map[string]interface{}:
		meals, _ := t["meals"].([]interface{})
		return RawMenuPayload{Shape: ShapeObject, Meals: toMeals(meals)}
	default:
		return RawMenuPayload{Shape: ShapeEmpty}
	}
}

func toMeals(values []interface{}) []RawMeal {
	meals := make([]RawMeal, 0, len(values))
	for _, v := range values {
		m, _ := v.(map[string]interface{})
		groups, _ := m["groups"].([]interface{})
		meals = append(meals, RawMeal{
			Name:   stringField(m, "name"),
			Groups: toGroups(groups),
		})
	}
	return meals
}

func toGroups(values []interface{}) []RawGroup {
	groups := make([]RawGroup, 0, len(values))
	for _, v := range values {
		g, _ := v.(map[string]interface{})
		items, _ := g["items"].([]interface{})
		groups = append(groups, RawGroup{
			Name:  stringField(g, "name"),
			Items: toItems(items),
		})
	}
	return groups
}

func toItems(values []interface{}) []RawItem {
	items := make([]RawItem, 0, len(values))
	for _, v := range values {
		it, _ := v.(map[string]interface{})
		items = append(items, RawItem{
			MenuItemID:   stringField(it, "menuItemId"),
			FormalName:   stringField(it, "formalName"),
			Description:  stringField(it, "description"),
			Calories:     caloriesField(it["calories"]),
			IsVegan:      truthy(it["isVegan"]),
			IsVegetarian: truthy(it["isVegetarian"]),
			IsPlantBased: truthy(it["isPlantBased"]),
			IsMindful:    truthy(it["isMindful"]),
			Allergens:    toAllergens(it["allergens"]),
		})
	}
	return items
}

func toAllergens(v interface{}) []RawAllergen {
	values, _ := v.([]interface{})
	if len(values) == 0 {
		return nil
	}
	allergens := make([]RawAllergen, 0, len(values))
	for _, a := range values {
		m, _ := a.(map[string]interface{})
		allergens = append(allergens, RawAllergen{Name: stringField(m, "name")})
	}
	return allergens
}

// stringField 讀取字串欄位；數字轉為文字，其他型態視為缺值
func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func caloriesField(v interface{}) *Calories {
	var c Calories
	switch t := v.(type) {
	case string:
		c = TextCalories(t)
	case json.Number:
		c = NumericCalories(t)
	case float64:
		c = NumericCalories(json.Number(strconv.FormatFloat(t, 'f', -1, 64)))
	case int:
		c = NumericCalories(json.Number(strconv.Itoa(t)))
	default:
		return nil
	}
	return &c
}

// truthy 布林旗標寬鬆判斷
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
			return b
		}
		return strings.TrimSpace(t) != ""
	case json.Number:
		f, err := t.Float64()
		return err == nil && f != 0
	case float64:
		return t != 0
	default:
		return false
	}
}
