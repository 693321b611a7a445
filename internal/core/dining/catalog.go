package dining

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog 餐廳清單，載入後不可變
type Catalog struct {
	halls []DiningHall
	index map[string]int
}

// NewCatalog 驗證並建立餐廳清單
func NewCatalog(halls []DiningHall) (*Catalog, error) {
	if len(halls) == 0 {
		return nil, fmt.Errorf("catalog has no halls")
	}

	c := &Catalog{
		halls: make([]DiningHall, len(halls)),
		index: make(map[string]int, len(halls)),
	}
	for i, hall := range halls {
		if hall.ID == "" {
			return nil, fmt.Errorf("hall %d: id is required", i)
		}
		if _, dup := c.index[hall.ID]; dup {
			return nil, fmt.Errorf("hall %q: duplicate id", hall.ID)
		}
		if len(hall.GoalFocus) == 0 {
			return nil, fmt.Errorf("hall %q: goalFocus must not be empty", hall.ID)
		}
		for _, g := range hall.GoalFocus {
			if !g.Valid() {
				return nil, fmt.Errorf("hall %q: unknown goal %q", hall.ID, g)
			}
		}
		if len(hall.DietOptions) == 0 {
			return nil, fmt.Errorf("hall %q: dietOptions must not be empty", hall.ID)
		}
		for _, d := range hall.DietOptions {
			if !d.Valid() {
				return nil, fmt.Errorf("hall %q: unknown diet %q", hall.ID, d)
			}
		}
		if hall.Name == "" {
			hall.Name = hall.ID
		}
		c.halls[i] = hall
		c.index[hall.ID] = i
	}
	return c, nil
}

// LoadCatalog 從 YAML 檔案載入餐廳清單，path 為空時使用內建清單
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog 解析 YAML 格式的餐廳清單
func ParseCatalog(data []byte) (*Catalog, error) {
	var file struct {
		Halls []DiningHall `yaml:"halls"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(file.Halls)
}

// Halls 回傳依原始順序排列的餐廳副本
func (c *Catalog) Halls() []DiningHall {
	out := make([]DiningHall, len(c.halls))
	copy(out, c.halls)
	return out
}

// IDs 回傳依原始順序排列的餐廳 ID
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.halls))
	for i, hall := range c.halls {
		ids[i] = hall.ID
	}
	return ids
}

// Get 依 ID 取得餐廳
func (c *Catalog) Get(id string) (DiningHall, bool) {
	i, ok := c.index[id]
	if !ok {
		return DiningHall{}, false
	}
	return c.halls[i], true
}

// Len 餐廳數量
func (c *Catalog) Len() int {
	return len(c.halls)
}

// DefaultCatalog 內建的四間校園餐廳
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultHalls)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

var defaultHalls = []DiningHall{
	{
		ID:          "commons",
		Name:        "The Commons Dining Hall",
		Area:        "Freshman Hill · 1999 Burdett Ave",
		Description: "All-you-care-to-eat buffet anchored by the Simple Zone allergen-free area. Open for the full day so first-years can refuel after labs or late practice.",
		GoalFocus:   []Goal{GoalMaintain, GoalGain},
		DietOptions: []Diet{DietOmnivore, DietVegetarian, DietVegan},
		Highlights: []string{
			"Simple Zone for nut/gluten-free plates",
			"Continuous service from breakfast to late dinner",
			"Comfort bowls plus rotating grills for first-year athletes",
		},
		Signature: "Primary hub for first-years",
	},
	{
		ID:          "sage",
		Name:        "Russell Sage Dining Hall",
		Area:        "Central Academic Campus",
		Description: "A classic buffet-style hall steps from lecture halls. Balanced plates and plenty of quick grab-and-go options keep central campus residents on schedule.",
		GoalFocus:   []Goal{GoalLose, GoalMaintain},
		DietOptions: []Diet{DietOmnivore, DietVegetarian},
		Highlights: []string{
			"Quick salad/soup combos between classes",
			"Comfort food counter & pasta theatre",
			"Ideal for students living near studio spaces",
		},
		Signature: "Central campus crowd favorite",
	},
	{
		ID:          "barh",
		Name:        "BARH Dining Hall",
		Area:        "100 Albright Ct · Burdett Ave Residence Hall",
		Description: "Buffet-style dining hall known for menus built with student athletes in mind: lean proteins, whole grains, and recovery-friendly snacks.",
		GoalFocus:   []Goal{GoalMaintain, GoalGain},
		DietOptions: []Diet{DietOmnivore, DietVegetarian},
		Highlights: []string{
			"Protein-forward carving station",
			"Weekend brunch tailored for early practices",
			"Whole-grain sides and grab-and-go yogurts",
		},
		Signature: "Athlete-ready buffet line",
	},
	{
		ID:          "blitman",
		Name:        "Blitman Dining Hall",
		Area:        "Howard N. Blitman Residence Commons",
		Description: "Residential hall for ~300 students with a dining room focused on weekday breakfast/dinner and weekend brunch. Cozy atmosphere with vegetarian-friendly stations.",
		GoalFocus:   []Goal{GoalLose, GoalMaintain},
		DietOptions: []Diet{DietOmnivore, DietVegetarian, DietVegan},
		Highlights: []string{
			"Weekend brunch omelet bar",
			"Weekday breakfast before downtown studios",
			"Small-hall atmosphere with plant-forward bar",
		},
		Signature: "Neighborhood brunch + dinner spot",
	},
}
