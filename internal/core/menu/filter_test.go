package menu

import (
	"testing"

	"dining-ranker/internal/core/dining"
)

func item(id, station, name, calories string, allergens string, tags ...string) Item {
	return Item{
		ID:        id,
		Station:   station,
		Name:      name,
		Calories:  TextCalories(calories),
		Tags:      tags,
		Allergens: allergens,
	}
}

func sampleItems() []Item {
	return []Item{
		item("1", "Grill", "Cheeseburger", "650", "Milk, Wheat"),
		item("2", "Bakery Bliss", "Cookie", "90", "Wheat", TagVegetarian),
		item("3", "Salad Bar", "Kale Salad", "180", "", TagVegan, TagPlantBased),
		item("4", "Entree", "Tofu Stir Fry", "320", "Soy", TagVegan),
		item("5", "Entree", "Mac and Cheese", "410", "Milk", TagVegetarian),
		item("6", "Beverages", "Smoothie", "220", "", TagVegan),
		item("7", "Soup", "Minestrone", "—", "", TagVegan),
		item("8", "Entree", "Dessert Waffle", "300", "", TagVegetarian),
	}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyRules(t *testing.T) {
	tests := []struct {
		name string
		cfg  FilterConfig
		want []string
	}{
		{
			name: "no profile",
			cfg:  ForProfile(nil),
			want: []string{"1", "3", "4", "5"},
		},
		{
			name: "calorie floor disabled",
			cfg:  ForProfile(nil, WithoutCalorieFloor()),
			want: []string{"1", "3", "4", "5", "7"},
		},
		{
			name: "vegetarian",
			cfg:  ForProfile(&dining.UserProfile{Diet: dining.DietVegetarian}),
			want: []string{"3", "4", "5"},
		},
		{
			name: "vegan",
			cfg:  ForProfile(&dining.UserProfile{Diet: dining.DietVegan}),
			want: []string{"3", "4"},
		},
		{
			name: "allergies case insensitive",
			cfg:  ForProfile(&dining.UserProfile{Allergies: []string{"milk", "SOY"}}),
			want: []string{"3"},
		},
		{
			name: "custom keywords",
			cfg:  ForProfile(nil, WithExcludedKeywords([]string{"grill"})),
			want: []string{"3", "4", "5", "6", "8"},
		},
		{
			name: "custom floor",
			cfg:  ForProfile(nil, WithCalorieFloor(400)),
			want: []string{"1", "5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sampleItems(), tt.cfg))
			if !equalIDs(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestBakeryBlissExcludedByBothRules(t *testing.T) {
	cookie := []Item{item("c", "Bakery Bliss", "Cookie", "90", "")}

	byCategory := FilterConfig{ExcludedKeywords: DefaultExcludedKeywords()}
	if got := Apply(cookie, byCategory); len(got) != 0 {
		t.Error("expected category rule to exclude Bakery Bliss")
	}

	byCalories := FilterConfig{MinCalories: DefaultMinCalories, EnforceCalorieFloor: true}
	if got := Apply(cookie, byCalories); len(got) != 0 {
		t.Error("expected calorie floor to exclude a 90 calorie item")
	}
}

func TestApplyEmptyResult(t *testing.T) {
	got := Apply(sampleItems(), ForProfile(nil, WithCalorieFloor(10000)))
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result, got %v", got)
	}
	if got := Apply(nil, ForProfile(nil)); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil result for nil input, got %v", got)
	}
}

func TestApplyIsSubsequence(t *testing.T) {
	input := sampleItems()
	configs := []FilterConfig{
		ForProfile(nil),
		ForProfile(nil, WithoutCalorieFloor()),
		ForProfile(&dining.UserProfile{Diet: dining.DietVegan, Allergies: []string{"wheat"}}),
		{},
	}

	for _, cfg := range configs {
		out := Apply(input, cfg)
		j := 0
		for _, it := range out {
			for j < len(input) && input[j].ID != it.ID {
				j++
			}
			if j == len(input) {
				t.Fatalf("output %v is not a subsequence of input", ids(out))
			}
			j++
		}
	}
}

func TestDietMonotonicity(t *testing.T) {
	input := sampleItems()
	all := Apply(input, FilterConfig{})
	vegetarian := Apply(input, FilterConfig{Diet: dining.DietVegetarian})
	vegan := Apply(input, FilterConfig{Diet: dining.DietVegan})

	if !(len(vegan) <= len(vegetarian) && len(vegetarian) <= len(all)) {
		t.Errorf("expected vegan (%d) <= vegetarian (%d) <= all (%d)", len(vegan), len(vegetarian), len(all))
	}
	if len(all) != len(input) {
		t.Errorf("expected zero config to keep everything, got %d of %d", len(all), len(input))
	}
}

func TestParseCalories(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"450", 450},
		{"1,200 kcal", 1200},
		{"—", 0},
		{"", 0},
		{"-50", -50},
		{"about 90", 90},
		{"n/a", 0},
		{"1-2", 0},
	}
	for _, tt := range tests {
		if got := ParseCalories(tt.in); got != tt.want {
			t.Errorf("ParseCalories(%q): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}
