package dining

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	if c.Len() != 4 {
		t.Fatalf("expected 4 halls, got %d", c.Len())
	}

	want := []string{"commons", "sage", "barh", "blitman"}
	for i, id := range c.IDs() {
		if id != want[i] {
			t.Errorf("expected hall %d to be %q, got %q", i, want[i], id)
		}
	}

	commons, ok := c.Get("commons")
	if !ok {
		t.Fatal("expected commons to exist")
	}
	if !commons.SupportsDiet(DietVegan) {
		t.Error("expected commons to support vegan")
	}
	if commons.GoalFocusLabel() != "Maintain · Gain Muscle" {
		t.Errorf("unexpected goal focus label: %q", commons.GoalFocusLabel())
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected missing hall lookup to fail")
	}
}

func TestHallsReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	halls := c.Halls()
	halls[0].Name = "changed"

	first, _ := c.Get("commons")
	if first.Name == "changed" {
		t.Error("expected catalog to be immutable")
	}
}

func TestNewCatalogValidation(t *testing.T) {
	valid := DiningHall{ID: "a", GoalFocus: []Goal{GoalLose}, DietOptions: []Diet{DietOmnivore}}

	tests := []struct {
		name  string
		halls []DiningHall
	}{
		{"empty", nil},
		{"missing id", []DiningHall{{GoalFocus: []Goal{GoalLose}, DietOptions: []Diet{DietVegan}}}},
		{"duplicate id", []DiningHall{valid, valid}},
		{"empty goal focus", []DiningHall{{ID: "b", DietOptions: []Diet{DietVegan}}}},
		{"empty diet options", []DiningHall{{ID: "b", GoalFocus: []Goal{GoalGain}}}},
		{"unknown goal", []DiningHall{{ID: "b", GoalFocus: []Goal{"bulk"}, DietOptions: []Diet{DietVegan}}}},
		{"unknown diet", []DiningHall{{ID: "b", GoalFocus: []Goal{GoalGain}, DietOptions: []Diet{"keto"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCatalog(tt.halls); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	c, err := NewCatalog([]DiningHall{valid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hall, _ := c.Get("a")
	if hall.Name != "a" {
		t.Errorf("expected name to default to id, got %q", hall.Name)
	}
}

func TestLoadCatalogFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "halls.yaml")
	content := `halls:
  - id: north
    name: North Hall
    goalFocus: [lose]
    dietOptions: [omnivore, vegan]
    highlights:
      - Salad bar
  - id: south
    name: South Hall
    goalFocus: [gain]
    dietOptions: [omnivore]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 halls, got %d", c.Len())
	}
	north, _ := c.Get("north")
	if !north.SupportsDiet(DietVegan) || len(north.Highlights) != 1 {
		t.Errorf("unexpected north hall: %+v", north)
	}
}

func TestLoadCatalogEmptyPathUsesDefault(t *testing.T) {
	c, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Len() != 4 {
		t.Errorf("expected default catalog, got %d halls", c.Len())
	}
}

func TestParseCatalogInvalidYAML(t *testing.T) {
	if _, err := ParseCatalog([]byte("halls: [")); err == nil {
		t.Error("expected parse error")
	}
}
