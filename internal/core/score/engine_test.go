package score

import (
	"testing"

	"dining-ranker/internal/core/dining"
)

func hall(id string, goals []dining.Goal, diets []dining.Diet) dining.DiningHall {
	return dining.DiningHall{ID: id, Name: id, GoalFocus: goals, DietOptions: diets}
}

func TestScoreScenarios(t *testing.T) {
	e := NewEngine(DefaultCeiling)

	tests := []struct {
		name    string
		hall    dining.DiningHall
		profile dining.UserProfile
		want    int
	}{
		{
			name: "gain vegan clamped to ceiling",
			hall: hall("a",
				[]dining.Goal{dining.GoalMaintain, dining.GoalGain},
				[]dining.Diet{dining.DietOmnivore, dining.DietVegetarian, dining.DietVegan}),
			profile: dining.UserProfile{Goal: dining.GoalGain, Diet: dining.DietVegan},
			want:    6,
		},
		{
			name: "lose omnivore without goal match",
			hall: hall("b",
				[]dining.Goal{dining.GoalMaintain, dining.GoalGain},
				[]dining.Diet{dining.DietOmnivore, dining.DietVegetarian}),
			profile: dining.UserProfile{Goal: dining.GoalLose, Diet: dining.DietOmnivore},
			want:    1,
		},
		{
			name: "vegetarian match",
			hall: hall("c",
				[]dining.Goal{dining.GoalLose},
				[]dining.Diet{dining.DietVegetarian}),
			profile: dining.UserProfile{Goal: dining.GoalLose, Diet: dining.DietVegetarian},
			want:    6,
		},
		{
			name: "vegan without vegan support",
			hall: hall("d",
				[]dining.Goal{dining.GoalMaintain},
				[]dining.Diet{dining.DietOmnivore, dining.DietVegetarian}),
			profile: dining.UserProfile{Goal: dining.GoalLose, Diet: dining.DietVegan},
			want:    0,
		},
		{
			name: "unset diet behaves like omnivore",
			hall: hall("e",
				[]dining.Goal{dining.GoalMaintain},
				[]dining.Diet{dining.DietVegan}),
			profile: dining.UserProfile{},
			want:    4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Score(tt.hall, tt.profile); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestScoreRangeAndDeterminism(t *testing.T) {
	e := NewEngine(0)
	halls := dining.DefaultCatalog().Halls()

	goals := []dining.Goal{dining.GoalLose, dining.GoalMaintain, dining.GoalGain}
	diets := []dining.Diet{dining.DietOmnivore, dining.DietVegetarian, dining.DietVegan}

	for _, h := range halls {
		for _, g := range goals {
			for _, d := range diets {
				p := dining.UserProfile{Goal: g, Diet: d, Allergies: []string{"peanut"}}
				first := e.Score(h, p)
				if first < 0 || first > DefaultCeiling {
					t.Errorf("score %d out of range for %s/%s/%s", first, h.ID, g, d)
				}
				p.Allergies = nil
				p.Name = "someone else"
				if again := e.Score(h, p); again != first {
					t.Errorf("expected deterministic score for %s/%s/%s, got %d and %d", h.ID, g, d, first, again)
				}
			}
		}
	}
}

func TestCustomCeiling(t *testing.T) {
	e := NewEngine(3)
	h := hall("a", []dining.Goal{dining.GoalGain}, []dining.Diet{dining.DietVegan})
	if got := e.Score(h, dining.UserProfile{Goal: dining.GoalGain, Diet: dining.DietVegan}); got != 3 {
		t.Errorf("expected clamp to 3, got %d", got)
	}
}

func TestPercentages(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   []int
	}{
		{"empty", nil, []int{}},
		{"all zero", []int{0, 0, 0}, []int{0, 0, 0}},
		{"even thirds", []int{1, 1, 1}, []int{34, 33, 33}},
		{"remainder to highest", []int{1, 2, 3}, []int{17, 33, 50}},
		{"tie goes to first", []int{2, 3, 3, 1}, []int{22, 34, 33, 11}},
		{"single", []int{4}, []int{100}},
		{"negative remainder", []int{1, 1, 1, 1, 1, 1, 1}, []int{16, 14, 14, 14, 14, 14, 14}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentages(tt.scores)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestPercentagesSumTo100(t *testing.T) {
	e := NewEngine(DefaultCeiling)
	halls := dining.DefaultCatalog().Halls()

	for _, g := range []dining.Goal{dining.GoalLose, dining.GoalMaintain, dining.GoalGain} {
		for _, d := range []dining.Diet{dining.DietOmnivore, dining.DietVegetarian, dining.DietVegan} {
			results := e.ScoreAll(halls, dining.UserProfile{Goal: g, Diet: d})
			sum := 0
			total := 0
			for _, r := range results {
				sum += r.Percent
				total += r.Score
			}
			if total > 0 && sum != 100 {
				t.Errorf("expected percentages to sum to 100 for %s/%s, got %d", g, d, sum)
			}
		}
	}
}

func TestTopHall(t *testing.T) {
	e := NewEngine(DefaultCeiling)
	halls := dining.DefaultCatalog().Halls()

	top, ok := e.TopHall(halls, dining.UserProfile{Goal: dining.GoalGain, Diet: dining.DietVegan})
	if !ok || top.ID != "commons" {
		t.Errorf("expected commons, got %q", top.ID)
	}

	// sage 與 blitman 同分，取原始順序第一個
	top, _ = e.TopHall(halls, dining.UserProfile{Goal: dining.GoalLose, Diet: dining.DietOmnivore})
	if top.ID != "sage" {
		t.Errorf("expected sage on tie, got %q", top.ID)
	}

	if _, ok := e.TopHall(nil, dining.UserProfile{}); ok {
		t.Error("expected no top hall for empty set")
	}
}
