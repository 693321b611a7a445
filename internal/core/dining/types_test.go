package dining

import "testing"

func TestProfileNormalize(t *testing.T) {
	p := UserProfile{
		Name:      "  ",
		Goal:      "bulk",
		Diet:      "",
		Allergies: []string{"Peanuts", " ", "peanuts", "Soy"},
	}.Normalize()

	if p.Name != DefaultProfileName {
		t.Errorf("expected default name, got %q", p.Name)
	}
	if p.Goal != GoalMaintain {
		t.Errorf("expected maintain, got %q", p.Goal)
	}
	if p.Diet != DietOmnivore {
		t.Errorf("expected omnivore, got %q", p.Diet)
	}
	if len(p.Allergies) != 2 || p.Allergies[0] != "Peanuts" || p.Allergies[1] != "Soy" {
		t.Errorf("unexpected allergies: %v", p.Allergies)
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{GoalLose.Label(), "Lose Weight"},
		{GoalMaintain.Label(), "Maintain"},
		{GoalGain.Label(), "Gain Muscle"},
		{Goal("x").Label(), "Maintain"},
		{DietOmnivore.Label(), "No Preference"},
		{DietVegetarian.Label(), "Vegetarian"},
		{DietVegan.Label(), "Vegan"},
		{Diet("").Label(), "No Preference"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected %q, got %q", tt.want, tt.got)
		}
	}
}

func TestParseGoalAndDiet(t *testing.T) {
	if g, ok := ParseGoal(" GAIN "); !ok || g != GoalGain {
		t.Errorf("expected gain, got %q (%v)", g, ok)
	}
	if g, ok := ParseGoal(""); !ok || g != GoalMaintain {
		t.Errorf("expected default maintain, got %q (%v)", g, ok)
	}
	if _, ok := ParseGoal("cut"); ok {
		t.Error("expected cut to be rejected")
	}
	if d, ok := ParseDiet("Vegan"); !ok || d != DietVegan {
		t.Errorf("expected vegan, got %q (%v)", d, ok)
	}
	if _, ok := ParseDiet("keto"); ok {
		t.Error("expected keto to be rejected")
	}
}

func TestFirstName(t *testing.T) {
	if got := (UserProfile{Name: "Ada Lovelace"}).FirstName(); got != "Ada" {
		t.Errorf("expected Ada, got %q", got)
	}
	if got := (UserProfile{}).FirstName(); got != DefaultProfileName {
		t.Errorf("expected default, got %q", got)
	}
}
