package menu

import (
	"encoding/json"
	"reflect"
	"testing"
)

const sampleMenu = `{
  "meals": [
    {
      "name": "Lunch",
      "groups": [
        {
          "name": "Grill",
          "items": [
            {
              "menuItemId": "101",
              "formalName": "Black Bean Burger",
              "calories": "450",
              "isVegan": true,
              "isVegetarian": true,
              "isPlantBased": true,
              "allergens": [{"name": "Soy"}, {"name": ""}, {"name": "Wheat"}]
            },
            {
              "description": "Grilled Chicken",
              "calories": 320,
              "isMindful": true
            },
            {}
          ]
        },
        {
          "items": [
            {"menuItemId": "7", "formalName": "Oatmeal", "calories": 0, "isVegetarian": true}
          ]
        }
      ]
    },
    {
      "groups": [{"name": "Deli"}]
    }
  ]
}`

func TestNormalizeSample(t *testing.T) {
	items := NormalizeBytes([]byte(sampleMenu))
	if len(items) != 4 {
		t.Fatalf("expected 4 items, got %d", len(items))
	}

	burger := items[0]
	if burger.ID != "Lunch-Grill-101" {
		t.Errorf("unexpected id: %q", burger.ID)
	}
	if burger.Name != "Black Bean Burger" || burger.Meal != "Lunch" || burger.Station != "Grill" {
		t.Errorf("unexpected burger: %+v", burger)
	}
	if !reflect.DeepEqual(burger.Tags, []string{TagVegan, TagPlantBased}) {
		t.Errorf("expected vegan to suppress vegetarian, got %v", burger.Tags)
	}
	if burger.Allergens != "Soy, Wheat" {
		t.Errorf("unexpected allergens: %q", burger.Allergens)
	}
	if burger.Calories.String() != "450" || burger.Calories.IsNumeric() {
		t.Errorf("expected string calories to pass through, got %+v", burger.Calories)
	}

	chicken := items[1]
	if chicken.ID != "Lunch-Grill-1" {
		t.Errorf("expected positional id, got %q", chicken.ID)
	}
	if chicken.Name != "Grilled Chicken" {
		t.Errorf("expected description fallback, got %q", chicken.Name)
	}
	if chicken.Calories.String() != "320" || !chicken.Calories.IsNumeric() {
		t.Errorf("expected numeric calories to pass through, got %+v", chicken.Calories)
	}
	if !reflect.DeepEqual(chicken.Tags, []string{TagMindful}) {
		t.Errorf("unexpected tags: %v", chicken.Tags)
	}

	empty := items[2]
	if empty.Name != "Menu item" || empty.Calories.String() != CaloriesPlaceholder || empty.Allergens != "" {
		t.Errorf("unexpected defaults: %+v", empty)
	}
	if len(empty.Tags) != 0 {
		t.Errorf("expected no tags, got %v", empty.Tags)
	}

	oatmeal := items[3]
	if oatmeal.ID != "Lunch-Station-7" || oatmeal.Station != "Station" {
		t.Errorf("expected default station, got %+v", oatmeal)
	}
	if oatmeal.Calories.String() != CaloriesPlaceholder {
		t.Errorf("expected zero calories to show placeholder, got %q", oatmeal.Calories.String())
	}
	if !reflect.DeepEqual(oatmeal.Tags, []string{TagVegetarian}) {
		t.Errorf("unexpected tags: %v", oatmeal.Tags)
	}
}

func TestNormalizeArrayShape(t *testing.T) {
	data := `[{"name":"Dinner","groups":[{"name":"Pasta","items":[{"formalName":"Penne"}]}]}]`
	p, err := DecodePayload([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Shape != ShapeArray {
		t.Errorf("expected array shape, got %s", p.Shape)
	}
	items := Normalize(p)
	if len(items) != 1 || items[0].ID != "Dinner-Pasta-0" {
		t.Errorf("unexpected items: %+v", items)
	}
}

func TestNormalizeNeverFails(t *testing.T) {
	inputs := []string{
		``,
		`null`,
		`{}`,
		`[]`,
		`42`,
		`"menu"`,
		`{"meals": null}`,
		`{"meals": "soon"}`,
		`{"meals": [null, 1, "x", {"groups": 5}]}`,
		`[{"groups": [null, {"items": {"a": 1}}, {"items": [null, 3, {"allergens": "nuts"}]}]}]`,
		`{"meals":[{"name": 12, "groups":[{"name": true, "items":[{"formalName": {}, "calories": [], "isVegan": "yes"}]}]}]}`,
		`{"meals": [`,
	}

	for _, in := range inputs {
		items := NormalizeBytes([]byte(in))
		if items == nil {
			t.Errorf("expected non-nil sequence for %q", in)
		}
	}

	if items := Normalize(RawMenuPayload{}); items == nil || len(items) != 0 {
		t.Errorf("expected empty sequence for zero payload, got %v", items)
	}
	if p := FromValue(nil); p.Shape != ShapeEmpty {
		t.Errorf("expected empty shape for nil, got %s", p.Shape)
	}
}

func TestNormalizeMalformedFieldsDefault(t *testing.T) {
	data := `{"meals":[{"name": 12, "groups":[{"name": true, "items":[null, {"formalName": {}, "calories": [], "isVegan": "yes", "menuItemId": 55}]}]}]}`
	items := NormalizeBytes([]byte(data))
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Meal != "12" {
		t.Errorf("expected numeric meal name to be kept as text, got %q", items[0].Meal)
	}
	if items[0].Station != "Station" || items[0].Name != "Menu item" {
		t.Errorf("unexpected defaults: %+v", items[0])
	}
	if items[1].ID != "12-Station-55" {
		t.Errorf("unexpected id: %q", items[1].ID)
	}
	if !items[1].HasTag(TagVegan) {
		t.Errorf("expected truthy string flag to tag vegan, got %v", items[1].Tags)
	}
	if items[1].Calories.String() != CaloriesPlaceholder {
		t.Errorf("expected placeholder, got %q", items[1].Calories.String())
	}
}

func TestNormalizeUniqueIDs(t *testing.T) {
	data := `{"meals":[
		{"name":"Lunch","groups":[{"name":"Grill","items":[{"menuItemId":"1"},{"menuItemId":"1"}]}]},
		{"name":"Lunch","groups":[{"name":"Grill","items":[{"menuItemId":"1"}]}]}
	]}`
	items := NormalizeBytes([]byte(data))

	seen := make(map[string]bool)
	for _, it := range items {
		if seen[it.ID] {
			t.Errorf("duplicate id %q", it.ID)
		}
		seen[it.ID] = true
	}
	if items[1].ID != "Lunch-Grill-1#2" || items[2].ID != "Lunch-Grill-1#3" {
		t.Errorf("unexpected ids: %q %q", items[1].ID, items[2].ID)
	}
}

func TestNormalizeSuffixAvoidsProviderIDs(t *testing.T) {
	data := `{"meals":[{"name":"Lunch","groups":[{"name":"Grill","items":[
		{"menuItemId":"x"},{"menuItemId":"x"},{"menuItemId":"x#2"}
	]}]}]}`
	items := NormalizeBytes([]byte(data))
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	seen := make(map[string]bool)
	for _, it := range items {
		if seen[it.ID] {
			t.Errorf("duplicate id %q", it.ID)
		}
		seen[it.ID] = true
	}
	if items[0].ID != "Lunch-Grill-x" || items[1].ID != "Lunch-Grill-x#2" {
		t.Errorf("unexpected ids: %q %q", items[0].ID, items[1].ID)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	p, err := DecodePayload([]byte(sampleMenu))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := Normalize(p)
	second := Normalize(p)
	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical output for the same payload")
	}
}

func sanitizeRaw(t *testing.T, data []byte) ([]byte, error) {
	t.Helper()
	p, err := DecodePayload(data)
	if err != nil {
		return nil, err
	}
	return Sanitize(p)
}

func TestSanitizeKeepsNormalizedView(t *testing.T) {
	raw := []byte(sampleMenu)
	sanitized, err := sanitizeRaw(t, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range sanitized {
		if b == '\n' || b == '\t' {
			t.Fatalf("expected compact output, got %s", sanitized)
		}
	}

	if !reflect.DeepEqual(NormalizeBytes(raw), NormalizeBytes(sanitized)) {
		t.Error("expected sanitized payload to normalize the same as the original")
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(sanitized, &decoded); err != nil {
		t.Fatalf("sanitized output is not an object: %v", err)
	}
	if _, ok := decoded["meals"]; !ok {
		t.Error("expected meals key in sanitized output")
	}
}

func TestSanitizeArrayBecomesObject(t *testing.T) {
	out, err := sanitizeRaw(t, []byte(`[ ]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"meals":[]}` {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestDecodePayloadInvalidJSON(t *testing.T) {
	if _, err := DecodePayload([]byte(`{"meals": [`)); err == nil {
		t.Error("expected syntax error")
	}
}

func TestCaloriesJSON(t *testing.T) {
	var item Item
	if err := json.Unmarshal([]byte(`{"calories": 250}`), &item); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !item.Calories.IsNumeric() || item.Calories.String() != "250" {
		t.Errorf("unexpected calories: %+v", item.Calories)
	}

	out, _ := json.Marshal(TextCalories("250 kcal"))
	if string(out) != `"250 kcal"` {
		t.Errorf("unexpected text marshal: %s", out)
	}
	out, _ = json.Marshal(NumericCalories("250"))
	if string(out) != `250` {
		t.Errorf("unexpected numeric marshal: %s", out)
	}
}
