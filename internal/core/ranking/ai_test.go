package ranking

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	aicache "dining-ranker/internal/core/ai/cache"
	"dining-ranker/internal/core/ai/service"
	"dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/infrastructure/config"
)

type stubCompleter struct {
	text   string
	err    error
	prompt string
}

func (s *stubCompleter) Name() string { return "stub" }

func (s *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.text, s.err
}

func TestAIStrategyParsesAndOrders(t *testing.T) {
	stub := &stubCompleter{text: `Here is my take.
The Commons Dining Hall: 45%
Top3: Item A, Item B, Item C
Russell Sage Dining Hall: 55%
Top3: Item D, Item E, Item F`}
	s := NewAIStrategy(stub)

	res, err := s.Rank(context.Background(), Request{
		Profile: dining.UserProfile{Goal: dining.GoalLose, Diet: dining.DietVegetarian, Allergies: []string{"peanut"}},
		Halls:   hallMenus(map[string][]menu.Item{"commons": namedItems("Tofu Bowl")}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Halls[0].HallID != "sage" || *res.Halls[0].MatchPercent != 55 {
		t.Errorf("expected sage first with 55%%, got %+v", res.Halls[0])
	}
	if res.Halls[1].HallID != "commons" || *res.Halls[1].MatchPercent != 45 {
		t.Errorf("expected commons second with 45%%, got %+v", res.Halls[1])
	}
	if res.StandoutHallID != "sage" {
		t.Errorf("expected sage standout, got %s", res.StandoutHallID)
	}
	if res.FormatVersion != ResponseFormatVersion {
		t.Errorf("expected format version %s, got %s", ResponseFormatVersion, res.FormatVersion)
	}

	// 回應中沒有的餐廳保持未計算
	for _, id := range []string{"barh", "blitman"} {
		h, ok := res.Find(id)
		if !ok || h.Calculated() {
			t.Errorf("expected %s to be not yet calculated, got %+v", id, h)
		}
	}
	if res.Halls[2].HallID != "barh" || res.Halls[3].HallID != "blitman" {
		t.Errorf("expected uncalculated halls in catalog order, got %s, %s", res.Halls[2].HallID, res.Halls[3].HallID)
	}

	for _, want := range []string{"Goal: Lose Weight", "Diet: Vegetarian", "Allergies: peanut", `"hall":"The Commons Dining Hall"`, "Tofu Bowl", "Top3:"} {
		if !strings.Contains(stub.prompt, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
}

func TestAIStrategyResolvesShortLabels(t *testing.T) {
	stub := &stubCompleter{text: "Commons: 45%\nTop3: Item A, Item B, Item C\nSage: 55%\nTop3: Item D, Item E, Item F"}
	res, err := NewAIStrategy(stub).Rank(context.Background(), Request{Halls: hallMenus(nil)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	commons, _ := res.Find("commons")
	if commons.MatchPercent == nil || *commons.MatchPercent != 45 || len(commons.TopPicks) != 3 {
		t.Errorf("unexpected commons ranking: %+v", commons)
	}
	sage, _ := res.Find("sage")
	if sage.MatchPercent == nil || *sage.MatchPercent != 55 {
		t.Errorf("unexpected sage ranking: %+v", sage)
	}
}

func TestAIStrategyFailures(t *testing.T) {
	tests := []struct {
		name string
		stub *stubCompleter
		want error
	}{
		{name: "service error", stub: &stubCompleter{err: errors.New("upstream down")}},
		{name: "prose only", stub: &stubCompleter{text: "I cannot rank these."}, want: ErrUnparseableResponse},
		{name: "unknown halls", stub: &stubCompleter{text: "Mystery Hall: 100%"}, want: ErrUnparseableResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewAIStrategy(tt.stub).Rank(context.Background(), Request{Halls: hallMenus(nil)})
			if err == nil {
				t.Fatalf("expected error, got result %+v", res)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

type seqCompleter struct {
	texts []string
	calls int
}

func (s *seqCompleter) Name() string { return "seq" }

func (s *seqCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	text := s.texts[min(s.calls, len(s.texts)-1)]
	s.calls++
	return text, nil
}

func TestAIStrategyRetriesAfterUnparseableReply(t *testing.T) {
	m := aicache.NewManager(&config.AIConfig{CacheEnabled: true, CacheTTL: 30 * time.Minute, CacheMaxSize: 10})
	defer m.Close()

	seq := &seqCompleter{texts: []string{
		"Sorry, I cannot help with that.",
		"Commons: 100%\nTop3: Item A, Item B, Item C",
	}}
	s := NewAIStrategy(service.NewService(seq, m, 0))
	req := Request{Halls: hallMenus(nil)}

	if _, err := s.Rank(context.Background(), req); !errors.Is(err, ErrUnparseableResponse) {
		t.Fatalf("expected ErrUnparseableResponse, got %v", err)
	}
	res, err := s.Rank(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if seq.calls != 2 || res.StandoutHallID != "commons" {
		t.Errorf("expected fresh reply on retry, got %d calls standout %q", seq.calls, res.StandoutHallID)
	}
}

func TestAIStrategyIgnoresProsePercentages(t *testing.T) {
	stub := &stubCompleter{text: `Commons: 45%
Why: 90% of dishes fit your diet
Top3: Item A, Item B, Item C
Sage: 55%
Top3: Item D, Item E, Item F`}

	res, err := NewAIStrategy(stub).Rank(context.Background(), Request{Halls: hallMenus(nil)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	commons, _ := res.Find("commons")
	if !reflect.DeepEqual(commons.TopPicks, []string{"Item A", "Item B", "Item C"}) {
		t.Errorf("expected commons to keep its picks, got %+v", commons)
	}
}

func TestBuildPromptCapsItems(t *testing.T) {
	names := make([]string, maxPromptItems+5)
	for i := range names {
		names[i] = "Dish" + strings.Repeat("x", i%3) + string(rune('A'+i%26))
	}
	prompt, err := BuildPrompt(Request{Halls: hallMenus(map[string][]menu.Item{"sage": namedItems(names...)})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.Count(prompt, `"station"`); got != maxPromptItems {
		t.Errorf("expected %d items in prompt, got %d", maxPromptItems, got)
	}
	if !strings.Contains(prompt, "Allergies: none") || !strings.Contains(prompt, "Omnivore") {
		t.Errorf("expected default profile in prompt, got %s", prompt)
	}
}
