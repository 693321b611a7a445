package ranking

import (
	"errors"
	"testing"

	"dining-ranker/internal/core/menu"
)

func TestFeedBoardTransitions(t *testing.T) {
	b := NewFeedBoard([]string{"a", "b"})

	if s := b.Summarize(); len(s.Idle) != 2 || s.AllLoaded() {
		t.Fatalf("expected idle board, got %+v", s)
	}

	gen, pending := b.Begin("2026-03-02", false)
	if len(pending) != 2 {
		t.Fatalf("expected both halls pending, got %v", pending)
	}

	if !b.Complete("a", gen, menu.RawMenuPayload{}, SourceProvider) {
		t.Error("expected completion to apply")
	}
	if !b.Fail("b", gen, errors.New("Menu not available")) {
		t.Error("expected failure to apply")
	}

	// 已完成的狀態不可再轉換
	if b.Fail("a", gen, errors.New("late")) {
		t.Error("expected loaded state to be final")
	}
	if b.Complete("b", gen, menu.RawMenuPayload{}, SourceProvider) {
		t.Error("expected error state to be final")
	}

	st, _ := b.Get("b")
	if st.Status != StatusError || st.Error != "Menu not available" {
		t.Errorf("unexpected state: %+v", st)
	}

	s := b.Summarize()
	if s.AllLoaded() {
		t.Error("expected not all loaded")
	}
	if !s.Settled() {
		t.Error("expected settled with one loaded hall")
	}
}

func TestFeedBoardRetriesOnlyErrored(t *testing.T) {
	b := NewFeedBoard([]string{"a", "b", "c"})
	gen, _ := b.Begin("2026-03-02", false)
	b.Complete("a", gen, menu.RawMenuPayload{}, SourceProvider)
	b.Fail("b", gen, errors.New("boom"))

	_, pending := b.Begin("2026-03-02", false)
	if len(pending) != 1 || pending[0] != "b" {
		t.Errorf("expected only errored hall to be retried, got %v", pending)
	}

	st, _ := b.Get("c")
	if st.Generation != gen || st.Status != StatusLoading {
		t.Errorf("expected in-flight hall to keep its generation, got %+v", st)
	}
	if !b.Complete("c", gen, menu.RawMenuPayload{}, SourceProvider) {
		t.Error("expected in-flight completion from the earlier cycle to apply")
	}
}

func TestFeedBoardDiscardsStaleResults(t *testing.T) {
	b := NewFeedBoard([]string{"a"})
	oldGen, _ := b.Begin("2026-03-02", false)

	newGen, pending := b.Begin("2026-03-03", false)
	if len(pending) != 1 {
		t.Fatalf("expected rollover to reload, got %v", pending)
	}

	if b.Complete("a", oldGen, menu.RawMenuPayload{}, SourceProvider) {
		t.Error("expected stale completion to be discarded")
	}
	st, _ := b.Get("a")
	if st.Status != StatusLoading || st.Date != "2026-03-03" {
		t.Errorf("unexpected state after stale completion: %+v", st)
	}

	if !b.Complete("a", newGen, menu.RawMenuPayload{}, SourceCache) {
		t.Error("expected current completion to apply")
	}
	if !b.Summarize().AllLoaded() {
		t.Error("expected all loaded")
	}
}

func TestFeedBoardForceReload(t *testing.T) {
	b := NewFeedBoard([]string{"a"})
	gen, _ := b.Begin("2026-03-02", false)
	b.Complete("a", gen, menu.RawMenuPayload{}, SourceProvider)

	if _, pending := b.Begin("2026-03-02", false); len(pending) != 0 {
		t.Errorf("expected loaded hall to be skipped, got %v", pending)
	}
	if _, pending := b.Begin("2026-03-02", true); len(pending) != 1 {
		t.Errorf("expected force to reload, got %v", pending)
	}
}

func TestFeedBoardCaptureIsConsistent(t *testing.T) {
	b := NewFeedBoard([]string{"a", "b", "c"})
	gen, _ := b.Begin("2026-03-02", false)
	b.Complete("a", gen, menu.RawMenuPayload{}, SourceProvider)
	b.Fail("b", gen, errors.New("Menu not available"))

	summary, states := b.Capture()
	if len(summary.Loaded) != 1 || len(summary.Errored) != 1 || len(summary.Loading) != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, id := range summary.Loaded {
		if states[id].Status != StatusLoaded {
			t.Errorf("expected %s loaded in captured states, got %s", id, states[id].Status)
		}
	}
	if states["b"].Error != "Menu not available" {
		t.Errorf("unexpected error text %q", states["b"].Error)
	}

	// 之後的變更不影響已取得的狀態
	b.Begin("2026-03-02", true)
	if states["a"].Status != StatusLoaded {
		t.Error("expected captured state to be a copy")
	}
}
