package scheduler

import (
	"testing"
	"time"
)

func TestNewScheduler(t *testing.T) {
	s, err := New("America/New_York")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer s.Stop()

	if s.Location().String() != "America/New_York" {
		t.Errorf("location = %q, want 'America/New_York'", s.Location().String())
	}
}

func TestNewSchedulerInvalidTimezone(t *testing.T) {
	if _, err := New("Invalid/Zone"); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestDailyReplacesSameJob(t *testing.T) {
	s, _ := New("UTC")
	defer s.Stop()

	if err := s.Daily("prefetch", "05:30", func() {}); err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	if err := s.Daily("prefetch", "06:15", func() {}); err != nil {
		t.Fatalf("Daily failed: %v", err)
	}
	s.Start()

	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("expected 1 cron entry, got %d", n)
	}

	next, ok := s.Next("prefetch")
	if !ok {
		t.Fatal("expected next run for prefetch")
	}
	if next.Hour() != 6 || next.Minute() != 15 {
		t.Errorf("expected 06:15, got %s", next.Format("15:04"))
	}
	if !next.After(time.Now()) {
		t.Errorf("expected next run in the future, got %s", next)
	}
}

func TestDailyInvalidTime(t *testing.T) {
	s, _ := New("UTC")
	defer s.Stop()

	for _, tt := range []string{"invalid", "25:00", "12:60", "9:00", "12:0"} {
		if err := s.Daily("job", tt, func() {}); err == nil {
			t.Errorf("expected error for invalid time %q", tt)
		}
	}
	if _, ok := s.Next("job"); ok {
		t.Error("expected no entry after invalid schedules")
	}
}

func TestStopWithoutStart(t *testing.T) {
	s, _ := New("UTC")
	s.Stop()
	s.Start()
	s.Stop()
}

func TestDailySpec(t *testing.T) {
	if got := dailySpec(5, 30); got != "30 5 * * *" {
		t.Errorf("dailySpec = %q", got)
	}
}
