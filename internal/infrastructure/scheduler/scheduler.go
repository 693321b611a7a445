package scheduler

import (
	"fmt"
	"sync"
	"time"

	"dining-ranker/internal/infrastructure/config"
	"dining-ranker/internal/pkg/common"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler 每日定時工作，依設定時區執行
type Scheduler struct {
	cron     *cron.Cron
	location *time.Location
	mu       sync.Mutex
	entries  map[string]cron.EntryID
	started  bool
}

// New 創建排程器
func New(timezone string) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
		entries:  make(map[string]cron.EntryID),
	}, nil
}

// Location 排程使用的時區
func (s *Scheduler) Location() *time.Location {
	return s.location
}

// Daily 每天在 HH:MM 執行指定工作；同名工作會被取代
func (s *Scheduler) Daily(name, clock string, fn func()) error {
	hour, minute, err := config.ParseClock(clock)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
	}

	id, err := s.cron.AddFunc(dailySpec(hour, minute), func() {
		common.LogInfo("執行排程工作", zap.String("job", name))
		fn()
	})
	if err != nil {
		return fmt.Errorf("add cron job %q: %w", name, err)
	}
	s.entries[name] = id
	return nil
}

// Next 指定工作的下一次執行時間
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	entry := s.cron.Entry(id)
	if !entry.Valid() {
		return time.Time{}, false
	}
	// 未啟動前 Next 為零值，改由排程規則計算
	if entry.Next.IsZero() {
		return entry.Schedule.Next(time.Now().In(s.location)), true
	}
	return entry.Next, true
}

// Start 啟動排程
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.cron.Start()
		s.started = true
	}
}

// Stop 停止排程並等待執行中的工作結束
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	ctx := s.cron.Stop()
	s.mu.Unlock()

	<-ctx.Done()
}

func dailySpec(hour, minute int) string {
	// minute hour day month weekday
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
