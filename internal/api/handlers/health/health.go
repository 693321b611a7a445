package health

import (
	"net/http"
	"runtime"
	"time"

	"dining-ranker/internal/core/ranking"
	"dining-ranker/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Menus     *MenuStatus            `json:"menus,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	Breakers  map[string]string      `json:"breakers,omitempty"`
}

// MenuStatus 菜單載入狀態
type MenuStatus struct {
	Date    string          `json:"date"`
	Ready   bool            `json:"ready"`
	Summary ranking.Summary `json:"summary"`
}

// StatsProvider 提供統計資料的元件（快取）
type StatsProvider interface {
	Stats() map[string]interface{}
}

// BreakerReporter 回報斷路器狀態的元件（菜單供應商）
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// Checker 健康檢查處理器
type Checker struct {
	cfg         *config.Config
	coordinator *ranking.Coordinator
	cache       StatsProvider
	breakers    BreakerReporter
	started     time.Time
}

// NewChecker 創建健康檢查處理器；cache 與 breakers 可為 nil
func NewChecker(cfg *config.Config, coordinator *ranking.Coordinator, cache StatsProvider, breakers BreakerReporter) *Checker {
	return &Checker{
		cfg:         cfg,
		coordinator: coordinator,
		cache:       cache,
		breakers:    breakers,
		started:     time.Now(),
	}
}

// Register 註冊健康檢查路由
func (h *Checker) Register(r gin.IRoutes) {
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)
}

// HealthCheck 健康檢查處理器
func (h *Checker) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	resp := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.cfg.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"uptime":     time.Since(h.started).Round(time.Second).String(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if h.coordinator != nil {
		st := h.coordinator.Status()
		resp.Menus = &MenuStatus{Date: st.Date, Ready: st.Ready, Summary: st.Summary}
		if len(st.Summary.Errored) > 0 {
			resp.Status = "degraded"
		}
	}
	if h.cache != nil {
		resp.Cache = h.cache.Stats()
	}
	if h.breakers != nil {
		resp.Breakers = h.breakers.BreakerStates()
	}

	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck 就緒檢查：菜單可供個人化時才回傳 200
func (h *Checker) ReadinessCheck(c *gin.Context) {
	if h.coordinator == nil || !h.coordinator.Ready() {
		var summary interface{}
		if h.coordinator != nil {
			summary = h.coordinator.Status().Summary
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"menus":  summary,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Checker) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
