package api

import (
	"context"
	"fmt"
	"time"

	"dining-ranker/internal/api/handlers/dining"
	"dining-ranker/internal/api/handlers/health"
	"dining-ranker/internal/api/middleware"
	"dining-ranker/internal/core/menu/cache"
	"dining-ranker/internal/core/profile"
	"dining-ranker/internal/core/ranking"
	"dining-ranker/internal/infrastructure/config"
	"dining-ranker/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// 預設請求超時
	defaultTimeout = 30 * time.Second
	// 預設請求體大小限制 (1MB)
	defaultMaxBodySize = 1 << 20
	// 限流與去重記錄的清理間隔
	cleanupInterval = 10 * time.Minute
)

// Dependencies 路由所需的服務
type Dependencies struct {
	Config      *config.Config
	Coordinator *ranking.Coordinator
	Profiles    profile.Store
	MenuCache   *cache.Cache
	Speech      dining.Synthesizer
	Breakers    health.BreakerReporter
}

// SetupRouter 設置路由；ctx 結束時停止背景清理
func SetupRouter(ctx context.Context, deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil || deps.Coordinator == nil {
		return nil, fmt.Errorf("router requires config and coordinator")
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodySize
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.BodySizeLimit(maxBody))
	router.Use(middleware.Timeout(timeout))

	var cleaners []func()
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		router.Use(middleware.RateLimit(limiter, cfg.RateLimit.Window))
		cleaners = append(cleaners, func() { limiter.Cleanup() })
	}
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	cleaners = append(cleaners, dedup.Cleanup)

	go runCleanup(ctx, cleanupInterval, cleaners...)

	// 健康檢查路由
	var stats health.StatsProvider
	if deps.MenuCache != nil {
		stats = deps.MenuCache
	}
	health.NewChecker(cfg, deps.Coordinator, stats, deps.Breakers).Register(router)

	// API 路由組
	api := router.Group("/api/v1")
	api.Use(middleware.Deduplication(dedup))
	{
		handler := dining.NewHandler(deps.Coordinator, deps.Profiles, deps.MenuCache, deps.Speech, dining.Options{
			MaxMenuRows: cfg.Filter.MaxMenuRows,
			Debug:       cfg.App.Debug,
		})
		handler.Register(api)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Bool("speech_enabled", deps.Speech != nil),
		zap.Bool("profile_store", deps.Profiles != nil),
		zap.Strings("strategies", deps.Coordinator.Strategies()),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", maxBody),
	)

	return router, nil
}

func runCleanup(ctx context.Context, interval time.Duration, fns ...func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, fn := range fns {
				fn()
			}
		case <-ctx.Done():
			return
		}
	}
}
