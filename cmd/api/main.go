package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dining-ranker/internal/api"
	"dining-ranker/internal/api/handlers/dining"
	aicache "dining-ranker/internal/core/ai/cache"
	"dining-ranker/internal/core/ai/service"
	diningCore "dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/core/menu/cache"
	"dining-ranker/internal/core/menu/provider"
	"dining-ranker/internal/core/profile"
	"dining-ranker/internal/core/ranking"
	"dining-ranker/internal/core/score"
	"dining-ranker/internal/core/speech"
	"dining-ranker/internal/infrastructure/config"
	"dining-ranker/internal/infrastructure/scheduler"
	"dining-ranker/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(common.LogOptions{
		Level: cfg.Log.Level,
		Mode:  cfg.Log.Mode,
		Dir:   cfg.Log.Dir,
	}); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.Any("keys", cfg.MaskedKeys()),
		zap.String("menu_url", cfg.Menu.URLTemplate),
		zap.String("timezone", cfg.Menu.Timezone),
		zap.String("default_strategy", cfg.Ranking.DefaultStrategy),
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 餐廳目錄
	catalog, err := diningCore.LoadCatalog(cfg.Catalog.File)
	if err != nil {
		common.LogFatal("Failed to load dining hall catalog", zap.String("file", cfg.Catalog.File), zap.Error(err))
	}

	// 菜單快取
	menuCache, err := buildMenuCache(ctx, cfg)
	if err != nil {
		common.LogFatal("Failed to initialize menu cache", zap.Error(err))
	}
	defer menuCache.Close()

	// 排名方式
	strategies := []ranking.Strategy{ranking.NewLocalStrategy(score.NewEngine(cfg.Score.Ceiling))}
	var aiCache *aicache.CacheManager
	if cfg.Ranking.AI.Enabled {
		aiCache = aicache.NewManager(&cfg.Ranking.AI)
		svc, err := service.NewFromConfig(&cfg.Ranking.AI, aiCache)
		if err != nil {
			common.LogFatal("Failed to initialize ranking service", zap.Error(err))
		}
		strategies = append(strategies, ranking.NewAIStrategy(svc))
	}
	defer aiCache.Close()

	menuClient := provider.NewClient(&cfg.Menu)
	coordinator := ranking.NewCoordinator(catalog, menuClient, menuCache, ranking.Options{
		Strategies:      strategies,
		DefaultStrategy: cfg.Ranking.DefaultStrategy,
		AllowPartial:    cfg.Ranking.AllowPartial,
		TopPicks:        cfg.Filter.TopPicks,
		FilterOptions: []menu.FilterOption{
			menu.WithExcludedKeywords(cfg.Filter.ExcludedKeywords),
			menu.WithCalorieFloor(cfg.Filter.MinCalories),
		},
		FetchTimeout:   cfg.Menu.Timeout,
		MaxConcurrency: cfg.Menu.MaxConcurrency,
	})

	// 偏好設定
	profiles, err := profile.NewSQLiteStore(cfg.Profile.DBPath, cfg.Profile.StorageKey)
	if err != nil {
		common.LogFatal("Failed to open profile store", zap.String("path", cfg.Profile.DBPath), zap.Error(err))
	}
	defer profiles.Close()

	// 語音
	var synth dining.Synthesizer
	if cfg.Speech.Enabled {
		synth = speech.NewClient(&cfg.Speech)
	}

	// 每日預先載入菜單
	sched, err := scheduler.New(cfg.Menu.Timezone)
	if err != nil {
		common.LogFatal("Failed to create scheduler", zap.Error(err))
	}
	if err := sched.Daily("menu-prefetch", cfg.Menu.PrefetchTime, func() {
		coordinator.Refresh(false)
	}); err != nil {
		common.LogFatal("Failed to schedule menu prefetch", zap.Error(err))
	}
	sched.Start()
	if next, ok := sched.Next("menu-prefetch"); ok {
		common.LogInfo("已排程每日菜單載入", zap.Time("next_run", next))
	}

	if cfg.Menu.PrefetchOnStart {
		coordinator.Refresh(false)
	}

	// 設置路由
	router, err := api.SetupRouter(ctx, api.Dependencies{
		Config:      cfg,
		Coordinator: coordinator,
		Profiles:    profiles,
		MenuCache:   menuCache,
		Speech:      synth,
		Breakers:    menuClient,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("halls", catalog.Len()),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	stop()
	sched.Stop()
	coordinator.Close()

	common.LogInfo("Server exited")
}

// buildMenuCache 依設定建立菜單快取；停用時所有查詢皆未命中
func buildMenuCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	loc, err := time.LoadLocation(cfg.Menu.Timezone)
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		common.LogInfo("菜單快取已停用")
		return cache.New(nil, loc), nil
	}

	var store cache.Store
	backend := cfg.Cache.Backend
	switch backend {
	case "redis":
		rs, err := cache.NewRedisStore(ctx, &cfg.Cache)
		if err != nil {
			// 快取僅供參考，Redis 無法連線時改用記憶體
			common.LogWarn("Redis 無法連線，改用記憶體快取", zap.Error(err))
			store = cache.NewMemoryStore()
			backend = "memory"
			break
		}
		store = rs
	default:
		store = cache.NewMemoryStore()
	}

	common.LogInfo("菜單快取已初始化", zap.String("backend", backend))
	return cache.New(store, loc), nil
}
