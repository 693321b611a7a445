package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"dining-ranker/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Menu        MenuConfig      `mapstructure:"menu"`
	Filter      FilterConfig    `mapstructure:"filter"`
	Score       ScoreConfig     `mapstructure:"score"`
	Ranking     RankingConfig   `mapstructure:"ranking"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Profile     ProfileConfig   `mapstructure:"profile"`
	Speech      SpeechConfig    `mapstructure:"speech"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	Log         LogConfig       `mapstructure:"log"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	// RequestTimeout 單一 API 請求的處理上限
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// MenuConfig 菜單供應商設定
type MenuConfig struct {
	// URLTemplate 支援 {hall} 與 {date} 佔位符
	URLTemplate     string        `mapstructure:"url_template"`
	APIKey          string        `mapstructure:"api_key"`
	APIKeyHeader    string        `mapstructure:"api_key_header"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Timezone        string        `mapstructure:"timezone"`
	PrefetchTime    string        `mapstructure:"prefetch_time"`
	PrefetchOnStart bool          `mapstructure:"prefetch_on_start"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	Breaker         BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig 斷路器設定
type BreakerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

// FilterConfig 菜單過濾預設值
type FilterConfig struct {
	ExcludedKeywords []string `mapstructure:"excluded_keywords"`
	MinCalories      int      `mapstructure:"min_calories"`
	MaxMenuRows      int      `mapstructure:"max_menu_rows"`
	TopPicks         int      `mapstructure:"top_picks"`
}

// ScoreConfig 本地評分設定
type ScoreConfig struct {
	Ceiling int `mapstructure:"ceiling"`
}

// RankingConfig 排名設定
type RankingConfig struct {
	DefaultStrategy string   `mapstructure:"default_strategy"`
	AllowPartial    bool     `mapstructure:"allow_partial"`
	AI              AIConfig `mapstructure:"ai"`
}

// AIConfig 外部 AI 排名服務設定
type AIConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Provider string `mapstructure:"provider"` // gateway | openrouter
	Endpoint string `mapstructure:"endpoint"`
	APIKey   string `mapstructure:"api_key"`
	Model    string `mapstructure:"model"`
	// MaxTokens 僅 openrouter 使用
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RetryCount      int           `mapstructure:"retry_count"`
	CacheEnabled    bool          `mapstructure:"cache_enabled"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheMaxSize    int           `mapstructure:"cache_max_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// CacheConfig 菜單快取設定
type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Backend       string        `mapstructure:"backend"` // memory | redis
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

// ProfileConfig 偏好設定儲存
type ProfileConfig struct {
	DBPath     string `mapstructure:"db_path"`
	StorageKey string `mapstructure:"storage_key"`
}

// SpeechConfig 文字轉語音設定
type SpeechConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	VoiceID string        `mapstructure:"voice_id"`
	ModelID string        `mapstructure:"model_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CatalogConfig 餐廳清單設定
type CatalogConfig struct {
	File string `mapstructure:"file"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LogConfig 日誌設定
type LogConfig struct {
	Level string `mapstructure:"level"`
	Mode  string `mapstructure:"mode"`
	Dir   string `mapstructure:"dir"`
}

// LoadConfig 載入設定（工作目錄下的 .env 與 config.yaml）
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load 載入設定，configFile 為空時在工作目錄尋找 config.yaml
func Load(configFile string) (*Config, error) {
	// .env 不存在不視為錯誤
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定常用環境變量
	_ = v.BindEnv("menu.api_key", "MENU_API_KEY")
	_ = v.BindEnv("menu.url_template", "MENU_URL_TEMPLATE")
	_ = v.BindEnv("ranking.ai.api_key", "RANKING_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("ranking.ai.endpoint", "RANKING_ENDPOINT")
	_ = v.BindEnv("ranking.ai.model", "OPENROUTER_MODEL")
	_ = v.BindEnv("speech.api_key", "ELEVENLABS_API_KEY")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log.level", "LOG_LEVEL")
	_ = v.BindEnv("log.mode", "LOG_MODE")

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "dining-ranker")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "45s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	// 菜單供應商
	v.SetDefault("menu.url_template", "http://localhost:9000/menus/{hall}/{date}")
	v.SetDefault("menu.api_key_header", "x-api-key")
	v.SetDefault("menu.timeout", "12s")
	v.SetDefault("menu.timezone", "America/New_York")
	v.SetDefault("menu.prefetch_time", "05:30")
	v.SetDefault("menu.prefetch_on_start", true)
	v.SetDefault("menu.max_concurrency", 8)
	v.SetDefault("menu.breaker.enabled", true)
	v.SetDefault("menu.breaker.max_requests", 2)
	v.SetDefault("menu.breaker.interval", "1m")
	v.SetDefault("menu.breaker.timeout", "30s")
	v.SetDefault("menu.breaker.consecutive_failures", 5)

	// 過濾
	v.SetDefault("filter.excluded_keywords", []string{"bakery", "bliss", "dessert", "beverages"})
	v.SetDefault("filter.min_calories", 100)
	v.SetDefault("filter.max_menu_rows", 6)
	v.SetDefault("filter.top_picks", 3)

	v.SetDefault("score.ceiling", 6)

	// 排名
	v.SetDefault("ranking.default_strategy", "local")
	v.SetDefault("ranking.allow_partial", false)
	v.SetDefault("ranking.ai.enabled", false)
	v.SetDefault("ranking.ai.provider", "gateway")
	v.SetDefault("ranking.ai.endpoint", "http://localhost:5000/api/rank")
	v.SetDefault("ranking.ai.model", "google/gemini-2.0-flash-001")
	v.SetDefault("ranking.ai.max_tokens", 1000)
	v.SetDefault("ranking.ai.timeout", "30s")
	v.SetDefault("ranking.ai.retry_count", 1)
	v.SetDefault("ranking.ai.cache_enabled", true)
	v.SetDefault("ranking.ai.cache_ttl", "30m")
	v.SetDefault("ranking.ai.cache_max_size", 200)
	v.SetDefault("ranking.ai.cleanup_interval", "10m")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", "48h")

	v.SetDefault("profile.db_path", "./dining-ranker.db")
	v.SetDefault("profile.storage_key", "bytebite-profile")

	// 語音
	v.SetDefault("speech.enabled", false)
	v.SetDefault("speech.base_url", "https://api.elevenlabs.io")
	v.SetDefault("speech.voice_id", "EXAVITQu4vr4xnSDxMaL")
	v.SetDefault("speech.model_id", "eleven_multilingual_v2")
	v.SetDefault("speech.timeout", "30s")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("dedup_window", "1s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.mode", "")
	v.SetDefault("log.dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}

	if !strings.Contains(config.Menu.URLTemplate, "{hall}") {
		return fmt.Errorf("menu url_template must contain {hall}")
	}
	if config.Menu.Timeout <= 0 {
		return fmt.Errorf("invalid menu timeout")
	}
	if _, err := time.LoadLocation(config.Menu.Timezone); err != nil {
		return fmt.Errorf("invalid menu timezone %q: %w", config.Menu.Timezone, err)
	}
	if err := ValidateClock(config.Menu.PrefetchTime); err != nil {
		return err
	}

	if config.Filter.MinCalories < 0 {
		return fmt.Errorf("invalid filter min_calories")
	}
	if config.Filter.MaxMenuRows <= 0 {
		return fmt.Errorf("invalid filter max_menu_rows")
	}
	if config.Filter.TopPicks <= 0 {
		return fmt.Errorf("invalid filter top_picks")
	}
	if config.Score.Ceiling <= 0 {
		return fmt.Errorf("invalid score ceiling")
	}

	switch config.Ranking.DefaultStrategy {
	case "local", "ai":
	default:
		return fmt.Errorf("invalid ranking default_strategy %q", config.Ranking.DefaultStrategy)
	}
	if config.Ranking.DefaultStrategy == "ai" && !config.Ranking.AI.Enabled {
		return fmt.Errorf("ranking default_strategy is ai but ranking.ai is disabled")
	}
	if config.Ranking.AI.Enabled {
		switch config.Ranking.AI.Provider {
		case "gateway", "openrouter":
		default:
			return fmt.Errorf("invalid ranking ai provider %q", config.Ranking.AI.Provider)
		}
		if config.Ranking.AI.Timeout <= 0 {
			return fmt.Errorf("invalid ranking ai timeout")
		}
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory", "redis":
		default:
			return fmt.Errorf("invalid cache backend %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Profile.StorageKey == "" {
		return fmt.Errorf("profile storage_key is required")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}

	return nil
}

// ValidateClock 檢查 HH:MM 24 小時制時間字串
func ValidateClock(t string) error {
	_, _, err := ParseClock(t)
	return err
}

// ParseClock 解析 HH:MM 24 小時制時間字串
func ParseClock(t string) (int, int, error) {
	parsed, err := time.Parse("15:04", t)
	if err != nil || len(t) != 5 {
		return 0, 0, fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}
	return parsed.Hour(), parsed.Minute(), nil
}

// MaskedKeys 回傳遮罩後的金鑰資訊，供啟動日誌使用
func (c *Config) MaskedKeys() map[string]string {
	masked := make(map[string]string, 3)
	for name, key := range map[string]string{
		"menu":    c.Menu.APIKey,
		"ranking": c.Ranking.AI.APIKey,
		"speech":  c.Speech.APIKey,
	} {
		if key != "" {
			masked[name] = common.MaskSecret(key)
		}
	}
	return masked
}
