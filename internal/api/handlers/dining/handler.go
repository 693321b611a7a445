package dining

import (
	"context"
	"net/http"

	diningCore "dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu/cache"
	"dining-ranker/internal/core/profile"
	"dining-ranker/internal/core/ranking"
	"dining-ranker/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Synthesizer 文字轉語音
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Options 處理程序設定
type Options struct {
	MaxMenuRows int
	Debug       bool
}

// Handler 餐廳、菜單、偏好設定與排名的 API 處理程序
type Handler struct {
	coordinator *ranking.Coordinator
	profiles    profile.Store
	menuCache   *cache.Cache
	speech      Synthesizer
	maxRows     int
	debug       bool
}

// NewHandler 創建處理程序；speech 為 nil 時語音端點回傳 503，menuCache 為 nil 時無法查詢歷史菜單
func NewHandler(coordinator *ranking.Coordinator, profiles profile.Store, menuCache *cache.Cache, synth Synthesizer, opts Options) *Handler {
	if menuCache == nil {
		menuCache = cache.New(nil, nil)
	}
	return &Handler{
		coordinator: coordinator,
		profiles:    profiles,
		menuCache:   menuCache,
		speech:      synth,
		maxRows:     opts.MaxMenuRows,
		debug:       opts.Debug,
	}
}

// Register 註冊路由
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/halls", h.ListHalls)

	menus := api.Group("/menus")
	{
		menus.GET("", h.ListMenus)
		menus.POST("/refresh", h.RefreshMenus)
		menus.GET("/:hall", h.GetHallMenu)
	}

	api.GET("/profile", h.GetProfile)
	api.PUT("/profile", h.SaveProfile)
	api.DELETE("/profile", h.ClearProfile)

	rankingGroup := api.Group("/ranking")
	{
		rankingGroup.GET("/status", h.RankingStatus)
		rankingGroup.POST("", h.Personalize)
		rankingGroup.GET("", h.LatestRanking)
	}

	api.GET("/lineup", h.Lineup)
	api.POST("/speech", h.Speech)
}

// ListHalls 回傳餐廳目錄
func (h *Handler) ListHalls(c *gin.Context) {
	halls := h.coordinator.Catalog().Halls()
	c.JSON(http.StatusOK, gin.H{
		"halls": halls,
		"count": len(halls),
	})
}

// loadProfile 讀取已儲存的偏好設定，沒有時回傳 nil
func (h *Handler) loadProfile(c *gin.Context) (*diningCore.UserProfile, error) {
	if h.profiles == nil {
		return nil, nil
	}
	p, err := h.profiles.Load(c.Request.Context())
	if err != nil {
		return nil, common.ErrInternalError.Wrap(err)
	}
	return p, nil
}

func (h *Handler) fail(c *gin.Context, err error) {
	ce := common.AsCustomError(err)
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
	}
	common.WriteError(c, ce, h.debug)
}
