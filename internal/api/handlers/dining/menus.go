package dining

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	diningCore "dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/core/menu/cache"
	"dining-ranker/internal/core/ranking"
	"dining-ranker/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HallMenuResponse 單間餐廳的菜單
type HallMenuResponse struct {
	HallID string             `json:"hallId"`
	Date   string             `json:"date"`
	Status ranking.FeedStatus `json:"status"`
	Source string             `json:"source,omitempty"`
	Error  string             `json:"error,omitempty"`
	Total  int                `json:"total"`
	Count  int                `json:"count"`
	Items  []menu.Item        `json:"items"`
}

// ListMenus 各餐廳載入狀態與已載入菜單的菜色統計
func (h *Handler) ListMenus(c *gin.Context) {
	p := h.profileIfRequested(c)
	if c.IsAborted() {
		return
	}

	st := h.coordinator.Status()
	c.JSON(http.StatusOK, gin.H{
		"date":   st.Date,
		"ready":  st.Ready,
		"halls":  st.Halls,
		"merged": h.coordinator.MergedMenus(p),
	})
}

// RefreshMenus 重新載入菜單；wait=true 時等待完成，force=true 時略過快取
func (h *Handler) RefreshMenus(c *gin.Context) {
	force := queryBool(c, "force")

	if !queryBool(c, "wait") {
		h.coordinator.Refresh(force)
		c.JSON(http.StatusAccepted, gin.H{"status": h.coordinator.Status()})
		return
	}

	if err := h.coordinator.RefreshAndWait(c.Request.Context(), force); err != nil {
		common.LogWarn("等待菜單載入逾時", zap.Error(err))
		h.fail(c, common.ErrGatewayTimeout.Wrap(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": h.coordinator.Status()})
}

// GetHallMenu 單間餐廳標準化並過濾後的菜單。
// 查詢參數：profile=true 套用偏好、calorie_floor=false|N、limit=N、date=YYYY-MM-DD（讀取快取中的歷史菜單）
func (h *Handler) GetHallMenu(c *gin.Context) {
	hallID := c.Param("hall")
	if _, ok := h.coordinator.Catalog().Get(hallID); !ok {
		h.fail(c, common.ErrNotFound.WithMessage("Unknown dining hall: "+hallID))
		return
	}

	opts, err := filterOptions(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}

	p := h.profileIfRequested(c)
	if c.IsAborted() {
		return
	}

	resp := HallMenuResponse{HallID: hallID}
	var items []menu.Item

	if date := c.Query("date"); date != "" && date != h.menuCache.Today() {
		if _, err := time.Parse(cache.DateLayout, date); err != nil {
			h.fail(c, common.ErrInvalidRequest.WithMessage("date must be YYYY-MM-DD"))
			return
		}
		payload, ok := h.menuCache.LookupDate(c.Request.Context(), date, hallID)
		if !ok {
			h.fail(c, common.ErrNotFound.WithMessage("No cached menu for "+date))
			return
		}
		resp.Date = date
		resp.Status = ranking.StatusLoaded
		resp.Source = ranking.SourceCache
		items = menu.Normalize(payload)
	} else {
		var st ranking.FeedState
		items, st, err = h.coordinator.Items(hallID)
		if err != nil {
			if errors.Is(err, ranking.ErrUnknownHall) {
				h.fail(c, common.ErrNotFound.Wrap(err))
				return
			}
			h.fail(c, err)
			return
		}
		resp.Date = st.Date
		resp.Status = st.Status
		resp.Source = st.Source
		resp.Error = st.Error
	}

	filtered := menu.Apply(items, h.coordinator.FilterConfig(p, opts...))
	resp.Total = len(items)
	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	resp.Count = len(filtered)
	resp.Items = filtered

	c.JSON(http.StatusOK, resp)
}

// profileIfRequested profile=true 時讀取偏好設定；讀取失敗時中止請求
func (h *Handler) profileIfRequested(c *gin.Context) *diningCore.UserProfile {
	if !queryBool(c, "profile") {
		return nil
	}
	p, err := h.loadProfile(c)
	if err != nil {
		h.fail(c, err)
		c.Abort()
		return nil
	}
	return p
}

func filterOptions(c *gin.Context) ([]menu.FilterOption, error) {
	raw := strings.ToLower(strings.TrimSpace(c.Query("calorie_floor")))
	switch raw {
	case "":
		return nil, nil
	case "false", "off", "0", "no":
		return []menu.FilterOption{menu.WithoutCalorieFloor()}, nil
	case "true", "on", "yes":
		return []menu.FilterOption{}, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, common.ErrInvalidRequest.WithMessage("calorie_floor must be a boolean or a non-negative integer")
	}
	return []menu.FilterOption{menu.WithCalorieFloor(n)}, nil
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, common.ErrInvalidRequest.WithMessage(key + " must be a non-negative integer")
	}
	return n, nil
}
