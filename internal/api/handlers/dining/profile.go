package dining

import (
	"net/http"

	diningCore "dining-ranker/internal/core/dining"
	"dining-ranker/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProfileRequest 儲存偏好設定
type ProfileRequest struct {
	Name               string   `json:"name"`
	Goal               string   `json:"goal"`
	Diet               string   `json:"diet"`
	Allergies          []string `json:"allergies"`
	VisuallyImpaired   bool     `json:"visuallyImpaired"`
	ColorblindFriendly bool     `json:"colorblindFriendly"`
}

// toProfile 驗證目標與飲食，空值使用預設
func (r ProfileRequest) toProfile() (diningCore.UserProfile, error) {
	goal, ok := diningCore.ParseGoal(r.Goal)
	if !ok {
		return diningCore.UserProfile{}, common.NewValidationError("goal must be one of lose, maintain, gain")
	}
	diet, ok := diningCore.ParseDiet(r.Diet)
	if !ok {
		return diningCore.UserProfile{}, common.NewValidationError("diet must be one of omnivore, vegetarian, vegan")
	}
	return diningCore.UserProfile{
		Name:               r.Name,
		Goal:               goal,
		Diet:               diet,
		Allergies:          r.Allergies,
		VisuallyImpaired:   r.VisuallyImpaired,
		ColorblindFriendly: r.ColorblindFriendly,
	}.Normalize(), nil
}

// GetProfile 讀取已儲存的偏好設定
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.loadProfile(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if p == nil {
		h.fail(c, common.ErrProfileNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p.Normalize()})
}

// SaveProfile 儲存偏好設定；舊的排名結果不再適用，一併清除
func (h *Handler) SaveProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	p, err := req.toProfile()
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.profiles == nil {
		h.fail(c, common.ErrServiceUnavailable.WithMessage("Profile storage is not configured"))
		return
	}
	if err := h.profiles.Save(c.Request.Context(), p); err != nil {
		h.fail(c, common.ErrInternalError.Wrap(err))
		return
	}
	h.coordinator.ClearLatest()

	common.LogInfo("偏好設定已儲存",
		zap.String("request_id", requestid.Get(c)),
		zap.String("goal", string(p.Goal)),
		zap.String("diet", string(p.Diet)),
		zap.Int("allergies", len(p.Allergies)),
	)
	c.JSON(http.StatusOK, gin.H{"profile": p})
}

// ClearProfile 清除偏好設定與排名結果
func (h *Handler) ClearProfile(c *gin.Context) {
	if h.profiles != nil {
		if err := h.profiles.Clear(c.Request.Context()); err != nil {
			h.fail(c, common.ErrInternalError.Wrap(err))
			return
		}
	}
	h.coordinator.ClearLatest()
	c.Status(http.StatusNoContent)
}
