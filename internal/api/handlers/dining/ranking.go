package dining

import (
	"context"
	"errors"
	"net/http"

	diningCore "dining-ranker/internal/core/dining"
	"dining-ranker/internal/core/lineup"
	"dining-ranker/internal/core/menu"
	"dining-ranker/internal/core/ranking"
	"dining-ranker/internal/core/speech"
	"dining-ranker/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PersonalizeRequest 個人化排名請求；未提供 profile 時使用已儲存的偏好設定
type PersonalizeRequest struct {
	Strategy string          `json:"strategy"`
	Profile  *ProfileRequest `json:"profile,omitempty"`
}

// SpeechRequest 文字轉語音請求；lineup=true 時朗讀目前的排名畫面
type SpeechRequest struct {
	Text   string `json:"text"`
	Lineup bool   `json:"lineup"`
}

// RankingStatus 個人化前置條件與各餐廳狀態
func (h *Handler) RankingStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     h.coordinator.Status(),
		"strategies": h.coordinator.Strategies(),
	})
}

// Personalize 產生個人化排名
func (h *Handler) Personalize(c *gin.Context) {
	var req PersonalizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, common.ErrInvalidRequest.Wrap(err))
			return
		}
	}

	var p *diningCore.UserProfile
	if req.Profile != nil {
		rp, err := req.Profile.toProfile()
		if err != nil {
			h.fail(c, err)
			return
		}
		p = &rp
	} else {
		saved, err := h.loadProfile(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		p = saved
	}
	if p == nil {
		h.fail(c, common.ErrProfileNotFound)
		return
	}

	result, err := h.coordinator.Personalize(c.Request.Context(), *p, req.Strategy)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"result": result})
	case errors.Is(err, ranking.ErrUnknownStrategy):
		h.fail(c, common.ErrUnknownStrategy.Wrap(err))
	case errors.Is(err, ranking.ErrNotReady):
		// 前置條件未滿足不是錯誤，不記錄錯誤日誌
		c.JSON(common.ErrPreconditionNotMet.Status, gin.H{
			"error":  common.ErrPreconditionNotMet.ToResponse(false),
			"status": h.coordinator.Status(),
		})
	case errors.Is(err, ranking.ErrRankingFailed):
		common.LogWarn("排名服務失敗，保留前一次結果",
			zap.String("request_id", requestid.Get(c)),
			zap.Error(err),
		)
		c.JSON(common.ErrRankingService.Status, gin.H{
			"error":    common.ErrRankingService.Wrap(err).ToResponse(h.debug),
			"previous": h.coordinator.Latest(),
		})
	default:
		h.fail(c, err)
	}
}

// LatestRanking 最近一次排名結果
func (h *Handler) LatestRanking(c *gin.Context) {
	result := h.coordinator.Latest()
	if result == nil {
		h.fail(c, common.ErrNotFound.WithMessage("No ranking has been generated yet"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Lineup 畫面資料：mode=spotlight|grid，index 為聚焦餐廳的位置
func (h *Handler) Lineup(c *gin.Context) {
	view, err := h.buildLineup(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) buildLineup(c *gin.Context) (lineup.View, error) {
	mode, ok := lineup.ParseMode(c.Query("mode"))
	if !ok {
		return lineup.View{}, common.ErrInvalidRequest.WithMessage("mode must be spotlight or grid")
	}
	index, err := queryInt(c, "index")
	if err != nil {
		return lineup.View{}, err
	}

	p, err := h.loadProfile(c)
	if err != nil {
		return lineup.View{}, err
	}

	var result *ranking.Result
	if p != nil {
		result = h.coordinator.Latest()
	}

	cfg := h.coordinator.FilterConfig(p)
	menus := make(map[string]lineup.HallMenuState)
	for _, st := range h.coordinator.Feeds() {
		ms := lineup.HallMenuState{Status: st.Status, Error: st.Error}
		if st.Status == ranking.StatusLoaded {
			items, _, err := h.coordinator.Items(st.HallID)
			if err != nil {
				return lineup.View{}, err
			}
			ms.Items = menu.Apply(items, cfg)
		}
		menus[st.HallID] = ms
	}

	return lineup.Build(lineup.Input{
		Halls:   h.coordinator.Catalog().Halls(),
		Profile: p,
		Result:  result,
		Menus:   menus,
		Mode:    mode,
		Index:   index,
		MaxRows: h.maxRows,
	}), nil
}

// Speech 將文字或目前的排名畫面轉為 mp3
func (h *Handler) Speech(c *gin.Context) {
	if h.speech == nil {
		h.fail(c, common.ErrSpeechDisabled)
		return
	}

	var req SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, common.ErrInvalidRequest.Wrap(err))
		return
	}

	text := req.Text
	if req.Lineup {
		view, err := h.buildLineup(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		text = lineup.Narrate(view)
	}

	audio, err := h.synthesize(c.Request.Context(), text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (h *Handler) synthesize(ctx context.Context, text string) ([]byte, error) {
	audio, err := h.speech.Synthesize(ctx, text)
	switch {
	case err == nil:
		return audio, nil
	case errors.Is(err, speech.ErrEmptyText):
		return nil, common.ErrInvalidRequest.WithMessage("No text provided")
	default:
		return nil, common.NewError("TTS_FAILED", "TTS failed", http.StatusBadGateway, err)
	}
}
