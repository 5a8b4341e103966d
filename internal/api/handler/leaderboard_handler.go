package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"noafarin/evaluation-service/internal/dto"
	"noafarin/evaluation-service/internal/service"
	"noafarin/evaluation-service/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LeaderboardHandler 排行榜 HTTP 处理器
type LeaderboardHandler struct {
	leaderboardSvc service.LeaderboardService
}

// NewLeaderboardHandler 创建 LeaderboardHandler
func NewLeaderboardHandler(leaderboardSvc service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardSvc: leaderboardSvc}
}

// GetLeaderboard 团队排行榜
// GET /api/v1/evaluations/leaderboard?evaluationType=&limit=50
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var req dto.LeaderboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	entries, err := h.leaderboardSvc.Leaderboard(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, entries)
}

// ExportLeaderboard 导出排行榜
// GET /api/v1/evaluations/leaderboard/export?evaluationType=&limit=
func (h *LeaderboardHandler) ExportLeaderboard(c *gin.Context) {
	var req dto.LeaderboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	buf, filename, err := h.leaderboardSvc.Export(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
