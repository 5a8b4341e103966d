package handler

import (
	"github.com/gin-gonic/gin"

	"noafarin/evaluation-service/internal/dto"
	"noafarin/evaluation-service/internal/service"
	"noafarin/evaluation-service/pkg/response"
)

// EvaluationHandler 评估模块 HTTP 处理器
type EvaluationHandler struct {
	evaluationSvc service.EvaluationService
}

// NewEvaluationHandler 创建 EvaluationHandler
func NewEvaluationHandler(evaluationSvc service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{evaluationSvc: evaluationSvc}
}

// ListEvaluations 分页查询评估
// GET /api/v1/evaluations?teamId=&evaluatorId=&evaluationType=&status=&page=1&limit=10
func (h *EvaluationHandler) ListEvaluations(c *gin.Context) {
	var req dto.EvaluationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, total, err := h.evaluationSvc.List(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetLimit())
}

// CreateEvaluation 创建评估（草稿）
// POST /api/v1/evaluations
func (h *EvaluationHandler) CreateEvaluation(c *gin.Context) {
	var req dto.CreateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	evaluation, err := h.evaluationSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, evaluation)
}

// GetEvaluation 获取评估详情
// GET /api/v1/evaluations/:id
func (h *EvaluationHandler) GetEvaluation(c *gin.Context) {
	evaluation, err := h.evaluationSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, evaluation)
}

// UpdateEvaluation 更新草稿评估
// PUT /api/v1/evaluations/:id
func (h *EvaluationHandler) UpdateEvaluation(c *gin.Context) {
	var req dto.UpdateEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	evaluation, err := h.evaluationSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, evaluation)
}

// DeleteEvaluation 删除评估（任何状态）
// DELETE /api/v1/evaluations/:id
func (h *EvaluationHandler) DeleteEvaluation(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.evaluationSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, nil)
}

// SubmitEvaluation 提交评估并通知团队
// POST /api/v1/evaluations/:id/submit
func (h *EvaluationHandler) SubmitEvaluation(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	evaluation, err := h.evaluationSvc.Submit(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, evaluation)
}

// ReviewEvaluation 复核已提交的评估
// POST /api/v1/evaluations/:id/review
func (h *EvaluationHandler) ReviewEvaluation(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	evaluation, err := h.evaluationSvc.Review(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, evaluation)
}

// ListTeamEvaluations 团队全部评估（不分页）
// GET /api/v1/evaluations/team/:teamId
func (h *EvaluationHandler) ListTeamEvaluations(c *gin.Context) {
	list, err := h.evaluationSvc.ListByTeam(c.Request.Context(), c.Param("teamId"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, list)
}

// GetTeamAverage 团队已提交评估的平均分
// GET /api/v1/evaluations/team/:teamId/average?evaluationType=
func (h *EvaluationHandler) GetTeamAverage(c *gin.Context) {
	var req dto.TeamAverageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	avg, err := h.evaluationSvc.TeamAverage(c.Request.Context(), c.Param("teamId"), req.EvaluationType)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.OK(c, avg)
}
