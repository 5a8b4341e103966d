package handler

import "noafarin/evaluation-service/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Evaluation  *EvaluationHandler
	Leaderboard *LeaderboardHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Evaluation:  NewEvaluationHandler(svc.Evaluation),
		Leaderboard: NewLeaderboardHandler(svc.Leaderboard),
	}
}
