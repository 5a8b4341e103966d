package service

import (
	"go.uber.org/zap"

	"noafarin/evaluation-service/config"
	"noafarin/evaluation-service/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Evaluation  EvaluationService
	Leaderboard LeaderboardService
}

// NewService 创建 Service 聚合
// cache 为 nil 时排行榜不缓存
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	notifier Notifier,
	cache LeaderboardCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		Evaluation:  NewEvaluationService(repo, notifier, cache, logger),
		Leaderboard: NewLeaderboardService(&cfg.Leaderboard, repo, cache, logger),
	}
}
