package dto

// ── 排行榜模块 DTO ──

// LeaderboardRequest 排行榜查询参数
// limit 超过配置上限时由 Service 层截断
type LeaderboardRequest struct {
	EvaluationType string `form:"evaluationType" binding:"omitempty,oneof=pitch progress final"`
	Limit          int    `form:"limit"          binding:"omitempty,min=1"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank             int     `json:"rank"`
	TeamID           string  `json:"teamId"`
	AvgScore         float64 `json:"avgScore"`
	MaxScore         float64 `json:"maxScore"`
	MinScore         float64 `json:"minScore"`
	EvaluationCount  int64   `json:"evaluationCount"`
	LatestEvaluation string  `json:"latestEvaluation"`
}
