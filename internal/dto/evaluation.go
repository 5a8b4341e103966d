package dto

// ── 评估模块 DTO ──

// CriterionRequest 单项评分标准
// 数值范围（满分 > 0、0 ≤ 得分 ≤ 满分、权重 ≥ 0）由 Service 层校验
type CriterionRequest struct {
	Name        string   `json:"name"        binding:"required,max=100"`
	Description string   `json:"description" binding:"omitempty,max=500"`
	Score       *float64 `json:"score"       binding:"required"`
	MaxScore    float64  `json:"maxScore"`
	Weight      *float64 `json:"weight"` // 缺省为 1
}

// CreateEvaluationRequest 创建评估请求
type CreateEvaluationRequest struct {
	TeamID          string             `json:"teamId"          binding:"required,max=64"`
	EventID         *string            `json:"eventId"         binding:"omitempty,max=64"`
	EvaluationType  string             `json:"evaluationType"  binding:"required,oneof=pitch progress final"`
	Criteria        []CriterionRequest `json:"criteria"        binding:"required,min=1,dive"`
	Feedback        string             `json:"feedback"        binding:"omitempty,max=5000"`
	Strengths       []string           `json:"strengths"       binding:"omitempty,max=50"`
	Weaknesses      []string           `json:"weaknesses"      binding:"omitempty,max=50"`
	Recommendations []string           `json:"recommendations" binding:"omitempty,max=50"`
}

// UpdateEvaluationRequest 更新评估请求（部分更新）
// teamId / evaluationType 创建后不可修改，不在此处出现；
// 字段校验放在 Service 层，保证已提交记录无论载荷如何都返回状态错误
type UpdateEvaluationRequest struct {
	EventID         *string            `json:"eventId"`
	Criteria        []CriterionRequest `json:"criteria"`
	Feedback        *string            `json:"feedback"`
	Strengths       []string           `json:"strengths"`
	Weaknesses      []string           `json:"weaknesses"`
	Recommendations []string           `json:"recommendations"`
}

// EvaluationListRequest 评估列表查询参数
type EvaluationListRequest struct {
	PaginationRequest
	TeamID         string `form:"teamId"         binding:"omitempty,max=64"`
	EvaluatorID    string `form:"evaluatorId"    binding:"omitempty,max=64"`
	EvaluationType string `form:"evaluationType" binding:"omitempty,oneof=pitch progress final"`
	Status         string `form:"status"         binding:"omitempty,oneof=draft submitted reviewed"`
}

// TeamAverageRequest 团队均分查询参数
type TeamAverageRequest struct {
	EvaluationType string `form:"evaluationType" binding:"omitempty,oneof=pitch progress final"`
}

// CriterionResponse 单项评分标准响应
type CriterionResponse struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"maxScore"`
	Weight      float64 `json:"weight"`
}

// EvaluationResponse 评估详情响应
type EvaluationResponse struct {
	ID              string              `json:"id"`
	TeamID          string              `json:"teamId"`
	EventID         *string             `json:"eventId,omitempty"`
	EvaluatorID     string              `json:"evaluatorId"`
	EvaluationType  string              `json:"evaluationType"`
	Criteria        []CriterionResponse `json:"criteria"`
	TotalScore      float64             `json:"totalScore"`
	Feedback        string              `json:"feedback,omitempty"`
	Strengths       []string            `json:"strengths"`
	Weaknesses      []string            `json:"weaknesses"`
	Recommendations []string            `json:"recommendations"`
	Status          string              `json:"status"`
	SubmittedAt     *string             `json:"submittedAt,omitempty"`
	ReviewedAt      *string             `json:"reviewedAt,omitempty"`
	ReviewedBy      *string             `json:"reviewedBy,omitempty"`
	Version         int                 `json:"version"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

// TeamAverageResponse 团队均分响应
type TeamAverageResponse struct {
	TeamID         string  `json:"teamId"`
	EvaluationType string  `json:"evaluationType,omitempty"`
	AvgScore       float64 `json:"avgScore"`
	Count          int64   `json:"count"`
}
