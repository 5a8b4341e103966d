package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 评估类型
const (
	EvaluationTypePitch    = "pitch"
	EvaluationTypeProgress = "progress"
	EvaluationTypeFinal    = "final"
)

// 评估状态：draft → submitted → reviewed
const (
	EvaluationStatusDraft     = "draft"
	EvaluationStatusSubmitted = "submitted"
	EvaluationStatusReviewed  = "reviewed"
)

// IsValidEvaluationType 判断评估类型是否合法
func IsValidEvaluationType(t string) bool {
	switch t {
	case EvaluationTypePitch, EvaluationTypeProgress, EvaluationTypeFinal:
		return true
	}
	return false
}

// IsValidEvaluationStatus 判断评估状态是否合法
func IsValidEvaluationStatus(s string) bool {
	switch s {
	case EvaluationStatusDraft, EvaluationStatusSubmitted, EvaluationStatusReviewed:
		return true
	}
	return false
}

// SubmittedStatuses 已经过提交流转的状态（参与均分与排行榜统计）
var SubmittedStatuses = []string{EvaluationStatusSubmitted, EvaluationStatusReviewed}

// Criterion 单项评分标准（以 JSONB 数组形式保存在 evaluations.criteria 中，保持顺序）
type Criterion struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"maxScore"`
	Weight      float64 `json:"weight"`
}

// Evaluation 团队评估表，对应 evaluations
type Evaluation struct {
	EvaluationID    string                         `gorm:"type:uuid;primaryKey"                      json:"evaluation_id"`
	TeamID          string                         `gorm:"type:varchar(64);not null;index"           json:"team_id"`
	EventID         *string                        `gorm:"type:varchar(64)"                          json:"event_id,omitempty"`
	EvaluatorID     string                         `gorm:"type:varchar(64);not null;index"           json:"evaluator_id"`
	EvaluationType  string                         `gorm:"type:varchar(20);not null"                 json:"evaluation_type"` // pitch | progress | final
	Criteria        datatypes.JSONSlice[Criterion] `gorm:"not null"                                  json:"criteria"`
	TotalScore      float64                        `gorm:"type:numeric(5,2);not null;default:0"      json:"total_score"`
	Feedback        string                         `gorm:"type:text"                                 json:"feedback,omitempty"`
	Strengths       datatypes.JSONSlice[string]    `                                                 json:"strengths"`
	Weaknesses      datatypes.JSONSlice[string]    `                                                 json:"weaknesses"`
	Recommendations datatypes.JSONSlice[string]    `                                                 json:"recommendations"`
	Status          string                         `gorm:"type:varchar(20);not null;default:'draft'" json:"status"` // draft | submitted | reviewed
	SubmittedAt     *time.Time                     `                                                 json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time                     `                                                 json:"reviewed_at,omitempty"`
	ReviewedBy      *string                        `gorm:"type:varchar(64)"                          json:"reviewed_by,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Evaluation) TableName() string { return "evaluations" }

// BeforeCreate 在应用层生成主键，不依赖数据库函数
func (e *Evaluation) BeforeCreate(_ *gorm.DB) error {
	if e.EvaluationID == "" {
		e.EvaluationID = uuid.New().String()
	}
	return nil
}

// IsDraft 是否仍可编辑
func (e *Evaluation) IsDraft() bool {
	return e.Status == EvaluationStatusDraft
}
