package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"noafarin/evaluation-service/internal/model"
	pkgerrors "noafarin/evaluation-service/pkg/errors"
)

// EvaluationFilter 评估列表过滤条件（空字符串表示不过滤）
type EvaluationFilter struct {
	TeamID         string
	EvaluatorID    string
	EvaluationType string
	Status         string
}

// ScoreRow 排行榜聚合所需的投影行
type ScoreRow struct {
	TeamID     string
	TotalScore float64
	CreatedAt  time.Time
}

// EvaluationRepository 评估数据访问接口
type EvaluationRepository interface {
	Create(ctx context.Context, ev *model.Evaluation) error
	GetByID(ctx context.Context, id string) (*model.Evaluation, error)
	List(ctx context.Context, filter EvaluationFilter, offset, limit int) ([]model.Evaluation, int64, error)
	ListByTeam(ctx context.Context, teamID string) ([]model.Evaluation, error)
	Update(ctx context.Context, ev *model.Evaluation) error
	Delete(ctx context.Context, id string, deletedBy string) error
	TeamAverage(ctx context.Context, teamID, evaluationType string, statuses []string) (float64, int64, error)
	ListForLeaderboard(ctx context.Context, evaluationType string, statuses []string) ([]ScoreRow, error)
}

type evaluationRepo struct {
	db *gorm.DB
}

// NewEvaluationRepo 创建 EvaluationRepository 实例
func NewEvaluationRepo(db *gorm.DB) EvaluationRepository {
	return &evaluationRepo{db: db}
}

func (r *evaluationRepo) Create(ctx context.Context, ev *model.Evaluation) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *evaluationRepo) GetByID(ctx context.Context, id string) (*model.Evaluation, error) {
	var ev model.Evaluation
	err := r.db.WithContext(ctx).
		Where("evaluation_id = ?", id).
		First(&ev).Error
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

func (r *evaluationRepo) List(ctx context.Context, filter EvaluationFilter, offset, limit int) ([]model.Evaluation, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Evaluation{})
	if filter.TeamID != "" {
		query = query.Where("team_id = ?", filter.TeamID)
	}
	if filter.EvaluatorID != "" {
		query = query.Where("evaluator_id = ?", filter.EvaluatorID)
	}
	if filter.EvaluationType != "" {
		query = query.Where("evaluation_type = ?", filter.EvaluationType)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.Evaluation
	err := query.
		Order("created_at DESC").
		Order("evaluation_id").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	return list, total, err
}

func (r *evaluationRepo) ListByTeam(ctx context.Context, teamID string) ([]model.Evaluation, error) {
	var list []model.Evaluation
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// Update 带乐观锁的整行内容更新
// 评估类型、团队、评审人创建后不可变，不在更新列中
func (r *evaluationRepo) Update(ctx context.Context, ev *model.Evaluation) error {
	oldVersion := ev.Version
	result := r.db.WithContext(ctx).
		Model(ev).
		Where("evaluation_id = ? AND version = ?", ev.EvaluationID, oldVersion).
		Updates(map[string]interface{}{
			"event_id":        ev.EventID,
			"criteria":        ev.Criteria,
			"total_score":     ev.TotalScore,
			"feedback":        ev.Feedback,
			"strengths":       ev.Strengths,
			"weaknesses":      ev.Weaknesses,
			"recommendations": ev.Recommendations,
			"status":          ev.Status,
			"submitted_at":    ev.SubmittedAt,
			"reviewed_at":     ev.ReviewedAt,
			"reviewed_by":     ev.ReviewedBy,
			"updated_by":      ev.UpdatedBy,
			"version":         oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	ev.Version = oldVersion + 1
	return nil
}

// Delete 软删除，保留行与删除人以便审计
func (r *evaluationRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Evaluation{}).
		Where("evaluation_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_by": deletedBy,
			"deleted_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TeamAverage 计算团队在指定状态下的平均总分；无记录时返回 (0, 0)
func (r *evaluationRepo) TeamAverage(ctx context.Context, teamID, evaluationType string, statuses []string) (float64, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Evaluation{}).
		Where("team_id = ?", teamID)
	if evaluationType != "" {
		query = query.Where("evaluation_type = ?", evaluationType)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var row struct {
		AvgScore float64
		Cnt      int64
	}
	err := query.
		Select("COALESCE(AVG(total_score), 0) AS avg_score, COUNT(*) AS cnt").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.AvgScore, row.Cnt, nil
}

// ListForLeaderboard 返回参与排名的投影行，分组排序在 Service 层完成
func (r *evaluationRepo) ListForLeaderboard(ctx context.Context, evaluationType string, statuses []string) ([]ScoreRow, error) {
	query := r.db.WithContext(ctx).
		Model(&model.Evaluation{}).
		Select("team_id, total_score, created_at")
	if evaluationType != "" {
		query = query.Where("evaluation_type = ?", evaluationType)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var rows []ScoreRow
	err := query.Find(&rows).Error
	return rows, err
}
