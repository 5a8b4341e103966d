package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"noafarin/evaluation-service/internal/dto"
	"noafarin/evaluation-service/internal/model"
	"noafarin/evaluation-service/internal/repository"
	pkgerrors "noafarin/evaluation-service/pkg/errors"
	"noafarin/evaluation-service/pkg/notification"
)

// ── 评估模块业务错误 ──

var (
	ErrEvaluationNotFound         = fmt.Errorf("%w: 评估记录不存在", pkgerrors.ErrNotFound)
	ErrEvaluationSubmitted        = fmt.Errorf("%w: 评估已提交，内容不可修改", pkgerrors.ErrInvalidState)
	ErrEvaluationAlreadySubmitted = fmt.Errorf("%w: 评估已提交，不能重复提交", pkgerrors.ErrInvalidState)
	ErrEvaluationNotSubmitted     = fmt.Errorf("%w: 仅已提交的评估可以复核", pkgerrors.ErrInvalidState)
	ErrCriteriaRequired           = fmt.Errorf("%w: 至少需要一项评分标准", pkgerrors.ErrValidation)
	ErrCriterionNameRequired      = fmt.Errorf("%w: 评分标准名称不能为空", pkgerrors.ErrValidation)
	ErrCriterionScoreRequired     = fmt.Errorf("%w: 评分标准得分不能为空", pkgerrors.ErrValidation)
	ErrTeamRequired               = fmt.Errorf("%w: 团队 ID 不能为空", pkgerrors.ErrValidation)
	ErrInvalidEvaluationType      = fmt.Errorf("%w: 评估类型必须为 pitch、progress 或 final", pkgerrors.ErrValidation)
	ErrInvalidEvaluationStatus    = fmt.Errorf("%w: 评估状态必须为 draft、submitted 或 reviewed", pkgerrors.ErrValidation)
)

// Notifier 通知投递（由 pkg/notification.Client 实现，调用不阻塞、不返回错误）
type Notifier interface {
	Dispatch(ctx context.Context, userID string, p notification.Payload)
}

// EvaluationService 评估生命周期业务接口
type EvaluationService interface {
	Create(ctx context.Context, req *dto.CreateEvaluationRequest, callerID string) (*dto.EvaluationResponse, error)
	GetByID(ctx context.Context, id string) (*dto.EvaluationResponse, error)
	List(ctx context.Context, req *dto.EvaluationListRequest) ([]dto.EvaluationResponse, int64, error)
	ListByTeam(ctx context.Context, teamID string) ([]dto.EvaluationResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateEvaluationRequest, callerID string) (*dto.EvaluationResponse, error)
	Submit(ctx context.Context, id string, callerID string) (*dto.EvaluationResponse, error)
	Review(ctx context.Context, id string, callerID string) (*dto.EvaluationResponse, error)
	Delete(ctx context.Context, id string, callerID string) error
	TeamAverage(ctx context.Context, teamID, evaluationType string) (*dto.TeamAverageResponse, error)
}

type evaluationService struct {
	repo     *repository.Repository
	notifier Notifier
	cache    LeaderboardCache
	logger   *zap.Logger
}

// NewEvaluationService 创建 EvaluationService 实例
// cache 可为 nil（Redis 不可用时排行榜不缓存）
func NewEvaluationService(repo *repository.Repository, notifier Notifier, cache LeaderboardCache, logger *zap.Logger) EvaluationService {
	return &evaluationService{repo: repo, notifier: notifier, cache: cache, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *evaluationService) Create(ctx context.Context, req *dto.CreateEvaluationRequest, callerID string) (*dto.EvaluationResponse, error) {
	teamID := strings.TrimSpace(req.TeamID)
	if teamID == "" {
		return nil, ErrTeamRequired
	}
	if !model.IsValidEvaluationType(req.EvaluationType) {
		return nil, ErrInvalidEvaluationType
	}
	if len(req.Criteria) == 0 {
		return nil, ErrCriteriaRequired
	}

	criteria, err := toCriteria(req.Criteria)
	if err != nil {
		return nil, err
	}
	total, err := ComputeTotalScore(criteria)
	if err != nil {
		return nil, err
	}

	ev := &model.Evaluation{
		TeamID:          teamID,
		EventID:         req.EventID,
		EvaluatorID:     callerID,
		EvaluationType:  req.EvaluationType,
		Criteria:        criteria,
		TotalScore:      total,
		Feedback:        req.Feedback,
		Strengths:       nonNilStrings(req.Strengths),
		Weaknesses:      nonNilStrings(req.Weaknesses),
		Recommendations: nonNilStrings(req.Recommendations),
		Status:          model.EvaluationStatusDraft,
	}
	ev.Version = 1
	ev.CreatedBy = &callerID
	ev.UpdatedBy = &callerID

	if err := s.repo.Evaluation.Create(ctx, ev); err != nil {
		s.logger.Error("创建评估失败", zap.String("team_id", teamID), zap.Error(err))
		return nil, err
	}

	return toEvaluationResponse(ev), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *evaluationService) GetByID(ctx context.Context, id string) (*dto.EvaluationResponse, error) {
	ev, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEvaluationResponse(ev), nil
}

// ────────────────────── List ──────────────────────

func (s *evaluationService) List(ctx context.Context, req *dto.EvaluationListRequest) ([]dto.EvaluationResponse, int64, error) {
	if req.EvaluationType != "" && !model.IsValidEvaluationType(req.EvaluationType) {
		return nil, 0, ErrInvalidEvaluationType
	}
	if req.Status != "" && !model.IsValidEvaluationStatus(req.Status) {
		return nil, 0, ErrInvalidEvaluationStatus
	}

	filter := repository.EvaluationFilter{
		TeamID:         req.TeamID,
		EvaluatorID:    req.EvaluatorID,
		EvaluationType: req.EvaluationType,
		Status:         req.Status,
	}

	list, total, err := s.repo.Evaluation.List(ctx, filter, req.GetOffset(), req.GetLimit())
	if err != nil {
		s.logger.Error("查询评估列表失败", zap.Error(err))
		return nil, 0, err
	}

	return toEvaluationResponses(list), total, nil
}

// ────────────────────── ListByTeam ──────────────────────

func (s *evaluationService) ListByTeam(ctx context.Context, teamID string) ([]dto.EvaluationResponse, error) {
	list, err := s.repo.Evaluation.ListByTeam(ctx, teamID)
	if err != nil {
		s.logger.Error("查询团队评估失败", zap.String("team_id", teamID), zap.Error(err))
		return nil, err
	}
	return toEvaluationResponses(list), nil
}

// ────────────────────── Update ──────────────────────

func (s *evaluationService) Update(ctx context.Context, id string, req *dto.UpdateEvaluationRequest, callerID string) (*dto.EvaluationResponse, error) {
	ev, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	// 先判断状态：已提交的记录无论载荷是否合法都拒绝
	if !ev.IsDraft() {
		return nil, ErrEvaluationSubmitted
	}

	if req.Criteria != nil {
		if len(req.Criteria) == 0 {
			return nil, ErrCriteriaRequired
		}
		criteria, err := toCriteria(req.Criteria)
		if err != nil {
			return nil, err
		}
		total, err := ComputeTotalScore(criteria)
		if err != nil {
			return nil, err
		}
		ev.Criteria = criteria
		ev.TotalScore = total
	}
	if req.EventID != nil {
		ev.EventID = req.EventID
		if *req.EventID == "" {
			ev.EventID = nil
		}
	}
	if req.Feedback != nil {
		ev.Feedback = *req.Feedback
	}
	if req.Strengths != nil {
		ev.Strengths = req.Strengths
	}
	if req.Weaknesses != nil {
		ev.Weaknesses = req.Weaknesses
	}
	if req.Recommendations != nil {
		ev.Recommendations = req.Recommendations
	}
	ev.UpdatedBy = &callerID

	if err := s.repo.Evaluation.Update(ctx, ev); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新评估失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	return toEvaluationResponse(ev), nil
}

// ────────────────────── Submit ──────────────────────

// Submit draft → submitted，持久化成功后向团队投递一次通知
// 通知异步执行，其成败不影响返回结果
func (s *evaluationService) Submit(ctx context.Context, id string, callerID string) (*dto.EvaluationResponse, error) {
	ev, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ev.IsDraft() {
		return nil, ErrEvaluationAlreadySubmitted
	}

	now := time.Now()
	ev.Status = model.EvaluationStatusSubmitted
	ev.SubmittedAt = &now
	ev.UpdatedBy = &callerID

	if err := s.repo.Evaluation.Update(ctx, ev); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("提交评估失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	invalidateLeaderboard(ctx, s.cache, s.logger)
	s.notifier.Dispatch(ctx, ev.TeamID, submittedPayload(ev))

	s.logger.Info("评估已提交",
		zap.String("id", id),
		zap.String("team_id", ev.TeamID),
		zap.Float64("total_score", ev.TotalScore),
	)
	return toEvaluationResponse(ev), nil
}

// ────────────────────── Review ──────────────────────

func (s *evaluationService) Review(ctx context.Context, id string, callerID string) (*dto.EvaluationResponse, error) {
	ev, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev.Status != model.EvaluationStatusSubmitted {
		return nil, ErrEvaluationNotSubmitted
	}

	now := time.Now()
	ev.Status = model.EvaluationStatusReviewed
	ev.ReviewedAt = &now
	ev.ReviewedBy = &callerID
	ev.UpdatedBy = &callerID

	if err := s.repo.Evaluation.Update(ctx, ev); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("复核评估失败", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}

	invalidateLeaderboard(ctx, s.cache, s.logger)
	return toEvaluationResponse(ev), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 不校验状态，任何状态的记录都可删除（软删除）
func (s *evaluationService) Delete(ctx context.Context, id string, callerID string) error {
	if !isEvaluationID(id) {
		return ErrEvaluationNotFound
	}
	if err := s.repo.Evaluation.Delete(ctx, id, callerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEvaluationNotFound
		}
		s.logger.Error("删除评估失败", zap.String("id", id), zap.Error(err))
		return err
	}

	invalidateLeaderboard(ctx, s.cache, s.logger)
	s.logger.Info("评估已删除", zap.String("id", id), zap.String("deleted_by", callerID))
	return nil
}

// ────────────────────── TeamAverage ──────────────────────

func (s *evaluationService) TeamAverage(ctx context.Context, teamID, evaluationType string) (*dto.TeamAverageResponse, error) {
	if evaluationType != "" && !model.IsValidEvaluationType(evaluationType) {
		return nil, ErrInvalidEvaluationType
	}

	avg, count, err := s.repo.Evaluation.TeamAverage(ctx, teamID, evaluationType, model.SubmittedStatuses)
	if err != nil {
		s.logger.Error("计算团队均分失败", zap.String("team_id", teamID), zap.Error(err))
		return nil, err
	}

	return &dto.TeamAverageResponse{
		TeamID:         teamID,
		EvaluationType: evaluationType,
		AvgScore:       roundScore(avg),
		Count:          count,
	}, nil
}

// ── 内部方法 ──

// isEvaluationID 仅接受标准 36 位 UUID；其余格式不可能存在，直接按不存在处理
func isEvaluationID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

func (s *evaluationService) load(ctx context.Context, id string) (*model.Evaluation, error) {
	if !isEvaluationID(id) {
		return nil, ErrEvaluationNotFound
	}
	ev, err := s.repo.Evaluation.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEvaluationNotFound
		}
		s.logger.Error("查询评估失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return ev, nil
}

// submittedPayload 构造提交通知；评审人以通用称谓展示，不暴露身份
func submittedPayload(ev *model.Evaluation) notification.Payload {
	return notification.Payload{
		Type:     notification.TypeEvaluation,
		Priority: notification.PriorityMedium,
		Title:    "新的评估结果",
		Message:  fmt.Sprintf("评审已提交对你们团队的%s评估，总分 %.2f", evaluationTypeLabel(ev.EvaluationType), ev.TotalScore),
		Link:     "/evaluations/" + ev.EvaluationID,
		Metadata: map[string]interface{}{
			"evaluationId":   ev.EvaluationID,
			"teamId":         ev.TeamID,
			"evaluationType": ev.EvaluationType,
			"totalScore":     ev.TotalScore,
		},
	}
}

func evaluationTypeLabel(t string) string {
	switch t {
	case model.EvaluationTypePitch:
		return "路演"
	case model.EvaluationTypeProgress:
		return "进度"
	case model.EvaluationTypeFinal:
		return "终审"
	}
	return t
}

func toCriteria(reqs []dto.CriterionRequest) ([]model.Criterion, error) {
	criteria := make([]model.Criterion, 0, len(reqs))
	for _, r := range reqs {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, ErrCriterionNameRequired
		}
		if r.Score == nil {
			return nil, ErrCriterionScoreRequired
		}
		weight := 1.0
		if r.Weight != nil {
			weight = *r.Weight
		}
		criteria = append(criteria, model.Criterion{
			Name:        name,
			Description: r.Description,
			Score:       *r.Score,
			MaxScore:    r.MaxScore,
			Weight:      weight,
		})
	}
	return criteria, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// ── 响应转换 ──

func toEvaluationResponse(ev *model.Evaluation) *dto.EvaluationResponse {
	criteria := make([]dto.CriterionResponse, 0, len(ev.Criteria))
	for _, c := range ev.Criteria {
		criteria = append(criteria, dto.CriterionResponse{
			Name:        c.Name,
			Description: c.Description,
			Score:       c.Score,
			MaxScore:    c.MaxScore,
			Weight:      c.Weight,
		})
	}

	return &dto.EvaluationResponse{
		ID:              ev.EvaluationID,
		TeamID:          ev.TeamID,
		EventID:         ev.EventID,
		EvaluatorID:     ev.EvaluatorID,
		EvaluationType:  ev.EvaluationType,
		Criteria:        criteria,
		TotalScore:      ev.TotalScore,
		Feedback:        ev.Feedback,
		Strengths:       nonNilStrings(ev.Strengths),
		Weaknesses:      nonNilStrings(ev.Weaknesses),
		Recommendations: nonNilStrings(ev.Recommendations),
		Status:          ev.Status,
		SubmittedAt:     formatTimePtr(ev.SubmittedAt),
		ReviewedAt:      formatTimePtr(ev.ReviewedAt),
		ReviewedBy:      ev.ReviewedBy,
		Version:         ev.Version,
		CreatedAt:       formatTime(ev.CreatedAt),
		UpdatedAt:       formatTime(ev.UpdatedAt),
	}
}

func toEvaluationResponses(list []model.Evaluation) []dto.EvaluationResponse {
	result := make([]dto.EvaluationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toEvaluationResponse(&list[i]))
	}
	return result
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
