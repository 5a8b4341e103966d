package service

import (
	"fmt"
	"math"

	"noafarin/evaluation-service/internal/model"
	pkgerrors "noafarin/evaluation-service/pkg/errors"
)

// ── 评分标准校验错误 ──

var (
	ErrInvalidMaxScore = fmt.Errorf("%w: 评分标准满分必须大于 0", pkgerrors.ErrValidation)
	ErrNegativeScore   = fmt.Errorf("%w: 评分标准得分不能为负数", pkgerrors.ErrValidation)
	ErrNegativeWeight  = fmt.Errorf("%w: 评分标准权重不能为负数", pkgerrors.ErrValidation)
	ErrScoreExceedsMax = fmt.Errorf("%w: 评分标准得分不能超过满分", pkgerrors.ErrValidation)
)

// ComputeTotalScore 计算加权百分制总分
//
//	total = Σ(score/maxScore × 100 × weight) / Σweight
//
// 空列表或权重之和为 0 时返回 0；调用方需自行区分「没有评分标准」。
// 结果保留两位小数，任一满分 ≤ 0 时返回校验错误而不是 NaN。
// 权重先按最大权重归一化，极大的有限权重也不会溢出为 Inf。
func ComputeTotalScore(criteria []model.Criterion) (float64, error) {
	var maxWeight float64
	for i, c := range criteria {
		if err := validateCriterion(c); err != nil {
			return 0, fmt.Errorf("%w (第 %d 项 %q)", err, i+1, c.Name)
		}
		maxWeight = math.Max(maxWeight, c.Weight)
	}
	if maxWeight == 0 {
		return 0, nil
	}

	var weighted, weightSum float64
	for _, c := range criteria {
		w := c.Weight / maxWeight
		weighted += c.Score / c.MaxScore * 100 * w
		weightSum += w
	}
	return roundScore(weighted / weightSum), nil
}

func validateCriterion(c model.Criterion) error {
	// !(x > 0) 同时拦截 NaN
	if !(c.MaxScore > 0) || math.IsInf(c.MaxScore, 0) {
		return ErrInvalidMaxScore
	}
	if !(c.Score >= 0) {
		return ErrNegativeScore
	}
	if !(c.Weight >= 0) || math.IsInf(c.Weight, 0) {
		return ErrNegativeWeight
	}
	if c.Score > c.MaxScore {
		return ErrScoreExceedsMax
	}
	return nil
}

// roundScore 四舍五入到两位小数
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
