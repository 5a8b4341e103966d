package service

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"noafarin/evaluation-service/internal/model"
	pkgerrors "noafarin/evaluation-service/pkg/errors"
)

func TestComputeTotalScore(t *testing.T) {
	tests := []struct {
		name     string
		criteria []model.Criterion
		want     float64
	}{
		{
			name: "等权平均",
			criteria: []model.Criterion{
				{Name: "a", Score: 80, MaxScore: 100, Weight: 1},
				{Name: "b", Score: 60, MaxScore: 100, Weight: 1},
			},
			want: 70,
		},
		{
			name: "加权平均保留两位小数",
			criteria: []model.Criterion{
				{Name: "a", Score: 90, MaxScore: 100, Weight: 2},
				{Name: "b", Score: 50, MaxScore: 100, Weight: 1},
			},
			want: 76.67,
		},
		{
			name: "不同满分换算为百分制",
			criteria: []model.Criterion{
				{Name: "a", Score: 8, MaxScore: 10, Weight: 1},
				{Name: "b", Score: 3, MaxScore: 5, Weight: 1},
			},
			want: 70,
		},
		{
			name: "极大权重不溢出",
			criteria: []model.Criterion{
				{Name: "a", Score: 100, MaxScore: 100, Weight: 1e308},
				{Name: "b", Score: 100, MaxScore: 100, Weight: 1e308},
			},
			want: 100,
		},
		{
			name: "极大权重按比例加权",
			criteria: []model.Criterion{
				{Name: "a", Score: 90, MaxScore: 100, Weight: 1e308},
				{Name: "b", Score: 50, MaxScore: 100, Weight: 5e307},
			},
			want: 76.67,
		},
		{name: "空列表为 0", criteria: nil, want: 0},
		{
			name: "权重之和为 0",
			criteria: []model.Criterion{
				{Name: "a", Score: 80, MaxScore: 100, Weight: 0},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotalScore(tt.criteria)
			if err != nil {
				t.Fatalf("不应返回错误: %v", err)
			}
			if got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestComputeTotalScore_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		c       model.Criterion
		wantErr error
	}{
		{"满分为 0", model.Criterion{Score: 0, MaxScore: 0, Weight: 1}, ErrInvalidMaxScore},
		{"满分为负", model.Criterion{Score: 1, MaxScore: -5, Weight: 1}, ErrInvalidMaxScore},
		{"满分为 NaN", model.Criterion{Score: 1, MaxScore: math.NaN(), Weight: 1}, ErrInvalidMaxScore},
		{"得分为负", model.Criterion{Score: -1, MaxScore: 10, Weight: 1}, ErrNegativeScore},
		{"权重为负", model.Criterion{Score: 1, MaxScore: 10, Weight: -1}, ErrNegativeWeight},
		{"得分超过满分", model.Criterion{Score: 11, MaxScore: 10, Weight: 1}, ErrScoreExceedsMax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotalScore([]model.Criterion{tt.c})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
			if !errors.Is(err, pkgerrors.ErrValidation) {
				t.Errorf("应归类为校验错误: %v", err)
			}
			if math.IsNaN(got) {
				t.Error("不应返回 NaN")
			}
		})
	}
}

func TestComputeTotalScore_AlwaysWithinRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		n := rng.Intn(6)
		criteria := make([]model.Criterion, 0, n)
		for j := 0; j < n; j++ {
			maxScore := 1 + rng.Float64()*99
			criteria = append(criteria, model.Criterion{
				Name:     "c",
				Score:    rng.Float64() * maxScore,
				MaxScore: maxScore,
				Weight:   math.Pow(10, rng.Float64()*616-308),
			})
		}
		got, err := ComputeTotalScore(criteria)
		if err != nil {
			t.Fatalf("合法输入不应报错: %v", err)
		}
		if math.IsNaN(got) || got < 0 || got > 100 {
			t.Fatalf("总分越界: %v (criteria=%+v)", got, criteria)
		}
	}
}
