package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"noafarin/evaluation-service/config"
	"noafarin/evaluation-service/internal/dto"
	"noafarin/evaluation-service/internal/model"
	"noafarin/evaluation-service/internal/repository"
)

// ── 排行榜模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

const (
	leaderboardCachePrefix = "leaderboard:"

	// 缓存代号：每次失效换新值，旧代号下的迟到写入不会再被读到
	leaderboardGenerationKey = "leaderboard-generation"
)

// LeaderboardCache 排行榜结果缓存（由 pkg/redis.Client 实现）
type LeaderboardCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// LeaderboardService 排行榜业务接口
//
// 设计说明：
//   - 仅统计 submitted / reviewed 的评估，草稿不参与排名
//   - 同分按 teamId 升序，保证结果稳定
//   - 结果按 (代号, 类型, limit) 缓存，提交、复核、删除时更换代号并清除旧缓存
type LeaderboardService interface {
	Leaderboard(ctx context.Context, req *dto.LeaderboardRequest) ([]dto.LeaderboardEntry, error)
	// Export 导出排行榜为 Excel，返回内容与建议文件名
	Export(ctx context.Context, req *dto.LeaderboardRequest) (*bytes.Buffer, string, error)
}

type leaderboardService struct {
	repo   *repository.Repository
	cache  LeaderboardCache
	cfg    config.LeaderboardConfig
	logger *zap.Logger
}

// NewLeaderboardService 创建 LeaderboardService 实例
func NewLeaderboardService(cfg *config.LeaderboardConfig, repo *repository.Repository, cache LeaderboardCache, logger *zap.Logger) LeaderboardService {
	return &leaderboardService{repo: repo, cache: cache, cfg: *cfg, logger: logger}
}

// ────────────────────── Leaderboard ──────────────────────

func (s *leaderboardService) Leaderboard(ctx context.Context, req *dto.LeaderboardRequest) ([]dto.LeaderboardEntry, error) {
	if req.EvaluationType != "" && !model.IsValidEvaluationType(req.EvaluationType) {
		return nil, ErrInvalidEvaluationType
	}
	limit := s.clampLimit(req.Limit)

	// 代号读取失败时本次不读也不写缓存
	var key string
	if s.cache != nil {
		generation, err := leaderboardGeneration(ctx, s.cache)
		if err != nil {
			s.logger.Warn("读取排行榜缓存代号失败，回源查询", zap.Error(err))
		} else {
			key = leaderboardCacheKey(generation, req.EvaluationType, limit)
		}
	}

	if key != "" {
		var cached []dto.LeaderboardEntry
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("读取排行榜缓存失败，回源查询", zap.String("key", key), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	rows, err := s.repo.Evaluation.ListForLeaderboard(ctx, req.EvaluationType, model.SubmittedStatuses)
	if err != nil {
		s.logger.Error("查询排行榜数据失败", zap.String("evaluation_type", req.EvaluationType), zap.Error(err))
		return nil, err
	}
	entries := RankTeams(rows, limit)

	if key != "" && s.cfg.CacheTTL > 0 {
		if err := s.cache.SetJSON(ctx, key, entries, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("写入排行榜缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
	return entries, nil
}

func (s *leaderboardService) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return limit
}

// RankTeams 按团队聚合并排名
// avgScore 降序，同分按 teamId 升序；rank 从 1 开始；结果截断到 limit
func RankTeams(rows []repository.ScoreRow, limit int) []dto.LeaderboardEntry {
	type agg struct {
		sum, max, min float64
		count         int64
		latest        time.Time
	}

	byTeam := make(map[string]*agg)
	for _, row := range rows {
		a, ok := byTeam[row.TeamID]
		if !ok {
			byTeam[row.TeamID] = &agg{
				sum:    row.TotalScore,
				max:    row.TotalScore,
				min:    row.TotalScore,
				count:  1,
				latest: row.CreatedAt,
			}
			continue
		}
		a.sum += row.TotalScore
		a.count++
		if row.TotalScore > a.max {
			a.max = row.TotalScore
		}
		if row.TotalScore < a.min {
			a.min = row.TotalScore
		}
		if row.CreatedAt.After(a.latest) {
			a.latest = row.CreatedAt
		}
	}

	entries := make([]dto.LeaderboardEntry, 0, len(byTeam))
	for teamID, a := range byTeam {
		entries = append(entries, dto.LeaderboardEntry{
			TeamID:           teamID,
			AvgScore:         roundScore(a.sum / float64(a.count)),
			MaxScore:         a.max,
			MinScore:         a.min,
			EvaluationCount:  a.count,
			LatestEvaluation: formatTime(a.latest),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AvgScore != entries[j].AvgScore {
			return entries[i].AvgScore > entries[j].AvgScore
		}
		return entries[i].TeamID < entries[j].TeamID
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// ═══════════════════════════════════════════════════════════
// Export 导出排行榜为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单个 Sheet「排行榜」
//   - 第 1 行标题（合并单元格），第 2 行表头
//   - 数据行：排名 / 团队 / 平均分 / 最高分 / 最低分 / 评估次数 / 最近评估时间

func (s *leaderboardService) Export(ctx context.Context, req *dto.LeaderboardRequest) (*bytes.Buffer, string, error) {
	entries, err := s.Leaderboard(ctx, req)
	if err != nil {
		return nil, "", err
	}

	scope := "全部"
	if req.EvaluationType != "" {
		scope = evaluationTypeLabel(req.EvaluationType)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "排行榜"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headers := []string{"排名", "团队", "平均分", "最高分", "最低分", "评估次数", "最近评估时间"}
	widths := []float64{8, 24, 12, 12, 12, 12, 24}
	for i, w := range widths {
		col := colName(i)
		f.SetColWidth(sheetName, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("团队排行榜（%s）", scope))
	f.MergeCell(sheetName, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(headers)-1), 2), headerStyle)

	// 数据行
	row := 3
	for _, e := range entries {
		f.SetCellValue(sheetName, cell("A", row), e.Rank)
		f.SetCellValue(sheetName, cell("B", row), e.TeamID)
		f.SetCellValue(sheetName, cell("C", row), e.AvgScore)
		f.SetCellValue(sheetName, cell("D", row), e.MaxScore)
		f.SetCellValue(sheetName, cell("E", row), e.MinScore)
		f.SetCellValue(sheetName, cell("F", row), e.EvaluationCount)
		f.SetCellValue(sheetName, cell("G", row), e.LatestEvaluation)
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("排行榜_%s_%s.xlsx", scope, time.Now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func leaderboardCacheKey(generation, evaluationType string, limit int) string {
	if evaluationType == "" {
		evaluationType = "all"
	}
	return fmt.Sprintf("%s%s:%s:%d", leaderboardCachePrefix, generation, evaluationType, limit)
}

// leaderboardGeneration 读取当前缓存代号，从未失效过时为 "0"
func leaderboardGeneration(ctx context.Context, cache LeaderboardCache) (string, error) {
	var generation string
	hit, err := cache.GetJSON(ctx, leaderboardGenerationKey, &generation)
	if err != nil {
		return "", err
	}
	if !hit || generation == "" {
		return "0", nil
	}
	return generation, nil
}

// invalidateLeaderboard 更换缓存代号并清除旧缓存；失败只记录日志，缓存会在 TTL 后自然过期
// 与失效并发、读到旧数据的查询只会写入旧代号的键，不会被后续读取命中
func invalidateLeaderboard(ctx context.Context, cache LeaderboardCache, logger *zap.Logger) {
	if cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, leaderboardGenerationKey, uuid.NewString(), 0); err != nil {
		logger.Warn("更新排行榜缓存代号失败", zap.Error(err))
	}
	if err := cache.DeleteByPrefix(ctx, leaderboardCachePrefix); err != nil {
		logger.Warn("清除排行榜缓存失败", zap.Error(err))
	}
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
