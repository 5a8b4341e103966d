package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"noafarin/evaluation-service/internal/model"
	"noafarin/evaluation-service/internal/repository"
	pkgerrors "noafarin/evaluation-service/pkg/errors"
	"noafarin/evaluation-service/pkg/notification"
)

// ── Mock EvaluationRepository ──

type mockEvaluationRepo struct {
	evaluations map[string]*model.Evaluation
	seq         int
	lookups     int
	// 排行榜查询返回前触发，用于模拟并发写入
	afterLeaderboardQuery func()
	// 非 nil 时所有写操作返回该错误
	writeErr error
}

func newMockEvaluationRepo() *mockEvaluationRepo {
	return &mockEvaluationRepo{evaluations: make(map[string]*model.Evaluation)}
}

// clone 模拟数据库读写的值语义，避免测试间共享指针
func cloneEvaluation(ev *model.Evaluation) *model.Evaluation {
	c := *ev
	c.Criteria = append([]model.Criterion(nil), ev.Criteria...)
	c.Strengths = append([]string(nil), ev.Strengths...)
	c.Weaknesses = append([]string(nil), ev.Weaknesses...)
	c.Recommendations = append([]string(nil), ev.Recommendations...)
	return &c
}

func (m *mockEvaluationRepo) Create(_ context.Context, ev *model.Evaluation) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.seq++
	if ev.EvaluationID == "" {
		ev.EvaluationID = uuid.NewString()
	}
	now := time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	ev.CreatedAt = now
	ev.UpdatedAt = now
	m.evaluations[ev.EvaluationID] = cloneEvaluation(ev)
	return nil
}

func (m *mockEvaluationRepo) GetByID(_ context.Context, id string) (*model.Evaluation, error) {
	m.lookups++
	if ev, ok := m.evaluations[id]; ok {
		return cloneEvaluation(ev), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEvaluationRepo) List(_ context.Context, filter repository.EvaluationFilter, offset, limit int) ([]model.Evaluation, int64, error) {
	var matched []model.Evaluation
	for _, ev := range m.evaluations {
		if filter.TeamID != "" && ev.TeamID != filter.TeamID {
			continue
		}
		if filter.EvaluatorID != "" && ev.EvaluatorID != filter.EvaluatorID {
			continue
		}
		if filter.EvaluationType != "" && ev.EvaluationType != filter.EvaluationType {
			continue
		}
		if filter.Status != "" && ev.Status != filter.Status {
			continue
		}
		matched = append(matched, *cloneEvaluation(ev))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.Evaluation{}, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *mockEvaluationRepo) ListByTeam(ctx context.Context, teamID string) ([]model.Evaluation, error) {
	list, _, err := m.List(ctx, repository.EvaluationFilter{TeamID: teamID}, 0, len(m.evaluations))
	return list, err
}

func (m *mockEvaluationRepo) Update(_ context.Context, ev *model.Evaluation) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	stored, ok := m.evaluations[ev.EvaluationID]
	if !ok || stored.Version != ev.Version {
		return pkgerrors.ErrOptimisticLock
	}
	ev.Version++
	ev.UpdatedAt = time.Now()
	m.evaluations[ev.EvaluationID] = cloneEvaluation(ev)
	return nil
}

func (m *mockEvaluationRepo) Delete(_ context.Context, id string, _ string) error {
	m.lookups++
	if m.writeErr != nil {
		return m.writeErr
	}
	if _, ok := m.evaluations[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.evaluations, id)
	return nil
}

func (m *mockEvaluationRepo) TeamAverage(_ context.Context, teamID, evaluationType string, statuses []string) (float64, int64, error) {
	var sum float64
	var count int64
	for _, ev := range m.evaluations {
		if ev.TeamID != teamID || !containsString(statuses, ev.Status) {
			continue
		}
		if evaluationType != "" && ev.EvaluationType != evaluationType {
			continue
		}
		sum += ev.TotalScore
		count++
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

func (m *mockEvaluationRepo) ListForLeaderboard(_ context.Context, evaluationType string, statuses []string) ([]repository.ScoreRow, error) {
	var rows []repository.ScoreRow
	for _, ev := range m.evaluations {
		if !containsString(statuses, ev.Status) {
			continue
		}
		if evaluationType != "" && ev.EvaluationType != evaluationType {
			continue
		}
		rows = append(rows, repository.ScoreRow{TeamID: ev.TeamID, TotalScore: ev.TotalScore, CreatedAt: ev.CreatedAt})
	}
	if m.afterLeaderboardQuery != nil {
		m.afterLeaderboardQuery()
	}
	return rows, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ── Mock Notifier ──

type dispatchCall struct {
	UserID  string
	Payload notification.Payload
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []dispatchCall
}

func (n *mockNotifier) Dispatch(_ context.Context, userID string, p notification.Payload) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, dispatchCall{UserID: userID, Payload: p})
}

func (n *mockNotifier) Calls() []dispatchCall {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]dispatchCall(nil), n.calls...)
}

// ── Fake LeaderboardCache ──

type fakeCache struct {
	data     map[string][]byte
	getErr   error
	deleteFn func(prefix string) error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *fakeCache) DeleteByPrefix(_ context.Context, prefix string) error {
	if c.deleteFn != nil {
		return c.deleteFn(prefix)
	}
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}
