package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"noafarin/evaluation-service/config"
	"noafarin/evaluation-service/internal/api/handler"
	"noafarin/evaluation-service/internal/dto"
	"noafarin/evaluation-service/internal/service"
	"noafarin/evaluation-service/pkg/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 桩实现：只关心路由与鉴权，业务结果固定 ──

type stubEvaluationService struct{}

func (stubEvaluationService) Create(context.Context, *dto.CreateEvaluationRequest, string) (*dto.EvaluationResponse, error) {
	return &dto.EvaluationResponse{ID: "eval-1"}, nil
}
func (stubEvaluationService) GetByID(context.Context, string) (*dto.EvaluationResponse, error) {
	return &dto.EvaluationResponse{ID: "eval-1"}, nil
}
func (stubEvaluationService) List(context.Context, *dto.EvaluationListRequest) ([]dto.EvaluationResponse, int64, error) {
	return []dto.EvaluationResponse{}, 0, nil
}
func (stubEvaluationService) ListByTeam(context.Context, string) ([]dto.EvaluationResponse, error) {
	return []dto.EvaluationResponse{}, nil
}
func (stubEvaluationService) Update(context.Context, string, *dto.UpdateEvaluationRequest, string) (*dto.EvaluationResponse, error) {
	return &dto.EvaluationResponse{ID: "eval-1"}, nil
}
func (stubEvaluationService) Submit(context.Context, string, string) (*dto.EvaluationResponse, error) {
	return &dto.EvaluationResponse{ID: "eval-1", Status: "submitted"}, nil
}
func (stubEvaluationService) Review(context.Context, string, string) (*dto.EvaluationResponse, error) {
	return &dto.EvaluationResponse{ID: "eval-1", Status: "reviewed"}, nil
}
func (stubEvaluationService) Delete(context.Context, string, string) error { return nil }
func (stubEvaluationService) TeamAverage(_ context.Context, teamID, _ string) (*dto.TeamAverageResponse, error) {
	return &dto.TeamAverageResponse{TeamID: teamID}, nil
}

type stubLeaderboardService struct{}

func (stubLeaderboardService) Leaderboard(context.Context, *dto.LeaderboardRequest) ([]dto.LeaderboardEntry, error) {
	return []dto.LeaderboardEntry{{Rank: 1, TeamID: "team-a"}}, nil
}
func (stubLeaderboardService) Export(context.Context, *dto.LeaderboardRequest) (*bytes.Buffer, string, error) {
	return bytes.NewBufferString("xlsx"), "排行榜.xlsx", nil
}

func setupRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{BodyLimitBytes: 1 << 20},
		Auth:      config.AuthConfig{JWTSecret: "router-test-secret-0123456789", AccessTokenTTL: time.Minute},
		RateLimit: config.RateLimitConfig{Requests: 60, Window: time.Minute},
		Tracing:   config.TracingConfig{ServiceName: "evaluation-service"},
	}
	jwtMgr := jwt.NewManager(&cfg.Auth)
	h := handler.NewHandler(&service.Service{
		Evaluation:  stubEvaluationService{},
		Leaderboard: stubLeaderboardService{},
	})
	return Setup(cfg, h, jwtMgr, nil, nil, zap.NewNop()), jwtMgr
}

func call(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if method == http.MethodPut || method == http.MethodPost {
		body = bytes.NewReader([]byte(`{}`))
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _ := setupRouter(t)

	w := call(r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("响应应携带 X-Request-ID")
	}
	if !strings.Contains(w.Body.String(), `"redis":"degraded"`) {
		t.Errorf("未配置 Redis 时应标记降级: %s", w.Body.String())
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	r, _ := setupRouter(t)

	w := call(r, http.MethodGet, "/api/v1/evaluations", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestRouter_RolePermissions(t *testing.T) {
	r, jwtMgr := setupRouter(t)
	admin, _ := jwtMgr.GenerateAccessToken("admin-1", "admin")
	judge, _ := jwtMgr.GenerateAccessToken("judge-1", "judge")
	participant, _ := jwtMgr.GenerateAccessToken("user-1", "participant")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"任何角色可查看列表", http.MethodGet, "/api/v1/evaluations", participant, http.StatusOK},
		{"参赛者不能创建", http.MethodPost, "/api/v1/evaluations", participant, http.StatusForbidden},
		{"评审可提交", http.MethodPost, "/api/v1/evaluations/eval-1/submit", judge, http.StatusOK},
		{"评审不能删除", http.MethodDelete, "/api/v1/evaluations/eval-1", judge, http.StatusForbidden},
		{"管理员可删除", http.MethodDelete, "/api/v1/evaluations/eval-1", admin, http.StatusOK},
		{"评审不能复核", http.MethodPost, "/api/v1/evaluations/eval-1/review", judge, http.StatusForbidden},
		{"管理员可复核", http.MethodPost, "/api/v1/evaluations/eval-1/review", admin, http.StatusOK},
		{"评审不能导出", http.MethodGet, "/api/v1/evaluations/leaderboard/export", judge, http.StatusForbidden},
		{"管理员可导出", http.MethodGet, "/api/v1/evaluations/leaderboard/export", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(r, tt.method, tt.path, tt.token)
			if w.Code != tt.want {
				t.Errorf("%s %s 期望 %d，实际 %d: %s", tt.method, tt.path, tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRouter_StaticSegmentsBeatID(t *testing.T) {
	r, jwtMgr := setupRouter(t)
	token, _ := jwtMgr.GenerateAccessToken("user-1", "participant")

	w := call(r, http.MethodGet, "/api/v1/evaluations/leaderboard", token)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"rank":1`)) {
		t.Errorf("/leaderboard 应路由到排行榜: %d %s", w.Code, w.Body.String())
	}

	w = call(r, http.MethodGet, "/api/v1/evaluations/team/team-9/average", token)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"teamId":"team-9"`)) {
		t.Errorf("/team/:teamId/average 路由错误: %d %s", w.Code, w.Body.String())
	}
}
