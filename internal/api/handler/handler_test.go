package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"

	"github.com/gin-gonic/gin"

	"noafarin/evaluation-service/internal/dto"
	"noafarin/evaluation-service/internal/service"
	"noafarin/evaluation-service/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock EvaluationService ──

type mockEvaluationService struct {
	createResult *dto.EvaluationResponse
	createErr    error
	getResult    *dto.EvaluationResponse
	getErr       error
	listResult   []dto.EvaluationResponse
	listTotal    int64
	listErr      error
	teamResult   []dto.EvaluationResponse
	teamErr      error
	updateResult *dto.EvaluationResponse
	updateErr    error
	submitResult *dto.EvaluationResponse
	submitErr    error
	reviewResult *dto.EvaluationResponse
	reviewErr    error
	deleteErr    error
	avgResult    *dto.TeamAverageResponse
	avgErr       error

	lastListReq  *dto.EvaluationListRequest
	lastCallerID string
}

func (m *mockEvaluationService) Create(_ context.Context, _ *dto.CreateEvaluationRequest, callerID string) (*dto.EvaluationResponse, error) {
	m.lastCallerID = callerID
	return m.createResult, m.createErr
}
func (m *mockEvaluationService) GetByID(_ context.Context, _ string) (*dto.EvaluationResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockEvaluationService) List(_ context.Context, req *dto.EvaluationListRequest) ([]dto.EvaluationResponse, int64, error) {
	m.lastListReq = req
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockEvaluationService) ListByTeam(_ context.Context, _ string) ([]dto.EvaluationResponse, error) {
	return m.teamResult, m.teamErr
}
func (m *mockEvaluationService) Update(_ context.Context, _ string, _ *dto.UpdateEvaluationRequest, _ string) (*dto.EvaluationResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockEvaluationService) Submit(_ context.Context, _ string, _ string) (*dto.EvaluationResponse, error) {
	return m.submitResult, m.submitErr
}
func (m *mockEvaluationService) Review(_ context.Context, _ string, _ string) (*dto.EvaluationResponse, error) {
	return m.reviewResult, m.reviewErr
}
func (m *mockEvaluationService) Delete(_ context.Context, _ string, _ string) error {
	return m.deleteErr
}
func (m *mockEvaluationService) TeamAverage(_ context.Context, _, _ string) (*dto.TeamAverageResponse, error) {
	return m.avgResult, m.avgErr
}

// ── Mock LeaderboardService ──

type mockLeaderboardService struct {
	entries  []dto.LeaderboardEntry
	err      error
	buf      *bytes.Buffer
	filename string
	lastReq  *dto.LeaderboardRequest
}

func (m *mockLeaderboardService) Leaderboard(_ context.Context, req *dto.LeaderboardRequest) ([]dto.LeaderboardEntry, error) {
	m.lastReq = req
	return m.entries, m.err
}
func (m *mockLeaderboardService) Export(_ context.Context, req *dto.LeaderboardRequest) (*bytes.Buffer, string, error) {
	m.lastReq = req
	return m.buf, m.filename, m.err
}

var (
	_ service.EvaluationService  = (*mockEvaluationService)(nil)
	_ service.LeaderboardService = (*mockLeaderboardService)(nil)
)

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

// withAuth 模拟 JWT 中间件注入身份
func withAuth(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "test-user-id")
		c.Set("role", "admin")
		next(c)
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func serve(r *gin.Engine, method, path string, body io.Reader) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}
