package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return m
}

func TestOKPage_TotalPages(t *testing.T) {
	tests := []struct {
		total     int64
		pageSize  int
		wantPages float64
	}{
		{0, 10, 0},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		OKPage(c, []string{}, tt.total, 1, tt.pageSize)

		m := decode(t, w)
		if m["success"] != true {
			t.Errorf("期望 success=true")
		}
		if m["totalPages"] != tt.wantPages {
			t.Errorf("total=%d pageSize=%d 期望 totalPages=%v，实际=%v", tt.total, tt.pageSize, tt.wantPages, m["totalPages"])
		}
		if m["total"] != float64(tt.total) {
			t.Errorf("期望 total=%d，实际=%v", tt.total, m["total"])
		}
	}
}

func TestError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	NotFound(c, 30001, "评估记录不存在")

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
	m := decode(t, w)
	if m["success"] != false {
		t.Error("期望 success=false")
	}
	if m["error"] != "评估记录不存在" {
		t.Errorf("error 字段不一致: %v", m["error"])
	}
	if _, ok := m["data"]; ok {
		t.Error("错误响应不应包含 data")
	}
}
