package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRespondErrorWritesStatusAndMessage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/billing/create", nil)
	c.Set("request_id", "req-1")

	RespondError(c, http.StatusBadRequest, "Not enough stock for Aspirin.", errors.New("shortage"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status want 400 got %d", w.Code)
	}
	var body struct {
		Success   bool   `json:"success"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body failed: %v", err)
	}
	if body.Success || body.Message != "Not enough stock for Aspirin." || body.RequestID != "req-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query    string
		page     int
		pageSize int
		paged    bool
	}{
		{"", 0, 0, false},
		{"?page=3&page_size=10", 3, 10, true},
		{"?page=0&page_size=10", 1, 10, true},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/api/inventory/all"+tc.query, nil)
		page, pageSize, paged := ParsePagination(c)
		if page != tc.page || pageSize != tc.pageSize || paged != tc.paged {
			t.Fatalf("query %q want (%d,%d,%v) got (%d,%d,%v)", tc.query, tc.page, tc.pageSize, tc.paged, page, pageSize, paged)
		}
	}
}
