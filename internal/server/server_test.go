package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/sentiment"
	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

func newTestServer() *Server {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	auth := service.NewAuthService(nil, nil, "+91", logger)
	analyzer := service.NewAnalyzer(auth, sentiment.NewLexicon(nil), service.DefaultAnalyzerOptions(), logger)
	return NewServer("0", auth, analyzer, logger)
}

func TestHealth(t *testing.T) {
	s := newTestServer()

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Telegram Sentiment API is running"}`, w.Body.String())
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s := newTestServer()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/groups"},
		{http.MethodPost, "/api/analyze"},
		{http.MethodPost, "/api/logout"},
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{"groupIndex":1}`))
		req.Header.Set("Content-Type", "application/json")
		s.Handler().ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, tc.path)
		assert.JSONEq(t, `{"success":false,"error":"Not authenticated. Please login first."}`, w.Body.String())
	}
}

func TestStatusAndValidation(t *testing.T) {
	s := newTestServer()

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.JSONEq(t, `{"success":true,"authenticated":false}`, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"phoneNumber":"123","code":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"Please send code first"}`, w.Body.String())
}
