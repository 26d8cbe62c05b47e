package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Brownie44l1/riceleaf-api/internal/config"
	"github.com/Brownie44l1/riceleaf-api/internal/handlers"
	"github.com/Brownie44l1/riceleaf-api/internal/metrics"
	"github.com/Brownie44l1/riceleaf-api/internal/model"
	"github.com/Brownie44l1/riceleaf-api/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	v := viper.New()
	config.Configure(v)
	v.Set("environment", "test")
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)

	p, err := pipeline.New(pipeline.Options{Composer: pipeline.NewComposer(cfg.ConfidenceThreshold, model.Advisory{})})
	require.NoError(t, err)

	m := metrics.New()
	s.SetupRoutes(handlers.NewHandler(p, nil, m, nil), m)
	return s
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, testConfig(t))
	assert.Equal(t, gin.TestMode, gin.Mode())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/classes", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/predict", http.StatusBadRequest},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Engine().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	_, err := uuid.Parse(rec.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-chosen")
	rec = httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, "client-chosen", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStaticFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>rice</h1>"), 0o644))

	cfg := testConfig(t)
	cfg.PublicDir = dir
	s := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rice")

	rec = httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestGinMode(t *testing.T) {
	assert.Equal(t, gin.DebugMode, getGinMode("dev"))
	assert.Equal(t, gin.TestMode, getGinMode("test"))
	assert.Equal(t, gin.ReleaseMode, getGinMode("prod"))
}
