package router

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"vr-eyetracking/internal/config"
	"vr-eyetracking/internal/database"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T, saveLimit uint) (*gin.Engine, *services.WorkspaceRegistry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")}, log)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, log))
	previous := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = previous
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	conf := &config.Config{
		Server:      config.ServerConfig{SessionSecret: "test-secret", SaveRateLimit: saveLimit, IsDevelopment: true},
		Calibration: config.CalibrationConfig{DebounceMS: 300},
	}
	calibrationService := services.NewCalibrationService(log)
	registry := services.NewWorkspaceRegistry(log)
	r := Setup(log, conf, Dependencies{
		Stimuli:     services.NewStimulusService(log, &models.StimulusCatalog{}, t.TempDir()),
		Calibration: calibrationService,
		Analysis:    services.NewAnalysisService(log, calibrationService),
		Workspaces:  registry,
	})
	return r, registry
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndSecurityHeaders(t *testing.T) {
	r, _ := setupRouter(t, 10)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "6f1c2f55-2b9f-4a39-8d2e-3c9b1f0a7e11")
	rec = serve(r, req)
	assert.Equal(t, "6f1c2f55-2b9f-4a39-8d2e-3c9b1f0a7e11", rec.Header().Get("X-Request-ID"))
}

func TestInvalidPathParamsRejected(t *testing.T) {
	r, _ := setupRouter(t, 10)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/roi/v1/bad%20task", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/api/roi/v1/q1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWorkspaceSessionAndCSRF(t *testing.T) {
	r, registry := setupRouter(t, 10)

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/workspace/feed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	// Each session save appends a Set-Cookie; the last one carries the full state.
	latest := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		latest[c.Name] = c
	}
	require.Contains(t, latest, sessionName)
	assert.Equal(t, 1, registry.Len())

	withCookies := func(req *http.Request) *http.Request {
		for _, c := range latest {
			req.AddCookie(c)
		}
		return req
	}

	// Same session, same workspace.
	rec = serve(r, withCookies(httptest.NewRequest(http.MethodGet, "/api/workspace/feed", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, registry.Len())

	rec = serve(r, withCookies(httptest.NewRequest(http.MethodPost, "/api/workspace/calibration/reset", nil)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := withCookies(httptest.NewRequest(http.MethodPost, "/api/workspace/calibration/reset", nil))
	req.Header.Set("X-CSRF-Token", token)
	rec = serve(r, req)
	assert.Equal(t, http.StatusConflict, rec.Code, "no calibration session is open")
}

func TestCalibrationSaveIsRateLimited(t *testing.T) {
	r, _ := setupRouter(t, 1)

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/calibration/control/s01/q1", strings.NewReader(`{"offsetX":0.1}`))
		req.Header.Set("Content-Type", "application/json")
		return serve(r, req).Code
	}
	assert.Equal(t, http.StatusNotFound, post(), "no recording stored")
	assert.Equal(t, http.StatusTooManyRequests, post())

	// Reads are not limited.
	for i := 0; i < 3; i++ {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/calibration/control/s01/q1/versions", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
