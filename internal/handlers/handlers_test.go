package handlers

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"vr-eyetracking/internal/config"
	"vr-eyetracking/internal/database"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	previous := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = previous
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
}

// fixture wires every handler onto a bare engine. Workspace routes share one
// workspace injected directly into the context.
type fixture struct {
	engine    *gin.Engine
	workspace *services.Workspace
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	setupTestDB(t)
	log := zap.NewNop()

	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	img.Set(5, 5, color.Black)
	f, err := os.Create(filepath.Join(dir, "q1.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	catalog := &models.StimulusCatalog{Stimuli: []models.Stimulus{{Version: "v1", TaskID: "q1", Filename: "q1.png"}}}

	stimuli := services.NewStimulusService(log, catalog, dir)
	calibrationService := services.NewCalibrationService(log)
	analysis := services.NewAnalysisService(log, calibrationService)
	registry := services.NewWorkspaceRegistry(log)
	ws := registry.GetOrCreate("")

	roiHandler := NewROIHandler(log)
	stimulusHandler := NewStimulusHandler(log, stimuli)
	trajectoryHandler := NewTrajectoryHandler(log)
	calibrationHandler := NewCalibrationHandler(log, calibrationService)
	analysisHandler := NewAnalysisHandler(log, analysis)
	chartsHandler := NewChartsHandler(log, analysis)
	workspaceHandler := NewWorkspaceHandler(log, stimuli, calibrationService, time.Hour)

	r := gin.New()
	r.GET("/roi/:version/:task", roiHandler.Get)
	r.PUT("/roi/:version/:task", roiHandler.Save)
	r.GET("/roi/:version", roiHandler.ListTasks)
	r.GET("/stimuli", stimulusHandler.List)
	r.GET("/stimuli/:version/:task", stimulusHandler.Metadata)
	r.GET("/trajectories", trajectoryHandler.List)
	r.PUT("/trajectories/:group/:subject/:task", trajectoryHandler.Put)
	r.GET("/trajectories/:group/:subject/:task", trajectoryHandler.Get)
	r.POST("/calibration/:group/:subject/:task", calibrationHandler.Save)
	r.GET("/calibration/:group/:subject/:task/params", calibrationHandler.Params)
	r.GET("/calibration/:group/:subject/:task/data", calibrationHandler.Data)
	r.GET("/calibration/:group/:subject/:task/versions", calibrationHandler.Versions)
	r.POST("/calibration/:group/:subject/:task/restore", calibrationHandler.Restore)
	r.POST("/analysis", analysisHandler.Analyze)
	r.GET("/analysis/:version/:task/:group/:subject", analysisHandler.Stored)
	r.GET("/charts/:version/:task/:group/:subject", chartsHandler.Get)

	w := r.Group("/ws", func(c *gin.Context) { c.Set(WorkspaceKey, ws) })
	w.GET("/feed", workspaceHandler.Feed)
	w.GET("/editor", workspaceHandler.EditorState)
	w.POST("/editor/open", workspaceHandler.OpenEditor)
	w.POST("/editor/mode", workspaceHandler.SetMode)
	w.POST("/editor/pointer", workspaceHandler.Pointer)
	w.POST("/editor/select", workspaceHandler.Select)
	w.GET("/editor/render", workspaceHandler.Render)
	w.PATCH("/editor/regions/:id", workspaceHandler.UpdateRegion)
	w.DELETE("/editor/regions/:id", workspaceHandler.DeleteRegion)
	w.POST("/editor/inline/:id/begin", workspaceHandler.InlineBegin)
	w.POST("/editor/inline/:id/set", workspaceHandler.InlineSet)
	w.POST("/editor/inline/:id/commit", workspaceHandler.InlineCommit)
	w.POST("/editor/inline/:id/cancel", workspaceHandler.InlineCancel)
	w.POST("/editor/save", workspaceHandler.SaveEditor)
	w.POST("/calibration/open", workspaceHandler.OpenCalibration)
	w.POST("/calibration/param", workspaceHandler.SetParam)
	w.GET("/calibration/preview", workspaceHandler.Preview)
	w.GET("/calibration/versions", workspaceHandler.CalibrationVersions)
	w.POST("/calibration/save", workspaceHandler.SaveCalibration)
	w.POST("/calibration/reset", workspaceHandler.ResetCalibration)
	w.POST("/calibration/restore", workspaceHandler.RestoreCalibration)

	return &fixture{engine: r, workspace: ws}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func linePoints(n int) []models.GazePoint {
	points := make([]models.GazePoint, n)
	for i := range points {
		points[i] = models.GazePoint{X: 0.2 + 0.01*float64(i), Y: 0.3, Timestamp: float64(i)}
	}
	return points
}

func (f *fixture) seedRecording(t *testing.T, n int) {
	t.Helper()
	rec := f.do(t, http.MethodPut, "/trajectories/control/s01/q1", gin.H{"points": linePoints(n)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
