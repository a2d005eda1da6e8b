package handlers

import (
	"net/http"
	"testing"

	"vr-eyetracking/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestROIHandlerSaveNormalisesAndGet(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/roi/v1/q1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := gin.H{
		"background_image": "q1.png",
		"regions": gin.H{
			"keywords": []gin.H{{
				"id": "KW_Q1_1", "type": "KW", "task_id": "Q1",
				"normalized_coords": []float64{0.1, 0.2, 0.3, 0.1},
			}},
		},
	}
	rec = f.do(t, http.MethodPut, "/roi/v1/Q1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/roi/v1/q1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg models.ROIConfig
	decode(t, rec, &cfg)
	assert.Equal(t, "q1", cfg.TaskID)
	require.Len(t, cfg.Regions.Keywords, 1)
	kw := cfg.Regions.Keywords[0]
	assert.Equal(t, "kw_q1_1", kw.ID)
	assert.Equal(t, "q1", kw.TaskID)
	assert.Equal(t, "#2196F3", kw.Color)
	assert.Equal(t, "Keyword area", kw.Description)
	assert.NotNil(t, cfg.Regions.Instructions)

	rec = f.do(t, http.MethodGet, "/roi/v1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tasks":["q1"]}`, rec.Body.String())
}

func TestStimulusHandler(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/stimuli/v1/q1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"filename":"q1.png","dimensions":{"width":100,"height":100}}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/stimuli/v1/q2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/stimuli", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"task_id":"q1"`)
}

func TestTrajectoryHandler(t *testing.T) {
	f := newFixture(t)
	f.seedRecording(t, 5)

	rec := f.do(t, http.MethodGet, "/trajectories/control/s01/q1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Points []models.GazePoint `json:"points"`
	}
	decode(t, rec, &got)
	assert.Equal(t, linePoints(5), got.Points)

	rec = f.do(t, http.MethodGet, "/trajectories?task=q1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"s01"`)

	rec = f.do(t, http.MethodGet, "/trajectories/control/s02/q1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/trajectories/control/s02/q1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalibrationHandlerSaveAndRestore(t *testing.T) {
	f := newFixture(t)
	f.seedRecording(t, 10)
	base := "/calibration/control/s01/q1"

	rec := f.do(t, http.MethodGet, base+"/params", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, base, models.CalibrationParams{OffsetX: 0.1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved struct {
		Success bool                      `json:"success"`
		Data    models.CalibrationVersion `json:"data"`
	}
	decode(t, rec, &saved)
	assert.True(t, saved.Success)
	assert.Equal(t, 1, saved.Data.Version)

	rec = f.do(t, http.MethodPost, base, models.CalibrationParams{TrimStart: 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, base+"/data", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Points []models.GazePoint `json:"points"`
	}
	decode(t, rec, &data)
	assert.Len(t, data.Points, 8)

	rec = f.do(t, http.MethodPost, base+"/restore", gin.H{"version": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &saved)
	assert.Equal(t, 3, saved.Data.Version)
	require.NotNil(t, saved.Data.RestoredFromVersion)
	assert.Equal(t, 1, *saved.Data.RestoredFromVersion)

	rec = f.do(t, http.MethodGet, base+"/versions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var versions struct {
		Versions []models.CalibrationVersion `json:"versions"`
	}
	decode(t, rec, &versions)
	require.Len(t, versions.Versions, 3)
	assert.Equal(t, 1, versions.Versions[0].Version)

	rec = f.do(t, http.MethodPost, base+"/restore", gin.H{"version": 9})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCalibrationHandlerRejectsInvalidParams(t *testing.T) {
	f := newFixture(t)
	f.seedRecording(t, 10)

	rec := f.do(t, http.MethodPost, "/calibration/control/s01/q1", models.CalibrationParams{OffsetX: 0.5, OffsetY: -0.5})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Errors []string `json:"errors"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Errors, 2)

	rec = f.do(t, http.MethodPost, "/calibration/control/s09/q1", models.CalibrationParams{OffsetX: 0.1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalysisHandlerAnalyze(t *testing.T) {
	f := newFixture(t)

	body := gin.H{
		"trajectory": []models.GazePoint{
			{X: 0.5, Y: 0.5, Timestamp: 0},
			{X: 0.5, Y: 0.5, Timestamp: 1},
			{X: 0.9, Y: 0.9, Timestamp: 2},
		},
		"regions": []gin.H{{
			"id": "kw_q1_1", "type": "KW", "task_id": "q1",
			"normalized_coords": []float64{0.4, 0.4, 0.2, 0.2},
		}},
	}
	rec := f.do(t, http.MethodPost, "/analysis", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var report struct {
		Stats map[string]models.ROIStat `json:"stats"`
	}
	decode(t, rec, &report)
	st := report.Stats["kw_q1_1"]
	assert.Equal(t, 2, st.PointsInside)
	assert.Equal(t, 0, st.EntryCount, "starting inside is not an entry")
	assert.Equal(t, 1, st.ExitCount)
	assert.InDelta(t, 2.0, st.DurationInside, 1e-9)
	assert.InDelta(t, 2.0/3.0, st.InsideRatio, 1e-9)

	body["regions"] = []gin.H{{"id": "kw_q1_1", "type": "KW", "normalized_coords": []float64{0.4, 0.4, 1.2, 0}}}
	rec = f.do(t, http.MethodPost, "/analysis", body)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAnalysisHandlerStoredWithComparison(t *testing.T) {
	f := newFixture(t)
	f.seedRecording(t, 10)

	rec := f.do(t, http.MethodGet, "/analysis/v1/q1/control/s01?source=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodGet, "/analysis/v1/q1/control/s01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"source":"raw"`)
	assert.NotContains(t, rec.Body.String(), `"comparison"`)

	rec = f.do(t, http.MethodPost, "/calibration/control/s01/q1", models.CalibrationParams{OffsetY: 0.1})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/analysis/v1/q1/control/s01", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"source":"calibrated"`)
	assert.Contains(t, rec.Body.String(), `"comparison"`)
}

func TestChartsHandler(t *testing.T) {
	f := newFixture(t)
	f.seedRecording(t, 10)
	rec := f.do(t, http.MethodPut, "/roi/v1/q1", gin.H{
		"regions": gin.H{"keywords": []gin.H{{
			"id": "kw_q1_1", "type": "KW", "task_id": "q1",
			"normalized_coords": []float64{0.1, 0.2, 0.2, 0.2},
		}}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/charts/v1/q1/control/s01", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var charts struct {
		Source  string         `json:"source"`
		Dwell   map[string]any `json:"dwell"`
		Gaze    map[string]any `json:"gaze"`
		History map[string]any `json:"history"`
	}
	decode(t, rec, &charts)
	assert.Equal(t, "raw", charts.Source)
	assert.Contains(t, charts.Dwell, "series")
	assert.Contains(t, charts.Gaze, "series")
	assert.Contains(t, charts.History, "xAxis")
	assert.Contains(t, rec.Body.String(), "kw_q1_1")
	assert.Contains(t, rec.Body.String(), "rgba(33,150,243,0.15)")

	rec = f.do(t, http.MethodGet, "/charts/v1/q1/control/s99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
