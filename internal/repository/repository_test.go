package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vr-eyetracking/internal/config"
	"vr-eyetracking/internal/database"
	"vr-eyetracking/internal/geometry"
	"vr-eyetracking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// setupTestDB points database.DB at a fresh sqlite file for the test.
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

func TestROIConfigRoundTrip(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, err := GetROIConfig(ctx, "v1", "q1")
	assert.ErrorIs(t, err, ErrNotFound)

	cfg := models.ROIConfig{
		Version:         "v1",
		TaskID:          "q1",
		BackgroundImage: "q1.png",
		Regions: models.ROIRegions{
			Keywords: []models.ROIRegion{{
				ID: "kw_q1_1", Type: models.RegionKeyword, TaskID: "q1",
				NormalizedCoords: geometry.NormalizedRect{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.1},
				Color:            "#2196F3", Name: "Keyword 1", Description: "Keyword area",
			}},
			Instructions: []models.ROIRegion{},
			Background:   []models.ROIRegion{},
		},
	}
	require.NoError(t, SaveROIConfig(ctx, cfg))

	loaded, err := GetROIConfig(ctx, "v1", "q1")
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)

	// Saving again replaces rather than duplicates.
	cfg.Regions.Keywords = nil
	cfg.BackgroundImage = "q1-v2.png"
	require.NoError(t, SaveROIConfig(ctx, cfg))
	loaded, err = GetROIConfig(ctx, "v1", "q1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Regions.Keywords)
	assert.Equal(t, "q1-v2.png", loaded.BackgroundImage)

	tasks, err := ListROITasks(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, tasks)
}

func TestTrajectoryRoundTrip(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	points := []models.GazePoint{{X: 0.1, Y: 0.2, Timestamp: 0}, {X: 0.15, Y: 0.25, Timestamp: 0.5}}
	require.NoError(t, SaveTrajectory(ctx, models.NewTrajectory("control", "s01", "q1", points)))

	stored, err := GetTrajectory(ctx, "control", "s01", "q1")
	require.NoError(t, err)
	assert.Equal(t, points, stored.Points())

	replacement := append(points, models.GazePoint{X: 0.3, Y: 0.3, Timestamp: 1})
	require.NoError(t, SaveTrajectory(ctx, models.NewTrajectory("control", "s01", "q1", replacement)))
	stored, err = GetTrajectory(ctx, "control", "s01", "q1")
	require.NoError(t, err)
	assert.Len(t, stored.Points(), 3)

	_, err = GetTrajectory(ctx, "control", "s02", "q1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCalibrationVersionsAppend(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	_, err := GetLatestCalibration(ctx, "control", "s01", "q1")
	assert.ErrorIs(t, err, ErrNotFound)

	for i, offset := range []float64{0.1, 0.2, 0.3} {
		v := &models.CalibrationVersion{
			Group: "control", SubjectID: "s01", Task: "q1",
			Params:       models.CalibrationParams{OffsetX: offset},
			CalibratedAt: time.Now().UTC(),
			Points:       []models.GazePoint{{X: offset, Y: 0, Timestamp: 0}},
			PointsAfter:  1,
		}
		require.NoError(t, AppendCalibrationVersion(ctx, v))
		assert.Equal(t, i+1, v.Version)
	}
	// Another subject has its own numbering.
	other := &models.CalibrationVersion{Group: "control", SubjectID: "s02", Task: "q1", CalibratedAt: time.Now()}
	require.NoError(t, AppendCalibrationVersion(ctx, other))
	assert.Equal(t, 1, other.Version)

	latest, err := GetLatestCalibration(ctx, "control", "s01", "q1")
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Version)
	assert.InDelta(t, 0.3, latest.Params.OffsetX, 1e-12)
	require.Len(t, latest.Points, 1)
	assert.InDelta(t, 0.3, latest.Points[0].X, 1e-12)

	first, err := GetCalibrationVersion(ctx, "control", "s01", "q1", 1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, first.Params.OffsetX, 1e-12)
	_, err = GetCalibrationVersion(ctx, "control", "s01", "q1", 9)
	assert.ErrorIs(t, err, ErrNotFound)

	versions, err := ListCalibrationVersions(ctx, "control", "s01", "q1")
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
	}

	rows, err := ListTrajectories(ctx, "q1")
	require.NoError(t, err)
	assert.Empty(t, rows, "versions without a stored recording are not listed")
}

func TestListTrajectoriesCountsCalibrations(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, SaveTrajectory(ctx, models.NewTrajectory("control", "s01", "q1", nil)))
	require.NoError(t, SaveTrajectory(ctx, models.NewTrajectory("patient", "s07", "q2", nil)))
	require.NoError(t, AppendCalibrationVersion(ctx, &models.CalibrationVersion{
		Group: "control", SubjectID: "s01", Task: "q1", CalibratedAt: time.Now(),
	}))

	rows, err := ListTrajectories(ctx, "q1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "control", rows[0].Group)
	assert.Equal(t, 1, rows[0].Calibrations)

	all, err := ListTrajectories(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCalibrationTimeline(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	for _, p := range []models.CalibrationParams{{OffsetX: 0.1}, {OffsetY: -0.2, TrimStart: 1.5}} {
		require.NoError(t, AppendCalibrationVersion(ctx, &models.CalibrationVersion{
			Group: "control", SubjectID: "s01", Task: "q1",
			Params: p, CalibratedAt: time.Now().UTC(), PointsAfter: 7,
		}))
	}

	data, err := GetCalibrationTimeline(ctx, "control", "s01", "q1")
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, 1, data[0].Version)
	assert.InDelta(t, 0.1, data[0].OffsetX, 1e-12)
	assert.Equal(t, 2, data[1].Version)
	assert.InDelta(t, -0.2, data[1].OffsetY, 1e-12)
	assert.InDelta(t, 1.5, data[1].TrimStart, 1e-12)
	assert.Equal(t, 7, data[1].PointsAfter)

	empty, err := GetCalibrationTimeline(ctx, "control", "s02", "q1")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTrajectorySamplesEncoding(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()

	// Calibrated data may leave [0, 1]; values must survive exactly.
	points := []models.GazePoint{
		{X: -0.125, Y: 1.05, Timestamp: 0},
		{X: 0.1 + 0.2, Y: 1e-7, Timestamp: 0.016666666666666666},
		{X: 0.999999, Y: 0.5, Timestamp: 12.5},
	}
	require.NoError(t, SaveTrajectory(ctx, models.NewTrajectory("control", "s03", "q2", points)))

	stored, err := GetTrajectory(ctx, "control", "s03", "q2")
	require.NoError(t, err)
	assert.Equal(t, points, stored.Points())

	var xs string
	require.NoError(t, database.DB.Raw(
		"SELECT xs FROM trajectories WHERE subject_id = ?", "s03").Row().Scan(&xs))
	assert.Equal(t, "{-0.125,0.30000000000000004,0.999999}", xs)

	require.NoError(t, SaveTrajectory(ctx, models.NewTrajectory("control", "s04", "q2", nil)))
	empty, err := GetTrajectory(ctx, "control", "s04", "q2")
	require.NoError(t, err)
	assert.Empty(t, empty.Points())
}
