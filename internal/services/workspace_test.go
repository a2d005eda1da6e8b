package services

import (
	"testing"
	"time"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/roi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryGetOrCreate(t *testing.T) {
	r := NewWorkspaceRegistry(zap.NewNop())

	w := r.GetOrCreate("")
	require.NotEmpty(t, w.ID)
	assert.Same(t, w, r.GetOrCreate(w.ID))

	other := r.GetOrCreate("forged-id")
	assert.NotEqual(t, "forged-id", other.ID, "ids are always server generated")
	assert.Equal(t, 2, r.Len())

	r.Remove(w.ID)
	_, ok := r.Get(w.ID)
	assert.False(t, ok)
}

func TestRegistryEvictIdle(t *testing.T) {
	r := NewWorkspaceRegistry(zap.NewNop())
	stale := r.GetOrCreate("")
	fresh := r.GetOrCreate("")
	stale.lastUsed = time.Now().Add(-2 * time.Hour)

	assert.Equal(t, 1, r.EvictIdle(time.Hour))
	_, ok := r.Get(stale.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSchedulerEvictsWithConfiguredTimeout(t *testing.T) {
	r := NewWorkspaceRegistry(zap.NewNop())
	w := r.GetOrCreate("")
	w.lastUsed = time.Now().Add(-3 * time.Hour)

	NewScheduler(zap.NewNop(), r).runIdleCheck()
	assert.Equal(t, 0, r.Len())
}

func TestWorkspaceFeedFollowsEditorAndCalibration(t *testing.T) {
	r := NewWorkspaceRegistry(zap.NewNop())
	w := r.GetOrCreate("")

	err := w.Do(func(w *Workspace) error {
		editor := w.OpenEditor("v1", roi.NewDefaultConfig("v1", "q1", ""), nil, models.ImageDimensions{Width: 100, Height: 100})
		assert.Len(t, w.Feed.Snapshot().Regions, 1)

		raw := []models.GazePoint{{X: 0.5, Y: 0.5, Timestamp: 0}, {X: 0.55, Y: 0.5, Timestamp: 1}}
		w.OpenCalibration(calibration.NewSession(calibration.Key{Task: "q1"}, raw, nil, calibration.WithDebounce(time.Hour)))
		assert.Len(t, w.Feed.Snapshot().Points, 2)
		assert.Equal(t, 2, w.Feed.Snapshot().Stats["BG_q1"].PointsInside)

		require.NoError(t, editor.Canvas.SetMode(models.RegionKeyword))
		editor.Canvas.PointerDown(40, 40)
		out := editor.Canvas.PointerUp(60, 60)
		require.NotNil(t, out.Added)
		assert.Equal(t, 2, w.Feed.Snapshot().Stats[out.Added.ID].PointsInside)

		require.NoError(t, w.Calibration.UpdateParam(calibration.ParamOffsetX, 0.3))
		require.True(t, w.Calibration.Flush())
		assert.Equal(t, 0, w.Feed.Snapshot().Stats[out.Added.ID].PointsInside)
		return nil
	})
	require.NoError(t, err)
}
