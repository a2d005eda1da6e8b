package metrics

import (
	"testing"

	"vr-eyetracking/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedForwardsOnlyNewTrajectories(t *testing.T) {
	f := NewFeed()
	var forwarded int
	f.OnDataChange(func([]models.GazePoint) { forwarded++ })

	points := []models.GazePoint{{X: 0.1, Y: 0.1, Timestamp: 0}, {X: 0.2, Y: 0.2, Timestamp: 1}}
	assert.True(t, f.SetDisplayData(points))
	assert.False(t, f.SetDisplayData(models.ClonePoints(points)), "same signature")

	shifted := models.ClonePoints(points)
	shifted[0].X += 0.1
	assert.True(t, f.SetDisplayData(shifted))
	assert.True(t, f.SetDisplayData(points[:1]), "length change")
	assert.Equal(t, 3, forwarded)
}

func TestFeedRecomputesOnRegionChange(t *testing.T) {
	f := NewFeed()
	var snaps []Snapshot
	f.OnStatsChange(func(s Snapshot) { snaps = append(snaps, s) })

	f.SetDisplayData([]models.GazePoint{{X: 0.1, Y: 0.1, Timestamp: 0}, {X: 0.15, Y: 0.15, Timestamp: 1}})
	kw := region("KW_q1_1", models.RegionKeyword, 0, 0, 0.2, 0.2)
	f.SetRegions([]models.ROIRegion{kw})

	require.Len(t, snaps, 2)
	assert.Empty(t, snaps[0].Stats)
	assert.Equal(t, 2, snaps[1].Stats[kw.ID].PointsInside)
	assert.Equal(t, 1, snaps[1].Summary.Keywords.Regions)

	f.SetRegions(nil)
	assert.Empty(t, f.Snapshot().Stats)
}

func TestFeedEmptyTrajectory(t *testing.T) {
	f := NewFeed()
	assert.True(t, f.SetDisplayData(nil))
	assert.False(t, f.SetDisplayData([]models.GazePoint{}))

	f.SetRegions([]models.ROIRegion{region("BG_q1", models.RegionBackground, 0, 0, 1, 1)})
	snap := f.Snapshot()
	assert.Equal(t, models.ROIStat{}, snap.Stats["BG_q1"])
}
