package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplesValueAndScan(t *testing.T) {
	v, err := Samples{0.5, -1, 2.25}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{0.5,-1,2.25}", v)

	var s Samples
	require.NoError(t, s.Scan("{0.5,-1,2.25}"))
	assert.Equal(t, Samples{0.5, -1, 2.25}, s)

	require.NoError(t, s.Scan([]byte("{}")))
	assert.Empty(t, s)

	assert.Equal(t, "float_array", Samples{}.GormDataType())
}

func TestTrajectoryPoints(t *testing.T) {
	points := []GazePoint{{X: 0.1, Y: 0.2, Timestamp: 0}, {X: 0.3, Y: 0.4, Timestamp: 0.5}}
	tr := NewTrajectory("control", "s01", "q1", points)
	assert.Equal(t, points, tr.Points())

	tr.T = tr.T[:1]
	assert.Len(t, tr.Points(), 1, "columns of unequal length are truncated")
}
