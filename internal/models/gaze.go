package models

import (
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// GazePoint is a single gaze sample. X and Y are normalized to the stimulus image,
// Timestamp is in seconds and non-decreasing within a trajectory.
type GazePoint struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp float64 `json:"timestamp"`
}

// Samples is a float column stored as a Postgres double precision array.
type Samples []float64

func (s Samples) Value() (driver.Value, error) {
	return pq.Float64Array(s).Value()
}

func (s *Samples) Scan(src any) error {
	return (*pq.Float64Array)(s).Scan(src)
}

// GormDataType names the column type for gorm's schema parser.
func (Samples) GormDataType() string {
	return "float_array"
}

// GormDBDataType falls back to the array literal stored as text on dialects
// without native arrays.
func (Samples) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "double precision[]"
	}
	return "text"
}

// Trajectory is the raw, uncalibrated gaze recording of one subject on one task.
type Trajectory struct {
	ID        uint    `gorm:"primaryKey"`
	Group     string  `gorm:"column:group_name;uniqueIndex:idx_trajectory_subject_task;not null"`
	SubjectID string  `gorm:"uniqueIndex:idx_trajectory_subject_task;not null"`
	Task      string  `gorm:"uniqueIndex:idx_trajectory_subject_task;not null"`
	X         Samples `gorm:"column:xs"`
	Y         Samples `gorm:"column:ys"`
	T         Samples `gorm:"column:ts"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrajectory splits points into the column layout used for storage.
func NewTrajectory(group, subjectID, task string, points []GazePoint) *Trajectory {
	t := &Trajectory{
		Group:     group,
		SubjectID: subjectID,
		Task:      task,
		X:         make(Samples, len(points)),
		Y:         make(Samples, len(points)),
		T:         make(Samples, len(points)),
	}
	for i, p := range points {
		t.X[i], t.Y[i], t.T[i] = p.X, p.Y, p.Timestamp
	}
	return t
}

// Points reassembles the stored columns. Columns of unequal length are truncated
// to the shortest one.
func (t *Trajectory) Points() []GazePoint {
	n := len(t.X)
	if len(t.Y) < n {
		n = len(t.Y)
	}
	if len(t.T) < n {
		n = len(t.T)
	}
	points := make([]GazePoint, n)
	for i := 0; i < n; i++ {
		points[i] = GazePoint{X: t.X[i], Y: t.Y[i], Timestamp: t.T[i]}
	}
	return points
}

// DurationSeconds returns max(timestamp) - min(timestamp), or 0 for fewer than two points.
func DurationSeconds(points []GazePoint) float64 {
	if len(points) < 2 {
		return 0
	}
	minT, maxT := points[0].Timestamp, points[0].Timestamp
	for _, p := range points[1:] {
		if p.Timestamp < minT {
			minT = p.Timestamp
		}
		if p.Timestamp > maxT {
			maxT = p.Timestamp
		}
	}
	return maxT - minT
}

// ClonePoints returns an independent copy of points.
func ClonePoints(points []GazePoint) []GazePoint {
	if points == nil {
		return nil
	}
	out := make([]GazePoint, len(points))
	copy(out, points)
	return out
}
