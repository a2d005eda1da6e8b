package repository

import (
	"context"
	"time"

	"vr-eyetracking/internal/database"
)

// CalibrationTimelinePoint is one version in the calibration history chart.
type CalibrationTimelinePoint struct {
	Version      int       `json:"version"`
	CalibratedAt time.Time `json:"calibrated_at"`
	OffsetX      float64   `json:"offset_x"`
	OffsetY      float64   `json:"offset_y"`
	TrimStart    float64   `json:"trim_start"`
	TrimEnd      float64   `json:"trim_end"`
	PointsAfter  int       `json:"points_after"`
}

// GetCalibrationTimeline returns the parameters of every version of a
// subject/task, oldest first, without loading the stored points.
func GetCalibrationTimeline(ctx context.Context, group, subjectID, task string) ([]CalibrationTimelinePoint, error) {
	var data []CalibrationTimelinePoint
	query := `
		SELECT
			c.version,
			c.calibrated_at,
			c.param_offset_x AS offset_x,
			c.param_offset_y AS offset_y,
			c.param_trim_start AS trim_start,
			c.param_trim_end AS trim_end,
			c.points_after
		FROM calibration_versions c
		WHERE c.group_name = ? AND c.subject_id = ? AND c.task = ?
		ORDER BY c.version
	`
	err := database.DB.WithContext(ctx).Raw(query, group, subjectID, task).Scan(&data).Error
	return data, err
}
