package models

import "time"

// CalibrationParams is a spatial offset (normalized units) and a temporal trim
// (seconds) applied to a gaze trajectory.
type CalibrationParams struct {
	OffsetX   float64 `json:"offsetX"`
	OffsetY   float64 `json:"offsetY"`
	TrimStart float64 `json:"trimStart"`
	TrimEnd   float64 `json:"trimEnd"`
}

// IsZero reports whether every parameter is exactly its default.
func (p CalibrationParams) IsZero() bool {
	return p.OffsetX == 0 && p.OffsetY == 0 && p.TrimStart == 0 && p.TrimEnd == 0
}

// CalibrationVersion is an immutable snapshot in the append-only calibration log
// of one subject/task.
type CalibrationVersion struct {
	ID                  uint              `gorm:"primaryKey" json:"-"`
	Group               string            `gorm:"column:group_name;uniqueIndex:idx_calibration_version;not null" json:"group"`
	SubjectID           string            `gorm:"uniqueIndex:idx_calibration_version;not null" json:"subject_id"`
	Task                string            `gorm:"uniqueIndex:idx_calibration_version;not null" json:"task"`
	Version             int               `gorm:"uniqueIndex:idx_calibration_version;not null" json:"version"`
	Params              CalibrationParams `gorm:"embedded;embeddedPrefix:param_" json:"params"`
	CalibratedAt        time.Time         `json:"calibrated_at"`
	PointsAfter         int               `json:"points_after"`
	RestoredFromVersion *int              `json:"restored_from_version,omitempty"`
	Points              []GazePoint       `gorm:"serializer:json;type:text" json:"-"`
}
