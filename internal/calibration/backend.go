package calibration

import (
	"context"
	"errors"

	"vr-eyetracking/internal/models"
)

// ErrNotFound is returned by a Backend when a subject has no calibration yet.
// It is a normal outcome, not a failure.
var ErrNotFound = errors.New("calibration not found")

// Key identifies the trajectory a calibration belongs to.
type Key struct {
	Group     string `json:"group"`
	SubjectID string `json:"subject_id"`
	Task      string `json:"task"`
}

// Backend persists calibration versions. Implementations apply Transform to the
// stored raw trajectory when saving and return ErrNotFound (possibly wrapped)
// when there is nothing stored.
type Backend interface {
	Save(ctx context.Context, key Key, params models.CalibrationParams) (models.CalibrationVersion, error)
	LoadParams(ctx context.Context, key Key) (models.CalibrationVersion, error)
	LoadData(ctx context.Context, key Key) ([]models.GazePoint, error)
	Versions(ctx context.Context, key Key) ([]models.CalibrationVersion, error)
	Restore(ctx context.Context, key Key, version int) (models.CalibrationVersion, error)
}
