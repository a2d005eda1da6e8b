package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/repository"

	"go.uber.org/zap"
)

// ErrNoRecording is returned when a subject has no raw trajectory stored.
var ErrNoRecording = errors.New("no recording stored")

// CalibrationService is the persistent calibration backend. It materialises
// each version from the stored raw trajectory and appends it to the log.
type CalibrationService struct {
	log *zap.Logger
	now func() time.Time
}

var _ calibration.Backend = (*CalibrationService)(nil)

func NewCalibrationService(log *zap.Logger) *CalibrationService {
	return &CalibrationService{log: log, now: time.Now}
}

// RawData returns the stored, uncalibrated recording.
func (s *CalibrationService) RawData(ctx context.Context, key calibration.Key) ([]models.GazePoint, error) {
	traj, err := repository.GetTrajectory(ctx, key.Group, key.SubjectID, key.Task)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w for %s/%s/%s", ErrNoRecording, key.Group, key.SubjectID, key.Task)
	}
	if err != nil {
		return nil, err
	}
	return traj.Points(), nil
}

// Save validates params against the recording, transforms it and stores the
// result as the next version.
func (s *CalibrationService) Save(ctx context.Context, key calibration.Key, params models.CalibrationParams) (models.CalibrationVersion, error) {
	raw, err := s.RawData(ctx, key)
	if err != nil {
		return models.CalibrationVersion{}, err
	}
	if err := calibration.Validate(params, models.DurationSeconds(raw)); err != nil {
		return models.CalibrationVersion{}, err
	}

	points := calibration.Transform(raw, params)
	v := &models.CalibrationVersion{
		Group:        key.Group,
		SubjectID:    key.SubjectID,
		Task:         key.Task,
		Params:       params,
		CalibratedAt: s.now().UTC(),
		PointsAfter:  len(points),
		Points:       points,
	}
	if err := repository.AppendCalibrationVersion(ctx, v); err != nil {
		return models.CalibrationVersion{}, err
	}

	s.log.Info("Calibration version stored",
		zap.String("group", key.Group),
		zap.String("subject_id", key.SubjectID),
		zap.String("task", key.Task),
		zap.Int("version", v.Version),
		zap.Int("points_before", len(raw)),
		zap.Int("points_after", v.PointsAfter),
	)
	return *v, nil
}

// LoadParams returns the active version.
func (s *CalibrationService) LoadParams(ctx context.Context, key calibration.Key) (models.CalibrationVersion, error) {
	v, err := repository.GetLatestCalibration(ctx, key.Group, key.SubjectID, key.Task)
	if err != nil {
		return models.CalibrationVersion{}, mapNotFound(err)
	}
	return *v, nil
}

// LoadData returns the calibrated points of the active version.
func (s *CalibrationService) LoadData(ctx context.Context, key calibration.Key) ([]models.GazePoint, error) {
	v, err := repository.GetLatestCalibration(ctx, key.Group, key.SubjectID, key.Task)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if v.Points == nil {
		return []models.GazePoint{}, nil
	}
	return v.Points, nil
}

// Versions lists the version log oldest first.
func (s *CalibrationService) Versions(ctx context.Context, key calibration.Key) ([]models.CalibrationVersion, error) {
	return repository.ListCalibrationVersions(ctx, key.Group, key.SubjectID, key.Task)
}

// Restore appends a new version carrying an old version's params and the
// points that version materialised. History is never rewritten.
func (s *CalibrationService) Restore(ctx context.Context, key calibration.Key, version int) (models.CalibrationVersion, error) {
	old, err := repository.GetCalibrationVersion(ctx, key.Group, key.SubjectID, key.Task, version)
	if err != nil {
		return models.CalibrationVersion{}, fmt.Errorf("version %d: %w", version, mapNotFound(err))
	}

	from := old.Version
	v := &models.CalibrationVersion{
		Group:               key.Group,
		SubjectID:           key.SubjectID,
		Task:                key.Task,
		Params:              old.Params,
		CalibratedAt:        s.now().UTC(),
		PointsAfter:         old.PointsAfter,
		RestoredFromVersion: &from,
		Points:              models.ClonePoints(old.Points),
	}
	if err := repository.AppendCalibrationVersion(ctx, v); err != nil {
		return models.CalibrationVersion{}, err
	}

	s.log.Info("Calibration version restored",
		zap.String("group", key.Group),
		zap.String("subject_id", key.SubjectID),
		zap.String("task", key.Task),
		zap.Int("restored_from", from),
		zap.Int("version", v.Version),
	)
	return *v, nil
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return calibration.ErrNotFound
	}
	return err
}
