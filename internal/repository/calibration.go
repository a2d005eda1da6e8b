package repository

import (
	"context"
	"fmt"

	"vr-eyetracking/internal/database"
	"vr-eyetracking/internal/models"

	"gorm.io/gorm"
)

func calibrationScope(group, subjectID, task string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("group_name = ? AND subject_id = ? AND task = ?", group, subjectID, task)
	}
}

// AppendCalibrationVersion numbers v after the newest existing version of its
// subject and task and inserts it. The version log is never updated in place.
func AppendCalibrationVersion(ctx context.Context, v *models.CalibrationVersion) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest int
		err := tx.Model(&models.CalibrationVersion{}).
			Scopes(calibrationScope(v.Group, v.SubjectID, v.Task)).
			Select("COALESCE(MAX(version), 0)").
			Scan(&latest).Error
		if err != nil {
			return fmt.Errorf("failed to read latest calibration version: %w", err)
		}
		v.ID = 0
		v.Version = latest + 1
		if err := tx.Create(v).Error; err != nil {
			return fmt.Errorf("failed to append calibration version: %w", err)
		}
		return nil
	})
}

// GetLatestCalibration returns the active (newest) version, including its
// calibrated points, or ErrNotFound.
func GetLatestCalibration(ctx context.Context, group, subjectID, task string) (*models.CalibrationVersion, error) {
	var v models.CalibrationVersion
	err := database.DB.WithContext(ctx).
		Scopes(calibrationScope(group, subjectID, task)).
		Order("version DESC").
		First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// GetCalibrationVersion returns one version or ErrNotFound.
func GetCalibrationVersion(ctx context.Context, group, subjectID, task string, version int) (*models.CalibrationVersion, error) {
	var v models.CalibrationVersion
	err := database.DB.WithContext(ctx).
		Scopes(calibrationScope(group, subjectID, task)).
		Where("version = ?", version).
		First(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// ListCalibrationVersions returns every version oldest first, without points.
func ListCalibrationVersions(ctx context.Context, group, subjectID, task string) ([]models.CalibrationVersion, error) {
	versions := []models.CalibrationVersion{}
	err := database.DB.WithContext(ctx).
		Scopes(calibrationScope(group, subjectID, task)).
		Omit("points").
		Order("version ASC").
		Find(&versions).Error
	return versions, err
}
