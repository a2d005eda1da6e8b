package repository

import (
	"context"
	"fmt"

	"vr-eyetracking/internal/database"
	"vr-eyetracking/internal/models"

	"gorm.io/gorm/clause"
)

// GetROIConfig loads the saved region configuration of a task. A task without
// one yields ErrNotFound.
func GetROIConfig(ctx context.Context, version, taskID string) (*models.ROIConfig, error) {
	var record models.ROIConfigRecord
	err := database.DB.WithContext(ctx).
		Where("version = ? AND task_id = ?", version, taskID).
		First(&record).Error
	if err != nil {
		return nil, notFound(err)
	}
	return record.ToConfig()
}

// SaveROIConfig inserts or replaces the configuration of cfg's version and task.
func SaveROIConfig(ctx context.Context, cfg models.ROIConfig) error {
	record, err := models.NewROIConfigRecord(cfg)
	if err != nil {
		return err
	}
	err = database.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "version"}, {Name: "task_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"background_image", "regions", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return fmt.Errorf("failed to save ROI config %s/%s: %w", cfg.Version, cfg.TaskID, err)
	}
	return nil
}

// ListROITasks returns the task ids with a saved configuration for version.
func ListROITasks(ctx context.Context, version string) ([]string, error) {
	var tasks []string
	err := database.DB.WithContext(ctx).Model(&models.ROIConfigRecord{}).
		Where("version = ?", version).
		Order("task_id").
		Pluck("task_id", &tasks).Error
	return tasks, err
}
