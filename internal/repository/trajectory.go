package repository

import (
	"context"
	"fmt"
	"time"

	"vr-eyetracking/internal/database"
	"vr-eyetracking/internal/models"

	"gorm.io/gorm/clause"
)

// TrajectorySummary is one row of the recording list.
type TrajectorySummary struct {
	Group        string    `json:"group"`
	SubjectID    string    `json:"subject_id"`
	Task         string    `json:"task"`
	UpdatedAt    time.Time `json:"updated_at"`
	Calibrations int       `json:"calibrations"`
}

// SaveTrajectory stores the raw recording, replacing any earlier upload for the
// same subject and task.
func SaveTrajectory(ctx context.Context, t *models.Trajectory) error {
	err := database.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_name"}, {Name: "subject_id"}, {Name: "task"}},
		DoUpdates: clause.AssignmentColumns([]string{"xs", "ys", "ts", "updated_at"}),
	}).Create(t).Error
	if err != nil {
		return fmt.Errorf("failed to save trajectory %s/%s/%s: %w", t.Group, t.SubjectID, t.Task, err)
	}
	return nil
}

// GetTrajectory loads a raw recording or returns ErrNotFound.
func GetTrajectory(ctx context.Context, group, subjectID, task string) (*models.Trajectory, error) {
	var t models.Trajectory
	err := database.DB.WithContext(ctx).
		Where("group_name = ? AND subject_id = ? AND task = ?", group, subjectID, task).
		First(&t).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &t, nil
}

// ListTrajectories summarises the recordings of a task with their number of
// calibration versions. An empty task lists every recording.
func ListTrajectories(ctx context.Context, task string) ([]TrajectorySummary, error) {
	var rows []TrajectorySummary
	query := `
		SELECT
			t.group_name AS "group",
			t.subject_id,
			t.task,
			t.updated_at,
			COUNT(c.id) AS calibrations
		FROM trajectories t
		LEFT JOIN calibration_versions c
			ON c.group_name = t.group_name AND c.subject_id = t.subject_id AND c.task = t.task
		WHERE ? = '' OR t.task = ?
		GROUP BY t.group_name, t.subject_id, t.task, t.updated_at
		ORDER BY t.group_name, t.subject_id, t.task
	`
	err := database.DB.WithContext(ctx).Raw(query, task, task).Scan(&rows).Error
	return rows, err
}
