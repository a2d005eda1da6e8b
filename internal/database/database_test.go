package database

import (
	"path/filepath"
	"testing"

	"vr-eyetracking/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAndMigrateSQLite(t *testing.T) {
	conf := config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "nested", "gaze.db")}
	db, err := Open(conf, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	require.NoError(t, Migrate(db, zap.NewNop()))
	for _, table := range []string{"roi_config_records", "trajectories", "calibration_versions"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.True(t, db.Migrator().HasIndex("calibration_versions", "idx_calibration_latest"))

	// Migrating twice is harmless.
	assert.NoError(t, Migrate(db, zap.NewNop()))
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}
