package database

import (
	"fmt"
	"os"
	"path/filepath"

	"vr-eyetracking/internal/config"
	logging "vr-eyetracking/internal/logging"
	"vr-eyetracking/internal/models"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database into DB and migrates it. Failure is fatal.
func Init(log *zap.Logger) {
	db, err := Open(config.Get().Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	DB = db

	log.Info("Database connection established successfully.",
		zap.String("driver", db.Dialector.Name()))
	if err := Migrate(DB, log); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
}

// Open connects to postgres or to a sqlite file, depending on conf.Driver.
func Open(conf config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	gormLogger := logging.NewGormZapLogger(log)
	gormLogger.LogLevel = logger.Warn

	var dialector gorm.Dialector
	switch conf.Driver {
	case "", "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			conf.Host, conf.User, conf.Password, conf.DBName, conf.Port)
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dir := filepath.Dir(conf.Path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("could not create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(conf.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", conf.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", conf.Driver, err)
	}
	return db, nil
}

// Migrate creates or updates the tables and the lookup index for the newest
// calibration version.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.ROIConfigRecord{},
		&models.Trajectory{},
		&models.CalibrationVersion{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Info("Database migrations completed successfully.")

	latestIndex := `CREATE INDEX IF NOT EXISTS idx_calibration_latest ON calibration_versions (group_name, subject_id, task, version DESC)`
	if err := db.Exec(latestIndex).Error; err != nil {
		return fmt.Errorf("failed to create custom index on calibration versions: %w", err)
	}
	log.Info("Custom indexes ensured successfully.")
	return nil
}
