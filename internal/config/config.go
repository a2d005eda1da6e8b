package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Conf holds the application configuration, making it accessible globally.
var Conf *Config

var (
	v  *viper.Viper
	mu sync.RWMutex
)

// Config struct is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Calibration CalibrationConfig `mapstructure:"calibration"`
	Stimuli     StimuliConfig     `mapstructure:"stimuli"`
	Workspace   WorkspaceConfig   `mapstructure:"workspace"`
}

// ServerConfig holds server-related settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	SessionSecret string `mapstructure:"session_secret"`
	// SaveRateLimit is the number of calibration saves/restores allowed per client per minute.
	SaveRateLimit uint `mapstructure:"save_rate_limit"`
	IsDevelopment bool `mapstructure:"is_development"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	// Path is the database file used by the sqlite driver.
	Path string `mapstructure:"path"`
}

// LoggingConfig holds settings for the logger.
type LoggingConfig struct {
	Directory  string `mapstructure:"directory"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// CalibrationConfig tunes the calibration editor.
type CalibrationConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"`
}

// Debounce returns the preview debounce interval.
func (c CalibrationConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// StimuliConfig locates the stimulus catalog and images.
type StimuliConfig struct {
	Catalog  string `mapstructure:"catalog"`
	ImageDir string `mapstructure:"image_dir"`
}

// WorkspaceConfig controls in-memory editing workspaces.
type WorkspaceConfig struct {
	IdleTimeoutMinutes int `mapstructure:"idle_timeout_minutes"`
}

// IdleTimeout returns how long an untouched workspace survives.
func (c WorkspaceConfig) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMinutes) * time.Minute
}

// setDefaults sets the default values for the configuration.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5050")
	v.SetDefault("server.session_secret", "")
	v.SetDefault("server.save_rate_limit", 30)
	v.SetDefault("server.is_development", false)

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "db")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "user")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "gaze-db")
	v.SetDefault("database.path", "data/gaze.db")

	// Logging defaults
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.max_size", 10)   // 10 MB
	v.SetDefault("logging.max_backups", 3) // Keep 3 backups
	v.SetDefault("logging.max_age", 7)     // 7 days
	v.SetDefault("logging.compress", true) // Compress old logs

	v.SetDefault("calibration.debounce_ms", 300)

	v.SetDefault("stimuli.catalog", "config/stimuli.yaml")
	v.SetDefault("stimuli.image_dir", "stimuli")

	v.SetDefault("workspace.idle_timeout_minutes", 60)
}

// Init loads defaults, then config/config.yaml under projectRoot, then GAZE_
// environment variables, each overriding the one before.
func Init(projectRoot string) error {
	nv := viper.New()

	// Set default values
	setDefaults(nv)

	// --- File Configuration ---
	nv.AddConfigPath(filepath.Join(projectRoot, "config"))
	nv.SetConfigName("config")
	nv.SetConfigType("yaml")

	// --- Environment Variable Binding ---
	nv.SetEnvPrefix("GAZE") // e.g., GAZE_SERVER_PORT
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	// It's okay if the file doesn't exist; defaults and env vars will be used.
	if err := nv.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	var conf Config
	if err := nv.Unmarshal(&conf); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	mu.Lock()
	v = nv
	Conf = &conf
	mu.Unlock()
	return nil
}

// Watch reloads Conf whenever the config file changes. The logger is created
// from the loaded config, so watching starts once it exists.
func Watch(log *zap.Logger) {
	mu.RLock()
	cv := v
	mu.RUnlock()
	if cv == nil || cv.ConfigFileUsed() == "" {
		log.Info("No config file in use, hot reload disabled")
		return
	}

	cv.OnConfigChange(func(e fsnotify.Event) {
		log.Info("Configuration file changed, reloading.", zap.String("file", e.Name))
		var conf Config
		if err := cv.Unmarshal(&conf); err != nil {
			log.Error("Error reloading configuration", zap.Error(err))
			return
		}
		mu.Lock()
		Conf = &conf
		mu.Unlock()
	})
	cv.WatchConfig()
	log.Info("Configuration loaded successfully", zap.String("file", cv.ConfigFileUsed()))
}

// Get returns the current configuration snapshot.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return Conf
}
