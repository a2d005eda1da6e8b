package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"vr-eyetracking/internal/config"
	"vr-eyetracking/internal/database"
	logger "vr-eyetracking/internal/logging"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/router"
	"vr-eyetracking/internal/services"

	"go.uber.org/zap"
)

func main() {
	projectRoot := os.Getenv("GAZE_ROOT")
	if projectRoot == "" {
		projectRoot = "."
	}

	// Load configuration before the logger; it decides where logs go.
	if err := config.Init(projectRoot); err != nil {
		panic("failed to load configuration: " + err.Error())
	}
	conf := config.Get()

	// Initialize Logger
	log, err := logger.Init(logger.Options{
		Directory:  filepath.Join(projectRoot, conf.Logging.Directory),
		MaxSize:    conf.Logging.MaxSize,
		MaxBackups: conf.Logging.MaxBackups,
		MaxAge:     conf.Logging.MaxAge,
		Compress:   conf.Logging.Compress,
		Console:    true,
	})
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	config.Watch(log)

	// Initialize Database
	database.Init(log)

	// Load the stimulus catalog at startup
	catalog, err := models.LoadStimulusCatalog(filepath.Join(projectRoot, conf.Stimuli.Catalog))
	if err != nil {
		log.Fatal("Failed to load stimulus catalog", zap.Error(err))
	}
	log.Info("Stimulus catalog loaded", zap.Int("stimuli", len(catalog.Stimuli)))

	calibrationService := services.NewCalibrationService(log)
	registry := services.NewWorkspaceRegistry(log)
	deps := router.Dependencies{
		Stimuli:     services.NewStimulusService(log, catalog, filepath.Join(projectRoot, conf.Stimuli.ImageDir)),
		Calibration: calibrationService,
		Analysis:    services.NewAnalysisService(log, calibrationService),
		Workspaces:  registry,
	}

	scheduler := services.NewScheduler(log, registry)
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router, passing the logger to it
	r := router.Setup(log, conf, deps)

	server := &http.Server{
		Addr:              ":" + conf.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("Server listening on http://localhost" + server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to run Gin server", zap.Error(err))
		}
	}()

	<-shutdown
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}
