package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/metrics"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/repository"
	"vr-eyetracking/internal/roi"

	"go.uber.org/zap"
)

// Data sources an analysis can run on.
const (
	SourceRaw        = "raw"
	SourceCalibrated = "calibrated"
)

// Report is the ROI analysis of one trajectory against one region set.
type Report struct {
	Source             string                          `json:"source"`
	CalibrationVersion int                             `json:"calibration_version,omitempty"`
	Points             int                             `json:"points"`
	Regions            []models.ROIRegion              `json:"regions"`
	Stats              map[string]models.ROIStat       `json:"stats"`
	Summary            models.ROISummary               `json:"summary"`
	Comparison         *models.Comparison              `json:"comparison,omitempty"`
	GazeMetrics        map[string]metrics.MetricResult `json:"gaze_metrics"`

	// Trajectory is kept for chart rendering and left out of JSON responses.
	Trajectory []models.GazePoint `json:"-"`
}

// Analyze computes a report for points against regions.
func Analyze(points []models.GazePoint, regions []models.ROIRegion) *Report {
	stats := metrics.ComputeAllStats(points, regions)
	return &Report{
		Source:      SourceRaw,
		Points:      len(points),
		Regions:     regions,
		Stats:       stats,
		Summary:     metrics.Summarize(regions, stats),
		GazeMetrics: metrics.CalculateGazeMetrics(points),
		Trajectory:  points,
	}
}

// AnalysisService runs reports over stored recordings and saved ROI configs.
type AnalysisService struct {
	log         *zap.Logger
	calibration *CalibrationService
}

func NewAnalysisService(log *zap.Logger, calibrationService *CalibrationService) *AnalysisService {
	return &AnalysisService{log: log, calibration: calibrationService}
}

// Regions loads the saved regions of a task, or the default background-only
// set when nothing has been saved. Saved task ids are lowercase.
func (s *AnalysisService) Regions(ctx context.Context, version, taskID string) ([]models.ROIRegion, error) {
	taskID = strings.ToLower(taskID)
	cfg, err := repository.GetROIConfig(ctx, version, taskID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Debug("No ROI config saved, using default", zap.String("version", version), zap.String("task", taskID))
		d := roi.NewDefaultConfig(version, taskID, "")
		cfg = &d
	} else if err != nil {
		return nil, fmt.Errorf("failed to load ROI config: %w", err)
	}
	store := roi.NewStore(nil)
	store.Load(*cfg)
	return store.Regions(), nil
}

// AnalyzeStored analyses a stored recording. Source "raw" forces the raw data;
// anything else uses the active calibration when there is one. With a
// calibration present the report also compares raw and calibrated stats.
func (s *AnalysisService) AnalyzeStored(ctx context.Context, version string, key calibration.Key, source string) (*Report, error) {
	regions, err := s.Regions(ctx, version, key.Task)
	if err != nil {
		return nil, err
	}
	raw, err := s.calibration.RawData(ctx, key)
	if err != nil {
		return nil, err
	}

	current, err := s.calibration.LoadParams(ctx, key)
	hasCalibration := err == nil
	if err != nil && !errors.Is(err, calibration.ErrNotFound) {
		return nil, err
	}

	if !hasCalibration || source == SourceRaw {
		report := Analyze(raw, regions)
		if hasCalibration {
			cmp := metrics.Compare(regions, report.Stats, metrics.ComputeAllStats(current.Points, regions))
			report.Comparison = &cmp
		}
		return report, nil
	}

	report := Analyze(current.Points, regions)
	report.Source = SourceCalibrated
	report.CalibrationVersion = current.Version
	cmp := metrics.Compare(regions, metrics.ComputeAllStats(raw, regions), report.Stats)
	report.Comparison = &cmp
	return report, nil
}
