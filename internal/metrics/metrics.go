package metrics

import (
	"vr-eyetracking/internal/models"
)

// MetricResult is a single derived measure with the number of samples behind it.
type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// CalculateGazeMetrics derives trajectory quality measures that sit next to the
// ROI stats in analysis responses. Measures without enough data are returned
// with Calculated false.
func CalculateGazeMetrics(points []models.GazePoint) map[string]MetricResult {
	return map[string]MetricResult{
		"sampling_rate":        calculateSamplingRate(points),
		"average_velocity":     calculateAverageVelocity(points),
		"velocity_variability": calculateVelocityVariability(points),
		"off_image_ratio":      calculateOffImageRatio(points),
	}
}

// calculateSamplingRate returns samples per second over the recording.
func calculateSamplingRate(points []models.GazePoint) MetricResult {
	duration := models.DurationSeconds(points)
	if duration <= 0 {
		return MetricResult{}
	}
	return MetricResult{
		Value:      float64(len(points)-1) / duration,
		Calculated: true,
		SampleSize: len(points),
	}
}

// calculateOffImageRatio is the share of samples outside [0,1]x[0,1], which
// grows when an offset pushes gaze past the stimulus edge.
func calculateOffImageRatio(points []models.GazePoint) MetricResult {
	if len(points) == 0 {
		return MetricResult{}
	}
	off := 0
	for _, p := range points {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			off++
		}
	}
	return MetricResult{
		Value:      float64(off) / float64(len(points)),
		Calculated: true,
		SampleSize: len(points),
	}
}
