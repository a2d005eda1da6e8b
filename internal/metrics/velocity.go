package metrics

import (
	"math"
	"sort"

	"vr-eyetracking/internal/models"

	"gonum.org/v1/gonum/stat"
)

const (
	// minGazeStep drops sub-noise jitter between samples, in normalized units.
	minGazeStep = 0.001
	// maxGazeVelocity drops tracker glitches, in image widths per second.
	maxGazeVelocity = 50.0
)

// gazeVelocities returns point-to-point speeds in normalized units per second,
// sorted by time and filtered for noise.
func gazeVelocities(points []models.GazePoint) []float64 {
	if len(points) < 2 {
		return nil
	}
	sorted := models.ClonePoints(points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	velocities := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		dt := sorted[i].Timestamp - sorted[i-1].Timestamp
		if dt <= 0 {
			continue
		}
		distance := math.Hypot(sorted[i].X-sorted[i-1].X, sorted[i].Y-sorted[i-1].Y)
		if distance < minGazeStep {
			continue
		}
		if v := distance / dt; v < maxGazeVelocity {
			velocities = append(velocities, v)
		}
	}
	return velocities
}

// calculateAverageVelocity is a 5% trimmed mean of gaze speed.
func calculateAverageVelocity(points []models.GazePoint) MetricResult {
	velocities := gazeVelocities(points)
	if len(velocities) == 0 {
		return MetricResult{}
	}

	if len(velocities) > 10 {
		sort.Float64s(velocities)
		trimIndex := int(math.Floor(float64(len(velocities)) * 0.05))
		if trimIndex > 0 {
			velocities = velocities[trimIndex : len(velocities)-trimIndex]
		}
	}

	return MetricResult{
		Value:      stat.Mean(velocities, nil),
		Calculated: true,
		SampleSize: len(velocities),
	}
}

// calculateVelocityVariability is the coefficient of variation of gaze speed
// after IQR outlier removal.
func calculateVelocityVariability(points []models.GazePoint) MetricResult {
	velocities := gazeVelocities(points)
	if len(velocities) < 3 {
		return MetricResult{SampleSize: len(velocities)}
	}

	if len(velocities) > 10 {
		sort.Float64s(velocities)
		q1 := stat.Quantile(0.25, stat.Empirical, velocities, nil)
		q3 := stat.Quantile(0.75, stat.Empirical, velocities, nil)
		iqr := q3 - q1
		lower, upper := q1-1.5*iqr, q3+1.5*iqr

		filtered := make([]float64, 0, len(velocities))
		for _, v := range velocities {
			if v >= lower && v <= upper {
				filtered = append(filtered, v)
			}
		}
		// Keep the unfiltered set if the fences removed most of it.
		if len(filtered) > len(velocities)/2 {
			velocities = filtered
		}
	}

	mean, std := stat.MeanStdDev(velocities, nil)
	if mean == 0 {
		return MetricResult{SampleSize: len(velocities)}
	}
	return MetricResult{
		Value:      std / mean,
		Calculated: true,
		SampleSize: len(velocities),
	}
}
