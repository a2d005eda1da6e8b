// Package calibration applies spatial offset and temporal trim corrections to
// gaze trajectories and manages the editing session around them.
package calibration

import "vr-eyetracking/internal/models"

// Transform offsets then trims points. It always returns a new slice and never
// modifies its input. Both steps run for every call, so zero params go through
// the same path as any other calibration.
func Transform(points []models.GazePoint, params models.CalibrationParams) []models.GazePoint {
	shifted := Offset(points, params.OffsetX, params.OffsetY)
	return Trim(shifted, params.TrimStart, params.TrimEnd)
}

// Offset translates every point by (dx, dy). Results are not clipped to [0,1].
func Offset(points []models.GazePoint, dx, dy float64) []models.GazePoint {
	out := make([]models.GazePoint, len(points))
	for i, p := range points {
		out[i] = models.GazePoint{X: p.X + dx, Y: p.Y + dy, Timestamp: p.Timestamp}
	}
	return out
}

// Trim keeps the points whose timestamp lies in [min+start, max-end] and rebases
// the survivors so the earliest is at 0. With no trim every point is kept as is.
func Trim(points []models.GazePoint, start, end float64) []models.GazePoint {
	out := make([]models.GazePoint, 0, len(points))
	if len(points) == 0 {
		return out
	}

	minT, maxT := timeBounds(points)
	lo, hi := minT+start, maxT-end
	for _, p := range points {
		if p.Timestamp >= lo && p.Timestamp <= hi {
			out = append(out, p)
		}
	}

	if (start > 0 || end > 0) && len(out) > 0 {
		base, _ := timeBounds(out)
		for i := range out {
			out[i].Timestamp -= base
		}
	}
	return out
}

func timeBounds(points []models.GazePoint) (float64, float64) {
	minT, maxT := points[0].Timestamp, points[0].Timestamp
	for _, p := range points[1:] {
		if p.Timestamp < minT {
			minT = p.Timestamp
		}
		if p.Timestamp > maxT {
			maxT = p.Timestamp
		}
	}
	return minT, maxT
}
