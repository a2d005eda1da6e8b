package metrics

import (
	"vr-eyetracking/internal/geometry"
	"vr-eyetracking/internal/models"
)

// ComputeStats measures how a trajectory interacts with one region in a single
// pass. A trajectory that starts inside the region records no entry for that
// first point. Dwell is right-looking: each inside point contributes the gap to
// the next point, so the last inside point adds nothing.
func ComputeStats(trajectory []models.GazePoint, region models.ROIRegion) models.ROIStat {
	stat := models.ROIStat{TotalPoints: len(trajectory)}
	if len(trajectory) == 0 {
		return stat
	}

	wasInside := false
	for i, p := range trajectory {
		isInside := geometry.PointInRect(p.X, p.Y, region.NormalizedCoords)
		if isInside && !wasInside && i > 0 {
			stat.EntryCount++
		}
		if !isInside && wasInside {
			stat.ExitCount++
		}
		if isInside {
			stat.PointsInside++
			if i < len(trajectory)-1 {
				stat.DurationInside += trajectory[i+1].Timestamp - p.Timestamp
			}
		}
		wasInside = isInside
	}

	stat.InsideRatio = float64(stat.PointsInside) / float64(stat.TotalPoints)
	return stat
}

// ComputeAllStats runs ComputeStats for every region independently. Regions may
// overlap and a point may count for several of them.
func ComputeAllStats(trajectory []models.GazePoint, regions []models.ROIRegion) map[string]models.ROIStat {
	stats := make(map[string]models.ROIStat, len(regions))
	for _, region := range regions {
		stats[region.ID] = ComputeStats(trajectory, region)
	}
	return stats
}
