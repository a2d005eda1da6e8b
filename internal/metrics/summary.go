package metrics

import (
	"math"

	"vr-eyetracking/internal/models"

	"gonum.org/v1/gonum/stat"
)

// SignificanceRatio is the share of samples a region must hold, or the change in
// that share between raw and calibrated data, for it to count as significant.
const SignificanceRatio = 0.05

// Summarize reduces per-region stats into per-layer and overall totals. Regions
// missing from stats are skipped.
func Summarize(regions []models.ROIRegion, stats map[string]models.ROIStat) models.ROISummary {
	var summary models.ROISummary
	durations := map[models.RegionType][]float64{}
	var all []float64

	for _, region := range regions {
		s, ok := stats[region.ID]
		if !ok {
			continue
		}
		for _, layer := range []*models.LayerSummary{summary.Layer(region.Type), &summary.Total} {
			layer.Regions++
			layer.DurationInside += s.DurationInside
			layer.EntryCount += s.EntryCount
			layer.PointsInside += s.PointsInside
		}
		durations[region.Type] = append(durations[region.Type], s.DurationInside)
		all = append(all, s.DurationInside)

		summary.TotalFeatures++
		if s.InsideRatio >= SignificanceRatio {
			summary.SignificantCount++
		}
	}

	for _, t := range models.RegionTypes {
		summary.Layer(t).MeanDuration, summary.Layer(t).StdDuration = meanStd(durations[t])
	}
	summary.Total.MeanDuration, summary.Total.StdDuration = meanStd(all)
	return summary
}

// meanStd returns the mean and sample standard deviation, with a zero deviation
// for fewer than two values.
func meanStd(values []float64) (float64, float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

// Compare lines up raw and calibrated stats for each region. A region is
// significant when its inside ratio moved by at least SignificanceRatio.
func Compare(regions []models.ROIRegion, raw, calibrated map[string]models.ROIStat) models.Comparison {
	cmp := models.Comparison{Regions: make([]models.RegionDelta, 0, len(regions))}
	for _, region := range regions {
		r, c := raw[region.ID], calibrated[region.ID]
		delta := models.RegionDelta{
			RegionID:           region.ID,
			Type:               region.Type,
			RawDuration:        r.DurationInside,
			CalibratedDuration: c.DurationInside,
			DurationDelta:      c.DurationInside - r.DurationInside,
			RawEntries:         r.EntryCount,
			CalibratedEntries:  c.EntryCount,
			Significant:        math.Abs(c.InsideRatio-r.InsideRatio) >= SignificanceRatio,
		}
		cmp.Regions = append(cmp.Regions, delta)
		cmp.TotalFeatures++
		if delta.Significant {
			cmp.SignificantCount++
		}
	}
	return cmp
}
