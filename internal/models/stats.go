package models

// ROIStat is the interaction of one trajectory with one region. It is derived
// and never persisted.
type ROIStat struct {
	EntryCount     int     `json:"entry_count"`
	ExitCount      int     `json:"exit_count"`
	PointsInside   int     `json:"points_inside"`
	TotalPoints    int     `json:"total_points"`
	InsideRatio    float64 `json:"inside_ratio"`
	DurationInside float64 `json:"duration_inside"`
}

// LayerSummary aggregates stats across the regions of one layer.
type LayerSummary struct {
	Regions        int     `json:"regions"`
	DurationInside float64 `json:"duration_inside"`
	EntryCount     int     `json:"entry_count"`
	PointsInside   int     `json:"points_inside"`
	MeanDuration   float64 `json:"mean_duration"`
	StdDuration    float64 `json:"std_duration"`
}

// ROISummary is the aggregate view consumed by the comparison panels.
type ROISummary struct {
	Keywords         LayerSummary `json:"keywords"`
	Instructions     LayerSummary `json:"instructions"`
	Background       LayerSummary `json:"background"`
	Total            LayerSummary `json:"total"`
	TotalFeatures    int          `json:"total_features"`
	SignificantCount int          `json:"significant_count"`
}

// Layer returns the summary bucket for t.
func (s *ROISummary) Layer(t RegionType) *LayerSummary {
	switch t {
	case RegionKeyword:
		return &s.Keywords
	case RegionInstruction:
		return &s.Instructions
	default:
		return &s.Background
	}
}

// RegionDelta compares one region's dwell between raw and calibrated data.
type RegionDelta struct {
	RegionID           string     `json:"region_id"`
	Type               RegionType `json:"type"`
	RawDuration        float64    `json:"raw_duration"`
	CalibratedDuration float64    `json:"calibrated_duration"`
	DurationDelta      float64    `json:"duration_delta"`
	RawEntries         int        `json:"raw_entries"`
	CalibratedEntries  int        `json:"calibrated_entries"`
	Significant        bool       `json:"significant"`
}

// Comparison is the raw-versus-calibrated view of a region set.
type Comparison struct {
	Regions          []RegionDelta `json:"regions"`
	TotalFeatures    int           `json:"total_features"`
	SignificantCount int           `json:"significant_count"`
}
