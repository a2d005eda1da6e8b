package metrics

import (
	"sync"

	"vr-eyetracking/internal/models"
)

// signature is a cheap identity for a trajectory: its length and first point.
type signature struct {
	n    int
	x, y float64
}

func signatureOf(points []models.GazePoint) signature {
	if len(points) == 0 {
		return signature{}
	}
	return signature{n: len(points), x: points[0].X, y: points[0].Y}
}

// Snapshot is what the presentation layer renders from.
type Snapshot struct {
	Points  []models.GazePoint        `json:"points"`
	Regions []models.ROIRegion        `json:"regions"`
	Stats   map[string]models.ROIStat `json:"stats"`
	Summary models.ROISummary         `json:"summary"`
}

// Feed holds the displayed trajectory, the region set and their stats, and
// recomputes the stats whenever either input changes.
type Feed struct {
	mu           sync.Mutex
	points       []models.GazePoint
	sig          signature
	regions      []models.ROIRegion
	stats        map[string]models.ROIStat
	summary      models.ROISummary
	onDataChange func([]models.GazePoint)
	onStats      func(Snapshot)
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{stats: map[string]models.ROIStat{}}
}

// OnDataChange registers fn for trajectory changes.
func (f *Feed) OnDataChange(fn func([]models.GazePoint)) {
	f.mu.Lock()
	f.onDataChange = fn
	f.mu.Unlock()
}

// OnStatsChange registers fn for every recompute.
func (f *Feed) OnStatsChange(fn func(Snapshot)) {
	f.mu.Lock()
	f.onStats = fn
	f.mu.Unlock()
}

// SetDisplayData replaces the trajectory when its signature differs from the
// current one. It reports whether anything changed.
func (f *Feed) SetDisplayData(points []models.GazePoint) bool {
	f.mu.Lock()
	sig := signatureOf(points)
	if sig == f.sig && f.points != nil {
		f.mu.Unlock()
		return false
	}
	f.points = models.ClonePoints(points)
	if f.points == nil {
		f.points = []models.GazePoint{}
	}
	f.sig = sig
	snap := f.recomputeLocked()
	onData, onStats := f.onDataChange, f.onStats
	f.mu.Unlock()

	if onData != nil {
		onData(snap.Points)
	}
	if onStats != nil {
		onStats(snap)
	}
	return true
}

// SetRegions replaces the region set and recomputes.
func (f *Feed) SetRegions(regions []models.ROIRegion) {
	f.mu.Lock()
	f.regions = append([]models.ROIRegion(nil), regions...)
	snap := f.recomputeLocked()
	onStats := f.onStats
	f.mu.Unlock()

	if onStats != nil {
		onStats(snap)
	}
}

// Snapshot returns a copy of the current state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Feed) recomputeLocked() Snapshot {
	f.stats = ComputeAllStats(f.points, f.regions)
	f.summary = Summarize(f.regions, f.stats)
	return f.snapshotLocked()
}

func (f *Feed) snapshotLocked() Snapshot {
	stats := make(map[string]models.ROIStat, len(f.stats))
	for k, v := range f.stats {
		stats[k] = v
	}
	return Snapshot{
		Points:  models.ClonePoints(f.points),
		Regions: append([]models.ROIRegion(nil), f.regions...),
		Stats:   stats,
		Summary: f.summary,
	}
}
