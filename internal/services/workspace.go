package services

import (
	"image"
	"sync"
	"time"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/metrics"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/roi"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workspace is one browser's editing state: an ROI editor, a calibration
// session and the analysis feed both of them drive. Handlers mutate it only
// through Do, which serialises access.
type Workspace struct {
	ID string

	mu       sync.Mutex
	lastUsed time.Time

	Editor        *roi.Editor
	EditorVersion string
	Calibration   *calibration.Session
	Feed          *metrics.Feed
}

// Do runs fn with the workspace locked.
func (w *Workspace) Do(fn func(w *Workspace) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastUsed = time.Now()
	return fn(w)
}

// OpenEditor replaces the editor and streams its regions into the feed.
// Callers hold the workspace lock.
func (w *Workspace) OpenEditor(version string, cfg models.ROIConfig, background image.Image, dims models.ImageDimensions) *roi.Editor {
	editor := roi.NewEditor(cfg, background, dims)
	editor.Store.OnChange(w.Feed.SetRegions)
	w.Feed.SetRegions(editor.Store.Regions())
	w.Editor = editor
	w.EditorVersion = version
	return editor
}

// OpenCalibration replaces the calibration session and streams its previews
// and reloads into the feed. Callers hold the workspace lock.
func (w *Workspace) OpenCalibration(session *calibration.Session) {
	if w.Calibration != nil {
		w.Calibration.Close()
	}
	session.OnUpdate(func(u calibration.Update) {
		w.Feed.SetDisplayData(u.Points)
	})
	w.Feed.SetDisplayData(session.Preview())
	w.Calibration = session
}

func (w *Workspace) idleSince(now time.Time) time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return now.Sub(w.lastUsed)
}

func (w *Workspace) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.Calibration != nil {
		w.Calibration.Close()
	}
}

// WorkspaceRegistry owns every live workspace.
type WorkspaceRegistry struct {
	log   *zap.Logger
	mu    sync.Mutex
	items map[string]*Workspace
}

func NewWorkspaceRegistry(log *zap.Logger) *WorkspaceRegistry {
	return &WorkspaceRegistry{log: log, items: make(map[string]*Workspace)}
}

// Get returns an existing workspace.
func (r *WorkspaceRegistry) Get(id string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.items[id]
	return w, ok
}

// GetOrCreate returns the workspace with id, creating a fresh one under a new
// id when it does not exist.
func (r *WorkspaceRegistry) GetOrCreate(id string) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.items[id]; ok {
		return w
	}
	w := &Workspace{
		ID:       uuid.NewString(),
		lastUsed: time.Now(),
		Feed:     metrics.NewFeed(),
	}
	r.items[w.ID] = w
	r.log.Debug("Workspace created", zap.String("workspace_id", w.ID))
	return w
}

// Remove closes and forgets a workspace.
func (r *WorkspaceRegistry) Remove(id string) {
	r.mu.Lock()
	w, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if ok {
		w.close()
	}
}

// Len returns the number of live workspaces.
func (r *WorkspaceRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// EvictIdle removes workspaces untouched for longer than maxIdle and returns
// how many were removed.
func (r *WorkspaceRegistry) EvictIdle(maxIdle time.Duration) int {
	now := time.Now()
	r.mu.Lock()
	var stale []*Workspace
	for id, w := range r.items {
		if w.idleSince(now) > maxIdle {
			stale = append(stale, w)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	for _, w := range stale {
		w.close()
		r.log.Debug("Workspace evicted", zap.String("workspace_id", w.ID))
	}
	return len(stale)
}
