package calibration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"vr-eyetracking/internal/models"

	"go.uber.org/zap"
)

// DefaultDebounce is the idle gap after the last parameter edit before the
// preview is recomputed.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrNoChanges is returned by Save when every parameter is at its default.
	ErrNoChanges = errors.New("no calibration changes to save")
	// ErrSaveInFlight is returned when a save or restore is already running.
	ErrSaveInFlight = errors.New("a calibration save is already in progress")
)

// UpdateKind says why the session emitted an Update.
type UpdateKind string

const (
	UpdatePreview UpdateKind = "preview"
	UpdateReload  UpdateKind = "reload"
	UpdateReset   UpdateKind = "reset"
)

// Update is what the session hands to the chart layer.
type Update struct {
	Kind    UpdateKind               `json:"kind"`
	Points  []models.GazePoint       `json:"points"`
	Params  models.CalibrationParams `json:"params"`
	Version int                      `json:"version,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// Session is the calibration editor of one subject/task. One mutex owns the
// params, the preview and the debounce timer; listeners run outside it.
type Session struct {
	key      Key
	backend  Backend
	log      *zap.Logger
	debounce time.Duration

	mu       sync.Mutex
	original []models.GazePoint
	params   models.CalibrationParams
	preview  []models.GazePoint
	current  *models.CalibrationVersion
	timer    *time.Timer
	gen      uint64
	busy     bool
	listener func(Update)
}

// NewSession starts a session over the raw trajectory original.
func NewSession(key Key, original []models.GazePoint, backend Backend, opts ...Option) *Session {
	s := &Session{
		key:      key,
		backend:  backend,
		log:      zap.NewNop(),
		debounce: DefaultDebounce,
		original: models.ClonePoints(original),
		preview:  models.ClonePoints(original),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnUpdate registers the listener for previews, reloads and resets.
func (s *Session) OnUpdate(fn func(Update)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Key returns the trajectory this session calibrates.
func (s *Session) Key() Key {
	return s.key
}

// Params returns the parameters currently being edited.
func (s *Session) Params() models.CalibrationParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Preview returns a copy of the data last shown to the user.
func (s *Session) Preview() []models.GazePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ClonePoints(s.preview)
}

// Original returns a copy of the raw trajectory.
func (s *Session) Original() []models.GazePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ClonePoints(s.original)
}

// Current returns the active persisted version, if any.
func (s *Session) Current() (models.CalibrationVersion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return models.CalibrationVersion{}, false
	}
	return *s.current, true
}

// Pending reports whether a debounced preview is waiting to fire.
func (s *Session) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// UpdateParam merges one parameter and restarts the debounce timer. The timer is
// shared by every parameter, so edits to different fields coalesce too.
func (s *Session) UpdateParam(key string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := setParam(&s.params, key, value); err != nil {
		return err
	}
	s.armLocked()
	return nil
}

func (s *Session) armLocked() {
	s.stopLocked()
	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen) })
}

// stopLocked cancels the pending timer. Bumping gen also discards a callback
// that already started but has not yet taken the lock.
func (s *Session) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	update := s.recomputeLocked()
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
}

func (s *Session) recomputeLocked() Update {
	s.preview = Transform(s.original, s.params)
	return Update{Kind: UpdatePreview, Points: models.ClonePoints(s.preview), Params: s.params}
}

// Flush runs a pending preview recompute immediately. It reports whether one was pending.
func (s *Session) Flush() bool {
	s.mu.Lock()
	if s.timer == nil {
		s.mu.Unlock()
		return false
	}
	s.stopLocked()
	update := s.recomputeLocked()
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
	return true
}

// Reset zeroes every parameter, drops any pending preview and shows the raw data.
func (s *Session) Reset() {
	s.mu.Lock()
	s.stopLocked()
	s.params = models.CalibrationParams{}
	s.preview = models.ClonePoints(s.original)
	update := Update{Kind: UpdateReset, Points: models.ClonePoints(s.original)}
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
}

// Load fetches the persisted calibration. A subject with none yet keeps the raw
// data and zero params.
func (s *Session) Load(ctx context.Context) error {
	version, points, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.apply(version, points)
	return nil
}

// Versions lists every persisted version, oldest first.
func (s *Session) Versions(ctx context.Context) ([]models.CalibrationVersion, error) {
	versions, err := s.backend.Versions(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to list calibration versions: %w", err)
	}
	return versions, nil
}

// Save validates the current params and persists them as a new version, then
// reloads what the backend stored. A failed save leaves the session untouched.
func (s *Session) Save(ctx context.Context) (models.CalibrationVersion, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return models.CalibrationVersion{}, ErrSaveInFlight
	}
	params := s.params
	if err := Validate(params, models.DurationSeconds(s.original)); err != nil {
		s.mu.Unlock()
		return models.CalibrationVersion{}, err
	}
	if params.IsZero() {
		s.mu.Unlock()
		return models.CalibrationVersion{}, ErrNoChanges
	}
	s.busy = true
	s.mu.Unlock()
	defer s.done()

	saved, err := s.backend.Save(ctx, s.key, params)
	if err != nil {
		s.log.Error("Failed to save calibration", s.fields(zap.Error(err))...)
		return models.CalibrationVersion{}, fmt.Errorf("failed to save calibration: %w", err)
	}
	s.log.Info("Calibration saved", s.fields(zap.Int("version", saved.Version))...)

	if err := s.reload(ctx); err != nil {
		return saved, err
	}
	return saved, nil
}

// RestoreVersion asks the backend to reinstate version's params as a new
// version and reloads the persisted result.
func (s *Session) RestoreVersion(ctx context.Context, version int) (models.CalibrationVersion, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return models.CalibrationVersion{}, ErrSaveInFlight
	}
	s.busy = true
	s.mu.Unlock()
	defer s.done()

	restored, err := s.backend.Restore(ctx, s.key, version)
	if err != nil {
		s.log.Error("Failed to restore calibration", s.fields(zap.Int("version", version), zap.Error(err))...)
		return models.CalibrationVersion{}, fmt.Errorf("failed to restore calibration version %d: %w", version, err)
	}
	s.log.Info("Calibration restored",
		s.fields(zap.Int("from_version", version), zap.Int("version", restored.Version))...)

	if err := s.reload(ctx); err != nil {
		return restored, err
	}
	return restored, nil
}

func (s *Session) done() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

func (s *Session) reload(ctx context.Context) error {
	version, points, err := s.fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload calibration: %w", err)
	}
	s.apply(version, points)
	return nil
}

// fetch loads the active version and its data. Not-found yields (nil, nil, nil).
func (s *Session) fetch(ctx context.Context) (*models.CalibrationVersion, []models.GazePoint, error) {
	version, err := s.backend.LoadParams(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.log.Debug("No calibration stored, using original data", s.fields()...)
		return nil, nil, nil
	}
	if err != nil {
		s.log.Error("Failed to load calibration params", s.fields(zap.Error(err))...)
		return nil, nil, fmt.Errorf("failed to load calibration params: %w", err)
	}

	points, err := s.backend.LoadData(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.log.Debug("No calibrated data stored, using original data", s.fields()...)
		return &version, nil, nil
	}
	if err != nil {
		s.log.Error("Failed to load calibrated data", s.fields(zap.Error(err))...)
		return nil, nil, fmt.Errorf("failed to load calibrated data: %w", err)
	}
	return &version, points, nil
}

func (s *Session) apply(version *models.CalibrationVersion, points []models.GazePoint) {
	s.mu.Lock()
	s.stopLocked()
	update := Update{Kind: UpdateReload}
	if version == nil {
		s.current = nil
		s.params = models.CalibrationParams{}
	} else {
		v := *version
		s.current = &v
		s.params = v.Params
		update.Version = v.Version
	}
	if points == nil {
		points = Transform(s.original, s.params)
	}
	s.preview = models.ClonePoints(points)
	update.Params = s.params
	update.Points = models.ClonePoints(points)
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener(update)
	}
}

// Close stops the debounce timer.
func (s *Session) Close() {
	s.mu.Lock()
	s.stopLocked()
	s.mu.Unlock()
}

func (s *Session) fields(extra ...zap.Field) []zap.Field {
	return append([]zap.Field{
		zap.String("group", s.key.Group),
		zap.String("subject_id", s.key.SubjectID),
		zap.String("task", s.key.Task),
	}, extra...)
}
