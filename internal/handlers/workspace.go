package handlers

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"strings"
	"time"

	"vr-eyetracking/internal/calibration"
	"vr-eyetracking/internal/models"
	"vr-eyetracking/internal/repository"
	"vr-eyetracking/internal/roi"
	"vr-eyetracking/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WorkspaceKey is the gin context key the workspace middleware stores under.
const WorkspaceKey = "workspace"

// WorkspaceHandler drives the ROI editor and calibration session of the
// caller's workspace.
type WorkspaceHandler struct {
	log         *zap.Logger
	stimuli     *services.StimulusService
	calibration *services.CalibrationService
	debounce    time.Duration
}

func NewWorkspaceHandler(log *zap.Logger, stimuli *services.StimulusService, calibrationService *services.CalibrationService, debounce time.Duration) *WorkspaceHandler {
	return &WorkspaceHandler{log: log, stimuli: stimuli, calibration: calibrationService, debounce: debounce}
}

func workspaceFrom(c *gin.Context) *services.Workspace {
	return c.MustGet(WorkspaceKey).(*services.Workspace)
}

// withEditor runs fn under the workspace lock with the open editor.
func (h *WorkspaceHandler) withEditor(c *gin.Context, fn func(w *services.Workspace, e *roi.Editor) error) error {
	return workspaceFrom(c).Do(func(w *services.Workspace) error {
		if w.Editor == nil {
			return errNoEditor
		}
		return fn(w, w.Editor)
	})
}

// withCalibration runs fn under the workspace lock with the open session.
func (h *WorkspaceHandler) withCalibration(c *gin.Context, fn func(w *services.Workspace, s *calibration.Session) error) error {
	return workspaceFrom(c).Do(func(w *services.Workspace) error {
		if w.Calibration == nil {
			return errNoCalibration
		}
		return fn(w, w.Calibration)
	})
}

type editorState struct {
	WorkspaceID string                 `json:"workspace_id"`
	Version     string                 `json:"version"`
	Config      models.ROIConfig       `json:"config"`
	Mode        models.RegionType      `json:"mode"`
	State       string                 `json:"state"`
	Selected    string                 `json:"selected"`
	Dirty       bool                   `json:"dirty"`
	Dimensions  models.ImageDimensions `json:"dimensions"`
}

func stateOf(w *services.Workspace) editorState {
	e := w.Editor
	vp := e.Canvas.Viewport()
	return editorState{
		WorkspaceID: w.ID,
		Version:     w.EditorVersion,
		Config:      e.Store.Config(),
		Mode:        e.Session.Mode,
		State:       e.Session.State.String(),
		Selected:    e.Session.Selected,
		Dirty:       e.Session.Dirty,
		Dimensions:  models.ImageDimensions{Width: int(vp.ImageWidth), Height: int(vp.ImageHeight)},
	}
}

type openEditorBody struct {
	Version string `json:"version" binding:"required"`
	Task    string `json:"task" binding:"required"`
}

// OpenEditor loads the saved regions of a task, or the default set, onto a
// canvas sized to the stimulus image.
func (h *WorkspaceHandler) OpenEditor(c *gin.Context) {
	var body openEditorBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	img, meta, err := h.stimuli.Image(body.Version, body.Task)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	ctx := c.Request.Context()
	cfg, err := repository.GetROIConfig(ctx, body.Version, strings.ToLower(body.Task))
	if errors.Is(err, repository.ErrNotFound) {
		d := roi.NewDefaultConfig(body.Version, body.Task, meta.Filename)
		cfg = &d
	} else if err != nil {
		respondError(c, h.log, err)
		return
	}
	if cfg.BackgroundImage == "" {
		cfg.BackgroundImage = meta.Filename
	}

	var state editorState
	_ = workspaceFrom(c).Do(func(w *services.Workspace) error {
		w.OpenEditor(body.Version, *cfg, img, meta.Dimensions)
		state = stateOf(w)
		return nil
	})
	h.log.Info("ROI editor opened",
		zap.String("workspace_id", state.WorkspaceID),
		zap.String("version", body.Version), zap.String("task", body.Task))
	c.JSON(http.StatusOK, state)
}

// EditorState returns the open editor's config and interaction state.
func (h *WorkspaceHandler) EditorState(c *gin.Context) {
	var state editorState
	err := h.withEditor(c, func(w *services.Workspace, _ *roi.Editor) error {
		state = stateOf(w)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type modeBody struct {
	Mode string `json:"mode"`
}

// SetMode arms or disarms a drawing layer.
func (h *WorkspaceHandler) SetMode(c *gin.Context) {
	var body modeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		return e.Canvas.SetMode(models.RegionType(strings.ToUpper(body.Mode)))
	})
	if err != nil {
		if errors.Is(err, roi.ErrBackgroundNotDrawable) || errors.Is(err, errNoEditor) {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": strings.ToUpper(body.Mode)})
}

type pointerBody struct {
	Kind          string  `json:"kind" binding:"required,oneof=down move up"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	DisplayWidth  float64 `json:"display_width"`
	DisplayHeight float64 `json:"display_height"`
}

// Pointer feeds one pointer event, in display pixels, to the canvas.
func (h *WorkspaceHandler) Pointer(c *gin.Context) {
	var body pointerBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	var outcome roi.Outcome
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		e.Canvas.SetDisplaySize(body.DisplayWidth, body.DisplayHeight)
		switch body.Kind {
		case "down":
			outcome = e.Canvas.PointerDown(body.X, body.Y)
		case "move":
			outcome = e.Canvas.PointerMove(body.X, body.Y)
		default:
			outcome = e.Canvas.PointerUp(body.X, body.Y)
		}
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

type selectBody struct {
	ID string `json:"id"`
}

// Select sets the selection from the region list. An empty id clears it.
func (h *WorkspaceHandler) Select(c *gin.Context) {
	var body selectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	var selected string
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		e.Canvas.Select(body.ID)
		selected = e.Session.Selected
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": selected})
}

// Render returns the current frame as a PNG.
func (h *WorkspaceHandler) Render(c *gin.Context) {
	var buf bytes.Buffer
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		return png.Encode(&buf, e.Canvas.Render())
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// UpdateRegion merges a patch into one region.
func (h *WorkspaceHandler) UpdateRegion(c *gin.Context) {
	var patch roi.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.log, err)
		return
	}
	if patch.NormalizedCoords != nil {
		if err := roi.ValidateBounds(*patch.NormalizedCoords); err != nil {
			respondValidation(c, err)
			return
		}
	}
	if patch.Color != nil {
		if _, err := roi.ParseHexColor(*patch.Color); err != nil {
			respondValidation(c, err)
			return
		}
	}

	id := c.Param("id")
	var region models.ROIRegion
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		if _, ok := e.Store.Region(id); !ok {
			return roi.ErrRegionNotFound
		}
		e.Store.UpdateRegion(id, patch)
		region, _ = e.Store.Region(id)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, region)
}

// DeleteRegion removes a region. The caller must pass confirm=true.
func (h *WorkspaceHandler) DeleteRegion(c *gin.Context) {
	if c.Query("confirm") != "true" {
		c.JSON(http.StatusPreconditionRequired, gin.H{"error": "deletion must be confirmed with confirm=true"})
		return
	}
	id := c.Param("id")
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		if !e.DeleteRegion(id) {
			return roi.ErrRegionNotFound
		}
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": strings.ToLower(id)})
}

// InlineBegin opens a region in the numeric bounds editor.
func (h *WorkspaceHandler) InlineBegin(c *gin.Context) {
	var draft any
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		rect, err := e.Inline.Begin(c.Param("id"))
		draft = rect
		return err
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

type inlineSetBody struct {
	Field string  `json:"field" binding:"required"`
	Value float64 `json:"value"`
}

// InlineSet changes one bound of the draft and previews it.
func (h *WorkspaceHandler) InlineSet(c *gin.Context) {
	var body inlineSetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	var draft any
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		if id, _, active := e.Inline.Draft(); active && !strings.EqualFold(id, c.Param("id")) {
			return roi.ErrNotEditing
		}
		rect, err := e.Inline.Set(body.Field, body.Value)
		draft = rect
		return err
	})
	if err != nil {
		if errors.Is(err, roi.ErrNotEditing) || errors.Is(err, errNoEditor) {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": draft})
}

// InlineCommit validates the draft and writes it to the region.
func (h *WorkspaceHandler) InlineCommit(c *gin.Context) {
	var committed any
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		rect, err := e.Inline.Commit()
		committed = rect
		return err
	})
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"committed": committed})
	case errors.Is(err, roi.ErrNotEditing), errors.Is(err, errNoEditor):
		respondError(c, h.log, err)
	default:
		respondValidation(c, err)
	}
}

// InlineCancel discards the draft.
func (h *WorkspaceHandler) InlineCancel(c *gin.Context) {
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		e.Inline.Cancel()
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SaveEditor normalises and persists the open config.
func (h *WorkspaceHandler) SaveEditor(c *gin.Context) {
	var cfg models.ROIConfig
	err := h.withEditor(c, func(_ *services.Workspace, e *roi.Editor) error {
		cfg = e.Store.Normalized()
		if err := repository.SaveROIConfig(c.Request.Context(), cfg); err != nil {
			return err
		}
		e.Store.MarkSaved()
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.log.Info("ROI config saved from editor",
		zap.String("version", cfg.Version), zap.String("task", cfg.TaskID))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": cfg})
}

type calibrationState struct {
	WorkspaceID string                     `json:"workspace_id"`
	Key         calibration.Key            `json:"key"`
	Params      models.CalibrationParams   `json:"params"`
	Pending     bool                       `json:"pending"`
	Current     *models.CalibrationVersion `json:"current,omitempty"`
	Points      []models.GazePoint         `json:"points,omitempty"`
}

func calibrationStateOf(w *services.Workspace, withPoints bool) calibrationState {
	s := w.Calibration
	state := calibrationState{
		WorkspaceID: w.ID,
		Key:         s.Key(),
		Params:      s.Params(),
		Pending:     s.Pending(),
	}
	if v, ok := s.Current(); ok {
		state.Current = &v
	}
	if withPoints {
		state.Points = s.Preview()
	}
	return state
}

// OpenCalibration starts a calibration session over a stored recording and
// loads its persisted calibration, if any.
func (h *WorkspaceHandler) OpenCalibration(c *gin.Context) {
	var key calibration.Key
	if err := c.ShouldBindJSON(&key); err != nil {
		badRequest(c, h.log, err)
		return
	}
	if key.Group == "" || key.SubjectID == "" || key.Task == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group, subject_id and task are required"})
		return
	}
	ctx := c.Request.Context()
	raw, err := h.calibration.RawData(ctx, key)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var state calibrationState
	err = workspaceFrom(c).Do(func(w *services.Workspace) error {
		session := calibration.NewSession(key, raw, h.calibration,
			calibration.WithDebounce(h.debounce),
			calibration.WithLogger(h.log))
		w.OpenCalibration(session)
		if err := session.Load(ctx); err != nil {
			return err
		}
		state = calibrationStateOf(w, false)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

type paramBody struct {
	Key   string   `json:"key" binding:"required"`
	Value *float64 `json:"value" binding:"required"`
}

// SetParam changes one parameter. The preview follows after the debounce.
func (h *WorkspaceHandler) SetParam(c *gin.Context) {
	var body paramBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	var state calibrationState
	err := h.withCalibration(c, func(w *services.Workspace, s *calibration.Session) error {
		if err := s.UpdateParam(body.Key, *body.Value); err != nil {
			return err
		}
		state = calibrationStateOf(w, false)
		return nil
	})
	if err != nil {
		if errors.Is(err, errNoCalibration) {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

// Preview returns the points currently shown. With flush=true a pending
// preview is computed first.
func (h *WorkspaceHandler) Preview(c *gin.Context) {
	flush := c.Query("flush") == "true"
	var state calibrationState
	err := h.withCalibration(c, func(w *services.Workspace, s *calibration.Session) error {
		if flush {
			s.Flush()
		}
		state = calibrationStateOf(w, true)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// SaveCalibration persists the session's params as a new version.
func (h *WorkspaceHandler) SaveCalibration(c *gin.Context) {
	var saved models.CalibrationVersion
	err := h.withCalibration(c, func(_ *services.Workspace, s *calibration.Session) error {
		var err error
		saved, err = s.Save(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": saved})
}

// ResetCalibration zeroes the params and shows the raw data.
func (h *WorkspaceHandler) ResetCalibration(c *gin.Context) {
	var state calibrationState
	err := h.withCalibration(c, func(w *services.Workspace, s *calibration.Session) error {
		s.Reset()
		state = calibrationStateOf(w, false)
		return nil
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// RestoreCalibration reinstates an older version as the newest one.
func (h *WorkspaceHandler) RestoreCalibration(c *gin.Context) {
	var body restoreBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, h.log, err)
		return
	}
	var restored models.CalibrationVersion
	err := h.withCalibration(c, func(_ *services.Workspace, s *calibration.Session) error {
		var err error
		restored, err = s.RestoreVersion(c.Request.Context(), body.Version)
		return err
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": restored})
}

// CalibrationVersions lists the persisted versions of the open session.
func (h *WorkspaceHandler) CalibrationVersions(c *gin.Context) {
	var versions []models.CalibrationVersion
	err := h.withCalibration(c, func(_ *services.Workspace, s *calibration.Session) error {
		var err error
		versions, err = s.Versions(c.Request.Context())
		return err
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if versions == nil {
		versions = []models.CalibrationVersion{}
	}
	c.JSON(http.StatusOK, gin.H{"versions": versions})
}

// Feed returns the live analysis of whatever the workspace currently shows.
func (h *WorkspaceHandler) Feed(c *gin.Context) {
	w := workspaceFrom(c)
	c.JSON(http.StatusOK, w.Feed.Snapshot())
}
