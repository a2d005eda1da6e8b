package roi

import (
	"errors"
	"fmt"

	"vr-eyetracking/internal/geometry"

	"go.uber.org/multierr"
)

// ErrNotEditing is returned when the inline editor has no region open.
var ErrNotEditing = errors.New("no region is being edited")

// Field names accepted by the inline editor.
const (
	FieldX      = "x"
	FieldY      = "y"
	FieldWidth  = "width"
	FieldHeight = "height"
)

// InlineEditor edits the normalized bounds of an existing region from a numeric
// list. Edits are shown on the canvas immediately and written to the store only
// on Commit.
type InlineEditor struct {
	store    *Store
	canvas   *Canvas
	regionID string
	draft    geometry.NormalizedRect
	active   bool
}

// NewInlineEditor binds the editor to the store it commits to and the canvas it previews on.
func NewInlineEditor(store *Store, canvas *Canvas) *InlineEditor {
	return &InlineEditor{store: store, canvas: canvas}
}

// Begin opens a region for editing and returns its current bounds. An edit
// already in progress is cancelled.
func (e *InlineEditor) Begin(id string) (geometry.NormalizedRect, error) {
	region, ok := e.store.Region(id)
	if !ok {
		return geometry.NormalizedRect{}, fmt.Errorf("%w: %s", ErrRegionNotFound, id)
	}
	e.Cancel()
	e.regionID = region.ID
	e.draft = region.NormalizedCoords
	e.active = true
	return e.draft, nil
}

// Set changes one bound of the draft and previews it on the canvas.
func (e *InlineEditor) Set(field string, value float64) (geometry.NormalizedRect, error) {
	if !e.active {
		return geometry.NormalizedRect{}, ErrNotEditing
	}
	switch field {
	case FieldX:
		e.draft.X = value
	case FieldY:
		e.draft.Y = value
	case FieldWidth:
		e.draft.Width = value
	case FieldHeight:
		e.draft.Height = value
	default:
		return e.draft, fmt.Errorf("unknown field %q", field)
	}
	e.canvas.SetOverride(e.regionID, e.draft)
	return e.draft, nil
}

// Draft returns the region being edited and its uncommitted bounds.
func (e *InlineEditor) Draft() (string, geometry.NormalizedRect, bool) {
	return e.regionID, e.draft, e.active
}

// Commit validates the draft and writes it to the store. On a validation error
// the draft stays open so every reported problem can be fixed.
func (e *InlineEditor) Commit() (geometry.NormalizedRect, error) {
	if !e.active {
		return geometry.NormalizedRect{}, ErrNotEditing
	}
	if err := ValidateBounds(e.draft); err != nil {
		return e.draft, err
	}
	rect := e.draft
	e.store.UpdateRegion(e.regionID, Patch{NormalizedCoords: &rect})
	e.canvas.ClearOverride(e.regionID)
	e.active = false
	e.regionID = ""
	return rect, nil
}

// Cancel discards the draft and restores the stored bounds on the canvas.
func (e *InlineEditor) Cancel() {
	if !e.active {
		return
	}
	e.canvas.ClearOverride(e.regionID)
	e.active = false
	e.regionID = ""
}

// ValidateBounds reports every rule rect violates.
func ValidateBounds(rect geometry.NormalizedRect) error {
	var err error
	check := func(name string, v float64) {
		if v < 0 || v > 1 {
			err = multierr.Append(err, fmt.Errorf("%s must be within [0, 1], got %g", name, v))
		}
	}
	check(FieldX, rect.X)
	check(FieldY, rect.Y)
	check(FieldWidth, rect.Width)
	check(FieldHeight, rect.Height)
	if rect.Width <= geometry.MinRegionSize {
		err = multierr.Append(err, fmt.Errorf("width must be greater than %g", geometry.MinRegionSize))
	}
	if rect.Height <= geometry.MinRegionSize {
		err = multierr.Append(err, fmt.Errorf("height must be greater than %g", geometry.MinRegionSize))
	}
	return err
}
