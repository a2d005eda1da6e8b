package roi

import (
	"image"
	"strings"

	"vr-eyetracking/internal/models"
)

// Editor bundles the authoring pieces for one task: the explicit session state,
// the region store, the canvas controller and the inline bounds editor.
type Editor struct {
	Session *EditorSession
	Store   *Store
	Canvas  *Canvas
	Inline  *InlineEditor
}

// NewEditor loads cfg and prepares a canvas sized to the background image.
func NewEditor(cfg models.ROIConfig, background image.Image, dims models.ImageDimensions) *Editor {
	session := &EditorSession{}
	store := NewStore(session)
	store.Load(cfg)
	canvas := NewCanvas(store, background, dims.Width, dims.Height)
	return &Editor{
		Session: session,
		Store:   store,
		Canvas:  canvas,
		Inline:  NewInlineEditor(store, canvas),
	}
}

// DeleteRegion removes a region once the caller has confirmed. An open inline
// edit of that region is cancelled.
func (e *Editor) DeleteRegion(id string) bool {
	if current, _, active := e.Inline.Draft(); active && strings.EqualFold(current, id) {
		e.Inline.Cancel()
	}
	return e.Store.DeleteRegion(id)
}
