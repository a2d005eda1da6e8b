package roi

import (
	"vr-eyetracking/internal/geometry"
	"vr-eyetracking/internal/models"
)

// InteractionState is the pointer state of the authoring canvas.
type InteractionState int

const (
	StateIdle InteractionState = iota
	StateDrawing
	StateSelecting
)

func (s InteractionState) String() string {
	switch s {
	case StateDrawing:
		return "drawing"
	case StateSelecting:
		return "selecting"
	default:
		return "idle"
	}
}

// EditorSession holds the authoring state that would otherwise live in UI
// widgets: drawing mode, pointer state, selection and the unsaved-changes flag.
// It has no rendering dependency.
type EditorSession struct {
	// Mode is the layer new rectangles are drawn into. Empty means no drawing
	// mode is armed and clicks select instead.
	Mode     models.RegionType
	State    InteractionState
	Start    geometry.Point
	Current  geometry.Point
	Selected string
	Dirty    bool
}

// Drawing reports whether a rectangle drag is in progress.
func (s *EditorSession) Drawing() bool {
	return s.State == StateDrawing
}

// reset returns the session to its freshly loaded state.
func (s *EditorSession) reset() {
	*s = EditorSession{}
}
