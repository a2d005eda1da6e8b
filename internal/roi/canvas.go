package roi

import (
	"fmt"
	"image"
	"math"

	"vr-eyetracking/internal/geometry"
	"vr-eyetracking/internal/models"
)

// clickDeadZone is how far, in canvas pixels, the pointer may travel between down
// and up and still count as a click.
const clickDeadZone = 4.0

// Warning is a non-fatal authoring problem surfaced to the user.
type Warning string

const (
	WarnNone     Warning = ""
	WarnTooSmall Warning = "region too small; drag a larger rectangle"
)

// Outcome reports what a pointer event did.
type Outcome struct {
	Added            *models.ROIRegion `json:"added,omitempty"`
	SelectionChanged bool              `json:"selection_changed"`
	Selected         string            `json:"selected"`
	Warning          Warning           `json:"warning,omitempty"`
	Redraw           bool              `json:"redraw"`
}

// Canvas turns pointer events into draw and select operations against a Store
// and renders the resulting scene.
type Canvas struct {
	store      *Store
	session    *EditorSession
	viewport   geometry.Viewport
	background image.Image
	render     RenderFunc
	overrides  map[string]geometry.NormalizedRect
	frame      *image.RGBA
}

// NewCanvas sizes the canvas backing bitmap to the image's pixel dimensions.
func NewCanvas(store *Store, background image.Image, imageWidth, imageHeight int) *Canvas {
	return &Canvas{
		store:      store,
		session:    store.session,
		viewport:   geometry.NewImageViewport(imageWidth, imageHeight, 0, 0),
		background: background,
		render:     Render,
		overrides:  make(map[string]geometry.NormalizedRect),
	}
}

// SetRenderer replaces the scene renderer.
func (c *Canvas) SetRenderer(fn RenderFunc) {
	if fn != nil {
		c.render = fn
	}
}

// SetDisplaySize records the on-screen size the canvas is shown at.
func (c *Canvas) SetDisplaySize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	c.viewport.DisplayWidth = width
	c.viewport.DisplayHeight = height
}

// Viewport returns the current display geometry.
func (c *Canvas) Viewport() geometry.Viewport {
	return c.viewport
}

// Session exposes the authoring state.
func (c *Canvas) Session() *EditorSession {
	return c.session
}

// SetMode arms a drawing mode. An empty type disarms it. Background regions are
// never drawn by hand.
func (c *Canvas) SetMode(t models.RegionType) error {
	switch t {
	case "", models.RegionKeyword, models.RegionInstruction:
	case models.RegionBackground:
		return ErrBackgroundNotDrawable
	default:
		return fmt.Errorf("unknown drawing mode %q", t)
	}
	c.session.Mode = t
	c.session.State = StateIdle
	return nil
}

// PointerDown starts a drag in drawing mode, or a potential click otherwise.
func (c *Canvas) PointerDown(px, py float64) Outcome {
	p := c.viewport.ToCanvas(px, py)
	c.session.Start = p
	c.session.Current = p
	if c.session.Mode != "" {
		c.session.State = StateDrawing
		return Outcome{Selected: c.session.Selected, Redraw: true}
	}
	c.session.State = StateSelecting
	return Outcome{Selected: c.session.Selected}
}

// PointerMove updates the drag preview while drawing.
func (c *Canvas) PointerMove(px, py float64) Outcome {
	switch c.session.State {
	case StateDrawing:
		c.session.Current = c.viewport.ToCanvas(px, py)
		return Outcome{Selected: c.session.Selected, Redraw: true}
	case StateSelecting:
		c.session.Current = c.viewport.ToCanvas(px, py)
	}
	return Outcome{Selected: c.session.Selected}
}

// PointerUp finishes a drag or a click. Drawing modes stay armed so several
// rectangles can be drawn in a row.
func (c *Canvas) PointerUp(px, py float64) Outcome {
	p := c.viewport.ToCanvas(px, py)
	c.session.Current = p

	switch c.session.State {
	case StateDrawing:
		c.session.State = StateIdle
		rect, ok := geometry.RectFromDrag(c.session.Start, p, c.viewport.ImageWidth, c.viewport.ImageHeight)
		if !ok {
			return Outcome{Selected: c.session.Selected, Warning: WarnTooSmall, Redraw: true}
		}
		region, err := c.store.AddRegion(Draft{
			Type:             c.session.Mode,
			TaskID:           c.store.TaskID(),
			NormalizedCoords: rect,
		})
		if err != nil {
			return Outcome{Selected: c.session.Selected, Redraw: true}
		}
		return Outcome{Added: &region, Selected: c.session.Selected, Redraw: true}

	case StateSelecting:
		c.session.State = StateIdle
		if distance(c.session.Start, p) > clickDeadZone {
			return Outcome{Selected: c.session.Selected}
		}
		nx := p.X / c.viewport.ImageWidth
		ny := p.Y / c.viewport.ImageHeight
		hit := c.HitTest(nx, ny)
		changed := hit != c.session.Selected
		c.session.Selected = hit
		return Outcome{SelectionChanged: changed, Selected: hit, Redraw: changed}
	}
	return Outcome{Selected: c.session.Selected}
}

// HitTest returns the id of the topmost region containing the normalized point,
// or "" when none does.
func (c *Canvas) HitTest(nx, ny float64) string {
	regions := c.sceneRegions()
	for i := len(regions) - 1; i >= 0; i-- {
		if geometry.PointInRect(nx, ny, regions[i].NormalizedCoords) {
			return regions[i].ID
		}
	}
	return ""
}

// Select sets the selection directly, as the region list does.
func (c *Canvas) Select(id string) {
	if id == "" {
		c.session.Selected = ""
		return
	}
	if region, ok := c.store.Region(id); ok {
		c.session.Selected = region.ID
	}
}

// SetOverride draws id with rect instead of its stored bounds until cleared.
func (c *Canvas) SetOverride(id string, rect geometry.NormalizedRect) {
	c.overrides[id] = rect
}

// ClearOverride drops a preview override.
func (c *Canvas) ClearOverride(id string) {
	delete(c.overrides, id)
}

// Scene builds the frame description for the current state.
func (c *Canvas) Scene() Scene {
	scene := Scene{
		Background: c.background,
		Width:      int(c.viewport.InternalWidth),
		Height:     int(c.viewport.InternalHeight),
		Regions:    c.sceneRegions(),
		SelectedID: c.session.Selected,
	}
	if c.session.State == StateDrawing {
		preview := image.Rect(
			int(math.Round(c.session.Start.X)), int(math.Round(c.session.Start.Y)),
			int(math.Round(c.session.Current.X)), int(math.Round(c.session.Current.Y)),
		).Canon()
		scene.Preview = &preview
	}
	return scene
}

// Render redraws the full scene and keeps it as the current frame.
func (c *Canvas) Render() *image.RGBA {
	c.frame = c.render(c.Scene())
	return c.frame
}

// Frame returns the last rendered frame, rendering one if needed.
func (c *Canvas) Frame() *image.RGBA {
	if c.frame == nil {
		return c.Render()
	}
	return c.frame
}

func (c *Canvas) sceneRegions() []models.ROIRegion {
	regions := c.store.Regions()
	if len(c.overrides) == 0 {
		return regions
	}
	for i := range regions {
		if rect, ok := c.overrides[regions[i].ID]; ok {
			regions[i].NormalizedCoords = rect
		}
	}
	return regions
}

func distance(a, b geometry.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
