// Package geometry provides the normalized rectangle type and the coordinate
// conversions shared by the ROI editor and the gaze analysis engine.
package geometry

import (
	"encoding/json"
	"fmt"
	"image"
	"math"
)

// MinRegionSize is the smallest normalized width or height a drawn region may
// have. Drags at or below it are treated as accidental clicks.
const MinRegionSize = 0.01

// Point is a 2D point in whatever space the caller is working in.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NormalizedRect is a rectangle relative to the stimulus image, all fields in [0,1].
type NormalizedRect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// FullExtent covers the whole stimulus image.
func FullExtent() NormalizedRect {
	return NormalizedRect{X: 0, Y: 0, Width: 1, Height: 1}
}

// Right returns the x coordinate of the right edge.
func (r NormalizedRect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r NormalizedRect) Bottom() float64 { return r.Y + r.Height }

// InBounds reports whether the rectangle lies inside [0,1]x[0,1]. Consumers expect
// this but it is not enforced at creation.
func (r NormalizedRect) InBounds() bool {
	return r.X >= 0 && r.Y >= 0 && r.Right() <= 1 && r.Bottom() <= 1
}

// Contains reports whether (px, py) lies inside or on the edge of the rectangle.
func (r NormalizedRect) Contains(px, py float64) bool {
	return PointInRect(px, py, r)
}

// ToPixels maps the rectangle onto an image of the given pixel size.
func (r NormalizedRect) ToPixels(width, height int) image.Rectangle {
	x0 := int(math.Round(r.X * float64(width)))
	y0 := int(math.Round(r.Y * float64(height)))
	x1 := int(math.Round(r.Right() * float64(width)))
	y1 := int(math.Round(r.Bottom() * float64(height)))
	return image.Rect(x0, y0, x1, y1)
}

// MarshalJSON encodes the rectangle as [x, y, width, height].
func (r NormalizedRect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{r.X, r.Y, r.Width, r.Height})
}

// UnmarshalJSON accepts either the [x, y, width, height] array form or an object
// with x/y/width/height keys.
func (r *NormalizedRect) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) != 4 {
			return fmt.Errorf("normalized rect needs 4 values, got %d", len(arr))
		}
		*r = NormalizedRect{X: arr[0], Y: arr[1], Width: arr[2], Height: arr[3]}
		return nil
	}

	var obj struct {
		X      float64 `json:"x"`
		Y      float64 `json:"y"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid normalized rect: %w", err)
	}
	*r = NormalizedRect{X: obj.X, Y: obj.Y, Width: obj.Width, Height: obj.Height}
	return nil
}

// PointInRect is inclusive on all four edges. Stats depend on this boundary rule.
func PointInRect(px, py float64, rect NormalizedRect) bool {
	return px >= rect.X && px <= rect.X+rect.Width &&
		py >= rect.Y && py <= rect.Y+rect.Height
}

// Viewport describes how a canvas is displayed: its on-screen size, its backing
// bitmap size and the size of the image drawn into it.
type Viewport struct {
	DisplayWidth   float64
	DisplayHeight  float64
	InternalWidth  float64
	InternalHeight float64
	ImageWidth     float64
	ImageHeight    float64
}

// NewImageViewport returns a viewport whose backing bitmap is sized exactly to the
// image, displayed at the given on-screen size.
func NewImageViewport(imageWidth, imageHeight int, displayWidth, displayHeight float64) Viewport {
	w, h := float64(imageWidth), float64(imageHeight)
	if displayWidth <= 0 {
		displayWidth = w
	}
	if displayHeight <= 0 {
		displayHeight = h
	}
	return Viewport{
		DisplayWidth:   displayWidth,
		DisplayHeight:  displayHeight,
		InternalWidth:  w,
		InternalHeight: h,
		ImageWidth:     w,
		ImageHeight:    h,
	}
}

// ToCanvas scales raw pointer coordinates into backing bitmap pixels.
func (v Viewport) ToCanvas(px, py float64) Point {
	scaleX, scaleY := 1.0, 1.0
	if v.DisplayWidth > 0 {
		scaleX = v.InternalWidth / v.DisplayWidth
	}
	if v.DisplayHeight > 0 {
		scaleY = v.InternalHeight / v.DisplayHeight
	}
	return Point{X: px * scaleX, Y: py * scaleY}
}

// PixelToNormalized converts pointer coordinates to [0,1] image coordinates. The
// display scale is applied before normalizing because the canvas may be scaled on
// screen independently of its backing resolution.
func PixelToNormalized(px, py float64, v Viewport) (float64, float64) {
	c := v.ToCanvas(px, py)
	if v.ImageWidth <= 0 || v.ImageHeight <= 0 {
		return 0, 0
	}
	return c.X / v.ImageWidth, c.Y / v.ImageHeight
}

// RectFromDrag builds a normalized rectangle from two canvas-pixel corners. It
// returns false when the result is too small to be a deliberate region.
func RectFromDrag(start, end Point, imageWidth, imageHeight float64) (NormalizedRect, bool) {
	if imageWidth <= 0 || imageHeight <= 0 {
		return NormalizedRect{}, false
	}
	x0, x1 := math.Min(start.X, end.X), math.Max(start.X, end.X)
	y0, y1 := math.Min(start.Y, end.Y), math.Max(start.Y, end.Y)

	rect := NormalizedRect{
		X:      x0 / imageWidth,
		Y:      y0 / imageHeight,
		Width:  (x1 - x0) / imageWidth,
		Height: (y1 - y0) / imageHeight,
	}
	if rect.Width <= MinRegionSize || rect.Height <= MinRegionSize {
		return NormalizedRect{}, false
	}
	return rect, true
}
