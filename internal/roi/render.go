package roi

import (
	"image"
	"image/color"
	stddraw "image/draw"

	"vr-eyetracking/internal/models"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	strokeWidth         = 2
	selectedStrokeWidth = 3
	selectedFillAlpha   = 0x40
	labelPadding        = 3
	labelHeight         = 16
	previewDash         = 6
	previewGap          = 4
)

var previewColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// Scene is everything one frame of the authoring canvas shows.
type Scene struct {
	Background image.Image
	Width      int
	Height     int
	Regions    []models.ROIRegion
	SelectedID string
	// Preview is the in-progress drag rectangle in canvas pixels, nil when not drawing.
	Preview *image.Rectangle
}

// RenderFunc draws a scene. The canvas redraws the full scene on every change;
// an incremental renderer can be swapped in behind this signature.
type RenderFunc func(Scene) *image.RGBA

// Render draws the image, then each region's outline, a translucent fill over
// the selected one and its id tag, and finally the drag preview.
func Render(scene Scene) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, scene.Width, scene.Height))
	stddraw.Draw(dst, dst.Bounds(), image.White, image.Point{}, stddraw.Src)

	if scene.Background != nil {
		src := scene.Background.Bounds()
		if src.Dx() == scene.Width && src.Dy() == scene.Height {
			stddraw.Draw(dst, dst.Bounds(), scene.Background, src.Min, stddraw.Src)
		} else {
			draw.ApproxBiLinear.Scale(dst, dst.Bounds(), scene.Background, src, draw.Src, nil)
		}
	}

	for _, region := range scene.Regions {
		selected := region.ID == scene.SelectedID
		rect := region.NormalizedCoords.ToPixels(scene.Width, scene.Height)
		col := regionColor(region)

		width := strokeWidth
		if selected {
			width = selectedStrokeWidth
		}
		strokeRect(dst, rect, col, width)
		if selected {
			fill := color.NRGBA{R: col.R, G: col.G, B: col.B, A: selectedFillAlpha}
			stddraw.Draw(dst, rect.Intersect(dst.Bounds()), image.NewUniform(fill), image.Point{}, stddraw.Over)
		}

		drawLabel(dst, rect.Min, region.ID, col)
	}

	if scene.Preview != nil {
		dashedRect(dst, scene.Preview.Canon(), previewColor, strokeWidth)
	}
	return dst
}

// strokeRect draws a solid outline of the given width inside rect.
func strokeRect(dst *image.RGBA, rect image.Rectangle, col color.Color, width int) {
	src := image.NewUniform(col)
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+width),
		image.Rect(rect.Min.X, rect.Max.Y-width, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+width, rect.Max.Y),
		image.Rect(rect.Max.X-width, rect.Min.Y, rect.Max.X, rect.Max.Y),
	}
	for _, e := range edges {
		stddraw.Draw(dst, e.Intersect(dst.Bounds()), src, image.Point{}, stddraw.Src)
	}
}

// dashedRect draws a dashed outline of the given width inside rect.
func dashedRect(dst *image.RGBA, rect image.Rectangle, col color.Color, width int) {
	period := previewDash + previewGap
	for x := rect.Min.X; x < rect.Max.X; x++ {
		if (x-rect.Min.X)%period >= previewDash {
			continue
		}
		for t := 0; t < width; t++ {
			dst.Set(x, rect.Min.Y+t, col)
			dst.Set(x, rect.Max.Y-1-t, col)
		}
	}
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		if (y-rect.Min.Y)%period >= previewDash {
			continue
		}
		for t := 0; t < width; t++ {
			dst.Set(rect.Min.X+t, y, col)
			dst.Set(rect.Max.X-1-t, y, col)
		}
	}
}

// drawLabel draws a filled tag with text just above anchor. Tags that would leave
// the canvas are drawn just below it instead.
func drawLabel(dst *image.RGBA, anchor image.Point, text string, col color.Color) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()

	top := anchor.Y - labelHeight
	if top < dst.Bounds().Min.Y {
		top = anchor.Y
	}
	tag := image.Rect(anchor.X, top, anchor.X+textWidth+2*labelPadding, top+labelHeight)
	stddraw.Draw(dst, tag.Intersect(dst.Bounds()), image.NewUniform(col), image.Point{}, stddraw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(tag.Min.X+labelPadding, tag.Max.Y-labelPadding-1),
	}
	d.DrawString(text)
}
