package roi

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"vr-eyetracking/internal/models"
)

// Layer colors shared by the canvas, region lists and chart overlays.
const (
	ColorKeyword     = "#2196F3"
	ColorInstruction = "#4CAF50"
	ColorBackground  = "#FF9800"
)

// ColorFor returns the fixed color of a layer.
func ColorFor(t models.RegionType) string {
	switch t {
	case models.RegionKeyword:
		return ColorKeyword
	case models.RegionInstruction:
		return ColorInstruction
	default:
		return ColorBackground
	}
}

// ParseHexColor parses #RRGGBB or #RGB.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// regionColor resolves the color a region is drawn with, falling back to its
// layer color when the stored value does not parse.
func regionColor(r models.ROIRegion) color.RGBA {
	if c, err := ParseHexColor(r.Color); err == nil {
		return c
	}
	c, _ := ParseHexColor(ColorFor(r.Type))
	return c
}
