// CamGrid - Traffic Camera Telemetry and Geographic Visualization
// Copyright 2026 OpsLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/opslens/camgrid

package badge

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Badge palette.
var (
	badgeBackground = color.RGBA{R: 230, G: 57, B: 70, A: 255}
	badgeBorder     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	badgeText       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// renderBadge draws the base icon onto a surface tall enough for the
// badge, then the count pill at the top-right edge. The returned image is
// width x (height + badgeHeight).
func renderBadge(base image.Image, countText string, width, height, badgeHeight, padding int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid composite size %dx%d", width, height)
	}
	if badgeHeight < 4 {
		badgeHeight = 14
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height+badgeHeight))

	// Base icon below the badge strip.
	iconRect := image.Rect(0, badgeHeight, width, height+badgeHeight)
	draw.ApproxBiLinear.Scale(canvas, iconRect, base, base.Bounds(), draw.Over, nil)

	if countText == "" {
		return canvas, nil
	}

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, countText).Ceil()

	// Pill sized from the measured text, clamped to the canvas.
	pillWidth := textWidth + 2*padding
	if pillWidth > width {
		pillWidth = width
	}
	pill := image.Rect(width-pillWidth, 0, width, badgeHeight)
	fillPill(canvas, pill, badgeBackground, badgeBorder)

	// Center the text inside the pill.
	textX := pill.Min.X + (pill.Dx()-textWidth)/2
	textY := pill.Min.Y + (pill.Dy()+face.Ascent-face.Descent)/2
	drawer := font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(badgeText),
		Face: face,
		Dot:  fixed.P(textX, textY),
	}
	drawer.DrawString(countText)

	return canvas, nil
}

// fillPill fills a rounded rectangle whose corner radius is half its
// height, with a one-pixel border.
func fillPill(dst *image.RGBA, r image.Rectangle, fill, border color.Color) {
	radius := r.Dy() / 2
	for y := r.Min.Y; y < r.Max.Y; y++ {
		inset := pillInset(y-r.Min.Y, r.Dy(), radius)
		x0 := r.Min.X + inset
		x1 := r.Max.X - inset
		for x := x0; x < x1; x++ {
			onEdge := y == r.Min.Y || y == r.Max.Y-1 || x == x0 || x == x1-1
			if onEdge {
				dst.Set(x, y, border)
			} else {
				dst.Set(x, y, fill)
			}
		}
	}
}

// pillInset computes how far a scanline is inset by the rounded corners.
func pillInset(row, height, radius int) int {
	var dy int
	switch {
	case row < radius:
		dy = radius - row
	case row >= height-radius:
		dy = row - (height - radius - 1)
	default:
		return 0
	}
	fr := float64(radius)
	fd := float64(dy)
	if fd > fr {
		fd = fr
	}
	return radius - int(math.Round(math.Sqrt(fr*fr-fd*fd)))
}

// defaultIcon is the embedded fallback: a filled disc, enough to keep the
// map rendering when an icon asset is missing or unreadable.
func defaultIcon() image.Image {
	const size = 24
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	center := float64(size) / 2
	radius := center - 1
	fillColor := color.RGBA{R: 38, G: 70, B: 83, A: 255}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			if math.Sqrt(dx*dx+dy*dy) <= radius {
				img.Set(x, y, fillColor)
			}
		}
	}
	return img
}
