package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/mj1618/page-turner/internal/discovery"
	"github.com/mj1618/page-turner/internal/model"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	matchColor    = color.RGBA{R: 255, G: 160, B: 0, A: 255} // Eligible tier match
	inertColor    = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	winnerColor   = color.RGBA{R: 0, G: 200, B: 0, A: 255}
	rejectedColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor  = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// AnnotateReport draws a probe report over a viewport screenshot: every
// tier match boxed (grey when ineligible), the guard line, and the chosen
// candidate boxed and labelled green if accepted, red if the guard
// rejected it. Bounds are CSS pixels; the image may be scaled by the
// device pixel ratio.
func AnnotateReport(img image.Image, rep discovery.Report, guardFraction float64) *image.RGBA {
	rgba := ImageToRGBA(img)

	scale := 1.0
	if rep.Viewport.Width > 0 {
		scale = float64(img.Bounds().Dx()) / float64(rep.Viewport.Width)
	}

	for _, tr := range rep.Tiers {
		for _, el := range tr.Matches {
			c := matchColor
			if !el.Eligible() {
				c = inertColor
			}
			drawElementBox(rgba, el, scale, c, 1)
		}
	}

	guardX := int(float64(rep.Viewport.Width) * guardFraction * scale)
	drawDashedVLine(rgba, guardX, rejectedColor)

	if rep.Candidate != nil {
		c := winnerColor
		if !rep.Accepted() {
			c = rejectedColor
		}
		el := rep.Candidate.Element
		drawElementBox(rgba, el, scale, c, 3)
		label := fmt.Sprintf("%s [%d]", rep.Candidate.Tier, el.ID)
		x := int(float64(el.Bounds[0]+el.Bounds[2]/2) * scale)
		y := int(float64(el.Bounds[1]+el.Bounds[3]) * scale)
		drawTextWithOutline(rgba, label, x, y+10)
	}
	return rgba
}

// ImageToRGBA converts any image to RGBA
func ImageToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba
}

// drawElementBox outlines an element, converting CSS pixels to image pixels.
func drawElementBox(img *image.RGBA, el model.Element, scale float64, c color.Color, thickness int) {
	b := el.Bounds
	x := int(float64(b[0]) * scale)
	y := int(float64(b[1]) * scale)
	w := int(float64(b[2]) * scale)
	h := int(float64(b[3]) * scale)
	for i := 0; i < thickness; i++ {
		drawRectangle(img, x-i, y-i, x+w+i, y+h+i, c)
	}
}

// isWithinBounds checks if a point is within the image bounds
func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline, clipped to the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()
	if x2 <= x1 || y2 <= y1 {
		return
	}
	for x := x1; x < x2; x++ {
		if isWithinBounds(bounds, x, y1) {
			img.Set(x, y1, c)
		}
		if isWithinBounds(bounds, x, y2-1) {
			img.Set(x, y2-1, c)
		}
	}
	for y := y1; y < y2; y++ {
		if isWithinBounds(bounds, x1, y) {
			img.Set(x1, y, c)
		}
		if isWithinBounds(bounds, x2-1, y) {
			img.Set(x2-1, y, c)
		}
	}
}

// drawDashedVLine draws a full-height dashed line at x.
func drawDashedVLine(img *image.RGBA, x int, c color.Color) {
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		if (y/6)%2 == 0 && isWithinBounds(bounds, x, y) {
			img.Set(x, y, c)
		}
	}
}

// drawTextWithOutline draws text centred on (x, y) with a dark outline.
func drawTextWithOutline(img *image.RGBA, text string, x, y int) {
	// basicfont.Face7x13 glyphs are 7x13.
	offsetX := x - len(text)*7/2
	offsetY := y + 13/2

	paint := func(dx, dy int, c color.Color) {
		d := &font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(c),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(offsetX+dx, offsetY+dy),
		}
		d.DrawString(text)
	}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx != 0 || dy != 0 {
				paint(dx, dy, outlineColor)
			}
		}
	}
	paint(0, 0, textColor)
}
