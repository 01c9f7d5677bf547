package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/jackzampolin/destinator/internal/annot"
	"github.com/jackzampolin/destinator/internal/coords"
)

var (
	colorExternal  = color.RGBA{R: 0x1f, G: 0x6f, B: 0xd1, A: 0xff}
	colorLocal     = color.RGBA{R: 0x1a, G: 0x9e, B: 0x3a, A: 0xff}
	colorPage      = color.RGBA{R: 0xe0, G: 0x8a, B: 0x00, A: 0xff}
	colorHighlight = color.RGBA{R: 0xd9, G: 0x1e, B: 0x18, A: 0xff}
	colorMarker    = color.RGBA{R: 0x8e, G: 0x24, B: 0xaa, A: 0xff}
	colorLabelBg   = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xd0}
)

// Box is a link region to outline. Rect is in unscaled display space.
type Box struct {
	Rect coords.Rect
	Kind annot.LinkKind
	// User regions are drawn dashed.
	User bool
	// Highlight is set for the hovered region and regions targeting the
	// selected destination.
	Highlight bool
}

// Marker is a positioned destination. Point is in unscaled display space.
type Marker struct {
	Point    coords.Point
	Label    string
	Selected bool
}

// Overlay is everything drawn over one page. Scale is the pixels per point
// of the image it is drawn on.
type Overlay struct {
	Scale   float64
	Boxes   []Box
	Markers []Marker
}

// OverlayFor collects the regions and positioned destinations of page.
// scale is the pixels per point of the rendered page, see coords.PixelScale.
// hovered is a store link index, or -1.
func OverlayFor(store *annot.Store, page int, scale float64, selectedID string, hovered int) Overlay {
	ov := Overlay{Scale: scale}
	for i, l := range store.Links() {
		if l.Page != page {
			continue
		}
		ov.Boxes = append(ov.Boxes, Box{
			Rect:      l.Rect,
			Kind:      l.Kind,
			User:      l.Origin == annot.OriginUser,
			Highlight: i == hovered || (selectedID != "" && l.Kind != annot.LinkPage && l.TargetID == selectedID),
		})
	}
	for _, d := range store.Destinations() {
		pos, ok := store.Position(d.ID)
		if !ok || pos.Page != page {
			continue
		}
		ov.Markers = append(ov.Markers, Marker{Point: pos.Point(), Label: d.ID, Selected: d.ID == selectedID})
	}
	return ov
}

// DrawOverlay returns a copy of img with ov drawn on top.
func DrawOverlay(img image.Image, ov Overlay) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)

	scale := ov.Scale
	if scale <= 0 {
		scale = 1
	}

	for _, box := range ov.Boxes {
		r := coords.ScaleRect(box.Rect, scale)
		c := boxColor(box.Kind)
		width := 1
		if box.Highlight {
			c = colorHighlight
			width = 2
		}
		strokeRect(dst, r, c, width, box.User)
	}

	for _, m := range ov.Markers {
		p := coords.Scale(m.Point, scale)
		c := colorMarker
		size := 4
		if m.Selected {
			c = colorHighlight
			size = 6
		}
		x, y := int(math.Round(p.X)), int(math.Round(p.Y))
		fillRect(dst, image.Rect(x-size/2, y-size/2, x+size/2+1, y+size/2+1), c)
		drawLabel(dst, x+size, y, m.Label, c)
	}
	return dst
}

func boxColor(k annot.LinkKind) color.RGBA {
	switch k {
	case annot.LinkExternal:
		return colorExternal
	case annot.LinkPage:
		return colorPage
	default:
		return colorLocal
	}
}

// strokeRect outlines r. Dashed outlines draw 4 pixels and skip 3.
func strokeRect(dst *image.RGBA, r coords.Rect, c color.RGBA, width int, dashed bool) {
	x0, y0 := int(math.Round(r.X0)), int(math.Round(r.Y0))
	x1, y1 := int(math.Round(r.X1)), int(math.Round(r.Y1))
	on := func(i int) bool { return !dashed || i%7 < 4 }

	for w := 0; w < width; w++ {
		for x := x0; x <= x1; x++ {
			if on(x - x0) {
				dst.Set(x, y0+w, c)
				dst.Set(x, y1-w, c)
			}
		}
		for y := y0; y <= y1; y++ {
			if on(y - y0) {
				dst.Set(x0+w, y, c)
				dst.Set(x1-w, y, c)
			}
		}
	}
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r.Intersect(dst.Bounds()), &image.Uniform{C: c}, image.Point{}, draw.Over)
}

// drawLabel writes text with its baseline centred on y.
func drawLabel(dst *image.RGBA, x, y int, text string, c color.RGBA) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  &image.Uniform{C: c},
		Face: face,
		Dot:  fixed.P(x+2, y+face.Ascent/2),
	}
	adv := d.MeasureString(text).Ceil()
	bg := image.Rect(x, y-face.Ascent/2-2, x+adv+4, y+face.Ascent/2+face.Descent+1)
	fillRect(dst, bg, colorLabelBg)
	d.DrawString(text)
}
