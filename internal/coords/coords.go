// Package coords converts between a PDF page's native coordinate space
// (origin bottom-left, y up, unscaled) and the display space of a rendered
// page (origin top-left, y down, scaled by zoom).
//
// A rendered page has PixelScale(baseDPI, zoom) pixels per point. Every
// "zoom" parameter below is that pixel scale; at the default 72 dpi it
// equals the zoom factor.
//
// Flipping y needs the height of the page being addressed. Pages in one
// document can differ in height, so callers must pass the height of the
// specific page, never a shared or cached value.
package coords

import "math"

// PointsPerInch is the size of a PDF user space unit.
const PointsPerInch = 72.0

// Point is a location on a page.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Rect is an axis-aligned rectangle. In display space (X0, Y0) is the
// top-left corner; in native space it is the lower-left corner.
type Rect struct {
	X0 float64 `json:"x0" yaml:"x0"`
	Y0 float64 `json:"y0" yaml:"y0"`
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
}

// RectFromPoints returns the normalized rectangle spanned by two corners.
func RectFromPoints(a, b Point) Rect {
	return Rect{X0: a.X, Y0: a.Y, X1: b.X, Y1: b.Y}.Normalize()
}

// Normalize orders the corners so that X0 <= X1 and Y0 <= Y1.
func (r Rect) Normalize() Rect {
	return Rect{
		X0: math.Min(r.X0, r.X1),
		Y0: math.Min(r.Y0, r.Y1),
		X1: math.Max(r.X0, r.X1),
		Y1: math.Max(r.Y0, r.Y1),
	}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// ToDisplay maps a native point to zoomed display space.
func ToDisplay(p Point, pageHeight, zoom float64) Point {
	return Point{X: p.X * zoom, Y: (pageHeight - p.Y) * zoom}
}

// ToNative maps a zoomed display point to native space.
func ToNative(p Point, pageHeight, zoom float64) Point {
	return Point{X: p.X / zoom, Y: pageHeight - p.Y/zoom}
}

// Scale maps an unscaled display point to zoomed display space.
func Scale(p Point, zoom float64) Point {
	return Point{X: p.X * zoom, Y: p.Y * zoom}
}

// Unscale maps a zoomed display point to unscaled display space.
func Unscale(p Point, zoom float64) Point {
	return Point{X: p.X / zoom, Y: p.Y / zoom}
}

// FlipY converts between unscaled display space and native space.
// It is its own inverse.
func FlipY(p Point, pageHeight float64) Point {
	return Point{X: p.X, Y: pageHeight - p.Y}
}

// RectToNative converts an unscaled display rectangle to a native one.
func RectToNative(r Rect, pageHeight float64) Rect {
	return Rect{X0: r.X0, Y0: pageHeight - r.Y1, X1: r.X1, Y1: pageHeight - r.Y0}.Normalize()
}

// RectFromNative converts a native rectangle to unscaled display space.
func RectFromNative(r Rect, pageHeight float64) Rect {
	return Rect{X0: r.X0, Y0: pageHeight - r.Y1, X1: r.X1, Y1: pageHeight - r.Y0}.Normalize()
}

// ScaleRect maps an unscaled display rectangle to zoomed display space.
func ScaleRect(r Rect, zoom float64) Rect {
	return Rect{X0: r.X0 * zoom, Y0: r.Y0 * zoom, X1: r.X1 * zoom, Y1: r.Y1 * zoom}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// ClampZoom limits z to [lo, hi].
func ClampZoom(z, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, z))
}

// DPI returns the whole-number resolution a page is rasterized at for
// baseDPI and zoom, never less than 1.
func DPI(baseDPI, zoom float64) int {
	return max(int(math.Round(baseDPI*zoom)), 1)
}

// PixelScale returns the pixels per point of a page rasterized at
// DPI(baseDPI, zoom).
func PixelScale(baseDPI, zoom float64) float64 {
	return float64(DPI(baseDPI, zoom)) / PointsPerInch
}
