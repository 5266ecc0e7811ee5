// Package images - Frame geometry used by the motion pipeline.
package images

import (
	"fmt"
	"image"
)

// Rect is a lightweight bounding box in frame coordinates.
type Rect struct {
	// X2,Y2 are exclusive (like image.Rectangle).
	X1, Y1, X2, Y2 int
}

// RectFromRectangle converts an image.Rectangle to a Rect clipped to the given frame bounds.
//
// Arguments:
//   - r: The rectangle to convert, typically the output of gocv.BoundingRect.
//   - bounds: The frame bounds the result must lie within.
//
// Returns:
//   - Rect: The clipped rectangle.
//   - bool: false if nothing of r lies inside bounds.
func RectFromRectangle(r, bounds image.Rectangle) (Rect, bool) {
	clipped := r.Canon().Intersect(bounds)
	if clipped.Empty() {
		return Rect{}, false
	}
	return Rect{X1: clipped.Min.X, Y1: clipped.Min.Y, X2: clipped.Max.X, Y2: clipped.Max.Y}, true
}

// Rectangle returns r as an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Width returns the horizontal extent of r.
func (r Rect) Width() int {
	return r.X2 - r.X1
}

// Height returns the vertical extent of r.
func (r Rect) Height() int {
	return r.Y2 - r.Y1
}

// Area returns the number of pixels covered by the box itself.
func (r Rect) Area() int {
	if !r.Valid() {
		return 0
	}
	return r.Width() * r.Height()
}

// Valid reports whether X1 < X2 and Y1 < Y2.
func (r Rect) Valid() bool {
	return r.X1 < r.X2 && r.Y1 < r.Y2
}

// Within reports whether r is valid and both corners lie inside bounds.
func (r Rect) Within(bounds image.Rectangle) bool {
	return r.Valid() && r.Rectangle().In(bounds)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.X1, r.Y1, r.X2, r.Y2)
}
