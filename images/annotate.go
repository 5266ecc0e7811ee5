package images

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MotionLabel is drawn above every accepted box.
const MotionLabel = "Motion"

var (
	// BoxColor is red; gocv maps color.RGBA onto its BGR scalar.
	BoxColor = color.RGBA{R: 255, G: 0, B: 0, A: 0}
	// OverlayColor is used for the processing-rate readout.
	OverlayColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	// OverlayOrigin is the baseline origin of the readout text.
	OverlayOrigin = image.Pt(10, 30)
)

// Annotate draws the accepted motion boxes and the overlay text onto a copy of frame.
//
// The overlay is drawn whether or not there are boxes. frame itself is never touched; a
// single-channel frame is converted to BGR so the colors survive.
//
// Arguments:
//   - frame: The raw frame to annotate.
//   - boxes: Accepted bounding boxes from FilterRegions.
//   - overlay: Readout text such as "FPS: 29.8". Empty skips it.
//
// Returns:
//   - gocv.Mat: A new annotated frame owned by the caller.
func Annotate(frame gocv.Mat, boxes []Rect, overlay string) gocv.Mat {
	out := gocv.NewMat()
	if frame.Channels() == 1 {
		gocv.CvtColor(frame, &out, gocv.ColorGrayToBGR)
	} else {
		frame.CopyTo(&out)
	}

	for _, b := range boxes {
		// The far corner is drawn inclusively, one pixel past the exclusive X2/Y2.
		gocv.Rectangle(&out, image.Rect(b.X1, b.Y1, b.X2+1, b.Y2+1), BoxColor, 2)
		gocv.PutText(&out, MotionLabel, image.Pt(b.X1, b.Y1-10), gocv.FontHersheySimplex, 0.5, BoxColor, 2)
	}

	if overlay != "" {
		gocv.PutText(&out, overlay, OverlayOrigin, gocv.FontHersheySimplex, 1, OverlayColor, 2)
	}
	return out
}
