package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// BlurKernelSize is the side of the square Gaussian kernel used to suppress sensor and
// compression noise before frames are compared.
const BlurKernelSize = 21

// ErrInvalidFrame is returned for empty or malformed frames.
var ErrInvalidFrame = errors.New("invalid frame")

// Preprocess normalizes a raw frame for comparison: single-channel intensity followed by a
// 21x21 Gaussian blur whose sigma is derived from the kernel size.
//
// The input is never modified. The caller owns the returned Mat and must Close it, also when
// an error is returned.
//
// Arguments:
//   - frame: A BGR, BGRA or grayscale 8-bit frame.
//
// Returns:
//   - gocv.Mat: The blurred grayscale frame.
//   - error: ErrInvalidFrame if the frame is empty or has an unsupported channel count.
//
// @example
// gray, err := images.Preprocess(frame)
// if err != nil {
//     return err
// }
// defer gray.Close()
func Preprocess(frame gocv.Mat) (gocv.Mat, error) {
	if err := validateFrame(frame); err != nil {
		return gocv.NewMat(), err
	}

	gray := gocv.NewMat()
	switch frame.Channels() {
	case 1:
		frame.CopyTo(&gray)
	case 3:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(frame, &gray, gocv.ColorBGRAToGray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(BlurKernelSize, BlurKernelSize), 0, 0, gocv.BorderDefault)
	gray.Close()

	if blurred.Empty() {
		blurred.Close()
		return gocv.NewMat(), errors.Wrap(ErrInvalidFrame, "blur produced an empty frame")
	}
	return blurred, nil
}

// validateFrame rejects frames the pipeline cannot make motion decisions on.
func validateFrame(frame gocv.Mat) error {
	if frame.Empty() || frame.Rows() == 0 || frame.Cols() == 0 {
		return errors.Wrap(ErrInvalidFrame, "frame is empty")
	}
	switch frame.Channels() {
	case 1, 3, 4:
	default:
		return errors.Wrapf(ErrInvalidFrame, "unsupported channel count %d", frame.Channels())
	}
	return nil
}
