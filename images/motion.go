// Package images - This file contains the change detection stage of the motion pipeline
// using OpenCV (via gocv).
//
// The ChangeDetector compares two preprocessed frames using consecutive-frame differencing:
//  1. Absolute per-pixel difference.
//  2. Thresholding to create a binary mask of changed pixels.
//  3. Morphological dilation to merge nearby changes into blobs.
//  4. External contour extraction for blob regions.
//
// Pipeline Overview:
//
// ┌──────────────────────────┐
// │ prev, curr (Preprocess)  │
// └──────┬───────────────────┘
// ┌────────────────────────────┐
// │ AbsDiff                    │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Thresholding (binary mask) │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Morphology (dilate x2)     │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Contour Detection          │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ []Region                   │
// └────────────────────────────┘
//
// Usage:
//
//	det := images.NewChangeDetector(images.DefaultChangeConfig())
//	defer det.Close()
//
//	regions, err := det.Detect(prevGray, currGray)
//	present, boxes := images.FilterRegions(regions, 500)
//
// Note: You must call Close() when finished to release native resources.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const (
	// DefaultDiffCutoff is the per-pixel intensity difference above which a pixel counts as changed.
	DefaultDiffCutoff = 25
	// DefaultDilateIterations is how many times the binary mask is dilated.
	DefaultDilateIterations = 2
)

// Region is a connected blob of changed pixels reduced to its bounding rectangle.
type Region struct {
	// Box is the axis-aligned bounding rectangle of the contour.
	Box Rect
	// Area is the contour area in pixels, not the area of Box.
	Area float64
}

// ChangeConfig configures a ChangeDetector.
type ChangeConfig struct {
	// DiffCutoff is the binarization cutoff; differences strictly above it become 255.
	DiffCutoff float32
	// MinChangedArea gates the whole frame: when the contour areas of all regions add up to
	// this many pixels or fewer, the frame yields no regions. It is measured on the same
	// dilated contours as the region filter, so a gate no larger than the filter's minimum
	// area never hides a region the filter would accept.
	MinChangedArea int
	// DilateIterations is the number of 3x3 dilation passes.
	DilateIterations int
}

// DefaultChangeConfig returns the reference detection settings.
func DefaultChangeConfig() ChangeConfig {
	return ChangeConfig{
		DiffCutoff:       DefaultDiffCutoff,
		MinChangedArea:   0,
		DilateIterations: DefaultDilateIterations,
	}
}

// ChangeDetector extracts candidate motion regions from a pair of preprocessed frames.
//
// It holds no per-frame state; the only native resource is the morphology kernel, which is
// why Close must be called. Detect is not safe for concurrent use of the same detector.
type ChangeDetector struct {
	config ChangeConfig
	Kernel gocv.Mat // 3x3 rectangular structuring element
}

// NewChangeDetector constructs a ChangeDetector with its morphology kernel allocated.
//
// Arguments:
//   - config: Detection settings. A non-positive DilateIterations disables dilation.
//
// Returns:
//   - *ChangeDetector: The detector. Always call Close to release memory.
func NewChangeDetector(config ChangeConfig) *ChangeDetector {
	return &ChangeDetector{
		config: config,
		Kernel: gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Config returns the detector settings.
func (d *ChangeDetector) Config() ChangeConfig {
	return d.config
}

// Detect compares two preprocessed frames and returns the external regions of change in
// the order OpenCV discovers them. Neither input is modified.
//
// Arguments:
//   - prev: The earlier preprocessed (single-channel) frame.
//   - curr: The later preprocessed frame, same size and type as prev.
//
// Returns:
//   - []Region: Candidate regions; empty when the frames do not differ.
//   - error: ErrInvalidFrame if either frame is empty or the frames disagree in shape.
func (d *ChangeDetector) Detect(prev, curr gocv.Mat) ([]Region, error) {
	if prev.Empty() || curr.Empty() {
		return nil, errors.Wrap(ErrInvalidFrame, "cannot compare an empty frame")
	}
	if prev.Rows() != curr.Rows() || prev.Cols() != curr.Cols() || prev.Type() != curr.Type() {
		return nil, errors.Wrapf(ErrInvalidFrame, "frame shape changed from %dx%d to %dx%d",
			prev.Cols(), prev.Rows(), curr.Cols(), curr.Rows())
	}

	mask, err := d.ChangeMask(prev, curr)
	defer mask.Close()
	if err != nil {
		return nil, err
	}

	if gocv.CountNonZero(mask) == 0 {
		return nil, nil
	}

	for i := 0; i < d.config.DilateIterations; i++ {
		if err := gocv.Dilate(mask, &mask, d.Kernel); err != nil {
			return nil, errors.Wrap(err, "dilate change mask")
		}
	}

	regions := d.extractRegions(mask)
	if ChangedArea(regions) <= float64(d.config.MinChangedArea) {
		return nil, nil
	}
	return regions, nil
}

// ChangedArea is the summed contour area of regions.
func ChangedArea(regions []Region) float64 {
	var total float64
	for _, r := range regions {
		total += r.Area
	}
	return total
}

// ChangeMask returns the binarized absolute difference of two frames, before dilation.
// The caller owns the returned Mat.
func (d *ChangeDetector) ChangeMask(prev, curr gocv.Mat) (gocv.Mat, error) {
	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(prev, curr, &delta)

	mask := gocv.NewMat()
	gocv.Threshold(delta, &mask, d.config.DiffCutoff, 255, gocv.ThresholdBinary)
	if mask.Empty() {
		mask.Close()
		return gocv.NewMat(), errors.Wrap(ErrInvalidFrame, "threshold produced an empty mask")
	}
	return mask, nil
}

// extractRegions finds external contours only; holes and nested blobs are ignored.
func (d *ChangeDetector) extractRegions(mask gocv.Mat) []Region {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bounds := image.Rect(0, 0, mask.Cols(), mask.Rows())
	regions := make([]Region, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		box, ok := RectFromRectangle(gocv.BoundingRect(contour), bounds)
		if !ok {
			continue
		}
		regions = append(regions, Region{Box: box, Area: gocv.ContourArea(contour)})
	}
	return regions
}

// Close releases the morphology kernel.
func (d *ChangeDetector) Close() {
	d.Kernel.Close()
}
