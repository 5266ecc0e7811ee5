package images

// FilterRegions keeps the regions whose contour area exceeds minArea.
//
// Arguments:
//   - regions: Candidate regions from ChangeDetector.Detect.
//   - minArea: Minimum contour area in pixels; a region must be strictly larger.
//
// Returns:
//   - bool: true if at least one region was accepted (the frame's motion signal).
//   - []Rect: Bounding boxes of the accepted regions, in input order.
func FilterRegions(regions []Region, minArea float64) (bool, []Rect) {
	var accepted []Rect
	for _, r := range regions {
		if r.Area > minArea {
			accepted = append(accepted, r.Box)
		}
	}
	return len(accepted) > 0, accepted
}
