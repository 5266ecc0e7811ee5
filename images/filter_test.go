package images

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestFilterRegions(t *testing.T) {
	regions := []Region{
		{Box: Rect{0, 0, 10, 10}, Area: 100},
		{Box: Rect{20, 20, 60, 60}, Area: 1600},
		{Box: Rect{70, 70, 80, 80}, Area: 500},
		{Box: Rect{100, 100, 140, 130}, Area: 501},
	}

	tests := []struct {
		name     string
		minArea  float64
		present  bool
		expected []Rect
	}{
		{"Everything", 0, true, []Rect{{0, 0, 10, 10}, {20, 20, 60, 60}, {70, 70, 80, 80}, {100, 100, 140, 130}}},
		{"Strictly greater than minimum", 500, true, []Rect{{20, 20, 60, 60}, {100, 100, 140, 130}}},
		{"Only the largest", 1000, true, []Rect{{20, 20, 60, 60}}},
		{"Nothing", 5000, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			present, boxes := FilterRegions(regions, tt.minArea)
			assert.Equal(t, tt.present, present)
			assert.Equal(t, tt.expected, boxes)
		})
	}
}

// TestFilterRegions_Monotonic checks that raising the threshold never grows the accepted set
func TestFilterRegions_Monotonic(t *testing.T) {
	regions := []Region{
		{Box: Rect{0, 0, 5, 5}, Area: 12},
		{Box: Rect{5, 5, 40, 40}, Area: 900},
		{Box: Rect{40, 40, 60, 60}, Area: 350},
		{Box: Rect{60, 60, 100, 120}, Area: 2200},
		{Box: Rect{1, 90, 30, 110}, Area: 350},
	}

	prevCount := len(regions) + 1
	var prev []Rect
	for minArea := 0.0; minArea <= 2500; minArea += 50 {
		_, boxes := FilterRegions(regions, minArea)
		assert.LessOrEqual(t, len(boxes), prevCount, "minArea=%v", minArea)
		for _, b := range boxes {
			if prev != nil {
				assert.Contains(t, prev, b, "minArea=%v accepted a box the lower threshold rejected", minArea)
			}
		}
		prevCount = len(boxes)
		prev = boxes
	}
}

func TestAnnotate(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()
	before := ComputeMatChecksum(frame)

	plain := Annotate(frame, nil, "")
	defer plain.Close()
	assert.Equal(t, before, ComputeMatChecksum(plain), "no boxes and no overlay should be a copy")

	boxed := Annotate(frame, []Rect{{100, 80, 160, 140}}, "FPS: 0")
	defer boxed.Close()
	assert.Equal(t, before, ComputeMatChecksum(frame), "input frame must not be modified")
	assert.NotEqual(t, before, ComputeMatChecksum(boxed))
	assert.Equal(t, frame.Rows(), boxed.Rows())
	assert.Equal(t, frame.Cols(), boxed.Cols())

	// The outline is drawn in red on the box's top edge.
	pixel := boxed.GetVecbAt(80, 130)
	assert.Equal(t, uint8(0), pixel[0])
	assert.Equal(t, uint8(0), pixel[1])
	assert.Equal(t, uint8(255), pixel[2])

	// The right and bottom edges sit on X2 and Y2 themselves.
	for _, at := range []image.Point{{X: 160, Y: 110}, {X: 130, Y: 140}} {
		pixel := boxed.GetVecbAt(at.Y, at.X)
		assert.Equal(t, []uint8{0, 0, 255}, []uint8{pixel[0], pixel[1], pixel[2]}, "edge at %v", at)
	}
}

func TestAnnotate_GrayInput(t *testing.T) {
	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), testHeight, testWidth, gocv.MatTypeCV8U)
	defer gray.Close()

	out := Annotate(gray, []Rect{{10, 20, 50, 60}}, "FPS: 12.0")
	defer out.Close()

	assert.Equal(t, 3, out.Channels())
	assert.True(t, image.Rect(10, 20, 50, 60).In(image.Rect(0, 0, out.Cols(), out.Rows())))
}
