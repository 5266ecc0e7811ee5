package pipeline

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/jinyounghwa/videomotion/images"
)

const (
	mockWidth  = 320
	mockHeight = 240
)

// MockFrameGenerator creates deterministic BGR test frames with white squares on black.
type MockFrameGenerator struct {
	width  int
	height int
}

// NewMockFrameGenerator creates a new frame generator with specified dimensions.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{width: width, height: height}
}

// Frame returns a black frame with the given squares filled white.
func (g *MockFrameGenerator) Frame(squares ...image.Rectangle) gocv.Mat {
	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), g.height, g.width, gocv.MatTypeCV8UC3)
	for _, sq := range squares {
		gocv.Rectangle(&frame, sq, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	}
	return frame
}

// MockSource replays a fixed list of frames.
type MockSource struct {
	frames []gocv.Mat
	fps    float64
	reads  int
}

func NewMockSource(fps float64, frames ...gocv.Mat) *MockSource {
	return &MockSource{frames: frames, fps: fps}
}

func (s *MockSource) Read(dst *gocv.Mat) bool {
	if s.reads >= len(s.frames) {
		return false
	}
	s.frames[s.reads].CopyTo(dst)
	s.reads++
	return true
}

func (s *MockSource) FPS() float64 {
	return s.fps
}

func (s *MockSource) Close() {
	for _, f := range s.frames {
		f.Close()
	}
}

// MockSink records a checksum per written frame and can fail or cancel on demand.
type MockSink struct {
	checksums []string
	failAt    int // 1-based write that fails; 0 never fails
	onWrite   func(n int)
}

var errMockSink = errors.New("disk full")

func (s *MockSink) Write(frame gocv.Mat) error {
	n := len(s.checksums) + 1
	if s.failAt > 0 && n == s.failAt {
		return errMockSink
	}
	s.checksums = append(s.checksums, images.ComputeMatChecksum(frame))
	if s.onWrite != nil {
		s.onWrite(n)
	}
	return nil
}

// movingSquareScene is static for two frames, moves a square across three frames, then holds
// it still for two frames.
func movingSquareScene(g *MockFrameGenerator) []gocv.Mat {
	a := image.Rect(20, 20, 80, 80)
	b := image.Rect(120, 20, 180, 80)
	c := image.Rect(220, 20, 280, 80)
	return []gocv.Mat{
		g.Frame(),
		g.Frame(),
		g.Frame(a),
		g.Frame(b),
		g.Frame(c),
		g.Frame(c),
		g.Frame(c),
	}
}
