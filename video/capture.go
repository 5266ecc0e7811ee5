// Package video - Frame sources and sinks backed by OpenCV capture, writer and window handles.
//
// Every handle here is scoped to one pipeline run: the caller opens it, passes it to the
// driver, and closes it with defer so it is released on every exit path.
package video

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultFPS is assumed when a device reports no frame rate, which webcams commonly do.
const DefaultFPS = 30.0

// ErrSourceUnavailable is returned when a video source cannot be opened.
var ErrSourceUnavailable = errors.New("video source unavailable")

// Reader is an opened frame source.
type Reader interface {
	// Read fills dst with the next frame and returns false once the source is exhausted.
	Read(dst *gocv.Mat) bool
	FPS() float64
	Size() (int, int)
	Close() error
}

// OpenSource opens a directory of numbered images as a Sequence and anything else with Open.
func OpenSource(source string) (Reader, error) {
	if info, err := os.Stat(source); err == nil && info.IsDir() {
		return OpenSequence(source, 0)
	}
	return Open(source)
}

// Capture is a video source: a camera device or a recorded file.
type Capture struct {
	source string
	device bool
	cap    *gocv.VideoCapture
	fps    float64
	width  int
	height int
}

// Open opens a video source. A source made only of digits is a camera device index; anything
// else is a file path or stream URL.
//
// Arguments:
//   - source: Device index such as "0", or a path such as "clips/yard.mp4".
//
// Returns:
//   - *Capture: The opened source. Always Close it.
//   - error: ErrSourceUnavailable if the source cannot be opened.
func Open(source string) (*Capture, error) {
	if source == "" {
		return nil, errors.Wrap(ErrSourceUnavailable, "no source given")
	}

	var (
		vc  *gocv.VideoCapture
		err error
	)
	id, device := DeviceIndex(source)
	if device {
		vc, err = gocv.OpenVideoCapture(id)
	} else {
		vc, err = gocv.OpenVideoCapture(source)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: %v", source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: not opened", source)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = DefaultFPS
	}

	return &Capture{
		source: source,
		device: device,
		cap:    vc,
		fps:    fps,
		width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// DeviceIndex reports whether source names a camera device and returns its index.
func DeviceIndex(source string) (int, bool) {
	if source == "" {
		return 0, false
	}
	for _, r := range source {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(source)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Read fills dst with the next frame and returns false once the source is exhausted.
func (c *Capture) Read(dst *gocv.Mat) bool {
	return c.cap.Read(dst)
}

// FPS is the nominal frame rate, DefaultFPS when the source reports none.
func (c *Capture) FPS() float64 {
	return c.fps
}

// Size returns the frame width and height reported by the source.
func (c *Capture) Size() (int, int) {
	return c.width, c.height
}

// IsDevice reports whether the source is a live camera.
func (c *Capture) IsDevice() bool {
	return c.device
}

func (c *Capture) String() string {
	return c.source
}

// Close releases the capture handle.
func (c *Capture) Close() error {
	return c.cap.Close()
}
