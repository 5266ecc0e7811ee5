// Package pipeline - Drives the motion pipeline over a video source.
//
// One frame pair is fully processed (preprocess, detect, filter, track, annotate, write)
// before the next frame is read. The driver owns the tracker and the two-frame window; the
// source and sink are opened and closed by the caller.
package pipeline

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/jinyounghwa/videomotion/images"
	"github.com/jinyounghwa/videomotion/motion"
)

// ErrSinkWrite is returned when the output sink rejects a frame. The run stops at that frame.
var ErrSinkWrite = errors.New("sink write failed")

// sinkError matches ErrSinkWrite and unwraps to the sink's own error.
type sinkError struct {
	cause error
}

func (e *sinkError) Error() string {
	return ErrSinkWrite.Error() + ": " + e.cause.Error()
}

func (e *sinkError) Is(target error) bool {
	return target == ErrSinkWrite
}

func (e *sinkError) Unwrap() error {
	return e.cause
}

// Cause returns the sink's error for errors.Cause.
func (e *sinkError) Cause() error {
	return e.cause
}

// Source delivers frames sequentially.
type Source interface {
	// Read fills dst with the next frame. It returns false once the source is exhausted.
	Read(dst *gocv.Mat) bool
	// FPS is the nominal frame rate used to derive stream time.
	FPS() float64
}

// Sink consumes annotated frames.
type Sink interface {
	Write(frame gocv.Mat) error
}

// EventHandler receives every reportable episode transition.
type EventHandler func(motion.Event)

// FrameResult is the detection outcome for one written frame.
type FrameResult struct {
	// Index is the zero-based frame index.
	Index int
	// Time is the frame's stream time in seconds.
	Time float64
	// Motion is the frame's motion signal.
	Motion bool
	// Boxes are the accepted regions, empty for the first frame.
	Boxes []images.Rect
}

// FrameHandler is called after each frame has been written to the sink.
type FrameHandler func(FrameResult)

// Snapshotter stores an image of the frame on which an episode started.
type Snapshotter interface {
	Save(ep motion.Episode, frame gocv.Mat) error
}

// Summary describes a finished run.
type Summary struct {
	// Frames is the number of frames written to the sink.
	Frames int
	// Episodes is the number of reported (closed, long enough) episodes.
	Episodes int
	// Discarded is the number of episodes dropped for being too short.
	Discarded int
	// Open is the episode still in progress when the stream ended, if any.
	Open *motion.Episode
	// Cancelled is true when the run stopped on a cancellation request.
	Cancelled bool
}
