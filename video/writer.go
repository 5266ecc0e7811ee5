package video

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultCodec is the FourCC used for the output file.
const DefaultCodec = "mp4v"

// OutputPath returns the timestamped output file name for a run created at now.
func OutputPath(dir, codec string, now time.Time) string {
	name := "motion_detected_" + now.Format("20060102_150405") + extensionFor(codec)
	return filepath.Join(dir, name)
}

// extensionFor picks a container that can carry the codec.
func extensionFor(codec string) string {
	switch strings.ToUpper(codec) {
	case "MJPG", "XVID", "DIVX":
		return ".avi"
	default:
		return ".mp4"
	}
}

// FileWriter writes annotated frames to a single video file, one frame per call.
//
// The underlying writer is opened on the first Write, so a run that produces no frames
// leaves no file behind.
type FileWriter struct {
	path   string
	codec  string
	fps    float64
	width  int
	height int
	writer *gocv.VideoWriter
	frames int
}

// NewFileWriter creates dir if needed and prepares a writer at the same resolution and frame
// rate as the source.
//
// Arguments:
//   - dir: Output directory, created if absent.
//   - codec: Four character codec code such as "mp4v".
//   - fps: Output frame rate.
//   - width, height: Output frame size.
//   - now: Creation time used in the file name.
//
// Returns:
//   - *FileWriter: The writer. Always Close it.
//   - error: If the directory cannot be created or the parameters are unusable.
func NewFileWriter(dir, codec string, fps float64, width, height int, now time.Time) (*FileWriter, error) {
	if len(codec) != 4 {
		return nil, errors.Errorf("codec %q is not a four character code", codec)
	}
	if fps <= 0 {
		return nil, errors.Errorf("invalid output frame rate %v", fps)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create output directory %s", dir)
	}
	return &FileWriter{
		path:   OutputPath(dir, codec, now),
		codec:  codec,
		fps:    fps,
		width:  width,
		height: height,
	}, nil
}

// Write appends one frame.
func (w *FileWriter) Write(frame gocv.Mat) error {
	if frame.Empty() {
		return errors.New("cannot write an empty frame")
	}
	if w.writer == nil {
		if err := w.open(frame); err != nil {
			return err
		}
	}
	if frame.Cols() != w.width || frame.Rows() != w.height {
		return errors.Errorf("frame is %dx%d, writer expects %dx%d", frame.Cols(), frame.Rows(), w.width, w.height)
	}
	if err := w.writer.Write(frame); err != nil {
		return errors.Wrapf(err, "write frame %d to %s", w.frames, w.path)
	}
	w.frames++
	return nil
}

// open starts the file, taking the size from the first frame when the source did not report one.
func (w *FileWriter) open(first gocv.Mat) error {
	if w.width <= 0 || w.height <= 0 {
		w.width, w.height = first.Cols(), first.Rows()
	}
	vw, err := gocv.VideoWriterFile(w.path, w.codec, w.fps, w.width, w.height, true)
	if err != nil {
		return errors.Wrapf(err, "open %s", w.path)
	}
	if !vw.IsOpened() {
		vw.Close()
		return errors.Errorf("open %s: codec %s unavailable", w.path, w.codec)
	}
	w.writer = vw
	return nil
}

// Path is the output file name.
func (w *FileWriter) Path() string {
	return w.path
}

// Frames is the number of frames written so far.
func (w *FileWriter) Frames() int {
	return w.frames
}

// Close finalizes the file. It is a no-op if nothing was written.
func (w *FileWriter) Close() error {
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return err
}
