package video

import "gocv.io/x/gocv"

// FrameWriter is anything that accepts frames.
type FrameWriter interface {
	Write(frame gocv.Mat) error
}

// TeeWriter writes each frame to every writer in order and stops at the first error.
type TeeWriter struct {
	writers []FrameWriter
}

// Tee fans one frame stream out to several writers, such as a file and a preview window.
// Nil writers are skipped.
func Tee(writers ...FrameWriter) *TeeWriter {
	t := &TeeWriter{}
	for _, w := range writers {
		if w != nil {
			t.writers = append(t.writers, w)
		}
	}
	return t
}

func (t *TeeWriter) Write(frame gocv.Mat) error {
	for _, w := range t.writers {
		if err := w.Write(frame); err != nil {
			return err
		}
	}
	return nil
}
