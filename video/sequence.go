package video

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SequenceFPS is the frame rate assigned to image sequences, which carry no timing of their own.
const SequenceFPS = DefaultFPS

// frameFile is one numbered frame of an image sequence.
type frameFile struct {
	// Path is the path to the image file.
	Path string
	// Frame is the number parsed from the file name.
	Frame int
}

// Sequence is a video source backed by a directory of numbered still images such as
// frame-0001.png, frame-0002.png, and so on.
type Sequence struct {
	dir    string
	files  []frameFile
	next   int
	fps    float64
	width  int
	height int
}

// OpenSequence lists the numbered images in dir in frame order. Only the first image is
// decoded here, to learn the frame size.
//
// Arguments:
//   - dir: Directory containing .jpg, .jpeg, .png or .bmp frames named by frame number,
//     optionally prefixed with "frame-".
//   - fps: Frame rate to report; non-positive selects SequenceFPS.
//
// Returns:
//   - *Sequence: The source.
//   - error: ErrSourceUnavailable if the directory cannot be read, holds no frames, or holds a
//     file whose name is not a frame number.
func OpenSequence(dir string, fps float64) (*Sequence, error) {
	files, err := listFrameFiles(dir)
	if err != nil {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: %v", dir, err)
	}
	if len(files) == 0 {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: no frames", dir)
	}
	if fps <= 0 {
		fps = SequenceFPS
	}

	first := gocv.IMRead(files[0].Path, gocv.IMReadColor)
	defer first.Close()
	if first.Empty() {
		return nil, errors.Wrapf(ErrSourceUnavailable, "%s: cannot decode", files[0].Path)
	}

	return &Sequence{
		dir:    dir,
		files:  files,
		fps:    fps,
		width:  first.Cols(),
		height: first.Rows(),
	}, nil
}

func listFrameFiles(dir string) ([]frameFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []frameFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp":
			stem := strings.TrimPrefix(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())), "frame-")
			frame, err := strconv.Atoi(stem)
			if err != nil {
				return nil, errors.Errorf("%s is not a numbered frame", entry.Name())
			}
			files = append(files, frameFile{
				Path:  filepath.Join(dir, entry.Name()),
				Frame: frame,
			})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Frame < files[j].Frame
	})

	return files, nil
}

// Read decodes the next image into dst. An image that fails to decode ends the sequence.
func (s *Sequence) Read(dst *gocv.Mat) bool {
	if s.next >= len(s.files) {
		return false
	}
	img := gocv.IMRead(s.files[s.next].Path, gocv.IMReadColor)
	defer img.Close()
	s.next++
	if img.Empty() {
		return false
	}
	img.CopyTo(dst)
	return true
}

func (s *Sequence) FPS() float64 {
	return s.fps
}

// Size returns the size of the first frame.
func (s *Sequence) Size() (int, int) {
	return s.width, s.height
}

// Len is the number of frames in the sequence.
func (s *Sequence) Len() int {
	return len(s.files)
}

func (s *Sequence) Close() error {
	return nil
}
