package video

import (
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/jinyounghwa/videomotion/motion"
)

// DefaultSnapshotWidth is the thumbnail width used when none is configured.
const DefaultSnapshotWidth = 320

// Snapshotter saves a downscaled JPEG of the first annotated frame of each motion episode.
type Snapshotter struct {
	dir     string
	width   uint
	quality int
}

// NewSnapshotter creates dir if needed. A width of zero or less selects DefaultSnapshotWidth.
func NewSnapshotter(dir string, width int) (*Snapshotter, error) {
	if dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if width <= 0 {
		width = DefaultSnapshotWidth
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create snapshot directory %s", dir)
	}
	return &Snapshotter{dir: dir, width: uint(width), quality: 85}, nil
}

// PathFor is the file a snapshot of ep is written to.
func (s *Snapshotter) PathFor(ep motion.Episode) string {
	return filepath.Join(s.dir, fmt.Sprintf("motion_%08.2fs_%s.jpg", ep.Start, ep.ID))
}

// Save writes a thumbnail of frame. The aspect ratio is preserved and frames narrower than
// the target width are not upscaled.
func (s *Snapshotter) Save(ep motion.Episode, frame gocv.Mat) error {
	img, err := frame.ToImage()
	if err != nil {
		return errors.Wrap(err, "convert snapshot frame")
	}

	width := s.width
	if w := uint(img.Bounds().Dx()); w < width {
		width = w
	}
	thumb := resize.Resize(width, 0, img, resize.Lanczos3)

	path := s.PathFor(ep)
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create snapshot %s", path)
	}
	if err := jpeg.Encode(f, thumb, &jpeg.Options{Quality: s.quality}); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode snapshot %s", path)
	}
	return f.Close()
}
