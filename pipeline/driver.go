package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/jinyounghwa/videomotion/images"
	"github.com/jinyounghwa/videomotion/motion"
	"github.com/jinyounghwa/videomotion/profiler"
)

// DefaultFPS is used for stream time when the source reports no frame rate.
const DefaultFPS = 30.0

// Options configures a Driver. A zero Change falls back to images.DefaultChangeConfig.
type Options struct {
	// Change configures the change detector.
	Change images.ChangeConfig
	// MinRegionArea is the contour area a region must exceed to count as motion.
	MinRegionArea float64
	// MinEpisodeDuration is the shortest reported episode in seconds.
	MinEpisodeDuration float64

	Logger    *slog.Logger
	OnEvent   EventHandler
	OnFrame   FrameHandler
	Snapshots Snapshotter
	Profiler  *profiler.Profiler
	// Clock drives the processing-rate readout; nil means time.Now.
	Clock func() time.Time
}

// Driver sequences the pipeline components for a single run; create a new Driver per run.
type Driver struct {
	opts     Options
	logger   *slog.Logger
	detector *images.ChangeDetector
	tracker  *motion.Tracker
}

// New creates a Driver with a fresh tracker in the Idle state. Call Close when done.
func New(opts Options) *Driver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Change == (images.ChangeConfig{}) {
		opts.Change = images.DefaultChangeConfig()
	}
	return &Driver{
		opts:     opts,
		logger:   logger,
		detector: images.NewChangeDetector(opts.Change),
		tracker:  motion.New(motion.Config{MinEpisodeDuration: opts.MinEpisodeDuration}),
	}
}

// Close releases the detector's native resources.
func (d *Driver) Close() {
	d.detector.Close()
}

// Run pulls frames from src until it is exhausted or ctx is cancelled, writing one annotated
// frame to sink per frame read.
//
// The first frame has no predecessor and is written with the rate readout only. Every later
// frame i is compared with frame i-1 and its motion signal is stamped with stream time i/fps.
// Cancellation is checked after each frame has been written and is not an error.
//
// Arguments:
//   - ctx: Cancellation signal.
//   - src: The frame source. Run does not close it.
//   - sink: The frame sink. Run does not close it.
//
// Returns:
//   - Summary: Counts for the run, including any episode left open at stream end.
//   - error: A detection error wrapping images.ErrInvalidFrame, or ErrSinkWrite.
func (d *Driver) Run(ctx context.Context, src Source, sink Sink) (Summary, error) {
	var summary Summary

	fps := src.FPS()
	if fps <= 0 {
		fps = DefaultFPS
	}

	// Two-frame raw window; the buffers are swapped as the window slides.
	prev := gocv.NewMat()
	defer func() { prev.Close() }()
	curr := gocv.NewMat()
	defer func() { curr.Close() }()

	if ok := src.Read(&prev); !ok || prev.Empty() {
		d.logger.Info("source produced no frames")
		return summary, nil
	}

	rate := NewRateMeter(d.opts.Clock)
	rate.Tick()
	if err := d.emit(sink, prev, nil, rate.Text()); err != nil {
		return summary, errors.Wrap(err, "frame 0")
	}
	summary.Frames++
	d.frameDone(FrameResult{Index: 0, Time: 0})

	prevGray, err := d.preprocess(prev)
	if err != nil {
		prevGray.Close()
		return d.finish(summary), errors.Wrap(err, "frame 0")
	}
	defer func() { prevGray.Close() }()

	for index := 1; ; index++ {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		if ok := src.Read(&curr); !ok || curr.Empty() {
			break
		}
		rate.Tick()

		currGray, err := d.preprocess(curr)
		if err != nil {
			currGray.Close()
			return d.finish(summary), errors.Wrapf(err, "frame %d", index)
		}

		boxes, err := d.detect(prevGray, currGray)
		if err != nil {
			currGray.Close()
			return d.finish(summary), errors.Wrapf(err, "frame %d", index)
		}

		at := motion.StreamTime(index, fps)
		discarded := d.tracker.Discarded()
		event, report := d.tracker.Process(len(boxes) > 0, at)
		if d.tracker.Discarded() > discarded {
			d.logger.Debug("motion too short; not reported", "end", at)
		}

		annotated := d.annotate(curr, boxes, rate.Text())
		if report {
			d.handleEvent(event, annotated)
		}
		err = d.write(sink, annotated)
		annotated.Close()
		if err != nil {
			currGray.Close()
			return d.finish(summary), errors.Wrapf(err, "frame %d", index)
		}
		summary.Frames++
		d.frameDone(FrameResult{Index: index, Time: at, Motion: len(boxes) > 0, Boxes: boxes})

		prevGray.Close()
		prevGray = currGray
		prev, curr = curr, prev
	}

	summary = d.finish(summary)
	d.logger.Info("run finished",
		"frames", summary.Frames,
		"episodes", summary.Episodes,
		"discarded", summary.Discarded,
		"cancelled", summary.Cancelled,
	)
	if summary.Open != nil {
		d.logger.Info("motion still active at stream end; not reported",
			"id", summary.Open.ID, "start", summary.Open.Start)
	}
	return summary, nil
}

// preprocess times Preprocess on the profiler.
func (d *Driver) preprocess(frame gocv.Mat) (gocv.Mat, error) {
	defer d.timed("preprocess")()
	return images.Preprocess(frame)
}

// detect runs change detection and region filtering and returns the accepted boxes.
func (d *Driver) detect(prev, curr gocv.Mat) ([]images.Rect, error) {
	defer d.timed("detect")()

	regions, err := d.detector.Detect(prev, curr)
	if err != nil {
		return nil, err
	}
	_, boxes := images.FilterRegions(regions, d.opts.MinRegionArea)
	if d.opts.Profiler != nil {
		d.opts.Profiler.RecordMetric("regions", float64(len(regions)))
		d.opts.Profiler.RecordMetric("accepted", float64(len(boxes)))
	}
	return boxes, nil
}

func (d *Driver) annotate(frame gocv.Mat, boxes []images.Rect, overlay string) gocv.Mat {
	defer d.timed("annotate")()
	return images.Annotate(frame, boxes, overlay)
}

// emit annotates and writes a frame.
func (d *Driver) emit(sink Sink, frame gocv.Mat, boxes []images.Rect, overlay string) error {
	annotated := d.annotate(frame, boxes, overlay)
	defer annotated.Close()
	return d.write(sink, annotated)
}

func (d *Driver) write(sink Sink, frame gocv.Mat) error {
	defer d.timed("write")()
	if err := sink.Write(frame); err != nil {
		return &sinkError{cause: err}
	}
	return nil
}

func (d *Driver) handleEvent(event motion.Event, frame gocv.Mat) {
	ep := event.Episode
	switch event.Kind {
	case motion.EpisodeStarted:
		d.logger.Info("motion started", "id", ep.ID, "start", ep.Start)
		if d.opts.Snapshots != nil {
			if err := d.opts.Snapshots.Save(ep, frame); err != nil {
				d.logger.Warn("snapshot failed", "id", ep.ID, "err", err)
			}
		}
	case motion.EpisodeEnded:
		d.logger.Info("motion ended", "id", ep.ID, "start", ep.Start, "end", ep.End, "duration", ep.Duration)
	}
	if d.opts.OnEvent != nil {
		d.opts.OnEvent(event)
	}
}

func (d *Driver) frameDone(result FrameResult) {
	if d.opts.OnFrame != nil {
		d.opts.OnFrame(result)
	}
}

func (d *Driver) finish(summary Summary) Summary {
	summary.Episodes = d.tracker.Reported()
	summary.Discarded = d.tracker.Discarded()
	if ep, ok := d.tracker.Open(); ok {
		summary.Open = &ep
	}
	return summary
}

func (d *Driver) timed(name string) func() {
	if d.opts.Profiler == nil {
		return func() {}
	}
	return d.opts.Profiler.StartOperation(name)
}
