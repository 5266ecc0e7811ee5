package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"github.com/jinyounghwa/videomotion/config"
	"github.com/jinyounghwa/videomotion/images"
	"github.com/jinyounghwa/videomotion/pipeline"
	"github.com/jinyounghwa/videomotion/profiler"
	"github.com/jinyounghwa/videomotion/video"
)

const (
	// windowTitle is the title of the preview window.
	windowTitle = "Motion Detection"

	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// supportedVideoExtensions are the containers known to decode; others are attempted with a warning.
var supportedVideoExtensions = []string{".mp4", ".avi", ".mov", ".mkv"}

func main() {
	os.Exit(realMain(os.Args[1:], os.Stderr))
}

func realMain(args []string, stderr io.Writer) int {
	cfg, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}

	logger := cfg.NewLogger(stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("run failed", "err", err)
		return exitError
	}
	return exitOK
}

// parseArgs builds the run configuration: defaults, then the -config file, then explicit flags.
// The source may appear before or after the flags.
func parseArgs(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("videomotion", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: videomotion [flags] <camera index | video file>")
		fs.PrintDefaults()
	}

	var configPath string
	flagged := config.DefaultConfig()
	fs.StringVar(&configPath, "config", "", "TOML config file; explicit flags override it")
	fs.StringVar(&flagged.OutputDir, "o", flagged.OutputDir, "Output directory (shorthand)")
	fs.StringVar(&flagged.OutputDir, "output", flagged.OutputDir, "Output directory")
	fs.IntVar(&flagged.ChangeThreshold, "t", flagged.ChangeThreshold, "Changed area threshold (shorthand)")
	fs.IntVar(&flagged.ChangeThreshold, "threshold", flagged.ChangeThreshold, "Total changed contour area a frame pair must exceed to count as motion")
	fs.IntVar(&flagged.DiffCutoff, "diff-cutoff", flagged.DiffCutoff, "Per-pixel intensity difference treated as change")
	fs.Float64Var(&flagged.MinRegionArea, "min-area", flagged.MinRegionArea, "Minimum contour area of a motion region")
	fs.Float64Var(&flagged.MinEpisodeDuration, "min-duration", flagged.MinEpisodeDuration, "Minimum motion duration in seconds before reporting")
	fs.StringVar(&flagged.Codec, "codec", flagged.Codec, "Output FourCC codec")
	fs.BoolVar(&flagged.Display, "show-window", flagged.Display, "Show a preview window; press q to stop")
	fs.StringVar(&flagged.SnapshotDir, "snapshots", flagged.SnapshotDir, "Directory for episode snapshots (disabled when empty)")
	fs.IntVar(&flagged.SnapshotWidth, "snapshot-width", flagged.SnapshotWidth, "Snapshot width in pixels")
	fs.StringVar(&flagged.LogLevel, "log-level", flagged.LogLevel, "Log level: debug, info, warn, error")
	fs.BoolVar(&flagged.Profile, "profile", flagged.Profile, "Log per-stage timings at the end of the run")

	var positional []string
	rest := args
	for {
		if err := fs.Parse(rest); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		rest = fs.Args()[1:]
	}
	if len(positional) > 1 {
		return nil, errors.Errorf("expected one source, got %d: %s", len(positional), strings.Join(positional, " "))
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) { applyFlag(cfg, flagged, f.Name) })
	if len(positional) == 1 {
		cfg.Source = positional[0]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlag copies one explicitly set flag from flagged onto cfg.
func applyFlag(cfg, flagged *config.Config, name string) {
	switch name {
	case "o", "output":
		cfg.OutputDir = flagged.OutputDir
	case "t", "threshold":
		cfg.ChangeThreshold = flagged.ChangeThreshold
	case "diff-cutoff":
		cfg.DiffCutoff = flagged.DiffCutoff
	case "min-area":
		cfg.MinRegionArea = flagged.MinRegionArea
	case "min-duration":
		cfg.MinEpisodeDuration = flagged.MinEpisodeDuration
	case "codec":
		cfg.Codec = flagged.Codec
	case "show-window":
		cfg.Display = flagged.Display
	case "snapshots":
		cfg.SnapshotDir = flagged.SnapshotDir
	case "snapshot-width":
		cfg.SnapshotWidth = flagged.SnapshotWidth
	case "log-level":
		cfg.LogLevel = flagged.LogLevel
	case "profile":
		cfg.Profile = flagged.Profile
	}
}

// checkSourceFile rejects missing files and warns about unfamiliar containers. Devices, frame
// directories and stream URLs are left for the source to judge.
func checkSourceFile(source string, logger *slog.Logger) error {
	if _, device := video.DeviceIndex(source); device || strings.Contains(source, "://") {
		return nil
	}
	info, err := os.Stat(source)
	if err != nil {
		return errors.Wrapf(video.ErrSourceUnavailable, "%s: %v", source, err)
	}
	if info.IsDir() {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(source))
	for _, supported := range supportedVideoExtensions {
		if ext == supported {
			return nil
		}
	}
	logger.Warn("unfamiliar video extension; trying anyway", "ext", ext, "supported", supportedVideoExtensions)
	return nil
}

// run opens the source and sinks, drives the pipeline, and releases everything on return.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := checkSourceFile(cfg.Source, logger); err != nil {
		return err
	}

	capture, err := video.OpenSource(cfg.Source)
	if err != nil {
		return err
	}
	defer capture.Close()

	width, height := capture.Size()
	writer, err := video.NewFileWriter(cfg.OutputDir, cfg.Codec, capture.FPS(), width, height, time.Now())
	if err != nil {
		return err
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("closing output failed", "path", writer.Path(), "err", err)
		}
	}()

	sinks := []video.FrameWriter{writer}
	if cfg.Display {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		display := video.NewDisplay(windowTitle, cancel)
		defer display.Close()
		sinks = append(sinks, display)
	}

	var snapshots pipeline.Snapshotter
	if cfg.SnapshotDir != "" {
		s, err := video.NewSnapshotter(cfg.SnapshotDir, cfg.SnapshotWidth)
		if err != nil {
			return err
		}
		snapshots = s
	}

	var prof *profiler.Profiler
	if cfg.Profile {
		prof = profiler.New(profiler.ProfilingOptions{})
	}

	logger.Info("starting motion detection",
		"source", cfg.Source,
		"resolution", fmt.Sprintf("%dx%d", width, height),
		"fps", capture.FPS(),
		"output", writer.Path(),
		"threshold", cfg.ChangeThreshold,
		"min_area", cfg.MinRegionArea,
		"min_duration", cfg.MinEpisodeDuration,
	)

	driver := pipeline.New(pipeline.Options{
		Change: images.ChangeConfig{
			DiffCutoff:       float32(cfg.DiffCutoff),
			MinChangedArea:   cfg.ChangeThreshold,
			DilateIterations: images.DefaultDilateIterations,
		},
		MinRegionArea:      cfg.MinRegionArea,
		MinEpisodeDuration: cfg.MinEpisodeDuration,
		Logger:             logger,
		Snapshots:          snapshots,
		Profiler:           prof,
	})
	defer driver.Close()

	summary, err := driver.Run(ctx, capture, video.Tee(sinks...))
	if prof != nil {
		prof.Report(logger)
	}
	if err != nil {
		return err
	}

	if writer.Frames() > 0 {
		logger.Info("output saved", "path", writer.Path(), "frames", writer.Frames())
	}
	if summary.Cancelled {
		logger.Info("stopped before end of stream")
	}
	return nil
}
