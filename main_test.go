package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/jinyounghwa/videomotion/config"
	"github.com/jinyounghwa/videomotion/video"
)

func TestParseArgs_Defaults(t *testing.T) {
	cfg, err := parseArgs([]string{"0"}, io.Discard)
	require.NoError(t, err)

	want := config.DefaultConfig()
	want.Source = "0"
	assert.Equal(t, want, cfg)
}

func TestParseArgs_Flags(t *testing.T) {
	cfg, err := parseArgs([]string{
		"-o", "clips", "-t", "800", "-min-area", "1200",
		"yard.mp4",
		"-min-duration", "2.5", "-show-window", "-snapshots", "snaps",
	}, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, "yard.mp4", cfg.Source)
	assert.Equal(t, "clips", cfg.OutputDir)
	assert.Equal(t, 800, cfg.ChangeThreshold)
	assert.Equal(t, 1200.0, cfg.MinRegionArea)
	assert.Equal(t, 2.5, cfg.MinEpisodeDuration)
	assert.True(t, cfg.Display)
	assert.Equal(t, "snaps", cfg.SnapshotDir)
}

func TestParseArgs_ZeroDuration(t *testing.T) {
	cfg, err := parseArgs([]string{"-min-duration", "0", "clip.mp4"}, io.Discard)
	require.NoError(t, err)
	assert.Zero(t, cfg.MinEpisodeDuration)
}

func TestParseArgs_LongAliases(t *testing.T) {
	cfg, err := parseArgs([]string{"-output", "out2", "-threshold", "42", "1"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "out2", cfg.OutputDir)
	assert.Equal(t, 42, cfg.ChangeThreshold)
	assert.Equal(t, "1", cfg.Source)
}

func TestParseArgs_ConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
source = "from_file.mp4"
change_threshold = 900
min_region_area = 50.0
`), 0o644))

	cfg, err := parseArgs([]string{"-config", path, "-t", "100"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "from_file.mp4", cfg.Source)
	assert.Equal(t, 100, cfg.ChangeThreshold, "explicit flag overrides the file")
	assert.Equal(t, 50.0, cfg.MinRegionArea, "file value survives unset flags")

	cfg, err = parseArgs([]string{"-config", path, "other.mp4"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "other.mp4", cfg.Source)
}

func TestParseArgs_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no source", nil},
		{"two sources", []string{"a.mp4", "b.mp4"}},
		{"unknown flag", []string{"-frobnicate", "0"}},
		{"bad number", []string{"-t", "lots", "0"}},
		{"negative duration", []string{"-min-duration", "-1", "0"}},
		{"missing config", []string{"-config", "/nonexistent/run.toml", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.args, io.Discard)
			assert.Error(t, err)
		})
	}
}

func TestRealMain_ExitCodes(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitUsage, realMain(nil, &stderr))
	assert.Contains(t, stderr.String(), "source is required")

	stderr.Reset()
	assert.Equal(t, exitOK, realMain([]string{"-h"}, &stderr))
	assert.Contains(t, stderr.String(), "usage: videomotion")

	stderr.Reset()
	missing := filepath.Join(t.TempDir(), "missing.mp4")
	assert.Equal(t, exitError, realMain([]string{"-o", t.TempDir(), missing}, &stderr))
	assert.Contains(t, stderr.String(), "video source unavailable")
}

func TestCheckSourceFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.NoError(t, checkSourceFile("0", logger))
	assert.NoError(t, checkSourceFile("rtsp://camera.local/stream", logger))

	err := checkSourceFile(filepath.Join(t.TempDir(), "missing.mp4"), logger)
	assert.True(t, errors.Is(err, video.ErrSourceUnavailable))

	var buf bytes.Buffer
	odd := filepath.Join(t.TempDir(), "clip.xyz")
	require.NoError(t, os.WriteFile(odd, []byte("not a video"), 0o644))
	assert.NoError(t, checkSourceFile(odd, slog.New(slog.NewTextHandler(&buf, nil))))
	assert.Contains(t, buf.String(), "unfamiliar video extension")
}

func TestParseArgs_Help(t *testing.T) {
	_, err := parseArgs([]string{"-help"}, io.Discard)
	assert.True(t, errors.Is(err, flag.ErrHelp))
}

// TestRealMain_FrameDirectory runs the whole tool over a directory of PNG frames.
func TestRealMain_FrameDirectory(t *testing.T) {
	frames := t.TempDir()
	for i := 0; i < 8; i++ {
		frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 240, 320, gocv.MatTypeCV8UC3)
		if i >= 2 && i <= 4 {
			x := 20 + (i-2)*100
			gocv.Rectangle(&frame, image.Rect(x, 80, x+60, 140), color.RGBA{R: 255, G: 255, B: 255, A: 255}, -1)
		}
		require.True(t, gocv.IMWrite(filepath.Join(frames, fmt.Sprintf("frame-%03d.png", i)), frame))
		frame.Close()
	}

	out := filepath.Join(t.TempDir(), "out")
	snaps := filepath.Join(t.TempDir(), "snaps")
	var stderr bytes.Buffer
	code := realMain([]string{
		"-codec", "MJPG", "-o", out, "-snapshots", snaps, "-min-duration", "0.05", "-profile",
		frames,
	}, &stderr)
	require.Equal(t, exitOK, code, stderr.String())

	written, err := filepath.Glob(filepath.Join(out, "motion_detected_*.avi"))
	require.NoError(t, err)
	assert.Len(t, written, 1)

	thumbs, err := filepath.Glob(filepath.Join(snaps, "*.jpg"))
	require.NoError(t, err)
	assert.Len(t, thumbs, 1)

	logs := stderr.String()
	assert.Contains(t, logs, "motion started")
	assert.Contains(t, logs, "motion ended")
	assert.Contains(t, logs, "frames=8")
	assert.Contains(t, logs, "msg=profile")
}
