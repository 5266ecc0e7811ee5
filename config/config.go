// Package config holds the settings for one motion-detection run.
//
// Values come from DefaultConfig, optionally overlaid by a TOML file, and finally by
// command-line flags. The result is validated once and treated as read-only afterwards.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds runtime configuration for a run.
type Config struct {
	// Source is a camera index such as "0" or a video file path.
	Source    string `toml:"source"`
	OutputDir string `toml:"output_dir"`

	// ChangeThreshold is the total contour area, in pixels, the changed regions of a frame pair
	// must exceed before any of them count.
	ChangeThreshold int `toml:"change_threshold"`
	// DiffCutoff is the per-pixel intensity difference above which a pixel counts as changed.
	DiffCutoff         int     `toml:"diff_cutoff"`
	MinRegionArea      float64 `toml:"min_region_area"`
	MinEpisodeDuration float64 `toml:"min_episode_duration"`

	Codec         string `toml:"codec"`
	Display       bool   `toml:"display"`
	SnapshotDir   string `toml:"snapshot_dir"`
	SnapshotWidth int    `toml:"snapshot_width"`

	LogLevel string `toml:"log_level"`
	Profile  bool   `toml:"profile"`
}

// DefaultConfig returns a Config populated with standard defaults. Source is left empty.
func DefaultConfig() *Config {
	return &Config{
		OutputDir:          "output",
		ChangeThreshold:    500,
		DiffCutoff:         25,
		MinRegionArea:      500,
		MinEpisodeDuration: 1.0,
		Codec:              "mp4v",
		SnapshotWidth:      320,
		LogLevel:           "info",
	}
}

// Load reads a TOML file over DefaultConfig. Keys absent from the file keep their defaults.
// The result is not validated, since flags may still change it.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Save writes the configuration to path as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write config %s", path)
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.Source == "":
		return errors.Wrap(ErrInvalid, "source is required")
	case c.OutputDir == "":
		return errors.Wrap(ErrInvalid, "output directory is required")
	case c.ChangeThreshold < 0:
		return errors.Wrapf(ErrInvalid, "change threshold %d is negative", c.ChangeThreshold)
	case c.DiffCutoff < 0 || c.DiffCutoff > 254:
		return errors.Wrapf(ErrInvalid, "diff cutoff %d outside [0,254]", c.DiffCutoff)
	case c.MinRegionArea < 0:
		return errors.Wrapf(ErrInvalid, "min region area %v is negative", c.MinRegionArea)
	case c.MinEpisodeDuration < 0:
		return errors.Wrapf(ErrInvalid, "min episode duration %v is negative", c.MinEpisodeDuration)
	case len(c.Codec) != 4:
		return errors.Wrapf(ErrInvalid, "codec %q is not a four character code", c.Codec)
	case c.SnapshotDir != "" && c.SnapshotWidth <= 0:
		return errors.Wrapf(ErrInvalid, "snapshot width %d must be positive", c.SnapshotWidth)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
