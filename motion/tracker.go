// Package motion - Temporal motion episode tracking.
//
// The Tracker turns the per-frame motion signal into episodes: a contiguous run of frames with
// motion present, bounded by an Idle→Active and an Active→Idle transition. Episodes shorter
// than the configured minimum duration are dropped without being reported.
//
//	tracker := motion.New(motion.Config{MinEpisodeDuration: 1.0})
//	for i, present := range signals {
//	    if ev, ok := tracker.Process(present, motion.StreamTime(i, fps)); ok {
//	        fmt.Println(ev)
//	    }
//	}
package motion

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultMinEpisodeDuration is the default minimum reported episode length in seconds.
const DefaultMinEpisodeDuration = 1.0

// State is the tracker state.
type State int

const (
	// Idle means no episode is open.
	Idle State = iota
	// Active means an episode is open.
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EpisodeStarted is emitted on the Idle→Active transition.
	EpisodeStarted EventKind = iota
	// EpisodeEnded is emitted on the Active→Idle transition of an episode that met the
	// minimum duration.
	EpisodeEnded
)

func (k EventKind) String() string {
	switch k {
	case EpisodeStarted:
		return "started"
	case EpisodeEnded:
		return "ended"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Episode is a contiguous stretch of motion in stream time (seconds).
type Episode struct {
	ID    uuid.UUID
	Start float64
	// End and Duration are zero while the episode is open.
	End      float64
	Duration float64
}

// Closed reports whether the episode has an end time.
func (e Episode) Closed() bool {
	return e.End > e.Start
}

// Event is a reportable tracker transition.
type Event struct {
	Kind    EventKind
	Episode Episode
}

func (e Event) String() string {
	if e.Kind == EpisodeEnded {
		return fmt.Sprintf("motion ended at %.2fs, duration %.2fs", e.Episode.End, e.Episode.Duration)
	}
	return fmt.Sprintf("motion started at %.2fs", e.Episode.Start)
}

// Config configures a Tracker.
type Config struct {
	// MinEpisodeDuration is the shortest episode, in seconds, that is reported when it ends.
	MinEpisodeDuration float64
}

// Tracker is the two-state episode machine. It is owned by a single pipeline run and is not
// safe for concurrent use.
type Tracker struct {
	config    Config
	state     State
	current   Episode
	reported  int
	discarded int
	newID     func() uuid.UUID
}

// New creates a Tracker in the Idle state.
func New(config Config) *Tracker {
	return &Tracker{
		config: config,
		state:  Idle,
		newID:  uuid.New,
	}
}

// Process feeds one frame's motion signal stamped with its stream time.
//
// Arguments:
//   - present: Whether at least one region survived filtering in this frame.
//   - at: The frame's stream time in seconds. Must not decrease between calls.
//
// Returns:
//   - Event: The reportable transition, if any.
//   - bool: false when nothing is to be reported, including when a short episode is dropped.
func (t *Tracker) Process(present bool, at float64) (Event, bool) {
	switch {
	case t.state == Idle && present:
		t.state = Active
		t.current = Episode{ID: t.newID(), Start: at}
		return Event{Kind: EpisodeStarted, Episode: t.current}, true

	case t.state == Active && !present:
		t.state = Idle
		ep := t.current
		ep.End = at
		ep.Duration = at - ep.Start
		t.current = Episode{}

		if ep.Duration >= t.config.MinEpisodeDuration {
			t.reported++
			return Event{Kind: EpisodeEnded, Episode: ep}, true
		}
		t.discarded++
		return Event{}, false
	}
	return Event{}, false
}

// State returns the current state.
func (t *Tracker) State() State {
	return t.state
}

// Open returns the episode that is still in progress, if any. At stream end it is left
// unterminated and never reported.
func (t *Tracker) Open() (Episode, bool) {
	if t.state != Active {
		return Episode{}, false
	}
	return t.current, true
}

// Reported is the number of episodes that ended and met the minimum duration.
func (t *Tracker) Reported() int {
	return t.reported
}

// Discarded is the number of episodes dropped for being too short.
func (t *Tracker) Discarded() int {
	return t.discarded
}

// StreamTime converts a zero-based frame index into seconds of stream time.
func StreamTime(frameIndex int, fps float64) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frameIndex) / fps
}
