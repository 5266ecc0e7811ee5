package pipeline

import (
	"fmt"
	"time"
)

// RateMeter estimates frames processed per wall-clock second. The estimate is recomputed once
// at least one second has elapsed since the previous recompute.
type RateMeter struct {
	now    func() time.Time
	last   time.Time
	frames int
	rate   float64
}

// NewRateMeter returns a meter that starts counting now. A nil clock means time.Now.
func NewRateMeter(clock func() time.Time) *RateMeter {
	if clock == nil {
		clock = time.Now
	}
	return &RateMeter{now: clock, last: clock()}
}

// Tick counts one processed frame and returns the current estimate.
func (m *RateMeter) Tick() float64 {
	m.frames++
	now := m.now()
	if elapsed := now.Sub(m.last); elapsed >= time.Second {
		m.rate = float64(m.frames) / elapsed.Seconds()
		m.last = now
		m.frames = 0
	}
	return m.rate
}

// Rate returns the last computed estimate.
func (m *RateMeter) Rate() float64 {
	return m.rate
}

// Text is the readout drawn onto frames.
func (m *RateMeter) Text() string {
	if m.rate == 0 {
		return "FPS: 0"
	}
	return fmt.Sprintf("FPS: %.1f", m.rate)
}
