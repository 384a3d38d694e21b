// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"
)

// NewTime creates a new time service
func NewTime(cfg TimeConfiguration) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond <= 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	eventDelay := time.Duration(cfg.EventPollDelay) * time.Millisecond
	if eventDelay <= 0 {
		eventDelay = interval
	}

	return &Time{
		fps:            cfg.FramesPerSecond,
		frameInterval:  interval,
		fpsTicker:      time.NewTicker(interval),
		eventPollDelay: cfg.EventPollDelay,
		eventTicker:    time.NewTicker(eventDelay),
		start:          time.Now(),
	}
}

// Time contains all the time services and tickers
type Time struct {
	fps           int
	frameInterval time.Duration
	fpsTicker     *time.Ticker

	eventPollDelay int
	eventTicker    *time.Ticker

	start time.Time
	last  time.Time
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FrameInterval is the target duration of a frame
func (t *Time) FrameInterval() time.Duration {
	return t.frameInterval
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *time.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *time.Ticker {
	return t.eventTicker
}

// Since returns the time elapsed since the service was created
func (t *Time) Since() time.Duration {
	return time.Since(t.start)
}

// Delta returns the time since the previous call, zero on the first one
func (t *Time) Delta() time.Duration {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		return 0
	}
	d := now.Sub(t.last)
	t.last = now
	return d
}

// Stop stops the tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
