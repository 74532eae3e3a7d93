// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"time"

	"github.com/benbjohnson/clock"
)

const defaultEventPollDelay = 10 * time.Millisecond

// NewTime creates a new time service on clk, clock.New() for the wall
// clock or a clock.Mock in tests.
func NewTime(cfg TimeConfiguration, clk clock.Clock) *Time {
	var interval time.Duration
	if cfg.FramesPerSecond == 0 {
		interval = time.Nanosecond
	} else {
		interval = time.Second / (time.Duration)(cfg.FramesPerSecond)
	}

	eventPoll := time.Duration(cfg.EventPollDelay) * time.Millisecond
	if eventPoll <= 0 {
		eventPoll = defaultEventPollDelay
	}

	return &Time{
		clock:          clk,
		start:          clk.Now(),
		fps:            cfg.FramesPerSecond,
		fpsTicker:      clk.Ticker(interval),
		eventPollDelay: eventPoll,
		eventTicker:    clk.Ticker(eventPoll),
	}
}

// Time contains all the time services and tickers
type Time struct {
	clock clock.Clock
	start time.Time

	fps       int
	fpsTicker *clock.Ticker

	eventPollDelay time.Duration
	eventTicker    *clock.Ticker
}

// Fps gets the set frames per second
func (t *Time) Fps() int {
	return t.fps
}

// FpsTicker gets the initialized fps ticker
func (t *Time) FpsTicker() *clock.Ticker {
	return t.fpsTicker
}

// EventTicker gets the initialized event ticker for the event loop
func (t *Time) EventTicker() *clock.Ticker {
	return t.eventTicker
}

// Clock is the clock the tickers run on
func (t *Time) Clock() clock.Clock {
	return t.clock
}

// Elapsed is the time since the service was created
func (t *Time) Elapsed() time.Duration {
	return t.clock.Since(t.start)
}

// Stop stops the tickers
func (t *Time) Stop() {
	t.fpsTicker.Stop()
	t.eventTicker.Stop()
}
