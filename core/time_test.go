// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	qt "github.com/frankban/quicktest"

	"github.com/devblok/kore/core"
)

func TestTimeTickers(t *testing.T) {
	c := qt.New(t)
	mock := clock.NewMock()
	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 50, EventPollDelay: 100}, mock)
	defer tm.Stop()
	c.Assert(tm.Fps(), qt.Equals, 50)

	frames := 0
	for i := 0; i < 5; i++ {
		mock.Add(20 * time.Millisecond)
		select {
		case <-tm.FpsTicker().C:
			frames++
		default:
		}
	}
	c.Assert(frames, qt.Equals, 5)

	select {
	case <-tm.EventTicker().C:
	default:
		c.Fatal("event ticker did not fire after 100ms")
	}
	c.Assert(tm.Elapsed(), qt.Equals, 100*time.Millisecond)
}

func TestTimeDefaultEventDelay(t *testing.T) {
	c := qt.New(t)
	mock := clock.NewMock()
	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 1}, mock)
	defer tm.Stop()
	c.Assert(tm.Clock(), qt.Equals, clock.Clock(mock))

	mock.Add(10 * time.Millisecond)
	select {
	case <-tm.EventTicker().C:
	default:
		c.Fatal("event ticker did not fire")
	}
}
