// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import "sync"

// Counter tracks how many requested resources are still loading.
// The frame loop reads it to decide whether a frame is complete.
// It is safe to share between managers and goroutines.
//
// A load counts down just before its result is published, so once a
// slot resolves it is no longer counted. The counter may briefly read
// zero while Manager.Pending still reports the slot; Manager.WaitAll
// is the way to wait for results.
type Counter struct {
	mu sync.Mutex
	n  int
}

// Inc marks one more load as outstanding.
func (c *Counter) Inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

// Dec marks one outstanding load as finished.
func (c *Counter) Dec() {
	c.mu.Lock()
	if c.n > 0 {
		c.n--
	}
	c.mu.Unlock()
}

// Value returns the number of outstanding loads.
func (c *Counter) Value() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Idle is true when no load is outstanding.
func (c *Counter) Idle() bool {
	return c.Value() == 0
}
