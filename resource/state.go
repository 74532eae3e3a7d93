// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"sync"
)

// State is the load state of a single slot.
type State int

// Slot states. A slot leaves StateLoading exactly once.
const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// cell is the write-once handoff between a loader goroutine and the
// goroutine owning the Manager.
type cell[T any] struct {
	mu    sync.Mutex
	value *T
	err   error
	set   bool
	done  chan struct{}
}

func newCell[T any]() *cell[T] {
	return &cell[T]{done: make(chan struct{})}
}

// publish stores the result of the load. Only the first call has an effect.
func (c *cell[T]) publish(value *T, err error) {
	c.mu.Lock()
	if c.set {
		c.mu.Unlock()
		return
	}
	c.value, c.err, c.set = value, err, true
	c.mu.Unlock()
	close(c.done)
}

// take returns the published result, ok is false while nothing was published.
func (c *cell[T]) take() (value *T, err error, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set {
		return nil, nil, false
	}
	value, err = c.value, c.err
	c.value, c.err = nil, nil
	return value, err, true
}

type slot[T any] struct {
	name  string
	state State
	value *T
	err   error

	// cell is dropped once the slot leaves StateLoading.
	cell *cell[T]
}

// finalize moves a published result into the slot. It never blocks.
func (s *slot[T]) finalize() State {
	if s.state != StateLoading {
		return s.state
	}
	value, err, ok := s.cell.take()
	if !ok {
		return StateLoading
	}
	if err != nil {
		s.err = err
		s.state = StateFailed
	} else {
		s.value = value
		s.state = StateReady
	}
	s.cell = nil
	return s.state
}

// finalizeBlocking waits for the loader goroutine, or for ctx, then finalizes.
func (s *slot[T]) finalizeBlocking(ctx context.Context) (State, error) {
	if s.state != StateLoading {
		return s.state, nil
	}
	select {
	case <-s.cell.done:
	case <-ctx.Done():
		return StateLoading, ctx.Err()
	}
	return s.finalize(), nil
}

// wait returns the channel closed when the slot's load has a result.
func (s *slot[T]) wait() <-chan struct{} {
	if s.state != StateLoading {
		return closed
	}
	return s.cell.done
}

var closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()
