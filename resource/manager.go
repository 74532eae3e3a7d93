// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// NewManager creates an empty Manager for one resource kind.
// The kind names the Manager in logs, errors and metrics.
func NewManager[T any](kind string, ctor Constructor[T], opts ...Option) *Manager[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = discardLogger()
	}
	return &Manager[T]{
		id:        uuid.New(),
		kind:      kind,
		ctor:      ctor,
		opts:      o,
		log:       o.logger.WithField("kind", kind),
		positions: make(map[string]int),
	}
}

// Manager is a keyed single-flight cache for one resource kind.
//
// Every distinct name gets one slot, indexed in request order. Slots are
// never removed or renumbered, so an index stays valid for the lifetime
// of the Manager.
//
// A Manager is not safe for concurrent use. It is meant to be owned by
// one goroutine, loader goroutines only ever write to their own slot's
// cell.
type Manager[T any] struct {
	id   uuid.UUID
	kind string
	ctor Constructor[T]
	opts options
	log  log.FieldLogger

	slots     []slot[T]
	positions map[string]int
}

// ID uniquely identifies the Manager, handles remember it when bound.
func (m *Manager[T]) ID() uuid.UUID {
	return m.id
}

// Kind returns the kind the Manager was created with.
func (m *Manager[T]) Kind() string {
	return m.kind
}

// Len returns the number of slots.
func (m *Manager[T]) Len() int {
	return len(m.slots)
}

// Lookup returns the index of name without requesting it.
func (m *Manager[T]) Lookup(name string) (int, bool) {
	idx, ok := m.positions[name]
	return idx, ok
}

// Name returns the name the slot was requested with.
func (m *Manager[T]) Name(index int) (string, error) {
	s, err := m.slot(index)
	if err != nil {
		return "", err
	}
	return s.name, nil
}

// Request returns the slot index for name. The first request for a name
// allocates the slot and starts loading it in the background, any later
// request returns the same index without starting more work.
func (m *Manager[T]) Request(name string) int {
	m.opts.metrics.request(m.kind)
	if idx, ok := m.positions[name]; ok {
		return idx
	}

	idx := len(m.slots)
	c := newCell[T]()
	m.positions[name] = idx
	m.slots = append(m.slots, slot[T]{
		name:  name,
		state: StateLoading,
		cell:  c,
	})

	if m.opts.counter != nil {
		m.opts.counter.Inc()
	}
	m.opts.metrics.start(m.kind)
	m.log.WithFields(log.Fields{"name": name, "index": idx}).Debug("load started")

	go m.load(name, idx, c)
	return idx
}

// load runs on its own goroutine and publishes into c only.
func (m *Manager[T]) load(name string, idx int, c *cell[T]) {
	if m.opts.limiter != nil {
		// Acquire only fails on a done context.
		_ = m.opts.limiter.Acquire(context.Background(), 1)
		defer m.opts.limiter.Release(1)
	}

	start := time.Now()
	value, err := m.construct(name)
	took := time.Since(start)

	// Count down before publishing: a finished slot is never outstanding.
	if m.opts.counter != nil {
		m.opts.counter.Dec()
	}
	m.opts.metrics.finish(m.kind, took, err)
	entry := m.log.WithFields(log.Fields{"name": name, "index": idx, "took": took})
	if err != nil {
		entry.WithError(err).Error("load failed")
	} else {
		entry.Debug("load finished")
	}
	c.publish(value, err)

	if m.opts.hook != nil {
		m.opts.hook(m.kind, name, err)
	}
}

// construct runs both constructor phases, turning a panic into an error.
func (m *Manager[T]) construct(name string) (value *T, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, &PanicError{Value: r}
		}
	}()

	value, err = m.ctor.Create(name)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("create returned no value")
	}
	if err := m.ctor.Initialize(value); err != nil {
		return nil, err
	}
	return value, nil
}

func (m *Manager[T]) slot(index int) (*slot[T], error) {
	if index < 0 || index >= len(m.slots) {
		return nil, fmt.Errorf("%s slot %d: %w", m.kind, index, ErrUnknownIndex)
	}
	return &m.slots[index], nil
}

func (m *Manager[T]) result(index int, s *slot[T]) (*T, error) {
	switch s.state {
	case StateReady:
		return s.value, nil
	case StateFailed:
		return nil, &LoadError{Kind: m.kind, Name: s.name, Index: index, Err: s.err}
	}
	return nil, nil
}

// Resolve returns the value of the slot if it is loaded. It never blocks.
// While the slot is still loading both return values are nil, so callers
// try again on a later frame. A failed slot returns a *LoadError.
func (m *Manager[T]) Resolve(index int) (*T, error) {
	s, err := m.slot(index)
	if err != nil {
		return nil, err
	}
	s.finalize()
	return m.result(index, s)
}

// ResolveBlocking waits until the slot has finished loading and returns
// its value. Only the calling goroutine blocks. If ctx is done first its
// error is returned and the load carries on.
func (m *Manager[T]) ResolveBlocking(ctx context.Context, index int) (*T, error) {
	s, err := m.slot(index)
	if err != nil {
		return nil, err
	}
	if _, err := s.finalizeBlocking(ctx); err != nil {
		return nil, err
	}
	return m.result(index, s)
}

// RequestImmediate constructs name on the calling goroutine and returns
// it, for resources needed before anything else can proceed. A name that
// is already mapped is not constructed again: a loaded slot is returned
// as is and a loading one is waited for.
func (m *Manager[T]) RequestImmediate(name string) (*T, error) {
	_, value, err := m.requestImmediate(name)
	return value, err
}

func (m *Manager[T]) requestImmediate(name string) (int, *T, error) {
	m.opts.metrics.request(m.kind)
	if idx, ok := m.positions[name]; ok {
		value, err := m.ResolveBlocking(context.Background(), idx)
		return idx, value, err
	}

	idx := len(m.slots)
	value, err := m.construct(name)
	s := slot[T]{name: name}
	if err != nil {
		s.state, s.err = StateFailed, err
		m.log.WithFields(log.Fields{"name": name, "index": idx}).WithError(err).Error("immediate load failed")
	} else {
		s.state, s.value = StateReady, value
	}
	m.positions[name] = idx
	m.slots = append(m.slots, s)

	value, err = m.result(idx, &m.slots[idx])
	return idx, value, err
}

// State finalizes the slot without blocking and returns its state.
func (m *Manager[T]) State(index int) (State, error) {
	s, err := m.slot(index)
	if err != nil {
		return StateLoading, err
	}
	return s.finalize(), nil
}

// Ready returns a channel that is closed once the slot's load has a
// result. The slot still has to be finalized by Resolve or State.
func (m *Manager[T]) Ready(index int) (<-chan struct{}, error) {
	s, err := m.slot(index)
	if err != nil {
		return nil, err
	}
	return s.wait(), nil
}

// Pending finalizes every slot it can and returns how many are still
// loading.
func (m *Manager[T]) Pending() int {
	var n int
	for i := range m.slots {
		if m.slots[i].finalize() == StateLoading {
			n++
		}
	}
	return n
}

// Each calls fn for every slot in index order until fn returns false.
// States are reported after a non-blocking finalize.
func (m *Manager[T]) Each(fn func(index int, name string, state State) bool) {
	for i := range m.slots {
		if !fn(i, m.slots[i].name, m.slots[i].finalize()) {
			return
		}
	}
}

// WaitAll blocks until every slot requested so far has finished loading,
// then finalizes them. The returned error combines the *LoadError of
// every failed slot, or is ctx's error if ctx ended the wait.
func (m *Manager[T]) WaitAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := range m.slots {
		if m.slots[i].state != StateLoading {
			continue
		}
		done := m.slots[i].cell.done
		g.Go(func() error {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var errs error
	for i := range m.slots {
		s := &m.slots[i]
		if s.finalize() == StateFailed {
			errs = multierr.Append(errs, &LoadError{Kind: m.kind, Name: s.name, Index: i, Err: s.err})
		}
	}
	return errs
}
