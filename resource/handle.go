// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Handle is a lazily bound reference to a named resource.
//
// The first resolution requests the name from a Manager and remembers
// the slot index, later resolutions go straight to the slot. A handle
// created with NewHandleWithInstance owns its value and never touches a
// Manager.
//
// Handles are owned by whatever references the resource (a material's
// texture sampler, an object's mesh) and are used from the goroutine
// that owns the Manager.
type Handle[T any] struct {
	name string

	bound   bool
	manager uuid.UUID
	index   int

	instance *T
}

// NewHandle returns an unresolved handle for name. No work is done
// until it is resolved.
func NewHandle[T any](name string) *Handle[T] {
	return &Handle[T]{name: name}
}

// NewHandleWithInstance returns a handle owning value privately.
func NewHandleWithInstance[T any](name string, value *T) *Handle[T] {
	return &Handle[T]{name: name, instance: value}
}

// Name returns the resource name.
func (h *Handle[T]) Name() string {
	return h.name
}

// Owned is true if the handle holds a private instance.
func (h *Handle[T]) Owned() bool {
	return h.instance != nil
}

// Index returns the cached slot index, ok is false until the handle was
// resolved through a Manager.
func (h *Handle[T]) Index() (index int, ok bool) {
	return h.index, h.bound
}

func (h *Handle[T]) bind(m *Manager[T]) (int, error) {
	if h.bound {
		if h.manager != m.ID() {
			return 0, fmt.Errorf("%s %q: %w", m.Kind(), h.name, ErrForeignManager)
		}
		return h.index, nil
	}
	h.index = m.Request(h.name)
	h.manager = m.ID()
	h.bound = true
	return h.index, nil
}

// Resolve returns the value if it is available, without blocking. Both
// return values are nil while the resource is loading.
func (h *Handle[T]) Resolve(m *Manager[T]) (*T, error) {
	if h.instance != nil {
		return h.instance, nil
	}
	idx, err := h.bind(m)
	if err != nil {
		return nil, err
	}
	return m.Resolve(idx)
}

// ResolveWait is like Resolve but waits for a loading resource.
func (h *Handle[T]) ResolveWait(ctx context.Context, m *Manager[T]) (*T, error) {
	if h.instance != nil {
		return h.instance, nil
	}
	idx, err := h.bind(m)
	if err != nil {
		return nil, err
	}
	return m.ResolveBlocking(ctx, idx)
}

// ResolveNow resolves through Manager.RequestImmediate, building the
// value on the calling goroutine if the name was never requested.
func (h *Handle[T]) ResolveNow(m *Manager[T]) (*T, error) {
	if h.instance != nil {
		return h.instance, nil
	}
	if h.bound {
		if _, err := h.bind(m); err != nil {
			return nil, err
		}
		return m.ResolveBlocking(context.Background(), h.index)
	}
	idx, value, err := m.requestImmediate(h.name)
	h.index, h.manager, h.bound = idx, m.ID(), true
	return value, err
}

// Clone copies the handle. A bound handle's copy shares the slot. A
// private instance is deep copied through Cloner, handles whose value
// cannot be copied return ErrNotClonable.
func (h *Handle[T]) Clone() (*Handle[T], error) {
	c := *h
	if h.instance == nil {
		return &c, nil
	}
	cl, ok := interface{}(h.instance).(Cloner[T])
	if !ok {
		return nil, fmt.Errorf("%q: %w", h.name, ErrNotClonable)
	}
	c.instance = cl.Clone()
	return &c, nil
}

type handleJSON struct {
	Name string `json:"name"`
}

// MarshalJSON encodes only the name, resolution state is not persisted.
func (h Handle[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(handleJSON{Name: h.name})
}

// UnmarshalJSON decodes an unresolved handle.
func (h *Handle[T]) UnmarshalJSON(data []byte) error {
	var hj handleJSON
	if err := json.Unmarshal(data, &hj); err != nil {
		return err
	}
	*h = Handle[T]{name: hj.Name}
	return nil
}
