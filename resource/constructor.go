// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

// Constructor builds values of one resource kind from their names.
//
// Both methods run on a loader goroutine for asynchronous requests, so
// they must not touch state owned by the frame loop.
type Constructor[T any] interface {
	// Create allocates the value for name, usually without reading it yet.
	Create(name string) (*T, error)

	// Initialize is the second phase, reading files or linking
	// dependent resources.
	Initialize(value *T) error
}

// ConstructorFunc adapts a single function to a Constructor with no
// second phase.
type ConstructorFunc[T any] func(name string) (*T, error)

// Create implements interface
func (f ConstructorFunc[T]) Create(name string) (*T, error) {
	return f(name)
}

// Initialize implements interface
func (f ConstructorFunc[T]) Initialize(*T) error {
	return nil
}

// Cloner is implemented by values that can be deep copied. Handles
// owning a private instance need it to be cloned.
type Cloner[T any] interface {
	Clone() *T
}
