// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package resource

import (
	"errors"
	"fmt"
)

// package errors
var (
	ErrUnknownIndex   = errors.New("slot index not known to this manager")
	ErrForeignManager = errors.New("handle is bound to a different manager")
	ErrNotClonable    = errors.New("private instance does not implement Cloner")
	ErrPanicked       = errors.New("constructor panicked")
)

// LoadError is returned for every access to a slot whose construction failed.
type LoadError struct {
	Kind  string
	Name  string
	Index int
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %q (slot %d): %v", e.Kind, e.Name, e.Index, e.Err)
}

// Unwrap returns the constructor error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// PanicError carries the value a constructor panicked with.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("constructor panicked: %v", e.Value)
}

// Is reports ErrPanicked as a match.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanicked
}
