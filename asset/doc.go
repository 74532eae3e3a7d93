// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package asset holds the engine's resource kinds and the Constructors
// that load them from a Source. A Group bundles one resource.Manager per
// kind so all of them report into the same outstanding-load counter.
package asset
