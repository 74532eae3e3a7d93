// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource is a keyed, deduplicated cache that turns resource
// names (usually file paths) into loaded values of one type.
//
// A Manager assigns every distinct name a stable slot index the first
// time it is requested and builds the value on a background goroutine.
// Callers poll with Resolve once per frame, or block with ResolveBlocking
// when they cannot continue without the value. A Handle remembers the
// slot index after its first resolution, so later resolutions cost a
// slice lookup regardless of how many names the Manager holds.
//
// A Manager belongs to one goroutine, normally the frame loop. Only the
// per-slot handoff cell is shared with the loader goroutines, so the name
// map and slot slice are never locked.
package resource
