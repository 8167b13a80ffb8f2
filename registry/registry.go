// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package registry keeps values referenced across suspension points.
//
// A [Registry] is an arena of slots addressed by generation-checked
// [Handle] values. Acquire inserts a value, Release removes it. A released
// slot is reused with a new generation, so a stale copy of an old handle
// can neither resolve nor release the new occupant.
//
// A Registry is not safe for concurrent use. It belongs to the goroutine
// that drives its host.
package registry

import "errors"

var (
	// ErrInvalidHandle is returned when releasing the zero Handle.
	ErrInvalidHandle = errors.New("registry: invalid handle")

	// ErrStaleHandle is returned when releasing a handle whose slot was
	// already released (double release) or reused.
	ErrStaleHandle = errors.New("registry: stale handle")
)

// Handle is an opaque reference to a registry slot.
// The zero Handle references nothing.
type Handle struct {
	index      uint32
	generation uint32
}

// Valid reports whether h was returned by Acquire.
// A valid handle may still be stale.
func (h Handle) Valid() bool {
	return h.generation != 0
}

// Stats counts registry traffic since creation.
type Stats struct {
	Acquired uint64
	Released uint64
}

type slot struct {
	value      any
	generation uint32
	used       bool
}

// Registry is a generation-checked arena of referenced values.
type Registry struct {
	slots []slot
	free  []uint32
	live  int
	stats Stats
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{}
}

// Acquire stores v and returns a handle to it.
func (r *Registry) Acquire(v any) Handle {
	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		index = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}
	s := &r.slots[index]
	s.generation++
	if s.generation == 0 {
		// generation 0 marks the zero Handle
		s.generation = 1
	}
	s.value = v
	s.used = true
	r.live++
	r.stats.Acquired++
	return Handle{index: index, generation: s.generation}
}

// Resolve returns the value referenced by h.
// ok is false for the zero handle and for stale handles.
func (r *Registry) Resolve(h Handle) (v any, ok bool) {
	s, ok := r.lookup(h)
	if !ok {
		return nil, false
	}
	return s.value, true
}

// Release drops the reference held by h.
// Releasing a stale handle returns ErrStaleHandle and changes nothing.
func (r *Registry) Release(h Handle) error {
	if !h.Valid() {
		return ErrInvalidHandle
	}
	s, ok := r.lookup(h)
	if !ok {
		return ErrStaleHandle
	}
	s.value = nil
	s.used = false
	r.free = append(r.free, h.index)
	r.live--
	r.stats.Released++
	return nil
}

// Live returns the number of values currently referenced.
func (r *Registry) Live() int {
	return r.live
}

// Stats returns acquisition and release counters.
func (r *Registry) Stats() Stats {
	return r.stats
}

func (r *Registry) lookup(h Handle) (*slot, bool) {
	if !h.Valid() || int(h.index) >= len(r.slots) {
		return nil, false
	}
	s := &r.slots[h.index]
	if !s.used || s.generation != h.generation {
		return nil, false
	}
	return s, true
}
