// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

// Deferrer accepts releases that must wait for in-flight GPU work.
type Deferrer interface {
	Defer(fn func())
}

// DeferFunc adapts a function to Deferrer.
type DeferFunc func(fn func())

// Defer implements interface
func (f DeferFunc) Defer(fn func()) { f(fn) }

// NewResource wraps value so that releasing it goes through deferrer.
func NewResource[T any](value T, free func(T), deferrer Deferrer) *Resource[T] {
	return &Resource[T]{
		value:    value,
		free:     free,
		deferrer: deferrer,
	}
}

// Resource owns a GPU object that may still be read by submitted frames.
// Release does not free the object, it hands the free to the frame
// release queue where it runs once the frame fence has signalled.
type Resource[T any] struct {
	value    T
	free     func(T)
	deferrer Deferrer
	released bool
}

// Get returns the wrapped value. It panics after Release.
func (r *Resource[T]) Get() T {
	if r.released {
		panic("resource: use after release")
	}
	return r.value
}

// Released reports whether Release was called.
func (r *Resource[T]) Released() bool {
	return r.released
}

// Release implements gfx.Releasable. Releasing twice is a no-op.
func (r *Resource[T]) Release() {
	if r.released {
		return
	}
	r.released = true
	value, free := r.value, r.free
	r.deferrer.Defer(func() { free(value) })
}
