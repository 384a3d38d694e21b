// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/core"
)

func TestReleaseQueueDrainOrder(t *testing.T) {
	c := qt.New(t)

	q := core.NewReleaseQueue(2)
	var order []string
	q.Push(0, func() { order = append(order, "a") })
	q.Push(1, func() { order = append(order, "other") })
	q.Push(0, func() { order = append(order, "b") })
	q.Push(0, func() {
		order = append(order, "c")
		q.Push(0, func() { order = append(order, "d") })
	})

	c.Assert(q.Len(0), qt.Equals, 3)
	c.Assert(q.Drain(0), qt.Equals, 4)
	c.Assert(order, qt.DeepEquals, []string{"a", "b", "c", "d"})
	c.Assert(q.Len(0), qt.Equals, 0)
	c.Assert(q.Len(1), qt.Equals, 1)
	c.Assert(q.Drain(0), qt.Equals, 0)

	c.Assert(q.DrainAll(), qt.Equals, 1)
	c.Assert(order[len(order)-1], qt.Equals, "other")
}

func TestReleaseQueueSlotRange(t *testing.T) {
	c := qt.New(t)

	q := core.NewReleaseQueue(3)
	c.Assert(q.Slots(), qt.Equals, 3)
	c.Assert(func() { q.Push(3, func() {}) }, qt.PanicMatches, `release queue: slot 3 out of range \[0,3\)`)
}

func TestResourceRelease(t *testing.T) {
	c := qt.New(t)

	var (
		deferred []func()
		freed    []int
	)
	deferrer := core.DeferFunc(func(fn func()) { deferred = append(deferred, fn) })

	r := core.NewResource(42, func(v int) { freed = append(freed, v) }, deferrer)
	c.Assert(r.Get(), qt.Equals, 42)

	r.Release()
	r.Release()
	c.Assert(r.Released(), qt.IsTrue)
	c.Assert(freed, qt.HasLen, 0)
	c.Assert(deferred, qt.HasLen, 1)
	c.Assert(func() { r.Get() }, qt.PanicMatches, "resource: use after release")

	deferred[0]()
	c.Assert(freed, qt.DeepEquals, []int{42})
}
