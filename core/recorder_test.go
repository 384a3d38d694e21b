// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx/gfxtest"
)

func TestCommandRecorderStates(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	r, err := core.NewCommandRecorder(f.ctx, 2)
	c.Assert(err, qt.IsNil)
	c.Assert(r.Slots(), qt.Equals, 2)
	c.Assert(f.dev.Live(gfxtest.KindCommandBuffer), qt.Equals, 2)
	c.Assert(f.dev.Live(gfxtest.KindFence), qt.Equals, 2)

	c.Assert(r.State(0), qt.Equals, core.SlotIdle)
	cb, err := r.Begin(0)
	c.Assert(err, qt.IsNil)
	c.Assert(cb.(*gfxtest.CommandBuffer).Recording(), qt.IsTrue)
	c.Assert(r.State(0), qt.Equals, core.SlotRecording)

	c.Assert(r.End(0), qt.IsNil)
	c.Assert(r.State(0), qt.Equals, core.SlotExecutable)

	c.Assert(r.Submit(0, nil, nil), qt.IsNil)
	c.Assert(r.State(0), qt.Equals, core.SlotSubmitted)
	fence := r.Fence(0).(*gfxtest.Fence)
	c.Assert(fence.Signaled(), qt.IsFalse)
	c.Assert(f.dev.Submissions, qt.HasLen, 1)
	c.Assert(f.dev.Submissions[0].Fence, qt.Equals, fence)

	c.Assert(r.Wait(0), qt.IsNil)
	c.Assert(fence.Signaled(), qt.IsTrue)
	c.Assert(fence.Waits(), qt.Equals, 1)
	c.Assert(r.State(0), qt.Equals, core.SlotIdle)

	// idle slots are not waited on
	c.Assert(r.Wait(1), qt.IsNil)
	c.Assert(r.Fence(1).(*gfxtest.Fence).Waits(), qt.Equals, 0)

	r.Release()
	c.Assert(f.dev.Live(gfxtest.KindCommandBuffer), qt.Equals, 0)
	c.Assert(f.dev.Live(gfxtest.KindFence), qt.Equals, 0)
}

func TestCommandRecorderMisuse(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	r, err := core.NewCommandRecorder(f.ctx, 1)
	c.Assert(err, qt.IsNil)

	c.Assert(panicMessage(func() { r.End(0) }), qt.Equals, "end on slot 0 while idle")
	c.Assert(panicMessage(func() { r.Submit(0, nil, nil) }), qt.Equals, "submit on slot 0 while idle")

	_, err = r.Begin(0)
	c.Assert(err, qt.IsNil)
	c.Assert(panicMessage(func() { r.Begin(0) }), qt.Equals, "begin on slot 0 while recording")
	c.Assert(r.End(0), qt.IsNil)
	c.Assert(r.Submit(0, nil, nil), qt.IsNil)

	// the slot has to be waited on before it is reused
	c.Assert(panicMessage(func() { r.Begin(0) }), qt.Equals, "begin on slot 0 while submitted")
	c.Assert(panicMessage(func() { r.Release() }), qt.Equals, "release while slot 0 is submitted")

	c.Assert(r.WaitAll(), qt.IsNil)
	_, err = r.Begin(0)
	c.Assert(err, qt.IsNil)
}

func TestCommandRecorderSubmitError(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	r, err := core.NewCommandRecorder(f.ctx, 1)
	c.Assert(err, qt.IsNil)

	errLost := errors.New("device lost")
	f.dev.SubmitErr = errLost
	_, err = r.Begin(0)
	c.Assert(err, qt.IsNil)
	c.Assert(r.End(0), qt.IsNil)
	c.Assert(r.Submit(0, nil, nil), qt.ErrorIs, errLost)
	c.Assert(r.State(0), qt.Equals, core.SlotExecutable)
}
