// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/gfx"
)

// SlotState is the recording state of a frame slot.
type SlotState int

// Slot states
const (
	// SlotIdle slots may begin recording.
	SlotIdle SlotState = iota
	// SlotRecording slots are between Begin and End.
	SlotRecording
	// SlotExecutable slots are recorded and wait for Submit.
	SlotExecutable
	// SlotSubmitted slots are owned by the GPU until their fence is waited on.
	SlotSubmitted
)

func (s SlotState) String() string {
	switch s {
	case SlotIdle:
		return "idle"
	case SlotRecording:
		return "recording"
	case SlotExecutable:
		return "executable"
	case SlotSubmitted:
		return "submitted"
	}
	return "unknown"
}

type frameSlot struct {
	buffer gfx.CommandBuffer
	fence  gfx.Fence
	state  SlotState
}

// NewCommandRecorder creates a command buffer and a completion fence for
// each of slots frames in flight.
func NewCommandRecorder(ctx *Context, slots int) (*CommandRecorder, error) {
	if slots < 1 {
		return nil, errors.New("command recorder: at least one slot is required")
	}
	buffers, err := ctx.Device.NewCommandBuffers(slots)
	if err != nil {
		return nil, err
	}

	r := &CommandRecorder{
		device: ctx.Device,
		queue:  ctx.Device.Queue(),
		log:    ctx.Logger("recorder"),
		slots:  make([]frameSlot, slots),
	}
	for i := range r.slots {
		fence, err := ctx.Device.NewFence(true)
		if err != nil {
			r.release(i)
			ctx.Device.FreeCommandBuffers(buffers)
			return nil, err
		}
		r.slots[i] = frameSlot{buffer: buffers[i], fence: fence}
	}
	return r, nil
}

// CommandRecorder drives the command buffer of every frame slot through
// Idle, Recording, Executable and Submitted. Using a slot in the wrong
// state is a programming error and panics.
type CommandRecorder struct {
	device gfx.Device
	queue  gfx.Queue
	log    *logrus.Entry
	slots  []frameSlot
}

// Slots returns the number of frame slots.
func (r *CommandRecorder) Slots() int {
	return len(r.slots)
}

// State returns the state of slot.
func (r *CommandRecorder) State(slot int) SlotState {
	return r.slots[slot].state
}

// Buffer returns the command buffer of slot.
func (r *CommandRecorder) Buffer(slot int) gfx.CommandBuffer {
	return r.slots[slot].buffer
}

// Fence returns the completion fence of slot.
func (r *CommandRecorder) Fence(slot int) gfx.Fence {
	return r.slots[slot].fence
}

// Wait blocks until the last submission of slot has completed and returns
// the slot to Idle. Waiting on a slot that was never submitted returns
// immediately.
func (r *CommandRecorder) Wait(slot int) error {
	s := &r.slots[slot]
	switch s.state {
	case SlotIdle:
		return nil
	case SlotSubmitted:
	default:
		r.log.Panicf("wait on slot %d while %s", slot, s.state)
	}
	if err := s.fence.Wait(gfx.WaitForever); err != nil {
		return err
	}
	s.state = SlotIdle
	return nil
}

// WaitAll waits for every submitted slot.
func (r *CommandRecorder) WaitAll() error {
	for slot := range r.slots {
		if r.slots[slot].state != SlotSubmitted {
			continue
		}
		if err := r.Wait(slot); err != nil {
			return err
		}
	}
	return nil
}

// Begin resets the command buffer of slot and starts recording into it.
func (r *CommandRecorder) Begin(slot int) (gfx.CommandBuffer, error) {
	s := &r.slots[slot]
	if s.state != SlotIdle {
		r.log.Panicf("begin on slot %d while %s", slot, s.state)
	}
	if err := s.buffer.Reset(); err != nil {
		return nil, err
	}
	if err := s.buffer.Begin(); err != nil {
		return nil, err
	}
	s.state = SlotRecording
	return s.buffer, nil
}

// End finishes recording slot.
func (r *CommandRecorder) End(slot int) error {
	s := &r.slots[slot]
	if s.state != SlotRecording {
		r.log.Panicf("end on slot %d while %s", slot, s.state)
	}
	if err := s.buffer.End(); err != nil {
		return err
	}
	s.state = SlotExecutable
	return nil
}

// Submit resets the fence of slot and submits its command buffer with the
// fence as completion signal. wait and signal may be nil.
func (r *CommandRecorder) Submit(slot int, wait, signal gfx.Semaphore) error {
	s := &r.slots[slot]
	if s.state != SlotExecutable {
		r.log.Panicf("submit on slot %d while %s", slot, s.state)
	}
	if err := s.fence.Reset(); err != nil {
		return err
	}
	if err := r.queue.Submit(gfx.SubmitInfo{
		Buffer: s.buffer,
		Wait:   wait,
		Signal: signal,
		Fence:  s.fence,
	}); err != nil {
		return err
	}
	s.state = SlotSubmitted
	return nil
}

func (r *CommandRecorder) release(n int) {
	for i := 0; i < n; i++ {
		r.slots[i].fence.Release()
	}
}

// Release frees the command buffers and fences. Every slot must be idle.
func (r *CommandRecorder) Release() {
	buffers := make([]gfx.CommandBuffer, len(r.slots))
	for i, s := range r.slots {
		if s.state == SlotSubmitted {
			r.log.Panicf("release while slot %d is submitted", i)
		}
		buffers[i] = s.buffer
	}
	r.device.FreeCommandBuffers(buffers)
	r.release(len(r.slots))
}
