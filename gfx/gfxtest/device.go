// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides an in-memory gfx device for tests. It keeps a
// GPU clock: submissions are numbered and complete only when a fence
// covering them is waited on, or when the device is waited idle.
// Host-visible memory is backed by Go slices, so writes past a mapping
// panic like any out of range slice access.
package gfxtest

import (
	"errors"
	"fmt"

	"github.com/koru3d/inflight/gfx"
)

// Kinds of objects tracked by Device.Live.
const (
	KindFence          = "fence"
	KindSemaphore      = "semaphore"
	KindCommandBuffer  = "cmd"
	KindBuffer         = "buffer"
	KindImage          = "image"
	KindMemory         = "memory"
	KindImageView      = "view"
	KindRenderPass     = "renderpass"
	KindFramebuffer    = "framebuffer"
	KindShader         = "shader"
	KindSetLayout      = "setlayout"
	KindDescriptorPool = "descpool"
	KindPipeline       = "pipeline"
	KindSwapchain      = "swapchain"
)

// Submission is a recorded queue submission.
type Submission struct {
	Seq    uint64
	Buffer *CommandBuffer
	Wait   *Semaphore
	Signal *Semaphore
	Fence  *Fence
}

// Device is a fake gfx.Device.
type Device struct {
	// MemoryLimit caps the bytes of live memory, zero means unlimited.
	MemoryLimit uint64

	// SubmitErr, when set, is returned by the next submission.
	SubmitErr error

	// PipelineErr, when set, is returned by NewPipeline.
	PipelineErr error

	// Events is an ordered log of fence waits, submissions and idle waits.
	Events []string

	Submissions []Submission
	IdleWaits   int

	types     []gfx.MemoryType
	live      map[string]int
	allocated uint64
	submitted uint64
	completed uint64
	pending   []*Fence
	queue     *Queue
	nextID    int
}

// NewDevice creates a fake device with a device-local, a host coherent and
// a host cached memory type.
func NewDevice() *Device {
	d := &Device{
		types: []gfx.MemoryType{
			{Properties: gfx.MemoryDeviceLocal},
			{Properties: gfx.MemoryHostVisible | gfx.MemoryHostCoherent},
			{Properties: gfx.MemoryHostVisible | gfx.MemoryHostCoherent | gfx.MemoryHostCached},
		},
		live: make(map[string]int),
	}
	d.queue = &Queue{dev: d}
	return d
}

// SetMemoryTypes replaces the memory types reported by the device.
func (d *Device) SetMemoryTypes(types ...gfx.MemoryType) {
	d.types = types
}

// Live returns the number of objects of kind that are not yet released.
func (d *Device) Live(kind string) int {
	return d.live[kind]
}

// Completed returns the sequence number of the last completed submission.
func (d *Device) Completed() uint64 {
	return d.completed
}

// Submitted returns the sequence number of the last submission.
func (d *Device) Submitted() uint64 {
	return d.submitted
}

func (d *Device) id() int {
	d.nextID++
	return d.nextID
}

func (d *Device) create(kind string) {
	d.live[kind]++
}

func (d *Device) destroy(kind string) {
	if d.live[kind] == 0 {
		panic(fmt.Sprintf("gfxtest: %s released more times than created", kind))
	}
	d.live[kind]--
}

func (d *Device) logf(format string, args ...interface{}) {
	d.Events = append(d.Events, fmt.Sprintf(format, args...))
}

// complete advances the GPU clock up to seq, signalling fences on the way.
func (d *Device) complete(seq uint64) {
	if seq <= d.completed {
		return
	}
	d.completed = seq
	var remaining []*Fence
	for _, f := range d.pending {
		if f.seq <= seq {
			f.signaled = true
			f.seq = 0
		} else {
			remaining = append(remaining, f)
		}
	}
	d.pending = remaining
}

// Complete finishes every submitted piece of work.
func (d *Device) Complete() {
	d.complete(d.submitted)
}

// Release implements interface
func (d *Device) Release() {
	d.logf("device release")
}

// Queue implements interface
func (d *Device) Queue() gfx.Queue { return d.queue }

// Memory implements interface
func (d *Device) Memory() gfx.MemoryBackend { return memoryBackend{d} }

// Limits implements interface
func (d *Device) Limits() gfx.Limits {
	return gfx.Limits{MaxPushConstantsSize: 128, MaxMemoryAllocations: 4096}
}

// WaitIdle implements interface
func (d *Device) WaitIdle() error {
	d.IdleWaits++
	d.logf("wait idle")
	d.Complete()
	return nil
}

// Fence is a fake fence signalled by the device GPU clock.
type Fence struct {
	ID int

	dev      *Device
	signaled bool
	seq      uint64
	waits    int
	released bool
}

// NewFence implements interface
func (d *Device) NewFence(signaled bool) (gfx.Fence, error) {
	d.create(KindFence)
	return &Fence{ID: d.id(), dev: d, signaled: signaled}, nil
}

// Wait implements interface. It runs the GPU up to the submission the fence
// is attached to.
func (f *Fence) Wait(timeout uint64) error {
	f.waits++
	f.dev.logf("wait fence %d", f.ID)
	if f.signaled {
		return nil
	}
	if f.seq == 0 {
		return fmt.Errorf("gfxtest: fence %d waited on without a pending submission", f.ID)
	}
	f.dev.complete(f.seq)
	return nil
}

// Reset implements interface
func (f *Fence) Reset() error {
	if f.seq != 0 {
		return fmt.Errorf("gfxtest: fence %d reset while in use", f.ID)
	}
	f.signaled = false
	return nil
}

// Release implements interface
func (f *Fence) Release() {
	if f.seq != 0 {
		panic(fmt.Sprintf("gfxtest: fence %d released while in use", f.ID))
	}
	f.released = true
	f.dev.destroy(KindFence)
}

// Signaled reports whether the GPU has signalled the fence.
func (f *Fence) Signaled() bool { return f.signaled }

// Waits returns the number of times the fence was waited on.
func (f *Fence) Waits() int { return f.waits }

// Semaphore is a fake binary semaphore.
type Semaphore struct {
	ID int

	dev      *Device
	signaled bool
}

// NewSemaphore implements interface
func (d *Device) NewSemaphore() (gfx.Semaphore, error) {
	d.create(KindSemaphore)
	return &Semaphore{ID: d.id(), dev: d}, nil
}

// Release implements interface
func (s *Semaphore) Release() {
	s.dev.destroy(KindSemaphore)
}

// Signaled reports whether a signal is pending on the semaphore.
func (s *Semaphore) Signaled() bool { return s.signaled }

// Queue is the fake device queue.
type Queue struct {
	dev *Device
}

// Submit implements interface
func (q *Queue) Submit(info gfx.SubmitInfo) error {
	d := q.dev
	if err := d.SubmitErr; err != nil {
		d.SubmitErr = nil
		return err
	}
	cb, ok := info.Buffer.(*CommandBuffer)
	if !ok {
		return errors.New("gfxtest: foreign command buffer submitted")
	}
	if cb.state != stateExecutable {
		return fmt.Errorf("gfxtest: command buffer %d submitted while not executable", cb.ID)
	}

	d.submitted++
	sub := Submission{Seq: d.submitted, Buffer: cb}
	if info.Wait != nil {
		sem := info.Wait.(*Semaphore)
		if !sem.signaled {
			return fmt.Errorf("gfxtest: submission waits on unsignalled semaphore %d", sem.ID)
		}
		sem.signaled = false
		sub.Wait = sem
	}
	if info.Signal != nil {
		sem := info.Signal.(*Semaphore)
		sem.signaled = true
		sub.Signal = sem
	}
	if info.Fence != nil {
		f := info.Fence.(*Fence)
		if f.signaled || f.seq != 0 {
			return fmt.Errorf("gfxtest: fence %d submitted without reset", f.ID)
		}
		f.seq = d.submitted
		d.pending = append(d.pending, f)
		sub.Fence = f
	}
	cb.submissions++
	d.Submissions = append(d.Submissions, sub)
	d.logf("submit %d", d.submitted)
	return nil
}
