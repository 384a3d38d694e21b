// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/gfx"
)

// ErrTimeout is returned by fence waits that time out.
var ErrTimeout = errors.New("vkr: fence wait timed out")

type fence struct {
	device *Device
	handle vk.Fence
}

// NewFence implements interface
func (d *Device) NewFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var handle vk.Fence
	if err := check("vk.CreateFence", vk.CreateFence(d.device, &fci, nil, &handle)); err != nil {
		return nil, err
	}
	return &fence{device: d, handle: handle}, nil
}

// Wait implements interface
func (f *fence) Wait(timeout uint64) error {
	ret := vk.WaitForFences(f.device.device, 1, []vk.Fence{f.handle}, vk.True, uint(timeout))
	if ret == vk.Timeout {
		return ErrTimeout
	}
	return check("vk.WaitForFences", ret)
}

// Reset implements interface
func (f *fence) Reset() error {
	return check("vk.ResetFences", vk.ResetFences(f.device.device, 1, []vk.Fence{f.handle}))
}

// Release implements interface
func (f *fence) Release() {
	vk.DestroyFence(f.device.device, f.handle, nil)
}

type semaphore struct {
	device *Device
	handle vk.Semaphore
}

// NewSemaphore implements interface
func (d *Device) NewSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var handle vk.Semaphore
	if err := check("vk.CreateSemaphore", vk.CreateSemaphore(d.device, &sci, nil, &handle)); err != nil {
		return nil, err
	}
	return &semaphore{device: d, handle: handle}, nil
}

// Release implements interface
func (s *semaphore) Release() {
	vk.DestroySemaphore(s.device.device, s.handle, nil)
}

type queue struct {
	device *Device
	queue  vk.Queue
}

// Submit implements interface
func (q *queue) Submit(info gfx.SubmitInfo) error {
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{info.Buffer.(*commandBuffer).handle},
	}
	if info.Wait != nil {
		submit.WaitSemaphoreCount = 1
		submit.PWaitSemaphores = []vk.Semaphore{info.Wait.(*semaphore).handle}
		submit.PWaitDstStageMask = []vk.PipelineStageFlags{
			vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		}
	}
	if info.Signal != nil {
		submit.SignalSemaphoreCount = 1
		submit.PSignalSemaphores = []vk.Semaphore{info.Signal.(*semaphore).handle}
	}
	var f vk.Fence
	if info.Fence != nil {
		f = info.Fence.(*fence).handle
	}
	return check("vk.QueueSubmit", vk.QueueSubmit(q.queue, 1, []vk.SubmitInfo{submit}, f))
}
