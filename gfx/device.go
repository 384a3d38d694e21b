// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// Fence is a CPU-observable GPU completion signal.
type Fence interface {
	Releasable

	// Wait blocks until the fence is signalled or the timeout,
	// in nanoseconds, elapses.
	Wait(timeout uint64) error

	// Reset returns the fence to the unsignalled state.
	Reset() error
}

// Semaphore is a GPU-side ordering token between queue operations.
type Semaphore interface {
	Releasable
}

// SubmitInfo describes a single command buffer submission.
type SubmitInfo struct {
	Buffer CommandBuffer

	// Wait is waited on at the colour attachment output stage, may be nil.
	Wait Semaphore

	// Signal is signalled when the buffer finishes executing, may be nil.
	Signal Semaphore

	// Fence is signalled when the buffer finishes executing, may be nil.
	Fence Fence
}

// Queue accepts command buffer submissions.
type Queue interface {
	Submit(info SubmitInfo) error
}

// IndexType is the element type of an index buffer.
type IndexType int

// Supported index types
const (
	IndexUint16 IndexType = iota
	IndexUint32
)

// CommandBuffer records GPU commands. Recording methods do not return
// errors, failures surface from End or from the queue submission.
type CommandBuffer interface {
	Reset() error
	Begin() error
	End() error

	BeginRenderPass(pass RenderPass, target Framebuffer, area Extent2D, clear ClearValues)
	EndRenderPass()

	// SetViewport sets both the viewport and the scissor to cover area.
	SetViewport(area Extent2D)

	BindPipeline(p Pipeline)
	BindDescriptorSet(p Pipeline, set DescriptorSet)
	BindVertexBuffer(b Buffer, offset uint64)
	BindIndexBuffer(b Buffer, offset uint64, t IndexType)
	PushConstants(p Pipeline, stages ShaderStage, data []byte)

	Draw(vertexCount, instanceCount, firstVertex uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32)
}

// Limits exposes device limits relevant to rendering.
type Limits struct {
	MaxPushConstantsSize uint32
	MaxMemoryAllocations uint32
}

// Device is a logical rendering device and the factory for everything
// created on it. There is one per process.
type Device interface {
	Releasable

	Queue() Queue
	Memory() MemoryBackend
	Limits() Limits

	NewFence(signaled bool) (Fence, error)
	NewSemaphore() (Semaphore, error)

	NewCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	NewImageView(img Image, aspect ImageAspect) (ImageView, error)
	NewRenderPass(desc RenderPassDescriptor) (RenderPass, error)
	NewFramebuffer(pass RenderPass, attachments []ImageView, extent Extent2D) (Framebuffer, error)

	NewShaderModule(stage ShaderStage, code []byte) (ShaderModule, error)
	NewDescriptorSetLayout(bindings []DescriptorBinding) (DescriptorSetLayout, error)
	NewDescriptorPool(maxSets, uniformBuffers uint32) (DescriptorPool, error)
	NewPipeline(desc PipelineDescriptor) (Pipeline, error)

	// WaitIdle blocks until all outstanding work on the device completes.
	WaitIdle() error
}
