// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// BufferUsage is a bit mask of the ways a buffer is going to be used.
type BufferUsage uint32

// Buffer usages
const (
	BufferVertex BufferUsage = 1 << iota
	BufferIndex
	BufferUniform
	BufferTransferSrc
	BufferTransferDst
)

// ImageUsage is a bit mask of the ways an image is going to be used.
type ImageUsage uint32

// Image usages
const (
	ImageColorAttachment ImageUsage = 1 << iota
	ImageDepthAttachment
	ImageSampled
	ImageTransferDst
)

// ImageAspect selects the aspect an image view exposes.
type ImageAspect int

// Image aspects
const (
	AspectColor ImageAspect = iota
	AspectDepth
)

// MemoryProperty is a bit mask of memory type properties.
type MemoryProperty uint32

// Memory properties
const (
	MemoryDeviceLocal MemoryProperty = 1 << iota
	MemoryHostVisible
	MemoryHostCoherent
	MemoryHostCached
)

// MemoryType describes one memory type of the device.
type MemoryType struct {
	Properties MemoryProperty
	HeapIndex  uint32
}

// MemoryRequirements is what a resource needs from its backing memory.
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// Buffer is a linear GPU resource without bound memory semantics.
type Buffer interface {
	Size() uint64
}

// Image is a GPU image, either allocated or owned by a swapchain.
type Image interface {
	Format() Format
	Extent() Extent2D
}

// ImageView exposes an image to a framebuffer or a shader.
type ImageView interface {
	Releasable
}

// ImageDescriptor describes a 2D image to create.
type ImageDescriptor struct {
	Format Format
	Extent Extent2D
	Usage  ImageUsage
}

// Memory is a device memory allocation.
type Memory interface {
	Size() uint64
	MemoryType() uint32
}

// MemoryBackend is the raw allocation interface of a device. Callers
// normally go through an allocator that resolves memory policies.
type MemoryBackend interface {
	MemoryTypes() []MemoryType

	CreateBuffer(size uint64, usage BufferUsage) (Buffer, MemoryRequirements, error)
	DestroyBuffer(b Buffer)
	CreateImage(desc ImageDescriptor) (Image, MemoryRequirements, error)
	DestroyImage(img Image)

	Allocate(size uint64, memoryType uint32) (Memory, error)
	Free(mem Memory)
	BindBuffer(b Buffer, mem Memory, offset uint64) error
	BindImage(img Image, mem Memory, offset uint64) error

	// Map returns a host view of size bytes of mem starting at offset.
	// The view is valid until Unmap.
	Map(mem Memory, offset, size uint64) ([]byte, error)
	Unmap(mem Memory)
}
