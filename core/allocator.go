// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/gfx"
)

// MemoryPolicy selects the memory type for an allocation.
type MemoryPolicy int

// Memory policies
const (
	// DeviceLocal memory is fastest for the GPU and not mappable.
	DeviceLocal MemoryPolicy = iota
	// HostVisibleCoherent memory is mappable without explicit flushes.
	HostVisibleCoherent
	// AutoPreferDevice picks device local memory when available, anything otherwise.
	AutoPreferDevice
	// AutoPreferHost picks host visible coherent memory when available, anything otherwise.
	AutoPreferHost
)

func (p MemoryPolicy) String() string {
	switch p {
	case DeviceLocal:
		return "device-local"
	case HostVisibleCoherent:
		return "host-visible-coherent"
	case AutoPreferDevice:
		return "auto-prefer-device"
	case AutoPreferHost:
		return "auto-prefer-host"
	}
	return "unknown"
}

func (p MemoryPolicy) properties() (required, preferred gfx.MemoryProperty) {
	switch p {
	case DeviceLocal:
		return gfx.MemoryDeviceLocal, 0
	case HostVisibleCoherent:
		return gfx.MemoryHostVisible | gfx.MemoryHostCoherent, 0
	case AutoPreferDevice:
		return 0, gfx.MemoryDeviceLocal
	case AutoPreferHost:
		return 0, gfx.MemoryHostVisible | gfx.MemoryHostCoherent
	}
	return 0, 0
}

// Allocation is device memory backing a single buffer or image.
type Allocation struct {
	Memory gfx.Memory
	Size   uint64
	Type   uint32
	Policy MemoryPolicy

	mapped []byte
}

// NewAllocator creates an allocator working on the context device.
func NewAllocator(ctx *Context) *Allocator {
	return &Allocator{
		backend: ctx.Device.Memory(),
		log:     ctx.Logger("allocator"),
	}
}

// Allocator gives every buffer and image its own memory allocation and
// keeps count of the bytes allocated. Allocation failures are returned
// to the caller as is, nothing is retried.
type Allocator struct {
	backend gfx.MemoryBackend
	log     *logrus.Entry

	allocated   uint64
	allocations int
}

// AllocatedBytes returns the number of bytes held by live allocations.
func (a *Allocator) AllocatedBytes() uint64 {
	return a.allocated
}

// Allocations returns the number of live allocations.
func (a *Allocator) Allocations() int {
	return a.allocations
}

func (a *Allocator) findMemoryType(filter uint32, policy MemoryPolicy) (uint32, error) {
	required, preferred := policy.properties()
	types := a.backend.MemoryTypes()

	find := func(prop gfx.MemoryProperty) (uint32, bool) {
		for idx := uint32(0); idx < uint32(len(types)); idx++ {
			if filter&(1<<idx) != 0 && types[idx].Properties&prop == prop {
				return idx, true
			}
		}
		return 0, false
	}

	if idx, ok := find(required | preferred); ok {
		return idx, nil
	}
	if idx, ok := find(required); ok {
		return idx, nil
	}
	return 0, fmt.Errorf("%s memory: %w", policy, gfx.ErrNoMemoryType)
}

func (a *Allocator) allocate(req gfx.MemoryRequirements, policy MemoryPolicy) (*Allocation, error) {
	typ, err := a.findMemoryType(req.MemoryTypeBits, policy)
	if err != nil {
		return nil, err
	}
	mem, err := a.backend.Allocate(req.Size, typ)
	if err != nil {
		return nil, fmt.Errorf("allocate %d bytes of %s memory: %w", req.Size, policy, err)
	}
	a.allocated += req.Size
	a.allocations++
	return &Allocation{Memory: mem, Size: req.Size, Type: typ, Policy: policy}, nil
}

func (a *Allocator) free(alloc *Allocation) {
	if alloc.mapped != nil {
		a.Unmap(alloc)
	}
	a.backend.Free(alloc.Memory)
	a.allocated -= alloc.Size
	a.allocations--
}

// AllocateBuffer creates a buffer of size bytes and binds it to new memory
// chosen by policy.
func (a *Allocator) AllocateBuffer(size uint64, usage gfx.BufferUsage, policy MemoryPolicy) (gfx.Buffer, *Allocation, error) {
	buf, req, err := a.backend.CreateBuffer(size, usage)
	if err != nil {
		return nil, nil, err
	}
	alloc, err := a.allocate(req, policy)
	if err != nil {
		a.backend.DestroyBuffer(buf)
		return nil, nil, err
	}
	if err := a.backend.BindBuffer(buf, alloc.Memory, 0); err != nil {
		a.free(alloc)
		a.backend.DestroyBuffer(buf)
		return nil, nil, err
	}
	a.log.WithFields(logrus.Fields{
		"size":   size,
		"policy": policy,
		"type":   alloc.Type,
	}).Debug("buffer allocated")
	return buf, alloc, nil
}

// AllocateImage creates an image described by desc and binds it to new
// memory chosen by policy.
func (a *Allocator) AllocateImage(desc gfx.ImageDescriptor, policy MemoryPolicy) (gfx.Image, *Allocation, error) {
	img, req, err := a.backend.CreateImage(desc)
	if err != nil {
		return nil, nil, err
	}
	alloc, err := a.allocate(req, policy)
	if err != nil {
		a.backend.DestroyImage(img)
		return nil, nil, err
	}
	if err := a.backend.BindImage(img, alloc.Memory, 0); err != nil {
		a.free(alloc)
		a.backend.DestroyImage(img)
		return nil, nil, err
	}
	return img, alloc, nil
}

// DestroyBuffer destroys the buffer and frees its memory. The buffer must
// not be in use by the GPU.
func (a *Allocator) DestroyBuffer(buf gfx.Buffer, alloc *Allocation) {
	a.backend.DestroyBuffer(buf)
	a.free(alloc)
}

// DestroyImage destroys the image and frees its memory. The image must
// not be in use by the GPU.
func (a *Allocator) DestroyImage(img gfx.Image, alloc *Allocation) {
	a.backend.DestroyImage(img)
	a.free(alloc)
}

// Map returns a host view of the whole allocation. Mapping an already
// mapped allocation returns the same view.
func (a *Allocator) Map(alloc *Allocation) ([]byte, error) {
	if alloc.mapped != nil {
		return alloc.mapped, nil
	}
	data, err := a.backend.Map(alloc.Memory, 0, alloc.Size)
	if err != nil {
		return nil, err
	}
	alloc.mapped = data
	return data, nil
}

// Unmap invalidates the host view returned by Map.
func (a *Allocator) Unmap(alloc *Allocation) {
	if alloc.mapped == nil {
		return
	}
	a.backend.Unmap(alloc.Memory)
	alloc.mapped = nil
}
