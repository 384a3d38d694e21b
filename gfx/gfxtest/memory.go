// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest

import (
	"fmt"

	"github.com/koru3d/inflight/gfx"
)

const alignment = 256

// Buffer is a fake buffer. Its contents live in the bound memory.
type Buffer struct {
	ID    int
	Usage gfx.BufferUsage

	size   uint64
	mem    *Memory
	offset uint64
}

// Size implements interface
func (b *Buffer) Size() uint64 { return b.size }

// Bytes returns the buffer contents as seen by the GPU.
func (b *Buffer) Bytes() []byte {
	if b.mem == nil {
		return nil
	}
	return b.mem.data[b.offset : b.offset+b.size]
}

// Image is a fake image.
type Image struct {
	ID    int
	Usage gfx.ImageUsage

	format gfx.Format
	extent gfx.Extent2D
	mem    *Memory
	owned  bool
}

// Format implements interface
func (i *Image) Format() gfx.Format { return i.format }

// Extent implements interface
func (i *Image) Extent() gfx.Extent2D { return i.extent }

// Memory is a fake allocation backed by a byte slice.
type Memory struct {
	ID int

	size   uint64
	typ    uint32
	data   []byte
	mapped bool
	freed  bool
}

// Size implements interface
func (m *Memory) Size() uint64 { return m.size }

// MemoryType implements interface
func (m *Memory) MemoryType() uint32 { return m.typ }

// Mapped reports whether the allocation is currently mapped.
func (m *Memory) Mapped() bool { return m.mapped }

// Allocated returns the bytes held by live allocations.
func (d *Device) Allocated() uint64 {
	return d.allocated
}

type memoryBackend struct {
	dev *Device
}

func (m memoryBackend) MemoryTypes() []gfx.MemoryType {
	return m.dev.types
}

func (m memoryBackend) allTypes() uint32 {
	return uint32(1)<<uint(len(m.dev.types)) - 1
}

func align(size uint64) uint64 {
	return (size + alignment - 1) &^ (alignment - 1)
}

func (m memoryBackend) CreateBuffer(size uint64, usage gfx.BufferUsage) (gfx.Buffer, gfx.MemoryRequirements, error) {
	if size == 0 {
		return nil, gfx.MemoryRequirements{}, fmt.Errorf("gfxtest: zero sized buffer")
	}
	m.dev.create(KindBuffer)
	b := &Buffer{ID: m.dev.id(), Usage: usage, size: size}
	return b, gfx.MemoryRequirements{
		Size:           align(size),
		Alignment:      alignment,
		MemoryTypeBits: m.allTypes(),
	}, nil
}

func (m memoryBackend) DestroyBuffer(b gfx.Buffer) {
	m.dev.destroy(KindBuffer)
}

func (m memoryBackend) CreateImage(desc gfx.ImageDescriptor) (gfx.Image, gfx.MemoryRequirements, error) {
	if desc.Extent.Zero() {
		return nil, gfx.MemoryRequirements{}, fmt.Errorf("gfxtest: zero sized image")
	}
	m.dev.create(KindImage)
	img := &Image{ID: m.dev.id(), Usage: desc.Usage, format: desc.Format, extent: desc.Extent, owned: true}
	size := uint64(desc.Extent.Width) * uint64(desc.Extent.Height) * 4
	// images are device only
	bits := uint32(0)
	for i, t := range m.dev.types {
		if t.Properties&gfx.MemoryDeviceLocal != 0 {
			bits |= 1 << uint(i)
		}
	}
	if bits == 0 {
		bits = m.allTypes()
	}
	return img, gfx.MemoryRequirements{Size: align(size), Alignment: alignment, MemoryTypeBits: bits}, nil
}

func (m memoryBackend) DestroyImage(img gfx.Image) {
	if !img.(*Image).owned {
		panic("gfxtest: destroying a swapchain image")
	}
	m.dev.destroy(KindImage)
}

func (m memoryBackend) Allocate(size uint64, memoryType uint32) (gfx.Memory, error) {
	d := m.dev
	if int(memoryType) >= len(d.types) {
		return nil, fmt.Errorf("gfxtest: memory type %d does not exist", memoryType)
	}
	if d.MemoryLimit > 0 && d.allocated+size > d.MemoryLimit {
		return nil, gfx.ErrOutOfDeviceMemory
	}
	d.allocated += size
	d.create(KindMemory)
	return &Memory{ID: d.id(), size: size, typ: memoryType, data: make([]byte, size)}, nil
}

func (m memoryBackend) Free(mem gfx.Memory) {
	fm := mem.(*Memory)
	if fm.freed {
		panic(fmt.Sprintf("gfxtest: memory %d freed twice", fm.ID))
	}
	fm.freed = true
	m.dev.allocated -= fm.size
	m.dev.destroy(KindMemory)
}

func (m memoryBackend) BindBuffer(b gfx.Buffer, mem gfx.Memory, offset uint64) error {
	fb, fm := b.(*Buffer), mem.(*Memory)
	if offset+fb.size > fm.size {
		return fmt.Errorf("gfxtest: buffer %d does not fit memory %d", fb.ID, fm.ID)
	}
	fb.mem, fb.offset = fm, offset
	return nil
}

func (m memoryBackend) BindImage(img gfx.Image, mem gfx.Memory, offset uint64) error {
	img.(*Image).mem = mem.(*Memory)
	return nil
}

func (m memoryBackend) Map(mem gfx.Memory, offset, size uint64) ([]byte, error) {
	fm := mem.(*Memory)
	if m.dev.types[fm.typ].Properties&gfx.MemoryHostVisible == 0 {
		return nil, fmt.Errorf("gfxtest: memory %d is not host visible", fm.ID)
	}
	if fm.mapped {
		return nil, fmt.Errorf("gfxtest: memory %d already mapped", fm.ID)
	}
	if offset+size > fm.size {
		return nil, fmt.Errorf("gfxtest: mapping past the end of memory %d", fm.ID)
	}
	fm.mapped = true
	end := offset + size
	return fm.data[offset:end:end], nil
}

func (m memoryBackend) Unmap(mem gfx.Memory) {
	mem.(*Memory).mapped = false
}
