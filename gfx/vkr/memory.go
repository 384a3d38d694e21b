// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/gfx"
)

type buffer struct {
	handle vk.Buffer
	size   uint64
}

// Size implements interface
func (b *buffer) Size() uint64 { return b.size }

type image struct {
	handle vk.Image
	format gfx.Format
	extent gfx.Extent2D
}

// Format implements interface
func (i *image) Format() gfx.Format { return i.format }

// Extent implements interface
func (i *image) Extent() gfx.Extent2D { return i.extent }

type memory struct {
	handle     vk.DeviceMemory
	size       uint64
	memoryType uint32
}

// Size implements interface
func (m *memory) Size() uint64 { return m.size }

// MemoryType implements interface
func (m *memory) MemoryType() uint32 { return m.memoryType }

// memoryBackend maps the raw allocation calls onto the device.
type memoryBackend struct {
	device *Device
}

var memoryProperties = []struct {
	gfx gfx.MemoryProperty
	vk  vk.MemoryPropertyFlagBits
}{
	{gfx.MemoryDeviceLocal, vk.MemoryPropertyDeviceLocalBit},
	{gfx.MemoryHostVisible, vk.MemoryPropertyHostVisibleBit},
	{gfx.MemoryHostCoherent, vk.MemoryPropertyHostCoherentBit},
	{gfx.MemoryHostCached, vk.MemoryPropertyHostCachedBit},
}

// MemoryTypes implements interface
func (m *memoryBackend) MemoryTypes() []gfx.MemoryType {
	props := m.device.memoryProperties
	types := make([]gfx.MemoryType, props.MemoryTypeCount)
	for idx := uint32(0); idx < props.MemoryTypeCount; idx++ {
		props.MemoryTypes[idx].Deref()
		for _, p := range memoryProperties {
			if props.MemoryTypes[idx].PropertyFlags&vk.MemoryPropertyFlags(p.vk) != 0 {
				types[idx].Properties |= p.gfx
			}
		}
		types[idx].HeapIndex = props.MemoryTypes[idx].HeapIndex
	}
	return types
}

func vkBufferUsage(u gfx.BufferUsage) vk.BufferUsageFlags {
	var flags vk.BufferUsageFlagBits
	if u&gfx.BufferVertex != 0 {
		flags |= vk.BufferUsageVertexBufferBit
	}
	if u&gfx.BufferIndex != 0 {
		flags |= vk.BufferUsageIndexBufferBit
	}
	if u&gfx.BufferUniform != 0 {
		flags |= vk.BufferUsageUniformBufferBit
	}
	if u&gfx.BufferTransferSrc != 0 {
		flags |= vk.BufferUsageTransferSrcBit
	}
	if u&gfx.BufferTransferDst != 0 {
		flags |= vk.BufferUsageTransferDstBit
	}
	return vk.BufferUsageFlags(flags)
}

func vkImageUsage(u gfx.ImageUsage) vk.ImageUsageFlags {
	var flags vk.ImageUsageFlagBits
	if u&gfx.ImageColorAttachment != 0 {
		flags |= vk.ImageUsageColorAttachmentBit
	}
	if u&gfx.ImageDepthAttachment != 0 {
		flags |= vk.ImageUsageDepthStencilAttachmentBit
	}
	if u&gfx.ImageSampled != 0 {
		flags |= vk.ImageUsageSampledBit
	}
	if u&gfx.ImageTransferDst != 0 {
		flags |= vk.ImageUsageTransferDstBit
	}
	return vk.ImageUsageFlags(flags)
}

func requirements(req vk.MemoryRequirements) gfx.MemoryRequirements {
	req.Deref()
	return gfx.MemoryRequirements{
		Size:           uint64(req.Size),
		Alignment:      uint64(req.Alignment),
		MemoryTypeBits: req.MemoryTypeBits,
	}
}

// CreateBuffer implements interface
func (m *memoryBackend) CreateBuffer(size uint64, usage gfx.BufferUsage) (gfx.Buffer, gfx.MemoryRequirements, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vkBufferUsage(usage),
		SharingMode: vk.SharingModeExclusive,
	}
	var handle vk.Buffer
	if err := check("vk.CreateBuffer", vk.CreateBuffer(m.device.device, &createInfo, nil, &handle)); err != nil {
		return nil, gfx.MemoryRequirements{}, err
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(m.device.device, handle, &req)
	return &buffer{handle: handle, size: size}, requirements(req), nil
}

// DestroyBuffer implements interface
func (m *memoryBackend) DestroyBuffer(b gfx.Buffer) {
	vk.DestroyBuffer(m.device.device, b.(*buffer).handle, nil)
}

// CreateImage implements interface
func (m *memoryBackend) CreateImage(desc gfx.ImageDescriptor) (gfx.Image, gfx.MemoryRequirements, error) {
	createInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vkFormat(desc.Format),
		Extent: vk.Extent3D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vkImageUsage(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	var handle vk.Image
	if err := check("vk.CreateImage", vk.CreateImage(m.device.device, &createInfo, nil, &handle)); err != nil {
		return nil, gfx.MemoryRequirements{}, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(m.device.device, handle, &req)
	return &image{handle: handle, format: desc.Format, extent: desc.Extent}, requirements(req), nil
}

// DestroyImage implements interface
func (m *memoryBackend) DestroyImage(img gfx.Image) {
	vk.DestroyImage(m.device.device, img.(*image).handle, nil)
}

// Allocate implements interface
func (m *memoryBackend) Allocate(size uint64, memoryType uint32) (gfx.Memory, error) {
	allocInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: memoryType,
	}
	var handle vk.DeviceMemory
	if err := check("vk.AllocateMemory", vk.AllocateMemory(m.device.device, &allocInfo, nil, &handle)); err != nil {
		return nil, err
	}
	return &memory{handle: handle, size: size, memoryType: memoryType}, nil
}

// Free implements interface
func (m *memoryBackend) Free(mem gfx.Memory) {
	vk.FreeMemory(m.device.device, mem.(*memory).handle, nil)
}

// BindBuffer implements interface
func (m *memoryBackend) BindBuffer(b gfx.Buffer, mem gfx.Memory, offset uint64) error {
	return check("vk.BindBufferMemory",
		vk.BindBufferMemory(m.device.device, b.(*buffer).handle, mem.(*memory).handle, vk.DeviceSize(offset)))
}

// BindImage implements interface
func (m *memoryBackend) BindImage(img gfx.Image, mem gfx.Memory, offset uint64) error {
	return check("vk.BindImageMemory",
		vk.BindImageMemory(m.device.device, img.(*image).handle, mem.(*memory).handle, vk.DeviceSize(offset)))
}

// Map implements interface
func (m *memoryBackend) Map(mem gfx.Memory, offset, size uint64) ([]byte, error) {
	var data unsafe.Pointer
	if err := check("vk.MapMemory",
		vk.MapMemory(m.device.device, mem.(*memory).handle, vk.DeviceSize(offset), vk.DeviceSize(size), 0, &data)); err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(data), size), nil
}

// Unmap implements interface
func (m *memoryBackend) Unmap(mem gfx.Memory) {
	vk.UnmapMemory(m.device.device, mem.(*memory).handle)
}
