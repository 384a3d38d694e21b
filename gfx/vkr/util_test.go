// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"encoding/binary"
	"testing"

	vk "github.com/devblok/vulkan"
	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/gfx"
)

// Backend types must keep satisfying the gfx contracts against the pinned
// vulkan bindings.
var (
	_ gfx.Device         = (*Device)(nil)
	_ gfx.Presenter      = (*Presenter)(nil)
	_ gfx.Swapchain      = (*swapchain)(nil)
	_ gfx.Fence          = (*fence)(nil)
	_ gfx.Semaphore      = (*semaphore)(nil)
	_ gfx.Queue          = (*queue)(nil)
	_ gfx.CommandBuffer  = (*commandBuffer)(nil)
	_ gfx.MemoryBackend  = (*memoryBackend)(nil)
	_ gfx.RenderPass     = (*renderPass)(nil)
	_ gfx.Framebuffer    = (*framebuffer)(nil)
	_ gfx.ImageView      = (*imageView)(nil)
	_ gfx.ShaderModule   = (*shaderModule)(nil)
	_ gfx.Pipeline       = (*pipeline)(nil)
	_ gfx.DescriptorPool = (*descriptorPool)(nil)
	_ gfx.DescriptorSet  = (*descriptorSet)(nil)
)

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)
	data := make([]byte, 12)
	for idx := 0; idx < 3; idx++ {
		binary.LittleEndian.PutUint32(data[idx*4:], uint32(0x07230203+idx))
	}
	words := SliceUint32(data)
	c.Assert(words, qt.HasLen, 3)
	c.Assert(words[0], qt.Equals, uint32(0x07230203))
	c.Assert(words[2], qt.Equals, uint32(0x07230205))

	c.Assert(SliceUint32(data[:7]), qt.HasLen, 1)
	c.Assert(SliceUint32(nil), qt.IsNil)
}

func TestSafeStrings(t *testing.T) {
	c := qt.New(t)
	c.Assert(safeString("main"), qt.Equals, "main\x00")
	c.Assert(safeStrings([]string{"VK_KHR_surface", "VK_KHR_swapchain"}), qt.DeepEquals,
		[]string{"VK_KHR_surface\x00", "VK_KHR_swapchain\x00"})
	c.Assert(safeStrings(nil), qt.HasLen, 0)
}

func TestCheck(t *testing.T) {
	c := qt.New(t)
	c.Assert(check("vk.CreateBuffer", vk.Success), qt.IsNil)

	err := check("vk.AllocateMemory", vk.ErrorOutOfDeviceMemory)
	c.Assert(err, qt.ErrorIs, gfx.ErrOutOfDeviceMemory)
	c.Assert(err, qt.ErrorMatches, `vk.AllocateMemory\(\): .*`)
	c.Assert(check("vk.CreateBuffer", vk.ErrorOutOfHostMemory), qt.ErrorIs, gfx.ErrOutOfDeviceMemory)

	err = check("vk.CreateDevice", vk.ErrorInitializationFailed)
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(err, qt.Not(qt.ErrorIs), gfx.ErrOutOfDeviceMemory)
	c.Assert(err, qt.ErrorMatches, `vk.CreateDevice\(\): .*`)
}

func TestStale(t *testing.T) {
	c := qt.New(t)
	c.Assert(stale("vk.QueuePresent", vk.Success), qt.IsNil)
	c.Assert(stale("vk.QueuePresent", vk.Suboptimal), qt.Equals, gfx.ErrSurfaceStale)
	c.Assert(stale("vk.AcquireNextImage", vk.ErrorOutOfDate), qt.Equals, gfx.ErrSurfaceStale)
	c.Assert(stale("vk.AcquireNextImage", vk.ErrorDeviceLost), qt.Not(qt.Equals), gfx.ErrSurfaceStale)
}

func TestFormats(t *testing.T) {
	c := qt.New(t)
	for f := range formats {
		c.Assert(gfxFormat(vkFormat(f)), qt.Equals, f)
	}
	c.Assert(gfxFormat(vk.FormatR16g16b16a16Sfloat), qt.Equals, gfx.FormatUndefined)
	c.Assert(vkFormat(gfx.Format(100)), qt.Equals, vk.FormatUndefined)

	for m, vm := range presentModes {
		got, ok := gfxPresentMode(vm)
		c.Assert(ok, qt.IsTrue)
		c.Assert(got, qt.Equals, m)
	}
	_, ok := gfxPresentMode(vk.PresentMode(0x7fffffff))
	c.Assert(ok, qt.IsFalse)
}

func TestFlags(t *testing.T) {
	c := qt.New(t)
	c.Assert(vkStages(gfx.StageVertex|gfx.StageFragment), qt.Equals,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit))
	c.Assert(vkBufferUsage(gfx.BufferVertex|gfx.BufferIndex), qt.Equals,
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit|vk.BufferUsageIndexBufferBit))
	c.Assert(vkImageUsage(gfx.ImageDepthAttachment), qt.Equals,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit))
}

func TestVertexInput(t *testing.T) {
	c := qt.New(t)
	layout := gfx.VertexLayout{
		{Semantic: "position", Type: gfx.Float32x3, Size: 12},
		{Semantic: "color", Type: gfx.Float32x4, Size: 16},
	}
	bindings, attributes := vertexInput(layout)
	c.Assert(bindings, qt.HasLen, 1)
	c.Assert(bindings[0].Stride, qt.Equals, uint32(28))
	c.Assert(attributes, qt.HasLen, 2)
	c.Assert(attributes[1].Location, qt.Equals, uint32(1))
	c.Assert(attributes[1].Offset, qt.Equals, uint32(12))
	c.Assert(attributes[1].Format, qt.Equals, vk.FormatR32g32b32a32Sfloat)

	bindings, attributes = vertexInput(nil)
	c.Assert(bindings, qt.IsNil)
	c.Assert(attributes, qt.IsNil)
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		SliceUint32(data)
	}
}
