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

type commandBuffer struct {
	handle vk.CommandBuffer
}

// NewCommandBuffers implements interface
func (d *Device) NewCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}
	handles := make([]vk.CommandBuffer, count)
	if err := check("vk.AllocateCommandBuffers", vk.AllocateCommandBuffers(d.device, &cbai, handles)); err != nil {
		return nil, err
	}
	buffers := make([]gfx.CommandBuffer, count)
	for idx, h := range handles {
		buffers[idx] = &commandBuffer{handle: h}
	}
	return buffers, nil
}

// FreeCommandBuffers implements interface
func (d *Device) FreeCommandBuffers(buffers []gfx.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	handles := make([]vk.CommandBuffer, len(buffers))
	for idx, b := range buffers {
		handles[idx] = b.(*commandBuffer).handle
	}
	vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(handles)), handles)
}

// Reset implements interface
func (c *commandBuffer) Reset() error {
	return check("vk.ResetCommandBuffer", vk.ResetCommandBuffer(c.handle, 0))
}

// Begin implements interface
func (c *commandBuffer) Begin() error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return check("vk.BeginCommandBuffer", vk.BeginCommandBuffer(c.handle, &cbbi))
}

// End implements interface
func (c *commandBuffer) End() error {
	return check("vk.EndCommandBuffer", vk.EndCommandBuffer(c.handle))
}

// BeginRenderPass implements interface
func (c *commandBuffer) BeginRenderPass(pass gfx.RenderPass, target gfx.Framebuffer, area gfx.Extent2D, clear gfx.ClearValues) {
	rp := pass.(*renderPass)
	clearValues := make([]vk.ClearValue, len(rp.attachments))
	for idx, a := range rp.attachments {
		if a.Depth {
			clearValues[idx].SetDepthStencil(clear.Depth, clear.Stencil)
		} else {
			clearValues[idx].SetColor(clear.Color[:])
		}
	}

	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.handle,
		Framebuffer: target.(*framebuffer).handle,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vkExtent(area),
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.handle, &rpbi, vk.SubpassContentsInline)
}

// EndRenderPass implements interface
func (c *commandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.handle)
}

// SetViewport implements interface
func (c *commandBuffer) SetViewport(area gfx.Extent2D) {
	viewport := vk.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(area.Width),
		Height:   float32(area.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vkExtent(area),
	}
	vk.CmdSetViewport(c.handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(c.handle, 0, 1, []vk.Rect2D{scissor})
}

// BindPipeline implements interface
func (c *commandBuffer) BindPipeline(p gfx.Pipeline) {
	vk.CmdBindPipeline(c.handle, vk.PipelineBindPointGraphics, p.(*pipeline).handle)
}

// BindDescriptorSet implements interface
func (c *commandBuffer) BindDescriptorSet(p gfx.Pipeline, set gfx.DescriptorSet) {
	vk.CmdBindDescriptorSets(c.handle, vk.PipelineBindPointGraphics, p.(*pipeline).layout,
		0, 1, []vk.DescriptorSet{set.(*descriptorSet).handle}, 0, nil)
}

// BindVertexBuffer implements interface
func (c *commandBuffer) BindVertexBuffer(b gfx.Buffer, offset uint64) {
	vk.CmdBindVertexBuffers(c.handle, 0, 1, []vk.Buffer{b.(*buffer).handle}, []vk.DeviceSize{vk.DeviceSize(offset)})
}

// BindIndexBuffer implements interface
func (c *commandBuffer) BindIndexBuffer(b gfx.Buffer, offset uint64, t gfx.IndexType) {
	indexType := vk.IndexTypeUint16
	if t == gfx.IndexUint32 {
		indexType = vk.IndexTypeUint32
	}
	vk.CmdBindIndexBuffer(c.handle, b.(*buffer).handle, vk.DeviceSize(offset), indexType)
}

// PushConstants implements interface
func (c *commandBuffer) PushConstants(p gfx.Pipeline, stages gfx.ShaderStage, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(c.handle, p.(*pipeline).layout, vkStages(stages), 0, uint32(len(data)), unsafe.Pointer(&data[0]))
}

// Draw implements interface
func (c *commandBuffer) Draw(vertexCount, instanceCount, firstVertex uint32) {
	vk.CmdDraw(c.handle, vertexCount, instanceCount, firstVertex, 0)
}

// DrawIndexed implements interface
func (c *commandBuffer) DrawIndexed(indexCount, instanceCount, firstIndex uint32) {
	vk.CmdDrawIndexed(c.handle, indexCount, instanceCount, firstIndex, 0, 0)
}
