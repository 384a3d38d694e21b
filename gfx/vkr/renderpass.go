// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/gfx"
)

type imageView struct {
	device *Device
	handle vk.ImageView
}

// NewImageView implements interface
func (d *Device) NewImageView(img gfx.Image, aspect gfx.ImageAspect) (gfx.ImageView, error) {
	aspectMask := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	if aspect == gfx.AspectDepth {
		aspectMask = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	}
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.(*image).handle,
		ViewType: vk.ImageViewType2d,
		Format:   vkFormat(img.Format()),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspectMask,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var handle vk.ImageView
	if err := check("vk.CreateImageView", vk.CreateImageView(d.device, &ivci, nil, &handle)); err != nil {
		return nil, err
	}
	return &imageView{device: d, handle: handle}, nil
}

// Release implements interface
func (v *imageView) Release() {
	vk.DestroyImageView(v.device.device, v.handle, nil)
}

type renderPass struct {
	device      *Device
	handle      vk.RenderPass
	attachments []gfx.AttachmentDescriptor
}

// NewRenderPass implements interface. Colour attachments are referenced
// in order, at most one depth attachment is used.
func (d *Device) NewRenderPass(desc gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	var (
		attachments []vk.AttachmentDescription
		colorRefs   []vk.AttachmentReference
		depthRef    *vk.AttachmentReference
	)
	for idx, a := range desc.Attachments {
		ad := vk.AttachmentDescription{
			Format:         vkFormat(a.Format),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		}
		switch {
		case a.Depth:
			ad.StoreOp = vk.AttachmentStoreOpDontCare
			ad.FinalLayout = vk.ImageLayoutDepthStencilAttachmentOptimal
			depthRef = &vk.AttachmentReference{
				Attachment: uint32(idx),
				Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
			}
		default:
			if a.Present {
				ad.FinalLayout = vk.ImageLayoutPresentSrc
			}
			colorRefs = append(colorRefs, vk.AttachmentReference{
				Attachment: uint32(idx),
				Layout:     vk.ImageLayoutColorAttachmentOptimal,
			})
		}
		attachments = append(attachments, ad)
	}

	subpassDependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		SrcAccessMask: 0,
		DstStageMask:  vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit),
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	subpass := vk.SubpassDescription{
		PipelineBindPoint:       vk.PipelineBindPointGraphics,
		ColorAttachmentCount:    uint32(len(colorRefs)),
		PColorAttachments:       colorRefs,
		PDepthStencilAttachment: depthRef,
	}

	rpci := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{subpassDependency},
	}

	var handle vk.RenderPass
	if err := check("vk.CreateRenderPass", vk.CreateRenderPass(d.device, &rpci, nil, &handle)); err != nil {
		return nil, err
	}
	return &renderPass{
		device:      d,
		handle:      handle,
		attachments: append([]gfx.AttachmentDescriptor(nil), desc.Attachments...),
	}, nil
}

// AttachmentCount implements interface
func (r *renderPass) AttachmentCount() int {
	return len(r.attachments)
}

// Release implements interface
func (r *renderPass) Release() {
	vk.DestroyRenderPass(r.device.device, r.handle, nil)
}

type framebuffer struct {
	device *Device
	handle vk.Framebuffer
}

// NewFramebuffer implements interface
func (d *Device) NewFramebuffer(pass gfx.RenderPass, attachments []gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	views := make([]vk.ImageView, len(attachments))
	for idx, a := range attachments {
		views[idx] = a.(*imageView).handle
	}
	fci := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      pass.(*renderPass).handle,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}
	var handle vk.Framebuffer
	if err := check("vk.CreateFramebuffer", vk.CreateFramebuffer(d.device, &fci, nil, &handle)); err != nil {
		return nil, err
	}
	return &framebuffer{device: d, handle: handle}, nil
}

// Release implements interface
func (f *framebuffer) Release() {
	vk.DestroyFramebuffer(f.device.device, f.handle, nil)
}
