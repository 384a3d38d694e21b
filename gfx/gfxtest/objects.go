// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest

import (
	"fmt"

	"github.com/koru3d/inflight/gfx"
)

type object struct {
	dev      *Device
	kind     string
	released bool
}

func (d *Device) newObject(kind string) object {
	d.create(kind)
	return object{dev: d, kind: kind}
}

func (o *object) Release() {
	if o.released {
		panic(fmt.Sprintf("gfxtest: %s released twice", o.kind))
	}
	o.released = true
	o.dev.destroy(o.kind)
}

// Released reports whether the object was released.
func (o *object) Released() bool { return o.released }

// ImageView is a fake image view.
type ImageView struct {
	object
	Image  gfx.Image
	Aspect gfx.ImageAspect
}

// NewImageView implements interface
func (d *Device) NewImageView(img gfx.Image, aspect gfx.ImageAspect) (gfx.ImageView, error) {
	return &ImageView{object: d.newObject(KindImageView), Image: img, Aspect: aspect}, nil
}

// RenderPass is a fake render pass.
type RenderPass struct {
	object
	Desc gfx.RenderPassDescriptor
}

// AttachmentCount implements interface
func (p *RenderPass) AttachmentCount() int { return len(p.Desc.Attachments) }

// NewRenderPass implements interface
func (d *Device) NewRenderPass(desc gfx.RenderPassDescriptor) (gfx.RenderPass, error) {
	return &RenderPass{object: d.newObject(KindRenderPass), Desc: desc}, nil
}

// Framebuffer is a fake framebuffer.
type Framebuffer struct {
	object
	Attachments []gfx.ImageView
	Extent      gfx.Extent2D
}

// NewFramebuffer implements interface
func (d *Device) NewFramebuffer(pass gfx.RenderPass, attachments []gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	if pass.AttachmentCount() != len(attachments) {
		return nil, fmt.Errorf("gfxtest: %d attachments for a render pass of %d", len(attachments), pass.AttachmentCount())
	}
	return &Framebuffer{object: d.newObject(KindFramebuffer), Attachments: attachments, Extent: extent}, nil
}

// ShaderModule is a fake shader module.
type ShaderModule struct {
	object
	Code  []byte
	stage gfx.ShaderStage
}

// Stage implements interface
func (s *ShaderModule) Stage() gfx.ShaderStage { return s.stage }

// NewShaderModule implements interface
func (d *Device) NewShaderModule(stage gfx.ShaderStage, code []byte) (gfx.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("gfxtest: shader code of %d bytes is not SPIR-V", len(code))
	}
	return &ShaderModule{object: d.newObject(KindShader), Code: code, stage: stage}, nil
}

// SetLayout is a fake descriptor set layout.
type SetLayout struct {
	object
	Bindings []gfx.DescriptorBinding
}

// NewDescriptorSetLayout implements interface
func (d *Device) NewDescriptorSetLayout(bindings []gfx.DescriptorBinding) (gfx.DescriptorSetLayout, error) {
	return &SetLayout{object: d.newObject(KindSetLayout), Bindings: bindings}, nil
}

// DescriptorPool is a fake descriptor pool.
type DescriptorPool struct {
	object
	MaxSets uint32
	Sets    []*DescriptorSet
}

// NewDescriptorPool implements interface
func (d *Device) NewDescriptorPool(maxSets, uniformBuffers uint32) (gfx.DescriptorPool, error) {
	return &DescriptorPool{object: d.newObject(KindDescriptorPool), MaxSets: maxSets}, nil
}

// Allocate implements interface
func (p *DescriptorPool) Allocate(layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	if uint32(len(p.Sets)) >= p.MaxSets {
		return nil, fmt.Errorf("gfxtest: descriptor pool exhausted")
	}
	set := &DescriptorSet{Uniforms: make(map[uint32]gfx.Buffer)}
	p.Sets = append(p.Sets, set)
	return set, nil
}

// DescriptorSet is a fake descriptor set.
type DescriptorSet struct {
	Uniforms map[uint32]gfx.Buffer
}

// WriteUniform implements interface
func (s *DescriptorSet) WriteUniform(binding uint32, buf gfx.Buffer, size uint64) {
	s.Uniforms[binding] = buf
}

// Pipeline is a fake pipeline.
type Pipeline struct {
	object
	ID   int
	Desc gfx.PipelineDescriptor
}

// NewPipeline implements interface
func (d *Device) NewPipeline(desc gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	if err := d.PipelineErr; err != nil {
		return nil, err
	}
	if desc.RenderPass == nil {
		return nil, fmt.Errorf("gfxtest: pipeline without a render pass")
	}
	if desc.PushConstantSize > d.Limits().MaxPushConstantsSize {
		return nil, fmt.Errorf("gfxtest: push constant range of %d bytes", desc.PushConstantSize)
	}
	return &Pipeline{object: d.newObject(KindPipeline), ID: d.id(), Desc: desc}, nil
}
