// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/gfx"
)

type shaderModule struct {
	device *Device
	handle vk.ShaderModule
	stage  gfx.ShaderStage
}

// NewShaderModule implements interface. code is SPIR-V, its length must
// be a multiple of 4.
func (d *Device) NewShaderModule(stage gfx.ShaderStage, code []byte) (gfx.ShaderModule, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("vkr.NewShaderModule(%s): code size %d is not a multiple of 4", stage, len(code))
	}
	smci := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    SliceUint32(code),
	}
	var handle vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(d.device, &smci, nil, &handle)); err != nil {
		return nil, fmt.Errorf("vk.CreateShaderModule(%s): %s", stage, err.Error())
	}
	return &shaderModule{device: d, handle: handle, stage: stage}, nil
}

// Stage implements interface
func (s *shaderModule) Stage() gfx.ShaderStage {
	return s.stage
}

// Release implements interface
func (s *shaderModule) Release() {
	vk.DestroyShaderModule(s.device.device, s.handle, nil)
}

type descriptorSetLayout struct {
	device *Device
	handle vk.DescriptorSetLayout
}

// NewDescriptorSetLayout implements interface
func (d *Device) NewDescriptorSetLayout(bindings []gfx.DescriptorBinding) (gfx.DescriptorSetLayout, error) {
	layoutBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for idx, b := range bindings {
		layoutBindings[idx] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorTypeUniformBuffer,
			StageFlags:      vkStages(b.Stages),
		}
	}
	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}
	var handle vk.DescriptorSetLayout
	if err := check("vk.CreateDescriptorSetLayout", vk.CreateDescriptorSetLayout(d.device, &dslci, nil, &handle)); err != nil {
		return nil, err
	}
	return &descriptorSetLayout{device: d, handle: handle}, nil
}

// Release implements interface
func (l *descriptorSetLayout) Release() {
	vk.DestroyDescriptorSetLayout(l.device.device, l.handle, nil)
}

type descriptorPool struct {
	device *Device
	handle vk.DescriptorPool
}

// NewDescriptorPool implements interface
func (d *Device) NewDescriptorPool(maxSets, uniformBuffers uint32) (gfx.DescriptorPool, error) {
	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       maxSets,
		PoolSizeCount: 1,
		PPoolSizes: []vk.DescriptorPoolSize{{
			Type:            vk.DescriptorTypeUniformBuffer,
			DescriptorCount: uniformBuffers,
		}},
	}
	var handle vk.DescriptorPool
	if err := check("vk.CreateDescriptorPool", vk.CreateDescriptorPool(d.device, &dpci, nil, &handle)); err != nil {
		return nil, err
	}
	return &descriptorPool{device: d, handle: handle}, nil
}

// Allocate implements interface
func (p *descriptorPool) Allocate(layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.handle,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.(*descriptorSetLayout).handle},
	}
	var handle vk.DescriptorSet
	if err := check("vk.AllocateDescriptorSets", vk.AllocateDescriptorSets(p.device.device, &dsai, &handle)); err != nil {
		return nil, err
	}
	return &descriptorSet{device: p.device, handle: handle}, nil
}

// Release implements interface
func (p *descriptorPool) Release() {
	vk.DestroyDescriptorPool(p.device.device, p.handle, nil)
}

type descriptorSet struct {
	device *Device
	handle vk.DescriptorSet
}

// WriteUniform implements interface
func (s *descriptorSet) WriteUniform(binding uint32, buf gfx.Buffer, size uint64) {
	dbi := vk.DescriptorBufferInfo{
		Buffer: buf.(*buffer).handle,
		Offset: 0,
		Range:  vk.DeviceSize(size),
	}
	wds := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.handle,
		DstBinding:      binding,
		DstArrayElement: 0,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		DescriptorCount: 1,
		PBufferInfo:     []vk.DescriptorBufferInfo{dbi},
	}}
	vk.UpdateDescriptorSets(s.device.device, uint32(len(wds)), wds, 0, nil)
}

type pipeline struct {
	device *Device
	handle vk.Pipeline
	layout vk.PipelineLayout
}

func vertexInput(layout gfx.VertexLayout) ([]vk.VertexInputBindingDescription, []vk.VertexInputAttributeDescription) {
	if len(layout) == 0 {
		return nil, nil
	}
	bindings := []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    layout.Stride(),
		InputRate: vk.VertexInputRateVertex,
	}}
	offsets := layout.Offsets()
	attributes := make([]vk.VertexInputAttributeDescription, len(layout))
	for idx, a := range layout {
		attributes[idx] = vk.VertexInputAttributeDescription{
			Binding:  0,
			Location: uint32(idx),
			Format:   vkAttributeFormat(a.Type),
			Offset:   offsets[idx],
		}
	}
	return bindings, attributes
}

// NewPipeline implements interface. The viewport and scissor are dynamic,
// pipelines survive swapchain resizes as long as the render pass does.
func (d *Device) NewPipeline(desc gfx.PipelineDescriptor) (gfx.Pipeline, error) {
	var setLayouts []vk.DescriptorSetLayout
	if desc.SetLayout != nil {
		setLayouts = append(setLayouts, desc.SetLayout.(*descriptorSetLayout).handle)
	}
	var pcr []vk.PushConstantRange
	if desc.PushConstantSize > 0 {
		pcr = append(pcr, vk.PushConstantRange{
			Offset:     0,
			Size:       desc.PushConstantSize,
			StageFlags: vkStages(desc.PushConstantStages),
		})
	}
	plci := vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(pcr)),
		PPushConstantRanges:    pcr,
	}
	p := &pipeline{device: d}
	if err := check("vk.CreatePipelineLayout", vk.CreatePipelineLayout(d.device, &plci, nil, &p.layout)); err != nil {
		return nil, err
	}

	stages := make([]vk.PipelineShaderStageCreateInfo, len(desc.Shaders))
	for idx, s := range desc.Shaders {
		stages[idx] = vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  vk.ShaderStageFlagBits(vkStages(s.Stage())),
			Module: s.(*shaderModule).handle,
			PName:  safeString("main"),
		}
	}

	topology := vk.PrimitiveTopologyTriangleList
	if desc.Topology == gfx.LineList {
		topology = vk.PrimitiveTopologyLineList
	}
	cullMode := vk.CullModeFlags(vk.CullModeNone)
	if desc.Cull == gfx.CullBack {
		cullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}
	depthTest := vk.Bool32(vk.False)
	if desc.DepthTest {
		depthTest = vk.True
	}

	bindings, attributes := vertexInput(desc.Layout)
	gpci := []vk.GraphicsPipelineCreateInfo{{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(stages)),
		PStages:    stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(bindings)),
			PVertexBindingDescriptions:      bindings,
			VertexAttributeDescriptionCount: uint32(len(attributes)),
			PVertexAttributeDescriptions:    attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology: topology,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
			PolygonMode: vk.PolygonModeFill,
			CullMode:    cullMode,
			FrontFace:   vk.FrontFaceCounterClockwise,
			LineWidth:   1.0,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       depthTest,
			DepthWriteEnable:      depthTest,
			DepthCompareOp:        vk.CompareOpLessOrEqual,
			DepthBoundsTestEnable: vk.False,
			StencilTestEnable:     vk.False,
			Back: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
			Front: vk.StencilOpState{
				FailOp:    vk.StencilOpKeep,
				PassOp:    vk.StencilOpKeep,
				CompareOp: vk.CompareOpAlways,
			},
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: 1,
			PAttachments: []vk.PipelineColorBlendAttachmentState{{
				ColorWriteMask:      0xF,
				BlendEnable:         vk.True,
				SrcColorBlendFactor: vk.BlendFactorSrcAlpha,
				DstColorBlendFactor: vk.BlendFactorOneMinusSrcAlpha,
				ColorBlendOp:        vk.BlendOpAdd,
				SrcAlphaBlendFactor: vk.BlendFactorOne,
				DstAlphaBlendFactor: vk.BlendFactorZero,
				AlphaBlendOp:        vk.BlendOpAdd,
			}},
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: 2,
			PDynamicStates: []vk.DynamicState{
				vk.DynamicStateScissor,
				vk.DynamicStateViewport,
			},
		},
		Layout:     p.layout,
		RenderPass: desc.RenderPass.(*renderPass).handle,
	}}

	pipelines := make([]vk.Pipeline, len(gpci))
	if err := check("vk.CreateGraphicsPipelines",
		vk.CreateGraphicsPipelines(d.device, d.cache.handle, uint32(len(gpci)), gpci, nil, pipelines)); err != nil {
		vk.DestroyPipelineLayout(d.device, p.layout, nil)
		return nil, err
	}
	p.handle = pipelines[0]
	return p, nil
}

// Release implements interface
func (p *pipeline) Release() {
	vk.DestroyPipeline(p.device.device, p.handle, nil)
	vk.DestroyPipelineLayout(p.device.device, p.layout, nil)
}
