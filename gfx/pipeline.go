// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// ShaderStage is a bit mask of programmable pipeline stages.
type ShaderStage uint32

// Shader stages
const (
	StageVertex ShaderStage = 1 << iota
	StageFragment
)

func (s ShaderStage) String() string {
	switch s {
	case StageVertex:
		return "vert"
	case StageFragment:
		return "frag"
	case StageVertex | StageFragment:
		return "vert|frag"
	}
	return "unknown"
}

// ShaderModule is an already compiled shader stage.
type ShaderModule interface {
	Releasable
	Stage() ShaderStage
}

// AttributeType is the scalar or vector type of a vertex attribute.
type AttributeType int

// Attribute types
const (
	Float32 AttributeType = iota
	Float32x2
	Float32x3
	Float32x4
)

// Size returns the byte size of the type.
func (t AttributeType) Size() uint32 {
	switch t {
	case Float32:
		return 4
	case Float32x2:
		return 8
	case Float32x3:
		return 12
	case Float32x4:
		return 16
	}
	return 0
}

// VertexAttribute is one entry of a vertex layout.
type VertexAttribute struct {
	Semantic string
	Type     AttributeType
	Size     uint32
}

// VertexLayout is an ordered, tightly packed list of attributes
// in a single interleaved binding.
type VertexLayout []VertexAttribute

// Stride returns the byte size of one vertex.
func (l VertexLayout) Stride() uint32 {
	var stride uint32
	for _, a := range l {
		stride += a.Size
	}
	return stride
}

// Offsets returns the byte offset of every attribute.
func (l VertexLayout) Offsets() []uint32 {
	offsets := make([]uint32, len(l))
	var off uint32
	for i, a := range l {
		offsets[i] = off
		off += a.Size
	}
	return offsets
}

// Topology is the primitive assembly mode of a pipeline.
type Topology int

// Topologies
const (
	TriangleList Topology = iota
	LineList
)

// CullMode selects which faces are discarded.
type CullMode int

// Cull modes
const (
	CullNone CullMode = iota
	CullBack
)

// PipelineDescriptor describes a graphics pipeline. Shader modules and the
// vertex layout are consumed as is, they are validated by the asset side.
type PipelineDescriptor struct {
	Shaders    []ShaderModule
	Layout     VertexLayout
	Topology   Topology
	Cull       CullMode
	DepthTest  bool
	RenderPass RenderPass

	SetLayout          DescriptorSetLayout
	PushConstantSize   uint32
	PushConstantStages ShaderStage
}

// Pipeline is a graphics pipeline state object.
type Pipeline interface {
	Releasable
}

// DescriptorBinding is a uniform buffer binding slot.
type DescriptorBinding struct {
	Binding uint32
	Stages  ShaderStage
}

// DescriptorSetLayout describes the bindings of a descriptor set.
type DescriptorSetLayout interface {
	Releasable
}

// DescriptorSet is a group of resource references read by a pipeline.
type DescriptorSet interface {
	// WriteUniform points binding at size bytes of buf.
	WriteUniform(binding uint32, buf Buffer, size uint64)
}

// DescriptorPool allocates descriptor sets. Sets are freed with the pool.
type DescriptorPool interface {
	Releasable
	Allocate(layout DescriptorSetLayout) (DescriptorSet, error)
}
