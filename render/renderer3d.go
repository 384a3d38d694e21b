// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package render batches immediate mode quad, line and mesh submissions
// into few GPU draw calls.
package render

import (
	"fmt"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx"
	"github.com/koru3d/inflight/model"
)

// FrameSource is the frame driver the batch renderer records into.
type FrameSource interface {
	core.Deferrer

	// CurrentFrame returns the slot of the frame being recorded.
	CurrentFrame() int
	FramesInFlight() int
	InFrame() bool
	Extent() gfx.Extent2D
}

// Stats counts the work done since the last ResetStats.
type Stats struct {
	DrawCalls     int
	Flushes       int
	Quads         int
	Lines         int
	Meshes        int
	Vertices      int
	PipelineBinds int
	MeshBinds     int
}

type opKind int

const (
	opQuads opKind = iota
	opLines
	opMesh
)

// drawOp is a draw recorded by a flush and replayed inside the render pass.
type drawOp struct {
	kind   opKind
	buffer gfx.Buffer
	offset uint64
	count  uint32

	mesh      *Mesh
	pipeline  *Pipeline
	indices   gfx.Buffer
	constants model.PushConstant
}

// vertexPage holds the quad and line vertices of one flush.
type vertexPage struct {
	buffer gfx.Buffer
	alloc  *core.Allocation
	data   []byte
}

type uniformSlot struct {
	buffer gfx.Buffer
	alloc  *core.Allocation
	data   []byte
	set    gfx.DescriptorSet
}

var quadCorners = [4]struct {
	pos glm.Vec4
	uv  glm.Vec2
}{
	{glm.Vec4{-0.5, -0.5, 0, 1}, glm.Vec2{0, 0}},
	{glm.Vec4{0.5, -0.5, 0, 1}, glm.Vec2{1, 0}},
	{glm.Vec4{0.5, 0.5, 0, 1}, glm.Vec2{1, 1}},
	{glm.Vec4{-0.5, 0.5, 0, 1}, glm.Vec2{0, 1}},
}

// QuadIndices returns the index pattern of count quads.
func QuadIndices(count int) []uint32 {
	indices := make([]uint32, 0, count*6)
	for i := uint32(0); i < uint32(count); i++ {
		base := i * 4
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return indices
}

// NewRenderer3D creates a batch renderer recording into the frames of
// frames. It allocates per frame uniform buffers and descriptor sets and
// the static quad index buffer.
func NewRenderer3D(ctx *core.Context, frames FrameSource, shaders ShaderSet, cfg core.BatchConfiguration) (*Renderer3D, error) {
	if cfg.MaxVertices < 4 || cfg.MaxVertices%4 != 0 {
		return nil, fmt.Errorf("renderer3d: max vertices %d is not a positive multiple of 4", cfg.MaxVertices)
	}
	if cfg.MaxMeshDraws < 1 {
		return nil, fmt.Errorf("renderer3d: max mesh draws %d", cfg.MaxMeshDraws)
	}
	if model.PushConstantSize > ctx.Device.Limits().MaxPushConstantsSize {
		return nil, fmt.Errorf("renderer3d: push constants of %d bytes: %w", model.PushConstantSize, gfx.ErrUnsupported)
	}

	slots := frames.FramesInFlight()
	r := &Renderer3D{
		ctx:        ctx,
		frames:     frames,
		log:        ctx.Logger("renderer3d"),
		cfg:        cfg,
		quads:      NewBatchBuffer[model.QuadVertex](cfg.MaxVertices),
		lines:      NewBatchBuffer[model.LineVertex](cfg.MaxVertices),
		meshes:     NewMeshDrawList(cfg.MaxMeshDraws),
		maxIndices: cfg.MaxVertices / 4 * 6,
		lineOffset: uint64(cfg.MaxVertices) * uint64(model.QuadLayout.Stride()),
		pages:      make([][]*vertexPage, slots),
		pageCursor: make([]int, slots),
		light: model.Light{
			Direction: glm.Vec3{-1, -1, -2},
			Ambient:   0.15,
		},
		material: model.Material{
			Diffuse:   0.8,
			Specular:  0.3,
			Shininess: 16,
		},
	}
	if err := r.createIndexBuffer(); err != nil {
		r.Release()
		return nil, err
	}
	if err := r.createUniforms(slots); err != nil {
		r.Release()
		return nil, err
	}

	r.quadPipeline = r.newPipeline("quad", gfx.PipelineDescriptor{
		Shaders:   shaders.Quad.modules(),
		Layout:    model.QuadLayout,
		Topology:  gfx.TriangleList,
		Cull:      gfx.CullNone,
		DepthTest: true,
	})
	r.linePipeline = r.newPipeline("line", gfx.PipelineDescriptor{
		Shaders:   shaders.Line.modules(),
		Layout:    model.LineLayout,
		Topology:  gfx.LineList,
		Cull:      gfx.CullNone,
		DepthTest: true,
	})
	r.meshPipeline = r.NewMeshPipeline("mesh", shaders.Mesh)
	return r, nil
}

// Renderer3D batches quads, lines and mesh instances submitted between
// BeginScene and EndScene. Vertex batches flush before they would
// overflow; each flush uploads into its own vertex page, and draws are
// replayed in submission order inside the render pass at EndScene.
type Renderer3D struct {
	ctx    *core.Context
	frames FrameSource
	log    *logrus.Entry
	cfg    core.BatchConfiguration

	quads       *BatchBuffer[model.QuadVertex]
	lines       *BatchBuffer[model.LineVertex]
	meshes      *MeshDrawList
	quadIndices int
	lineIndices int
	maxIndices  int
	lineOffset  uint64

	indexBuffer *core.Resource[bufferAllocation]
	indexType   gfx.IndexType

	setLayout gfx.DescriptorSetLayout
	pool      gfx.DescriptorPool
	uniforms  []uniformSlot

	quadPipeline *Pipeline
	linePipeline *Pipeline
	meshPipeline *Pipeline
	pipelines    []*Pipeline

	pages      [][]*vertexPage
	pageCursor []int

	ops      []drawOp
	inScene  bool
	slot     int
	light    model.Light
	material model.Material
	stats    Stats
}

func (r *Renderer3D) createIndexBuffer() error {
	indices := QuadIndices(r.cfg.MaxVertices / 4)
	var data []byte
	if r.cfg.MaxVertices <= 1<<16 {
		short := make([]uint16, len(indices))
		for i, idx := range indices {
			short[i] = uint16(idx)
		}
		data = model.Bytes(short)
		r.indexType = gfx.IndexUint16
	} else {
		data = model.Bytes(indices)
		r.indexType = gfx.IndexUint32
	}

	ib, err := upload(r.ctx.Allocator, data, gfx.BufferIndex)
	if err != nil {
		return err
	}
	r.indexBuffer = core.NewResource(ib, r.destroyBuffer, r.frames)
	return nil
}

func (r *Renderer3D) destroyBuffer(b bufferAllocation) {
	r.ctx.Allocator.DestroyBuffer(b.buffer, b.alloc)
}

func (r *Renderer3D) createUniforms(slots int) error {
	dev := r.ctx.Device
	var err error
	if r.setLayout, err = dev.NewDescriptorSetLayout([]gfx.DescriptorBinding{
		{Binding: 0, Stages: gfx.StageVertex},
	}); err != nil {
		return err
	}
	if r.pool, err = dev.NewDescriptorPool(uint32(slots), uint32(slots)); err != nil {
		return err
	}

	for i := 0; i < slots; i++ {
		buf, alloc, err := r.ctx.Allocator.AllocateBuffer(model.UniformSize, gfx.BufferUniform, core.HostVisibleCoherent)
		if err != nil {
			return err
		}
		u := uniformSlot{buffer: buf, alloc: alloc}
		r.uniforms = append(r.uniforms, u)
		if u.data, err = r.ctx.Allocator.Map(alloc); err != nil {
			return err
		}
		if u.set, err = r.pool.Allocate(r.setLayout); err != nil {
			return err
		}
		u.set.WriteUniform(0, buf, model.UniformSize)
		r.uniforms[i] = u
	}
	return nil
}

func (r *Renderer3D) newPipeline(name string, desc gfx.PipelineDescriptor) *Pipeline {
	desc.SetLayout = r.setLayout
	p := newPipeline(r.ctx, r.frames, name, desc)
	r.pipelines = append(r.pipelines, p)
	return p
}

// NewMeshPipeline creates a pipeline drawing meshes with shaders. It is
// built on first use and released with the renderer.
func (r *Renderer3D) NewMeshPipeline(name string, shaders Shaders) *Pipeline {
	return r.newPipeline(name, gfx.PipelineDescriptor{
		Shaders:            shaders.modules(),
		Layout:             model.MeshLayout,
		Topology:           gfx.TriangleList,
		Cull:               gfx.CullBack,
		DepthTest:          true,
		PushConstantSize:   model.PushConstantSize,
		PushConstantStages: gfx.StageVertex | gfx.StageFragment,
	})
}

// MeshPipeline returns the default mesh pipeline.
func (r *Renderer3D) MeshPipeline() *Pipeline {
	return r.meshPipeline
}

// SetLight sets the light of subsequent mesh draws.
func (r *Renderer3D) SetLight(light model.Light) {
	r.light = light
}

// SetMaterial sets the material of subsequent mesh draws.
func (r *Renderer3D) SetMaterial(material model.Material) {
	r.material = material
}

// Stats returns the counters since the last reset.
func (r *Renderer3D) Stats() Stats {
	return r.stats
}

// ResetStats zeroes the counters.
func (r *Renderer3D) ResetStats() {
	r.stats = Stats{}
}

func (r *Renderer3D) requireScene(op string) {
	if !r.inScene {
		r.log.Panicf("%s called outside of a scene", op)
	}
}

// BeginScene starts batching for the current frame and uploads the camera
// to the frame uniform buffer. It must be called inside a frame.
func (r *Renderer3D) BeginScene(camera Camera) {
	if !r.frames.InFrame() {
		r.log.Panic("BeginScene called outside of a frame")
	}
	if r.inScene {
		r.log.Panic("BeginScene called inside a scene")
	}
	r.inScene = true
	r.slot = r.frames.CurrentFrame()
	r.quads.Reset()
	r.lines.Reset()
	r.meshes.Reset()
	r.quadIndices, r.lineIndices = 0, 0
	r.recyclePages()

	extent := r.frames.Extent()
	aspect := float32(1)
	if extent.Height > 0 {
		aspect = float32(extent.Width) / float32(extent.Height)
	}
	u := camera.Uniform(aspect)
	copy(r.uniforms[r.slot].data, model.ValueBytes(&u))
}

// recyclePages makes the pages of the slot reusable. The slot fence was
// waited on by the frame driver, so nothing reads them anymore. Pages
// above what the previous scene of the slot used and the retain limit
// are released.
func (r *Renderer3D) recyclePages() {
	slot := r.slot
	keep := r.pageCursor[slot]
	if keep < r.cfg.RetainPages {
		keep = r.cfg.RetainPages
	}
	if pages := r.pages[slot]; len(pages) > keep {
		for _, p := range pages[keep:] {
			r.releasePage(p)
		}
		r.pages[slot] = pages[:keep:keep]
	}
	r.pageCursor[slot] = 0
}

func (r *Renderer3D) releasePage(p *vertexPage) {
	a := r.ctx.Allocator
	r.frames.Defer(func() { a.DestroyBuffer(p.buffer, p.alloc) })
}

func (r *Renderer3D) nextPage() (*vertexPage, error) {
	slot := r.slot
	if cursor := r.pageCursor[slot]; cursor < len(r.pages[slot]) {
		r.pageCursor[slot]++
		return r.pages[slot][cursor], nil
	}

	size := r.lineOffset + uint64(r.cfg.MaxVertices)*uint64(model.LineLayout.Stride())
	buf, alloc, err := r.ctx.Allocator.AllocateBuffer(size, gfx.BufferVertex, core.HostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	data, err := r.ctx.Allocator.Map(alloc)
	if err != nil {
		r.ctx.Allocator.DestroyBuffer(buf, alloc)
		return nil, err
	}
	page := &vertexPage{buffer: buf, alloc: alloc, data: data}
	r.pages[slot] = append(r.pages[slot], page)
	r.pageCursor[slot]++
	r.log.WithFields(logrus.Fields{"slot": slot, "pages": len(r.pages[slot])}).Debug("vertex page allocated")
	return page, nil
}

// SubmitQuad adds a quad of size scale centred on position and rotated
// around the z axis by rotation radians. The batch is flushed first when
// the quad would not fit.
func (r *Renderer3D) SubmitQuad(position glm.Vec3, color glm.Vec4, scale glm.Vec2, rotation float32) error {
	r.requireScene("SubmitQuad")
	if !r.quads.Fits(4) || r.quadIndices+6 > r.maxIndices {
		if err := r.flush(); err != nil {
			return err
		}
	}

	transform := glm.Translate3D(position.X(), position.Y(), position.Z()).
		Mul4(glm.HomogRotate3DZ(rotation)).
		Mul4(glm.Scale3D(scale.X(), scale.Y(), 1))
	var vertices [4]model.QuadVertex
	for i, corner := range quadCorners {
		vertices[i] = model.QuadVertex{
			Pos:   transform.Mul4x1(corner.pos).Vec3(),
			Color: color,
			UV:    corner.uv,
		}
	}
	r.quads.Append(vertices[:]...)
	r.quadIndices += 6
	r.stats.Quads++
	return nil
}

// SubmitLine adds a line segment. The batch is flushed first when the
// segment would not fit.
func (r *Renderer3D) SubmitLine(from, to glm.Vec3, color glm.Vec4) error {
	r.requireScene("SubmitLine")
	if !r.lines.Fits(2) || r.lineIndices+2 > r.maxIndices {
		if err := r.flush(); err != nil {
			return err
		}
	}
	r.lines.Append(
		model.LineVertex{Pos: from, Color: color},
		model.LineVertex{Pos: to, Color: color},
	)
	r.lineIndices += 2
	r.stats.Lines++
	return nil
}

// SubmitMesh adds an instance of mesh drawn with pipeline, the default
// mesh pipeline when nil. The batch is flushed first when the draw list
// is full.
func (r *Renderer3D) SubmitMesh(mesh *Mesh, pipeline *Pipeline, transform glm.Mat4, color glm.Vec4) error {
	r.requireScene("SubmitMesh")
	if pipeline == nil {
		pipeline = r.meshPipeline
	}
	if r.meshes.Full() {
		if err := r.flush(); err != nil {
			return err
		}
	}
	r.meshes.Append(MeshDraw{
		Mesh:      mesh,
		Pipeline:  pipeline,
		Transform: transform,
		Color:     color,
	})
	r.stats.Meshes++
	return nil
}

// Flush uploads pending vertices and queues one draw per batch kind and
// one per mesh instance. The scene continues after a flush.
func (r *Renderer3D) Flush() error {
	r.requireScene("Flush")
	return r.flush()
}

func (r *Renderer3D) flush() error {
	nq, nl, nm := r.quads.Len(), r.lines.Len(), r.meshes.Len()
	if nq == 0 && nl == 0 && nm == 0 {
		return nil
	}

	if nq > 0 || nl > 0 {
		page, err := r.nextPage()
		if err != nil {
			return err
		}
		if nq > 0 {
			copy(page.data, model.Bytes(r.quads.Vertices()))
			r.ops = append(r.ops, drawOp{kind: opQuads, buffer: page.buffer, count: uint32(nq)})
			r.stats.DrawCalls++
		}
		if nl > 0 {
			copy(page.data[r.lineOffset:], model.Bytes(r.lines.Vertices()))
			r.ops = append(r.ops, drawOp{kind: opLines, buffer: page.buffer, offset: r.lineOffset, count: uint32(nl)})
			r.stats.DrawCalls++
		}
		r.stats.Vertices += nq + nl
	}

	for _, d := range r.meshes.Draws() {
		r.ops = append(r.ops, drawOp{
			kind:      opMesh,
			buffer:    d.Mesh.vertices.Get().buffer,
			indices:   d.Mesh.indices.Get().buffer,
			count:     d.Mesh.indexCount,
			mesh:      d.Mesh,
			pipeline:  d.Pipeline,
			constants: model.NewPushConstant(d.Transform, d.Color, r.light, r.material),
		})
		r.stats.DrawCalls++
	}

	r.quads.Reset()
	r.lines.Reset()
	r.meshes.Reset()
	r.quadIndices, r.lineIndices = 0, 0
	r.stats.Flushes++
	r.log.WithFields(logrus.Fields{
		"quadVertices": nq,
		"lineVertices": nl,
		"meshes":       nm,
	}).Debug("batch flushed")
	return nil
}

func (r *Renderer3D) opPipeline(op drawOp) *Pipeline {
	switch op.kind {
	case opQuads:
		return r.quadPipeline
	case opLines:
		return r.linePipeline
	}
	return op.pipeline
}

// EndScene flushes what is pending, then begins the render pass of target
// on cb and replays every draw of the scene into it. Pipeline and mesh
// bindings are only emitted when they change from the previous draw.
func (r *Renderer3D) EndScene(cb gfx.CommandBuffer, target core.RenderTarget) error {
	r.requireScene("EndScene")
	if err := r.flush(); err != nil {
		return err
	}

	resolved := make(map[*Pipeline]gfx.Pipeline)
	for _, op := range r.ops {
		p := r.opPipeline(op)
		if _, ok := resolved[p]; ok {
			continue
		}
		gp, err := p.Get(target)
		if err != nil {
			return err
		}
		resolved[p] = gp
	}

	target.Begin(cb)
	set := r.uniforms[r.slot].set
	var (
		bound     gfx.Pipeline
		boundMesh *Mesh
	)
	for i := range r.ops {
		op := &r.ops[i]
		if gp := resolved[r.opPipeline(*op)]; gp != bound {
			cb.BindPipeline(gp)
			cb.BindDescriptorSet(gp, set)
			bound, boundMesh = gp, nil
			r.stats.PipelineBinds++
		}

		switch op.kind {
		case opQuads:
			cb.BindVertexBuffer(op.buffer, op.offset)
			cb.BindIndexBuffer(r.indexBuffer.Get().buffer, 0, r.indexType)
			cb.DrawIndexed(op.count/4*6, 1, 0)
			boundMesh = nil
		case opLines:
			cb.BindVertexBuffer(op.buffer, op.offset)
			cb.Draw(op.count, 1, 0)
			boundMesh = nil
		case opMesh:
			if op.mesh != boundMesh {
				cb.BindVertexBuffer(op.buffer, 0)
				cb.BindIndexBuffer(op.indices, 0, gfx.IndexUint16)
				boundMesh = op.mesh
				r.stats.MeshBinds++
			}
			cb.PushConstants(bound, gfx.StageVertex|gfx.StageFragment, model.ValueBytes(&op.constants))
			cb.DrawIndexed(op.count, 1, 0)
		}
	}
	cb.EndRenderPass()

	for i := range r.ops {
		r.ops[i] = drawOp{}
	}
	r.ops = r.ops[:0]
	r.inScene = false
	return nil
}

// Release releases the pipelines, then the buffers and descriptors. The
// releases are deferred behind the frames that may still use them.
func (r *Renderer3D) Release() {
	for _, p := range r.pipelines {
		p.Release()
	}
	r.pipelines = nil

	for slot, pages := range r.pages {
		for _, p := range pages {
			r.releasePage(p)
		}
		r.pages[slot] = nil
	}
	a := r.ctx.Allocator
	for _, u := range r.uniforms {
		u := u
		r.frames.Defer(func() { a.DestroyBuffer(u.buffer, u.alloc) })
	}
	r.uniforms = nil
	if r.indexBuffer != nil {
		r.indexBuffer.Release()
	}

	pool, layout := r.pool, r.setLayout
	r.frames.Defer(func() {
		if pool != nil {
			pool.Release()
		}
		if layout != nil {
			layout.Release()
		}
	})
	r.log.Debug("renderer3d released")
}
