// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"errors"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx"
	"github.com/koru3d/inflight/model"
)

// Mesh is an indexed triangle list in GPU memory.
type Mesh struct {
	vertices *core.Resource[bufferAllocation]
	indices  *core.Resource[bufferAllocation]

	vertexCount int
	indexCount  uint32
}

type bufferAllocation struct {
	buffer gfx.Buffer
	alloc  *core.Allocation
}

// upload copies data into a new host visible buffer.
func upload(a *core.Allocator, data []byte, usage gfx.BufferUsage) (bufferAllocation, error) {
	buf, alloc, err := a.AllocateBuffer(uint64(len(data)), usage, core.HostVisibleCoherent)
	if err != nil {
		return bufferAllocation{}, err
	}
	mapped, err := a.Map(alloc)
	if err != nil {
		a.DestroyBuffer(buf, alloc)
		return bufferAllocation{}, err
	}
	copy(mapped, data)
	a.Unmap(alloc)
	return bufferAllocation{buffer: buf, alloc: alloc}, nil
}

// NewMesh uploads vertices and indices. Releasing the mesh is deferred
// until no frame in flight draws it.
func (r *Renderer3D) NewMesh(vertices []model.MeshVertex, indices []uint16) (*Mesh, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, errors.New("mesh: no vertices or indices")
	}
	a := r.ctx.Allocator
	vb, err := upload(a, model.Bytes(vertices), gfx.BufferVertex)
	if err != nil {
		return nil, err
	}
	ib, err := upload(a, model.Bytes(indices), gfx.BufferIndex)
	if err != nil {
		a.DestroyBuffer(vb.buffer, vb.alloc)
		return nil, err
	}

	free := func(b bufferAllocation) { a.DestroyBuffer(b.buffer, b.alloc) }
	return &Mesh{
		vertices:    core.NewResource(vb, free, r.frames),
		indices:     core.NewResource(ib, free, r.frames),
		vertexCount: len(vertices),
		indexCount:  uint32(len(indices)),
	}, nil
}

// VertexCount returns the number of vertices of the mesh.
func (m *Mesh) VertexCount() int {
	return m.vertexCount
}

// IndexCount returns the number of indices of the mesh.
func (m *Mesh) IndexCount() uint32 {
	return m.indexCount
}

// Release implements gfx.Releasable.
func (m *Mesh) Release() {
	m.vertices.Release()
	m.indices.Release()
}
