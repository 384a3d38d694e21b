// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model_test

import (
	"testing"
	"unsafe"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/koru3d/inflight/gfx"
	"github.com/koru3d/inflight/model"
)

func TestLayoutsMatchVertices(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		name   string
		layout gfx.VertexLayout
		size   uintptr
	}{
		{"quad", model.QuadLayout, unsafe.Sizeof(model.QuadVertex{})},
		{"line", model.LineLayout, unsafe.Sizeof(model.LineVertex{})},
		{"mesh", model.MeshLayout, unsafe.Sizeof(model.MeshVertex{})},
	}
	for _, test := range tests {
		c.Check(test.layout.Stride(), qt.Equals, uint32(test.size), qt.Commentf("layout %s", test.name))
		for _, a := range test.layout {
			c.Check(a.Size, qt.Equals, a.Type.Size(), qt.Commentf("%s.%s", test.name, a.Semantic))
		}
	}
	c.Assert(model.QuadLayout.Offsets()[2], qt.Equals, uint32(unsafe.Offsetof(model.QuadVertex{}.UV)))
	c.Assert(model.MeshLayout.Offsets()[2], qt.Equals, uint32(unsafe.Offsetof(model.MeshVertex{}.Color)))
}

func TestConstantSizes(t *testing.T) {
	c := qt.New(t)

	// the smallest push constant range a device has to support
	c.Assert(model.PushConstantSize <= 128, qt.IsTrue)
	c.Assert(model.PushConstantSize, qt.Equals, uint32(112))
	c.Assert(model.UniformSize, qt.Equals, uint64(128))
}

func TestBytes(t *testing.T) {
	c := qt.New(t)

	vertices := []model.LineVertex{
		{Pos: glm.Vec3{1, 2, 3}},
		{Pos: glm.Vec3{4, 5, 6}},
	}
	b := model.Bytes(vertices)
	c.Assert(b, qt.HasLen, 2*28)
	c.Assert(model.Bytes([]model.LineVertex{}), qt.IsNil)

	vertices[1].Color = glm.Vec4{1, 1, 1, 1}
	c.Assert(b[28+12:28+16], qt.DeepEquals, []byte{0, 0, 0x80, 0x3f})

	pc := model.NewPushConstant(glm.Ident4(), glm.Vec4{1, 0, 0, 1},
		model.Light{Direction: glm.Vec3{0, 0, -2}, Ambient: 0.1},
		model.Material{Diffuse: 0.8, Specular: 0.2, Shininess: 16})
	c.Assert(model.ValueBytes(&pc), qt.HasLen, 112)
	c.Assert(pc.Light, qt.Equals, glm.Vec4{0, 0, -1, 0.1})
}

func TestCube(t *testing.T) {
	c := qt.New(t)

	vertices, indices := model.Cube(2, glm.Vec4{1, 1, 1, 1})
	c.Assert(vertices, qt.HasLen, 24)
	c.Assert(indices, qt.HasLen, 36)
	for _, v := range vertices {
		c.Check(v.Pos.Dot(v.Normal), qt.Equals, float32(1))
	}
	for _, i := range indices {
		c.Check(int(i) < len(vertices), qt.IsTrue)
	}
}
