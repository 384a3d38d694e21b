// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/koru3d/inflight/render"
)

func TestBatchBuffer(t *testing.T) {
	c := qt.New(t)
	b := render.NewBatchBuffer[int](4)

	c.Assert(b.Cap(), qt.Equals, 4)
	c.Assert(b.Fits(4), qt.IsTrue)
	b.Append(1, 2, 3)
	c.Assert(b.Len(), qt.Equals, 3)
	c.Assert(b.Fits(1), qt.IsTrue)
	c.Assert(b.Fits(2), qt.IsFalse)
	c.Assert(b.Vertices(), qt.DeepEquals, []int{1, 2, 3})

	c.Assert(func() { b.Append(4, 5) }, qt.PanicMatches, `batch buffer overflow: 3 \+ 2 > 4`)
	c.Assert(b.Len(), qt.Equals, 3)

	b.Reset()
	c.Assert(b.Len(), qt.Equals, 0)
	c.Assert(b.Vertices(), qt.HasLen, 0)
	b.Append(9)
	c.Assert(b.Vertices(), qt.DeepEquals, []int{9})
}

func TestMeshDrawList(t *testing.T) {
	c := qt.New(t)
	l := render.NewMeshDrawList(2)

	c.Assert(l.Cap(), qt.Equals, 2)
	c.Assert(l.Full(), qt.IsFalse)
	l.Append(render.MeshDraw{Transform: glm.Ident4()})
	l.Append(render.MeshDraw{Color: glm.Vec4{1, 0, 0, 1}})
	c.Assert(l.Full(), qt.IsTrue)
	c.Assert(l.Draws()[1].Color, qt.Equals, glm.Vec4{1, 0, 0, 1})
	c.Assert(func() { l.Append(render.MeshDraw{}) }, qt.PanicMatches, `mesh draw list overflow: capacity 2`)

	draws := l.Draws()
	l.Reset()
	c.Assert(l.Len(), qt.Equals, 0)
	c.Assert(draws[0], qt.Equals, render.MeshDraw{})
}

func TestCamera(t *testing.T) {
	c := qt.New(t)
	cam := render.DefaultCamera()

	view := cam.View()
	eye := view.Mul4x1(cam.Eye.Vec4(1)).Vec3()
	c.Assert(eye.ApproxEqualThreshold(glm.Vec3{}, 1e-5), qt.IsTrue, qt.Commentf("eye in view space %v", eye))

	target := view.Mul4x1(cam.Target.Vec4(1)).Vec3()
	c.Assert(target.X(), qt.Satisfies, func(v float32) bool { return glm.Abs(v) < 1e-5 })
	c.Assert(target.Z() < 0, qt.IsTrue, qt.Commentf("target in view space %v", target))

	proj := cam.Projection(2)
	plain := glm.Perspective(glm.DegToRad(cam.Fov), 2, cam.Near, cam.Far)
	c.Assert(proj[5], qt.Equals, -plain[5])
	c.Assert(proj[0], qt.Equals, plain[0])

	u := cam.Uniform(2)
	c.Assert(u.View, qt.Equals, view)
	c.Assert(u.Projection, qt.Equals, proj)
}
