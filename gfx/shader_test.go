// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/gfx"
)

func TestParseShaderFile(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		file  string
		name  string
		stage gfx.ShaderStage
		ok    bool
	}{
		{"shaders/quad.vert.spv", "quad", gfx.StageVertex, true},
		{"quad.frag.spv", "quad", gfx.StageFragment, true},
		{"line.geom.spv", "", 0, false},
		{"quad.vert", "", 0, false},
		{"my.quad.vert.spv", "", 0, false},
		{".vert.spv", "", 0, false},
	}
	for _, test := range tests {
		name, stage, ok := gfx.ParseShaderFile(test.file)
		c.Check(ok, qt.Equals, test.ok, qt.Commentf("file %q", test.file))
		c.Check(name, qt.Equals, test.name, qt.Commentf("file %q", test.file))
		c.Check(stage, qt.Equals, test.stage, qt.Commentf("file %q", test.file))
	}
}

func TestVertexLayout(t *testing.T) {
	c := qt.New(t)

	layout := gfx.VertexLayout{
		{Semantic: "position", Type: gfx.Float32x3, Size: 12},
		{Semantic: "color", Type: gfx.Float32x4, Size: 16},
		{Semantic: "uv", Type: gfx.Float32x2, Size: 8},
	}
	c.Assert(layout.Stride(), qt.Equals, uint32(36))
	c.Assert(layout.Offsets(), qt.DeepEquals, []uint32{0, 12, 28})
}
