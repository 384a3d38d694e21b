// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/koru3d/inflight/model"
)

// a unit quad split in two triangles facing +Z
const quadDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <library_geometries>
    <geometry id="Plane-mesh" name="Plane">
      <mesh>
        <source id="Plane-mesh-positions">
          <float_array id="Plane-mesh-positions-array" count="12">-1 -1 0 1 -1 0 -1 1 0 1 1 0</float_array>
        </source>
        <source id="Plane-mesh-normals">
          <float_array id="Plane-mesh-normals-array" count="3">0 0 2</float_array>
        </source>
        <vertices id="Plane-mesh-vertices">
          <input semantic="POSITION" source="#Plane-mesh-positions"/>
        </vertices>
        <triangles material="Material-material" count="2">
          <input semantic="VERTEX" source="#Plane-mesh-vertices" offset="0"/>
          <input semantic="NORMAL" source="#Plane-mesh-normals" offset="1"/>
          <p>1 0 3 0 2 0 0 0 1 0 2 0</p>
        </triangles>
      </mesh>
    </geometry>
  </library_geometries>
</COLLADA>`

func TestImportCollada(t *testing.T) {
	c := qt.New(t)
	red := glm.Vec4{1, 0, 0, 1}
	vertices, indices, err := model.ImportCollada([]byte(quadDAE), red)
	c.Assert(err, qt.IsNil)
	c.Assert(vertices, qt.HasLen, 4)
	c.Assert(indices, qt.DeepEquals, []uint16{0, 1, 2, 3, 0, 2})
	c.Assert(vertices[0], qt.Equals, model.MeshVertex{
		Pos:    glm.Vec3{1, -1, 0},
		Normal: glm.Vec3{0, 0, 1},
		Color:  red,
	})
}

func TestImportColladaFlatNormals(t *testing.T) {
	c := qt.New(t)
	const dae = `<COLLADA><library_geometries><geometry id="t"><mesh>
		<source id="p"><float_array id="pa">0 0 0 1 0 0 0 1 0</float_array></source>
		<vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
		<triangles count="1"><input semantic="VERTEX" source="#v" offset="0"/><p>0 1 2</p></triangles>
	</mesh></geometry></library_geometries></COLLADA>`

	vertices, indices, err := model.ImportCollada([]byte(dae), glm.Vec4{1, 1, 1, 1})
	c.Assert(err, qt.IsNil)
	c.Assert(indices, qt.DeepEquals, []uint16{0, 1, 2})
	for _, v := range vertices {
		c.Assert(v.Normal, qt.Equals, glm.Vec3{0, 0, 1})
	}
}

func TestImportColladaFlatNormalsSharedEdge(t *testing.T) {
	c := qt.New(t)
	const dae = `<COLLADA><library_geometries><geometry id="t"><mesh>
		<source id="p"><float_array id="pa">0 0 0 1 0 0 0 1 0 0 0 1</float_array></source>
		<vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
		<triangles count="2"><input semantic="VERTEX" source="#v" offset="0"/><p>0 1 2 0 3 1</p></triangles>
	</mesh></geometry></library_geometries></COLLADA>`

	vertices, indices, err := model.ImportCollada([]byte(dae), glm.Vec4{1, 1, 1, 1})
	c.Assert(err, qt.IsNil)
	c.Assert(indices, qt.DeepEquals, []uint16{0, 1, 2, 3, 4, 5})
	c.Assert(vertices, qt.HasLen, 6)
	for i, v := range vertices {
		want := glm.Vec3{0, 0, 1}
		if i >= 3 {
			want = glm.Vec3{0, 1, 0}
		}
		c.Assert(v.Normal, qt.Equals, want, qt.Commentf("vertex %d", i))
	}
	c.Assert(vertices[0].Pos, qt.Equals, vertices[3].Pos)
	c.Assert(vertices[1].Pos, qt.Equals, vertices[5].Pos)
}

func TestImportColladaErrors(t *testing.T) {
	tests := []struct {
		about string
		dae   string
		err   string
	}{{
		about: "not xml",
		dae:   "{}",
		err:   "EOF",
	}, {
		about: "no geometry",
		dae:   `<COLLADA><library_geometries/></COLLADA>`,
		err:   model.ErrNoGeometry.Error(),
	}, {
		about: "dangling source",
		dae: `<COLLADA><library_geometries><geometry id="g"><mesh>
			<triangles count="1"><input semantic="VERTEX" source="#nope" offset="0"/><p>0 1 2</p></triangles>
		</mesh></geometry></library_geometries></COLLADA>`,
		err: "geometry g: source nope not found",
	}, {
		about: "index out of range",
		dae: `<COLLADA><library_geometries><geometry id="g"><mesh>
			<source id="p"><float_array>0 0 0</float_array></source>
			<triangles count="1"><input semantic="VERTEX" source="#p" offset="0"/><p>0 0 1</p></triangles>
		</mesh></geometry></library_geometries></COLLADA>`,
		err: "geometry g: source p: index 1 out of range",
	}, {
		about: "partial triangle",
		dae: `<COLLADA><library_geometries><geometry id="g"><mesh>
			<source id="p"><float_array>0 0 0</float_array></source>
			<triangles count="1"><input semantic="VERTEX" source="#p" offset="0"/><p>0 0</p></triangles>
		</mesh></geometry></library_geometries></COLLADA>`,
		err: "geometry g: index count 2 is not a multiple of 3",
	}}

	c := qt.New(t)
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			_, _, err := model.ImportCollada([]byte(test.dae), glm.Vec4{})
			c.Assert(err, qt.ErrorMatches, test.err)
		})
	}
}
