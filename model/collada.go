// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	"encoding/xml"
	"errors"
	"fmt"
	"math"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/koru3d/inflight/utility/collada"
)

// ErrNoGeometry is returned when a Collada file holds no triangle mesh
var ErrNoGeometry = errors.New("collada: no triangle geometry")

// ImportCollada converts the first triangle mesh of a Collada (.dae) file
// into an indexed mesh of the given color. Corners sharing both position
// and normal are merged into one vertex. Without a NORMAL input every
// triangle owns its vertices and gets a flat face normal.
func ImportCollada(data []byte, color glm.Vec4) ([]MeshVertex, []uint16, error) {
	var doc collada.Collada
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}

	for _, g := range doc.Geometries {
		if len(g.Mesh.Triangles.Index) == 0 {
			continue
		}
		vertices, indices, err := importMesh(g.Mesh, color)
		if err != nil {
			return nil, nil, fmt.Errorf("geometry %s: %w", g.ID, err)
		}
		return vertices, indices, nil
	}
	return nil, nil, ErrNoGeometry
}

func importMesh(mesh collada.Mesh, color glm.Vec4) ([]MeshVertex, []uint16, error) {
	tris := mesh.Triangles
	vin, ok := tris.Input("VERTEX")
	if !ok {
		return nil, nil, errors.New("triangles without VERTEX input")
	}
	positions, err := mesh.FindSource(vin.Source)
	if err != nil {
		return nil, nil, err
	}
	nin, hasNormals := tris.Input("NORMAL")
	var normals collada.Source
	if hasNormals {
		if normals, err = mesh.FindSource(nin.Source); err != nil {
			return nil, nil, err
		}
	}

	stride := tris.Stride()
	if len(tris.Index)%(3*stride) != 0 {
		return nil, nil, fmt.Errorf("index count %d is not a multiple of %d", len(tris.Index), 3*stride)
	}

	type corner struct{ pos, normal int }
	seen := make(map[corner]uint16)
	var vertices []MeshVertex
	indices := make([]uint16, 0, len(tris.Index)/stride)
	for i := 0; i < len(tris.Index); i += stride {
		key := corner{pos: tris.Index[i+int(vin.Offset)], normal: -1}
		if hasNormals {
			key.normal = tris.Index[i+int(nin.Offset)]
		}
		if idx, ok := seen[key]; ok && hasNormals {
			indices = append(indices, idx)
			continue
		}
		if len(vertices) > math.MaxUint16 {
			return nil, nil, fmt.Errorf("more than %d vertices", math.MaxUint16+1)
		}

		pos, err := positions.Vec3(key.pos)
		if err != nil {
			return nil, nil, err
		}
		v := MeshVertex{Pos: glm.Vec3(pos), Color: color}
		if hasNormals {
			n, err := normals.Vec3(key.normal)
			if err != nil {
				return nil, nil, err
			}
			v.Normal = glm.Vec3(n).Normalize()
		}

		idx := uint16(len(vertices))
		seen[key] = idx
		vertices = append(vertices, v)
		indices = append(indices, idx)
	}

	if !hasNormals {
		flatNormals(vertices, indices)
	}
	return vertices, indices, nil
}

// flatNormals sets each vertex normal from the faces referencing it.
func flatNormals(vertices []MeshVertex, indices []uint16) {
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := &vertices[indices[i]], &vertices[indices[i+1]], &vertices[indices[i+2]]
		n := b.Pos.Sub(a.Pos).Cross(c.Pos.Sub(a.Pos))
		a.Normal = a.Normal.Add(n)
		b.Normal = b.Normal.Add(n)
		c.Normal = c.Normal.Add(n)
	}
	for i := range vertices {
		if vertices[i].Normal.Len() > 0 {
			vertices[i].Normal = vertices[i].Normal.Normalize()
		}
	}
}
