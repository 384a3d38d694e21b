// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package model

import (
	glm "github.com/go-gl/mathgl/mgl32"
)

var cubeFaces = [6]struct {
	normal glm.Vec3
	u, v   glm.Vec3
}{
	{glm.Vec3{0, 0, 1}, glm.Vec3{1, 0, 0}, glm.Vec3{0, 1, 0}},
	{glm.Vec3{0, 0, -1}, glm.Vec3{-1, 0, 0}, glm.Vec3{0, 1, 0}},
	{glm.Vec3{1, 0, 0}, glm.Vec3{0, 0, -1}, glm.Vec3{0, 1, 0}},
	{glm.Vec3{-1, 0, 0}, glm.Vec3{0, 0, 1}, glm.Vec3{0, 1, 0}},
	{glm.Vec3{0, 1, 0}, glm.Vec3{1, 0, 0}, glm.Vec3{0, 0, -1}},
	{glm.Vec3{0, -1, 0}, glm.Vec3{1, 0, 0}, glm.Vec3{0, 0, 1}},
}

// Cube returns a cube of edge size centred on the origin, with separate
// vertices per face so that normals stay flat.
func Cube(size float32, color glm.Vec4) ([]MeshVertex, []uint16) {
	h := size / 2
	vertices := make([]MeshVertex, 0, 24)
	indices := make([]uint16, 0, 36)
	for _, f := range cubeFaces {
		base := uint16(len(vertices))
		center := f.normal.Mul(h)
		for _, corner := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			pos := center.Add(f.u.Mul(corner[0] * h)).Add(f.v.Mul(corner[1] * h))
			vertices = append(vertices, MeshVertex{Pos: pos, Normal: f.normal, Color: color})
		}
		indices = append(indices, base, base+1, base+2, base+2, base+3, base)
	}
	return vertices, indices
}
