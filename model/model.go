// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package model holds the vertex and constant layouts shared by the CPU
// side of the renderer and the shaders, and the mesh sources feeding them.
package model

import (
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/koru3d/inflight/gfx"
)

// QuadVertex is a vertex of a batched quad
type QuadVertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
	UV    glm.Vec2
}

// LineVertex is a vertex of a batched line segment
type LineVertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// MeshVertex is a vertex of a mesh uploaded once and drawn per instance
type MeshVertex struct {
	Pos    glm.Vec3
	Normal glm.Vec3
	Color  glm.Vec4
}

// Uniform defines the view-projection object of a frame
type Uniform struct {
	View       glm.Mat4
	Projection glm.Mat4
}

// Light is a directional light with an ambient term
type Light struct {
	Direction glm.Vec3
	Ambient   float32
}

// Material describes how a mesh instance reacts to light
type Material struct {
	Diffuse   float32
	Specular  float32
	Shininess float32
}

// PushConstant is the per draw inline constant block of mesh draws
type PushConstant struct {
	Model glm.Mat4
	Color glm.Vec4

	// Light is the light direction in xyz and the ambient term in w
	Light glm.Vec4

	// Material is diffuse, specular and shininess in xyz
	Material glm.Vec4
}

// NewPushConstant packs an instance transform, colour, light and material.
func NewPushConstant(transform glm.Mat4, color glm.Vec4, light Light, material Material) PushConstant {
	return PushConstant{
		Model:    transform,
		Color:    color,
		Light:    light.Direction.Normalize().Vec4(light.Ambient),
		Material: glm.Vec4{material.Diffuse, material.Specular, material.Shininess, 0},
	}
}

// PushConstantSize is the byte size of PushConstant
const PushConstantSize = uint32(unsafe.Sizeof(PushConstant{}))

// UniformSize is the byte size of Uniform
const UniformSize = uint64(unsafe.Sizeof(Uniform{}))

// Layouts of the vertex types
var (
	QuadLayout = gfx.VertexLayout{
		{Semantic: "position", Type: gfx.Float32x3, Size: 12},
		{Semantic: "color", Type: gfx.Float32x4, Size: 16},
		{Semantic: "uv", Type: gfx.Float32x2, Size: 8},
	}

	LineLayout = gfx.VertexLayout{
		{Semantic: "position", Type: gfx.Float32x3, Size: 12},
		{Semantic: "color", Type: gfx.Float32x4, Size: 16},
	}

	MeshLayout = gfx.VertexLayout{
		{Semantic: "position", Type: gfx.Float32x3, Size: 12},
		{Semantic: "normal", Type: gfx.Float32x3, Size: 12},
		{Semantic: "color", Type: gfx.Float32x4, Size: 16},
	}
)

// Bytes reinterprets a slice of plain values as its raw bytes, the
// returned slice aliases s.
func Bytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}

// ValueBytes returns the raw bytes of the value v points to.
func ValueBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}
