// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/koru3d/inflight/model"
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	Eye    glm.Vec3
	Target glm.Vec3
	Up     glm.Vec3

	// Fov is the vertical field of view in degrees
	Fov       float32
	Near, Far float32
}

// DefaultCamera looks at the origin from the positive octant, z up.
func DefaultCamera() Camera {
	return Camera{
		Eye:    glm.Vec3{2, 2, 2},
		Target: glm.Vec3{0, 0, 0},
		Up:     glm.Vec3{0, 0, 1},
		Fov:    45,
		Near:   0.1,
		Far:    100,
	}
}

// View returns the view matrix.
func (c Camera) View() glm.Mat4 {
	return glm.LookAtV(c.Eye, c.Target, c.Up)
}

// Projection returns the projection matrix for aspect, with the y axis
// pointing down as in Vulkan clip space.
func (c Camera) Projection(aspect float32) glm.Mat4 {
	p := glm.Perspective(glm.DegToRad(c.Fov), aspect, c.Near, c.Far)
	p[5] *= -1
	return p
}

// Uniform returns the camera uniform for aspect.
func (c Camera) Uniform(aspect float32) model.Uniform {
	return model.Uniform{
		View:       c.View(),
		Projection: c.Projection(aspect),
	}
}
