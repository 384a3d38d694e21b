// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"
	"math"
	"os"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"golang.org/x/image/colornames"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/model"
	"github.com/koru3d/inflight/render"
)

const (
	gridHalfSize = 5
	ringQuads    = 64
)

func rgba(name string) glm.Vec4 {
	c := core.ColorValues(colornames.Map[name])
	return glm.Vec4{c[0], c[1], c[2], c[3]}
}

// demo is the scene drawn by the binary: a ground grid of lines, a ring
// of quads and a spinning lit mesh.
type demo struct {
	r3d    *render.Renderer3D
	mesh   *render.Mesh
	camera render.Camera
	angle  float32
}

// newDemo builds the scene around the Collada mesh at meshPath, or a unit
// cube when meshPath is empty.
func newDemo(r3d *render.Renderer3D, meshPath string) (*demo, error) {
	white := glm.Vec4{1, 1, 1, 1}
	vertices, indices := model.Cube(1, white)
	if meshPath != "" {
		data, err := os.ReadFile(meshPath)
		if err != nil {
			return nil, err
		}
		if vertices, indices, err = model.ImportCollada(data, white); err != nil {
			return nil, fmt.Errorf("%s: %w", meshPath, err)
		}
	}
	mesh, err := r3d.NewMesh(vertices, indices)
	if err != nil {
		return nil, err
	}
	r3d.SetLight(model.Light{Direction: glm.Vec3{-1, -0.5, -2}, Ambient: 0.2})
	r3d.SetMaterial(model.Material{Diffuse: 0.8, Specular: 0.4, Shininess: 32})

	camera := render.DefaultCamera()
	camera.Eye = glm.Vec3{6, 6, 4}
	return &demo{r3d: r3d, mesh: mesh, camera: camera}, nil
}

// Update advances the animation by dt.
func (d *demo) Update(dt time.Duration) {
	d.angle += float32(dt.Seconds())
}

// Draw submits the scene. It must be called between BeginFrame and EndFrame.
func (d *demo) Draw(renderer *core.Renderer) error {
	d.r3d.BeginScene(d.camera)

	grid := rgba("dimgray")
	for i := -gridHalfSize; i <= gridHalfSize; i++ {
		f := float32(i)
		if err := d.r3d.SubmitLine(glm.Vec3{f, -gridHalfSize, 0}, glm.Vec3{f, gridHalfSize, 0}, grid); err != nil {
			return err
		}
		if err := d.r3d.SubmitLine(glm.Vec3{-gridHalfSize, f, 0}, glm.Vec3{gridHalfSize, f, 0}, grid); err != nil {
			return err
		}
	}

	colors := []glm.Vec4{rgba("orange"), rgba("steelblue"), rgba("seagreen")}
	for i := 0; i < ringQuads; i++ {
		a := float64(d.angle)*0.5 + float64(i)*2*math.Pi/ringQuads
		pos := glm.Vec3{3 * float32(math.Cos(a)), 3 * float32(math.Sin(a)), 0.5}
		if err := d.r3d.SubmitQuad(pos, colors[i%len(colors)], glm.Vec2{0.2, 0.2}, float32(a)); err != nil {
			return err
		}
	}

	transform := glm.Translate3D(0, 0, 1).Mul4(glm.HomogRotate3DZ(d.angle)).Mul4(glm.HomogRotate3DX(d.angle * 0.3))
	if err := d.r3d.SubmitMesh(d.mesh, d.r3d.MeshPipeline(), transform, rgba("tomato")); err != nil {
		return err
	}

	return d.r3d.EndScene(renderer.CommandBuffer(), renderer.Target())
}

// Release releases the mesh of the scene.
func (d *demo) Release() {
	d.mesh.Release()
}
