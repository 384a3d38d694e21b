// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"fmt"

	"github.com/gobuffalo/packd"

	"github.com/koru3d/inflight/gfx"
	"github.com/koru3d/inflight/render"
)

//go:generate glslangValidator -V ../../shaders/quad.vert -o ../../shaders/quad.vert.spv
//go:generate glslangValidator -V ../../shaders/quad.frag -o ../../shaders/quad.frag.spv
//go:generate glslangValidator -V ../../shaders/line.vert -o ../../shaders/line.vert.spv
//go:generate glslangValidator -V ../../shaders/line.frag -o ../../shaders/line.frag.spv
//go:generate glslangValidator -V ../../shaders/mesh.vert -o ../../shaders/mesh.vert.spv
//go:generate glslangValidator -V ../../shaders/mesh.frag -o ../../shaders/mesh.frag.spv

// shaderSource lists and reads compiled shader files, a packr box in
// the binary.
type shaderSource interface {
	packd.Lister
	packd.Finder
}

// shaderBundle holds the shader modules loaded from a source.
type shaderBundle struct {
	shaders map[string]render.Shaders
	modules []gfx.ShaderModule
}

// loadShaders creates a module for every compiled shader in src. Files
// not named name.stage.spv are skipped.
func loadShaders(dev gfx.Device, src shaderSource) (*shaderBundle, error) {
	b := &shaderBundle{shaders: make(map[string]render.Shaders)}
	for _, file := range src.List() {
		name, stage, ok := gfx.ParseShaderFile(file)
		if !ok {
			continue
		}
		code, err := src.Find(file)
		if err != nil {
			b.Release()
			return nil, err
		}
		module, err := dev.NewShaderModule(stage, code)
		if err != nil {
			b.Release()
			return nil, fmt.Errorf("shader %s: %w", file, err)
		}
		b.modules = append(b.modules, module)

		s := b.shaders[name]
		switch stage {
		case gfx.StageVertex:
			s.Vertex = module
		case gfx.StageFragment:
			s.Fragment = module
		}
		b.shaders[name] = s
	}
	return b, nil
}

// Get returns the vertex and fragment pair called name.
func (b *shaderBundle) Get(name string) (render.Shaders, error) {
	s, ok := b.shaders[name]
	if !ok || s.Vertex == nil || s.Fragment == nil {
		return render.Shaders{}, fmt.Errorf("shader %s: vertex and fragment stage required", name)
	}
	return s, nil
}

// ShaderSet returns the shaders of the batch renderer.
func (b *shaderBundle) ShaderSet() (render.ShaderSet, error) {
	var (
		set render.ShaderSet
		err error
	)
	if set.Quad, err = b.Get("quad"); err != nil {
		return set, err
	}
	if set.Line, err = b.Get("line"); err != nil {
		return set, err
	}
	if set.Mesh, err = b.Get("mesh"); err != nil {
		return set, err
	}
	return set, nil
}

// Release releases every module of the bundle.
func (b *shaderBundle) Release() {
	for _, m := range b.modules {
		m.Release()
	}
	b.modules = nil
	b.shaders = nil
}
