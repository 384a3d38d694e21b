// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx"
)

// Shaders is a vertex and fragment shader pair.
type Shaders struct {
	Vertex   gfx.ShaderModule
	Fragment gfx.ShaderModule
}

func (s Shaders) modules() []gfx.ShaderModule {
	return []gfx.ShaderModule{s.Vertex, s.Fragment}
}

// ShaderSet holds the shaders of the built in batch kinds.
type ShaderSet struct {
	Quad Shaders
	Line Shaders
	Mesh Shaders
}

// Pipeline is a graphics pipeline that follows the render pass it draws
// into. When the render pass is rebuilt the pipeline is rebuilt too, and
// the superseded one is released once no frame uses it.
type Pipeline struct {
	name     string
	device   gfx.Device
	frames   FrameSource
	desc     gfx.PipelineDescriptor
	log      *logrus.Entry
	pipeline gfx.Pipeline

	generation uint64
	builds     int
}

func newPipeline(ctx *core.Context, frames FrameSource, name string, desc gfx.PipelineDescriptor) *Pipeline {
	return &Pipeline{
		name:   name,
		device: ctx.Device,
		frames: frames,
		desc:   desc,
		log:    ctx.Logger("pipeline").WithField("pipeline", name),
	}
}

// Name returns the name the pipeline was created with.
func (p *Pipeline) Name() string {
	return p.name
}

// Builds returns how many times the pipeline was built.
func (p *Pipeline) Builds() int {
	return p.builds
}

// Get returns the pipeline for target, building it when the target render
// pass generation differs from the one it was built for.
func (p *Pipeline) Get(target core.RenderTarget) (gfx.Pipeline, error) {
	if p.pipeline != nil && p.generation == target.Generation {
		return p.pipeline, nil
	}

	desc := p.desc
	desc.RenderPass = target.Pass
	pipeline, err := p.device.NewPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.name, err)
	}
	if old := p.pipeline; old != nil {
		p.frames.Defer(old.Release)
	}
	p.pipeline = pipeline
	p.generation = target.Generation
	p.builds++
	p.log.WithField("generation", target.Generation).Debug("pipeline built")
	return pipeline, nil
}

// Release implements gfx.Releasable. The pipeline is released once the
// frames that may use it are complete.
func (p *Pipeline) Release() {
	if p.pipeline == nil {
		return
	}
	p.frames.Defer(p.pipeline.Release)
	p.pipeline = nil
}
