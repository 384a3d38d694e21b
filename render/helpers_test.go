// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render_test

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx"
	"github.com/koru3d/inflight/gfx/gfxtest"
	"github.com/koru3d/inflight/render"
)

type fixture struct {
	dev       *gfxtest.Device
	presenter *gfxtest.Presenter
	ctx       *core.Context
	renderer  *core.Renderer
	r3d       *render.Renderer3D
	shaders   []gfx.ShaderModule
}

func newFixture(c *qt.C, batch core.BatchConfiguration) *fixture {
	log, _ := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	dev := gfxtest.NewDevice()
	f := &fixture{
		dev:       dev,
		presenter: gfxtest.NewPresenter(dev, 800, 600),
		ctx:       core.NewContext(dev, log),
	}

	cfg := core.DefaultConfiguration().Renderer
	cfg.ScreenWidth, cfg.ScreenHeight = 800, 600
	var err error
	f.renderer, err = core.NewRenderer(f.ctx, f.presenter, cfg)
	c.Assert(err, qt.IsNil)

	f.r3d, err = render.NewRenderer3D(f.ctx, f.renderer, render.ShaderSet{
		Quad: f.newShaders(c),
		Line: f.newShaders(c),
		Mesh: f.newShaders(c),
	}, batch)
	c.Assert(err, qt.IsNil)
	f.renderer.Register(f.r3d)
	return f
}

func batchConfig(maxVertices, maxMeshDraws int) core.BatchConfiguration {
	return core.BatchConfiguration{
		MaxVertices:  maxVertices,
		MaxMeshDraws: maxMeshDraws,
		RetainPages:  2,
	}
}

func (f *fixture) newShaders(c *qt.C) render.Shaders {
	code := make([]byte, 16)
	vs, err := f.dev.NewShaderModule(gfx.StageVertex, code)
	c.Assert(err, qt.IsNil)
	fs, err := f.dev.NewShaderModule(gfx.StageFragment, code)
	c.Assert(err, qt.IsNil)
	f.shaders = append(f.shaders, vs, fs)
	return render.Shaders{Vertex: vs, Fragment: fs}
}

// frame runs one frame with a scene filled by fn and returns the command
// buffer it was recorded into.
func (f *fixture) frame(c *qt.C, fn func()) *gfxtest.CommandBuffer {
	ok, err := f.renderer.BeginFrame()
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	f.r3d.BeginScene(render.DefaultCamera())
	fn()
	cb := f.renderer.CommandBuffer()
	c.Assert(f.r3d.EndScene(cb, f.renderer.Target()), qt.IsNil)
	c.Assert(f.renderer.EndFrame(), qt.IsNil)
	return cb.(*gfxtest.CommandBuffer)
}

// destroy tears the renderer down and releases the shaders.
func (f *fixture) destroy() {
	f.renderer.Destroy()
	for _, s := range f.shaders {
		s.Release()
	}
}

func count(cb *gfxtest.CommandBuffer, name string) int {
	var n int
	for _, cmd := range cb.Commands {
		if cmd.Name == name {
			n++
		}
	}
	return n
}

// panicMessage runs f and returns the message it panicked with.
func panicMessage(f func()) (msg string) {
	defer func() {
		switch v := recover().(type) {
		case nil:
		case *logrus.Entry:
			msg = v.Message
		case string:
			msg = v
		case error:
			msg = v.Error()
		default:
			msg = fmt.Sprint(v)
		}
	}()
	f()
	return ""
}
