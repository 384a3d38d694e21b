// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx/gfxtest"
)

type fixture struct {
	dev       *gfxtest.Device
	presenter *gfxtest.Presenter
	ctx       *core.Context
	logs      *test.Hook
}

func newFixture(c *qt.C) *fixture {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	dev := gfxtest.NewDevice()
	return &fixture{
		dev:       dev,
		presenter: gfxtest.NewPresenter(dev, 640, 480),
		ctx:       core.NewContext(dev, log),
		logs:      hook,
	}
}

func (f *fixture) renderer(c *qt.C, images uint32) *core.Renderer {
	cfg := core.DefaultConfiguration().Renderer
	cfg.ScreenWidth, cfg.ScreenHeight = 640, 480
	cfg.SwapchainSize = images
	r, err := core.NewRenderer(f.ctx, f.presenter, cfg)
	c.Assert(err, qt.IsNil)
	return r
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

func (f *fixture) warnings() int {
	var n int
	for _, e := range f.logs.AllEntries() {
		if e.Level == logrus.WarnLevel {
			n++
		}
	}
	return n
}
