// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/gfx"
)

// Context carries the process wide rendering objects. It is created once
// by the application and passed by pointer to every component, so that
// ownership and teardown order stay explicit.
type Context struct {
	Device    gfx.Device
	Allocator *Allocator
	Log       *logrus.Logger
}

// NewContext creates a context for device. A nil logger uses the
// standard logrus logger.
func NewContext(device gfx.Device, log *logrus.Logger) *Context {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx := &Context{
		Device: device,
		Log:    log,
	}
	ctx.Allocator = NewAllocator(ctx)
	return ctx
}

// Logger returns a log entry tagged with the component name.
func (c *Context) Logger(component string) *logrus.Entry {
	return c.Log.WithField("component", component)
}
