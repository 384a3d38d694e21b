// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx"
	"github.com/koru3d/inflight/gfx/gfxtest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	c := qt.New(t)

	unorm := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Unorm}
	rgba := gfx.SurfaceFormat{Format: gfx.FormatR8G8B8A8Srgb}

	tests := []struct {
		about   string
		formats []gfx.SurfaceFormat
		want    gfx.SurfaceFormat
	}{{
		about:   "preferred is available",
		formats: []gfx.SurfaceFormat{unorm, core.PreferredSurfaceFormat},
		want:    core.PreferredSurfaceFormat,
	}, {
		about:   "first when preferred is missing",
		formats: []gfx.SurfaceFormat{rgba, unorm},
		want:    rgba,
	}, {
		about:   "no preference of the surface",
		formats: []gfx.SurfaceFormat{{Format: gfx.FormatUndefined}},
		want:    core.PreferredSurfaceFormat,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			got, err := core.ChooseSurfaceFormat(test.formats)
			c.Assert(err, qt.IsNil)
			c.Assert(got, qt.Equals, test.want)
		})
	}

	_, err := core.ChooseSurfaceFormat(nil)
	c.Assert(err, qt.ErrorIs, gfx.ErrUnsupported)
}

func TestChoosePresentMode(t *testing.T) {
	c := qt.New(t)

	c.Assert(core.ChoosePresentMode([]gfx.PresentMode{gfx.PresentFifo, gfx.PresentMailbox}, false), qt.Equals, gfx.PresentMailbox)
	c.Assert(core.ChoosePresentMode([]gfx.PresentMode{gfx.PresentImmediate, gfx.PresentFifo}, false), qt.Equals, gfx.PresentFifo)
	c.Assert(core.ChoosePresentMode([]gfx.PresentMode{gfx.PresentMailbox}, true), qt.Equals, gfx.PresentFifo)
}

func TestChooseExtentAndImageCount(t *testing.T) {
	c := qt.New(t)

	caps := gfx.SurfaceCapabilities{
		MinImageCount:  2,
		MaxImageCount:  3,
		CurrentExtent:  gfx.Extent2D{Width: 800, Height: 600},
		MinImageExtent: gfx.Extent2D{Width: 16, Height: 16},
		MaxImageExtent: gfx.Extent2D{Width: 1024, Height: 1024},
	}
	c.Assert(core.ChooseExtent(caps, gfx.Extent2D{Width: 10, Height: 10}), qt.Equals, caps.CurrentExtent)

	caps.CurrentExtent = gfx.Extent2D{Width: gfx.UndefinedExtent, Height: gfx.UndefinedExtent}
	c.Assert(core.ChooseExtent(caps, gfx.Extent2D{Width: 10, Height: 2000}), qt.Equals, gfx.Extent2D{Width: 16, Height: 1024})
	c.Assert(core.ChooseExtent(caps, gfx.Extent2D{Width: 300, Height: 200}), qt.Equals, gfx.Extent2D{Width: 300, Height: 200})

	c.Assert(core.ChooseImageCount(caps, 0), qt.Equals, uint32(3))
	c.Assert(core.ChooseImageCount(caps, 1), qt.Equals, uint32(2))
	c.Assert(core.ChooseImageCount(caps, 8), qt.Equals, uint32(3))
	caps.MaxImageCount = 0
	c.Assert(core.ChooseImageCount(caps, 8), qt.Equals, uint32(8))
}

func newSwapchain(c *qt.C, f *fixture, images uint32) *core.Swapchain {
	sc, err := core.NewSwapchain(f.ctx, f.presenter, 640, 480, core.SwapchainConfiguration{ImageCount: images})
	c.Assert(err, qt.IsNil)
	return sc
}

func TestSwapchainConstruct(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	sc := newSwapchain(c, f, 3)

	c.Assert(sc.ImageCount(), qt.Equals, 3)
	c.Assert(sc.Slots(), qt.Equals, 3)
	c.Assert(sc.Extent(), qt.Equals, gfx.Extent2D{Width: 640, Height: 480})
	c.Assert(sc.Format(), qt.Equals, core.PreferredSurfaceFormat)
	c.Assert(sc.PresentMode(), qt.Equals, gfx.PresentMailbox)
	c.Assert(sc.RenderPass().AttachmentCount(), qt.Equals, 2)
	c.Assert(sc.Generation(), qt.Equals, uint64(1))

	c.Assert(f.dev.Live(gfxtest.KindFramebuffer), qt.Equals, 3)
	c.Assert(f.dev.Live(gfxtest.KindImageView), qt.Equals, 4)
	c.Assert(f.dev.Live(gfxtest.KindImage), qt.Equals, 1)
	c.Assert(f.dev.Live(gfxtest.KindSemaphore), qt.Equals, 6)

	fb := sc.Framebuffer(2).(*gfxtest.Framebuffer)
	c.Assert(fb.Attachments, qt.HasLen, 2)
	c.Assert(fb.Attachments[1].(*gfxtest.ImageView).Aspect, qt.Equals, gfx.AspectDepth)

	depth := fb.Attachments[1].(*gfxtest.ImageView).Image
	c.Assert(depth.Format(), qt.Equals, gfx.FormatD16Unorm)
	c.Assert(f.ctx.Allocator.AllocatedBytes(), qt.Equals, uint64(640*480*4))

	sc.Destroy()
	for _, kind := range []string{
		gfxtest.KindFramebuffer, gfxtest.KindImageView, gfxtest.KindImage,
		gfxtest.KindMemory, gfxtest.KindRenderPass, gfxtest.KindSemaphore, gfxtest.KindSwapchain,
	} {
		c.Check(f.dev.Live(kind), qt.Equals, 0, qt.Commentf("kind %s", kind))
	}
}

func TestSwapchainZeroExtent(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	_, err := core.NewSwapchain(f.ctx, f.presenter, 0, 480, core.SwapchainConfiguration{})
	c.Assert(err, qt.ErrorIs, core.ErrZeroExtent)
	c.Assert(f.dev.Live(gfxtest.KindSwapchain), qt.Equals, 0)
}

func TestSwapchainBuildFailure(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	f.dev.MemoryLimit = 1024
	_, err := core.NewSwapchain(f.ctx, f.presenter, 640, 480, core.SwapchainConfiguration{})
	c.Assert(err, qt.ErrorIs, gfx.ErrOutOfDeviceMemory)
	c.Assert(f.presenter.Created, qt.Equals, 1)
	c.Assert(f.presenter.Current().Released(), qt.IsTrue)
	for _, kind := range []string{
		gfxtest.KindSwapchain, gfxtest.KindRenderPass, gfxtest.KindImage, gfxtest.KindMemory,
	} {
		c.Check(f.dev.Live(kind), qt.Equals, 0, qt.Commentf("kind %s", kind))
	}
}

func TestSwapchainResizeIdempotent(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	sc := newSwapchain(c, f, 3)

	f.presenter.Resize(1024, 768)
	c.Assert(sc.OnResize(1024, 768), qt.IsNil)
	firstCount, firstAttachments := sc.ImageCount(), sc.RenderPass().AttachmentCount()

	c.Assert(sc.OnResize(1024, 768), qt.IsNil)
	c.Assert(sc.ImageCount(), qt.Equals, firstCount)
	c.Assert(sc.RenderPass().AttachmentCount(), qt.Equals, firstAttachments)
	c.Assert(sc.Extent(), qt.Equals, gfx.Extent2D{Width: 1024, Height: 768})
	c.Assert(sc.Generation(), qt.Equals, uint64(3))
	c.Assert(f.dev.IdleWaits, qt.Equals, 2)

	// the old objects are gone, only one set is live
	c.Assert(f.dev.Live(gfxtest.KindSwapchain), qt.Equals, 1)
	c.Assert(f.dev.Live(gfxtest.KindFramebuffer), qt.Equals, 3)
	c.Assert(f.dev.Live(gfxtest.KindRenderPass), qt.Equals, 1)
	c.Assert(f.dev.Live(gfxtest.KindSemaphore), qt.Equals, 6)
	c.Assert(f.presenter.Descs[2].ImageCount, qt.Equals, f.presenter.Descs[1].ImageCount)
}

func TestSwapchainMinimized(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	sc := newSwapchain(c, f, 2)

	for i := 0; i < 3; i++ {
		c.Assert(sc.OnResize(0, 0), qt.IsNil)
		c.Assert(sc.Minimized(), qt.IsTrue)
	}
	c.Assert(f.presenter.Created, qt.Equals, 1)
	c.Assert(sc.Generation(), qt.Equals, uint64(1))
	_, err := sc.AcquireNextImage(0)
	c.Assert(err, qt.ErrorIs, core.ErrNeedsResize)

	c.Assert(sc.OnResize(640, 480), qt.IsNil)
	c.Assert(sc.Minimized(), qt.IsFalse)
	c.Assert(f.presenter.Created, qt.Equals, 2)
}

func TestSwapchainStaleSurface(t *testing.T) {
	c := qt.New(t)

	f := newFixture(c)
	sc := newSwapchain(c, f, 2)

	f.presenter.AcquireResults = []error{gfx.ErrSurfaceStale}
	_, err := sc.AcquireNextImage(0)
	c.Assert(err, qt.ErrorIs, core.ErrNeedsResize)

	idx, err := sc.AcquireNextImage(0)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, uint32(0))
	c.Assert(sc.ImageAvailable(0).(*gfxtest.Semaphore).Signaled(), qt.IsTrue)
}
