// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/gfx"
)

// RenderTarget is what a frame renders into.
type RenderTarget struct {
	Pass        gfx.RenderPass
	Framebuffer gfx.Framebuffer
	Extent      gfx.Extent2D
	Clear       gfx.ClearValues

	// Generation of the render pass, see Swapchain.Generation.
	Generation uint64

	begun *bool
}

// Begin begins the render pass of the target on cb and covers the whole
// target with the viewport. A frame may begin its target once.
func (t RenderTarget) Begin(cb gfx.CommandBuffer) {
	if t.begun != nil {
		if *t.begun {
			panic("render target begun twice in one frame")
		}
		*t.begun = true
	}
	cb.BeginRenderPass(t.Pass, t.Framebuffer, t.Extent, t.Clear)
	cb.SetViewport(t.Extent)
}

// NewRenderer creates the swapchain, the command recorder and the release
// queues for a window of the configured size.
func NewRenderer(ctx *Context, presenter gfx.Presenter, cfg RendererConfiguration) (*Renderer, error) {
	swapchain, err := NewSwapchain(ctx, presenter, cfg.ScreenWidth, cfg.ScreenHeight, SwapchainConfiguration{
		ImageCount:  cfg.SwapchainSize,
		VSync:       cfg.VSync,
		DepthFormat: cfg.DepthFormat,
	})
	if err != nil {
		return nil, err
	}
	recorder, err := NewCommandRecorder(ctx, swapchain.Slots())
	if err != nil {
		swapchain.Destroy()
		return nil, err
	}

	return &Renderer{
		ctx:           ctx,
		log:           ctx.Logger("renderer"),
		swapchain:     swapchain,
		recorder:      recorder,
		releases:      NewReleaseQueue(swapchain.Slots()),
		width:         cfg.ScreenWidth,
		height:        cfg.ScreenHeight,
		clear:         gfx.ClearValues{Color: cfg.ClearColor, Depth: 1},
		lastSubmitted: -1,
	}, nil
}

// Renderer drives frames: it waits for the frame slot to come back from
// the GPU, releases what was deferred on it, acquires an image, and after
// recording submits and presents. Stale surfaces are handled by resizing.
type Renderer struct {
	ctx *Context
	log *logrus.Entry

	swapchain *Swapchain
	recorder  *CommandRecorder
	releases  *ReleaseQueue

	dependents []gfx.Releasable

	width, height uint32
	clear         gfx.ClearValues

	slot          int
	image         uint32
	inFrame       bool
	begun         bool
	lastSubmitted int
	frames        uint64
}

// BeginFrame starts a frame. It returns false when there is nothing to
// render into, because the window is minimized or the surface stayed
// stale after a resize; the frame must then be skipped without EndFrame.
func (r *Renderer) BeginFrame() (bool, error) {
	if r.inFrame {
		r.log.Panicf("BeginFrame called inside frame %d", r.frames)
	}
	if r.swapchain.Minimized() {
		return false, nil
	}

	slot := r.slot
	if err := r.recorder.Wait(slot); err != nil {
		return false, err
	}
	if n := r.releases.Drain(slot); n > 0 {
		r.log.WithFields(logrus.Fields{"slot": slot, "released": n}).Debug("deferred releases run")
	}

	image, err := r.swapchain.AcquireNextImage(slot)
	if errors.Is(err, ErrNeedsResize) {
		r.log.Warn("surface stale on acquire, resizing swapchain")
		if err := r.resize(); err != nil {
			return false, err
		}
		if r.swapchain.Minimized() {
			return false, nil
		}
		image, err = r.swapchain.AcquireNextImage(slot)
		if errors.Is(err, ErrNeedsResize) {
			r.log.Warn("surface still stale after resize, skipping frame")
			return false, nil
		}
	}
	if err != nil {
		return false, err
	}

	if _, err := r.recorder.Begin(slot); err != nil {
		return false, err
	}
	r.image = image
	r.inFrame = true
	r.begun = false
	return true, nil
}

// EndFrame submits the frame recorded since BeginFrame and presents it.
// A frame that never began its render target is cleared.
func (r *Renderer) EndFrame() error {
	if !r.inFrame {
		r.log.Panic("EndFrame called outside of a frame")
	}
	slot := r.slot
	if !r.begun {
		cb := r.recorder.Buffer(slot)
		r.Target().Begin(cb)
		cb.EndRenderPass()
	}
	r.inFrame = false

	if err := r.recorder.End(slot); err != nil {
		return err
	}
	if err := r.recorder.Submit(slot, r.swapchain.ImageAvailable(slot), r.swapchain.RenderFinished(slot)); err != nil {
		return err
	}
	r.lastSubmitted = slot
	r.slot = (slot + 1) % r.recorder.Slots()
	r.frames++

	err := r.swapchain.Present(slot, r.image)
	if errors.Is(err, ErrNeedsResize) {
		r.log.Warn("surface stale on present, resizing swapchain")
		return r.resize()
	}
	return err
}

func (r *Renderer) resize() error {
	if err := r.swapchain.OnResize(r.width, r.height); err != nil {
		return err
	}
	if err := r.recorder.WaitAll(); err != nil {
		return err
	}
	r.releases.DrainAll()
	return nil
}

// OnResize resizes the swapchain to width by height. Zero sizes mark the
// window as minimized and frames are skipped until the next resize.
func (r *Renderer) OnResize(width, height uint32) error {
	if r.inFrame {
		r.log.Panic("OnResize called inside a frame")
	}
	r.width, r.height = width, height
	return r.resize()
}

// CurrentFrame returns the slot of the frame being recorded, or of the
// next frame between frames. It indexes per frame resources.
func (r *Renderer) CurrentFrame() int {
	return r.slot
}

// FramesInFlight returns the number of frame slots.
func (r *Renderer) FramesInFlight() int {
	return r.recorder.Slots()
}

// Frames returns the number of submitted frames.
func (r *Renderer) Frames() uint64 {
	return r.frames
}

// InFrame reports whether a frame is being recorded.
func (r *Renderer) InFrame() bool {
	return r.inFrame
}

// CommandBuffer returns the command buffer of the frame being recorded.
func (r *Renderer) CommandBuffer() gfx.CommandBuffer {
	if !r.inFrame {
		r.log.Panic("CommandBuffer called outside of a frame")
	}
	return r.recorder.Buffer(r.slot)
}

// Target returns the render target of the acquired image.
func (r *Renderer) Target() RenderTarget {
	return RenderTarget{
		Pass:        r.swapchain.RenderPass(),
		Framebuffer: r.swapchain.Framebuffer(r.image),
		Extent:      r.swapchain.Extent(),
		Clear:       r.clear,
		Generation:  r.swapchain.Generation(),
		begun:       &r.begun,
	}
}

// Extent returns the size of the render targets.
func (r *Renderer) Extent() gfx.Extent2D {
	return r.swapchain.Extent()
}

// SetClearColor changes the colour frames are cleared to.
func (r *Renderer) SetClearColor(c [4]float32) {
	r.clear.Color = c
}

// Defer runs fn once the GPU no longer uses anything recorded so far.
// Inside a frame it waits for the current slot, between frames for the
// slot submitted last. Before the first submission fn runs immediately.
func (r *Renderer) Defer(fn func()) {
	switch {
	case r.inFrame:
		r.releases.Push(r.slot, fn)
	case r.lastSubmitted >= 0:
		r.releases.Push(r.lastSubmitted, fn)
	default:
		fn()
	}
}

// Register adds a dependent released by Destroy before the swapchain.
// Dependents are released in reverse order of registration.
func (r *Renderer) Register(dep gfx.Releasable) {
	r.dependents = append(r.dependents, dep)
}

// Swapchain returns the swapchain.
func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

// Recorder returns the command recorder.
func (r *Renderer) Recorder() *CommandRecorder {
	return r.recorder
}

// Releases returns the release queues.
func (r *Renderer) Releases() *ReleaseQueue {
	return r.releases
}

// Context returns the context the renderer was created with.
func (r *Renderer) Context() *Context {
	return r.ctx
}

// Destroy waits for every frame slot, runs all deferred releases and
// releases dependents, then the frame resources and the swapchain.
// The device is left to the caller.
func (r *Renderer) Destroy() {
	if r.inFrame {
		r.log.Panic("Destroy called inside a frame")
	}
	if err := r.recorder.WaitAll(); err != nil {
		r.log.WithError(err).Error("waiting for frames on destroy")
		if err := r.ctx.Device.WaitIdle(); err != nil {
			r.log.WithError(err).Error("waiting for device idle on destroy")
		}
	}
	r.releases.DrainAll()

	for i := len(r.dependents) - 1; i >= 0; i-- {
		r.dependents[i].Release()
	}
	r.dependents = nil
	r.releases.DrainAll()

	r.recorder.Release()
	r.swapchain.Destroy()
	r.log.WithField("frames", r.frames).Info("renderer destroyed")
}
