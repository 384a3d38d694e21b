// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/gfx"
)

var (
	// ErrNeedsResize is returned by acquire and present when the surface
	// went stale. The swapchain has to be resized before the next frame.
	ErrNeedsResize = errors.New("swapchain needs resize")

	// ErrZeroExtent is returned when the surface has no area, usually
	// because the window is minimized.
	ErrZeroExtent = errors.New("swapchain extent is zero")
)

// PreferredSurfaceFormat is used whenever the surface supports it.
var PreferredSurfaceFormat = gfx.SurfaceFormat{
	Format:     gfx.FormatB8G8R8A8Srgb,
	ColorSpace: gfx.ColorSpaceSrgbNonlinear,
}

// SwapchainConfiguration configures swapchain construction.
type SwapchainConfiguration struct {
	// ImageCount is the requested number of images, clamped to what the
	// surface supports. Zero requests one above the surface minimum.
	ImageCount uint32

	// VSync forces the blocking FIFO present mode.
	VSync bool

	// DepthFormat of the depth attachment, D16 when undefined.
	DepthFormat gfx.Format
}

type syncPair struct {
	imageAvailable gfx.Semaphore
	renderFinished gfx.Semaphore
}

type presentable struct {
	image       gfx.Image
	view        gfx.ImageView
	framebuffer gfx.Framebuffer
}

// NewSwapchain creates a swapchain for presenter sized width by height. The
// number of frame slots is fixed to the image count chosen here.
func NewSwapchain(ctx *Context, presenter gfx.Presenter, width, height uint32, cfg SwapchainConfiguration) (*Swapchain, error) {
	if cfg.DepthFormat == gfx.FormatUndefined {
		cfg.DepthFormat = gfx.FormatD16Unorm
	}
	s := &Swapchain{
		ctx:       ctx,
		presenter: presenter,
		cfg:       cfg,
		log:       ctx.Logger("swapchain"),
	}
	if err := s.build(gfx.Extent2D{Width: width, Height: height}); err != nil {
		s.Destroy()
		return nil, err
	}

	s.sync = make([]syncPair, len(s.images))
	if err := s.createSemaphores(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// Swapchain owns the presentable images, their framebuffers, the depth
// attachment, the render pass and the per slot semaphores.
type Swapchain struct {
	ctx       *Context
	presenter gfx.Presenter
	cfg       SwapchainConfiguration
	log       *logrus.Entry

	swapchain   gfx.Swapchain
	format      gfx.SurfaceFormat
	presentMode gfx.PresentMode
	extent      gfx.Extent2D
	images      []presentable
	renderPass  gfx.RenderPass

	depth      gfx.Image
	depthAlloc *Allocation
	depthView  gfx.ImageView

	sync       []syncPair
	generation uint64
	minimized  bool
}

// ChooseSurfaceFormat picks the preferred sRGB format when the surface
// offers it, otherwise the first one. A surface without a preference
// reports a single undefined format.
func ChooseSurfaceFormat(formats []gfx.SurfaceFormat) (gfx.SurfaceFormat, error) {
	if len(formats) == 0 {
		return gfx.SurfaceFormat{}, fmt.Errorf("surface formats: %w", gfx.ErrUnsupported)
	}
	if len(formats) == 1 && formats[0].Format == gfx.FormatUndefined {
		return PreferredSurfaceFormat, nil
	}
	for _, f := range formats {
		if f == PreferredSurfaceFormat {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode picks mailbox when available and FIFO otherwise, or
// always FIFO with vsync.
func ChoosePresentMode(modes []gfx.PresentMode, vsync bool) gfx.PresentMode {
	if vsync {
		return gfx.PresentFifo
	}
	for _, m := range modes {
		if m == gfx.PresentMailbox {
			return m
		}
	}
	return gfx.PresentFifo
}

// ChooseExtent returns the surface extent, or the requested one clamped to
// the surface limits when the surface leaves the choice to the swapchain.
func ChooseExtent(caps gfx.SurfaceCapabilities, requested gfx.Extent2D) gfx.Extent2D {
	if caps.CurrentExtent.Width != gfx.UndefinedExtent {
		return caps.CurrentExtent
	}
	return gfx.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount clamps requested to the surface limits. Zero requests
// one image above the minimum.
func ChooseImageCount(caps gfx.SurfaceCapabilities, requested uint32) uint32 {
	if requested == 0 {
		requested = caps.MinImageCount + 1
	}
	if requested < caps.MinImageCount {
		requested = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && requested > caps.MaxImageCount {
		requested = caps.MaxImageCount
	}
	return requested
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

func (s *Swapchain) build(requested gfx.Extent2D) error {
	caps, err := s.presenter.Capabilities()
	if err != nil {
		return err
	}
	extent := ChooseExtent(caps, requested)
	if requested.Zero() || extent.Zero() {
		return ErrZeroExtent
	}

	formats, err := s.presenter.Formats()
	if err != nil {
		return err
	}
	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return err
	}
	modes, err := s.presenter.PresentModes()
	if err != nil {
		return err
	}
	mode := ChoosePresentMode(modes, s.cfg.VSync)

	sc, err := s.presenter.CreateSwapchain(gfx.SwapchainDescriptor{
		ImageCount:  ChooseImageCount(caps, s.cfg.ImageCount),
		Format:      format,
		Extent:      extent,
		PresentMode: mode,
	}, s.swapchain)
	if err != nil {
		return err
	}
	if s.swapchain != nil {
		s.swapchain.Release()
	}
	s.swapchain = sc
	s.format, s.presentMode, s.extent = format, mode, extent

	if err := s.createRenderPass(); err != nil {
		return err
	}
	if err := s.createDepth(); err != nil {
		return err
	}
	if err := s.createFramebuffers(); err != nil {
		return err
	}

	s.generation++
	s.minimized = false
	s.log.WithFields(logrus.Fields{
		"format":      format.Format,
		"presentMode": mode,
		"width":       extent.Width,
		"height":      extent.Height,
		"images":      len(s.images),
		"generation":  s.generation,
	}).Info("swapchain created")
	return nil
}

func (s *Swapchain) createRenderPass() error {
	rp, err := s.ctx.Device.NewRenderPass(gfx.RenderPassDescriptor{
		Attachments: []gfx.AttachmentDescriptor{
			{Format: s.format.Format, Present: true},
			{Format: s.cfg.DepthFormat, Depth: true},
		},
	})
	if err != nil {
		return err
	}
	s.renderPass = rp
	return nil
}

func (s *Swapchain) createDepth() error {
	img, alloc, err := s.ctx.Allocator.AllocateImage(gfx.ImageDescriptor{
		Format: s.cfg.DepthFormat,
		Extent: s.extent,
		Usage:  gfx.ImageDepthAttachment,
	}, DeviceLocal)
	if err != nil {
		return err
	}
	s.depth, s.depthAlloc = img, alloc

	view, err := s.ctx.Device.NewImageView(img, gfx.AspectDepth)
	if err != nil {
		return err
	}
	s.depthView = view
	return nil
}

func (s *Swapchain) createFramebuffers() error {
	for _, img := range s.swapchain.Images() {
		view, err := s.ctx.Device.NewImageView(img, gfx.AspectColor)
		if err != nil {
			return err
		}
		fb, err := s.ctx.Device.NewFramebuffer(s.renderPass, []gfx.ImageView{view, s.depthView}, s.extent)
		if err != nil {
			view.Release()
			return err
		}
		s.images = append(s.images, presentable{image: img, view: view, framebuffer: fb})
	}
	return nil
}

func (s *Swapchain) createSemaphores() error {
	for i := range s.sync {
		var err error
		if s.sync[i].imageAvailable, err = s.ctx.Device.NewSemaphore(); err != nil {
			return err
		}
		if s.sync[i].renderFinished, err = s.ctx.Device.NewSemaphore(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Swapchain) destroySemaphores() {
	for i := range s.sync {
		if s.sync[i].imageAvailable != nil {
			s.sync[i].imageAvailable.Release()
		}
		if s.sync[i].renderFinished != nil {
			s.sync[i].renderFinished.Release()
		}
		s.sync[i] = syncPair{}
	}
}

// destroyImages releases everything build creates except the swapchain,
// which is retired by the next one.
func (s *Swapchain) destroyImages() {
	for _, p := range s.images {
		p.framebuffer.Release()
		p.view.Release()
	}
	s.images = nil
	if s.depthView != nil {
		s.depthView.Release()
		s.depthView = nil
	}
	if s.depth != nil {
		s.ctx.Allocator.DestroyImage(s.depth, s.depthAlloc)
		s.depth, s.depthAlloc = nil, nil
	}
	if s.renderPass != nil {
		s.renderPass.Release()
		s.renderPass = nil
	}
}

// OnResize waits for the device to go idle and rebuilds every image
// dependent object at the new size. A zero extent leaves the swapchain
// untouched and marks it minimized until a later resize succeeds.
func (s *Swapchain) OnResize(width, height uint32) error {
	if err := s.ctx.Device.WaitIdle(); err != nil {
		return err
	}

	requested := gfx.Extent2D{Width: width, Height: height}
	if requested.Zero() {
		s.minimized = true
		s.log.Debug("surface minimized")
		return nil
	}
	caps, err := s.presenter.Capabilities()
	if err != nil {
		return err
	}
	if ChooseExtent(caps, requested).Zero() {
		s.minimized = true
		s.log.Debug("surface minimized")
		return nil
	}

	s.destroyImages()
	if err := s.build(requested); err != nil {
		return fmt.Errorf("swapchain resize to %dx%d: %w", width, height, err)
	}

	// an acquire that reported a stale surface may still have signalled
	s.destroySemaphores()
	return s.createSemaphores()
}

// AcquireNextImage acquires an image for slot, signalling the image
// available semaphore of the slot.
func (s *Swapchain) AcquireNextImage(slot int) (uint32, error) {
	if s.minimized {
		return 0, ErrNeedsResize
	}
	idx, err := s.swapchain.Acquire(gfx.WaitForever, s.sync[slot].imageAvailable)
	if errors.Is(err, gfx.ErrSurfaceStale) {
		return 0, ErrNeedsResize
	}
	if err != nil {
		return 0, err
	}
	return idx, nil
}

// Present queues image for display once the render finished semaphore of
// slot is signalled.
func (s *Swapchain) Present(slot int, image uint32) error {
	err := s.swapchain.Present(image, s.sync[slot].renderFinished)
	if errors.Is(err, gfx.ErrSurfaceStale) {
		return ErrNeedsResize
	}
	return err
}

// ImageAvailable returns the semaphore signalled by acquire for slot.
func (s *Swapchain) ImageAvailable(slot int) gfx.Semaphore {
	return s.sync[slot].imageAvailable
}

// RenderFinished returns the semaphore waited on by present for slot.
func (s *Swapchain) RenderFinished(slot int) gfx.Semaphore {
	return s.sync[slot].renderFinished
}

// ImageCount returns the number of images of the current swapchain.
func (s *Swapchain) ImageCount() int {
	return len(s.images)
}

// Slots returns the number of frame slots, fixed at construction.
func (s *Swapchain) Slots() int {
	return len(s.sync)
}

// Extent returns the size of the swapchain images.
func (s *Swapchain) Extent() gfx.Extent2D {
	return s.extent
}

// Format returns the surface format in use.
func (s *Swapchain) Format() gfx.SurfaceFormat {
	return s.format
}

// PresentMode returns the present mode in use.
func (s *Swapchain) PresentMode() gfx.PresentMode {
	return s.presentMode
}

// RenderPass returns the render pass drawing into the swapchain images.
func (s *Swapchain) RenderPass() gfx.RenderPass {
	return s.renderPass
}

// Framebuffer returns the framebuffer of image.
func (s *Swapchain) Framebuffer(image uint32) gfx.Framebuffer {
	return s.images[image].framebuffer
}

// Generation is incremented every time the render pass is rebuilt.
// Pipelines built against an older generation must be rebuilt.
func (s *Swapchain) Generation() uint64 {
	return s.generation
}

// Minimized reports whether the last resize had a zero extent.
func (s *Swapchain) Minimized() bool {
	return s.minimized
}

// Destroy releases everything. The device must be idle.
func (s *Swapchain) Destroy() {
	s.destroySemaphores()
	s.destroyImages()
	if s.swapchain != nil {
		s.swapchain.Release()
		s.swapchain = nil
	}
}
