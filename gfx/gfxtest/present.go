// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest

import (
	"fmt"

	"github.com/koru3d/inflight/gfx"
)

// Presenter is a fake window surface. Results of Acquire and Present can be
// scripted to simulate out of date surfaces.
type Presenter struct {
	Caps           gfx.SurfaceCapabilities
	SurfaceFormats []gfx.SurfaceFormat
	Modes          []gfx.PresentMode

	// AcquireResults and PresentResults are consumed in order by the
	// current swapchain, a nil entry or an empty queue means success.
	AcquireResults []error
	PresentResults []error

	// Created counts swapchain creations.
	Created int

	// Descs holds the descriptors of all created swapchains.
	Descs []gfx.SwapchainDescriptor

	// Presented lists the presented image indices.
	Presented []uint32

	dev     *Device
	current *Swapchain
}

// NewPresenter creates a presenter for a width by height window with three
// images at most and FIFO plus mailbox support.
func NewPresenter(dev *Device, width, height uint32) *Presenter {
	return &Presenter{
		dev: dev,
		Caps: gfx.SurfaceCapabilities{
			MinImageCount:  2,
			MaxImageCount:  3,
			CurrentExtent:  gfx.Extent2D{Width: width, Height: height},
			MinImageExtent: gfx.Extent2D{Width: 1, Height: 1},
			MaxImageExtent: gfx.Extent2D{Width: 4096, Height: 4096},
		},
		SurfaceFormats: []gfx.SurfaceFormat{
			{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSrgbNonlinear},
			{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear},
		},
		Modes: []gfx.PresentMode{gfx.PresentFifo, gfx.PresentMailbox},
	}
}

// Resize changes the extent reported by the surface.
func (p *Presenter) Resize(width, height uint32) {
	p.Caps.CurrentExtent = gfx.Extent2D{Width: width, Height: height}
}

// Current returns the most recently created swapchain.
func (p *Presenter) Current() *Swapchain { return p.current }

// Capabilities implements interface
func (p *Presenter) Capabilities() (gfx.SurfaceCapabilities, error) { return p.Caps, nil }

// Formats implements interface
func (p *Presenter) Formats() ([]gfx.SurfaceFormat, error) { return p.SurfaceFormats, nil }

// PresentModes implements interface
func (p *Presenter) PresentModes() ([]gfx.PresentMode, error) { return p.Modes, nil }

// CreateSwapchain implements interface
func (p *Presenter) CreateSwapchain(desc gfx.SwapchainDescriptor, old gfx.Swapchain) (gfx.Swapchain, error) {
	if desc.Extent.Zero() {
		return nil, fmt.Errorf("gfxtest: zero extent swapchain")
	}
	if old != nil && old != gfx.Swapchain(p.current) {
		return nil, fmt.Errorf("gfxtest: retiring a swapchain that is not current")
	}
	p.dev.create(KindSwapchain)
	sc := &Swapchain{presenter: p, Desc: desc}
	for i := uint32(0); i < desc.ImageCount; i++ {
		sc.images = append(sc.images, &Image{
			ID:     p.dev.id(),
			Usage:  gfx.ImageColorAttachment,
			format: desc.Format.Format,
			extent: desc.Extent,
		})
	}
	p.Created++
	p.Descs = append(p.Descs, desc)
	p.current = sc
	return sc, nil
}

// Swapchain is a fake swapchain handing out images round robin.
type Swapchain struct {
	Desc gfx.SwapchainDescriptor

	presenter *Presenter
	images    []gfx.Image
	next      uint32
	released  bool
}

// Images implements interface
func (s *Swapchain) Images() []gfx.Image { return s.images }

// Released reports whether the swapchain was released.
func (s *Swapchain) Released() bool { return s.released }

// Acquire implements interface
func (s *Swapchain) Acquire(timeout uint64, signal gfx.Semaphore) (uint32, error) {
	p := s.presenter
	if len(p.AcquireResults) > 0 {
		err := p.AcquireResults[0]
		p.AcquireResults = p.AcquireResults[1:]
		if err != nil {
			return 0, err
		}
	}
	sem := signal.(*Semaphore)
	if sem.signaled {
		return 0, fmt.Errorf("gfxtest: acquire signals semaphore %d with a pending signal", sem.ID)
	}
	sem.signaled = true
	idx := s.next
	s.next = (s.next + 1) % uint32(len(s.images))
	return idx, nil
}

// Present implements interface
func (s *Swapchain) Present(image uint32, wait gfx.Semaphore) error {
	p := s.presenter
	sem := wait.(*Semaphore)
	if !sem.signaled {
		return fmt.Errorf("gfxtest: present waits on unsignalled semaphore %d", sem.ID)
	}
	sem.signaled = false
	p.Presented = append(p.Presented, image)
	if len(p.PresentResults) > 0 {
		err := p.PresentResults[0]
		p.PresentResults = p.PresentResults[1:]
		return err
	}
	return nil
}

// Release implements interface
func (s *Swapchain) Release() {
	if s.released {
		panic("gfxtest: swapchain released twice")
	}
	s.released = true
	s.presenter.dev.destroy(KindSwapchain)
}
