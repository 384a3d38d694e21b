// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// Format is a pixel format.
type Format int

// Formats known to the renderer
const (
	FormatUndefined Format = iota
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
	FormatR8G8B8A8Unorm
	FormatR8G8B8A8Srgb
	FormatD16Unorm
	FormatD32Sfloat
	FormatD24UnormS8Uint
)

var formatNames = map[Format]string{
	FormatUndefined:      "undefined",
	FormatB8G8R8A8Unorm:  "b8g8r8a8-unorm",
	FormatB8G8R8A8Srgb:   "b8g8r8a8-srgb",
	FormatR8G8B8A8Unorm:  "r8g8b8a8-unorm",
	FormatR8G8B8A8Srgb:   "r8g8b8a8-srgb",
	FormatD16Unorm:       "d16-unorm",
	FormatD32Sfloat:      "d32-sfloat",
	FormatD24UnormS8Uint: "d24-unorm-s8-uint",
}

func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return "unknown"
}

// ColorSpace is the colour space of presentable images.
type ColorSpace int

// Colour spaces
const (
	ColorSpaceSrgbNonlinear ColorSpace = iota
	ColorSpaceOther
)

// SurfaceFormat pairs a format with its colour space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode is the way a swapchain queues images for display.
type PresentMode int

// Present modes
const (
	// PresentFifo is the blocking vsync mode, always supported.
	PresentFifo PresentMode = iota
	PresentFifoRelaxed
	// PresentMailbox is low latency and does not block on acquire.
	PresentMailbox
	PresentImmediate
)

func (m PresentMode) String() string {
	switch m {
	case PresentFifo:
		return "fifo"
	case PresentFifoRelaxed:
		return "fifo-relaxed"
	case PresentMailbox:
		return "mailbox"
	case PresentImmediate:
		return "immediate"
	}
	return "unknown"
}

// UndefinedExtent marks a surface whose extent is chosen by the swapchain.
const UndefinedExtent = ^uint32(0)

// SurfaceCapabilities is what the surface reports for swapchain creation.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount is zero when there is no limit.
	MaxImageCount uint32
	// CurrentExtent is UndefinedExtent in both dimensions when the
	// swapchain decides the size.
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

// SwapchainDescriptor describes a swapchain to create.
type SwapchainDescriptor struct {
	ImageCount  uint32
	Format      SurfaceFormat
	Extent      Extent2D
	PresentMode PresentMode
}

// Swapchain is the platform set of presentable images.
type Swapchain interface {
	Releasable

	Images() []Image

	// Acquire blocks until an image is available and returns its index.
	// signal is signalled once the image can be written. ErrSurfaceStale
	// is returned for out of date and suboptimal surfaces.
	Acquire(timeout uint64, signal Semaphore) (uint32, error)

	// Present queues image for display once wait is signalled.
	// ErrSurfaceStale is returned for out of date and suboptimal surfaces.
	Present(image uint32, wait Semaphore) error
}

// Presenter is bound to a native window surface and creates swapchains for it.
type Presenter interface {
	Capabilities() (SurfaceCapabilities, error)
	Formats() ([]SurfaceFormat, error)
	PresentModes() ([]PresentMode, error)

	// CreateSwapchain creates a swapchain, retiring old if it is not nil.
	// The old swapchain still has to be released by the caller.
	CreateSwapchain(desc SwapchainDescriptor, old Swapchain) (Swapchain, error)
}

// AttachmentDescriptor describes a render pass attachment.
type AttachmentDescriptor struct {
	Format Format
	Depth  bool
	// Present transitions the attachment for presentation at the end of the pass.
	Present bool
}

// RenderPassDescriptor describes a single subpass render pass.
type RenderPassDescriptor struct {
	Attachments []AttachmentDescriptor
}

// RenderPass is a render pass object.
type RenderPass interface {
	Releasable
	AttachmentCount() int
}

// Framebuffer binds image views to a render pass.
type Framebuffer interface {
	Releasable
}
