// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the device-level rendering primitives that a backend
// must implement. The frame driver and the batch renderer are written
// against these interfaces only, the Vulkan implementation lives in vkr.
package gfx

import (
	"errors"
	"math"
)

// package errors
var (
	// ErrOutOfDeviceMemory is returned when a device or host allocation
	// cannot be satisfied. It is not retried below the caller.
	ErrOutOfDeviceMemory = errors.New("gfx: out of device memory")

	// ErrSurfaceStale means the surface no longer matches the swapchain,
	// either out of date or suboptimal. The swapchain must be recreated.
	ErrSurfaceStale = errors.New("gfx: surface out of date or suboptimal")

	// ErrNoMemoryType means no memory type satisfies the requested properties.
	ErrNoMemoryType = errors.New("gfx: suitable memory type not found")

	// ErrUnsupported is returned for features the device does not provide.
	ErrUnsupported = errors.New("gfx: unsupported by device")
)

// WaitForever is the timeout used for fence waits and image acquisition.
// A hung GPU is not detected.
const WaitForever = math.MaxUint64

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// ReleaseFunc adapts a plain function to Releasable.
type ReleaseFunc func()

// Release implements interface
func (f ReleaseFunc) Release() { f() }

// Extent2D is a width and height in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Zero reports whether any dimension is zero, as happens for minimized windows.
func (e Extent2D) Zero() bool {
	return e.Width == 0 || e.Height == 0
}

// Extent3D is a width, height and depth in texels.
type Extent3D struct {
	Width  uint32
	Height uint32
	Depth  uint32
}

// ClearValues holds the colour and depth a render pass clears to.
type ClearValues struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}
