// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx device interfaces on top of Vulkan.
// Objects handed out by a Device are only valid with that device and
// are type asserted back to their vkr types when passed in.
package vkr

import (
	"errors"
	"fmt"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/gfx"
)

// check converts a Vulkan result into an error naming the call that
// produced it. Allocation failures wrap gfx.ErrOutOfDeviceMemory.
func check(call string, ret vk.Result) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfHostMemory:
		return fmt.Errorf("%s(): %w", call, gfx.ErrOutOfDeviceMemory)
	}
	if err := vk.Error(ret); err != nil {
		return errors.New(call + "(): " + err.Error())
	}
	return nil
}

// stale maps the results of acquire and present. Out of date and
// suboptimal surfaces both require the swapchain to be recreated.
func stale(call string, ret vk.Result) error {
	switch ret {
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return gfx.ErrSurfaceStale
	}
	return check(call, ret)
}
