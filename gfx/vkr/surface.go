// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/gfx"
)

// Presenter creates swapchains for the surface of an instance.
type Presenter struct {
	device  *Device
	surface vk.Surface
}

func (p *Presenter) capabilities() (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := check("vk.GetPhysicalDeviceSurfaceCapabilities",
		vk.GetPhysicalDeviceSurfaceCapabilities(p.device.physicalDevice, p.surface, &caps)); err != nil {
		return caps, err
	}
	caps.Deref()
	return caps, nil
}

// Capabilities implements interface
func (p *Presenter) Capabilities() (gfx.SurfaceCapabilities, error) {
	caps, err := p.capabilities()
	if err != nil {
		return gfx.SurfaceCapabilities{}, err
	}
	return gfx.SurfaceCapabilities{
		MinImageCount:  caps.MinImageCount,
		MaxImageCount:  caps.MaxImageCount,
		CurrentExtent:  gfxExtent(caps.CurrentExtent),
		MinImageExtent: gfxExtent(caps.MinImageExtent),
		MaxImageExtent: gfxExtent(caps.MaxImageExtent),
	}, nil
}

// Formats implements interface. Formats unknown to the renderer are
// reported as undefined.
func (p *Presenter) Formats() ([]gfx.SurfaceFormat, error) {
	var surfaceFormatCount uint32
	if err := check("vk.GetPhysicalDeviceSurfaceFormats",
		vk.GetPhysicalDeviceSurfaceFormats(p.device.physicalDevice, p.surface, &surfaceFormatCount, nil)); err != nil {
		return nil, err
	}
	surfaceFormats := make([]vk.SurfaceFormat, surfaceFormatCount)
	if err := check("vk.GetPhysicalDeviceSurfaceFormats",
		vk.GetPhysicalDeviceSurfaceFormats(p.device.physicalDevice, p.surface, &surfaceFormatCount, surfaceFormats)); err != nil {
		return nil, err
	}

	formats := make([]gfx.SurfaceFormat, len(surfaceFormats))
	for idx := range surfaceFormats {
		surfaceFormats[idx].Deref()
		formats[idx].Format = gfxFormat(surfaceFormats[idx].Format)
		formats[idx].ColorSpace = gfx.ColorSpaceOther
		if surfaceFormats[idx].ColorSpace == vk.ColorSpaceSrgbNonlinear {
			formats[idx].ColorSpace = gfx.ColorSpaceSrgbNonlinear
		}
	}
	return formats, nil
}

// PresentModes implements interface
func (p *Presenter) PresentModes() ([]gfx.PresentMode, error) {
	var count uint32
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes",
		vk.GetPhysicalDeviceSurfacePresentModes(p.device.physicalDevice, p.surface, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes",
		vk.GetPhysicalDeviceSurfacePresentModes(p.device.physicalDevice, p.surface, &count, modes)); err != nil {
		return nil, err
	}

	var supported []gfx.PresentMode
	for _, m := range modes {
		if mode, ok := gfxPresentMode(m); ok {
			supported = append(supported, mode)
		}
	}
	return supported, nil
}

// CreateSwapchain implements interface
func (p *Presenter) CreateSwapchain(desc gfx.SwapchainDescriptor, old gfx.Swapchain) (gfx.Swapchain, error) {
	caps, err := p.capabilities()
	if err != nil {
		return nil, err
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	compositeAlphaFlags := []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	}
	for _, flag := range compositeAlphaFlags {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	colorSpace := vk.ColorSpaceSrgbNonlinear
	var oldSwapchain vk.Swapchain
	if old != nil {
		oldSwapchain = old.(*swapchain).handle
	}

	scci := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          p.surface,
		MinImageCount:    desc.ImageCount,
		ImageFormat:      vkFormat(desc.Format.Format),
		ImageColorSpace:  colorSpace,
		ImageExtent:      vkExtent(desc.Extent),
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      presentModes[desc.PresentMode],
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     oldSwapchain,
	}

	sc := &swapchain{device: p.device}
	if err := check("vk.CreateSwapchain", vk.CreateSwapchain(p.device.device, &scci, nil, &sc.handle)); err != nil {
		return nil, err
	}

	var numImages uint32
	if err := check("vk.GetSwapchainImages", vk.GetSwapchainImages(p.device.device, sc.handle, &numImages, nil)); err != nil {
		sc.Release()
		return nil, err
	}
	handles := make([]vk.Image, numImages)
	if err := check("vk.GetSwapchainImages", vk.GetSwapchainImages(p.device.device, sc.handle, &numImages, handles)); err != nil {
		sc.Release()
		return nil, err
	}
	for _, h := range handles {
		sc.images = append(sc.images, &image{
			handle: h,
			format: desc.Format.Format,
			extent: desc.Extent,
		})
	}
	return sc, nil
}

// swapchain images are owned by the swapchain and never destroyed on their own.
type swapchain struct {
	device *Device
	handle vk.Swapchain
	images []gfx.Image
}

// Images implements interface
func (s *swapchain) Images() []gfx.Image {
	return s.images
}

// Acquire implements interface
func (s *swapchain) Acquire(timeout uint64, signal gfx.Semaphore) (uint32, error) {
	var idx uint32
	ret := vk.AcquireNextImage(s.device.device, s.handle, uint(timeout), signal.(*semaphore).handle, vk.NullFence, &idx)
	if err := stale("vk.AcquireNextImage", ret); err != nil {
		return 0, err
	}
	return idx, nil
}

// Present implements interface
func (s *swapchain) Present(image uint32, wait gfx.Semaphore) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{wait.(*semaphore).handle},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.handle},
		PImageIndices:      []uint32{image},
	}
	return stale("vk.QueuePresent", vk.QueuePresent(s.device.queue, &presentInfo))
}

// Release implements interface
func (s *swapchain) Release() {
	vk.DestroySwapchain(s.device.device, s.handle, nil)
	s.images = nil
}
