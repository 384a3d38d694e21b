// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/gfx"
)

// DeviceConfiguration selects and configures the logical device.
type DeviceConfiguration struct {
	// PhysicalDevice is the index into Instance.AvailableDevices.
	PhysicalDevice int
	Extensions     []string

	// PipelineCache is the file the pipeline cache is seeded from and
	// saved to on release, empty keeps it in memory only.
	PipelineCache string
}

// Device is a Vulkan logical device with a single graphics queue that
// is also used for presentation.
type Device struct {
	log *logrus.Entry

	physicalDevice   vk.PhysicalDevice
	device           vk.Device
	queue            vk.Queue
	queueFamilyIndex uint32
	commandPool      vk.CommandPool

	info             PhysicalDeviceInfo
	memoryProperties vk.PhysicalDeviceMemoryProperties
	limits           gfx.Limits
	cache            *pipelineCache
}

// NewDevice creates the logical device on the configured physical device.
// When the instance has a surface, the queue must be able to present to it.
func NewDevice(inst *Instance, cfg DeviceConfiguration, log *logrus.Entry) (*Device, error) {
	if cfg.PhysicalDevice < 0 || cfg.PhysicalDevice >= len(inst.AvailableDevices()) {
		return nil, fmt.Errorf("physical device %d not available, %d found", cfg.PhysicalDevice, len(inst.AvailableDevices()))
	}
	d := &Device{
		log:            log,
		physicalDevice: inst.AvailableDevices()[cfg.PhysicalDevice],
	}
	d.info = physicalDeviceInfo(d.physicalDevice)
	if d.info.Invalid {
		return nil, fmt.Errorf("physical device %q did not report its capabilities", d.info.Name)
	}

	family, err := findQueueFamily(d.physicalDevice, inst.Surface())
	if err != nil {
		return nil, err
	}
	d.queueFamilyIndex = family

	extensions := safeStrings(cfg.Extensions)
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: d.queueFamilyIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1},
	}}
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if err := check("vk.CreateDevice", vk.CreateDevice(d.physicalDevice, &dci, nil, &d.device)); err != nil {
		return nil, err
	}
	vk.GetDeviceQueue(d.device, d.queueFamilyIndex, 0, &d.queue)

	vk.GetPhysicalDeviceMemoryProperties(d.physicalDevice, &d.memoryProperties)
	d.memoryProperties.Deref()

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(d.physicalDevice, &properties)
	properties.Deref()
	properties.Limits.Deref()
	d.limits = gfx.Limits{
		MaxPushConstantsSize: properties.Limits.MaxPushConstantsSize,
		MaxMemoryAllocations: properties.Limits.MaxMemoryAllocationCount,
	}

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.queueFamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := check("vk.CreateCommandPool", vk.CreateCommandPool(d.device, &cpci, nil, &d.commandPool)); err != nil {
		vk.DestroyDevice(d.device, nil)
		return nil, err
	}

	if d.cache, err = newPipelineCache(d, cfg.PipelineCache); err != nil {
		vk.DestroyCommandPool(d.device, d.commandPool, nil)
		vk.DestroyDevice(d.device, nil)
		return nil, err
	}

	d.log.WithFields(logrus.Fields{
		"device": d.info.Name,
		"queue":  d.queueFamilyIndex,
	}).Info("device created")
	return d, nil
}

// findQueueFamily returns the first family with graphics support that
// can also present to surface.
func findQueueFamily(dev vk.PhysicalDevice, surface vk.Surface) (uint32, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return 0, errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queuefamilies on GPU")
	}
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, &queueFamilyCount, queueFamilies)

	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if queueFamilies[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		if surface == vk.NullSurface {
			return i, nil
		}
		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(dev, i, surface, &supportsPresent)
		if supportsPresent.B() {
			return i, nil
		}
	}
	return 0, errors.New("vulkan error: could not find a queue family with graphics and present capabilities")
}

// Info describes the physical device the device was created on.
func (d *Device) Info() PhysicalDeviceInfo {
	return d.info
}

// Queue implements interface
func (d *Device) Queue() gfx.Queue {
	return &queue{device: d, queue: d.queue}
}

// Memory implements interface
func (d *Device) Memory() gfx.MemoryBackend {
	return &memoryBackend{device: d}
}

// Limits implements interface
func (d *Device) Limits() gfx.Limits {
	return d.limits
}

// WaitIdle implements interface
func (d *Device) WaitIdle() error {
	return check("vk.DeviceWaitIdle", vk.DeviceWaitIdle(d.device))
}

// NewPresenter binds the surface of inst to the device.
func (d *Device) NewPresenter(inst *Instance) (*Presenter, error) {
	surface := inst.Surface()
	if surface == vk.NullSurface {
		return nil, errors.New("instance has no surface")
	}
	return &Presenter{device: d, surface: surface}, nil
}

// Release saves the pipeline cache and destroys the device. Everything
// created on the device must have been released already.
func (d *Device) Release() {
	if err := d.cache.save(); err != nil {
		d.log.WithError(err).Warn("pipeline cache not saved")
	}
	d.cache.release()
	vk.DestroyCommandPool(d.device, d.commandPool, nil)
	vk.DestroyDevice(d.device, nil)
}
