// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/core"
)

// Validation layer and extension enabled in debug mode
const (
	ValidationLayer    = "VK_LAYER_KHRONOS_validation"
	DebugReportExtName = "VK_EXT_debug_report"
)

// DefaultApplicationInfo application info describes a Vulkan application
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   safeString("Koru3D"),
	PEngineName:        safeString("Koru3D"),
}

// PhysicalDeviceInfo describes a physical device as reported by the driver.
type PhysicalDeviceInfo struct {
	ID            int      `json:"id"`
	VendorID      int      `json:"vendorId"`
	DriverVersion int      `json:"driverVersion"`
	Name          string   `json:"name"`
	Invalid       bool     `json:"invalid,omitempty"`
	Extensions    []string `json:"extensions"`
	Layers        []string `json:"layers"`
	Memory        uint64   `json:"memory"`

	PipelineCacheUUID [vk.UuidSize]byte `json:"-"`
}

// Instance describes a Vulkan API Instance
type Instance struct {
	configuration core.InstanceConfiguration

	availableDevices []vk.PhysicalDevice
	surface          vk.Surface
	instance         vk.Instance
}

// NewInstance creates a Vulkan instance. procAddr is the instance proc
// address loader of the windowing library, nil uses the system loader.
func NewInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg core.InstanceConfiguration) (*Instance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, ValidationLayer)
		cfg.Extensions = append(cfg.Extensions, DebugReportExtName)
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.New("vk.SetDefaultGetInstanceProcAddr(): " + err.Error())
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.New("vk.Init(): " + err.Error())
	}

	extensions := safeStrings(cfg.Extensions)
	layers := safeStrings(cfg.Layers)
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := check("vk.CreateInstance", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance); err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("vk.InitInstance(): " + err.Error())
	}

	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, errors.New("vkr.enumerateDevices(): " + err.Error())
	}

	return &Instance{
		configuration:    cfg,
		instance:         instance,
		availableDevices: physicalDevices,
	}, nil
}

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	if deviceCount == 0 {
		return nil, errors.New("no vulkan capable devices")
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, fmt.Errorf("vulkan physical device enumeration failed: %s", err)
	}
	return availableDevices, nil
}

// PhysicalDevicesInfo describes every device of the instance. Devices
// that fail to report their extensions or layers are marked invalid.
func (v *Instance) PhysicalDevicesInfo() []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(v.availableDevices))
	for i, dev := range v.availableDevices {
		pdi[i] = physicalDeviceInfo(dev)
	}
	return pdi
}

func physicalDeviceInfo(dev vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &numDeviceExtensions, nil)); err != nil {
		info.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(dev, "", &numDeviceExtensions, deviceExt)); err != nil {
		info.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(dev, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(dev, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(dev, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		info.Memory += uint64(memoryProperties.MemoryHeaps[iMem].Size)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(dev, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	info.PipelineCacheUUID = properties.PipelineCacheUUID
	return info
}

// SetSurface takes ownership of a surface created by the windowing library.
func (v *Instance) SetSurface(pSurface uintptr) {
	v.surface = vk.SurfaceFromPointer(pSurface)
}

// Surface returns the surface, vk.NullSurface if none was set.
func (v *Instance) Surface() vk.Surface {
	return v.surface
}

// Handle returns the internal vk.Instance, as windowing libraries need
// it to create surfaces.
func (v *Instance) Handle() vk.Instance {
	return v.instance
}

// Extensions returns the instance extensions that were enabled.
func (v *Instance) Extensions() []string {
	return v.configuration.Extensions
}

// AvailableDevices returns the physical devices of the instance.
func (v *Instance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// Release destroys the surface and the instance. Devices created from
// the instance must be released first.
func (v *Instance) Release() {
	if v.surface != vk.NullSurface {
		vk.DestroySurface(v.instance, v.surface, nil)
		v.surface = vk.NullSurface
	}
	v.availableDevices = nil
	vk.DestroyInstance(v.instance, nil)
}
