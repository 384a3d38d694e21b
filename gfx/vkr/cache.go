// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"errors"
	"io/fs"
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/utility/pcache"
)

// pipelineCache is the driver pipeline cache, persisted to path.
type pipelineCache struct {
	device *Device
	handle vk.PipelineCache
	path   string
	header pcache.Header
}

func newPipelineCache(d *Device, path string) (*pipelineCache, error) {
	c := &pipelineCache{
		device: d,
		path:   path,
		header: pcache.Header{
			VendorID:      uint32(d.info.VendorID),
			DeviceID:      uint32(d.info.ID),
			DriverVersion: uint32(d.info.DriverVersion),
			CacheUUID:     d.info.PipelineCacheUUID,
		},
	}

	data := c.load()
	if len(data) > 0 {
		pcci := vk.PipelineCacheCreateInfo{
			SType:           vk.StructureTypePipelineCacheCreateInfo,
			InitialDataSize: uint(len(data)),
			PInitialData:    unsafe.Pointer(&data[0]),
		}
		err := check("vk.CreatePipelineCache", vk.CreatePipelineCache(d.device, &pcci, nil, &c.handle))
		if err == nil {
			return c, nil
		}
		d.log.WithError(err).Warn("pipeline cache rejected by driver")
	}

	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	if err := check("vk.CreatePipelineCache", vk.CreatePipelineCache(d.device, &pcci, nil, &c.handle)); err != nil {
		return nil, err
	}
	return c, nil
}

// load returns the persisted cache blob, nil when there is none usable.
func (c *pipelineCache) load() []byte {
	if c.path == "" {
		return nil
	}
	log := c.device.log.WithField("path", c.path)
	data, err := pcache.Load(c.path, c.header)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Debug("no pipeline cache yet")
	case err != nil:
		log.WithError(err).Warn("discarding pipeline cache")
	default:
		log.WithField("size", len(data)).Debug("pipeline cache loaded")
	}
	return data
}

func (c *pipelineCache) save() error {
	if c.path == "" {
		return nil
	}
	var size uint
	if err := check("vk.GetPipelineCacheData", vk.GetPipelineCacheData(c.device.device, c.handle, &size, nil)); err != nil {
		return err
	}
	if size == 0 {
		return nil
	}
	data := make([]byte, size)
	if err := check("vk.GetPipelineCacheData", vk.GetPipelineCacheData(c.device.device, c.handle, &size, unsafe.Pointer(&data[0]))); err != nil {
		return err
	}
	if err := pcache.Save(c.path, c.header, data[:size]); err != nil {
		return err
	}
	c.device.log.WithFields(logrus.Fields{
		"path": c.path,
		"size": size,
	}).Debug("pipeline cache saved")
	return nil
}

func (c *pipelineCache) release() {
	vk.DestroyPipelineCache(c.device.device, c.handle, nil)
}
