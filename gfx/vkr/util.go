// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"
	"unsafe"

	vk "github.com/devblok/vulkan"

	"github.com/koru3d/inflight/gfx"
)

// SliceUint32 reslices bytes into a uint32, that is used
// to submit vulkan shaders for processing
func SliceUint32(data []byte) []uint32 {
	if len(data) < 4 {
		return nil
	}
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}

func safeString(s string) string {
	return fmt.Sprintf("%s\x00", s)
}

func safeStrings(sgs []string) []string {
	safe := make([]string, 0, len(sgs))
	for _, s := range sgs {
		safe = append(safe, safeString(s))
	}
	return safe
}

var formats = map[gfx.Format]vk.Format{
	gfx.FormatUndefined:      vk.FormatUndefined,
	gfx.FormatB8G8R8A8Unorm:  vk.FormatB8g8r8a8Unorm,
	gfx.FormatB8G8R8A8Srgb:   vk.FormatB8g8r8a8Srgb,
	gfx.FormatR8G8B8A8Unorm:  vk.FormatR8g8b8a8Unorm,
	gfx.FormatR8G8B8A8Srgb:   vk.FormatR8g8b8a8Srgb,
	gfx.FormatD16Unorm:       vk.FormatD16Unorm,
	gfx.FormatD32Sfloat:      vk.FormatD32Sfloat,
	gfx.FormatD24UnormS8Uint: vk.FormatD24UnormS8Uint,
}

func vkFormat(f gfx.Format) vk.Format {
	if v, ok := formats[f]; ok {
		return v
	}
	return vk.FormatUndefined
}

// gfxFormat reports formats the renderer does not know as undefined.
func gfxFormat(v vk.Format) gfx.Format {
	for f, vf := range formats {
		if vf == v {
			return f
		}
	}
	return gfx.FormatUndefined
}

var presentModes = map[gfx.PresentMode]vk.PresentMode{
	gfx.PresentFifo:        vk.PresentModeFifo,
	gfx.PresentFifoRelaxed: vk.PresentModeFifoRelaxed,
	gfx.PresentMailbox:     vk.PresentModeMailbox,
	gfx.PresentImmediate:   vk.PresentModeImmediate,
}

func gfxPresentMode(v vk.PresentMode) (gfx.PresentMode, bool) {
	for m, vm := range presentModes {
		if vm == v {
			return m, true
		}
	}
	return 0, false
}

func vkAttributeFormat(t gfx.AttributeType) vk.Format {
	switch t {
	case gfx.Float32:
		return vk.FormatR32Sfloat
	case gfx.Float32x2:
		return vk.FormatR32g32Sfloat
	case gfx.Float32x3:
		return vk.FormatR32g32b32Sfloat
	case gfx.Float32x4:
		return vk.FormatR32g32b32a32Sfloat
	}
	return vk.FormatUndefined
}

func vkStages(s gfx.ShaderStage) vk.ShaderStageFlags {
	var flags vk.ShaderStageFlags
	if s&gfx.StageVertex != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageVertexBit)
	}
	if s&gfx.StageFragment != 0 {
		flags |= vk.ShaderStageFlags(vk.ShaderStageFragmentBit)
	}
	return flags
}

func vkExtent(e gfx.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func gfxExtent(e vk.Extent2D) gfx.Extent2D {
	e.Deref()
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}
