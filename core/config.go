// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"golang.org/x/image/colornames"

	"github.com/koru3d/inflight/gfx"
)

// Environment keys read by LoadConfiguration
const (
	EnvWidth         = "KORU_WIDTH"
	EnvHeight        = "KORU_HEIGHT"
	EnvImageCount    = "KORU_IMAGE_COUNT"
	EnvVSync         = "KORU_VSYNC"
	EnvFPS           = "KORU_FPS"
	EnvMaxVertices   = "KORU_MAX_VERTICES"
	EnvMaxMeshDraws  = "KORU_MAX_MESH_DRAWS"
	EnvClearColor    = "KORU_CLEAR_COLOR"
	EnvDebug         = "KORU_DEBUG"
	EnvPipelineCache = "KORU_PIPELINE_CACHE"
	EnvLogLevel      = "KORU_LOG_LEVEL"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Instance InstanceConfiguration
	Time     TimeConfiguration
	Renderer RendererConfiguration
	Batch    BatchConfiguration
}

// InstanceConfiguration is used to configure the graphics instance
type InstanceConfiguration struct {
	DebugMode  bool
	Extensions []string
	Layers     []string

	// PipelineCache is the file the pipeline cache is kept in between runs,
	// empty disables persistence.
	PipelineCache string

	LogLevel string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the window event polling interval in milliseconds
	EventPollDelay int
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	SwapchainSize    uint32
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32

	VSync       bool
	DepthFormat gfx.Format
	ClearColor  [4]float32
}

// BatchConfiguration sizes the batch renderer buffers
type BatchConfiguration struct {
	// MaxVertices is the capacity of the quad and line vertex batches.
	// It must be a multiple of 4.
	MaxVertices int

	// MaxMeshDraws is the capacity of the mesh draw list.
	MaxMeshDraws int

	// RetainPages is the number of vertex pages kept per frame slot once
	// a frame no longer needs them.
	RetainPages int
}

// DefaultConfiguration returns the configuration used when nothing is set.
func DefaultConfiguration() Configuration {
	return Configuration{
		Instance: InstanceConfiguration{
			LogLevel: "info",
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
			EventPollDelay:  5,
		},
		Renderer: RendererConfiguration{
			SwapchainSize: 3,
			DeviceExtensions: []string{
				"VK_KHR_swapchain",
			},
			ScreenWidth:  800,
			ScreenHeight: 600,
			DepthFormat:  gfx.FormatD16Unorm,
			ClearColor:   [4]float32{0, 0, 0, 1},
		},
		Batch: BatchConfiguration{
			MaxVertices:  20000,
			MaxMeshDraws: 200,
			RetainPages:  2,
		},
	}
}

// LoadConfiguration returns the default configuration overridden by
// KORU_* environment variables. Any given files are loaded into the
// environment first, variables already set take precedence.
func LoadConfiguration(files ...string) (Configuration, error) {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return Configuration{}, fmt.Errorf("load %s: %w", strings.Join(files, ", "), err)
		}
		envy.Reload()
	}

	cfg := DefaultConfiguration()
	var err error
	if cfg.Renderer.ScreenWidth, err = envUint32(EnvWidth, cfg.Renderer.ScreenWidth); err != nil {
		return cfg, err
	}
	if cfg.Renderer.ScreenHeight, err = envUint32(EnvHeight, cfg.Renderer.ScreenHeight); err != nil {
		return cfg, err
	}
	if cfg.Renderer.SwapchainSize, err = envUint32(EnvImageCount, cfg.Renderer.SwapchainSize); err != nil {
		return cfg, err
	}
	if cfg.Renderer.VSync, err = envBool(EnvVSync, cfg.Renderer.VSync); err != nil {
		return cfg, err
	}
	if cfg.Instance.DebugMode, err = envBool(EnvDebug, cfg.Instance.DebugMode); err != nil {
		return cfg, err
	}
	if cfg.Time.FramesPerSecond, err = envInt(EnvFPS, cfg.Time.FramesPerSecond); err != nil {
		return cfg, err
	}
	if cfg.Batch.MaxVertices, err = envInt(EnvMaxVertices, cfg.Batch.MaxVertices); err != nil {
		return cfg, err
	}
	if cfg.Batch.MaxVertices < 4 || cfg.Batch.MaxVertices%4 != 0 {
		return cfg, fmt.Errorf("%s=%d: must be a positive multiple of 4", EnvMaxVertices, cfg.Batch.MaxVertices)
	}
	if cfg.Batch.MaxMeshDraws, err = envInt(EnvMaxMeshDraws, cfg.Batch.MaxMeshDraws); err != nil {
		return cfg, err
	}
	if cfg.Batch.MaxMeshDraws <= 0 {
		return cfg, fmt.Errorf("%s=%d: must be positive", EnvMaxMeshDraws, cfg.Batch.MaxMeshDraws)
	}
	if name := envy.Get(EnvClearColor, ""); name != "" {
		c, ok := colornames.Map[strings.ToLower(name)]
		if !ok {
			return cfg, fmt.Errorf("%s=%s: unknown colour name", EnvClearColor, name)
		}
		cfg.Renderer.ClearColor = ColorValues(c)
	}
	cfg.Instance.PipelineCache = envy.Get(EnvPipelineCache, cfg.Instance.PipelineCache)
	cfg.Instance.LogLevel = envy.Get(EnvLogLevel, cfg.Instance.LogLevel)
	return cfg, nil
}

// ColorValues converts c to normalized RGBA clear values.
func ColorValues(c color.Color) [4]float32 {
	r, g, b, a := c.RGBA()
	return [4]float32{
		float32(r) / 0xffff,
		float32(g) / 0xffff,
		float32(b) / 0xffff,
		float32(a) / 0xffff,
	}
}

func envInt(key string, def int) (int, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envUint32(key string, def uint32) (uint32, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return uint32(n), nil
}

func envBool(key string, def bool) (bool, error) {
	v := envy.Get(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
