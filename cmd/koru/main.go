// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"flag"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/gobuffalo/packr"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx/vkr"
	"github.com/koru3d/inflight/render"
)

func init() {
	runtime.LockOSThread()
}

// Profiling and configuration
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	envFile      = flag.String("env", "", "Load configuration from a .env file")
	meshFile     = flag.String("mesh", "", "Collada (.dae) mesh to spin instead of the cube")
)

func newWindow(cfg core.RendererConfiguration) (*sdl.Window, error) {
	return sdl.CreateWindow("Koru3D",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
}

func main() {
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := trace.Start(f); err != nil {
			log.Fatal(err)
		}
		defer trace.Stop()
	}

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	configuration, err := core.LoadConfiguration(files...)
	if err != nil {
		log.Fatal(err)
	}
	configuration.Instance.DebugMode = configuration.Instance.DebugMode || *debug

	level, err := log.ParseLevel(configuration.Instance.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	logger := log.New()
	logger.SetLevel(level)

	if err := run(configuration, logger); err != nil {
		logger.Fatal(err)
	}

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
	}
}

func run(configuration core.Configuration, logger *log.Logger) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return err
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return err
	}
	defer sdl.VulkanUnloadLibrary()

	window, err := newWindow(configuration.Renderer)
	if err != nil {
		return err
	}
	defer window.Destroy()

	instanceCfg := configuration.Instance
	instanceCfg.Extensions = append(instanceCfg.Extensions, window.VulkanGetInstanceExtensions()...)
	instance, err := vkr.NewInstance(vkr.DefaultApplicationInfo, sdl.VulkanGetVkGetInstanceProcAddr(), instanceCfg)
	if err != nil {
		return err
	}
	defer instance.Release()

	surface, err := window.VulkanCreateSurface(instance.Handle())
	if err != nil {
		return err
	}
	instance.SetSurface(uintptr(surface))

	device, err := vkr.NewDevice(instance, vkr.DeviceConfiguration{
		Extensions:    configuration.Renderer.DeviceExtensions,
		PipelineCache: configuration.Instance.PipelineCache,
	}, logger.WithField("component", "device"))
	if err != nil {
		return err
	}
	defer device.Release()

	presenter, err := device.NewPresenter(instance)
	if err != nil {
		return err
	}

	shaders, err := loadShaders(device, packr.NewBox("../../shaders"))
	if err != nil {
		return err
	}
	defer shaders.Release()
	shaderSet, err := shaders.ShaderSet()
	if err != nil {
		return err
	}

	ctx := core.NewContext(device, logger)
	renderer, err := core.NewRenderer(ctx, presenter, configuration.Renderer)
	if err != nil {
		return err
	}
	defer renderer.Destroy()

	r3d, err := render.NewRenderer3D(ctx, renderer, shaderSet, configuration.Batch)
	if err != nil {
		return err
	}
	renderer.Register(r3d)

	scene, err := newDemo(r3d, *meshFile)
	if err != nil {
		return err
	}
	renderer.Register(scene)

	return loop(window, renderer, r3d, scene, core.NewTime(configuration.Time), logger)
}

// loop runs frames on the fps ticker and polls window events on the event
// ticker until the window is closed.
func loop(window *sdl.Window, renderer *core.Renderer, r3d *render.Renderer3D, scene *demo, timeService *core.Time, logger *log.Logger) error {
	defer timeService.Stop()
	stats := time.NewTicker(time.Second)
	defer stats.Stop()
	var frames int

	for {
		select {
		case <-timeService.FpsTicker().C:
			scene.Update(timeService.Delta())
			ok, err := renderer.BeginFrame()
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if err := scene.Draw(renderer); err != nil {
				return err
			}
			if err := renderer.EndFrame(); err != nil {
				return err
			}
			frames++

		case <-stats.C:
			s := r3d.Stats()
			logger.WithFields(log.Fields{
				"fps":       frames,
				"drawCalls": s.DrawCalls / max(frames, 1),
				"flushes":   s.Flushes / max(frames, 1),
				"cgoCalls":  runtime.NumCgoCall(),
			}).Debug("frame stats")
			r3d.ResetStats()
			frames = 0

		case <-timeService.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						return nil
					}
				case *sdl.QuitEvent:
					return nil
				case *sdl.WindowEvent:
					if err := windowEvent(window, renderer, et, logger); err != nil {
						return err
					}
				}
			}
		}
	}
}

func windowEvent(window *sdl.Window, renderer *core.Renderer, e *sdl.WindowEvent, logger *log.Logger) error {
	switch e.Event {
	case sdl.WINDOWEVENT_RESTORED:
		width, height := window.GetSize()
		logger.WithFields(log.Fields{"width": width, "height": height}).Info("window restored")
		return renderer.OnResize(uint32(width), uint32(height))
	case sdl.WINDOWEVENT_SIZE_CHANGED:
		logger.WithFields(log.Fields{"width": e.Data1, "height": e.Data2}).Info("window resized")
		return renderer.OnResize(uint32(e.Data1), uint32(e.Data2))
	case sdl.WINDOWEVENT_MINIMIZED:
		logger.Info("window minimized")
		return renderer.OnResize(0, 0)
	}
	return nil
}
