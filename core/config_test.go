// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gobuffalo/envy"

	"github.com/koru3d/inflight/core"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		for _, key := range []string{core.EnvWidth, core.EnvHeight, core.EnvFPS, core.EnvMaxVertices, core.EnvClearColor} {
			envy.Set(key, "")
		}
		cfg, err := core.LoadConfiguration()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg, qt.DeepEquals, core.DefaultConfiguration())
	})
}

func TestLoadConfigurationEnvironment(t *testing.T) {
	c := qt.New(t)

	envy.Temp(func() {
		envy.Set(core.EnvWidth, "1920")
		envy.Set(core.EnvHeight, "1080")
		envy.Set(core.EnvImageCount, "2")
		envy.Set(core.EnvVSync, "true")
		envy.Set(core.EnvFPS, "144")
		envy.Set(core.EnvMaxVertices, "4000")
		envy.Set(core.EnvMaxMeshDraws, "50")
		envy.Set(core.EnvClearColor, "CornflowerBlue")
		envy.Set(core.EnvPipelineCache, "/tmp/koru.cache")
		envy.Set(core.EnvLogLevel, "debug")

		cfg, err := core.LoadConfiguration()
		c.Assert(err, qt.IsNil)
		c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(1920))
		c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(1080))
		c.Assert(cfg.Renderer.SwapchainSize, qt.Equals, uint32(2))
		c.Assert(cfg.Renderer.VSync, qt.IsTrue)
		c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 144)
		c.Assert(cfg.Batch.MaxVertices, qt.Equals, 4000)
		c.Assert(cfg.Batch.MaxMeshDraws, qt.Equals, 50)
		c.Assert(cfg.Renderer.ClearColor, qt.DeepEquals, [4]float32{100.0 / 255, 149.0 / 255, 237.0 / 255, 1})
		c.Assert(cfg.Instance.PipelineCache, qt.Equals, "/tmp/koru.cache")
		c.Assert(cfg.Instance.LogLevel, qt.Equals, "debug")
	})
}

func TestLoadConfigurationErrors(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		key, value string
		err        string
	}{
		{core.EnvWidth, "wide", `KORU_WIDTH: .*invalid syntax`},
		{core.EnvVSync, "maybe", `KORU_VSYNC: .*invalid syntax`},
		{core.EnvMaxVertices, "4001", `KORU_MAX_VERTICES=4001: must be a positive multiple of 4`},
		{core.EnvMaxMeshDraws, "0", `KORU_MAX_MESH_DRAWS=0: must be positive`},
		{core.EnvMaxMeshDraws, "-3", `KORU_MAX_MESH_DRAWS=-3: must be positive`},
		{core.EnvClearColor, "notacolour", `KORU_CLEAR_COLOR=notacolour: unknown colour name`},
	}
	for _, test := range tests {
		envy.Temp(func() {
			envy.Set(test.key, test.value)
			_, err := core.LoadConfiguration()
			c.Check(err, qt.ErrorMatches, test.err)
		})
	}
}

func TestLoadConfigurationDotenv(t *testing.T) {
	c := qt.New(t)

	file := filepath.Join(c.TempDir(), "koru.env")
	err := os.WriteFile(file, []byte("KORU_MAX_MESH_DRAWS=75\n"), 0644)
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() {
		os.Unsetenv(core.EnvMaxMeshDraws)
		envy.Reload()
	})

	cfg, err := core.LoadConfiguration(file)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Batch.MaxMeshDraws, qt.Equals, 75)

	_, err = core.LoadConfiguration(filepath.Join(c.TempDir(), "missing.env"))
	c.Assert(err, qt.ErrorMatches, "load .*missing.env: .*")
}

func TestTime(t *testing.T) {
	c := qt.New(t)

	tm := core.NewTime(core.TimeConfiguration{FramesPerSecond: 50, EventPollDelay: 5})
	defer tm.Stop()
	c.Assert(tm.Fps(), qt.Equals, 50)
	c.Assert(tm.FrameInterval(), qt.Equals, 20*time.Millisecond)
	c.Assert(tm.Delta(), qt.Equals, time.Duration(0))

	<-tm.FpsTicker().C
	c.Assert(tm.Delta() > 0, qt.IsTrue)

	unlimited := core.NewTime(core.TimeConfiguration{})
	defer unlimited.Stop()
	c.Assert(unlimited.FrameInterval(), qt.Equals, time.Nanosecond)
}
