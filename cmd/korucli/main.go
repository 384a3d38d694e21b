// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/koru3d/inflight/core"
	"github.com/koru3d/inflight/gfx/vkr"
)

var (
	debug  = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
	indent = flag.Bool("indent", false, "Indent the JSON output")
)

func main() {
	flag.Parse()

	cfg := core.InstanceConfiguration{
		DebugMode: *debug,
	}
	instance, err := vkr.NewInstance(vkr.DefaultApplicationInfo, nil, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer instance.Release()

	enc := json.NewEncoder(os.Stdout)
	if *indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(instance.PhysicalDevicesInfo()); err != nil {
		log.Fatal(err)
	}
}
