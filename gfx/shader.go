// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"path"
	"strings"
)

// ShaderSuffix is the extension of compiled SPIR-V files.
const ShaderSuffix = ".spv"

// ParseShaderFile splits a compiled shader file name of the form
// name.stage.spv. The file name must not contain more than two dots,
// the first part is the name of the shader and the second one the
// stage. Files that do not follow the convention are reported as not ok.
func ParseShaderFile(file string) (name string, stage ShaderStage, ok bool) {
	base := path.Base(file)
	if !strings.HasSuffix(base, ShaderSuffix) {
		return "", 0, false
	}
	nodes := strings.Split(strings.TrimSuffix(base, ShaderSuffix), ".")
	if len(nodes) != 2 || nodes[0] == "" {
		return "", 0, false
	}

	switch nodes[1] {
	case "vert":
		stage = StageVertex
	case "frag":
		stage = StageFragment
	default:
		return "", 0, false
	}
	return nodes[0], stage, true
}
