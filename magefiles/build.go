//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// shaderTargets maps GLSL sources to the SPIR-V files the config points at.
var shaderTargets = []struct{ src, out string }{
	{"shaders/triangle.vert", "shaders/vert.spv"},
	{"shaders/mesh.vert", "shaders/mesh.spv"},
	{"shaders/shader.frag", "shaders/frag.spv"},
}

// Compiles every GLSL shader to SPIR-V with glslc.
func (Build) Shaders() error {
	return buildShaders()
}

// Compiles the shaders and then the binary.
func (Build) Engine() error {
	mg.Deps(Build.Shaders)
	_, err := executeCmd("go", withArgs("build", "-o", filepath.Join("bin", "vkframe"), "."), withStream())
	return err
}

func buildShaders() error {
	for _, t := range shaderTargets {
		if _, err := executeCmd("glslc", withArgs(t.src, "-o", t.out), withStream()); err != nil {
			return fmt.Errorf("compiling %s: %w", t.src, err)
		}
	}
	return nil
}
