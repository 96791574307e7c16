package vulkan

import (
	"github.com/cockroachdb/errors"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/vkframe/engine/core"
	"github.com/spaghettifunk/vkframe/engine/renderer/metadata"
)

// CreateShaderModule wraps a SPIR-V blob. Code size is given in bytes.
func (d *Device) CreateShaderModule(blob *metadata.ShaderBlob) (metadata.Handle, error) {
	if blob.IsEmpty() {
		return metadata.NullHandle, errors.Newf("shader %q has no code", blob.Name)
	}
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(blob.Code) * 4),
		PCode:    blob.Code,
	}

	var module vk.ShaderModule
	err := d.context.locks.SafeCall(ShaderManagement, func() error {
		if res := vk.CreateShaderModule(d.context.Device.LogicalDevice, &createInfo, d.context.Allocator, &module); res != vk.Success {
			return ResultError(res, "vkCreateShaderModule")
		}
		return nil
	})
	if err != nil {
		return metadata.NullHandle, errors.Wrapf(err, "shader %q", blob.Name)
	}
	core.LogDebug("shader module %s created (%d words)", blob.Name, len(blob.Code))
	return register(d.tables.shaders, module), nil
}

func (d *Device) DestroyShaderModule(module metadata.Handle) {
	m, ok := unregister(d.tables.shaders, module, "shader module")
	if !ok {
		return
	}
	_ = d.context.locks.SafeCall(ShaderManagement, func() error {
		vk.DestroyShaderModule(d.context.Device.LogicalDevice, m, d.context.Allocator)
		return nil
	})
}
