package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
)

/**
 * @brief Represents a single shader stage.
 */
type VulkanShaderStage struct {
	/** @brief The internal shader module Handle. */
	Handle vk.ShaderModule
	/** @brief The pipeline shader stage creation info. */
	ShaderStageCreateInfo vk.PipelineShaderStageCreateInfo
}

// shaderModuleCreateInfo describes code for vkCreateShaderModule. CodeSize
// is in bytes.
func shaderModuleCreateInfo(code []uint32) vk.ShaderModuleCreateInfo {
	return vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint64(len(code) * 4),
		PCode:    code,
	}
}

// NewShaderStage wraps SPIR-V words in a shader module. The module only has
// to live until the pipeline using it is created.
func NewShaderStage(context *VulkanContext, code []uint32, stage vk.ShaderStageFlagBits) (*VulkanShaderStage, error) {
	if len(code) == 0 {
		return nil, core.NewFatalError("create shader module", errors.New("empty shader bytecode"))
	}

	createInfo := shaderModuleCreateInfo(code)

	var handle vk.ShaderModule
	if err := lockPool.SafeCall(ShaderManagement, func() error {
		if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle); res != vk.Success {
			return resultError("create shader module", res)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &VulkanShaderStage{
		Handle: handle,
		ShaderStageCreateInfo: vk.PipelineShaderStageCreateInfo{
			SType:  vk.StructureTypePipelineShaderStageCreateInfo,
			Stage:  stage,
			Module: handle,
			PName:  VulkanSafeString(ShaderEntryPoint),
		},
	}, nil
}

func (s *VulkanShaderStage) Destroy(context *VulkanContext) {
	if s.Handle == vk.NullShaderModule {
		return
	}
	lockPool.SafeCall(ShaderManagement, func() error {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		return nil
	})
	s.Handle = vk.NullShaderModule
}
