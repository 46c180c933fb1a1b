package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscPipelineConfig(t *testing.T) {
	stages := []vk.PipelineShaderStageCreateInfo{
		{Stage: vk.ShaderStageVertexBit},
		{Stage: vk.ShaderStageFragmentBit},
	}
	config := DiscPipelineConfig(&VulkanRenderpass{}, stages)

	assert.Equal(t, uint32(8), config.Stride)
	require.Len(t, config.Attributes, 1)
	assert.Equal(t, uint32(0), config.Attributes[0].Location)
	assert.Equal(t, vk.FormatR32g32Sfloat, config.Attributes[0].Format)
	assert.Equal(t, vk.PrimitiveTopologyTriangleFan, config.Topology)
	assert.Equal(t, vk.CullModeNone, config.CullMode)
	assert.False(t, config.IsWireframe)

	require.Len(t, config.PushConstantRanges, 1)
	r := config.PushConstantRanges[0]
	assert.Equal(t, uint32(64), r.Size)
	assert.Equal(t, uint32(0), r.Offset)
	assert.Equal(t, vk.ShaderStageFlags(vk.ShaderStageVertexBit), r.StageFlags)

	assert.NoError(t, config.validate())
}

func TestPipelineConfigValidate(t *testing.T) {
	stages := []vk.PipelineShaderStageCreateInfo{{Stage: vk.ShaderStageVertexBit}}

	tests := []struct {
		name   string
		mutate func(c *VulkanPipelineConfig)
	}{
		{"no render pass", func(c *VulkanPipelineConfig) { c.Renderpass = nil }},
		{"no stages", func(c *VulkanPipelineConfig) { c.Stages = nil }},
		{"unaligned range", func(c *VulkanPipelineConfig) { c.PushConstantRanges[0].Size = 62 }},
		{"range over limit", func(c *VulkanPipelineConfig) {
			c.PushConstantRanges = append(c.PushConstantRanges, vk.PushConstantRange{Offset: 64, Size: 128})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DiscPipelineConfig(&VulkanRenderpass{}, stages)
			tt.mutate(config)
			assert.Error(t, config.validate())
		})
	}
}

func TestShaderModuleCreateInfoSizeInBytes(t *testing.T) {
	code := []uint32{0x07230203, 0x00010000, 0, 1, 2}
	info := shaderModuleCreateInfo(code)

	assert.Equal(t, vk.StructureTypeShaderModuleCreateInfo, info.SType)
	assert.Equal(t, uint64(20), info.CodeSize)
	assert.Equal(t, code, info.PCode)
}
