package vulkan

// VertexStride is the size of one packed vec2 position.
const VertexStride uint32 = 8

// PushConstantSize is the size of the transform pushed every draw: one
// column-major 4x4 float32 matrix.
const PushConstantSize uint32 = 64

/** @brief Name of the entry point in both shader stages. */
const ShaderEntryPoint string = "main"

const (
	surfaceExtensionName                = "VK_KHR_surface"
	portabilityEnumerationExtensionName = "VK_KHR_portability_enumeration"
	portabilitySubsetExtensionName      = "VK_KHR_portability_subset"
	debugReportExtensionName            = "VK_EXT_debug_report"
	swapchainExtensionName              = "VK_KHR_swapchain"
	validationLayerName                 = "VK_LAYER_KHRONOS_validation"

	// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
	instanceCreateEnumeratePortabilityBit uint32 = 0x00000001
)
