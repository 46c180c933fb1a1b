package vulkan

import (
	vk "github.com/goki/vulkan"
)

// FramebufferCreate wraps a single color attachment for renderpass.
func FramebufferCreate(context *VulkanContext, renderpass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	framebufferCreateInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderpass,
		AttachmentCount: 1,
		PAttachments:    []vk.ImageView{view},
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if res := vk.CreateFramebuffer(context.Device.LogicalDevice, &framebufferCreateInfo, context.Allocator, &framebuffer); res != vk.Success {
		return vk.NullFramebuffer, resultError("create framebuffer", res)
	}
	return framebuffer, nil
}

func FramebufferDestroy(context *VulkanContext, framebuffer vk.Framebuffer) {
	if framebuffer != vk.NullFramebuffer {
		vk.DestroyFramebuffer(context.Device.LogicalDevice, framebuffer, context.Allocator)
	}
}
