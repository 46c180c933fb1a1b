package vulkan

import (
	vk "github.com/goki/vulkan"
)

// deviceSwapchainOps runs the swapchain manager against the real device.
type deviceSwapchainOps struct {
	context *VulkanContext
}

func (o *deviceSwapchainOps) WaitIdle() error {
	return o.context.Device.WaitIdle()
}

func (o *deviceSwapchainOps) QuerySupport() (*SwapchainSupport, error) {
	pd := o.context.Device.PhysicalDevice
	surface := o.context.Surface
	support := &SwapchainSupport{}

	if res := vk.GetPhysicalDeviceSurfaceCapabilities(pd, surface, &support.Capabilities); res != vk.Success {
		return nil, resultError("query surface capabilities", res)
	}
	support.Capabilities.Deref()
	support.Capabilities.CurrentExtent.Deref()
	support.Capabilities.MinImageExtent.Deref()
	support.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, nil); res != vk.Success {
		return nil, resultError("query surface formats", res)
	}
	if formatCount > 0 {
		support.Formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(pd, surface, &formatCount, support.Formats); res != vk.Success {
			return nil, resultError("query surface formats", res)
		}
		for i := range support.Formats {
			support.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, nil); res != vk.Success {
		return nil, resultError("query present modes", res)
	}
	if presentModeCount > 0 {
		support.PresentModes = make([]vk.PresentMode, presentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(pd, surface, &presentModeCount, support.PresentModes); res != vk.Success {
			return nil, resultError("query present modes", res)
		}
	}
	return support, nil
}

func (o *deviceSwapchainOps) CreateSwapchain(request swapchainRequest) (vk.Swapchain, error) {
	// A single queue does graphics and present, so images are never shared.
	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          o.context.Surface,
		MinImageCount:    request.ImageCount,
		ImageFormat:      request.Format.Format,
		ImageColorSpace:  request.Format.ColorSpace,
		ImageExtent:      request.Extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     request.Transform,
		CompositeAlpha:   request.Alpha,
		PresentMode:      request.PresentMode,
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}

	var handle vk.Swapchain
	if res := vk.CreateSwapchain(o.context.Device.LogicalDevice, &swapchainCreateInfo, o.context.Allocator, &handle); res != vk.Success {
		return vk.NullSwapchain, resultError("create swapchain", res)
	}
	return handle, nil
}

func (o *deviceSwapchainOps) GetImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	var imageCount uint32
	if res := vk.GetSwapchainImages(o.context.Device.LogicalDevice, swapchain, &imageCount, nil); res != vk.Success {
		return nil, resultError("get swapchain images", res)
	}
	images := make([]vk.Image, imageCount)
	if res := vk.GetSwapchainImages(o.context.Device.LogicalDevice, swapchain, &imageCount, images); res != vk.Success {
		return nil, resultError("get swapchain images", res)
	}
	return images, nil
}

func (o *deviceSwapchainOps) CreateImageView(image vk.Image, format vk.Format) (vk.ImageView, error) {
	viewInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}

	var view vk.ImageView
	if res := vk.CreateImageView(o.context.Device.LogicalDevice, &viewInfo, o.context.Allocator, &view); res != vk.Success {
		return vk.NullImageView, resultError("create image view", res)
	}
	return view, nil
}

func (o *deviceSwapchainOps) CreateFramebuffer(renderpass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	return FramebufferCreate(o.context, renderpass, view, extent)
}

func (o *deviceSwapchainOps) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	FramebufferDestroy(o.context, framebuffer)
}

func (o *deviceSwapchainOps) DestroyImageView(view vk.ImageView) {
	if view != vk.NullImageView {
		vk.DestroyImageView(o.context.Device.LogicalDevice, view, o.context.Allocator)
	}
}

func (o *deviceSwapchainOps) DestroySwapchain(swapchain vk.Swapchain) {
	if swapchain != vk.NullSwapchain {
		vk.DestroySwapchain(o.context.Device.LogicalDevice, swapchain, o.context.Allocator)
	}
}
