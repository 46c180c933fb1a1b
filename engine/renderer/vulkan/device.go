package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex uint32
	GraphicsQueue      vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties
}

// FindGraphicsQueueFamily returns the index of the first queue family with
// graphics support.
func FindGraphicsQueueFamily(families []vk.QueueFamilyProperties) (uint32, bool) {
	for i := range families {
		if vk.QueueFlagBits(families[i].QueueFlags)&vk.QueueGraphicsBit != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func queueFamilies(device vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	families := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, families)
	for i := range families {
		families[i].Deref()
	}
	return families
}

func deviceExtensions(device vk.PhysicalDevice) ([]string, error) {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vk.Success {
		return nil, resultError("enumerate device extensions", res)
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &count, props); res != vk.Success {
		return nil, resultError("enumerate device extensions", res)
	}
	names := make([]string, 0, count)
	for i := range props {
		props[i].Deref()
		names = append(names, vk.ToString(props[i].ExtensionName[:]))
	}
	return names, nil
}

// selectPhysicalDevice picks the first device exposing a graphics queue
// family.
func selectPhysicalDevice(context *VulkanContext) (*VulkanDevice, error) {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return nil, resultError("enumerate physical devices", res)
	}
	if physicalDeviceCount == 0 {
		return nil, core.NewFatalError("select physical device", core.ErrNoPhysicalDevice)
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return nil, resultError("enumerate physical devices", res)
	}

	for _, pd := range physicalDevices {
		index, ok := FindGraphicsQueueFamily(queueFamilies(pd))
		if !ok {
			continue
		}

		device := &VulkanDevice{
			PhysicalDevice:     pd,
			GraphicsQueueIndex: index,
		}
		vk.GetPhysicalDeviceProperties(pd, &device.Properties)
		device.Properties.Deref()
		vk.GetPhysicalDeviceMemoryProperties(pd, &device.Memory)
		device.Memory.Deref()

		logDeviceInfo(device)
		return device, nil
	}
	return nil, core.NewFatalError("select physical device", core.ErrNoGraphicsQueue)
}

func logDeviceInfo(device *VulkanDevice) {
	properties := device.Properties
	core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version(properties.ApiVersion).Major(),
		vk.Version(properties.ApiVersion).Minor(),
		vk.Version(properties.ApiVersion).Patch(),
	)
	core.LogDebug("Graphics Family Index: %d", device.GraphicsQueueIndex)
}

// DeviceCreate selects the physical device, creates the logical device with
// one graphics queue and the command pool for that queue.
func DeviceCreate(context *VulkanContext) error {
	device, err := selectPhysicalDevice(context)
	if err != nil {
		return err
	}

	var supportsPresent vk.Bool32
	if res := vk.GetPhysicalDeviceSurfaceSupport(device.PhysicalDevice, device.GraphicsQueueIndex, context.Surface, &supportsPresent); res != vk.Success {
		return resultError("query surface support", res)
	}
	if supportsPresent != vk.True {
		return core.NewFatalError("query surface support", errors.Wrap(core.ErrNoGraphicsQueue, "graphics queue cannot present to the surface"))
	}

	core.LogInfo("Creating logical device...")

	available, err := deviceExtensions(device.PhysicalDevice)
	if err != nil {
		return err
	}
	if !containsString(available, swapchainExtensionName) {
		return core.NewFatalError("create device", errors.Wrap(core.ErrMissingExtension, swapchainExtensionName))
	}
	extensionNames := []string{swapchainExtensionName}
	if containsString(available, portabilitySubsetExtensionName) {
		core.LogInfo("Adding required extension '%s'.", portabilitySubsetExtensionName)
		extensionNames = append(extensionNames, portabilitySubsetExtensionName)
	}

	queueCreateInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	var logicalDevice vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logicalDevice); res != vk.Success {
		return resultError("create device", res)
	}
	device.LogicalDevice = logicalDevice
	context.Device = device
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, device.GraphicsQueueIndex, 0, &queue)
	device.GraphicsQueue = queue
	core.LogInfo("Queues obtained.")

	// The single command buffer is reset every frame.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		return resultError("create command pool", res)
	}
	device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")

	return nil
}

func (device *VulkanDevice) WaitIdle() error {
	if res := vk.DeviceWaitIdle(device.LogicalDevice); res != vk.Success {
		return frameError("wait for device idle", res)
	}
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	if device == nil {
		return
	}
	device.GraphicsQueue = nil

	if device.GraphicsCommandPool != vk.NullCommandPool {
		core.LogInfo("Destroying command pools...")
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = vk.NullCommandPool
	}

	if device.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	context.Device = nil
}
