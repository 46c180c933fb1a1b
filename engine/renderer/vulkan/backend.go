package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/spaghettifunk/vibe/engine/math"
	"github.com/spaghettifunk/vibe/engine/renderer"
)

var _ renderer.RendererBackend = (*VulkanBackend)(nil)

type VulkanBackendConfig struct {
	ApplicationName string
	Debug           bool

	// ProcAddr is vkGetInstanceProcAddr as handed out by the window library.
	ProcAddr           unsafe.Pointer
	Surface            SurfaceHandle
	PlatformExtensions []string
	Width, Height      uint32

	VertexShader   []uint32
	FragmentShader []uint32
	Vertices       []math.Vertex2D

	Policy SwapchainPolicy
}

// VulkanBackend owns every GPU object of the engine. There is one frame in
// flight: one command buffer, one pair of semaphores and one fence.
type VulkanBackend struct {
	context *VulkanContext

	swapchains   *SwapchainManager
	renderpass   *VulkanRenderpass
	pipeline     *VulkanPipeline
	vertexBuffer *VulkanBuffer

	commandBuffer  *VulkanCommandBuffer
	imageAvailable vk.Semaphore
	renderFinished vk.Semaphore
	inFlight       *VulkanFence
}

func New() *VulkanBackend {
	return &VulkanBackend{
		context: &VulkanContext{
			// TODO: custom allocator.
			Allocator: nil,
		},
	}
}

// Initialize creates the instance, surface, device, swapchain, pipeline and
// per-frame objects in that order. Any failure is fatal; objects created so
// far are released before returning.
func (vb *VulkanBackend) Initialize(config VulkanBackendConfig) error {
	if err := vb.initialize(config); err != nil {
		vb.Shutdown()
		return err
	}
	core.LogInfo("Vulkan renderer initialized successfully.")
	return nil
}

func (vb *VulkanBackend) initialize(config VulkanBackendConfig) error {
	if config.ProcAddr == nil {
		return core.NewFatalError("load vulkan", errors.New("GetInstanceProcAddress is nil"))
	}
	vk.SetGetInstanceProcAddr(config.ProcAddr)
	if err := vk.Init(); err != nil {
		return core.NewFatalError("load vulkan", err)
	}

	extensions, err := createInstance(vb.context, instanceConfig{
		ApplicationName:    config.ApplicationName,
		PlatformExtensions: config.PlatformExtensions,
		SurfaceKind:        config.Surface.Kind,
		Debug:              config.Debug,
	})
	if err != nil {
		return err
	}

	if config.Debug && containsString(extensions, debugReportExtensionName) {
		if err := createDebugCallback(vb.context); err != nil {
			return err
		}
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := CreateSurface(vb.context, config.Surface)
	if err != nil {
		return err
	}
	vb.context.Surface = surface

	if err := DeviceCreate(vb.context); err != nil {
		return err
	}

	vb.swapchains = NewSwapchainManager(vb.context, config.Policy)
	format, err := vb.swapchains.SelectSurfaceFormat()
	if err != nil {
		return err
	}

	vb.renderpass, err = RenderpassCreate(vb.context, format.Format)
	if err != nil {
		return err
	}

	if err := vb.swapchains.Build(vb.renderpass.Handle, config.Width, config.Height); err != nil {
		return err
	}

	vb.pipeline, err = vb.buildPipeline(config.VertexShader, config.FragmentShader)
	if err != nil {
		return err
	}

	vb.vertexBuffer, err = NewVertexBuffer(vb.context, config.Vertices)
	if err != nil {
		return err
	}

	vb.commandBuffer, err = NewVulkanCommandBuffer(vb.context, vb.context.Device.GraphicsCommandPool, true)
	if err != nil {
		return err
	}

	return vb.createSyncObjects()
}

func (vb *VulkanBackend) createSyncObjects() error {
	core.LogDebug("Creating sync objects...")
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	if res := vk.CreateSemaphore(vb.context.Device.LogicalDevice, &semaphoreCreateInfo, vb.context.Allocator, &vb.imageAvailable); res != vk.Success {
		return resultError("create image available semaphore", res)
	}
	if res := vk.CreateSemaphore(vb.context.Device.LogicalDevice, &semaphoreCreateInfo, vb.context.Allocator, &vb.renderFinished); res != vk.Success {
		return resultError("create render finished semaphore", res)
	}

	// Created signaled so the first frame does not wait on a submission
	// that never happened.
	fence, err := NewFence(vb.context, true)
	if err != nil {
		return err
	}
	vb.inFlight = fence
	return nil
}

// buildPipeline creates the disc pipeline. The shader modules only live
// for the duration of the call.
func (vb *VulkanBackend) buildPipeline(vertex, fragment []uint32) (*VulkanPipeline, error) {
	vertexStage, err := NewShaderStage(vb.context, vertex, vk.ShaderStageVertexBit)
	if err != nil {
		return nil, err
	}
	defer vertexStage.Destroy(vb.context)

	fragmentStage, err := NewShaderStage(vb.context, fragment, vk.ShaderStageFragmentBit)
	if err != nil {
		return nil, err
	}
	defer fragmentStage.Destroy(vb.context)

	config := DiscPipelineConfig(vb.renderpass, []vk.PipelineShaderStageCreateInfo{
		vertexStage.ShaderStageCreateInfo,
		fragmentStage.ShaderStageCreateInfo,
	})
	return NewGraphicsPipeline(vb.context, config)
}

func (vb *VulkanBackend) WaitForFrame() error {
	if err := vb.inFlight.Wait(vb.context, vk.MaxUint64); err != nil {
		return err
	}
	return vb.commandBuffer.Reset()
}

// currentSwapchain returns the live swapchain, or a stale error when the
// last rebuild failed and the caller has to recreate first.
func (vb *VulkanBackend) currentSwapchain(op string) (*VulkanSwapchain, error) {
	if vb.swapchains == nil || vb.swapchains.Current() == nil {
		return nil, core.NewStaleError(op, core.ErrSwapchainOutOfDate)
	}
	return vb.swapchains.Current(), nil
}

func (vb *VulkanBackend) AcquireNextImage() (uint32, error) {
	swapchain, err := vb.currentSwapchain("acquire next image")
	if err != nil {
		return 0, err
	}
	var imageIndex uint32
	res := vk.AcquireNextImage(
		vb.context.Device.LogicalDevice,
		swapchain.Handle,
		vk.MaxUint64,
		vb.imageAvailable,
		vk.NullFence,
		&imageIndex)
	if !isPresentable(res) {
		return 0, frameError("acquire next image", res)
	}
	return imageIndex, nil
}

func (vb *VulkanBackend) RecordFrame(imageIndex uint32, frame renderer.FrameData) error {
	swapchain, err := vb.currentSwapchain("record frame")
	if err != nil {
		return err
	}
	if imageIndex >= uint32(len(swapchain.Framebuffers)) {
		return core.NewUnexpectedError("record frame", errors.Errorf("image index %d out of range for %d framebuffers", imageIndex, len(swapchain.Framebuffers)))
	}
	commandBuffer := vb.commandBuffer

	if err := commandBuffer.Begin(false, false, false); err != nil {
		return err
	}
	vb.renderpass.RenderpassBegin(commandBuffer, swapchain.Framebuffers[imageIndex], swapchain.Extent, frame.ClearColor)

	vb.pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)
	vb.pipeline.SetViewport(commandBuffer, swapchain.Extent)
	vb.vertexBuffer.Bind(commandBuffer)
	vb.pipeline.PushTransform(commandBuffer, frame.Transform)
	vk.CmdDraw(commandBuffer.Handle, frame.VertexCount, 1, 0, 0)

	vb.renderpass.RenderpassEnd(commandBuffer)
	return commandBuffer.End()
}

// Submit resets the fence right before handing it to the queue. Resetting
// it earlier would leave it unsignaled when the frame is dropped after
// acquire.
func (vb *VulkanBackend) Submit() error {
	if err := vb.inFlight.Reset(vb.context); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vb.imageAvailable},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{vb.commandBuffer.Handle},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vb.renderFinished},
	}

	device := vb.context.Device
	if err := lockPool.SafeQueueCall(device.GraphicsQueueIndex, func() error {
		if res := vk.QueueSubmit(device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vb.inFlight.Handle); res != vk.Success {
			return frameError("submit frame", res)
		}
		return nil
	}); err != nil {
		return err
	}
	vb.commandBuffer.UpdateSubmitted()
	return nil
}

func (vb *VulkanBackend) Present(imageIndex uint32) error {
	swapchain, err := vb.currentSwapchain("present frame")
	if err != nil {
		return err
	}
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{vb.renderFinished},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{swapchain.Handle},
		PImageIndices:      []uint32{imageIndex},
		PResults:           nil,
	}

	device := vb.context.Device
	return lockPool.SafeQueueCall(device.GraphicsQueueIndex, func() error {
		if res := vk.QueuePresent(device.GraphicsQueue, &presentInfo); !isPresentable(res) {
			return frameError("present frame", res)
		}
		return nil
	})
}

func (vb *VulkanBackend) RecreateSwapchain(width, height uint32) error {
	return vb.swapchains.Recreate(width, height)
}

func (vb *VulkanBackend) Extent() (uint32, uint32) {
	if vb.swapchains == nil {
		return 0, 0
	}
	extent := vb.swapchains.Extent()
	return extent.Width, extent.Height
}

// ReloadPipeline builds a pipeline from new shaders against the existing
// render pass. The old pipeline is kept when the new one fails to build.
func (vb *VulkanBackend) ReloadPipeline(vertex, fragment []uint32) error {
	if err := vb.context.Device.WaitIdle(); err != nil {
		return err
	}
	pipeline, err := vb.buildPipeline(vertex, fragment)
	if err != nil {
		return err
	}
	vb.pipeline.Destroy(vb.context)
	vb.pipeline = pipeline
	core.LogInfo("Graphics pipeline reloaded.")
	return nil
}

// Shutdown waits for the device and destroys everything in reverse order
// of creation. It is safe on a partially initialized backend and safe to
// call twice.
func (vb *VulkanBackend) Shutdown() error {
	context := vb.context
	var err error

	if context.Device != nil {
		err = context.Device.WaitIdle()
		device := context.Device.LogicalDevice

		core.LogDebug("Destroying sync objects...")
		if vb.inFlight != nil {
			vb.inFlight.Destroy(context)
			vb.inFlight = nil
		}
		if vb.renderFinished != vk.NullSemaphore {
			vk.DestroySemaphore(device, vb.renderFinished, context.Allocator)
			vb.renderFinished = vk.NullSemaphore
		}
		if vb.imageAvailable != vk.NullSemaphore {
			vk.DestroySemaphore(device, vb.imageAvailable, context.Allocator)
			vb.imageAvailable = vk.NullSemaphore
		}

		if vb.commandBuffer != nil {
			vb.commandBuffer.Free(context, context.Device.GraphicsCommandPool)
			vb.commandBuffer = nil
		}
		if vb.vertexBuffer != nil {
			vb.vertexBuffer.Destroy(context)
			vb.vertexBuffer = nil
		}
		if vb.pipeline != nil {
			vb.pipeline.Destroy(context)
			vb.pipeline = nil
		}

		core.LogDebug("Destroying Vulkan swapchain...")
		if vb.swapchains != nil {
			vb.swapchains.Destroy()
			vb.swapchains = nil
		}
		if vb.renderpass != nil {
			vb.renderpass.RenderpassDestroy(context)
			vb.renderpass = nil
		}

		core.LogDebug("Destroying Vulkan device...")
		DeviceDestroy(context)
	}

	if context.Surface != vk.NullSurface {
		core.LogDebug("Destroying Vulkan surface...")
		vk.DestroySurface(context.Instance, context.Surface, context.Allocator)
		context.Surface = vk.NullSurface
	}

	destroyDebugCallback(context)

	if context.Instance != nil {
		core.LogDebug("Destroying Vulkan instance...")
		vk.DestroyInstance(context.Instance, context.Allocator)
		context.Instance = nil
	}
	return err
}
