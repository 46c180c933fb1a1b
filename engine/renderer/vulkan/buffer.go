package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/spaghettifunk/vibe/engine/math"
)

type VulkanBuffer struct {
	Handle      vk.Buffer
	Memory      vk.DeviceMemory
	Size        vk.DeviceSize
	VertexCount uint32
}

// NewVertexBuffer uploads vertices once into host visible, coherent memory.
// The buffer is never written again, so no staging copy is needed.
func NewVertexBuffer(context *VulkanContext, vertices []math.Vertex2D) (*VulkanBuffer, error) {
	if len(vertices) == 0 {
		return nil, core.NewFatalError("create vertex buffer", errors.New("no vertices"))
	}
	data := math.VerticesToFloats(vertices)
	size := vk.DeviceSize(len(data) * 4)
	device := context.Device.LogicalDevice

	buffer := &VulkanBuffer{
		Size:        size,
		VertexCount: uint32(len(vertices)),
	}

	if err := lockPool.SafeCall(BufferManagement, func() error {
		bufferCreateInfo := vk.BufferCreateInfo{
			SType:       vk.StructureTypeBufferCreateInfo,
			Size:        size,
			Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
			SharingMode: vk.SharingModeExclusive,
		}
		var handle vk.Buffer
		if res := vk.CreateBuffer(device, &bufferCreateInfo, context.Allocator, &handle); res != vk.Success {
			return resultError("create vertex buffer", res)
		}
		buffer.Handle = handle

		var requirements vk.MemoryRequirements
		vk.GetBufferMemoryRequirements(device, handle, &requirements)
		requirements.Deref()

		flags := uint32(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
		memoryIndex := context.FindMemoryIndex(requirements.MemoryTypeBits, flags)
		if memoryIndex < 0 {
			return core.NewFatalError("allocate vertex buffer memory", errors.New("no host visible and coherent memory type"))
		}

		allocateInfo := vk.MemoryAllocateInfo{
			SType:           vk.StructureTypeMemoryAllocateInfo,
			AllocationSize:  requirements.Size,
			MemoryTypeIndex: uint32(memoryIndex),
		}
		var memory vk.DeviceMemory
		if res := vk.AllocateMemory(device, &allocateInfo, context.Allocator, &memory); res != vk.Success {
			return resultError("allocate vertex buffer memory", res)
		}
		buffer.Memory = memory

		if res := vk.BindBufferMemory(device, handle, memory, 0); res != vk.Success {
			return resultError("bind vertex buffer memory", res)
		}

		var mapped unsafe.Pointer
		if res := vk.MapMemory(device, memory, 0, size, 0, &mapped); res != vk.Success {
			return resultError("map vertex buffer memory", res)
		}
		vk.Memcopy(mapped, unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)))
		vk.UnmapMemory(device, memory)
		return nil
	}); err != nil {
		buffer.Destroy(context)
		return nil, err
	}

	core.LogDebug("Vertex buffer created with %d vertices (%d bytes).", buffer.VertexCount, size)
	return buffer, nil
}

func (b *VulkanBuffer) Bind(commandBuffer *VulkanCommandBuffer) {
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{b.Handle}, []vk.DeviceSize{0})
}

func (b *VulkanBuffer) Destroy(context *VulkanContext) {
	lockPool.SafeCall(BufferManagement, func() error {
		if b.Handle != vk.NullBuffer {
			vk.DestroyBuffer(context.Device.LogicalDevice, b.Handle, context.Allocator)
			b.Handle = vk.NullBuffer
		}
		if b.Memory != vk.NullDeviceMemory {
			vk.FreeMemory(context.Device.LogicalDevice, b.Memory, context.Allocator)
			b.Memory = vk.NullDeviceMemory
		}
		return nil
	})
}
