package renderer

import "github.com/spaghettifunk/vibe/engine/math"

// FrameData is everything the backend needs to record one frame.
type FrameData struct {
	Width, Height uint32
	// Transform is projection x translation, column-major.
	Transform   math.Mat4
	VertexCount uint32
	ClearColor  [4]float32
}

// RendererBackend is the GPU side of a frame. Every call is made from the
// thread that owns the window. Errors carry a core.Kind: stale errors drop
// the frame, anything else stops the renderer.
type RendererBackend interface {
	// WaitForFrame blocks until the previous submission finished, then
	// resets the command buffer for recording.
	WaitForFrame() error
	// AcquireNextImage returns the index of the next presentable image.
	AcquireNextImage() (uint32, error)
	RecordFrame(imageIndex uint32, frame FrameData) error
	Submit() error
	Present(imageIndex uint32) error
	// RecreateSwapchain waits for the device to go idle and rebuilds the
	// swapchain and everything derived from it.
	RecreateSwapchain(width, height uint32) error
	// Extent is the size of the current swapchain images.
	Extent() (uint32, uint32)
	// ReloadPipeline rebuilds the graphics pipeline from new SPIR-V.
	ReloadPipeline(vertex, fragment []uint32) error
	Shutdown() error
}

// Window is what the renderer needs from the platform window.
type Window interface {
	FramebufferSize() (uint32, uint32)
	SetTitle(title string)
	RequestRedraw()
}
