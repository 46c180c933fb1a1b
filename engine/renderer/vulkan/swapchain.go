package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/spaghettifunk/vibe/engine/math"
)

type SwapchainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// SwapchainPolicy decides the surface format and the present mode. Both
// are chosen once, the first time the swapchain is built, and kept across
// recreations.
type SwapchainPolicy struct {
	ChooseFormat      func(formats []vk.SurfaceFormat) vk.SurfaceFormat
	ChoosePresentMode func(modes []vk.PresentMode) vk.PresentMode
}

func DefaultSwapchainPolicy() SwapchainPolicy {
	return SwapchainPolicy{
		ChooseFormat:      FirstSurfaceFormat,
		ChoosePresentMode: PreferMailboxPresentMode,
	}
}

// FirstSurfaceFormat picks the first format the surface reports.
func FirstSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	return formats[0]
}

// PreferMailboxPresentMode picks MAILBOX, then IMMEDIATE. FIFO is the only
// mode every surface supports so it is used when neither is there.
func PreferMailboxPresentMode(modes []vk.PresentMode) vk.PresentMode {
	immediate := false
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
		if mode == vk.PresentModeImmediate {
			immediate = true
		}
	}
	if immediate {
		return vk.PresentModeImmediate
	}
	return vk.PresentModeFifo
}

// ChooseExtent returns the surface's current extent, or the window size
// clamped to the allowed range when the surface leaves it to the swapchain.
func ChooseExtent(caps vk.SurfaceCapabilities, width, height uint32) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  math.Clamp(width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: math.Clamp(height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ChooseImageCount asks for one image more than the minimum. A maximum of
// zero means there is no limit.
func ChooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseCompositeAlpha returns the first supported mode, opaque first.
func ChooseCompositeAlpha(caps vk.SurfaceCapabilities) vk.CompositeAlphaFlagBits {
	for _, bit := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(bit) != 0 {
			return bit
		}
	}
	return vk.CompositeAlphaOpaqueBit
}

type VulkanSwapchain struct {
	Handle      vk.Swapchain
	ImageFormat vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	Generation  uint64

	// Images are owned by the swapchain, only views and framebuffers are
	// destroyed by us.
	Images       []vk.Image
	Views        []vk.ImageView
	Framebuffers []vk.Framebuffer
}

func (vs *VulkanSwapchain) ImageCount() uint32 {
	return uint32(len(vs.Images))
}

type swapchainRequest struct {
	Format      vk.SurfaceFormat
	PresentMode vk.PresentMode
	Extent      vk.Extent2D
	ImageCount  uint32
	Transform   vk.SurfaceTransformFlagBits
	Alpha       vk.CompositeAlphaFlagBits
}

// swapchainOps are the device calls the manager is built on.
type swapchainOps interface {
	WaitIdle() error
	QuerySupport() (*SwapchainSupport, error)
	CreateSwapchain(request swapchainRequest) (vk.Swapchain, error)
	GetImages(swapchain vk.Swapchain) ([]vk.Image, error)
	CreateImageView(image vk.Image, format vk.Format) (vk.ImageView, error)
	CreateFramebuffer(renderpass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error)
	DestroyFramebuffer(framebuffer vk.Framebuffer)
	DestroyImageView(view vk.ImageView)
	DestroySwapchain(swapchain vk.Swapchain)
}

// SwapchainManager owns the swapchain and everything derived from its
// images. Resources are replaced as a set: callers never see a swapchain
// whose views or framebuffers belong to another generation.
type SwapchainManager struct {
	ops    swapchainOps
	policy SwapchainPolicy

	selected    bool
	format      vk.SurfaceFormat
	presentMode vk.PresentMode

	renderpass vk.RenderPass
	current    *VulkanSwapchain
	generation uint64
	// Extent of the last set that was built, kept across a failed rebuild.
	extent vk.Extent2D
}

func NewSwapchainManager(context *VulkanContext, policy SwapchainPolicy) *SwapchainManager {
	return newSwapchainManager(&deviceSwapchainOps{context: context}, policy)
}

func newSwapchainManager(ops swapchainOps, policy SwapchainPolicy) *SwapchainManager {
	defaults := DefaultSwapchainPolicy()
	if policy.ChooseFormat == nil {
		policy.ChooseFormat = defaults.ChooseFormat
	}
	if policy.ChoosePresentMode == nil {
		policy.ChoosePresentMode = defaults.ChoosePresentMode
	}
	return &SwapchainManager{
		ops:    ops,
		policy: policy,
	}
}

// SelectSurfaceFormat runs the policy against the surface. The render pass
// needs the format before the first swapchain exists.
func (sm *SwapchainManager) SelectSurfaceFormat() (vk.SurfaceFormat, error) {
	if sm.selected {
		return sm.format, nil
	}
	support, err := sm.ops.QuerySupport()
	if err != nil {
		return vk.SurfaceFormat{}, err
	}
	if err := sm.selectFrom(support); err != nil {
		return vk.SurfaceFormat{}, err
	}
	return sm.format, nil
}

func (sm *SwapchainManager) selectFrom(support *SwapchainSupport) error {
	if sm.selected {
		return nil
	}
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return core.NewFatalError("select surface format", errors.Wrap(core.ErrUnsupportedSurface, "surface reports no formats or present modes"))
	}
	sm.format = sm.policy.ChooseFormat(support.Formats)
	sm.presentMode = sm.policy.ChoosePresentMode(support.PresentModes)
	sm.selected = true
	core.LogInfo("Surface format %d, color space %d, present mode %d.", sm.format.Format, sm.format.ColorSpace, sm.presentMode)
	return nil
}

// Build creates the first swapchain and its views and framebuffers for
// renderpass.
func (sm *SwapchainManager) Build(renderpass vk.RenderPass, width, height uint32) error {
	if sm.current != nil {
		return core.NewFatalError("build swapchain", errors.New("swapchain already built, use Recreate"))
	}
	sm.renderpass = renderpass

	support, err := sm.ops.QuerySupport()
	if err != nil {
		return err
	}
	if err := sm.selectFrom(support); err != nil {
		return err
	}
	extent := ChooseExtent(support.Capabilities, width, height)
	if extent.Width == 0 || extent.Height == 0 {
		return core.NewStaleError("build swapchain", core.ErrWindowMinimized)
	}
	return sm.build(support.Capabilities, extent)
}

// Recreate waits for the device to go idle, tears down the current set and
// builds a new one for the same render pass and format. A zero sized
// extent keeps the old set and reports a stale error. When the rebuild
// itself fails there is no current set until the next successful Recreate.
func (sm *SwapchainManager) Recreate(width, height uint32) error {
	if err := sm.ops.WaitIdle(); err != nil {
		return err
	}

	support, err := sm.ops.QuerySupport()
	if err != nil {
		return err
	}
	if err := sm.selectFrom(support); err != nil {
		return err
	}
	extent := ChooseExtent(support.Capabilities, width, height)
	if extent.Width == 0 || extent.Height == 0 {
		core.LogDebug("Swapchain recreation skipped, window is minimized.")
		return core.NewStaleError("recreate swapchain", core.ErrWindowMinimized)
	}

	sm.destroyCurrent()
	if err := sm.build(support.Capabilities, extent); err != nil {
		return err
	}
	core.LogDebug("Swapchain recreated at %dx%d (generation %d).", extent.Width, extent.Height, sm.generation)
	return nil
}

func (sm *SwapchainManager) build(caps vk.SurfaceCapabilities, extent vk.Extent2D) error {
	request := swapchainRequest{
		Format:      sm.format,
		PresentMode: sm.presentMode,
		Extent:      extent,
		ImageCount:  ChooseImageCount(caps),
		Transform:   caps.CurrentTransform,
		Alpha:       ChooseCompositeAlpha(caps),
	}

	handle, err := sm.ops.CreateSwapchain(request)
	if err != nil {
		return err
	}
	swapchain := &VulkanSwapchain{
		Handle:      handle,
		ImageFormat: sm.format,
		PresentMode: sm.presentMode,
		Extent:      extent,
	}

	images, err := sm.ops.GetImages(handle)
	if err != nil {
		sm.release(swapchain)
		return err
	}
	swapchain.Images = images

	for _, image := range images {
		view, err := sm.ops.CreateImageView(image, sm.format.Format)
		if err != nil {
			sm.release(swapchain)
			return err
		}
		swapchain.Views = append(swapchain.Views, view)
	}

	for _, view := range swapchain.Views {
		framebuffer, err := sm.ops.CreateFramebuffer(sm.renderpass, view, extent)
		if err != nil {
			sm.release(swapchain)
			return err
		}
		swapchain.Framebuffers = append(swapchain.Framebuffers, framebuffer)
	}

	sm.generation++
	swapchain.Generation = sm.generation
	sm.current = swapchain
	sm.extent = extent
	core.LogInfo("Swapchain created with %d images at %dx%d.", len(images), extent.Width, extent.Height)
	return nil
}

// release destroys a possibly partial set, framebuffers first and the
// swapchain last.
func (sm *SwapchainManager) release(swapchain *VulkanSwapchain) {
	for _, framebuffer := range swapchain.Framebuffers {
		sm.ops.DestroyFramebuffer(framebuffer)
	}
	swapchain.Framebuffers = nil
	for _, view := range swapchain.Views {
		sm.ops.DestroyImageView(view)
	}
	swapchain.Views = nil
	swapchain.Images = nil
	sm.ops.DestroySwapchain(swapchain.Handle)
}

func (sm *SwapchainManager) destroyCurrent() {
	if sm.current == nil {
		return
	}
	sm.release(sm.current)
	sm.current = nil
}

// Destroy waits for the device and releases the current set.
func (sm *SwapchainManager) Destroy() error {
	if sm.current == nil {
		return nil
	}
	err := sm.ops.WaitIdle()
	sm.destroyCurrent()
	return err
}

func (sm *SwapchainManager) Current() *VulkanSwapchain {
	return sm.current
}

// Extent is the size of the last set built. It stays valid while a
// rebuild is pending so callers keep a usable projection.
func (sm *SwapchainManager) Extent() vk.Extent2D {
	return sm.extent
}

func (sm *SwapchainManager) Format() vk.SurfaceFormat {
	return sm.format
}

func (sm *SwapchainManager) Generation() uint64 {
	return sm.generation
}
