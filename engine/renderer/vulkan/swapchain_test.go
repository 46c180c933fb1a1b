package vulkan

import (
	"errors"
	"fmt"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSwapchainOps struct {
	support    SwapchainSupport
	imageCount int

	failViewAt int
	// Returned by the next CreateSwapchain calls, one per call.
	createErrs []error
	requests   []swapchainRequest
	calls      []string

	liveSwapchains   int
	liveViews        int
	liveFramebuffers int
}

func newFakeSwapchainOps() *fakeSwapchainOps {
	return &fakeSwapchainOps{
		support: SwapchainSupport{
			Capabilities: vk.SurfaceCapabilities{
				MinImageCount:           2,
				MaxImageCount:           8,
				CurrentExtent:           vk.Extent2D{Width: 800, Height: 600},
				MinImageExtent:          vk.Extent2D{Width: 1, Height: 1},
				MaxImageExtent:          vk.Extent2D{Width: 4096, Height: 4096},
				SupportedCompositeAlpha: vk.CompositeAlphaFlags(vk.CompositeAlphaOpaqueBit),
			},
			Formats: []vk.SurfaceFormat{
				{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
				{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
			},
			PresentModes: []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		},
		failViewAt: -1,
	}
}

func (f *fakeSwapchainOps) WaitIdle() error {
	f.calls = append(f.calls, "wait-idle")
	return nil
}

func (f *fakeSwapchainOps) QuerySupport() (*SwapchainSupport, error) {
	f.calls = append(f.calls, "query")
	support := f.support
	return &support, nil
}

func (f *fakeSwapchainOps) CreateSwapchain(request swapchainRequest) (vk.Swapchain, error) {
	f.calls = append(f.calls, "create-swapchain")
	f.requests = append(f.requests, request)
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return vk.NullSwapchain, err
		}
	}
	if f.imageCount == 0 {
		f.imageCount = int(request.ImageCount)
	}
	f.liveSwapchains++
	return vk.NullSwapchain, nil
}

func (f *fakeSwapchainOps) GetImages(swapchain vk.Swapchain) ([]vk.Image, error) {
	return make([]vk.Image, f.imageCount), nil
}

func (f *fakeSwapchainOps) CreateImageView(image vk.Image, format vk.Format) (vk.ImageView, error) {
	if f.failViewAt >= 0 && f.liveViews == f.failViewAt {
		return vk.NullImageView, core.NewFatalError("create image view", errors.New("out of memory"))
	}
	f.calls = append(f.calls, "create-view")
	f.liveViews++
	return vk.NullImageView, nil
}

func (f *fakeSwapchainOps) CreateFramebuffer(renderpass vk.RenderPass, view vk.ImageView, extent vk.Extent2D) (vk.Framebuffer, error) {
	f.calls = append(f.calls, "create-framebuffer")
	f.liveFramebuffers++
	return vk.NullFramebuffer, nil
}

func (f *fakeSwapchainOps) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	f.calls = append(f.calls, "destroy-framebuffer")
	f.liveFramebuffers--
}

func (f *fakeSwapchainOps) DestroyImageView(view vk.ImageView) {
	f.calls = append(f.calls, "destroy-view")
	f.liveViews--
}

func (f *fakeSwapchainOps) DestroySwapchain(swapchain vk.Swapchain) {
	f.calls = append(f.calls, "destroy-swapchain")
	f.liveSwapchains--
}

func (f *fakeSwapchainOps) resetCalls() {
	f.calls = nil
}

func assertCountInvariant(t *testing.T, sc *VulkanSwapchain) {
	t.Helper()
	require.NotNil(t, sc)
	assert.Equal(t, len(sc.Images), len(sc.Views))
	assert.Equal(t, len(sc.Views), len(sc.Framebuffers))
}

func TestSwapchainBuildKeepsCountsEqual(t *testing.T) {
	for _, images := range []int{1, 2, 3, 5} {
		t.Run(fmt.Sprintf("%d images", images), func(t *testing.T) {
			ops := newFakeSwapchainOps()
			ops.imageCount = images
			sm := newSwapchainManager(ops, SwapchainPolicy{})

			require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))
			assertCountInvariant(t, sm.Current())
			assert.Len(t, sm.Current().Images, images)
			assert.Equal(t, uint64(1), sm.Generation())
			assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, sm.Extent())
		})
	}
}

func TestSwapchainBuildUsesDefaultPolicy(t *testing.T) {
	ops := newFakeSwapchainOps()
	sm := newSwapchainManager(ops, SwapchainPolicy{})

	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))
	require.Len(t, ops.requests, 1)
	request := ops.requests[0]
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, request.Format.Format)
	assert.Equal(t, vk.PresentModeMailbox, request.PresentMode)
	assert.Equal(t, uint32(3), request.ImageCount)
	assert.Equal(t, vk.CompositeAlphaOpaqueBit, request.Alpha)
}

func TestSwapchainBuildUsesInjectedPolicy(t *testing.T) {
	ops := newFakeSwapchainOps()
	sm := newSwapchainManager(ops, SwapchainPolicy{
		ChooseFormat: func(formats []vk.SurfaceFormat) vk.SurfaceFormat {
			return formats[len(formats)-1]
		},
		ChoosePresentMode: func([]vk.PresentMode) vk.PresentMode {
			return vk.PresentModeFifo
		},
	})

	format, err := sm.SelectSurfaceFormat()
	require.NoError(t, err)
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, format.Format)

	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))
	assert.Equal(t, vk.FormatB8g8r8a8Unorm, ops.requests[0].Format.Format)
	assert.Equal(t, vk.PresentModeFifo, ops.requests[0].PresentMode)
}

func TestSwapchainFormatIsKeptAcrossRecreation(t *testing.T) {
	ops := newFakeSwapchainOps()
	sm := newSwapchainManager(ops, SwapchainPolicy{})
	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))

	// The surface now reports a different order; the first choice sticks.
	ops.support.Formats = []vk.SurfaceFormat{
		{Format: vk.FormatR8g8b8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear},
		{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear},
	}
	require.NoError(t, sm.Recreate(800, 600))
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, ops.requests[1].Format.Format)
	assert.Equal(t, vk.FormatB8g8r8a8Srgb, sm.Format().Format)
}

func TestSwapchainRecreateWaitsIdleBeforeDestroying(t *testing.T) {
	ops := newFakeSwapchainOps()
	ops.imageCount = 2
	sm := newSwapchainManager(ops, SwapchainPolicy{})
	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))
	ops.resetCalls()

	require.NoError(t, sm.Recreate(1024, 768))
	assert.Equal(t, []string{
		"wait-idle",
		"query",
		"destroy-framebuffer", "destroy-framebuffer",
		"destroy-view", "destroy-view",
		"destroy-swapchain",
		"create-swapchain",
		"create-view", "create-view",
		"create-framebuffer", "create-framebuffer",
	}, ops.calls)
}

func TestSwapchainRecreateIsIdempotent(t *testing.T) {
	ops := newFakeSwapchainOps()
	sm := newSwapchainManager(ops, SwapchainPolicy{})
	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))
	first := len(sm.Current().Images)

	require.NoError(t, sm.Recreate(800, 600))
	require.NoError(t, sm.Recreate(800, 600))

	assertCountInvariant(t, sm.Current())
	assert.Len(t, sm.Current().Images, first)
	assert.Equal(t, uint64(3), sm.Generation())
	assert.Equal(t, uint64(3), sm.Current().Generation)
	assert.Equal(t, 1, ops.liveSwapchains)
	assert.Equal(t, first, ops.liveViews)
	assert.Equal(t, first, ops.liveFramebuffers)
}

func TestSwapchainRecreateWithZeroExtentKeepsOldSet(t *testing.T) {
	ops := newFakeSwapchainOps()
	sm := newSwapchainManager(ops, SwapchainPolicy{})
	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))
	old := sm.Current()

	ops.support.Capabilities.CurrentExtent = vk.Extent2D{Width: 0, Height: 0}
	err := sm.Recreate(0, 0)
	require.Error(t, err)
	assert.True(t, core.IsStale(err))
	assert.ErrorIs(t, err, core.ErrWindowMinimized)

	assert.Same(t, old, sm.Current())
	assert.Equal(t, uint64(1), sm.Generation())
	assert.Equal(t, 1, ops.liveSwapchains)
}

func TestSwapchainRecreateFailureKeepsLastExtent(t *testing.T) {
	ops := newFakeSwapchainOps()
	sm := newSwapchainManager(ops, SwapchainPolicy{})
	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))

	ops.createErrs = []error{resultError("create swapchain", vk.ErrorOutOfDate)}
	err := sm.Recreate(800, 600)
	require.Error(t, err)
	assert.True(t, core.IsStale(err))
	assert.Nil(t, sm.Current())
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, sm.Extent())
	assert.Equal(t, uint64(1), sm.Generation())
	assert.Equal(t, 0, ops.liveSwapchains)
	assert.Equal(t, 0, ops.liveViews)

	// The next attempt builds a fresh set from nothing.
	ops.support.Capabilities.CurrentExtent = vk.Extent2D{Width: 640, Height: 480}
	require.NoError(t, sm.Recreate(640, 480))
	assertCountInvariant(t, sm.Current())
	assert.Equal(t, uint64(2), sm.Generation())
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, sm.Extent())
	assert.Equal(t, 1, ops.liveSwapchains)
}

func TestSwapchainBuildCleansUpOnFailure(t *testing.T) {
	ops := newFakeSwapchainOps()
	ops.imageCount = 3
	ops.failViewAt = 2
	sm := newSwapchainManager(ops, SwapchainPolicy{})

	err := sm.Build(vk.NullRenderPass, 800, 600)
	require.Error(t, err)
	assert.Equal(t, core.KindFatal, core.KindOf(err))
	assert.Nil(t, sm.Current())
	assert.Equal(t, 0, ops.liveSwapchains)
	assert.Equal(t, 0, ops.liveViews)
	assert.Equal(t, 0, ops.liveFramebuffers)
}

func TestSwapchainDestroy(t *testing.T) {
	ops := newFakeSwapchainOps()
	sm := newSwapchainManager(ops, SwapchainPolicy{})
	require.NoError(t, sm.Build(vk.NullRenderPass, 800, 600))
	ops.resetCalls()

	require.NoError(t, sm.Destroy())
	require.NotEmpty(t, ops.calls)
	assert.Equal(t, "wait-idle", ops.calls[0])
	assert.Nil(t, sm.Current())
	assert.Equal(t, 0, ops.liveSwapchains)

	// A second call has nothing left to release.
	ops.resetCalls()
	require.NoError(t, sm.Destroy())
	assert.Empty(t, ops.calls)
}

func TestSwapchainBuildRejectsSurfaceWithoutFormats(t *testing.T) {
	ops := newFakeSwapchainOps()
	ops.support.Formats = nil
	sm := newSwapchainManager(ops, SwapchainPolicy{})

	err := sm.Build(vk.NullRenderPass, 800, 600)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedSurface)
}

func TestPreferMailboxPresentMode(t *testing.T) {
	tests := []struct {
		name  string
		modes []vk.PresentMode
		want  vk.PresentMode
	}{
		{"mailbox", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate, vk.PresentModeMailbox}, vk.PresentModeMailbox},
		{"immediate", []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeImmediate}, vk.PresentModeImmediate},
		{"fifo only", []vk.PresentMode{vk.PresentModeFifo}, vk.PresentModeFifo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PreferMailboxPresentMode(tt.modes))
		})
	}
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 640, Height: 480},
		MinImageExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: vk.Extent2D{Width: 1920, Height: 1080},
	}
	assert.Equal(t, vk.Extent2D{Width: 640, Height: 480}, ChooseExtent(caps, 800, 600))

	caps.CurrentExtent = vk.Extent2D{Width: vk.MaxUint32, Height: vk.MaxUint32}
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, ChooseExtent(caps, 800, 600))
	assert.Equal(t, vk.Extent2D{Width: 1920, Height: 100}, ChooseExtent(caps, 4000, 10))
}

func TestChooseImageCount(t *testing.T) {
	tests := []struct {
		name     string
		min, max uint32
		want     uint32
	}{
		{"one above minimum", 2, 8, 3},
		{"unbounded", 3, 0, 4},
		{"clamped to maximum", 2, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caps := vk.SurfaceCapabilities{MinImageCount: tt.min, MaxImageCount: tt.max}
			assert.Equal(t, tt.want, ChooseImageCount(caps))
		})
	}
}
