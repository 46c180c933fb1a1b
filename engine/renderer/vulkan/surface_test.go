package vulkan

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWindow struct {
	err   error
	calls int
}

func (w *fakeWindow) CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error) {
	w.calls++
	return 0, w.err
}

func TestSurfaceKindFromExtensions(t *testing.T) {
	tests := []struct {
		name       string
		extensions []string
		want       SurfaceKind
	}{
		{"win32", []string{"VK_KHR_surface", "VK_KHR_win32_surface"}, SurfaceKindWin32},
		{"xlib", []string{"VK_KHR_surface", "VK_KHR_xlib_surface"}, SurfaceKindXlib},
		{"xcb", []string{"VK_KHR_surface", "VK_KHR_xcb_surface"}, SurfaceKindXlib},
		{"wayland", []string{"VK_KHR_surface", "VK_KHR_wayland_surface"}, SurfaceKindWayland},
		{"metal", []string{"VK_KHR_surface", "VK_EXT_metal_surface"}, SurfaceKindMetal},
		{"moltenvk", []string{"VK_KHR_surface", "VK_MVK_macos_surface"}, SurfaceKindMetal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := SurfaceKindFromExtensions(tt.extensions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestSurfaceKindFromExtensionsUnsupported(t *testing.T) {
	kind, err := SurfaceKindFromExtensions([]string{"VK_KHR_surface", "VK_KHR_android_surface"})
	require.Error(t, err)
	assert.Equal(t, SurfaceKindUnknown, kind)
	assert.ErrorIs(t, err, core.ErrUnsupportedSurface)
	assert.Equal(t, core.KindFatal, core.KindOf(err))
}

func TestCreateSurfaceRejectsUnknownKind(t *testing.T) {
	window := &fakeWindow{}
	_, err := CreateSurface(&VulkanContext{}, SurfaceHandle{Kind: SurfaceKind(42), Window: window})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedSurface)
	assert.Equal(t, 0, window.calls)

	_, err = CreateSurface(&VulkanContext{}, SurfaceHandle{Kind: SurfaceKindUnknown, Window: window})
	assert.ErrorIs(t, err, core.ErrUnsupportedSurface)
}

func TestCreateSurfaceWindowFailureIsFatal(t *testing.T) {
	for _, kind := range []SurfaceKind{SurfaceKindWin32, SurfaceKindXlib, SurfaceKindWayland, SurfaceKindMetal} {
		t.Run(kind.String(), func(t *testing.T) {
			cause := errors.New("no display")
			window := &fakeWindow{err: cause}
			_, err := CreateSurface(&VulkanContext{}, SurfaceHandle{Kind: kind, Window: window})
			require.Error(t, err)
			assert.ErrorIs(t, err, cause)
			assert.Equal(t, core.KindFatal, core.KindOf(err))
			assert.Equal(t, 1, window.calls)
		})
	}
}

func TestCreateSurfaceWithoutWindow(t *testing.T) {
	_, err := CreateSurface(&VulkanContext{}, SurfaceHandle{Kind: SurfaceKindWayland})
	require.Error(t, err)
	assert.Equal(t, core.KindFatal, core.KindOf(err))
}

func TestSurfaceKindExtension(t *testing.T) {
	assert.Equal(t, "VK_KHR_xlib_surface", SurfaceKindXlib.Extension())
	assert.Equal(t, "VK_EXT_metal_surface", SurfaceKindMetal.Extension())
	assert.Empty(t, SurfaceKindUnknown.Extension())
}
