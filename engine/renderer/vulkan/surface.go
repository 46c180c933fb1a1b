package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
)

// SurfaceKind is the windowing system behind a native window handle.
type SurfaceKind int

const (
	SurfaceKindUnknown SurfaceKind = iota
	// Win32 native window.
	SurfaceKindWin32
	// X11 display server, through Xlib or xcb.
	SurfaceKindXlib
	// Wayland display server.
	SurfaceKindWayland
	// CoreAnimation layer on macOS, through MoltenVK.
	SurfaceKindMetal
)

var surfaceKindExtensions = map[SurfaceKind]string{
	SurfaceKindWin32:   "VK_KHR_win32_surface",
	SurfaceKindXlib:    "VK_KHR_xlib_surface",
	SurfaceKindWayland: "VK_KHR_wayland_surface",
	SurfaceKindMetal:   "VK_EXT_metal_surface",
}

func (k SurfaceKind) String() string {
	switch k {
	case SurfaceKindWin32:
		return "win32"
	case SurfaceKindXlib:
		return "x11"
	case SurfaceKindWayland:
		return "wayland"
	case SurfaceKindMetal:
		return "metal"
	}
	return "unknown"
}

// Extension is the instance extension creating surfaces of this kind.
func (k SurfaceKind) Extension() string {
	return surfaceKindExtensions[k]
}

// SurfaceKindFromExtensions finds the windowing system from the instance
// extensions the window library asks for.
func SurfaceKindFromExtensions(extensions []string) (SurfaceKind, error) {
	for _, ext := range extensions {
		switch ext {
		case "VK_KHR_win32_surface":
			return SurfaceKindWin32, nil
		case "VK_KHR_xlib_surface", "VK_KHR_xcb_surface":
			return SurfaceKindXlib, nil
		case "VK_KHR_wayland_surface":
			return SurfaceKindWayland, nil
		case "VK_EXT_metal_surface", "VK_MVK_macos_surface":
			return SurfaceKindMetal, nil
		}
	}
	return SurfaceKindUnknown, core.NewFatalError("detect surface kind", errors.Wrapf(core.ErrUnsupportedSurface, "extensions %v", extensions))
}

// WindowSurfacer creates a Vulkan surface for a native window. A glfw window
// satisfies it.
type WindowSurfacer interface {
	CreateWindowSurface(instance interface{}, allocCallbacks unsafe.Pointer) (uintptr, error)
}

// SurfaceHandle is a native window tagged with its windowing system.
type SurfaceHandle struct {
	Kind   SurfaceKind
	Window WindowSurfacer
}

// CreateSurface creates the presentable surface for handle. Every supported
// kind produces the same opaque vk.Surface; any other kind is a
// configuration error.
func CreateSurface(context *VulkanContext, handle SurfaceHandle) (vk.Surface, error) {
	switch handle.Kind {
	case SurfaceKindWin32, SurfaceKindXlib, SurfaceKindWayland, SurfaceKindMetal:
		if handle.Window == nil {
			return vk.NullSurface, core.NewFatalError("create surface", errors.New("no window to create a surface for"))
		}
		ptr, err := handle.Window.CreateWindowSurface(context.Instance, nil)
		if err != nil {
			return vk.NullSurface, core.NewFatalError("create "+handle.Kind.String()+" surface", err)
		}
		core.LogDebug("Vulkan %s surface created.", handle.Kind)
		return vk.SurfaceFromPointer(ptr), nil
	default:
		return vk.NullSurface, core.NewFatalError("create surface", errors.Wrapf(core.ErrUnsupportedSurface, "kind %d", int(handle.Kind)))
	}
}
