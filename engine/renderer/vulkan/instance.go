package vulkan

import (
	"runtime"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
)

type instanceConfig struct {
	ApplicationName string
	// Extensions the window system needs to create a surface.
	PlatformExtensions []string
	SurfaceKind        SurfaceKind
	Debug              bool
}

// requiredInstanceExtensions returns the extensions to enable and whether
// the portability enumeration flag must be set. Missing surface support is
// fatal; portability and debug reporting are enabled only when the loader
// offers them.
func requiredInstanceExtensions(kind SurfaceKind, platformExts, available []string, debug bool) ([]string, bool, error) {
	required := []string{surfaceExtensionName}
	required = appendUnique(required, platformExts...)
	for _, ext := range required {
		if !containsString(available, ext) {
			return nil, false, core.NewFatalError("select instance extensions", errors.Wrap(core.ErrMissingExtension, ext))
		}
	}
	// The kind extension is also requested when the window system went
	// through a sibling extension, e.g. xcb for an X11 display.
	if kindExt := kind.Extension(); kindExt != "" && containsString(available, kindExt) {
		required = appendUnique(required, kindExt)
	}

	portability := containsString(available, portabilityEnumerationExtensionName)
	if portability {
		required = appendUnique(required, portabilityEnumerationExtensionName)
	}
	if debug && containsString(available, debugReportExtensionName) {
		required = appendUnique(required, debugReportExtensionName)
	}
	return required, portability, nil
}

func availableInstanceExtensions() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceExtensionProperties("", &count, nil); res != vk.Success {
		return nil, resultError("enumerate instance extensions", res)
	}
	props := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateInstanceExtensionProperties("", &count, props); res != vk.Success {
		return nil, resultError("enumerate instance extensions", res)
	}
	names := make([]string, 0, count)
	for i := range props {
		props[i].Deref()
		names = append(names, vk.ToString(props[i].ExtensionName[:]))
	}
	return names, nil
}

func availableValidationLayers() ([]string, error) {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return nil, resultError("enumerate instance layers", res)
	}
	layers := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, layers); res != vk.Success {
		return nil, resultError("enumerate instance layers", res)
	}
	names := make([]string, 0, count)
	for i := range layers {
		layers[i].Deref()
		names = append(names, vk.ToString(layers[i].LayerName[:]))
	}
	return names, nil
}

// createInstance returns the enabled instance extensions.
func createInstance(context *VulkanContext, config instanceConfig) ([]string, error) {
	available, err := availableInstanceExtensions()
	if err != nil {
		return nil, err
	}
	core.LogDebug("Available instance extensions:")
	for _, ext := range available {
		core.LogDebug("  %s", ext)
	}

	extensions, portability, err := requiredInstanceExtensions(config.SurfaceKind, config.PlatformExtensions, available, config.Debug)
	if err != nil {
		return nil, err
	}
	core.LogInfo("Required extensions: %v", extensions)

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(config.ApplicationName),
		PEngineName:        VulkanSafeString("Vibe Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensions),
	}
	if portability {
		createInfo.Flags |= vk.InstanceCreateFlags(instanceCreateEnumeratePortabilityBit)
	}

	// Validation layers should only be enabled on debug runs. A missing layer
	// is not fatal: the run goes on without validation.
	if config.Debug {
		core.LogInfo("Validation layers enabled. Enumerating...")
		layers, err := availableValidationLayers()
		if err != nil {
			return nil, err
		}
		if containsString(layers, validationLayerName) {
			createInfo.EnabledLayerCount = 1
			createInfo.PpEnabledLayerNames = VulkanSafeStrings([]string{validationLayerName})
			core.LogInfo("Found %s.", validationLayerName)
		} else {
			core.LogWarn("Validation layer %s is missing, running without it.", validationLayerName)
		}
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, context.Allocator, &instance); res != vk.Success {
		return nil, resultError("create instance", res)
	}
	if err := adoptInstance(context, instance, vk.InitInstance); err != nil {
		return nil, err
	}

	core.LogInfo("Vulkan Instance created on %s.", runtime.GOOS)
	return extensions, nil
}

// adoptInstance stores instance on the context before loading its entry
// points, so Shutdown destroys it even when loading fails.
func adoptInstance(context *VulkanContext, instance vk.Instance, initInstance func(vk.Instance) error) error {
	context.Instance = instance
	if err := initInstance(instance); err != nil {
		return core.NewFatalError("init instance", err)
	}
	return nil
}
