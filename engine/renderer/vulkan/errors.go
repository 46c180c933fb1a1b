package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
)

// resultError wraps a failed vk call. Out-of-date surfaces are stale, lost
// devices and surfaces are unexpected, everything else is fatal.
func resultError(op string, res vk.Result) error {
	if res == vk.ErrorOutOfDate {
		return core.NewStaleError(op, errors.Wrap(core.ErrSwapchainOutOfDate, VulkanResultString(res, false)))
	}
	err := errors.Wrap(vk.Error(res), VulkanResultString(res, true))
	switch res {
	case vk.ErrorDeviceLost, vk.ErrorSurfaceLost:
		return core.NewUnexpectedError(op, err)
	}
	return core.NewFatalError(op, err)
}

// frameError is resultError for calls made while rendering a frame, where
// nothing but staleness has a recovery path.
func frameError(op string, res vk.Result) error {
	if res == vk.ErrorOutOfDate {
		return resultError(op, res)
	}
	return core.NewUnexpectedError(op, errors.Wrap(vk.Error(res), VulkanResultString(res, true)))
}

// isPresentable is true for results that still produced a usable image.
// Suboptimal swapchains keep rendering until they go out of date.
func isPresentable(res vk.Result) bool {
	return res == vk.Success || res == vk.Suboptimal
}
