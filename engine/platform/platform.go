package platform

import (
	"image"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/core"
)

// How long WaitMessages blocks at most, in seconds.
const waitTimeout = 0.1

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type WindowConfig struct {
	Title  string
	X, Y   uint32
	Width  uint32
	Height uint32
	Icon   image.Image
}

// Platform owns the glfw window. Window callbacks are turned into engine
// events and fire synchronously from PumpMessages.
type Platform struct {
	Window *glfw.Window

	events          *core.EventSystem
	redrawRequested bool
	width, height   uint32
}

func New(events *core.EventSystem) *Platform {
	return &Platform{
		Window: nil,
		events: events,
	}
}

func (p *Platform) Startup(config WindowConfig) error {
	if err := glfw.Init(); err != nil {
		return core.NewFatalError("initialize glfw", err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return core.NewFatalError("initialize glfw", errors.New("vulkan loader not found"))
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(config.Width), int(config.Height), config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return core.NewFatalError("create window", err)
	}
	p.Window = window

	if config.Icon != nil {
		p.Window.SetIcon([]image.Image{config.Icon})
	}

	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetRefreshCallback(p.refreshCallback)
	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetPos(int(config.X), int(config.Y))
	p.Window.Show()

	w, h := p.Window.GetFramebufferSize()
	p.width, p.height = uint32(w), uint32(h)
	p.redrawRequested = true

	core.LogInfo("Window created: %dx%d", p.width, p.height)
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes pending window events. It returns false once the
// window was asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// WaitMessages sleeps until an event arrives or a short timeout expires.
func (p *Platform) WaitMessages() {
	glfw.WaitEventsTimeout(waitTimeout)
}

func (p *Platform) FramebufferSize() (uint32, uint32) {
	return p.width, p.height
}

func (p *Platform) SetTitle(title string) {
	p.Window.SetTitle(title)
}

func (p *Platform) RequestRedraw() {
	p.redrawRequested = true
}

// TakeRedrawRequest reports whether a redraw was requested since the last
// call and clears the request.
func (p *Platform) TakeRedrawRequest() bool {
	requested := p.redrawRequested
	p.redrawRequested = false
	return requested
}

// RequiredExtensions are the instance extensions glfw needs to create a
// surface for its windows.
func (p *Platform) RequiredExtensions() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

func (p *Platform) VulkanProcAddr() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (p *Platform) Close() {
	p.Window.SetShouldClose(true)
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.width, p.height = uint32(width), uint32(height)
	context := core.EventContext{}
	context.Data.U32[0] = p.width
	context.Data.U32[1] = p.height
	p.events.Fire(core.EVENT_CODE_RESIZED, p, context)
}

func (p *Platform) closeCallback(w *glfw.Window) {
	core.LogInfo("Close requested, exiting")
	p.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, p, core.EventContext{})
}

func (p *Platform) refreshCallback(w *glfw.Window) {
	p.events.Fire(core.EVENT_CODE_REDRAW_REQUESTED, p, core.EventContext{})
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if key == glfw.KeyEscape && action == glfw.Press {
		w.SetShouldClose(true)
		p.closeCallback(w)
	}
}
