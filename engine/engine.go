package engine

import (
	"image"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/spaghettifunk/vibe/engine/assets"
	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/spaghettifunk/vibe/engine/math"
	"github.com/spaghettifunk/vibe/engine/platform"
	"github.com/spaghettifunk/vibe/engine/renderer"
	"github.com/spaghettifunk/vibe/engine/renderer/components"
	"github.com/spaghettifunk/vibe/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
	// Engine released every resource
	EngineStageShutdown
)

var _ renderer.Window = (*platform.Platform)(nil)

type Engine struct {
	currentStage Stage
	config       *ApplicationConfig
	isRunning    atomic.Bool

	events       *core.EventSystem
	platform     *platform.Platform
	assetManager *assets.AssetManager
	backend      *vulkan.VulkanBackend
	renderer     *renderer.Renderer
	clock        *core.Clock

	// First error raised from an event callback; stops the loop.
	eventErr error
}

func New(config *ApplicationConfig) (*Engine, error) {
	if config == nil {
		config = DefaultApplicationConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	events := core.NewEventSystem()
	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       config,
		events:       events,
		platform:     platform.New(events),
		assetManager: am,
		backend:      vulkan.New(),
		clock:        core.NewClock(),
	}, nil
}

// Initialize opens the window and brings up the renderer. On failure the
// caller still has to call Shutdown.
func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if e.config.LogLevel != "" {
		if err := core.LogSetLevel(e.config.LogLevel); err != nil {
			core.LogWarn("unknown log level %q: %s", e.config.LogLevel, err)
		}
	}

	e.registerEvents()

	if err := e.assetManager.Initialize(e.config.Shaders.Dir); err != nil {
		// Without a watcher the engine still runs, shaders just won't reload.
		core.LogWarn("not watching shaders in %s: %s", e.config.Shaders.Dir, err)
	}

	windowConfig := platform.WindowConfig{
		Title:  e.config.Name,
		X:      e.config.StartPosX,
		Y:      e.config.StartPosY,
		Width:  e.config.StartWidth,
		Height: e.config.StartHeight,
		Icon:   e.loadIcon(),
	}
	if err := e.platform.Startup(windowConfig); err != nil {
		return err
	}

	vertexShader, fragmentShader, err := e.loadShaders()
	if err != nil {
		return core.NewFatalError("load shaders", err)
	}

	platformExtensions := e.platform.RequiredExtensions()
	kind, err := vulkan.SurfaceKindFromExtensions(platformExtensions)
	if err != nil {
		return err
	}

	width, height := e.platform.FramebufferSize()
	backendConfig := vulkan.VulkanBackendConfig{
		ApplicationName:    e.config.Name,
		Debug:              e.config.Debug,
		ProcAddr:           e.platform.VulkanProcAddr(),
		Surface:            vulkan.SurfaceHandle{Kind: kind, Window: e.platform.Window},
		PlatformExtensions: platformExtensions,
		Width:              width,
		Height:             height,
		VertexShader:       vertexShader,
		FragmentShader:     fragmentShader,
		Vertices:           math.GenerateDiscFan(e.config.Disc.Radius, e.config.Disc.Segments),
	}
	if err := e.backend.Initialize(backendConfig); err != nil {
		return err
	}

	// The disc starts at the center of what the swapchain really got.
	extentWidth, extentHeight := e.backend.Extent()
	bouncer := components.NewBouncer(extentWidth, extentHeight, e.config.Disc.Radius, e.config.Velocity())
	e.renderer = renderer.NewRenderer(e.backend, e.platform, bouncer, renderer.RendererConfig{
		VertexCount: e.config.VertexCount(),
		ClearColor:  e.config.Disc.ClearColor,
	})

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return errors.New("engine is not initialized")
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	e.clock.Start()

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			break
		}
		if e.eventErr != nil {
			return e.eventErr
		}

		if e.assetManager.TakeShadersChanged() {
			context := core.EventContext{}
			context.Data.C[0] = e.config.Shaders.Dir
			e.events.Fire(core.EVENT_CODE_SHADERS_CHANGED, e.assetManager, context)
		}

		width, height := e.platform.FramebufferSize()
		if width == 0 || height == 0 {
			// Minimized: nothing to draw into.
			e.platform.WaitMessages()
			continue
		}

		if !e.platform.TakeRedrawRequest() {
			e.platform.WaitMessages()
			continue
		}

		e.clock.Update()
		if err := e.renderer.Tick(e.clock.Now()); err != nil {
			core.LogError("Frame failed, shutting down: %s", err)
			e.isRunning.Store(false)
			return err
		}
	}
	e.isRunning.Store(false)
	core.LogInfo("Engine stopped after %s, %d frames presented, %d dropped, average frame time %.2f ms.",
		e.clock.Elapsed(), e.renderer.PresentedFrames(), e.renderer.DroppedFrames(), e.renderer.FrameTime())
	return nil
}

// Stop asks the loop to exit at its next iteration. Safe to call from any
// goroutine.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

// Shutdown releases everything in reverse creation order. It can be called
// after a failed Initialize.
func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShutdown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.clock.Stop()

	var result error
	if e.renderer != nil {
		if err := e.renderer.Shutdown(); err != nil {
			result = err
		}
	} else if err := e.backend.Shutdown(); err != nil {
		result = err
	}
	if err := e.assetManager.Shutdown(); err != nil {
		core.LogWarn(err.Error())
	}
	if err := e.platform.Shutdown(); err != nil && result == nil {
		result = err
	}
	e.events.Shutdown()

	e.currentStage = EngineStageShutdown
	return result
}

func (e *Engine) loadShaders() ([]uint32, []uint32, error) {
	vertex, err := e.assetManager.LoadShader(e.config.Shaders.Vertex)
	if err != nil {
		return nil, nil, err
	}
	fragment, err := e.assetManager.LoadShader(e.config.Shaders.Fragment)
	if err != nil {
		return nil, nil, err
	}
	return vertex, fragment, nil
}

// reloadShaders rebuilds the pipeline between two frames. A shader that
// fails to load or link leaves the running pipeline in place.
func (e *Engine) reloadShaders() {
	vertex, fragment, err := e.loadShaders()
	if err != nil {
		core.LogWarn("Shader reload skipped: %s", err)
		return
	}
	if err := e.renderer.ReloadPipeline(vertex, fragment); err != nil {
		core.LogWarn("Shader reload failed, keeping the current pipeline: %s", err)
		return
	}
	core.LogInfo("Shaders reloaded.")
}

func (e *Engine) loadIcon() image.Image {
	if e.config.Icon == "" {
		return nil
	}
	res, err := e.assetManager.LoadImage(e.config.Icon)
	if err != nil {
		core.LogWarn("Window icon not set: %s", err)
		return nil
	}
	img, ok := res.Data.(image.Image)
	if !ok {
		return nil
	}
	return img
}

func (e *Engine) registerEvents() {
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)
	e.events.Register(core.EVENT_CODE_REDRAW_REQUESTED, e, e.onRedrawRequested)
	e.events.Register(core.EVENT_CODE_SHADERS_CHANGED, e, e.onShadersChanged)
}

func (e *Engine) onEvent(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	switch code {
	case core.EVENT_CODE_APPLICATION_QUIT:
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.Stop()
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if code != core.EVENT_CODE_RESIZED || e.renderer == nil {
		return false
	}
	width := context.Data.U32[0]
	height := context.Data.U32[1]
	core.LogDebug("Window resize: %d, %d", width, height)

	if err := e.renderer.OnResize(width, height); err != nil {
		core.LogError("Resize failed: %s", err)
		if e.eventErr == nil {
			e.eventErr = err
		}
	}
	return true
}

func (e *Engine) onRedrawRequested(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	e.platform.RequestRedraw()
	return true
}

func (e *Engine) onShadersChanged(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	if e.renderer == nil {
		return false
	}
	core.LogDebug("Shaders changed in %s", context.Data.C[0])
	e.reloadShaders()
	return true
}
