package renderer

import (
	"fmt"
	"time"

	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/spaghettifunk/vibe/engine/renderer/components"
)

const WindowTitleFormat = "Vulkan Vibe - FPS: %.1f"

// The first tick has no previous one to measure from.
const firstTickSeconds float32 = 1.0 / 60.0

type FrameState int

const (
	FrameIdle FrameState = iota
	FrameAcquiring
	FrameRecording
	FrameSubmitted
	FramePresenting
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameAcquiring:
		return "acquiring"
	case FrameRecording:
		return "recording"
	case FrameSubmitted:
		return "submitted"
	case FramePresenting:
		return "presenting"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type RendererConfig struct {
	VertexCount uint32
	ClearColor  [4]float32
}

// Renderer drives one frame per tick with a single frame in flight:
// Idle, Acquiring, Recording, Submitted, Presenting and back to Idle.
type Renderer struct {
	backend RendererBackend
	window  Window
	bouncer *components.Bouncer
	config  RendererConfig

	state    FrameState
	lastTick time.Time
	ticked   bool
	metrics  *core.FrameMetrics

	presentedFrames uint64
	droppedFrames   uint64
}

func NewRenderer(backend RendererBackend, window Window, bouncer *components.Bouncer, config RendererConfig) *Renderer {
	return &Renderer{
		backend: backend,
		window:  window,
		bouncer: bouncer,
		config:  config,
		state:   FrameIdle,
	}
}

// Tick advances the animation to now and draws one frame. A frame dropped
// because the swapchain went stale is not an error: the swapchain is
// rebuilt and another redraw is requested.
func (r *Renderer) Tick(now time.Time) error {
	dt := firstTickSeconds
	if r.ticked {
		dt = float32(now.Sub(r.lastTick).Seconds())
	} else {
		r.metrics = core.NewFrameMetrics(now)
	}
	r.lastTick = now
	r.ticked = true

	width, height := r.backend.Extent()
	if width == 0 || height == 0 {
		// No swapchain was ever built at a usable size.
		core.LogDebug("Frame dropped: swapchain extent is %dx%d", width, height)
		return r.dropFrame()
	}
	r.bouncer.SetBounds(width, height)
	r.bouncer.Step(dt)

	err := r.drawFrame(width, height)
	failedIn := r.state
	r.state = FrameIdle
	if err != nil {
		if !core.IsStale(err) {
			core.LogError("Frame failed while %s: %s", failedIn, err)
			return err
		}
		core.LogDebug("Frame dropped while %s: %s", failedIn, err)
		return r.dropFrame()
	}

	r.presentedFrames++
	if r.metrics.Update(now, float64(dt)) {
		fps, frameTime := r.metrics.Frame()
		core.LogDebug("FPS %.1f, average frame time %.2f ms", fps, frameTime)
		r.window.SetTitle(fmt.Sprintf(WindowTitleFormat, fps))
	}
	r.window.RequestRedraw()
	return nil
}

// dropFrame rebuilds the swapchain for the current window size and asks
// for another redraw. A rebuild that fails stale is retried next tick.
func (r *Renderer) dropFrame() error {
	r.droppedFrames++
	if err := r.recreate(r.window.FramebufferSize()); err != nil {
		return err
	}
	r.window.RequestRedraw()
	return nil
}

func (r *Renderer) drawFrame(width, height uint32) error {
	r.state = FrameAcquiring
	if err := r.backend.WaitForFrame(); err != nil {
		return err
	}
	imageIndex, err := r.backend.AcquireNextImage()
	if err != nil {
		return err
	}

	r.state = FrameRecording
	frame := FrameData{
		Width:       width,
		Height:      height,
		Transform:   r.bouncer.Transform(width, height),
		VertexCount: r.config.VertexCount,
		ClearColor:  r.config.ClearColor,
	}
	if err := r.backend.RecordFrame(imageIndex, frame); err != nil {
		return err
	}
	if err := r.backend.Submit(); err != nil {
		return err
	}
	r.state = FrameSubmitted

	r.state = FramePresenting
	return r.backend.Present(imageIndex)
}

// OnResize rebuilds the swapchain for the new framebuffer size right away.
// A zero sized framebuffer (minimized window) keeps the old swapchain.
func (r *Renderer) OnResize(width, height uint32) error {
	if width == 0 || height == 0 {
		core.LogDebug("Window minimized, keeping the swapchain.")
		return nil
	}
	if err := r.recreate(width, height); err != nil {
		return err
	}
	r.window.RequestRedraw()
	return nil
}

func (r *Renderer) recreate(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if err := r.backend.RecreateSwapchain(width, height); err != nil {
		if core.IsStale(err) {
			core.LogDebug("Swapchain recreation deferred: %s", err)
			return nil
		}
		return err
	}
	return nil
}

// ReloadPipeline swaps in new shaders between two frames.
func (r *Renderer) ReloadPipeline(vertex, fragment []uint32) error {
	if err := r.backend.ReloadPipeline(vertex, fragment); err != nil {
		return err
	}
	r.window.RequestRedraw()
	return nil
}

func (r *Renderer) Shutdown() error {
	return r.backend.Shutdown()
}

func (r *Renderer) State() FrameState {
	return r.state
}

// FrameTime is the rolling average frame time in milliseconds.
func (r *Renderer) FrameTime() float64 {
	if r.metrics == nil {
		return 0
	}
	return r.metrics.FrameTime()
}

func (r *Renderer) FPS() float64 {
	if r.metrics == nil {
		return 0
	}
	return r.metrics.FPS()
}

func (r *Renderer) PresentedFrames() uint64 {
	return r.presentedFrames
}

func (r *Renderer) DroppedFrames() uint64 {
	return r.droppedFrames
}

func (r *Renderer) Bouncer() *components.Bouncer {
	return r.bouncer
}
