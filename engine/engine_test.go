package engine

import (
	"testing"

	"github.com/spaghettifunk/vibe/engine/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = e.assetManager.Shutdown()
		e.events.Shutdown()
	})
	e.registerEvents()
	return e
}

func TestEngineRedrawRequestReachesPlatform(t *testing.T) {
	e := newTestEngine(t)
	require.False(t, e.platform.TakeRedrawRequest())

	assert.True(t, e.events.Fire(core.EVENT_CODE_REDRAW_REQUESTED, e.platform, core.EventContext{}))
	assert.True(t, e.platform.TakeRedrawRequest())
	assert.False(t, e.platform.TakeRedrawRequest())
}

func TestEngineQuitEventStopsLoop(t *testing.T) {
	e := newTestEngine(t)
	e.isRunning.Store(true)

	assert.True(t, e.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, e.platform, core.EventContext{}))
	assert.False(t, e.isRunning.Load())
}

func TestEngineIgnoresEventsBeforeRendererExists(t *testing.T) {
	e := newTestEngine(t)

	context := core.EventContext{}
	context.Data.C[0] = e.config.Shaders.Dir
	assert.False(t, e.events.Fire(core.EVENT_CODE_SHADERS_CHANGED, e.assetManager, context))

	context = core.EventContext{}
	context.Data.U32[0], context.Data.U32[1] = 1024, 768
	assert.False(t, e.events.Fire(core.EVENT_CODE_RESIZED, e.platform, context))
	assert.NoError(t, e.eventErr)
}

func TestEngineRunRequiresInitialize(t *testing.T) {
	e := newTestEngine(t)
	assert.Error(t, e.Run())
}
