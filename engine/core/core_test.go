package core

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderErrorKinds(t *testing.T) {
	stale := NewStaleError("acquire next image", ErrSwapchainOutOfDate)
	assert.Equal(t, KindStale, KindOf(stale))
	assert.True(t, IsStale(stale))
	assert.ErrorIs(t, stale, ErrSwapchainOutOfDate)

	wrapped := fmt.Errorf("frame 12: %w", stale)
	assert.True(t, IsStale(wrapped))

	fatal := NewFatalError("create instance", ErrNoPhysicalDevice)
	assert.Equal(t, KindFatal, KindOf(fatal))
	assert.False(t, IsStale(fatal))
	assert.Equal(t, "fatal: create instance: no vulkan physical device available", fatal.Error())

	assert.Equal(t, KindUnexpected, KindOf(NewUnexpectedError("submit", ErrUnknown)))
	assert.Equal(t, KindFatal, KindOf(errors.New("plain")))
	assert.False(t, IsStale(nil))
}

func TestEventSystem(t *testing.T) {
	es := NewEventSystem()
	var got []uint32
	listener := &struct{}{}
	onResize := func(code SystemEventCode, sender, l interface{}, data EventContext) bool {
		got = append(got, data.Data.U32[0], data.Data.U32[1])
		return true
	}

	require.True(t, es.Register(EVENT_CODE_RESIZED, listener, onResize))
	assert.False(t, es.Register(EVENT_CODE_RESIZED, listener, onResize))

	ctx := EventContext{}
	ctx.Data.U32[0] = 800
	ctx.Data.U32[1] = 600
	assert.True(t, es.Fire(EVENT_CODE_RESIZED, nil, ctx))
	assert.Equal(t, []uint32{800, 600}, got)

	assert.False(t, es.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))

	assert.True(t, es.Unregister(EVENT_CODE_RESIZED, listener))
	assert.False(t, es.Unregister(EVENT_CODE_RESIZED, listener))
	assert.False(t, es.Fire(EVENT_CODE_RESIZED, nil, ctx))
}

func TestEventSystemStopsAtFirstHandler(t *testing.T) {
	es := NewEventSystem()
	calls := 0
	handled := func(SystemEventCode, interface{}, interface{}, EventContext) bool { calls++; return true }
	es.Register(EVENT_CODE_REDRAW_REQUESTED, "a", handled)
	es.Register(EVENT_CODE_REDRAW_REQUESTED, "b", handled)

	assert.True(t, es.Fire(EVENT_CODE_REDRAW_REQUESTED, nil, EventContext{}))
	assert.Equal(t, 1, calls)
}

func TestFrameMetrics(t *testing.T) {
	start := time.Unix(0, 0)
	m := NewFrameMetrics(start)

	for i := 1; i < 60; i++ {
		assert.False(t, m.Update(start.Add(time.Duration(i)*time.Second/60), 1.0/60.0))
	}
	assert.True(t, m.Update(start.Add(time.Second), 1.0/60.0))
	assert.InDelta(t, 60.0, m.FPS(), 1e-9)
	assert.InDelta(t, 1000.0/60.0, m.FrameTime(), 1e-9)

	// The counter restarts after a refresh.
	assert.False(t, m.Update(start.Add(time.Second+time.Millisecond), 0.001))
	assert.True(t, m.Update(start.Add(3*time.Second), 2.0))
	assert.InDelta(t, 1.0, m.FPS(), 1e-9)
}

func TestClock(t *testing.T) {
	now := time.Unix(100, 0)
	c := NewClockWithSource(func() time.Time { return now })
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	now = now.Add(250 * time.Millisecond)
	c.Update()
	assert.Equal(t, 250*time.Millisecond, c.Elapsed())

	c.Stop()
	now = now.Add(time.Second)
	c.Update()
	assert.Equal(t, 250*time.Millisecond, c.Elapsed())
}

func TestLogSetLevel(t *testing.T) {
	assert.NoError(t, LogSetLevel("debug"))
	assert.Error(t, LogSetLevel("loud"))
	assert.NoError(t, LogSetLevel("info"))
}
