package core

import (
	"time"

	"github.com/spaghettifunk/vibe/engine/containers"
)

const AVG_COUNT uint8 = 30

// FrameMetrics counts presented frames and reports the frame rate once per
// second. It also keeps a rolling average over the last AVG_COUNT frame
// times.
type FrameMetrics struct {
	msTimes    *containers.RingQueue[float64]
	msSum      float64
	msAvg      float64
	frames     uint32
	lastUpdate time.Time
	fps        float64
}

func NewFrameMetrics(start time.Time) *FrameMetrics {
	return &FrameMetrics{
		msTimes:    containers.NewRingQueue[float64](int(AVG_COUNT)),
		lastUpdate: start,
	}
}

// Update records one frame that took frameSeconds. It returns true when the
// FPS value was refreshed, which happens once at least a second has passed
// since the previous refresh.
func (m *FrameMetrics) Update(now time.Time, frameSeconds float64) bool {
	frameMS := frameSeconds * 1000.0
	if oldest, dropped := m.msTimes.Push(frameMS); dropped {
		m.msSum -= oldest
	}
	m.msSum += frameMS
	m.msAvg = m.msSum / float64(m.msTimes.Len())

	m.frames++
	elapsed := now.Sub(m.lastUpdate).Seconds()
	if elapsed < 1.0 {
		return false
	}
	m.fps = float64(m.frames) / elapsed
	m.frames = 0
	m.lastUpdate = now
	return true
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds.
func (m *FrameMetrics) FrameTime() float64 {
	return m.msAvg
}

func (m *FrameMetrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}
