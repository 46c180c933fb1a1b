package components

import (
	"github.com/spaghettifunk/vibe/engine/math"
)

const (
	DEFAULT_BOUNCER_RADIUS float32 = 50.0
)

// DefaultBouncerVelocity is the starting speed in pixels per second.
var DefaultBouncerVelocity = math.NewVec2(200.0, 150.0)

/**
 * @brief A shape moving at constant speed inside the window rectangle and
 * reflecting off its edges. Owned by the renderer; nothing else mutates it.
 */
type Bouncer struct {
	/** @brief Center of the shape, in pixels. */
	Position math.Vec2
	/** @brief Pixels per second. */
	Velocity math.Vec2
	/** @brief Distance from the center to the leading edge. */
	Radius float32
	/** @brief The rectangle the shape bounces in: (0,0) to Bounds. */
	Bounds math.Vec2
}

// NewBouncer places the shape at the center of a width x height window.
func NewBouncer(width, height uint32, radius float32, velocity math.Vec2) *Bouncer {
	b := &Bouncer{
		Velocity: velocity,
		Radius:   radius,
	}
	b.SetBounds(width, height)
	b.Position = math.NewVec2(b.Bounds.X*0.5, b.Bounds.Y*0.5)
	return b
}

// SetBounds changes the bounding rectangle. The position is left alone so a
// shrinking window reflects the shape on the next step.
func (b *Bouncer) SetBounds(width, height uint32) {
	b.Bounds = math.NewVec2(float32(width), float32(height))
}

// Step advances the shape by dt seconds. The bounds check runs on the moved
// position and only flips velocity; the shape may overlap an edge for one
// step before heading back. A component already pointing back inside is
// left alone, so a shape stranded outside shrunken bounds returns instead
// of flipping every step.
func (b *Bouncer) Step(dt float32) {
	b.Position = b.Position.Add(b.Velocity.MulScalar(dt))
	b.Velocity.X = reflect(b.Position.X, b.Velocity.X, b.Radius, b.Bounds.X)
	b.Velocity.Y = reflect(b.Position.Y, b.Velocity.Y, b.Radius, b.Bounds.Y)
}

func reflect(position, velocity, radius, bound float32) float32 {
	if position-radius < 0.0 && velocity < 0.0 {
		return -velocity
	}
	if position+radius > bound && velocity > 0.0 {
		return -velocity
	}
	return velocity
}

// Transform returns projection x translation for a width x height target.
func (b *Bouncer) Transform(width, height uint32) math.Mat4 {
	ortho := math.NewMat4Orthographic(0, float32(width), float32(height), 0, -1.0, 1.0)
	translation := math.NewMat4Translation(math.Vec3{X: b.Position.X, Y: b.Position.Y})
	return translation.Mul(ortho)
}
