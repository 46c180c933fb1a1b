package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDiscFan(t *testing.T) {
	vertices := GenerateDiscFan(50, 32)
	require.Len(t, vertices, 34)

	assert.Equal(t, NewVec2Zero(), vertices[0].Position)
	assert.True(t, vertices[1].Position.Compare(NewVec2(50, 0), 1e-4))
	assert.True(t, vertices[9].Position.Compare(NewVec2(0, 50), 1e-4))
	assert.True(t, vertices[33].Position.Compare(vertices[1].Position, 1e-4))

	for i, v := range vertices[1:] {
		assert.InDelta(t, 50.0, v.Position.Length(), 1e-3, "rim vertex %d", i)
	}
}

func TestVerticesToFloats(t *testing.T) {
	floats := VerticesToFloats([]Vertex2D{{Position: NewVec2(1, 2)}, {Position: NewVec2(3, 4)}})
	assert.Equal(t, []float32{1, 2, 3, 4}, floats)
}

func TestOrthographicMapsScreenToClip(t *testing.T) {
	ortho := NewMat4Orthographic(0, 800, 600, 0, -1, 1)

	origin := ortho.MulVec4(NewVec4(0, 0, 0, 1))
	assert.InDelta(t, -1.0, origin.X, 1e-6)
	assert.InDelta(t, 1.0, origin.Y, 1e-6)

	far := ortho.MulVec4(NewVec4(800, 600, 0, 1))
	assert.InDelta(t, 1.0, far.X, 1e-6)
	assert.InDelta(t, -1.0, far.Y, 1e-6)

	center := ortho.MulVec4(NewVec4(400, 300, 0, 1))
	assert.InDelta(t, 0.0, center.X, 1e-6)
	assert.InDelta(t, 0.0, center.Y, 1e-6)
}

func TestMulAppliesReceiverFirst(t *testing.T) {
	translation := NewMat4Translation(Vec3{X: 400, Y: 300})
	ortho := NewMat4Orthographic(0, 800, 600, 0, -1, 1)

	// Projection after translation: the local origin lands on the screen center.
	mvp := translation.Mul(ortho)
	out := mvp.MulVec4(NewVec4(0, 0, 0, 1))
	assert.InDelta(t, 0.0, out.X, 1e-6)
	assert.InDelta(t, 0.0, out.Y, 1e-6)
	assert.InDelta(t, 1.0, out.W, 1e-6)

	assert.Equal(t, translation, translation.Mul(NewMat4Identity()))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, uint32(200), Clamp(uint32(100), 200, 4096))
	assert.Equal(t, uint32(4096), Clamp(uint32(5000), 200, 4096))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}
