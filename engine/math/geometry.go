package math

// GenerateDiscFan builds the vertices of a filled disc centered on the
// origin, laid out for a triangle fan: the center first, then segments+1
// rim points so the last one closes the loop on the first.
func GenerateDiscFan(radius float32, segments uint32) []Vertex2D {
	vertices := make([]Vertex2D, 0, segments+2)
	vertices = append(vertices, Vertex2D{Position: NewVec2Zero()})
	for i := uint32(0); i <= segments; i++ {
		angle := float32(i) / float32(segments) * K_PI_2
		vertices = append(vertices, Vertex2D{
			Position: NewVec2(radius*kcos(angle), radius*ksin(angle)),
		})
	}
	return vertices
}

// VerticesToFloats flattens vertices into the packed x,y layout uploaded to
// the vertex buffer.
func VerticesToFloats(vertices []Vertex2D) []float32 {
	out := make([]float32, 0, len(vertices)*2)
	for _, v := range vertices {
		out = append(out, v.Position.X, v.Position.Y)
	}
	return out
}
