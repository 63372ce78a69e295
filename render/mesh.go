package render

import "github.com/go-gl/mathgl/mgl32"

type Vertex struct {
	Pos mgl32.Vec3
	UV  mgl32.Vec2
}

// Mesh is an indexed triangle list.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint16
}

// UnitCube is a 1×1×1 cube centered on the origin. Each face has its own four
// vertices so that every face maps the whole texture.
var UnitCube = newCube(0.5)

func newCube(half float32) Mesh {
	faces := [6][3]mgl32.Vec3{
		// normal, u axis, v axis
		{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
		{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
		{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
		{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
		{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
		{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	}
	corners := [4]struct {
		su, sv float32
		uv     mgl32.Vec2
	}{
		{-1, -1, mgl32.Vec2{0, 1}},
		{1, -1, mgl32.Vec2{1, 1}},
		{1, 1, mgl32.Vec2{1, 0}},
		{-1, 1, mgl32.Vec2{0, 0}},
	}

	var m Mesh
	for _, f := range faces {
		n, u, v := f[0], f[1], f[2]
		base := uint16(len(m.Vertices))
		for _, c := range corners {
			pos := n.Add(u.Mul(c.su)).Add(v.Mul(c.sv)).Mul(half)
			m.Vertices = append(m.Vertices, Vertex{Pos: pos, UV: c.uv})
		}
		m.Indices = append(m.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return m
}
