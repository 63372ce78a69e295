package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/nvlled/spincap/scene"
)

// Renderer is a small software rasterizer for scene registries. Every entity
// is drawn with the same mesh.
//
// Create it once and reuse it; it is not safe for concurrent use.
type Renderer struct {
	Mesh    Mesh
	Texture *Texture
	Overlay *Overlay

	// Lighting for materials that are not unlit.
	LightDir mgl32.Vec3
	Ambient  float32
}

func NewRenderer(tex *Texture) *Renderer {
	if tex == nil {
		tex = CheckerTexture(DefaultTextureSize, 8)
	}
	return &Renderer{
		Mesh:     UnitCube,
		Texture:  tex,
		LightDir: mgl32.Vec3{-0.4, -1, -0.6}.Normalize(),
		Ambient:  0.3,
	}
}

// RenderOnce draws s into t and returns a copy of the result.
func (r *Renderer) RenderOnce(t *Target, s *scene.Registry) (*image.RGBA, error) {
	if t == nil || s == nil {
		return nil, errors.New("render: nil target or scene")
	}
	w, h := t.Size()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: empty target %vx%v", w, h)
	}
	t.Clear(s.Clear)

	aspect := float32(w) / float32(h)
	vp := s.Camera.Projection(aspect).Mul4(s.Camera.View())

	s.Each(func(e *scene.Entity) {
		r.drawEntity(t, vp, e)
	})

	if r.Overlay != nil {
		r.Overlay.Draw(t.img, fmt.Sprint(s.Tick))
	}
	return t.Snapshot(), nil
}

type screenVertex struct {
	x, y, z float32
	invW    float32
	u, v    float32 // divided by w
}

func (r *Renderer) drawEntity(t *Target, vp mgl32.Mat4, e *scene.Entity) {
	m := r.Mesh
	if len(m.Vertices) == 0 || len(m.Indices) < 3 {
		return
	}
	model := e.Transform()
	mvp := vp.Mul4(model)
	w, h := t.Size()

	for i := 0; i+2 < len(m.Indices); i += 3 {
		var tri [3]screenVertex
		var world [3]mgl32.Vec3
		visible := true
		for k := 0; k < 3; k++ {
			idx := int(m.Indices[i+k])
			if idx >= len(m.Vertices) {
				visible = false
				break
			}
			vert := m.Vertices[idx]
			clip := mvp.Mul4x1(vert.Pos.Vec4(1))
			// Trivial clip: drop triangles touching the camera plane.
			if clip.W() <= 1e-5 {
				visible = false
				break
			}
			invW := 1 / clip.W()
			tri[k] = screenVertex{
				x:    (clip.X()*invW*0.5 + 0.5) * float32(w),
				y:    (1 - (clip.Y()*invW*0.5 + 0.5)) * float32(h),
				z:    clip.Z() * invW,
				invW: invW,
				u:    vert.UV.X() * invW,
				v:    vert.UV.Y() * invW,
			}
			world[k] = model.Mul4x1(vert.Pos.Vec4(1)).Vec3()
		}
		if !visible {
			continue
		}

		shade := float32(1)
		if !e.Material.Unlit {
			n := world[1].Sub(world[0]).Cross(world[2].Sub(world[0]))
			if n.Len() > 0 {
				d := float32(math.Abs(float64(n.Normalize().Dot(r.LightDir.Mul(-1)))))
				shade = clampF32(r.Ambient+d*(1-r.Ambient), 0, 1)
			}
		}
		r.fillTriangle(t, tri, e.Material, shade)
	}
}

func (r *Renderer) fillTriangle(t *Target, tri [3]screenVertex, mat scene.Material, shade float32) {
	w, h := t.Size()
	p0, p1, p2 := tri[0], tri[1], tri[2]

	minX := int(math.Floor(float64(min3(p0.x, p1.x, p2.x))))
	maxX := int(math.Ceil(float64(max3(p0.x, p1.x, p2.x))))
	minY := int(math.Floor(float64(min3(p0.y, p1.y, p2.y))))
	maxY := int(math.Ceil(float64(max3(p0.y, p1.y, p2.y))))
	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX >= w {
		maxX = w - 1
	}
	if maxY >= h {
		maxY = h - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	area := edgeFn(p0.x, p0.y, p1.x, p1.y, p2.x, p2.y)
	if area == 0 {
		return
	}
	invArea := 1 / area

	for y := minY; y <= maxY; y++ {
		cy := float32(y) + 0.5
		for x := minX; x <= maxX; x++ {
			cx := float32(x) + 0.5
			// Dividing by the signed area makes the weights positive inside
			// for either winding.
			a0 := edgeFn(p1.x, p1.y, p2.x, p2.y, cx, cy) * invArea
			a1 := edgeFn(p2.x, p2.y, p0.x, p0.y, cx, cy) * invArea
			a2 := edgeFn(p0.x, p0.y, p1.x, p1.y, cx, cy) * invArea
			if a0 < 0 || a1 < 0 || a2 < 0 {
				continue
			}

			c := mat.BaseColor
			if mat.Textured && r.Texture != nil {
				invW := a0*p0.invW + a1*p1.invW + a2*p2.invW
				u := (a0*p0.u + a1*p1.u + a2*p2.u) / invW
				v := (a0*p0.v + a1*p1.v + a2*p2.v) / invW
				c = modulate(r.Texture.Sample(u, v), mat.BaseColor)
			}
			if c.A == 0 {
				continue
			}
			z := a0*p0.z + a1*p1.z + a2*p2.z
			if !t.depthTest(x, y, z, c.A == 0xFF) {
				continue
			}
			if shade < 1 {
				c = scaleRGB(c, shade)
			}
			t.blend(x, y, c)
		}
	}
}

func edgeFn(x0, y0, x1, y1, x, y float32) float32 {
	return (x-x0)*(y1-y0) - (y-y0)*(x1-x0)
}

// modulate multiplies two premultiplied colors channel by channel.
func modulate(a, b color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(uint32(a.R) * uint32(b.R) / 255),
		G: uint8(uint32(a.G) * uint32(b.G) / 255),
		B: uint8(uint32(a.B) * uint32(b.B) / 255),
		A: uint8(uint32(a.A) * uint32(b.A) / 255),
	}
}

func scaleRGB(c color.RGBA, k float32) color.RGBA {
	return color.RGBA{
		R: uint8(float32(c.R) * k),
		G: uint8(float32(c.G) * k),
		B: uint8(float32(c.B) * k),
		A: c.A,
	}
}

func min3(a, b, c float32) float32 {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}

func max3(a, b, c float32) float32 {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}
