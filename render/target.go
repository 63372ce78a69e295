package render

import (
	"image"
	"image/color"
)

// Target is an off-screen color buffer with a depth buffer of the same size.
//
// Create it once and reuse it across frames to avoid allocations.
type Target struct {
	img   *image.RGBA
	depth []float32
}

func NewTarget(w, h int) *Target {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Target{
		img:   image.NewRGBA(image.Rect(0, 0, w, h)),
		depth: make([]float32, w*h),
	}
}

func (t *Target) Size() (w, h int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

func (t *Target) Clear(c color.RGBA) {
	pix := t.img.Pix
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i+0] = c.R
		pix[i+1] = c.G
		pix[i+2] = c.B
		pix[i+3] = c.A
	}
	for i := range t.depth {
		t.depth[i] = 1e9
	}
}

// Snapshot copies the color buffer into a new image owned by the caller.
func (t *Target) Snapshot() *image.RGBA {
	out := image.NewRGBA(t.img.Rect)
	copy(out.Pix, t.img.Pix)
	return out
}

// depthTest keeps the fragment when it is closer than what is stored and
// records its depth when write is set.
func (t *Target) depthTest(x, y int, z float32, write bool) bool {
	w, h := t.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return false
	}
	// NDC z is in [-1,1]. Map to [0,1].
	d := z*0.5 + 0.5
	if d < 0 || d > 1 {
		return false
	}
	idx := y*w + x
	if d >= t.depth[idx] {
		return false
	}
	if write {
		t.depth[idx] = d
	}
	return true
}

// blend draws the premultiplied color c over the pixel at (x, y).
func (t *Target) blend(x, y int, c color.RGBA) {
	i := t.img.PixOffset(x, y)
	pix := t.img.Pix[i : i+4 : i+4]
	if c.A == 0xFF {
		pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, 0xFF
		return
	}
	inv := 255 - uint32(c.A)
	pix[0] = c.R + uint8(uint32(pix[0])*inv/255)
	pix[1] = c.G + uint8(uint32(pix[1])*inv/255)
	pix[2] = c.B + uint8(uint32(pix[2])*inv/255)
	pix[3] = c.A + uint8(uint32(pix[3])*inv/255)
}
