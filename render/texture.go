package render

import (
	"fmt"
	"image"
	"image/color"
	"os"

	// decoders accepted by LoadTexture
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const DefaultTextureSize = 256

var (
	checkerLight = color.RGBA{0, 255, 255, 255}
	checkerDark  = color.RGBA{0, 90, 90, 255}
)

// Texture is a square, power-of-two, premultiplied RGBA image.
type Texture struct {
	img  *image.RGBA
	size int
}

// NewTexture resamples src into a square texture. size is rounded up to a
// power of two.
func NewTexture(src image.Image, size int) *Texture {
	size = nextPowerOfTwo(size)
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.CatmullRom.Scale(img, img.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return &Texture{img: img, size: size}
}

func LoadTexture(path string, size int) (*Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	src, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode texture %v: %w", path, err)
	}
	if b := src.Bounds(); b.Empty() {
		return nil, fmt.Errorf("texture %v (%v) is empty", path, format)
	}
	return NewTexture(src, size), nil
}

// CheckerTexture is used when no texture file is given.
func CheckerTexture(size, cells int) *Texture {
	size = nextPowerOfTwo(size)
	if cells <= 0 {
		cells = 8
	}
	cell := size / cells
	if cell == 0 {
		cell = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := checkerDark
			if (x/cell+y/cell)%2 == 0 {
				c = checkerLight
			}
			img.SetRGBA(x, y, c)
		}
	}
	return &Texture{img: img, size: size}
}

func (t *Texture) Size() int { return t.size }

func (t *Texture) Image() *image.RGBA { return t.img }

// Sample returns the nearest texel for (u, v) clamped to [0,1].
func (t *Texture) Sample(u, v float32) color.RGBA {
	x := int(clampF32(u, 0, 1) * float32(t.size))
	y := int(clampF32(v, 0, 1) * float32(t.size))
	if x >= t.size {
		x = t.size - 1
	}
	if y >= t.size {
		y = t.size - 1
	}
	i := y*t.img.Stride + x*4
	pix := t.img.Pix[i : i+4 : i+4]
	return color.RGBA{pix[0], pix[1], pix[2], pix[3]}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func clampF32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
