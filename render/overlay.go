package render

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/ebiten/examples/resources/fonts"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// NewFace loads the bundled MPlus face at the given point size.
func NewFace(size float64) (font.Face, error) {
	tt, err := opentype.Parse(fonts.MPlus1pRegular_ttf)
	if err != nil {
		return nil, err
	}

	const dpi = 72
	return opentype.NewFace(tt, &opentype.FaceOptions{
		Size:    size,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
}

// Overlay draws a short label in the bottom-left corner of a frame.
type Overlay struct {
	Face       font.Face
	Color      color.Color
	Background color.Color
	Padding    int
}

func NewOverlay(size float64) (*Overlay, error) {
	face, err := NewFace(size)
	if err != nil {
		return nil, err
	}
	return &Overlay{
		Face:       face,
		Color:      color.White,
		Background: color.RGBA{0, 0, 0, 120},
		Padding:    4,
	}, nil
}

func (o *Overlay) Draw(dst draw.Image, label string) {
	if o.Face == nil || label == "" {
		return
	}
	b := dst.Bounds()
	metrics := o.Face.Metrics()
	textW := font.MeasureString(o.Face, label).Ceil()
	textH := (metrics.Ascent + metrics.Descent).Ceil()

	box := image.Rect(
		b.Min.X,
		b.Max.Y-textH-2*o.Padding,
		b.Min.X+textW+2*o.Padding,
		b.Max.Y,
	).Intersect(b)
	if o.Background != nil {
		draw.Draw(dst, box, image.NewUniform(o.Background), image.Point{}, draw.Over)
	}

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(o.Color),
		Face: o.Face,
		Dot:  fixed.P(box.Min.X+o.Padding, box.Max.Y-o.Padding-metrics.Descent.Ceil()),
	}
	d.DrawString(label)
}
