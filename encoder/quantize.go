package encoder

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/xyproto/palgen"
)

// Quantizer names the palette reduction used for palette-based formats.
type Quantizer string

const (
	QuantizerMedianCut Quantizer = "median-cut"
	QuantizerPalgen    Quantizer = "palgen"
)

const maxPaletteSize = 256

func ParseQuantizer(s string) (Quantizer, error) {
	switch q := Quantizer(s); q {
	case "":
		return QuantizerMedianCut, nil
	case QuantizerMedianCut, QuantizerPalgen:
		return q, nil
	}
	return "", fmt.Errorf("unknown quantizer %q", s)
}

// Palette reduces img to at most 256 colors.
func (q Quantizer) Palette(img image.Image) (color.Palette, error) {
	var pal color.Palette
	switch q {
	case QuantizerPalgen:
		generated, err := palgen.Generate(img, maxPaletteSize)
		if err != nil {
			return nil, err
		}
		pal = generated
	case QuantizerMedianCut, "":
		quantizer := quantize.MedianCutQuantizer{}
		emptyPalette := make(color.Palette, 0, maxPaletteSize)
		pal = quantizer.Quantize(emptyPalette, img)
	default:
		return nil, fmt.Errorf("unknown quantizer %q", string(q))
	}

	if len(pal) == 0 {
		pal = color.Palette{color.Black}
	}
	if len(pal) > maxPaletteSize {
		pal = pal[:maxPaletteSize]
	}
	return pal, nil
}

// Paletted converts img into a paletted image using q.
func (q Quantizer) Paletted(img *image.RGBA, dither bool) (*image.Paletted, error) {
	pal, err := q.Palette(img)
	if err != nil {
		return nil, err
	}

	palleted := image.NewPaletted(img.Rect, pal)
	var drawer draw.Drawer = draw.Src
	if dither {
		drawer = draw.FloydSteinberg
	}
	drawer.Draw(palleted, img.Bounds(), img, img.Rect.Min)
	return palleted, nil
}
