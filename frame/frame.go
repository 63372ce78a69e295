// Package frame holds the unit of work that flows through the capture
// pipeline and the errors every stage reports.
package frame

import (
	"image"
)

// Frame is one fully rendered image for a single tick.
//
// Seq starts at 0 for each capture session and increases by one per tick.
// Once a Frame is handed to the next stage the sender must not touch Image
// again.
type Frame struct {
	Seq   uint64
	Image *image.RGBA
}

// Size returns the frame dimensions.
func (f Frame) Size() image.Point {
	if f.Image == nil {
		return image.Point{}
	}
	return f.Image.Rect.Size()
}

// Clone returns a deep copy, for observers that must not share the buffer.
func (f Frame) Clone() Frame {
	if f.Image == nil {
		return f
	}
	img := &image.RGBA{
		Pix:    make([]byte, len(f.Image.Pix)),
		Stride: f.Image.Stride,
		Rect:   f.Image.Rect,
	}
	copy(img.Pix, f.Image.Pix)
	return Frame{Seq: f.Seq, Image: img}
}
