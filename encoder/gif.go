package encoder

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	gif "github.com/nvlled/gogif"
	"github.com/nvlled/spincap/frame"
)

// GifEncoder streams frames into a GIF89a file one at a time.
//
// The stream encoder is created on the first frame, which fixes the logical
// screen size. Every frame carries its own color table.
type GifEncoder struct {
	path string
	sink io.WriteCloser
	w    *bufio.Writer

	opts Options
	size image.Point

	stream *gif.StreamEncoder
	seq    sequencer
}

// NewGifEncoder streams into sink. Abort closes sink and leaves whatever
// was written.
func NewGifEncoder(sink io.WriteCloser, opts Options) *GifEncoder {
	return &GifEncoder{
		sink: sink,
		w:    bufio.NewWriterSize(sink, 64*1024),
		opts: opts,
	}
}

// CreateGif creates or truncates the file at path. Abort removes the file
// unless opts.KeepPartial is set.
func CreateGif(path string, opts Options) (*GifEncoder, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, frame.Wrap(frame.ErrEncoderIO, err)
	}
	encoder := NewGifEncoder(file, opts)
	encoder.path = path
	return encoder, nil
}

func (e *GifEncoder) open() {
	// gogif writes through the caller's bufio.Writer, so its write errors
	// stay sticky on e.w and come back from Flush.
	e.stream = gif.NewStreamEncoder(e.w, &gif.StreamEncoderOptions{
		LoopCount: int(e.opts.Loop),
	})
}

func (e *GifEncoder) Push(f frame.Frame) error {
	if err := e.seq.check(f); err != nil {
		return err
	}
	size := f.Size()
	if e.stream != nil && size != e.size {
		return frame.Wrap(frame.ErrRenderFailure, fmt.Errorf("gif: frame %v is %v, stream is %v", f.Seq, size, e.size))
	}
	if size.X > 0xFFFF || size.Y > 0xFFFF {
		return frame.Wrap(frame.ErrRenderFailure, fmt.Errorf("gif: frame %v is too large: %v", f.Seq, size))
	}

	paletted, err := e.opts.Quantizer.Paletted(f.Image, e.opts.Dither)
	if err != nil {
		return e.seq.fail(fmt.Errorf("gif: quantize frame %v: %w", f.Seq, err))
	}

	if e.stream == nil {
		e.size = size
		e.open()
	}
	e.stream.Encode(paletted, e.opts.csDelay(f.Seq), gif.DisposalNone)
	if err := e.w.Flush(); err != nil {
		return e.seq.fail(err)
	}

	e.seq.advance()
	return nil
}

func (e *GifEncoder) Finalize() error {
	if e.seq.closed {
		return frame.ErrEncoderClosed
	}
	if e.seq.err != nil {
		return e.seq.err
	}
	e.seq.closed = true

	if e.stream == nil {
		e.open()
	}
	e.stream.Close()
	if err := e.w.Flush(); err != nil {
		e.sink.Close()
		return frame.Wrap(frame.ErrEncoderIO, err)
	}
	if err := e.sink.Close(); err != nil {
		return frame.Wrap(frame.ErrEncoderIO, err)
	}
	return nil
}

// Abort never closes the stream encoder, so no trailer is written.
func (e *GifEncoder) Abort() error {
	if e.seq.closed {
		return frame.ErrEncoderClosed
	}
	e.seq.closed = true

	e.w.Flush()
	err := e.sink.Close()
	if e.path != "" && !e.opts.KeepPartial {
		if rmErr := os.Remove(e.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			err = errors.Join(err, rmErr)
		}
	}
	if err != nil {
		return frame.Wrap(frame.ErrEncoderIO, err)
	}
	return nil
}
