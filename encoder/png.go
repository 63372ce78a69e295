package encoder

import (
	"errors"
	"image/png"
	"os"

	"github.com/nvlled/spincap/frame"
)

// PngSequence writes every frame to its own numbered PNG file next to the
// configured filename: capture.png becomes capture-0.png, capture-1.png, ...
type PngSequence struct {
	filename string
	opts     Options
	written  []string
	seq      sequencer
}

func NewPngSequence(filename string, opts Options) *PngSequence {
	return &PngSequence{filename: filename, opts: opts}
}

// Files lists the frames written so far.
func (s *PngSequence) Files() []string {
	return append([]string(nil), s.written...)
}

func (s *PngSequence) Push(f frame.Frame) error {
	if err := s.seq.check(f); err != nil {
		return err
	}

	filename := ReplaceIncrementedFilename(s.filename, int(f.Seq))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return s.seq.fail(err)
	}
	s.written = append(s.written, filename)

	err = png.Encode(file, f.Image)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return s.seq.fail(err)
	}

	s.seq.advance()
	return nil
}

func (s *PngSequence) Finalize() error {
	if s.seq.closed {
		return frame.ErrEncoderClosed
	}
	if s.seq.err != nil {
		return s.seq.err
	}
	s.seq.closed = true
	return nil
}

func (s *PngSequence) Abort() error {
	if s.seq.closed {
		return frame.ErrEncoderClosed
	}
	s.seq.closed = true
	if s.opts.KeepPartial {
		return nil
	}

	var errs []error
	for _, filename := range s.written {
		if err := os.Remove(filename); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	s.written = nil
	return frame.Wrap(frame.ErrEncoderIO, errors.Join(errs...))
}
