// Package encoder serializes an ordered stream of frames into an output
// container. Each encoder owns its output sink until Finalize or Abort.
package encoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nvlled/spincap/frame"
	"github.com/nvlled/spincap/framerate"
)

// Encoder consumes frames strictly in order.
type Encoder interface {
	// Push appends the next frame. The first frame must have Seq 0 and each
	// following frame must have the previous Seq plus one.
	Push(f frame.Frame) error

	// Finalize completes the container and closes the sink. It may be called
	// once; later calls return frame.ErrEncoderClosed.
	Finalize() error

	// Abort closes the sink without completing the container.
	Abort() error
}

type Format int

const (
	FormatGif Format = iota
	FormatPng

	Format_Size
)

func (f Format) String() string {
	switch f {
	case FormatGif:
		return "gif"
	case FormatPng:
		return "png"
	}
	return "invalid-output-type"
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "gif":
		return FormatGif, nil
	case "png":
		return FormatPng, nil
	}
	return 0, fmt.Errorf("unknown output type %q", s)
}

// Loop follows the image/gif LoopCount convention: 0 loops forever,
// -1 plays once, n > 0 repeats n more times.
type Loop int

const (
	LoopInfinite Loop = 0
	LoopOnce     Loop = -1
)

func (l Loop) String() string {
	switch {
	case l == LoopInfinite:
		return "infinite"
	case l < 0:
		return "once"
	}
	return strconv.Itoa(int(l))
}

func ParseLoop(s string) (Loop, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "infinite", "forever":
		return LoopInfinite, nil
	case "once", "none":
		return LoopOnce, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 0xFFFF {
		return 0, fmt.Errorf("invalid loop policy %q", s)
	}
	if n == 0 {
		return LoopInfinite, nil
	}
	return Loop(n), nil
}

type DelayPolicy int

const (
	// DelayFromRate derives each frame delay from the tick rate.
	DelayFromRate DelayPolicy = iota
	// DelayDecoderDefault writes a zero delay and lets the player decide.
	DelayDecoderDefault
)

func (p DelayPolicy) String() string {
	switch p {
	case DelayFromRate:
		return "tick"
	case DelayDecoderDefault:
		return "default"
	}
	return "invalid-delay-policy"
}

func ParseDelayPolicy(s string) (DelayPolicy, error) {
	switch strings.ToLower(s) {
	case "", "tick", "rate":
		return DelayFromRate, nil
	case "default", "none":
		return DelayDecoderDefault, nil
	}
	return 0, fmt.Errorf("invalid delay policy %q", s)
}

// Options configures an encoder for one capture session.
type Options struct {
	Loop     Loop
	Delay    DelayPolicy
	Rate     framerate.T
	MinDelay int // centiseconds

	Quantizer Quantizer
	Dither    bool

	// KeepPartial leaves the output of an aborted session on disk.
	KeepPartial bool
}

func DefaultOptions() Options {
	return Options{
		Loop:      LoopInfinite,
		Delay:     DelayFromRate,
		Rate:      framerate.T{Value: 60, Unit: framerate.UnitSecond},
		MinDelay:  2,
		Quantizer: QuantizerMedianCut,
	}
}

// csDelay is the delay written for frame i.
func (opts *Options) csDelay(i uint64) int {
	if opts.Delay != DelayFromRate {
		return 0
	}
	d := opts.Rate.CsDelay(int(i))
	if d < opts.MinDelay {
		d = opts.MinDelay
	}
	if d > 0xFFFF {
		d = 0xFFFF
	}
	return d
}

// Open creates the encoder for format writing to path.
func Open(format Format, path string, opts Options) (Encoder, error) {
	switch format {
	case FormatGif:
		return CreateGif(path, opts)
	case FormatPng:
		return NewPngSequence(path, opts), nil
	}
	return nil, fmt.Errorf("unsupported output type %v", format)
}

// sequencer enforces the push order shared by all encoders.
type sequencer struct {
	next   uint64
	closed bool
	err    error
}

func (s *sequencer) check(f frame.Frame) error {
	if s.closed {
		return frame.ErrEncoderClosed
	}
	if s.err != nil {
		return s.err
	}
	if f.Seq != s.next {
		return fmt.Errorf("%w: expected frame %v, got %v", frame.ErrSequenceViolation, s.next, f.Seq)
	}
	if f.Image == nil {
		return frame.Wrap(frame.ErrRenderFailure, fmt.Errorf("frame %v has no image", f.Seq))
	}
	return nil
}

func (s *sequencer) advance() { s.next++ }

// fail records an i/o error; the encoder accepts no more frames afterwards.
func (s *sequencer) fail(err error) error {
	s.err = frame.Wrap(frame.ErrEncoderIO, err)
	return s.err
}
