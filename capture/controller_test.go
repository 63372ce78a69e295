package capture

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/nvlled/spincap/frame"
	"github.com/rs/zerolog"
)

type fakeSource struct {
	size   image.Point
	calls  int
	failAt int // 1-based call that fails, 0 never
	delay  time.Duration
	wrong  bool
}

func (s *fakeSource) Size() image.Point { return s.size }

func (s *fakeSource) RenderFrame(ctx context.Context) (*image.RGBA, error) {
	s.calls++
	if s.failAt > 0 && s.calls == s.failAt {
		return nil, errors.New("gpu lost")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	size := s.size
	if s.wrong {
		size = size.Add(image.Pt(1, 0))
	}
	img := image.NewRGBA(image.Rectangle{Max: size})
	img.Pix[0] = uint8(s.calls)
	return img, nil
}

type fakeEncoder struct {
	pushed    []frame.Frame
	finalized int
	aborted   int

	pushErr     error
	pushErrAt   int
	finalizeErr error
}

func (e *fakeEncoder) Push(f frame.Frame) error {
	if e.pushErr != nil && len(e.pushed) == e.pushErrAt {
		return e.pushErr
	}
	e.pushed = append(e.pushed, f)
	return nil
}

func (e *fakeEncoder) Finalize() error {
	e.finalized++
	return e.finalizeErr
}

func (e *fakeEncoder) Abort() error {
	e.aborted++
	return nil
}

func newController(src *fakeSource) *Controller {
	return NewController(src, zerolog.Nop())
}

func TestCaptureFrames(t *testing.T) {
	src := &fakeSource{size: image.Pt(4, 4)}
	enc := &fakeEncoder{}
	c := newController(src)

	if _, err := c.Start(enc, SessionConfig{}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if err := c.Tick(context.Background()); err != nil {
			t.Fatalf("tick %v: %v", i, err)
		}
	}
	if !c.IsCapturing() {
		t.Error("session ended before Stop")
	}
	if err := c.Stop(); err != nil {
		t.Fatal(err)
	}

	if len(enc.pushed) != 5 {
		t.Fatalf("expected: %v | got %v", 5, len(enc.pushed))
	}
	for i, f := range enc.pushed {
		if f.Seq != uint64(i) {
			t.Errorf("expected: %v | got %v", i, f.Seq)
		}
	}
	if enc.finalized != 1 || enc.aborted != 0 {
		t.Errorf("finalized=%v aborted=%v", enc.finalized, enc.aborted)
	}
	s := c.Session()
	if s.State != StateFinished || s.Frames != 5 {
		t.Errorf("expected: Finished/5 | got %v/%v", s.State, s.Frames)
	}
	if err := c.Stop(); err != nil || enc.finalized != 1 {
		t.Errorf("second stop: err=%v finalized=%v", err, enc.finalized)
	}
}

func TestMaxFramesFinishes(t *testing.T) {
	src := &fakeSource{size: image.Pt(2, 2)}
	enc := &fakeEncoder{}
	c := newController(src)
	c.Start(enc, SessionConfig{MaxFrames: 3})

	for i := 0; i < 3; i++ {
		if err := c.Tick(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if c.IsCapturing() {
		t.Error("still capturing after MaxFrames")
	}
	if err := c.Tick(context.Background()); !errors.Is(err, frame.ErrNotCapturing) {
		t.Errorf("expected ErrNotCapturing, got %v", err)
	}
	if len(enc.pushed) != 3 || enc.finalized != 1 {
		t.Errorf("pushed=%v finalized=%v", len(enc.pushed), enc.finalized)
	}
	if src.calls != 3 {
		t.Errorf("tick after finish rendered a frame")
	}
}

func TestTickWhenIdle(t *testing.T) {
	src := &fakeSource{size: image.Pt(2, 2)}
	c := newController(src)
	if err := c.Tick(context.Background()); !errors.Is(err, frame.ErrNotCapturing) {
		t.Errorf("expected ErrNotCapturing, got %v", err)
	}
	if src.calls != 0 {
		t.Error("idle tick rendered a frame")
	}
	snap, ok := c.Snapshot()
	if ok || snap.State != StateIdle {
		t.Errorf("expected: Idle | got %v", snap.State)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	c := newController(&fakeSource{size: image.Pt(2, 2)})
	first := &fakeEncoder{}
	s1, err := c.Start(first, SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	c.Tick(context.Background())
	c.Tick(context.Background())

	second := &fakeEncoder{}
	s2, err := c.Start(second, SessionConfig{MaxFrames: 1})
	if err != nil {
		t.Fatal(err)
	}
	if s1.ID != s2.ID {
		t.Errorf("expected: %v | got %v", s1.ID, s2.ID)
	}
	if s2.Frames != 2 {
		t.Errorf("frame count reset to %v", s2.Frames)
	}
	c.Tick(context.Background())
	if len(second.pushed) != 0 || len(first.pushed) != 3 {
		t.Errorf("first=%v second=%v", len(first.pushed), len(second.pushed))
	}
}

func TestStartAfterFinished(t *testing.T) {
	c := newController(&fakeSource{size: image.Pt(2, 2)})
	s1, _ := c.Start(&fakeEncoder{}, SessionConfig{MaxFrames: 1})
	c.Tick(context.Background())
	if s1.State != StateFinished {
		t.Fatalf("expected: Finished | got %v", s1.State)
	}

	enc := &fakeEncoder{}
	s2, err := c.Start(enc, SessionConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if s2.ID == s1.ID || s2.Frames != 0 {
		t.Errorf("expected a new session, got %v with %v frames", s2.ID, s2.Frames)
	}
	if s1.State != StateFinished {
		t.Error("finished session changed state")
	}
	c.Tick(context.Background())
	if len(enc.pushed) != 1 || enc.pushed[0].Seq != 0 {
		t.Errorf("new session did not start at seq 0")
	}
}

func TestRenderFailureAborts(t *testing.T) {
	src := &fakeSource{size: image.Pt(4, 4), failAt: 51}
	enc := &fakeEncoder{}
	c := newController(src)
	c.Start(enc, SessionConfig{MaxFrames: 100})

	var err error
	ticks := 0
	for ; ticks < 100; ticks++ {
		if err = c.Tick(context.Background()); err != nil {
			break
		}
	}
	if ticks != 50 {
		t.Errorf("expected failure at tick %v, got %v", 50, ticks)
	}
	if !errors.Is(err, frame.ErrRenderFailure) {
		t.Errorf("expected ErrRenderFailure, got %v", err)
	}
	if len(enc.pushed) != 50 {
		t.Errorf("expected: %v | got %v", 50, len(enc.pushed))
	}
	if enc.finalized != 0 || enc.aborted != 1 {
		t.Errorf("finalized=%v aborted=%v", enc.finalized, enc.aborted)
	}
	s := c.Session()
	if s.State != StateFailed || frame.Kind(s.Err) != "RenderFailure" {
		t.Errorf("expected: Failed/RenderFailure | got %v/%v", s.State, frame.Kind(s.Err))
	}
	if err := c.Tick(context.Background()); !errors.Is(err, frame.ErrNotCapturing) {
		t.Errorf("failed session kept ticking: %v", err)
	}
}

func TestRenderTimeout(t *testing.T) {
	src := &fakeSource{size: image.Pt(2, 2), delay: time.Second}
	enc := &fakeEncoder{}
	c := newController(src)
	c.Start(enc, SessionConfig{RenderTimeout: 10 * time.Millisecond})

	err := c.Tick(context.Background())
	if !errors.Is(err, frame.ErrRenderFailure) {
		t.Errorf("expected ErrRenderFailure, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected the deadline as cause, got %v", err)
	}
	if enc.aborted != 1 {
		t.Errorf("expected: %v | got %v", 1, enc.aborted)
	}
}

func TestCancelDuringRender(t *testing.T) {
	for _, timeout := range []time.Duration{0, time.Second} {
		src := &fakeSource{size: image.Pt(2, 2), delay: 50 * time.Millisecond}
		enc := &fakeEncoder{}
		c := newController(src)
		c.Start(enc, SessionConfig{RenderTimeout: timeout})

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(10*time.Millisecond, cancel)
		if err := c.Tick(ctx); err != nil {
			t.Fatalf("timeout=%v: frame in progress was interrupted: %v", timeout, err)
		}
		if len(enc.pushed) != 1 || enc.aborted != 0 {
			t.Errorf("timeout=%v: pushed=%v aborted=%v", timeout, len(enc.pushed), enc.aborted)
		}

		if err := c.Stop(); err != nil {
			t.Fatal(err)
		}
		s, _ := c.Snapshot()
		if s.State != StateFinished || enc.finalized != 1 {
			t.Errorf("timeout=%v: expected: Finished/1 | got %v/%v", timeout, s.State, enc.finalized)
		}
		cancel()
	}
}

func TestFrameSizeMismatch(t *testing.T) {
	enc := &fakeEncoder{}
	c := newController(&fakeSource{size: image.Pt(3, 3), wrong: true})
	c.Start(enc, SessionConfig{})
	if err := c.Tick(context.Background()); !errors.Is(err, frame.ErrRenderFailure) {
		t.Errorf("expected ErrRenderFailure, got %v", err)
	}
	if len(enc.pushed) != 0 {
		t.Error("mismatched frame reached the encoder")
	}
}

func TestEncoderFailure(t *testing.T) {
	enc := &fakeEncoder{pushErr: frame.Wrap(frame.ErrEncoderIO, errors.New("disk full")), pushErrAt: 2}
	c := newController(&fakeSource{size: image.Pt(2, 2)})
	c.Start(enc, SessionConfig{})

	var err error
	for i := 0; i < 5 && err == nil; i++ {
		err = c.Tick(context.Background())
	}
	if frame.Kind(err) != "EncoderIOFailure" {
		t.Errorf("expected: EncoderIOFailure | got %v", frame.Kind(err))
	}
	if enc.aborted != 1 || c.Session().Frames != 2 {
		t.Errorf("aborted=%v frames=%v", enc.aborted, c.Session().Frames)
	}
}

func TestFinalizeFailure(t *testing.T) {
	enc := &fakeEncoder{finalizeErr: errors.New("close failed")}
	c := newController(&fakeSource{size: image.Pt(2, 2)})
	c.Start(enc, SessionConfig{MaxFrames: 1})

	err := c.Tick(context.Background())
	if !errors.Is(err, frame.ErrEncoderIO) {
		t.Errorf("expected ErrEncoderIO, got %v", err)
	}
	if s := c.Session(); s.State != StateFailed {
		t.Errorf("expected: Failed | got %v", s.State)
	}
}

func TestOnFrameGetsCopy(t *testing.T) {
	enc := &fakeEncoder{}
	c := newController(&fakeSource{size: image.Pt(2, 2)})
	var seen []frame.Frame
	c.OnFrame = func(f frame.Frame) {
		f.Image.Pix[0] = 0xAA
		seen = append(seen, f)
	}
	c.Start(enc, SessionConfig{})
	c.Tick(context.Background())

	if len(seen) != 1 || seen[0].Seq != 0 {
		t.Fatalf("observer saw %v frames", len(seen))
	}
	if enc.pushed[0].Image.Pix[0] == 0xAA {
		t.Error("observer modified the encoded frame")
	}
}

func TestStateString(t *testing.T) {
	for _, entry := range []struct {
		state    State
		expected string
	}{
		{StateIdle, "Idle"},
		{StateCapturing, "Capturing"},
		{StateFinished, "Finished"},
		{StateFailed, "Failed"},
		{State(9), "Unknown"},
	} {
		if actual := entry.state.String(); actual != entry.expected {
			t.Errorf("expected: %v | got %v", entry.expected, actual)
		}
	}
}
