package driver

import (
	"context"
	"errors"
	"image"
	"image/gif"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nvlled/spincap/capture"
	"github.com/nvlled/spincap/encoder"
	"github.com/nvlled/spincap/frame"
	"github.com/nvlled/spincap/render"
	"github.com/nvlled/spincap/scene"
	"github.com/rs/zerolog"
)

type failingSource struct {
	capture.FrameSource
	calls  int
	failAt int
}

func (s *failingSource) RenderFrame(ctx context.Context) (*image.RGBA, error) {
	s.calls++
	if s.calls == s.failAt {
		return nil, errors.New("device lost")
	}
	return s.FrameSource.RenderFrame(ctx)
}

// interruptingSource cancels the run while frame cancelAt is rendering.
type interruptingSource struct {
	capture.FrameSource
	calls    int
	cancelAt int
	cancel   context.CancelFunc
}

func (s *interruptingSource) RenderFrame(ctx context.Context) (*image.RGBA, error) {
	s.calls++
	if s.calls == s.cancelAt {
		s.cancel()
		time.Sleep(20 * time.Millisecond)
	}
	return s.FrameSource.RenderFrame(ctx)
}

type run struct {
	pipeline *Pipeline
	source   *render.SceneSource
	cube     scene.EntityID
	output   string
}

func newRun(t *testing.T, ticks uint64, wrap func(capture.FrameSource) capture.FrameSource) (*run, *Driver) {
	t.Helper()
	reg, cube := scene.NewSpinningCube(0.4)
	source := render.NewSceneSource(reg, render.NewRenderer(nil), 32, 32)

	var src capture.FrameSource = source
	if wrap != nil {
		src = wrap(src)
	}

	output := filepath.Join(t.TempDir(), "simple.gif")
	opts := encoder.DefaultOptions()
	p := &Pipeline{
		Scene:      reg,
		Controller: capture.NewController(src, zerolog.Nop()),
		Session:    capture.SessionConfig{MaxFrames: ticks, Output: output},
		OpenEncoder: func() (encoder.Encoder, error) {
			return encoder.Open(encoder.FormatGif, output, opts)
		},
	}
	return &run{pipeline: p, source: source, cube: cube, output: output}, newDriver(t, p, ticks)
}

func TestSpinningCubeCapture(t *testing.T) {
	r, d := newRun(t, 100, nil)
	if err := d.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	s := r.pipeline.Controller.Session()
	if s.State != capture.StateFinished || s.Frames != 100 {
		t.Errorf("expected: Finished/100 | got %v/%v", s.State, s.Frames)
	}

	state, ok := r.source.LastState()
	if !ok {
		t.Fatal("nothing rendered")
	}
	if state.Tick != 99 {
		t.Errorf("expected: %v | got %v", 99, state.Tick)
	}
	if angle := state.Angles[r.cube]; math.Abs(float64(angle)-4.1469) > 1e-3 {
		t.Errorf("expected: %v | got %v", 4.1469, angle)
	}

	file, err := os.Open(r.output)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	g, err := gif.DecodeAll(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 100 {
		t.Errorf("expected: %v | got %v", 100, len(g.Image))
	}
	if g.LoopCount != 0 {
		t.Errorf("expected: %v | got %v", 0, g.LoopCount)
	}
	if g.Config.Width != 32 || g.Config.Height != 32 {
		t.Errorf("wrong size %vx%v", g.Config.Width, g.Config.Height)
	}
}

func TestRenderFailureMidCapture(t *testing.T) {
	var src *failingSource
	r, d := newRun(t, 100, func(inner capture.FrameSource) capture.FrameSource {
		src = &failingSource{FrameSource: inner, failAt: 51}
		return src
	})

	err := d.Run(context.Background())
	if !errors.Is(err, frame.ErrRenderFailure) {
		t.Fatalf("expected ErrRenderFailure, got %v", err)
	}
	if d.Clock().Tick != 50 {
		t.Errorf("expected failure at tick %v, got %v", 50, d.Clock().Tick)
	}

	s := r.pipeline.Controller.Session()
	if s.State != capture.StateFailed || s.Frames != 50 {
		t.Errorf("expected: Failed/50 | got %v/%v", s.State, s.Frames)
	}
	if _, err := os.Stat(r.output); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("partial output left behind: %v", err)
	}
}

func TestCancelFinalizes(t *testing.T) {
	r, d := newRun(t, 100, nil)
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 10; i++ {
		if err := d.Update(ctx); err != nil {
			t.Fatal(err)
		}
	}
	cancel()
	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	s := r.pipeline.Controller.Session()
	if s.State != capture.StateFinished {
		t.Errorf("expected: Finished | got %v", s.State)
	}

	file, err := os.Open(r.output)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	g, err := gif.DecodeAll(file)
	if err != nil {
		t.Fatal(err)
	}
	if uint64(len(g.Image)) != s.Frames {
		t.Errorf("expected: %v | got %v", s.Frames, len(g.Image))
	}
}

func TestCancelMidRenderFinalizes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, d := newRun(t, 100, func(src capture.FrameSource) capture.FrameSource {
		return &interruptingSource{FrameSource: src, cancelAt: 6, cancel: cancel}
	})
	r.pipeline.Session.RenderTimeout = time.Second

	if err := d.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	s := r.pipeline.Controller.Session()
	if s.State != capture.StateFinished || s.Frames != 6 {
		t.Errorf("expected: Finished/6 | got %v/%v (%v)", s.State, s.Frames, s.Err)
	}

	file, err := os.Open(r.output)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	g, err := gif.DecodeAll(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Image) != 6 {
		t.Errorf("expected: %v | got %v", 6, len(g.Image))
	}
}

func TestOpenEncoderFailure(t *testing.T) {
	r, d := newRun(t, 10, nil)
	r.pipeline.OpenEncoder = func() (encoder.Encoder, error) {
		return nil, errors.New("read-only file system")
	}
	err := d.Run(context.Background())
	if frame.Kind(err) != "EncoderIOFailure" {
		t.Errorf("expected: EncoderIOFailure | got %v (%v)", frame.Kind(err), err)
	}
	if r.pipeline.Controller.Session() != nil {
		t.Error("session started without an encoder")
	}
}
