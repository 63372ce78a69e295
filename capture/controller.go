// Package capture drives a frame source into an encoder, one frame per tick.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvlled/spincap/encoder"
	"github.com/nvlled/spincap/frame"
	"github.com/rs/zerolog"
)

type Controller struct {
	source FrameSource
	log    zerolog.Logger

	// OnFrame, when set, receives a copy of every frame pushed to the encoder.
	OnFrame func(frame.Frame)

	mu      sync.Mutex
	session *Session
}

func NewController(source FrameSource, log zerolog.Logger) *Controller {
	return &Controller{
		source: source,
		log:    log.With().Str("component", "capture").Logger(),
	}
}

// Start begins a new session writing to enc. While a session is capturing,
// Start returns it unchanged and enc is left untouched.
func (c *Controller) Start(enc encoder.Encoder, cfg SessionConfig) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s := c.session; s != nil && s.State == StateCapturing {
		return s, nil
	}
	if enc == nil {
		return nil, errors.New("capture: nil encoder")
	}
	if size := c.source.Size(); size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("capture: source has no area (%v)", size)
	}

	s := &Session{
		ID:        uuid.NewString(),
		Config:    cfg,
		State:     StateCapturing,
		StartedAt: time.Now(),
		enc:       enc,
	}
	c.session = s
	c.log.Info().
		Str("session", s.ID).
		Str("output", cfg.Output).
		Uint64("max_frames", cfg.MaxFrames).
		Msg("capture started")
	return s, nil
}

// Tick renders one frame and pushes it to the encoder. Any failure moves the
// session to Failed and aborts the encoder.
func (c *Controller) Tick(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || s.State != StateCapturing {
		return frame.ErrNotCapturing
	}

	img, err := c.render(ctx, s.Config.RenderTimeout)
	if err != nil {
		return c.fail(s, frame.Wrap(frame.ErrRenderFailure, err))
	}
	if img == nil {
		return c.fail(s, frame.Wrap(frame.ErrRenderFailure, errors.New("source returned no image")))
	}
	if size, want := img.Bounds().Size(), c.source.Size(); size != want {
		return c.fail(s, frame.Wrap(frame.ErrRenderFailure, fmt.Errorf("frame is %v, expected %v", size, want)))
	}

	f := frame.Frame{Seq: s.Frames, Image: img}
	if err := s.enc.Push(f); err != nil {
		return c.fail(s, err)
	}
	s.Frames++
	c.log.Debug().Str("session", s.ID).Uint64("seq", f.Seq).Msgf("* saved %v", s.Frames)

	if c.OnFrame != nil {
		c.OnFrame(f.Clone())
	}

	if s.Config.MaxFrames > 0 && s.Frames >= s.Config.MaxFrames {
		return c.finish(s)
	}
	return nil
}

// Stop finalizes the capturing session. It does nothing when no session is
// capturing.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil || s.State != StateCapturing {
		return nil
	}
	return c.finish(s)
}

func (c *Controller) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.State == StateCapturing
}

// Session returns the current or last session, nil before the first Start.
func (c *Controller) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Snapshot returns a copy of the current session that is safe to read while
// the controller keeps running.
func (c *Controller) Snapshot() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{State: StateIdle}, false
	}
	s := *c.session
	s.enc = nil
	return s, true
}

// render runs one frame to completion. Cancellation of ctx is only honoured
// between ticks, so a frame in progress is bounded by timeout alone.
func (c *Controller) render(ctx context.Context, timeout time.Duration) (*image.RGBA, error) {
	ctx = context.WithoutCancel(ctx)
	if timeout <= 0 {
		return c.source.RenderFrame(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		img *image.RGBA
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := c.source.RenderFrame(ctx)
		done <- result{img, err}
	}()

	select {
	case r := <-done:
		return r.img, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("render timed out after %v: %w", timeout, ctx.Err())
	}
}

func (c *Controller) finish(s *Session) error {
	s.EndedAt = time.Now()
	if err := s.enc.Finalize(); err != nil {
		s.State = StateFailed
		s.Err = frame.Wrap(frame.ErrEncoderIO, err)
		c.log.Error().Err(s.Err).Str("session", s.ID).Msg("finalize failed")
		return s.Err
	}
	s.State = StateFinished
	c.log.Info().
		Str("session", s.ID).
		Uint64("frames", s.Frames).
		Dur("took", s.EndedAt.Sub(s.StartedAt)).
		Msg("capture finished")
	return nil
}

func (c *Controller) fail(s *Session, err error) error {
	s.State = StateFailed
	s.Err = err
	s.EndedAt = time.Now()
	if abortErr := s.enc.Abort(); abortErr != nil {
		c.log.Warn().Err(abortErr).Str("session", s.ID).Msg("abort failed")
	}
	c.log.Error().
		Err(err).
		Str("session", s.ID).
		Str("kind", frame.Kind(err)).
		Uint64("frames", s.Frames).
		Msg("capture failed")
	return err
}
