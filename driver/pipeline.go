package driver

import (
	"context"

	"github.com/nvlled/spincap/capture"
	"github.com/nvlled/spincap/encoder"
	"github.com/nvlled/spincap/frame"
	"github.com/nvlled/spincap/scene"
)

// Pipeline is the per-tick work of a capture run: advance the scene, start
// the capture on the first tick, then capture one frame.
type Pipeline struct {
	Scene      *scene.Registry // nil for sources without a scene
	Controller *capture.Controller
	Session    capture.SessionConfig

	// OpenEncoder is called once, on the first tick.
	OpenEncoder func() (encoder.Encoder, error)

	started bool
}

func (p *Pipeline) Step(ctx context.Context, clock Clock) error {
	if p.Scene != nil {
		p.Scene.Update(clock.Tick, clock.Elapsed)
	}
	if !p.started {
		enc, err := p.OpenEncoder()
		if err != nil {
			return frame.Wrap(frame.ErrEncoderIO, err)
		}
		if _, err := p.Controller.Start(enc, p.Session); err != nil {
			enc.Abort()
			return err
		}
		p.started = true
	}
	return p.Controller.Tick(ctx)
}

// Finish finalizes a session that is still capturing.
func (p *Pipeline) Finish(ctx context.Context, clock Clock, cause error) error {
	if p.Controller.IsCapturing() {
		return p.Controller.Stop()
	}
	return nil
}
