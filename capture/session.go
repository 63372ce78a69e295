package capture

import (
	"context"
	"image"
	"time"

	"github.com/nvlled/spincap/encoder"
)

// FrameSource produces the frame for the current scene state. RenderFrame
// blocks until the frame is ready and must not depend on wall-clock time.
// The controller passes a context that is never canceled, only bounded by
// the session's render timeout.
type FrameSource interface {
	Size() image.Point
	RenderFrame(ctx context.Context) (*image.RGBA, error)
}

// State represents the lifecycle state of a capture session.
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateFinished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCapturing:
		return "Capturing"
	case StateFinished:
		return "Finished"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the state can never change again.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateFailed
}

type SessionConfig struct {
	// MaxFrames finishes the session after that many frames. Zero means
	// the session runs until Stop.
	MaxFrames uint64

	// RenderTimeout bounds a single RenderFrame call. Zero waits forever.
	RenderTimeout time.Duration

	// Output describes where the encoder writes, for logs only.
	Output string
}

type Session struct {
	ID        string
	Config    SessionConfig
	State     State
	Frames    uint64
	Err       error
	StartedAt time.Time
	EndedAt   time.Time

	enc encoder.Encoder
}
