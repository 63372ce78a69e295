package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrRenderFailure is returned when the renderer cannot produce a frame.
	ErrRenderFailure = errors.New("render failure")

	// ErrEncoderIO is returned when the output sink cannot be written or closed.
	ErrEncoderIO = errors.New("encoder i/o failure")

	// ErrSequenceViolation is returned when frames reach the encoder out of order.
	ErrSequenceViolation = errors.New("sequence violation")

	// ErrEncoderClosed is returned when a frame is pushed after finalize or abort.
	ErrEncoderClosed = errors.New("encoder closed")

	// ErrNotCapturing is returned when a tick is requested outside of a capture.
	ErrNotCapturing = errors.New("not capturing")
)

// Wrap tags cause with one of the sentinel kinds above.
// A nil cause yields nil.
func Wrap(kind, cause error) error {
	if cause == nil {
		return nil
	}
	if errors.Is(cause, kind) {
		return cause
	}
	return fmt.Errorf("%w: %w", kind, cause)
}

// Kind names the failure class of err for diagnostics.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRenderFailure):
		return "RenderFailure"
	case errors.Is(err, ErrEncoderIO):
		return "EncoderIOFailure"
	case errors.Is(err, ErrSequenceViolation):
		return "SequenceViolation"
	case errors.Is(err, ErrEncoderClosed):
		return "EncoderClosed"
	case errors.Is(err, ErrNotCapturing):
		return "NotCapturing"
	}
	return "Unknown"
}
