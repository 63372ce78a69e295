package render

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"

	"github.com/kbinani/screenshot"
	"github.com/nvlled/spincap/scene"
)

// State is the scene state a frame was rendered from.
type State struct {
	Tick    uint64
	Elapsed float64
	Angles  map[scene.EntityID]float32
}

// SceneSource renders a scene registry off-screen, one frame per call.
type SceneSource struct {
	scene    *scene.Registry
	renderer *Renderer
	target   *Target

	pending atomic.Pointer[Texture]

	mu       sync.Mutex
	last     State
	rendered bool
}

func NewSceneSource(s *scene.Registry, r *Renderer, w, h int) *SceneSource {
	if r == nil {
		r = NewRenderer(nil)
	}
	return &SceneSource{
		scene:    s,
		renderer: r,
		target:   NewTarget(w, h),
	}
}

func (s *SceneSource) Size() image.Point {
	w, h := s.target.Size()
	return image.Pt(w, h)
}

func (s *SceneSource) RenderFrame(ctx context.Context) (*image.RGBA, error) {
	if tex := s.pending.Swap(nil); tex != nil {
		s.renderer.Texture = tex
	}

	img, err := s.renderer.RenderOnce(s.target, s.scene)
	if err != nil {
		return nil, err
	}

	state := State{
		Tick:    s.scene.Tick,
		Elapsed: s.scene.Elapsed,
		Angles:  map[scene.EntityID]float32{},
	}
	s.scene.Each(func(e *scene.Entity) {
		if e.Rotatable != nil {
			state.Angles[e.ID] = e.Rotatable.Angle
		}
	})

	s.mu.Lock()
	s.last = state
	s.rendered = true
	s.mu.Unlock()

	return img, nil
}

// QueueTexture replaces the texture before the next frame is rendered.
// It is safe to call from any goroutine.
func (s *SceneSource) QueueTexture(tex *Texture) {
	if tex != nil {
		s.pending.Store(tex)
	}
}

// LastState reports the state of the last rendered frame.
func (s *SceneSource) LastState() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.rendered
}

var errNoDisplay = errors.New("render: no active display")

// ScreenSource captures a fixed rectangle of the desktop.
type ScreenSource struct {
	rect image.Rectangle
}

// NewScreenSource captures rect, or the whole primary display when rect is
// empty.
func NewScreenSource(rect image.Rectangle) (*ScreenSource, error) {
	if rect.Empty() {
		if screenshot.NumActiveDisplays() == 0 {
			return nil, errNoDisplay
		}
		rect = screenshot.GetDisplayBounds(0)
	}
	return &ScreenSource{rect: rect}, nil
}

func (s *ScreenSource) Size() image.Point { return s.rect.Size() }

func (s *ScreenSource) RenderFrame(ctx context.Context) (*image.RGBA, error) {
	return screenshot.CaptureRect(s.rect)
}
