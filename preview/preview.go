// Package preview shows a capture run in a window while it is recorded.
// The window paces the driver: every ebiten update advances one tick.
package preview

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/nvlled/spincap/capture"
	"github.com/nvlled/spincap/driver"
	"github.com/nvlled/spincap/frame"
	"github.com/nvlled/spincap/framerate"
	"github.com/nvlled/spincap/render"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
)

var errDone = errors.New("preview: done")

type Options struct {
	Title  string
	Rate   framerate.T
	Budget uint64
	Output string
	Size   image.Point
}

type Game struct {
	ctx        context.Context
	driver     *driver.Driver
	controller *capture.Controller
	log        zerolog.Logger
	opts       Options

	frames    *Ring[frame.Frame]
	lastFrame frame.Frame
	haveFrame bool
	canvas    *ebiten.Image

	scrp      *ScreenPrint
	smallFont font.Face
	hideInfo  bool

	borderState      capture.State
	lightBorderImage *ebiten.Image
	darkBorderImage  *ebiten.Image
}

// New wires the preview to controller. It takes over the controller's
// OnFrame observer.
func New(ctx context.Context, d *driver.Driver, controller *capture.Controller, opts Options, log zerolog.Logger) (*Game, error) {
	regularFont, err := render.NewFace(18)
	if err != nil {
		return nil, err
	}
	smallFont, err := render.NewFace(14)
	if err != nil {
		return nil, err
	}

	g := &Game{
		ctx:         ctx,
		driver:      d,
		controller:  controller,
		log:         log.With().Str("component", "preview").Logger(),
		opts:        opts,
		frames:      NewRing[frame.Frame](4),
		scrp:        NewScreenPrint(regularFont),
		smallFont:   smallFont,
		borderState: capture.State(-1),
	}
	controller.OnFrame = func(f frame.Frame) {
		g.frames.Push(f)
	}
	return g, nil
}

// Run opens the window and blocks until the driver terminates or the window
// is closed. Closing the window finalizes the capture at the next tick
// boundary.
func (g *Game) Run() error {
	w, h := g.opts.Size.X, g.opts.Size.Y
	if w <= 0 || h <= 0 {
		w, h = 512, 512
	}
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(g.title())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(g.opts.Rate.TicksPerSecond())

	err := ebiten.RunGame(g)
	if err != nil && !errors.Is(err, errDone) {
		return err
	}
	if !g.driver.Done() {
		g.driver.Stop()
		g.driver.Update(g.ctx)
	}
	return g.driver.Err()
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.log.Info().Msg("stop requested")
		g.driver.Stop()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF10) {
		g.hideInfo = !g.hideInfo
	}

	g.driver.Update(g.ctx)
	if f, ok := g.frames.Latest(); ok {
		g.lastFrame, g.haveFrame = f, true
	}
	if g.driver.Done() {
		return errDone
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.drawFrame(screen)

	snap, _ := g.controller.Snapshot()
	g.updateBorder(snap.State)
	g.drawBorder(screen)

	if g.hideInfo {
		return
	}

	g.scrp.Reset(screen)
	g.scrp.Font = g.smallFont
	g.scrp.Color = ColorWhite
	if snap.State == capture.StateFailed {
		g.scrp.Color = ColorRed
	}
	g.scrp.Println(g.status(snap))
	if snap.Err != nil {
		g.scrp.Printf("%v: %v", frame.Kind(snap.Err), snap.Err)
	}
	g.scrp.Color = ColorGray
	g.scrp.PrintBottom("Stop [Esc]  Hide [F10]")
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return outsideWidth, outsideHeight
}

func (g *Game) status(s capture.Session) string {
	clock := g.driver.Clock()
	switch s.State {
	case capture.StateCapturing:
		if g.opts.Budget > 0 {
			return fmt.Sprintf("* recording %v/%v  t=%.2fs", s.Frames, g.opts.Budget, clock.Elapsed)
		}
		return fmt.Sprintf("* recording %v  t=%.2fs", s.Frames, clock.Elapsed)
	case capture.StateFinished:
		return fmt.Sprintf("saved %v frames to %v", s.Frames, g.opts.Output)
	case capture.StateFailed:
		return fmt.Sprintf("failed after %v frames", s.Frames)
	}
	return "idle"
}

func (g *Game) title() string {
	title := g.opts.Title
	if title == "" {
		title = "spincap"
	}
	return fmt.Sprintf("%v %v (%v)", title, g.opts.Output, g.opts.Rate.String())
}

func (g *Game) drawFrame(screen *ebiten.Image) {
	b := screen.Bounds()
	ebitenutil.DrawRect(screen, 0, 0, float64(b.Dx()), float64(b.Dy()), ColorBlackTransparent)
	if !g.haveFrame {
		return
	}

	img := g.lastFrame.Image
	size := img.Bounds().Size()
	if g.canvas == nil || g.canvas.Bounds().Size() != size {
		g.canvas = ebiten.NewImage(size.X, size.Y)
	}
	g.canvas.ReplacePixels(pixels(img))

	scale := float64(b.Dx()) / float64(size.X)
	if s := float64(b.Dy()) / float64(size.Y); s < scale {
		scale = s
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(
		(float64(b.Dx())-float64(size.X)*scale)/2,
		(float64(b.Dy())-float64(size.Y)*scale)/2,
	)
	screen.DrawImage(g.canvas, op)
}

func (g *Game) updateBorder(state capture.State) {
	if state == g.borderState && g.lightBorderImage != nil {
		return
	}
	g.borderState = state
	light, dark := borderColors(state)
	g.lightBorderImage = solidImage(light)
	g.darkBorderImage = solidImage(dark)
}

func (g *Game) drawBorder(screen *ebiten.Image) {
	b := screen.Bounds()

	sw, sh := float64(b.Dx()-1), float64(b.Dy()-1)
	for i, c := range []*ebiten.Image{g.lightBorderImage, g.darkBorderImage} {
		n := float64(i)
		op := ebiten.GeoM{}
		op.Scale(sw-n, 1)
		op.Translate(n, n)
		screen.DrawImage(c, &ebiten.DrawImageOptions{GeoM: op})
		op.Reset()
		op.Scale(1, sh-n)
		op.Translate(n, n)
		screen.DrawImage(c, &ebiten.DrawImageOptions{GeoM: op})
		op.Reset()
		op.Scale(sw-n, 1)
		op.Translate(n, sh-n)
		screen.DrawImage(c, &ebiten.DrawImageOptions{GeoM: op})
		op.Reset()
		op.Scale(1, sh-n)
		op.Translate(sw-n, n)
		screen.DrawImage(c, &ebiten.DrawImageOptions{GeoM: op})
	}
}

func solidImage(c color.Color) *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(c)
	return img
}

// pixels returns the pixels of img packed from its origin, as ReplacePixels
// expects.
func pixels(img *image.RGBA) []byte {
	b := img.Bounds()
	if b.Min == (image.Point{}) && img.Stride == 4*b.Dx() {
		return img.Pix
	}
	packed := image.NewRGBA(image.Rectangle{Max: b.Size()})
	draw.Draw(packed, packed.Bounds(), img, b.Min, draw.Src)
	return packed.Pix
}
