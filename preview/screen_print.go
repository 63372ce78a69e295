package preview

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
)

type Align byte

const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

// ScreenPrint writes lines of text top to bottom onto an ebiten image.
type ScreenPrint struct {
	currentY int
	image    *ebiten.Image

	Color  color.Color
	AlignX Align
	Font   font.Face

	Border      int
	LineSpacing int
}

func NewScreenPrint(face font.Face) *ScreenPrint {
	return &ScreenPrint{
		Font:        face,
		Color:       ColorWhite,
		Border:      20,
		LineSpacing: 10,
	}
}

// Reset starts printing at the top of screen.
func (scrp *ScreenPrint) Reset(screen *ebiten.Image) {
	scrp.currentY = 0
	scrp.image = screen
}

func (scrp *ScreenPrint) Println(str string) {
	if scrp.image == nil || scrp.Font == nil {
		return
	}
	for _, line := range strings.Split(str, "\n") {
		if line == "" {
			line = " "
		}
		textB := text.BoundString(scrp.Font, line)
		x := scrp.lineX(textB.Dx())
		y := scrp.currentY + textB.Dy() + scrp.Border/2

		textColor := scrp.Color
		if textColor == nil {
			textColor = color.Black
		}
		text.Draw(scrp.image, line, scrp.Font, x, y, textColor)
		scrp.currentY += textB.Dy() + scrp.LineSpacing
	}
}

func (scrp *ScreenPrint) Printf(format string, args ...any) {
	scrp.Println(fmt.Sprintf(format, args...))
}

// PrintBottom prints str on the last line of the image, leaving the print
// position unchanged.
func (scrp *ScreenPrint) PrintBottom(str string) {
	if scrp.image == nil || scrp.Font == nil {
		return
	}
	y := scrp.currentY
	textB := text.BoundString(scrp.Font, str)
	scrp.currentY = scrp.image.Bounds().Dy() - 2*textB.Dy() - scrp.Border/2
	scrp.Println(str)
	scrp.currentY = y
}

func (scrp *ScreenPrint) lineX(width int) int {
	imageW := scrp.image.Bounds().Dx()
	switch scrp.AlignX {
	case AlignCenter:
		return imageW/2 - width/2
	case AlignEnd:
		return imageW - width - scrp.Border/2
	}
	return scrp.Border / 2
}
