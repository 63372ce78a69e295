package preview

import (
	"image/color"

	"github.com/nvlled/spincap/capture"
)

var (
	ColorWhite            = color.White
	ColorTeal             = color.RGBA{0, 255, 255, 255}
	ColorTealDark         = color.RGBA{0, 90, 90, 255}
	ColorGray             = color.RGBA{90, 90, 90, 255}
	ColorRed              = color.RGBA{255, 0, 0, 255}
	ColorRedDark          = color.RGBA{30, 0, 0, 255}
	ColorGreen            = color.RGBA{0, 255, 0, 255}
	ColorBlackTransparent = color.RGBA{0, 0, 0, 120}
)

// borderColors returns the light and dark border colors for a session state.
func borderColors(state capture.State) (light, dark color.RGBA) {
	switch state {
	case capture.StateCapturing:
		return ColorRed, ColorRedDark
	case capture.StateFailed:
		return ColorRedDark, ColorRed
	case capture.StateFinished:
		return ColorGreen, ColorTealDark
	}
	return ColorTeal, ColorTealDark
}
