package view

import (
	"image/color"

	"github.com/harveysanders/gairidisplay/facepanel/protocol"
)

var (
	colorBackground = color.RGBA{0, 0, 0, 255}
	colorText       = color.RGBA{255, 255, 255, 255}
	colorTitle      = color.RGBA{0, 255, 255, 255}
	colorTitleBar   = color.RGBA{0, 48, 96, 255}
	colorMuted      = color.RGBA{128, 128, 128, 255}
	colorUser       = color.RGBA{255, 255, 0, 255}
	colorCompanion  = color.RGBA{0, 255, 255, 255}
	colorButton     = color.RGBA{32, 32, 64, 255}
	colorButtonEdge = color.RGBA{0, 128, 255, 255}
	colorBar        = color.RGBA{0, 128, 255, 255}
	colorGlyph      = color.RGBA{255, 160, 0, 255}

	colorOwner    = color.RGBA{0, 255, 0, 255}
	colorGuest    = color.RGBA{255, 255, 0, 255}
	colorStranger = color.RGBA{255, 0, 0, 255}
)

// LevelColor is the colour used to badge an auth level.
func LevelColor(l protocol.AuthLevel) color.RGBA {
	switch l {
	case protocol.LevelOwner:
		return colorOwner
	case protocol.LevelGuest:
		return colorGuest
	default:
		return colorStranger
	}
}

func levelName(l protocol.AuthLevel) string {
	switch l {
	case protocol.LevelOwner:
		return "OWNER"
	case protocol.LevelGuest:
		return "GUEST"
	default:
		return "STRANGER"
	}
}
