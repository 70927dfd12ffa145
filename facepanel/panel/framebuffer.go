package panel

import (
	"errors"
	"image/color"
)

// Framebuffer is an in-memory RGB565 display. It implements
// drivers.Displayer so a Canvas can draw on it.
type Framebuffer struct {
	width, height int16
	pix           []uint16
	flushes       int
}

// NewFramebuffer allocates a width x height framebuffer cleared to black.
func NewFramebuffer(width, height int16) *Framebuffer {
	return &Framebuffer{
		width:  width,
		height: height,
		pix:    make([]uint16, int(width)*int(height)),
	}
}

// Size returns the framebuffer dimensions.
func (fb *Framebuffer) Size() (x, y int16) { return fb.width, fb.height }

// SetPixel sets a pixel; out of bounds coordinates are ignored.
func (fb *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return
	}
	fb.pix[int(y)*int(fb.width)+int(x)] = RGB565(c)
}

// FillRectangle fills a rectangle. It returns an error if the rectangle is
// not inside the framebuffer, matching the display drivers.
func (fb *Framebuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	if x < 0 || y < 0 || width <= 0 || height <= 0 ||
		x+width > fb.width || y+height > fb.height {
		return errors.New("rectangle coordinates outside display area")
	}
	v := RGB565(c)
	for j := y; j < y+height; j++ {
		row := fb.pix[int(j)*int(fb.width):]
		for i := x; i < x+width; i++ {
			row[i] = v
		}
	}
	return nil
}

// Display counts flushes; the pixels are already in memory.
func (fb *Framebuffer) Display() error {
	fb.flushes++
	return nil
}

// Flushes returns how many times Display was called.
func (fb *Framebuffer) Flushes() int { return fb.flushes }

// At returns the colour stored at (x, y), expanded from RGB565.
func (fb *Framebuffer) At(x, y int16) color.RGBA {
	if x < 0 || x >= fb.width || y < 0 || y >= fb.height {
		return color.RGBA{}
	}
	return FromRGB565(fb.pix[int(y)*int(fb.width)+int(x)])
}

// Count returns how many pixels hold exactly the RGB565 value of c.
func (fb *Framebuffer) Count(c color.RGBA) int {
	v := RGB565(c)
	n := 0
	for _, p := range fb.pix {
		if p == v {
			n++
		}
	}
	return n
}

// RGB565 packs c into the 16-bit format used by the panel.
func RGB565(c color.RGBA) uint16 {
	return uint16(c.R&0xF8)<<8 | uint16(c.G&0xFC)<<3 | uint16(c.B)>>3
}

// FromRGB565 expands a packed pixel back to RGBA with full alpha.
func FromRGB565(v uint16) color.RGBA {
	return color.RGBA{
		R: uint8(v>>8) & 0xF8,
		G: uint8(v>>3) & 0xFC,
		B: uint8(v << 3),
		A: 0xFF,
	}
}
