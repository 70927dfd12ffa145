// Package panel provides the drawing surface the views render onto.
//
// Canvas adapts any drivers.Displayer (the ILI9341 on the device, or the
// in-memory Framebuffer in tests) and draws text with tinyfont.
package panel

import (
	"errors"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

// Surface is the drawing capability used by the views. Coordinates are the
// top-left corner of the shape or text run.
type Surface interface {
	Clear(c color.RGBA)
	FillRect(x, y, w, h int16, c color.RGBA)
	StrokeRect(x, y, w, h int16, c color.RGBA)
	DrawText(x, y int16, s string, c color.RGBA, scale uint8)
	MeasureText(s string, scale uint8) (width, height int16)
}

// rectFiller is implemented by displays with accelerated fills, such as
// the ILI9341 driver.
type rectFiller interface {
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

type face struct {
	font   *tinyfont.Font
	height int16
	ascent int16
}

func newFace(f *tinyfont.Font) face {
	h := int16(f.GetYAdvance())
	return face{font: f, height: h, ascent: h * 3 / 4}
}

// Canvas implements Surface on top of a drivers.Displayer.
type Canvas struct {
	display drivers.Displayer
	faces   [3]face
	err     error
}

// NewCanvas returns a canvas drawing onto d. Text scale 1 uses the small
// proggy font, scales 2 and 3 use bold FreeMono at 9pt and 12pt.
func NewCanvas(d drivers.Displayer) *Canvas {
	return &Canvas{
		display: d,
		faces: [3]face{
			newFace(&proggy.TinySZ8pt7b),
			newFace(&freemono.Bold9pt7b),
			newFace(&freemono.Bold12pt7b),
		},
	}
}

func (c *Canvas) face(scale uint8) face {
	switch {
	case scale <= 1:
		return c.faces[0]
	case scale == 2:
		return c.faces[1]
	default:
		return c.faces[2]
	}
}

// Err returns the first error reported by the display, if any.
func (c *Canvas) Err() error { return c.err }

// ClearErr forgets a recorded display error.
func (c *Canvas) ClearErr() { c.err = nil }

func (c *Canvas) record(err error) {
	if err != nil && c.err == nil {
		c.err = errors.New("panel:" + err.Error())
	}
}

// Clear fills the whole display with col.
func (c *Canvas) Clear(col color.RGBA) {
	w, h := c.display.Size()
	c.FillRect(0, 0, w, h, col)
}

// FillRect fills a rectangle clipped to the display.
func (c *Canvas) FillRect(x, y, w, h int16, col color.RGBA) {
	x, y, w, h, ok := c.clip(x, y, w, h)
	if !ok {
		return
	}
	if f, ok := c.display.(rectFiller); ok {
		c.record(f.FillRectangle(x, y, w, h, col))
		return
	}
	for j := y; j < y+h; j++ {
		for i := x; i < x+w; i++ {
			c.display.SetPixel(i, j, col)
		}
	}
}

// StrokeRect draws a one pixel rectangle outline.
func (c *Canvas) StrokeRect(x, y, w, h int16, col color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	c.FillRect(x, y, w, 1, col)
	c.FillRect(x, y+h-1, w, 1, col)
	c.FillRect(x, y, 1, h, col)
	c.FillRect(x+w-1, y, 1, h, col)
}

// DrawText draws s with its top-left corner at (x, y).
func (c *Canvas) DrawText(x, y int16, s string, col color.RGBA, scale uint8) {
	if s == "" {
		return
	}
	f := c.face(scale)
	tinyfont.WriteLine(c.display, f.font, x, y+f.ascent, s, col)
}

// MeasureText returns the advance width and line height of s.
func (c *Canvas) MeasureText(s string, scale uint8) (width, height int16) {
	f := c.face(scale)
	if s == "" {
		return 0, f.height
	}
	_, outbox := tinyfont.LineWidth(f.font, s)
	return int16(outbox), f.height
}

// Flush pushes buffered pixels to the panel.
func (c *Canvas) Flush() {
	c.record(c.display.Display())
}

func (c *Canvas) clip(x, y, w, h int16) (int16, int16, int16, int16, bool) {
	dw, dh := c.display.Size()
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > dw {
		w = dw - x
	}
	if y+h > dh {
		h = dh - y
	}
	return x, y, w, h, w > 0 && h > 0
}
