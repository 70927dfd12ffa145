// Package layout places text on the panel with a greedy word wrap.
package layout

// Gap is the horizontal space left between two words on a line.
const Gap = 6

// Measurer reports the rendered size of a text run at a font scale.
type Measurer interface {
	MeasureText(s string, scale uint8) (width, height int16)
}

// Box is the region text may occupy.
type Box struct {
	X, Y, W, H int16
}

// Placement is one word and the top-left position it is drawn at.
type Placement struct {
	Word string
	X, Y int16
}

// AppendWrap lays text out inside box and appends the placed words to dst.
//
// Words are separated by spaces and newlines. A word that would cross the
// right edge of box starts a new line, unless it is already the first word
// on its line, in which case it is placed and allowed to overflow. A
// newline forces a break after the preceding word. Output stops at the
// first word whose line would not fit inside box vertically; the rest of
// the text is dropped.
func AppendWrap(dst []Placement, m Measurer, text string, box Box, lineHeight int16, scale uint8) []Placement {
	right := box.X + box.W
	bottom := box.Y + box.H
	x, y := box.X, box.Y
	if y+lineHeight > bottom {
		return dst
	}
	start := 0
	for i := 0; i <= len(text); i++ {
		end := i == len(text)
		if !end && text[i] != ' ' && text[i] != '\n' {
			continue
		}
		if i > start {
			word := text[start:i]
			w, _ := m.MeasureText(word, scale)
			if x+w > right && x > box.X {
				x = box.X
				y += lineHeight
			}
			if y+lineHeight > bottom {
				return dst
			}
			dst = append(dst, Placement{Word: word, X: x, Y: y})
			x += w + Gap
		}
		if !end && text[i] == '\n' {
			x = box.X
			y += lineHeight
		}
		start = i + 1
	}
	return dst
}

// Wrap is AppendWrap into a new slice.
func Wrap(m Measurer, text string, box Box, lineHeight int16, scale uint8) []Placement {
	return AppendWrap(nil, m, text, box, lineHeight, scale)
}

// Lines counts the distinct rows used by placements.
func Lines(placements []Placement) int {
	n := 0
	for i, p := range placements {
		if i == 0 || p.Y != placements[i-1].Y {
			n++
		}
	}
	return n
}

