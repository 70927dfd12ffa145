package view

// FallbackGlyph is shown for expressions the panel does not know.
const FallbackGlyph = "._."

var glyphs = map[string]string{
	"idle":        ":|",
	"neutral":     ":|",
	"happy":       ":)",
	"friendly":    "^-^",
	"amused":      ":D",
	"pride":       "B)",
	"celebration": "\\o/",
	"listening":   "o.o",
	"thinking":    "-.-",
	"processing":  "...",
	"calculating": "#_#",
	"deep_focus":  "@_@",
	"speaking":    "o_o",
	"alert":       "O_O",
	"surprised":   ":O",
	"intrigued":   "o.O",
	"concerned":   ":/",
	"sarcasm":     ";)",
	"deadpan":     "-_-",
	"unimpressed": "=_=",
	"disapproval": ">:(",
	"skeptical":   "o_O",
	"confused":    "?_?",
	"bored":       "~_~",
	"frustrated":  ">_<",
	"error":       "X_X",
	"sheepish":    "^^;",
	"sleeping":    "z Z z",
	"welcome":     "^_^",
	"diagnostic":  "[?]",
	"pulse":       "~",
	"chase":       ">>>",
	"flash":       "*",
	"rainbow":     "<3",
	"sparkle":     "***",
	"comet":       "-->",
}

// Glyph returns the text face for an expression tag. It never fails.
func Glyph(expression string) string {
	if g, ok := glyphs[expression]; ok {
		return g
	}
	return FallbackGlyph
}
