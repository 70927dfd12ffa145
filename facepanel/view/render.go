package view

import (
	"image/color"
	"strconv"

	"github.com/harveysanders/gairidisplay/facepanel/hittest"
	"github.com/harveysanders/gairidisplay/facepanel/layout"
)

const (
	titleHeight  = 28
	footerHeight = 14
	margin       = 8
	// confidenceBarWidth is the outline width; the fill is 4px narrower.
	confidenceBarWidth = 200
)

func (m *Machine) contentTop() int16 { return titleHeight + 4 }

// contentBottom is the top of the footer line, just above the buttons.
func (m *Machine) contentBottom() int16 {
	top := m.height
	for _, b := range m.buttons {
		top = min(top, b.Rect.Y)
	}
	return top - footerHeight
}

func (m *Machine) lineHeight(scale uint8) int16 {
	_, h := m.surface.MeasureText("Ag", scale)
	return h + 2
}

func (m *Machine) titleBar(title, glyph string) {
	s := m.surface
	s.FillRect(0, 0, m.width, titleHeight, colorTitleBar)
	s.DrawText(margin, 5, title, colorTitle, 2)
	if glyph != "" {
		w, _ := s.MeasureText(glyph, 2)
		s.DrawText(m.width-margin-w, 5, glyph, colorGlyph, 2)
	}
}

func (m *Machine) footer() {
	s := m.surface
	y := m.contentBottom() + 2

	var info string
	switch m.active {
	case Conversation:
		info = m.tierLine(m.conversation.Tier, m.conversation.ResponseTime)
	case Status:
		info = "state: " + m.status.State
	case Debug:
		info = m.tierLine(m.debug.Tier, m.debug.ResponseTime)
	}
	s.DrawText(margin, y, info, colorMuted, 1)

	m.scratch = strconv.AppendInt(m.scratch[:0], int64(m.active)+1, 10)
	m.scratch = append(m.scratch, '/')
	m.scratch = strconv.AppendInt(m.scratch, numKinds, 10)
	page := string(m.scratch)
	w, _ := s.MeasureText(page, 1)
	s.DrawText(m.width-margin-w, y, page, colorMuted, 1)
}

func (m *Machine) tierLine(tier string, seconds float64) string {
	m.scratch = append(m.scratch[:0], "tier: "...)
	m.scratch = append(m.scratch, tier...)
	m.scratch = append(m.scratch, "  "...)
	m.scratch = appendSeconds(m.scratch, seconds)
	return string(m.scratch)
}

func (m *Machine) renderButtons() {
	s := m.surface
	for _, b := range m.buttons {
		r := b.Rect
		s.FillRect(r.X, r.Y, r.W, r.H, colorButton)
		s.StrokeRect(r.X, r.Y, r.W, r.H, colorButtonEdge)
		label := b.Label
		if b.ID == hittest.TargetAction {
			label = ActionLabel(m.active)
		}
		w, h := s.MeasureText(label, 2)
		s.DrawText(r.X+(r.W-w)/2, r.Y+(r.H-h)/2, label, colorText, 2)
	}
}

func (m *Machine) renderConversation() {
	s := m.surface
	top, bottom := m.contentTop(), m.contentBottom()
	mid := top + (bottom-top)/2
	lh := m.lineHeight(1)

	s.DrawText(margin, top, "You:", colorUser, 1)
	m.wrap(m.conversation.UserText, layout.Box{
		X: margin, Y: top + lh, W: m.width - 2*margin, H: mid - top - lh,
	}, colorText)

	s.DrawText(margin, mid, "Gairi:", colorCompanion, 1)
	m.wrap(m.conversation.CompanionText, layout.Box{
		X: margin, Y: mid + lh, W: m.width - 2*margin, H: bottom - mid - lh,
	}, colorText)
}

func (m *Machine) renderStatus() {
	s := m.surface
	st := m.status
	top := m.contentTop()
	lh := m.lineHeight(1)

	s.DrawText(margin, top, "User:", colorMuted, 1)
	s.DrawText(margin+48, top, st.User, colorText, 2)

	badgeY := top + 26
	s.FillRect(margin, badgeY, 150, 22, LevelColor(st.Level))
	m.scratch = append(m.scratch[:0], "Level "...)
	m.scratch = strconv.AppendInt(m.scratch, int64(st.Level), 10)
	m.scratch = append(m.scratch, ' ')
	m.scratch = append(m.scratch, levelName(st.Level)...)
	s.DrawText(margin+6, badgeY+(22-lh)/2+1, string(m.scratch), colorBackground, 1)

	s.DrawText(margin, badgeY+30, "Expression: "+st.Expression, colorText, 1)

	barY := badgeY + 30 + 2*lh
	s.DrawText(margin, barY, "Confidence", colorMuted, 1)
	barY += lh
	s.StrokeRect(margin, barY, confidenceBarWidth, 14, colorMuted)
	fill := int16(st.Confidence * float64(confidenceBarWidth-4))
	if fill > 0 {
		s.FillRect(margin+2, barY+2, fill, 10, colorBar)
	}
	s.DrawText(margin+confidenceBarWidth+8, barY+1, percent(st.Confidence), colorText, 1)

	gw, _ := s.MeasureText(m.statusGlyph, 3)
	s.DrawText(m.width-margin-gw, badgeY, m.statusGlyph, colorGlyph, 3)
}

func (m *Machine) renderDebug() {
	s := m.surface
	d := m.debug
	top, bottom := m.contentTop(), m.contentBottom()
	lh := m.lineHeight(1)
	valueX := int16(margin + 80)

	row := func(y int16, label, value string, c color.RGBA) {
		s.DrawText(margin, y, label, colorMuted, 1)
		s.DrawText(valueX, y, value, c, 1)
	}

	y := top
	row(y, "Tier:", d.Tier, colorText)
	y += lh + 4

	s.DrawText(margin, y, "Tool:", colorMuted, 1)
	tool := d.Tool
	if tool == "" {
		tool = "none"
	}
	m.wrap(tool, layout.Box{X: valueX, Y: y, W: m.width - valueX - margin, H: 2 * lh}, colorText)
	y += 2*lh + 4

	if d.TrainingLogged {
		row(y, "Training:", "logged", colorOwner)
	} else {
		row(y, "Training:", "not logged", colorMuted)
	}
	y += lh + 4

	if y+lh <= bottom {
		m.scratch = appendSeconds(m.scratch[:0], d.ResponseTime)
		row(y, "Response:", string(m.scratch), colorText)
	}
}

// wrap lays text out in box and draws each placed word.
func (m *Machine) wrap(text string, box layout.Box, c color.RGBA) {
	m.placements = layout.AppendWrap(m.placements[:0], m.surface, text, box, m.lineHeight(1), 1)
	for _, p := range m.placements {
		m.surface.DrawText(p.X, p.Y, p.Word, c, 1)
	}
}

func (m *Machine) centered(text string, y int16, c color.RGBA, scale uint8) {
	w, _ := m.surface.MeasureText(text, scale)
	m.surface.DrawText((m.width-w)/2, y, text, c, scale)
}

// percent formats a [0,1] ratio as a whole percentage, e.g. 0.82 -> "82%".
func percent(ratio float64) string {
	b := strconv.AppendInt(make([]byte, 0, 4), int64(ratio*100+0.5), 10)
	return string(append(b, '%'))
}

func appendSeconds(dst []byte, seconds float64) []byte {
	dst = strconv.AppendFloat(dst, seconds, 'f', 2, 64)
	return append(dst, 's')
}
