package render

import (
	"strings"
)

// TextStyle selects a face for measuring and drawing.
type TextStyle struct {
	Size float64
	Bold bool
}

var (
	styleName   = TextStyle{Size: 16, Bold: true}
	styleSender = TextStyle{Size: 10}
	styleBody   = TextStyle{Size: 11}
)

const (
	advanceName   = 22.0
	advanceSender = 14.0
	advanceBody   = 16.0
	gapSection    = 14.0
	gapParagraph  = 8.0
	gapSignature  = 28.0
)

// Measurer reports the advance width of text in points.
type Measurer interface {
	TextWidth(text string, style TextStyle) float64
}

// PlacedLine is one line of text positioned on its baseline.
type PlacedLine struct {
	Text  string
	X     float64
	Y     float64
	Style TextStyle
}

// Layout is a composed single page.
type Layout struct {
	Lines    []PlacedLine
	Overflow bool
}

type cursor struct {
	geo     Geometry
	measure Measurer
	y       float64
	out     Layout
}

// Compose places the document on one page with a vertical cursor, greedy
// word wrapping and a fixed line advance per style. Lines below the bottom
// margin are still placed and the layout is flagged as overflowing.
func Compose(doc Document, geo Geometry, m Measurer) Layout {
	c := &cursor{geo: geo, measure: m, y: geo.Margin}

	c.line(doc.SenderName, styleName, advanceName)
	if len(doc.SenderLines) > 0 {
		c.wrapped(strings.Join(doc.SenderLines, " | "), styleSender, advanceSender)
	}
	c.gap(gapSection)
	c.line(doc.Date, styleBody, advanceBody)
	c.gap(gapSection)
	for _, line := range doc.RecipientLines {
		c.wrapped(line, styleBody, advanceBody)
	}
	c.gap(gapSection)
	c.wrapped(doc.Greeting, styleBody, advanceBody)
	for _, p := range doc.Paragraphs {
		c.gap(gapParagraph)
		c.wrapped(p, styleBody, advanceBody)
	}
	c.gap(gapSection)
	c.wrapped(doc.Closing, styleBody, advanceBody)
	c.gap(gapSignature)
	c.line(doc.Signature, styleBody, advanceBody)

	return c.out
}

func (c *cursor) gap(points float64) {
	c.y += points
}

func (c *cursor) line(text string, style TextStyle, advance float64) {
	c.y += advance
	if c.y > c.geo.Bottom() {
		c.out.Overflow = true
	}
	c.out.Lines = append(c.out.Lines, PlacedLine{Text: text, X: c.geo.Margin, Y: c.y, Style: style})
}

func (c *cursor) wrapped(text string, style TextStyle, advance float64) {
	for _, l := range Wrap(text, c.geo.ContentWidth(), style, c.measure) {
		c.line(l, style, advance)
	}
}

// Wrap breaks text into lines no wider than width. Words wider than a full
// line are split by rune.
func Wrap(text string, width float64, style TextStyle, m Measurer) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	current := ""
	for _, word := range words {
		for _, piece := range splitLongWord(word, width, style, m) {
			candidate := piece
			if current != "" {
				candidate = current + " " + piece
			}
			if current == "" || m.TextWidth(candidate, style) <= width {
				current = candidate
				continue
			}
			lines = append(lines, current)
			current = piece
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func splitLongWord(word string, width float64, style TextStyle, m Measurer) []string {
	if m.TextWidth(word, style) <= width {
		return []string{word}
	}
	var parts []string
	runes := []rune(word)
	start := 0
	for i := 1; i <= len(runes); i++ {
		if m.TextWidth(string(runes[start:i]), style) > width && i-1 > start {
			parts = append(parts, string(runes[start:i-1]))
			start = i - 1
		}
	}
	return append(parts, string(runes[start:]))
}
