package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	glyphComplete   = "●"
	glyphIncomplete = "·"
)

type styledCell struct {
	s     string
	width int
}

// buildRowCells renders one character's level cells. cursorCol is -1 when
// the row is not selected.
func buildRowCells(complete []bool, cursorCol int) []styledCell {
	out := make([]styledCell, 0, len(complete))
	for i, done := range complete {
		glyph := glyphIncomplete
		style := pendingStyle
		if done {
			glyph = glyphComplete
			style = completeStyle
		}
		if i == cursorCol {
			style = style.Reverse(true)
		}
		out = append(out, styledCell{
			s:     style.Render(" " + glyph + " "),
			width: runewidth.StringWidth(glyph) + 2,
		})
	}
	return out
}

func renderCells(cells []styledCell) string {
	var b strings.Builder
	for _, item := range cells {
		b.WriteString(item.s)
	}
	return b.String()
}

// wrapSegments joins help segments with two spaces, breaking lines between
// segments so none exceeds width. A segment wider than width gets its own line.
func wrapSegments(segments []string, width int) string {
	if width <= 0 {
		return strings.Join(segments, "  ")
	}
	var out strings.Builder
	lineWidth := 0
	for _, seg := range segments {
		w := runewidth.StringWidth(seg)
		if lineWidth > 0 && lineWidth+2+w > width {
			out.WriteRune('\n')
			lineWidth = 0
		}
		if lineWidth > 0 {
			out.WriteString("  ")
			lineWidth += 2
		}
		out.WriteString(seg)
		lineWidth += w
	}
	return out.String()
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateName(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
