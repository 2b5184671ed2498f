package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/hinshun/vt10x"
)

// vt10x glyph attribute bits
const (
	attrReverse = 1 << iota
	attrUnderline
	attrBold
	attrItalic
	attrBlink
)

// Terminal wraps a vt10x screen that raw serial output is written into
type Terminal struct {
	vt   vt10x.Terminal
	cols int
	rows int
}

// NewTerminal creates an emulator of the given size
func NewTerminal(cols, rows int) *Terminal {
	cols, rows = clampSize(cols, rows)
	return &Terminal{
		vt:   vt10x.New(vt10x.WithSize(cols, rows)),
		cols: cols,
		rows: rows,
	}
}

func clampSize(cols, rows int) (int, int) {
	if cols < 1 {
		cols = 80
	}
	if rows < 1 {
		rows = 24
	}
	return cols, rows
}

// Write feeds raw output, escape sequences included
func (t *Terminal) Write(data string) {
	_, _ = t.vt.Write([]byte(data))
}

// Resize changes the screen size
func (t *Terminal) Resize(cols, rows int) {
	cols, rows = clampSize(cols, rows)
	if cols == t.cols && rows == t.rows {
		return
	}
	t.cols, t.rows = cols, rows
	t.vt.Resize(cols, rows)
}

// Size returns columns and rows
func (t *Terminal) Size() (int, int) {
	return t.cols, t.rows
}

// Clear erases the screen and homes the cursor
func (t *Terminal) Clear() {
	t.Write("\x1b[2J\x1b[H")
}

// Cursor returns the cursor position
func (t *Terminal) Cursor() (col, row int) {
	c := t.vt.Cursor()
	return c.X, c.Y
}

// Line returns row as plain text with trailing blanks removed
func (t *Terminal) Line(row int) string {
	var b strings.Builder
	for col := 0; col < t.cols; col++ {
		ch := t.vt.Cell(col, row).Char
		if ch == 0 {
			ch = ' '
		}
		b.WriteRune(ch)
	}
	return strings.TrimRight(b.String(), " ")
}

// Render draws the screen with colors and the cursor. Runs of cells with
// the same attributes are styled together.
func (t *Terminal) Render() string {
	cursor := t.vt.Cursor()
	showCursor := t.vt.CursorVisible()

	lines := make([]string, t.rows)
	for row := 0; row < t.rows; row++ {
		var line strings.Builder
		var run strings.Builder
		var runGlyph vt10x.Glyph
		runCursor := false

		flush := func() {
			if run.Len() == 0 {
				return
			}
			line.WriteString(glyphStyle(runGlyph, runCursor).Render(run.String()))
			run.Reset()
		}

		for col := 0; col < t.cols; col++ {
			g := t.vt.Cell(col, row)
			if g.Char == 0 {
				g.Char = ' '
			}
			isCursor := showCursor && row == cursor.Y && col == cursor.X
			if run.Len() > 0 && (!sameAttrs(g, runGlyph) || isCursor != runCursor) {
				flush()
			}
			if run.Len() == 0 {
				runGlyph = g
				runCursor = isCursor
			}
			run.WriteRune(g.Char)
		}
		flush()
		lines[row] = line.String()
	}
	return strings.Join(lines, "\n")
}

func sameAttrs(a, b vt10x.Glyph) bool {
	return a.FG == b.FG && a.BG == b.BG && a.Mode == b.Mode
}

func glyphStyle(g vt10x.Glyph, cursor bool) lipgloss.Style {
	style := lipgloss.NewStyle()
	if c, ok := glyphColor(g.FG); ok {
		style = style.Foreground(c)
	}
	if c, ok := glyphColor(g.BG); ok {
		style = style.Background(c)
	}
	if g.Mode&attrBold != 0 {
		style = style.Bold(true)
	}
	if g.Mode&attrUnderline != 0 {
		style = style.Underline(true)
	}
	if g.Mode&attrItalic != 0 {
		style = style.Italic(true)
	}
	if g.Mode&attrBlink != 0 {
		style = style.Blink(true)
	}
	reverse := g.Mode&attrReverse != 0
	if cursor {
		reverse = !reverse
	}
	if reverse {
		style = style.Reverse(true)
	}
	return style
}

// glyphColor maps a vt10x color to lipgloss. Default colors report false.
func glyphColor(c vt10x.Color) (lipgloss.Color, bool) {
	switch {
	case c >= vt10x.DefaultFG:
		return "", false
	case c < 256:
		return lipgloss.Color(fmt.Sprintf("%d", uint32(c))), true
	default:
		return lipgloss.Color(fmt.Sprintf("#%06x", uint32(c))), true
	}
}
