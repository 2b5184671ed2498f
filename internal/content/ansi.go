// Package content implements the text handling shared by both renderers:
// ANSI filtering for the plain renderer, control-key naming, the bounded
// message history, and syntax highlighting for CLI output.
package content

import (
	"regexp"
	"strings"
)

// The plain renderer removes these escape families, in this order.
var ansiPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\x1b\[[0-9;]*m`),
	regexp.MustCompile(`\x1b\[[0-9;]*[A-Za-z]`),
	regexp.MustCompile(`\x1b\[!\w*\]`),
	regexp.MustCompile(`\x1b\[\?\w*[hl]`),
}

// TabWidth is the number of spaces a tab expands to in plain output
const TabWidth = 4

// EraseSequence removes the previous character on a terminal
const EraseSequence = "\b \b"

// StripANSI removes color, cursor-control, capability-query and mode-set
// escape sequences from s. Anything else passes through.
func StripANSI(s string) string {
	if !strings.Contains(s, "\x1b") {
		return s
	}
	for _, re := range ansiPatterns {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// FilterPlain prepares a payload frame for a plain-text display: escapes
// are stripped, CR becomes a newline, tabs expand, backspace erases one
// character and every other control byte is dropped.
func FilterPlain(frame string) string {
	stripped := StripANSI(frame)
	var b strings.Builder
	b.Grow(len(stripped))
	for i := 0; i < len(stripped); i++ {
		c := stripped[i]
		switch {
		case c == '\n' || c == '\r':
			b.WriteByte('\n')
		case c == '\t':
			b.WriteString(strings.Repeat(" ", TabWidth))
		case c == '\b':
			b.WriteString(EraseSequence)
		case c < 32 || c == 0x7f:
			// dropped
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
