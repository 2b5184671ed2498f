package mockserial

import (
	"fmt"
	"strings"
)

// sbc simulates the serial console of one single-board computer: a tiny
// line-editing shell that echoes what it receives.
type sbc struct {
	index int
	line  []byte
}

func newSBC(index int) *sbc {
	return &sbc{index: index}
}

func (s *sbc) name() string {
	return fmt.Sprintf("sbc%d", s.index+1)
}

func (s *sbc) prompt() string {
	return fmt.Sprintf("\x1b[1;32mroot@%s\x1b[0m:\x1b[1;34m~\x1b[0m# ", s.name())
}

// banner is printed when the multiplexer switches to this board
func (s *sbc) banner() string {
	return fmt.Sprintf("\r\n\x1b[1;36m=== SBC%d serial console ===\x1b[0m\r\n%s", s.index+1, s.prompt())
}

// feed consumes bytes typed by the operator and returns what the board
// writes back
func (s *sbc) feed(input string) string {
	var out strings.Builder
	for i := 0; i < len(input); i++ {
		b := input[i]
		switch {
		case b == '\r' || b == '\n':
			out.WriteString("\r\n")
			out.WriteString(s.execute(string(s.line)))
			out.WriteString(s.prompt())
			s.line = s.line[:0]
		case b == '\b' || b == 0x7f:
			if len(s.line) > 0 {
				s.line = s.line[:len(s.line)-1]
				out.WriteString("\b \b")
			}
		case b == 3:
			s.line = s.line[:0]
			out.WriteString("^C\r\n")
			out.WriteString(s.prompt())
		case b == 4 && len(s.line) == 0:
			out.WriteString("logout\r\n")
			out.WriteString(s.banner())
		case b == '\t':
			out.WriteString("\a")
		case b < 32:
			// other control bytes are swallowed by the line discipline
		default:
			s.line = append(s.line, b)
			out.WriteByte(b)
		}
	}
	return out.String()
}

func (s *sbc) execute(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "help":
		return "commands: help uname hostname whoami echo colors\r\n"
	case "uname":
		return "Linux " + s.name() + " 6.1.0 armv7l GNU/Linux\r\n"
	case "hostname":
		return s.name() + "\r\n"
	case "whoami":
		return "root\r\n"
	case "echo":
		return strings.Join(fields[1:], " ") + "\r\n"
	case "colors":
		var b strings.Builder
		for c := 31; c <= 37; c++ {
			fmt.Fprintf(&b, "\x1b[%dmcolor %d\x1b[0m\r\n", c, c)
		}
		return b.String()
	default:
		return fmt.Sprintf("-sh: %s: command not found\r\n", fields[0])
	}
}
