package content

// Control codes with conventional names
const (
	CtrlC byte = 3
	CtrlD byte = 4
	CtrlQ byte = 17
	CtrlS byte = 19
	CtrlZ byte = 26
)

// ControlName returns the caret notation shown as feedback after sending a
// control byte
func ControlName(code byte) string {
	switch code {
	case CtrlC:
		return "^C"
	case CtrlD:
		return "^D"
	case CtrlZ:
		return "^Z"
	case CtrlQ:
		return "^Q"
	case CtrlS:
		return "^S"
	default:
		return "^" + string(rune(64+int(code)))
	}
}

// CtrlCode maps a letter to the byte sent for Ctrl+letter. Case is ignored.
func CtrlCode(letter rune) (byte, bool) {
	switch {
	case letter >= 'a' && letter <= 'z':
		return byte(letter - 96), true
	case letter >= 'A' && letter <= 'Z':
		return byte(letter - 64), true
	default:
		return 0, false
	}
}

// IsControl reports whether b is one of the Ctrl+letter bytes
func IsControl(b byte) bool {
	return b >= 1 && b <= 26
}

// Named keys and the bytes they send
const (
	KeyEnter     = "\n"
	KeyBackspace = "\b"
	KeyTab       = "\t"
)
