package content

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/lexers"
	"github.com/alecthomas/chroma/styles"
)

// SyntaxHighlighter colors structured text such as the effective profile
// printed by the CLI
type SyntaxHighlighter struct {
	formatter chroma.Formatter
	style     *chroma.Style
	theme     string
}

// NewSyntaxHighlighter creates a new syntax highlighter with specified theme and format
func NewSyntaxHighlighter(themeName, formatterName string) (*SyntaxHighlighter, error) {
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	style := styles.Get(themeName)
	if style == nil {
		style = styles.GitHub
	}

	return &SyntaxHighlighter{
		formatter: formatter,
		style:     style,
		theme:     themeName,
	}, nil
}

// Highlight applies syntax highlighting to code
func (sh *SyntaxHighlighter) Highlight(code, language string) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var highlighted strings.Builder
	if err := sh.formatter.Format(&highlighted, sh.style, iterator); err != nil {
		return code, err
	}
	return highlighted.String(), nil
}

// SetTheme updates the syntax highlighting theme
func (sh *SyntaxHighlighter) SetTheme(themeName string) error {
	style, ok := styles.Registry[themeName]
	if !ok {
		return fmt.Errorf("theme '%s' not found", themeName)
	}

	sh.style = style
	sh.theme = themeName
	return nil
}

// Theme returns the active theme name
func (sh *SyntaxHighlighter) Theme() string {
	return sh.theme
}
