// Package highlight renders YAML and diffs with terminal colors.
package highlight

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

const (
	LanguageYAML = "YAML"
	LanguageDiff = "Diff"

	// DefaultStyle is the chroma style used by [New].
	DefaultStyle = "monokai"
)

// Renderer highlights source text for one language and color profile.
type Renderer struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// New creates a [Renderer] for language. The formatter is chosen from
// profile; [termenv.Ascii] renders the text unchanged.
func New(language string, profile termenv.Profile) *Renderer {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	lexer = chroma.Coalesce(lexer)

	formatterName := "noop"
	switch profile {
	case termenv.TrueColor:
		formatterName = "terminal16m"

	case termenv.ANSI256:
		formatterName = "terminal256"

	case termenv.ANSI:
		formatterName = "terminal8"

	case termenv.Ascii:
	}

	return &Renderer{
		lexer:     lexer,
		formatter: formatters.Get(formatterName),
		style:     styles.Get(DefaultStyle),
	}
}

// Render returns src with color escape sequences applied.
func (r *Renderer) Render(src string) (string, error) {
	iterator, err := r.lexer.Tokenise(nil, src)
	if err != nil {
		return "", fmt.Errorf("lexer tokenize: %w", err)
	}

	buf := &bytes.Buffer{}

	err = r.formatter.Format(buf, r.style, iterator)
	if err != nil {
		return "", fmt.Errorf("format: %w", err)
	}

	return buf.String(), nil
}
