// Package render implements the two display backends of the console: a rich
// Bubble Tea terminal and a plain-text fallback. Exactly one is active at a
// time; the application context replays recent history when switching.
package render

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/universal-console/serialconsole/internal/errors"
	"github.com/universal-console/serialconsole/internal/interfaces"
	"github.com/universal-console/serialconsole/internal/logging"
)

// Options configures a renderer
type Options struct {
	// In is the operator's keyboard, os.Stdin when nil
	In io.Reader

	// Out is the display, os.Stdout when nil
	Out io.Writer

	// LocalEcho makes the plain renderer print typed characters
	LocalEcho bool

	// Labels are the channel names shown by the channel picker
	Labels []string

	Theme  *interfaces.Theme
	Logger *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.In == nil {
		o.In = os.Stdin
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}
	if o.Logger == nil {
		o.Logger = logging.GetRenderLogger()
	}
	return o
}

// Resolve turns RendererAuto into rich when out is a terminal and plain
// otherwise. Other kinds are returned unchanged.
func Resolve(kind interfaces.RendererKind, out io.Writer) interfaces.RendererKind {
	if kind != interfaces.RendererAuto && kind != "" {
		return kind
	}
	if f, ok := out.(*os.File); ok {
		if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
			return interfaces.RendererRich
		}
	}
	return interfaces.RendererPlain
}

// New creates a renderer of kind
func New(kind interfaces.RendererKind, opts Options) (interfaces.Renderer, error) {
	opts = opts.withDefaults()
	switch Resolve(kind, opts.Out) {
	case interfaces.RendererRich:
		return NewRich(opts), nil
	case interfaces.RendererPlain:
		return NewPlain(opts), nil
	default:
		return nil, errors.NewConfigurationError("render").
			WithLogger(opts.Logger).
			WithOperation("new").
			WithMessage(fmt.Sprintf("unknown renderer %q", kind)).
			Build()
	}
}

// Factory binds opts so that the application context can create renderers
// by kind alone
func Factory(opts Options) func(interfaces.RendererKind) (interfaces.Renderer, error) {
	return func(kind interfaces.RendererKind) (interfaces.Renderer, error) {
		return New(kind, opts)
	}
}
