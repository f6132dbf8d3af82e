package llm

import (
	"context"

	"github.com/LenoxSaintGermain/skillforge-ai-coach-sub000/observe"
)

// Instrumented wraps a Generator with tracing, metrics and logging.
type Instrumented struct {
	next Generator
	mw   *observe.Middleware
	name string
}

var _ Generator = (*Instrumented)(nil)

// NewInstrumented wraps next. name is used as the operation kind, usually
// the provider.
func NewInstrumented(next Generator, mw *observe.Middleware, name string) *Instrumented {
	if mw == nil {
		mw = observe.NopMiddleware()
	}
	return &Instrumented{next: next, mw: mw, name: name}
}

// Generate delegates to the wrapped Generator.
func (g *Instrumented) Generate(ctx context.Context, prompt string, params Params) (string, error) {
	var out string
	op := observe.Operation{Component: "llm", Name: "generate", Kind: g.name}
	err := g.mw.Run(ctx, op, func(ctx context.Context) (string, error) {
		var err error
		out, err = g.next.Generate(ctx, prompt, params)
		return "", err
	})
	return out, err
}
