// Package docgen renders structured text documents from named templates and
// typed variable bindings, validating both the template and its output and
// caching compiled templates under a byte budget.
package docgen

import (
	"context"

	"github.com/goliatone/go-docgen/pkg/cache"
	"github.com/goliatone/go-docgen/pkg/engine"
	"github.com/goliatone/go-docgen/pkg/template"
)

// Template aliases the core template type for convenience.
type Template = template.Template

// Bindings aliases the per-call variable binding map.
type Bindings = template.Bindings

// Value aliases the tagged variant carried by bindings.
type Value = template.Value

// Filter aliases the listing filter.
type Filter = template.Filter

// Result aliases the generation result returned to callers.
type Result = engine.Result

// Request aliases the generation request.
type Request = engine.Request

// Loader aliases the persistence contract consumed by the engine.
type Loader = engine.Loader

// NewEngine exposes the engine constructor from the top-level module.
func NewEngine(options ...engine.Option) *engine.Engine {
	return engine.New(options...)
}

// NewCache exposes the bounded cache constructor.
func NewCache(options ...cache.Option) *cache.Cache {
	return cache.New(options...)
}

// Generate renders the named template with the supplied bindings using a
// one-shot engine over the provided loaders. It is the simplest entry point
// for callers that already hold their templates.
func Generate(ctx context.Context, templateID string, bindings Bindings, loaders ...Loader) (Result, error) {
	options := make([]engine.Option, 0, len(loaders))
	for i, l := range loaders {
		options = append(options, engine.WithLoader(l, len(loaders)-i))
	}
	eng := engine.New(options...)
	defer eng.Close()

	return eng.Generate(ctx, Request{TemplateID: templateID, Bindings: bindings})
}
