// Package engine orchestrates the template generation pipeline: load,
// validate, compile, validate output, score. Templates come from the cache
// or from registered loaders; evaluation and validation are delegated to the
// expr and validate packages.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/goliatone/go-docgen/pkg/cache"
	"github.com/goliatone/go-docgen/pkg/expr"
	"github.com/goliatone/go-docgen/pkg/template"
	"github.com/goliatone/go-docgen/pkg/validate"
)

// Option customises the engine configuration.
type Option func(*Engine)

// WithCache injects a template cache. The engine owns and closes it.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithValidator injects a custom validator.
func WithValidator(v *validate.Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithLoader registers a loader with a priority. Higher priorities are
// consulted first.
func WithLoader(l Loader, priority int) Option {
	return func(e *Engine) {
		if l != nil {
			e.loaders.add(l, priority)
		}
	}
}

// WithLogger attaches a structured logger. Defaults to a nop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger
		}
	}
}

// WithLoadTimeout bounds each loader I/O call. Loaders are external and may
// hang; the default is 10 seconds.
func WithLoadTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		if timeout > 0 {
			e.loadTimeout = timeout
		}
	}
}

// WithCacheTTL sets the TTL used when the engine populates the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) { e.cacheTTL = ttl }
}

// Engine drives the generation pipeline. Construct with New; the zero value
// is not usable.
type Engine struct {
	cache       *cache.Cache
	validator   *validate.Validator
	loaders     loaderRegistry
	log         *zap.Logger
	loadTimeout time.Duration
	cacheTTL    time.Duration
}

// New constructs an Engine, initialising any missing collaborator with the
// built-in implementation so callers can start with a single call.
func New(options ...Option) *Engine {
	e := &Engine{
		log:         zap.NewNop(),
		loadTimeout: 10 * time.Second,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	if e.cache == nil {
		e.cache = cache.New()
	}
	if e.validator == nil {
		e.validator = validate.New()
	}
	return e
}

// Close stops the cache janitor.
func (e *Engine) Close() {
	e.cache.Close()
}

// Cache exposes the underlying cache, mainly for stats reporting.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// Request describes one generation call.
type Request struct {
	// TemplateID selects the template to render.
	TemplateID string

	// Bindings supplies the variable values. Never mutated.
	Bindings template.Bindings

	// Strict fails the pipeline on the first error-severity finding
	// instead of batch-reporting at the end.
	Strict bool

	// SkipCache forces a loader round-trip.
	SkipCache bool
}

// Generate runs the full pipeline and returns a Result. The error return
// covers invocation mistakes only; pipeline findings are reported on the
// Result.
func (e *Engine) Generate(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("engine: context is required")
	}
	if req.TemplateID == "" {
		return Result{}, errors.New("engine: template id is required")
	}

	start := time.Now()
	result := Result{GenerationID: ulid.Make().String()}
	log := e.log.With(
		zap.String("generation_id", result.GenerationID),
		zap.String("template_id", req.TemplateID),
	)

	tmpl, fromCache, err := e.fetch(ctx, req.TemplateID, req.SkipCache)
	if err != nil {
		log.Warn("template load failed", zap.String("state", string(stateLoading)), zap.Error(err))
		result.fail(err.Error())
		result.Quality = validate.QualityFailed
		result.finish(start)
		return result, nil
	}
	result.Template = tmpl

	// A cache hit was structure-checked at insert time.
	if !fromCache {
		if sawError := result.collect(e.validator.ValidateStructure(tmpl)); sawError && req.Strict {
			return e.failed(result, start, log, stateValidatingStructure)
		}
	}

	evaluator := expr.New(expr.WithMode(evalMode(req.Strict)))

	varResults := e.validator.ValidateVariables(tmpl, req.Bindings)
	varResults = append(varResults, evaluator.Validate(tmpl.Content, req.Bindings)...)
	if sawError := result.collect(varResults); sawError && req.Strict {
		return e.failed(result, start, log, stateValidatingVariables)
	}

	if sawError := result.collect(e.validator.CheckCompleteness(tmpl, req.Bindings)); sawError && req.Strict {
		return e.failed(result, start, log, stateCompletenessCheck)
	}

	output, compileErr := evaluator.Replace(tmpl.Content, req.Bindings)
	if compileErr != nil {
		result.fail(compileErr.Error())
		return e.failed(result, start, log, stateCompiling)
	}

	// An unresolved placeholder in the output is fatal regardless of
	// strict mode; it always indicates a content defect.
	result.collect(e.validator.ValidateOutput(tmpl, output))

	result.Score = e.validator.CalculateQualityScore(tmpl)
	result.Quality = validate.Tier(result.Score)

	result.Success = len(result.Errors) == 0
	if result.Success {
		result.Output = output
		log.Debug("generation complete",
			zap.String("state", string(stateDone)),
			zap.Int("score", result.Score),
			zap.String("quality", string(result.Quality)),
		)
	} else {
		result.Quality = validate.QualityFailed
		log.Warn("generation failed",
			zap.String("state", string(stateFailed)),
			zap.Strings("errors", result.Errors),
		)
	}
	result.finish(start)
	return result, nil
}

func (e *Engine) failed(result Result, start time.Time, log *zap.Logger, at state) (Result, error) {
	result.Success = false
	result.Output = ""
	result.Quality = validate.QualityFailed
	result.finish(start)
	log.Warn("generation failed", zap.String("state", string(at)), zap.Strings("errors", result.Errors))
	return result, nil
}

func evalMode(strict bool) expr.Mode {
	if strict {
		return expr.Strict
	}
	return expr.Lenient
}

// LoadTemplate returns the template for id from the cache or the registered
// loaders, populating the cache on a miss.
func (e *Engine) LoadTemplate(ctx context.Context, id string) (template.Template, error) {
	if ctx == nil {
		return template.Template{}, errors.New("engine: context is required")
	}
	if id == "" {
		return template.Template{}, errors.New("engine: template id is required")
	}
	return e.fetchFromLoaders(ctx, id, true)
}

// fetch consults the cache first, then the loaders. The bool reports a
// cache hit.
func (e *Engine) fetch(ctx context.Context, id string, skipCache bool) (template.Template, bool, error) {
	if !skipCache {
		if tmpl, ok := e.cache.Get(id); ok {
			return tmpl, true, nil
		}
	}
	tmpl, err := e.fetchFromLoaders(ctx, id, !skipCache)
	return tmpl, false, err
}

// fetchFromLoaders queries the registered loaders in priority order and
// returns the first that reports the id exists. Concurrent calls for the
// same id may race on the cache populate; last writer wins.
func (e *Engine) fetchFromLoaders(ctx context.Context, id string, populate bool) (template.Template, error) {
	if e.loaders.empty() {
		return template.Template{}, &template.LoaderError{TemplateID: id}
	}

	ctx, cancel := context.WithTimeout(ctx, e.loadTimeout)
	defer cancel()

	for _, l := range e.loaders.snapshot() {
		exists, err := l.Exists(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return template.Template{}, &template.LoaderError{TemplateID: id, Err: ctx.Err()}
			}
			e.log.Warn("loader exists check failed",
				zap.String("loader", l.Name()), zap.String("template_id", id), zap.Error(err))
			continue
		}
		if !exists {
			continue
		}

		tmpl, err := l.Load(ctx, id)
		if err != nil {
			return template.Template{}, &template.LoaderError{TemplateID: id, Err: err}
		}
		if populate && e.structurallySound(tmpl) {
			if err := e.cache.Set(id, tmpl, e.cacheTTL); err != nil {
				e.log.Warn("cache populate failed", zap.String("template_id", id), zap.Error(err))
			}
		}
		return tmpl, nil
	}
	return template.Template{}, &template.LoaderError{TemplateID: id}
}

// structurallySound reports whether the template has no error-severity
// structure findings. Only sound templates may enter the cache; that is the
// invariant that lets the cache-hit path in Generate skip the structure pass.
func (e *Engine) structurallySound(tmpl template.Template) bool {
	for _, res := range e.validator.ValidateStructure(tmpl) {
		if !res.Passed && res.Severity == template.SeverityError {
			return false
		}
	}
	return true
}

// RegisterTemplate validates then stores a template, fanning the save out to
// every registered loader. Templates with structural errors are refused.
// Per-loader save failures are logged, not raised.
func (e *Engine) RegisterTemplate(ctx context.Context, tmpl template.Template) error {
	if ctx == nil {
		return errors.New("engine: context is required")
	}
	for _, res := range e.validator.ValidateStructure(tmpl) {
		if !res.Passed && res.Severity == template.SeverityError {
			return &template.StructuralError{TemplateID: tmpl.Metadata.ID, Message: res.Message}
		}
	}

	if err := e.cache.Set(tmpl.Metadata.ID, tmpl, e.cacheTTL); err != nil {
		e.log.Warn("cache populate failed", zap.String("template_id", tmpl.Metadata.ID), zap.Error(err))
	}

	for _, l := range e.loaders.snapshot() {
		if err := l.Save(ctx, tmpl); err != nil {
			e.log.Warn("loader save failed",
				zap.String("loader", l.Name()),
				zap.String("template_id", tmpl.Metadata.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// UnregisterTemplate drops the template from the cache and fans the delete
// out to every registered loader. Cache deletion never touches the
// authoritative loader copies; loader failures are logged, not raised.
func (e *Engine) UnregisterTemplate(ctx context.Context, id string) error {
	if ctx == nil {
		return errors.New("engine: context is required")
	}
	if id == "" {
		return errors.New("engine: template id is required")
	}

	e.cache.Delete(id)
	for _, l := range e.loaders.snapshot() {
		if err := l.Delete(ctx, id); err != nil {
			e.log.Warn("loader delete failed",
				zap.String("loader", l.Name()), zap.String("template_id", id), zap.Error(err))
		}
	}
	return nil
}

// ListTemplates unions the ids reported by every loader for the filter,
// sorted and de-duplicated.
func (e *Engine) ListTemplates(ctx context.Context, filter template.Filter) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("engine: context is required")
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, l := range e.loaders.snapshot() {
		listed, err := l.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("engine: list templates via %s: %w", l.Name(), err)
		}
		for _, id := range listed {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
