// Package render turns activity records into text or UI fragments.
//
// A record's key picks its template: TemplatePath("article.create", root)
// is "<root>/article/create". When the backend has no such template the
// renderer falls back to the localized text of the key, translated with the
// record's parameters.
package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"

	"keeptrack/pkg/activity"
	"keeptrack/pkg/requestcontext"
)

// DisplayI18n renders the localized text instead of a template.
const DisplayI18n = "i18n"

var (
	// ErrTemplateMissing is returned by backends for unknown templates. The
	// renderer handles it by falling back to text.
	ErrTemplateMissing = errors.New("render: template missing")
	// ErrLayoutMissing is returned by backends for unknown layouts.
	ErrLayoutMissing = errors.New("render: layout missing")
)

// Translator resolves a translation key with interpolation parameters.
// An error with a TranslationMarker() string method marks a key that has
// no message; the renderer writes the marker in place of the text.
type Translator interface {
	Translate(ctx context.Context, key string, params map[string]any) (string, error)
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(ctx context.Context, key string, params map[string]any) (string, error)

// Translate implements Translator.
func (f TranslatorFunc) Translate(ctx context.Context, key string, params map[string]any) (string, error) {
	return f(ctx, key, params)
}

// Backend renders a named template, optionally wrapped in a layout, with
// the given local variables.
type Backend interface {
	Render(ctx context.Context, w io.Writer, template, layout string, locals map[string]any) error
}

// Options tune a single Render call.
type Options struct {
	// Root overrides the renderer's template root.
	Root string
	// LayoutRoot overrides the renderer's layout root.
	LayoutRoot string
	// Layout wraps the rendered template; see LayoutPath.
	Layout string
	// Display is DisplayI18n for text, or a partial name under Root that
	// replaces the key-derived template.
	Display string
	// Params override the record's parameters, key by key.
	Params map[string]any
	// Locals are extra template variables. Reserved names win over them.
	Locals map[string]any
}

// Renderer renders activity records.
type Renderer struct {
	backend    Backend
	translator Translator
	root       string
	layoutRoot string
	logger     *slog.Logger
}

// Option configures the Renderer.
type Option func(*Renderer)

// WithRoot sets the default template root.
func WithRoot(root string) Option {
	return func(r *Renderer) {
		r.root = root
	}
}

// WithLayoutRoot sets the default layout root.
func WithLayoutRoot(root string) Option {
	return func(r *Renderer) {
		r.layoutRoot = root
	}
}

// WithLogger sets the logger used for template fallbacks.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// New builds a renderer. backend may be nil, in which case every render is
// localized text.
func New(backend Backend, translator Translator, opts ...Option) (*Renderer, error) {
	if translator == nil {
		return nil, errors.New("render: translator is required")
	}
	r := &Renderer{
		backend:    backend,
		translator: translator,
		root:       DefaultRoot,
		layoutRoot: DefaultLayoutRoot,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Text returns the localized text of rec. params override the record's
// parameters; the record itself is not modified.
func (r *Renderer) Text(ctx context.Context, rec *activity.Record, params map[string]any) (string, error) {
	return r.translator.Translate(ctx, TextKey(rec.Key), mergeParams(rec.Parameters, params))
}

// Render writes rec to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, rec *activity.Record, opts Options) error {
	if opts.Display == DisplayI18n || r.backend == nil {
		return r.writeText(ctx, w, rec, opts.Params)
	}

	root := r.root
	if opts.Root != "" {
		root = opts.Root
	}
	layoutRoot := r.layoutRoot
	if opts.LayoutRoot != "" {
		layoutRoot = opts.LayoutRoot
	}

	tmpl := TemplatePath(rec.Key, root)
	if opts.Display != "" {
		tmpl = root + "/" + opts.Display
	}

	err := r.backend.Render(ctx, w, tmpl, LayoutPath(opts.Layout, layoutRoot), r.locals(ctx, rec, opts))
	if errors.Is(err, ErrTemplateMissing) {
		r.logger.DebugContext(ctx, "activity template missing, rendering text",
			"template", tmpl,
			"key", rec.Key,
		)
		return r.writeText(ctx, w, rec, opts.Params)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}
	return nil
}

// RenderAll renders recs in order into w.
func (r *Renderer) RenderAll(ctx context.Context, w io.Writer, recs []*activity.Record, opts Options) error {
	for _, rec := range recs {
		if err := r.Render(ctx, w, rec, opts); err != nil {
			return err
		}
	}
	return nil
}

type translationMarker interface {
	TranslationMarker() string
}

func (r *Renderer) writeText(ctx context.Context, w io.Writer, rec *activity.Record, params map[string]any) error {
	text, err := r.Text(ctx, rec, params)
	var missing translationMarker
	if errors.As(err, &missing) {
		r.logger.DebugContext(ctx, "activity translation missing",
			"key", rec.Key,
			"error", err,
		)
		text, err = missing.TranslationMarker(), nil
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

func (r *Renderer) locals(ctx context.Context, rec *activity.Record, opts Options) map[string]any {
	locals := make(map[string]any, len(opts.Locals)+6)
	maps.Copy(locals, opts.Locals)

	params := mergeParams(rec.Parameters, opts.Params)
	caller := requestcontext.CurrentCaller(ctx)
	locals["a"] = rec
	locals["activity"] = rec
	locals["caller"] = caller
	locals["current_user"] = caller
	locals["p"] = params
	locals["params"] = params
	return locals
}

func mergeParams(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	maps.Copy(out, base)
	maps.Copy(out, override)
	return out
}
