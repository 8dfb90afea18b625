package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"maps"
	"strings"
	"sync"
)

// FSBackend renders html/template files read from an fs.FS. A template
// named "activity_views/article/create" is read from
// "activity_views/article/create.tmpl". Layouts see the rendered template
// as the "yield" local.
type FSBackend struct {
	fsys  fs.FS
	ext   string
	funcs template.FuncMap
	cache bool

	mu        sync.RWMutex
	templates map[string]*template.Template
}

// FSOption configures an FSBackend.
type FSOption func(*FSBackend)

// WithExtension changes the template file extension (default ".tmpl").
func WithExtension(ext string) FSOption {
	return func(b *FSBackend) {
		b.ext = ext
	}
}

// WithFuncs adds template functions.
func WithFuncs(funcs template.FuncMap) FSOption {
	return func(b *FSBackend) {
		maps.Copy(b.funcs, funcs)
	}
}

// WithoutCache re-reads templates on every render, for development.
func WithoutCache() FSOption {
	return func(b *FSBackend) {
		b.cache = false
	}
}

// NewFSBackend builds a backend over fsys.
func NewFSBackend(fsys fs.FS, opts ...FSOption) *FSBackend {
	b := &FSBackend{
		fsys:      fsys,
		ext:       ".tmpl",
		funcs:     template.FuncMap{},
		cache:     true,
		templates: make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Render implements Backend. Output is buffered, so nothing is written to w
// when rendering fails.
func (b *FSBackend) Render(_ context.Context, w io.Writer, name, layout string, locals map[string]any) error {
	t, err := b.lookup(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrTemplateMissing, name)
		}
		return err
	}

	var body bytes.Buffer
	if err := t.Execute(&body, locals); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}

	if layout != "" {
		lt, err := b.lookup(layout)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrLayoutMissing, layout)
			}
			return err
		}
		data := maps.Clone(locals)
		data["yield"] = template.HTML(body.String())
		var wrapped bytes.Buffer
		if err := lt.Execute(&wrapped, data); err != nil {
			return fmt.Errorf("execute layout %s: %w", layout, err)
		}
		_, err = w.Write(wrapped.Bytes())
		return err
	}

	_, err = w.Write(body.Bytes())
	return err
}

func (b *FSBackend) lookup(name string) (*template.Template, error) {
	file := strings.TrimPrefix(name, "/") + b.ext
	if !fs.ValidPath(file) {
		return nil, fmt.Errorf("template %q: %w", name, fs.ErrNotExist)
	}

	if b.cache {
		b.mu.RLock()
		t, ok := b.templates[file]
		b.mu.RUnlock()
		if ok {
			return t, nil
		}
	}

	src, err := fs.ReadFile(b.fsys, file)
	if err != nil {
		return nil, err
	}
	t, err := template.New(file).Funcs(b.funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}

	if b.cache {
		b.mu.Lock()
		b.templates[file] = t
		b.mu.Unlock()
	}
	return t, nil
}
