// Package i18n holds localized activity messages.
//
// Messages are loaded from YAML documents keyed by locale, with nested keys
// flattened by ".":
//
//	en:
//	  activity:
//	    article:
//	      create: "%{author_name} published an article"
//
// Placeholders are written %{name}; %%{name} renders a literal "%{name}".
package i18n

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"keeptrack/pkg/requestcontext"
)

var (
	// ErrMissingTranslation is returned when neither the requested nor the
	// fallback locale has a message for a key.
	ErrMissingTranslation = errors.New("i18n: missing translation")
	// ErrMissingInterpolation is returned when a message references a
	// parameter that was not supplied.
	ErrMissingInterpolation = errors.New("i18n: missing interpolation argument")
)

// MissingTranslationError reports a key absent from both the requested and
// the fallback locale. It matches ErrMissingTranslation.
type MissingTranslationError struct {
	Key    string
	Locale language.Tag
}

func (e *MissingTranslationError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrMissingTranslation, e.Key, e.Locale)
}

// Is reports whether target is ErrMissingTranslation.
func (e *MissingTranslationError) Is(target error) bool {
	return target == ErrMissingTranslation
}

// TranslationMarker is the placeholder text shown instead of the message,
// e.g. "translation missing: en.activity.article.update".
func (e *MissingTranslationError) TranslationMarker() string {
	return "translation missing: " + e.Locale.String() + "." + e.Key
}

// Catalog is a concurrency-safe message store implementing
// render.Translator.
type Catalog struct {
	fallback language.Tag
	logger   *slog.Logger

	mu       sync.RWMutex
	messages map[language.Tag]map[string]string
	tags     []language.Tag
	matcher  language.Matcher
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used to report missing translations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// NewCatalog returns an empty catalog answering in fallback when the
// context locale has no match.
func NewCatalog(fallback language.Tag, opts ...Option) *Catalog {
	c := &Catalog{
		fallback: fallback,
		logger:   slog.New(slog.DiscardHandler),
		messages: map[language.Tag]map[string]string{fallback: {}},
		tags:     []language.Tag{fallback},
	}
	c.matcher = language.NewMatcher(c.tags)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add stores a single message.
func (c *Catalog) Add(tag language.Tag, key, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(tag, key, message)
}

func (c *Catalog) addLocked(tag language.Tag, key, message string) {
	msgs, ok := c.messages[tag]
	if !ok {
		msgs = make(map[string]string)
		c.messages[tag] = msgs
		c.tags = append(c.tags, tag)
		c.matcher = language.NewMatcher(c.tags)
	}
	msgs[key] = message
}

// Load reads one YAML document of locale-keyed messages.
func (c *Catalog) Load(r io.Reader) error {
	var doc map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode messages: %w", err)
	}

	flat := make(map[language.Tag]map[string]string, len(doc))
	for locale, tree := range doc {
		tag, err := language.Parse(locale)
		if err != nil {
			return fmt.Errorf("locale %q: %w", locale, err)
		}
		msgs := make(map[string]string)
		if err := flatten("", tree, msgs); err != nil {
			return fmt.Errorf("locale %q: %w", locale, err)
		}
		flat[tag] = msgs
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for tag, msgs := range flat {
		for key, msg := range msgs {
			c.addLocked(tag, key, msg)
		}
	}
	return nil
}

// LoadFS loads every file in fsys matching pattern, in lexical order, so
// later files override earlier ones.
func (c *Catalog) LoadFS(fsys fs.FS, pattern string) error {
	names, err := fs.Glob(fsys, pattern)
	if err != nil {
		return err
	}
	slices.Sort(names)
	for _, name := range names {
		f, err := fsys.Open(name)
		if err != nil {
			return err
		}
		err = c.Load(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Locales lists the loaded locales, fallback first.
func (c *Catalog) Locales() []language.Tag {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.tags)
}

// Lookup returns the uninterpolated message for key in the locale matched
// from tag, falling back to the catalog's fallback locale.
func (c *Catalog) Lookup(tag language.Tag, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, idx, conf := c.matcher.Match(tag)
	if conf != language.No {
		if msg, ok := c.messages[c.tags[idx]][key]; ok {
			return msg, true
		}
	}
	msg, ok := c.messages[c.fallback][key]
	return msg, ok
}

// Translate implements render.Translator. The locale comes from
// requestcontext.Locale.
func (c *Catalog) Translate(ctx context.Context, key string, params map[string]any) (string, error) {
	tag, ok := requestcontext.Locale(ctx)
	if !ok {
		tag = c.fallback
	}
	msg, ok := c.Lookup(tag, key)
	if !ok {
		c.logger.DebugContext(ctx, "translation missing", "key", key, "locale", tag.String())
		return "", &MissingTranslationError{Key: key, Locale: tag}
	}
	return Interpolate(msg, params)
}

// Interpolate substitutes %{name} placeholders in msg with params.
func Interpolate(msg string, params map[string]any) (string, error) {
	if !strings.Contains(msg, "%{") {
		return msg, nil
	}

	var b strings.Builder
	b.Grow(len(msg))
	for {
		i := strings.Index(msg, "%{")
		if i < 0 {
			b.WriteString(msg)
			return b.String(), nil
		}
		end := strings.IndexByte(msg[i:], '}')
		if end < 0 {
			b.WriteString(msg)
			return b.String(), nil
		}
		end += i

		if i > 0 && msg[i-1] == '%' {
			b.WriteString(msg[:i-1])
			b.WriteString(msg[i : end+1])
			msg = msg[end+1:]
			continue
		}

		name := msg[i+2 : end]
		v, ok := params[name]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrMissingInterpolation, name)
		}
		b.WriteString(msg[:i])
		fmt.Fprint(&b, v)
		msg = msg[end+1:]
	}
}

func flatten(prefix string, node any, out map[string]string) error {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(key, child, out); err != nil {
				return err
			}
		}
	case string:
		out[prefix] = v
	case nil:
	case []any:
		return fmt.Errorf("key %q: lists are not supported", prefix)
	default:
		out[prefix] = fmt.Sprint(v)
	}
	return nil
}
