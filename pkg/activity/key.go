package activity

import (
	"strings"
	"unicode"
)

// Action names a lifecycle or custom event.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDestroy Action = "destroy"
)

// DefaultActions are the lifecycle actions tracked unless restricted.
var DefaultActions = []Action{ActionCreate, ActionUpdate, ActionDestroy}

// NormalizeAction returns the canonical form of an action name: trimmed,
// lower-cased, without a leading ':'.
func NormalizeAction(name string) Action {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, ":")
	return Action(strings.ToLower(name))
}

// NormalizeTypeName turns a type name into the snake_case prefix of
// synthesized keys. Namespace separators and camel-case boundaries become
// underscores: "MyNamespace::CamelCase" -> "my_namespace_camel_case",
// "HTTPRequest" -> "http_request".
func NormalizeTypeName(typeName string) string {
	runes := []rune(typeName)
	var b strings.Builder
	b.Grow(len(runes) + 4)

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 && wordBoundary(runes, i) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return collapseUnderscores(b.String())
}

// wordBoundary reports whether an upper-case rune at i starts a new word.
func wordBoundary(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	if unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
		return true
	}
	return false
}

func collapseUnderscores(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	underscore := false
	for _, r := range s {
		if r == '_' {
			if !underscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			underscore = true
			continue
		}
		underscore = false
		b.WriteRune(r)
	}
	return strings.TrimSuffix(b.String(), "_")
}

// SynthesizeKey builds "<normalized type>.<action>".
func SynthesizeKey(typeName, action string) string {
	return NormalizeTypeName(typeName) + "." + string(NormalizeAction(action))
}

// ActionFromKey returns the last dotted segment of key.
func ActionFromKey(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}
