package activity

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"keeptrack/pkg/requestcontext"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	// KindAbsent is the zero Value: the setting was not given at all.
	KindAbsent Kind = iota
	KindLiteral
	KindAttribute
	KindComputed
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindLiteral:
		return "literal"
	case KindAttribute:
		return "attribute"
	case KindComputed:
		return "computed"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ComputeFunc derives a value from the ambient caller (nil when none is
// bound) and the subject. Errors are returned to the caller of Resolve as-is.
type ComputeFunc func(caller *requestcontext.Caller, subject Subject) (any, error)

// Value is a setting that is resolved against a subject at record time.
type Value struct {
	kind    Kind
	literal any
	attr    string
	fn      ComputeFunc
	mapping *Mapping
}

// Literal wraps a constant. Literal(nil) is a present, explicit nil.
func Literal(v any) Value {
	return Value{kind: KindLiteral, literal: v}
}

// Attr references an attribute read off the subject.
func Attr(name string) Value {
	return Value{kind: KindAttribute, attr: name}
}

// Computed wraps a callable invoked once per resolution.
func Computed(fn ComputeFunc) Value {
	if fn == nil {
		return Value{}
	}
	return Value{kind: KindComputed, fn: fn}
}

// Nested wraps a mapping whose entries are resolved recursively.
func Nested(m *Mapping) Value {
	return Value{kind: KindMapping, mapping: m}
}

// Kind reports the variant.
func (v Value) Kind() Kind { return v.kind }

// Present reports whether the value was given at all.
func (v Value) Present() bool { return v.kind != KindAbsent }

func (v Value) nilLiteral() bool { return v.kind == KindLiteral && v.literal == nil }

func (v Value) String() string {
	switch v.kind {
	case KindLiteral:
		return fmt.Sprintf("literal(%v)", v.literal)
	case KindAttribute:
		return "attr(" + v.attr + ")"
	case KindMapping:
		return fmt.Sprintf("mapping(%v)", v.mapping.Keys())
	default:
		return v.kind.String()
	}
}

// Resolve evaluates v against subject with the given caller. Absent values
// resolve to nil. Resolution is reentrant; a ComputeFunc may call Resolve.
func Resolve(v Value, subject Subject, caller *requestcontext.Caller) (any, error) {
	switch v.kind {
	case KindAbsent:
		return nil, nil
	case KindLiteral:
		return v.literal, nil
	case KindAttribute:
		return readAttribute(subject, v.attr)
	case KindComputed:
		return v.fn(caller, subject)
	case KindMapping:
		return v.mapping.Resolve(subject, caller)
	default:
		return nil, fmt.Errorf("activity: unknown value kind %v", v.kind)
	}
}

// AttributeReader lets a subject serve attribute references without reflection.
type AttributeReader interface {
	ActivityAttribute(name string) (any, bool)
}

var errorType = reflect.TypeFor[error]()

// readAttribute looks name up on the subject: AttributeReader first, then an
// exported zero-arg method, then an exported field. Both the literal name and
// its CamelCase form ("created_at" -> "CreatedAt") are tried.
func readAttribute(subject Subject, name string) (any, error) {
	if subject == nil {
		return nil, fmt.Errorf("%w: %q on nil subject", ErrAttributeNotFound, name)
	}
	if r, ok := subject.(AttributeReader); ok {
		if v, ok := r.ActivityAttribute(name); ok {
			return v, nil
		}
	}

	candidates := []string{name}
	if camel := camelize(name); camel != name {
		candidates = append(candidates, camel)
	}

	rv := reflect.ValueOf(subject)
	for _, candidate := range candidates {
		if m := rv.MethodByName(candidate); m.IsValid() {
			if v, ok, err := callAccessor(m); ok {
				return v, err
			}
		}
	}

	sv := rv
	for sv.Kind() == reflect.Pointer || sv.Kind() == reflect.Interface {
		if sv.IsNil() {
			return nil, fmt.Errorf("%w: %q on nil %T", ErrAttributeNotFound, name, subject)
		}
		sv = sv.Elem()
	}
	if sv.Kind() == reflect.Struct {
		for _, candidate := range candidates {
			f, ok := sv.Type().FieldByName(candidate)
			if ok && f.IsExported() {
				return sv.FieldByIndex(f.Index).Interface(), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q on %T", ErrAttributeNotFound, name, subject)
}

// callAccessor invokes m when it is shaped like a getter: no arguments,
// returning T or (T, error).
func callAccessor(m reflect.Value) (any, bool, error) {
	t := m.Type()
	if t.NumIn() != 0 {
		return nil, false, nil
	}
	switch t.NumOut() {
	case 1:
		return m.Call(nil)[0].Interface(), true, nil
	case 2:
		if !t.Out(1).Implements(errorType) {
			return nil, false, nil
		}
		out := m.Call(nil)
		if errV := out[1].Interface(); errV != nil {
			return nil, true, errV.(error)
		}
		return out[0].Interface(), true, nil
	default:
		return nil, false, nil
	}
}

// camelize maps snake_case and lower-first names to exported Go names.
func camelize(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' {
			upper = true
			continue
		}
		if upper {
			b.WriteRune(unicode.ToUpper(r))
			upper = false
			continue
		}
		b.WriteRune(r)
	}
	out := b.String()
	switch out {
	case "Id":
		return "ID"
	case "Url":
		return "URL"
	}
	if strings.HasSuffix(out, "Id") {
		return strings.TrimSuffix(out, "Id") + "ID"
	}
	return out
}
