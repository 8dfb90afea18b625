package activity

import (
	"fmt"

	id "keeptrack/pkg/domain"
	"keeptrack/pkg/requestcontext"
)

// Options are the call-site tier of a single record call.
type Options struct {
	// Action names the event when Record is called without one. It is only
	// used to synthesize a key.
	Action string
	// Key overrides every other key source.
	Key string
	// Owner and Recipient override the lower tiers when present, including
	// an explicit Literal(nil).
	Owner     Value
	Recipient Value
	// Params and CustomFields are merged over the lower tiers.
	Params       *Mapping
	CustomFields *Mapping
}

// reservedOptions are the keys OptionsFromMapping interprets itself.
var reservedOptions = map[string]bool{
	"action":     true,
	"key":        true,
	"owner":      true,
	"recipient":  true,
	"params":     true,
	"parameters": true,
}

// OptionsFromMapping interprets a loosely typed override mapping. The
// reserved keys action, key, owner, recipient and params (or parameters)
// populate their fields; every other entry becomes a custom field.
func OptionsFromMapping(m *Mapping) (Options, error) {
	var opts Options
	for _, e := range m.Entries() {
		if !reservedOptions[e.Key] {
			if opts.CustomFields == nil {
				opts.CustomFields = NewMapping()
			}
			opts.CustomFields.Set(e.Key, e.Value)
			continue
		}
		switch e.Key {
		case "action", "key":
			s, err := literalString(e.Key, e.Value)
			if err != nil {
				return Options{}, err
			}
			if e.Key == "action" {
				opts.Action = s
			} else {
				opts.Key = s
			}
		case "owner":
			opts.Owner = e.Value
		case "recipient":
			opts.Recipient = e.Value
		case "params", "parameters":
			if e.Value.Kind() != KindMapping {
				return Options{}, fmt.Errorf("%w: %s must be a mapping, got %v", ErrInvalidOption, e.Key, e.Value.Kind())
			}
			opts.Params = opts.Params.Merge(e.Value.mapping)
		}
	}
	return opts, nil
}

func literalString(name string, v Value) (string, error) {
	if v.Kind() != KindLiteral {
		return "", fmt.Errorf("%w: %s must be a literal, got %v", ErrInvalidOption, name, v.Kind())
	}
	switch s := v.literal.(type) {
	case string:
		return s, nil
	case Action:
		return string(s), nil
	case nil:
		return "", nil
	default:
		return fmt.Sprint(s), nil
	}
}

// Composer merges the global, instance and call-site tiers into Settings.
type Composer struct {
	registry *Registry
}

// NewComposer returns a composer reading global tiers from registry.
func NewComposer(registry *Registry) *Composer {
	return &Composer{registry: registry}
}

// Compose resolves the settings for one record of subject. It either
// returns complete Settings or an error; it never mutates the subject.
func (c *Composer) Compose(subject Subject, opts Options, caller *requestcontext.Caller) (Settings, error) {
	ref := subject.ActivityRef()

	var global Tier
	if cfg, ok := c.registry.Lookup(ref.Type); ok {
		global = cfg.Global()
	}
	var instance Tier
	if in := subject.ActivityInstance(); in != nil {
		instance = in.ActivityTier()
	}

	key, err := composeKey(ref.Type, opts, instance)
	if err != nil {
		return Settings{}, err
	}

	owner, err := resolveRef(firstPresent(opts.Owner, nonNil(instance.Owner), global.Owner), subject, caller, "owner")
	if err != nil {
		return Settings{}, err
	}
	recipient, err := resolveRef(firstPresent(opts.Recipient, nonNil(instance.Recipient), global.Recipient), subject, caller, "recipient")
	if err != nil {
		return Settings{}, err
	}

	params, err := global.Params.Merge(instance.Params).Merge(opts.Params).Resolve(subject, caller)
	if err != nil {
		return Settings{}, err
	}
	custom, err := global.CustomFields.Merge(instance.CustomFields).Merge(opts.CustomFields).Resolve(subject, caller)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		key:          key,
		owner:        owner,
		recipient:    recipient,
		parameters:   params,
		customFields: custom,
	}, nil
}

func composeKey(typeName string, opts Options, instance Tier) (string, error) {
	switch {
	case opts.Key != "":
		return opts.Key, nil
	case instance.Key != "":
		return instance.Key, nil
	case opts.Action != "":
		return SynthesizeKey(typeName, opts.Action), nil
	default:
		return "", ErrNoKeyProvided
	}
}

// nonNil treats a nil literal as absent. Only the call site can force a nil
// owner or recipient; a nil on the instance falls through to the global tier.
func nonNil(v Value) Value {
	if v.nilLiteral() {
		return Value{}
	}
	return v
}

func firstPresent(values ...Value) Value {
	for _, v := range values {
		if v.Present() {
			return v
		}
	}
	return Value{}
}

func resolveRef(v Value, subject Subject, caller *requestcontext.Caller, field string) (*id.Ref, error) {
	resolved, err := Resolve(v, subject, caller)
	if err != nil {
		return nil, err
	}
	ref, err := toRef(resolved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return ref, nil
}
