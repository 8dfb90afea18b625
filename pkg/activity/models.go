package activity

import (
	"fmt"
	"maps"
	"time"

	id "keeptrack/pkg/domain"
)

// Referencer is anything that can be stored as a polymorphic reference.
type Referencer interface {
	ActivityRef() id.Ref
}

// Subject is a tracked entity. Embedding *Instance (or Instance) provides
// ActivityInstance; the host type supplies ActivityRef.
type Subject interface {
	Referencer
	ActivityInstance() *Instance
}

// Record is a persisted activity.
type Record struct {
	ID           id.ActivityID  `json:"id"`
	Trackable    id.Ref         `json:"trackable"`
	Owner        *id.Ref        `json:"owner,omitempty"`
	Recipient    *id.Ref        `json:"recipient,omitempty"`
	Key          string         `json:"key"`
	Parameters   map[string]any `json:"parameters,omitempty"`
	CustomFields map[string]any `json:"custom_fields,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// NewRecord builds an unsaved record for trackable from composed settings.
func NewRecord(trackable id.Ref, s Settings) *Record {
	return &Record{
		ID:           id.NewActivityID(),
		Trackable:    trackable,
		Owner:        s.Owner(),
		Recipient:    s.Recipient(),
		Key:          s.Key(),
		Parameters:   s.Parameters(),
		CustomFields: s.CustomFields(),
	}
}

// Action returns the last dotted segment of the key.
func (r *Record) Action() string {
	return ActionFromKey(r.Key)
}

// Validate checks the fields every store relies on.
func (r *Record) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("%w: key is required", ErrInvalidRecord)
	}
	if r.Trackable.IsZero() {
		return fmt.Errorf("%w: trackable is required", ErrInvalidRecord)
	}
	if r.ID.IsNil() {
		return fmt.Errorf("%w: id is required", ErrInvalidRecord)
	}
	return nil
}

// Clone returns a deep-enough copy: maps and refs are not shared.
func (r *Record) Clone() *Record {
	out := *r
	out.Owner = cloneRef(r.Owner)
	out.Recipient = cloneRef(r.Recipient)
	out.Parameters = maps.Clone(r.Parameters)
	out.CustomFields = maps.Clone(r.CustomFields)
	return &out
}

func cloneRef(r *id.Ref) *id.Ref {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}

// Settings is the immutable outcome of composing the three tiers.
type Settings struct {
	key          string
	owner        *id.Ref
	recipient    *id.Ref
	parameters   map[string]any
	customFields map[string]any
}

// Key is the dotted activity key.
func (s Settings) Key() string { return s.key }

// Owner is the resolved owner reference, nil when absent.
func (s Settings) Owner() *id.Ref { return cloneRef(s.owner) }

// Recipient is the resolved recipient reference, nil when absent.
func (s Settings) Recipient() *id.Ref { return cloneRef(s.recipient) }

// Parameters returns a copy of the resolved parameters.
func (s Settings) Parameters() map[string]any { return cloneMap(s.parameters) }

// CustomFields returns a copy of the resolved custom fields.
func (s Settings) CustomFields() map[string]any { return cloneMap(s.customFields) }

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	maps.Copy(out, m)
	return out
}

// toRef converts a resolved owner or recipient into a reference.
func toRef(v any) (*id.Ref, error) {
	switch ref := v.(type) {
	case nil:
		return nil, nil
	case id.Ref:
		return ref.Ptr(), nil
	case *id.Ref:
		if ref == nil {
			return nil, nil
		}
		return ref.Ptr(), nil
	case Referencer:
		return ref.ActivityRef().Ptr(), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidReference, v)
	}
}
