package domain

import (
	"fmt"
	"strings"
)

// Ref is a polymorphic reference to an entity: its type name plus its ID.
// Trackables, owners and recipients of activities are all stored as refs.
type Ref struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// NewRef builds a Ref from its parts.
func NewRef(typeName, id string) Ref {
	return Ref{Type: typeName, ID: id}
}

// ParseRef parses the "Type#ID" form produced by Ref.String.
func ParseRef(s string) (Ref, error) {
	typeName, id, ok := strings.Cut(s, "#")
	if !ok || strings.TrimSpace(typeName) == "" || strings.TrimSpace(id) == "" {
		return Ref{}, fmt.Errorf("%w: ref %q", ErrInvalidID, s)
	}
	return Ref{Type: typeName, ID: id}, nil
}

// IsZero reports whether the ref points nowhere.
func (r Ref) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

func (r Ref) String() string {
	return r.Type + "#" + r.ID
}

// Ptr returns a pointer to a copy of r, or nil for the zero ref.
func (r Ref) Ptr() *Ref {
	if r.IsZero() {
		return nil
	}
	return &r
}
